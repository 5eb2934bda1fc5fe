// Package pipeline 提供CSV批量预测
package pipeline

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"flightfare/ml"
)

// Predictor 批量预测使用的预测器
type Predictor interface {
	Predict(ctx context.Context, req ml.PredictionRequest) (decimal.Decimal, error)
}

// inputRow 输入行，列名与表单字段一致；全部按字符串读取以便逐行报告格式错误
type inputRow struct {
	From        string `csv:"from"`
	Destination string `csv:"Destination"`
	FlightType  string `csv:"flightType"`
	Agency      string `csv:"agency"`
	WeekNo      string `csv:"week_no"`
	WeekDay     string `csv:"week_day"`
	Day         string `csv:"day"`
}

// ResultRow 输出行
type ResultRow struct {
	Row         int    `csv:"row"`
	From        string `csv:"from"`
	Destination string `csv:"Destination"`
	FlightType  string `csv:"flightType"`
	Agency      string `csv:"agency"`
	WeekNo      string `csv:"week_no"`
	WeekDay     string `csv:"week_day"`
	Day         string `csv:"day"`
	Prediction  string `csv:"prediction"`
	Error       string `csv:"error"`
}

// BatchStats 批处理统计
type BatchStats struct {
	Rows      int           `json:"rows"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
}

// BatchOptions 批处理选项
type BatchOptions struct {
	// StrictCategories 拒绝取值集合之外的类别
	StrictCategories bool
	Logger           *zap.Logger
}

var requiredColumns = []string{"from", "Destination", "flightType", "agency", "week_no", "week_day", "day"}

// RunBatch 逐行预测。单行失败只记录在该行的error列，不会中断整个批次；
// 读写错误与ctx取消会终止批次。
func RunBatch(ctx context.Context, predictor Predictor, in io.Reader, out io.Writer, opts BatchOptions) (BatchStats, error) {
	start := time.Now()
	stats := BatchStats{}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	cr := csv.NewReader(in)
	cr.TrimLeadingSpace = true
	dec, err := csvutil.NewDecoder(cr)
	if err != nil {
		return stats, fmt.Errorf("read csv header: %w", err)
	}
	if missing := missingColumns(dec.Header()); len(missing) > 0 {
		return stats, fmt.Errorf("csv is missing columns: %s", strings.Join(missing, ", "))
	}

	w := csv.NewWriter(out)
	enc := csvutil.NewEncoder(w)

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		var row inputRow
		err := dec.Decode(&row)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("read csv row %d: %w", stats.Rows+1, err)
		}
		stats.Rows++

		result := ResultRow{
			Row:         stats.Rows,
			From:        row.From,
			Destination: row.Destination,
			FlightType:  row.FlightType,
			Agency:      row.Agency,
			WeekNo:      row.WeekNo,
			WeekDay:     row.WeekDay,
			Day:         row.Day,
		}
		price, err := predictRow(ctx, predictor, row, opts.StrictCategories)
		if err != nil {
			stats.Failed++
			result.Error = err.Error()
			logger.Warn("batch row failed", zap.Int("row", stats.Rows), zap.Error(err))
		} else {
			stats.Succeeded++
			result.Prediction = ml.FormatPrice(price)
		}

		if err := enc.Encode(result); err != nil {
			return stats, fmt.Errorf("write csv row %d: %w", stats.Rows, err)
		}
	}

	// 空输入也输出表头
	if stats.Rows == 0 {
		if err := enc.EncodeHeader(ResultRow{}); err != nil {
			return stats, fmt.Errorf("write csv header: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return stats, fmt.Errorf("flush csv: %w", err)
	}

	stats.Duration = time.Since(start)
	logger.Info("batch finished",
		zap.Int("rows", stats.Rows),
		zap.Int("succeeded", stats.Succeeded),
		zap.Int("failed", stats.Failed),
		zap.Duration("duration", stats.Duration))
	return stats, nil
}

func predictRow(ctx context.Context, predictor Predictor, row inputRow, strict bool) (decimal.Decimal, error) {
	req, err := row.toRequest()
	if err != nil {
		return decimal.Zero, err
	}
	if strict {
		req = req.Canonical()
		if err := req.Validate(); err != nil {
			return decimal.Zero, err
		}
	}
	return predictor.Predict(ctx, req)
}

func (r inputRow) toRequest() (ml.PredictionRequest, error) {
	var problems []string
	text := func(name, value string) string {
		if value == "" {
			problems = append(problems, fmt.Sprintf("field %q is required", name))
		}
		return value
	}
	number := func(name, value string) int {
		value = strings.TrimSpace(value)
		if value == "" {
			problems = append(problems, fmt.Sprintf("field %q is required", name))
			return 0
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			problems = append(problems, fmt.Sprintf("field %q must be an integer", name))
		}
		return n
	}

	req := ml.PredictionRequest{
		From:        ml.City(text("from", r.From)),
		Destination: ml.City(text("Destination", r.Destination)),
		FlightType:  ml.FlightType(text("flightType", r.FlightType)),
		Agency:      ml.Agency(text("agency", r.Agency)),
		WeekNo:      number("week_no", r.WeekNo),
		WeekDay:     number("week_day", r.WeekDay),
		Day:         number("day", r.Day),
	}
	if len(problems) > 0 {
		return ml.PredictionRequest{}, errors.New(strings.Join(problems, "; "))
	}
	return req, nil
}

func missingColumns(header []string) []string {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}
	var missing []string
	for _, col := range requiredColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	return missing
}
