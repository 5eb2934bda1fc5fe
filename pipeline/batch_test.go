package pipeline

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"flightfare/ml"
)

type tablePredictor struct {
	prices map[ml.City]decimal.Decimal
}

func (p *tablePredictor) Predict(ctx context.Context, req ml.PredictionRequest) (decimal.Decimal, error) {
	price, ok := p.prices[req.From]
	if !ok {
		return decimal.Zero, errors.New("no price for origin")
	}
	return price, nil
}

func newTablePredictor() *tablePredictor {
	return &tablePredictor{prices: map[ml.City]decimal.Decimal{
		ml.SaoPaulo: decimal.RequireFromString("1434.38"),
		ml.Recife:   decimal.RequireFromString("957.4"),
		"Manaus":    decimal.RequireFromString("1"),
	}}
}

func readRecords(t *testing.T, data []byte) [][]string {
	t.Helper()
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("invalid csv output: %v", err)
	}
	return records
}

const header = "from,Destination,flightType,agency,week_no,week_day,day\n"

func TestRunBatch(t *testing.T) {
	input := header +
		"Sao_Paulo,Natal,economic,Rainbow,7,5,5\n" +
		"Recife,Aracaju,premium,CloudFy,53,7,31\n" +
		"Recife,Aracaju,premium,CloudFy,x,7,31\n" +
		"Salvador,Aracaju,premium,,1,1,1\n"

	var out bytes.Buffer
	stats, err := RunBatch(context.Background(), newTablePredictor(), strings.NewReader(input), &out, BatchOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Rows != 4 || stats.Succeeded != 2 || stats.Failed != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	records := readRecords(t, out.Bytes())
	if len(records) != 5 {
		t.Fatalf("expected header + 4 rows, got %d", len(records))
	}
	head := records[0]
	if head[0] != "row" || head[len(head)-2] != "prediction" || head[len(head)-1] != "error" {
		t.Fatalf("unexpected header %v", head)
	}
	if records[1][8] != "1434.38" || records[1][9] != "" {
		t.Fatalf("unexpected first row %v", records[1])
	}
	if records[2][8] != "957.4" {
		t.Fatalf("unexpected second row %v", records[2])
	}
	if !strings.Contains(records[3][9], "week_no") {
		t.Fatalf("expected integer error on third row, got %v", records[3])
	}
	if !strings.Contains(records[4][9], "agency") {
		t.Fatalf("expected missing agency error on fourth row, got %v", records[4])
	}
}

func TestRunBatchStrictCategories(t *testing.T) {
	input := header + "Manaus,Natal,economic,Rainbow,7,5,5\n"

	var out bytes.Buffer
	stats, err := RunBatch(context.Background(), newTablePredictor(), strings.NewReader(input), &out, BatchOptions{})
	if err != nil || stats.Succeeded != 1 {
		t.Fatalf("permissive batch should predict unknown city: %+v %v", stats, err)
	}
	if records := readRecords(t, out.Bytes()); records[1][8] != "1.0" {
		t.Fatalf("expected whole price rendered as 1.0, got %v", records[1])
	}

	out.Reset()
	stats, err = RunBatch(context.Background(), newTablePredictor(), strings.NewReader(input), &out, BatchOptions{StrictCategories: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Failed != 1 {
		t.Fatalf("strict batch should reject unknown city: %+v", stats)
	}
}

func TestRunBatchMissingColumns(t *testing.T) {
	input := "from,Destination\nSao_Paulo,Natal\n"
	var out bytes.Buffer
	_, err := RunBatch(context.Background(), newTablePredictor(), strings.NewReader(input), &out, BatchOptions{})
	if err == nil || !strings.Contains(err.Error(), "week_no") {
		t.Fatalf("expected missing column error, got %v", err)
	}
}

func TestRunBatchHeaderOnly(t *testing.T) {
	var out bytes.Buffer
	stats, err := RunBatch(context.Background(), newTablePredictor(), strings.NewReader(header), &out, BatchOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Rows != 0 {
		t.Fatalf("expected no rows, got %d", stats.Rows)
	}
	if records := readRecords(t, out.Bytes()); len(records) != 1 {
		t.Fatalf("expected header only, got %v", records)
	}
}

func TestRunBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	_, err := RunBatch(ctx, newTablePredictor(), strings.NewReader(header+"Sao_Paulo,Natal,economic,Rainbow,7,5,5\n"), &out, BatchOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRunBatchStrictCanonicalizesCategories(t *testing.T) {
	input := header + "sao paulo,NATAL,Economic,rainbow,7,5,5\n"
	var out bytes.Buffer
	stats, err := RunBatch(context.Background(), newTablePredictor(), strings.NewReader(input), &out, BatchOptions{StrictCategories: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Succeeded != 1 {
		t.Fatalf("expected loosely spelled row to succeed: %+v", stats)
	}
	if records := readRecords(t, out.Bytes()); records[1][8] != "1434.38" || records[1][1] != "sao paulo" {
		t.Fatalf("unexpected row %v", records[1])
	}
}
