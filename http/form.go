package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"flightfare/ml"
)

// 表单字段名，与页面及训练时的命名保持一致
const (
	fieldFrom        = "from"
	fieldDestination = "Destination"
	fieldFlightType  = "flightType"
	fieldAgency      = "agency"
	fieldWeekNo      = "week_no"
	fieldWeekDay     = "week_day"
	fieldDay         = "day"
)

const maxFormMemory = 1 << 20

// formError 表单校验错误，在编码之前返回给客户端
type formError struct {
	problems []string
}

func (e *formError) Error() string {
	return strings.Join(e.problems, "; ")
}

// parsePredictionForm 解析并校验表单，只检查字段是否存在及整数格式，不检查取值范围
func parsePredictionForm(r *http.Request) (ml.PredictionRequest, error) {
	var req ml.PredictionRequest

	if err := r.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return req, &formError{problems: []string{fmt.Sprintf("invalid form body: %v", err)}}
	}

	fe := &formError{}
	text := func(name string) string {
		value := r.PostForm.Get(name)
		if value == "" {
			fe.problems = append(fe.problems, fmt.Sprintf("field %q is required", name))
		}
		return value
	}
	number := func(name string) int {
		value := strings.TrimSpace(r.PostForm.Get(name))
		if value == "" {
			fe.problems = append(fe.problems, fmt.Sprintf("field %q is required", name))
			return 0
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			fe.problems = append(fe.problems, fmt.Sprintf("field %q must be an integer", name))
		}
		return n
	}

	req.From = ml.City(text(fieldFrom))
	req.Destination = ml.City(text(fieldDestination))
	req.FlightType = ml.FlightType(text(fieldFlightType))
	req.Agency = ml.Agency(text(fieldAgency))
	req.WeekNo = number(fieldWeekNo)
	req.WeekDay = number(fieldWeekDay)
	req.Day = number(fieldDay)

	if len(fe.problems) > 0 {
		return ml.PredictionRequest{}, fe
	}
	return req, nil
}
