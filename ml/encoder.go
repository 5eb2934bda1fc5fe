package ml

import (
	"errors"
	"fmt"
)

// PredictionRequest is the user-facing input of a price prediction.
type PredictionRequest struct {
	From        City       `json:"from" csv:"from"`
	Destination City       `json:"Destination" csv:"Destination"`
	FlightType  FlightType `json:"flightType" csv:"flightType"`
	Agency      Agency     `json:"agency" csv:"agency"`
	WeekNo      int        `json:"week_no" csv:"week_no"`
	WeekDay     int        `json:"week_day" csv:"week_day"`
	Day         int        `json:"day" csv:"day"`
}

// FeatureVector is the encoded request in the column order the scaler and
// model were fit on. It is comparable and can be used as a map key.
type FeatureVector struct {
	From        [cityCount]float64
	Destination [cityCount]float64
	FlightType  [flightTypeCount]float64
	Agency      [agencyCount]float64
	WeekNo      float64
	WeekDay     float64
	Day         float64
}

// Encode one-hot encodes the categorical fields and appends the temporal
// fields. A value outside its closed set leaves that block all zero.
func Encode(req PredictionRequest) FeatureVector {
	var v FeatureVector
	names := featureNames

	offset := 0
	oneHot(v.From[:], names[offset:offset+cityCount], fromPrefix+string(req.From))
	offset += cityCount
	oneHot(v.Destination[:], names[offset:offset+cityCount], destinationPrefix+string(req.Destination))
	offset += cityCount
	oneHot(v.FlightType[:], names[offset:offset+flightTypeCount], flightTypePrefix+string(req.FlightType))
	offset += flightTypeCount
	oneHot(v.Agency[:], names[offset:offset+agencyCount], agencyPrefix+string(req.Agency))

	v.WeekNo = float64(req.WeekNo)
	v.WeekDay = float64(req.WeekDay)
	v.Day = float64(req.Day)
	return v
}

func oneHot(dst []float64, columns []string, selected string) {
	for i, column := range columns {
		if stripStateCode(column) == selected {
			dst[i] = 1
		} else {
			dst[i] = 0
		}
	}
}

// Values flattens the vector in schema order.
func (v FeatureVector) Values() []float64 {
	values := make([]float64, 0, FeatureWidth)
	values = append(values, v.From[:]...)
	values = append(values, v.Destination[:]...)
	values = append(values, v.FlightType[:]...)
	values = append(values, v.Agency[:]...)
	return append(values, v.WeekNo, v.WeekDay, v.Day)
}

// Named pairs every value with its training column name.
func (v FeatureVector) Named() []NamedFeature {
	values := v.Values()
	named := make([]NamedFeature, len(values))
	for i, value := range values {
		named[i] = NamedFeature{Name: featureNames[i], Value: value}
	}
	return named
}

type NamedFeature struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

var ErrInvalidRequest = errors.New("invalid prediction request")

// Validate reports values Encode would silently degrade. Encode itself never
// calls it.
func (r PredictionRequest) Validate() error {
	var problems []error
	if !validCity(r.From) {
		problems = append(problems, fmt.Errorf("unknown origin city %q", r.From))
	}
	if !validCity(r.Destination) {
		problems = append(problems, fmt.Errorf("unknown destination city %q", r.Destination))
	}
	if !validFlightType(r.FlightType) {
		problems = append(problems, fmt.Errorf("unknown flight type %q", r.FlightType))
	}
	if !validAgency(r.Agency) {
		problems = append(problems, fmt.Errorf("unknown agency %q", r.Agency))
	}
	if r.Day < 1 || r.Day > 31 {
		problems = append(problems, fmt.Errorf("day %d out of range 1-31", r.Day))
	}
	if r.WeekNo < 1 || r.WeekNo > 53 {
		problems = append(problems, fmt.Errorf("week_no %d out of range 1-53", r.WeekNo))
	}
	if r.WeekDay < 1 || r.WeekDay > 7 {
		problems = append(problems, fmt.Errorf("week_day %d out of range 1-7", r.WeekDay))
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidRequest, errors.Join(problems...))
}

func validCity(c City) bool {
	for _, col := range cityColumns {
		if col.city == c {
			return true
		}
	}
	return false
}

func validFlightType(ft FlightType) bool {
	for _, col := range flightTypeColumns {
		if col == ft {
			return true
		}
	}
	return false
}

func validAgency(a Agency) bool {
	for _, col := range agencyColumns {
		if col == a {
			return true
		}
	}
	return false
}
