package ml

import "strings"

type City string

const (
	Florianopolis City = "Florianopolis"
	SaoPaulo      City = "Sao_Paulo"
	Salvador      City = "Salvador"
	Brasilia      City = "Brasilia"
	RioDeJaneiro  City = "Rio_de_Janeiro"
	CampoGrande   City = "Campo_Grande"
	Aracaju       City = "Aracaju"
	Natal         City = "Natal"
	Recife        City = "Recife"
)

type FlightType string

const (
	Economic   FlightType = "economic"
	FirstClass FlightType = "firstClass"
	Premium    FlightType = "premium"
)

type Agency string

const (
	Rainbow     Agency = "Rainbow"
	CloudFy     Agency = "CloudFy"
	FlyingDrops Agency = "FlyingDrops"
)

const (
	cityCount       = 9
	flightTypeCount = 3
	agencyCount     = 3

	// FeatureWidth is the number of columns the scaler and model were fit on.
	FeatureWidth = 2*cityCount + flightTypeCount + agencyCount + 3
)

// Column prefixes used by the training data.
const (
	fromPrefix        = "from_"
	destinationPrefix = "destination_"
	flightTypePrefix  = "flightType_"
	agencyPrefix      = "agency_"
)

// cityColumns keeps the training order and the state codes the training
// data attached to each city.
var cityColumns = [cityCount]struct {
	city City
	code string
}{
	{Florianopolis, "SC"},
	{SaoPaulo, "SP"},
	{Salvador, "BH"},
	{Brasilia, "DF"},
	{RioDeJaneiro, "RJ"},
	{CampoGrande, "MS"},
	{Aracaju, "SE"},
	{Natal, "RN"},
	{Recife, "PE"},
}

var flightTypeColumns = [flightTypeCount]FlightType{Economic, FirstClass, Premium}

var agencyColumns = [agencyCount]Agency{Rainbow, CloudFy, FlyingDrops}

var featureNames = buildFeatureNames()

func buildFeatureNames() []string {
	names := make([]string, 0, FeatureWidth)
	for _, c := range cityColumns {
		names = append(names, fromPrefix+string(c.city)+" ("+c.code+")")
	}
	for _, c := range cityColumns {
		names = append(names, destinationPrefix+string(c.city)+" ("+c.code+")")
	}
	for _, ft := range flightTypeColumns {
		names = append(names, flightTypePrefix+string(ft))
	}
	for _, ag := range agencyColumns {
		names = append(names, agencyPrefix+string(ag))
	}
	return append(names, "week_no", "week_day", "day")
}

// FeatureNames returns the training column names in vector order.
func FeatureNames() []string {
	return append([]string(nil), featureNames...)
}

func Cities() []City {
	cities := make([]City, len(cityColumns))
	for i, c := range cityColumns {
		cities[i] = c.city
	}
	return cities
}

func FlightTypes() []FlightType {
	return append([]FlightType(nil), flightTypeColumns[:]...)
}

func Agencies() []Agency {
	return append([]Agency(nil), agencyColumns[:]...)
}

// Label turns an enum value into a display string ("Rio_de_Janeiro" -> "Rio de Janeiro").
func Label(value string) string {
	return strings.ReplaceAll(value, "_", " ")
}

// stripStateCode removes the trailing " (XX)" the training columns carry
// for cities. Columns without a code are returned unchanged.
func stripStateCode(column string) string {
	const suffixLen = len(" (XX)")
	if len(column) > suffixLen && strings.HasSuffix(column, ")") && column[len(column)-suffixLen:len(column)-suffixLen+2] == " (" {
		return column[:len(column)-suffixLen]
	}
	return column
}
