package ml

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Canonical maps loosely spelled categories onto the trained values:
// "São Paulo", "sao paulo" and "SAO_PAULO" all become Sao_Paulo. Values that
// match nothing are returned unchanged so Validate can report them.
func (r PredictionRequest) Canonical() PredictionRequest {
	r.From = canonical(r.From, Cities())
	r.Destination = canonical(r.Destination, Cities())
	r.FlightType = canonical(r.FlightType, flightTypeColumns[:])
	r.Agency = canonical(r.Agency, agencyColumns[:])
	return r
}

func canonical[T ~string](value T, known []T) T {
	key := categoryKey(string(value))
	for _, k := range known {
		if categoryKey(string(k)) == key {
			return k
		}
	}
	return value
}

// categoryKey strips accents, folds case and treats spaces as underscores.
// Casers keep state, so the chain is built per call.
func categoryKey(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), cases.Fold(), norm.NFC)
	key, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		return s
	}
	return strings.ReplaceAll(key, " ", "_")
}
