package ml

import (
	"errors"
	"testing"
)

func scenarioRequest() PredictionRequest {
	return PredictionRequest{
		From:        SaoPaulo,
		Destination: Natal,
		FlightType:  Economic,
		Agency:      Rainbow,
		Day:         5,
		WeekNo:      7,
		WeekDay:     5,
	}
}

func TestEncodeScenario(t *testing.T) {
	named := Encode(scenarioRequest()).Named()
	if len(named) != FeatureWidth {
		t.Fatalf("expected %d features, got %d", FeatureWidth, len(named))
	}

	hot := map[string]bool{
		"from_Sao_Paulo (SP)":    true,
		"destination_Natal (RN)": true,
		"flightType_economic":    true,
		"agency_Rainbow":         true,
	}
	for _, f := range named[:FeatureWidth-3] {
		want := 0.0
		if hot[f.Name] {
			want = 1
		}
		if f.Value != want {
			t.Fatalf("%s: expected %v, got %v", f.Name, want, f.Value)
		}
	}

	tail := named[FeatureWidth-3:]
	expected := []NamedFeature{{"week_no", 7}, {"week_day", 5}, {"day", 5}}
	for i, f := range tail {
		if f != expected[i] {
			t.Fatalf("expected %+v at position %d, got %+v", expected[i], FeatureWidth-3+i, f)
		}
	}
}

func TestEncodeOneHotForEveryCombination(t *testing.T) {
	for fi, from := range Cities() {
		for di, dest := range Cities() {
			for ti, ft := range FlightTypes() {
				for ai, ag := range Agencies() {
					v := Encode(PredictionRequest{From: from, Destination: dest, FlightType: ft, Agency: ag, Day: 1, WeekNo: 1, WeekDay: 1})
					checkOneHot(t, "from", v.From[:], fi)
					checkOneHot(t, "destination", v.Destination[:], di)
					checkOneHot(t, "flightType", v.FlightType[:], ti)
					checkOneHot(t, "agency", v.Agency[:], ai)
				}
			}
		}
	}
}

func checkOneHot(t *testing.T, dim string, block []float64, hot int) {
	t.Helper()
	for i, value := range block {
		want := 0.0
		if i == hot {
			want = 1
		}
		if value != want {
			t.Fatalf("%s block %v: expected index %d hot", dim, block, hot)
		}
	}
}

func TestEncodeUnknownCategoryLeavesBlockEmpty(t *testing.T) {
	req := scenarioRequest()
	req.From = "Manaus"
	req.Agency = "rainbow"
	v := Encode(req)

	for _, value := range v.From {
		if value != 0 {
			t.Fatalf("expected all-zero origin block, got %v", v.From)
		}
	}
	for _, value := range v.Agency {
		if value != 0 {
			t.Fatalf("expected all-zero agency block, got %v", v.Agency)
		}
	}
	checkOneHot(t, "destination", v.Destination[:], 7)
}

func TestEncodeRejectsCodeInValue(t *testing.T) {
	req := scenarioRequest()
	req.From = "Sao_Paulo (SP)"
	v := Encode(req)
	for _, value := range v.From {
		if value != 0 {
			t.Fatalf("expected raw value with state code to stay unmatched, got %v", v.From)
		}
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	first := Encode(scenarioRequest())
	for i := 0; i < 10; i++ {
		if next := Encode(scenarioRequest()); next != first {
			t.Fatalf("encoding changed between calls: %v vs %v", first, next)
		}
	}
	a, b := first.Values(), Encode(scenarioRequest()).Values()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("values differ at %d", i)
		}
	}
}

func TestFeatureNamesOrder(t *testing.T) {
	names := FeatureNames()
	if len(names) != FeatureWidth || FeatureWidth != 27 {
		t.Fatalf("expected 27 names, got %d", len(names))
	}
	checks := map[int]string{
		0:  "from_Florianopolis (SC)",
		8:  "from_Recife (PE)",
		9:  "destination_Florianopolis (SC)",
		13: "destination_Rio_de_Janeiro (RJ)",
		18: "flightType_economic",
		20: "flightType_premium",
		21: "agency_Rainbow",
		23: "agency_FlyingDrops",
		24: "week_no",
		25: "week_day",
		26: "day",
	}
	for idx, name := range checks {
		if names[idx] != name {
			t.Fatalf("position %d: expected %q, got %q", idx, name, names[idx])
		}
	}

	names[0] = "mutated"
	if FeatureNames()[0] != "from_Florianopolis (SC)" {
		t.Fatal("FeatureNames must return a copy")
	}
}

func TestStripStateCode(t *testing.T) {
	cases := map[string]string{
		"from_Natal (RN)":    "from_Natal",
		"flightType_premium": "flightType_premium",
		"agency_CloudFy":     "agency_CloudFy",
		"(RN)":               "(RN)",
	}
	for in, want := range cases {
		if got := stripStateCode(in); got != want {
			t.Fatalf("stripStateCode(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidateBoundaries(t *testing.T) {
	for _, tc := range []struct{ day, weekNo, weekDay int }{
		{1, 1, 1},
		{31, 53, 7},
	} {
		req := scenarioRequest()
		req.Day, req.WeekNo, req.WeekDay = tc.day, tc.weekNo, tc.weekDay
		if err := req.Validate(); err != nil {
			t.Fatalf("unexpected error for %+v: %v", tc, err)
		}
	}
}

func TestValidateRejectsOutOfSet(t *testing.T) {
	req := scenarioRequest()
	req.Destination = "Lisbon"
	req.WeekDay = 8
	err := req.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}
