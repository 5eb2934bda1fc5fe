package ml

import "testing"

func TestCanonicalCategories(t *testing.T) {
	req := PredictionRequest{
		From:        "São Paulo",
		Destination: "rio de janeiro",
		FlightType:  "FIRSTCLASS",
		Agency:      " cloudfy ",
		WeekNo:      7,
		WeekDay:     5,
		Day:         5,
	}
	got := req.Canonical()
	if got.From != SaoPaulo || got.Destination != RioDeJaneiro || got.FlightType != FirstClass || got.Agency != CloudFy {
		t.Fatalf("unexpected canonical request %+v", got)
	}
	if err := got.Validate(); err != nil {
		t.Fatalf("canonical request should validate: %v", err)
	}
	want := PredictionRequest{From: SaoPaulo, Destination: RioDeJaneiro, FlightType: FirstClass, Agency: CloudFy, WeekNo: 7, WeekDay: 5, Day: 5}
	if Encode(got) != Encode(want) {
		t.Fatal("canonical request should encode like the trained spelling")
	}
}

func TestCanonicalKeepsUnknownValues(t *testing.T) {
	req := scenarioRequest()
	req.From = "Manaus"
	req.Agency = "Rainbow Air"
	got := req.Canonical()
	if got.From != "Manaus" || got.Agency != "Rainbow Air" {
		t.Fatalf("unknown values must pass through unchanged, got %+v", got)
	}
	if err := got.Validate(); err == nil {
		t.Fatal("expected unknown values to fail validation")
	}
}

func TestCanonicalLeavesExactValues(t *testing.T) {
	req := scenarioRequest()
	if got := req.Canonical(); got != req {
		t.Fatalf("exact values changed: %+v -> %+v", req, got)
	}
}
