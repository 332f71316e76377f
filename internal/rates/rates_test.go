package rates

import (
	"strings"
	"testing"
)

func TestDecodeAndNormalize(t *testing.T) {
	file, err := Decode(strings.NewReader(`
base = "PLN"

[rates]
EUR = 4.3
usd = 3.9
pln = 2.0
xxx = 0
`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	rates, skipped, err := Normalize(file, "pln")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(rates) != 3 {
		t.Fatalf("expected 3 rates, got %+v", rates)
	}
	if rates[0].Code != "eur" || rates[1].Code != "pln" || rates[2].Code != "usd" {
		t.Fatalf("unexpected order: %+v", rates)
	}
	if rates[1].Rate != 1 {
		t.Fatalf("expected base forced to 1, got %v", rates[1].Rate)
	}
	if len(skipped) != 2 || skipped[0].Code != "pln" || skipped[1].Code != "xxx" {
		t.Fatalf("unexpected skipped: %+v", skipped)
	}
}

func TestNormalizeRejectsOtherBase(t *testing.T) {
	_, _, err := Normalize(File{Base: "eur", Rates: map[string]float64{"usd": 1.1}}, "pln")
	if err == nil {
		t.Fatalf("expected base mismatch error")
	}
}

func TestTable(t *testing.T) {
	rates, _, err := Normalize(File{Rates: map[string]float64{"eur": 4}}, "pln")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	table := Table("pln", rates)
	if got := table.Convert(8, "pln", "eur"); got != 2 {
		t.Fatalf("expected 2, got %v", got)
	}
}

func TestNormalizeSkipsNonFiniteAndExtremeRates(t *testing.T) {
	file, err := Decode(strings.NewReader(`
[rates]
eur = 4.3
usd = inf
gbp = nan
chf = 1e-320
jpy = 1e12
`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	rates, skipped, err := Normalize(file, "pln")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(rates) != 2 || rates[0].Code != "eur" || rates[1].Code != "pln" {
		t.Fatalf("unexpected rates: %+v", rates)
	}
	want := []string{"chf", "gbp", "jpy", "usd"}
	if len(skipped) != len(want) {
		t.Fatalf("expected %v skipped, got %+v", want, skipped)
	}
	for i, code := range want {
		if skipped[i].Code != code || !strings.Contains(skipped[i].Reason, "out of range") {
			t.Fatalf("unexpected skipped entry %d: %+v", i, skipped[i])
		}
	}
}
