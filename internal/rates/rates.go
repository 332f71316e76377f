// Package rates loads exchange-rate tables and turns stored rates into a metrics.RateTable.
package rates

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/rangebook/internal/metrics"
	"github.com/verte-zerg/rangebook/internal/model"
)

// File is the TOML rate file layout:
//
//	base = "pln"
//	[rates]
//	eur = 4.31
type File struct {
	Base  string             `toml:"base"`
	Rates map[string]float64 `toml:"rates"`
}

// Skipped describes a rate entry dropped during normalization.
type Skipped struct {
	Code   string
	Reason string
}

// LoadFile reads a TOML rate file.
func LoadFile(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to open rate file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close.
			_ = cerr
		}
	}()
	return Decode(f)
}

// Decode parses a TOML rate table.
func Decode(r io.Reader) (File, error) {
	var file File
	if _, err := toml.NewDecoder(r).Decode(&file); err != nil {
		return File{}, fmt.Errorf("failed to decode rate file: %w", err)
	}
	return file, nil
}

// Normalize lowercases codes, drops unusable rates and forces the base to 1.
// A rate file declaring a different base is rejected.
func Normalize(file File, base string) ([]model.Rate, []Skipped, error) {
	base = strings.ToLower(strings.TrimSpace(base))
	if fileBase := strings.ToLower(strings.TrimSpace(file.Base)); fileBase != "" && fileBase != base {
		return nil, nil, fmt.Errorf("rate file base %q does not match configured base %q", fileBase, base)
	}
	byCode := make(map[string]float64, len(file.Rates)+1)
	var skipped []Skipped
	for code, rate := range file.Rates {
		code = strings.ToLower(strings.TrimSpace(code))
		switch {
		case code == "":
			skipped = append(skipped, Skipped{Code: code, Reason: "empty code"})
		case rate <= 0:
			skipped = append(skipped, Skipped{Code: code, Reason: fmt.Sprintf("non-positive rate %v", rate)})
		case !metrics.ValidRate(rate):
			skipped = append(skipped, Skipped{Code: code, Reason: fmt.Sprintf("rate %v out of range", rate)})
		case code == base && rate != 1:
			skipped = append(skipped, Skipped{Code: code, Reason: fmt.Sprintf("base rate %v forced to 1", rate)})
		default:
			byCode[code] = rate
		}
	}
	byCode[base] = 1

	out := make([]model.Rate, 0, len(byCode))
	for code, rate := range byCode {
		out = append(out, model.Rate{Code: code, Rate: rate})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	sort.Slice(skipped, func(i, j int) bool { return skipped[i].Code < skipped[j].Code })
	return out, skipped, nil
}

// Table builds a rate table from stored rates.
func Table(base string, stored []model.Rate) metrics.RateTable {
	m := make(map[string]float64, len(stored))
	for _, r := range stored {
		m[r.Code] = r.Rate
	}
	return metrics.NewRateTable(base, m)
}
