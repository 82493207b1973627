package model

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Brand identifies the processor vendor.
type Brand string

const (
	BrandIntel Brand = "INTEL"
	BrandAMD   Brand = "AMD"
)

// ParseBrand converts a case-insensitive brand name into a Brand.
func ParseBrand(s string) (Brand, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "INTEL":
		return BrandIntel, nil
	case "AMD":
		return BrandAMD, nil
	default:
		return "", eris.Errorf("unknown brand: %q (valid: intel, amd)", s)
	}
}

// Processor is a CPU catalog record. Records produced by extraction carry
// only Brand, Family, Generation and Model; the remaining fields belong to
// the catalog and are filled by manual entry or by the store on insert.
type Processor struct {
	Brand        Brand    `json:"brand" yaml:"brand"`
	Family       string   `json:"family" yaml:"family"`
	Generation   string   `json:"generation" yaml:"generation"`
	Model        string   `json:"model" yaml:"model"`
	BaseClockGHz *float64 `json:"base_clock_ghz" yaml:"base_clock_ghz"`
}

// Key returns the natural key of the record: brand and model.
func (p Processor) Key() string {
	return string(p.Brand) + "|" + p.Model
}

// Describe renders the one-line summary used in sync samples.
func (p Processor) Describe() string {
	return fmt.Sprintf("%s • %s • Gen %s • %s", p.Brand, p.Family, p.Generation, p.Model)
}

// KeyFor builds the natural key for a brand/model pair read back from storage.
func KeyFor(brand Brand, model string) string {
	return string(brand) + "|" + model
}

// UniqueByKey keeps one record per (brand, model). The last occurrence wins
// while the position of the first occurrence is kept, so the output order is
// stable for a given input.
func UniqueByKey(rows []Processor) []Processor {
	idx := make(map[string]int, len(rows))
	out := make([]Processor, 0, len(rows))
	for _, r := range rows {
		k := r.Key()
		if i, ok := idx[k]; ok {
			out[i] = r
			continue
		}
		idx[k] = len(out)
		out = append(out, r)
	}
	return out
}

// Scope selects the brands a sync run targets.
type Scope string

const (
	ScopeIntel Scope = "intel"
	ScopeAMD   Scope = "amd"
	ScopeAll   Scope = "all"
)

// ParseScope returns the scope named by s, falling back to ScopeAll for
// empty or unknown input.
func ParseScope(s string) Scope {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case ScopeIntel:
		return ScopeIntel
	case ScopeAMD:
		return ScopeAMD
	default:
		return ScopeAll
	}
}

// Includes reports whether the scope covers the given brand.
func (s Scope) Includes(b Brand) bool {
	switch s {
	case ScopeIntel:
		return b == BrandIntel
	case ScopeAMD:
		return b == BrandAMD
	case ScopeAll:
		return true
	default:
		return false
	}
}
