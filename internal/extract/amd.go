package extract

import (
	"regexp"
	"strings"

	"github.com/ewaste-depot/cpu-catalog/internal/model"
)

// MinAMDSeries is the oldest AMD product series kept in the catalog.
const MinAMDSeries = 1000

var (
	ryzenRe        = regexp.MustCompile(`(?i)\bRyzen\s+([3579])\s+(?:PRO\s+)?(\d{4,5})([A-Z0-9]{0,3})\b`)
	threadripperRe = regexp.MustCompile(`(?i)\b(?:Ryzen\s+)?Threadripper\s+(?:PRO\s+)?(\d{4,5})([A-Z0-9]{0,3})\b`)
	epycRe         = regexp.MustCompile(`(?i)\bEPYC\s+(?:Embedded\s+)?(\d{4,5})([A-Z0-9]{0,3})\b`)
	athlonRe       = regexp.MustCompile(`(?i)\bAthlon\s+(?:(X[234])\s+)?(\d{3,4})([A-Z]{0,2})\b`)
)

func amdRules() []rule {
	return []rule{
		{name: "ryzen", brand: model.BrandAMD, pattern: ryzenRe, derive: deriveRyzen},
		{name: "threadripper", brand: model.BrandAMD, pattern: threadripperRe, derive: deriveSeries("Ryzen Threadripper")},
		{name: "epyc", brand: model.BrandAMD, pattern: epycRe, derive: deriveSeries("EPYC")},
		{name: "athlon", brand: model.BrandAMD, pattern: athlonRe, derive: deriveAthlon},
	}
}

// Series returns the AMD product series of a model code: its leading digit
// times 1000 (5600 → 5000, 7950 → 7000).
func Series(digits string) (int, bool) {
	if digits == "" || digits[0] < '0' || digits[0] > '9' {
		return 0, false
	}
	return int(digits[0]-'0') * 1000, true
}

func seriesOK(digits string) (string, bool) {
	s, ok := Series(digits)
	if !ok || s < MinAMDSeries {
		return "", false
	}
	return thousandsBucket(digits), true
}

func deriveRyzen(m []string) (model.Processor, bool) {
	tier, digits, suffix := m[1], m[2], strings.ToUpper(m[3])
	gen, ok := seriesOK(digits)
	if !ok {
		return model.Processor{}, false
	}
	return model.Processor{
		Family:     "Ryzen " + tier,
		Generation: gen,
		Model:      "Ryzen " + tier + " " + digits + suffix,
	}, true
}

func deriveSeries(family string) func(m []string) (model.Processor, bool) {
	return func(m []string) (model.Processor, bool) {
		digits, suffix := m[1], strings.ToUpper(m[2])
		gen, ok := seriesOK(digits)
		if !ok {
			return model.Processor{}, false
		}
		return model.Processor{
			Family:     family,
			Generation: gen,
			Model:      family + " " + digits + suffix,
		}, true
	}
}

// AthlonGeneration buckets four-digit Athlon codes by thousands and keeps
// shorter codes as they are (200 → "200", 3000 → "3000").
func AthlonGeneration(digits string) string {
	if len(digits) >= 4 {
		return thousandsBucket(digits)
	}
	return digits
}

func deriveAthlon(m []string) (model.Processor, bool) {
	sub, digits, suffix := strings.ToUpper(m[1]), m[2], strings.ToUpper(m[3])
	family := "Athlon"
	if sub != "" {
		family += " " + sub
	}
	return model.Processor{
		Family:     family,
		Generation: AthlonGeneration(digits),
		Model:      family + " " + digits + suffix,
	}, true
}
