package extract

import (
	"regexp"
	"strconv"

	"github.com/ewaste-depot/cpu-catalog/internal/model"
)

// MinCoreGeneration is the oldest Intel Core generation kept in the catalog.
const MinCoreGeneration = 4

var (
	coreRe      = regexp.MustCompile(`\bi([3579])-(\d{4,5})([A-Z]{0,3})\b`)
	coreUltraRe = regexp.MustCompile(`\bCore\s+Ultra\s+([579])(?:\s+(\d{3})([A-Z]{0,3}))?\b`)
	xeonTierRe  = regexp.MustCompile(`\bXeon\s+(Silver|Bronze|Gold|Platinum)\s+(\d{4,5})([A-Z0-9]{0,2})\b`)
	xeonMaxRe   = regexp.MustCompile(`\bXeon\s+(?:CPU\s+)?Max\s+(\d{4,5})([A-Z0-9]{0,2})\b`)
	pentiumRe   = regexp.MustCompile(`\bPentium\s+(?:(Gold|Silver)\s+)?([A-Z0-9]{2,8})\b`)
	celeronRe   = regexp.MustCompile(`\bCeleron\s+([A-Z0-9]{2,8})\b`)
	atomRe      = regexp.MustCompile(`\bAtom\s+((?:x[357]-)?[A-Z0-9]{2,8})\b`)
)

// xeonScalableGen maps the leading two digits of a Xeon Scalable code to its
// generation. Unknown prefixes fall back to the first generation.
var xeonScalableGen = map[string]int{
	"31": 1, "41": 1, "51": 1, "61": 1, "81": 1,
	"32": 2, "42": 2, "52": 2, "62": 2, "82": 2,
	"43": 3, "53": 3, "63": 3, "83": 3,
	"44": 4, "54": 4, "64": 4, "84": 4, "94": 4,
	"45": 5, "55": 5, "65": 5, "85": 5, "95": 5,
}

func intelRules() []rule {
	return []rule{
		{name: "core", brand: model.BrandIntel, pattern: coreRe, derive: deriveCore},
		{name: "core_ultra", brand: model.BrandIntel, pattern: coreUltraRe, derive: deriveCoreUltra},
		{name: "xeon_scalable", brand: model.BrandIntel, pattern: xeonTierRe, derive: deriveXeonTier},
		{name: "xeon_max", brand: model.BrandIntel, pattern: xeonMaxRe, derive: deriveXeonMax},
		{name: "pentium", brand: model.BrandIntel, pattern: pentiumRe, derive: derivePentium},
		{name: "celeron", brand: model.BrandIntel, pattern: celeronRe, derive: deriveValueLine("Celeron")},
		{name: "atom", brand: model.BrandIntel, pattern: atomRe, derive: deriveValueLine("Atom")},
	}
}

// CoreGeneration infers the Intel Core generation from the numeric part of
// an i-series model: five digits carry a two-digit generation (10400 → 10),
// four digits a single-digit one (4670 → 4).
func CoreGeneration(digits string) (int, bool) {
	var lead string
	switch len(digits) {
	case 5:
		lead = digits[:2]
	case 4:
		lead = digits[:1]
	default:
		return 0, false
	}
	n, err := strconv.Atoi(lead)
	if err != nil {
		return 0, false
	}
	return n, true
}

func deriveCore(m []string) (model.Processor, bool) {
	tier, digits, suffix := m[1], m[2], m[3]
	gen, ok := CoreGeneration(digits)
	if !ok || gen < MinCoreGeneration {
		return model.Processor{}, false
	}
	return model.Processor{
		Family:     "Core i" + tier,
		Generation: strconv.Itoa(gen),
		Model:      "i" + tier + "-" + digits + suffix,
	}, true
}

// UltraGeneration returns the Core Ultra generation bucket: the first digit
// of the code, or "Ultra" when no numeric code is known.
func UltraGeneration(code string) string {
	if code == "" || code[0] < '0' || code[0] > '9' {
		return "Ultra"
	}
	return code[:1]
}

func deriveCoreUltra(m []string) (model.Processor, bool) {
	tier, code, suffix := m[1], m[2], m[3]
	name := "Core Ultra " + tier
	if code != "" {
		name += " " + code + suffix
	}
	return model.Processor{
		Family:     "Core Ultra " + tier,
		Generation: UltraGeneration(code),
		Model:      name,
	}, true
}

// XeonScalableGeneration returns the "Scalable N" bucket for a Xeon code.
func XeonScalableGeneration(digits string) string {
	gen := 1
	if len(digits) >= 2 {
		if g, ok := xeonScalableGen[digits[:2]]; ok {
			gen = g
		}
	}
	return "Scalable " + strconv.Itoa(gen)
}

func deriveXeonTier(m []string) (model.Processor, bool) {
	tier, digits, suffix := m[1], m[2], m[3]
	return model.Processor{
		Family:     "Xeon " + tier,
		Generation: XeonScalableGeneration(digits),
		Model:      "Xeon " + tier + " " + digits + suffix,
	}, true
}

func deriveXeonMax(m []string) (model.Processor, bool) {
	digits, suffix := m[1], m[2]
	return model.Processor{
		Family:     "Xeon Max",
		Generation: XeonScalableGeneration(digits),
		Model:      "Xeon Max " + digits + suffix,
	}, true
}

func derivePentium(m []string) (model.Processor, bool) {
	variant, code := m[1], m[2]
	family := "Pentium"
	if variant != "" {
		family += " " + variant
	}
	return model.Processor{
		Family:     family,
		Generation: thousandsBucket(code),
		Model:      family + " " + code,
	}, true
}

func deriveValueLine(family string) func(m []string) (model.Processor, bool) {
	return func(m []string) (model.Processor, bool) {
		code := m[1]
		return model.Processor{
			Family:     family,
			Generation: thousandsBucket(code),
			Model:      family + " " + code,
		}, true
	}
}
