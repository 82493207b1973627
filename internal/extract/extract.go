// Package extract turns semi-structured processor listing text into catalog
// records. Every family has its own independent rule; rules never share
// parsing state and may overlap, in which case the (brand, model) key decides.
package extract

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/ewaste-depot/cpu-catalog/internal/model"
)

// rule pairs a pattern with the derivation that turns one match into a
// record. derive returns false when the match is outside policy.
type rule struct {
	name    string
	brand   model.Brand
	pattern *regexp.Regexp
	derive  func(m []string) (model.Processor, bool)
}

// trademarks are stripped before matching; listing pages are full of them
// and they glue onto family words ("Core™ Ultra").
var trademarks = strings.NewReplacer("™", "", "®", "", "(TM)", "", "(R)", "", "(tm)", "", "(r)", "")

// Normalize prepares raw text for matching: trademark glyphs are removed and
// the text is NFKC-folded so non-breaking spaces become plain spaces.
func Normalize(text string) string {
	return norm.NFKC.String(trademarks.Replace(text))
}

// Extract runs every rule of both brands over text.
func Extract(text string) []model.Processor {
	return run(Normalize(text), rules)
}

// ExtractBrand runs only the rules of the given brand.
func ExtractBrand(text string, brand model.Brand) []model.Processor {
	selected := make([]rule, 0, len(rules))
	for _, r := range rules {
		if r.brand == brand {
			selected = append(selected, r)
		}
	}
	return run(Normalize(text), selected)
}

// ExtractIntel runs the Intel rules over text.
func ExtractIntel(text string) []model.Processor {
	return ExtractBrand(text, model.BrandIntel)
}

// ExtractAMD runs the AMD rules over text.
func ExtractAMD(text string) []model.Processor {
	return ExtractBrand(text, model.BrandAMD)
}

func run(text string, rs []rule) []model.Processor {
	var out []model.Processor
	for _, r := range rs {
		for _, m := range r.pattern.FindAllStringSubmatch(text, -1) {
			p, ok := r.derive(m)
			if !ok {
				continue
			}
			p.Brand = r.brand
			out = append(out, p)
		}
	}
	return model.UniqueByKey(out)
}

var rules = append(intelRules(), amdRules()...)

// firstDigit returns the first ASCII digit in s.
func firstDigit(s string) (byte, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			return s[i], true
		}
	}
	return 0, false
}

// thousandsBucket maps a code to its leading digit times 1000, or "0" when
// the code carries no digit at all.
func thousandsBucket(code string) string {
	d, ok := firstDigit(code)
	if !ok {
		return "0"
	}
	return string(d) + "000"
}
