package fetcher

import "github.com/ewaste-depot/cpu-catalog/internal/model"

const wikiBase = "https://en.wikipedia.org/wiki/"

// IntelSources are the Intel reference listings read by a sync run. Value
// lines (Pentium, Celeron, Atom) have no listing here because sync drops
// those families anyway.
var IntelSources = []string{
	wikiBase + "List_of_Intel_Core_i3_microprocessors",
	wikiBase + "List_of_Intel_Core_i5_microprocessors",
	wikiBase + "List_of_Intel_Core_i7_microprocessors",
	wikiBase + "List_of_Intel_Core_i9_microprocessors",
	wikiBase + "List_of_Intel_Core_processors",
	wikiBase + "List_of_Intel_Xeon_processors",
}

// AMDSources are the AMD reference listings read by a sync run.
var AMDSources = []string{
	wikiBase + "List_of_AMD_Ryzen_microprocessors",
	wikiBase + "List_of_AMD_Epyc_processors",
}

// SourcesFor returns a copy of the source list for brand.
func SourcesFor(brand model.Brand) []string {
	var src []string
	switch brand {
	case model.BrandIntel:
		src = IntelSources
	case model.BrandAMD:
		src = AMDSources
	}
	return append([]string(nil), src...)
}
