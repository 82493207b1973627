package model

import "time"

// SyncResult summarizes one catalog sync run.
type SyncResult struct {
	Scope         Scope    `json:"scope" yaml:"scope"`
	Found         int      `json:"found" yaml:"found"`
	FoundIntel    int      `json:"foundIntel" yaml:"foundIntel"`
	FoundAMD      int      `json:"foundAmd" yaml:"foundAmd"`
	Prepared      int      `json:"prepared" yaml:"prepared"`
	Inserted      int64    `json:"inserted" yaml:"inserted"`
	FailedBatches int      `json:"failedBatches" yaml:"failedBatches"`
	Sample        []string `json:"sample" yaml:"sample"`
}

// CleanupCounts is the per-rule breakdown of a cleanup run.
type CleanupCounts struct {
	AMDFamilies     int64  `json:"amd_families" yaml:"amd_families"`
	IntelFamilies   int64  `json:"intel_families" yaml:"intel_families"`
	XeonUnwanted    int64  `json:"xeon_unwanted" yaml:"xeon_unwanted"`
	XeonEBelowV3    int64  `json:"xeon_e_vlt3" yaml:"xeon_e_vlt3"`
	OldCoreGens     int64  `json:"old_core_gens" yaml:"old_core_gens"`
	OlderThanCutoff int64  `json:"older_than_cutoff" yaml:"older_than_cutoff"`
	CutoffDate      string `json:"cutoff_date" yaml:"cutoff_date"`
}

// CleanupResult summarizes one cleanup run.
type CleanupResult struct {
	Deleted      CleanupCounts `json:"deleted" yaml:"deleted"`
	TotalDeleted int64         `json:"totalDeleted" yaml:"totalDeleted"`
	// DryRun marks counts of matching rows; nothing was deleted.
	DryRun bool `json:"dryRun,omitempty" yaml:"dryRun,omitempty"`
}

// BrandCoverage holds catalog totals for one brand.
type BrandCoverage struct {
	Brand    Brand `json:"brand" yaml:"brand"`
	Models   int64 `json:"models" yaml:"models"`
	Families int64 `json:"families" yaml:"families"`
}

// Coverage is a snapshot of catalog completeness.
type Coverage struct {
	Brands        []BrandCoverage `json:"brands" yaml:"brands"`
	LastUpdatedAt *time.Time      `json:"lastUpdatedAt" yaml:"lastUpdatedAt"`
}

// ForBrand returns the coverage entry for b, or a zero entry.
func (c *Coverage) ForBrand(b Brand) BrandCoverage {
	for _, bc := range c.Brands {
		if bc.Brand == b {
			return bc
		}
	}
	return BrandCoverage{Brand: b}
}
