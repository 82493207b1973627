// Package cleanup enforces the catalog curation policy by hard-deleting
// rows that fall outside it.
package cleanup

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ewaste-depot/cpu-catalog/internal/catalog"
	"github.com/ewaste-depot/cpu-catalog/internal/metrics"
	"github.com/ewaste-depot/cpu-catalog/internal/model"
)

// Cutoff is the release date before which rows are removed; the launch
// window of 4th-generation Intel Core.
var Cutoff = time.Date(2013, time.June, 1, 0, 0, 0, 0, time.UTC)

// AllowedXeonFamilies are the Xeon families that survive cleanup.
var AllowedXeonFamilies = []string{
	"Xeon Silver", "Xeon Bronze", "Xeon Gold", "Xeon Platinum",
	"Xeon Max", "Xeon E3", "Xeon E5", "Xeon E7",
}

// Rule names, also the keys of the result breakdown.
const (
	RuleAMDFamilies     = "amd_families"
	RuleIntelFamilies   = "intel_families"
	RuleXeonUnwanted    = "xeon_unwanted"
	RuleXeonEBelowV3    = "xeon_e_vlt3"
	RuleOldCoreGens     = "old_core_gens"
	RuleOlderThanCutoff = "older_than_cutoff"
)

// Rule is one named step of the policy. Each filter is a separate delete;
// the rule's count is their sum.
type Rule struct {
	Name    string
	Filters []catalog.Filter
}

// Rules returns the policy in evaluation order. Later rules see the table
// as left by earlier ones.
func Rules() []Rule {
	cutoff := Cutoff

	var xeonE []catalog.Filter
	for _, fam := range []string{"Xeon E3", "Xeon E5", "Xeon E7"} {
		for _, f := range []catalog.Filter{
			{ModelLike: "% v1%"},
			{ModelLike: "% v2%"},
			{ModelNotLike: "% v%"},
		} {
			f.Brand = model.BrandIntel
			f.Families = []string{fam}
			xeonE = append(xeonE, f)
		}
	}

	return []Rule{
		{Name: RuleAMDFamilies, Filters: []catalog.Filter{{
			Brand:    model.BrandAMD,
			Families: []string{"Athlon", "Athlon X2", "Athlon X4"},
		}}},
		{Name: RuleIntelFamilies, Filters: []catalog.Filter{{
			Brand:    model.BrandIntel,
			Families: []string{"Atom", "Celeron", "Pentium Gold", "Pentium Silver", "Pentium"},
		}}},
		{Name: RuleXeonUnwanted, Filters: []catalog.Filter{{
			Brand:        model.BrandIntel,
			FamilyPrefix: "Xeon",
			NotFamilies:  AllowedXeonFamilies,
		}}},
		{Name: RuleXeonEBelowV3, Filters: xeonE},
		{Name: RuleOldCoreGens, Filters: []catalog.Filter{{
			Brand:       model.BrandIntel,
			Families:    []string{"Core i3", "Core i5", "Core i7", "Core i9"},
			Generations: []string{"1", "2", "3"},
		}}},
		{Name: RuleOlderThanCutoff, Filters: []catalog.Filter{{
			ReleasedBefore: &cutoff,
		}}},
	}
}

// Cleaner runs the cleanup policy against a store.
type Cleaner struct {
	store catalog.Store

	// RecordRuns writes each run to the store's run log.
	RecordRuns bool

	log *zap.Logger
}

// New creates a Cleaner.
func New(store catalog.Store) *Cleaner {
	return &Cleaner{
		store: store,
		log:   zap.L().With(zap.String("component", "cleanup")),
	}
}

// Run applies every rule in order. The first failing delete aborts the
// rules after it; deletions already made stay made.
func (c *Cleaner) Run(ctx context.Context) (*model.CleanupResult, error) {
	start := time.Now()

	var runID int64
	if c.RecordRuns {
		id, err := c.store.StartRun(ctx, model.RunKindCleanup)
		if err != nil {
			c.log.Warn("run log: start failed", zap.Error(err))
		}
		runID = id
	}

	res, err := c.run(ctx)
	metrics.RunDuration.WithLabelValues("cleanup").Observe(time.Since(start).Seconds())

	if runID != 0 {
		var result any
		if res != nil {
			result = res
		}
		if ferr := c.store.FinishRun(ctx, runID, result, err); ferr != nil {
			c.log.Warn("run log: finish failed", zap.Int64("run_id", runID), zap.Error(ferr))
		}
	}
	if err != nil {
		return nil, err
	}

	c.log.Info("cleanup complete",
		zap.Int64("total_deleted", res.TotalDeleted),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

// Preview counts the rows each rule matches without deleting anything. Rules
// are counted against the current table, so a row matched by several rules
// counts under each of them.
func (c *Cleaner) Preview(ctx context.Context) (*model.CleanupResult, error) {
	counts, err := c.evaluate(ctx, "matched", c.store.Count)
	if err != nil {
		return nil, err
	}
	res := newResult(counts)
	res.DryRun = true
	c.log.Info("cleanup preview", zap.Int64("total_matched", res.TotalDeleted))
	return res, nil
}

func (c *Cleaner) run(ctx context.Context) (*model.CleanupResult, error) {
	counts, err := c.evaluate(ctx, "deleted", c.store.Delete)
	if err != nil {
		return nil, err
	}
	for name, n := range counts {
		metrics.CleanupDeletedTotal.WithLabelValues(name).Add(float64(n))
	}
	return newResult(counts), nil
}

// evaluate applies op to every filter in rule order and sums per rule.
func (c *Cleaner) evaluate(ctx context.Context, verb string, op func(context.Context, catalog.Filter) (int64, error)) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, rule := range Rules() {
		var n int64
		for _, f := range rule.Filters {
			k, err := op(ctx, f)
			if err != nil {
				return nil, eris.Wrapf(err, "cleanup: rule %s", rule.Name)
			}
			n += k
		}
		counts[rule.Name] = n
		c.log.Debug("rule applied", zap.String("rule", rule.Name), zap.Int64(verb, n))
	}
	return counts, nil
}

func newResult(counts map[string]int64) *model.CleanupResult {
	res := &model.CleanupResult{
		Deleted: model.CleanupCounts{
			AMDFamilies:     counts[RuleAMDFamilies],
			IntelFamilies:   counts[RuleIntelFamilies],
			XeonUnwanted:    counts[RuleXeonUnwanted],
			XeonEBelowV3:    counts[RuleXeonEBelowV3],
			OldCoreGens:     counts[RuleOldCoreGens],
			OlderThanCutoff: counts[RuleOlderThanCutoff],
			CutoffDate:      Cutoff.Format(time.DateOnly),
		},
	}
	for _, n := range counts {
		res.TotalDeleted += n
	}
	return res
}
