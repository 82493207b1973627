// Package catalogsync fills the CPU catalog from public processor listings.
// A run is best-effort and idempotent: sources that fail are skipped, rows
// already in the catalog are never re-submitted, and a failed insert batch
// does not stop the batches after it.
package catalogsync

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ewaste-depot/cpu-catalog/internal/catalog"
	"github.com/ewaste-depot/cpu-catalog/internal/extract"
	"github.com/ewaste-depot/cpu-catalog/internal/fetcher"
	"github.com/ewaste-depot/cpu-catalog/internal/metrics"
	"github.com/ewaste-depot/cpu-catalog/internal/model"
)

const (
	// BatchSize is the number of rows per insert call.
	BatchSize = 500

	// ExistingLimit caps the per-brand read of existing keys.
	ExistingLimit = 200000

	// SampleSize is the number of descriptions returned for observability.
	SampleSize = 10
)

// ExcludedFamilies are never inserted: cleanup removes them, so sync must
// not bring them back. Athlon X3 has no cleanup rule and is only kept out.
var ExcludedFamilies = map[string]struct{}{
	"Athlon":         {},
	"Athlon X2":      {},
	"Athlon X3":      {},
	"Athlon X4":      {},
	"Atom":           {},
	"Celeron":        {},
	"Pentium":        {},
	"Pentium Gold":   {},
	"Pentium Silver": {},
}

// brands is the processing order of a run.
var brands = []model.Brand{model.BrandIntel, model.BrandAMD}

// StoreReadError reports that the existing keys of a brand could not be
// loaded; inserting without them would break idempotence.
type StoreReadError struct {
	Brand model.Brand
	Err   error
}

func (e *StoreReadError) Error() string {
	return fmt.Sprintf("catalogsync: read existing %s models: %v", e.Brand, e.Err)
}

func (e *StoreReadError) Unwrap() error { return e.Err }

// BatchResult is the outcome of one insert batch.
type BatchResult struct {
	Index    int
	Size     int
	Inserted int64
	Err      error
}

// Syncer runs catalog syncs against a store.
type Syncer struct {
	store   catalog.Store
	fetcher fetcher.Fetcher

	// Sources lists the URLs read for a brand. Defaults to fetcher.SourcesFor.
	Sources func(brand model.Brand) []string

	// BatchSize overrides the insert batch size when positive.
	BatchSize int

	// RecordRuns writes each run to the store's run log.
	RecordRuns bool

	log *zap.Logger
}

// New creates a Syncer.
func New(store catalog.Store, f fetcher.Fetcher) *Syncer {
	return &Syncer{
		store:     store,
		fetcher:   f,
		Sources:   fetcher.SourcesFor,
		BatchSize: BatchSize,
		log:       zap.L().With(zap.String("component", "catalogsync")),
	}
}

// Run syncs the brands covered by scope and reports what it found and wrote.
func (s *Syncer) Run(ctx context.Context, scope model.Scope) (*model.SyncResult, error) {
	start := time.Now()
	runID := s.startRun(ctx)

	res, err := s.run(ctx, scope)

	metrics.RunDuration.WithLabelValues("sync").Observe(time.Since(start).Seconds())
	status := "success"
	if err != nil {
		status = "failure"
	}
	metrics.SyncRunsTotal.WithLabelValues(string(scope), status).Inc()
	s.finishRun(ctx, runID, res, err)

	if err != nil {
		return nil, err
	}
	s.log.Info("sync complete",
		zap.String("scope", string(scope)),
		zap.Int("found", res.Found),
		zap.Int("prepared", res.Prepared),
		zap.Int64("inserted", res.Inserted),
		zap.Int("failed_batches", res.FailedBatches),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

func (s *Syncer) run(ctx context.Context, scope model.Scope) (*model.SyncResult, error) {
	found := s.collect(ctx, scope)

	res := &model.SyncResult{Scope: scope, Sample: []string{}}
	var candidates []model.Processor
	for _, brand := range brands {
		rows := found[brand]
		switch brand {
		case model.BrandIntel:
			res.FoundIntel = len(rows)
		case model.BrandAMD:
			res.FoundAMD = len(rows)
		}
		if len(rows) == 0 {
			continue
		}

		rows = Filter(rows)
		if len(rows) == 0 {
			continue
		}

		existing, err := s.store.ExistingModels(ctx, brand, ExistingLimit)
		if err != nil {
			return nil, &StoreReadError{Brand: brand, Err: err}
		}
		fresh := Diff(rows, existing)
		s.log.Debug("brand prepared",
			zap.String("brand", string(brand)),
			zap.Int("candidates", len(rows)),
			zap.Int("existing", len(existing)),
			zap.Int("fresh", len(fresh)),
		)
		candidates = append(candidates, fresh...)
	}
	res.Found = res.FoundIntel + res.FoundAMD
	res.Prepared = len(candidates)

	for _, b := range s.insert(ctx, candidates) {
		if b.Err != nil {
			res.FailedBatches++
			continue
		}
		res.Inserted += b.Inserted
	}

	for i := 0; i < len(candidates) && i < SampleSize; i++ {
		res.Sample = append(res.Sample, candidates[i].Describe())
	}
	return res, nil
}

// collect fetches every source of the brands in scope concurrently and
// returns the deduplicated extraction per brand. A failing source
// contributes nothing and never cancels the others.
func (s *Syncer) collect(ctx context.Context, scope model.Scope) map[model.Brand][]model.Processor {
	type job struct {
		brand model.Brand
		url   string
	}
	var jobs []job
	for _, brand := range brands {
		if !scope.Includes(brand) {
			continue
		}
		for _, u := range s.Sources(brand) {
			jobs = append(jobs, job{brand: brand, url: u})
		}
	}

	// One slot per job; merged in job order after Wait.
	results := make([][]model.Processor, len(jobs))
	var g errgroup.Group
	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			text, err := s.fetcher.FetchText(ctx, j.url)
			if err != nil {
				metrics.SourceFailuresTotal.WithLabelValues(string(j.brand)).Inc()
				s.log.Warn("source failed",
					zap.String("brand", string(j.brand)),
					zap.String("url", j.url),
					zap.Error(err),
				)
				return nil
			}
			results[i] = extract.ExtractBrand(text, j.brand)
			s.log.Debug("source extracted",
				zap.String("url", j.url),
				zap.Int("records", len(results[i])),
			)
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[model.Brand][]model.Processor)
	for i, j := range jobs {
		out[j.brand] = append(out[j.brand], results[i]...)
	}
	for brand, rows := range out {
		out[brand] = model.UniqueByKey(rows)
	}
	return out
}

// Filter drops records below the brand generation floor and records of
// excluded families.
func Filter(rows []model.Processor) []model.Processor {
	out := make([]model.Processor, 0, len(rows))
	for _, p := range rows {
		if _, excluded := ExcludedFamilies[p.Family]; excluded {
			continue
		}
		if !AboveFloor(p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// AboveFloor reports whether p meets its brand's minimum generation. Only
// Intel Core i-series and AMD series families have a numeric floor; other
// generations (Xeon Scalable, Core Ultra) are checked at extraction.
func AboveFloor(p model.Processor) bool {
	n, err := strconv.Atoi(p.Generation)
	if err != nil {
		return true
	}
	switch p.Brand {
	case model.BrandIntel:
		if strings.HasPrefix(p.Family, "Core i") {
			return n >= extract.MinCoreGeneration
		}
	case model.BrandAMD:
		if strings.HasPrefix(p.Family, "Ryzen") || p.Family == "EPYC" {
			return n >= extract.MinAMDSeries
		}
	}
	return true
}

// Diff returns the rows whose key is not in existing, keeping order.
func Diff(rows []model.Processor, existing map[string]struct{}) []model.Processor {
	out := make([]model.Processor, 0, len(rows))
	for _, p := range rows {
		if _, ok := existing[p.Key()]; ok {
			continue
		}
		out = append(out, p)
	}
	return out
}

// insert writes rows in sequential batches. A failed batch is logged and
// skipped; its rows are not retried within the run.
func (s *Syncer) insert(ctx context.Context, rows []model.Processor) []BatchResult {
	size := s.BatchSize
	if size <= 0 {
		size = BatchSize
	}

	var results []BatchResult
	for i, idx := 0, 0; i < len(rows); i, idx = i+size, idx+1 {
		end := min(i+size, len(rows))
		chunk := rows[i:end]

		n, err := s.store.InsertMany(ctx, chunk)
		br := BatchResult{Index: idx, Size: len(chunk), Inserted: n, Err: err}
		if err != nil {
			s.log.Error("insert batch failed",
				zap.Int("batch", idx),
				zap.Int("size", len(chunk)),
				zap.Error(err),
			)
			br.Inserted = 0
		} else {
			countInserted(chunk, n)
		}
		results = append(results, br)
	}
	return results
}

// countInserted attributes n written rows to their brands. A backend that
// reports fewer rows than it was given is credited in chunk order, so the
// metric never exceeds what the store reported.
func countInserted(chunk []model.Processor, n int64) {
	perBrand := make(map[model.Brand]int64)
	for i := 0; i < len(chunk) && int64(i) < n; i++ {
		perBrand[chunk[i].Brand]++
	}
	for b, c := range perBrand {
		metrics.SyncInsertedTotal.WithLabelValues(string(b)).Add(float64(c))
	}
}

func (s *Syncer) startRun(ctx context.Context) int64 {
	if !s.RecordRuns {
		return 0
	}
	id, err := s.store.StartRun(ctx, model.RunKindSync)
	if err != nil {
		s.log.Warn("run log: start failed", zap.Error(err))
		return 0
	}
	return id
}

func (s *Syncer) finishRun(ctx context.Context, id int64, res *model.SyncResult, runErr error) {
	if id == 0 {
		return
	}
	var result any
	if res != nil {
		result = res
	}
	if err := s.store.FinishRun(ctx, id, result, runErr); err != nil {
		s.log.Warn("run log: finish failed", zap.Int64("run_id", id), zap.Error(err))
	}
}
