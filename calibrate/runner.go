package calibrate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hazyhaar/domdiff/idgen"
	"github.com/hazyhaar/domdiff/layout"
	"github.com/hazyhaar/domdiff/stability"
)

// PairKey identifies one calibration unit: a test case rendered at a
// viewport.
type PairKey struct {
	TestCase string `json:"test_case"`
	Viewport string `json:"viewport"`
}

func (k PairKey) String() string { return k.TestCase + "@" + k.Viewport }

// PairResult is one pair's outcome. Err is set when that pair failed;
// failures never abort sibling pairs.
type PairResult struct {
	Settings *Settings          `json:"settings,omitempty"`
	Profile  *stability.Profile `json:"profile,omitempty"`
	Err      error              `json:"-"`
}

// Recorder receives run-level outcomes. observability.EventLogger satisfies
// it; a nil Recorder disables recording.
type Recorder interface {
	RecordCalibration(ctx context.Context, runID string, pair string, ok bool, detail string)
}

// Runner calibrates many (test case x viewport) pairs concurrently. Each
// pair's N-sample analysis is independent, so the work is embarrassingly
// parallel; results merge into a map keyed by pair, which is safe because
// keys are unique.
type Runner struct {
	strictness Strictness
	variant    ToleranceVariant
	workers    int
	newRunID   idgen.Generator
	logger     *slog.Logger
	recorder   Recorder
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithWorkers bounds concurrent pair calibrations. Default: 4.
func WithWorkers(n int) RunnerOption {
	return func(r *Runner) { r.workers = n }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = logger }
}

// WithRecorder attaches a run recorder.
func WithRecorder(rec Recorder) RunnerOption {
	return func(r *Runner) { r.recorder = rec }
}

// WithRunIDGenerator sets the generator for run IDs.
func WithRunIDGenerator(gen idgen.Generator) RunnerOption {
	return func(r *Runner) { r.newRunID = gen }
}

// NewRunner creates a Runner.
func NewRunner(strictness Strictness, variant ToleranceVariant, opts ...RunnerOption) *Runner {
	r := &Runner{
		strictness: strictness,
		variant:    variant,
		workers:    4,
		newRunID:   idgen.Prefixed("run_", idgen.Default),
		logger:     slog.Default(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run calibrates every pair and returns the merged result map. A failed
// pair carries its error on its own key; a cancelled context stops
// scheduling new pairs but never panics or drops completed results.
func (r *Runner) Run(ctx context.Context, samples map[PairKey][]*layout.LayoutSummary) map[PairKey]PairResult {
	runID := r.newRunID()
	results := make(map[PairKey]PairResult, len(samples))
	var mu sync.Mutex

	g := &errgroup.Group{}
	g.SetLimit(r.workers)

	for key, sums := range samples {
		g.Go(func() error {
			res := r.calibrateOne(ctx, key, sums)
			mu.Lock()
			results[key] = res
			mu.Unlock()

			if r.recorder != nil {
				detail := ""
				if res.Err != nil {
					detail = res.Err.Error()
				}
				r.recorder.RecordCalibration(ctx, runID, key.String(), res.Err == nil, detail)
			}
			// Errors stay attached to their key; returning one here would
			// make errgroup treat siblings as doomed.
			return nil
		})
	}
	g.Wait()

	r.logger.Info("calibrate: run complete", "run_id", runID, "pairs", len(results))
	return results
}

func (r *Runner) calibrateOne(ctx context.Context, key PairKey, sums []*layout.LayoutSummary) PairResult {
	if err := ctx.Err(); err != nil {
		return PairResult{Err: fmt.Errorf("calibrate: pair %s: %w", key, err)}
	}

	prof, err := stability.Analyze(sums, r.logger)
	if err != nil {
		r.logger.Warn("calibrate: pair failed", "pair", key.String(), "error", err)
		return PairResult{Err: fmt.Errorf("calibrate: pair %s: %w", key, err)}
	}

	settings := Calibrate(prof, r.strictness, r.variant)
	r.logger.Debug("calibrate: pair complete",
		"pair", key.String(),
		"pixel_tolerance", settings.PixelTolerance,
		"confidence", settings.ConfidenceLevel)
	return PairResult{Settings: settings, Profile: prof}
}
