package analysis

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"famtree/internal/model"
	"famtree/internal/nesting"
)

// FamilyResult is the outcome of the nesting checks for one family tree.
type FamilyResult struct {
	Name         string               `json:"name"`
	Category     string               `json:"category"`
	FilePath     string               `json:"file_path"`
	HasRoot      bool                 `json:"has_root"`
	Occurrences  int                  `json:"occurrences"`
	LongestPaths []model.NestedFamily `json:"longest_paths"`
	Circular     []nesting.Circular   `json:"circular"`
}

// Ref returns the root family's name and category.
func (r FamilyResult) Ref() model.FamilyRef {
	return model.FamilyRef{Name: r.Name, Category: r.Category}
}

// AnalysisResult is one complete analysis run.
type AnalysisResult struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	Duration   string    `json:"duration"`
	Containers int       `json:"containers"`

	Families []FamilyResult `json:"families"`
	// RootFamilies are the families reported as saved on their own.
	RootFamilies []model.RootFamily `json:"root_families"`
	// Missing are nested families never reported as a root family.
	Missing []model.FamilyRef `json:"missing"`
	// MissingHosts are the root families that directly host a missing family.
	MissingHosts []model.RootFamily `json:"missing_hosts"`
	// NotNested are root families that no other family nests.
	NotNested []model.RootFamily `json:"not_nested"`
}

// Family returns the result for a root family name.
func (r AnalysisResult) Family(name string) (FamilyResult, bool) {
	for _, f := range r.Families {
		if f.Name == name {
			return f, true
		}
	}
	return FamilyResult{}, false
}

// CircularFamilies returns the families with at least one circular path.
func (r AnalysisResult) CircularFamilies() []FamilyResult {
	var out []FamilyResult
	for _, f := range r.Families {
		if len(f.Circular) > 0 {
			out = append(out, f)
		}
	}
	return out
}

type Option func(*Analyzer)

// WithWorkers bounds how many families are analysed at once. Zero or less
// means one per CPU.
func WithWorkers(n int) Option {
	return func(a *Analyzer) { a.workers = n }
}

func WithLogger(l zerolog.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// Analyzer runs the nesting checks over a set of containers.
type Analyzer struct {
	workers int
	logger  zerolog.Logger
}

func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(a)
	}
	if a.workers <= 0 {
		a.workers = runtime.NumCPU()
	}
	return a
}

// Analyze groups containers into families, culls and checks each family in
// parallel, then relates root and nested families across the whole set.
// Output order follows the containers, whatever the worker count.
func (a *Analyzer) Analyze(ctx context.Context, containers []*model.FamilyDataContainer) (AnalysisResult, error) {
	start := time.Now()
	result := AnalysisResult{
		RunID:      uuid.NewString(),
		StartedAt:  start,
		Containers: len(containers),
	}
	logger := a.logger.With().Str("run_id", result.RunID).Logger()

	families, err := GroupFamilies(containers)
	if err != nil {
		return result, fmt.Errorf("group families: %w", err)
	}

	results := make([]FamilyResult, len(families))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, f := range families {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := analyzeFamily(f)
			if err != nil {
				return fmt.Errorf("family %s: %w", f.Ref(), err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}
	result.Families = results

	var nested []model.NestedFamily
	for _, c := range containers {
		if c.IsRootFamily() {
			result.RootFamilies = append(result.RootFamilies, model.RootFamily{
				Name:     c.FamilyName(),
				Category: c.FamilyCategory(),
				FilePath: c.FamilyFilePath(),
			})
			continue
		}
		nf, err := occurrence(c)
		if err != nil {
			return result, err
		}
		nested = append(nested, nf)
	}

	var longest []model.NestedFamily
	for _, r := range results {
		longest = append(longest, r.LongestPaths...)
	}

	if result.Missing, err = nesting.MissingFamilies(result.RootFamilies, longest); err != nil {
		return result, err
	}
	hosts, err := nesting.AllDirectHosts(result.Missing, nested)
	if err != nil {
		return result, err
	}
	result.MissingHosts = nesting.RootsFromHosts(hosts, result.RootFamilies)
	if result.NotNested, err = nesting.RootsNotNested(result.RootFamilies, nested); err != nil {
		return result, err
	}

	result.Duration = time.Since(start).String()
	logger.Info().
		Int("families", len(result.Families)).
		Int("circular", len(result.CircularFamilies())).
		Int("missing", len(result.Missing)).
		Str("took", result.Duration).
		Msg("analysis complete")
	return result, nil
}

func analyzeFamily(f *Family) (FamilyResult, error) {
	r := FamilyResult{
		Name:     f.Name,
		Category: f.Category,
		HasRoot:  f.Root != nil,
	}
	if f.Root != nil {
		r.FilePath = f.Root.FamilyFilePath()
	}
	occ, err := f.Occurrences()
	if err != nil {
		return r, err
	}
	r.Occurrences = len(occ)
	if r.LongestPaths, err = nesting.Cull(occ); err != nil {
		return r, err
	}
	if r.Circular, err = nesting.FindCircular(occ); err != nil {
		return r, err
	}
	return r, nil
}
