package centrality

import (
	"context"
	"fmt"

	"github.com/cinegraph/backend/pkg/common"
	"github.com/cinegraph/backend/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// DefaultTopN is how many entities each statistics ranking holds.
const DefaultTopN = 10

// Computer is the part of the graph store batch computation needs.
type Computer interface {
	ComputeCentrality(ctx context.Context, algorithm common.CentralityAlgorithm) (common.CentralityRun, error)
	TopByCentrality(
		ctx context.Context,
		kind common.EntityKind,
		algorithm common.CentralityAlgorithm,
		limit int,
	) ([]common.RankedEntity, error)
	SummarizeCentrality(
		ctx context.Context,
		kind common.EntityKind,
		algorithm common.CentralityAlgorithm,
	) (common.ScoreSummary, error)
}

// Statistics describes one score over one kind after a run.
type Statistics struct {
	Algorithm common.CentralityAlgorithm `json:"algorithm"`
	Kind      common.EntityKind          `json:"kind"`
	Top       []common.RankedEntity      `json:"top"`
	Summary   common.ScoreSummary        `json:"summary"`
}

// Report is the outcome of Compute.
type Report struct {
	Runs       []common.CentralityRun `json:"runs"`
	Statistics []Statistics           `json:"statistics"`
}

// ComputeParams selects what Compute runs. Empty Algorithms runs all of
// them, a zero TopN uses DefaultTopN.
type ComputeParams struct {
	Algorithms []common.CentralityAlgorithm
	TopN       int
}

// Compute runs each algorithm in turn and then gathers statistics for every
// computed score. Algorithms share one graph projection name, so they never
// run concurrently. The first failure stops the computation.
func Compute(ctx context.Context, c Computer, params ComputeParams) (Report, error) {
	algorithms := params.Algorithms
	if len(algorithms) == 0 {
		algorithms = common.AllCentralityAlgorithms
	}
	topN := params.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}

	var report Report
	for _, algo := range algorithms {
		logger.Info("[Centrality] Computing", "algorithm", algo)
		run, err := c.ComputeCentrality(ctx, algo)
		if err != nil {
			return report, err
		}
		report.Runs = append(report.Runs, run)
	}

	stats, err := gatherStatistics(ctx, c, algorithms, topN)
	if err != nil {
		return report, err
	}
	report.Statistics = stats

	for _, s := range stats {
		logger.Info("[Centrality] Statistics",
			"algorithm", s.Algorithm,
			"kind", s.Kind,
			"count", s.Summary.Count,
			"max", s.Summary.Max,
			"median", s.Summary.Median,
			"p90", s.Summary.P90,
		)
		for i, e := range s.Top {
			logger.Debug("[Centrality] Ranked", "algorithm", s.Algorithm, "rank", i+1, "label", e.Label, "score", e.Score)
		}
	}
	return report, nil
}

func gatherStatistics(
	ctx context.Context,
	c Computer,
	algorithms []common.CentralityAlgorithm,
	topN int,
) ([]Statistics, error) {
	kinds := []common.EntityKind{common.KindPerson, common.KindMovie}
	stats := make([]Statistics, len(algorithms)*len(kinds))

	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(4)

	for i, algo := range algorithms {
		for j, kind := range kinds {
			slot := i*len(kinds) + j
			eg.Go(func() error {
				top, err := c.TopByCentrality(ectx, kind, algo, topN)
				if err != nil {
					return fmt.Errorf("failed to rank %s by %s: %w", kind, algo, err)
				}
				summary, err := c.SummarizeCentrality(ectx, kind, algo)
				if err != nil {
					return fmt.Errorf("failed to summarize %s for %s: %w", algo, kind, err)
				}
				stats[slot] = Statistics{Algorithm: algo, Kind: kind, Top: top, Summary: summary}
				return nil
			})
		}
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}
