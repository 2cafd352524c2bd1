package centrality

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/cinegraph/backend/pkg/common"
)

type stubComputer struct {
	mu       sync.Mutex
	computed []common.CentralityAlgorithm
	failOn   common.CentralityAlgorithm
	topLimit int
}

func (s *stubComputer) ComputeCentrality(ctx context.Context, algo common.CentralityAlgorithm) (common.CentralityRun, error) {
	if algo == s.failOn {
		return common.CentralityRun{}, errors.New("gds not installed")
	}
	s.computed = append(s.computed, algo)
	return common.CentralityRun{Algorithm: algo, PropertiesWritten: 100, Iterations: 20}, nil
}

func (s *stubComputer) TopByCentrality(ctx context.Context, kind common.EntityKind, algo common.CentralityAlgorithm, limit int) ([]common.RankedEntity, error) {
	s.mu.Lock()
	s.topLimit = limit
	s.mu.Unlock()
	return []common.RankedEntity{{Label: string(kind) + "-" + string(algo), Score: 1}}, nil
}

func (s *stubComputer) SummarizeCentrality(ctx context.Context, kind common.EntityKind, algo common.CentralityAlgorithm) (common.ScoreSummary, error) {
	return common.ScoreSummary{Count: 100, Max: 1}, nil
}

func TestCompute_AllAlgorithmsInOrder(t *testing.T) {
	c := &stubComputer{}
	report, err := Compute(context.Background(), c, ComputeParams{})
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	if !reflect.DeepEqual(c.computed, common.AllCentralityAlgorithms) {
		t.Fatalf("computed = %v, want %v", c.computed, common.AllCentralityAlgorithms)
	}
	if len(report.Runs) != 3 {
		t.Fatalf("runs = %d, want 3", len(report.Runs))
	}
	if len(report.Statistics) != 6 {
		t.Fatalf("statistics = %d, want 6", len(report.Statistics))
	}

	first := report.Statistics[0]
	if first.Algorithm != common.AlgorithmEigenvector || first.Kind != common.KindPerson {
		t.Fatalf("first statistics = %+v, want eigenvector/Person", first)
	}
	if first.Top[0].Label != "Person-eigenvector" || first.Summary.Count != 100 {
		t.Fatalf("first statistics = %+v", first)
	}
	if c.topLimit != DefaultTopN {
		t.Fatalf("top limit = %d, want %d", c.topLimit, DefaultTopN)
	}
}

func TestCompute_StopsOnFailure(t *testing.T) {
	c := &stubComputer{failOn: common.AlgorithmPageRank}
	report, err := Compute(context.Background(), c, ComputeParams{TopN: 5})
	if err == nil {
		t.Fatalf("Compute() expected error")
	}
	if !reflect.DeepEqual(c.computed, []common.CentralityAlgorithm{common.AlgorithmEigenvector}) {
		t.Fatalf("computed = %v, want only eigenvector", c.computed)
	}
	if len(report.Runs) != 1 || report.Statistics != nil {
		t.Fatalf("report = %+v, want one run and no statistics", report)
	}
}

func TestCompute_SelectedAlgorithms(t *testing.T) {
	c := &stubComputer{}
	report, err := Compute(context.Background(), c, ComputeParams{
		Algorithms: []common.CentralityAlgorithm{common.AlgorithmDegree},
		TopN:       3,
	})
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if len(report.Runs) != 1 || len(report.Statistics) != 2 || c.topLimit != 3 {
		t.Fatalf("report = %+v, top limit %d", report, c.topLimit)
	}
}
