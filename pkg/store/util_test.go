package store

import (
	"errors"
	"reflect"
	"testing"

	"github.com/cinegraph/backend/pkg/common"
)

func TestChunkRange(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		chunkSize int
		want      [][2]int
	}{
		{name: "empty", total: 0, chunkSize: 3, want: nil},
		{name: "exact", total: 6, chunkSize: 3, want: [][2]int{{0, 3}, {3, 6}}},
		{name: "remainder", total: 7, chunkSize: 3, want: [][2]int{{0, 3}, {3, 6}, {6, 7}}},
		{name: "non-positive size means one chunk", total: 4, chunkSize: 0, want: [][2]int{{0, 4}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got [][2]int
			err := ChunkRange(tc.total, tc.chunkSize, func(start, end int) error {
				got = append(got, [2]int{start, end})
				return nil
			})
			if err != nil {
				t.Fatalf("ChunkRange() error = %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("ChunkRange() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestChunkRange_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := ChunkRange(10, 2, func(start, end int) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) || calls != 1 {
		t.Fatalf("ChunkRange() = %v after %d calls, want boom after 1", err, calls)
	}
}

func TestDedupeStrings(t *testing.T) {
	got := DedupeStrings([]string{"p1", "", "m1", "p1", "m2", "m1"})
	want := []string{"p1", "m1", "m2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("DedupeStrings() = %v, want %v", got, want)
	}
	if got := DedupeStrings(nil); got != nil {
		t.Fatalf("DedupeStrings(nil) = %v, want nil", got)
	}
}

func TestCentralityProperty(t *testing.T) {
	tests := map[common.CentralityAlgorithm]string{
		common.AlgorithmEigenvector: common.EigenvectorKey,
		common.AlgorithmPageRank:    common.PageRankKey,
		common.AlgorithmDegree:      common.DegreeKey,
	}
	for algo, want := range tests {
		got, err := CentralityProperty(algo)
		if err != nil || got != want {
			t.Fatalf("CentralityProperty(%s) = %q, %v, want %q", algo, got, err, want)
		}
	}
	if _, err := CentralityProperty("closeness"); err == nil {
		t.Fatalf("CentralityProperty(closeness) expected error")
	}
}
