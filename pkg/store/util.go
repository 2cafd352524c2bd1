package store

import (
	"fmt"

	"github.com/cinegraph/backend/pkg/common"
)

// ChunkRange calls fn for consecutive [start, end) windows of at most
// chunkSize elements covering [0, total).
func ChunkRange(total, chunkSize int, fn func(start, end int) error) error {
	if total <= 0 {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = total
	}
	for start := 0; start < total; start += chunkSize {
		end := min(start+chunkSize, total)
		if err := fn(start, end); err != nil {
			return err
		}
	}
	return nil
}

// DedupeStrings drops empty and repeated values, keeping first-seen order.
func DedupeStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// CentralityProperty returns the node property algorithm writes to.
func CentralityProperty(algorithm common.CentralityAlgorithm) (string, error) {
	switch algorithm {
	case common.AlgorithmEigenvector:
		return common.EigenvectorKey, nil
	case common.AlgorithmPageRank:
		return common.PageRankKey, nil
	case common.AlgorithmDegree:
		return common.DegreeKey, nil
	default:
		return "", fmt.Errorf("unknown centrality algorithm %q", algorithm)
	}
}
