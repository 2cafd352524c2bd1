package common

// ValueKind tags which of the three shapes a record field holds.
type ValueKind int

const (
	// ValueScalar is any field that is neither a node nor an edge: numbers,
	// strings, lists of scalars, or maps without an identity key.
	ValueScalar ValueKind = iota
	// ValueNode is a property mapping of a graph node.
	ValueNode
	// ValueEdge is a (source, label, target) relationship triple.
	ValueEdge
)

func (k ValueKind) String() string {
	switch k {
	case ValueNode:
		return "node"
	case ValueEdge:
		return "edge"
	default:
		return "scalar"
	}
}

// Edge is a relationship together with the property mappings of both of its
// endpoints. Endpoint mappings may be empty when the store did not return the
// endpoint node alongside the relationship.
type Edge struct {
	Source map[string]any `json:"source"`
	Label  string         `json:"label"`
	Target map[string]any `json:"target"`
}

// Value is a tagged union over the shapes a graph store can return for a
// single record field. Exactly one of Props, Edge or Scalar is meaningful,
// selected by Kind.
//
// Values are built by the store implementation at the executor boundary so
// that downstream consumers never inspect driver types.
type Value struct {
	Kind   ValueKind
	Props  map[string]any
	Edge   *Edge
	Scalar any
}

// NodeValue returns a node-shaped Value for the given properties.
func NodeValue(props map[string]any) Value {
	return Value{Kind: ValueNode, Props: props}
}

// EdgeValue returns an edge-shaped Value.
func EdgeValue(source map[string]any, label string, target map[string]any) Value {
	return Value{Kind: ValueEdge, Edge: &Edge{Source: source, Label: label, Target: target}}
}

// ScalarValue returns a scalar-shaped Value.
func ScalarValue(v any) Value {
	return Value{Kind: ValueScalar, Scalar: v}
}

// Field is a single named entry of a Record.
type Field struct {
	Key   string
	Value Value
}

// Record is one row returned by query execution. Fields keep the order in
// which the store returned them.
type Record struct {
	Fields []Field
}

// Get returns the value stored under key and whether it was present.
func (r Record) Get(key string) (Value, bool) {
	for _, f := range r.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return Value{}, false
}

// EntityKind is the kind of a canonical graph entity.
type EntityKind string

const (
	KindPerson EntityKind = "Person"
	KindMovie  EntityKind = "Movie"
)

// Identity and attribute property names used by the movie graph.
const (
	PersonIDKey = "personId"
	MovieIDKey  = "movieId"
	NameKey     = "name"
	TitleKey    = "title"
	YearKey     = "year"

	EigenvectorKey = "eigenvectorCentrality"
	PageRankKey    = "pageRank"
	DegreeKey      = "degreeCentrality"
)

// Match is a full-text search hit: the matched property value and its score.
type Match struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Centrality holds the precomputed importance scores of a node. A nil field
// means the store has no value for that metric.
type Centrality struct {
	Eigenvector *float64 `json:"eigenvectorCentrality,omitempty"`
	PageRank    *float64 `json:"pageRank,omitempty"`
	Degree      *float64 `json:"degreeCentrality,omitempty"`
}

// CentralityAlgorithm names a batch centrality computation.
type CentralityAlgorithm string

const (
	AlgorithmEigenvector CentralityAlgorithm = "eigenvector"
	AlgorithmPageRank    CentralityAlgorithm = "pagerank"
	AlgorithmDegree      CentralityAlgorithm = "degree"
)

// AllCentralityAlgorithms lists every algorithm in the order they are computed.
var AllCentralityAlgorithms = []CentralityAlgorithm{
	AlgorithmEigenvector,
	AlgorithmPageRank,
	AlgorithmDegree,
}

// CentralityRun reports the outcome of one batch centrality computation.
type CentralityRun struct {
	Algorithm         CentralityAlgorithm `json:"algorithm"`
	PropertiesWritten int64               `json:"properties_written"`
	Iterations        int64               `json:"iterations"`
	DurationMs        int64               `json:"duration_ms"`
}

// RankedEntity is a node ranked by one of its centrality scores.
type RankedEntity struct {
	Label string  `json:"label"`
	Year  any     `json:"year,omitempty"`
	Score float64 `json:"score"`
}

// ScoreSummary describes the distribution of one centrality score over all
// nodes of a kind that carry it.
type ScoreSummary struct {
	Count  int64   `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Avg    float64 `json:"avg"`
	Median float64 `json:"median"`
	P90    float64 `json:"p90"`
}
