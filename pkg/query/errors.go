package query

import "fmt"

// Stage names one step of the question pipeline.
type Stage string

const (
	StageResolve    Stage = "resolve"
	StageSchema     Stage = "schema"
	StageSynthesize Stage = "synthesize"
	StageExecute    Stage = "execute"
	StageEnrich     Stage = "enrich"
)

// StageError reports which pipeline step failed. The underlying error is
// kept unchanged.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
