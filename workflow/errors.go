package workflow

import "fmt"

// Stage names a step of the workflow.
type Stage string

const (
	StageResearch Stage = "research"
	StageKeywords Stage = "keywords"
	StageLinks    Stage = "links"
	StageGenerate Stage = "generate"
	StagePublish  Stage = "publish"
	StageRecord   Stage = "record"
	StageProgress Stage = "progress"
)

// StageError records where a run failed. errors.Is and errors.As see the
// underlying error.
type StageError struct {
	Stage   Stage
	Subject string
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Stage, e.Subject, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
