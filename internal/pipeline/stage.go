package pipeline

import (
	"time"
)

// Stage is the position of one iteration in the generate, parse, persist
// cycle. Done and Failed are terminal.
type Stage int

const (
	StageStart Stage = iota
	StageGenerating
	StageParsing
	StagePersisting
	StageDone
	StageFailed
)

var stageNames = map[Stage]string{
	StageStart:      "start",
	StageGenerating: "generating",
	StageParsing:    "parsing",
	StagePersisting: "persisting",
	StageDone:       "done",
	StageFailed:     "failed",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether no further transition is possible.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageFailed
}

// next returns the stage that follows s on the success path.
func (s Stage) next() Stage {
	switch s {
	case StageStart:
		return StageGenerating
	case StageGenerating:
		return StageParsing
	case StageParsing:
		return StagePersisting
	case StagePersisting:
		return StageDone
	}
	return s
}

// IterationResult is the outcome of one cycle.
type IterationResult struct {
	Index int
	Stage Stage
	// FailedAt is the stage that was active when the iteration failed.
	FailedAt Stage
	Err      error

	UserID    string
	PostID    string
	CommentID string
	// Orphaned marks a user created without their first post.
	Orphaned bool

	Duration time.Duration
}

// Succeeded reports whether the iteration reached Done.
func (r IterationResult) Succeeded() bool {
	return r.Stage == StageDone
}

// iteration tracks a single cycle through its stages.
type iteration struct {
	result IterationResult
	start  time.Time
}

func newIteration(index int) *iteration {
	return &iteration{
		result: IterationResult{Index: index, Stage: StageStart},
		start:  time.Now(),
	}
}

// advance moves to the next stage; it is a no-op once terminal.
func (it *iteration) advance() {
	if it.result.Stage.Terminal() {
		return
	}
	it.result.Stage = it.result.Stage.next()
	if it.result.Stage == StageDone {
		it.result.Duration = time.Since(it.start)
	}
}

// fail records err against the current stage and terminates the iteration.
func (it *iteration) fail(err error) {
	if it.result.Stage.Terminal() {
		return
	}
	it.result.FailedAt = it.result.Stage
	it.result.Stage = StageFailed
	it.result.Err = err
	it.result.Duration = time.Since(it.start)
}

// Report collects the results of a pipeline run.
type Report struct {
	Pipeline string
	Results  []IterationResult
}

// Total returns the number of attempted iterations.
func (r *Report) Total() int {
	return len(r.Results)
}

// Succeeded returns the number of iterations that reached Done.
func (r *Report) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.Succeeded() {
			n++
		}
	}
	return n
}

// Failed returns the number of iterations that ended in Failed.
func (r *Report) Failed() int {
	return r.Total() - r.Succeeded()
}
