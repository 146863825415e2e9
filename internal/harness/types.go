package harness

import (
	"github.com/roach88/icetime/internal/engine"
	"github.com/roach88/icetime/internal/timeline"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if the outcome and every assertion match.
	Pass bool `json:"pass"`

	// Status is the observed game status.
	Status string `json:"status"`

	// ErrorCode is the engine error code, empty on success.
	ErrorCode string `json:"error_code,omitempty"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Engine is the reconstruction result. It is nil when the game failed
	// before a timeline existed.
	Engine *engine.Result `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Timeline returns the reconstructed timeline, or nil.
func (r *Result) Timeline() *timeline.Timeline {
	if r.Engine == nil {
		return nil
	}
	return r.Engine.Timeline
}
