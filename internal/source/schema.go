package source

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"

	"github.com/roach88/icetime/internal/ir"
)

//go:embed schema/input.cue
var inputSchema string

// Kind names one of the raw input document shapes.
type Kind string

const (
	KindShiftChart Kind = "#ShiftChart"
	KindPlayByPlay Kind = "#PlayByPlay"
	KindBoxscore   Kind = "#Boxscore"
)

// Validator checks raw documents against the embedded CUE definitions.
// A cue.Context is not safe for concurrent use, so calls are serialized.
type Validator struct {
	mu     sync.Mutex
	ctx    *cue.Context
	schema cue.Value
}

// NewValidator compiles the embedded input definitions.
func NewValidator() (*Validator, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(inputSchema, cue.Filename("input.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile input schema: %w", err)
	}
	return &Validator{ctx: ctx, schema: schema}, nil
}

var (
	defaultValidator     *Validator
	defaultValidatorErr  error
	defaultValidatorOnce sync.Once
)

// DefaultValidator returns the process-wide validator.
func DefaultValidator() (*Validator, error) {
	defaultValidatorOnce.Do(func() {
		defaultValidator, defaultValidatorErr = NewValidator()
	})
	return defaultValidator, defaultValidatorErr
}

// Validate checks data against the definition for kind. document names the
// input in the returned error.
func (v *Validator) Validate(kind Kind, document string, data []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	expr, err := cuejson.Extract(document, data)
	if err != nil {
		return &ir.InputError{Kind: ir.ErrKindMalformed, Document: document, Message: "not valid JSON", Err: err}
	}
	def := v.schema.LookupPath(cue.ParsePath(string(kind)))
	if !def.Exists() {
		return fmt.Errorf("input schema has no definition %s", kind)
	}
	doc := def.Unify(v.ctx.BuildExpr(expr))
	if err := doc.Validate(cue.Concrete(true)); err != nil {
		return &ir.InputError{
			Kind:     ir.ErrKindMalformed,
			Document: document,
			Message:  "does not match " + string(kind),
			Err:      errors.New(cueerrors.Details(err, nil)),
		}
	}
	return nil
}
