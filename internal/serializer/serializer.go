// Package serializer orchestrates the validation-and-persistence pipeline:
// schema dispatch to per-field validation, user override hooks, table-level
// validators, error aggregation, and the final bulk write through a
// storage.Repository.
//
// A Serializer moves through a small state machine per data assignment:
//
//	UNVALIDATED --Valid()--> VALID | INVALID
//
// SetData resets the machine. Valid never fails for data-quality problems;
// those land in the report. It fails only for schema misuse.
package serializer

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"tabular/internal/frame"
	"tabular/internal/schema"
	"tabular/internal/storage"
	"tabular/internal/validators"
)

// StateError signals programmer misuse of the serializer lifecycle, such as
// reading errors before validating or saving an invalid batch.
type StateError struct {
	Op     string
	Reason string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("serializer: %s: %s", e.Op, e.Reason)
}

// RowErrors lets an override hook report per-row failures for its field.
// Keys are row indices.
type RowErrors map[int]string

func (e RowErrors) Error() string {
	return fmt.Sprintf("%d row error(s)", len(e))
}

// Hook is a user override for one field. It runs only when the field itself
// validated cleanly, receives the full coerced column, and must return a
// column of the same length. It may transform values (e.g. fill nulls with a
// computed default) or signal failures by returning a RowErrors (merged per
// row) or any other error (recorded as a table-level message naming the
// field). Either way the pass is invalid.
type Hook func(col *frame.Column) (*frame.Column, error)

type state int

const (
	stateUnvalidated state = iota
	stateValid
	stateInvalid
)

// Serializer validates frames against a schema and persists the survivors.
// The schema, hooks and validator registry are fixed at construction; data
// is assigned per batch. A Serializer is not safe for concurrent use, but
// distinct serializers may share one schema.
type Serializer struct {
	schema     *schema.Schema
	hooks      map[string]Hook
	validators []validators.Validator

	data      *frame.Frame
	validated *frame.Frame
	report    *Report
	state     state
}

// Option configures a Serializer at construction.
type Option func(*Serializer)

// WithHook installs an override hook for one declared field.
func WithHook(field string, h Hook) Option {
	return func(s *Serializer) { s.hooks[field] = h }
}

// WithValidators appends table-level validators, run in registration order.
func WithValidators(vs ...validators.Validator) Option {
	return func(s *Serializer) { s.validators = append(s.validators, vs...) }
}

// New builds a Serializer over an already built schema.
func New(sch *schema.Schema, opts ...Option) *Serializer {
	s := &Serializer{
		schema: sch,
		hooks:  map[string]Hook{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// SetData assigns the next input frame and resets the state machine.
func (s *Serializer) SetData(f *frame.Frame) {
	s.data = f
	s.validated = nil
	s.report = nil
	s.state = stateUnvalidated
}

// Valid runs the full validation pass and reports whether the frame is
// clean. It is idempotent: calling it again on unchanged data rebuilds the
// report from scratch and returns the same answer.
//
// The returned error is nil for pure data-quality failures (those are in the
// report); it is non-nil only for schema misuse (*schema.SchemaError), a
// missing data assignment (*StateError), or context cancellation.
func (s *Serializer) Valid(ctx context.Context) (bool, error) {
	if s.data == nil {
		return false, &StateError{Op: "valid", Reason: "no data assigned; call SetData first"}
	}

	report := NewReport()
	fields := s.schema.Fields()

	// Resolve source columns up front so schema errors surface before any
	// per-row work, with no partial report.
	type task struct {
		field schema.Field
		col   *frame.Column
	}
	tasks := make([]task, 0, len(fields))
	for _, f := range fields {
		col, ok := s.data.Column(f.SourceName())
		if !ok {
			if f.Required {
				return false, &schema.SchemaError{
					Field:  f.Name,
					Reason: fmt.Sprintf("source column %q not in input", f.SourceName()),
				}
			}
			continue // optional and absent: excluded from the coerced frame
		}
		tasks = append(tasks, task{field: f, col: col})
	}

	// Field validations are independent; run them column-parallel. Results
	// land in fixed slots so the merge below is identical to sequential
	// execution.
	type result struct {
		col  *frame.Column
		errs map[int]string
	}
	results := make([]result, len(tasks))
	g, ctx := errgroup.WithContext(ctx)
	for i := range tasks {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			col, errs := tasks[i].field.Validate(tasks[i].col)
			results[i] = result{col: col, errs: errs}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}

	validated := frame.New()
	for i, t := range tasks {
		report.MergeField(t.field.Name, results[i].errs)
		if err := validated.SetColumn(t.field.Name, results[i].col); err != nil {
			return false, &schema.SchemaError{Field: t.field.Name, Reason: err.Error()}
		}
	}

	// Override hooks and table validators run only over a coerced frame that
	// every field produced cleanly; otherwise values would be unreliable.
	if report.Empty() {
		for _, t := range tasks {
			h, ok := s.hooks[t.field.Name]
			if !ok {
				continue
			}
			col, _ := validated.Column(t.field.Name)
			out, err := h(col)
			if err != nil {
				if re, ok := err.(RowErrors); ok {
					report.MergeField(t.field.Name, re)
				} else {
					report.AddTable(fmt.Sprintf("%s: %v", t.field.Name, err))
				}
				continue
			}
			if out == nil || out.Len() != s.data.Len() {
				return false, &schema.SchemaError{
					Field:  t.field.Name,
					Reason: "override hook returned a column of the wrong length",
				}
			}
			if err := validated.SetColumn(t.field.Name, out); err != nil {
				return false, &schema.SchemaError{Field: t.field.Name, Reason: err.Error()}
			}
		}
	}

	if report.Empty() {
		for _, v := range s.validators {
			for _, msg := range v.Validate(validated) {
				report.AddTable(msg)
			}
		}
	}

	s.report = report
	if report.Empty() {
		s.validated = validated
		s.state = stateValid
		return true, nil
	}
	s.validated = nil
	s.state = stateInvalid
	return false, nil
}

// Errors exposes the report of the last Valid call. Calling it before Valid
// is a StateError.
func (s *Serializer) Errors() (*Report, error) {
	if s.state == stateUnvalidated {
		return nil, &StateError{Op: "errors", Reason: "Valid has not been called"}
	}
	return s.report, nil
}

// Validated returns the coerced frame. Only available in the VALID state.
func (s *Serializer) Validated() (*frame.Frame, error) {
	if s.state != stateValid {
		return nil, &StateError{Op: "validated", Reason: "serializer is not valid"}
	}
	return s.validated, nil
}

// Save delegates the coerced frame to the repository under the given
// conflict policy and returns the number of rows written. It refuses to run
// unless the last Valid call succeeded; no persist call is issued otherwise.
// Storage failures come back as *storage.PersistError, untouched.
func (s *Serializer) Save(ctx context.Context, repo storage.Repository, policy storage.ConflictPolicy) (int64, error) {
	if s.state != stateValid {
		return 0, &StateError{Op: "save", Reason: "cannot save an unvalidated or invalid serializer"}
	}

	columns := s.validated.Names()
	rows, err := s.validated.Rows(columns)
	if err != nil {
		return 0, &schema.SchemaError{Reason: err.Error()}
	}

	batch := uuid.New()
	start := time.Now()
	n, err := repo.Persist(ctx, columns, rows, policy)
	if err != nil {
		log.Printf("serializer: batch=%s persist failed rows=%d err=%v", batch, len(rows), err)
		return n, err
	}
	log.Printf("serializer: batch=%s persisted rows=%d policy=%s elapsed=%s",
		batch, n, policy, time.Since(start).Truncate(time.Millisecond))
	return n, nil
}
