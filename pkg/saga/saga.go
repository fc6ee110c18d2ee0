// Package saga runs a sequence of side-effecting steps and unwinds the
// completed ones, newest first, when a critical step fails.
package saga

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/harborfund/portal/pkg/slogx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/harborfund/portal/pkg/saga"

// Criticality decides what a step failure does to the saga.
type Criticality int

const (
	// Critical failures abort the saga and run registered compensations.
	Critical Criticality = iota
	// BestEffort failures are logged and the saga carries on.
	BestEffort
)

func (c Criticality) String() string {
	switch c {
	case Critical:
		return "critical"
	case BestEffort:
		return "best_effort"
	default:
		return fmt.Sprintf("criticality(%d)", int(c))
	}
}

// Step is one unit of work. Undo, when set, is registered once Do succeeds
// and runs if a later critical step fails before Commit.
type Step struct {
	Name        string
	Criticality Criticality
	Do          func(ctx context.Context) error
	Undo        func(ctx context.Context) error
}

// StepError reports the critical step that aborted a saga. Unwrap yields only
// the step's own error; compensation failures never replace it.
type StepError struct {
	Saga             string
	Step             string
	Err              error
	CompensationErrs []error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: step %s: %v", e.Saga, e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

type compensation struct {
	step string
	undo func(ctx context.Context) error
}

// Saga is a single-use undo stack. It is not safe for concurrent use.
type Saga struct {
	name      string
	tracer    trace.Tracer
	undo      []compensation
	committed bool
	failed    error
}

// Option configures a Saga.
type Option func(*Saga)

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Saga) { s.tracer = tp.Tracer(instrumentationName) }
}

// New returns an empty saga called name.
func New(name string, opts ...Option) *Saga {
	s := &Saga{name: name, tracer: otel.Tracer(instrumentationName)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ErrAborted is returned by Run once a previous critical step has failed.
var ErrAborted = errors.New("saga: aborted")

// Run executes step. A critical failure unwinds the registered compensations
// and returns a *StepError; a best-effort failure is logged and returns nil.
func (s *Saga) Run(ctx context.Context, step Step) error {
	if s.failed != nil {
		return ErrAborted
	}

	ctx, span := s.tracer.Start(ctx, s.name+"."+step.Name, trace.WithAttributes(
		attribute.String("saga.name", s.name),
		attribute.String("saga.step", step.Name),
		attribute.String("saga.criticality", step.Criticality.String()),
	))
	defer span.End()

	log := slogx.FromContext(ctx).With(
		slog.String("saga", s.name),
		slog.String("step", step.Name),
	)

	err := step.Do(ctx)
	if err == nil {
		if step.Undo != nil && !s.committed {
			s.undo = append(s.undo, compensation{step: step.Name, undo: step.Undo})
		}
		return nil
	}

	span.RecordError(err)

	if step.Criticality == BestEffort {
		log.Warn("best-effort step failed", slog.Any("error", err))
		return nil
	}

	span.SetStatus(codes.Error, err.Error())
	log.Error("critical step failed", slog.Any("error", err))

	s.failed = err
	return &StepError{
		Saga:             s.name,
		Step:             step.Name,
		Err:              err,
		CompensationErrs: s.compensate(ctx),
	}
}

// Err returns the error of the critical step that aborted the saga, or nil.
func (s *Saga) Err() error { return s.failed }

// Commit discards the registered compensations. Steps that fail after Commit
// no longer unwind earlier work.
func (s *Saga) Commit() {
	s.committed = true
	s.undo = nil
}

// compensate runs the undo stack newest first. Every compensation runs even
// if an earlier one fails. Cancellation of ctx does not stop the unwind.
func (s *Saga) compensate(ctx context.Context) []error {
	ctx = context.WithoutCancel(ctx)
	log := slogx.FromContext(ctx).With(slog.String("saga", s.name))

	var errs []error
	for i := len(s.undo) - 1; i >= 0; i-- {
		c := s.undo[i]

		cctx, span := s.tracer.Start(ctx, s.name+".undo."+c.step)
		if err := c.undo(cctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			log.Error("compensation failed", slog.String("step", c.step), slog.Any("error", err))
			errs = append(errs, fmt.Errorf("undo %s: %w", c.step, err))
		} else {
			log.Info("compensated step", slog.String("step", c.step))
		}
		span.End()
	}

	s.undo = nil
	return errs
}
