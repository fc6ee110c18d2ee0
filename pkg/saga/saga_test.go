package saga_test

import (
	"context"
	"errors"
	"testing"

	"github.com/harborfund/portal/pkg/saga"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type recorder struct{ calls []string }

func (r *recorder) step(name string, crit saga.Criticality, doErr error, withUndo bool, undoErr error) saga.Step {
	s := saga.Step{
		Name:        name,
		Criticality: crit,
		Do: func(context.Context) error {
			r.calls = append(r.calls, "do:"+name)
			return doErr
		},
	}
	if withUndo {
		s.Undo = func(context.Context) error {
			r.calls = append(r.calls, "undo:"+name)
			return undoErr
		}
	}
	return s
}

func TestSaga_CriticalFailureUnwindsInReverse(t *testing.T) {
	var r recorder
	s := saga.New("create_account")
	ctx := context.Background()

	require.NoError(t, s.Run(ctx, r.step("identity", saga.Critical, nil, true, nil)))
	require.NoError(t, s.Run(ctx, r.step("user", saga.Critical, nil, true, nil)))

	boom := errors.New("insert investor: constraint failed")
	err := s.Run(ctx, r.step("investor", saga.Critical, boom, true, nil))

	require.ErrorIs(t, err, boom)
	var stepErr *saga.StepError
	require.ErrorAs(t, err, &stepErr)
	require.Equal(t, "investor", stepErr.Step)
	require.Empty(t, stepErr.CompensationErrs)

	require.Equal(t, []string{
		"do:identity", "do:user", "do:investor",
		"undo:user", "undo:identity",
	}, r.calls)

	// The saga is spent.
	require.ErrorIs(t, s.Run(ctx, r.step("late", saga.Critical, nil, false, nil)), saga.ErrAborted)
}

func TestSaga_CompensationFailureDoesNotMaskOriginal(t *testing.T) {
	var r recorder
	s := saga.New("create_account")
	ctx := context.Background()

	undoErr := errors.New("identity provider unavailable")
	require.NoError(t, s.Run(ctx, r.step("identity", saga.Critical, nil, true, undoErr)))
	require.NoError(t, s.Run(ctx, r.step("user", saga.Critical, nil, true, nil)))

	boom := errors.New("insert investor failed")
	err := s.Run(ctx, r.step("investor", saga.Critical, boom, false, nil))

	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, undoErr)

	var stepErr *saga.StepError
	require.ErrorAs(t, err, &stepErr)
	require.Len(t, stepErr.CompensationErrs, 1)
	require.ErrorIs(t, stepErr.CompensationErrs[0], undoErr)

	// Both compensations ran even though the last one failed.
	require.Equal(t, []string{"do:identity", "do:user", "do:investor", "undo:user", "undo:identity"}, r.calls)
}

func TestSaga_BestEffortFailureContinues(t *testing.T) {
	var r recorder
	s := saga.New("create_account")
	ctx := context.Background()

	require.NoError(t, s.Run(ctx, r.step("identity", saga.Critical, nil, true, nil)))
	require.NoError(t, s.Run(ctx, r.step("status", saga.BestEffort, errors.New("update failed"), true, nil)))
	require.NoError(t, s.Run(ctx, r.step("email", saga.Critical, nil, false, nil)))

	require.Equal(t, []string{"do:identity", "do:status", "do:email"}, r.calls)
}

func TestSaga_CommitStopsUnwinding(t *testing.T) {
	var r recorder
	s := saga.New("create_account")
	ctx := context.Background()

	require.NoError(t, s.Run(ctx, r.step("identity", saga.Critical, nil, true, nil)))
	s.Commit()
	require.NoError(t, s.Run(ctx, r.step("investor", saga.Critical, nil, true, nil)))

	boom := errors.New("sign in failed")
	require.ErrorIs(t, s.Run(ctx, r.step("session", saga.Critical, boom, false, nil)), boom)

	require.Equal(t, []string{"do:identity", "do:investor", "do:session"}, r.calls)
}

func TestSaga_CompensatesWithCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := saga.New("create_account")

	var undoCtxErr error
	require.NoError(t, s.Run(ctx, saga.Step{
		Name: "identity",
		Do:   func(context.Context) error { return nil },
		Undo: func(ctx context.Context) error {
			undoCtxErr = ctx.Err()
			return nil
		},
	}))

	cancel()
	err := s.Run(ctx, saga.Step{Name: "user", Do: func(ctx context.Context) error { return ctx.Err() }})
	require.ErrorIs(t, err, context.Canceled)
	require.NoError(t, undoCtxErr)
}

func TestSaga_RecordsSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	s := saga.New("create_account", saga.WithTracerProvider(tp))
	ctx := context.Background()

	require.NoError(t, s.Run(ctx, saga.Step{
		Name: "identity",
		Do:   func(context.Context) error { return nil },
		Undo: func(context.Context) error { return nil },
	}))
	_ = s.Run(ctx, saga.Step{Name: "user", Do: func(context.Context) error { return errors.New("x") }})

	var names []string
	for _, span := range sr.Ended() {
		names = append(names, span.Name())
	}
	require.ElementsMatch(t, []string{
		"create_account.identity",
		"create_account.user",
		"create_account.undo.identity",
	}, names)
}

func TestCriticalityString(t *testing.T) {
	require.Equal(t, "critical", saga.Critical.String())
	require.Equal(t, "best_effort", saga.BestEffort.String())
}

func TestSaga_ErrAndAborted(t *testing.T) {
	s := saga.New("create_account")
	ctx := context.Background()
	boom := errors.New("boom")

	require.NoError(t, s.Run(ctx, saga.Step{Name: "a", Do: func(context.Context) error { return nil }}))
	require.NoError(t, s.Err())

	require.Error(t, s.Run(ctx, saga.Step{Name: "b", Do: func(context.Context) error { return boom }}))
	require.ErrorIs(t, s.Err(), boom)

	ran := false
	err := s.Run(ctx, saga.Step{Name: "c", Do: func(context.Context) error { ran = true; return nil }})
	require.ErrorIs(t, err, saga.ErrAborted)
	require.False(t, ran)
}
