// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fanout runs independent external calls concurrently and converts
// their failures into absence. It is the one place where the pipeline's
// degrade-to-nothing policy is applied: callers hand over tasks and get back
// only the values that succeeded.
package fanout

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// ErrAbsent reports that a task found nothing. It is dropped like any other
// failure but logged at debug level only.
var ErrAbsent = errors.New("no result")

// Task is one external call.
type Task[T any] func(ctx context.Context) (T, error)

// Soft runs task and reports whether it produced a value. An error is logged
// under op and turned into ok == false.
func Soft[T any](ctx context.Context, logger *slog.Logger, op string, task Task[T]) (T, bool) {
	v, err := task(ctx)
	if err != nil {
		logFailure(ctx, logger, op, err)
		var zero T
		return zero, false
	}
	return v, true
}

// All starts every task at once and waits for all of them. values[i] and
// ok[i] hold the outcome of tasks[i]. A failing task never cancels its
// siblings.
func All[T any](ctx context.Context, logger *slog.Logger, op string, tasks []Task[T]) (values []T, ok []bool) {
	values = make([]T, len(tasks))
	ok = make([]bool, len(tasks))

	var g errgroup.Group
	for i, task := range tasks {
		g.Go(func() error {
			values[i], ok[i] = Soft(ctx, logger, op, task)
			return nil
		})
	}
	_ = g.Wait()
	return values, ok
}

// Gather is All with the failures filtered out. Surviving values keep task
// order.
func Gather[T any](ctx context.Context, logger *slog.Logger, op string, tasks []Task[T]) []T {
	values, ok := All(ctx, logger, op, tasks)
	out := make([]T, 0, len(values))
	for i, v := range values {
		if ok[i] {
			out = append(out, v)
		}
	}
	return out
}

// Join runs a fixed set of heterogeneous branches concurrently and waits for
// all of them. Branches report their own outcome through captured variables.
func Join(fns ...func()) {
	var g errgroup.Group
	for _, fn := range fns {
		g.Go(func() error {
			fn()
			return nil
		})
	}
	_ = g.Wait()
}

func logFailure(ctx context.Context, logger *slog.Logger, op string, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	if errors.Is(err, ErrAbsent) {
		logger.DebugContext(ctx, "no result", "op", op, "reason", err)
		return
	}
	logger.WarnContext(ctx, "external call failed", "op", op, "error", err)
}
