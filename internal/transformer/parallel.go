package transformer

import (
	"context"

	"golang.org/x/sync/errgroup"

	"studentetl/pkg/records"
)

// MapFunc converts one row. Returning ok=false drops the row.
type MapFunc func(i int, r records.Record) (out records.Record, ok bool)

// ctxCheckEvery bounds how many rows a worker handles between context checks.
const ctxCheckEvery = 1024

// MapRows applies fn to every row of in and returns the kept rows in input
// order. With workers <= 1 it runs on the calling goroutine; otherwise the
// batch is split into contiguous chunks processed by at most workers
// goroutines, each writing only its own slots. It returns ctx.Err() if the
// context is canceled before all rows are processed.
func MapRows(ctx context.Context, workers int, in []records.Record, fn MapFunc) ([]records.Record, error) {
	if len(in) == 0 {
		return []records.Record{}, nil
	}
	out := make([]records.Record, len(in))
	keep := make([]bool, len(in))

	run := func(ctx context.Context, lo, hi int) error {
		for i := lo; i < hi; i++ {
			if (i-lo)%ctxCheckEvery == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			out[i], keep[i] = fn(i, in[i])
		}
		return nil
	}

	if workers <= 1 || len(in) < 2 {
		if err := run(ctx, 0, len(in)); err != nil {
			return nil, err
		}
	} else {
		if workers > len(in) {
			workers = len(in)
		}
		chunk := (len(in) + workers - 1) / workers
		g, gctx := errgroup.WithContext(ctx)
		for lo := 0; lo < len(in); lo += chunk {
			lo, hi := lo, min(lo+chunk, len(in))
			g.Go(func() error { return run(gctx, lo, hi) })
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	n := 0
	for i := range out {
		if keep[i] {
			out[n] = out[i]
			n++
		}
	}
	clear(out[n:])
	return out[:n], nil
}
