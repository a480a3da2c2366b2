package mssql

import (
	"cmp"
	"slices"

	"golang.org/x/sync/errgroup"
)

// concurrentMap runs f over inputs with bounded concurrency, returning
// results in input order.
func concurrentMap[Tin, Tout any](inputs []Tin, concurrency int, f func(Tin) (Tout, error)) ([]Tout, error) {
	eg := errgroup.Group{}
	if concurrency > 0 {
		eg.SetLimit(concurrency)
	}

	type ordered struct {
		order  int
		output Tout
	}
	results := make([]ordered, len(inputs))

	for i := range inputs {
		i := i
		in := inputs[i]
		eg.Go(func() error {
			out, err := f(in)
			if err != nil {
				return err
			}
			results[i] = ordered{order: i, output: out}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b ordered) int {
		return cmp.Compare(a.order, b.order)
	})

	outputs := make([]Tout, len(results))
	for i, r := range results {
		outputs[i] = r.output
	}
	return outputs, nil
}
