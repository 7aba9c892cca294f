/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

// Result is the outcome for a single item: a decoded value or an item-scoped error.
type Result[T any] struct {
	Value T     // The decoded item
	Err   error // Item-specific error, if any
}

// Ok wraps a successfully decoded value.
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Fail wraps an item-scoped error.
func Fail[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// IsOk reports whether the result carries a value.
func (r Result[T]) IsOk() bool {
	return r.Err == nil
}

// Get returns the value and error as a pair.
func (r Result[T]) Get() (T, error) {
	return r.Value, r.Err
}

// Page is one limited scan or query response. Next is zero when the sequence is exhausted.
type Page[T any] struct {
	Items []Result[T]
	Next  Cursor
}

// Values returns the successfully decoded values of results, in order.
func Values[T any](results []Result[T]) []T {
	out := make([]T, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			out = append(out, r.Value)
		}
	}
	return out
}

// Errors returns the item-scoped errors of results, in order.
func Errors[T any](results []Result[T]) []error {
	var out []error
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r.Err)
		}
	}
	return out
}
