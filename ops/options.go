/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ops

import (
	"github.com/suparena/tableops/expr"
)

// ReadOption adjusts a read operation.
type ReadOption func(*readOptions)

type readOptions struct {
	consistent bool
	descending bool
	filter     *expr.Condition
	pageSize   int32
}

func applyReadOptions(opts []ReadOption) readOptions {
	var o readOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Consistent requests strongly consistent reads.
func Consistent() ReadOption {
	return func(o *readOptions) {
		o.consistent = true
	}
}

// Descending returns query results in descending sort key order.
func Descending() ReadOption {
	return func(o *readOptions) {
		o.descending = true
	}
}

// Filter adds a post-selection filter. Repeated filters are combined with And.
func Filter(c expr.Condition) ReadOption {
	return func(o *readOptions) {
		if o.filter == nil {
			o.filter = &c
			return
		}
		combined := o.filter.And(c)
		o.filter = &combined
	}
}

// PageSize sets how many items each provider call evaluates while an
// unbounded Scan or Query walks its pages.
func PageSize(n int32) ReadOption {
	return func(o *readOptions) {
		o.pageSize = n
	}
}
