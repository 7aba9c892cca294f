/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package tableops

import (
	"context"
	"time"

	"github.com/suparena/tableops/expr"
	"github.com/suparena/tableops/interpreter"
	"github.com/suparena/tableops/ops"
	"github.com/suparena/tableops/storagemodels"
)

// StreamResult is one streamed item, or the fault that ended the stream.
type StreamResult[T any] struct {
	Item  T          // The decoded item
	Error error      // Item decode error, or the step-level fault that ended the stream
	Meta  StreamMeta // Position of this item in the stream
}

// StreamMeta locates a streamed item.
type StreamMeta struct {
	Index      int64     // Item index in stream (0-based)
	PageNumber int       // Provider page number (1-based)
	Timestamp  time.Time // When the page was retrieved
}

// StreamProgress is reported after every page.
type StreamProgress struct {
	ItemsProcessed int64                // Total items processed
	PagesProcessed int                  // Total pages processed
	Next           storagemodels.Cursor // Where the next page starts; zero once done
	DecodeErrors   int                  // Items that failed to decode
	StartTime      time.Time            // When streaming started
	CurrentRate    float64              // Items per second
}

// StreamOptions configures streaming behavior
type StreamOptions struct {
	BufferSize      int                  // Channel buffer size (default: 100)
	PageSize        int32                // Items per provider page (default: 100)
	Start           storagemodels.Cursor // Cursor to resume from
	ReadOptions     []ops.ReadOption     // Options applied to every page
	ProgressHandler func(StreamProgress) // Optional progress callback
}

// StreamOption is a functional option for configuring streaming
type StreamOption func(*StreamOptions)

// DefaultStreamOptions returns default streaming options
func DefaultStreamOptions() StreamOptions {
	return StreamOptions{
		BufferSize: 100,
		PageSize:   100,
	}
}

// WithBufferSize sets the channel buffer size
func WithBufferSize(size int) StreamOption {
	return func(opts *StreamOptions) {
		opts.BufferSize = size
	}
}

// WithPageSize sets the provider page size
func WithPageSize(size int32) StreamOption {
	return func(opts *StreamOptions) {
		opts.PageSize = size
	}
}

// WithStart resumes the stream from a cursor
func WithStart(c storagemodels.Cursor) StreamOption {
	return func(opts *StreamOptions) {
		opts.Start = c
	}
}

// WithReadOptions applies read options such as ops.Filter to every page
func WithReadOptions(ro ...ops.ReadOption) StreamOption {
	return func(opts *StreamOptions) {
		opts.ReadOptions = append(opts.ReadOptions, ro...)
	}
}

// WithProgressHandler sets a progress callback
func WithProgressHandler(handler func(StreamProgress)) StreamOption {
	return func(opts *StreamOptions) {
		opts.ProgressHandler = handler
	}
}

// Stream pages through the table with b and delivers items on the returned
// channel as they arrive. A nil cond scans; otherwise cond is queried.
// Item decode failures are delivered in place and the stream continues; a
// step-level fault is delivered as a final result before the channel closes.
// Cancelling ctx stops the stream.
func (t *Table[T]) Stream(ctx context.Context, b *interpreter.Blocking, cond *expr.Condition, opts ...StreamOption) <-chan StreamResult[T] {
	options := DefaultStreamOptions()
	for _, opt := range opts {
		opt(&options)
	}
	resultCh := make(chan StreamResult[T], max(0, options.BufferSize))

	go t.streamWorker(ctx, b, cond, options, resultCh)
	return resultCh
}

func (t *Table[T]) page(cond *expr.Condition, limit int32, cursor storagemodels.Cursor, ro []ops.ReadOption) ops.Operation[storagemodels.Page[T]] {
	if cond == nil {
		return t.ScanPage(limit, cursor, ro...)
	}
	return t.QueryPage(*cond, limit, cursor, ro...)
}

func (t *Table[T]) streamWorker(
	ctx context.Context,
	b *interpreter.Blocking,
	cond *expr.Condition,
	options StreamOptions,
	resultCh chan<- StreamResult[T],
) {
	defer close(resultCh)

	var index int64
	var pageNumber, decodeErrors int
	startTime := time.Now()
	cursor := options.Start

	reportProgress := func(next storagemodels.Cursor) {
		if options.ProgressHandler == nil {
			return
		}
		progress := StreamProgress{
			ItemsProcessed: index,
			PagesProcessed: pageNumber,
			Next:           next,
			DecodeErrors:   decodeErrors,
			StartTime:      startTime,
		}
		if elapsed := time.Since(startTime).Seconds(); elapsed > 0 {
			progress.CurrentRate = float64(index) / elapsed
		}
		options.ProgressHandler(progress)
	}

	for {
		pg, err := interpreter.Execute(ctx, b, t.page(cond, options.PageSize, cursor, options.ReadOptions))
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			select {
			case <-ctx.Done():
			case resultCh <- StreamResult[T]{Error: err, Meta: StreamMeta{Index: index, PageNumber: pageNumber + 1, Timestamp: time.Now()}}:
			}
			return
		}
		pageNumber++
		fetched := time.Now()

		for _, r := range pg.Items {
			result := StreamResult[T]{
				Item:  r.Value,
				Error: r.Err,
				Meta:  StreamMeta{Index: index, PageNumber: pageNumber, Timestamp: fetched},
			}
			if r.Err != nil {
				decodeErrors++
			}
			index++

			select {
			case <-ctx.Done():
				return
			case resultCh <- result:
			}
		}

		reportProgress(pg.Next)
		if pg.Next.IsZero() {
			return
		}
		cursor = pg.Next
	}
}
