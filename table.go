/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package tableops

import (
	"github.com/suparena/tableops/codec"
	"github.com/suparena/tableops/expr"
	"github.com/suparena/tableops/ops"
	"github.com/suparena/tableops/registry"
	"github.com/suparena/tableops/storagemodels"
)

// Table binds a table reference to the codec of its items so operations can
// be built without repeating either.
type Table[T any] struct {
	ref   storagemodels.TableRef
	codec codec.Codec[T]
}

// NewTable creates a Table for the named base table. The codec registered for
// T is used when there is one, the reflection codec otherwise.
func NewTable[T any](name string, keys storagemodels.KeySchema) *Table[T] {
	return TableOf[T](storagemodels.NewTableRef(name, keys))
}

// TableOf creates a Table for an existing reference.
func TableOf[T any](ref storagemodels.TableRef) *Table[T] {
	c, ok := registry.CodecFor[T]()
	if !ok {
		c = codec.NewReflect[T]()
	}
	return &Table[T]{ref: ref, codec: c}
}

// WithCodec returns a copy of the table that uses c.
func (t *Table[T]) WithCodec(c codec.Codec[T]) *Table[T] {
	return &Table[T]{ref: t.ref, codec: c}
}

// Index returns a copy of the table whose reads target the named secondary
// index. Writes always go to the base table.
func (t *Table[T]) Index(name string, keys storagemodels.KeySchema) *Table[T] {
	return &Table[T]{ref: t.ref.WithIndex(name, keys), codec: t.codec}
}

// Ref returns the table reference.
func (t *Table[T]) Ref() storagemodels.TableRef {
	return t.ref
}

// Codec returns the codec in use.
func (t *Table[T]) Codec() codec.Codec[T] {
	return t.codec
}

// Put stores v and yields the item it replaced.
func (t *Table[T]) Put(v T) ops.Operation[*storagemodels.Result[T]] {
	return ops.Put(t.ref, t.codec, v)
}

// PutIf stores v only when cond holds for the stored item.
func (t *Table[T]) PutIf(v T, cond expr.Condition) ops.Operation[storagemodels.Result[*storagemodels.Result[T]]] {
	return ops.Conditional(t.Put(v), cond)
}

// Get reads the item stored under key.
func (t *Table[T]) Get(key storagemodels.Key, opts ...ops.ReadOption) ops.Operation[*storagemodels.Result[T]] {
	return ops.Get(t.ref, t.codec, key, opts...)
}

// Delete removes the item stored under key and yields it.
func (t *Table[T]) Delete(key storagemodels.Key) ops.Operation[*storagemodels.Result[T]] {
	return ops.Delete(t.ref, t.codec, key)
}

// DeleteIf removes the item stored under key only when cond holds.
func (t *Table[T]) DeleteIf(key storagemodels.Key, cond expr.Condition) ops.Operation[storagemodels.Result[*storagemodels.Result[T]]] {
	return ops.Conditional(t.Delete(key), cond)
}

// Update applies u to the item stored under key and yields its previous state.
func (t *Table[T]) Update(key storagemodels.Key, u expr.Update) ops.Operation[*storagemodels.Result[T]] {
	return ops.Update(t.ref, t.codec, key, u)
}

// UpdateIf applies u only when cond holds.
func (t *Table[T]) UpdateIf(key storagemodels.Key, u expr.Update, cond expr.Condition) ops.Operation[storagemodels.Result[*storagemodels.Result[T]]] {
	return ops.Conditional(t.Update(key, u), cond)
}

// Scan reads every item.
func (t *Table[T]) Scan(opts ...ops.ReadOption) ops.Operation[[]storagemodels.Result[T]] {
	return ops.Scan(t.ref, t.codec, opts...)
}

// ScanPage reads one page of at most limit items after cursor.
func (t *Table[T]) ScanPage(limit int32, cursor storagemodels.Cursor, opts ...ops.ReadOption) ops.Operation[storagemodels.Page[T]] {
	return ops.ScanPage(t.ref, t.codec, limit, cursor, opts...)
}

// Query reads every item matching cond.
func (t *Table[T]) Query(cond expr.Condition, opts ...ops.ReadOption) ops.Operation[[]storagemodels.Result[T]] {
	return ops.Query(t.ref, t.codec, cond, opts...)
}

// QueryPage reads one page of at most limit items matching cond after cursor.
func (t *Table[T]) QueryPage(cond expr.Condition, limit int32, cursor storagemodels.Cursor, opts ...ops.ReadOption) ops.Operation[storagemodels.Page[T]] {
	return ops.QueryPage(t.ref, t.codec, cond, limit, cursor, opts...)
}

// GetAll reads the items stored under keys, in any number.
func (t *Table[T]) GetAll(keys []storagemodels.Key, opts ...ops.ReadOption) ops.Operation[[]storagemodels.Result[T]] {
	return ops.BatchGet(t.ref, t.codec, keys, opts...)
}

// PutAll stores every value.
func (t *Table[T]) PutAll(values []T) ops.Operation[[]storagemodels.Result[ops.WriteRequest[T]]] {
	return ops.BatchPut(t.ref, t.codec, values)
}

// DeleteAll removes the items stored under keys.
func (t *Table[T]) DeleteAll(keys []storagemodels.Key) ops.Operation[[]storagemodels.Result[ops.WriteRequest[T]]] {
	return ops.BatchDelete(t.ref, t.codec, keys)
}

// Write applies a mix of puts and deletes.
func (t *Table[T]) Write(writes []ops.WriteRequest[T]) ops.Operation[[]storagemodels.Result[ops.WriteRequest[T]]] {
	return ops.BatchWrite(t.ref, t.codec, writes)
}
