/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"reflect"
	"sync"

	"github.com/suparena/tableops/codec"
)

// codecRegistry maps Go types to their codecs.

var (
	codecRegistry = make(map[reflect.Type]any)
	mu            sync.RWMutex
)

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// RegisterCodec associates a Go type T with a codec, replacing any previous one.
func RegisterCodec[T any](c codec.Codec[T]) {
	t := typeOf[T]()

	mu.Lock()
	defer mu.Unlock()
	codecRegistry[t] = c
}

// CodecFor retrieves the codec registered for type T, if any.
func CodecFor[T any]() (codec.Codec[T], bool) {
	t := typeOf[T]()

	mu.RLock()
	defer mu.RUnlock()
	c, ok := codecRegistry[t]
	if !ok {
		return nil, false
	}
	return c.(codec.Codec[T]), true
}

// UnregisterCodec removes the codec for type T.
func UnregisterCodec[T any]() {
	t := typeOf[T]()

	mu.Lock()
	defer mu.Unlock()
	delete(codecRegistry, t)
}
