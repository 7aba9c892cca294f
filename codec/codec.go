/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package codec

import (
	stderrors "errors"
	"fmt"
	"maps"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/suparena/tableops/errors"
	"github.com/suparena/tableops/storagemodels"
)

// Codec maps a domain value to and from a provider item.
// Decode failures are reported as *errors.DecodeError.
type Codec[T any] interface {
	Encode(v T) (storagemodels.Item, error)
	Decode(item storagemodels.Item) (T, error)
}

// Option configures a Reflect codec
type Option func(*options)

type options struct {
	tagKey   string
	required []string
}

// WithTagKey selects the struct tag used for attribute names (default "dynamodbav").
func WithTagKey(key string) Option {
	return func(o *options) {
		o.tagKey = key
	}
}

// Required lists attributes that must be present for Decode to succeed.
func Required(attrs ...string) Option {
	return func(o *options) {
		o.required = append(o.required, attrs...)
	}
}

// Reflect is a Codec derived from T's struct tags via attributevalue.
type Reflect[T any] struct {
	opts options
}

// NewReflect creates a reflection-based codec for T.
func NewReflect[T any](opts ...Option) *Reflect[T] {
	c := &Reflect[T]{}
	for _, opt := range opts {
		opt(&c.opts)
	}
	return c
}

// Encode marshals v into an item.
func (c *Reflect[T]) Encode(v T) (storagemodels.Item, error) {
	item, err := attributevalue.MarshalMapWithOptions(v, func(o *attributevalue.EncoderOptions) {
		if c.opts.tagKey != "" {
			o.TagKey = c.opts.tagKey
		}
	})
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return item, nil
}

// Decode unmarshals item into a T.
func (c *Reflect[T]) Decode(item storagemodels.Item) (T, error) {
	var v T
	for _, name := range c.opts.required {
		if _, ok := item[name]; !ok {
			return v, errors.NewDecodeError(errors.MissingProperty, name, "")
		}
	}
	err := attributevalue.UnmarshalMapWithOptions(item, &v, func(o *attributevalue.DecoderOptions) {
		if c.opts.tagKey != "" {
			o.TagKey = c.opts.tagKey
		}
	})
	if err != nil {
		return v, classify(err)
	}
	return v, nil
}

func classify(err error) error {
	var de *errors.DecodeError
	if stderrors.As(err, &de) {
		return de
	}
	var te *attributevalue.UnmarshalTypeError
	if stderrors.As(err, &te) {
		return &errors.DecodeError{Kind: errors.TypeMismatch, Message: te.Error(), Err: err}
	}
	return &errors.DecodeError{Kind: errors.InvalidValue, Message: err.Error(), Err: err}
}

// Funcs is a Codec built from a pair of hand-written functions.
type Funcs[T any] struct {
	EncodeFunc func(T) (storagemodels.Item, error)
	DecodeFunc func(storagemodels.Item) (T, error)
}

// Encode calls EncodeFunc.
func (f Funcs[T]) Encode(v T) (storagemodels.Item, error) {
	if f.EncodeFunc == nil {
		return nil, errors.NewValidationError("EncodeFunc", "codec has no encoder")
	}
	return f.EncodeFunc(v)
}

// Decode calls DecodeFunc. Errors that are not decode errors are reported as InvalidValue.
func (f Funcs[T]) Decode(item storagemodels.Item) (T, error) {
	if f.DecodeFunc == nil {
		var zero T
		return zero, errors.NewValidationError("DecodeFunc", "codec has no decoder")
	}
	v, err := f.DecodeFunc(item)
	if err != nil {
		return v, classify(err)
	}
	return v, nil
}

// Raw passes items through unchanged. It lets untyped tools read and write
// attribute maps with the same operations as typed callers.
type Raw struct{}

// Encode returns a copy of item.
func (Raw) Encode(item storagemodels.Item) (storagemodels.Item, error) {
	return maps.Clone(item), nil
}

// Decode returns a copy of item.
func (Raw) Decode(item storagemodels.Item) (storagemodels.Item, error) {
	return maps.Clone(item), nil
}
