/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ops

import (
	stderrors "errors"

	"github.com/suparena/tableops/codec"
	"github.com/suparena/tableops/errors"
	"github.com/suparena/tableops/storagemodels"
)

// decode turns one item into a result. Codec errors that are not decode
// errors are reported as InvalidValue so every failure stays in the taxonomy.
func decode[T any](c codec.Codec[T], item storagemodels.Item) storagemodels.Result[T] {
	v, err := c.Decode(item)
	if err == nil {
		return storagemodels.Ok(v)
	}
	var de *errors.DecodeError
	if !stderrors.As(err, &de) {
		err = &errors.DecodeError{Kind: errors.InvalidValue, Message: err.Error(), Err: err}
	}
	return storagemodels.Fail[T](err)
}

func decodeAll[T any](c codec.Codec[T], items []storagemodels.Item) []storagemodels.Result[T] {
	out := make([]storagemodels.Result[T], len(items))
	for i, item := range items {
		out[i] = decode(c, item)
	}
	return out
}

// previous decodes a returned old image, nil when the item did not exist.
func previous[T any](c codec.Codec[T], item storagemodels.Item) *storagemodels.Result[T] {
	if len(item) == 0 {
		return nil
	}
	r := decode(c, item)
	return &r
}

func encode[T any](c codec.Codec[T], v T) (storagemodels.Item, error) {
	item, err := c.Encode(v)
	if err != nil {
		if errors.IsValidationError(err) {
			return nil, err
		}
		return nil, errors.NewValidationError("item", err.Error())
	}
	return item, nil
}
