/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package codec

import (
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-openapi/strfmt"
	"github.com/suparena/tableops/errors"
	"github.com/suparena/tableops/storagemodels"
)

// Accessors for hand-written codecs. Each returns a *errors.DecodeError
// classified as MissingProperty, TypeMismatch or InvalidValue.

func lookup(item storagemodels.Item, name string) (types.AttributeValue, error) {
	av, ok := item[name]
	if !ok {
		return nil, errors.NewDecodeError(errors.MissingProperty, name, "")
	}
	if _, null := av.(*types.AttributeValueMemberNULL); null {
		return nil, errors.NewDecodeError(errors.MissingProperty, name, "attribute is NULL")
	}
	return av, nil
}

func mismatch(name, want string, got types.AttributeValue) error {
	return errors.NewDecodeError(errors.TypeMismatch, name, fmt.Sprintf("expected %s, got %s", want, kindOf(got)))
}

func kindOf(av types.AttributeValue) string {
	switch av.(type) {
	case *types.AttributeValueMemberS:
		return "S"
	case *types.AttributeValueMemberN:
		return "N"
	case *types.AttributeValueMemberB:
		return "B"
	case *types.AttributeValueMemberBOOL:
		return "BOOL"
	case *types.AttributeValueMemberM:
		return "M"
	case *types.AttributeValueMemberL:
		return "L"
	case *types.AttributeValueMemberSS:
		return "SS"
	case *types.AttributeValueMemberNS:
		return "NS"
	case *types.AttributeValueMemberBS:
		return "BS"
	default:
		return fmt.Sprintf("%T", av)
	}
}

// String reads a string attribute.
func String(item storagemodels.Item, name string) (string, error) {
	av, err := lookup(item, name)
	if err != nil {
		return "", err
	}
	s, ok := av.(*types.AttributeValueMemberS)
	if !ok {
		return "", mismatch(name, "S", av)
	}
	return s.Value, nil
}

// Int reads an integral number attribute.
func Int(item storagemodels.Item, name string) (int64, error) {
	av, err := lookup(item, name)
	if err != nil {
		return 0, err
	}
	n, ok := av.(*types.AttributeValueMemberN)
	if !ok {
		return 0, mismatch(name, "N", av)
	}
	v, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return 0, &errors.DecodeError{Kind: errors.InvalidValue, Attribute: name, Message: fmt.Sprintf("%q is not an integer", n.Value), Err: err}
	}
	return v, nil
}

// Float reads a number attribute as float64.
func Float(item storagemodels.Item, name string) (float64, error) {
	av, err := lookup(item, name)
	if err != nil {
		return 0, err
	}
	n, ok := av.(*types.AttributeValueMemberN)
	if !ok {
		return 0, mismatch(name, "N", av)
	}
	v, err := strconv.ParseFloat(n.Value, 64)
	if err != nil {
		return 0, &errors.DecodeError{Kind: errors.InvalidValue, Attribute: name, Message: fmt.Sprintf("%q is not a number", n.Value), Err: err}
	}
	return v, nil
}

// Bytes reads a binary attribute.
func Bytes(item storagemodels.Item, name string) ([]byte, error) {
	av, err := lookup(item, name)
	if err != nil {
		return nil, err
	}
	b, ok := av.(*types.AttributeValueMemberB)
	if !ok {
		return nil, mismatch(name, "B", av)
	}
	return b.Value, nil
}

// Bool reads a boolean attribute.
func Bool(item storagemodels.Item, name string) (bool, error) {
	av, err := lookup(item, name)
	if err != nil {
		return false, err
	}
	b, ok := av.(*types.AttributeValueMemberBOOL)
	if !ok {
		return false, mismatch(name, "BOOL", av)
	}
	return b.Value, nil
}

// DateTime reads an RFC 3339 string attribute.
func DateTime(item storagemodels.Item, name string) (strfmt.DateTime, error) {
	s, err := String(item, name)
	if err != nil {
		return strfmt.DateTime{}, err
	}
	dt, err := strfmt.ParseDateTime(s)
	if err != nil {
		return strfmt.DateTime{}, &errors.DecodeError{Kind: errors.InvalidValue, Attribute: name, Message: fmt.Sprintf("%q is not a date-time", s), Err: err}
	}
	return dt, nil
}

// Optional runs read when name is present and returns the zero value otherwise.
func Optional[V any](item storagemodels.Item, name string, read func(storagemodels.Item, string) (V, error)) (V, error) {
	if _, ok := item[name]; !ok {
		var zero V
		return zero, nil
	}
	return read(item, name)
}

// S builds a string attribute.
func S(v string) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: v}
}

// N builds a number attribute from an integer.
func N(v int64) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(v, 10)}
}

// NF builds a number attribute from a float.
func NF(v float64) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatFloat(v, 'f', -1, 64)}
}

// DT builds an RFC 3339 string attribute.
func DT(v strfmt.DateTime) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: v.String()}
}
