/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mock

import (
	"bytes"
	"math/big"
	"reflect"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func parseNumber(s string) (*big.Rat, bool) {
	return new(big.Rat).SetString(s)
}

func formatNumber(r *big.Rat) string {
	if r.IsInt() {
		return r.Num().String()
	}
	s := r.FloatString(38)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// compareScalars orders two scalar values of the same kind.
// ok is false when the kinds differ or are not scalar.
func compareScalars(a, b types.AttributeValue) (cmp int, ok bool) {
	switch av := a.(type) {
	case *types.AttributeValueMemberS:
		bv, same := b.(*types.AttributeValueMemberS)
		if !same {
			return 0, false
		}
		return strings.Compare(av.Value, bv.Value), true
	case *types.AttributeValueMemberN:
		bv, same := b.(*types.AttributeValueMemberN)
		if !same {
			return 0, false
		}
		x, okx := parseNumber(av.Value)
		y, oky := parseNumber(bv.Value)
		if !okx || !oky {
			return 0, false
		}
		return x.Cmp(y), true
	case *types.AttributeValueMemberB:
		bv, same := b.(*types.AttributeValueMemberB)
		if !same {
			return 0, false
		}
		return bytes.Compare(av.Value, bv.Value), true
	default:
		return 0, false
	}
}

func equalValues(a, b types.AttributeValue) bool {
	if a == nil || b == nil {
		return false
	}
	if cmp, ok := compareScalars(a, b); ok {
		return cmp == 0
	}
	return reflect.DeepEqual(a, b)
}

// orderValues gives a total order over key values for sorting: numbers
// numerically, strings and binaries bytewise, mixed kinds by kind name.
func orderValues(a, b types.AttributeValue) int {
	if cmp, ok := compareScalars(a, b); ok {
		return cmp
	}
	return strings.Compare(kindName(a), kindName(b))
}

func kindName(av types.AttributeValue) string {
	if av == nil {
		return ""
	}
	return reflect.TypeOf(av).Elem().Name()
}

func isKeyKind(av types.AttributeValue) bool {
	switch tv := av.(type) {
	case *types.AttributeValueMemberS:
		return tv.Value != ""
	case *types.AttributeValueMemberN:
		_, ok := parseNumber(tv.Value)
		return ok
	case *types.AttributeValueMemberB:
		return len(tv.Value) > 0
	default:
		return false
	}
}
