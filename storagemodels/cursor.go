/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"maps"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/suparena/tableops/errors"
)

// Cursor marks where a limited scan or query stopped. The zero Cursor means
// "from the beginning" when passed in and "no more pages" when returned.
type Cursor struct {
	key Item
}

// CursorFrom wraps a provider last-evaluated-key.
func CursorFrom(lastEvaluatedKey Item) Cursor {
	if len(lastEvaluatedKey) == 0 {
		return Cursor{}
	}
	return Cursor{key: maps.Clone(lastEvaluatedKey)}
}

// IsZero reports whether the cursor is the start/end marker.
func (c Cursor) IsZero() bool {
	return len(c.key) == 0
}

// StartKey returns the exclusive start key for the next provider call, or nil.
func (c Cursor) StartKey() Item {
	if c.IsZero() {
		return nil
	}
	return maps.Clone(c.key)
}

type cursorAttribute struct {
	S *string `json:"S,omitempty"`
	N *string `json:"N,omitempty"`
	B []byte  `json:"B,omitempty"`
}

// Token encodes the cursor as an opaque URL-safe string. The zero cursor encodes as "".
func (c Cursor) Token() (string, error) {
	if c.IsZero() {
		return "", nil
	}
	raw := make(map[string]cursorAttribute, len(c.key))
	for name, av := range c.key {
		switch tv := av.(type) {
		case *types.AttributeValueMemberS:
			raw[name] = cursorAttribute{S: &tv.Value}
		case *types.AttributeValueMemberN:
			raw[name] = cursorAttribute{N: &tv.Value}
		case *types.AttributeValueMemberB:
			raw[name] = cursorAttribute{B: tv.Value}
		default:
			return "", fmt.Errorf("encode cursor: unsupported attribute kind %T for %q", av, name)
		}
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return "", fmt.Errorf("encode cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// ParseCursor decodes a token produced by Cursor.Token. An empty token yields the zero cursor.
func ParseCursor(token string) (Cursor, error) {
	if token == "" {
		return Cursor{}, nil
	}
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, errors.NewValidationError("cursor", "malformed token")
	}
	var raw map[string]cursorAttribute
	if err := json.Unmarshal(data, &raw); err != nil {
		return Cursor{}, errors.NewValidationError("cursor", "malformed token payload")
	}
	key := make(Item, len(raw))
	for name, attr := range raw {
		switch {
		case attr.S != nil:
			key[name] = &types.AttributeValueMemberS{Value: *attr.S}
		case attr.N != nil:
			key[name] = &types.AttributeValueMemberN{Value: *attr.N}
		case attr.B != nil:
			key[name] = &types.AttributeValueMemberB{Value: attr.B}
		default:
			return Cursor{}, errors.NewValidationError("cursor", fmt.Sprintf("attribute %q has no value", name))
		}
	}
	return CursorFrom(key), nil
}
