/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"encoding/base64"
	"fmt"
	"math/big"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/suparena/tableops/errors"
)

// Item is a raw provider item keyed by attribute name.
type Item = map[string]types.AttributeValue

// Key identifies a single item. Sort is nil for tables without a sort key.
// Values must be strings, byte slices or numbers.
type Key struct {
	Partition any
	Sort      any
}

// PartitionKey returns a key for a table with a partition key only.
func PartitionKey(pk any) Key {
	return Key{Partition: pk}
}

// CompositeKey returns a key for a table with a partition and a sort key.
func CompositeKey(pk, sk any) Key {
	return Key{Partition: pk, Sort: sk}
}

// KeySchema names the key attributes of a table or secondary index.
type KeySchema struct {
	PartitionKey string
	SortKey      string
}

// Validate checks that the schema names a partition key.
func (s KeySchema) Validate() error {
	if s.PartitionKey == "" {
		return errors.NewValidationError("PartitionKey", "partition key attribute name is required")
	}
	if s.SortKey == s.PartitionKey {
		return errors.NewValidationError("SortKey", "sort key must differ from partition key")
	}
	return nil
}

// HasSortKey reports whether the schema is composite.
func (s KeySchema) HasSortKey() bool {
	return s.SortKey != ""
}

// IsKey reports whether name is one of the schema's key attributes.
func (s KeySchema) IsKey(name string) bool {
	return name != "" && (name == s.PartitionKey || name == s.SortKey)
}

// Attributes returns the key attribute names, partition key first.
func (s KeySchema) Attributes() []string {
	if s.SortKey == "" {
		return []string{s.PartitionKey}
	}
	return []string{s.PartitionKey, s.SortKey}
}

// KeyItem converts k into the attribute map the provider expects for this schema.
func (s KeySchema) KeyItem(k Key) (Item, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	pk, err := KeyValue(s.PartitionKey, k.Partition)
	if err != nil {
		return nil, err
	}
	item := Item{s.PartitionKey: pk}

	switch {
	case s.SortKey == "" && k.Sort != nil:
		return nil, errors.NewValidationError("Sort", "table has no sort key")
	case s.SortKey != "" && k.Sort == nil:
		return nil, errors.NewValidationError(s.SortKey, "sort key value is required")
	case s.SortKey != "":
		sk, err := KeyValue(s.SortKey, k.Sort)
		if err != nil {
			return nil, err
		}
		item[s.SortKey] = sk
	}
	return item, nil
}

// Project returns the key attributes of item, and false when one is missing.
func (s KeySchema) Project(item Item) (Item, bool) {
	key := make(Item, 2)
	for _, name := range s.Attributes() {
		v, ok := item[name]
		if !ok {
			return nil, false
		}
		key[name] = v
	}
	return key, true
}

// Identity returns a stable string for the key attributes of item.
// Two items share an identity exactly when they address the same stored item.
func (s KeySchema) Identity(item Item) string {
	parts := make([]string, 0, 2)
	for _, name := range s.Attributes() {
		parts = append(parts, identityString(item[name]))
	}
	return strings.Join(parts, "|")
}

// identityString is ScalarString with numbers in canonical form, so 1, 1.0
// and 1e0 share an identity as they do in the provider.
func identityString(av types.AttributeValue) string {
	n, ok := av.(*types.AttributeValueMemberN)
	if !ok {
		return ScalarString(av)
	}
	r, ok := new(big.Rat).SetString(n.Value)
	if !ok {
		return ScalarString(av)
	}
	if r.IsInt() {
		return "N:" + r.Num().String()
	}
	return "N:" + strings.TrimRight(r.FloatString(40), "0")
}

// KeyValue converts a Go value into a key attribute value.
// Only non-empty strings, non-empty byte slices and numbers are accepted.
func KeyValue(attr string, v any) (types.AttributeValue, error) {
	if v == nil {
		return nil, errors.NewValidationError(attr, "key value is required")
	}
	av, ok := v.(types.AttributeValue)
	if !ok {
		var err error
		av, err = attributevalue.Marshal(v)
		if err != nil {
			return nil, errors.NewValidationError(attr, err.Error())
		}
	}
	switch tv := av.(type) {
	case *types.AttributeValueMemberS:
		if tv.Value == "" {
			return nil, errors.NewValidationError(attr, "string key value must not be empty")
		}
	case *types.AttributeValueMemberN:
	case *types.AttributeValueMemberB:
		if len(tv.Value) == 0 {
			return nil, errors.NewValidationError(attr, "binary key value must not be empty")
		}
	default:
		return nil, errors.NewValidationError(attr, fmt.Sprintf("unsupported key kind %T", v))
	}
	return av, nil
}

// ScalarString renders a scalar attribute value with its kind, e.g. S:Pig or N:3.
func ScalarString(av types.AttributeValue) string {
	switch tv := av.(type) {
	case *types.AttributeValueMemberS:
		return "S:" + tv.Value
	case *types.AttributeValueMemberN:
		return "N:" + tv.Value
	case *types.AttributeValueMemberB:
		return "B:" + base64.StdEncoding.EncodeToString(tv.Value)
	case nil:
		return "-"
	default:
		return fmt.Sprintf("%T", av)
	}
}

// TableRef identifies the target of an operation: a table and, for queries and
// scans, an optional secondary index with its own key schema.
type TableRef struct {
	Name      string
	Keys      KeySchema
	Index     string
	IndexKeys KeySchema
}

// NewTableRef creates a TableRef for a base table.
func NewTableRef(name string, keys KeySchema) TableRef {
	return TableRef{Name: name, Keys: keys}
}

// WithIndex returns a copy of t targeting the named secondary index.
func (t TableRef) WithIndex(name string, keys KeySchema) TableRef {
	t.Index = name
	t.IndexKeys = keys
	return t
}

// Validate checks the table name and key schemas.
func (t TableRef) Validate() error {
	if t.Name == "" {
		return errors.NewValidationError("Name", "table name is required")
	}
	if err := t.Keys.Validate(); err != nil {
		return err
	}
	if t.Index != "" {
		return t.IndexKeys.Validate()
	}
	return nil
}

// QueryKeys returns the key schema used for key conditions: the index schema
// when an index is set, the table schema otherwise.
func (t TableRef) QueryKeys() KeySchema {
	if t.Index != "" {
		return t.IndexKeys
	}
	return t.Keys
}

// IndexName returns the index name for provider requests, or nil for the base table.
func (t TableRef) IndexName() *string {
	if t.Index == "" {
		return nil
	}
	return aws.String(t.Index)
}

func (t TableRef) String() string {
	if t.Index == "" {
		return t.Name
	}
	return t.Name + "/" + t.Index
}
