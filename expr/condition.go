/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package expr

import (
	"fmt"
	"strings"

	"github.com/suparena/tableops/errors"
)

// Comparator is the predicate of a Condition node.
type Comparator int

const (
	opInvalid Comparator = iota
	OpEquals
	OpLessThan
	OpLessOrEqual
	OpGreaterThan
	OpGreaterOrEqual
	OpBetween
	OpBeginsWith
	OpAttributeExists
	OpAttributeNotExists
	OpAnd
)

var comparatorSymbols = map[Comparator]string{
	OpEquals:             "=",
	OpLessThan:           "<",
	OpLessOrEqual:        "<=",
	OpGreaterThan:        ">",
	OpGreaterOrEqual:     ">=",
	OpBetween:            "BETWEEN",
	OpBeginsWith:         "begins_with",
	OpAttributeExists:    "attribute_exists",
	OpAttributeNotExists: "attribute_not_exists",
	OpAnd:                "AND",
}

func (c Comparator) String() string {
	if s, ok := comparatorSymbols[c]; ok {
		return s
	}
	return "invalid"
}

// Condition is an immutable predicate tree over item attributes.
// Construction never fails; invalid input is reported by Err and by every
// function that builds provider expressions from the condition.
type Condition struct {
	op     Comparator
	attr   string
	values []any
	left   *Condition
	right  *Condition
	err    error
}

func leaf(op Comparator, attr string, values ...any) Condition {
	c := Condition{op: op, attr: attr, values: values}
	if attr == "" {
		c.err = errors.NewValidationError("", fmt.Sprintf("%s requires an attribute name", op))
		return c
	}
	for _, v := range values {
		if v == nil {
			c.err = errors.NewValidationError(attr, fmt.Sprintf("%s requires a non-nil value", op))
			return c
		}
	}
	return c
}

// Equals matches items whose attr equals v.
func Equals(attr string, v any) Condition {
	return leaf(OpEquals, attr, v)
}

// LessThan matches items whose attr is strictly less than v.
func LessThan(attr string, v any) Condition {
	return leaf(OpLessThan, attr, v)
}

// LessOrEqual matches items whose attr is less than or equal to v.
func LessOrEqual(attr string, v any) Condition {
	return leaf(OpLessOrEqual, attr, v)
}

// GreaterThan matches items whose attr is strictly greater than v.
func GreaterThan(attr string, v any) Condition {
	return leaf(OpGreaterThan, attr, v)
}

// GreaterOrEqual matches items whose attr is greater than or equal to v.
func GreaterOrEqual(attr string, v any) Condition {
	return leaf(OpGreaterOrEqual, attr, v)
}

// Between matches items whose attr lies in [lo, hi], both bounds included.
func Between(attr string, lo, hi any) Condition {
	return leaf(OpBetween, attr, lo, hi)
}

// BeginsWith matches items whose string attr starts with prefix.
func BeginsWith(attr, prefix string) Condition {
	c := leaf(OpBeginsWith, attr, prefix)
	if c.err == nil && prefix == "" {
		c.err = errors.NewValidationError(attr, "begins_with requires a non-empty prefix")
	}
	return c
}

// AttributeExists matches items that have attr.
func AttributeExists(attr string) Condition {
	return leaf(OpAttributeExists, attr)
}

// AttributeNotExists matches items that lack attr.
func AttributeNotExists(attr string) Condition {
	return leaf(OpAttributeNotExists, attr)
}

// And matches items satisfying every condition.
func And(left, right Condition, more ...Condition) Condition {
	c := and(left, right)
	for _, m := range more {
		c = and(c, m)
	}
	return c
}

func and(left, right Condition) Condition {
	c := Condition{op: OpAnd, left: &left, right: &right}
	switch {
	case left.err != nil:
		c.err = left.err
	case right.err != nil:
		c.err = right.err
	case left.IsZero() || right.IsZero():
		c.err = errors.NewValidationError("", "AND requires two conditions")
	}
	return c
}

// And is the fluent form of And.
func (c Condition) And(other Condition) Condition {
	return and(c, other)
}

// IsZero reports whether c is the empty condition.
func (c Condition) IsZero() bool {
	return c.op == opInvalid
}

// Err returns the first construction error in the tree.
func (c Condition) Err() error {
	if c.IsZero() {
		return errors.NewValidationError("", "empty condition")
	}
	return c.err
}

// Comparator returns the predicate of the root node.
func (c Condition) Comparator() Comparator {
	return c.op
}

// Attribute returns the attribute of a leaf node.
func (c Condition) Attribute() string {
	return c.attr
}

// Conjuncts flattens nested ANDs into their leaves, left to right.
func (c Condition) Conjuncts() []Condition {
	if c.op != OpAnd {
		return []Condition{c}
	}
	return append(c.left.Conjuncts(), c.right.Conjuncts()...)
}

func (c Condition) String() string {
	switch c.op {
	case opInvalid:
		return "<empty>"
	case OpAnd:
		return "(" + c.left.String() + ") AND (" + c.right.String() + ")"
	case OpBetween:
		return fmt.Sprintf("%s BETWEEN %v AND %v", c.attr, c.values[0], c.values[1])
	case OpBeginsWith:
		return fmt.Sprintf("begins_with(%s, %v)", c.attr, c.values[0])
	case OpAttributeExists, OpAttributeNotExists:
		return fmt.Sprintf("%s(%s)", c.op, c.attr)
	default:
		return fmt.Sprintf("%s %s %v", c.attr, c.op, c.values[0])
	}
}

func join(conds []Condition) string {
	parts := make([]string, len(conds))
	for i, c := range conds {
		parts[i] = c.String()
	}
	return strings.Join(parts, " AND ")
}
