/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package expr

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/suparena/tableops/errors"
	"github.com/suparena/tableops/storagemodels"
)

// The expression package substitutes every attribute name and value with
// generated placeholders (#0, :0, ...), so reserved words never reach the
// provider grammar.

func (c Condition) builder() (expression.ConditionBuilder, error) {
	name := expression.Name(c.attr)
	switch c.op {
	case OpEquals:
		return expression.Equal(name, expression.Value(c.values[0])), nil
	case OpLessThan:
		return expression.LessThan(name, expression.Value(c.values[0])), nil
	case OpLessOrEqual:
		return expression.LessThanEqual(name, expression.Value(c.values[0])), nil
	case OpGreaterThan:
		return expression.GreaterThan(name, expression.Value(c.values[0])), nil
	case OpGreaterOrEqual:
		return expression.GreaterThanEqual(name, expression.Value(c.values[0])), nil
	case OpBetween:
		return expression.Between(name, expression.Value(c.values[0]), expression.Value(c.values[1])), nil
	case OpBeginsWith:
		return expression.BeginsWith(name, c.values[0].(string)), nil
	case OpAttributeExists:
		return expression.AttributeExists(name), nil
	case OpAttributeNotExists:
		return expression.AttributeNotExists(name), nil
	case OpAnd:
		left, err := c.left.builder()
		if err != nil {
			return expression.ConditionBuilder{}, err
		}
		right, err := c.right.builder()
		if err != nil {
			return expression.ConditionBuilder{}, err
		}
		return expression.And(left, right), nil
	default:
		return expression.ConditionBuilder{}, errors.NewValidationError("", "empty condition")
	}
}

func (c Condition) keyBuilder() (expression.KeyConditionBuilder, error) {
	key := expression.Key(c.attr)
	switch c.op {
	case OpEquals:
		return expression.KeyEqual(key, expression.Value(c.values[0])), nil
	case OpLessThan:
		return expression.KeyLessThan(key, expression.Value(c.values[0])), nil
	case OpLessOrEqual:
		return expression.KeyLessThanEqual(key, expression.Value(c.values[0])), nil
	case OpGreaterThan:
		return expression.KeyGreaterThan(key, expression.Value(c.values[0])), nil
	case OpGreaterOrEqual:
		return expression.KeyGreaterThanEqual(key, expression.Value(c.values[0])), nil
	case OpBetween:
		return expression.KeyBetween(key, expression.Value(c.values[0]), expression.Value(c.values[1])), nil
	case OpBeginsWith:
		return expression.KeyBeginsWith(key, c.values[0].(string)), nil
	default:
		return expression.KeyConditionBuilder{}, errors.NewValidationError(c.attr, fmt.Sprintf("%s cannot be used in a key condition", c.op))
	}
}

// Split separates a query condition into its key condition and the remaining
// filter. The key condition is the partition key equality plus at most one
// predicate on the sort key; every other conjunct becomes the filter.
// Predicates that would put a key attribute into the filter are rejected.
func Split(c Condition, keys storagemodels.KeySchema) (key Condition, filter *Condition, err error) {
	if err := c.Err(); err != nil {
		return Condition{}, nil, err
	}
	if err := keys.Validate(); err != nil {
		return Condition{}, nil, err
	}

	var partition, sort *Condition
	var rest []Condition
	for _, conj := range c.Conjuncts() {
		conj := conj
		switch conj.attr {
		case keys.PartitionKey:
			if conj.op != OpEquals {
				return Condition{}, nil, errors.NewValidationError(conj.attr, fmt.Sprintf("partition key supports only equality, got %s", conj.op))
			}
			if partition != nil {
				return Condition{}, nil, errors.NewValidationError(conj.attr, "partition key equality given more than once")
			}
			partition = &conj
		case keys.SortKey:
			if keys.SortKey == "" {
				rest = append(rest, conj)
				continue
			}
			if conj.op == OpAttributeExists || conj.op == OpAttributeNotExists {
				return Condition{}, nil, errors.NewValidationError(conj.attr, fmt.Sprintf("%s cannot target a key attribute", conj.op))
			}
			if sort != nil {
				return Condition{}, nil, errors.NewValidationError(conj.attr, fmt.Sprintf("only one sort key predicate is allowed, got %s", join([]Condition{*sort, conj})))
			}
			sort = &conj
		default:
			rest = append(rest, conj)
		}
	}
	if partition == nil {
		return Condition{}, nil, errors.NewValidationError(keys.PartitionKey, "query requires partition key equality")
	}

	key = *partition
	if sort != nil {
		key = And(key, *sort)
	}
	if len(rest) > 0 {
		f := rest[0]
		for _, r := range rest[1:] {
			f = And(f, r)
		}
		filter = &f
	}
	return key, filter, nil
}

// BuildQuery builds the key condition and filter expressions for a query.
func BuildQuery(c Condition, keys storagemodels.KeySchema) (expression.Expression, error) {
	key, filter, err := Split(c, keys)
	if err != nil {
		return expression.Expression{}, err
	}

	conjuncts := key.Conjuncts()
	kc, err := conjuncts[0].keyBuilder()
	if err != nil {
		return expression.Expression{}, err
	}
	if len(conjuncts) == 2 {
		sk, err := conjuncts[1].keyBuilder()
		if err != nil {
			return expression.Expression{}, err
		}
		kc = expression.KeyAnd(kc, sk)
	}

	b := expression.NewBuilder().WithKeyCondition(kc)
	if filter != nil {
		fb, err := filter.builder()
		if err != nil {
			return expression.Expression{}, err
		}
		b = b.WithFilter(fb)
	}
	return build(b)
}

// BuildFilter builds a scan filter expression.
func BuildFilter(c Condition) (expression.Expression, error) {
	if err := c.Err(); err != nil {
		return expression.Expression{}, err
	}
	fb, err := c.builder()
	if err != nil {
		return expression.Expression{}, err
	}
	return build(expression.NewBuilder().WithFilter(fb))
}

// BuildCondition builds a write precondition expression.
func BuildCondition(c Condition) (expression.Expression, error) {
	if err := c.Err(); err != nil {
		return expression.Expression{}, err
	}
	cb, err := c.builder()
	if err != nil {
		return expression.Expression{}, err
	}
	return build(expression.NewBuilder().WithCondition(cb))
}

// BuildUpdate builds an update expression and, when pre is non-nil, its precondition.
// Updates may not touch key attributes.
func BuildUpdate(u Update, keys storagemodels.KeySchema, pre *Condition) (expression.Expression, error) {
	ub, err := u.builder(keys)
	if err != nil {
		return expression.Expression{}, err
	}
	b := expression.NewBuilder().WithUpdate(ub)
	if pre != nil {
		if err := pre.Err(); err != nil {
			return expression.Expression{}, err
		}
		cb, err := pre.builder()
		if err != nil {
			return expression.Expression{}, err
		}
		b = b.WithCondition(cb)
	}
	return build(b)
}

func build(b expression.Builder) (expression.Expression, error) {
	e, err := b.Build()
	if err != nil {
		return expression.Expression{}, errors.NewValidationError("expression", err.Error())
	}
	return e, nil
}
