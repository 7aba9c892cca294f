/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mock

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suparena/tableops/storagemodels"
)

func s(v string) types.AttributeValue { return &types.AttributeValueMemberS{Value: v} }
func n(v string) types.AttributeValue { return &types.AttributeValueMemberN{Value: v} }

func TestCompileCondition(t *testing.T) {
	item := storagemodels.Item{
		"species": s("Pig"),
		"number":  n("2"),
		"name":    s("Wilbur"),
		"tags":    &types.AttributeValueMemberSS{Value: []string{"farm", "pink"}},
		"meta":    &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{"barn": s("red")}},
	}
	names := map[string]string{"#0": "species", "#1": "number", "#2": "name", "#3": "meta"}
	values := map[string]types.AttributeValue{
		":0": s("Pig"),
		":1": n("1"),
		":2": n("2"),
		":3": s("Wil"),
		":4": s("pink"),
		":5": s("red"),
		":6": n("3"),
	}

	tests := []struct {
		expr string
		want bool
	}{
		{"#0 = :0", true},
		{"#0 <> :0", false},
		{"#1 > :1", true},
		{"#1 >= :2", true},
		{"#1 < :2", false},
		{"#1 <= :2", true},
		{"#1 BETWEEN :1 AND :2", true},
		{"#1 BETWEEN :2 AND :6", true},
		{"#1 between :6 and :6", false},
		{"begins_with (#2, :3)", true},
		{"begins_with(#0, :3)", false},
		{"attribute_exists (#2)", true},
		{"attribute_not_exists (#2)", false},
		{"attribute_not_exists (missing)", true},
		{"contains (tags, :4)", true},
		{"#3.barn = :5", true},
		{"(#0 = :0) AND (#1 = :1)", false},
		{"(#0 = :0) OR (#1 = :1)", true},
		{"NOT #1 = :1", true},
		{"#1 IN (:1, :2)", true},
		{"attribute_type (#2, :0)", false},
		{"((#0 = :0) AND (#1 > :1)) AND (attribute_exists (#2))", true},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			pred, err := compileCondition(tt.expr, names, values)
			require.NoError(t, err)
			assert.Equal(t, tt.want, pred(item))
		})
	}
}

func TestCompileConditionErrors(t *testing.T) {
	values := map[string]types.AttributeValue{":0": s("x")}
	for _, expr := range []string{
		"",
		"#missing = :0",
		"a = :missing",
		"a = :0 AND",
		"(a = :0",
		"unknown_fn (a)",
		"a ! :0",
	} {
		_, err := compileCondition(expr, nil, values)
		assert.Error(t, err, expr)
	}
}

func TestComparisonAcrossTypes(t *testing.T) {
	item := storagemodels.Item{"v": n("10")}
	pred, err := compileCondition("v > :0", nil, map[string]types.AttributeValue{":0": s("9")})
	require.NoError(t, err)
	assert.False(t, pred(item), "numbers never compare to strings")

	pred, err = compileCondition("v > :0", nil, map[string]types.AttributeValue{":0": n("9")})
	require.NoError(t, err)
	assert.True(t, pred(item), "numbers compare numerically")
}

func TestApplyUpdate(t *testing.T) {
	item := storagemodels.Item{
		"species": s("Pig"),
		"count":   n("1"),
		"name":    s("Wilbur"),
		"tags":    &types.AttributeValueMemberSS{Value: []string{"a", "b"}},
	}
	names := map[string]string{"#0": "count", "#1": "name", "#2": "tags", "#3": "color"}
	values := map[string]types.AttributeValue{
		":0": n("2"),
		":1": &types.AttributeValueMemberSS{Value: []string{"b"}},
		":2": s("pink"),
	}

	err := applyUpdate("ADD #0 :0\nDELETE #2 :1\nREMOVE #1\nSET #3 = :2\n", names, values, item)
	require.NoError(t, err)

	assert.Equal(t, n("3"), item["count"])
	assert.Equal(t, &types.AttributeValueMemberSS{Value: []string{"a"}}, item["tags"])
	assert.NotContains(t, item, "name")
	assert.Equal(t, s("pink"), item["color"])
}

func TestApplyUpdateArithmetic(t *testing.T) {
	item := storagemodels.Item{"a": n("5")}
	values := map[string]types.AttributeValue{":one": n("1"), ":zero": n("0")}

	require.NoError(t, applyUpdate("SET a = a - :one, b = if_not_exists(b, :zero) + :one", nil, values, item))
	assert.Equal(t, n("4"), item["a"])
	assert.Equal(t, n("1"), item["b"])
}

func TestApplyUpdateErrors(t *testing.T) {
	for _, expr := range []string{
		"",
		"SET",
		"SET a :0",
		"FROB a = :0",
		"ADD a :missing",
	} {
		item := storagemodels.Item{"a": n("1")}
		err := applyUpdate(expr, nil, map[string]types.AttributeValue{":0": n("1")}, item)
		assert.Error(t, err, expr)
	}
}
