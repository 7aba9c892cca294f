/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suparena/tableops"
	"github.com/suparena/tableops/codec"
	"github.com/suparena/tableops/datastore/mock"
	"github.com/suparena/tableops/errors"
	"github.com/suparena/tableops/interpreter"
	"github.com/suparena/tableops/storagemodels"
)

func newTestApp(t *testing.T, items ...storagemodels.Item) (*app, *bytes.Buffer) {
	t.Helper()
	keys := storagemodels.KeySchema{PartitionKey: "species", SortKey: "number"}
	store := mock.New().CreateTable("animals", keys)
	require.NoError(t, store.Seed("animals", items...))

	out := &bytes.Buffer{}
	return &app{
		table: tableops.NewTable[storagemodels.Item]("animals", keys).WithCodec(codec.Raw{}),
		exec:  interpreter.NewBlocking(store),
		log:   zerolog.Nop(),
		out:   out,
	}, out
}

func TestKeyValue(t *testing.T) {
	v, err := keyValue("Pig", false)
	require.NoError(t, err)
	assert.Equal(t, "Pig", v)

	v, err = keyValue("9007199254740993", true)
	require.NoError(t, err)
	assert.Equal(t, attributevalue.Number("9007199254740993"), v)

	_, err = keyValue("twelve", true)
	assert.Error(t, err)

	_, err = keyValue("", false)
	assert.Error(t, err)
}

func TestGetExactNumericKey(t *testing.T) {
	a, out := newTestApp(t, storagemodels.Item{
		"species": codec.S("Pig"),
		"number":  codec.N(9007199254740993),
		"name":    codec.S("Babe"),
	})

	require.NoError(t, a.get(context.Background(), []string{"-pk", "Pig", "-sk", "9007199254740993", "-numeric"}))
	assert.Contains(t, out.String(), `"name":"Babe"`)

	err := a.get(context.Background(), []string{"-pk", "Pig", "-sk", "9007199254740992", "-numeric"})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Contains(t, err.Error(), "animals")
}

func TestScanPrintsItems(t *testing.T) {
	a, out := newTestApp(t,
		storagemodels.Item{"species": codec.S("Pig"), "number": codec.N(1)},
		storagemodels.Item{"species": codec.S("Pig"), "number": codec.N(2)},
	)

	require.NoError(t, a.scan(context.Background(), []string{"-limit", "5"}))
	assert.Equal(t, 2, bytes.Count(out.Bytes(), []byte("\n")))
}
