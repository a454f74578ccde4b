package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/AbdelilahOu/simplesql/pkg/simplesql"
	"github.com/stretchr/testify/require"
)

var sampleRows = []simplesql.Row{
	{Columns: []string{"id", "name", "age"}, Values: []any{int64(1), "Dani", "32.0"}},
	{Columns: []string{"id", "name", "age"}, Values: []any{int64(2), "Luli", nil}},
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderRows(&buf, "table", nil, sampleRows))

	out := buf.String()
	require.Contains(t, out, "name")
	require.Contains(t, out, "Dani")
	require.Contains(t, out, "NULL")
	require.Contains(t, out, "(2 rows)")
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderRows(&buf, "json", nil, sampleRows))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	require.Equal(t, "Luli", decoded[1]["name"])
	require.Nil(t, decoded[1]["age"])
}

func TestRenderUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	require.Error(t, renderRows(&buf, "csv", nil, sampleRows))
}

func TestParseRecord(t *testing.T) {
	rec, err := parseRecord(`["Mama", 65.5555, 32, null, true]`)
	require.NoError(t, err)
	require.Equal(t, simplesql.Record{"Mama", 65.5555, int64(32), nil, true}, rec)

	_, err = parseRecord(`{"name": "Dani"}`)
	require.Error(t, err)
}
