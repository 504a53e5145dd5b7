package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"testing"
	"time"

	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conejoswing/restoeasy/internal/domain/ledger"
)

func TestBusinessDays(t *testing.T) {
	loc := time.UTC
	now := time.Date(2024, 3, 10, 15, 4, 0, 0, loc)

	days, err := businessDays("", "", now, loc)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{time.Date(2024, 3, 10, 0, 0, 0, 0, loc)}, days)

	days, err = businessDays("2024-02-28", "2024-03-01", now, loc)
	require.NoError(t, err)
	require.Len(t, days, 3)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, loc), days[1])

	_, err = businessDays("2024-03-02", "2024-03-01", now, loc)
	assert.Error(t, err)

	_, err = businessDays("03/01/2024", "", now, loc)
	assert.Error(t, err)
}

func TestWriteGzipJSONL(t *testing.T) {
	movements := []ledger.Movement{
		{ID: "a", Category: ledger.CategorySale, Amount: decimal.NewFromInt(9000), Method: "cash"},
		{ID: "b", Category: ledger.CategoryAdjustment, Amount: decimal.NewFromInt(-500), Method: "cash"},
	}

	var buf bytes.Buffer
	require.NoError(t, writeGzipJSONL(&buf, movements))

	gz, err := pgzip.NewReader(&buf)
	require.NoError(t, err)
	defer func() { _ = gz.Close() }()

	var ids []string
	sc := bufio.NewScanner(gz)
	for sc.Scan() {
		var m ledger.Movement
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		ids = append(ids, m.ID)
	}
	require.NoError(t, sc.Err())
	assert.Equal(t, []string{"a", "b"}, ids)
}
