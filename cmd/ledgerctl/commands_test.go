package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/krishichain/internal/domain/models"
	"github.com/mamadbah2/krishichain/internal/ledger"
)

func run(t *testing.T, args ...string) ([]byte, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.Bytes(), err
}

func TestLedgerctlLocalChain(t *testing.T) {
	db := filepath.Join(t.TempDir(), "ledger.db")

	out, err := run(t, "--db", db, "register",
		"--product", "Basmati Rice", "--quantity", "100kg", "--location", "Punjab",
		"--harvest-date", "2025-09-15", "--farmer", "Rajesh Kumar")
	require.NoError(t, err)
	var created models.CodeResponse
	require.NoError(t, json.Unmarshal(out, &created))
	assert.Regexp(t, `^FARM-`, created.QRCode)

	out, err = run(t, "--db", db, "distribute", created.QRCode,
		"--distributor", "Punjab Grains Ltd", "--storage", "Delhi Warehouse",
		"--rating", "5", "--transport-date", "2025-09-17")
	require.NoError(t, err)
	var distributed models.CodeResponse
	require.NoError(t, json.Unmarshal(out, &distributed))
	assert.Equal(t, created.QRCode, distributed.PreviousCode)

	out, err = run(t, "--db", db, "list", "distributor")
	require.NoError(t, err)
	var listed []models.ProduceRecord
	require.NoError(t, json.Unmarshal(out, &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, distributed.QRCode, listed[0].Code)

	out, err = run(t, "--db", db, "list", "all")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(out, &listed))
	require.Len(t, listed, 1)

	out, err = run(t, "--db", db, "trace", created.QRCode)
	require.NoError(t, err)
	var traced models.ProduceRecord
	require.NoError(t, json.Unmarshal(out, &traced))
	assert.Equal(t, models.StageDistributed, traced.Stage)

	_, err = run(t, "--db", db, "lookup", created.QRCode)
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	_, err = run(t, "--db", db, "verify", distributed.QRCode)
	assert.ErrorIs(t, err, ledger.ErrInvalidStage)
}

func TestLedgerctlRequiresTarget(t *testing.T) {
	_, err := run(t, "lookup", "FARM-AAAAAA")
	assert.ErrorContains(t, err, "--api or --db")

	_, err = run(t, "--db", filepath.Join(t.TempDir(), "x.db"), "list", "auditor")
	assert.Error(t, err)
}
