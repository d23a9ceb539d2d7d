package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yolodolo42/plasma-mcp/internal/testutil"
)

const (
	hashA = "0xAAAA000000000000000000000000000000000000000000000000000000000001"
	hashB = "0xbbbb000000000000000000000000000000000000000000000000000000000002"
)

func openMemory(t *testing.T) *History {
	t.Helper()
	h, err := OpenDSN(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func TestRecordLifecycle(t *testing.T) {
	h := openMemory(t)
	ctx := context.Background()
	h.now = func() time.Time { return time.Unix(1700000000, 0) }

	require.NoError(t, h.RecordSubmitted(ctx, Record{
		ChainID:  "9746",
		TxHash:   hashA,
		Tool:     "sendXPL",
		From:     "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
		To:       "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
		ValueWei: "1000000000000000000",
	}))

	rec, err := h.Get(ctx, "9746", hashA)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, rec.Status)
	assert.Equal(t, "sendXPL", rec.Tool)
	assert.Equal(t, "1000000000000000000", rec.ValueWei)
	assert.Equal(t, int64(1700000000), rec.CreatedAt.Unix())

	h.now = func() time.Time { return time.Unix(1700000060, 0) }
	require.NoError(t, h.RecordReceipt(ctx, "9746", hashA, true, 42, 21000))

	rec, err = h.Get(ctx, "9746", hashA)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, rec.Status)
	assert.Equal(t, uint64(42), rec.BlockNumber)
	assert.Equal(t, uint64(21000), rec.GasUsed)
	assert.Equal(t, int64(1700000000), rec.CreatedAt.Unix())
	assert.Equal(t, int64(1700000060), rec.UpdatedAt.Unix())

	require.NoError(t, h.RecordReceipt(ctx, "9746", hashA, false, 42, 30000))
	rec, err = h.Get(ctx, "9746", hashA)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, rec.Status)
}

func TestGetMissing(t *testing.T) {
	h := openMemory(t)

	_, err := h.Get(context.Background(), "9746", hashA)
	require.ErrorIs(t, err, ErrNotFound)

	err = h.RecordReceipt(context.Background(), "9746", hashA, true, 1, 1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRecordSubmittedRequiresKey(t *testing.T) {
	h := openMemory(t)

	err := h.RecordSubmitted(context.Background(), Record{ChainID: "9746"})
	require.Error(t, err)
}

func TestRecentIsNewestFirstPerChain(t *testing.T) {
	h := openMemory(t)
	ctx := context.Background()

	h.now = func() time.Time { return time.Unix(100, 0) }
	require.NoError(t, h.RecordSubmitted(ctx, Record{ChainID: "9746", TxHash: hashA, Tool: "sendXPL"}))
	h.now = func() time.Time { return time.Unix(200, 0) }
	require.NoError(t, h.RecordSubmitted(ctx, Record{ChainID: "9746", TxHash: hashB, Tool: "sendTransaction"}))
	require.NoError(t, h.RecordSubmitted(ctx, Record{ChainID: "1", TxHash: hashA, Tool: "sendXPL"}))

	recs, err := h.Recent(ctx, "9746", 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, hashB, recs[0].TxHash)
	assert.Equal(t, "0xaaaa000000000000000000000000000000000000000000000000000000000001", recs[1].TxHash)

	recs, err = h.Recent(ctx, "9746", 1)
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	recs, err = h.Recent(ctx, "5", 10)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestOpenCreatesFile(t *testing.T) {
	dir := testutil.TempDir(t)
	path := filepath.Join(dir, "nested", "history.db")

	h, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, h.RecordSubmitted(context.Background(), Record{ChainID: "9746", TxHash: hashA}))
	require.NoError(t, h.Close())

	h, err = Open(path)
	require.NoError(t, err)
	defer h.Close()
	_, err = h.Get(context.Background(), "9746", hashA)
	assert.NoError(t, err)
}
