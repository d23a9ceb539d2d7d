package tools

import (
	"context"
	"encoding/json"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allTools = []string{
	"getServiceInfo", "getNetworkInfo", "getAccountBalance", "sendTransaction", "sendXPL",
	"getTransactionStatus", "requestFaucet", "estimateGas", "getLatestBlocks", "getGasPrice", "getTokenInfo",
}

func TestDefinitions(t *testing.T) {
	r := newTestRegistry(t, newFakeChain())
	assert.Equal(t, allTools, r.Names())

	for _, tool := range r.Tools() {
		t.Run(tool.Name, func(t *testing.T) {
			assert.NotEmpty(t, tool.Description)

			var schema map[string]any
			require.NoError(t, json.Unmarshal(tool.InputSchema, &schema), "schema must be valid JSON")
			assert.Equal(t, "object", schema["type"])

			_, ok := r.handlers[tool.Name]
			assert.True(t, ok, "no handler for %s", tool.Name)

			wantWrites := tool.Name == "sendTransaction" || tool.Name == "sendXPL"
			assert.Equal(t, wantWrites, tool.Writes)
		})
	}
}

func TestExecute(t *testing.T) {
	t.Run("unknown tool", func(t *testing.T) {
		r := newTestRegistry(t, newFakeChain())
		_, err := r.Execute(context.Background(), "nonexistent_tool", json.RawMessage(`{}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown tool")
	})

	t.Run("single indented JSON text block", func(t *testing.T) {
		r := newTestRegistry(t, newFakeChain())
		res, err := r.Execute(context.Background(), "getServiceInfo", nil)
		require.NoError(t, err)
		require.Len(t, res.Content, 1)
		assert.Equal(t, "text", res.Content[0].Type)
		assert.True(t, strings.HasPrefix(res.Text(), "{\n  \""))
		assert.True(t, json.Valid([]byte(res.Text())))
	})

	t.Run("read and write tools get their own deadlines", func(t *testing.T) {
		dc := &deadlineChain{fakeChain: newFakeChain()}
		r := newTestRegistry(t, dc.fakeChain, withWallet, func(d *Deps) {
			d.Chain = dc
			d.ReadTimeout = time.Minute
			d.WriteTimeout = time.Hour
		})

		call(t, r, "getNetworkInfo", `{}`)
		require.False(t, dc.deadline.IsZero())
		assert.WithinDuration(t, time.Now().Add(time.Minute), dc.deadline, 5*time.Second)

		call(t, r, "sendXPL", `{"to":"`+otherAddr+`","amount":"1"}`)
		assert.WithinDuration(t, time.Now().Add(time.Hour), dc.deadline, 5*time.Second)
	})
}

// deadlineChain records the deadline seen by GasPrice.
type deadlineChain struct {
	*fakeChain
	deadline time.Time
}

func (d *deadlineChain) GasPrice(ctx context.Context) (*big.Int, error) {
	d.deadline, _ = ctx.Deadline()
	return d.fakeChain.GasPrice(ctx)
}

func TestRedactJSONArgs(t *testing.T) {
	got := RedactJSONArgs(`{"password":"pw","nested":{"private_key":"k","keep":1},"arr":[{"secret":"s"}]}`)
	require.Contains(t, got, `"password":"***REDACTED***"`)
	require.Contains(t, got, `"private_key":"***REDACTED***"`)
	require.Contains(t, got, `"secret":"***REDACTED***"`)
	require.Contains(t, got, `"keep":1`)

	assert.Equal(t, "not json", RedactJSONArgs("not json"))
	assert.Equal(t, "", RedactJSONArgs("  "))
}

func TestRedactJSONArgsByValue(t *testing.T) {
	key := "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	hash := "0x" + key

	got := RedactJSONArgs(`{"to":"` + otherAddr + `","memo":"` + key + `"}`)
	assert.Contains(t, got, `"memo":"***REDACTED***"`)
	assert.Contains(t, got, otherAddr)

	got = RedactJSONArgs(`{"txHash":"` + hash + `"}`)
	assert.Contains(t, got, hash)

	data := "0x" + strings.Repeat("ab", 100)
	got = RedactJSONArgs(`{"data":"` + data + `"}`)
	assert.Contains(t, got, "...(100 bytes)")
	assert.NotContains(t, got, data)
}
