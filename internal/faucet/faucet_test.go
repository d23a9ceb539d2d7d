package faucet

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const addr = "0x1111111111111111111111111111111111111111"

type countingTransport struct {
	calls atomic.Int32
	next  http.RoundTripper
}

func (c *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	c.calls.Add(1)
	return c.next.RoundTrip(r)
}

func newCounting() (*countingTransport, *http.Client) {
	ct := &countingTransport{next: http.DefaultTransport}
	return ct, &http.Client{Transport: ct, Timeout: time.Second}
}

func fixedClock() time.Time {
	return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
}

func TestCatalog(t *testing.T) {
	cat := Catalog()
	assert.Equal(t, []string{"gasZip", "quickNode"}, Names(cat))
	assert.NotEmpty(t, cat["gasZip"].APIURL)
	assert.Empty(t, cat["quickNode"].APIURL)
	assert.Equal(t, 24*time.Hour, cat["gasZip"].Cooldown)
	assert.Equal(t, 12*time.Hour, cat["quickNode"].Cooldown)
}

func TestRequest_NoAPI(t *testing.T) {
	ct, client := newCounting()
	a := NewAdvisor(WithHTTPClient(client))

	res, err := a.Request(context.Background(), addr, "quickNode")
	require.NoError(t, err)

	manual, ok := res.(*ManualResult)
	require.True(t, ok, "expected manual result, got %T", res)
	assert.False(t, manual.Success)
	assert.True(t, manual.Manual)
	assert.Equal(t, "https://faucet.quicknode.com/plasma/testnet", manual.URL)
	assert.NotEmpty(t, manual.Instructions)
	assert.Contains(t, manual.Instructions[2], addr)
	assert.Zero(t, ct.calls.Load())
}

func TestRequest_Automated(t *testing.T) {
	var got apiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"success":true,"txHash":"0xabc"}`))
	}))
	defer srv.Close()

	cat := Catalog()
	f := cat["gasZip"]
	f.APIURL = srv.URL
	cat["gasZip"] = f

	ct, client := newCounting()
	a := NewAdvisor(WithHTTPClient(client), WithCatalog(cat), WithClock(fixedClock))

	res, err := a.Request(context.Background(), addr, "")
	require.NoError(t, err)

	auto, ok := res.(*AutomatedResult)
	require.True(t, ok, "expected automated result, got %T", res)
	assert.True(t, auto.Success)
	assert.Equal(t, "gasZip", auto.Faucet)
	assert.Equal(t, "0xabc", auto.TxHash)
	assert.Equal(t, "10", auto.Amount)
	assert.Equal(t, fixedClock().Add(24*time.Hour), auto.NextRequestTime)

	assert.Equal(t, addr, got.Address)
	assert.Equal(t, "plasma-testnet", got.Network)
	assert.Equal(t, int32(1), ct.calls.Load())
}

func TestRequest_FallsBackWithoutRetry(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"declined", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"success":false,"message":"cooldown"}`))
		}},
		{"garbage body", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		}},
		{"slow", func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			cat := map[string]Descriptor{"gasZip": {Name: "gasZip", URL: "https://example.test", APIURL: srv.URL, Amount: "10"}}
			ct, client := newCounting()
			a := NewAdvisor(WithHTTPClient(client), WithCatalog(cat), WithTimeout(100*time.Millisecond))

			res, err := a.Request(context.Background(), addr, "gasZip")
			require.NoError(t, err)

			manual, ok := res.(*ManualResult)
			require.True(t, ok)
			assert.True(t, manual.Manual)
			assert.Equal(t, "https://example.test", manual.URL)
			assert.Equal(t, int32(1), ct.calls.Load())
		})
	}
}

func TestRequest_UnknownFaucet(t *testing.T) {
	_, err := NewAdvisor().Request(context.Background(), addr, "nope")
	assert.ErrorIs(t, err, ErrUnknownFaucet)
	assert.Contains(t, err.Error(), "known: gasZip, quickNode")
}

func TestRequest_ConfiguredDefault(t *testing.T) {
	ct, client := newCounting()
	a := NewAdvisor(WithHTTPClient(client), WithDefault("quickNode"))

	res, err := a.Request(context.Background(), addr, "")
	require.NoError(t, err)

	manual, ok := res.(*ManualResult)
	require.True(t, ok, "expected manual result, got %T", res)
	assert.Equal(t, "quickNode", manual.Faucet)
	assert.Zero(t, ct.calls.Load())

	// An explicit name still wins over the default.
	_, err = a.Request(context.Background(), addr, "nope")
	assert.ErrorIs(t, err, ErrUnknownFaucet)
}

func TestWithTimeoutLeavesSharedClientAlone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	shared := &http.Client{Timeout: 5 * time.Second}
	cat := map[string]Descriptor{"gasZip": {Name: "gasZip", URL: "https://example.test", APIURL: srv.URL}}

	for _, opts := range [][]Option{
		{WithHTTPClient(shared), WithTimeout(50 * time.Millisecond), WithCatalog(cat)},
		{WithTimeout(50 * time.Millisecond), WithHTTPClient(shared), WithCatalog(cat)},
	} {
		start := time.Now()
		res, err := NewAdvisor(opts...).Request(context.Background(), addr, "gasZip")
		require.NoError(t, err)
		assert.IsType(t, &ManualResult{}, res)
		assert.Less(t, time.Since(start), time.Second)
		assert.Equal(t, 5*time.Second, shared.Timeout)
	}
}
