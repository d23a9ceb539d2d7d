package chain

import (
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type nodeError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *nodeError) Error() string { return e.Message }

type nodeHandler func(params []json.RawMessage) (any, error)

// fakeNode is an in-process JSON-RPC endpoint answering a configurable set of methods.
type fakeNode struct {
	mu       sync.Mutex
	handlers map[string]nodeHandler
	calls    map[string]int
	srv      *httptest.Server
}

func newFakeNode(t *testing.T) *fakeNode {
	t.Helper()
	n := &fakeNode{
		handlers: map[string]nodeHandler{
			"eth_chainId": func([]json.RawMessage) (any, error) { return "0x2612", nil }, // 9746
		},
		calls: make(map[string]int),
	}
	n.srv = httptest.NewServer(http.HandlerFunc(n.serve))
	t.Cleanup(n.srv.Close)
	return n
}

func (n *fakeNode) handle(method string, h nodeHandler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers[method] = h
}

func (n *fakeNode) result(method string, v any) {
	n.handle(method, func([]json.RawMessage) (any, error) { return v, nil })
}

func (n *fakeNode) count(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[method]
}

func (n *fakeNode) serve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     json.RawMessage   `json:"id"`
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	n.mu.Lock()
	n.calls[req.Method]++
	h, ok := n.handlers[req.Method]
	n.mu.Unlock()

	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	if !ok {
		resp["error"] = &nodeError{Code: -32601, Message: "method not found: " + req.Method}
	} else if res, err := h(req.Params); err != nil {
		if ne, isNode := err.(*nodeError); isNode {
			resp["error"] = ne
		} else {
			resp["error"] = &nodeError{Code: -32000, Message: err.Error()}
		}
	} else {
		resp["result"] = res
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func newTestClient(n *fakeNode) *Client {
	network := PlasmaTestnet()
	network.RPCURL = n.srv.URL
	network.ChainID = big.NewInt(9746)
	return NewClient(network,
		WithPollInterval(10*time.Millisecond),
		WithConfirmTimeout(200*time.Millisecond),
	)
}

// callData extracts the calldata of an eth_call regardless of whether the
// client sent it as "input" or "data".
func callData(params []json.RawMessage) string {
	var arg struct {
		Input string `json:"input"`
		Data  string `json:"data"`
	}
	if len(params) > 0 {
		_ = json.Unmarshal(params[0], &arg)
	}
	if arg.Input != "" {
		return arg.Input
	}
	return arg.Data
}
