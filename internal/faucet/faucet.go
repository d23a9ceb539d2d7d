// Package faucet knows the public testnet faucets and tries to request funds
// from them, falling back to manual instructions.
package faucet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/yolodolo42/plasma-mcp/internal/logger"
)

// DefaultFaucet is used when a request names no faucet and no other default
// was configured.
const DefaultFaucet = "gasZip"

// ErrUnknownFaucet is returned for a name missing from the catalogue.
var ErrUnknownFaucet = errors.New("unknown faucet")

// Descriptor is static faucet metadata. APIURL is empty when the faucet can
// only be used through its web page.
type Descriptor struct {
	Name     string
	URL      string
	APIURL   string
	Amount   string // native units granted per request
	Cooldown time.Duration
}

// Catalog returns the known Plasma testnet faucets keyed by name.
func Catalog() map[string]Descriptor {
	return map[string]Descriptor{
		"gasZip": {
			Name: "gasZip",
			URL:  "https://gas.zip/faucet/plasma",
			// Unverified endpoint; every failure falls back to manual.
			APIURL:   "https://api.gas.zip/v1/faucet/plasma",
			Amount:   "10",
			Cooldown: 24 * time.Hour,
		},
		"quickNode": {
			Name:     "quickNode",
			URL:      "https://faucet.quicknode.com/plasma/testnet",
			Amount:   "1",
			Cooldown: 12 * time.Hour,
		},
	}
}

// Names returns the catalogue's faucet names, sorted.
func Names(catalog map[string]Descriptor) []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Result is either an AutomatedResult or a ManualResult.
type Result interface {
	isResult()
}

// AutomatedResult reports a faucet API grant.
type AutomatedResult struct {
	Success         bool      `json:"success"`
	Faucet          string    `json:"faucet"`
	Address         string    `json:"address"`
	TxHash          string    `json:"txHash,omitempty"`
	Amount          string    `json:"amount"`
	Message         string    `json:"message"`
	NextRequestTime time.Time `json:"nextRequestTime"`
}

// ManualResult tells the caller how to use the faucet's web page.
type ManualResult struct {
	Success      bool     `json:"success"`
	Manual       bool     `json:"manual"`
	Faucet       string   `json:"faucet"`
	Address      string   `json:"address"`
	URL          string   `json:"url"`
	Amount       string   `json:"amount"`
	Message      string   `json:"message"`
	Instructions []string `json:"instructions"`
}

func (AutomatedResult) isResult() {}
func (ManualResult) isResult()    {}

// Advisor resolves faucet requests.
type Advisor struct {
	catalog     map[string]Descriptor
	defaultName string
	client      *http.Client
	timeout     time.Duration
	network     string
	symbol      string
	userAgent   string
	now         func() time.Time
}

// Option configures an Advisor.
type Option func(*Advisor)

// WithHTTPClient replaces the HTTP client used for API calls.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Advisor) { a.client = c }
}

// WithTimeout bounds each API attempt. Zero leaves only the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(a *Advisor) { a.timeout = d }
}

// WithDefault names the faucet used when a request names none.
func WithDefault(name string) Option {
	return func(a *Advisor) { a.defaultName = name }
}

// WithCatalog replaces the faucet catalogue.
func WithCatalog(catalog map[string]Descriptor) Option {
	return func(a *Advisor) { a.catalog = catalog }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Advisor) { a.now = now }
}

// NewAdvisor returns an Advisor over the default catalogue with a 10s API
// timeout and gasZip as the default faucet.
func NewAdvisor(opts ...Option) *Advisor {
	a := &Advisor{
		catalog:     Catalog(),
		defaultName: DefaultFaucet,
		client:      http.DefaultClient,
		timeout:     10 * time.Second,
		network:     "plasma-testnet",
		symbol:      "XPL",
		userAgent:   "plasma-mcp/1.0",
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Request tries the faucet's API once, if it has one, and otherwise (or on
// any API failure) returns manual instructions. Only an unknown faucet name
// is an error.
func (a *Advisor) Request(ctx context.Context, address, name string) (Result, error) {
	if name == "" {
		name = a.defaultName
	}
	f, ok := a.catalog[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (known: %s)", ErrUnknownFaucet, name, strings.Join(Names(a.catalog), ", "))
	}

	if f.APIURL != "" {
		res, err := a.requestAPI(ctx, f, address)
		if err == nil {
			return res, nil
		}
		logger.Warn("faucet %s API request failed, returning manual instructions: %v", f.Name, err)
	}
	return a.manual(f, address), nil
}

type apiRequest struct {
	Address string `json:"address"`
	Network string `json:"network"`
}

type apiResponse struct {
	Success bool   `json:"success"`
	TxHash  string `json:"txHash"`
	Message string `json:"message"`
}

func (a *Advisor) requestAPI(ctx context.Context, f Descriptor, address string) (*AutomatedResult, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	body, err := json.Marshal(apiRequest{Address: address, Network: a.network})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.APIURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", a.userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var out apiResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("invalid faucet response: %w", err)
	}
	if !out.Success {
		if out.Message != "" {
			return nil, fmt.Errorf("faucet declined: %s", out.Message)
		}
		return nil, errors.New("faucet declined request")
	}

	return &AutomatedResult{
		Success:         true,
		Faucet:          f.Name,
		Address:         address,
		TxHash:          out.TxHash,
		Amount:          f.Amount,
		Message:         fmt.Sprintf("Successfully requested %s %s from %s", f.Amount, a.symbol, f.Name),
		NextRequestTime: a.now().Add(f.Cooldown).UTC(),
	}, nil
}

func (a *Advisor) manual(f Descriptor, address string) *ManualResult {
	return &ManualResult{
		Success: false,
		Manual:  true,
		Faucet:  f.Name,
		Address: address,
		URL:     f.URL,
		Amount:  f.Amount,
		Message: fmt.Sprintf("Please visit %s to manually request %s %s", f.URL, f.Amount, a.symbol),
		Instructions: []string{
			"1. Open the URL: " + f.URL,
			"2. Connect your wallet",
			"3. Enter address: " + address,
			"4. Complete any verification (captcha, etc.)",
			`5. Click "Request Tokens"`,
			"6. Wait for transaction confirmation",
		},
	}
}
