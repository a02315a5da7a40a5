// Package rpcsim implements the RPC-fronted backing store the Sui
// adapter uses as overlay.Base: on a miss it lazily fetches historical
// object/module bytes from a live full node over JSON-RPC and caches
// every value it finds, so a found key is not fetched again; misses and
// fetch errors are not cached and are retried on the next lookup.
package rpcsim

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"

	"github.com/movefuzz/movefuzz/internal/overlay"
)

// ClientOptions configures the underlying fasthttp.Client and the
// request rate limiter guarding the remote node.
type ClientOptions struct {
	Timeout             time.Duration
	MaxConnsPerHost     int
	MaxIdleConnDuration time.Duration
	UserAgent           string
	RateLimitPerSecond  float64
	RateLimitBurst      int
}

// DefaultClientOptions mirrors typical full-node RPC etiquette: a modest
// connection pool and a conservative rate cap so a fuzzing campaign
// never looks like a denial-of-service attempt against the node it reads
// historical state from.
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		Timeout:             10 * time.Second,
		MaxConnsPerHost:     64,
		MaxIdleConnDuration: 10 * time.Second,
		UserAgent:           "movefuzz/1.0",
		RateLimitPerSecond:  20,
		RateLimitBurst:      5,
	}
}

// rpcRequest is a minimal JSON-RPC 2.0 envelope.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// Transport issues a single JSON-RPC call over fasthttp and returns the
// raw response body for gjson to pick apart, so callers never have to
// unmarshal into method-specific structs.
type Transport struct {
	client    *fasthttp.Client
	url       string
	userAgent string
	timeout   time.Duration
	limiter   *rate.Limiter
}

// NewTransport builds a Transport pointed at a JSON-RPC endpoint.
func NewTransport(url string, opts ClientOptions) *Transport {
	client := &fasthttp.Client{
		MaxConnsPerHost:     opts.MaxConnsPerHost,
		MaxIdleConnDuration: opts.MaxIdleConnDuration,
		ReadTimeout:         opts.Timeout,
		WriteTimeout:        opts.Timeout,
	}
	return &Transport{
		client:    client,
		url:       url,
		userAgent: opts.UserAgent,
		timeout:   opts.Timeout,
		limiter:   rate.NewLimiter(rate.Limit(opts.RateLimitPerSecond), opts.RateLimitBurst),
	}
}

// Call issues one JSON-RPC method call, blocking on the rate limiter
// first, and returns the raw "result" field as a gjson.Result.
func (t *Transport) Call(ctx context.Context, method string, params ...interface{}) (gjson.Result, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return gjson.Result{}, fmt.Errorf("rate limiter: %w", err)
	}

	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return gjson.Result{}, fmt.Errorf("marshal request: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(t.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.SetUserAgent(t.userAgent)
	req.SetBody(body)

	if err := t.client.DoTimeout(req, resp, t.timeout); err != nil {
		return gjson.Result{}, fmt.Errorf("rpc call %s: %w", method, err)
	}

	parsed := gjson.ParseBytes(resp.Body())
	if errField := parsed.Get("error"); errField.Exists() {
		return gjson.Result{}, fmt.Errorf("rpc error on %s: %s", method, errField.Raw)
	}
	return parsed.Get("result"), nil
}

// RpcBackingStore is a lazily-populated overlay.Base implementation:
// three-priority lookup order is overrides (set through SetOverride),
// then the lazy cache of everything already
// fetched this run, then a remote RPC round trip that populates the
// cache for next time.
type RpcBackingStore struct {
	transport *Transport
	fetch     func(ctx context.Context, t *Transport, key overlay.StateKey) (overlay.Value, bool, error)

	mu        sync.RWMutex
	overrides map[overlay.StateKey]overlay.Value
	cache     map[overlay.StateKey]overlay.Value
}

// NewRpcBackingStore builds a backing store over transport. fetch
// resolves a single cache-miss key into raw bytes; it is supplied by the
// Sui adapter since the RPC method and argument shape (object ID vs
// module ID) are adapter-specific, not something rpcsim should encode.
func NewRpcBackingStore(transport *Transport, fetch func(ctx context.Context, t *Transport, key overlay.StateKey) (overlay.Value, bool, error)) *RpcBackingStore {
	return &RpcBackingStore{
		transport: transport,
		fetch:     fetch,
		overrides: make(map[overlay.StateKey]overlay.Value),
		cache:     make(map[overlay.StateKey]overlay.Value),
	}
}

// SetOverride pins key to value for the lifetime of the store, taking
// priority over both the cache and any future RPC fetch — this is how a
// campaign seeds known historical object versions ahead of time.
func (s *RpcBackingStore) SetOverride(key overlay.StateKey, value overlay.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[key] = value
}

// Get implements overlay.Base with the three-priority lookup: overrides,
// then cache, then a blocking RPC fetch via GetContext.
func (s *RpcBackingStore) Get(key overlay.StateKey) (overlay.Value, bool) {
	return s.GetContext(context.Background(), key)
}

// GetContext is Get with an explicit context, letting a campaign-level
// timeout bound a single lazy fetch.
func (s *RpcBackingStore) GetContext(ctx context.Context, key overlay.StateKey) (overlay.Value, bool) {
	s.mu.RLock()
	if v, ok := s.overrides[key]; ok {
		s.mu.RUnlock()
		return v, true
	}
	if v, ok := s.cache[key]; ok {
		s.mu.RUnlock()
		return v, true
	}
	s.mu.RUnlock()

	if s.fetch == nil {
		return nil, false
	}

	v, ok, err := s.fetch(ctx, s.transport, key)
	if err != nil || !ok {
		return nil, false
	}

	s.mu.Lock()
	s.cache[key] = v
	s.mu.Unlock()
	return v, true
}
