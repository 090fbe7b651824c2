// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/jeranaias/elena/internal/model"
)

// Sampling parameters applied to every turn.
const (
	TopP            float32 = 0.95
	TopK            float32 = 40
	MaxOutputTokens int32   = 8192
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// Config holds everything a turn needs besides its history.
type Config struct {
	// APIKey is the Gemini API key. Empty is allowed; turns then fail with
	// ErrUnauthenticated.
	APIKey string

	// DefaultModel is used when a request names no model.
	DefaultModel string

	// BaseURL overrides the API endpoint (tests, proxies).
	BaseURL string

	// SystemInstruction is sent with every turn. Empty means DefaultSystemInstruction.
	SystemInstruction string

	// RequestTimeout bounds a whole turn, first byte to last chunk. Zero
	// disables the bound.
	RequestTimeout time.Duration

	// RequestsPerMinute caps turns started per minute. Zero means unlimited.
	RequestsPerMinute int

	// HTTPClient replaces the SDK's default HTTP client.
	HTTPClient *http.Client
}

// DefaultConfig returns a Config with the default model and timeout.
func DefaultConfig() Config {
	return Config{
		DefaultModel:   model.DefaultModelID,
		RequestTimeout: 2 * time.Minute,
	}
}

func (c *Config) fillDefaults() {
	if c.DefaultModel == "" {
		c.DefaultModel = model.DefaultModelID
	}
	if c.SystemInstruction == "" {
		c.SystemInstruction = DefaultSystemInstruction
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client streams chat turns from Gemini. It is safe for concurrent use; each
// StreamChat call captures the configuration current at that moment.
type Client struct {
	mu      sync.Mutex
	cfg     Config
	sdk     *genai.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client's logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a client. It never fails; SDK setup is deferred to the
// first turn so a missing key surfaces as ErrUnauthenticated there.
func NewClient(cfg Config, opts ...Option) *Client {
	c := &Client{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	c.applyLocked(cfg)
	return c
}

// UpdateConfig swaps the configuration. Streams already open keep the
// configuration they started with.
func (c *Client) UpdateConfig(cfg Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applyLocked(cfg)
}

func (c *Client) applyLocked(cfg Config) {
	cfg.fillDefaults()
	c.cfg = cfg
	c.sdk = nil
	c.limiter = nil
	if cfg.RequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), cfg.RequestsPerMinute)
	}
}

// DefaultModel returns the model used when a request names none.
func (c *Client) DefaultModel() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.DefaultModel
}

// HasAPIKey reports whether a key is configured. It does not check validity.
func (c *Client) HasAPIKey() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.APIKey != ""
}

// turnState is the configuration captured when a turn starts.
type turnState struct {
	cfg     Config
	sdk     *genai.Client
	limiter *rate.Limiter
}

// begin snapshots the config and lazily creates the SDK client.
func (c *Client) begin(ctx context.Context) (turnState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := turnState{cfg: c.cfg, limiter: c.limiter}
	if c.cfg.APIKey == "" {
		return st, newError(KindUnauthenticated, "GEMINI_API_KEY not set", nil)
	}
	if c.sdk == nil {
		cc := &genai.ClientConfig{
			APIKey:     c.cfg.APIKey,
			Backend:    genai.BackendGeminiAPI,
			HTTPClient: c.cfg.HTTPClient,
		}
		if c.cfg.BaseURL != "" {
			cc.HTTPOptions = genai.HTTPOptions{BaseURL: c.cfg.BaseURL}
		}
		sdk, err := genai.NewClient(ctx, cc)
		if err != nil {
			return st, classify(err)
		}
		c.sdk = sdk
	}
	st.sdk = c.sdk
	return st, nil
}
