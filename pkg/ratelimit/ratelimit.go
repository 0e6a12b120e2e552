// Package ratelimit implements per-operation token bucket limiters with
// exponential backoff for retryable failures. Forge API calls and git
// subprocess invocations wait on the default group; the file-read bucket is
// configured but no caller waits on it.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/iberi22/ai-git-core-template/pkg/logger"
)

var log = logger.New("ratelimit:limiter")

var (
	// ErrContextCanceled is returned when the context is canceled while waiting
	ErrContextCanceled = errors.New("context canceled while waiting for rate limit")
	// ErrInvalidConfig is returned when the rate limiter configuration is invalid
	ErrInvalidConfig = errors.New("invalid rate limiter configuration")
)

// OperationType distinguishes the resources guarded by separate buckets.
type OperationType string

const (
	// OperationGitHubAPI guards forge REST calls
	OperationGitHubAPI OperationType = "github-api"
	// OperationGitExec guards git subprocess invocations
	OperationGitExec OperationType = "git-exec"
	// OperationFileRead guards local file reads
	OperationFileRead OperationType = "file-read"
)

// Config holds one bucket's refill and backoff parameters.
type Config struct {
	// Rate is the number of tokens added per Interval
	Rate float64
	// Burst is the maximum number of tokens the bucket can hold
	Burst int
	// Interval is the duration over which Rate tokens are added
	Interval time.Duration
	// MaxRetries bounds ExecuteWithRetry attempts
	MaxRetries int
	// InitialBackoff is the first retry delay
	InitialBackoff time.Duration
	// MaxBackoff caps the retry delay
	MaxBackoff time.Duration
}

// DefaultConfigs provides sensible defaults per operation type.
var DefaultConfigs = map[OperationType]Config{
	OperationGitHubAPI: {
		Rate:           5000,
		Burst:          100,
		Interval:       time.Hour,
		MaxRetries:     3,
		InitialBackoff: time.Second,
		MaxBackoff:     time.Minute,
	},
	OperationGitExec: {
		Rate:           600,
		Burst:          60,
		Interval:       time.Minute,
		MaxRetries:     1,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
	},
	OperationFileRead: {
		Rate:           1000,
		Burst:          1000,
		Interval:       time.Minute,
		MaxRetries:     1,
		InitialBackoff: 10 * time.Millisecond,
		MaxBackoff:     time.Second,
	},
}

// TokenBucket is a single rate limiter.
type TokenBucket struct {
	mu         sync.Mutex
	config     Config
	op         OperationType
	tokens     float64
	lastRefill time.Time
}

// NewTokenBucket builds a bucket for op, using the default config when config
// is nil.
func NewTokenBucket(op OperationType, config *Config) (*TokenBucket, error) {
	cfg := DefaultConfigs[op]
	if config != nil {
		cfg = *config
	}
	if cfg.Rate <= 0 || cfg.Burst <= 0 || cfg.Interval <= 0 {
		return nil, fmt.Errorf("%w: rate=%.2f burst=%d interval=%v", ErrInvalidConfig, cfg.Rate, cfg.Burst, cfg.Interval)
	}

	return &TokenBucket{
		config:     cfg,
		op:         op,
		tokens:     float64(cfg.Burst),
		lastRefill: time.Now(),
	}, nil
}

func (tb *TokenBucket) refill() {
	now := time.Now()
	elapsed := now.Sub(tb.lastRefill)
	added := (elapsed.Seconds() / tb.config.Interval.Seconds()) * tb.config.Rate
	tb.tokens = math.Min(float64(tb.config.Burst), tb.tokens+added)
	tb.lastRefill = now
}

// Allow consumes a token if one is available.
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

// Tokens reports the current token count after refill.
func (tb *TokenBucket) Tokens() float64 {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.refill()
	return tb.tokens
}

func (tb *TokenBucket) timeUntilNextToken() time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	if tb.tokens >= 1 {
		return 0
	}
	needed := 1.0 - tb.tokens
	seconds := (needed / tb.config.Rate) * tb.config.Interval.Seconds()
	return time.Duration(seconds * float64(time.Second))
}

// Wait blocks until a token is available or the context is canceled.
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return ErrContextCanceled
		}
		if tb.Allow() {
			return nil
		}

		wait := tb.timeUntilNextToken()
		if wait <= 0 {
			continue
		}
		log.Printf("throttled: operation=%s wait=%v", tb.op, wait)
		select {
		case <-ctx.Done():
			return ErrContextCanceled
		case <-time.After(wait):
		}
	}
}

// Backoff returns the delay before retry attempt (0-based).
func (tb *TokenBucket) Backoff(attempt int) time.Duration {
	if attempt <= 0 {
		return tb.config.InitialBackoff
	}
	backoff := float64(tb.config.InitialBackoff) * math.Pow(2, float64(attempt))
	if backoff > float64(tb.config.MaxBackoff) {
		return tb.config.MaxBackoff
	}
	return time.Duration(backoff)
}

// ExecuteWithRetry runs fn under the limiter, retrying with exponential
// backoff when retryable reports the error as transient.
func (tb *TokenBucket) ExecuteWithRetry(ctx context.Context, fn func() error, retryable func(error) bool) error {
	var lastErr error

	for attempt := 0; attempt <= tb.config.MaxRetries; attempt++ {
		if err := tb.Wait(ctx); err != nil {
			return err
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if retryable == nil || !retryable(err) || attempt == tb.config.MaxRetries {
			return err
		}

		backoff := tb.Backoff(attempt)
		log.Printf("retrying: operation=%s attempt=%d backoff=%v error=%v", tb.op, attempt+1, backoff, err)
		select {
		case <-ctx.Done():
			return ErrContextCanceled
		case <-time.After(backoff):
		}
	}

	return lastErr
}

// Group manages one bucket per operation type.
type Group struct {
	mu       sync.Mutex
	limiters map[OperationType]*TokenBucket
}

// NewGroup creates an empty limiter group.
func NewGroup() *Group {
	return &Group{limiters: make(map[OperationType]*TokenBucket)}
}

// GetOrCreate returns the bucket for op, creating it with defaults on first use.
func (g *Group) GetOrCreate(op OperationType) (*TokenBucket, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if limiter, ok := g.limiters[op]; ok {
		return limiter, nil
	}
	limiter, err := NewTokenBucket(op, nil)
	if err != nil {
		return nil, err
	}
	g.limiters[op] = limiter
	return limiter, nil
}

// DefaultGroup is the process-wide limiter group.
var DefaultGroup = NewGroup()

// Wait blocks on the default group's bucket for op. It fails open when the
// bucket cannot be created.
func Wait(ctx context.Context, op OperationType) error {
	limiter, err := DefaultGroup.GetOrCreate(op)
	if err != nil {
		log.Printf("failed to get rate limiter: %v", err)
		return nil
	}
	return limiter.Wait(ctx)
}
