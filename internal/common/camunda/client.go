// internal/common/camunda/client.go
package camunda

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "jira-askbot/internal/common/errors"

	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// Client owns the gateway connection shared by all stage workers.
type Client struct {
	client zbc.Client
	config *ClientConfig
}

type ClientConfig struct {
	GatewayAddress         string
	UsePlaintextConnection bool
	ConnectionTimeout      time.Duration
	RequestTimeout         time.Duration
	Retry                  RetryPolicy
}

// RetryPolicy applies to gateway calls made by the client itself, not to
// jobs; job retries belong to the broker.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

var DefaultRetryPolicy = RetryPolicy{
	MaxRetries: 3,
	BaseDelay:  time.Second,
	MaxDelay:   10 * time.Second,
}

// NewClient connects to a plaintext gateway, as used by local brokers.
func NewClient(address string, requestTimeout time.Duration) (*Client, error) {
	return NewClientWithConfig(&ClientConfig{
		GatewayAddress:         address,
		UsePlaintextConnection: true,
		ConnectionTimeout:      10 * time.Second,
		RequestTimeout:         requestTimeout,
		Retry:                  DefaultRetryPolicy,
	})
}

// NewClientWithConfig dials the gateway and waits for a topology answer.
func NewClientWithConfig(config *ClientConfig) (*Client, error) {
	zeebeClient, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         config.GatewayAddress,
		UsePlaintextConnection: config.UsePlaintextConnection,
		DefaultJobWorkerName:   workerName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
	}

	c := &Client{client: zeebeClient, config: config}
	if _, err := withRetry(context.Background(), config.Retry, "topology", c.topology); err != nil {
		zeebeClient.Close()
		return nil, fmt.Errorf("failed to connect to Zeebe broker at %s: %w", config.GatewayAddress, err)
	}
	return c, nil
}

// GetClient returns the raw Zeebe client for opening job workers.
func (c *Client) GetClient() zbc.Client {
	return c.client
}

func (c *Client) Close() error {
	return c.client.Close()
}

// HealthCheck makes a single topology call so readiness probes stay fast.
func (c *Client) HealthCheck(ctx context.Context) error {
	topo, err := c.topology(ctx)
	if err != nil {
		return fmt.Errorf("zeebe health check failed: %w", mapZeebeError(err, "topology", 0))
	}
	if len(topo.Brokers) == 0 {
		return fmt.Errorf("zeebe health check failed: no brokers in topology")
	}
	return nil
}

func (c *Client) topology(ctx context.Context) (*pb.TopologyResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.ConnectionTimeout)
	defer cancel()
	return c.client.NewTopologyCommand().Send(ctx)
}

// withRetry retries transient gateway errors with capped exponential backoff.
func withRetry[T any](ctx context.Context, policy RetryPolicy, operation string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	for attempt := 0; ; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if !isRetryableZeebeError(err) || attempt >= policy.MaxRetries {
			return zero, mapZeebeError(err, operation, attempt)
		}

		delay := policy.BaseDelay * time.Duration(1<<attempt)
		if policy.MaxDelay > 0 && delay > policy.MaxDelay {
			delay = policy.MaxDelay
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return zero, fmt.Errorf("operation %s cancelled after %d attempts: %w", operation, attempt+1, ctx.Err())
		}
	}
}

var retryablePhrases = []string{
	"connection refused",
	"connection reset",
	"timeout",
	"deadline exceeded",
	"unavailable",
	"unreachable",
	"broken pipe",
}

func isRetryableZeebeError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, phrase := range retryablePhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

// mapZeebeError turns gateway failures into the application taxonomy:
// caller mistakes are INVALID_INPUT, everything else INTERNAL_ERROR.
func mapZeebeError(err error, operation string, attempt int) error {
	msg := fmt.Sprintf("zeebe %s failed", operation)
	if attempt > 0 {
		msg += fmt.Sprintf(" after %d retries", attempt)
	}
	wrapped := fmt.Errorf("%s: %w", msg, err)

	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "permission denied") ||
		strings.Contains(lower, "unauthorized") ||
		strings.Contains(lower, "not found") {
		return apperrors.NewInvalidInputError(wrapped.Error())
	}
	return apperrors.NewInternalError(wrapped)
}
