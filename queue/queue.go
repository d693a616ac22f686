// Package queue provides the Ably-backed client for the external job queue.
//
// Each job envelope is published to the project's supervisor-jobs channel
// with the job's dedupe key as the idempotent message id, so repeated
// enqueue attempts for the same logical unit of work collapse on the queue
// side. The client never awaits job completion: acceptance of the publish is
// the whole contract.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ably/ably-go/ably"
	"go.uber.org/zap"

	"github.com/unbound-computer/daemon-konan/job"
)

const (
	// ChannelPrefix is prepended to the project id to form the jobs channel.
	ChannelPrefix = "supervisor-jobs:"

	// EventJobEnqueue is the event name job envelopes are published under.
	EventJobEnqueue = "supervisor.job.enqueue.v1"

	// Default publish timeout
	DefaultPublishTimeout = 5 * time.Second

	// Retry settings
	MaxRetries = 3
	RetryDelay = 500 * time.Millisecond
)

var (
	ErrNotConnected   = errors.New("not connected to Ably")
	ErrClosed         = errors.New("queue client closed")
	ErrEnqueueFailed  = errors.New("enqueue failed after retries")
	ErrMissingProject = errors.New("envelope has no project id")
)

// realtimeChannel is the slice of ably.RealtimeChannel the client uses.
type realtimeChannel interface {
	PublishMultiple(ctx context.Context, messages []*ably.Message) error
}

// Client publishes job envelopes to Ably.
type Client struct {
	client         *ably.Realtime
	getChannel     func(name string) realtimeChannel
	publishTimeout time.Duration
	logger         *zap.Logger

	mu       sync.Mutex
	channels map[string]realtimeChannel
	closed   bool
	closedCh chan struct{}
}

// Options configures the Client.
type Options struct {
	// AblyKey is the Ably API key.
	AblyKey string

	// PublishTimeout is the timeout for each publish attempt.
	PublishTimeout time.Duration

	// Logger is the zap logger instance.
	Logger *zap.Logger
}

// New creates a new Ably queue client.
func New(opts Options) (*Client, error) {
	client, err := ably.NewRealtime(
		ably.WithKey(opts.AblyKey),
		ably.WithAutoConnect(false),
	)
	if err != nil {
		return nil, err
	}

	c := newWithChannels(nil, opts)
	c.client = client
	c.getChannel = func(name string) realtimeChannel {
		return client.Channels.Get(name)
	}
	return c, nil
}

func newWithChannels(getChannel func(name string) realtimeChannel, opts Options) *Client {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = DefaultPublishTimeout
	}
	return &Client{
		getChannel:     getChannel,
		publishTimeout: opts.PublishTimeout,
		logger:         opts.Logger,
		channels:       make(map[string]realtimeChannel),
		closedCh:       make(chan struct{}),
	}
}

// Connect establishes the connection to Ably.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.client == nil {
		return nil
	}

	c.logger.Info("connecting to Ably")
	c.client.Connect()

	connected := make(chan struct{})
	var connErr error

	c.client.Connection.OnAll(func(change ably.ConnectionStateChange) {
		switch change.Current {
		case ably.ConnectionStateConnected:
			select {
			case connected <- struct{}{}:
			default:
			}
		case ably.ConnectionStateFailed:
			connErr = change.Reason
			select {
			case connected <- struct{}{}:
			default:
			}
		}
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-connected:
		if connErr != nil {
			return connErr
		}
	}

	c.logger.Info("connected to Ably",
		zap.String("connection_id", c.client.Connection.ID()),
	)
	return nil
}

// Enqueue publishes a job envelope to the project's jobs channel. The dedupe
// key becomes the Ably message id, making the publish idempotent.
func (c *Client) Enqueue(ctx context.Context, envelope *job.Envelope) error {
	if envelope.ProjectID == "" {
		return ErrMissingProject
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	channelName := ChannelPrefix + envelope.ProjectID
	message := &ably.Message{
		ID:   envelope.Payload.DedupeKey,
		Name: EventJobEnqueue,
		Data: payload,
	}

	c.logger.Debug("enqueueing job",
		zap.String("channel", channelName),
		zap.String("job_kind", string(envelope.Payload.JobKind)),
		zap.String("dedupe_key", envelope.Payload.DedupeKey),
		zap.Int("payload_len", len(payload)),
	)

	channel, publishTimeout, err := c.channelForPublish(channelName)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= MaxRetries; attempt++ {
		pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
		err := channel.PublishMultiple(pubCtx, []*ably.Message{message})
		cancel()

		if err == nil {
			c.logger.Debug("enqueue successful",
				zap.String("channel", channelName),
				zap.String("dedupe_key", envelope.Payload.DedupeKey),
				zap.Int("attempt", attempt),
			)
			return nil
		}

		lastErr = err
		c.logger.Warn("enqueue attempt failed",
			zap.String("channel", channelName),
			zap.String("dedupe_key", envelope.Payload.DedupeKey),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		if attempt < MaxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-c.closedCh:
				return ErrClosed
			case <-time.After(RetryDelay):
			}
		}
	}

	c.logger.Error("enqueue failed after retries",
		zap.String("channel", channelName),
		zap.String("dedupe_key", envelope.Payload.DedupeKey),
		zap.Int("max_retries", MaxRetries),
		zap.Error(lastErr),
	)
	return fmt.Errorf("%w: %v", ErrEnqueueFailed, lastErr)
}

func (c *Client) channelForPublish(channelName string) (realtimeChannel, time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, 0, ErrClosed
	}
	if c.getChannel == nil {
		return nil, 0, ErrNotConnected
	}

	if ch, ok := c.channels[channelName]; ok {
		return ch, c.publishTimeout, nil
	}
	ch := c.getChannel(channelName)
	c.channels[channelName] = ch
	return ch, c.publishTimeout, nil
}

// Close shuts down the client and releases resources.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	close(c.closedCh)

	c.logger.Info("closing queue client")
	if c.client != nil {
		c.client.Close()
	}
	return nil
}

// IsConnected returns true if connected to Ably.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return false
	}
	return c.client.Connection.State() == ably.ConnectionStateConnected
}
