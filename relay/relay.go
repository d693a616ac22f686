// Package relay implements the inbound event loop for Konan.
//
// The relay subscribes to the device's session-events channel and dispatches
// each product event to the supervision engine. Events are dispatched
// one-in-flight per relay; ordering across sessions is not guaranteed and the
// engine does not need it.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/ably/ably-go/ably"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/unbound-computer/daemon-konan/config"
	"github.com/unbound-computer/daemon-konan/event"
	"github.com/unbound-computer/daemon-konan/supervisor"
)

const inboundBuffer = 16

var ErrShutdown = errors.New("relay shutdown")

type inbound struct {
	name    string
	payload []byte
}

// Relay connects the events channel to the engine.
type Relay struct {
	cfg    *config.Config
	engine *supervisor.Engine
	client *ably.Realtime
	logger *zap.Logger

	mu      sync.Mutex
	running bool
}

// New creates a new Relay.
func New(cfg *config.Config, engine *supervisor.Engine, logger *zap.Logger) (*Relay, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := ably.NewRealtime(
		ably.WithKey(cfg.AblyKey),
		ably.WithAutoConnect(false),
	)
	if err != nil {
		return nil, err
	}

	return &Relay{
		cfg:    cfg,
		engine: engine,
		client: client,
		logger: logger,
	}, nil
}

// Run starts the relay loop. It blocks until the context is cancelled or an
// unrecoverable subscription error occurs.
func (r *Relay) Run(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return errors.New("relay already running")
	}
	r.running = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	r.logger.Info("starting relay",
		zap.String("device_id", r.cfg.DeviceID),
		zap.String("channel", r.cfg.EventsChannel),
	)

	r.client.Connect()
	defer r.client.Close()

	events := make(chan inbound, inboundBuffer)
	channel := r.client.Channels.Get(r.cfg.EventsChannel)

	unsubscribe, err := channel.SubscribeAll(ctx, func(msg *ably.Message) {
		payload, err := payloadBytes(msg.Data)
		if err != nil {
			r.logger.Warn("dropping undecodable message",
				zap.String("event", msg.Name),
				zap.Error(err),
			)
			return
		}
		select {
		case events <- inbound{name: msg.Name, payload: payload}:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return err
	}
	defer unsubscribe()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return r.dispatchLoop(ctx, events)
	})
	group.Go(func() error {
		return r.watchConnection(ctx)
	})

	err = group.Wait()
	if errors.Is(err, context.Canceled) {
		return ErrShutdown
	}
	return err
}

func (r *Relay) dispatchLoop(ctx context.Context, events <-chan inbound) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-events:
			r.dispatch(ctx, msg.name, msg.payload)
		}
	}
}

// dispatch routes one raw product event to the engine. Every event reaches a
// terminal outcome; only enqueue transport failures surface as errors, and
// those are logged rather than stopping the loop.
func (r *Relay) dispatch(ctx context.Context, name string, payload []byte) {
	typ := event.Type(name)
	outcome, err := r.engine.HandleEvent(ctx, typ, payload)
	if err != nil {
		if errors.Is(err, supervisor.ErrUnknownEvent) {
			r.logger.Debug("ignoring unknown event", zap.String("event", name))
			return
		}
		r.logger.Error("event handling failed",
			zap.String("event", name),
			zap.Error(err),
		)
		return
	}

	r.logger.Debug("event handled",
		zap.String("event", name),
		zap.String("outcome", string(outcome)),
	)
}

func (r *Relay) watchConnection(ctx context.Context) error {
	r.client.Connection.OnAll(func(change ably.ConnectionStateChange) {
		switch change.Current {
		case ably.ConnectionStateConnected:
			r.logger.Info("relay Ably client connected",
				zap.String("connection_id", r.client.Connection.ID()),
			)
		case ably.ConnectionStateDisconnected:
			r.logger.Warn("relay Ably client disconnected")
		case ably.ConnectionStateSuspended:
			r.logger.Warn("relay Ably client suspended")
		case ably.ConnectionStateFailed:
			r.logger.Error("relay Ably client failed",
				zap.Error(change.Reason),
			)
		}
	})

	<-ctx.Done()
	return ctx.Err()
}

// payloadBytes normalizes the transport's message data to raw JSON bytes.
func payloadBytes(data any) ([]byte, error) {
	switch v := data.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return json.Marshal(v)
	}
}
