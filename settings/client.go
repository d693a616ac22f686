// Package settings provides the Unix domain socket client for the session
// settings store.
//
// The store is read-only from the engine's perspective; the client fetches
// the stored supervisor.fileChange namespace for one session. Each request
// uses a fresh connection with a half-close after writing, matching the
// store's one-shot request/response protocol.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// OpSettingsGet is the wire operation for reading a settings key.
	OpSettingsGet = "settings.get.v1"

	// FileChangeNamespace is the settings key holding the file-change
	// supervision configuration.
	FileChangeNamespace = "supervisor.fileChange"

	// DefaultTimeout bounds one request round trip.
	DefaultTimeout = 3 * time.Second
)

var ErrStoreRejected = errors.New("settings store rejected request")

type getRequest struct {
	Op        string `json:"op"`
	RequestID string `json:"request_id"`
	SessionID string `json:"session_id"`
	Scope     string `json:"scope"`
	Key       string `json:"key"`
}

type getResponse struct {
	OK    bool            `json:"ok"`
	Found bool            `json:"found"`
	Value json.RawMessage `json:"value"`
	Error string          `json:"error"`
}

// Client reads session settings over a Unix domain socket.
type Client struct {
	socketPath string
	timeout    time.Duration
	logger     *zap.Logger
}

// NewClient creates a new settings store client.
func NewClient(socketPath string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		socketPath: socketPath,
		timeout:    timeout,
		logger:     logger,
	}
}

// FileChangeSettings fetches the stored supervisor.fileChange object for the
// session. A session with no stored settings returns (nil, nil); the caller
// degrades to the next policy precedence level.
func (c *Client) FileChangeSettings(ctx context.Context, sessionID string) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	requestPayload, err := json.Marshal(getRequest{
		Op:        OpSettingsGet,
		RequestID: uuid.New().String(),
		SessionID: sessionID,
		Scope:     "session",
		Key:       FileChangeNamespace,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to serialize settings request: %w", err)
	}

	dialer := net.Dialer{}
	conn, err := dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to settings store socket: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if _, err := conn.Write(requestPayload); err != nil {
		return nil, fmt.Errorf("failed to write settings request: %w", err)
	}
	if unixConn, ok := conn.(*net.UnixConn); ok {
		_ = unixConn.CloseWrite()
	}

	responsePayload, err := io.ReadAll(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings response: %w", err)
	}

	var response getResponse
	if err := json.Unmarshal(responsePayload, &response); err != nil {
		return nil, fmt.Errorf("invalid settings response: %w", err)
	}
	if !response.OK {
		if response.Error == "" {
			return nil, ErrStoreRejected
		}
		return nil, fmt.Errorf("%w: %s", ErrStoreRejected, response.Error)
	}
	if !response.Found || len(response.Value) == 0 {
		c.logger.Debug("no stored supervision settings",
			zap.String("session_id", sessionID),
		)
		return nil, nil
	}

	var value map[string]any
	if err := json.Unmarshal(response.Value, &value); err != nil {
		return nil, fmt.Errorf("invalid settings value payload: %w", err)
	}
	return value, nil
}
