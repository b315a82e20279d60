// Package statusevents provides the optional socket.io event sink for task
// lifecycle transitions. Each persisted status write is emitted as one event
// so dashboards can follow runs without polling the status store.
package statusevents

import (
	"context"
	"fmt"
	"net/url"
	"sync/atomic"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/vk/draftpipe/internal/ctxlog"
	"github.com/vk/draftpipe/internal/events"
	"github.com/vk/draftpipe/internal/registry"
	"github.com/vk/draftpipe/internal/taskstore"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Settings is the schema of the `events "socketio" { ... }` provider block.
type Settings struct {
	URL string `hcl:"url"`

	// Namespace is the socket.io namespace to join. Default "/".
	Namespace *string `hcl:"namespace,optional"`

	// EmitEvent is the event name for transitions. Default "task_status".
	EmitEvent *string `hcl:"emit_event,optional"`
}

// Notifier implements events.Notifier over a long-lived socket.io
// connection. The client library buffers emits until the connection is up,
// so Publish never blocks on the handshake.
type Notifier struct {
	io        *socket.Socket
	event     string
	connected atomic.Bool
}

// NewNotifier connects to the configured endpoint and returns the sink.
func NewNotifier(ctx context.Context, settings Settings) (*Notifier, error) {
	logger := ctxlog.FromContext(ctx).With("events", "socketio", "url", settings.URL)

	parsedURL, err := url.Parse(settings.URL)
	if err != nil {
		return nil, fmt.Errorf("status events: parsing url: %w", err)
	}

	namespace := "/"
	if settings.Namespace != nil {
		namespace = *settings.Namespace
	}
	event := "task_status"
	if settings.EmitEvent != nil {
		event = *settings.EmitEvent
	}

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	opts := socket.DefaultOptions()
	if parsedURL.Path != "" {
		opts.SetPath(parsedURL.Path)
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)

	n := &Notifier{io: io, event: event}

	io.On(types.EventName("connect"), func(...any) {
		n.connected.Store(true)
		logger.Info("Status event sink connected.", "namespace", namespace, "sid", io.Id())
	})
	io.On(types.EventName("connect_error"), func(errs ...any) {
		// Transitions keep flowing to the store; the sink just stays quiet.
		logger.Warn("Status event sink connection error.", "error", fmt.Sprint(errs...))
	})
	io.On(types.EventName("disconnect"), func(...any) {
		n.connected.Store(false)
		logger.Warn("Status event sink disconnected.")
	})

	io.Connect()
	return n, nil
}

// Publish implements events.Notifier.
func (n *Notifier) Publish(_ context.Context, taskID string, record taskstore.Record) error {
	payload := map[string]any{
		"task_id":    taskID,
		"status":     string(record.Status),
		"stage":      record.Stage,
		"updated_at": record.UpdatedAt,
	}
	if record.Error != "" {
		payload["error"] = record.Error
	}
	return n.io.Emit(n.event, payload)
}

// Close disconnects the underlying socket.
func (n *Notifier) Close() {
	n.io.Disconnect()
}

// Register registers the provider factory with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterNotifier("socketio", func(ctx context.Context, body hcl.Body) (events.Notifier, error) {
		var settings Settings
		if diags := gohcl.DecodeBody(body, nil, &settings); diags.HasErrors() {
			return nil, fmt.Errorf("decoding status events settings: %w", diags)
		}
		return NewNotifier(ctx, settings)
	})
}
