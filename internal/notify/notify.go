// Package notify announces finished builds to interested listeners such as
// viewers that reload on demand.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/docwatch/internal/logfields"
)

// BuildEvent describes one completed pipeline run.
type BuildEvent struct {
	Session    string    `json:"session"`
	Toolchain  string    `json:"toolchain"`
	File       string    `json:"file"`
	Output     string    `json:"output"`
	Trigger    string    `json:"trigger"`
	DurationMS int64     `json:"duration_ms"`
	FinishedAt time.Time `json:"finished_at"`
}

// Notifier receives build events. Implementations must be safe for
// concurrent use and must not block the watch loop for long.
type Notifier interface {
	BuildFinished(ctx context.Context, ev BuildEvent)
}

// Noop discards events.
type Noop struct{}

func (Noop) BuildFinished(context.Context, BuildEvent) {}

// DefaultSubject is the subject prefix events are published under.
const DefaultSubject = "docwatch.builds"

type publisher interface {
	Publish(subject string, data []byte) error
}

// NATSNotifier publishes events as JSON on <subject>.<toolchain>.
type NATSNotifier struct {
	conn    *nats.Conn
	pub     publisher
	subject string
}

// NewNATSNotifier connects to the NATS server at url.
func NewNATSNotifier(url, subject string) (*NATSNotifier, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	conn, err := nats.Connect(url,
		nats.Name("docwatch"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("NATS disconnected", logfields.Error(err))
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	slog.Info("Publishing build events to NATS", logfields.URL(url), logfields.Subject(subject))
	return &NATSNotifier{conn: conn, pub: conn, subject: subject}, nil
}

func (n *NATSNotifier) BuildFinished(_ context.Context, ev BuildEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Warn("Failed to encode build event", logfields.Error(err))
		return
	}
	if err := n.pub.Publish(n.subject+"."+ev.Toolchain, data); err != nil {
		slog.Warn("Failed to publish build event", logfields.Subject(n.subject), logfields.Error(err))
	}
}

// Close flushes pending messages and closes the connection.
func (n *NATSNotifier) Close() {
	if n.conn == nil {
		return
	}
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
	}
}
