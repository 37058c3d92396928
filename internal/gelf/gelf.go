// Package gelf ships slog records to a Graylog input as GELF 1.1 over UDP.
package gelf

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"
)

// Handler is a slog.Handler that sends one GELF message per record.
// Sends are fire-and-forget: a lost datagram never fails the log call.
type Handler struct {
	conn     net.Conn
	hostname string
	service  string
	level    slog.Leveler
	attrs    []slog.Attr
	groups   []string
}

// New creates a GELF UDP handler connected to addr (e.g. "172.17.0.1:12201").
func New(addr, service string, level slog.Leveler) (*Handler, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("gelf: dial %s: %w", addr, err)
	}

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = service + "-server"
	}

	return &Handler{conn: conn, hostname: hostname, service: service, level: level}, nil
}

func (h *Handler) Enabled(_ context.Context, l slog.Level) bool {
	min := slog.LevelInfo
	if h.level != nil {
		min = h.level.Level()
	}
	return l >= min
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	msg := map[string]any{
		"version":       "1.1",
		"host":          h.hostname,
		"short_message": r.Message,
		"timestamp":     float64(r.Time.UnixNano()) / 1e9,
		"level":         syslogLevel(r.Level),
		"_service":      h.service,
	}
	if r.Time.IsZero() {
		msg["timestamp"] = float64(time.Now().UnixNano()) / 1e9
	}

	prefix := strings.Join(h.groups, "_")
	for _, a := range h.attrs {
		addField(msg, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		addField(msg, prefix, a)
		return true
	})

	payload, err := json.Marshal(msg)
	if err != nil {
		return nil
	}
	h.conn.Write(payload)
	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	prefix := strings.Join(h.groups, "_")
	nh.attrs = append([]slog.Attr{}, h.attrs...)
	for _, a := range attrs {
		if prefix != "" {
			a.Key = prefix + "_" + a.Key
		}
		nh.attrs = append(nh.attrs, a)
	}
	return &nh
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nh := *h
	nh.groups = append(append([]string{}, h.groups...), name)
	return &nh
}

// Close closes the UDP socket.
func (h *Handler) Close() error {
	return h.conn.Close()
}

func addField(msg map[string]any, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	key := a.Key
	if prefix != "" {
		key = prefix + "_" + key
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			addField(msg, key, ga)
		}
		return
	}
	// "_id" is reserved by GELF.
	if key == "id" {
		key = "id_"
	}
	switch a.Value.Kind() {
	case slog.KindInt64, slog.KindUint64, slog.KindFloat64:
		msg["_"+key] = a.Value.Any()
	default:
		msg["_"+key] = a.Value.String()
	}
}

// syslogLevel maps slog levels onto the syslog severities GELF expects.
func syslogLevel(l slog.Level) int {
	switch {
	case l >= slog.LevelError:
		return 3
	case l >= slog.LevelWarn:
		return 4
	case l >= slog.LevelInfo:
		return 6
	default:
		return 7
	}
}

// Fanout dispatches every record to all handlers that accept its level.
type Fanout []slog.Handler

func (f Fanout) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (f Fanout) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f Fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(Fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f Fanout) WithGroup(name string) slog.Handler {
	out := make(Fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
