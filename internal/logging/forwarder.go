package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type forwardPayload struct {
	Source   string            `json:"source"`
	Level    string            `json:"level"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// forwardSender ships log entries to an external collector over HTTP. The
// channel is bounded; entries are dropped rather than blocking the caller
// when the collector falls behind.
type forwardSender struct {
	baseURL string
	apiKey  string
	source  string
	client  *http.Client
	ch      chan forwardPayload
}

func newForwardSender(baseURL, apiKey string) *forwardSender {
	return &forwardSender{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		source:  filepath.Base(os.Args[0]),
		client:  &http.Client{Timeout: 3 * time.Second},
		ch:      make(chan forwardPayload, 200),
	}
}

func (s *forwardSender) start() {
	go func() {
		for payload := range s.ch {
			body, _ := json.Marshal(payload)
			req, err := http.NewRequest(http.MethodPost, s.baseURL+"/v1/logs", bytes.NewReader(body))
			if err != nil {
				continue
			}
			req.Header.Set("Content-Type", "application/json")
			if s.apiKey != "" {
				req.Header.Set("Authorization", "Bearer "+s.apiKey)
			}
			_, _ = s.client.Do(req)
		}
	}()
}

func attachForwarder(logger *zap.Logger, baseURL, apiKey string) *zap.Logger {
	sender := newForwardSender(baseURL, apiKey)
	sender.start()
	sink := &forwardCore{
		level:  zapcore.InfoLevel,
		sender: sender,
	}
	return logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, sink)
	}))
}

type forwardCore struct {
	level  zapcore.LevelEnabler
	fields []zapcore.Field
	sender *forwardSender
}

func (c *forwardCore) Enabled(level zapcore.Level) bool {
	return c.level.Enabled(level)
}

func (c *forwardCore) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.fields = append(clone.fields, fields...)
	return &clone
}

func (c *forwardCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

func (c *forwardCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}
	metadata := map[string]string{}
	for k, v := range enc.Fields {
		metadata[k] = fmt.Sprint(v)
	}
	payload := forwardPayload{
		Source:   c.sender.source,
		Level:    entry.Level.String(),
		Message:  entry.Message,
		Metadata: metadata,
	}
	select {
	case c.sender.ch <- payload:
	default:
	}
	return nil
}

func (c *forwardCore) Sync() error { return nil }
