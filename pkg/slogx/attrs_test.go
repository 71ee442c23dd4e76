package slogx

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestAttrs(t *testing.T) {
	id := uuid.MustParse("0192f3a4-0000-7000-8000-000000000001")
	tests := []struct {
		name string
		attr slog.Attr
		key  string
		want string
	}{
		{name: "error", attr: Error(errors.New("boom")), key: "error", want: "boom"},
		{name: "stringer", attr: Stringer("conn_id", id), key: "conn_id", want: id.String()},
		{name: "logger", attr: LoggerName("transport"), key: KeyLoggerName, want: "transport"},
		{name: "dialect", attr: Dialect("anthropic"), key: KeyDialect, want: "anthropic"},
		{name: "model", attr: Model("gpt-4o"), key: KeyModel, want: "gpt-4o"},
		{name: "named event", attr: Event("message_start"), key: KeyEvent, want: "message_start"},
		{name: "unnamed event", attr: Event(""), key: KeyEvent, want: "message"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.key, tt.attr.Key)
			assert.Equal(t, tt.want, tt.attr.Value.String())
		})
	}
}

func TestError_NilIsDropped(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
	logger.Info("done", Error(nil))
	assert.Equal(t, "level=INFO msg=done\n", buf.String())
}
