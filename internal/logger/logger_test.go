package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextHandlerAddsAttrs(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewContextHandler(slog.NewJSONHandler(&buf, nil)))

	ctx := Ctx(context.Background(), slog.String("feed", "scrapped"))
	l.InfoContext(ctx, "page served")

	assert.Contains(t, buf.String(), `"feed":"scrapped"`)
}

func TestContextHandlerWithoutAttrs(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewContextHandler(slog.NewJSONHandler(&buf, nil)))

	l.InfoContext(context.Background(), "no decorations")

	assert.Contains(t, buf.String(), `"msg":"no decorations"`)
}

func TestCtxDoesNotLeakAcrossSiblings(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewContextHandler(slog.NewJSONHandler(&buf, nil)))

	base := Ctx(context.Background(), slog.String("request_id", "r-1"))
	a := Ctx(base, slog.String("feed", "titles"))
	b := Ctx(base, slog.String("feed", "subscribed"))

	l.InfoContext(a, "a")
	l.InfoContext(b, "b")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	assert.Contains(t, string(lines[0]), `"feed":"titles"`)
	assert.Contains(t, string(lines[1]), `"feed":"subscribed"`)
	assert.NotContains(t, string(lines[1]), "titles")
}

func TestWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewContextHandler(slog.NewJSONHandler(&buf, nil)))

	l.InfoContext(WithRequestID(context.Background()), "request received")

	assert.Contains(t, buf.String(), `"request_id":`)
}
