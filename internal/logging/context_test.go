// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestGenerateCorrelationID(t *testing.T) {
	t.Parallel()

	a := GenerateCorrelationID()
	b := GenerateCorrelationID()
	if len(a) != 8 {
		t.Errorf("expected 8 characters, got %d (%q)", len(a), a)
	}
	if a == b {
		t.Error("expected distinct correlation IDs")
	}
}

func TestGenerateRequestID(t *testing.T) {
	t.Parallel()

	id := GenerateRequestID()
	if len(id) != 36 {
		t.Errorf("expected UUID length 36, got %d", len(id))
	}
}

func TestContextIDs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if CorrelationIDFromContext(ctx) != "" || RequestIDFromContext(ctx) != "" || UserIDFromContext(ctx) != "" {
		t.Fatal("expected empty IDs on a bare context")
	}

	ctx = ContextWithCorrelationID(ctx, "corr-1")
	ctx = ContextWithRequestID(ctx, "req-1")
	ctx = ContextWithUserID(ctx, "user-1")

	if got := CorrelationIDFromContext(ctx); got != "corr-1" {
		t.Errorf("correlation ID = %q", got)
	}
	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Errorf("request ID = %q", got)
	}
	if got := UserIDFromContext(ctx); got != "user-1" {
		t.Errorf("user ID = %q", got)
	}
}

func TestContextWithNewCorrelationID(t *testing.T) {
	t.Parallel()

	ctx := ContextWithNewCorrelationID(context.Background())
	if CorrelationIDFromContext(ctx) == "" {
		t.Error("expected a generated correlation ID")
	}
}

func TestCtx(t *testing.T) {
	restoreGlobal(t)
	var buf bytes.Buffer
	Init(Config{Level: "info", Output: &buf})

	ctx := ContextWithRequestID(context.Background(), "req-42")
	ctx = ContextWithUserID(ctx, "alice")
	Ctx(ctx).Info().Msg("with ids")

	output := buf.String()
	if !strings.Contains(output, `"request_id":"req-42"`) {
		t.Errorf("expected request_id, got: %s", output)
	}
	if !strings.Contains(output, `"user_id":"alice"`) {
		t.Errorf("expected user_id, got: %s", output)
	}
	if strings.Contains(output, "correlation_id") {
		t.Errorf("did not expect correlation_id, got: %s", output)
	}
}

func TestCtxWith(t *testing.T) {
	restoreGlobal(t)
	var buf bytes.Buffer
	Init(Config{Level: "info", Output: &buf})

	ctx := ContextWithCorrelationID(context.Background(), "abc12345")
	logger := CtxWith(ctx).Str("component", "batch").Logger()
	logger.Info().Msg("scoped")

	output := buf.String()
	if !strings.Contains(output, `"correlation_id":"abc12345"`) || !strings.Contains(output, `"component":"batch"`) {
		t.Errorf("unexpected output: %s", output)
	}
}
