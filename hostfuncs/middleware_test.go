package hostfuncs

import (
	"bytes"
	"context"
	"encoding/json"
	stdErrors "errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/sexpbridge/domain/entities"
	"github.com/reglet-dev/sexpbridge/domain/errors"
	"github.com/reglet-dev/sexpbridge/internal/testutil"
)

func TestPanicRecoveryMiddleware(t *testing.T) {
	tests := []struct {
		name    string
		handler ByteHandler
		want    string
		wantErr string
	}{
		{
			name:    "plain panic",
			handler: func(context.Context, []byte) ([]byte, error) { panic("lost a gopher") },
			wantErr: "INTERNAL_ERROR",
			want:    "lost a gopher",
		},
		{
			name:    "panic with error",
			handler: func(context.Context, []byte) ([]byte, error) { panic(stdErrors.New("heap corrupt")) },
			wantErr: "INTERNAL_ERROR",
			want:    "heap corrupt",
		},
		{
			name:    "no panic",
			handler: func(context.Context, []byte) ([]byte, error) { return []byte(`{"ok":true}`), nil },
			want:    `{"ok":true}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := PanicRecoveryMiddleware()(tt.handler)(context.Background(), nil)
			require.NoError(t, err)
			if tt.wantErr == "" {
				assert.Equal(t, tt.want, string(resp))
				return
			}
			var errResp ErrorResponse
			require.NoError(t, json.Unmarshal(resp, &errResp))
			assert.Equal(t, tt.wantErr, errResp.Error)
			assert.Equal(t, 500, errResp.Code)
			assert.Contains(t, errResp.Message, tt.want)
		})
	}
}

func TestMiddleware_AppliesToAllHandlers(t *testing.T) {
	handlerCalls := make(map[string]bool)

	trackingMiddleware := func(next ByteHandler) ByteHandler {
		return func(ctx context.Context, payload []byte) ([]byte, error) {
			if hc, ok := ctx.(HostContext); ok {
				handlerCalls[hc.FunctionName()] = true
			}
			return next(ctx, payload)
		}
	}

	handler1 := func(ctx context.Context, payload []byte) ([]byte, error) {
		return nil, nil
	}
	handler2 := func(ctx context.Context, payload []byte) ([]byte, error) {
		return nil, nil
	}

	reg, err := NewRegistry(
		WithMiddleware(trackingMiddleware),
		WithByteHandler("handler1", handler1),
		WithByteHandler("handler2", handler2),
	)
	require.NoError(t, err)

	_, _ = reg.Invoke(context.Background(), "handler1", nil)
	_, _ = reg.Invoke(context.Background(), "handler2", nil)

	assert.True(t, handlerCalls["handler1"])
	assert.True(t, handlerCalls["handler2"])
}

func TestPanicRecoveryMiddleware_RepanicsNativeError(t *testing.T) {
	fatal := func(ctx context.Context, payload []byte) ([]byte, error) {
		panic(&errors.RError{Message: "boom"})
	}

	wrapped := PanicRecoveryMiddleware()(fatal)

	rerr := testutil.RequireRError(t, func() {
		_, _ = wrapped(context.Background(), nil)
	})
	assert.Equal(t, "boom", rerr.Message)
}

func TestPanicRecoveryMiddleware_ContractViolation(t *testing.T) {
	h := func(ctx context.Context, payload []byte) ([]byte, error) {
		panic(&errors.TypeError{Op: "STRING_ELT", Want: entities.STRSXP, Got: entities.VECSXP})
	}

	resp, err := PanicRecoveryMiddleware()(h)(context.Background(), nil)
	require.NoError(t, err)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(resp, &errResp))
	assert.Equal(t, "CONTRACT_VIOLATION", errResp.Error)
	require.NotNil(t, errResp.Detail)
	assert.Equal(t, "type", errResp.Detail.Type)
	assert.Equal(t, "STRING_ELT", errResp.Detail.Code)
}

func TestLoggingMiddleware(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	handler := func(ctx context.Context, payload []byte) ([]byte, error) {
		hc := HostContextFrom(ctx, "")
		hc.SetValue(requestIDValue{}, "req-7")
		return []byte("ok"), nil
	}
	failing := func(ctx context.Context, payload []byte) ([]byte, error) {
		return nil, stdErrors.New("bad payload")
	}

	reg, err := NewRegistry(
		WithMiddleware(LoggingMiddleware(logger)),
		WithByteHandler("test", handler),
		WithByteHandler("broken", failing),
	)
	require.NoError(t, err)

	_, err = reg.Invoke(context.Background(), "test", nil)
	require.NoError(t, err)
	_, err = reg.Invoke(context.Background(), "broken", nil)
	require.Error(t, err)

	out := logs.String()
	assert.Contains(t, out, "invoking host function")
	assert.Contains(t, out, "host function completed")
	assert.Contains(t, out, "function=test")
	assert.Contains(t, out, "request_id=req-7")
	assert.Contains(t, out, "host function failed")
	assert.Contains(t, out, "bad payload")
}

func TestLoggingMiddleware_SilentAboveDebug(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelInfo}))

	wrapped := LoggingMiddleware(logger)(func(ctx context.Context, payload []byte) ([]byte, error) {
		return nil, nil
	})
	_, err := wrapped(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, logs.String())
}
