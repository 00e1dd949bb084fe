package gemini

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type call struct {
	key string
}

func newTestClient(keys []string, invoke invokeFunc) *Client {
	c := New(keys, "test-model", zap.NewNop())
	c.baseBackoff = time.Millisecond
	c.invoke = invoke
	return c
}

func TestTransientErrorRetriesSameKey(t *testing.T) {
	var calls []call
	attempts := 0
	c := newTestClient([]string{"key-1", "key-2"}, func(ctx context.Context, apiKey string, req request) (string, error) {
		calls = append(calls, call{key: apiKey})
		attempts++
		if attempts < 3 {
			return "", errors.New("503 Service Unavailable: model overloaded")
		}
		return "recovered", nil
	})

	text, err := c.ContinueChat(context.Background(), nil, "hello")
	require.NoError(t, err)
	require.Equal(t, "recovered", text)

	// Two transient failures and the success all land on the first key.
	require.Len(t, calls, 3)
	for _, cl := range calls {
		require.Equal(t, "key-1", cl.key)
	}
}

func TestPermanentErrorRotatesKeyImmediately(t *testing.T) {
	var calls []call
	c := newTestClient([]string{"key-1", "key-2"}, func(ctx context.Context, apiKey string, req request) (string, error) {
		calls = append(calls, call{key: apiKey})
		if apiKey == "key-1" {
			return "", errors.New("400 invalid request")
		}
		return "from second key", nil
	})

	text, err := c.ContinueChat(context.Background(), nil, "hello")
	require.NoError(t, err)
	require.Equal(t, "from second key", text)
	require.Equal(t, []call{{key: "key-1"}, {key: "key-2"}}, calls)
}

func TestAllKeysExhausted(t *testing.T) {
	attempts := 0
	c := newTestClient([]string{"key-1", "key-2"}, func(ctx context.Context, apiKey string, req request) (string, error) {
		attempts++
		return "", errors.New("503 still overloaded")
	})

	_, err := c.ContinueChat(context.Background(), nil, "hello")
	require.ErrorIs(t, err, ErrExhausted)

	// Every slot gets its full attempt budget before giving up.
	require.Equal(t, 2*c.maxAttempts, attempts)
}

func TestInvalidJSONRotatesKey(t *testing.T) {
	var calls []call
	c := newTestClient([]string{"key-1", "key-2"}, func(ctx context.Context, apiKey string, req request) (string, error) {
		calls = append(calls, call{key: apiKey})
		if apiKey == "key-1" {
			return "this is not json", nil
		}
		return `{"summary": "ok"}`, nil
	})

	result, err := c.AnalyzeDocument(context.Background(), []byte("doc"), "application/pdf", "")
	require.NoError(t, err)
	require.JSONEq(t, `{"summary": "ok"}`, string(result))
	require.Equal(t, []call{{key: "key-1"}, {key: "key-2"}}, calls)
}

func TestNoKeysConfigured(t *testing.T) {
	c := newTestClient(nil, nil)

	_, err := c.ContinueChat(context.Background(), nil, "hello")
	require.ErrorIs(t, err, ErrExhausted)
}

func TestCancelledContextStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := newTestClient([]string{"key-1"}, func(ctx context.Context, apiKey string, req request) (string, error) {
		cancel()
		return "", errors.New("503 overloaded")
	})

	_, err := c.ContinueChat(ctx, nil, "hello")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrExhausted)
	require.ErrorIs(t, err, context.Canceled)
}

func TestEmptyKeysAreSkipped(t *testing.T) {
	c := New([]string{"", "key-1", ""}, "", zap.NewNop())
	require.Equal(t, []string{"key-1"}, c.keys)
	require.Equal(t, defaultModel, c.model)
}
