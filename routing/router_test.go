package routing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domsolutions/rsocket/rx"
)

func TestResponseRouteDispatch(t *testing.T) {
	r := NewRequestRouter()
	require.NoError(t, r.Response("echo", func(ctx context.Context, p rx.Payload) (rx.Payload, error) {
		return rx.Payload{Data: p.Data}, nil
	}))

	reply, err := r.routeResponse(context.Background(), "echo", rx.Payload{Data: []byte("hi")})
	require.NoError(t, err)
	assert.Equal(t, []byte("hi"), reply.Data)
}

func TestResponseUnknownRouteFallsBackThenErrors(t *testing.T) {
	r := NewRequestRouter()

	_, err := r.routeResponse(context.Background(), "missing", rx.Payload{})
	assert.Equal(t, ErrUnknownRoute{Route: "missing"}, err)

	r.ResponseUnknown(func(ctx context.Context, p rx.Payload) (rx.Payload, error) {
		return rx.Payload{Data: []byte("fallback")}, nil
	})
	reply, err := r.routeResponse(context.Background(), "missing", rx.Payload{})
	require.NoError(t, err)
	assert.Equal(t, []byte("fallback"), reply.Data)
}

func TestRegisterEmptyRoute(t *testing.T) {
	r := NewRequestRouter()
	assert.ErrorIs(t, r.Response("", noopResponse), ErrEmptyRoute)
	assert.ErrorIs(t, r.Stream("", noopStream), ErrEmptyRoute)
	assert.ErrorIs(t, r.Channel("", noopChannel), ErrEmptyRoute)
	assert.ErrorIs(t, r.FireAndForget("", noopFNF), ErrEmptyRoute)
	assert.ErrorIs(t, r.MetadataPush("", noopPush), ErrEmptyRoute)
}

// Duplicate registration under the same route and the same interaction
// model is rejected (SPEC_FULL.md §9, grounded on
// original_source/tests/rsocket/test_routing.py).
func TestRegisterDuplicateRoute(t *testing.T) {
	r := NewRequestRouter()
	require.NoError(t, r.Response("echo", noopResponse))
	assert.ErrorIs(t, r.Response("echo", noopResponse), ErrDuplicateRoute)
}

// The same route string may be registered independently per
// interaction model — the five route maps are distinct namespaces.
func TestSameRouteDifferentModelsIndependent(t *testing.T) {
	r := NewRequestRouter()
	require.NoError(t, r.Response("echo", noopResponse))
	require.NoError(t, r.Stream("echo", noopStream))
	require.NoError(t, r.Channel("echo", noopChannel))
	require.NoError(t, r.FireAndForget("echo", noopFNF))
	require.NoError(t, r.MetadataPush("echo", noopPush))
}

func TestFireAndForgetDispatch(t *testing.T) {
	r := NewRequestRouter()
	called := false
	require.NoError(t, r.FireAndForget("notify", func(ctx context.Context, p rx.Payload) error {
		called = true
		return nil
	}))

	err := r.routeFireAndForget(context.Background(), "notify", rx.Payload{})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestStreamUnknownRouteError(t *testing.T) {
	r := NewRequestRouter()
	err := r.routeStream(context.Background(), "missing", rx.Payload{}, nil)
	assert.Equal(t, ErrUnknownRoute{Route: "missing"}, err)
}

func TestChannelDispatch(t *testing.T) {
	r := NewRequestRouter()
	require.NoError(t, r.Channel("chat", func(ctx context.Context, p rx.Payload, requester rx.Publisher) rx.Publisher {
		return rx.NewChannelPublisher(0)
	}))

	reply, err := r.routeChannel(context.Background(), "chat", rx.Payload{}, nil)
	require.NoError(t, err)
	assert.NotNil(t, reply)
}

func TestErrUnknownRouteMessage(t *testing.T) {
	err := ErrUnknownRoute{Route: "foo"}
	assert.Contains(t, err.Error(), "foo")
}

func noopResponse(ctx context.Context, p rx.Payload) (rx.Payload, error) { return rx.Payload{}, nil }
func noopStream(ctx context.Context, p rx.Payload, sub rx.Subscriber)    {}
func noopChannel(ctx context.Context, p rx.Payload, requester rx.Publisher) rx.Publisher {
	return nil
}
func noopFNF(ctx context.Context, p rx.Payload) error { return nil }
func noopPush(ctx context.Context, metadata []byte)   {}
