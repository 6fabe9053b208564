package routing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domsolutions/rsocket"
	"github.com/domsolutions/rsocket/metadata"
	"github.com/domsolutions/rsocket/rx"
)

func routedPayload(route string, extraEntries ...[]byte) rx.Payload {
	meta := metadata.AppendRoutingEntry(nil, route)
	for _, e := range extraEntries {
		meta = append(meta, e...)
	}
	return rx.Payload{Metadata: meta, HasMetadata: true}
}

func TestRoutingRequestHandlerDispatchesResponse(t *testing.T) {
	r := NewRequestRouter()
	require.NoError(t, r.Response("echo", func(ctx context.Context, p rx.Payload) (rx.Payload, error) {
		return rx.Payload{Data: []byte("ok")}, nil
	}))
	h := NewRoutingRequestHandler(r, nil)

	reply, err := h.RequestResponse(context.Background(), routedPayload("echo"))
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), reply.Data)
}

func TestRoutingRequestHandlerRejectsMissingRoute(t *testing.T) {
	h := NewRoutingRequestHandler(NewRequestRouter(), nil)

	_, err := h.RequestResponse(context.Background(), rx.Payload{})
	var rsErr *rsocket.RSocketError
	require.True(t, errors.As(err, &rsErr))
	assert.Equal(t, rsocket.ErrorRejected, rsErr.Code)
}

// Authentication is required but missing: rejected before route lookup
// even runs, per SPEC_FULL.md §9's Open Question resolution (grounded
// on original_source/tests/rsocket/test_routing.py).
func TestRoutingRequestHandlerRequiresAuthentication(t *testing.T) {
	authenticatorCalled := false
	authenticator := func(route string, auth metadata.Authentication) error {
		authenticatorCalled = true
		return nil
	}
	h := NewRoutingRequestHandler(NewRequestRouter(), authenticator)

	_, err := h.RequestResponse(context.Background(), routedPayload("echo"))
	var rsErr *rsocket.RSocketError
	require.True(t, errors.As(err, &rsErr))
	assert.Equal(t, rsocket.ErrorRejected, rsErr.Code)
	assert.False(t, authenticatorCalled, "authenticator must not run when no authentication metadata is present")
}

// Authentication failure is reported even for a route that would
// otherwise be unknown: the handler never reaches route dispatch
// without a successful authenticator verdict.
func TestRoutingRequestHandlerAuthenticationBeforeUnknownRoute(t *testing.T) {
	authenticator := func(route string, auth metadata.Authentication) error {
		return errors.New("bad credentials")
	}
	h := NewRoutingRequestHandler(NewRequestRouter(), authenticator)

	meta := metadata.AppendRoutingEntry(nil, "never-registered")
	meta = metadata.AppendAuthenticationEntry(meta, metadata.EncodeBearerAuth("tok"))

	_, err := h.RequestResponse(context.Background(), rx.Payload{Metadata: meta, HasMetadata: true})
	var rsErr *rsocket.RSocketError
	require.True(t, errors.As(err, &rsErr))
	assert.Equal(t, rsocket.ErrorRejected, rsErr.Code)
	assert.Contains(t, rsErr.Message, "authentication failed")
}

func TestRoutingRequestHandlerAuthenticationSucceeds(t *testing.T) {
	var gotRoute string
	var gotAuth metadata.Authentication
	authenticator := func(route string, auth metadata.Authentication) error {
		gotRoute, gotAuth = route, auth
		return nil
	}

	r := NewRequestRouter()
	require.NoError(t, r.Response("secure.echo", func(ctx context.Context, p rx.Payload) (rx.Payload, error) {
		return rx.Payload{Data: []byte("ok")}, nil
	}))
	h := NewRoutingRequestHandler(r, authenticator)

	meta := metadata.AppendRoutingEntry(nil, "secure.echo")
	meta = metadata.AppendAuthenticationEntry(meta, metadata.EncodeSimpleAuth("alice", "hunter2"))

	reply, err := h.RequestResponse(context.Background(), rx.Payload{Metadata: meta, HasMetadata: true})
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), reply.Data)
	assert.Equal(t, "secure.echo", gotRoute)
	assert.Equal(t, "alice", gotAuth.Username)
}

func TestRoutingRequestHandlerFireAndForget(t *testing.T) {
	called := false
	r := NewRequestRouter()
	require.NoError(t, r.FireAndForget("notify", func(ctx context.Context, p rx.Payload) error {
		called = true
		return nil
	}))
	h := NewRoutingRequestHandler(r, nil)

	err := h.FireAndForget(context.Background(), routedPayload("notify"))
	require.NoError(t, err)
	assert.True(t, called)
}

func TestRoutingRequestHandlerStreamRejectionDeliversOnError(t *testing.T) {
	h := NewRoutingRequestHandler(NewRequestRouter(), nil)
	sub := &recordingSubscriber{done: make(chan struct{})}

	h.RequestStream(context.Background(), routedPayload("missing"), sub)
	<-sub.done

	require.Error(t, sub.err)
	var rsErr *rsocket.RSocketError
	assert.True(t, errors.As(sub.err, &rsErr))
	assert.Equal(t, rsocket.ErrorRejected, rsErr.Code)
}

type recordingSubscriber struct {
	items []rx.Payload
	err   error
	done  chan struct{}
}

func (s *recordingSubscriber) OnSubscribe(sub rx.Subscription) { sub.Request(1) }
func (s *recordingSubscriber) OnNext(p rx.Payload)              { s.items = append(s.items, p) }
func (s *recordingSubscriber) OnComplete()                      { close(s.done) }
func (s *recordingSubscriber) OnError(err error) {
	s.err = err
	close(s.done)
}
