package rsocket

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domsolutions/rsocket/rx"
)

type echoHandler struct {
	UnimplementedHandler
}

func (echoHandler) RequestResponse(ctx context.Context, p rx.Payload) (rx.Payload, error) {
	return rx.Payload{Data: p.Data}, nil
}

func TestRouteRegistryRegisterAndLookup(t *testing.T) {
	reg := NewRouteRegistry()
	h := echoHandler{}

	require.NoError(t, reg.Register("echo", h))

	got, ok := reg.Lookup("echo")
	require.True(t, ok)
	assert.Equal(t, h, got)

	_, ok = reg.Lookup("missing")
	assert.False(t, ok)
}

func TestRouteRegistryRejectsEmptyRoute(t *testing.T) {
	reg := NewRouteRegistry()
	assert.ErrorIs(t, reg.Register("", echoHandler{}), ErrEmptyRoute)
}

func TestRouteRegistryRejectsDuplicateRoute(t *testing.T) {
	reg := NewRouteRegistry()
	require.NoError(t, reg.Register("echo", echoHandler{}))
	assert.ErrorIs(t, reg.Register("echo", echoHandler{}), ErrDuplicateRoute)
}

// UnimplementedHandler rejects request-response, fire-and-forget and
// request-stream with ErrorRejected, and returns a nil publisher for
// request-channel (spec.md §6 "Handler API").
func TestUnimplementedHandlerDefaults(t *testing.T) {
	var h UnimplementedHandler

	_, err := h.RequestResponse(context.Background(), rx.Payload{})
	assertRejected(t, err)

	err = h.FireAndForget(context.Background(), rx.Payload{})
	assertRejected(t, err)

	sub := &recordingSubscriber{done: make(chan struct{})}
	h.RequestStream(context.Background(), rx.Payload{}, sub)
	assertRejected(t, sub.err)

	assert.Nil(t, h.RequestChannel(context.Background(), rx.Payload{}, nil))
}

func assertRejected(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	rsErr, ok := err.(*RSocketError)
	require.True(t, ok)
	assert.Equal(t, ErrorRejected, rsErr.Code)
}

type recordingSubscriber struct {
	err  error
	done chan struct{}
}

func (s *recordingSubscriber) OnSubscribe(sub rx.Subscription) {}
func (s *recordingSubscriber) OnNext(p rx.Payload)              {}
func (s *recordingSubscriber) OnComplete()                      { close(s.done) }
func (s *recordingSubscriber) OnError(err error) {
	s.err = err
	close(s.done)
}
