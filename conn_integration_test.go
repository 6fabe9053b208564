package rsocket

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domsolutions/rsocket/rx"
)

// sendTestSetup enqueues a minimally valid SETUP frame on c, mirroring
// Client.sendSetup — every responder Connection now rejects any other
// frame arriving first (spec.md §4.7), so integration tests driving a
// Connection directly (bypassing Client) must send one themselves.
func sendTestSetup(c *Connection) {
	frh := AcquireFrameHeader()
	frh.SetStreamID(0)

	s := AcquireSetup()
	s.SetMimeTypes("application/octet-stream", "application/octet-stream")
	frh.SetBody(s)

	c.enqueue(frh)
}

type echoTestHandler struct {
	UnimplementedHandler
	fnfReceived chan rx.Payload
}

func (echoTestHandler) RequestResponse(ctx context.Context, p rx.Payload) (rx.Payload, error) {
	return rx.Payload{Data: append([]byte("echo: "), p.Data...)}, nil
}

func (h echoTestHandler) FireAndForget(ctx context.Context, p rx.Payload) error {
	if h.fnfReceived != nil {
		h.fnfReceived <- p
	}
	return nil
}

func (echoTestHandler) RequestStream(ctx context.Context, p rx.Payload, sub rx.Subscriber) {
	pub := rx.NewChannelPublisher(4)
	go func() {
		for i := 0; i < 3; i++ {
			pub.Emit(rx.Payload{Data: p.Data, Complete: i == 2})
		}
	}()
	pub.Subscribe(sub)
}

// End-to-end REQUEST_RESPONSE over an in-memory transport: two
// Connections, one per side of net.Pipe, driven by Run the same way
// Client/Server wire them up (spec.md §8's "single request/response
// round trip" testable property).
func TestConnectionRequestResponseRoundTrip(t *testing.T) {
	clientSide, serverSide := net.Pipe()

	client := NewConnection(clientSide, true, nil, WithKeepalive(0, 0))
	server := NewConnection(serverSide, false, echoTestHandler{}, WithKeepalive(0, 0))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go server.Run(ctx)
	go client.Run(ctx)
	defer client.Close()
	defer server.Close()
	sendTestSetup(client)

	sub := newAwaitingSubscriber()
	client.RequestResponse(rx.Payload{Data: []byte("hi")}, sub)

	select {
	case p := <-sub.result:
		assert.Equal(t, []byte("echo: hi"), p.Data)
	case err := <-sub.err:
		t.Fatalf("unexpected error: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reply")
	}
}

// A responder with no handler rejects every REQUEST_RESPONSE with
// ErrorRejected, surfaced to the requester's subscriber.
func TestConnectionRequestResponseNoHandlerRejects(t *testing.T) {
	clientSide, serverSide := net.Pipe()

	client := NewConnection(clientSide, true, nil, WithKeepalive(0, 0))
	server := NewConnection(serverSide, false, nil, WithKeepalive(0, 0))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go server.Run(ctx)
	go client.Run(ctx)
	defer client.Close()
	defer server.Close()
	sendTestSetup(client)

	sub := newAwaitingSubscriber()
	client.RequestResponse(rx.Payload{Data: []byte("hi")}, sub)

	select {
	case <-sub.result:
		t.Fatal("expected rejection, got a reply")
	case err := <-sub.err:
		require.Error(t, err)
		rsErr, ok := err.(*RSocketError)
		require.True(t, ok)
		assert.Equal(t, ErrorRejected, rsErr.Code)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for rejection")
	}
}

// Closing a Connection delivers ErrDisconnected to every still-live
// stream's subscriber (spec.md §7).
func TestConnectionCloseNotifiesLiveStreams(t *testing.T) {
	clientSide, serverSide := net.Pipe()
	defer serverSide.Close()

	client := NewConnection(clientSide, true, nil, WithKeepalive(0, 0))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Run(ctx)

	sub := newAwaitingSubscriber()
	client.RequestResponse(rx.Payload{Data: []byte("hi")}, sub)

	require.NoError(t, client.Close())

	select {
	case err := <-sub.err:
		assert.ErrorIs(t, err, ErrDisconnected)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for disconnect notification")
	}
}

// REQUEST_FNF carries no reply in either direction (spec.md §4.4.2).
func TestConnectionFireAndForgetDelivered(t *testing.T) {
	clientSide, serverSide := net.Pipe()

	received := make(chan rx.Payload, 1)
	client := NewConnection(clientSide, true, nil, WithKeepalive(0, 0))
	server := NewConnection(serverSide, false, echoTestHandler{fnfReceived: received}, WithKeepalive(0, 0))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go server.Run(ctx)
	go client.Run(ctx)
	defer client.Close()
	defer server.Close()
	sendTestSetup(client)

	require.NoError(t, client.FireAndForget(rx.Payload{Data: []byte("notify")}))

	select {
	case p := <-received:
		assert.Equal(t, []byte("notify"), p.Data)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for fire-and-forget delivery")
	}
}

// REQUEST_STREAM delivers multiple replies, the last carrying the
// terminal is-complete signal (spec.md §4.4.3).
func TestConnectionRequestStreamDeliversMultipleItems(t *testing.T) {
	clientSide, serverSide := net.Pipe()

	client := NewConnection(clientSide, true, nil, WithKeepalive(0, 0))
	server := NewConnection(serverSide, false, echoTestHandler{}, WithKeepalive(0, 0))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go server.Run(ctx)
	go client.Run(ctx)
	defer client.Close()
	defer server.Close()
	sendTestSetup(client)

	sub := &streamCollector{done: make(chan struct{})}
	client.RequestStream(rx.Payload{Data: []byte("x")}, 10, sub)

	select {
	case <-sub.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for stream completion")
	}

	require.Len(t, sub.items, 3)
	assert.True(t, sub.items[2].Complete)
	assert.Nil(t, sub.err)
}

type streamCollector struct {
	items []rx.Payload
	err   error
	done  chan struct{}
}

func (s *streamCollector) OnSubscribe(sub rx.Subscription) { sub.Request(10) }
func (s *streamCollector) OnNext(p rx.Payload) {
	s.items = append(s.items, p)
	if p.Complete {
		close(s.done)
	}
}
func (s *streamCollector) OnComplete() { close(s.done) }
func (s *streamCollector) OnError(err error) {
	s.err = err
	close(s.done)
}
