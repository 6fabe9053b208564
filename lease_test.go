package rsocket

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domsolutions/rsocket/rx"
)

func TestLeaseWindowAllowsUntilExhausted(t *testing.T) {
	clock := clockwork.NewFakeClock()
	w := newLeaseWindow(clock)

	assert.False(t, w.allow(), "unarmed window must reject")

	w.grant(2, 1000)
	assert.True(t, w.allow())
	assert.True(t, w.allow())
	assert.False(t, w.allow(), "quota exhausted")
}

func TestLeaseWindowExpires(t *testing.T) {
	clock := clockwork.NewFakeClock()
	w := newLeaseWindow(clock)

	w.grant(5, 100)
	clock.Advance(101 * time.Millisecond)

	assert.False(t, w.allow(), "expired lease must reject regardless of remaining quota")
}

func TestLeaseWindowGrantSupersedes(t *testing.T) {
	clock := clockwork.NewFakeClock()
	w := newLeaseWindow(clock)

	w.grant(1, 1000)
	w.grant(3, 1000)

	assert.True(t, w.allow())
	assert.True(t, w.allow())
	assert.True(t, w.allow())
	assert.False(t, w.allow())
}

// sendTestLease enqueues a LEASE frame granting n requests valid for
// ttlMS milliseconds on stream 0.
func sendTestLease(c *Connection, n, ttlMS uint32) {
	frh := AcquireFrameHeader()
	frh.SetStreamID(0)

	l := AcquireLease()
	l.SetNumberOfRequests(n)
	l.SetTimeToLive(ttlMS)
	frh.SetBody(l)

	c.enqueue(frh)
}

// A client Connection built with WithLeaseEnabled(true) must have its
// own outgoing requests gated on the peer's grants (spec.md §4.5):
// rejected before any LEASE arrives, admitted once one does. Covers
// Connection.consumeLease end to end, not just the standalone
// leaseWindow unit tests above.
func TestConnectionLeaseGatesOutgoingRequests(t *testing.T) {
	clientSide, serverSide := net.Pipe()

	client := NewConnection(clientSide, true, nil, WithKeepalive(0, 0), WithLeaseEnabled(true))
	server := NewConnection(serverSide, false, echoTestHandler{}, WithKeepalive(0, 0))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go server.Run(ctx)
	go client.Run(ctx)
	defer client.Close()
	defer server.Close()
	sendTestSetup(client)

	rejected := newAwaitingSubscriber()
	client.RequestResponse(rx.Payload{Data: []byte("hi")}, rejected)

	select {
	case <-rejected.result:
		t.Fatal("expected rejection before any LEASE grant, got a reply")
	case err := <-rejected.err:
		assert.ErrorIs(t, err, ErrRSocketRejected)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for pre-lease rejection")
	}

	sendTestLease(server, 10, 60000)

	admitted := newAwaitingSubscriber()
	require.Eventually(t, func() bool {
		client.RequestResponse(rx.Payload{Data: []byte("hi")}, admitted)
		select {
		case p := <-admitted.result:
			assert.Equal(t, []byte("echo: hi"), p.Data)
			return true
		case <-admitted.err:
			admitted = newAwaitingSubscriber()
			return false
		case <-time.After(200 * time.Millisecond):
			return false
		}
	}, 2*time.Second, 10*time.Millisecond, "expected admission once LEASE grant arrived")
}

// allow/grant race from different goroutines (allow as a requester
// call would, grant as the read loop would) must not trip the race
// detector.
func TestLeaseWindowConcurrentAccess(t *testing.T) {
	clock := clockwork.NewFakeClock()
	w := newLeaseWindow(clock)
	w.grant(1000, 60000)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			w.allow()
		}
	}()

	for i := 0; i < 200; i++ {
		w.grant(1000, 60000)
	}
	<-done
}
