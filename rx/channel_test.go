package rx

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingSubscriber struct {
	sub       Subscription
	items     []Payload
	completed bool
	err       error
	done      chan struct{}
}

func newCapturingSubscriber() *capturingSubscriber {
	return &capturingSubscriber{done: make(chan struct{})}
}

func (c *capturingSubscriber) OnSubscribe(s Subscription) { c.sub = s }
func (c *capturingSubscriber) OnNext(p Payload)           { c.items = append(c.items, p) }
func (c *capturingSubscriber) OnComplete() {
	c.completed = true
	close(c.done)
}
func (c *capturingSubscriber) OnError(err error) {
	c.err = err
	close(c.done)
}

func TestChannelPublisherEmitsInOrderThenCompletes(t *testing.T) {
	p := NewChannelPublisher(4)
	sub := newCapturingSubscriber()
	p.Subscribe(sub)
	sub.sub.Request(3)

	p.Emit(Payload{Data: []byte("a")})
	p.Emit(Payload{Data: []byte("b")})
	p.Complete()

	select {
	case <-sub.done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for completion")
	}

	require.Len(t, sub.items, 2)
	assert.Equal(t, []byte("a"), sub.items[0].Data)
	assert.Equal(t, []byte("b"), sub.items[1].Data)
	assert.True(t, sub.completed)
	assert.Nil(t, sub.err)
}

func TestChannelPublisherError(t *testing.T) {
	p := NewChannelPublisher(1)
	sub := newCapturingSubscriber()
	p.Subscribe(sub)
	sub.sub.Request(1)

	boom := errors.New("boom")
	p.Error(boom)

	select {
	case <-sub.done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for error")
	}

	assert.Equal(t, boom, sub.err)
	assert.False(t, sub.completed)
}

// OnNext with Complete=true is itself the terminal signal: the pump
// must stop without a separate OnComplete call (spec.md §4.3).
func TestChannelPublisherOnNextCompleteIsTerminal(t *testing.T) {
	p := NewChannelPublisher(1)
	sub := newCapturingSubscriber()
	p.Subscribe(sub)
	sub.sub.Request(1)

	p.Emit(Payload{Data: []byte("last"), Complete: true})

	deadline := time.After(time.Second)
	for len(sub.items) == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for terminal item")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	assert.Len(t, sub.items, 1)
	assert.False(t, sub.completed, "OnComplete must not fire after an is-complete OnNext")
}

func TestChannelPublisherRespectsCredit(t *testing.T) {
	p := NewChannelPublisher(4)
	sub := newCapturingSubscriber()
	p.Subscribe(sub)

	p.Emit(Payload{Data: []byte("a")})
	p.Emit(Payload{Data: []byte("b")})

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, sub.items, "no items should be delivered before credit is requested")

	sub.sub.Request(2)
	deadline := time.After(time.Second)
	for len(sub.items) < 2 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for credited items")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	assert.Len(t, sub.items, 2)
}

func TestChannelPublisherCancelStopsPump(t *testing.T) {
	p := NewChannelPublisher(4)
	sub := newCapturingSubscriber()
	p.Subscribe(sub)
	sub.sub.Request(1)
	sub.sub.Cancel()

	p.Emit(Payload{Data: []byte("after-cancel")})

	select {
	case <-sub.done:
		t.Fatal("cancelled subscriber must not receive a terminal signal")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Empty(t, sub.items)
}
