package rsocket

import (
	"context"

	"github.com/domsolutions/rsocket/rx"
)

// await.go gives callers that don't want to hand-roll an rx.Subscriber
// a plain future-returning call for a single-reply interaction.
// Grounded on the teacher's ClientStream (client.go): a single
// buffered reader channel plus an err channel awaited by Do(), the
// same "one result, one error, one channel read" shape generalized
// from an HTTP/2 response to an RSocket reply payload.
type awaitingSubscriber struct {
	result chan rx.Payload
	err    chan error
	sub    rx.Subscription
}

func newAwaitingSubscriber() *awaitingSubscriber {
	return &awaitingSubscriber{
		result: make(chan rx.Payload, 1),
		err:    make(chan error, 1),
	}
}

func (a *awaitingSubscriber) OnSubscribe(sub rx.Subscription) {
	a.sub = sub
	sub.Request(1)
}

func (a *awaitingSubscriber) OnNext(p rx.Payload) {
	a.result <- p
}

func (a *awaitingSubscriber) OnComplete() {}

func (a *awaitingSubscriber) OnError(err error) {
	a.err <- err
}

// Await sends payload as a REQUEST_RESPONSE over c and blocks until the
// single reply arrives, ctx is cancelled, or the stream errors.
func Await(ctx context.Context, c *Client, payload rx.Payload) (rx.Payload, error) {
	sub := newAwaitingSubscriber()
	c.RequestResponse(payload, sub)

	select {
	case p := <-sub.result:
		return p, nil
	case err := <-sub.err:
		return rx.Payload{}, err
	case <-ctx.Done():
		if sub.sub != nil {
			sub.sub.Cancel()
		}
		return rx.Payload{}, ctx.Err()
	}
}
