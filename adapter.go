package rsocket

import "github.com/domsolutions/rsocket/rx"

// adapter.go wires the transport-agnostic rx.Publisher/Subscriber
// contract onto wire frames for a single stream. Grounded on the
// teacher's adaptor.go (translation layer between the HTTP/2 frame
// core and fasthttp's request/response types, kept outside the core
// engine) — here the translation is between frames and rx's four
// method interfaces instead of fasthttp types.

// wireSubscription is handed to a LOCAL subscriber that is consuming a
// REMOTE publisher's items (e.g. the requester side of
// RequestStream/RequestResponse, or the responder side reading a
// REQUEST_CHANNEL's inbound payloads). Request/Cancel translate
// directly into REQUEST_N/CANCEL wire frames on streamID.
type wireSubscription struct {
	conn     *Connection
	streamID uint32
}

func (w *wireSubscription) Request(n int) {
	if n <= 0 {
		return
	}
	frh := AcquireFrameHeader()
	frh.SetStreamID(w.streamID)
	rn := AcquireRequestN()
	rn.SetN(uint32(n))
	frh.SetBody(rn)
	w.conn.enqueue(frh)
}

func (w *wireSubscription) Cancel() {
	frh := AcquireFrameHeader()
	frh.SetStreamID(w.streamID)
	frh.SetBody(AcquireCancel())
	w.conn.enqueue(frh)
	w.conn.closeStream(w.streamID)
}

// wirePublisher represents a remote peer's ongoing payload stream for
// one local stream entry. Subscribing attaches sub to the Stream entry
// so conn.go's handlePayloadFrame/handleErrorFrame can deliver
// OnNext/OnComplete/OnError as frames arrive.
type wirePublisher struct {
	conn   *Connection
	stream *Stream
}

func (p *wirePublisher) Subscribe(sub rx.Subscriber) {
	p.stream.SetSubscriber(sub)
	sub.OnSubscribe(&wireSubscription{conn: p.conn, streamID: p.stream.ID()})
}

// wireSubscriber receives items from a LOCAL producer (an application
// handler, or the requester's own initial payload for a
// REQUEST_CHANNEL) and writes them to the wire as PAYLOAD frames. Its
// OnSubscribe captures the producer's Subscription so that wire-level
// REQUEST_N/CANCEL frames arriving from the peer can be forwarded into
// it (see Connection.handleRequestN/handleCancelFrame).
type wireSubscriber struct {
	conn     *Connection
	streamID uint32

	sub rx.Subscription
}

func (w *wireSubscriber) OnSubscribe(sub rx.Subscription) {
	w.sub = sub
	if strm := w.conn.getStream(w.streamID); strm != nil {
		strm.SetPublisherSubscription(sub)
		// Credit granted before the producer subscribed (the initial
		// request n of REQUEST_STREAM/REQUEST_CHANNEL) is forwarded now.
		if n := strm.RemoteCredits(); n > 0 {
			sub.Request(int(n))
		}
	}
}

func (w *wireSubscriber) OnNext(p rx.Payload) {
	w.conn.enqueuePayload(w.streamID, p.Data, p.Metadata, p.HasMetadata, true, p.Complete)

	if p.Complete {
		w.finishOutbound()
	}
}

func (w *wireSubscriber) OnComplete() {
	w.conn.enqueuePayload(w.streamID, nil, nil, false, false, true)
	w.finishOutbound()
}

// finishOutbound marks this side's outbound direction done. On a
// REQUEST_CHANNEL the stream only closes once both directions have
// completed (spec.md §4.4.4); every other interaction model has a
// single direction, so this always closes the stream.
func (w *wireSubscriber) finishOutbound() {
	strm := w.conn.getStream(w.streamID)
	if strm == nil {
		return
	}
	if strm.Model() != InteractionRequestChannel {
		w.conn.closeStream(w.streamID)
		return
	}
	strm.SetResponderDone()
	w.conn.maybeCloseChannel(strm)
}

func (w *wireSubscriber) OnError(err error) {
	frh := AcquireFrameHeader()
	frh.SetStreamID(w.streamID)
	ef := AcquireErrorFrame()
	if rerr, ok := err.(*RSocketError); ok {
		ef.SetCode(rerr.Code)
		ef.SetMessage(rerr.Message)
	} else {
		ef.SetCode(ErrorApplicationError)
		ef.SetMessage(err.Error())
	}
	frh.SetBody(ef)
	w.conn.enqueue(frh)
	w.conn.closeStream(w.streamID)
}
