package rsocket

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/domsolutions/rsocket/rx"
	"github.com/hashicorp/go-multierror"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

// defaultWriteBuffer sizes Connection.writeCh, mirroring the teacher's
// buffered c.writer channel in client.go (Client.writer, size 1024) and
// sc.writer in serverConn.go.
const defaultWriteBuffer = 256

// Connection is one RSocket session over a transport satisfying
// io.ReadWriteCloser (a net.Conn in practice, per SPEC_FULL.md §1: "the
// engine is transport agnostic").
//
// Directly adapted from the teacher's serverConn/Client pair
// (serverConn.go, client.go): one read loop, one write loop, a sorted
// stream table, a buffered write channel. Unlike the teacher, the
// stream table and next-stream-id counter are guarded by a mutex
// (conn.mu) rather than touched only from the owning goroutine: RSocket
// handler invocations run on their own goroutine per request (spec.md
// §5) and call back into the connection (to send replies, request more
// credit, cancel) concurrently with the read loop — the same reason the
// teacher's own Client guards its equivalent state with c.lck and a
// sync.Map instead of leaving it lock-free like serverConn does.
type Connection struct {
	transport io.ReadWriteCloser
	br        *bufio.Reader
	bw        *bufio.Writer

	maxFrameSize uint32
	fragmentSize uint32
	isClient     bool

	handler BaseRequestHandler
	logger  Logger
	clock   clockwork.Clock

	keepaliveInterval time.Duration
	maxLifetime       time.Duration

	mu            sync.Mutex
	nextStreamID  uint32
	streams       *Streams
	peerLease     *leaseWindow
	leaseEnabled  bool
	setupReceived bool

	fragments *FragmentCache

	writeCh chan *FrameHeader

	closeOnce sync.Once
	closed    chan struct{}
	closeErr  error

	lastActivity time.Time
}

// ConnOption configures a Connection at construction time.
type ConnOption func(*Connection)

// WithLogger overrides the default logrus-backed Logger.
func WithLogger(l Logger) ConnOption { return func(c *Connection) { c.logger = l } }

// WithClock overrides the default real clock, for deterministic tests
// of lease expiry and keepalive/max-lifetime behavior.
func WithClock(clock clockwork.Clock) ConnOption { return func(c *Connection) { c.clock = clock } }

// WithMaxFrameSize overrides DefaultMaxFrameSize.
func WithMaxFrameSize(n uint32) ConnOption { return func(c *Connection) { c.maxFrameSize = n } }

// WithFragmentSize bounds the content size (metadata+data combined) of
// each outbound PAYLOAD/REQUEST_* frame; anything larger is split into
// FOLLOWS-flagged fragments (spec.md §4.2). Zero (the default) disables
// outbound fragmentation entirely.
func WithFragmentSize(n uint32) ConnOption { return func(c *Connection) { c.fragmentSize = n } }

// WithLeaseEnabled declares this side's own LEASE admission-control
// intent (spec.md §4.5). A responder's leaseEnabled is instead derived
// from the peer's SETUP frame (handleSetup); this option exists for the
// requester side, which never receives a SETUP of its own to derive it
// from (see Client.sendSetup).
func WithLeaseEnabled(enabled bool) ConnOption { return func(c *Connection) { c.leaseEnabled = enabled } }

// WithKeepalive sets the keepalive send interval and max-lifetime
// liveness deadline (spec.md §4.6). A zero interval disables the
// keepalive loop entirely.
func WithKeepalive(interval, maxLifetime time.Duration) ConnOption {
	return func(c *Connection) {
		c.keepaliveInterval = interval
		c.maxLifetime = maxLifetime
	}
}

// NewConnection builds a Connection over transport. isClient decides
// which half of the stream-id space this side allocates from (odd for
// clients, even for servers, spec.md §3). handler may be nil for a
// connection that never acts as a responder.
func NewConnection(transport io.ReadWriteCloser, isClient bool, handler BaseRequestHandler, opts ...ConnOption) *Connection {
	start := uint32(2)
	if isClient {
		start = 1
	}

	c := &Connection{
		transport:    transport,
		br:           bufio.NewReader(transport),
		bw:           bufio.NewWriter(transport),
		maxFrameSize: DefaultMaxFrameSize,
		isClient:     isClient,
		handler:      handler,
		logger:       NewDefaultLogger(),
		clock:        clockwork.NewRealClock(),
		nextStreamID: start,
		streams:      NewStreams(),
		fragments:    NewFragmentCache(1024),
		writeCh:      make(chan *FrameHeader, defaultWriteBuffer),
		closed:       make(chan struct{}),
		// Only a responder ever receives a SETUP frame (spec.md §4.7);
		// a requester's connection starts as if SETUP were already
		// accepted, since none will ever arrive for it to wait on.
		setupReceived: isClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.peerLease = newLeaseWindow(c.clock)
	c.lastActivity = c.clock.Now()
	return c
}

// Run drives the connection until the transport closes or ctx is
// cancelled, supervising the read loop, write loop and keepalive loop
// together via errgroup.Group — the explicit analogue of the teacher's
// bespoke close(sc.writer)/close(sc.reader) choreography in Serve
// (SPEC_FULL.md §6.6).
func (c *Connection) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.readLoop(gctx) })
	g.Go(func() error { return c.writeLoop(gctx) })
	if c.keepaliveInterval > 0 {
		g.Go(func() error { return c.keepaliveLoop(gctx) })
	}

	err := g.Wait()
	c.Close()
	return err
}

func (c *Connection) readLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.closed:
			return nil
		default:
		}

		frh, err := ReadFrameFromWithSize(c.br, c.maxFrameSize)
		if err != nil {
			return err
		}

		c.lastActivity = c.clock.Now()

		if err := c.dispatch(ctx, frh); err != nil {
			c.logger.Warnf("rsocket: dispatch error: %v", err)
		}
	}
}

func (c *Connection) writeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.closed:
			return nil
		case frh, ok := <-c.writeCh:
			if !ok {
				return nil
			}
			_, err := frh.WriteTo(c.bw)
			if err == nil {
				err = c.bw.Flush()
			}
			ReleaseFrameHeader(frh)
			if err != nil {
				return err
			}
		}
	}
}

func (c *Connection) keepaliveLoop(ctx context.Context) error {
	ticker := c.clock.NewTicker(c.keepaliveInterval + time.Duration(keepaliveJitter())*time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.closed:
			return nil
		case <-ticker.Chan():
			if c.maxLifetime > 0 && c.clock.Now().Sub(c.lastActivity) > c.maxLifetime {
				return ErrDisconnected
			}

			frh := AcquireFrameHeader()
			k := AcquireKeepalive()
			k.SetRespond(true)
			frh.SetBody(k)
			c.enqueue(frh)
		}
	}
}

// enqueue hands frh to the write loop. Safe to call from any goroutine.
func (c *Connection) enqueue(frh *FrameHeader) {
	select {
	case c.writeCh <- frh:
	case <-c.closed:
		ReleaseFrameHeader(frh)
	}
}

// allocateStream reserves the next local stream id and inserts a new
// Stream entry for it.
func (c *Connection) allocateStream(model InteractionModel) *Stream {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextStreamID
	c.nextStreamID += 2

	strm := NewStream(id, model)
	c.streams.Insert(strm)
	return strm
}

// reserveStreamID allocates the next local stream id without creating
// a Stream table entry, for interaction models with no further traffic
// to correlate against it (REQUEST_FNF).
func (c *Connection) reserveStreamID() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextStreamID
	c.nextStreamID += 2
	return id
}

// insertResponderStream inserts a stream entry for a peer-initiated id.
func (c *Connection) insertResponderStream(id uint32, model InteractionModel) *Stream {
	c.mu.Lock()
	defer c.mu.Unlock()

	strm := NewStream(id, model)
	c.streams.Insert(strm)
	return strm
}

func (c *Connection) getStream(id uint32) *Stream {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.streams.Get(id)
}

func (c *Connection) closeStream(id uint32) {
	c.mu.Lock()
	c.streams.Del(id)
	c.mu.Unlock()
	c.fragments.Abandon(id)
}

// dispatch routes one decoded frame to its connection- or stream-level
// handler. Called from the read loop only.
func (c *Connection) dispatch(ctx context.Context, frh *FrameHeader) error {
	if !c.setupReceived {
		s, ok := frh.Body().(*Setup)
		if !ok {
			return c.rejectSetup(ErrorInvalidSetup, "first frame on a connection must be SETUP")
		}
		return c.handleSetup(ctx, s)
	}
	if _, ok := frh.Body().(*Setup); ok {
		return c.rejectSetup(ErrorInvalidSetup, "SETUP received twice on the same connection")
	}

	switch body := frh.Body().(type) {
	case *Lease:
		return c.handleLease(body)
	case *Keepalive:
		return c.handleKeepalive(body)
	case *RequestResponse:
		return c.handleRequestResponseFrame(ctx, frh, body)
	case *RequestFNF:
		return c.handleRequestFNFFrame(ctx, frh, body)
	case *RequestStream:
		return c.handleRequestStreamFrame(ctx, frh, body)
	case *RequestChannel:
		return c.handleRequestChannelFrame(ctx, frh, body)
	case *RequestN:
		return c.handleRequestN(frh, body)
	case *Cancel:
		return c.handleCancelFrame(frh)
	case *PayloadFrame:
		return c.handlePayloadFrame(frh, body)
	case *ErrorFrame:
		return c.handleErrorFrame(frh, body)
	case *MetadataPush:
		return c.handleMetadataPush(ctx, body)
	case *Resume, *ResumeOK:
		// The engine has no resume support: a RESUME or RESUME_OK on an
		// established connection is refused. (As the first frame on a
		// responder connection, a RESUME is rejected above as an
		// invalid SETUP.)
		return ErrRSocketRejected
	case *Ext:
		if !frh.Flags().Has(FlagIgnore) {
			return NewError(ErrorConnectionError, "unknown extension frame")
		}
		return nil
	}
	return ErrUnknownFrameType
}

// handleSetup accepts or rejects the connection's SETUP frame (spec.md
// §4.7 "Setup flow"). Acceptance enables lease admission control per
// the peer's declared intent and, if a handler is registered, asks it
// to validate the negotiated mime types (e.g. the routing handler
// requiring composite metadata, spec.md §4.7's last sentence).
// Rejection sends ERROR(INVALID_SETUP|UNSUPPORTED_SETUP|REJECTED_SETUP)
// on stream 0 and closes the connection.
func (c *Connection) handleSetup(ctx context.Context, s *Setup) error {
	if s.versionMajor != versionMajor {
		return c.rejectSetup(ErrorUnsupportedSetup, fmt.Sprintf("unsupported major version %d", s.versionMajor))
	}
	if s.DataMimeType() == "" || s.MetadataMimeType() == "" {
		return c.rejectSetup(ErrorInvalidSetup, "setup must declare both data and metadata mime types")
	}

	if c.handler != nil {
		if err := c.handler.OnSetup(ctx, s.DataMimeType(), s.MetadataMimeType()); err != nil {
			return c.rejectSetup(ErrorRejectedSetup, err.Error())
		}
	}

	c.leaseEnabled = s.LeaseEnabled()
	c.setupReceived = true
	return nil
}

// rejectSetup sends an ERROR frame on stream 0 and tears the connection
// down, per spec.md §4.7's "responder ... sends ERROR(INVALID_SETUP/
// UNSUPPORTED_SETUP) and closes".
func (c *Connection) rejectSetup(code ErrorCode, message string) error {
	frh := AcquireFrameHeader()
	frh.SetStreamID(0)
	ef := AcquireErrorFrame()
	ef.SetCode(code)
	ef.SetMessage(message)
	frh.SetBody(ef)
	c.enqueue(frh)
	c.Close()
	return NewError(code, message)
}

func (c *Connection) handleLease(l *Lease) error {
	c.peerLease.grant(l.NumberOfRequests(), l.TimeToLive())
	return nil
}

func (c *Connection) handleKeepalive(k *Keepalive) error {
	if k.Respond() {
		frh := AcquireFrameHeader()
		reply := AcquireKeepalive()
		reply.SetRespond(false)
		reply.SetLastPosition(k.LastPosition())
		frh.SetBody(reply)
		c.enqueue(frh)
	}
	return nil
}

func (c *Connection) handleRequestN(frh *FrameHeader, rn *RequestN) error {
	strm := c.getStream(frh.StreamID())
	if strm == nil {
		return nil // late frame for an already-closed stream; ignore
	}
	strm.AddRemoteCredits(rn.N())
	if sub := strm.PublisherSubscription(); sub != nil {
		sub.Request(int(rn.N()))
	}
	return nil
}

func (c *Connection) handleCancelFrame(frh *FrameHeader) error {
	strm := c.getStream(frh.StreamID())
	if strm == nil {
		return nil
	}
	strm.SetCancelled()
	if sub := strm.PublisherSubscription(); sub != nil {
		sub.Cancel()
	}
	c.closeStream(frh.StreamID())
	return nil
}

func (c *Connection) handlePayloadFrame(frh *FrameHeader, p *PayloadFrame) error {
	id := frh.StreamID()

	metadata, data, hasMetadata, ok, err := c.maybeReassemble(id, FramePayload, p.Payload(), p.Follows())
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	strm := c.getStream(id)
	if strm == nil {
		return nil
	}

	sub := strm.Subscriber()
	if sub == nil {
		return nil
	}

	if p.Next() {
		sub.OnNext(rx.Payload{Data: data, Metadata: metadata, HasMetadata: hasMetadata, Complete: p.Complete()})
		if p.Complete() {
			c.finishInbound(strm)
		}
		return nil
	}
	if p.Complete() {
		sub.OnComplete()
		c.finishInbound(strm)
	}
	return nil
}

// finishInbound marks this side's inbound direction done. A
// REQUEST_CHANNEL stream only closes once both directions have
// completed (spec.md §4.4.4); every other model has a single
// direction, so this always closes the stream.
func (c *Connection) finishInbound(strm *Stream) {
	if strm.Model() != InteractionRequestChannel {
		c.closeStream(strm.ID())
		return
	}
	strm.SetRequesterDone()
	c.maybeCloseChannel(strm)
}

func (c *Connection) handleErrorFrame(frh *FrameHeader, e *ErrorFrame) error {
	id := frh.StreamID()
	if id == 0 {
		c.logger.Errorf("rsocket: connection error: %v", e.Err())
		return c.Close()
	}
	strm := c.getStream(id)
	if strm != nil {
		if sub := strm.Subscriber(); sub != nil {
			sub.OnError(e.Err())
		}
		c.closeStream(id)
	}
	return nil
}

func (c *Connection) handleMetadataPush(ctx context.Context, m *MetadataPush) error {
	if c.handler != nil {
		go c.handler.MetadataPush(ctx, m.Metadata())
	}
	return nil
}

// maybeReassemble folds fragment-cache bookkeeping into a single call
// site shared by every request-initiating frame type plus PAYLOAD
// (spec.md §4.3 "Fragment cache"). ok is false while more fragments are
// still expected.
func (c *Connection) maybeReassemble(streamID uint32, kind FrameType, p Payload, follows bool) (metadata, data []byte, hasMetadata, ok bool, err error) {
	if !follows && !c.fragments.InProgress(streamID) {
		data = p.Data()
		if meta, mok := p.Metadata(); mok {
			hasMetadata = true
			metadata = meta
		}
		return metadata, data, hasMetadata, true, nil
	}

	meta, _ := p.Metadata()
	return c.fragments.Append(streamID, kind, p.HasMetadata(), meta, p.Data(), follows)
}

// consumeLease reports whether a new request may be admitted under the
// peer's current LEASE grant. Always true when leasing was not
// negotiated (spec.md §4.5).
func (c *Connection) consumeLease() bool {
	if !c.leaseEnabled {
		return true
	}
	return c.peerLease.allow()
}

// Close tears the connection down: stops the loops, closes the
// transport, and delivers ErrDisconnected to every still-live stream's
// subscriber, aggregating every resulting error with
// hashicorp/go-multierror (SPEC_FULL.md §3 "Error aggregation").
func (c *Connection) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)

		var result *multierror.Error

		c.mu.Lock()
		c.streams.Each(func(s *Stream) {
			if sub := s.Subscriber(); sub != nil {
				sub.OnError(ErrDisconnected)
			}
		})
		c.mu.Unlock()

		if err := c.transport.Close(); err != nil {
			result = multierror.Append(result, err)
		}

		if result != nil {
			c.closeErr = result.ErrorOrNil()
		}

		if c.handler != nil {
			c.handler.OnClose(c.closeErr)
		}
	})
	return c.closeErr
}
