package rsocket

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	"github.com/domsolutions/rsocket/rx"
)

// Client is the requester-facing top-level object: dial a transport,
// send a SETUP, then use RequestResponse/FireAndForget/RequestStream/
// RequestChannel to drive interactions. Structurally descended from
// the teacher's Client (client.go in the original http2 engine): a
// dialer plus a single owned Connection, same Dial/Handshake/Close
// shape, generalized from HTTP/2's request/response to RSocket's four
// interaction models.
type Client struct {
	conn *Connection

	dataMimeType     string
	metadataMimeType string

	keepaliveInterval time.Duration
	maxLifetime       time.Duration

	fragmentSize uint32
	leaseEnabled bool

	handler BaseRequestHandler
	logger  Logger

	runErr chan error
}

// ClientOption configures a Client before Dial.
type ClientOption func(*Client)

// WithClientHandler registers a responder for frames the server
// initiates back at this client (metadata pushes, or any interaction
// model if the server plays requester — symmetric per spec.md §1).
func WithClientHandler(h BaseRequestHandler) ClientOption {
	return func(c *Client) { c.handler = h }
}

// WithClientMimeTypes sets the SETUP frame's negotiated mime types.
// Defaults to "application/octet-stream" for both if unset.
func WithClientMimeTypes(metadataMime, dataMime string) ClientOption {
	return func(c *Client) { c.metadataMimeType = metadataMime; c.dataMimeType = dataMime }
}

// WithClientKeepalive sets the keepalive interval and max-lifetime
// advertised in SETUP (spec.md §4.6).
func WithClientKeepalive(interval, maxLifetime time.Duration) ClientOption {
	return func(c *Client) { c.keepaliveInterval = interval; c.maxLifetime = maxLifetime }
}

// WithClientLogger overrides the default logrus-backed Logger.
func WithClientLogger(l Logger) ClientOption { return func(c *Client) { c.logger = l } }

// WithClientFragmentSize bounds the content size of each outbound
// PAYLOAD/REQUEST_* frame this client sends; larger payloads are split
// into FOLLOWS-flagged fragments (spec.md §4.2). Zero (the default)
// disables outbound fragmentation.
func WithClientFragmentSize(n uint32) ClientOption {
	return func(c *Client) { c.fragmentSize = n }
}

// WithClientLease declares this client's intent to negotiate LEASE
// admission control in its SETUP frame (spec.md §4.5): this client's
// own outgoing requests are then refused with ErrRSocketRejected unless
// the server's latest LEASE grant still has quota. The server, seeing
// the LEASE flag, gates its own outgoing requests the same way; neither
// side checks incoming requests against a lease.
func WithClientLease(enabled bool) ClientOption {
	return func(c *Client) { c.leaseEnabled = enabled }
}

// NewClient builds an unconnected Client; call Dial or DialContext to
// establish the transport.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		dataMimeType:      "application/octet-stream",
		metadataMimeType:  "application/octet-stream",
		keepaliveInterval: 20 * time.Second,
		maxLifetime:       90 * time.Second,
		logger:            NewDefaultLogger(),
		runErr:            make(chan error, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dial connects to addr over TCP (or TLS, if tlsConfig is non-nil),
// sends SETUP, and starts the connection engine's loops.
func (c *Client) Dial(ctx context.Context, addr string, tlsConfig *tls.Config) error {
	var transport net.Conn
	var err error

	dialer := &net.Dialer{}
	if tlsConfig != nil {
		transport, err = tls.DialWithDialer(dialer, "tcp", addr, tlsConfig)
	} else {
		transport, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return err
	}

	return c.start(ctx, transport)
}

func (c *Client) start(ctx context.Context, transport net.Conn) error {
	c.conn = NewConnection(transport, true, c.handler,
		WithLogger(c.logger),
		WithKeepalive(c.keepaliveInterval, c.maxLifetime),
		WithFragmentSize(c.fragmentSize),
		WithLeaseEnabled(c.leaseEnabled),
	)

	if err := c.sendSetup(); err != nil {
		transport.Close()
		return err
	}

	go func() { c.runErr <- c.conn.Run(ctx) }()
	return nil
}

func (c *Client) sendSetup() error {
	frh := AcquireFrameHeader()
	frh.SetStreamID(0)

	s := AcquireSetup()
	s.SetKeepaliveInterval(uint32(c.keepaliveInterval / time.Millisecond))
	s.SetMaxLifetime(uint32(c.maxLifetime / time.Millisecond))
	s.SetMimeTypes(c.metadataMimeType, c.dataMimeType)
	s.SetLeaseEnabled(c.leaseEnabled)
	frh.SetBody(s)

	c.conn.enqueue(frh)
	return nil
}

// RequestResponse sends a single request and delivers the single reply
// (or error) to sub.
func (c *Client) RequestResponse(payload rx.Payload, sub rx.Subscriber) {
	c.conn.RequestResponse(payload, sub)
}

// FireAndForget sends a request with no expected reply.
func (c *Client) FireAndForget(payload rx.Payload) error {
	return c.conn.FireAndForget(payload)
}

// RequestStream sends a request and delivers zero or more replies to
// sub, which is granted initialN units of demand up front.
func (c *Client) RequestStream(payload rx.Payload, initialN uint32, sub rx.Subscriber) {
	c.conn.RequestStream(payload, initialN, sub)
}

// RequestChannel opens a bidirectional stream: first is the initial
// outbound payload, outbound (if non-nil) is subscribed to produce
// further outbound payloads, and sub receives the responder's replies.
func (c *Client) RequestChannel(first rx.Payload, initialN uint32, outbound rx.Publisher, sub rx.Subscriber) {
	c.conn.RequestChannel(first, initialN, outbound, sub)
}

// Close tears down the underlying connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Done returns a channel that receives the connection engine's
// terminal error (nil on graceful shutdown) once Run returns.
func (c *Client) Done() <-chan error { return c.runErr }
