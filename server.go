package rsocket

import (
	"context"
	"crypto/tls"
	"net"
	"time"
)

// Server accepts transports and runs one Connection engine per accepted
// connection, in the responder role. Grounded on the teacher's
// Server/serverConn pair (server.go, serverConn.go): there, each
// accepted net.Conn got its own serverConn with a read loop, a write
// loop and a stream table; here, Connection already is exactly that
// (conn.go), generalized across all four interaction models instead of
// HTTP/2 request/response, so Server is reduced to an accept loop that
// builds one Connection per conn and wires it to handler — serverConn
// is fully superseded (see DESIGN.md) and dropped.
type Server struct {
	handler BaseRequestHandler
	logger  Logger

	keepaliveInterval time.Duration
	maxLifetime       time.Duration
	maxFrameSize      uint32
	fragmentSize      uint32

	listener net.Listener

	acceptErr chan error
}

// ServerOption configures a Server before Serve.
type ServerOption func(*Server)

// WithServerLogger overrides the default logrus-backed Logger.
func WithServerLogger(l Logger) ServerOption { return func(s *Server) { s.logger = l } }

// WithServerKeepalive sets the keepalive send interval and max-lifetime
// liveness deadline of every accepted connection (spec.md §4.6). The
// keepalive values in a peer's SETUP frame are not consulted.
func WithServerKeepalive(interval, maxLifetime time.Duration) ServerOption {
	return func(s *Server) { s.keepaliveInterval = interval; s.maxLifetime = maxLifetime }
}

// WithServerMaxFrameSize bounds the largest single frame the server
// will accept before requiring fragmentation (spec.md §6).
func WithServerMaxFrameSize(n uint32) ServerOption {
	return func(s *Server) { s.maxFrameSize = n }
}

// WithServerFragmentSize bounds the content size of each outbound
// PAYLOAD/REQUEST_* frame the server sends; larger payloads are split
// into FOLLOWS-flagged fragments (spec.md §4.2). Zero (the default)
// disables outbound fragmentation.
func WithServerFragmentSize(n uint32) ServerOption {
	return func(s *Server) { s.fragmentSize = n }
}

// NewServer builds a Server dispatching every accepted stream to
// handler.
func NewServer(handler BaseRequestHandler, opts ...ServerOption) *Server {
	s := &Server{
		handler:           handler,
		logger:            NewDefaultLogger(),
		keepaliveInterval: 20 * time.Second,
		maxLifetime:       90 * time.Second,
		acceptErr:         make(chan error, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListenAndServe binds addr (optionally over TLS) and serves until ctx
// is cancelled or the listener errors.
func (s *Server) ListenAndServe(ctx context.Context, addr string, tlsConfig *tls.Config) error {
	var ln net.Listener
	var err error

	if tlsConfig != nil {
		ln, err = tls.Listen("tcp", addr, tlsConfig)
	} else {
		ln, err = net.Listen("tcp", addr)
	}
	if err != nil {
		return err
	}

	return s.Serve(ctx, ln)
}

// Serve accepts connections from ln until ctx is cancelled, running
// one Connection per accepted conn in its own goroutine.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.listener = ln

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		go s.serveConn(ctx, conn)
	}
}

func (s *Server) serveConn(ctx context.Context, transport net.Conn) {
	c := NewConnection(transport, false, s.handler,
		WithLogger(s.logger),
		WithKeepalive(s.keepaliveInterval, s.maxLifetime),
	)
	if s.maxFrameSize > 0 {
		WithMaxFrameSize(s.maxFrameSize)(c)
	}
	if s.fragmentSize > 0 {
		WithFragmentSize(s.fragmentSize)(c)
	}

	if err := c.Run(ctx); err != nil {
		s.logger.Warnf("rsocket: connection from %s ended: %v", transport.RemoteAddr(), err)
	}
}

// Close stops accepting new connections. In-flight connections are not
// interrupted; cancel the Serve context for that.
func (s *Server) Close() error {
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}
