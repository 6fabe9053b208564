package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/domsolutions/rsocket"
	"github.com/domsolutions/rsocket/metadata"
	"github.com/domsolutions/rsocket/routing"
	"github.com/domsolutions/rsocket/rx"
)

func main() {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCmd builds the rsocket-echo demo CLI: a routed echo server
// answering all four interaction models, and a client that sends one
// REQUEST_RESPONSE to it and prints the reply. Plays
// the role the teacher's demo/examples/benchmark directories play
// (SPEC_FULL.md §2) — runnable, but outside the engine's own import
// graph.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rsocket-echo",
		Short: "Demo RSocket echo client/server",
	}
	cmd.AddCommand(ServerCommand(), ClientCommand())
	return cmd
}

type serverOptions struct {
	addr string
	route string
}

func ServerCommand() *cobra.Command {
	opts := serverOptions{}
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the echo responder",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.addr, "addr", "a", ":7878", "listen address")
	cmd.Flags().StringVarP(&opts.route, "route", "r", "echo", "route this server answers on")
	return cmd
}

func runServer(ctx context.Context, opts serverOptions) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	router := routing.NewRequestRouter()
	if err := router.Response(opts.route, echoResponse); err != nil {
		return err
	}
	if err := router.Stream(opts.route, echoStream); err != nil {
		return err
	}
	if err := router.FireAndForget(opts.route, echoFireAndForget); err != nil {
		return err
	}
	if err := router.Channel(opts.route, echoChannel); err != nil {
		return err
	}

	handler := routing.NewRoutingRequestHandler(router, nil)
	server := rsocket.NewServer(handler)

	fmt.Printf("listening on %s, route %q\n", opts.addr, opts.route)
	return server.ListenAndServe(ctx, opts.addr, nil)
}

func echoResponse(ctx context.Context, payload rx.Payload) (rx.Payload, error) {
	return rx.Payload{Data: payload.Data}, nil
}

func echoFireAndForget(ctx context.Context, payload rx.Payload) error {
	fmt.Printf("fire-and-forget: %s\n", payload.Data)
	return nil
}

func echoStream(ctx context.Context, payload rx.Payload, sub rx.Subscriber) {
	pub := rx.NewChannelPublisher(4)
	go func() {
		for i := 0; i < 3; i++ {
			pub.Emit(rx.Payload{Data: payload.Data})
		}
		pub.Complete()
	}()
	pub.Subscribe(sub)
}

func echoChannel(ctx context.Context, payload rx.Payload, requester rx.Publisher) rx.Publisher {
	pub := rx.NewChannelPublisher(4)
	requester.Subscribe(&echoSubscriber{reply: pub})
	return pub
}

// echoSubscriber re-emits every inbound channel payload back to reply.
type echoSubscriber struct {
	reply *rx.ChannelPublisher
	sub   rx.Subscription
}

func (s *echoSubscriber) OnSubscribe(sub rx.Subscription) {
	s.sub = sub
	sub.Request(1)
}

func (s *echoSubscriber) OnNext(p rx.Payload) {
	s.reply.Emit(rx.Payload{Data: p.Data, Complete: p.Complete})
	if !p.Complete {
		s.sub.Request(1)
	}
}

func (s *echoSubscriber) OnComplete() { s.reply.Complete() }
func (s *echoSubscriber) OnError(err error) { s.reply.Error(err) }

type clientOptions struct {
	addr string
	route string
	message string
}

func ClientCommand() *cobra.Command {
	opts := clientOptions{}
	cmd := &cobra.Command{
		Use:   "client",
		Short: "Send a routed REQUEST_RESPONSE and print the reply",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClient(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.addr, "addr", "a", "127.0.0.1:7878", "server address")
	cmd.Flags().StringVarP(&opts.route, "route", "r", "echo", "route to invoke")
	cmd.Flags().StringVarP(&opts.message, "message", "m", "hello", "message to send")
	return cmd
}

func runClient(ctx context.Context, opts clientOptions) error {
	client := rsocket.NewClient(rsocket.WithClientMimeTypes(
		"message/x.rsocket.composite-metadata.v0",
		"application/octet-stream",
	))
	if err := client.Dial(ctx, opts.addr, nil); err != nil {
		return err
	}
	defer client.Close()

	meta := metadata.AppendRoutingEntry(nil, opts.route)
	reply, err := rsocket.Await(ctx, client, rx.Payload{
		Data:        []byte(opts.message),
		Metadata:    meta,
		HasMetadata: true,
	})
	if err != nil {
		return err
	}

	fmt.Printf("reply: %s\n", reply.Data)
	return nil
}
