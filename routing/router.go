// Package routing implements route-based request dispatch on top of
// composite metadata (spec.md §4.8, "Routing request handler"; §9
// "decorator-based route registration maps to an explicit builder").
//
// Grounded directly on original_source/rsocket/routing/request_router.py:
// RequestRouter there holds one route map per frame type plus an
// "unknown route" fallback per frame type; Go has no decorator syntax,
// so registration becomes explicit Response/Stream/Channel/
// FireAndForget/MetadataPush calls (plus their *Unknown fallbacks)
// instead of the Python version's `@router.response(route)` decorator
// factory.
package routing

import (
	"context"
	"errors"

	"github.com/domsolutions/rsocket/rx"
)

// ErrEmptyRoute mirrors the Python router's RSocketEmptyRoute.
var ErrEmptyRoute = errors.New("routing: route must not be empty")

// ErrDuplicateRoute mirrors the Python router's KeyError on re-registration.
var ErrDuplicateRoute = errors.New("routing: route already registered for this interaction model")

// ErrUnknownRoute mirrors the Python router's RSocketUnknownRoute.
type ErrUnknownRoute struct{ Route string }

func (e ErrUnknownRoute) Error() string { return "routing: unknown route " + e.Route }

// ResponseFunc, StreamFunc, ChannelFunc, FireAndForgetFunc and
// MetadataPushFunc are the per-interaction-model handler shapes a route
// can be registered against — one registration per frame type per
// route, exactly as the Python router's five separate route maps allow
// the same route string to mean different things under
// @router.response vs @router.stream.
type ResponseFunc func(ctx context.Context, payload rx.Payload) (rx.Payload, error)
type StreamFunc func(ctx context.Context, payload rx.Payload, sub rx.Subscriber)
type ChannelFunc func(ctx context.Context, payload rx.Payload, requester rx.Publisher) rx.Publisher
type FireAndForgetFunc func(ctx context.Context, payload rx.Payload) error
type MetadataPushFunc func(ctx context.Context, metadata []byte)

// RequestRouter dispatches a request to a handler registered under the
// route extracted from its composite metadata, per interaction model.
type RequestRouter struct {
	responseRoutes map[string]ResponseFunc
	streamRoutes   map[string]StreamFunc
	channelRoutes  map[string]ChannelFunc
	fnfRoutes      map[string]FireAndForgetFunc
	pushRoutes     map[string]MetadataPushFunc

	unknownResponse ResponseFunc
	unknownStream   StreamFunc
	unknownChannel  ChannelFunc
	unknownFNF      FireAndForgetFunc
	unknownPush     MetadataPushFunc
}

// NewRequestRouter builds an empty router.
func NewRequestRouter() *RequestRouter {
	return &RequestRouter{
		responseRoutes: make(map[string]ResponseFunc),
		streamRoutes:   make(map[string]StreamFunc),
		channelRoutes:  make(map[string]ChannelFunc),
		fnfRoutes:      make(map[string]FireAndForgetFunc),
		pushRoutes:     make(map[string]MetadataPushFunc),
	}
}

func (r *RequestRouter) Response(route string, h ResponseFunc) error {
	if route == "" {
		return ErrEmptyRoute
	}
	if _, exists := r.responseRoutes[route]; exists {
		return ErrDuplicateRoute
	}
	r.responseRoutes[route] = h
	return nil
}

func (r *RequestRouter) ResponseUnknown(h ResponseFunc) { r.unknownResponse = h }

func (r *RequestRouter) Stream(route string, h StreamFunc) error {
	if route == "" {
		return ErrEmptyRoute
	}
	if _, exists := r.streamRoutes[route]; exists {
		return ErrDuplicateRoute
	}
	r.streamRoutes[route] = h
	return nil
}

func (r *RequestRouter) StreamUnknown(h StreamFunc) { r.unknownStream = h }

func (r *RequestRouter) Channel(route string, h ChannelFunc) error {
	if route == "" {
		return ErrEmptyRoute
	}
	if _, exists := r.channelRoutes[route]; exists {
		return ErrDuplicateRoute
	}
	r.channelRoutes[route] = h
	return nil
}

func (r *RequestRouter) ChannelUnknown(h ChannelFunc) { r.unknownChannel = h }

func (r *RequestRouter) FireAndForget(route string, h FireAndForgetFunc) error {
	if route == "" {
		return ErrEmptyRoute
	}
	if _, exists := r.fnfRoutes[route]; exists {
		return ErrDuplicateRoute
	}
	r.fnfRoutes[route] = h
	return nil
}

func (r *RequestRouter) FireAndForgetUnknown(h FireAndForgetFunc) { r.unknownFNF = h }

func (r *RequestRouter) MetadataPush(route string, h MetadataPushFunc) error {
	if route == "" {
		return ErrEmptyRoute
	}
	if _, exists := r.pushRoutes[route]; exists {
		return ErrDuplicateRoute
	}
	r.pushRoutes[route] = h
	return nil
}

func (r *RequestRouter) MetadataPushUnknown(h MetadataPushFunc) { r.unknownPush = h }

func (r *RequestRouter) routeResponse(ctx context.Context, route string, payload rx.Payload) (rx.Payload, error) {
	if h, ok := r.responseRoutes[route]; ok {
		return h(ctx, payload)
	}
	if r.unknownResponse != nil {
		return r.unknownResponse(ctx, payload)
	}
	return rx.Payload{}, ErrUnknownRoute{Route: route}
}

func (r *RequestRouter) routeStream(ctx context.Context, route string, payload rx.Payload, sub rx.Subscriber) error {
	if h, ok := r.streamRoutes[route]; ok {
		h(ctx, payload, sub)
		return nil
	}
	if r.unknownStream != nil {
		r.unknownStream(ctx, payload, sub)
		return nil
	}
	return ErrUnknownRoute{Route: route}
}

func (r *RequestRouter) routeChannel(ctx context.Context, route string, payload rx.Payload, requester rx.Publisher) (rx.Publisher, error) {
	if h, ok := r.channelRoutes[route]; ok {
		return h(ctx, payload, requester), nil
	}
	if r.unknownChannel != nil {
		return r.unknownChannel(ctx, payload, requester), nil
	}
	return nil, ErrUnknownRoute{Route: route}
}

func (r *RequestRouter) routeFireAndForget(ctx context.Context, route string, payload rx.Payload) error {
	if h, ok := r.fnfRoutes[route]; ok {
		return h(ctx, payload)
	}
	if r.unknownFNF != nil {
		return r.unknownFNF(ctx, payload)
	}
	return ErrUnknownRoute{Route: route}
}

func (r *RequestRouter) routeMetadataPush(ctx context.Context, route string, meta []byte) error {
	if h, ok := r.pushRoutes[route]; ok {
		h(ctx, meta)
		return nil
	}
	if r.unknownPush != nil {
		r.unknownPush(ctx, meta)
		return nil
	}
	return ErrUnknownRoute{Route: route}
}
