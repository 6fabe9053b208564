package rx

import "sync"

// ChannelPublisher is a ready-made Publisher for application handlers
// (and the routing package's error replies) that would rather push
// items than implement Publisher themselves. The connection engine's
// own frame adapters do not use it.
//
// Grounded on the teacher's ClientStream (client.go): a
// request/response pair of channels plus an err channel, generalized
// here into a single ordered item channel, an error slot, and a
// credit-gated pump goroutine started on Subscribe.
type ChannelPublisher struct {
	items chan Payload
	err   chan error
	done  chan struct{}
}

// NewChannelPublisher creates a publisher fed via Emit/Complete/Error.
// buffer sizes the internal item channel; 0 is a valid unbuffered size
// for callers that want Emit to apply its own backpressure.
func NewChannelPublisher(buffer int) *ChannelPublisher {
	return &ChannelPublisher{
		items: make(chan Payload, buffer),
		err:   make(chan error, 1),
		done:  make(chan struct{}),
	}
}

// Emit sends p to the eventual subscriber. It blocks if the internal
// buffer is full. Emit after the subscriber cancels is a no-op. Emit
// must not be called after Complete or Error.
func (p *ChannelPublisher) Emit(item Payload) {
	select {
	case p.items <- item:
	case <-p.done:
	}
}

// Complete signals normal termination with no further items.
func (p *ChannelPublisher) Complete() {
	close(p.items)
}

// Error signals abnormal termination; no further Emit/Complete calls
// are valid afterwards.
func (p *ChannelPublisher) Error(err error) {
	p.err <- err
	close(p.items)
}

// Subscribe starts the credit-gated pump goroutine that drains items
// into sub, honoring sub's requested demand (spec.md §4.3).
func (p *ChannelPublisher) Subscribe(sub Subscriber) {
	credit := newCreditGate()
	sub.OnSubscribe(credit)

	go func() {
		for {
			if !credit.wait() {
				close(p.done) // cancelled: later Emit calls return at once
				return
			}

			select {
			case item, ok := <-p.items:
				if !ok {
					select {
					case err := <-p.err:
						sub.OnError(err)
					default:
						sub.OnComplete()
					}
					return
				}
				sub.OnNext(item)
				if item.Complete {
					return
				}
			case <-p.done:
				return
			}
		}
	}()
}

// creditGate is a Subscription backed by a counting semaphore; Request
// adds demand, Cancel tears down the waiting pump.
type creditGate struct {
	mu        sync.Mutex
	cond      *sync.Cond
	remaining int
	cancelled bool
}

func newCreditGate() *creditGate {
	g := &creditGate{}
	g.cond = sync.NewCond(&g.mu)
	return g
}

func (g *creditGate) Request(n int) {
	if n <= 0 {
		return
	}
	g.mu.Lock()
	g.remaining += n
	g.mu.Unlock()
	g.cond.Broadcast()
}

func (g *creditGate) Cancel() {
	g.mu.Lock()
	g.cancelled = true
	g.mu.Unlock()
	g.cond.Broadcast()
}

// wait blocks until either one unit of credit is available (returns
// true, consuming it) or the subscription is cancelled (returns
// false).
func (g *creditGate) wait() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	for g.remaining <= 0 && !g.cancelled {
		g.cond.Wait()
	}
	if g.cancelled {
		return false
	}
	g.remaining--
	return true
}
