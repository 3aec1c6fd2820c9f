package navigation

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/fnedigital/genera/core"
)

// ErrQueueFull is returned by Go when the intent queue is saturated.
var ErrQueueFull = errors.New("navigation: intent queue full")

// Navigator serializes navigation intents through a single consumer,
// enforcing a minimum spacing between consecutive navigations. The sink is
// an injected collaborator so callers never navigate directly.
type Navigator struct {
	sink       func(path string)
	minSpacing time.Duration
	intents    chan string
	done       chan struct{}
}

func NewNavigator(sink func(path string), conf core.NavigationConfig) *Navigator {
	size := conf.QueueSize
	if size <= 0 {
		size = 16
	}
	return &Navigator{
		sink:       sink,
		minSpacing: conf.MinSpacing,
		intents:    make(chan string, size),
		done:       make(chan struct{}),
	}
}

// Start launches the consumer goroutine. It returns immediately; the
// consumer drains intents until ctx is cancelled.
func (n *Navigator) Start(ctx context.Context) {
	go func() {
		defer close(n.done)
		var last time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case path := <-n.intents:
				if wait := n.minSpacing - time.Since(last); wait > 0 {
					select {
					case <-ctx.Done():
						return
					case <-time.After(wait):
					}
				}
				n.sink(path)
				last = time.Now()
			}
		}
	}()
}

// Go enqueues a navigation intent without blocking.
func (n *Navigator) Go(path string) error {
	select {
	case n.intents <- path:
		return nil
	default:
		return ErrQueueFull
	}
}

// Wait blocks until the consumer has stopped; for orderly shutdown.
func (n *Navigator) Wait() {
	<-n.done
}
