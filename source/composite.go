// Package source fans events from several sources into one listener and
// starts and stops the sources together.
package source

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// ErrNoListener is returned by Start when no listener has been set.
var ErrNoListener = errors.New("composite source has no listener")

// Event is a unit of work delivered by a Source.
type Event struct {
	Source  string
	Payload any
}

// Listener processes events.
type Listener interface {
	Process(ctx context.Context, e Event) error
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ctx context.Context, e Event) error

func (f ListenerFunc) Process(ctx context.Context, e Event) error {
	return f(ctx, e)
}

// Source emits events to the listener it is given.
type Source interface {
	SetListener(l Listener)
}

// Starter is implemented by sources that need to be started.
type Starter interface {
	Start(ctx context.Context) error
}

// Stopper is implemented by sources that need to be stopped.
type Stopper interface {
	Stop(ctx context.Context) error
}

// State is the lifecycle state of a Composite.
type State int32

const (
	Stopped State = iota
	Starting
	Started
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Starting:
		return "starting"
	case Started:
		return "started"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Composite is a Source made of other sources. Events are forwarded to its
// listener while it is starting or started and discarded otherwise.
// Sources are compared with ==, so they must be comparable (usually pointers).
type Composite struct {
	mu      sync.Mutex
	sources []Source
	state   atomic.Int32

	listenerMu sync.RWMutex
	listener   Listener

	logger *zap.Logger
}

// Option configures a Composite.
type Option func(*Composite)

// WithLogger sets the logger used to report discarded events.
func WithLogger(l *zap.Logger) Option {
	return func(c *Composite) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewComposite returns a stopped composite with no sources.
func NewComposite(opts ...Option) *Composite {
	c := &Composite{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current lifecycle state.
func (c *Composite) State() State {
	return State(c.state.Load())
}

// SetListener sets where events go.
func (c *Composite) SetListener(l Listener) {
	c.listenerMu.Lock()
	c.listener = l
	c.listenerMu.Unlock()
}

// Sources returns a snapshot of the registered sources.
func (c *Composite) Sources() []Source {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.sources)
}

// AddSource registers s. A source added to a started composite is started immediately.
func (c *Composite) AddSource(ctx context.Context, s Source) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sources = append(c.sources, s)
	s.SetListener(ListenerFunc(c.process))

	if c.State() == Started {
		if st, ok := s.(Starter); ok {
			if err := st.Start(ctx); err != nil {
				return fmt.Errorf("starting source %v: %w", s, err)
			}
		}
	}
	return nil
}

// RemoveSource unregisters s, stopping it first if the composite is started.
func (c *Composite) RemoveSource(ctx context.Context, s Source) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	if c.State() == Started {
		if st, ok := s.(Stopper); ok {
			if stopErr := st.Stop(ctx); stopErr != nil {
				err = fmt.Errorf("stopping source %v: %w", s, stopErr)
			}
		}
	}
	if i := slices.Index(c.sources, s); i >= 0 {
		c.sources = slices.Delete(c.sources, i, i+1)
	}
	return err
}

// SetSources replaces the registered sources.
func (c *Composite) SetSources(ctx context.Context, sources []Source) error {
	c.mu.Lock()
	c.sources = nil
	c.mu.Unlock()

	for _, s := range sources {
		if err := c.AddSource(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// Start starts every source in registration order. Events emitted while the
// sources are starting are delivered. If a source fails to start, the ones
// already started are stopped again.
func (c *Composite) Start(ctx context.Context) error {
	c.listenerMu.RLock()
	hasListener := c.listener != nil
	c.listenerMu.RUnlock()
	if !hasListener {
		return ErrNoListener
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.State() == Started {
		return nil
	}
	c.state.Store(int32(Starting))

	for i, s := range c.sources {
		st, ok := s.(Starter)
		if !ok {
			continue
		}
		if err := st.Start(ctx); err != nil {
			err = fmt.Errorf("starting source %v: %w", s, err)
			c.state.Store(int32(Stopped))
			return errors.Join(err, stopAll(ctx, c.sources[:i]))
		}
	}

	c.state.Store(int32(Started))
	c.logger.Debug("composite source started", zap.Int("sources", len(c.sources)))
	return nil
}

// Stop stops every source. All sources are stopped even if some fail.
func (c *Composite) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := stopAll(ctx, c.sources)
	c.state.Store(int32(Stopped))
	c.logger.Debug("composite source stopped", zap.Int("sources", len(c.sources)))
	return err
}

func stopAll(ctx context.Context, sources []Source) error {
	var errs []error
	for _, s := range sources {
		if st, ok := s.(Stopper); ok {
			if err := st.Stop(ctx); err != nil {
				errs = append(errs, fmt.Errorf("stopping source %v: %w", s, err))
			}
		}
	}
	return errors.Join(errs...)
}

func (c *Composite) process(ctx context.Context, e Event) error {
	state := c.State()
	if state != Started && state != Starting {
		c.logger.Warn("event received while composite source is stopped, discarding",
			zap.String("source", e.Source),
			zap.Any("payload", e.Payload),
			zap.Stringer("composite", c))
		return nil
	}

	c.listenerMu.RLock()
	l := c.listener
	c.listenerMu.RUnlock()
	if l == nil {
		return ErrNoListener
	}
	return l.Process(ctx, e)
}

func (c *Composite) String() string {
	return fmt.Sprintf("Composite[state=%s]", c.State())
}
