// Package notify fans order lifecycle events out to registered listeners.
// The dispatcher is wired once at startup; publishing is synchronous and
// a failing listener never blocks the others.
package notify

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
)

// Event describes one order lifecycle change.
type Event struct {
	Type        string
	OrderID     uuid.UUID
	TableNumber int32
	PrevStatus  string
	NewStatus   string
	Actor       string
	At          time.Time
	Detail      string
}

// Listener receives published events. Implementations must be safe for
// concurrent use if the dispatcher is shared across request goroutines.
type Listener interface {
	Name() string
	Notify(ctx context.Context, ev Event) error
}

type registration struct {
	listener Listener
	types    map[string]bool // empty means all event types
}

// Dispatcher delivers events to listeners in registration order.
type Dispatcher struct {
	regs []registration
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Register subscribes a listener to the given event types. With no types it
// receives every event. Registering the same listener again replaces its
// subscription instead of adding a duplicate.
func (d *Dispatcher) Register(l Listener, types ...string) {
	set := make(map[string]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	for i, reg := range d.regs {
		if reg.listener == l {
			d.regs[i].types = set
			return
		}
	}
	d.regs = append(d.regs, registration{listener: l, types: set})
}

// Unregister removes a listener. Unknown listeners are ignored.
func (d *Dispatcher) Unregister(l Listener) {
	for i, reg := range d.regs {
		if reg.listener == l {
			d.regs = append(d.regs[:i], d.regs[i+1:]...)
			return
		}
	}
}

// Publish delivers ev to every matching listener, in registration order. A
// listener error or panic is logged and delivery continues with the next
// listener.
func (d *Dispatcher) Publish(ctx context.Context, ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	for _, reg := range d.regs {
		if len(reg.types) > 0 && !reg.types[ev.Type] {
			continue
		}
		d.deliver(ctx, reg.listener, ev)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, l Listener, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: listener %s panicked on %s: %v", l.Name(), ev.Type, r)
		}
	}()
	if err := l.Notify(ctx, ev); err != nil {
		log.Printf("ERROR: listener %s failed on %s: %v", l.Name(), ev.Type, err)
	}
}
