package sim

import (
	"errors"
	"fmt"

	"github.com/hordesim/simcore/internal/core/event"
	"github.com/hordesim/simcore/internal/world"
	"go.uber.org/zap"
)

// ErrHandlerFault wraps any error returned or panic raised by a collision handler.
var ErrHandlerFault = errors.New("collision handler fault")

// CirclesOverlap is the narrow phase. Touching circles do not overlap, so
// two zero-radius circles never collide.
func CirclesOverlap(ax, ay, ar, bx, by, br float64) bool {
	dx, dy := ax-bx, ay-by
	r := ar + br
	return dx*dx+dy*dy < r*r
}

// Handler resolves one contact. a and b arrive in the kind order the handler
// was registered with. applied is false when the contact changed nothing,
// such as a shot touching an enemy it already hit.
type Handler func(c *Context, a, b *world.Entity) (applied bool, err error)

type pairHandler struct {
	fn   Handler
	swap bool
}

// Dispatcher selects the handler by the unordered kind pair of a contact.
type Dispatcher struct {
	table    [world.KindCount][world.KindCount]pairHandler
	log      *zap.Logger
	contacts uint64
	faults   uint64
}

func NewDispatcher(log *zap.Logger) *Dispatcher {
	return &Dispatcher{log: log}
}

// Handle installs fn for contacts between kinds a and b, replacing any
// previous handler for the pair.
func (d *Dispatcher) Handle(a, b world.Kind, fn Handler) {
	if !a.Valid() || !b.Valid() {
		return
	}
	d.table[a][b] = pairHandler{fn: fn}
	if a != b {
		d.table[b][a] = pairHandler{fn: fn, swap: true}
	}
}

// Handles reports whether a handler exists for the kind pair.
func (d *Dispatcher) Handles(a, b world.Kind) bool {
	return a < world.KindCount && b < world.KindCount && d.table[a][b].fn != nil
}

// Resolve runs the narrow phase on a candidate pair and dispatches a contact.
// Dead entities and self-pairs are skipped. Only contacts the handler applied
// are counted and announced with CollisionOccurred. A faulting handler is
// logged and counted; it never stops the caller from resolving further pairs.
func (d *Dispatcher) Resolve(c *Context, a, b *world.Entity) {
	if a == b || !a.Alive() || !b.Alive() {
		return
	}
	h := d.table[a.Kind][b.Kind]
	if h.fn == nil {
		return
	}
	if !CirclesOverlap(a.X, a.Y, a.Radius, b.X, b.Y, b.Radius) {
		return
	}
	if h.swap {
		a, b = b, a
	}

	applied, err := invoke(h.fn, c, a, b)
	if err != nil {
		d.faults++
		d.log.Warn("collision handler fault",
			zap.Uint64("a", uint64(a.ID)),
			zap.Uint64("b", uint64(b.ID)),
			zap.Stringer("a_kind", a.Kind),
			zap.Stringer("b_kind", b.Kind),
			zap.Error(err),
		)
		return
	}
	if !applied {
		return
	}
	d.contacts++
	event.Emit(c.Bus, event.CollisionOccurred{A: a.ID, B: b.ID, AKind: uint8(a.Kind), BKind: uint8(b.Kind)})
}

func invoke(fn Handler, c *Context, a, b *world.Entity) (applied bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			applied, err = false, fmt.Errorf("%w: panic: %v", ErrHandlerFault, r)
		}
	}()
	applied, err = fn(c, a, b)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrHandlerFault, err)
	}
	return applied, nil
}

// Contacts returns the number of applied contacts so far.
func (d *Dispatcher) Contacts() uint64 { return d.contacts }

// Faults returns the number of handler faults so far.
func (d *Dispatcher) Faults() uint64 { return d.faults }
