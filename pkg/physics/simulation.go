package physics

import (
	"fmt"
	"sync/atomic"

	"github.com/aretw0/lattice/pkg/fault"
)

const (
	// DefaultTimeStep is the integration step used when none is configured.
	DefaultTimeStep = 1.0 / 60.0
	// BodyNotFound is the diagnostic for stale or foreign handles.
	BodyNotFound = "RigidBody not found in the simulation"
)

// DefaultGravity points down the Y axis.
var DefaultGravity = Vec3{0, -9.81, 0}

var simulationIDs atomic.Uint64

// Body is the state of one rigid body.
type Body struct {
	Position Vec3
	Velocity Vec3
	// Mass must be positive for dynamic bodies. Zero is treated as one.
	Mass float64
	// Static bodies never move and ignore impulses.
	Static bool
}

// InvMass returns the inverse mass, zero for static bodies.
func (b Body) InvMass() float64 {
	if b.Static {
		return 0
	}
	if b.Mass <= 0 {
		return 1
	}
	return 1 / b.Mass
}

// Handle addresses a body in one simulation. Handles stay comparable and
// cheap to copy; a handle whose body was removed, or whose simulation was
// closed or replaced, fails every lookup.
type Handle struct {
	sim        uint64
	index      uint32
	generation uint32
}

// IsZero reports whether h was never issued.
func (h Handle) IsZero() bool { return h.sim == 0 }

func (h Handle) String() string {
	return fmt.Sprintf("body(%d:%d.%d)", h.sim, h.index, h.generation)
}

type slot struct {
	body       Body
	generation uint32
	live       bool
}

// Simulation owns a dense arena of bodies. It does no locking: blocks that
// share a simulation must be activated by one goroutine at a time.
type Simulation struct {
	slots    []slot
	free     []uint32
	gravity  Vec3
	timeStep float64
	id       uint64
	steps    uint64
	live     int
	closed   bool
}

// Option configures a Simulation.
type Option func(*Simulation)

func WithGravity(g Vec3) Option {
	return func(s *Simulation) {
		s.gravity = g
	}
}

// WithTimeStep sets the integration step in seconds.
func WithTimeStep(dt float64) Option {
	return func(s *Simulation) {
		if dt > 0 {
			s.timeStep = dt
		}
	}
}

// NewSimulation creates an empty simulation with a process-unique id.
func NewSimulation(opts ...Option) *Simulation {
	s := &Simulation{
		id:       simulationIDs.Add(1),
		gravity:  DefaultGravity,
		timeStep: DefaultTimeStep,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulation) ID() uint64 { return s.id }

func (s *Simulation) Gravity() Vec3 { return s.gravity }

func (s *Simulation) TimeStep() float64 { return s.timeStep }

// Steps returns how many times Step ran.
func (s *Simulation) Steps() uint64 { return s.steps }

// Len returns the number of live bodies.
func (s *Simulation) Len() int { return s.live }

func (s *Simulation) Closed() bool { return s.closed }

// Insert adds a body and returns its handle. Freed slots are reused with a
// new generation.
func (s *Simulation) Insert(b Body) Handle {
	if s.closed {
		fault.Violation("insert into closed simulation %d", s.id)
	}

	var index uint32
	if n := len(s.free); n > 0 {
		index = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		index = uint32(len(s.slots))
		s.slots = append(s.slots, slot{})
	}

	sl := &s.slots[index]
	sl.body = b
	sl.live = true
	s.live++
	return Handle{sim: s.id, index: index, generation: sl.generation}
}

func (s *Simulation) lookup(h Handle) (*slot, error) {
	if s.closed || h.sim != s.id || int(h.index) >= len(s.slots) {
		return nil, fault.NotFound(BodyNotFound)
	}
	sl := &s.slots[h.index]
	if !sl.live || sl.generation != h.generation {
		return nil, fault.NotFound(BodyNotFound)
	}
	return sl, nil
}

// Contains reports whether h addresses a live body.
func (s *Simulation) Contains(h Handle) bool {
	_, err := s.lookup(h)
	return err == nil
}

// Body returns a copy of the body addressed by h.
func (s *Simulation) Body(h Handle) (Body, error) {
	sl, err := s.lookup(h)
	if err != nil {
		return Body{}, err
	}
	return sl.body, nil
}

func (s *Simulation) Position(h Handle) (Vec3, error) {
	b, err := s.Body(h)
	return b.Position, err
}

func (s *Simulation) Velocity(h Handle) (Vec3, error) {
	b, err := s.Body(h)
	return b.Velocity, err
}

// ApplyImpulse changes the velocity of one body by impulse/mass.
func (s *Simulation) ApplyImpulse(h Handle, impulse Vec3) error {
	sl, err := s.lookup(h)
	if err != nil {
		return err
	}
	sl.body.Velocity = sl.body.Velocity.Add(impulse.Scale(sl.body.InvMass()))
	return nil
}

// ApplyImpulses applies impulse to every body in hs, or to none of them:
// all handles are checked before any body is touched.
func (s *Simulation) ApplyImpulses(hs []Handle, impulse Vec3) error {
	if err := s.validate(hs); err != nil {
		return err
	}
	for _, h := range hs {
		sl := &s.slots[h.index]
		sl.body.Velocity = sl.body.Velocity.Add(impulse.Scale(sl.body.InvMass()))
	}
	return nil
}

// Remove frees the body addressed by h. Its handle, and every copy of it,
// becomes stale.
func (s *Simulation) Remove(h Handle) error {
	sl, err := s.lookup(h)
	if err != nil {
		return err
	}
	s.release(h.index, sl)
	return nil
}

// RemoveAll frees every body in hs, or none if any handle is stale.
func (s *Simulation) RemoveAll(hs []Handle) error {
	if err := s.validate(hs); err != nil {
		return err
	}
	for _, h := range hs {
		s.release(h.index, &s.slots[h.index])
	}
	return nil
}

func (s *Simulation) release(index uint32, sl *slot) {
	sl.body = Body{}
	sl.live = false
	sl.generation++
	s.free = append(s.free, index)
	s.live--
}

func (s *Simulation) validate(hs []Handle) error {
	for i, h := range hs {
		if _, err := s.lookup(h); err != nil {
			return err
		}
		// A handle listed twice would be applied twice.
		for _, prev := range hs[:i] {
			if prev == h {
				return fault.InvalidParameter("handle %s listed twice", h)
			}
		}
	}
	return nil
}

// Step advances every dynamic body by one explicit Euler step.
func (s *Simulation) Step() {
	if s.closed {
		return
	}
	dt := s.timeStep
	for i := range s.slots {
		sl := &s.slots[i]
		if !sl.live || sl.body.Static {
			continue
		}
		sl.body.Velocity = sl.body.Velocity.Add(s.gravity.Scale(dt))
		sl.body.Position = sl.body.Position.Add(sl.body.Velocity.Scale(dt))
	}
	s.steps++
}

// Close drops every body. All handles issued by s become stale.
func (s *Simulation) Close() {
	s.closed = true
	s.slots = nil
	s.free = nil
	s.live = 0
}
