// Package world is the in-process entity store of the simulator. Entities are
// kept in insertion order so that every query within a tick sees the same
// index-stable ordering.
package world

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v4"

	"github.com/kilianp07/formflight/core/control"
	"github.com/kilianp07/formflight/core/model"
)

// ErrDuplicateEntity is returned when an identity is spawned twice.
var ErrDuplicateEntity = errors.New("world: entity already exists")

// Entity is a simulated agent or target with its components.
type Entity struct {
	id       model.Identity
	kind     model.Kind
	dynamics control.Dynamics
	gain     control.GainSolver

	mu    sync.RWMutex
	state model.StateVector
}

var _ control.Body = (*Entity)(nil)

// NewEntity builds an entity. dyn and gain may be nil for entities that are
// never advanced by the tracking step.
func NewEntity(id model.Identity, kind model.Kind, state model.StateVector, dyn control.Dynamics, gain control.GainSolver) *Entity {
	return &Entity{id: id, kind: kind, state: state.Clone(), dynamics: dyn, gain: gain}
}

func (e *Entity) Identity() model.Identity   { return e.id }
func (e *Entity) Kind() model.Kind           { return e.kind }
func (e *Entity) Dynamics() control.Dynamics { return e.dynamics }
func (e *Entity) Gain() control.GainSolver   { return e.gain }

// State returns a copy of the entity state.
func (e *Entity) State() model.StateVector {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Clone()
}

// SetState replaces the entity state with a copy of s.
func (e *Entity) SetState(s model.StateVector) {
	e.mu.Lock()
	e.state = s.Clone()
	e.mu.Unlock()
}

// World stores entities.
type World struct {
	mu       sync.RWMutex
	entities []*Entity
	index    *xsync.Map[uuid.UUID, *Entity]
}

// New returns an empty World.
func New() *World {
	return &World{index: xsync.NewMap[uuid.UUID, *Entity]()}
}

// Spawn adds entities to the world.
func (w *World) Spawn(es ...*Entity) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, e := range es {
		if _, loaded := w.index.LoadOrStore(e.id.UUID, e); loaded {
			return fmt.Errorf("%w: %s", ErrDuplicateEntity, e.id)
		}
		w.entities = append(w.entities, e)
	}
	return nil
}

// Despawn removes the entity with the given id. It reports whether the
// entity existed.
func (w *World) Despawn(id uuid.UUID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.index.LoadAndDelete(id); !ok {
		return false
	}
	for i, e := range w.entities {
		if e.id.UUID == id {
			w.entities = append(w.entities[:i:i], w.entities[i+1:]...)
			break
		}
	}
	return true
}

// Get looks an entity up by id.
func (w *World) Get(id uuid.UUID) (*Entity, bool) {
	return w.index.Load(id)
}

// Len returns the number of entities.
func (w *World) Len() int {
	return w.index.Size()
}

// Query returns the entities of the given kind in insertion order.
func (w *World) Query(kind model.Kind) []*Entity {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var out []*Entity
	for _, e := range w.entities {
		if e.kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// All returns every entity in insertion order.
func (w *World) All() []*Entity {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]*Entity(nil), w.entities...)
}

// Each runs fn concurrently for every entity of the given kind and returns
// the errors keyed by entity id. A failing entity does not stop the others.
func (w *World) Each(ctx context.Context, kind model.Kind, fn func(context.Context, *Entity) error) map[uuid.UUID]error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs = make(map[uuid.UUID]error)
	)
	for _, e := range w.Query(kind) {
		wg.Add(1)
		go func(e *Entity) {
			defer wg.Done()
			if err := fn(ctx, e); err != nil {
				mu.Lock()
				errs[e.id.UUID] = err
				mu.Unlock()
			}
		}(e)
	}
	wg.Wait()
	return errs
}
