/*
Package sim
File: factory.go
Description:
    The Factory is the single entry point the outside world talks to. It
    wraps the graph Manager and the tick Engine behind one lock so the HTTP
    handlers and the tick heartbeat serialize correctly, and it keeps the two
    halves consistent: every node added to the graph is registered with the
    engine, every node removed is unregistered, always in that pairing.

    The simulation itself is single-threaded; the lock only orders callers,
    it never protects concurrent phases.
*/

package sim

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/everforgeworks/fabrica/internal/catalog"
	"github.com/everforgeworks/fabrica/internal/graph"
)

// Factory binds the static catalog, the live graph and the tick engine into
// one consistently locked unit.
type Factory struct {
	mu     sync.RWMutex
	cat    *catalog.Catalog
	graph  *graph.Manager
	engine *Engine
}

// NewFactory creates an empty factory over a catalog.
func NewFactory(cat *catalog.Catalog) *Factory {
	return &Factory{
		cat:    cat,
		graph:  graph.NewManager(),
		engine: NewEngine(cat),
	}
}

// Catalog returns the static catalog the factory runs on.
func (f *Factory) Catalog() *catalog.Catalog { return f.cat }

// ReplaceCatalog swaps in a freshly loaded catalog (hot reload). Active
// recipes keep their own copies, so in-flight production finishes under the
// definitions it started with.
func (f *Factory) ReplaceCatalog(cat *catalog.Catalog) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.cat = cat
	f.engine.cat = cat
}

// PlaceMachine creates a node for a machine type at a position and registers
// it with the engine. Unknown machine types are rejected.
func (f *Factory) PlaceMachine(machineID string, x, y float64) (*graph.Node, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	def, ok := f.cat.Machine(machineID)
	if !ok {
		return nil, fmt.Errorf("sim: unknown machine type %q", machineID)
	}
	n := f.graph.NewNode(def, x, y)
	f.engine.Register(n)
	return n, nil
}

// RemoveNode deletes a node, its connections, and its runtime state.
// Unknown IDs are a no-op.
func (f *Factory) RemoveNode(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.graph.RemoveNode(id)
	f.engine.Unregister(id)
}

// Connect validates and commits a connection between two ports; argument
// order does not matter. Returns (nil, false) when the pair is not
// connectable, which is a normal outcome rather than an error.
func (f *Factory) Connect(fromNode, fromPort, toNode, toPort string) (*graph.Connection, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.graph.Connect(fromNode, fromPort, toNode, toPort)
}

// Disconnect removes a connection by ID. Unknown IDs are a no-op.
func (f *Factory) Disconnect(connID string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.graph.RemoveConnection(connID)
}

// SelectRecipe sets a node's recipe index (sim.Automatic for automatic
// mode), interrupting any in-progress recipe.
func (f *Factory) SelectRecipe(nodeID string, index int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.engine.SelectRecipe(f.graph.Node(nodeID), index)
}

// Tick advances the simulation one step. Never called concurrently with
// itself thanks to the lock; the heartbeat owns the cadence.
func (f *Factory) Tick() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.engine.Tick(f.graph)
}

// OnTick subscribes a post-tick callback. Subscribe before the heartbeat
// starts; the callback runs with the factory lock held.
func (f *Factory) OnTick(fn func(tick uint64)) {
	f.engine.OnTick(fn)
}

// Ticks returns how many ticks have completed.
func (f *Factory) Ticks() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.engine.Ticks()
}

// Snapshot returns the per-node runtime view for display.
func (f *Factory) Snapshot() []NodeView {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.snapshotLocked()
}

// snapshotLocked builds the view without taking the lock, for use inside
// OnTick callbacks where the tick already holds it.
func (f *Factory) snapshotLocked() []NodeView {
	return f.engine.Snapshot(func(id string) string {
		if n := f.graph.Node(id); n != nil {
			return n.MachineID
		}
		return ""
	})
}

// TickSnapshot is like Snapshot but assumes the factory lock is already
// held, as it is inside OnTick subscribers.
func (f *Factory) TickSnapshot() []NodeView { return f.snapshotLocked() }

// GraphData returns the plain persisted form of the live graph.
func (f *Factory) GraphData() *graph.Data {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.graph.Save()
}

// SaveJSON serializes the live graph to its persisted JSON format.
func (f *Factory) SaveJSON() ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return json.MarshalIndent(f.graph.Save(), "", "  ")
}

// LoadJSON replaces the live graph from persisted JSON data and rebuilds all
// runtime state. On any structural error the current graph and runtime
// state are left completely untouched.
func (f *Factory) LoadJSON(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var d graph.Data
	if err := json.Unmarshal(data, &d); err != nil {
		return fmt.Errorf("sim: load: %w", err)
	}
	if err := f.graph.LoadData(&d); err != nil {
		return err
	}

	// Fresh runtime state for the freshly loaded graph. Reset keeps tick
	// subscribers alive across the load.
	f.engine.Reset()
	for _, n := range f.graph.Nodes() {
		f.engine.Register(n)
	}
	return nil
}

// Node returns a live node by ID, or nil.
func (f *Factory) Node(id string) *graph.Node {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.graph.Node(id)
}

// State returns a node's runtime state, or nil. Exposed for tests and for
// direct inspection; external callers should prefer Snapshot.
func (f *Factory) State(id string) *NodeState {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.engine.State(id)
}
