/*
Package sim
File: engine.go
Description:
    The tick engine. Holds per-node runtime state (inventories, active recipe,
    power accounting) and advances the whole factory one discrete step at a
    time in three strictly ordered phases:

      Phase 0 — Power balance: who generates, who receives, who is satisfied.
      Phase 1 — Transport: move resources along connections between buffers.
      Phase 2 — Processing: buffer passthrough, recipe progress, recipe starts.

    Each phase runs over the entire node set before the next begins. A tick
    runs to completion synchronously; nothing here blocks or suspends.
    Insufficient resources or power are never errors, just throttling: the
    affected node does nothing this tick.
*/

package sim

import (
	"github.com/everforgeworks/fabrica/internal/catalog"
	"github.com/everforgeworks/fabrica/internal/graph"
)

// Automatic is the recipe selection meaning "pick the first runnable
// candidate each tick".
const Automatic = -1

// NodeState is the runtime side of one simulated node. Exactly one exists
// per registered node; it is created on Register and dropped on Unregister.
type NodeState struct {
	Input    *Inventory
	Output   *Inventory
	Active   *catalog.Recipe // nil when idle
	Progress int             // ticks elapsed on the active recipe
	Selected int             // recipe index, Automatic for first-runnable

	// Last-tick power accounting, for display.
	PowerConsumed  int
	PowerProduced  int
	PowerSatisfied bool
}

// Engine runs the simulation over a graph. It owns nothing of the graph
// itself; the Manager passes it in on every tick.
type Engine struct {
	cat    *catalog.Catalog
	states map[string]*NodeState
	order  []string // registration order, for deterministic phase sweeps

	ticks uint64
	subs  []func(uint64)
}

// NewEngine creates an engine with no registered nodes.
func NewEngine(cat *catalog.Catalog) *Engine {
	return &Engine{cat: cat, states: make(map[string]*NodeState)}
}

// Register creates runtime state for a node. Inventory capacity comes from
// the node's machine definition; registering twice is a no-op.
func (e *Engine) Register(n *graph.Node) {
	if n == nil || n.ID == "" {
		return
	}
	if _, exists := e.states[n.ID]; exists {
		return
	}
	capacity := 0
	if def, ok := e.cat.Machine(n.MachineID); ok {
		capacity = def.Capacity
	}
	e.states[n.ID] = &NodeState{
		Input:    NewInventory(capacity),
		Output:   NewInventory(capacity),
		Selected: Automatic,
	}
	e.order = append(e.order, n.ID)
}

// Unregister drops a node's runtime state. Unknown IDs are a no-op.
func (e *Engine) Unregister(nodeID string) {
	if _, ok := e.states[nodeID]; !ok {
		return
	}
	delete(e.states, nodeID)
	for i, id := range e.order {
		if id == nodeID {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
}

// State returns a node's runtime state, or nil if it is not registered.
func (e *Engine) State(nodeID string) *NodeState { return e.states[nodeID] }

// Reset drops all runtime state while keeping tick subscribers and the tick
// counter. Used when a saved graph replaces the live one.
func (e *Engine) Reset() {
	e.states = make(map[string]*NodeState)
	e.order = nil
}

// Ticks returns how many ticks have completed.
func (e *Engine) Ticks() uint64 { return e.ticks }

// OnTick subscribes a callback fired once per tick, after all three phases.
func (e *Engine) OnTick(fn func(tick uint64)) {
	e.subs = append(e.subs, fn)
}

// SelectRecipe changes a node's selected recipe index (Automatic for
// first-runnable). Any in-progress recipe is interrupted and its partial
// progress discarded; consumed inputs are not refunded. Port resource
// bindings are rebuilt from the newly selected recipe, or cleared entirely
// in automatic mode so the ports become generic again.
func (e *Engine) SelectRecipe(n *graph.Node, index int) {
	if n == nil {
		return
	}
	st := e.states[n.ID]
	if st == nil {
		return
	}
	st.Selected = index
	st.Active = nil
	st.Progress = 0

	for _, p := range append(append([]*graph.Port{}, n.Inputs...), n.Outputs...) {
		if p.Type != catalog.PortPower {
			p.Resource = ""
		}
	}
	recipes := e.cat.Recipes(n.MachineID)
	if index < 0 || index >= len(recipes) {
		return
	}
	r := recipes[index]
	for _, b := range r.Inputs {
		if b.PortIndex >= 0 && b.PortIndex < len(n.Inputs) {
			n.Inputs[b.PortIndex].Resource = b.Resource
		}
	}
	for _, b := range r.Outputs {
		if b.PortIndex >= 0 && b.PortIndex < len(n.Outputs) {
			n.Outputs[b.PortIndex].Resource = b.Resource
		}
	}
}

// Tick advances the whole factory one step: power balance, then transport,
// then processing, each over every node before the next phase starts.
// Subscribers are notified once at the end.
func (e *Engine) Tick(m *graph.Manager) {
	e.phasePower(m)
	e.phaseTransport(m)
	e.phaseProcess(m)

	e.ticks++
	for _, fn := range e.subs {
		fn(e.ticks)
	}
}

// phasePower computes, for this tick, which nodes generate power, how much
// each node receives over its incoming power connections, and whether every
// node's requirement is met.
func (e *Engine) phasePower(m *graph.Manager) {
	// Producers: nodes whose active recipe generates.
	produced := make(map[string]int)
	for id, st := range e.states {
		st.PowerConsumed = 0
		st.PowerProduced = 0
		if st.Active != nil && st.Active.Generates() {
			produced[id] = -st.Active.Power
		}
	}

	// Received power accumulates across every incoming power connection.
	received := make(map[string]int)
	for _, c := range m.Connections() {
		src := m.Node(c.FromNode)
		if src == nil {
			continue
		}
		p := src.Port(c.FromPort)
		if p == nil || p.Type != catalog.PortPower {
			continue
		}
		received[c.ToNode] += produced[c.FromNode]
	}

	for _, id := range e.order {
		st := e.states[id]
		n := m.Node(id)
		if n == nil {
			continue
		}

		// Requirement: the active recipe's draw, or the manually selected
		// recipe's draw while the node waits to start it.
		required := 0
		if st.Active != nil {
			if st.Active.Power > 0 {
				required = st.Active.Power
			}
		} else if st.Selected >= 0 {
			recipes := e.cat.Recipes(n.MachineID)
			if st.Selected < len(recipes) && recipes[st.Selected].Power > 0 {
				required = recipes[st.Selected].Power
			}
		}

		st.PowerProduced = produced[id]
		switch {
		case required <= 0:
			st.PowerSatisfied = true
		case !n.HasPowerInput():
			// Machine type doesn't gate on power at all.
			st.PowerSatisfied = true
		default:
			st.PowerSatisfied = received[id] >= required
		}
		if st.PowerSatisfied && required > 0 {
			st.PowerConsumed = required
		}
	}
}

// phaseTransport moves resources along every non-power connection: a fixed
// per-type amount, limited by what the source holds and what the destination
// has room for. Each connection moves at most one resource kind per tick.
func (e *Engine) phaseTransport(m *graph.Manager) {
	for _, c := range m.Connections() {
		src := e.states[c.FromNode]
		dst := e.states[c.ToNode]
		if src == nil || dst == nil {
			continue
		}
		fromNode := m.Node(c.FromNode)
		if fromNode == nil {
			continue
		}
		p := fromNode.Port(c.FromPort)
		if p == nil || p.Type == catalog.PortPower {
			continue
		}
		limit := catalog.TransportAmount(p.Type)

		if p.Resource != "" {
			transfer(src.Output, dst.Input, p.Resource, limit)
			continue
		}
		// Generic port: move the first stack whose kind matches the port.
		for _, s := range src.Output.Stacks() {
			if p.Type.Matches(e.cat.ResourceKindOf(s.Resource)) {
				transfer(src.Output, dst.Input, s.Resource, limit)
				break
			}
		}
	}
}

// transfer moves up to limit units of one resource between inventories. The
// destination accepts at most what it has room for; the source gives up
// exactly what was accepted. Returns the amount moved.
func transfer(from, to *Inventory, resource string, limit int) int {
	want := from.Amount(resource)
	if limit < want {
		want = limit
	}
	if want <= 0 {
		return 0
	}
	accepted := to.Add(resource, want)
	from.Remove(resource, accepted)
	return accepted
}

// phaseProcess runs every node's production step: buffer machines forward
// their input buffer, processing machines advance or start recipes.
func (e *Engine) phaseProcess(m *graph.Manager) {
	for _, id := range e.order {
		st := e.states[id]
		n := m.Node(id)
		if n == nil {
			continue
		}
		recipes := e.cat.Recipes(n.MachineID)

		// Buffer node: no recipes, just forward input -> output, each
		// resource kind capped per tick, limited by output room.
		if len(recipes) == 0 {
			for _, s := range st.Input.Stacks() {
				transfer(st.Input, st.Output, s.Resource, catalog.BufferRate())
			}
			continue
		}

		if st.Active != nil {
			e.advanceRecipe(st)
			continue
		}
		e.startRecipe(st, recipes)
	}
}

// advanceRecipe moves an active recipe forward one tick. A consuming recipe
// stalls without satisfied power. Completion is atomic: all outputs land
// together, and if the output buffer lacks room for all of them the recipe
// holds at full progress and retries next tick.
func (e *Engine) advanceRecipe(st *NodeState) {
	r := st.Active
	if r.Power > 0 && !st.PowerSatisfied {
		return // stalled, no progress, nothing consumed or produced
	}

	if st.Progress < r.Duration {
		st.Progress++
	}
	if r.Power > 0 {
		st.PowerConsumed = r.Power
	} else if r.Generates() {
		st.PowerProduced = -r.Power
	}

	if st.Progress >= r.Duration {
		outs := r.OutputStacks()
		if !st.Output.CanAddAll(outs) {
			return // hold until the output buffer has room
		}
		st.Output.AddAll(outs)
		st.Active = nil
		st.Progress = 0
	}
}

// startRecipe scans candidates in list order and starts the first one whose
// inputs are fully present, consuming them atomically. Manual selection
// narrows the candidate list to exactly that recipe; a consuming candidate
// is skipped while the node is unpowered. A recipe with no inputs is always
// startable.
func (e *Engine) startRecipe(st *NodeState, recipes []catalog.Recipe) {
	first, last := 0, len(recipes)
	if st.Selected >= 0 && st.Selected < len(recipes) {
		first, last = st.Selected, st.Selected+1
	}
	for i := first; i < last; i++ {
		r := recipes[i]
		if r.Power > 0 && !st.PowerSatisfied {
			continue
		}
		if !st.Input.RemoveAll(r.InputStacks()) {
			continue
		}
		st.Active = &r
		st.Progress = 0
		return
	}
}
