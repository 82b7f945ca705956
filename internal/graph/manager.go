/*
Package graph
File: manager.go
Description:
    The Manager is the sole authority for mutating the live graph. It owns
    identity generation, enforces the connection-legality protocol, cascades
    connection removal when nodes go away, and round-trips the graph through
    its plain-data persisted form.

    Illegal operations here are normal outcomes, not errors: a connect that
    fails a legality check returns (nil, false) and mutates nothing.
*/

package graph

import (
	"fmt"

	"github.com/everforgeworks/fabrica/internal/catalog"
)

// Display defaults for freshly created nodes. Pure presentation data, but
// part of the persisted entity.
const (
	defaultNodeWidth  = 160
	defaultNodeHeight = 100
	defaultTitleColor = "#4a6fa5"
)

// Manager owns the live graph: all nodes, all connections, and the identity
// generator that names them.
type Manager struct {
	nodes     map[string]*Node
	nodeOrder []string // insertion order, for deterministic iteration
	conns     []*Connection
	ids       *IDGen
}

// NewManager creates an empty graph.
func NewManager() *Manager {
	return &Manager{
		nodes: make(map[string]*Node),
		ids:   NewIDGen(),
	}
}

// NewNode builds a node for a machine definition at a position: fresh IDs,
// ports in layout order, display defaults from the definition. The node is
// added to the graph before being returned.
func (m *Manager) NewNode(def catalog.MachineDef, x, y float64) *Node {
	n := &Node{
		ID:         m.ids.Next("node"),
		X:          x,
		Y:          y,
		Title:      def.Name,
		Width:      defaultNodeWidth,
		Height:     defaultNodeHeight,
		TitleColor: defaultTitleColor,
		MachineID:  def.ID,
	}
	for _, spec := range def.Inputs {
		n.Inputs = append(n.Inputs, &Port{
			ID:        m.ids.Next("port"),
			Name:      spec.Name,
			Direction: DirIn,
			Type:      spec.Type,
		})
	}
	for _, spec := range def.Outputs {
		n.Outputs = append(n.Outputs, &Port{
			ID:        m.ids.Next("port"),
			Name:      spec.Name,
			Direction: DirOut,
			Type:      spec.Type,
		})
	}
	m.AddNode(n)
	return n
}

// AddNode registers an externally built node. A node with a duplicate or
// empty ID is ignored.
func (m *Manager) AddNode(n *Node) {
	if n == nil || n.ID == "" {
		return
	}
	if _, exists := m.nodes[n.ID]; exists {
		return
	}
	m.nodes[n.ID] = n
	m.nodeOrder = append(m.nodeOrder, n.ID)
}

// RemoveNode deletes a node and, first, every connection touching it, so a
// dangling connection is never observable. Unknown IDs are a no-op.
func (m *Manager) RemoveNode(id string) {
	if _, ok := m.nodes[id]; !ok {
		return
	}
	kept := m.conns[:0]
	for _, c := range m.conns {
		if c.FromNode == id || c.ToNode == id {
			continue
		}
		kept = append(kept, c)
	}
	m.conns = kept
	delete(m.nodes, id)
	for i, nid := range m.nodeOrder {
		if nid == id {
			m.nodeOrder = append(m.nodeOrder[:i], m.nodeOrder[i+1:]...)
			break
		}
	}
}

// Node returns a node by ID, or nil.
func (m *Manager) Node(id string) *Node { return m.nodes[id] }

// Nodes returns all nodes in insertion order.
func (m *Manager) Nodes() []*Node {
	out := make([]*Node, 0, len(m.nodeOrder))
	for _, id := range m.nodeOrder {
		out = append(out, m.nodes[id])
	}
	return out
}

// Connections returns the live connection list in creation order.
func (m *Manager) Connections() []*Connection { return m.conns }

// Connect validates a port pair and commits the connection if legal. The
// argument order does not matter: direction is re-derived so the effective
// source is always the output-direction port. Every failed check yields
// (nil, false) with no graph mutation.
func (m *Manager) Connect(fromNode, fromPort, toNode, toPort string) (*Connection, bool) {
	// Check 1: two distinct, existing nodes. No self-loops.
	if fromNode == toNode {
		return nil, false
	}
	a := m.nodes[fromNode]
	b := m.nodes[toNode]
	if a == nil || b == nil {
		return nil, false
	}
	pa := a.Port(fromPort)
	pb := b.Port(toPort)
	if pa == nil || pb == nil {
		return nil, false
	}

	// Check 2: identical port types.
	if pa.Type != pb.Type {
		return nil, false
	}

	// Check 3: directions must differ; normalize output -> input.
	if pa.Direction == pb.Direction {
		return nil, false
	}
	srcNode, srcPort, dstNode, dstPort := a, pa, b, pb
	if pa.Direction == DirIn {
		srcNode, srcPort, dstNode, dstPort = b, pb, a, pa
	}

	// Check 4: resource compatibility. An unbound port (generic buffer) is
	// compatible with anything of the same port type.
	if srcPort.Resource != "" && dstPort.Resource != "" && srcPort.Resource != dstPort.Resource {
		return nil, false
	}

	// Check 5: reject exact duplicates.
	for _, c := range m.conns {
		if c.FromNode == srcNode.ID && c.FromPort == srcPort.ID &&
			c.ToNode == dstNode.ID && c.ToPort == dstPort.ID {
			return nil, false
		}
	}

	conn := &Connection{
		ID:       m.ids.Next("conn"),
		FromNode: srcNode.ID,
		FromPort: srcPort.ID,
		ToNode:   dstNode.ID,
		ToPort:   dstPort.ID,
	}
	m.conns = append(m.conns, conn)
	return conn, true
}

// AddConnection inserts a pre-validated connection, e.g. during a load.
func (m *Manager) AddConnection(c *Connection) {
	if c == nil || c.ID == "" {
		return
	}
	m.conns = append(m.conns, c)
}

// RemoveConnection deletes a connection by ID. Unknown IDs are a no-op.
func (m *Manager) RemoveConnection(id string) {
	for i, c := range m.conns {
		if c.ID == id {
			m.conns = append(m.conns[:i], m.conns[i+1:]...)
			return
		}
	}
}

// Save captures the graph as plain persisted data.
func (m *Manager) Save() *Data {
	d := &Data{
		Nodes:       make([]*Node, 0, len(m.nodeOrder)),
		Connections: make([]*Connection, 0, len(m.conns)),
	}
	d.Nodes = append(d.Nodes, m.Nodes()...)
	d.Connections = append(d.Connections, m.conns...)
	return d
}

// LoadData replaces the live graph with the given persisted data. The data
// is structurally validated first; on any error the existing graph is left
// completely untouched. After a successful load the identity generators are
// advanced past every observed ID so new entities never collide.
func (m *Manager) LoadData(d *Data) error {
	if d == nil {
		return fmt.Errorf("graph: load: no data")
	}

	nodes := make(map[string]*Node, len(d.Nodes))
	order := make([]string, 0, len(d.Nodes))
	for _, n := range d.Nodes {
		if n == nil || n.ID == "" {
			return fmt.Errorf("graph: load: node with empty id")
		}
		if _, dup := nodes[n.ID]; dup {
			return fmt.Errorf("graph: load: duplicate node %q", n.ID)
		}
		for _, p := range append(append([]*Port{}, n.Inputs...), n.Outputs...) {
			if p == nil || p.ID == "" {
				return fmt.Errorf("graph: load: node %q has port with empty id", n.ID)
			}
			if p.Direction != DirIn && p.Direction != DirOut {
				return fmt.Errorf("graph: load: port %q has invalid direction %q", p.ID, p.Direction)
			}
		}
		nodes[n.ID] = n
		order = append(order, n.ID)
	}

	for _, c := range d.Connections {
		if c == nil || c.ID == "" {
			return fmt.Errorf("graph: load: connection with empty id")
		}
		from := nodes[c.FromNode]
		to := nodes[c.ToNode]
		if from == nil || to == nil {
			return fmt.Errorf("graph: load: connection %q references unknown node", c.ID)
		}
		if from.Port(c.FromPort) == nil || to.Port(c.ToPort) == nil {
			return fmt.Errorf("graph: load: connection %q references unknown port", c.ID)
		}
	}

	// Validated; commit and advance the identity counters.
	m.nodes = nodes
	m.nodeOrder = order
	m.conns = append([]*Connection(nil), d.Connections...)
	for _, n := range d.Nodes {
		m.ids.AdvancePast(n.ID)
		for _, p := range n.Inputs {
			m.ids.AdvancePast(p.ID)
		}
		for _, p := range n.Outputs {
			m.ids.AdvancePast(p.ID)
		}
	}
	for _, c := range m.conns {
		m.ids.AdvancePast(c.ID)
	}
	return nil
}
