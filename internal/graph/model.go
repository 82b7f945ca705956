/*
Package graph
File: model.go
Description:
    The node/port/connection data entities of the factory graph. These are
    plain data: they carry no behavior beyond small lookups, serialize
    directly to the persisted JSON format, and are mutated only through the
    Manager.
*/

package graph

import "github.com/everforgeworks/fabrica/internal/catalog"

// Direction of a port: resources flow out of outputs into inputs.
type Direction string

const (
	DirIn  Direction = "input"
	DirOut Direction = "output"
)

// Port is a typed, directional attachment point on a node. Type is fixed at
// machine-definition time. Resource is the dynamically bound resource ID, set
// and cleared when a recipe is selected; empty means unbound (generic), and
// power ports never carry one.
type Port struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Direction Direction        `json:"direction"`
	Type      catalog.PortType `json:"portType"`
	Resource  string           `json:"resourceId,omitempty"`
}

// Node is one placed machine instance. Port order is significant and never
// changes after creation: recipes address ports by index. Position and
// display fields are presentation data stored with the entity.
type Node struct {
	ID         string  `json:"id"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Title      string  `json:"title"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	TitleColor string  `json:"titleColor"`
	Inputs     []*Port `json:"inputs"`
	Outputs    []*Port `json:"outputs"`
	MachineID  string  `json:"machineTypeId,omitempty"`
}

// Port finds a port of the node by ID, searching inputs then outputs.
func (n *Node) Port(id string) *Port {
	for _, p := range n.Inputs {
		if p.ID == id {
			return p
		}
	}
	for _, p := range n.Outputs {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// HasPowerInput reports whether the node has any input port of type power.
// Machines without one do not gate on power at all.
func (n *Node) HasPowerInput() bool {
	for _, p := range n.Inputs {
		if p.Type == catalog.PortPower {
			return true
		}
	}
	return false
}

// Connection is a directed edge from one node's output port to another
// node's input port. The graph exclusively owns connections; deleting a node
// cascades deletion of every connection touching it.
type Connection struct {
	ID       string `json:"id"`
	FromNode string `json:"fromNodeId"`
	FromPort string `json:"fromPortId"`
	ToNode   string `json:"toNodeId"`
	ToPort   string `json:"toPortId"`
}

// Data is the persisted plain-data form of a whole graph. Version-free by
// design; the format is the external persistence contract.
type Data struct {
	Nodes       []*Node       `json:"nodes"`
	Connections []*Connection `json:"connections"`
}
