/*
Package catalog
File: models.go
Description:
    Defines the static data structures of the factory universe: resources,
    port layouts, machine types, and recipes. This file is the "schema" for
    'factory.yaml' and for the JSON the API serves to clients.

    No logic is performed here; this file is strictly for type definitions.
*/

package catalog

// ResourceKind classifies what physically flows through the factory.
type ResourceKind string

const (
	KindItem   ResourceKind = "item"   // discrete solids (ore, plates)
	KindLiquid ResourceKind = "liquid" // pumped fluids (water, oil)
	KindGas    ResourceKind = "gas"    // compressed gases (steam, oxygen)
)

// PortType is the physical category of a machine port. It matches ResourceKind
// one-to-one, plus "power" which is never storable in an inventory.
type PortType string

const (
	PortItem   PortType = "item"
	PortLiquid PortType = "liquid"
	PortGas    PortType = "gas"
	PortPower  PortType = "power"
)

// Matches reports whether a resource of kind k can flow through a port of type t.
// Power ports never carry resources.
func (t PortType) Matches(k ResourceKind) bool {
	return string(t) == string(k)
}

// ResourceDefinition describes one tradeable/processable resource.
type ResourceDefinition struct {
	ID    string       `yaml:"id" json:"id"`       // Unique key (e.g., "iron_ore")
	Name  string       `yaml:"name" json:"name"`   // Display name
	Kind  ResourceKind `yaml:"kind" json:"kind"`   // item, liquid or gas
	Color string       `yaml:"color,omitempty" json:"color,omitempty"` // Display hint for clients
}

// PortSpec declares one port in a machine's layout. Order within the machine
// definition is significant: recipes address ports by index.
type PortSpec struct {
	Name string   `yaml:"name" json:"name"` // Human label (e.g., "Ore In")
	Type PortType `yaml:"type" json:"type"`
}

// MachineDef is the static definition of a machine type: its port layout and
// how much its input/output inventories hold. Capacity 0 means unbounded.
type MachineDef struct {
	ID       string     `yaml:"id" json:"id"`     // Unique key (e.g., "furnace")
	Name     string     `yaml:"name" json:"name"` // Display name
	Inputs   []PortSpec `yaml:"inputs,omitempty" json:"inputs,omitempty"`
	Outputs  []PortSpec `yaml:"outputs,omitempty" json:"outputs,omitempty"`
	Capacity int        `yaml:"capacity" json:"capacity"`
}

// Stack is a resource quantity pair, used for inventory queries and recipe costs.
type Stack struct {
	Resource string `yaml:"resource" json:"resource"`
	Amount   int    `yaml:"amount" json:"amount"`
}

// RecipeBinding ties a resource amount to a specific port index of the machine
// the recipe belongs to. PortIndex addresses the machine's input list for input
// bindings and the output list for output bindings.
type RecipeBinding struct {
	PortIndex int    `yaml:"port" json:"port"`
	Resource  string `yaml:"resource" json:"resource"`
	Amount    int    `yaml:"amount" json:"amount"`
}

// Recipe is a static transformation rule executed by the tick engine.
// Power is the per-tick delta: positive = consumption, negative = generation.
// A recipe is never both; the loader rejects definitions that claim otherwise.
type Recipe struct {
	Machine  string          `yaml:"machine" json:"machine"`   // MachineDef ID this recipe runs on
	Name     string          `yaml:"name" json:"name"`         // Display name (e.g., "Smelt Iron")
	Inputs   []RecipeBinding `yaml:"inputs,omitempty" json:"inputs,omitempty"`
	Outputs  []RecipeBinding `yaml:"outputs,omitempty" json:"outputs,omitempty"`
	Power    int             `yaml:"power" json:"power"`       // Per-tick delta
	Duration int             `yaml:"duration" json:"duration"` // Ticks from start to completion
}

// Generates reports whether the recipe produces power instead of consuming it.
func (r *Recipe) Generates() bool { return r.Power < 0 }

// InputStacks returns the recipe's input bindings as plain stacks.
func (r *Recipe) InputStacks() []Stack {
	stacks := make([]Stack, 0, len(r.Inputs))
	for _, b := range r.Inputs {
		stacks = append(stacks, Stack{Resource: b.Resource, Amount: b.Amount})
	}
	return stacks
}

// OutputStacks returns the recipe's output bindings as plain stacks.
func (r *Recipe) OutputStacks() []Stack {
	stacks := make([]Stack, 0, len(r.Outputs))
	for _, b := range r.Outputs {
		stacks = append(stacks, Stack{Resource: b.Resource, Amount: b.Amount})
	}
	return stacks
}
