/*
Package catalog
File: catalog.go
Description:
    Loads and indexes the static factory configuration: resource definitions,
    machine types (port layouts, inventory capacity) and the recipes each
    machine can run. Loaded once from 'factory.yaml' at boot (and again on
    SIGHUP); the simulation only ever reads it.
*/

package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Transport amounts per port type: how many units a single connection moves
// per tick. Power never moves through inventories.
const (
	transportItem  = 1
	transportFluid = 10
	bufferPerKind  = 5 // passthrough rate of recipe-less (buffer) machines
)

// TransportAmount returns the fixed per-tick transport quantity for a port type.
func TransportAmount(t PortType) int {
	switch t {
	case PortItem:
		return transportItem
	case PortLiquid, PortGas:
		return transportFluid
	default:
		return 0
	}
}

// BufferRate returns the per-resource-kind passthrough rate of buffer machines.
func BufferRate() int { return bufferPerKind }

// file mirrors the top-level structure of factory.yaml.
type file struct {
	Resources []ResourceDefinition `yaml:"resources"`
	Machines  []MachineDef         `yaml:"machines"`
	Recipes   []Recipe             `yaml:"recipes"`
}

// Catalog is the immutable registry of everything static in the factory.
type Catalog struct {
	resources map[string]ResourceDefinition
	machines  map[string]MachineDef
	recipes   map[string][]Recipe // machine ID -> candidate recipes, file order

	resourceList []ResourceDefinition
	machineList  []MachineDef
}

// New builds a catalog directly from definition slices. Used by tests and by
// Parse; validation rules are identical either way.
func New(resources []ResourceDefinition, machines []MachineDef, recipes []Recipe) (*Catalog, error) {
	c := &Catalog{
		resources:    make(map[string]ResourceDefinition, len(resources)),
		machines:     make(map[string]MachineDef, len(machines)),
		recipes:      make(map[string][]Recipe),
		resourceList: resources,
		machineList:  machines,
	}

	for _, r := range resources {
		if r.ID == "" {
			return nil, fmt.Errorf("catalog: resource with empty id")
		}
		if _, dup := c.resources[r.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate resource %q", r.ID)
		}
		switch r.Kind {
		case KindItem, KindLiquid, KindGas:
		default:
			return nil, fmt.Errorf("catalog: resource %q has unknown kind %q", r.ID, r.Kind)
		}
		c.resources[r.ID] = r
	}

	for _, m := range machines {
		if m.ID == "" {
			return nil, fmt.Errorf("catalog: machine with empty id")
		}
		if _, dup := c.machines[m.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate machine %q", m.ID)
		}
		for _, p := range append(append([]PortSpec{}, m.Inputs...), m.Outputs...) {
			switch p.Type {
			case PortItem, PortLiquid, PortGas, PortPower:
			default:
				return nil, fmt.Errorf("catalog: machine %q port %q has unknown type %q", m.ID, p.Name, p.Type)
			}
		}
		c.machines[m.ID] = m
	}

	for _, rc := range recipes {
		if err := c.checkRecipe(rc); err != nil {
			return nil, err
		}
		c.recipes[rc.Machine] = append(c.recipes[rc.Machine], rc)
	}

	return c, nil
}

// checkRecipe validates one recipe against the machines and resources already
// indexed: the machine must exist, every binding must name a known resource
// and an in-range port of a compatible type, and the power delta must not
// claim to consume and generate at once (impossible by sign, but a recipe
// binding power to a resource port would be a config bug we want loud).
func (c *Catalog) checkRecipe(rc Recipe) error {
	m, ok := c.machines[rc.Machine]
	if !ok {
		return fmt.Errorf("catalog: recipe %q references unknown machine %q", rc.Name, rc.Machine)
	}
	if rc.Duration <= 0 {
		return fmt.Errorf("catalog: recipe %q has non-positive duration", rc.Name)
	}
	for _, b := range rc.Inputs {
		if err := c.checkBinding(rc.Name, b, m.Inputs); err != nil {
			return err
		}
	}
	for _, b := range rc.Outputs {
		if err := c.checkBinding(rc.Name, b, m.Outputs); err != nil {
			return err
		}
	}
	return nil
}

func (c *Catalog) checkBinding(recipe string, b RecipeBinding, ports []PortSpec) error {
	res, ok := c.resources[b.Resource]
	if !ok {
		return fmt.Errorf("catalog: recipe %q references unknown resource %q", recipe, b.Resource)
	}
	if b.PortIndex < 0 || b.PortIndex >= len(ports) {
		return fmt.Errorf("catalog: recipe %q binding for %q has port index %d out of range", recipe, b.Resource, b.PortIndex)
	}
	if b.Amount <= 0 {
		return fmt.Errorf("catalog: recipe %q binding for %q has non-positive amount", recipe, b.Resource)
	}
	p := ports[b.PortIndex]
	if p.Type == PortPower {
		return fmt.Errorf("catalog: recipe %q binds resource %q to power port %q", recipe, b.Resource, p.Name)
	}
	if !p.Type.Matches(res.Kind) {
		return fmt.Errorf("catalog: recipe %q binds %s resource %q to %s port %q", recipe, res.Kind, b.Resource, p.Type, p.Name)
	}
	return nil
}

// Parse decodes a YAML catalog document and validates it.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}
	return New(f.Resources, f.Machines, f.Recipes)
}

// Load reads and parses a catalog YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(data)
}

// Resource looks up a resource definition by ID.
func (c *Catalog) Resource(id string) (ResourceDefinition, bool) {
	r, ok := c.resources[id]
	return r, ok
}

// ResourceKindOf returns the kind of a resource, or "" if unknown.
func (c *Catalog) ResourceKindOf(id string) ResourceKind {
	if r, ok := c.resources[id]; ok {
		return r.Kind
	}
	return ""
}

// Machine looks up a machine definition by ID.
func (c *Catalog) Machine(id string) (MachineDef, bool) {
	m, ok := c.machines[id]
	return m, ok
}

// Recipes returns the candidate recipes for a machine type, in definition
// order. A nil/empty result marks the machine as a buffer (passthrough) type.
func (c *Catalog) Recipes(machineID string) []Recipe {
	return c.recipes[machineID]
}

// Resources returns all resource definitions in file order.
func (c *Catalog) Resources() []ResourceDefinition { return c.resourceList }

// Machines returns all machine definitions in file order.
func (c *Catalog) Machines() []MachineDef { return c.machineList }
