package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
resources:
  - { id: iron_ore, name: "Iron Ore", kind: item }
  - { id: iron, name: "Iron", kind: item }
  - { id: water, name: "Water", kind: liquid }
  - { id: steam, name: "Steam", kind: gas }

machines:
  - id: furnace
    name: "Furnace"
    inputs:
      - { name: "Ore In", type: item }
      - { name: "Power In", type: power }
    outputs:
      - { name: "Metal Out", type: item }
    capacity: 50
  - id: storage
    name: "Storage"
    inputs:
      - { name: "In", type: item }
    outputs:
      - { name: "Out", type: item }
    capacity: 200

recipes:
  - machine: furnace
    name: "Smelt Iron"
    inputs:
      - { port: 0, resource: iron_ore, amount: 2 }
    outputs:
      - { port: 0, resource: iron, amount: 1 }
    power: 2
    duration: 4
`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	t.Run("resource lookup", func(t *testing.T) {
		r, ok := c.Resource("water")
		require.True(t, ok)
		assert.Equal(t, KindLiquid, r.Kind)
		assert.Equal(t, KindLiquid, c.ResourceKindOf("water"))
		assert.Equal(t, ResourceKind(""), c.ResourceKindOf("nope"))

		_, ok = c.Resource("nope")
		assert.False(t, ok)
	})

	t.Run("machine lookup", func(t *testing.T) {
		m, ok := c.Machine("furnace")
		require.True(t, ok)
		require.Len(t, m.Inputs, 2)
		assert.Equal(t, PortItem, m.Inputs[0].Type)
		assert.Equal(t, PortPower, m.Inputs[1].Type)
		assert.Equal(t, 50, m.Capacity)
	})

	t.Run("recipes in definition order", func(t *testing.T) {
		recipes := c.Recipes("furnace")
		require.Len(t, recipes, 1)
		assert.Equal(t, "Smelt Iron", recipes[0].Name)
		assert.Equal(t, 2, recipes[0].Power)
		assert.False(t, recipes[0].Generates())
	})

	t.Run("machine without recipes is a buffer", func(t *testing.T) {
		assert.Empty(t, c.Recipes("storage"))
	})
}

func TestParseRejects(t *testing.T) {
	base := func() ([]ResourceDefinition, []MachineDef) {
		resources := []ResourceDefinition{
			{ID: "ore", Name: "Ore", Kind: KindItem},
			{ID: "water", Name: "Water", Kind: KindLiquid},
		}
		machines := []MachineDef{{
			ID:      "mill",
			Name:    "Mill",
			Inputs:  []PortSpec{{Name: "In", Type: PortItem}, {Name: "Power", Type: PortPower}},
			Outputs: []PortSpec{{Name: "Out", Type: PortItem}},
		}}
		return resources, machines
	}

	t.Run("unknown resource in recipe", func(t *testing.T) {
		res, mach := base()
		_, err := New(res, mach, []Recipe{{
			Machine: "mill", Name: "bad", Duration: 1,
			Inputs: []RecipeBinding{{PortIndex: 0, Resource: "mystery", Amount: 1}},
		}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown resource")
	})

	t.Run("unknown machine", func(t *testing.T) {
		res, mach := base()
		_, err := New(res, mach, []Recipe{{Machine: "ghost", Name: "bad", Duration: 1}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown machine")
	})

	t.Run("port index out of range", func(t *testing.T) {
		res, mach := base()
		_, err := New(res, mach, []Recipe{{
			Machine: "mill", Name: "bad", Duration: 1,
			Outputs: []RecipeBinding{{PortIndex: 5, Resource: "ore", Amount: 1}},
		}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "out of range")
	})

	t.Run("resource bound to power port", func(t *testing.T) {
		res, mach := base()
		_, err := New(res, mach, []Recipe{{
			Machine: "mill", Name: "bad", Duration: 1,
			Inputs: []RecipeBinding{{PortIndex: 1, Resource: "ore", Amount: 1}},
		}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "power port")
	})

	t.Run("kind mismatch against port type", func(t *testing.T) {
		res, mach := base()
		_, err := New(res, mach, []Recipe{{
			Machine: "mill", Name: "bad", Duration: 1,
			Inputs: []RecipeBinding{{PortIndex: 0, Resource: "water", Amount: 1}},
		}})
		require.Error(t, err)
	})

	t.Run("non-positive duration", func(t *testing.T) {
		res, mach := base()
		_, err := New(res, mach, []Recipe{{Machine: "mill", Name: "bad", Duration: 0}})
		require.Error(t, err)
	})

	t.Run("duplicate resource", func(t *testing.T) {
		_, err := New([]ResourceDefinition{
			{ID: "ore", Kind: KindItem},
			{ID: "ore", Kind: KindItem},
		}, nil, nil)
		require.Error(t, err)
	})

	t.Run("unknown resource kind", func(t *testing.T) {
		_, err := New([]ResourceDefinition{{ID: "x", Kind: "plasma"}}, nil, nil)
		require.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Parse([]byte("resources: [what"))
		require.Error(t, err)
	})
}

func TestTransportAmount(t *testing.T) {
	assert.Equal(t, 1, TransportAmount(PortItem))
	assert.Equal(t, 10, TransportAmount(PortLiquid))
	assert.Equal(t, 10, TransportAmount(PortGas))
	assert.Equal(t, 0, TransportAmount(PortPower))
}

func TestPortTypeMatches(t *testing.T) {
	assert.True(t, PortItem.Matches(KindItem))
	assert.True(t, PortGas.Matches(KindGas))
	assert.False(t, PortItem.Matches(KindLiquid))
	assert.False(t, PortPower.Matches(KindItem))
}

func TestRecipeStacks(t *testing.T) {
	r := Recipe{
		Inputs:  []RecipeBinding{{PortIndex: 0, Resource: "ore", Amount: 2}},
		Outputs: []RecipeBinding{{PortIndex: 0, Resource: "iron", Amount: 1}},
	}
	assert.Equal(t, []Stack{{Resource: "ore", Amount: 2}}, r.InputStacks())
	assert.Equal(t, []Stack{{Resource: "iron", Amount: 1}}, r.OutputStacks())
}
