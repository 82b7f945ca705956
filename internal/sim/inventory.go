/*
Package sim
File: inventory.go
Description:
    Bounded resource storage used twice per machine (input buffer, output
    buffer). Pure bookkeeping: every operation clamps instead of failing, so
    callers never see an error from moving resources around.
*/

package sim

import (
	"sort"

	"github.com/everforgeworks/fabrica/internal/catalog"
)

// Inventory is a bounded multiset of resource quantities. Capacity is the
// maximum total across all resource kinds combined; 0 means unbounded.
type Inventory struct {
	capacity int
	stacks   map[string]int
}

// NewInventory creates an empty inventory. capacity <= 0 means unbounded.
func NewInventory(capacity int) *Inventory {
	if capacity < 0 {
		capacity = 0
	}
	return &Inventory{capacity: capacity, stacks: make(map[string]int)}
}

// Capacity returns the maximum total quantity, 0 if unbounded.
func (inv *Inventory) Capacity() int { return inv.capacity }

// Total returns the summed quantity across all resources.
func (inv *Inventory) Total() int {
	total := 0
	for _, q := range inv.stacks {
		total += q
	}
	return total
}

// Room returns how many more units fit. Unbounded inventories report the
// requested want unchanged.
func (inv *Inventory) Room(want int) int {
	if want <= 0 {
		return 0
	}
	if inv.capacity <= 0 {
		return want
	}
	free := inv.capacity - inv.Total()
	if free < 0 {
		free = 0
	}
	if want < free {
		return want
	}
	return free
}

// Add stores up to amount units of a resource, clamped to remaining capacity.
// Returns how many units were actually added. amount <= 0 is a no-op.
func (inv *Inventory) Add(resource string, amount int) int {
	accepted := inv.Room(amount)
	if accepted <= 0 {
		return 0
	}
	inv.stacks[resource] += accepted
	return accepted
}

// Remove takes up to amount units of a resource, clamped to what is held.
// Returns how many units were actually removed. Never goes negative.
func (inv *Inventory) Remove(resource string, amount int) int {
	if amount <= 0 {
		return 0
	}
	held := inv.stacks[resource]
	if held == 0 {
		return 0
	}
	taken := amount
	if held < taken {
		taken = held
	}
	if held == taken {
		delete(inv.stacks, resource) // no zero-valued entries persist
	} else {
		inv.stacks[resource] = held - taken
	}
	return taken
}

// Amount returns the held quantity of one resource.
func (inv *Inventory) Amount(resource string) int { return inv.stacks[resource] }

// Has reports whether at least amount units of a resource are held.
func (inv *Inventory) Has(resource string, amount int) bool {
	return inv.stacks[resource] >= amount
}

// HasAll reports whether every requested stack is fully available. Stacks
// naming the same resource more than once are summed first, so two requests
// for 2 ore each demand 4 ore held, not 2.
func (inv *Inventory) HasAll(stacks []catalog.Stack) bool {
	needed := make(map[string]int, len(stacks))
	for _, s := range stacks {
		if s.Amount > 0 {
			needed[s.Resource] += s.Amount
		}
	}
	for res, amount := range needed {
		if !inv.Has(res, amount) {
			return false
		}
	}
	return true
}

// RemoveAll atomically removes every requested stack. If any stack is short,
// nothing is removed and false is returned.
func (inv *Inventory) RemoveAll(stacks []catalog.Stack) bool {
	if !inv.HasAll(stacks) {
		return false
	}
	for _, s := range stacks {
		inv.Remove(s.Resource, s.Amount)
	}
	return true
}

// CanAddAll reports whether every requested stack fits at once. Only the
// combined total matters since capacity is shared across resource kinds.
func (inv *Inventory) CanAddAll(stacks []catalog.Stack) bool {
	if inv.capacity <= 0 {
		return true
	}
	want := 0
	for _, s := range stacks {
		if s.Amount > 0 {
			want += s.Amount
		}
	}
	return inv.Total()+want <= inv.capacity
}

// AddAll stores every stack without capacity checks. Callers that care about
// the capacity invariant must check CanAddAll first; recipe completion does.
func (inv *Inventory) AddAll(stacks []catalog.Stack) {
	for _, s := range stacks {
		if s.Amount > 0 {
			inv.stacks[s.Resource] += s.Amount
		}
	}
}

// Stacks returns all non-zero stacks sorted by resource ID. Sorting keeps
// tick behavior deterministic when the engine scans for a matching stack.
func (inv *Inventory) Stacks() []catalog.Stack {
	out := make([]catalog.Stack, 0, len(inv.stacks))
	for res, q := range inv.stacks {
		out = append(out, catalog.Stack{Resource: res, Amount: q})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Resource < out[j].Resource })
	return out
}

// Clear drops everything.
func (inv *Inventory) Clear() {
	inv.stacks = make(map[string]int)
}
