/*
Package sim
File: snapshot.go
Description:
    Read-only projection of engine state for the JSON API and the websocket
    tick broadcast. Views carry copies of the stacks so they stay safe to
    serialize after the engine moves on.
*/

package sim

import (
	"github.com/everforgeworks/fabrica/internal/catalog"
)

// NodeView is the display projection of one node's runtime state, shaped for
// the JSON API and the websocket tick broadcast.
type NodeView struct {
	NodeID         string          `json:"node_id"`
	Machine        string          `json:"machine_type_id"`
	Inputs         []catalog.Stack `json:"inputs"`
	Outputs        []catalog.Stack `json:"outputs"`
	ActiveRecipe   string          `json:"active_recipe,omitempty"`
	Progress       int             `json:"progress"`
	Duration       int             `json:"duration,omitempty"`
	SelectedRecipe int             `json:"selected_recipe"`
	PowerConsumed  int             `json:"power_consumed"`
	PowerProduced  int             `json:"power_produced"`
	PowerSatisfied bool            `json:"power_satisfied"`
}

// Snapshot captures every registered node's runtime state in registration
// order. Safe to serialize after the call returns: the stacks are copies.
func (e *Engine) Snapshot(machineOf func(nodeID string) string) []NodeView {
	views := make([]NodeView, 0, len(e.order))
	for _, id := range e.order {
		st := e.states[id]
		v := NodeView{
			NodeID:         id,
			Inputs:         st.Input.Stacks(),
			Outputs:        st.Output.Stacks(),
			Progress:       st.Progress,
			SelectedRecipe: st.Selected,
			PowerConsumed:  st.PowerConsumed,
			PowerProduced:  st.PowerProduced,
			PowerSatisfied: st.PowerSatisfied,
		}
		if machineOf != nil {
			v.Machine = machineOf(id)
		}
		if st.Active != nil {
			v.ActiveRecipe = st.Active.Name
			v.Duration = st.Active.Duration
		}
		views = append(views, v)
	}
	return views
}
