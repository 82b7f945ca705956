/*
Package graph
File: ids.go
Description:
    Sequential identity generation for graph entities. Counters are per kind
    ("node_1", "port_7", "conn_2") and survive a graph load by advancing past
    every identity the loaded data already uses.
*/

package graph

import (
	"fmt"
	"strconv"
	"strings"
)

// IDGen produces entity identities of the form "<kind>_<n>" with one counter
// per kind. It is owned by the Manager rather than being a package global so
// a loaded graph can advance its counters past every observed identity and
// freshly created entities never collide with loaded ones.
type IDGen struct {
	next map[string]int
}

// NewIDGen creates a generator whose counters all start at 1.
func NewIDGen() *IDGen {
	return &IDGen{next: make(map[string]int)}
}

// Next returns a fresh identity for the given kind ("node", "port", "conn").
func (g *IDGen) Next(kind string) string {
	n := g.next[kind]
	if n == 0 {
		n = 1
	}
	g.next[kind] = n + 1
	return fmt.Sprintf("%s_%d", kind, n)
}

// AdvancePast bumps the counter for the ID's kind beyond its numeric suffix.
// IDs that don't follow the "<kind>_<n>" shape are ignored.
func (g *IDGen) AdvancePast(id string) {
	i := strings.LastIndexByte(id, '_')
	if i <= 0 {
		return
	}
	n, err := strconv.Atoi(id[i+1:])
	if err != nil || n < 0 {
		return
	}
	kind := id[:i]
	if g.next[kind] <= n {
		g.next[kind] = n + 1
	}
}
