/*
Package api
File: handlers.go
Description:
    Contains the HTTP handlers for the factory server. These are the "user
    intent" surface of the simulation: place a machine, connect two ports,
    pick a recipe, delete things, and query or replace the persisted graph.
    Handlers decode JSON requests, call into the sim.Factory (which does its
    own locking), and return JSON responses.

    A rejected connection is a 409, not a 500: the core models illegal
    connections as a normal "not connectable" outcome.
*/

package api

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/everforgeworks/fabrica/internal/sim"
)

// Server bundles the factory with its HTTP surface.
type Server struct {
	Factory *sim.Factory
	Hub     *Hub
}

// Request DTOs (Data Transfer Objects)
// These structs define exactly what we expect the client to send us.

type PlaceNodeRequest struct {
	MachineID string  `json:"machine_type_id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

type NodeRequest struct {
	NodeID string `json:"node_id"`
}

type ConnectRequest struct {
	FromNode string `json:"from_node_id"`
	FromPort string `json:"from_port_id"`
	ToNode   string `json:"to_node_id"`
	ToPort   string `json:"to_port_id"`
}

type DisconnectRequest struct {
	ConnectionID string `json:"connection_id"`
}

type SelectRecipeRequest struct {
	NodeID string `json:"node_id"`
	Index  int    `json:"index"` // -1 selects automatic mode
}

// Routes registers every endpoint on the mux.
func (s *Server) Routes(mux *http.ServeMux) {
	// Static catalog
	mux.HandleFunc("/api/catalog/resources", s.HandleResources)
	mux.HandleFunc("/api/catalog/machines", s.HandleMachines)
	mux.HandleFunc("/api/catalog/recipes", s.HandleRecipes)

	// Graph persistence & inspection
	mux.HandleFunc("/api/graph", s.HandleGraph)
	mux.HandleFunc("/api/state", s.HandleState)

	// Action endpoints
	mux.HandleFunc("/api/nodes/place", s.HandlePlaceNode)
	mux.HandleFunc("/api/nodes/delete", s.HandleDeleteNode)
	mux.HandleFunc("/api/connect", s.HandleConnect)
	mux.HandleFunc("/api/disconnect", s.HandleDisconnect)
	mux.HandleFunc("/api/recipe", s.HandleSelectRecipe)

	// Real-Time WebSocket Endpoint
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ServeWs(s.Hub, w, r)
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("API: encode response: %v", err)
	}
}

// HandleResources returns the static resource definitions.
func (s *Server) HandleResources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Factory.Catalog().Resources())
}

// HandleMachines returns the static machine definitions (port layouts).
func (s *Server) HandleMachines(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Factory.Catalog().Machines())
}

// HandleRecipes returns the recipes of one machine type (?machine=furnace).
func (s *Server) HandleRecipes(w http.ResponseWriter, r *http.Request) {
	machine := r.URL.Query().Get("machine")
	if machine == "" {
		http.Error(w, "missing machine parameter", http.StatusBadRequest)
		return
	}
	writeJSON(w, s.Factory.Catalog().Recipes(machine))
}

// HandleGraph serves the persisted plain-data graph on GET and replaces the
// live graph from a posted document on POST. A malformed POST changes
// nothing: load-or-leave-untouched is the persistence contract.
func (s *Server) HandleGraph(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, s.Factory.GraphData())

	case http.MethodPost:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "failed to read body", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()
		if err := s.Factory.LoadJSON(body); err != nil {
			// Existing graph untouched; tell the caller why.
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("API: graph loaded")
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleState returns the per-node runtime snapshot for display:
// inventories, active recipe progress, and power numbers.
func (s *Server) HandleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Factory.Snapshot())
}

// HandlePlaceNode creates a node for a machine type at a position.
func (s *Server) HandlePlaceNode(w http.ResponseWriter, r *http.Request) {
	var req PlaceNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	n, err := s.Factory.PlaceMachine(req.MachineID, req.X, req.Y)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, n)
}

// HandleDeleteNode removes a node and everything connected to it.
func (s *Server) HandleDeleteNode(w http.ResponseWriter, r *http.Request) {
	var req NodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	s.Factory.RemoveNode(req.NodeID)
	w.WriteHeader(http.StatusNoContent)
}

// HandleConnect attempts to connect two ports. Argument order is free; the
// core normalizes direction. 409 means "not connectable" (wrong types, same
// node, incompatible resources, or duplicate).
func (s *Server) HandleConnect(w http.ResponseWriter, r *http.Request) {
	var req ConnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	conn, ok := s.Factory.Connect(req.FromNode, req.FromPort, req.ToNode, req.ToPort)
	if !ok {
		http.Error(w, "not connectable", http.StatusConflict)
		return
	}
	writeJSON(w, conn)
}

// HandleDisconnect removes a connection by ID.
func (s *Server) HandleDisconnect(w http.ResponseWriter, r *http.Request) {
	var req DisconnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	s.Factory.Disconnect(req.ConnectionID)
	w.WriteHeader(http.StatusNoContent)
}

// HandleSelectRecipe sets a node's recipe index (-1 for automatic).
// Switching always interrupts the current recipe; partial progress is gone.
func (s *Server) HandleSelectRecipe(w http.ResponseWriter, r *http.Request) {
	var req SelectRecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	s.Factory.SelectRecipe(req.NodeID, req.Index)
	w.WriteHeader(http.StatusNoContent)
}

// CORS ensures browser frontends on other domains can talk to the server.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
