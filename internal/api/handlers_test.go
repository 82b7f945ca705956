package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/everforgeworks/fabrica/internal/catalog"
	"github.com/everforgeworks/fabrica/internal/graph"
	"github.com/everforgeworks/fabrica/internal/sim"
)

const testCatalogYAML = `
resources:
  - { id: ore, name: "Ore", kind: item }
  - { id: metal, name: "Metal", kind: item }
machines:
  - id: miner
    name: "Miner"
    outputs: [{ name: "Out", type: item }]
    capacity: 50
  - id: smelter
    name: "Smelter"
    inputs: [{ name: "In", type: item }]
    outputs: [{ name: "Out", type: item }]
    capacity: 50
recipes:
  - machine: miner
    name: "Mine"
    outputs: [{ port: 0, resource: ore, amount: 1 }]
    duration: 2
  - machine: smelter
    name: "Smelt"
    inputs: [{ port: 0, resource: ore, amount: 2 }]
    outputs: [{ port: 0, resource: metal, amount: 1 }]
    duration: 2
`

func newTestServer(t *testing.T) (*Server, *sim.Factory) {
	t.Helper()
	cat, err := catalog.Parse([]byte(testCatalogYAML))
	require.NoError(t, err)
	f := sim.NewFactory(cat)
	return &Server{Factory: f, Hub: NewHub()}, f
}

func postJSON(t *testing.T, handler http.HandlerFunc, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(raw))
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestHandleCatalog(t *testing.T) {
	s, _ := newTestServer(t)

	t.Run("machines", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/catalog/machines", nil)
		w := httptest.NewRecorder()
		s.HandleMachines(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var machines []catalog.MachineDef
		require.NoError(t, json.NewDecoder(w.Body).Decode(&machines))
		assert.Len(t, machines, 2)
	})

	t.Run("recipes require a machine parameter", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/catalog/recipes", nil)
		w := httptest.NewRecorder()
		s.HandleRecipes(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		req = httptest.NewRequest(http.MethodGet, "/api/catalog/recipes?machine=smelter", nil)
		w = httptest.NewRecorder()
		s.HandleRecipes(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var recipes []catalog.Recipe
		require.NoError(t, json.NewDecoder(w.Body).Decode(&recipes))
		require.Len(t, recipes, 1)
		assert.Equal(t, "Smelt", recipes[0].Name)
	})
}

func TestHandlePlaceNode(t *testing.T) {
	s, f := newTestServer(t)

	w := postJSON(t, s.HandlePlaceNode, PlaceNodeRequest{MachineID: "miner", X: 10, Y: 20})
	require.Equal(t, http.StatusOK, w.Code)

	var n graph.Node
	require.NoError(t, json.NewDecoder(w.Body).Decode(&n))
	assert.Equal(t, "miner", n.MachineID)
	assert.NotNil(t, f.State(n.ID)) // runtime state registered alongside

	t.Run("unknown machine type", func(t *testing.T) {
		w := postJSON(t, s.HandlePlaceNode, PlaceNodeRequest{MachineID: "ghost"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{oops"))
		w := httptest.NewRecorder()
		s.HandlePlaceNode(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleConnect(t *testing.T) {
	s, f := newTestServer(t)
	miner, err := f.PlaceMachine("miner", 0, 0)
	require.NoError(t, err)
	smelter, err := f.PlaceMachine("smelter", 0, 0)
	require.NoError(t, err)

	req := ConnectRequest{
		FromNode: miner.ID, FromPort: miner.Outputs[0].ID,
		ToNode: smelter.ID, ToPort: smelter.Inputs[0].ID,
	}

	w := postJSON(t, s.HandleConnect, req)
	require.Equal(t, http.StatusOK, w.Code)

	var conn graph.Connection
	require.NoError(t, json.NewDecoder(w.Body).Decode(&conn))
	assert.Equal(t, miner.ID, conn.FromNode)

	t.Run("duplicate is a conflict, not an error", func(t *testing.T) {
		w := postJSON(t, s.HandleConnect, req)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Len(t, f.GraphData().Connections, 1)
	})

	t.Run("disconnect", func(t *testing.T) {
		w := postJSON(t, s.HandleDisconnect, DisconnectRequest{ConnectionID: conn.ID})
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, f.GraphData().Connections)
	})
}

func TestHandleState(t *testing.T) {
	s, f := newTestServer(t)
	n, err := f.PlaceMachine("miner", 0, 0)
	require.NoError(t, err)
	f.Tick()

	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	w := httptest.NewRecorder()
	s.HandleState(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var views []sim.NodeView
	require.NoError(t, json.NewDecoder(w.Body).Decode(&views))
	require.Len(t, views, 1)
	assert.Equal(t, n.ID, views[0].NodeID)
	assert.Equal(t, "Mine", views[0].ActiveRecipe) // automatic mode picked it up
}

func TestHandleGraph(t *testing.T) {
	s, f := newTestServer(t)
	_, err := f.PlaceMachine("miner", 5, 5)
	require.NoError(t, err)

	get := httptest.NewRequest(http.MethodGet, "/api/graph", nil)
	w := httptest.NewRecorder()
	s.HandleGraph(w, get)
	require.Equal(t, http.StatusOK, w.Code)
	saved := w.Body.Bytes()

	t.Run("load replaces the live graph", func(t *testing.T) {
		other, fresh := newTestServer(t)
		req := httptest.NewRequest(http.MethodPost, "/api/graph", bytes.NewReader(saved))
		w := httptest.NewRecorder()
		other.HandleGraph(w, req)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Len(t, fresh.GraphData().Nodes, 1)
	})

	t.Run("malformed load is rejected and changes nothing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/graph", strings.NewReader("{broken"))
		w := httptest.NewRecorder()
		s.HandleGraph(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Len(t, f.GraphData().Nodes, 1)
	})

	t.Run("unsupported method", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/graph", nil)
		w := httptest.NewRecorder()
		s.HandleGraph(w, req)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

func TestHandleSelectRecipe(t *testing.T) {
	s, f := newTestServer(t)
	smelter, err := f.PlaceMachine("smelter", 0, 0)
	require.NoError(t, err)

	w := postJSON(t, s.HandleSelectRecipe, SelectRecipeRequest{NodeID: smelter.ID, Index: 0})
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 0, f.State(smelter.ID).Selected)
	assert.Equal(t, "ore", smelter.Inputs[0].Resource) // port rebound

	w = postJSON(t, s.HandleSelectRecipe, SelectRecipeRequest{NodeID: smelter.ID, Index: -1})
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, smelter.Inputs[0].Resource)
}

func TestCORS(t *testing.T) {
	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/state", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code) // preflight short-circuits
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/state", nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTeapot, w.Code)
}
