// Package api exposes read-only HTTP endpoints with the current health
// state and distribution tables of every pool, for operator introspection.
package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/gorilla/mux"

	"github.com/polaris-gslb/polaris/internal/pool"
	"github.com/polaris-gslb/polaris/pkg/logger"
)

// StateHandler serves the health state of a set of pools
type StateHandler struct {
	pools     map[string]*pool.Pool
	logger    *logger.Logger
	startTime time.Time
}

// NewStateHandler creates a state handler over the given pools
func NewStateHandler(pools map[string]*pool.Pool, log *logger.Logger) *StateHandler {
	return &StateHandler{
		pools:     pools,
		logger:    log.StateAPILogger(),
		startTime: time.Now(),
	}
}

// MemberResponse represents one pool member in API responses
type MemberResponse struct {
	IP     string `json:"ip"`
	Name   string `json:"name"`
	Weight int    `json:"weight"`
	Region string `json:"region,omitempty"`
	Status string `json:"status"`
}

// PoolResponse represents one pool in API responses
type PoolResponse struct {
	Name             string           `json:"name"`
	Monitor          string           `json:"monitor"`
	LBMethod         string           `json:"lb_method"`
	Fallback         string           `json:"fallback"`
	MaxAddrsReturned int              `json:"max_addrs_returned"`
	Status           string           `json:"status"`
	Members          []MemberResponse `json:"members"`
}

// StateResponse represents the full health state in API responses
type StateResponse struct {
	Pools     map[string]PoolResponse `json:"pools"`
	Uptime    string                  `json:"uptime"`
	Timestamp time.Time               `json:"timestamp"`
}

// ErrorResponse represents error responses
type ErrorResponse struct {
	Error     string    `json:"error"`
	Code      int       `json:"code"`
	Timestamp time.Time `json:"timestamp"`
}

// Routes returns the router with all state endpoints registered
func (h *StateHandler) Routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/state", h.StateHandler).Methods(http.MethodGet)
	r.HandleFunc("/pools/{pool}", h.PoolHandler).Methods(http.MethodGet)
	r.HandleFunc("/pools/{pool}/dist", h.DistHandler).Methods(http.MethodGet)
	return r
}

// StateHandler handles GET /state
func (h *StateHandler) StateHandler(w http.ResponseWriter, r *http.Request) {
	response := StateResponse{
		Pools:     make(map[string]PoolResponse, len(h.pools)),
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now(),
	}
	for name, p := range h.pools {
		response.Pools[name] = poolResponse(p)
	}

	h.writeJSON(w, http.StatusOK, response)
}

// PoolHandler handles GET /pools/{pool}
func (h *StateHandler) PoolHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.pools[mux.Vars(r)["pool"]]
	if !ok {
		h.writeError(w, http.StatusNotFound, "unknown pool")
		return
	}

	h.writeJSON(w, http.StatusOK, poolResponse(p))
}

// DistHandler handles GET /pools/{pool}/dist, returning a freshly built
// distribution snapshot for the pool.
func (h *StateHandler) DistHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.pools[mux.Vars(r)["pool"]]
	if !ok {
		h.writeError(w, http.StatusNotFound, "unknown pool")
		return
	}

	h.writeJSON(w, http.StatusOK, p.DistSnapshot(nil))

	h.logger.WithField("pool", p.Name).Debug("served distribution snapshot")
}

func poolResponse(p *pool.Pool) PoolResponse {
	status := "down"
	if p.Status() {
		status = "up"
	}

	monitorKind := ""
	if p.Monitor != nil {
		monitorKind = p.Monitor.Kind()
	}

	members := make([]MemberResponse, 0, len(p.Members))
	for _, m := range p.Members {
		members = append(members, MemberResponse{
			IP:     m.IP,
			Name:   m.Name,
			Weight: m.Weight,
			Region: m.Region,
			Status: m.Status().String(),
		})
	}
	sort.Slice(members, func(i, j int) bool { return members[i].IP < members[j].IP })

	return PoolResponse{
		Name:             p.Name,
		Monitor:          monitorKind,
		LBMethod:         string(p.LBMethod),
		Fallback:         string(p.Fallback),
		MaxAddrsReturned: p.MaxAddrsReturned,
		Status:           status,
		Members:          members,
	}
}

func (h *StateHandler) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.WithError(err).Error("failed to encode response")
	}
}

func (h *StateHandler) writeError(w http.ResponseWriter, code int, msg string) {
	h.writeJSON(w, code, ErrorResponse{
		Error:     msg,
		Code:      code,
		Timestamp: time.Now(),
	})
}
