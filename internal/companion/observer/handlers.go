package observer

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/safedrive-io/safedrive/internal/companion/api"
	"github.com/safedrive-io/safedrive/internal/companion/model"
)

// Decision consequences shown before a member commits. The numbers come
// from the vehicle units' speed governor.
const (
	ApproveConsequence = "Approving unlocks the vehicle with a 40 km/h speed cap (100 km/h maximum)."
	RejectConsequence  = "Rejecting keeps the vehicle hard locked."
)

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// handleReadyz answers 503 until a session exists; a signed-out
// companion has nothing consistent to serve.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if !s.core.SignedIn() {
		http.Error(w, "no active session", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.core.Dashboard())
}

func (s *Server) handleSensors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.core.Sensors())
}

func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	view := s.core.Request()
	if view == nil {
		http.Error(w, "no active request", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	req, err := s.core.AskStart(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

type decisionBody struct {
	Decision model.RequestStatus `json:"decision"`
	// Confirm acknowledges the consequence. Without it the call only
	// returns what the decision would do.
	Confirm bool `json:"confirm"`
}

type decisionPreview struct {
	Decision    model.RequestStatus `json:"decision"`
	Consequence string              `json:"consequence"`
	Confirmed   bool                `json:"confirmed"`
}

func (s *Server) handleDecision(w http.ResponseWriter, r *http.Request) {
	var body decisionBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	var consequence string
	switch body.Decision {
	case model.StatusApproved:
		consequence = ApproveConsequence
	case model.StatusRejected:
		consequence = RejectConsequence
	default:
		http.Error(w, "decision must be APPROVED or REJECTED", http.StatusBadRequest)
		return
	}

	if !body.Confirm {
		writeJSON(w, http.StatusOK, decisionPreview{Decision: body.Decision, Consequence: consequence})
		return
	}

	if err := s.core.Decide(r.Context(), body.Decision); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, decisionPreview{Decision: body.Decision, Consequence: consequence, Confirmed: true})
}

func (s *Server) handleAck(w http.ResponseWriter, r *http.Request) {
	s.core.AcknowledgeRequest(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleVehicles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.core.Vehicles())
}

type addVehicleBody struct {
	Name        string `json:"name"`
	PlateNumber string `json:"plateNumber"`
}

func (s *Server) handleAddVehicle(w http.ResponseWriter, r *http.Request) {
	var body addVehicleBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	v, err := s.core.AddVehicle(r.Context(), body.Name, body.PlateNumber)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) handleDeleteVehicle(w http.ResponseWriter, r *http.Request) {
	if err := s.core.DeleteVehicle(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSwitchVehicle(w http.ResponseWriter, r *http.Request) {
	if err := s.core.SwitchVehicle(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.core.ActiveVehicle())
}

func (s *Server) handleCredentials(w http.ResponseWriter, r *http.Request) {
	creds, ok := s.core.DisclosedCredentials(mux.Vars(r)["id"])
	if !ok {
		http.Error(w, "credentials not disclosed", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, creds)
}

func (s *Server) handleDismissCredentials(w http.ResponseWriter, r *http.Request) {
	s.core.DismissCredentials(mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRevealCredentials(w http.ResponseWriter, r *http.Request) {
	creds, err := s.core.RevealCredentials(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, creds)
}

func (s *Server) handleRotateCredentials(w http.ResponseWriter, r *http.Request) {
	creds, err := s.core.RotateCredentials(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, creds)
}

func (s *Server) handleProvision(w http.ResponseWriter, r *http.Request) {
	payload, err := s.core.Provision(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleMembers(w http.ResponseWriter, r *http.Request) {
	members, err := s.core.Members(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

type addMemberBody struct {
	Phone    string     `json:"phone"`
	Relation string     `json:"relation"`
	Role     model.Role `json:"role"`
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	var body addMemberBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	m, err := s.core.AddMember(r.Context(), body.Phone, body.Relation, body.Role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	var body api.UpdateMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	m, err := s.core.UpdateMember(r.Context(), mux.Vars(r)["id"], &body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	if err := s.core.DeleteMember(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetOverride(w http.ResponseWriter, r *http.Request) {
	var snap model.SensorSnapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	s.core.SetOverride(&snap)
	writeJSON(w, http.StatusOK, s.core.Sensors())
}

func (s *Server) handleClearOverride(w http.ResponseWriter, r *http.Request) {
	s.core.ClearOverride()
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps core failures onto status codes. Capability refusals
// are client errors; anything else came from the backend.
func writeError(w http.ResponseWriter, err error) {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "not signed in"):
		http.Error(w, msg, http.StatusUnauthorized)
	case strings.Contains(msg, "may not"):
		http.Error(w, msg, http.StatusForbidden)
	case strings.Contains(msg, "not disclosed"), strings.Contains(msg, "no pending decision"),
		strings.Contains(msg, "no telemetry"), strings.Contains(msg, "unknown vehicle"):
		http.Error(w, msg, http.StatusConflict)
	default:
		http.Error(w, msg, http.StatusBadGateway)
	}
}
