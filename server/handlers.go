package server

import (
	"cmp"
	"net/http"
	"slices"
	"strconv"

	"github.com/leadwise/dispatch/store"
	"github.com/leadwise/dispatch/types"
)

type createOperatorRequest struct {
	Name    string `json:"name"`
	Active  *bool  `json:"active"`
	MaxLoad int    `json:"max_load"`
}

func (s *Server) handleCreateOperator(w http.ResponseWriter, r *http.Request) {
	var body createOperatorRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	// Operators default to active, matching how they are onboarded.
	active := true
	if body.Active != nil {
		active = *body.Active
	}

	op, err := s.store.CreateOperator(r.Context(), body.Name, active, body.MaxLoad)
	if err != nil {
		s.respondError(w, err)

		return
	}

	writeJSON(w, http.StatusCreated, op)
}

func (s *Server) handleListOperators(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.ListOperators(r.Context()))
}

func (s *Server) handleGetOperator(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	op, err := s.store.GetOperator(r.Context(), id)
	if err != nil {
		s.respondError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, op)
}

type updateOperatorRequest struct {
	Name    *string `json:"name"`
	Active  *bool   `json:"active"`
	MaxLoad *int    `json:"max_load"`
}

func (s *Server) handleUpdateOperator(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var body updateOperatorRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	op, err := s.store.UpdateOperator(r.Context(), id, store.OperatorPatch{
		Name:    body.Name,
		Active:  body.Active,
		MaxLoad: body.MaxLoad,
	})
	if err != nil {
		s.respondError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, op)
}

func (s *Server) handleDeleteOperator(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.store.DeleteOperator(r.Context(), id); err != nil {
		s.respondError(w, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type createChannelRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) handleCreateChannel(w http.ResponseWriter, r *http.Request) {
	var body createChannelRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	ch, err := s.store.CreateChannel(r.Context(), body.Name, body.Description)
	if err != nil {
		s.respondError(w, err)

		return
	}

	writeJSON(w, http.StatusCreated, ch)
}

func (s *Server) handleListChannels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.ListChannels(r.Context()))
}

func (s *Server) handleGetChannel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	ch, err := s.store.GetChannel(r.Context(), id)
	if err != nil {
		s.respondError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, ch)
}

func (s *Server) handleDeleteChannel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.store.DeleteChannel(r.Context(), id); err != nil {
		s.respondError(w, err)

		return
	}

	// Weights for a deleted channel would otherwise keep matching new
	// registrations against a channel the directory no longer knows.
	s.engine.RemoveChannelWeights(id)

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetWeights(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var entries []types.WeightEntry
	if !decodeJSON(w, r, &entries) {
		return
	}

	if err := s.engine.SetWeights(r.Context(), id, entries); err != nil {
		s.respondError(w, err)

		return
	}

	weights, err := s.engine.ChannelWeights(r.Context(), id)
	if err != nil {
		s.respondError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, weights)
}

func (s *Server) handleGetWeights(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	weights, err := s.engine.ChannelWeights(r.Context(), id)
	if err != nil {
		s.respondError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, weights)
}

type operatorStat struct {
	OperatorID   int64 `json:"operator_id"`
	RequestCount int64 `json:"request_count"`
}

type channelStatsResponse struct {
	ChannelID int64          `json:"channel_id"`
	Operators []operatorStat `json:"operators"`
}

func (s *Server) handleChannelStats(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	totals, err := s.engine.DistributionStats(r.Context(), id)
	if err != nil {
		s.respondError(w, err)

		return
	}

	resp := channelStatsResponse{ChannelID: id, Operators: []operatorStat{}}
	for operatorID, count := range totals {
		resp.Operators = append(resp.Operators, operatorStat{OperatorID: operatorID, RequestCount: count})
	}
	slices.SortFunc(resp.Operators, func(a, b operatorStat) int {
		return cmp.Compare(a.OperatorID, b.OperatorID)
	})

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRegisterRequest(w http.ResponseWriter, r *http.Request) {
	var reg types.Registration
	if !decodeJSON(w, r, &reg) {
		return
	}

	req, err := s.engine.RegisterRequest(r.Context(), reg)
	if err != nil {
		s.respondError(w, err)

		return
	}

	writeJSON(w, http.StatusCreated, req)
}

func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	filter := store.RequestFilter{}

	q := r.URL.Query()
	if v := q.Get("channel_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid channel_id")

			return
		}
		filter.ChannelID = id
	}
	if v := q.Get("operator_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid operator_id")

			return
		}
		filter.OperatorID = id
	}

	writeJSON(w, http.StatusOK, s.store.ListRequests(r.Context(), filter))
}

func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	req, err := s.store.GetRequest(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, req)
}

func (s *Server) handleCloseRequest(w http.ResponseWriter, r *http.Request) {
	req, err := s.engine.CloseRequest(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, req)
}

type leadWithRequests struct {
	Lead     *types.Lead      `json:"lead"`
	Requests []*types.Request `json:"requests"`
}

// handleListLeads returns every lead with its requests, showing that one
// lead can contact through several channels over time.
func (s *Server) handleListLeads(w http.ResponseWriter, r *http.Request) {
	leads := s.store.ListLeads(r.Context())
	requests := s.store.ListRequests(r.Context(), store.RequestFilter{})

	byLead := make(map[string][]*types.Request, len(leads))
	for _, req := range requests {
		byLead[req.LeadID] = append(byLead[req.LeadID], req)
	}

	out := make([]leadWithRequests, 0, len(leads))
	for _, lead := range leads {
		reqs := byLead[lead.ID]
		if reqs == nil {
			reqs = []*types.Request{}
		}
		out = append(out, leadWithRequests{Lead: lead, Requests: reqs})
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
