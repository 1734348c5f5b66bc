package server

import (
	"encoding/json"
	"net/http"

	"github.com/hirestack/assessrec/evaluation"
)

func (s *Server) handleGetGroundTruth(w http.ResponseWriter, r *http.Request) {
	entries, err := s.eval.GroundTruth()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if entries == nil {
		entries = []evaluation.GroundTruth{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handlePutGroundTruth(w http.ResponseWriter, r *http.Request) {
	var entries []evaluation.GroundTruth
	if err := json.NewDecoder(r.Body).Decode(&entries); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	for _, gt := range entries {
		if gt.ID == "" || gt.Query == "" {
			writeError(w, http.StatusBadRequest, "every ground-truth entry needs an id and a query")
			return
		}
	}
	if err := s.eval.SaveGroundTruth(entries); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": len(entries)})
}

func (s *Server) handleEvaluationRun(w http.ResponseWriter, r *http.Request) {
	k, err := queryInt(r, "k", 10)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	summary, err := s.harness.EvaluateAll(r.Context(), k)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleEvaluationQuery(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QueryID string `json:"query_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	k, err := queryInt(r, "k", 10)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := s.harness.EvaluateQuery(r.Context(), req.QueryID, k)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleEvaluationHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.eval.History()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if history == nil {
		history = []evaluation.Summary{}
	}
	writeJSON(w, http.StatusOK, history)
}
