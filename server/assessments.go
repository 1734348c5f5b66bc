package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hirestack/assessrec/catalog"
)

func (s *Server) handleListAssessments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var f catalog.ListFilter
	if v := q.Get("job_level"); v != "" {
		f.JobLevels = []string{v}
	}
	if v := q.Get("test_type"); v != "" {
		f.TestTypes = []string{v}
	}
	if v := q.Get("remote"); v != "" {
		remote, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid remote: "+v)
			return
		}
		f.RemoteTesting = &remote
	}

	skip, err := queryInt(r, "skip", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := queryInt(r, "limit", 100)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := s.store.List(r.Context(), f, skip, limit)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if out == nil {
		out = []catalog.Assessment{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetAssessment(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleCreateAssessment(w http.ResponseWriter, r *http.Request) {
	a, ok := decodeAssessment(w, r)
	if !ok {
		return
	}
	created, err := s.store.Create(r.Context(), a)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateAssessment(w http.ResponseWriter, r *http.Request) {
	a, ok := decodeAssessment(w, r)
	if !ok {
		return
	}
	a.ID = chi.URLParam(r, "id")
	updated, err := s.store.Update(r.Context(), a)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteAssessment(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// decodeAssessment parses and normalizes an assessment body: the
// duration tuple is rederived from duration_text, test types are
// normalized against the test-type vocabulary, and the other list
// columns are deduped (job levels are not checked against a
// vocabulary).
func decodeAssessment(w http.ResponseWriter, r *http.Request) (catalog.Assessment, bool) {
	var a catalog.Assessment
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return catalog.Assessment{}, false
	}
	if a.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return catalog.Assessment{}, false
	}
	a.TestTypes = catalog.NormalizeTestTypes(a.TestTypes)
	a.JobLevels = catalog.Dedupe(a.JobLevels)
	a.Languages = catalog.Dedupe(a.Languages)
	a.KeyFeatures = catalog.Dedupe(a.KeyFeatures)

	d := catalog.ParseDuration(a.DurationText)
	a.DurationMinMinutes = d.MinMinutes
	a.DurationMaxMinutes = d.MaxMinutes
	a.IsUntimed = d.IsUntimed
	a.IsVariableDuration = d.IsVariableDuration
	return a, true
}
