package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/hirestack/assessrec/catalog"
	"github.com/hirestack/assessrec/filter"
)

// canonicalHost is prefixed onto site-relative assessment URLs when
// emitting the compact recommendation response.
const canonicalHost = "https://www.shl.com"

// compactRecommendation is the row shape of the public /recommend
// contract.
type compactRecommendation struct {
	URL             string   `json:"url"`
	AdaptiveSupport string   `json:"adaptive_support"`
	Description     string   `json:"description"`
	Duration        int      `json:"duration"`
	RemoteSupport   string   `json:"remote_support"`
	TestType        []string `json:"test_type"`
}

type compactResponse struct {
	RecommendedAssessments []compactRecommendation `json:"recommended_assessments"`
}

// handleRecommendCompact serves the public /recommend contract: it
// never fails. Any internal error is logged and answered with an
// empty recommendation list.
func (s *Server) handleRecommendCompact(w http.ResponseWriter, r *http.Request) {
	empty := compactResponse{RecommendedAssessments: []compactRecommendation{}}

	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Warn("compact recommend: bad body", zap.Error(err))
		writeJSON(w, http.StatusOK, empty)
		return
	}

	result, err := s.rec.Recommend(r.Context(), req.Query, 10, filter.Filters{})
	if err != nil {
		s.logger.Warn("compact recommend: pipeline failed", zap.Error(err))
		writeJSON(w, http.StatusOK, empty)
		return
	}

	out := make([]compactRecommendation, 0, len(result.Items))
	for _, it := range result.Items {
		out = append(out, compactRecommendation{
			URL:             absoluteURL(it.URL),
			AdaptiveSupport: yesNo(it.AdaptiveIRT),
			Description:     it.Description,
			Duration:        catalog.DurationMinutes(it.Assessment),
			RemoteSupport:   yesNo(it.RemoteTesting),
			TestType:        it.TestTypes,
		})
	}
	writeJSON(w, http.StatusOK, compactResponse{RecommendedAssessments: out})
}

func absoluteURL(u string) string {
	if u == "" || strings.Contains(u, "://") {
		return u
	}
	if !strings.HasPrefix(u, "/") {
		u = "/" + u
	}
	return canonicalHost + u
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// recommendationsRequest is the rich API request body.
type recommendationsRequest struct {
	Query   string          `json:"query"`
	TopK    int             `json:"top_k"`
	Filters *filter.Filters `json:"filters"`
}

// handleRecommendations serves the rich recommendation API.
func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	var req recommendationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	topK := req.TopK
	if topK == 0 {
		var err error
		if topK, err = queryInt(r, "top_k", s.defaultTopK); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	var f filter.Filters
	if req.Filters != nil {
		f = *req.Filters
	}

	result, err := s.rec.Recommend(r.Context(), req.Query, topK, f)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
