package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"lumina-hq/polaris/pkg/evaluator"
	"lumina-hq/polaris/pkg/registry"
	"lumina-hq/polaris/pkg/rules"
)

// errorBody is the JSON error envelope shared by all endpoints.
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	var body errorBody
	body.Error.Code = code
	body.Error.Message = message
	respondJSON(w, status, body)
}

// keyFromQuery reads the country/category pair every rule set endpoint
// is scoped by. The second return is false when a parameter is missing,
// after the 400 has already been written.
func keyFromQuery(w http.ResponseWriter, r *http.Request) (rules.Key, bool) {
	country := r.URL.Query().Get("country")
	category := r.URL.Query().Get("category")
	if country == "" || category == "" {
		respondError(w, http.StatusBadRequest, "missing_parameter", "country and category query parameters are required")
		return rules.Key{}, false
	}
	return rules.Key{CountryCode: country, Category: category}, true
}

func (s *Server) handleActiveRuleSet(w http.ResponseWriter, r *http.Request) {
	key, ok := keyFromQuery(w, r)
	if !ok {
		return
	}

	rs, err := s.lifecycle.ActiveRuleSet(r.Context(), key)
	if err != nil {
		if rules.IsNotFound(err) {
			respondError(w, http.StatusNotFound, "not_found", "no approved rule set for "+key.String())
			return
		}
		s.internalError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rs)
}

func (s *Server) handleRuleSetHistory(w http.ResponseWriter, r *http.Request) {
	key, ok := keyFromQuery(w, r)
	if !ok {
		return
	}

	sets, err := s.lifecycle.History(r.Context(), key)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"ruleSets": sets})
}

func (s *Server) handleChangeLog(w http.ResponseWriter, r *http.Request) {
	key, ok := keyFromQuery(w, r)
	if !ok {
		return
	}

	entries, err := s.lifecycle.ChangeLog(r.Context(), key)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	state := rules.ApprovalState(r.URL.Query().Get("state"))
	switch state {
	case "", rules.StatePending, rules.StateApproved, rules.StateRejected:
	default:
		respondError(w, http.StatusBadRequest, "invalid_parameter", "unknown candidate state: "+string(state))
		return
	}

	candidates, err := s.lifecycle.Candidates(r.Context(), state)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"candidates": candidates})
}

func (s *Server) handleGetCandidate(w http.ResponseWriter, r *http.Request) {
	c, err := s.lifecycle.GetCandidate(r.Context(), r.PathValue("id"))
	if err != nil {
		if rules.IsNotFound(err) {
			respondError(w, http.StatusNotFound, "not_found", err.Error())
			return
		}
		s.internalError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (s *Server) handleCandidateDiff(w http.ResponseWriter, r *http.Request) {
	d, err := s.lifecycle.Diff(r.Context(), r.PathValue("id"))
	if err != nil {
		if rules.IsNotFound(err) {
			respondError(w, http.StatusNotFound, "not_found", err.Error())
			return
		}
		s.internalError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}

// reviewRequest is the body of approve and reject calls.
type reviewRequest struct {
	Actor  string `json:"actor"`
	Reason string `json:"reason,omitempty"`
}

func decodeReview(w http.ResponseWriter, r *http.Request) (reviewRequest, bool) {
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", "request body must be JSON: "+err.Error())
		return req, false
	}
	if req.Actor == "" {
		respondError(w, http.StatusBadRequest, "missing_parameter", "actor is required")
		return req, false
	}
	return req, true
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeReview(w, r)
	if !ok {
		return
	}

	rs, err := s.lifecycle.Approve(r.Context(), r.PathValue("id"), req.Actor)
	if err != nil {
		switch {
		case rules.IsNotFound(err):
			respondError(w, http.StatusNotFound, "not_found", err.Error())
		case rules.IsApprovalConflict(err):
			respondError(w, http.StatusConflict, "approval_conflict", err.Error())
		default:
			s.internalError(w, r, err)
		}
		return
	}
	respondJSON(w, http.StatusOK, rs)
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeReview(w, r)
	if !ok {
		return
	}
	if req.Reason == "" {
		respondError(w, http.StatusBadRequest, "missing_parameter", "reason is required when rejecting")
		return
	}

	err := s.lifecycle.Reject(r.Context(), r.PathValue("id"), req.Actor, req.Reason)
	if err != nil {
		switch {
		case rules.IsNotFound(err):
			respondError(w, http.StatusNotFound, "not_found", err.Error())
		case rules.IsApprovalConflict(err):
			respondError(w, http.StatusConflict, "approval_conflict", err.Error())
		default:
			s.internalError(w, r, err)
		}
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.registry.List(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"sources": sources})
}

func (s *Server) handleRegisterSource(w http.ResponseWriter, r *http.Request) {
	var src registry.Source
	if err := json.NewDecoder(r.Body).Decode(&src); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", "request body must be JSON: "+err.Error())
		return
	}

	if err := s.registry.Register(r.Context(), &src); err != nil {
		var ve *registry.ValidationError
		if errors.As(err, &ve) {
			respondError(w, http.StatusBadRequest, "invalid_source", ve.Error())
			return
		}
		s.internalError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, &src)
}

func (s *Server) handleGetSource(w http.ResponseWriter, r *http.Request) {
	src, err := s.registry.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if registry.IsNotFound(err) {
			respondError(w, http.StatusNotFound, "not_found", err.Error())
			return
		}
		s.internalError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, src)
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_parameter", "limit must be a positive integer")
			return
		}
		limit = n
	}

	sourceID := r.PathValue("id")
	if _, err := s.registry.Get(r.Context(), sourceID); err != nil {
		if registry.IsNotFound(err) {
			respondError(w, http.StatusNotFound, "not_found", err.Error())
			return
		}
		s.internalError(w, r, err)
		return
	}

	snapshots, err := s.registry.Snapshots(r.Context(), sourceID, limit)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"snapshots": snapshots})
}

// evaluateRequest asks for a compliance verdict on one document under
// the active rule set for a country/category pair.
type evaluateRequest struct {
	Country  string                     `json:"country"`
	Category string                     `json:"category"`
	Profile  evaluator.ApplicantProfile `json:"profile"`
	Document evaluator.DocumentContent  `json:"document"`
}

// evaluateResponse carries the verdict plus the rule set version it was
// judged against, so callers can tell stale verdicts apart after an
// approval.
type evaluateResponse struct {
	Verdict        evaluator.ComplianceVerdict `json:"verdict"`
	DocumentType   string                      `json:"documentType"`
	RuleSetID      string                      `json:"ruleSetId"`
	RuleSetVersion int                         `json:"ruleSetVersion"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", "request body must be JSON: "+err.Error())
		return
	}
	if req.Country == "" || req.Category == "" {
		respondError(w, http.StatusBadRequest, "missing_parameter", "country and category are required")
		return
	}

	key := rules.Key{CountryCode: req.Country, Category: req.Category}
	rs, err := s.lifecycle.ActiveRuleSet(r.Context(), key)
	if err != nil {
		if rules.IsNotFound(err) {
			respondError(w, http.StatusNotFound, "not_found", "no approved rule set for "+key.String())
			return
		}
		s.internalError(w, r, err)
		return
	}

	docType := rules.NormalizeDocumentType(req.Document.DocumentType)
	var requirement *rules.Requirement
	for _, candidate := range evaluator.ApplicableRequirements(rs.Data, req.Profile) {
		if candidate.DocumentType == docType {
			c := candidate
			requirement = &c
			break
		}
	}
	if requirement == nil {
		respondError(w, http.StatusUnprocessableEntity, "no_applicable_requirement",
			"the active rule set has no applicable requirement for document type "+docType)
		return
	}

	verdict := s.evaluator.Evaluate(r.Context(), evaluator.Input{
		Requirement: *requirement,
		Financial:   rs.Data.Financial,
		Document:    req.Document,
		Profile:     req.Profile,
	})

	respondJSON(w, http.StatusOK, evaluateResponse{
		Verdict:        verdict,
		DocumentType:   docType,
		RuleSetID:      rs.ID,
		RuleSetVersion: rs.Version,
	})
}

// internalError logs the error and hides the detail from the client.
func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	if s.logger != nil {
		s.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}
	respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}
