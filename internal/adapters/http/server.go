package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"fieldwork/internal/domain"
	"fieldwork/internal/ports"
)

// Server exposes the policy, matching and work-order services over JSON.
type Server struct {
	policies   ports.Policies
	matching   ports.Matching
	workOrders ports.WorkOrders
	orders     ports.WorkOrderRepository
	tenants    ports.TenantResolver
	validate   *validator.Validate
	logger     *zap.Logger
}

func New(policies ports.Policies, matching ports.Matching, workOrders ports.WorkOrders, orders ports.WorkOrderRepository, tenants ports.TenantResolver, logger *zap.Logger) *Server {
	return &Server{
		policies:   policies,
		matching:   matching,
		workOrders: workOrders,
		orders:     orders,
		tenants:    tenants,
		validate:   validator.New(),
		logger:     logger,
	}
}

// Routes returns a chi.Router with all handlers mounted.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealthz)
	r.Post("/policies/draft", s.handleDraftPolicy)
	r.Post("/work-orders", s.handleSubmitWorkOrder)
	r.Post("/work-orders/{id}/process", s.handleProcessWorkOrder)
	r.Get("/work-orders/stats", s.handleWorkOrderStats)
	r.Get("/jobs/{id}/candidates", s.handleJobCandidates)
	return r
}

type draftPolicyItem struct {
	RequirementType string  `json:"requirement_type" validate:"required"`
	Required        bool    `json:"required"`
	Weight          float64 `json:"weight" validate:"gte=0"`
	MinValidDays    int     `json:"min_valid_days" validate:"gte=0"`
}

type draftPolicyRequest struct {
	OrgID string            `json:"org_id"`
	Items []draftPolicyItem `json:"items" validate:"required,min=1,dive"`
}

type submitWorkOrderRequest struct {
	OrgID   string `json:"org_id"`
	RawText string `json:"raw_text" validate:"required"`
	Source  string `json:"source"`
}

type requirementOutcome struct {
	RequirementType string `json:"requirement_type"`
	Reason          string `json:"reason"`
}

type policyScore struct {
	TechnicianID string               `json:"technician_id"`
	MeetsAll     bool                 `json:"meets_all"`
	Score        int                  `json:"score"`
	Passed       []requirementOutcome `json:"passed"`
	Failed       []requirementOutcome `json:"failed"`
}

type candidateMatch struct {
	TechnicianID string       `json:"technician_id"`
	DistanceM    *float64     `json:"distance_m"`
	DurationSec  *float64     `json:"duration_sec"`
	Score        *policyScore `json:"score,omitempty"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDraftPolicy(w http.ResponseWriter, r *http.Request) {
	var req draftPolicyRequest
	if !s.decode(w, r, &req) {
		return
	}
	orgID, ok := s.resolveOrg(w, r, req.OrgID)
	if !ok {
		return
	}

	items := make([]domain.PolicyItemInput, len(req.Items))
	for i, item := range req.Items {
		items[i] = domain.PolicyItemInput{
			RequirementType: item.RequirementType,
			Required:        item.Required,
			Weight:          item.Weight,
			MinValidDays:    item.MinValidDays,
		}
	}

	policyID, err := s.policies.CreateDraftPolicy(r.Context(), orgID, items)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"policy_id": policyID})
}

func (s *Server) handleSubmitWorkOrder(w http.ResponseWriter, r *http.Request) {
	var req submitWorkOrderRequest
	if !s.decode(w, r, &req) {
		return
	}
	orgID, ok := s.resolveOrg(w, r, req.OrgID)
	if !ok {
		return
	}

	order, err := s.workOrders.Submit(r.Context(), orgID, req.RawText, req.Source)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"raw_work_order_id": order.ID,
		"status":            order.Status,
	})
}

func (s *Server) handleProcessWorkOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	jobID, err := s.workOrders.Process(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := map[string]any{"job_id": jobID}
	if order, err := s.orders.GetWorkOrder(r.Context(), id); err == nil && order.ParsedData != nil {
		resp["parsed_data"] = order.ParsedData
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWorkOrderStats(w http.ResponseWriter, r *http.Request) {
	orgID, ok := s.resolveOrg(w, r, r.URL.Query().Get("org_id"))
	if !ok {
		return
	}

	stats, err := s.workOrders.Stats(r.Context(), orgID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"total":   stats.Total,
		"pending": stats.Pending,
		"parsed":  stats.Parsed,
		"created": stats.Created,
		"failed":  stats.Failed,
	})
}

func (s *Server) handleJobCandidates(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	policyID := r.URL.Query().Get("policy_id")

	matches, err := s.matching.CandidatesForJob(r.Context(), jobID, policyID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := make([]candidateMatch, len(matches))
	for i, m := range matches {
		out[i] = candidateMatch{
			TechnicianID: m.TechnicianID,
			DistanceM:    m.DistanceM,
			DurationSec:  m.DurationSec,
			Score:        scoreDTO(m.Score),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"candidates": out})
}

func scoreDTO(score *domain.PolicyScoreResult) *policyScore {
	if score == nil {
		return nil
	}
	return &policyScore{
		TechnicianID: score.TechnicianID,
		MeetsAll:     score.MeetsAll,
		Score:        score.Score,
		Passed:       outcomeDTOs(score.Passed),
		Failed:       outcomeDTOs(score.Failed),
	}
}

func outcomeDTOs(outcomes []domain.RequirementOutcome) []requirementOutcome {
	out := make([]requirementOutcome, len(outcomes))
	for i, o := range outcomes {
		out[i] = requirementOutcome{RequirementType: o.RequirementType, Reason: o.Reason}
	}
	return out
}

// resolveOrg maps the caller's X-User-ID header to an organization and checks
// it against the org the request names. There is no fallback org: requests
// without a resolvable caller are rejected.
func (s *Server) resolveOrg(w http.ResponseWriter, r *http.Request, requested string) (string, bool) {
	principal := r.Header.Get("X-User-ID")
	if principal == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing X-User-ID header"})
		return "", false
	}
	orgID, err := s.tenants.ResolveOrg(r.Context(), principal)
	if err != nil {
		var nfe *domain.NotFoundError
		if errors.As(err, &nfe) {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "no organization membership"})
			return "", false
		}
		s.writeError(w, err)
		return "", false
	}
	if requested != "" && requested != orgID {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "organization mismatch"})
		return "", false
	}
	return orgID, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var (
		verr *domain.ValidationError
		nfe  *domain.NotFoundError
		perr *domain.ParseError
	)
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": verr.Error()})
	case errors.As(err, &nfe):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": nfe.Error()})
	case errors.As(err, &perr):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": perr.Error()})
	default:
		s.logger.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
