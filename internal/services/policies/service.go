// Package policies maintains org-scoped requirement definitions and assembles
// draft compliance policies over them.
package policies

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"fieldwork/internal/domain"
	"fieldwork/internal/ports"
)

type Service struct {
	requirements ports.RequirementRepository
	policies     ports.PolicyRepository
	logger       *zap.Logger
}

func New(requirements ports.RequirementRepository, policies ports.PolicyRepository, logger *zap.Logger) *Service {
	return &Service{requirements: requirements, policies: policies, logger: logger}
}

// EnsureRequirement upserts the (org, type) requirement definition.
// Last-writer-wins on weight and min-valid-days; new rows start ENABLED.
func (s *Service) EnsureRequirement(ctx context.Context, orgID, requirementType string, weight float64, minValidDays int) (domain.Requirement, error) {
	if orgID == "" {
		return domain.Requirement{}, &domain.ValidationError{Field: "org_id", Message: "must not be empty"}
	}
	if requirementType == "" {
		return domain.Requirement{}, &domain.ValidationError{Field: "requirement_type", Message: "must not be empty"}
	}
	if weight < 0 {
		return domain.Requirement{}, &domain.ValidationError{Field: "weight", Message: "must not be negative"}
	}
	if minValidDays < 0 {
		return domain.Requirement{}, &domain.ValidationError{Field: "min_valid_days", Message: "must not be negative"}
	}

	req, err := s.requirements.UpsertRequirement(ctx, orgID, requirementType, weight, minValidDays)
	if err != nil {
		return domain.Requirement{}, &domain.StorageError{Op: "upsert requirement", Err: err}
	}
	return req, nil
}

// CreateDraftPolicy creates a draft policy and its items. Input is validated
// before any write. The per-item writes are sequential and not transactional:
// on failure the policy and earlier items remain persisted, and the returned
// policy id (when non-empty) identifies the partially built policy.
func (s *Service) CreateDraftPolicy(ctx context.Context, orgID string, items []domain.PolicyItemInput) (string, error) {
	if err := validateItems(orgID, items); err != nil {
		return "", err
	}

	policyID, err := s.policies.CreateDraft(ctx, orgID)
	if err != nil {
		return "", &domain.StorageError{Op: "create policy", Err: err}
	}

	for _, it := range items {
		req, err := s.EnsureRequirement(ctx, orgID, it.RequirementType, it.Weight, it.MinValidDays)
		if err != nil {
			return policyID, &domain.StorageError{Op: "ensure requirement " + it.RequirementType, PolicyID: policyID, Err: err}
		}
		item := domain.PolicyItem{
			PolicyID:        policyID,
			RequirementID:   req.ID,
			RequirementType: req.Type,
			Required:        it.Required,
			Weight:          it.Weight,
			MinValidDays:    it.MinValidDays,
			Enforcement:     req.Enforcement,
		}
		if err := s.policies.InsertItem(ctx, item); err != nil {
			return policyID, &domain.StorageError{Op: "insert policy item " + it.RequirementType, PolicyID: policyID, Err: err}
		}
	}

	s.logger.Info("draft policy created",
		zap.String("policy_id", policyID),
		zap.String("org_id", orgID),
		zap.Int("items", len(items)),
	)
	return policyID, nil
}

// AttachPolicyToJob links a policy to a job. Attaching a nonexistent policy is
// an error, not a silent no-op.
func (s *Service) AttachPolicyToJob(ctx context.Context, policyID, jobID string) error {
	if policyID == "" {
		return &domain.ValidationError{Field: "policy_id", Message: "must not be empty"}
	}
	if jobID == "" {
		return &domain.ValidationError{Field: "job_id", Message: "must not be empty"}
	}
	updated, err := s.policies.AttachJob(ctx, policyID, jobID)
	if err != nil {
		return &domain.StorageError{Op: "attach policy to job", Err: err}
	}
	if !updated {
		return &domain.NotFoundError{Kind: "policy", ID: policyID}
	}
	return nil
}

func validateItems(orgID string, items []domain.PolicyItemInput) error {
	if orgID == "" {
		return &domain.ValidationError{Field: "org_id", Message: "must not be empty"}
	}
	if len(items) == 0 {
		return &domain.ValidationError{Field: "items", Message: "must not be empty"}
	}
	seen := make(map[string]struct{}, len(items))
	for i, it := range items {
		if it.RequirementType == "" {
			return &domain.ValidationError{Field: fmt.Sprintf("items[%d].requirement_type", i), Message: "must not be empty"}
		}
		if it.Weight < 0 {
			return &domain.ValidationError{Field: fmt.Sprintf("items[%d].weight", i), Message: "must not be negative"}
		}
		if it.MinValidDays < 0 {
			return &domain.ValidationError{Field: fmt.Sprintf("items[%d].min_valid_days", i), Message: "must not be negative"}
		}
		if _, dup := seen[it.RequirementType]; dup {
			return &domain.ValidationError{Field: fmt.Sprintf("items[%d].requirement_type", i), Message: "duplicate requirement type " + it.RequirementType}
		}
		seen[it.RequirementType] = struct{}{}
	}
	return nil
}
