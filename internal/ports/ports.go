package ports

import (
	"context"

	"fieldwork/internal/domain"
)

// Policies builds compliance policies and their requirements for an
// organization.
type Policies interface {
	EnsureRequirement(ctx context.Context, orgID, requirementType string, weight float64, minValidDays int) (domain.Requirement, error)
	CreateDraftPolicy(ctx context.Context, orgID string, items []domain.PolicyItemInput) (policyID string, err error)
	AttachPolicyToJob(ctx context.Context, policyID, jobID string) error
}

// Matching finds nearby technicians for a job and ranks them against a
// policy.
type Matching interface {
	FindCandidates(ctx context.Context, jobID string, loc domain.GeoPoint, trade, state string, maxDistanceM float64) ([]domain.CandidateMatch, error)
	RankForPolicy(ctx context.Context, policyID string, candidates []domain.CandidateMatch) ([]domain.CandidateMatch, error)
	CandidatesForJob(ctx context.Context, jobID, policyID string) ([]domain.CandidateMatch, error)
}

// WorkOrders runs the raw work-order intake and processing pipeline.
type WorkOrders interface {
	Submit(ctx context.Context, orgID, rawText, source string) (domain.RawWorkOrder, error)
	Process(ctx context.Context, rawWorkOrderID string) (jobID string, err error)
	Stats(ctx context.Context, orgID string) (domain.WorkOrderStats, error)
}
