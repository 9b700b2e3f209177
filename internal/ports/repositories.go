package ports

import (
	"context"

	"fieldwork/internal/domain"
)

// The postgres adapter implements every repository on one DB value, so method
// names are kept distinct across these interfaces.

// RequirementRepository stores compliance requirement definitions, one row per
// (org, requirement type).
type RequirementRepository interface {
	UpsertRequirement(ctx context.Context, orgID, requirementType string, weight float64, minValidDays int) (domain.Requirement, error)
}

// PolicyRepository stores policies and their items.
type PolicyRepository interface {
	CreateDraft(ctx context.Context, orgID string) (policyID string, err error)
	InsertItem(ctx context.Context, item domain.PolicyItem) error
	AttachJob(ctx context.Context, policyID, jobID string) (updated bool, err error)
	GetPolicy(ctx context.Context, policyID string) (domain.Policy, error)
	ItemsForPolicy(ctx context.Context, policyID string) ([]domain.PolicyItem, error)
}

// TechnicianRepository fetches compliance facts for a set of technicians.
// Technicians absent from the result map are scored against zero-value facts.
type TechnicianRepository interface {
	FactsFor(ctx context.Context, technicianIDs []string) (map[string]domain.TechnicianFacts, error)
}

// CandidateRepository runs the store's spatial matching procedure and reads
// back the candidates it produced for a job.
type CandidateRepository interface {
	RunMatch(ctx context.Context, jobID string, loc domain.GeoPoint, trade, state string, maxDistanceM float64) error
	ListForJob(ctx context.Context, jobID string) ([]domain.CandidateMatch, error)
}

// JobRepository stores jobs created from parsed work orders.
type JobRepository interface {
	CreateJob(ctx context.Context, job domain.Job) (jobID string, err error)
	GetJob(ctx context.Context, jobID string) (domain.Job, error)
}

// WorkOrderRepository stores raw work orders and their status transitions.
type WorkOrderRepository interface {
	InsertWorkOrder(ctx context.Context, orgID, rawText, source string) (domain.RawWorkOrder, error)
	GetWorkOrder(ctx context.Context, id string) (domain.RawWorkOrder, error)
	MarkParsed(ctx context.Context, id string, parsed *domain.ParsedWorkOrder) error
	MarkFailed(ctx context.Context, id, reason string) error
	LinkJob(ctx context.Context, id, jobID string) error
	ListByOrg(ctx context.Context, orgID, status string) ([]domain.RawWorkOrder, error)
}

// TenantResolver maps an authenticated principal to its organization. There is
// deliberately no default-org fallback: an unresolvable principal is an error.
type TenantResolver interface {
	ResolveOrg(ctx context.Context, principal string) (orgID string, err error)
}
