package domain

import "time"

// Core domain models used internally. HTTP request/response shapes live in the
// http adapter; keep these decoupled where helpful.

// Enforcement controls whether a requirement participates in scoring.
type Enforcement string

const (
	EnforcementEnabled  Enforcement = "ENABLED"
	EnforcementDisabled Enforcement = "DISABLED"
)

// Requirement types the evaluator has predicates for. The set is open:
// policies may reference new types, which fail closed until a predicate
// exists for them.
const (
	RequirementCOIValid     = "COI_VALID"
	RequirementLicenseState = "LICENSE_STATE"
)

// Requirement is an org-scoped compliance check definition. (org, type) is
// unique; writes go through an upsert.
type Requirement struct {
	ID           string
	OrgID        string
	Type         string
	Weight       float64
	MinValidDays int
	Enforcement  Enforcement
}

type Policy struct {
	ID     string
	OrgID  string
	Status string // draft; later lifecycle states owned outside this service
	JobID  *string
}

// PolicyItem is one requirement's role within one policy, denormalized with
// the requirement's type and enforcement so the evaluator needs no extra
// lookups.
type PolicyItem struct {
	PolicyID        string
	RequirementID   string
	RequirementType string
	Required        bool
	Weight          float64
	MinValidDays    int
	Enforcement     Enforcement
}

// PolicyItemInput is the caller-facing shape for building a draft policy.
type PolicyItemInput struct {
	RequirementType string
	Required        bool
	Weight          float64
	MinValidDays    int
}

// Insurance certificate states as stored on the technician record.
const (
	COIValid    = "valid"
	COIExpired  = "expired"
	COIUploaded = "uploaded"
	COIMissing  = "missing"
)

// License verification states.
const (
	LicenseVerified   = "verified"
	LicensePending    = "pending"
	LicenseExpired    = "expired"
	LicenseUnverified = "unverified"
)

// TechnicianFacts is a read-only projection of a technician's current
// compliance state. Missing fields degrade to failed checks, never errors.
type TechnicianFacts struct {
	TechnicianID  string
	COIState      string
	COIValidUntil *time.Time
	LicenseStatus string
	LicenseState  string
	AverageRating *float64
}

// RequirementOutcome is one evaluated requirement with the reason for the
// branch taken, suitable for display.
type RequirementOutcome struct {
	RequirementType string
	Reason          string
}

// PolicyScoreResult is the evaluator's output for one (policy, technician)
// pair. Computed on demand, never persisted.
type PolicyScoreResult struct {
	TechnicianID string
	MeetsAll     bool
	Score        int // 0-100
	Passed       []RequirementOutcome
	Failed       []RequirementOutcome
}

// CandidateMatch is one technician under consideration for a job. Score is
// nil until a policy has been applied.
type CandidateMatch struct {
	TechnicianID string
	DistanceM    *float64
	DurationSec  *float64
	Score        *PolicyScoreResult
}

type GeoPoint struct {
	Lat float64
	Lng float64
}

type GeocodeResult struct {
	Lat   float64
	Lng   float64
	City  *string
	State *string
}

// Job matching lifecycle. The assign transition is triggered by an operator
// action, not by this service.
const (
	JobMatching = "matching"
	JobAssigned = "assigned"
)

type Job struct {
	ID           string
	OrgID        string
	Title        string
	Description  string
	Trade        string
	AddressText  string
	City         *string
	State        *string
	Lat          float64
	Lng          float64
	ScheduledAt  *time.Time
	Urgency      string
	Duration     string
	BudgetMin    float64
	BudgetMax    float64
	PayRate      string
	ContactName  string
	ContactPhone string
	ContactEmail string
	Status       string
	CreatedAt    time.Time
}

// Raw work order statuses.
const (
	WorkOrderPending    = "pending"
	WorkOrderParsed     = "parsed"
	WorkOrderJobCreated = "job_created"
	WorkOrderFailed     = "failed"
)

// Raw work order sources.
const (
	SourceEmail       = "email"
	SourceAPI         = "api"
	SourceManual      = "manual"
	SourceSearchInput = "search_input"
)

// RawWorkOrder is a free-text work order awaiting parsing. Pending rows double
// as the background processing queue.
type RawWorkOrder struct {
	ID           string
	OrgID        string
	RawText      string
	Source       string
	Status       string
	ParsedData   *ParsedWorkOrder
	JobID        *string
	ErrorMessage *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ParsedWorkOrder is the structured extraction of a raw work order. Field
// names mirror the LLM response schema.
type ParsedWorkOrder struct {
	JobTitle       string  `json:"job_title"`
	Description    string  `json:"description"`
	TradeNeeded    string  `json:"trade_needed"`
	AddressText    string  `json:"address_text"`
	ScheduledStart string  `json:"scheduled_start_ts"`
	Urgency        string  `json:"urgency"`
	Duration       string  `json:"duration"`
	BudgetMin      float64 `json:"budget_min"`
	BudgetMax      float64 `json:"budget_max"`
	PayRate        string  `json:"pay_rate"`
	ContactName    string  `json:"contact_name"`
	ContactPhone   string  `json:"contact_phone"`
	ContactEmail   string  `json:"contact_email"`
}

// WorkOrderStats summarizes raw work orders per status for an organization.
type WorkOrderStats struct {
	Total   int
	Pending int
	Parsed  int
	Created int
	Failed  int
}
