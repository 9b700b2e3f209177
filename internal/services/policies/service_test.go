package policies

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fieldwork/internal/domain"
)

type fakeRequirementRepo struct {
	rows    map[string]domain.Requirement // keyed on org|type
	upserts int
}

func newFakeRequirementRepo() *fakeRequirementRepo {
	return &fakeRequirementRepo{rows: map[string]domain.Requirement{}}
}

func (f *fakeRequirementRepo) UpsertRequirement(_ context.Context, orgID, reqType string, weight float64, minValidDays int) (domain.Requirement, error) {
	f.upserts++
	key := orgID + "|" + reqType
	row, ok := f.rows[key]
	if !ok {
		row = domain.Requirement{ID: uuid.NewString(), OrgID: orgID, Type: reqType, Enforcement: domain.EnforcementEnabled}
	}
	row.Weight = weight
	row.MinValidDays = minValidDays
	f.rows[key] = row
	return row, nil
}

type fakePolicyRepo struct {
	policies   map[string]domain.Policy
	items      map[string][]domain.PolicyItem
	createErr  error
	itemFailAt int // fail the Nth InsertItem call (1-based), 0 = never
	inserts    int
}

func newFakePolicyRepo() *fakePolicyRepo {
	return &fakePolicyRepo{policies: map[string]domain.Policy{}, items: map[string][]domain.PolicyItem{}}
}

func (f *fakePolicyRepo) CreateDraft(_ context.Context, orgID string) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	id := uuid.NewString()
	f.policies[id] = domain.Policy{ID: id, OrgID: orgID, Status: "draft"}
	return id, nil
}

func (f *fakePolicyRepo) InsertItem(_ context.Context, item domain.PolicyItem) error {
	f.inserts++
	if f.itemFailAt > 0 && f.inserts == f.itemFailAt {
		return errors.New("write refused")
	}
	f.items[item.PolicyID] = append(f.items[item.PolicyID], item)
	return nil
}

func (f *fakePolicyRepo) AttachJob(_ context.Context, policyID, jobID string) (bool, error) {
	p, ok := f.policies[policyID]
	if !ok {
		return false, nil
	}
	p.JobID = &jobID
	f.policies[policyID] = p
	return true, nil
}

func (f *fakePolicyRepo) GetPolicy(_ context.Context, policyID string) (domain.Policy, error) {
	p, ok := f.policies[policyID]
	if !ok {
		return domain.Policy{}, fmt.Errorf("no rows")
	}
	return p, nil
}

func (f *fakePolicyRepo) ItemsForPolicy(_ context.Context, policyID string) ([]domain.PolicyItem, error) {
	return f.items[policyID], nil
}

func newService(reqs *fakeRequirementRepo, pols *fakePolicyRepo) *Service {
	return New(reqs, pols, zap.NewNop())
}

func TestEnsureRequirementIdempotent(t *testing.T) {
	reqs := newFakeRequirementRepo()
	svc := newService(reqs, newFakePolicyRepo())

	first, err := svc.EnsureRequirement(context.Background(), "org1", "COI_VALID", 50, 0)
	require.NoError(t, err)
	second, err := svc.EnsureRequirement(context.Background(), "org1", "COI_VALID", 50, 0)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "second call must resolve the same row")
	assert.Len(t, reqs.rows, 1)
}

func TestEnsureRequirementLastWriterWins(t *testing.T) {
	svc := newService(newFakeRequirementRepo(), newFakePolicyRepo())

	_, err := svc.EnsureRequirement(context.Background(), "org1", "COI_VALID", 50, 0)
	require.NoError(t, err)
	updated, err := svc.EnsureRequirement(context.Background(), "org1", "COI_VALID", 80, 30)
	require.NoError(t, err)

	assert.Equal(t, float64(80), updated.Weight)
	assert.Equal(t, 30, updated.MinValidDays)
}

func TestEnsureRequirementValidation(t *testing.T) {
	reqs := newFakeRequirementRepo()
	svc := newService(reqs, newFakePolicyRepo())

	tests := []struct {
		name    string
		orgID   string
		reqType string
		weight  float64
		days    int
	}{
		{"empty org", "", "COI_VALID", 50, 0},
		{"empty type", "org1", "", 50, 0},
		{"negative weight", "org1", "COI_VALID", -1, 0},
		{"negative days", "org1", "COI_VALID", 50, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.EnsureRequirement(context.Background(), tt.orgID, tt.reqType, tt.weight, tt.days)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
		})
	}
	assert.Zero(t, reqs.upserts, "validation failures must not reach the store")
}

func TestCreateDraftPolicy(t *testing.T) {
	reqs := newFakeRequirementRepo()
	pols := newFakePolicyRepo()
	svc := newService(reqs, pols)

	items := []domain.PolicyItemInput{
		{RequirementType: "COI_VALID", Required: true, Weight: 50},
		{RequirementType: "LICENSE_STATE", Required: true, Weight: 50, MinValidDays: 0},
	}
	policyID, err := svc.CreateDraftPolicy(context.Background(), "org1", items)
	require.NoError(t, err)
	require.NotEmpty(t, policyID)

	assert.Equal(t, "draft", pols.policies[policyID].Status)
	require.Len(t, pols.items[policyID], 2)
	assert.Len(t, reqs.rows, 2, "both requirement types registered")
}

func TestCreateDraftPolicyEmptyItems(t *testing.T) {
	pols := newFakePolicyRepo()
	svc := newService(newFakeRequirementRepo(), pols)

	_, err := svc.CreateDraftPolicy(context.Background(), "org1", nil)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, pols.policies, "validation must run before any write")
}

func TestCreateDraftPolicyDuplicateType(t *testing.T) {
	svc := newService(newFakeRequirementRepo(), newFakePolicyRepo())

	_, err := svc.CreateDraftPolicy(context.Background(), "org1", []domain.PolicyItemInput{
		{RequirementType: "COI_VALID", Weight: 50},
		{RequirementType: "COI_VALID", Weight: 30},
	})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestCreateDraftPolicyPartialFailure(t *testing.T) {
	reqs := newFakeRequirementRepo()
	pols := newFakePolicyRepo()
	pols.itemFailAt = 2
	svc := newService(reqs, pols)

	items := []domain.PolicyItemInput{
		{RequirementType: "COI_VALID", Required: true, Weight: 50},
		{RequirementType: "LICENSE_STATE", Required: true, Weight: 50},
	}
	policyID, err := svc.CreateDraftPolicy(context.Background(), "org1", items)

	var serr *domain.StorageError
	require.ErrorAs(t, err, &serr)
	assert.NotEmpty(t, policyID, "partially built policy id is surfaced to the caller")
	assert.Equal(t, policyID, serr.PolicyID)
	assert.Len(t, pols.items[policyID], 1, "earlier items are not rolled back")
}

func TestAttachPolicyToJob(t *testing.T) {
	pols := newFakePolicyRepo()
	svc := newService(newFakeRequirementRepo(), pols)

	policyID, err := svc.CreateDraftPolicy(context.Background(), "org1", []domain.PolicyItemInput{
		{RequirementType: "COI_VALID", Weight: 50},
	})
	require.NoError(t, err)

	require.NoError(t, svc.AttachPolicyToJob(context.Background(), policyID, "job-1"))
	require.NotNil(t, pols.policies[policyID].JobID)
	assert.Equal(t, "job-1", *pols.policies[policyID].JobID)
}

func TestAttachPolicyToJobNotFound(t *testing.T) {
	svc := newService(newFakeRequirementRepo(), newFakePolicyRepo())

	err := svc.AttachPolicyToJob(context.Background(), "missing", "job-1")
	var nferr *domain.NotFoundError
	require.ErrorAs(t, err, &nferr)
	assert.Equal(t, "policy", nferr.Kind)
}
