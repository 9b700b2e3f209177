package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldwork/internal/domain"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func item(reqType string, required bool, weight float64) domain.PolicyItem {
	return domain.PolicyItem{
		PolicyID:        "pol-1",
		RequirementID:   "req-" + reqType,
		RequirementType: reqType,
		Required:        required,
		Weight:          weight,
		Enforcement:     domain.EnforcementEnabled,
	}
}

func compliantFacts() domain.TechnicianFacts {
	return domain.TechnicianFacts{
		TechnicianID:  "t1",
		COIState:      domain.COIValid,
		LicenseStatus: domain.LicenseVerified,
		LicenseState:  "CA",
	}
}

func TestEvaluateFullyCompliant(t *testing.T) {
	items := []domain.PolicyItem{
		item(domain.RequirementCOIValid, true, 50),
		item(domain.RequirementLicenseState, true, 50),
	}

	res, err := Evaluate(items, compliantFacts(), "CA", now)
	require.NoError(t, err)

	assert.True(t, res.MeetsAll)
	assert.Equal(t, 100, res.Score)
	assert.Len(t, res.Passed, 2)
	assert.Empty(t, res.Failed)
}

func TestEvaluateExpiredInsurance(t *testing.T) {
	items := []domain.PolicyItem{
		item(domain.RequirementCOIValid, true, 50),
		item(domain.RequirementLicenseState, true, 50),
	}
	facts := compliantFacts()
	facts.COIState = domain.COIExpired

	res, err := Evaluate(items, facts, "CA", now)
	require.NoError(t, err)

	assert.False(t, res.MeetsAll)
	assert.Equal(t, 50, res.Score)
	require.Len(t, res.Passed, 1)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, domain.RequirementLicenseState, res.Passed[0].RequirementType)
	assert.Equal(t, domain.RequirementCOIValid, res.Failed[0].RequirementType)
	assert.Contains(t, res.Failed[0].Reason, "expired")
}

func TestEvaluateUnknownTypeFailsClosed(t *testing.T) {
	items := []domain.PolicyItem{
		item(domain.RequirementCOIValid, false, 50),
		item("BACKGROUND_CHECK", false, 50),
	}

	res, err := Evaluate(items, compliantFacts(), "CA", now)
	require.NoError(t, err)

	// Unknown-but-enabled types fail and still count in the denominator.
	assert.Equal(t, 50, res.Score)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "BACKGROUND_CHECK", res.Failed[0].RequirementType)
	assert.True(t, res.MeetsAll, "unknown item was not required")
}

func TestEvaluateDisabledItemsExcluded(t *testing.T) {
	disabled := item("BACKGROUND_CHECK", true, 500)
	disabled.Enforcement = domain.EnforcementDisabled
	items := []domain.PolicyItem{
		item(domain.RequirementCOIValid, true, 50),
		disabled,
	}

	res, err := Evaluate(items, compliantFacts(), "CA", now)
	require.NoError(t, err)

	assert.Equal(t, 100, res.Score)
	assert.True(t, res.MeetsAll, "disabled required item must not gate")
	assert.Len(t, res.Passed, 1)
	assert.Empty(t, res.Failed)
}

func TestEvaluateNoEnabledItems(t *testing.T) {
	disabled := item(domain.RequirementCOIValid, true, 50)
	disabled.Enforcement = domain.EnforcementDisabled

	res, err := Evaluate([]domain.PolicyItem{disabled}, compliantFacts(), "CA", now)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Score)

	res, err = Evaluate(nil, compliantFacts(), "CA", now)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Score)
}

func TestEvaluateRequiredFailureKeepsScoring(t *testing.T) {
	items := []domain.PolicyItem{
		item(domain.RequirementCOIValid, true, 10),
		item(domain.RequirementLicenseState, false, 90),
	}
	facts := compliantFacts()
	facts.COIState = domain.COIMissing

	res, err := Evaluate(items, facts, "CA", now)
	require.NoError(t, err)

	assert.False(t, res.MeetsAll)
	assert.Equal(t, 90, res.Score, "score keeps being computed past a required failure")
}

func TestEvaluateMinValidDays(t *testing.T) {
	until := now.AddDate(0, 0, 10)

	tests := []struct {
		name         string
		minValidDays int
		validUntil   *time.Time
		wantPass     bool
	}{
		{"no forward requirement", 0, nil, true},
		{"enough runway", 7, &until, true},
		{"exactly enough runway", 10, &until, true},
		{"not enough runway", 30, &until, false},
		{"no expiry on file", 30, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := item(domain.RequirementCOIValid, true, 100)
			it.MinValidDays = tt.minValidDays
			facts := compliantFacts()
			facts.COIValidUntil = tt.validUntil

			res, err := Evaluate([]domain.PolicyItem{it}, facts, "CA", now)
			require.NoError(t, err)
			if tt.wantPass {
				assert.Equal(t, 100, res.Score)
				assert.True(t, res.MeetsAll)
			} else {
				assert.Equal(t, 0, res.Score)
				assert.False(t, res.MeetsAll)
			}
		})
	}
}

func TestEvaluateLicenseStateCaseInsensitive(t *testing.T) {
	items := []domain.PolicyItem{item(domain.RequirementLicenseState, true, 100)}
	facts := compliantFacts()
	facts.LicenseState = "ca"

	res, err := Evaluate(items, facts, "CA", now)
	require.NoError(t, err)
	assert.True(t, res.MeetsAll)

	res, err = Evaluate(items, facts, "", now)
	require.NoError(t, err)
	assert.False(t, res.MeetsAll, "no target state fails the check")
}

func TestEvaluateMissingFactsDegradeNotError(t *testing.T) {
	items := []domain.PolicyItem{
		item(domain.RequirementCOIValid, true, 50),
		item(domain.RequirementLicenseState, true, 50),
	}

	res, err := Evaluate(items, domain.TechnicianFacts{TechnicianID: "t9"}, "CA", now)
	require.NoError(t, err)
	assert.False(t, res.MeetsAll)
	assert.Equal(t, 0, res.Score)
	assert.Len(t, res.Failed, 2)
}

func TestEvaluateMissingTechnicianID(t *testing.T) {
	_, err := Evaluate(nil, domain.TechnicianFacts{}, "CA", now)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestEvaluateDeterministic(t *testing.T) {
	// Same inputs, shuffled item order: identical output, lists sorted by
	// requirement type.
	a := []domain.PolicyItem{
		item(domain.RequirementLicenseState, true, 30),
		item("BACKGROUND_CHECK", false, 20),
		item(domain.RequirementCOIValid, true, 50),
	}
	b := []domain.PolicyItem{a[2], a[0], a[1]}

	first, err := Evaluate(a, compliantFacts(), "CA", now)
	require.NoError(t, err)
	second, err := Evaluate(b, compliantFacts(), "CA", now)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	require.Len(t, first.Passed, 2)
	assert.Equal(t, domain.RequirementCOIValid, first.Passed[0].RequirementType)
	assert.Equal(t, domain.RequirementLicenseState, first.Passed[1].RequirementType)
}

func TestEvaluateScoreBoundsAndCounts(t *testing.T) {
	items := []domain.PolicyItem{
		item(domain.RequirementCOIValid, true, 33),
		item(domain.RequirementLicenseState, false, 17),
		item("DRUG_TEST", false, 11),
	}
	facts := compliantFacts()
	facts.LicenseStatus = domain.LicensePending

	res, err := Evaluate(items, facts, "CA", now)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, res.Score, 0)
	assert.LessOrEqual(t, res.Score, 100)
	assert.Equal(t, len(items), len(res.Passed)+len(res.Failed))
}

func TestEvaluateWeightMonotonicity(t *testing.T) {
	facts := compliantFacts()
	facts.LicenseStatus = domain.LicenseUnverified

	passing := item(domain.RequirementCOIValid, true, 50)
	failing := item(domain.RequirementLicenseState, false, 50)

	base, err := Evaluate([]domain.PolicyItem{passing, failing}, facts, "CA", now)
	require.NoError(t, err)

	heavier := passing
	heavier.Weight = 80
	bumped, err := Evaluate([]domain.PolicyItem{heavier, failing}, facts, "CA", now)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, bumped.Score, base.Score)

	// Removing a passing item never increases the score.
	removed, err := Evaluate([]domain.PolicyItem{failing}, facts, "CA", now)
	require.NoError(t, err)
	assert.LessOrEqual(t, removed.Score, base.Score)
}

func TestEvaluateNegativeWeightRejected(t *testing.T) {
	bad := item(domain.RequirementCOIValid, true, -1)
	_, err := Evaluate([]domain.PolicyItem{bad}, compliantFacts(), "CA", now)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
}
