// Package scoring evaluates technicians against compliance policies. It is
// pure computation: no I/O, no shared state, safe to run concurrently across
// technicians.
package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"fieldwork/internal/domain"
)

// Evaluate scores one technician against a policy's items.
//
// Items are evaluated in a stable order (requirement type, then requirement
// id) so passed/failed lists and the score are deterministic regardless of
// storage iteration order. Disabled items are skipped entirely: they appear in
// neither list and contribute nothing to the score denominator. A failing
// required item clears MeetsAll but never short-circuits scoring.
//
// Missing or malformed facts degrade to failed checks; Evaluate only errors on
// missing policy input (a technician without an id).
func Evaluate(items []domain.PolicyItem, facts domain.TechnicianFacts, targetState string, now time.Time) (domain.PolicyScoreResult, error) {
	if facts.TechnicianID == "" {
		return domain.PolicyScoreResult{}, &domain.ValidationError{Field: "technician_id", Message: "must not be empty"}
	}
	for _, it := range items {
		if it.Weight < 0 {
			return domain.PolicyScoreResult{}, &domain.ValidationError{
				Field:   "weight",
				Message: fmt.Sprintf("negative weight on item %s", it.RequirementType),
			}
		}
	}

	sorted := make([]domain.PolicyItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].RequirementType != sorted[j].RequirementType {
			return sorted[i].RequirementType < sorted[j].RequirementType
		}
		return sorted[i].RequirementID < sorted[j].RequirementID
	})

	result := domain.PolicyScoreResult{
		TechnicianID: facts.TechnicianID,
		MeetsAll:     true,
	}

	var passedWeight, enabledWeight float64
	for _, it := range sorted {
		if it.Enforcement != domain.EnforcementEnabled {
			continue
		}
		enabledWeight += it.Weight

		pass, reason := checkItem(it, facts, targetState, now)
		outcome := domain.RequirementOutcome{RequirementType: it.RequirementType, Reason: reason}
		if pass {
			passedWeight += it.Weight
			result.Passed = append(result.Passed, outcome)
			continue
		}
		result.Failed = append(result.Failed, outcome)
		if it.Required {
			result.MeetsAll = false
		}
	}

	if enabledWeight > 0 {
		result.Score = int(math.Round(100 * passedWeight / enabledWeight))
	}
	return result, nil
}

// checkItem runs the predicate for one enabled item. Unknown requirement
// types fail closed.
func checkItem(it domain.PolicyItem, facts domain.TechnicianFacts, targetState string, now time.Time) (bool, string) {
	switch it.RequirementType {
	case domain.RequirementCOIValid:
		return checkCOI(it, facts, now)
	case domain.RequirementLicenseState:
		return checkLicenseState(facts, targetState)
	default:
		return false, fmt.Sprintf("unrecognized requirement type %q", it.RequirementType)
	}
}

func checkCOI(it domain.PolicyItem, facts domain.TechnicianFacts, now time.Time) (bool, string) {
	switch facts.COIState {
	case domain.COIValid:
	case domain.COIExpired:
		return false, "insurance certificate expired"
	case domain.COIUploaded:
		return false, "insurance certificate uploaded but not yet verified"
	case domain.COIMissing, "":
		return false, "insurance certificate missing"
	default:
		return false, fmt.Sprintf("insurance certificate state %q", facts.COIState)
	}

	if it.MinValidDays == 0 {
		return true, "insurance certificate valid"
	}
	if facts.COIValidUntil == nil {
		return false, "insurance certificate has no expiry date on file"
	}
	remaining := int(facts.COIValidUntil.Sub(now).Hours() / 24)
	if remaining < it.MinValidDays {
		return false, fmt.Sprintf("insurance certificate valid for %d more days, %d required", remaining, it.MinValidDays)
	}
	return true, fmt.Sprintf("insurance certificate valid for %d more days", remaining)
}

func checkLicenseState(facts domain.TechnicianFacts, targetState string) (bool, string) {
	if facts.LicenseStatus != domain.LicenseVerified {
		status := facts.LicenseStatus
		if status == "" {
			status = "unknown"
		}
		return false, fmt.Sprintf("license not verified (status %s)", status)
	}
	if targetState == "" {
		return false, "job has no target state"
	}
	if !strings.EqualFold(facts.LicenseState, targetState) {
		return false, fmt.Sprintf("license state %s does not match job state %s", facts.LicenseState, strings.ToUpper(targetState))
	}
	return true, fmt.Sprintf("license verified in %s", strings.ToUpper(targetState))
}
