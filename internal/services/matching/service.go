// Package matching finds nearby technicians for a job and ranks them by
// compliance score and proximity.
package matching

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"fieldwork/internal/domain"
	"fieldwork/internal/ports"
	"fieldwork/internal/services/scoring"
)

// DefaultMaxDistanceM bounds the spatial search when the caller does not
// override it (40 km).
const DefaultMaxDistanceM = 40000

const defaultConcurrency = 8

type Service struct {
	candidates  ports.CandidateRepository
	policies    ports.PolicyRepository
	technicians ports.TechnicianRepository
	jobs        ports.JobRepository
	logger      *zap.Logger
	concurrency int
	now         func() time.Time
}

func New(candidates ports.CandidateRepository, policies ports.PolicyRepository, technicians ports.TechnicianRepository, jobs ports.JobRepository, logger *zap.Logger) *Service {
	return &Service{
		candidates:  candidates,
		policies:    policies,
		technicians: technicians,
		jobs:        jobs,
		logger:      logger,
		concurrency: defaultConcurrency,
		now:         time.Now,
	}
}

// FindCandidates runs the store's spatial matching procedure for the job and
// returns the candidates it produced, nearest first. A failed lookup degrades
// to an empty list: the job stays in matching state and the caller retries.
func (s *Service) FindCandidates(ctx context.Context, jobID string, loc domain.GeoPoint, trade, state string, maxDistanceM float64) ([]domain.CandidateMatch, error) {
	if jobID == "" {
		return nil, &domain.ValidationError{Field: "job_id", Message: "must not be empty"}
	}
	if maxDistanceM <= 0 {
		maxDistanceM = DefaultMaxDistanceM
	}

	if err := s.candidates.RunMatch(ctx, jobID, loc, trade, state, maxDistanceM); err != nil {
		s.logger.Warn("technician matching failed, returning no candidates",
			zap.String("job_id", jobID), zap.Error(err))
		return []domain.CandidateMatch{}, nil
	}
	list, err := s.candidates.ListForJob(ctx, jobID)
	if err != nil {
		s.logger.Warn("candidate read failed, returning no candidates",
			zap.String("job_id", jobID), zap.Error(err))
		return []domain.CandidateMatch{}, nil
	}

	sortByDistance(list)
	return list, nil
}

// RankForPolicy scores every candidate against the policy and returns the
// merged list sorted by score descending, then distance, then technician id.
// Scoring one candidate is independent of the others, so evaluation fans out
// across a small worker pool and the order is restored by the final sort.
func (s *Service) RankForPolicy(ctx context.Context, policyID string, candidates []domain.CandidateMatch) ([]domain.CandidateMatch, error) {
	if policyID == "" {
		return nil, &domain.ValidationError{Field: "policy_id", Message: "must not be empty"}
	}
	if len(candidates) == 0 {
		return []domain.CandidateMatch{}, nil
	}

	policy, err := s.policies.GetPolicy(ctx, policyID)
	if err != nil {
		return nil, err
	}
	items, err := s.policies.ItemsForPolicy(ctx, policyID)
	if err != nil {
		return nil, &domain.StorageError{Op: "load policy items", Err: err}
	}

	targetState := ""
	if policy.JobID != nil {
		job, err := s.jobs.GetJob(ctx, *policy.JobID)
		if err == nil && job.State != nil {
			targetState = *job.State
		}
	}

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.TechnicianID
	}
	facts, err := s.technicians.FactsFor(ctx, ids)
	if err != nil {
		return nil, &domain.StorageError{Op: "load technician facts", Err: err}
	}

	ranked := make([]domain.CandidateMatch, len(candidates))
	copy(ranked, candidates)
	now := s.now()

	workers := s.concurrency
	if workers > len(ranked) {
		workers = len(ranked)
	}
	idxCh := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idxCh {
				f, ok := facts[ranked[i].TechnicianID]
				if !ok {
					// Unknown technician: score against empty facts so
					// every enabled item fails rather than erroring out.
					f = domain.TechnicianFacts{TechnicianID: ranked[i].TechnicianID}
				}
				res, err := scoring.Evaluate(items, f, targetState, now)
				if err != nil {
					s.logger.Warn("candidate could not be scored",
						zap.String("technician_id", ranked[i].TechnicianID), zap.Error(err))
					continue
				}
				ranked[i].Score = &res
			}
		}()
	}
	for i := range ranked {
		idxCh <- i
	}
	close(idxCh)
	wg.Wait()

	sortRanked(ranked)
	return ranked, nil
}

// CandidatesForJob re-runs the spatial search for an existing job and, when a
// policy id is given, ranks the result against it. This is the poll target for
// jobs sitting in matching state.
func (s *Service) CandidatesForJob(ctx context.Context, jobID, policyID string) ([]domain.CandidateMatch, error) {
	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	state := ""
	if job.State != nil {
		state = *job.State
	}
	candidates, err := s.FindCandidates(ctx, jobID, domain.GeoPoint{Lat: job.Lat, Lng: job.Lng}, job.Trade, state, 0)
	if err != nil {
		return nil, err
	}
	if policyID == "" {
		return candidates, nil
	}
	return s.RankForPolicy(ctx, policyID, candidates)
}

// sortByDistance orders candidates nearest first, unknown distances last,
// ties broken by technician id.
func sortByDistance(list []domain.CandidateMatch) {
	sort.Slice(list, func(i, j int) bool {
		if c := compareDistance(list[i].DistanceM, list[j].DistanceM); c != 0 {
			return c < 0
		}
		return list[i].TechnicianID < list[j].TechnicianID
	})
}

// sortRanked orders candidates by score descending (unscored last), then
// distance ascending, then technician id.
func sortRanked(list []domain.CandidateMatch) {
	sort.Slice(list, func(i, j int) bool {
		si, sj := scoreOf(list[i]), scoreOf(list[j])
		if si != sj {
			return si > sj
		}
		if c := compareDistance(list[i].DistanceM, list[j].DistanceM); c != 0 {
			return c < 0
		}
		return list[i].TechnicianID < list[j].TechnicianID
	})
}

func scoreOf(c domain.CandidateMatch) int {
	if c.Score == nil {
		return -1
	}
	return c.Score.Score
}

func compareDistance(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	default:
		return 0
	}
}
