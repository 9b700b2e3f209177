// Package workorders runs free-text work orders through parsing, geocoding,
// job creation, and technician matching.
package workorders

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"fieldwork/internal/domain"
	"fieldwork/internal/ports"
)

type Service struct {
	orders   ports.WorkOrderRepository
	jobs     ports.JobRepository
	parser   ports.WorkOrderParser
	geocoder ports.Geocoder
	matcher  ports.Matching
	logger   *zap.Logger
}

func New(orders ports.WorkOrderRepository, jobs ports.JobRepository, parser ports.WorkOrderParser, geocoder ports.Geocoder, matcher ports.Matching, logger *zap.Logger) *Service {
	return &Service{orders: orders, jobs: jobs, parser: parser, geocoder: geocoder, matcher: matcher, logger: logger}
}

// Submit records a raw work order in pending state for later processing.
func (s *Service) Submit(ctx context.Context, orgID, rawText, source string) (domain.RawWorkOrder, error) {
	if orgID == "" {
		return domain.RawWorkOrder{}, &domain.ValidationError{Field: "org_id", Message: "must not be empty"}
	}
	rawText = strings.TrimSpace(rawText)
	if rawText == "" {
		return domain.RawWorkOrder{}, &domain.ValidationError{Field: "raw_text", Message: "must not be empty"}
	}
	switch source {
	case "":
		source = domain.SourceSearchInput
	case domain.SourceEmail, domain.SourceAPI, domain.SourceManual, domain.SourceSearchInput:
	default:
		return domain.RawWorkOrder{}, &domain.ValidationError{Field: "source", Message: "unknown source " + source}
	}

	order, err := s.orders.InsertWorkOrder(ctx, orgID, rawText, source)
	if err != nil {
		return domain.RawWorkOrder{}, &domain.StorageError{Op: "insert raw work order", Err: err}
	}
	return order, nil
}

// Process turns a pending raw work order into a job in matching state.
//
// Parsing and geocoding are fail-closed: either failure marks the order
// failed with the reason and no job is created. The spatial matching kickoff
// is fail-open: its failure leaves the job in matching state with zero
// candidates for a later retry.
func (s *Service) Process(ctx context.Context, rawWorkOrderID string) (string, error) {
	if rawWorkOrderID == "" {
		return "", &domain.ValidationError{Field: "raw_work_order_id", Message: "must not be empty"}
	}

	order, err := s.orders.GetWorkOrder(ctx, rawWorkOrderID)
	if err != nil {
		return "", err
	}
	if order.Status == domain.WorkOrderJobCreated && order.JobID != nil {
		// Already processed; reprocessing would create a duplicate job.
		return *order.JobID, nil
	}

	if s.parser == nil {
		return "", &domain.ParseError{Source: "work order", Message: "no parser configured"}
	}
	parsed, err := s.parser.Parse(ctx, order.RawText)
	if err != nil {
		s.failOrder(ctx, order.ID, "parsing failed: "+err.Error())
		return "", err
	}
	if err := s.orders.MarkParsed(ctx, order.ID, parsed); err != nil {
		return "", &domain.StorageError{Op: "mark work order parsed", Err: err}
	}

	geo, err := s.geocoder.Geocode(ctx, parsed.AddressText)
	if err != nil {
		s.failOrder(ctx, order.ID, "geocoding failed: "+err.Error())
		return "", err
	}

	job := jobFromParsed(order.OrgID, parsed, geo)
	jobID, err := s.jobs.CreateJob(ctx, job)
	if err != nil {
		s.failOrder(ctx, order.ID, "job creation failed: "+err.Error())
		return "", &domain.StorageError{Op: "create job", Err: err}
	}
	if err := s.orders.LinkJob(ctx, order.ID, jobID); err != nil {
		return jobID, &domain.StorageError{Op: "link work order to job", Err: err}
	}

	state := ""
	if geo.State != nil {
		state = *geo.State
	}
	candidates, err := s.matcher.FindCandidates(ctx, jobID, domain.GeoPoint{Lat: geo.Lat, Lng: geo.Lng}, parsed.TradeNeeded, state, 0)
	if err != nil {
		s.logger.Warn("candidate search failed after job creation",
			zap.String("job_id", jobID), zap.Error(err))
	}

	s.logger.Info("work order processed",
		zap.String("raw_work_order_id", order.ID),
		zap.String("job_id", jobID),
		zap.String("trade", parsed.TradeNeeded),
		zap.Int("candidates", len(candidates)),
	)
	return jobID, nil
}

// Stats counts an organization's raw work orders per status.
func (s *Service) Stats(ctx context.Context, orgID string) (domain.WorkOrderStats, error) {
	if orgID == "" {
		return domain.WorkOrderStats{}, &domain.ValidationError{Field: "org_id", Message: "must not be empty"}
	}
	orders, err := s.orders.ListByOrg(ctx, orgID, "")
	if err != nil {
		return domain.WorkOrderStats{}, &domain.StorageError{Op: "list raw work orders", Err: err}
	}

	stats := domain.WorkOrderStats{Total: len(orders)}
	for _, o := range orders {
		switch o.Status {
		case domain.WorkOrderPending:
			stats.Pending++
		case domain.WorkOrderParsed:
			stats.Parsed++
		case domain.WorkOrderJobCreated:
			stats.Created++
		case domain.WorkOrderFailed:
			stats.Failed++
		}
	}
	return stats, nil
}

func (s *Service) failOrder(ctx context.Context, id, reason string) {
	if err := s.orders.MarkFailed(ctx, id, reason); err != nil {
		s.logger.Error("could not mark work order failed",
			zap.String("raw_work_order_id", id), zap.Error(err))
	}
}

func jobFromParsed(orgID string, parsed *domain.ParsedWorkOrder, geo domain.GeocodeResult) domain.Job {
	job := domain.Job{
		OrgID:        orgID,
		Title:        parsed.JobTitle,
		Description:  parsed.Description,
		Trade:        parsed.TradeNeeded,
		AddressText:  parsed.AddressText,
		City:         geo.City,
		State:        geo.State,
		Lat:          geo.Lat,
		Lng:          geo.Lng,
		Urgency:      parsed.Urgency,
		Duration:     parsed.Duration,
		BudgetMin:    parsed.BudgetMin,
		BudgetMax:    parsed.BudgetMax,
		PayRate:      parsed.PayRate,
		ContactName:  parsed.ContactName,
		ContactPhone: parsed.ContactPhone,
		ContactEmail: parsed.ContactEmail,
		Status:       domain.JobMatching,
	}
	if ts, err := parseScheduled(parsed.ScheduledStart); err == nil {
		job.ScheduledAt = &ts
	}
	return job
}

// parseScheduled accepts RFC 3339 with or without an offset; the LLM emits
// both shapes.
func parseScheduled(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05", v)
}
