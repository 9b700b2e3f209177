package ports

import (
	"context"

	"fieldwork/internal/domain"
)

// WorkOrderQueue supports claiming pending raw work orders for background
// processing. A claim takes a short lease so a crashed worker's claim expires
// and the order becomes claimable again.
type WorkOrderQueue interface {
	ClaimNextPending(ctx context.Context) (order domain.RawWorkOrder, found bool, err error)
}

// WorkOrderParser extracts structured fields from free-text work orders.
type WorkOrderParser interface {
	Parse(ctx context.Context, rawText string) (*domain.ParsedWorkOrder, error)
}

// Geocoder resolves a street address to coordinates, first match only.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (domain.GeocodeResult, error)
}
