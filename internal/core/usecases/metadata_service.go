package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/dailyerosion/depbackend/internal/core/domain"
	"github.com/dailyerosion/depbackend/internal/core/ports"
)

// firstModelDate is the start of the DEP model record.
const firstModelDate = "2007-01-01"

// MetadataService answers version and time domain queries.
type MetadataService struct {
	meta ports.MetadataRepository
	now  func() time.Time
}

// NewMetadataService creates a new MetadataService.
func NewMetadataService(meta ports.MetadataRepository) *MetadataService {
	return &MetadataService{meta: meta, now: time.Now}
}

// Version returns the dep_version row the scenario was run with.
func (s *MetadataService) Version(ctx context.Context, scenario int) (map[string]any, error) {
	v, err := s.meta.Version(ctx, scenario)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, fmt.Errorf("%w: no version for scenario %d", domain.ErrNoData, scenario)
	}
	return v, nil
}

// TimeDomain reports the dates a scenario has output for. Both dates are
// null until the scenario has a last_date property.
func (s *MetadataService) TimeDomain(ctx context.Context, scenario int) (*domain.TimeDomain, error) {
	td := &domain.TimeDomain{
		ServerTime: s.now().UTC().Format(isoStamp),
		Scenario:   scenario,
	}
	last, ok, err := s.meta.LastDate(ctx, scenario)
	if err != nil {
		return nil, err
	}
	if ok {
		first := firstModelDate
		td.FirstDate = &first
		td.LastDate = &last
	}
	return td, nil
}
