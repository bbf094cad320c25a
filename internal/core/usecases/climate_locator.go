package usecases

import (
	"context"
	"fmt"

	"github.com/dailyerosion/depbackend/internal/core/domain"
	"github.com/dailyerosion/depbackend/internal/core/ports"
	"github.com/dailyerosion/depbackend/internal/pkg/geospatial"
	"github.com/dailyerosion/depbackend/internal/pkg/metrics"
)

const (
	LocatorSpiral  = "spiral"
	LocatorCatalog = "catalog"
)

// SpiralLocator searches outward from the query's grid cell in square
// spiral order and returns the first cell with a climate file. Rings are
// visited in Chebyshev order, so a diagonal hit can be returned ahead of
// a nearer cell on the next ring.
type SpiralLocator struct {
	prober ports.CellProber
	grid   geospatial.Grid
	window int
}

// NewSpiralLocator creates a SpiralLocator that probes at most
// window*window cells spaced resolution degrees apart.
func NewSpiralLocator(prober ports.CellProber, resolution float64, window int) *SpiralLocator {
	return &SpiralLocator{
		prober: prober,
		grid:   geospatial.Grid{Resolution: resolution},
		window: window,
	}
}

func (l *SpiralLocator) Name() string { return LocatorSpiral }

// Locate implements ports.ClimateLocator.
func (l *SpiralLocator) Locate(ctx context.Context, pt domain.GeoPoint) (domain.ClimateMatch, bool, error) {
	ox, oy := l.grid.Index(pt.Lon), l.grid.Index(pt.Lat)
	half := float64(l.window) / 2

	probes := 0
	defer func() { metrics.SpiralProbes.Observe(float64(probes)) }()

	sp := geospatial.NewSpiral()
	for i := 0; i < l.window*l.window; i++ {
		x, y := sp.Next()
		if float64(x) <= -half || float64(x) > half || float64(y) <= -half || float64(y) > half {
			continue
		}
		if err := ctx.Err(); err != nil {
			return domain.ClimateMatch{}, false, err
		}

		lon, lat := l.grid.Value(ox+x), l.grid.Value(oy+y)
		probes++
		path, ok, err := l.prober.Probe(ctx, lon, lat)
		if err != nil {
			return domain.ClimateMatch{}, false, fmt.Errorf("probe %.2f,%.2f: %w", lon, lat, err)
		}
		if ok {
			cell := domain.GridCell{X: x, Y: y}
			return domain.ClimateMatch{
				Path:     path,
				Distance: cell.Distance(l.grid.Resolution),
				Location: &domain.GeoPoint{Lat: lat, Lon: lon},
				Cell:     &cell,
				Locator:  LocatorSpiral,
			}, true, nil
		}
	}
	return domain.ClimateMatch{}, false, nil
}

// CatalogLocator asks the climate_files spatial index for the exact
// nearest file within a search envelope.
type CatalogLocator struct {
	catalog       ports.ClimateCatalogRepository
	scenario      int
	searchDegrees float64
}

// NewCatalogLocator creates a CatalogLocator for one scenario.
func NewCatalogLocator(catalog ports.ClimateCatalogRepository, scenario int, searchDegrees float64) *CatalogLocator {
	return &CatalogLocator{catalog: catalog, scenario: scenario, searchDegrees: searchDegrees}
}

func (l *CatalogLocator) Name() string { return LocatorCatalog }

// Locate implements ports.ClimateLocator.
func (l *CatalogLocator) Locate(ctx context.Context, pt domain.GeoPoint) (domain.ClimateMatch, bool, error) {
	m, ok, err := l.catalog.Nearest(ctx, l.scenario, pt, l.searchDegrees)
	if err != nil || !ok {
		return domain.ClimateMatch{}, false, err
	}
	m.Locator = LocatorCatalog
	return m, true, nil
}
