package usecases

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dailyerosion/depbackend/internal/core/domain"
	"github.com/dailyerosion/depbackend/internal/core/ports"
	"github.com/dailyerosion/depbackend/internal/pkg/geospatial"
	"github.com/dailyerosion/depbackend/internal/pkg/metrics"
	"github.com/dailyerosion/depbackend/internal/pkg/telemetry"
	"github.com/dailyerosion/depbackend/internal/pkg/wepp"
)

// Climate download formats.
const (
	FormatWEPP = "wepp"
	FormatNTT  = "ntt"
)

// Download is a file response.
type Download struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ClimateDownloadRequest describes a climate file download.
type ClimateDownloadRequest struct {
	Point      domain.GeoPoint
	Format     string
	Intensity  []int // minute windows; when set a CSV summary is returned instead
	ClientAddr string
}

// ClimateService serves the climate file nearest to a point.
type ClimateService struct {
	locator  ports.ClimateLocator
	files    ports.FileStore
	catalog  ports.ClimateCatalogRepository
	events   ports.EventPublisher
	bounds   domain.Bounds
	scenario int
	now      func() time.Time
}

// NewClimateService creates a ClimateService. catalog and events may be
// nil, in which case downloads are not audited to that sink.
func NewClimateService(
	locator ports.ClimateLocator,
	files ports.FileStore,
	catalog ports.ClimateCatalogRepository,
	events ports.EventPublisher,
	bounds domain.Bounds,
	scenario int,
) *ClimateService {
	return &ClimateService{
		locator:  locator,
		files:    files,
		catalog:  catalog,
		events:   events,
		bounds:   bounds,
		scenario: scenario,
		now:      time.Now,
	}
}

// WithClock replaces the clock used for audit records and the intensity
// cutoff date.
func (s *ClimateService) WithClock(now func() time.Time) *ClimateService {
	s.now = now
	return s
}

// Locator returns the name of the configured locator.
func (s *ClimateService) Locator() string { return s.locator.Name() }

// Nearest validates pt against the model domain and returns the nearest
// climate file. It fails with ErrNoClimateFile when nothing covers the
// point and ErrCatalogInconsistent when the match is missing on disk.
func (s *ClimateService) Nearest(ctx context.Context, pt domain.GeoPoint) (domain.ClimateMatch, error) {
	if !s.bounds.Contains(pt) {
		return domain.ClimateMatch{}, &domain.OutsideDomainError{Point: pt, Bounds: s.bounds}
	}

	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanClimateLocate,
		trace.WithAttributes(attribute.String(telemetry.AttrLocator, s.locator.Name())))
	defer span.End()

	m, err := s.locate(ctx, pt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.ClimateMatch{}, err
	}
	span.SetAttributes(
		attribute.String(telemetry.AttrFilepath, m.Path),
		attribute.Float64(telemetry.AttrDistance, m.Distance),
	)
	return m, nil
}

func (s *ClimateService) locate(ctx context.Context, pt domain.GeoPoint) (domain.ClimateMatch, error) {
	name := s.locator.Name()

	m, ok, err := s.locator.Locate(ctx, pt)
	if err != nil {
		metrics.ClimateLookups.WithLabelValues(name, "error").Inc()
		return domain.ClimateMatch{}, fmt.Errorf("%s locator: %w", name, err)
	}
	if !ok {
		metrics.ClimateLookups.WithLabelValues(name, "no_coverage").Inc()
		return domain.ClimateMatch{}, domain.ErrNoClimateFile
	}

	// Spiral hits were just probed on disk; only catalog rows can be stale.
	if m.Locator != LocatorSpiral {
		exists, err := s.files.Exists(m.Path)
		if err != nil {
			metrics.ClimateLookups.WithLabelValues(name, "error").Inc()
			return domain.ClimateMatch{}, fmt.Errorf("stat %s: %w", m.Path, err)
		}
		if !exists {
			metrics.ClimateLookups.WithLabelValues(name, "stale").Inc()
			return domain.ClimateMatch{}, fmt.Errorf("%w: %s", domain.ErrCatalogInconsistent, m.Path)
		}
	}

	if m.Location != nil {
		m.DistanceKm = geospatial.HaversineKm(pt.Lat, pt.Lon, m.Location.Lat, m.Location.Lon)
	}
	metrics.ClimateLookups.WithLabelValues(name, "found").Inc()
	metrics.ClimateLookupDistance.Observe(m.Distance)
	return m, nil
}

// Download locates the climate file for req.Point and renders it in the
// requested format. WEPP downloads are audited.
func (s *ClimateService) Download(ctx context.Context, req ClimateDownloadRequest) (*Download, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanClimateDownload)
	defer span.End()

	m, err := s.Nearest(ctx, req.Point)
	if err != nil {
		return nil, err
	}
	if req.Format == FormatWEPP {
		s.logRequest(ctx, req, m)
	}

	raw, err := s.files.ReadFile(m.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", m.Path, err)
	}

	if len(req.Intensity) > 0 {
		days, err := wepp.ReadCLI(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", m.Path, err)
		}
		var buf bytes.Buffer
		if err := wepp.WriteIntensityCSV(&buf, days, req.Intensity, s.now()); err != nil {
			return nil, err
		}
		return &Download{Filename: path.Base(m.Path), ContentType: "application/octet-stream", Body: buf.Bytes()}, nil
	}

	switch req.Format {
	case FormatNTT:
		days, err := wepp.ReadCLI(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", m.Path, err)
		}
		var buf bytes.Buffer
		if err := wepp.WriteNTT(&buf, days); err != nil {
			return nil, err
		}
		return &Download{Filename: wepp.NTTFilename(m.Path), ContentType: "application/octet-stream", Body: buf.Bytes()}, nil
	default:
		return &Download{Filename: path.Base(m.Path), ContentType: "application/octet-stream", Body: raw}, nil
	}
}

// logRequest records the download in the database and on the event bus.
// Failures are logged and do not affect the response.
func (s *ClimateService) logRequest(ctx context.Context, req ClimateDownloadRequest, m domain.ClimateMatch) {
	rec := &domain.ClimateRequest{
		ID:          uuid.NewString(),
		ClientAddr:  req.ClientAddr,
		Point:       req.Point,
		Scenario:    s.scenario,
		Path:        m.Path,
		Distance:    m.Distance,
		RequestedAt: s.now().UTC(),
	}

	if s.catalog != nil {
		if err := s.catalog.LogRequest(ctx, rec); err != nil {
			slog.WarnContext(ctx, "clifile request log failed", "error", err, "filepath", m.Path)
			metrics.ClimateRequestsLogged.WithLabelValues("database", "error").Inc()
		} else {
			metrics.ClimateRequestsLogged.WithLabelValues("database", "ok").Inc()
		}
	}
	if s.events != nil {
		if err := s.events.PublishClimateRequest(ctx, rec); err != nil {
			slog.WarnContext(ctx, "clifile request publish failed", "error", err, "id", rec.ID)
			metrics.ClimateRequestsLogged.WithLabelValues("nats", "error").Inc()
		} else {
			metrics.ClimateRequestsLogged.WithLabelValues("nats", "ok").Inc()
		}
	}
}
