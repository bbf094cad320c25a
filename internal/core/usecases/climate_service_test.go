package usecases_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dailyerosion/depbackend/internal/core/domain"
	"github.com/dailyerosion/depbackend/internal/core/usecases"
)

var conus = domain.Bounds{MinLat: 23, MinLon: -126, MaxLat: 50, MaxLon: -66}

const amesCLI = `5.300000
   1   1   0
   Station:  IA AMES  CLIGEN VERSION 5.3
 da mo year  nbrkpt  tmax   tmin   rad   w-vel  w-dir  tdew
                      (C)     (C)   (l/d)  (m/s) (deg)   (C)
 1  5  2020     2   20.0   10.0   500.0   4.2   270.0   8.0
 14.00   0.00
 14.50  25.40
 2  5  2020     0   22.0   11.0   550.0   3.0   180.0   9.0
`

type climateFixture struct {
	svc       *usecases.ClimateService
	prober    *mockProber
	files     *mockFiles
	catalog   *mockCatalog
	publisher *mockPublisher
}

func newClimateFixture(cells ...[2]float64) *climateFixture {
	f := &climateFixture{
		prober:    newMockProber(cells...),
		files:     &mockFiles{files: map[string][]byte{}},
		catalog:   &mockCatalog{},
		publisher: &mockPublisher{},
	}
	for _, c := range cells {
		f.files.files[pathFor(c[0], c[1])] = []byte(amesCLI)
	}
	loc := usecases.NewSpiralLocator(f.prober, 0.01, 40)
	f.svc = usecases.NewClimateService(loc, f.files, f.catalog, f.publisher, conus, 0).
		WithClock(func() time.Time { return time.Date(2020, 6, 1, 12, 0, 0, 0, time.UTC) })
	return f
}

func TestClimateService_OutsideDomain(t *testing.T) {
	loc := &mockLocator{}
	svc := usecases.NewClimateService(loc, &mockFiles{}, nil, nil, conus, 0)

	_, err := svc.Nearest(context.Background(), domain.GeoPoint{Lat: 42, Lon: -130})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrOutsideDomain)
	assert.Equal(t, "Requested point outside of bounds -126,23 -66,50!", err.Error())
	assert.Zero(t, loc.calls, "locator must not run for points outside the domain")
}

func TestClimateService_Nearest(t *testing.T) {
	f := newClimateFixture([2]float64{-93.50, 42.00})

	m, err := f.svc.Nearest(context.Background(), domain.GeoPoint{Lat: 42.002, Lon: -93.497})
	require.NoError(t, err)
	assert.Equal(t, pathFor(-93.50, 42.00), m.Path)
	assert.Zero(t, m.Distance)
	assert.InDelta(t, 0.35, m.DistanceKm, 0.05)
}

func TestClimateService_SpiralHitNotRestatted(t *testing.T) {
	f := newClimateFixture([2]float64{-93.50, 42.00})

	m, err := f.svc.Nearest(context.Background(), ames)
	require.NoError(t, err)
	assert.Equal(t, usecases.LocatorSpiral, m.Locator)
	assert.Zero(t, f.files.existsCalls, "spiral hits are already confirmed by the prober")
}

func TestClimateService_NoCoverage(t *testing.T) {
	f := newClimateFixture()

	_, err := f.svc.Nearest(context.Background(), ames)
	assert.ErrorIs(t, err, domain.ErrNoClimateFile)
}

func TestClimateService_CatalogInconsistent(t *testing.T) {
	loc := &mockLocator{
		locateFn: func(context.Context, domain.GeoPoint) (domain.ClimateMatch, bool, error) {
			return domain.ClimateMatch{Path: "/i/0/cli/093x042/093.50x042.00.cli"}, true, nil
		},
	}
	svc := usecases.NewClimateService(loc, &mockFiles{}, nil, nil, conus, 0)

	_, err := svc.Nearest(context.Background(), ames)
	assert.ErrorIs(t, err, domain.ErrCatalogInconsistent)
	assert.NotErrorIs(t, err, domain.ErrNoClimateFile)
}

func TestClimateService_LocatorError(t *testing.T) {
	loc := &mockLocator{
		locateFn: func(context.Context, domain.GeoPoint) (domain.ClimateMatch, bool, error) {
			return domain.ClimateMatch{}, false, errors.New("connection refused")
		},
	}
	svc := usecases.NewClimateService(loc, &mockFiles{}, nil, nil, conus, 0)

	_, err := svc.Nearest(context.Background(), ames)
	assert.ErrorContains(t, err, "connection refused")
}

func TestClimateService_DownloadWEPP(t *testing.T) {
	f := newClimateFixture([2]float64{-93.50, 42.00})

	dl, err := f.svc.Download(context.Background(), usecases.ClimateDownloadRequest{
		Point: ames, Format: usecases.FormatWEPP, ClientAddr: "192.0.2.10",
	})
	require.NoError(t, err)
	assert.Equal(t, amesCLI, string(dl.Body))
	assert.Equal(t, "application/octet-stream", dl.ContentType)

	require.Len(t, f.catalog.logged, 1)
	rec := f.catalog.logged[0]
	assert.Equal(t, "192.0.2.10", rec.ClientAddr)
	assert.Equal(t, pathFor(-93.50, 42.00), rec.Path)
	assert.NotEmpty(t, rec.ID)
	require.Len(t, f.publisher.published, 1)
	assert.Equal(t, rec.ID, f.publisher.published[0].ID)
}

func TestClimateService_DownloadLogFailureIgnored(t *testing.T) {
	f := newClimateFixture([2]float64{-93.50, 42.00})
	f.catalog.logErr = errors.New("relation clifile_requests does not exist")
	f.publisher.err = errors.New("nats: no responders")

	dl, err := f.svc.Download(context.Background(), usecases.ClimateDownloadRequest{Point: ames, Format: usecases.FormatWEPP})
	require.NoError(t, err)
	assert.NotEmpty(t, dl.Body)
}

func TestClimateService_DownloadNTT(t *testing.T) {
	f := newClimateFixture([2]float64{-93.50, 42.00})

	dl, err := f.svc.Download(context.Background(), usecases.ClimateDownloadRequest{Point: ames, Format: usecases.FormatNTT})
	require.NoError(t, err)
	assert.Equal(t, "-93_50x42_00.wth", dl.Filename)
	lines := strings.Split(strings.TrimRight(string(dl.Body), "\r\n"), "\r\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "  2020  5  1   21  20.0   10.0  25.40", lines[0])
	assert.Empty(t, f.catalog.logged, "only wepp downloads are audited")
}

func TestClimateService_DownloadIntensity(t *testing.T) {
	f := newClimateFixture([2]float64{-93.50, 42.00})

	dl, err := f.svc.Download(context.Background(), usecases.ClimateDownloadRequest{
		Point: ames, Format: usecases.FormatWEPP, Intensity: []int{15, 30},
	})
	require.NoError(t, err)
	assert.Equal(t, "date,pcpn,i15_mm,i30_mm\n2020-05-01,25.40,12.70,25.40\n", string(dl.Body))
}
