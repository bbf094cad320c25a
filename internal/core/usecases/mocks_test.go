package usecases_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/dailyerosion/depbackend/internal/core/domain"
)

// --- Mock CellProber ---

// mockProber answers probes from a set of cell centres keyed by rounded
// hundredths of a degree and counts calls.
type mockProber struct {
	mu     sync.Mutex
	files  map[[2]int]string
	err    error
	probes int
}

func newMockProber(cells ...[2]float64) *mockProber {
	p := &mockProber{files: map[[2]int]string{}}
	for _, c := range cells {
		p.files[cellKey(c[0], c[1])] = pathFor(c[0], c[1])
	}
	return p
}

func cellKey(lon, lat float64) [2]int {
	return [2]int{int(math.Round(lon * 100)), int(math.Round(lat * 100))}
}

func pathFor(lon, lat float64) string {
	return fmt.Sprintf("/i/0/cli/%.2fx%.2f.cli", lon, lat)
}

func (m *mockProber) Probe(_ context.Context, lon, lat float64) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.probes++
	if m.err != nil {
		return "", false, m.err
	}
	p, ok := m.files[cellKey(lon, lat)]
	return p, ok, nil
}

// --- Mock ClimateLocator ---

type mockLocator struct {
	locateFn func(ctx context.Context, pt domain.GeoPoint) (domain.ClimateMatch, bool, error)
	calls    int
}

func (m *mockLocator) Name() string { return "mock" }

func (m *mockLocator) Locate(ctx context.Context, pt domain.GeoPoint) (domain.ClimateMatch, bool, error) {
	m.calls++
	if m.locateFn != nil {
		return m.locateFn(ctx, pt)
	}
	return domain.ClimateMatch{}, false, nil
}

// --- Mock FileStore ---

type mockFiles struct {
	files       map[string][]byte
	existsCalls int
}

func (m *mockFiles) Exists(path string) (bool, error) {
	m.existsCalls++
	_, ok := m.files[path]
	return ok, nil
}

func (m *mockFiles) ReadFile(path string) ([]byte, error) {
	b, ok := m.files[path]
	if !ok {
		return nil, errors.New("not found")
	}
	return b, nil
}

func (m *mockFiles) OFEToolPath(huc8 string) string {
	return "/i/0/ofe/" + huc8 + "/ofetool_" + huc8 + ".csv"
}

func (m *mockFiles) OFEHUC12Path(huc12 string, summarize bool) string {
	if summarize {
		return "/i/0/ofe/" + huc12[:8] + "/" + huc12[8:] + "/ofetool_" + huc12 + ".csv"
	}
	return "/i/0/ofe/" + huc12[:8] + "/" + huc12[8:] + "/oferesults_" + huc12 + ".csv"
}

// --- Mock ClimateCatalogRepository ---

type mockCatalog struct {
	nearestFn func(ctx context.Context, scenario int, pt domain.GeoPoint, deg float64) (domain.ClimateMatch, bool, error)
	logged    []*domain.ClimateRequest
	logErr    error
}

func (m *mockCatalog) Nearest(ctx context.Context, scenario int, pt domain.GeoPoint, deg float64) (domain.ClimateMatch, bool, error) {
	if m.nearestFn != nil {
		return m.nearestFn(ctx, scenario, pt, deg)
	}
	return domain.ClimateMatch{}, false, nil
}

func (m *mockCatalog) UpsertBatch(context.Context, []domain.ClimateFile) error { return nil }

func (m *mockCatalog) LogRequest(_ context.Context, req *domain.ClimateRequest) error {
	m.logged = append(m.logged, req)
	return m.logErr
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	published []*domain.ClimateRequest
	err       error
}

func (m *mockPublisher) PublishClimateRequest(_ context.Context, req *domain.ClimateRequest) error {
	m.published = append(m.published, req)
	return m.err
}

// --- Mock CacheService ---

type mockCache struct {
	data map[string][]byte
	ttls map[string]int
}

func newMockCache() *mockCache {
	return &mockCache{data: map[string][]byte{}, ttls: map[string]int{}}
}

func (m *mockCache) Get(_ context.Context, key string) ([]byte, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, errors.New("miss")
}

func (m *mockCache) Set(_ context.Context, key string, value []byte, ttl int) error {
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *mockCache) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

// --- Mock HUC12Repository ---

type mockHUC12Repo struct {
	nameFn         func(ctx context.Context, huc12 string, scenario int) (string, error)
	searchFn       func(ctx context.Context, q string, limit int) ([]domain.HUC12Ref, error)
	summariesFn    func(ctx context.Context, huc12s []string, sdate, edate time.Time) ([]domain.HUC12Summary, error)
	totalsFn       func(ctx context.Context, sdate, edate time.Time) ([]domain.HUC12Totals, error)
	totalsGeomFn   func(ctx context.Context, date time.Time, date2 *time.Time, state string) ([]domain.HUC12Geometry, error)
	staticFn       func(ctx context.Context) ([]domain.HUC12Static, error)
	periodTotalsFn func(ctx context.Context, huc12 string, scenario int, date time.Time, date2 *time.Time) (*domain.ResultTotals, error)
	topEventsFn    func(ctx context.Context, huc12 string, scenario, limit int) ([]domain.DailyResult, error)
	monthlyFn      func(ctx context.Context, huc12 string, scenario int) ([]domain.MonthlyTotal, error)
	dailyFn        func(ctx context.Context, huc12 string) ([]domain.EventSummary, error)
	yearlyFn       func(ctx context.Context, huc12 string) ([]domain.EventSummary, error)
	shapeRowsFn    func(ctx context.Context, dt time.Time, dt2 *time.Time, states []string) ([]domain.HUC12ShapeRow, error)
	totalsCalls    int
}

func (m *mockHUC12Repo) Name(ctx context.Context, huc12 string, scenario int) (string, error) {
	if m.nameFn != nil {
		return m.nameFn(ctx, huc12, scenario)
	}
	return "", nil
}

func (m *mockHUC12Repo) Search(ctx context.Context, q string, limit int) ([]domain.HUC12Ref, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, q, limit)
	}
	return nil, nil
}

func (m *mockHUC12Repo) Summaries(ctx context.Context, huc12s []string, sdate, edate time.Time) ([]domain.HUC12Summary, error) {
	if m.summariesFn != nil {
		return m.summariesFn(ctx, huc12s, sdate, edate)
	}
	return nil, nil
}

func (m *mockHUC12Repo) Totals(ctx context.Context, sdate, edate time.Time) ([]domain.HUC12Totals, error) {
	m.totalsCalls++
	if m.totalsFn != nil {
		return m.totalsFn(ctx, sdate, edate)
	}
	return nil, nil
}

func (m *mockHUC12Repo) TotalsWithGeometry(ctx context.Context, date time.Time, date2 *time.Time, state string) ([]domain.HUC12Geometry, error) {
	if m.totalsGeomFn != nil {
		return m.totalsGeomFn(ctx, date, date2, state)
	}
	return nil, nil
}

func (m *mockHUC12Repo) StaticMetadata(ctx context.Context) ([]domain.HUC12Static, error) {
	if m.staticFn != nil {
		return m.staticFn(ctx)
	}
	return nil, nil
}

func (m *mockHUC12Repo) PeriodTotals(ctx context.Context, huc12 string, scenario int, date time.Time, date2 *time.Time) (*domain.ResultTotals, error) {
	if m.periodTotalsFn != nil {
		return m.periodTotalsFn(ctx, huc12, scenario, date, date2)
	}
	return nil, nil
}

func (m *mockHUC12Repo) TopEvents(ctx context.Context, huc12 string, scenario, limit int) ([]domain.DailyResult, error) {
	if m.topEventsFn != nil {
		return m.topEventsFn(ctx, huc12, scenario, limit)
	}
	return nil, nil
}

func (m *mockHUC12Repo) MonthlyTotals(ctx context.Context, huc12 string, scenario int) ([]domain.MonthlyTotal, error) {
	if m.monthlyFn != nil {
		return m.monthlyFn(ctx, huc12, scenario)
	}
	return nil, nil
}

func (m *mockHUC12Repo) DailyEvents(ctx context.Context, huc12 string) ([]domain.EventSummary, error) {
	if m.dailyFn != nil {
		return m.dailyFn(ctx, huc12)
	}
	return nil, nil
}

func (m *mockHUC12Repo) YearlyEvents(ctx context.Context, huc12 string) ([]domain.EventSummary, error) {
	if m.yearlyFn != nil {
		return m.yearlyFn(ctx, huc12)
	}
	return nil, nil
}

func (m *mockHUC12Repo) ShapeRows(ctx context.Context, dt time.Time, dt2 *time.Time, states []string) ([]domain.HUC12ShapeRow, error) {
	if m.shapeRowsFn != nil {
		return m.shapeRowsFn(ctx, dt, dt2, states)
	}
	return nil, nil
}

// --- Mock MetadataRepository ---

type mockMetaRepo struct {
	label    string
	version  map[string]any
	lastDate string
	hasLast  bool
	err      error
}

func (m *mockMetaRepo) VersionLabel(context.Context, int) (string, error) { return m.label, m.err }

func (m *mockMetaRepo) Version(context.Context, int) (map[string]any, error) {
	return m.version, m.err
}

func (m *mockMetaRepo) LastDate(context.Context, int) (string, bool, error) {
	return m.lastDate, m.hasLast, m.err
}
