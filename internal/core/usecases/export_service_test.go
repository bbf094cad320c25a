package usecases_test

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dailyerosion/depbackend/internal/core/domain"
	"github.com/dailyerosion/depbackend/internal/core/usecases"
)

func shapeRepo(gotStates *[]string) *mockHUC12Repo {
	return &mockHUC12Repo{
		shapeRowsFn: func(_ context.Context, _ time.Time, _ *time.Time, states []string) ([]domain.HUC12ShapeRow, error) {
			*gotStates = states
			return []domain.HUC12ShapeRow{{
				HUC12: "070801050902", Name: "Ballard Creek", TillCode: 3, AvgSlope: 0.04,
				PrecipMM: 25.4, LossKgM2: 1, RunoffMM: 50.8, DeliveryKgM2: 0.5, Version: "2024.1",
				Geometry: orb.Polygon{{{0, 0}, {0, 1000}, {1000, 1000}, {1000, 0}, {0, 0}}},
			}}, nil
		},
	}
}

func readZipEntry(t *testing.T, body []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			require.NoError(t, err)
			defer rc.Close()
			data, err := io.ReadAll(rc)
			require.NoError(t, err)
			return string(data)
		}
	}
	t.Fatalf("zip has no entry %s", name)
	return ""
}

func TestExportService_ShapefileEnglish(t *testing.T) {
	var states []string
	repo := shapeRepo(&states)
	svc := usecases.NewExportService(nil, repo, &mockFiles{}, []byte("PROJCS[\"NAD83 / Conus Albers\"]"))
	d2 := day("2020-05-31")

	dl, err := svc.Shapefile(context.Background(), usecases.ShapefileRequest{
		Date: day("2020-05-01"), Date2: &d2, States: []string{"ia", "mn"}, Units: usecases.UnitsEnglish,
	})
	require.NoError(t, err)
	assert.Equal(t, "idepv2_20200501_20200531.zip", dl.Filename)
	assert.Equal(t, []string{"IA", "MN"}, states)

	csv := readZipEntry(t, dl.Body, "idepv2_20200501_20200531.csv")
	assert.Equal(t,
		"HUC_12,NAME,TILLCODE,AVG_SLP1,VERSION,PREC_IN,LOSS_TPA,RUNOF_IN,DELI_TPA\n"+
			"070801050902,Ballard Creek,3,0.04,2024.1,1,4.463,2,2.2315\n", csv)
	assert.Contains(t, readZipEntry(t, dl.Body, "idepv2_20200501_20200531.prj"), "Conus Albers")
}

func TestExportService_ShapefileMetric(t *testing.T) {
	var states []string
	svc := usecases.NewExportService(nil, shapeRepo(&states), &mockFiles{}, nil)

	dl, err := svc.Shapefile(context.Background(), usecases.ShapefileRequest{Date: day("2020-05-01"), Units: usecases.UnitsMetric})
	require.NoError(t, err)
	assert.Equal(t, "idepv2_20200501.zip", dl.Filename)
	assert.Empty(t, states)

	csv := readZipEntry(t, dl.Body, "idepv2_20200501.csv")
	assert.Contains(t, csv, "HUC_12,NAME,TILLCODE,AVG_SLP1,PREC_MM,LOS_KGM2,RUNOF_MM,DELI_KGM,VERSION\n")
}

func TestExportService_OFETool(t *testing.T) {
	files := &mockFiles{files: map[string][]byte{
		"/i/0/ofe/07080105/ofetool_07080105.csv": []byte("huc12,fpath,ofe\n"),
	}}
	svc := usecases.NewExportService(nil, &mockHUC12Repo{}, files, nil)

	dl, err := svc.OFETool(context.Background(), "07080105")
	require.NoError(t, err)
	assert.Equal(t, "ofetool_07080105.csv", dl.Filename)
	assert.Equal(t, "huc12,fpath,ofe\n", string(dl.Body))

	_, err = svc.OFETool(context.Background(), "07080106")
	assert.ErrorIs(t, err, domain.ErrNoData)
}

func TestExportService_OFEToolHUC12(t *testing.T) {
	files := &mockFiles{files: map[string][]byte{
		"/i/0/ofe/07080105/0902/oferesults_070801050902.csv": []byte("fpath,ofe,loss\n"),
	}}
	svc := usecases.NewExportService(nil, &mockHUC12Repo{}, files, nil)

	dl, err := svc.OFEToolHUC12(context.Background(), "070801050902", false)
	require.NoError(t, err)
	assert.Equal(t, "oferesults_070801050902.csv", dl.Filename)

	_, err = svc.OFEToolHUC12(context.Background(), "070801050902", true)
	assert.ErrorIs(t, err, domain.ErrNoData)

	_, err = svc.OFEToolHUC12(context.Background(), "0708", true)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestExportService_EventsXLSXDailyDropsCounts(t *testing.T) {
	repo := &mockHUC12Repo{
		dailyFn: func(context.Context, string) ([]domain.EventSummary, error) {
			return []domain.EventSummary{{Valid: day("2020-05-17"), AvgLoss: 0.5, AvgLossEvents: 1}}, nil
		},
	}
	huc12 := usecases.NewHUC12Service(repo, &mockMetaRepo{}, nil, usecases.DefaultCacheTTLs)
	svc := usecases.NewExportService(huc12, repo, &mockFiles{}, nil)

	dl, err := svc.EventsXLSX(context.Background(), "070801050902", usecases.ModeDaily)
	require.NoError(t, err)
	assert.Equal(t, "dep070801050902.xlsx", dl.Filename)

	f, err := excelize.OpenReader(bytes.NewReader(dl.Body))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("070801050902 Data")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"valid", "avg_loss", "avg_delivery", "qc_precip", "avg_runoff"}, rows[0])
}

func TestExportService_MonthlyChart(t *testing.T) {
	repo := &mockHUC12Repo{
		monthlyFn: func(context.Context, string, int) ([]domain.MonthlyTotal, error) {
			return []domain.MonthlyTotal{{Year: 2007, Month: 5, AvgLoss: 1, QCPrecip: 4}}, nil
		},
	}
	huc12 := usecases.NewHUC12Service(repo, &mockMetaRepo{}, nil, usecases.DefaultCacheTTLs)
	svc := usecases.NewExportService(huc12, repo, &mockFiles{}, nil)

	png, err := svc.MonthlyChart(context.Background(), "070801050902", 0)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}
