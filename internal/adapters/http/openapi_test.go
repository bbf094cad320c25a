package http_test

import (
	"context"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/dailyerosion/depbackend/api"
)

func loadSpec(t *testing.T) *openapi3.T {
	t.Helper()
	loader := &openapi3.Loader{IsExternalRefsAllowed: false}
	spec, err := loader.LoadFromData(api.Spec)
	if err != nil {
		t.Fatalf("failed to parse OpenAPI spec: %v", err)
	}
	return spec
}

// TestOpenAPISpec validates the OpenAPI specification is valid.
func TestOpenAPISpec(t *testing.T) {
	spec := loadSpec(t)

	if err := spec.Validate(context.Background()); err != nil {
		t.Fatalf("OpenAPI spec validation failed: %v", err)
	}

	expectedPaths := []string{
		"/v1/health",
		"/v1/ready",
		"/v1/climate-file",
		"/v1/climate-file/nearest",
		"/v1/huc12/summary",
		"/v1/huc12/data",
		"/v1/huc12/details",
		"/v1/huc12/bymonth.png",
		"/v1/huc12/events",
		"/v1/huc12/search",
		"/v1/huc12.geojson",
		"/v1/huc12/static.geojson",
		"/v1/shapefile",
		"/v1/ofetool/{huc8}",
		"/v1/ofetool/huc12/{huc12}",
		"/v1/version",
		"/v1/timedomain",
		"/graphql",
	}
	for _, path := range expectedPaths {
		if item := spec.Paths.Find(path); item == nil {
			t.Errorf("expected path %s not found in spec", path)
		}
	}

	for _, schema := range []string{"APIError", "ClimateMatch", "HUC12Details", "HUC12Data", "TimeDomain"} {
		if spec.Components.Schemas[schema] == nil {
			t.Errorf("expected schema %s not found", schema)
		}
	}
}

// TestOpenAPIInfo verifies spec metadata.
func TestOpenAPIInfo(t *testing.T) {
	spec := loadSpec(t)

	if spec.Info.Title != "Daily Erosion Project API" {
		t.Errorf("unexpected title %q", spec.Info.Title)
	}
	if spec.Info.Version != "1.0.0" {
		t.Errorf("expected version 1.0.0, got %q", spec.Info.Version)
	}
	if len(spec.Servers) == 0 {
		t.Error("expected at least one server")
	}
}
