// Package filesystem serves DEP model inputs and outputs from the shared
// data tree (/i/<scenario>/...).
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/dailyerosion/depbackend/internal/core/domain"
)

// Store reads files below root/<scenario>.
type Store struct {
	root     string
	scenario int
}

// New creates a Store rooted at root, e.g. "/i", for one scenario.
func New(root string, scenario int) *Store {
	return &Store{root: root, scenario: scenario}
}

// ClimatePath returns the path of the climate file for a grid cell centre:
// <root>/<scenario>/cli/093x042/093.50x042.00.cli for (-93.50, 42.00).
func ClimatePath(root string, scenario int, lon, lat float64) string {
	west := math.Round(-lon*100) / 100
	north := math.Round(lat*100) / 100
	return filepath.Join(root, strconv.Itoa(scenario), "cli",
		fmt.Sprintf("%03dx%03d", int(math.Floor(west)), int(math.Floor(north))),
		fmt.Sprintf("%06.2fx%06.2f.cli", west, north))
}

var climateName = regexp.MustCompile(`^(\d{3}\.\d{2})x(\d{3}\.\d{2})\.cli$`)

// ParseClimateName recovers the cell centre from a climate file name.
func ParseClimateName(name string) (domain.GeoPoint, bool) {
	m := climateName.FindStringSubmatch(name)
	if m == nil {
		return domain.GeoPoint{}, false
	}
	west, err1 := strconv.ParseFloat(m[1], 64)
	north, err2 := strconv.ParseFloat(m[2], 64)
	if err1 != nil || err2 != nil {
		return domain.GeoPoint{}, false
	}
	return domain.GeoPoint{Lat: north, Lon: -west}, true
}

// Probe reports whether the climate file for a cell centre exists.
func (s *Store) Probe(_ context.Context, lon, lat float64) (string, bool, error) {
	p := ClimatePath(s.root, s.scenario, lon, lat)
	ok, err := s.Exists(p)
	return p, ok, err
}

// Exists reports whether path is a regular file.
func (s *Store) Exists(path string) (bool, error) {
	fi, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return fi.Mode().IsRegular(), nil
}

// ReadFile returns the contents of path.
func (s *Store) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// OFEToolPath returns the per-HUC8 OFE summary CSV path.
func (s *Store) OFEToolPath(huc8 string) string {
	return filepath.Join(s.root, strconv.Itoa(s.scenario), "ofe", huc8, "ofetool_"+huc8+".csv")
}

// OFEHUC12Path returns the per-HUC12 OFE CSV path, either the tool
// summary or the raw per-OFE results.
func (s *Store) OFEHUC12Path(huc12 string, summarize bool) string {
	prefix := "results"
	if summarize {
		prefix = "tool"
	}
	return filepath.Join(s.root, strconv.Itoa(s.scenario), "ofe", huc12[:8], huc12[8:],
		"ofe"+prefix+"_"+huc12+".csv")
}

// WalkClimateFiles calls fn for every well-named climate file of the
// scenario, in lexical order.
func (s *Store) WalkClimateFiles(ctx context.Context, fn func(domain.ClimateFile) error) error {
	dir := filepath.Join(s.root, strconv.Itoa(s.scenario), "cli")
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		pt, ok := ParseClimateName(d.Name())
		if !ok {
			return nil
		}
		return fn(domain.ClimateFile{Scenario: s.scenario, Path: path, Location: pt})
	})
}
