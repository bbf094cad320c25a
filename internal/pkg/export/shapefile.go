// Package export renders tabular and spatial results as downloadable
// files: zipped shapefiles, spreadsheets and PNG charts.
package export

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
)

// FieldKind is the dBase type of an attribute column.
type FieldKind int

const (
	String FieldKind = iota
	Integer
	Float
)

// Field describes an attribute column.
type Field struct {
	Name     string // at most 10 characters
	Kind     FieldKind
	Size     uint8
	Decimals uint8 // Float only
}

// Feature is a polygon with one value per Field. Values are string, int
// or float64 to match the field kinds.
type Feature struct {
	Geometry orb.Geometry // orb.Polygon or orb.MultiPolygon
	Values   []any
}

func (f Field) shp() shp.Field {
	switch f.Kind {
	case Integer:
		return shp.NumberField(f.Name, f.Size)
	case Float:
		return shp.FloatField(f.Name, f.Size, f.Decimals)
	default:
		return shp.StringField(f.Name, f.Size)
	}
}

// WriteShapefileZip writes base.{prj,shp,shx,dbf,csv} into a zip archive.
// The csv holds the attribute table without geometry.
func WriteShapefileZip(w io.Writer, base string, prj []byte, fields []Field, features []Feature) error {
	dir, err := os.MkdirTemp("", "depshp")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	fn := filepath.Join(dir, base)
	if err := writeShapefile(fn+".shp", fields, features); err != nil {
		return fmt.Errorf("shapefile: %w", err)
	}
	if err := writeAttributeCSV(fn+".csv", fields, features); err != nil {
		return fmt.Errorf("csv: %w", err)
	}

	zw := zip.NewWriter(w)
	pw, err := zw.Create(base + ".prj")
	if err != nil {
		return err
	}
	if _, err := pw.Write(prj); err != nil {
		return err
	}
	for _, suffix := range []string{"shp", "shx", "dbf", "csv"} {
		if err := addFile(zw, fn+"."+suffix, base+"."+suffix); err != nil {
			return err
		}
	}
	return zw.Close()
}

func writeShapefile(path string, fields []Field, features []Feature) error {
	out, err := shp.Create(path, shp.POLYGON)
	if err != nil {
		return err
	}
	err = writeFeatures(out, fields, features)
	out.Close()
	if err != nil {
		return err
	}

	// go-shp v0.1.1 names the attribute table "<base>dbf", without the dot.
	base := strings.TrimSuffix(path, filepath.Ext(path))
	if _, err := os.Stat(base + "dbf"); err == nil {
		return os.Rename(base+"dbf", base+".dbf")
	}
	return nil
}

func writeFeatures(out *shp.Writer, fields []Field, features []Feature) error {
	sf := make([]shp.Field, len(fields))
	for i, f := range fields {
		sf[i] = f.shp()
	}
	if err := out.SetFields(sf); err != nil {
		return err
	}

	for _, feat := range features {
		n := int(out.Write(toPolygon(feat.Geometry)))
		for i, v := range feat.Values {
			if err := out.WriteAttribute(n, i, v); err != nil {
				return fmt.Errorf("feature %d field %s: %w", n, fields[i].Name, err)
			}
		}
	}
	return nil
}

// toPolygon converts a polygon or multipolygon to shapefile parts, with
// outer rings clockwise and holes counter-clockwise.
func toPolygon(g orb.Geometry) *shp.Polygon {
	var polys orb.MultiPolygon
	switch v := g.(type) {
	case orb.Polygon:
		polys = orb.MultiPolygon{v}
	case orb.MultiPolygon:
		polys = v
	}

	var parts [][]shp.Point
	for _, poly := range polys {
		for i, ring := range poly {
			want := orb.CW
			if i > 0 {
				want = orb.CCW
			}
			if ring.Orientation() != want {
				ring = reversed(ring)
			}
			pts := make([]shp.Point, len(ring))
			for j, p := range ring {
				pts[j] = shp.Point{X: p[0], Y: p[1]}
			}
			parts = append(parts, pts)
		}
	}
	if len(parts) == 0 {
		parts = [][]shp.Point{{}}
	}
	pg := shp.Polygon(*shp.NewPolyLine(parts))
	return &pg
}

func reversed(r orb.Ring) orb.Ring {
	out := make(orb.Ring, len(r))
	for i, p := range r {
		out[len(r)-1-i] = p
	}
	return out
}

func writeAttributeCSV(path string, fields []Field, features []Feature) error {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	defer fh.Close()

	cw := csv.NewWriter(fh)
	header := make([]string, len(fields))
	for i, f := range fields {
		header[i] = f.Name
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	row := make([]string, len(fields))
	for _, feat := range features {
		for i, v := range feat.Values {
			row[i] = fmt.Sprint(v)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return fh.Close()
}

func addFile(zw *zip.Writer, path, name string) error {
	fh, err := os.Open(path)
	if err != nil {
		return err
	}
	defer fh.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, fh)
	return err
}
