package export

import (
	"errors"
	"io/fs"
	"os"
)

// AlbersPRJ is the ESRI WKT of EPSG:5070, NAD83 / Conus Albers.
const AlbersPRJ = `PROJCS["NAD_1983_Contiguous_USA_Albers",GEOGCS["GCS_North_American_1983",DATUM["D_North_American_1983",SPHEROID["GRS_1980",6378137.0,298.257222101]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]],PROJECTION["Albers"],PARAMETER["False_Easting",0.0],PARAMETER["False_Northing",0.0],PARAMETER["Central_Meridian",-96.0],PARAMETER["Standard_Parallel_1",29.5],PARAMETER["Standard_Parallel_2",45.5],PARAMETER["Latitude_Of_Origin",23.0],UNIT["Meter",1.0]]`

// LoadPRJ reads a .prj file, falling back to AlbersPRJ when it does not
// exist. fromFile is false when the fallback was used.
func LoadPRJ(path string) (prj []byte, fromFile bool, err error) {
	if path != "" {
		b, err := os.ReadFile(path)
		if err == nil {
			return b, true, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, false, err
		}
	}
	return []byte(AlbersPRJ), false, nil
}
