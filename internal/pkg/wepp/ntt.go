package wepp

import (
	"bufio"
	"fmt"
	"io"
	"path"
	"strings"
)

const langleyToMJ = 0.04184

// WriteNTT renders days in the NTT daily weather (.wth) layout:
// year, month, day, radiation (MJ), tmax, tmin, precipitation (mm).
func WriteNTT(w io.Writer, days []Day) error {
	bw := bufio.NewWriter(w)
	for _, d := range days {
		if _, err := fmt.Fprintf(bw, "  %d %2d %2d  %3.0f%6.1f %6.1f %6.2f\r\n",
			d.Date.Year(), int(d.Date.Month()), d.Date.Day(),
			d.Rad*langleyToMJ, d.TMax, d.TMin, d.Precip); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// NTTFilename maps a climate file path to its .wth download name,
// e.g. 093.50x042.00.cli becomes 093_50x042_00.wth.
func NTTFilename(cliPath string) string {
	base := strings.TrimSuffix(path.Base(cliPath), ".cli")
	return strings.ReplaceAll(base, ".", "_") + ".wth"
}
