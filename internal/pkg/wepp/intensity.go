package wepp

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"
)

const minutesPerDay = 1440

// MaxAccumulation returns the largest precipitation total (mm) that fell
// within any window of the given minutes, with the breakpoint curve
// linearly interpolated to one minute.
func (d Day) MaxAccumulation(minutes int) float64 {
	if len(d.Breakpoints) < 2 || minutes <= 0 {
		return 0
	}
	if minutes >= minutesPerDay {
		return d.Precip
	}
	curve := d.minuteCurve()
	best := 0.0
	for t := 0; t+minutes <= minutesPerDay; t++ {
		if v := curve[t+minutes] - curve[t]; v > best {
			best = v
		}
	}
	return best
}

// minuteCurve samples cumulative precipitation at every minute of the day.
func (d Day) minuteCurve() []float64 {
	bps := d.Breakpoints
	curve := make([]float64, minutesPerDay+1)
	last := bps[len(bps)-1]
	for m := range curve {
		h := float64(m) / 60
		switch {
		case h <= bps[0].Hour:
			curve[m] = bps[0].Accum
		case h >= last.Hour:
			curve[m] = last.Accum
		default:
			i := sort.Search(len(bps), func(i int) bool { return bps[i].Hour > h }) - 1
			a, b := bps[i], bps[i+1]
			frac := (h - a.Hour) / (b.Hour - a.Hour)
			curve[m] = a.Accum + frac*(b.Accum-a.Accum)
		}
	}
	return curve
}

// WriteIntensityCSV writes one row per wet day up to and including until,
// with the daily total and the maximum accumulation for each window.
func WriteIntensityCSV(w io.Writer, days []Day, windows []int, until time.Time) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, 2+len(windows))
	header = append(header, "date", "pcpn")
	for _, m := range windows {
		header = append(header, fmt.Sprintf("i%d_mm", m))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for _, d := range days {
		if d.Precip <= 0 || d.Date.After(until) {
			continue
		}
		row[0] = d.Date.Format("2006-01-02")
		row[1] = strconv.FormatFloat(d.Precip, 'f', 2, 64)
		for i, m := range windows {
			row[2+i] = strconv.FormatFloat(d.MaxAccumulation(m), 'f', 2, 64)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
