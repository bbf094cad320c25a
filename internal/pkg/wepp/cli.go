// Package wepp reads WEPP climate (.cli) files and renders the derived
// formats served to users.
package wepp

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Breakpoint is a cumulative precipitation reading within a day.
type Breakpoint struct {
	Hour  float64 // decimal hours after midnight
	Accum float64 // cumulative precipitation, mm
}

// Day is one daily record of a breakpoint climate file.
type Day struct {
	Date        time.Time
	TMax        float64 // C
	TMin        float64 // C
	Rad         float64 // langleys per day
	WindVel     float64 // m/s
	WindDir     float64 // degrees
	TDew        float64 // C
	Precip      float64 // mm, the last breakpoint's accumulation
	Breakpoints []Breakpoint
}

// ReadCLI parses the daily records of a breakpoint climate file. The
// free-form header is skipped up to the "da mo year" column line and the
// units line after it.
func ReadCLI(r io.Reader) ([]Day, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	next := func() ([]string, bool) {
		if !sc.Scan() {
			return nil, false
		}
		line++
		return strings.Fields(sc.Text()), true
	}

	found := false
	for {
		fields, ok := next()
		if !ok {
			break
		}
		if len(fields) >= 3 && fields[0] == "da" && fields[1] == "mo" {
			found = true
			next() // units
			break
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("climate file has no daily data header")
	}

	var days []Day
	for {
		fields, ok := next()
		if !ok {
			break
		}
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 10 {
			return nil, fmt.Errorf("line %d: expected 10 fields, got %d", line, len(fields))
		}

		ints, err := atoiAll(fields[:4])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		vals, err := atofAll(fields[4:10])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		d := Day{
			Date:    time.Date(ints[2], time.Month(ints[1]), ints[0], 0, 0, 0, 0, time.UTC),
			TMax:    vals[0],
			TMin:    vals[1],
			Rad:     vals[2],
			WindVel: vals[3],
			WindDir: vals[4],
			TDew:    vals[5],
		}

		nbrkpt := ints[3]
		if nbrkpt > 0 {
			d.Breakpoints = make([]Breakpoint, 0, nbrkpt)
		}
		for i := 0; i < nbrkpt; i++ {
			bf, ok := next()
			if !ok {
				return nil, fmt.Errorf("line %d: %s truncated after %d of %d breakpoints",
					line, d.Date.Format("2006-01-02"), i, nbrkpt)
			}
			if len(bf) < 2 {
				return nil, fmt.Errorf("line %d: malformed breakpoint", line)
			}
			bp, err := atofAll(bf[:2])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			d.Breakpoints = append(d.Breakpoints, Breakpoint{Hour: bp[0], Accum: bp[1]})
		}
		if n := len(d.Breakpoints); n > 0 {
			d.Precip = d.Breakpoints[n-1].Accum
		}
		days = append(days, d)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return days, nil
}

func atoiAll(fields []string) ([]int, error) {
	out := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func atofAll(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
