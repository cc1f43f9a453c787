// Package histdata loads the bundled table of monthly precious-metal prices
// and answers lookup, range and growth queries against it. The table is
// embedded at build time and is read-only for the life of the process, so
// any number of concurrent requests may read it without coordination.
package histdata

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

//go:embed data/precious_metals.json
var rawDataset []byte

// Point is one monthly observation for a metal, in USD per troy ounce.
type Point struct {
	Period Period  `json:"period"`
	Price  float64 `json:"price"`
}

// Dataset holds the parsed table, keyed by canonical metal name.
type Dataset struct {
	points map[string][]Point // sorted ascending by period
}

// metal name resolution: dataset keys are display names, tools speak symbols.
var metalAliases = map[string]string{
	"gold": "Gold", "xau": "Gold",
	"silver": "Silver", "xag": "Silver",
	"platinum": "Platinum", "xpt": "Platinum",
	"palladium": "Palladium", "xpd": "Palladium",
}

// ResolveMetal maps a metal name or symbol (any case) to the dataset's
// canonical key. It returns an error for anything outside the fixed
// four-metal set.
func ResolveMetal(s string) (string, error) {
	if name, ok := metalAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return name, nil
	}
	return "", fmt.Errorf("unknown metal %q (supported: gold, silver, platinum, palladium)", s)
}

// Load parses the embedded dataset.
func Load() (*Dataset, error) {
	return Parse(rawDataset)
}

// Raw returns the embedded dataset bytes, used for version fingerprinting.
func Raw() []byte {
	return rawDataset
}

// Parse builds a Dataset from raw JSON in the bundled format:
// metal name -> ordered list of {"date": "MM/YYYY", "price": n}.
func Parse(raw []byte) (*Dataset, error) {
	var table map[string][]struct {
		Date  string  `json:"date"`
		Price float64 `json:"price"`
	}
	if err := json.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("failed to parse historical dataset: %w", err)
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("historical dataset is empty")
	}

	d := &Dataset{points: make(map[string][]Point, len(table))}
	for metal, rows := range table {
		pts := make([]Point, 0, len(rows))
		for _, row := range rows {
			period, err := ParsePeriod(row.Date)
			if err != nil {
				return nil, fmt.Errorf("metal %s: %w", metal, err)
			}
			pts = append(pts, Point{Period: period, Price: row.Price})
		}
		sort.Slice(pts, func(i, j int) bool { return pts[i].Period.Before(pts[j].Period) })
		d.points[metal] = pts
	}
	return d, nil
}

// Metals returns the metals present in the dataset, sorted by name.
func (d *Dataset) Metals() []string {
	names := make([]string, 0, len(d.points))
	for name := range d.points {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (d *Dataset) series(metal string) ([]Point, error) {
	name, err := ResolveMetal(metal)
	if err != nil {
		return nil, err
	}
	pts, ok := d.points[name]
	if !ok || len(pts) == 0 {
		return nil, fmt.Errorf("no historical data for %s", name)
	}
	return pts, nil
}

// Latest returns the most recent observation for metal. Its period is the
// anchor for all relative-period resolution.
func (d *Dataset) Latest(metal string) (Point, error) {
	pts, err := d.series(metal)
	if err != nil {
		return Point{}, err
	}
	return pts[len(pts)-1], nil
}

// Earliest returns the oldest observation for metal.
func (d *Dataset) Earliest(metal string) (Point, error) {
	pts, err := d.series(metal)
	if err != nil {
		return Point{}, err
	}
	return pts[0], nil
}

// AtOrBefore returns the nearest observation at or before the given period.
func (d *Dataset) AtOrBefore(metal string, period Period) (Point, error) {
	pts, err := d.series(metal)
	if err != nil {
		return Point{}, err
	}
	i := sort.Search(len(pts), func(i int) bool { return period.Before(pts[i].Period) })
	if i == 0 {
		return Point{}, fmt.Errorf("no data for %s at or before %s (coverage starts %s)",
			metal, period, pts[0].Period)
	}
	return pts[i-1], nil
}

// AtOrAfter returns the nearest observation at or after the given period.
func (d *Dataset) AtOrAfter(metal string, period Period) (Point, error) {
	pts, err := d.series(metal)
	if err != nil {
		return Point{}, err
	}
	i := sort.Search(len(pts), func(i int) bool { return !pts[i].Period.Before(period) })
	if i == len(pts) {
		return Point{}, fmt.Errorf("no data for %s at or after %s (coverage ends %s)",
			metal, period, pts[len(pts)-1].Period)
	}
	return pts[i], nil
}

// Range returns all observations for metal within [start, end], inclusive.
func (d *Dataset) Range(metal string, start, end Period) ([]Point, error) {
	pts, err := d.series(metal)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("start period %s is after end period %s", start, end)
	}
	lo := sort.Search(len(pts), func(i int) bool { return !pts[i].Period.Before(start) })
	hi := sort.Search(len(pts), func(i int) bool { return end.Before(pts[i].Period) })
	if lo >= hi {
		return nil, fmt.Errorf("no data for %s between %s and %s", metal, start, end)
	}
	return pts[lo:hi], nil
}

// Growth describes the price movement between two observations.
type Growth struct {
	StartPeriod   Period  `json:"startPeriod"`
	EndPeriod     Period  `json:"endPeriod"`
	StartPrice    float64 `json:"startPrice"`
	EndPrice      float64 `json:"endPrice"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	Direction     string  `json:"direction"` // increase, decrease or no-change
}

// ComputeGrowth derives the absolute and percentage change between two
// observations. Identical start and end periods are an error: the caller
// asked for a movement over no interval, and silently answering "zero
// change" would mask the bad query.
func ComputeGrowth(start, end Point) (*Growth, error) {
	if start.Period == end.Period {
		return nil, fmt.Errorf("start and end both resolve to %s; pick a wider range", start.Period)
	}
	if end.Period.Before(start.Period) {
		start, end = end, start
	}
	if start.Price == 0 {
		return nil, fmt.Errorf("start price for %s is zero, cannot compute percentage change", start.Period)
	}

	change := end.Price - start.Price
	direction := "no-change"
	switch {
	case change > 0:
		direction = "increase"
	case change < 0:
		direction = "decrease"
	}
	return &Growth{
		StartPeriod:   start.Period,
		EndPeriod:     end.Period,
		StartPrice:    start.Price,
		EndPrice:      end.Price,
		Change:        change,
		ChangePercent: change / start.Price * 100,
		Direction:     direction,
	}, nil
}
