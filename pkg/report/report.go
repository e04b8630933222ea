// Package report renders HTML charts of the training data and fitted hotspots.
package report

import (
	"bytes"
	"fmt"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/ridefair/core/model"
)

// MaxRides caps how many pickups are drawn. Larger inputs are sampled evenly.
const MaxRides = 2000

// HotspotChartHTML renders pickups and hotspot centers on a longitude/latitude
// scatter chart. Scam rides are drawn as a separate series.
func HotspotChartHTML(centers []model.Location, rides []model.RideRecord) (string, error) {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Pickup hotspots",
			Subtitle: fmt.Sprintf("%d hotspots, %d rides", len(centers), len(rides)),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Longitude", Type: "value", Min: "dataMin", Max: "dataMax"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Latitude", Type: "value", Min: "dataMin", Max: "dataMax"}),
	)

	var fair, scam []opts.ScatterData
	for _, r := range sample(rides, MaxRides) {
		d := opts.ScatterData{Value: []float64{r.Longitude, r.Latitude}, SymbolSize: 4}
		if r.IsScam {
			scam = append(scam, d)
		} else {
			fair = append(fair, d)
		}
	}
	hot := make([]opts.ScatterData, 0, len(centers))
	for i, c := range centers {
		hot = append(hot, opts.ScatterData{
			Name:       fmt.Sprintf("hotspot %d", i),
			Value:      []float64{c.Lon, c.Lat},
			Symbol:     "pin",
			SymbolSize: 28,
		})
	}

	if len(fair) > 0 {
		scatter.AddSeries("Rides", fair)
	}
	if len(scam) > 0 {
		scatter.AddSeries("Scam rides", scam)
	}
	scatter.AddSeries("Hotspots", hot)

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		return "", fmt.Errorf("failed to render chart: %w", err)
	}
	return buf.String(), nil
}

func sample(rides []model.RideRecord, limit int) []model.RideRecord {
	if len(rides) <= limit {
		return rides
	}
	out := make([]model.RideRecord, 0, limit)
	step := float64(len(rides)) / float64(limit)
	for i := 0; i < limit; i++ {
		out = append(out, rides[int(float64(i)*step)])
	}
	return out
}
