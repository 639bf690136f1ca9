// Package report renders diagnostic charts of integrated clusters.
package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/trackreplay/internal/replay/records"
)

// ErrEmpty is returned when a chart is requested before any cluster was
// recorded.
var ErrEmpty = errors.New("report has no clusters")

// File names written by WriteDir.
const (
	HTMLFile = "clusters.html"
	PNGFile  = "mean_ampl.png"
)

type point struct {
	entry int
	sum   records.ClusterSummary
}

// ClusterReport accumulates integrated clusters across a replay.
type ClusterReport struct {
	Title   string
	points  []point
	entries int
}

// NewClusterReport returns an empty report.
func NewClusterReport(title string) *ClusterReport {
	return &ClusterReport{Title: title}
}

// Add records one entry's clusters.
func (r *ClusterReport) Add(entry int, sums []records.ClusterSummary) {
	r.entries++
	for _, s := range sums {
		r.points = append(r.points, point{entry: entry, sum: s})
	}
}

// Len is the number of clusters recorded.
func (r *ClusterReport) Len() int { return len(r.points) }

// Entries is the number of entries recorded, including those with no
// retained cluster.
func (r *ClusterReport) Entries() int { return r.entries }

// WriteHTML renders NChan and SumAmpl per cluster as an echarts page.
func (r *ClusterReport) WriteHTML(w io.Writer) error {
	x := make([]string, len(r.points))
	nchan := make([]opts.BarData, len(r.points))
	sum := make([]opts.LineData, len(r.points))
	for i, p := range r.points {
		x[i] = fmt.Sprintf("%d:%s", p.entry, p.sum.IR)
		nchan[i] = opts.BarData{Value: p.sum.NChan}
		sum[i] = opts.LineData{Value: p.sum.SumAmpl}
	}
	subtitle := fmt.Sprintf("entries=%d clusters=%d", r.entries, len(r.points))

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: r.Title, Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: "Channels per cluster", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)
	bar.SetXAxis(x).AddSeries("nchan", nchan)

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: "Summed amplitude", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)
	line.SetXAxis(x).AddSeries("sum_ampl", sum)

	page := components.NewPage()
	page.SetPageTitle(r.Title)
	page.AddCharts(bar, line)
	return page.Render(w)
}

// SavePNG writes a histogram of per-cluster mean amplitude to path.
func (r *ClusterReport) SavePNG(path string) error {
	if len(r.points) == 0 {
		return ErrEmpty
	}
	vals := make(plotter.Values, len(r.points))
	for i, p := range r.points {
		vals[i] = p.sum.MeanAmpl
	}

	p := plot.New()
	p.Title.Text = r.Title
	p.X.Label.Text = "mean amplitude"
	p.Y.Label.Text = "clusters"

	bins := len(vals)
	if bins > 50 {
		bins = 50
	}
	h, err := plotter.NewHist(vals, bins)
	if err != nil {
		return fmt.Errorf("histogram: %w", err)
	}
	h.LineStyle.Width = vg.Points(1)
	p.Add(h)

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// WriteDir writes the HTML page and, when clusters were recorded, the
// histogram into dir.
func (r *ClusterReport) WriteDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(dir, HTMLFile))
	if err != nil {
		return err
	}
	if err := r.WriteHTML(f); err != nil {
		f.Close()
		return fmt.Errorf("render %s: %w", HTMLFile, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	if len(r.points) == 0 {
		return nil
	}
	return r.SavePNG(filepath.Join(dir, PNGFile))
}
