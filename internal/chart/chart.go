// Package chart renders the headline analysis results as PNG charts.
package chart

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sort"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"campus-counseling-gap-analysis/internal/analysis"
	"campus-counseling-gap-analysis/internal/warehouse"
)

const (
	chartWidth  = 900
	chartHeight = 540
	marginLeft  = 70.0
	marginRight = 170.0
	marginTop   = 50.0
	marginBot   = 60.0
)

var (
	bgColor   = color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	axisColor = color.NRGBA{R: 0x44, G: 0x44, B: 0x44, A: 0xFF}
	gridColor = color.NRGBA{R: 0xDD, G: 0xDD, B: 0xDD, A: 0xFF}

	seriesPalette = []color.NRGBA{
		{R: 0x1F, G: 0x77, B: 0xB4, A: 0xFF},
		{R: 0xFF, G: 0x7F, B: 0x0E, A: 0xFF},
		{R: 0x2C, G: 0xA0, B: 0x2C, A: 0xFF},
		{R: 0xD6, G: 0x27, B: 0x28, A: 0xFF},
		{R: 0x94, G: 0x67, B: 0xBD, A: 0xFF},
	}

	gapPalette = map[analysis.GapLabel]color.NRGBA{
		analysis.GapHigh:     {R: 0xD6, G: 0x27, B: 0x28, A: 0xFF},
		analysis.GapModerate: {R: 0xFF, G: 0x7F, B: 0x0E, A: 0xFF},
		analysis.GapAdequate: {R: 0x2C, G: 0xA0, B: 0x2C, A: 0xFF},
	}
)

// RenderAll writes the standard chart set into dir and returns the paths
// of the files written.
func RenderAll(dir string, trends []warehouse.MonthlyTrend, gaps []analysis.DemographicGap, adequacy []analysis.ServiceAdequacy) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	written := make([]string, 0, 3)
	renders := []struct {
		name   string
		render func(path string) error
	}{
		{"monthly_trends.png", func(path string) error { return MonthlyTrends(trends, path) }},
		{"gap_distribution.png", func(path string) error { return GapDistribution(gaps, path) }},
		{"service_adequacy.png", func(path string) error { return AdequacyHeatmap(adequacy, path) }},
	}
	for _, r := range renders {
		path := filepath.Join(dir, r.name)
		if err := r.render(path); err != nil {
			return written, fmt.Errorf("render %s: %w", r.name, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func newCanvas(title string) *gg.Context {
	dc := gg.NewContext(chartWidth, chartHeight)
	dc.SetColor(bgColor)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)
	dc.SetColor(axisColor)
	dc.DrawString(title, marginLeft, marginTop-20)
	return dc
}

func drawAxes(dc *gg.Context) {
	plotBottom := float64(chartHeight) - marginBot
	plotRight := float64(chartWidth) - marginRight
	dc.SetColor(axisColor)
	dc.SetLineWidth(1)
	dc.DrawLine(marginLeft, marginTop, marginLeft, plotBottom)
	dc.DrawLine(marginLeft, plotBottom, plotRight, plotBottom)
	dc.Stroke()
}

// MonthlyTrends draws one visit-count line per service category across
// the months present in the data.
func MonthlyTrends(trends []warehouse.MonthlyTrend, path string) error {
	dc := newCanvas("Monthly visit volume by service category")
	drawAxes(dc)

	if len(trends) == 0 {
		dc.SetColor(axisColor)
		dc.DrawString("no data", float64(chartWidth)/2-20, float64(chartHeight)/2)
		return dc.SavePNG(path)
	}

	type monthKey struct{ year, month int }
	monthSet := map[monthKey]struct{}{}
	series := map[string]map[monthKey]int{}
	maxCount := 0
	for _, row := range trends {
		key := monthKey{row.Year, row.Month}
		monthSet[key] = struct{}{}
		if series[row.ServiceCategory] == nil {
			series[row.ServiceCategory] = map[monthKey]int{}
		}
		series[row.ServiceCategory][key] = row.VisitCount
		if row.VisitCount > maxCount {
			maxCount = row.VisitCount
		}
	}

	months := make([]monthKey, 0, len(monthSet))
	for key := range monthSet {
		months = append(months, key)
	}
	sort.Slice(months, func(i, j int) bool {
		if months[i].year != months[j].year {
			return months[i].year < months[j].year
		}
		return months[i].month < months[j].month
	})

	categories := make([]string, 0, len(series))
	for name := range series {
		categories = append(categories, name)
	}
	sort.Strings(categories)

	plotBottom := float64(chartHeight) - marginBot
	plotRight := float64(chartWidth) - marginRight
	plotW := plotRight - marginLeft
	plotH := plotBottom - marginTop
	if maxCount == 0 {
		maxCount = 1
	}

	xAt := func(i int) float64 {
		if len(months) == 1 {
			return marginLeft + plotW/2
		}
		return marginLeft + plotW*float64(i)/float64(len(months)-1)
	}
	yAt := func(count int) float64 {
		return plotBottom - plotH*float64(count)/float64(maxCount)
	}

	dc.SetColor(gridColor)
	dc.SetLineWidth(0.5)
	for tick := 1; tick <= 4; tick++ {
		y := plotBottom - plotH*float64(tick)/4
		dc.DrawLine(marginLeft, y, plotRight, y)
	}
	dc.Stroke()
	dc.SetColor(axisColor)
	for tick := 0; tick <= 4; tick++ {
		value := maxCount * tick / 4
		y := plotBottom - plotH*float64(tick)/4
		dc.DrawStringAnchored(fmt.Sprintf("%d", value), marginLeft-8, y, 1, 0.35)
	}

	labelStep := 1
	if len(months) > 12 {
		labelStep = len(months) / 12
	}
	for i, m := range months {
		if i%labelStep != 0 {
			continue
		}
		dc.DrawStringAnchored(fmt.Sprintf("%d-%02d", m.year, m.month), xAt(i), plotBottom+16, 0.5, 0.5)
	}

	for ci, name := range categories {
		tint := seriesPalette[ci%len(seriesPalette)]
		dc.SetColor(tint)
		dc.SetLineWidth(2)
		started := false
		for i, m := range months {
			count, ok := series[name][m]
			if !ok {
				continue
			}
			if !started {
				dc.MoveTo(xAt(i), yAt(count))
				started = true
				continue
			}
			dc.LineTo(xAt(i), yAt(count))
		}
		dc.Stroke()

		legendY := marginTop + 18*float64(ci)
		dc.DrawRectangle(plotRight+14, legendY-5, 10, 10)
		dc.Fill()
		dc.SetColor(axisColor)
		dc.DrawString(name, plotRight+30, legendY+4)
	}

	return dc.SavePNG(path)
}

// GapDistribution draws a bar per gap tier with segment counts.
func GapDistribution(gaps []analysis.DemographicGap, path string) error {
	dc := newCanvas("Demographic segments by gap tier")
	drawAxes(dc)

	order := []analysis.GapLabel{analysis.GapHigh, analysis.GapModerate, analysis.GapAdequate}
	counts := map[analysis.GapLabel]int{}
	maxCount := 1
	for _, row := range gaps {
		counts[row.ServiceGap]++
		if counts[row.ServiceGap] > maxCount {
			maxCount = counts[row.ServiceGap]
		}
	}

	plotBottom := float64(chartHeight) - marginBot
	plotRight := float64(chartWidth) - marginRight
	plotW := plotRight - marginLeft
	plotH := plotBottom - marginTop

	barSlot := plotW / float64(len(order))
	barWidth := barSlot * 0.5
	for i, label := range order {
		count := counts[label]
		height := plotH * float64(count) / float64(maxCount)
		x := marginLeft + barSlot*float64(i) + (barSlot-barWidth)/2
		dc.SetColor(gapPalette[label])
		dc.DrawRectangle(x, plotBottom-height, barWidth, height)
		dc.Fill()

		dc.SetColor(axisColor)
		dc.DrawStringAnchored(string(label), x+barWidth/2, plotBottom+16, 0.5, 0.5)
		dc.DrawStringAnchored(fmt.Sprintf("%d", count), x+barWidth/2, plotBottom-height-10, 0.5, 0.5)
	}

	return dc.SavePNG(path)
}

// AdequacyHeatmap draws a service-category by college grid shaded by the
// extended-wait percentage.
func AdequacyHeatmap(rows []analysis.ServiceAdequacy, path string) error {
	dc := newCanvas("Extended-wait share by service category and college")

	if len(rows) == 0 {
		drawAxes(dc)
		dc.SetColor(axisColor)
		dc.DrawString("no data", float64(chartWidth)/2-20, float64(chartHeight)/2)
		return dc.SavePNG(path)
	}

	catSet := map[string]struct{}{}
	colSet := map[string]struct{}{}
	cells := map[[2]string]float64{}
	for _, row := range rows {
		catSet[row.ServiceCategory] = struct{}{}
		colSet[row.College] = struct{}{}
		cells[[2]string{row.ServiceCategory, row.College}] = row.PctExtendedWait
	}

	categories := sortedKeys(catSet)
	colleges := sortedKeys(colSet)

	plotBottom := float64(chartHeight) - marginBot
	plotRight := float64(chartWidth) - marginRight
	cellW := (plotRight - marginLeft) / float64(len(colleges))
	cellH := (plotBottom - marginTop) / float64(len(categories))

	for ci, category := range categories {
		for xi, college := range colleges {
			pct, ok := cells[[2]string{category, college}]
			x := marginLeft + cellW*float64(xi)
			y := marginTop + cellH*float64(ci)
			if ok {
				dc.SetColor(heatColor(pct))
			} else {
				dc.SetColor(gridColor)
			}
			dc.DrawRectangle(x, y, cellW-2, cellH-2)
			dc.Fill()
			if ok {
				dc.SetColor(axisColor)
				dc.DrawStringAnchored(fmt.Sprintf("%.0f%%", pct), x+cellW/2, y+cellH/2, 0.5, 0.35)
			}
		}
		dc.SetColor(axisColor)
		dc.DrawStringAnchored(category, marginLeft-8, marginTop+cellH*float64(ci)+cellH/2, 1, 0.35)
	}
	for xi, college := range colleges {
		dc.SetColor(axisColor)
		dc.DrawStringAnchored(college, marginLeft+cellW*float64(xi)+cellW/2, plotBottom+16, 0.5, 0.5)
	}

	return dc.SavePNG(path)
}

// heatColor maps an extended-wait percentage in [0,100] to a
// white-to-red ramp.
func heatColor(pct float64) color.NRGBA {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	t := pct / 100
	lerp := func(a, b uint8) uint8 { return uint8(float64(a) + t*(float64(b)-float64(a))) }
	return color.NRGBA{
		R: lerp(0xFF, 0xD6),
		G: lerp(0xF5, 0x27),
		B: lerp(0xF0, 0x28),
		A: 0xFF,
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
