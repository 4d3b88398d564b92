package httpx

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/routewatch/routewatch/internal/domain/model"
)

const (
	chartWidth     = 960
	chartHeight    = 360
	chartPadLeft   = 56
	chartPadRight  = 16
	chartPadTop    = 16
	chartPadBottom = 36
	chartTicks     = 5
)

type chartMarker struct {
	X, Y  float64
	Label string
}

type chartTick struct {
	Pos   float64
	Label string
}

// chartView is an SVG chart laid out in viewBox coordinates. Polyline and polygon fields
// hold ready-to-use "x,y x,y" point lists.
type chartView struct {
	Title         string
	Width, Height int
	PlotLeft      float64
	PlotRight     float64
	PlotTop       float64
	PlotBottom    float64
	PlotWidth     float64
	PlotHeight    float64
	Line          string
	Future        string
	Band          string
	Points        []chartMarker
	Anomalies     []chartMarker
	XTicks        []chartTick
	YTicks        []chartTick
}

type chartScale struct {
	t0, t1 time.Time
	y0, y1 float64
	view   *chartView
}

func newChartView(title string) *chartView {
	v := &chartView{
		Title:      title,
		Width:      chartWidth,
		Height:     chartHeight,
		PlotLeft:   chartPadLeft,
		PlotRight:  chartWidth - chartPadRight,
		PlotTop:    chartPadTop,
		PlotBottom: chartHeight - chartPadBottom,
	}
	v.PlotWidth = v.PlotRight - v.PlotLeft
	v.PlotHeight = v.PlotBottom - v.PlotTop
	return v
}

func newChartScale(v *chartView, times []time.Time, values []float64) chartScale {
	s := chartScale{view: v, y0: math.Inf(1), y1: math.Inf(-1)}
	for i, t := range times {
		if i == 0 || t.Before(s.t0) {
			s.t0 = t
		}
		if i == 0 || t.After(s.t1) {
			s.t1 = t
		}
	}
	for _, y := range values {
		s.y0 = math.Min(s.y0, y)
		s.y1 = math.Max(s.y1, y)
	}
	if math.IsInf(s.y0, 0) || math.IsInf(s.y1, 0) {
		s.y0, s.y1 = 0, 1
	}
	pad := (s.y1 - s.y0) * 0.05
	if pad == 0 {
		pad = 1
	}
	s.y0 -= pad
	s.y1 += pad
	return s
}

func (s chartScale) x(t time.Time) float64 {
	span := s.t1.Sub(s.t0)
	if span <= 0 {
		return s.view.PlotLeft + s.view.PlotWidth/2
	}
	return s.view.PlotLeft + float64(t.Sub(s.t0))/float64(span)*s.view.PlotWidth
}

func (s chartScale) y(v float64) float64 {
	return s.view.PlotBottom - (v-s.y0)/(s.y1-s.y0)*s.view.PlotHeight
}

func (s chartScale) ticks() {
	sameDay := s.t0.Format(time.DateOnly) == s.t1.Format(time.DateOnly)
	span := s.t1.Sub(s.t0)
	for i := range chartTicks {
		frac := float64(i) / float64(chartTicks-1)

		v := s.y0 + frac*(s.y1-s.y0)
		s.view.YTicks = append(s.view.YTicks, chartTick{
			Pos:   round1(s.y(v)),
			Label: strconv.FormatFloat(v, 'f', 0, 64),
		})

		t := s.t0.Add(time.Duration(frac * float64(span)))
		layout := "01/02 15:04"
		if sameDay {
			layout = "15:04"
		}
		s.view.XTicks = append(s.view.XTicks, chartTick{Pos: round1(s.x(t)), Label: t.Format(layout)})
		if span <= 0 {
			break
		}
	}
}

// forecastChart plots the history samples, the fitted curve, the dashed future curve, the
// uncertainty band and the flagged anomalies.
func forecastChart(rep *model.RouteReport) *chartView {
	if rep == nil || len(rep.Forecast) == 0 {
		return nil
	}

	times := rep.Series.Timestamps()
	values := rep.Series.Speeds()
	for _, p := range rep.Forecast {
		times = append(times, p.Timestamp)
		values = append(values, p.LowerBound, p.UpperBound)
	}

	v := newChartView("Speed forecast for route " + rep.RouteID)
	s := newChartScale(v, times, values)
	s.ticks()

	var fitted, future, upper, lower []string
	for i, p := range rep.Forecast {
		pt := s.point(p.Timestamp, p.PredictedSpeed)
		if p.Future {
			// Start the future curve at the last fitted point so the two connect.
			if len(future) == 0 && i > 0 {
				prev := rep.Forecast[i-1]
				future = append(future, s.point(prev.Timestamp, prev.PredictedSpeed))
			}
			future = append(future, pt)
		} else {
			fitted = append(fitted, pt)
		}
		upper = append(upper, s.point(p.Timestamp, p.UpperBound))
		lower = append(lower, s.point(p.Timestamp, p.LowerBound))
	}
	for i, j := 0, len(lower)-1; i < j; i, j = i+1, j-1 {
		lower[i], lower[j] = lower[j], lower[i]
	}

	v.Line = strings.Join(fitted, " ")
	v.Future = strings.Join(future, " ")
	v.Band = strings.Join(append(upper, lower...), " ")

	for _, p := range rep.Series.Points {
		v.Points = append(v.Points, s.marker(p.Timestamp, p.Speed, formatSpeed(p.Speed)+" km/h"))
	}
	for _, a := range rep.Anomalies {
		v.Anomalies = append(v.Anomalies, s.marker(a.Timestamp, a.Speed, "change of "+formatSpeed(a.AbsoluteDelta)+" km/h"))
	}
	return v
}

// speedChart plots the cleaned series as a line.
func speedChart(ser model.Series) *chartView {
	if ser.Len() == 0 {
		return nil
	}

	v := newChartView("Speed over time for route " + ser.RouteID)
	s := newChartScale(v, ser.Timestamps(), ser.Speeds())
	s.ticks()

	pts := make([]string, 0, ser.Len())
	for _, p := range ser.Points {
		pts = append(pts, s.point(p.Timestamp, p.Speed))
	}
	v.Line = strings.Join(pts, " ")
	return v
}

func (s chartScale) point(t time.Time, y float64) string {
	buf := make([]byte, 0, 16)
	buf = strconv.AppendFloat(buf, round1(s.x(t)), 'f', -1, 64)
	buf = append(buf, ',')
	buf = strconv.AppendFloat(buf, round1(s.y(y)), 'f', -1, 64)
	return string(buf)
}

func (s chartScale) marker(t time.Time, y float64, label string) chartMarker {
	return chartMarker{X: round1(s.x(t)), Y: round1(s.y(y)), Label: label}
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
