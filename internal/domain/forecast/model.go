// Package forecast fits an additive trend plus daily seasonality model to a route series
// and predicts speed, with an uncertainty band, over the history and a short horizon.
//
// The trend is piecewise linear with potential changepoints spread over the leading part
// of the history. Slope changes carry a Laplace prior and the Fourier coefficients a
// Gaussian prior; the maximum a posteriori fit is found by iteratively reweighted ridge
// regression.
package forecast

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/routewatch/routewatch/internal/domain/model"
	apperrors "github.com/routewatch/routewatch/internal/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	fourierOrder = 4
	secondsInDay = 24 * 60 * 60

	// Gaussian prior scale of intercept and base slope, in scaled units.
	trendPriorScale = 5.0

	maxIterations = 20
	tolerance     = 1e-6
	minSigma      = 1e-3
	minDeltaScale = 1e-6
)

var (
	errTooFewSamples = errors.New("need at least 2 samples")
	errZeroSpan      = errors.New("history spans zero time")
	errNotFinite     = errors.New("non-finite value")
	errNotPosDef     = errors.New("normal equations are not positive definite")
)

// Model is a fitted forecast model. It is immutable and safe for concurrent Predict calls.
type Model struct {
	params Params

	start  time.Time
	end    time.Time
	span   float64 // seconds
	yScale float64

	// changepoints are positions in scaled time.
	changepoints []float64
	// coef holds intercept, slope, one delta per changepoint, then sin/cos pairs.
	coef []float64
	// sigma is the residual standard deviation in speed units.
	sigma float64

	history []time.Time
}

// Fit estimates the model on s. It returns a model_fit error when s has fewer than two
// samples, covers no time, or the regression cannot be solved to finite coefficients.
func Fit(s model.Series, p Params) (*Model, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	n := s.Len()
	if n < 2 {
		return nil, apperrors.ModelFit(fmt.Errorf("%w, have %d", errTooFewSamples, n))
	}

	m := &Model{
		params: p,
		start:  s.Points[0].Timestamp,
		end:    s.Points[n-1].Timestamp,
	}
	for _, pt := range s.Points {
		if pt.Timestamp.Before(m.start) {
			m.start = pt.Timestamp
		}
		if pt.Timestamp.After(m.end) {
			m.end = pt.Timestamp
		}
	}
	m.span = m.end.Sub(m.start).Seconds()
	if m.span <= 0 {
		return nil, apperrors.ModelFit(errZeroSpan)
	}

	y := make([]float64, n)
	t := make([]float64, n)
	for i, pt := range s.Points {
		if math.IsNaN(pt.Speed) || math.IsInf(pt.Speed, 0) {
			return nil, apperrors.ModelFit(fmt.Errorf("%w: speed at index %d", errNotFinite, i))
		}
		m.yScale = math.Max(m.yScale, math.Abs(pt.Speed))
		t[i] = m.scaleTime(pt.Timestamp)
	}
	if m.yScale == 0 {
		m.yScale = 1
	}
	for i, pt := range s.Points {
		y[i] = pt.Speed / m.yScale
	}

	m.changepoints = placeChangepoints(t, p.NChangepoints, p.ChangepointRange)

	x := m.design(s.Timestamps(), t)
	coef, sigma, err := m.solve(x, y)
	if err != nil {
		return nil, apperrors.ModelFit(err)
	}
	m.coef = coef
	m.sigma = sigma * m.yScale
	m.history = uniqueTimes(s.Timestamps())

	return m, nil
}

// Predict evaluates the model at every distinct historical timestamp followed by
// HorizonSteps future timestamps spaced Frequency apart after the last observation.
func (m *Model) Predict() []model.ForecastPoint {
	out := make([]model.ForecastPoint, 0, len(m.history)+m.params.HorizonSteps)
	for _, ts := range m.history {
		out = append(out, m.pointAt(ts, false))
	}
	for k := 1; k <= m.params.HorizonSteps; k++ {
		ts := m.end.Add(time.Duration(k) * m.params.Frequency)
		out = append(out, m.pointAt(ts, true))
	}
	return out
}

// Changepoints returns the potential changepoint times.
func (m *Model) Changepoints() []time.Time {
	out := make([]time.Time, len(m.changepoints))
	for i, c := range m.changepoints {
		out[i] = m.start.Add(time.Duration(c * m.span * float64(time.Second)))
	}
	return out
}

// Sigma returns the residual standard deviation in speed units.
func (m *Model) Sigma() float64 { return m.sigma }

// Forecast fits s and predicts in one step.
func Forecast(s model.Series, p Params) ([]model.ForecastPoint, error) {
	m, err := Fit(s, p)
	if err != nil {
		return nil, err
	}
	return m.Predict(), nil
}

func (m *Model) scaleTime(ts time.Time) float64 {
	return ts.Sub(m.start).Seconds() / m.span
}

func (m *Model) pointAt(ts time.Time, future bool) model.ForecastPoint {
	t := m.scaleTime(ts)
	row := m.row(ts, t)

	var trend, seasonal float64
	nTrend := 2 + len(m.changepoints)
	for j, v := range row {
		if j < nTrend {
			trend += m.coef[j] * v
		} else {
			seasonal += m.coef[j] * v
		}
	}
	trend *= m.yScale
	seasonal *= m.yScale
	yhat := trend + seasonal

	sd := m.sigma
	if t > 1 {
		drift := m.meanAbsDelta() * m.yScale * (t - 1)
		sd = math.Sqrt(m.sigma*m.sigma + drift*drift)
	}
	z := distuv.UnitNormal.Quantile(0.5 + m.params.IntervalWidth/2)

	lower := yhat - z*sd
	if lower < 0 {
		lower = 0
	}

	return model.ForecastPoint{
		Timestamp:      ts,
		PredictedSpeed: yhat,
		LowerBound:     lower,
		UpperBound:     yhat + z*sd,
		Trend:          trend,
		Seasonal:       seasonal,
		Future:         future,
	}
}

func (m *Model) meanAbsDelta() float64 {
	if len(m.changepoints) == 0 {
		return 0
	}
	var sum float64
	for _, d := range m.coef[2 : 2+len(m.changepoints)] {
		sum += math.Abs(d)
	}
	return sum / float64(len(m.changepoints))
}

func (m *Model) columns() int {
	c := 2 + len(m.changepoints)
	if m.params.DailySeasonality {
		c += 2 * fourierOrder
	}
	return c
}

// row builds the regressors for one timestamp.
func (m *Model) row(ts time.Time, t float64) []float64 {
	r := make([]float64, 0, m.columns())
	r = append(r, 1, t)
	for _, c := range m.changepoints {
		r = append(r, math.Max(0, t-c))
	}
	if m.params.DailySeasonality {
		phase := 2 * math.Pi * dayFraction(ts)
		for k := 1; k <= fourierOrder; k++ {
			r = append(r, math.Sin(float64(k)*phase), math.Cos(float64(k)*phase))
		}
	}
	return r
}

func (m *Model) design(ts []time.Time, t []float64) *mat.Dense {
	x := mat.NewDense(len(ts), m.columns(), nil)
	for i := range ts {
		x.SetRow(i, m.row(ts[i], t[i]))
	}
	return x
}

// solve finds the MAP coefficients. Laplace priors on the changepoint deltas are
// handled by reweighting a ridge penalty with the previous iterate.
func (m *Model) solve(x *mat.Dense, yv []float64) ([]float64, float64, error) {
	n, p := x.Dims()
	y := mat.NewVecDense(n, yv)
	nDelta := len(m.changepoints)
	tau := m.params.ChangepointPriorScale
	sigmaS := m.params.SeasonalityPriorScale

	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	var xty mat.VecDense
	xty.MulVec(x.T(), y)

	sigma := initialSigma(yv)
	prev := make([]float64, p)
	penalty := make([]float64, p)
	for it := 0; it < maxIterations; it++ {
		s2 := sigma * sigma
		for j := range penalty {
			switch {
			case j < 2:
				penalty[j] = s2 / (trendPriorScale * trendPriorScale)
			case j < 2+nDelta:
				if it == 0 {
					penalty[j] = s2 / (tau * tau)
				} else {
					penalty[j] = s2 / (tau * math.Max(math.Abs(prev[j]), minDeltaScale))
				}
			default:
				penalty[j] = s2 / (sigmaS * sigmaS)
			}
		}

		coef, err := ridge(&xtx, &xty, penalty)
		if err != nil {
			return nil, 0, err
		}

		var fitted, resid mat.VecDense
		fitted.MulVec(x, mat.NewVecDense(p, coef))
		resid.SubVec(y, &fitted)
		sigma = math.Max(math.Sqrt(mat.Dot(&resid, &resid)/float64(n)), minSigma)

		change := 0.0
		for j := range coef {
			change = math.Max(change, math.Abs(coef[j]-prev[j]))
		}
		copy(prev, coef)
		if it > 0 && change < tolerance {
			break
		}
	}

	for _, c := range prev {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, 0, fmt.Errorf("%w in coefficients", errNotFinite)
		}
	}
	return prev, sigma, nil
}

// ridge solves (XᵀX + diag(penalty)) b = Xᵀy by Cholesky factorisation.
func ridge(xtx *mat.Dense, xty *mat.VecDense, penalty []float64) ([]float64, error) {
	p := len(penalty)
	a := mat.NewSymDense(p, nil)
	for i := 0; i < p; i++ {
		for j := i; j < p; j++ {
			v := xtx.At(i, j)
			if i == j {
				v += penalty[i]
			}
			a.SetSym(i, j, v)
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(a); !ok {
		return nil, errNotPosDef
	}
	var b mat.VecDense
	if err := chol.SolveVecTo(&b, xty); err != nil {
		return nil, fmt.Errorf("solve normal equations: %w", err)
	}
	return mat.Col(nil, 0, &b), nil
}

// placeChangepoints spreads up to n changepoints over the first rangeFrac of the
// samples, at evenly spaced sample indices, skipping the first sample.
func placeChangepoints(t []float64, n int, rangeFrac float64) []float64 {
	histSize := int(math.Floor(float64(len(t)) * rangeFrac))
	if n+1 > histSize {
		n = histSize - 1
	}
	if n <= 0 {
		return nil
	}
	out := make([]float64, 0, n)
	step := float64(histSize-1) / float64(n)
	for i := 1; i <= n; i++ {
		idx := int(math.Round(float64(i) * step))
		out = append(out, t[idx])
	}
	return out
}

// initialSigma is a robust noise estimate from successive differences.
func initialSigma(y []float64) float64 {
	if len(y) < 2 {
		return minSigma
	}
	diffs := make([]float64, len(y)-1)
	for i := 1; i < len(y); i++ {
		diffs[i-1] = y[i] - y[i-1]
	}
	med := median(diffs)
	for i, d := range diffs {
		diffs[i] = math.Abs(d - med)
	}
	// MAD of a difference of two iid normals, rescaled to one sample.
	return math.Max(median(diffs)/(0.6745*math.Sqrt2), minSigma)
}

func dayFraction(ts time.Time) float64 {
	u := ts.UTC()
	secs := u.Hour()*3600 + u.Minute()*60 + u.Second()
	return (float64(secs) + float64(u.Nanosecond())/1e9) / secondsInDay
}

func uniqueTimes(ts []time.Time) []time.Time {
	sorted := slices.Clone(ts)
	slices.SortFunc(sorted, time.Time.Compare)
	out := make([]time.Time, 0, len(sorted))
	for _, t := range sorted {
		if len(out) > 0 && out[len(out)-1].Equal(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func median(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	s := slices.Clone(v)
	slices.Sort(s)
	return stat.Quantile(0.5, stat.Empirical, s, nil)
}
