package forecast

import (
	"time"

	apperrors "github.com/routewatch/routewatch/internal/errors"
)

// Params configures the trend and seasonality model and the forecast horizon.
type Params struct {
	// ChangepointPriorScale is the Laplace scale of trend slope changes. Larger values let
	// the trend bend more.
	ChangepointPriorScale float64
	// SeasonalityPriorScale is the Gaussian scale of the daily Fourier coefficients.
	SeasonalityPriorScale float64
	// NChangepoints is the maximum number of potential trend changepoints.
	NChangepoints int
	// DailySeasonality enables the daily Fourier terms.
	DailySeasonality bool
	// ChangepointRange is the leading fraction of the history where changepoints may sit.
	ChangepointRange float64
	// IntervalWidth is the coverage of the uncertainty band, in (0, 1).
	IntervalWidth float64
	// HorizonSteps is the number of future points to predict.
	HorizonSteps int
	// Frequency is the spacing of future points.
	Frequency time.Duration
}

// DefaultParams returns the standard model configuration.
func DefaultParams() Params {
	return Params{
		ChangepointPriorScale: 0.05,
		SeasonalityPriorScale: 0.1,
		NChangepoints:         25,
		DailySeasonality:      true,
		ChangepointRange:      0.8,
		IntervalWidth:         0.8,
		HorizonSteps:          10,
		Frequency:             3 * time.Minute,
	}
}

// Validate checks that every parameter is usable.
func (p Params) Validate() error {
	switch {
	case p.ChangepointPriorScale <= 0:
		return apperrors.ValidationField("changepoint_prior_scale", "must be positive")
	case p.SeasonalityPriorScale <= 0:
		return apperrors.ValidationField("seasonality_prior_scale", "must be positive")
	case p.NChangepoints < 0:
		return apperrors.ValidationField("n_changepoints", "must not be negative")
	case p.ChangepointRange <= 0 || p.ChangepointRange > 1:
		return apperrors.ValidationField("changepoint_range", "must be in (0, 1]")
	case p.IntervalWidth <= 0 || p.IntervalWidth >= 1:
		return apperrors.ValidationField("interval_width", "must be in (0, 1)")
	case p.HorizonSteps < 0:
		return apperrors.ValidationField("horizon_steps", "must not be negative")
	case p.HorizonSteps > 0 && p.Frequency <= 0:
		return apperrors.ValidationField("frequency", "must be positive")
	}
	return nil
}
