package types

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/meridian-quant/volregime/pkg/errors"
)

// Bar is a single daily OHLCV record. Bars are immutable once ingested.
type Bar struct {
	Date   time.Time `csv:"date" yaml:"date"`
	Open   float64   `csv:"open" yaml:"open" validate:"gt=0"`
	High   float64   `csv:"high" yaml:"high" validate:"gt=0"`
	Low    float64   `csv:"low" yaml:"low" validate:"gt=0"`
	Close  float64   `csv:"close" yaml:"close" validate:"gt=0"`
	Volume float64   `csv:"volume" yaml:"volume" validate:"gte=0"`
}

// Validate checks the bar's fields against its validation tags.
func (b *Bar) Validate() error {
	validate := validator.New()
	if err := validate.Struct(b); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidBar, "bar validation failed", err)
	}

	return nil
}

// ValidateBarSeries rejects malformed series at the boundary before they
// enter the indicator pipeline. Dates must be strictly increasing and
// unique; the series may have gaps (non-trading days simply absent).
func ValidateBarSeries(bars []Bar) error {
	validate := validator.New()

	for i := range bars {
		if err := validate.Struct(&bars[i]); err != nil {
			return errors.Wrapf(errors.ErrCodeInvalidBar, err, "bar %d (%s) failed validation", i, bars[i].Date.Format("2006-01-02"))
		}

		if i == 0 {
			continue
		}

		if bars[i].Date.Equal(bars[i-1].Date) {
			return errors.Newf(errors.ErrCodeDuplicateDate, "duplicate date %s at bar %d", bars[i].Date.Format("2006-01-02"), i)
		}

		if bars[i].Date.Before(bars[i-1].Date) {
			return errors.Newf(errors.ErrCodeNonMonotonicSeries, "date %s at bar %d is before previous bar", bars[i].Date.Format("2006-01-02"), i)
		}
	}

	return nil
}
