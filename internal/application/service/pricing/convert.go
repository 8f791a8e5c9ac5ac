// Package pricing holds the price/spread conversion boundary. The engine
// only depends on the converter signature; the model behind it is supplied
// at wiring time.
package pricing

import (
	"math"

	"github.com/sirupsen/logrus"
)

// Params are the standard contract terms a CDS conversion model needs.
type Params struct {
	RecoveryRate    float64
	CouponBps       float64
	YearsToMaturity float64
}

// PriceToSpread returns a converter from points-upfront price quotes to
// spread in basis points. No conversion model ships with this service: the
// returned converter reports every conversion as failed (NaN) until a real
// model is plugged in, and says so once.
func PriceToSpread(params Params, logger *logrus.Logger) func(float64) float64 {
	if logger == nil {
		logger = logrus.New()
	}
	log := logger.WithField("component", "pricing")
	warned := false
	return func(price float64) float64 {
		if !warned {
			log.WithFields(logrus.Fields{
				"recovery_rate": params.RecoveryRate,
				"coupon_bps":    params.CouponBps,
				"maturity":      params.YearsToMaturity,
			}).Warn("no price-to-spread model is configured, price-basis trades will not classify")
			warned = true
		}
		return math.NaN()
	}
}
