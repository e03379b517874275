package ai

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/apex/log"
	"github.com/shopspring/decimal"
)

// batteryModel is a linear remaining-life model fitted offline:
// hours = VoltageCoef*voltage + PercentCoef*percent + Intercept.
type batteryModel struct {
	VoltageCoef float64 `json:"voltage_coef"`
	PercentCoef float64 `json:"percent_coef"`
	Intercept   float64 `json:"intercept"`
}

// BatteryPredictor estimates remaining collar battery life.
type BatteryPredictor struct {
	model *batteryModel
}

// fallbackHoursPerPercent is the deterministic estimate used when the fitted
// model is unavailable: each percent of charge buys half an hour.
var fallbackHoursPerPercent = decimal.NewFromFloat(0.5)

// NewBatteryPredictor loads the battery model from path. A missing or
// unreadable model activates the deterministic fallback estimate.
func NewBatteryPredictor(path string) *BatteryPredictor {
	p := &BatteryPredictor{}
	if path == "" {
		return p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Warnf("Battery model not found at %s, using fallback estimate: %v", path, err)
		return p
	}

	var m batteryModel
	if err := json.Unmarshal(data, &m); err != nil {
		log.Warnf("Battery model at %s is unusable, using fallback estimate: %v", path, err)
		return p
	}

	p.model = &m
	log.Info("Battery model loaded")
	return p
}

// Predict returns a human-readable remaining-life forecast. The fitted model
// is preferred; without it the estimate is percent × 0.5 hours, computed in
// decimal so the message never carries float noise.
func (p *BatteryPredictor) Predict(voltage, percent float64) Result {
	if p.model != nil {
		hours := p.model.VoltageCoef*voltage + p.model.PercentCoef*percent + p.model.Intercept
		if hours >= 0 {
			return Ok(fmt.Sprintf("%.1f hours remaining", hours))
		}
		// A negative estimate means the inputs are outside the model's
		// training range; fall through to the deterministic estimate.
	}

	estimated := decimal.NewFromFloat(percent).Mul(fallbackHoursPerPercent)
	forecast := fmt.Sprintf("%s hours remaining (Estimated)", estimated.String())
	if p.model == nil {
		return Degraded(forecast, "model unavailable")
	}
	return Degraded(forecast, "model estimate out of range")
}
