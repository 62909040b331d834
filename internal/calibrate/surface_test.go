//go:build !legacyapi

package calibrate_test

import "github.com/vk/tensorgridgo/internal/backend"

// attachedCalibrator reports where the calibrator landed at launch. Current
// builders receive it through the structured configuration object.
func attachedCalibrator(b *blockingBuilder, cfg *captureConfig) backend.Calibrator {
	return cfg.calibrator
}
