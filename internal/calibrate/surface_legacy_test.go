//go:build legacyapi

package calibrate_test

import "github.com/vk/tensorgridgo/internal/backend"

// attachedCalibrator reports where the calibrator landed at launch. Legacy
// builders receive it through their own setter surface.
func attachedCalibrator(b *blockingBuilder, cfg *captureConfig) backend.Calibrator {
	return b.calibrator
}
