//go:build !legacyapi

package calibrate

import (
	"github.com/vk/tensorgridgo/internal/backend"
	"github.com/vk/tensorgridgo/internal/build"
)

func attachCalibrator(res *build.Resources, cal backend.Calibrator) {
	res.Config.SetInt8Calibrator(cal)
}
