//go:build legacyapi

package build

import "github.com/vk/tensorgridgo/internal/backend"

func buildEngine(res *Resources) backend.Engine {
	// Apply has already verified the builder exposes the legacy surface.
	return res.Builder.(backend.LegacyBuilder).BuildNetwork(res.Network)
}
