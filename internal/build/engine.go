//go:build !legacyapi

package build

import "github.com/vk/tensorgridgo/internal/backend"

func buildEngine(res *Resources) backend.Engine {
	return res.Builder.Build(res.Network, res.Config)
}
