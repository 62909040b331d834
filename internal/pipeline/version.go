package pipeline

import (
	"fmt"

	"github.com/vk/tensorgridgo/internal/backend"
	"github.com/vk/tensorgridgo/internal/graph"
)

// Versions renders the IR version this pipeline decodes and the toolkit's
// version triple. Pure: it reads the toolkit's version and nothing else, and
// allocates no builder resources.
func Versions(toolkit backend.Toolkit) string {
	major, minor, patch := toolkit.Version()
	return fmt.Sprintf("Parser built against:\n  graph IR version: %s\n  toolkit version:  %d.%d.%d\n",
		graph.IRVersionString(graph.IRVersion), major, minor, patch)
}
