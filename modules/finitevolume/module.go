// Package finitevolume registers the cell-centred finite-volume scheme.
package finitevolume

import (
	"github.com/vk/discretego/internal/registry"
	"github.com/vk/discretego/internal/spatial"
)

// Name is the method name used in model files.
const Name = "finite volume"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the method factory with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterMethod(Name, func() spatial.Method { return spatial.NewFiniteVolume() })
}
