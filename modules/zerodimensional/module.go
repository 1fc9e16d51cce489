// Package zerodimensional registers the method for point domains.
package zerodimensional

import (
	"github.com/vk/discretego/internal/registry"
	"github.com/vk/discretego/internal/spatial"
)

// Name is the method name used in model files.
const Name = "zero dimensional"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the method factory with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterMethod(Name, func() spatial.Method { return spatial.NewZeroDimensional() })
}
