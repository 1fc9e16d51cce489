package config

import (
	"github.com/vk/discretego/internal/model"
)

// Model is the unified, format-agnostic representation of the entire
// application configuration.
type Model struct {
	Domains []*Domain
	Methods []*Method
	Models  []*model.Model
}

// Domain describes the grid of one named domain. A domain with zero points
// is a single point.
type Domain struct {
	Name     string
	Min      float64
	Max      float64
	Points   int
	CoordSys string
	// Tabs maps "negative tab" and "positive tab" to "left" or "right".
	Tabs map[string]string
}

// Method assigns a registered spatial method to a domain, or to every
// through-cell domain when Domain is "macroscale".
type Method struct {
	Domain string
	Method string
}

// FindModel returns the model called name.
func (m *Model) FindModel(name string) (*model.Model, bool) {
	for _, md := range m.Models {
		if md.Name == name {
			return md, true
		}
	}
	return nil, false
}
