package config

import (
	"github.com/vk/discretego/internal/mesh"
	"github.com/vk/discretego/internal/modelerr"
)

// Mesh builds the mesh of every declared domain, in declaration order.
func (m *Model) Mesh() (*mesh.Mesh, error) {
	out, err := mesh.New()
	if err != nil {
		return nil, err
	}
	for _, d := range m.Domains {
		sub, err := d.SubMesh()
		if err != nil {
			return nil, err
		}
		if err := out.Add(sub); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// SubMesh builds the grid of d.
func (d *Domain) SubMesh() (*mesh.SubMesh, error) {
	if d.Points == 0 {
		if len(d.Tabs) > 0 {
			return nil, modelerr.Configurationf("domain %q: a point domain cannot have tabs", d.Name)
		}
		return mesh.Point(d.Name), nil
	}
	sub, err := mesh.Uniform1D(d.Name, d.Min, d.Max, d.Points, d.CoordSys)
	if err != nil {
		return nil, err
	}
	if len(d.Tabs) == 0 {
		return sub, nil
	}
	return sub.WithTabs(d.Tabs)
}
