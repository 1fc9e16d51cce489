package discretize

import (
	"fmt"
	"maps"
	"slices"

	"github.com/vk/discretego/internal/boundary"
	"github.com/vk/discretego/internal/expr"
	"github.com/vk/discretego/internal/mesh"
	"github.com/vk/discretego/internal/modelerr"
)

// SetExternalVariables registers vars as supplied at evaluation time. Each
// lowers to a placeholder sized by its domain; the children of a
// concatenated external lower to offset ranges of their parent's
// placeholder. Boundary conditions the spatial method needs for a
// domain-bearing external are added to bcs for sides bcs does not already
// set.
func (e *Engine) SetExternalVariables(vars []*expr.Node, bcs *boundary.Set) error {
	for _, v := range vars {
		if v.Kind() != expr.KindVariable && v.Kind() != expr.KindConcatenationVariable {
			return modelerr.Configurationf("external %s is a %s, not a variable", v, v.Kind())
		}
		if v.HasDomain() {
			method, err := e.method(v.Domains(), v)
			if err != nil {
				return err
			}
			extra, err := method.PreprocessExternalVariable(v)
			if err != nil {
				return fmt.Errorf("preparing external variable %q: %w", v.Name(), err)
			}
			if len(extra) > 0 {
				sides, _ := bcs.Get(v)
				merged := sides.Clone()
				if merged == nil {
					merged = boundary.Sides{}
				}
				for side, c := range extra {
					if _, ok := merged[side]; !ok {
						merged[side] = c
					}
				}
				bcs.Put(v, merged)
			}
		}

		if v.Kind() == expr.KindVariable {
			w, err := e.width(v)
			if err != nil {
				return err
			}
			e.externals[v.ID()] = expr.NewExternalVariable(v.Name(), v.Domains(), w)
			continue
		}
		widths := make([]int, v.NumChildren())
		total := 0
		for i, c := range v.Children() {
			w, err := e.width(c)
			if err != nil {
				return err
			}
			widths[i] = w
			total += w
		}
		parent := expr.NewExternalVariable(v.Name(), v.Domains(), total)
		e.externals[v.ID()] = parent
		offset := 0
		for i, c := range v.Children() {
			e.externals[c.ID()] = expr.NewIndex(parent, offset, offset+widths[i]).WithDomains(c.Domains())
			offset += widths[i]
		}
		e.log.Debug("Registered external variable.", "variable", v.Name(), "size", total)
	}
	return nil
}

// ResolveBoundaryConditions lowers the user boundary conditions, adds the
// internal conditions at the seams of every concatenated variable, and
// installs the result with SetBoundaryConditions.
func (e *Engine) ResolveBoundaryConditions(user *boundary.Set) (*boundary.Set, error) {
	lowered := boundary.NewSet()
	for _, key := range user.Keys() {
		raw, _ := user.Get(key)
		sides, err := e.resolveTabs(key, raw)
		if err != nil {
			return nil, err
		}
		out := make(boundary.Sides, len(sides))
		for _, side := range slices.Sorted(maps.Keys(sides)) {
			if side != boundary.Left && side != boundary.Right {
				return nil, modelerr.Configurationf("unresolved boundary side %q for %s", side, key)
			}
			c := sides[side]
			e.log.Debug("Lowering boundary condition.", "variable", key.Name(), "side", side, "kind", c.Kind)
			v, err := e.Lower(c.Value)
			if err != nil {
				return nil, fmt.Errorf("lowering %s boundary condition of %s: %w", side, key, err)
			}
			out[side] = boundary.Condition{Value: v, Kind: c.Kind}
		}
		if _, external := e.externals[key.ID()]; !external {
			if err := e.checkSphericalOrigin(key, out); err != nil {
				return nil, err
			}
		}
		lowered.Put(key, out)
	}

	internal, err := e.internalConditions(user, lowered)
	if err != nil {
		return nil, err
	}
	for _, key := range internal.Keys() {
		sides, _ := internal.Get(key)
		lowered.Put(key, sides)
	}
	e.SetBoundaryConditions(lowered)
	return lowered, nil
}

// resolveTabs maps tab sides of key's conditions to "left" and "right". The
// result is remembered so repeated calls do the work once.
func (e *Engine) resolveTabs(key *expr.Node, sides boundary.Sides) (boundary.Sides, error) {
	if done, ok := e.tabsResolved[key.ID()]; ok {
		return done, nil
	}
	hasTab := false
	for side := range sides {
		hasTab = hasTab || boundary.IsTab(side)
	}
	if !hasTab {
		e.tabsResolved[key.ID()] = sides
		return sides, nil
	}

	sub, err := e.tabMesh(key)
	if err != nil {
		return nil, err
	}
	out := boundary.Sides{}
	for side, c := range sides {
		if side == boundary.Left || side == boundary.Right {
			out[side] = c
		}
	}
	for _, tab := range []string{mesh.NegativeTab, mesh.PositiveTab} {
		c, ok := sides[tab]
		if !ok {
			continue
		}
		side, ok := sub.TabSide(tab)
		if !ok {
			return nil, modelerr.Configurationf("domain %q has no %s location", sub.Domain, tab)
		}
		if _, taken := out[side]; taken {
			return nil, modelerr.Configurationf("%s of %s sits on the %s, which already has a condition", tab, key, side)
		}
		out[side] = c
	}
	if c, ok := sides[boundary.NoTab]; ok {
		// Both tabs on one end: the untabbed end gets the "no tab" condition.
		_, left := out[boundary.Left]
		_, right := out[boundary.Right]
		switch {
		case left && right:
		case left:
			out[boundary.Right] = c
		default:
			out[boundary.Left] = c
		}
	}
	e.log.Debug("Resolved tab boundary conditions.", "variable", key.Name(), "domain", sub.Domain)
	e.tabsResolved[key.ID()] = out
	return out, nil
}

// tabMesh returns the submesh carrying the tab locations of key.
func (e *Engine) tabMesh(key *expr.Node) (*mesh.SubMesh, error) {
	if !key.HasDomain() {
		return nil, modelerr.Configurationf("tab boundary conditions on %s need a domain", key)
	}
	sub, err := e.mesh.Get(key.Domains().Primary[0])
	if err != nil {
		return nil, err
	}
	if sub.Dim != 1 || len(sub.Tabs) == 0 {
		return nil, modelerr.Configurationf("tab boundary conditions need a one-dimensional domain with tabs, %q has none", sub.Domain)
	}
	return sub, nil
}

// tabSide resolves a tab side of a boundary operator on d.
func (e *Engine) tabSide(d expr.Domains, side string) (string, error) {
	if d.Empty() {
		return "", modelerr.Configurationf("boundary operator on the %s needs a domain", side)
	}
	sub, err := e.mesh.Get(d.Primary[0])
	if err != nil {
		return "", err
	}
	if sub.Dim != 1 {
		return "", modelerr.Configurationf("the %s of %q cannot be located on a %d-dimensional mesh", side, sub.Domain, sub.Dim)
	}
	resolved, ok := sub.TabSide(side)
	if !ok {
		return "", modelerr.Configurationf("domain %q has no %s location", sub.Domain, side)
	}
	return resolved, nil
}

// checkSphericalOrigin requires a zero flux at the centre of a spherical
// domain.
func (e *Engine) checkSphericalOrigin(key *expr.Node, sides boundary.Sides) error {
	for _, dom := range key.Domains().Primary {
		sub, err := e.mesh.Get(dom)
		if err != nil {
			return err
		}
		if sub.CoordSys != mesh.SphericalPolar {
			continue
		}
		left, ok := sides[boundary.Left]
		if !ok || left.Kind != boundary.Neumann || !expr.IsZero(expr.Simplify(left.Value)) {
			return modelerr.Configurationf("boundary condition at r = 0 of %s in spherical domain %q must be a zero Neumann condition", key, dom)
		}
	}
	return nil
}

// internalConditions synthesizes Neumann conditions at the interior seams
// of every concatenated variable in user. Both sides of a seam share one
// lowered flux. The outer children take the concatenation's own outer
// conditions. Children with user conditions of their own are left alone.
func (e *Engine) internalConditions(user, lowered *boundary.Set) (*boundary.Set, error) {
	internal := boundary.NewSet()
	for _, key := range user.Keys() {
		if key.Kind() != expr.KindConcatenationVariable || key.NumChildren() < 2 {
			continue
		}
		outer, _ := lowered.Get(key)
		lbc, lok := outer[boundary.Left]
		rbcOuter, rok := outer[boundary.Right]
		if !lok || !rok {
			return nil, modelerr.Configurationf("concatenation %s needs both left and right boundary conditions", key)
		}
		children := key.Children()
		for i, child := range children {
			rbc := rbcOuter
			if i < len(children)-1 {
				flux, err := e.seamFlux(child, children[i+1])
				if err != nil {
					return nil, err
				}
				rbc = boundary.Condition{Value: flux, Kind: boundary.Neumann}
			}
			if !user.Has(child) && !internal.Has(child) {
				e.log.Debug("Set internal boundary conditions.", "variable", child.Name())
				internal.Put(child, boundary.Sides{boundary.Left: lbc, boundary.Right: rbc})
			}
			lbc = rbc
		}
	}
	return internal, nil
}

// seamFlux returns the flux between adjoining left and right, each
// discretized on its own grid.
func (e *Engine) seamFlux(left, right *expr.Node) (*expr.Node, error) {
	leftDisc, err := e.Lower(left)
	if err != nil {
		return nil, err
	}
	rightDisc, err := e.Lower(right)
	if err != nil {
		return nil, err
	}
	method, err := e.method(left.Domains(), left)
	if err != nil {
		return nil, err
	}
	flux, err := method.InternalNeumannCondition(left, leftDisc, right, rightDisc)
	if err != nil {
		return nil, fmt.Errorf("internal boundary condition between %s and %s: %w", left, right, err)
	}
	return flux, nil
}
