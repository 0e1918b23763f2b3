// Package boundary builds the immutable neighbourhood set that every spatial
// join in a run iterates over.
package boundary

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"

	"github.com/sells-group/hoodscore-cli/internal/geometry"
)

// ErrNoBoundaries is returned when a boundary source yields no usable
// neighbourhood. It aborts the run.
var ErrNoBoundaries = eris.New("boundary: no neighbourhood boundaries loaded")

// Neighbourhood is one display identity made of one or more boundary
// polygons. Population and AreaKM2 come from the source when it carries them.
type Neighbourhood struct {
	ID         string
	Name       string
	Geometry   orb.MultiPolygon
	Population *float64
	AreaKM2    float64

	bound orb.Bound
}

// Area returns the planar shoelace area of all boundary polygons.
func (n *Neighbourhood) Area() float64 {
	return geometry.MultiPolygonArea(n.Geometry)
}

// Density returns residents per square kilometre. It reports false when the
// population or area is unknown.
func (n *Neighbourhood) Density() (float64, bool) {
	if n.Population == nil || n.AreaKM2 <= 0 {
		return 0, false
	}
	return *n.Population / n.AreaKM2, true
}

// Bound returns the bounding box computed when the set was built.
func (n *Neighbourhood) Bound() orb.Bound {
	return n.bound
}

// Contains reports whether p falls inside any of the neighbourhood's
// boundaries.
func (n *Neighbourhood) Contains(p orb.Point) bool {
	if !n.bound.Contains(p) {
		return false
	}
	return geometry.PointInMultiPolygon(p, n.Geometry)
}

// Set is the ordered, read-only collection of neighbourhoods for one run.
// Iteration order is ascending ID; first-match assignment depends on it.
type Set struct {
	items []*Neighbourhood
	byID  map[string]*Neighbourhood
}

// NewSet builds a Set. Entries sharing an ID are merged into a single
// neighbourhood whose geometry is the union of their polygons and whose
// population is summed. The population is unknown if any part lacks one.
// Missing areas are approximated from the geometry.
func NewSet(items []*Neighbourhood) (*Set, error) {
	byID := make(map[string]*Neighbourhood, len(items))
	var ordered []*Neighbourhood

	for _, in := range items {
		if in == nil || in.ID == "" {
			continue
		}
		existing, ok := byID[in.ID]
		if !ok {
			n := &Neighbourhood{
				ID:         in.ID,
				Name:       in.Name,
				Geometry:   append(orb.MultiPolygon(nil), in.Geometry...),
				Population: copyFloat(in.Population),
				AreaKM2:    in.AreaKM2,
			}
			byID[n.ID] = n
			ordered = append(ordered, n)
			continue
		}
		existing.Geometry = append(existing.Geometry, in.Geometry...)
		if in.Population != nil && existing.Population != nil {
			sum := *existing.Population + *in.Population
			existing.Population = &sum
		} else {
			existing.Population = nil
		}
		if existing.AreaKM2 > 0 && in.AreaKM2 > 0 {
			existing.AreaKM2 += in.AreaKM2
		} else {
			existing.AreaKM2 = 0
		}
		if existing.Name == "" {
			existing.Name = in.Name
		}
	}

	if len(ordered) == 0 {
		return nil, eris.Wrap(ErrNoBoundaries, "boundary: build set")
	}

	for _, n := range ordered {
		if n.AreaKM2 <= 0 {
			n.AreaKM2 = geometry.ApproxAreaKM2(n.Geometry)
		}
		if n.Name == "" {
			n.Name = n.ID
		}
		n.bound = geometry.Bound(n.Geometry)
	}

	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })
	return &Set{items: ordered, byID: byID}, nil
}

// All returns the neighbourhoods in ID order. The slice is a copy; the
// neighbourhoods themselves must not be modified.
func (s *Set) All() []*Neighbourhood {
	return append([]*Neighbourhood(nil), s.items...)
}

// Get looks up a neighbourhood by ID.
func (s *Set) Get(id string) (*Neighbourhood, bool) {
	n, ok := s.byID[id]
	return n, ok
}

// Len returns the number of neighbourhoods.
func (s *Set) Len() int {
	return len(s.items)
}

// IDs returns the neighbourhood IDs in iteration order.
func (s *Set) IDs() []string {
	ids := make([]string, len(s.items))
	for i, n := range s.items {
		ids[i] = n.ID
	}
	return ids
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
