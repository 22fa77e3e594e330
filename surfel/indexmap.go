package surfel

import (
	"github.com/golang/geo/r3"

	"github.com/otaviog/align3d-go/camera"
)

// IndexMap is a projective nearest-surfel lookup: render the live surfel
// set through a camera at an upsampled scale, then answer O(1)
// "which surfel landed here" queries for fusion's data association
// (Component K).
type IndexMap struct {
	width, height, scale int
	ids                  []int64 // (height*scale) x (width*scale), -1 = empty
}

// NewIndexMap allocates an index map of the given base resolution and
// render scale (commonly 1, 2, or 4).
func NewIndexMap(width, height, scale int) *IndexMap {
	return &IndexMap{
		width:  width,
		height: height,
		scale:  scale,
		ids:    make([]int64, width*scale*height*scale),
	}
}

func (m *IndexMap) at(u, v int) int {
	return v*m.width*m.scale + u
}

// RenderIndices clears the map and projects every (id, point) pair
// through cam, writing id at the projected pixel scaled by m.scale.
// Last write wins when two points project to the same cell.
func (m *IndexMap) RenderIndices(ids []int, points []r3.Vector, cam camera.Pinhole) {
	for i := range m.ids {
		m.ids[i] = -1
	}
	for i, p := range points {
		u, v, ok := cam.ProjectIfVisible(p)
		if !ok {
			continue
		}
		su, sv := u*m.scale, v*m.scale
		m.ids[m.at(su, sv)] = int64(ids[i])
	}
}

// Get returns the surfel id projected at (u, v), or (0, false) if the
// cell is empty.
func (m *IndexMap) Get(u, v int) (int, bool) {
	id := m.ids[m.at(u*m.scale, v*m.scale)]
	if id < 0 {
		return 0, false
	}
	return int(id), true
}

// Window returns every non-empty id in the n x n neighborhood centered
// at (u, v) (in base-resolution coordinates).
func (m *IndexMap) Window(u, v, n int) []int {
	cu, cv := u*m.scale, v*m.scale
	half := n / 2
	var out []int
	for dv := -half; dv <= half; dv++ {
		sv := cv + dv
		if sv < 0 || sv >= m.height*m.scale {
			continue
		}
		for du := -half; du <= half; du++ {
			su := cu + du
			if su < 0 || su >= m.width*m.scale {
				continue
			}
			if id := m.ids[m.at(su, sv)]; id >= 0 {
				out = append(out, int(id))
			}
		}
	}
	return out
}

// Scale returns the render-scale factor.
func (m *IndexMap) Scale() int { return m.scale }
