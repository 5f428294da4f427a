/*
Copyright © 2025 the EMGrid authors.
This file is part of EMGrid.

EMGrid is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

EMGrid is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with EMGrid.  If not, see <http://www.gnu.org/licenses/>.
*/

package emgrid

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Mesher turns a structure list into a 1D nonuniform grid along one axis.
// The stages are separable so that grid specifications can intervene between
// them: ParseStructures produces material intervals with per-interval step
// bounds, InsertSnappingPoints forces boundaries through requested
// coordinates, and MakeGridMultipleIntervals fills each interval with graded
// steps.
type Mesher interface {
	// ParseStructures walks the structure list in order (the first entry
	// being the simulation domain) and returns the interval boundary
	// coordinates along axis together with the maximum step allowed in each
	// interval. len(maxDl) == len(coords)-1. For a zero-size domain a single
	// coordinate and no intervals are returned.
	ParseStructures(axis int, structures []GridStructure, wavelength, minStepsPerWvl, dlMin, dlMax float64) (coords, maxDl []float64, err error)

	// InsertSnappingPoints forces interval boundaries through the given
	// points. A point closer than dlMin to an existing boundary is absorbed
	// by that boundary and dropped, so structure boundaries and previously
	// inserted points always keep their positions; points outside the domain
	// interior are dropped as well. The inputs are not modified.
	InsertSnappingPoints(dlMin float64, axis int, coords, maxDl []float64, points []CoordinateOptional) ([]float64, []float64)

	// MakeGridMultipleIntervals fills each interval with grid steps that sum
	// exactly to the interval length, respect the per-interval maximum step
	// and keep the ratio of neighboring steps within maxScale, including
	// across interval boundaries. When isPeriodic, the first and last steps
	// of the whole axis are also kept within maxScale of each other.
	MakeGridMultipleIntervals(maxDl, lens []float64, maxScale float64, isPeriodic bool) [][]float64

	// StructureStep returns the coarse step-size requirement a single
	// structure imposes: the wavelength in the medium divided by
	// minStepsPerWvl for physical structures, and the smallest constrained
	// step for overrides.
	StructureStep(s GridStructure, wavelength, minStepsPerWvl float64) float64
}

// GradedMesher builds nonuniform grids whose steps grow geometrically away
// from fine features, bounded by the max-scale ratio.
type GradedMesher struct{}

var _ Mesher = GradedMesher{}

// StructureStep implements Mesher.
func (GradedMesher) StructureStep(s GridStructure, wavelength, minStepsPerWvl float64) float64 {
	switch st := s.(type) {
	case Structure:
		return wavelength / (minStepsPerWvl * st.Medium.IndexOfRefraction())
	case MeshOverrideStructure:
		return st.minDl()
	}
	return math.Inf(1)
}

// structureStepAxis is the per-axis variant of StructureStep. It returns NaN
// when the structure imposes no constraint along axis.
func structureStepAxis(s GridStructure, axis int, wavelength, minStepsPerWvl float64) float64 {
	switch st := s.(type) {
	case Structure:
		return wavelength / (minStepsPerWvl * st.Medium.IndexOfRefraction())
	case MeshOverrideStructure:
		return st.Dl[axis]
	}
	return math.NaN()
}

// ParseStructures implements Mesher.
func (m GradedMesher) ParseStructures(axis int, structures []GridStructure, wavelength, minStepsPerWvl, dlMin, dlMax float64) ([]float64, []float64, error) {
	if len(structures) == 0 {
		return nil, nil, internalErrorf("mesher received an empty structure list")
	}
	domain := structures[0].structureGeometry()
	if domain == nil {
		return nil, nil, internalErrorf("mesher received a structure with no geometry")
	}
	dmin, dmax := domain.Bounds()
	lo, hi := dmin[axis], dmax[axis]
	if hi < lo {
		return nil, nil, internalErrorf("domain bounds are inverted along axis %d", axis)
	}
	if hi == lo {
		return []float64{lo}, nil, nil
	}

	clampStep := func(step float64) float64 {
		if step > dlMax {
			step = dlMax
		}
		if dlMin > 0 && step < dlMin {
			step = dlMin
		}
		return step
	}

	background := structureStepAxis(structures[0], axis, wavelength, minStepsPerWvl)
	if math.IsNaN(background) {
		background = dlMax
	}

	coords := []float64{lo, hi}
	maxDl := []float64{clampStep(background)}

	// boundaries closer than tol collapse onto each other
	tol := fpEps * math.Max(hi-lo, math.Max(math.Abs(lo), math.Abs(hi)))

	for _, s := range structures[1:] {
		step := structureStepAxis(s, axis, wavelength, minStepsPerWvl)
		if math.IsNaN(step) || math.IsInf(step, 1) {
			continue
		}
		g := s.structureGeometry()
		if g == nil {
			continue
		}
		rmin, rmax := g.Bounds()
		slo := math.Max(rmin[axis], lo)
		shi := math.Min(rmax[axis], hi)
		if slo > shi {
			continue
		}
		step = clampStep(step)

		iLo := insertBound(&coords, &maxDl, slo, tol)
		iHi := insertBound(&coords, &maxDl, shi, tol)

		shadow := true
		if o, ok := s.(MeshOverrideStructure); ok {
			shadow = !o.NoShadow
		}
		for k := iLo; k < iHi; k++ {
			if shadow || step < maxDl[k] {
				maxDl[k] = step
			}
		}
	}
	return coords, maxDl, nil
}

// insertBound returns the index of x among coords, inserting it (and
// splitting the corresponding maxDl interval) unless an existing boundary
// lies within tol.
func insertBound(coords *[]float64, maxDl *[]float64, x, tol float64) int {
	c := *coords
	i := sort.SearchFloat64s(c, x)
	if i < len(c) && c[i]-x <= tol {
		return i
	}
	if i > 0 && x-c[i-1] <= tol {
		return i - 1
	}
	c = append(c, 0)
	copy(c[i+1:], c[i:])
	c[i] = x
	*coords = c

	d := *maxDl
	d = append(d, 0)
	copy(d[i+1:], d[i:])
	d[i] = d[i-1]
	*maxDl = d
	return i
}

// InsertSnappingPoints implements Mesher.
func (m GradedMesher) InsertSnappingPoints(dlMin float64, axis int, coords, maxDl []float64, points []CoordinateOptional) ([]float64, []float64) {
	if len(coords) < 2 {
		return coords, maxDl
	}
	c := append([]float64(nil), coords...)
	d := append([]float64(nil), maxDl...)

	lo, hi := c[0], c[len(c)-1]
	tol := dlMin
	if tol <= 0 {
		tol = fpEps * math.Max(hi-lo, math.Max(math.Abs(lo), math.Abs(hi)))
	}

	for _, p := range points {
		x := p[axis]
		if math.IsNaN(x) || math.IsInf(x, 0) {
			continue
		}
		i := sort.SearchFloat64s(c, x)
		if i == 0 || i == len(c) {
			// outside the domain, or coincident with its lower bound
			continue
		}
		// a point closer than dlMin to either neighboring boundary is
		// absorbed by it; existing boundaries never move
		if x-c[i-1] <= tol || c[i]-x <= tol {
			continue
		}
		c = append(c, 0)
		copy(c[i+1:], c[i:])
		c[i] = x
		d = append(d, 0)
		copy(d[i+1:], d[i:])
		d[i] = d[i-1]
	}
	return c, d
}

// MakeGridMultipleIntervals implements Mesher.
func (m GradedMesher) MakeGridMultipleIntervals(maxDl, lens []float64, maxScale float64, isPeriodic bool) [][]float64 {
	n := len(lens)
	if n == 0 {
		return nil
	}

	// target step size at each interval boundary, limited by the intervals
	// on both sides
	e := make([]float64, n+1)
	e[0] = maxDl[0]
	e[n] = maxDl[n-1]
	for j := 1; j < n; j++ {
		e[j] = math.Min(maxDl[j-1], maxDl[j])
	}
	couple := func() {
		if isPeriodic {
			w := math.Min(e[0], e[n])
			e[0], e[n] = w, w
		}
	}
	couple()

	// Short intervals cannot always realize the boundary targets; lower the
	// targets to maxScale times what each interval actually delivers at its
	// ends, until the targets are consistent.
	for pass := 0; pass < 4; pass++ {
		changed := false
		for i := 0; i < n; i++ {
			steps := makeGridInInterval(math.Min(e[i], maxDl[i]), math.Min(e[i+1], maxDl[i]), maxDl[i], maxScale, lens[i])
			left := steps[0] * maxScale
			right := steps[len(steps)-1] * maxScale
			if left < e[i] {
				e[i] = left
				changed = true
			}
			if right < e[i+1] {
				e[i+1] = right
				changed = true
			}
		}
		couple()
		if !changed {
			break
		}
	}

	out := make([][]float64, n)
	for i := range out {
		out[i] = makeGridInInterval(math.Min(e[i], maxDl[i]), math.Min(e[i+1], maxDl[i]), maxDl[i], maxScale, lens[i])
	}
	return out
}

// makeGridInInterval fills a single interval of length length with steps
// that sum exactly to length, start no larger than left, end no larger than
// right, never exceed dl and keep neighboring step ratios within maxScale.
// The step profile grows geometrically from both ends toward a plateau and,
// for intervals too short to reach the end targets, dips below them
// symmetrically.
func makeGridInInterval(left, right, dl, maxScale, length float64) []float64 {
	a := math.Min(left, dl)
	b := math.Min(right, dl)
	if a <= 0 || b <= 0 || length <= 0 {
		return []float64{length}
	}
	emin := math.Min(a, b)

	// A single cell is preferred while its size stays well within maxScale
	// of both end targets.
	single := math.Min(0.95*maxScale, math.Max(math.Sqrt(maxScale), (1+maxScale)/(maxScale*maxScale)))
	if length <= emin*single {
		return []float64{length}
	}

	// smallest cell count whose fully grown profile covers the interval
	n := int(math.Ceil(length/dl - fpEps))
	if n < 2 {
		n = 2
	}
	const maxCells = 10_000_000
	for ; n <= maxCells; n++ {
		if gradedSum(a, b, dl, maxScale, n, dl) >= length {
			break
		}
	}

	if n == 2 {
		// both steps are end steps; solve directly with the steepest
		// admissible grading
		s0 := math.Min(a, length*maxScale/(1+maxScale))
		s1 := length - s0
		if s1 > b {
			s1 = b
			s0 = length - b
		}
		return []float64{s0, s1}
	}

	p := make([]float64, n)
	if gradedSum(a, b, dl, maxScale, n, 0) >= length {
		// interval too short to keep the ends at their targets; use the
		// steepest dip and scale it down uniformly
		gradedSteps(a, b, dl, maxScale, 0, p)
	} else {
		// bisect the plateau height so the profile sums to length
		hLo, hHi := 0.0, dl
		for iter := 0; iter < 60; iter++ {
			h := (hLo + hHi) / 2
			if gradedSum(a, b, dl, maxScale, n, h) < length {
				hLo = h
			} else {
				hHi = h
			}
		}
		gradedSteps(a, b, dl, maxScale, hHi, p)
	}
	floats.Scale(length/floats.Sum(p), p)
	return p
}

// gradedSteps writes the len(p)-step profile with plateau height h into p.
// Each step is bounded above by geometric growth from the two end targets
// (and by dl) and bounded below by geometric decay from the end targets, so
// the ratio of neighboring steps never exceeds the growth rate r and the two
// end steps land exactly on the targets a and b whenever h allows it.
func gradedSteps(a, b, dl, r, h float64, p []float64) {
	n := len(p)
	low := make([]float64, n)
	up := b
	lo := b
	for i := n - 1; i >= 0; i-- {
		p[i] = up
		low[i] = lo
		up = math.Min(up*r, 1e300)
		lo /= r
	}
	growA := a
	decayA := a
	for i := 0; i < n; i++ {
		u := math.Min(dl, math.Min(p[i], growA))
		l := math.Max(low[i], decayA)
		v := h
		if v < l {
			v = l
		}
		if v > u {
			v = u
		}
		p[i] = v
		growA = math.Min(growA*r, 1e300)
		decayA /= r
	}
}

// gradedSum returns the sum of the profile without keeping it.
func gradedSum(a, b, dl, r float64, n int, h float64) float64 {
	p := make([]float64, n)
	gradedSteps(a, b, dl, r, h, p)
	return floats.Sum(p)
}
