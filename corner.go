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

	"github.com/ctessum/geom"
)

// Medium filter values for corner detection.
const (
	// CornerMediumAll considers every structure.
	CornerMediumAll = "all"
	// CornerMediumMetal considers only conductive or negative-permittivity
	// structures.
	CornerMediumMetal = "metal"
	// CornerMediumDielectric considers only non-metallic structures.
	CornerMediumDielectric = "dielectric"
)

// defaultCornerAngle is the minimal turning angle at a polygon vertex for it
// to count as a corner.
const defaultCornerAngle = 0.1 * math.Pi

// CornerFinderSpec detects geometry corners on a 2D cross section. Detected
// corners drive grid snapping and local refinement in layered structures.
//
// The zero value considers all media, uses the default angle threshold and
// applies no distance-based deduplication.
type CornerFinderSpec struct {
	// MediumFilter restricts detection to structures of a material class:
	// CornerMediumAll (the default), CornerMediumMetal or
	// CornerMediumDielectric.
	MediumFilter string
	// AngleThreshold is the minimal turning angle (radians) at a polygon
	// vertex for the vertex to count as a corner; nearly collinear vertices
	// are skipped. Zero selects the default of 0.1*pi.
	AngleThreshold float64
	// DistanceThreshold merges corners closer to each other than this
	// distance, keeping the first. Zero disables merging.
	DistanceThreshold float64
}

func (c CornerFinderSpec) angleThreshold() float64 {
	if c.AngleThreshold == 0 {
		return defaultCornerAngle
	}
	return c.AngleThreshold
}

func (c CornerFinderSpec) matchesMedium(m Medium) bool {
	metal := m.Conductivity > 0 || m.Permittivity < 0
	switch c.MediumFilter {
	case CornerMediumMetal:
		return metal
	case CornerMediumDielectric:
		return !metal
	}
	return true
}

// Corners returns the in-plane corner points of the structures' cross
// sections on the plane normal to axis at the given position. Point X and Y
// map to the two remaining axes in ascending order.
func (c CornerFinderSpec) Corners(axis int, position float64, structures []Structure) []geom.Point {
	var corners []geom.Point
	for _, s := range structures {
		if s.Geometry == nil || !c.matchesMedium(s.Medium) {
			continue
		}
		for _, poly := range s.Geometry.CrossSection(axis, position) {
			for _, ring := range poly {
				corners = append(corners, c.ringCorners(ring)...)
			}
		}
	}
	if c.DistanceThreshold > 0 {
		corners = dedupePoints(corners, c.DistanceThreshold)
	}
	return corners
}

// ringCorners returns the vertices of a polygon ring whose turning angle
// exceeds the threshold.
func (c CornerFinderSpec) ringCorners(ring []geom.Point) []geom.Point {
	// rings may be closed by repeating the first point
	if len(ring) > 1 && ring[0] == ring[len(ring)-1] {
		ring = ring[:len(ring)-1]
	}
	n := len(ring)
	if n < 3 {
		return nil
	}
	threshold := c.angleThreshold()
	var out []geom.Point
	for i := 0; i < n; i++ {
		prev := ring[(i+n-1)%n]
		cur := ring[i]
		next := ring[(i+1)%n]
		if turningAngle(prev, cur, next) >= threshold {
			out = append(out, cur)
		}
	}
	return out
}

// turningAngle returns the absolute direction change at cur, in [0, pi].
// Degenerate (zero-length) edges yield zero so duplicate vertices are never
// corners.
func turningAngle(prev, cur, next geom.Point) float64 {
	ux, uy := cur.X-prev.X, cur.Y-prev.Y
	vx, vy := next.X-cur.X, next.Y-cur.Y
	nu := math.Hypot(ux, uy)
	nv := math.Hypot(vx, vy)
	if nu == 0 || nv == 0 {
		return 0
	}
	cos := (ux*vx + uy*vy) / (nu * nv)
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos)
}

func dedupePoints(points []geom.Point, minDist float64) []geom.Point {
	var kept []geom.Point
	for _, p := range points {
		tooClose := false
		for _, q := range kept {
			if math.Hypot(p.X-q.X, p.Y-q.Y) < minDist {
				tooClose = true
				break
			}
		}
		if !tooClose {
			kept = append(kept, p)
		}
	}
	return kept
}
