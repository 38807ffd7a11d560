// Package layout flattens 3-D electrode positions into the 2-D coordinates
// used for topographic display. Positions are assumed to lie near a sphere;
// the sphere center is fitted by linear least squares and each electrode is
// projected with an azimuthal equidistant projection from the vertex, so
// angular distance from the top of the head maps to planar distance.
package layout

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/cortical-data/eegview/internal/eeg"
	"github.com/cortical-data/eegview/internal/eeg/montage"
)

// Point is a projected 2-D electrode position in meters. +X is toward the
// right ear, +Y toward the nasion.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Layout maps channel names to projected positions, index-aligned.
type Layout struct {
	Names  []string `json:"names"`
	Points []Point  `json:"points"`
}

// FromRecording derives a layout from the recording channels that carry a
// position. Channels without one are skipped; if no channel has a position
// the derivation fails with a LayoutUnavailableError.
func FromRecording(rec *eeg.Recording) (*Layout, error) {
	names := make([]string, 0, len(rec.Channels))
	positions := make([][3]float64, 0, len(rec.Channels))
	for _, ch := range rec.Channels {
		if !ch.HasPosition {
			continue
		}
		names = append(names, ch.Name)
		positions = append(positions, ch.Position)
	}
	if len(names) == 0 {
		return nil, &eeg.LayoutUnavailableError{Reason: "no channels with position information"}
	}
	return project(names, positions), nil
}

// FromMontage derives a layout from a bundled montage catalog.
func FromMontage(m *montage.Montage) *Layout {
	electrodes := m.Electrodes()
	names := make([]string, len(electrodes))
	positions := make([][3]float64, len(electrodes))
	for i, e := range electrodes {
		names[i] = e.Name
		positions[i] = e.Position
	}
	return project(names, positions)
}

// Len returns the number of positioned channels.
func (l *Layout) Len() int { return len(l.Names) }

// Bounds returns the bounding box of the projected points.
func (l *Layout) Bounds() (minX, minY, maxX, maxY float64) {
	if len(l.Points) == 0 {
		return 0, 0, 0, 0
	}
	minX, minY = l.Points[0].X, l.Points[0].Y
	maxX, maxY = minX, minY
	for _, p := range l.Points[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return minX, minY, maxX, maxY
}

// project maps 3-D positions to the plane.
func project(names []string, positions [][3]float64) *Layout {
	center := fitSphereCenter(positions)

	// Shift to sphere-centered coordinates and find the mean radius.
	shifted := make([][3]float64, len(positions))
	meanRadius := 0.0
	for i, p := range positions {
		v := [3]float64{p[0] - center[0], p[1] - center[1], p[2] - center[2]}
		shifted[i] = v
		meanRadius += math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	}
	meanRadius /= float64(len(positions))

	points := make([]Point, len(shifted))
	for i, v := range shifted {
		r := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
		if r < 1e-12 {
			continue // degenerate position at the sphere center projects to the vertex
		}
		// Inclination from the vertex and azimuth in the horizontal plane.
		cosTheta := v[2] / r
		if cosTheta > 1 {
			cosTheta = 1
		} else if cosTheta < -1 {
			cosTheta = -1
		}
		theta := math.Acos(cosTheta)
		phi := math.Atan2(v[1], v[0])

		// Equidistant: planar distance equals arc length from the vertex.
		arc := meanRadius * theta
		points[i] = Point{X: arc * math.Cos(phi), Y: arc * math.Sin(phi)}
	}

	return &Layout{Names: names, Points: points}
}

// fitSphereCenter fits a sphere center to the positions by linear least
// squares. Expanding |p - c|^2 = r^2 gives one linear equation per point in
// the unknowns (cx, cy, cz, r^2-|c|^2). Fewer than four points, or a
// degenerate arrangement, falls back to the head-frame origin.
func fitSphereCenter(positions [][3]float64) [3]float64 {
	if len(positions) < 4 {
		return [3]float64{}
	}

	a := mat.NewDense(len(positions), 4, nil)
	b := mat.NewVecDense(len(positions), nil)
	for i, p := range positions {
		a.SetRow(i, []float64{2 * p[0], 2 * p[1], 2 * p[2], 1})
		b.SetVec(i, p[0]*p[0]+p[1]*p[1]+p[2]*p[2])
	}

	var qr mat.QR
	qr.Factorize(a)
	var sol mat.VecDense
	if err := qr.SolveVecTo(&sol, false, b); err != nil {
		return [3]float64{}
	}
	return [3]float64{sol.AtVec(0), sol.AtVec(1), sol.AtVec(2)}
}
