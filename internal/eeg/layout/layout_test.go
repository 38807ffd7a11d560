package layout

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cortical-data/eegview/internal/eeg"
	"github.com/cortical-data/eegview/internal/eeg/montage"
)

// spherePoint places a point on a sphere at the given center, using the
// same angle convention as the montage catalogs.
func spherePoint(center [3]float64, radius, thetaDeg, phiDeg float64) [3]float64 {
	theta := thetaDeg * math.Pi / 180
	phi := phiDeg * math.Pi / 180
	return [3]float64{
		center[0] + radius*math.Sin(theta)*math.Cos(phi),
		center[1] + radius*math.Sin(theta)*math.Sin(phi),
		center[2] + radius*math.Cos(theta),
	}
}

// createOffsetRecording builds a recording whose electrode sphere is not
// centered at the head-frame origin, plus one positionless channel.
func createOffsetRecording(t *testing.T) *eeg.Recording {
	t.Helper()

	center := [3]float64{0.012, -0.006, 0.031}
	angles := []struct{ theta, phi float64 }{
		{0, 0},
		{36, 0}, {36, 90}, {36, 180}, {36, 270},
		{72, 0}, {72, 60}, {72, 120}, {72, 180}, {72, 240}, {72, 300},
	}

	channels := make([]eeg.Channel, 0, len(angles)+1)
	for i, a := range angles {
		channels = append(channels, eeg.Channel{
			Name:        fmt.Sprintf("EEG %03d", i+1),
			Kind:        eeg.KindEEG,
			Unit:        "uV",
			HasPosition: true,
			Position:    spherePoint(center, 0.095, a.theta, a.phi),
			Calibration: 1.0,
		})
	}
	channels = append(channels, eeg.Channel{
		Name: "STI 014",
		Kind: eeg.KindStim,
		Unit: "raw",
	})

	data := make([][]float32, len(channels))
	for i := range data {
		data[i] = []float32{0}
	}
	rec, err := eeg.NewPreloaded(channels, 250.0, data)
	require.NoError(t, err)
	return rec
}

func TestFitSphereCenter(t *testing.T) {
	center := [3]float64{0.01, -0.02, 0.04}
	var positions [][3]float64
	for _, a := range []struct{ theta, phi float64 }{
		{0, 0}, {45, 0}, {45, 90}, {45, 180}, {45, 270}, {90, 45}, {90, 225},
	} {
		positions = append(positions, spherePoint(center, 0.09, a.theta, a.phi))
	}

	got := fitSphereCenter(positions)
	for i := 0; i < 3; i++ {
		assert.InDelta(t, center[i], got[i], 1e-9, "center component %d", i)
	}
}

func TestFitSphereCenterTooFewPoints(t *testing.T) {
	got := fitSphereCenter([][3]float64{{0, 0, 0.09}, {0.09, 0, 0}, {0, 0.09, 0}})
	assert.Equal(t, [3]float64{}, got, "should fall back to the origin")
}

func TestFromRecording(t *testing.T) {
	rec := createOffsetRecording(t)
	l, err := FromRecording(rec)
	require.NoError(t, err)

	// Positionless stim channel is skipped.
	assert.Equal(t, rec.NumChannels()-1, l.Len())

	// The vertex electrode projects to the plane origin even though its
	// sphere is offset from the head frame.
	assert.InDelta(t, 0, l.Points[0].X, 1e-6)
	assert.InDelta(t, 0, l.Points[0].Y, 1e-6)

	// All electrodes on the same ring land at the same planar distance.
	wantArc := 0.095 * 72 * math.Pi / 180
	for i := 5; i < 11; i++ {
		r := math.Hypot(l.Points[i].X, l.Points[i].Y)
		assert.InDelta(t, wantArc, r, 1e-6, "planar radius of %s", l.Names[i])
	}
}

func TestFromRecordingDeterministic(t *testing.T) {
	rec := createOffsetRecording(t)

	first, err := FromRecording(rec)
	require.NoError(t, err)
	second, err := FromRecording(rec)
	require.NoError(t, err)

	assert.Equal(t, first, second, "repeated derivation should be stable")
}

func TestFromRecordingNoPositions(t *testing.T) {
	channels := []eeg.Channel{
		{Name: "EEG 001", Kind: eeg.KindEEG, Unit: "uV"},
		{Name: "EEG 002", Kind: eeg.KindEEG, Unit: "uV"},
	}
	data := [][]float32{{0}, {0}}
	rec, err := eeg.NewPreloaded(channels, 250.0, data)
	require.NoError(t, err)

	_, err = FromRecording(rec)
	var unavailErr *eeg.LayoutUnavailableError
	require.ErrorAs(t, err, &unavailErr)
}

func TestFromMontage(t *testing.T) {
	m, err := montage.Load("standard_1020")
	require.NoError(t, err)

	l := FromMontage(m)
	require.Equal(t, m.Len(), l.Len())

	byName := make(map[string]Point, l.Len())
	for i, name := range l.Names {
		byName[name] = l.Points[i]
	}

	cz := byName["Cz"]
	assert.InDelta(t, 0, cz.X, 1e-9, "Cz should project to the origin")
	assert.InDelta(t, 0, cz.Y, 1e-9, "Cz should project to the origin")
	assert.Greater(t, byName["Fz"].Y, 0.0, "Fz should be frontal")
	assert.Less(t, byName["Oz"].Y, 0.0, "Oz should be occipital")
	assert.Less(t, byName["T7"].X, 0.0, "T7 should be on the left")
	assert.Greater(t, byName["T8"].X, 0.0, "T8 should be on the right")
}

func TestBounds(t *testing.T) {
	l := &Layout{
		Names:  []string{"a", "b", "c"},
		Points: []Point{{X: -0.1, Y: 0.05}, {X: 0.08, Y: -0.12}, {X: 0.0, Y: 0.02}},
	}
	minX, minY, maxX, maxY := l.Bounds()
	assert.Equal(t, -0.1, minX)
	assert.Equal(t, -0.12, minY)
	assert.Equal(t, 0.08, maxX)
	assert.Equal(t, 0.05, maxY)

	empty := &Layout{}
	minX, minY, maxX, maxY = empty.Bounds()
	assert.Zero(t, minX)
	assert.Zero(t, minY)
	assert.Zero(t, maxX)
	assert.Zero(t, maxY)
}
