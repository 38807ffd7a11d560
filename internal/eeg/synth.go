// This file provides synthetic recording generation for demos and tests.

package eeg

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/cortical-data/eegview/internal/units"
)

// Generator produces synthetic EEG-like recordings. The signal is a slowly
// waxing alpha rhythm over a theta background with drift, mains hum, and
// Gaussian noise, phase-shifted per channel. Deterministic for a given seed.
type Generator struct {
	// Configuration
	NumChannels int     // channels named "EEG 001", "EEG 002", ...
	SampleRate  float64 // Hz
	AmplitudeUV float64 // alpha rhythm amplitude, microvolts
	NoiseUV     float64 // additive noise sigma, microvolts
	MainsHz     float64 // mains hum frequency, 0 disables

	rng *rand.Rand
}

// NewGenerator creates a generator with demonstration defaults.
func NewGenerator(seed int64) *Generator {
	return &Generator{
		NumChannels: 70,
		SampleRate:  600.614, // matches the acquisition hardware this mimics
		AmplitudeUV: 40.0,
		NoiseUV:     6.0,
		MainsHz:     60.0,
		rng:         rand.New(rand.NewSource(seed)),
	}
}

// Recording generates a preloaded recording with nSamples per channel.
func (g *Generator) Recording(nSamples int) (*Recording, error) {
	if g.NumChannels <= 0 {
		return nil, fmt.Errorf("channel count must be positive, got %d", g.NumChannels)
	}
	if nSamples <= 0 {
		return nil, fmt.Errorf("sample count must be positive, got %d", nSamples)
	}

	channels := make([]Channel, g.NumChannels)
	for i := range channels {
		channels[i] = Channel{
			Name:        fmt.Sprintf("EEG %03d", i+1),
			Kind:        KindEEG,
			Unit:        units.MicroVolts,
			Calibration: 1.0,
		}
	}

	data := make([][]float32, g.NumChannels)
	for i := range data {
		alphaPhase := g.rng.Float64() * 2 * math.Pi
		envPhase := g.rng.Float64() * 2 * math.Pi
		driftPhase := g.rng.Float64() * 2 * math.Pi
		thetaAmp := 0.3 * g.AmplitudeUV * (0.5 + g.rng.Float64())

		row := make([]float32, nSamples)
		for s := 0; s < nSamples; s++ {
			t := float64(s) / g.SampleRate

			// Alpha bursts: 10.2 Hz carrier under a slow envelope
			env := 0.5 * (1 + math.Sin(2*math.Pi*0.23*t+envPhase))
			v := g.AmplitudeUV * env * math.Sin(2*math.Pi*10.2*t+alphaPhase)

			// Theta background and slow electrode drift
			v += thetaAmp * math.Sin(2*math.Pi*4.7*t+alphaPhase/2)
			v += 5.0 * math.Sin(2*math.Pi*0.05*t+driftPhase)

			if g.MainsHz > 0 {
				v += 1.5 * math.Sin(2*math.Pi*g.MainsHz*t)
			}
			v += g.rng.NormFloat64() * g.NoiseUV

			row[s] = float32(v)
		}
		data[i] = row
	}

	rec, err := NewPreloaded(channels, g.SampleRate, data)
	if err != nil {
		return nil, err
	}
	rec.ID = uuid.New()
	rec.StartTime = time.Now()
	return rec, nil
}
