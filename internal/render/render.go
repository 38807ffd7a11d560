// Package render produces static PNG images of recordings: stacked
// time-series strips, topographic electrode layouts, and raw-versus-clean
// channel overlays.
package render

import (
	"fmt"
	"image/color"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/cortical-data/eegview/internal/eeg"
	"github.com/cortical-data/eegview/internal/eeg/layout"
	"github.com/cortical-data/eegview/internal/security"
	"github.com/cortical-data/eegview/internal/units"
)

// maxPointsPerTrace caps how many points one trace contributes to a static
// image after min/max decimation.
const maxPointsPerTrace = 4000

var (
	badTraceColor  = color.RGBA{R: 170, G: 170, B: 170, A: 255}
	headOutlineCol = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	procTraceColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
)

// TimeSeries renders a window of the recording as stacked per-channel
// traces, top channel first. Bad channels are drawn greyed out. Channel
// values are converted to their display unit and mean-centered, then scaled
// so a typical trace fits its slot. A nil channels slice renders every
// channel.
func TimeSeries(rec *eeg.Recording, startSeconds, durationSeconds float64, channels []string, path string) error {
	count := int(durationSeconds * rec.SampleRate)
	if count <= 0 {
		return fmt.Errorf("duration must be positive, got %gs", durationSeconds)
	}

	var picks []int
	if channels != nil {
		var err error
		if picks, err = rec.ResolvePicks(channels); err != nil {
			return err
		}
	}
	w, err := rec.Window(int(startSeconds*rec.SampleRate), count, picks)
	if err != nil {
		return err
	}
	if w.NumSamples() == 0 {
		return fmt.Errorf("window at %gs is outside the recording", startSeconds)
	}

	names := make([]string, len(w.Picks))
	traces := make([][]float64, len(w.Picks))
	for i, p := range w.Picks {
		names[i] = rec.Channels[p].Name
		traces[i] = displayValues(rec.Channels[p].Unit, w.Data[i])
		centerOnMean(traces[i])
	}
	scale := traceScale(traces)

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s: %.1fs to %.1fs", recordingTitle(rec),
		float64(w.Start)/rec.SampleRate, float64(w.Start+w.NumSamples())/rec.SampleRate)
	p.X.Label.Text = "Time (s)"

	nch := len(w.Picks)
	ticks := make([]plot.Tick, nch)
	for i, name := range names {
		ticks[i] = plot.Tick{Value: float64(nch - 1 - i), Label: name}
	}
	p.Y.Tick.Marker = plot.ConstantTicks(ticks)

	colors := generateColors(nch)
	for i, trace := range traces {
		indices, values := eeg.DecimateMinMax(trace, maxPointsPerTrace)
		offset := float64(nch - 1 - i)

		pts := make(plotter.XYs, len(values))
		for j, v := range values {
			pts[j] = plotter.XY{
				X: float64(w.Start+indices[j]) / rec.SampleRate,
				Y: offset + v/(2*scale),
			}
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("trace %s: %w", names[i], err)
		}
		line.Width = vg.Points(1)
		if rec.IsBad(names[i]) {
			line.Color = badTraceColor
		} else {
			line.Color = colors[i]
		}
		p.Add(line)
	}

	p.X.Min = float64(w.Start) / rec.SampleRate
	p.X.Max = float64(w.Start+w.NumSamples()) / rec.SampleRate
	p.Y.Min = -0.75
	p.Y.Max = float64(nch-1) + 0.75

	height := vg.Length(math.Max(4, float64(nch)*0.35)) * vg.Inch
	if err := p.Save(14*vg.Inch, height, path); err != nil {
		return fmt.Errorf("save time series plot: %w", err)
	}
	return nil
}

// Layout renders a topographic electrode map: head outline, nose marker,
// one dot and label per electrode. Electrodes named in bads are drawn red.
func Layout(l *layout.Layout, bads []string, path string) error {
	if l.Len() == 0 {
		return fmt.Errorf("layout has no electrodes")
	}

	badSet := make(map[string]bool, len(bads))
	for _, name := range bads {
		badSet[name] = true
	}

	headR := 0.0
	for _, pt := range l.Points {
		headR = math.Max(headR, math.Hypot(pt.X, pt.Y))
	}
	if headR == 0 {
		headR = 0.1
	}
	headR *= 1.1

	p := plot.New()
	p.Title.Text = "Electrode layout"
	p.HideAxes()

	if err := addHeadOutline(p, headR); err != nil {
		return err
	}

	var good, bad plotter.XYs
	labelXYs := make(plotter.XYs, l.Len())
	labels := make([]string, l.Len())
	for i, pt := range l.Points {
		xy := plotter.XY{X: pt.X, Y: pt.Y}
		if badSet[l.Names[i]] {
			bad = append(bad, xy)
		} else {
			good = append(good, xy)
		}
		labelXYs[i] = plotter.XY{X: pt.X, Y: pt.Y + headR*0.03}
		labels[i] = l.Names[i]
	}

	if len(good) > 0 {
		s, err := plotter.NewScatter(good)
		if err != nil {
			return fmt.Errorf("electrode scatter: %w", err)
		}
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		s.GlyphStyle.Radius = vg.Points(3)
		s.GlyphStyle.Color = procTraceColor
		p.Add(s)
	}
	if len(bad) > 0 {
		s, err := plotter.NewScatter(bad)
		if err != nil {
			return fmt.Errorf("bad electrode scatter: %w", err)
		}
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		s.GlyphStyle.Radius = vg.Points(3)
		s.GlyphStyle.Color = color.RGBA{R: 214, G: 39, B: 40, A: 255}
		p.Add(s)
	}

	lbls, err := plotter.NewLabels(plotter.XYLabels{XYs: labelXYs, Labels: labels})
	if err != nil {
		return fmt.Errorf("electrode labels: %w", err)
	}
	p.Add(lbls)

	p.X.Min, p.X.Max = -headR*1.3, headR*1.3
	p.Y.Min, p.Y.Max = -headR*1.3, headR*1.3

	if err := p.Save(8*vg.Inch, 8*vg.Inch, path); err != nil {
		return fmt.Errorf("save layout plot: %w", err)
	}
	return nil
}

// Comparison renders one channel from two recordings of the same session on
// a shared time axis, the raw trace greyed behind the processed one.
func Comparison(raw, processed *eeg.Recording, channel string, startSeconds, durationSeconds float64, path string) error {
	if raw.SampleRate != processed.SampleRate {
		return fmt.Errorf("sample rates differ: %.3f vs %.3f", raw.SampleRate, processed.SampleRate)
	}
	count := int(durationSeconds * raw.SampleRate)
	if count <= 0 {
		return fmt.Errorf("duration must be positive, got %gs", durationSeconds)
	}

	rawPicks, err := raw.ResolvePicks([]string{channel})
	if err != nil {
		return err
	}
	procPicks, err := processed.ResolvePicks([]string{channel})
	if err != nil {
		return err
	}

	start := int(startSeconds * raw.SampleRate)
	wRaw, err := raw.Window(start, count, rawPicks)
	if err != nil {
		return err
	}
	wProc, err := processed.Window(start, count, procPicks)
	if err != nil {
		return err
	}
	if wRaw.NumSamples() == 0 {
		return fmt.Errorf("window at %gs is outside the recording", startSeconds)
	}

	unit := raw.Channels[rawPicks[0]].Unit

	p := plot.New()
	p.Title.Text = channel
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = fmt.Sprintf("Amplitude (%s)", units.DisplayUnit(unit))

	rawLine, err := traceLine(wRaw, displayValues(unit, wRaw.Data[0]))
	if err != nil {
		return fmt.Errorf("raw trace: %w", err)
	}
	rawLine.Color = badTraceColor
	p.Add(rawLine)
	p.Legend.Add("raw", rawLine)

	procUnit := processed.Channels[procPicks[0]].Unit
	procLine, err := traceLine(wProc, displayValues(procUnit, wProc.Data[0]))
	if err != nil {
		return fmt.Errorf("processed trace: %w", err)
	}
	procLine.Color = procTraceColor
	p.Add(procLine)
	p.Legend.Add("preprocessed", procLine)

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(14*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("save comparison plot: %w", err)
	}
	return nil
}

// traceLine builds a decimated line for one channel window.
func traceLine(w eeg.Window, values []float64) (*plotter.Line, error) {
	indices, decimated := eeg.DecimateMinMax(values, maxPointsPerTrace)
	pts := make(plotter.XYs, len(decimated))
	for i, v := range decimated {
		pts[i] = plotter.XY{X: float64(w.Start+indices[i]) / w.SampleRate, Y: v}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.Width = vg.Points(1)
	return line, nil
}

// addHeadOutline draws the head circle and nose marker.
func addHeadOutline(p *plot.Plot, headR float64) error {
	const segments = 120
	circle := make(plotter.XYs, segments+1)
	for i := 0; i <= segments; i++ {
		a := 2 * math.Pi * float64(i) / segments
		circle[i] = plotter.XY{X: headR * math.Cos(a), Y: headR * math.Sin(a)}
	}
	head, err := plotter.NewLine(circle)
	if err != nil {
		return fmt.Errorf("head outline: %w", err)
	}
	head.Color = headOutlineCol
	head.Width = vg.Points(1.5)
	p.Add(head)

	noseW := headR * 0.10
	yAttach := math.Sqrt(headR*headR - noseW*noseW)
	nose, err := plotter.NewLine(plotter.XYs{
		{X: -noseW, Y: yAttach},
		{X: 0, Y: headR * 1.15},
		{X: noseW, Y: yAttach},
	})
	if err != nil {
		return fmt.Errorf("nose marker: %w", err)
	}
	nose.Color = headOutlineCol
	nose.Width = vg.Points(1.5)
	p.Add(nose)
	return nil
}

// displayValues converts window values from a channel's native unit to its
// display unit.
func displayValues(nativeUnit string, values []float64) []float64 {
	disp := units.DisplayUnit(nativeUnit)
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = units.Convert(v, nativeUnit, disp)
	}
	return out
}

// centerOnMean subtracts the mean in place.
func centerOnMean(values []float64) {
	if len(values) == 0 {
		return
	}
	mean := stat.Mean(values, nil)
	for i := range values {
		values[i] -= mean
	}
}

// traceScale finds a robust amplitude for slot scaling: the 98th percentile
// of absolute deviations across all traces. Flat data falls back to 1 so
// traces still draw.
func traceScale(traces [][]float64) float64 {
	var devs []float64
	for _, trace := range traces {
		for _, v := range trace {
			devs = append(devs, math.Abs(v))
		}
	}
	if len(devs) == 0 {
		return 1
	}
	sort.Float64s(devs)
	s := stat.Quantile(0.98, stat.Empirical, devs, nil)
	if s <= 0 {
		return 1
	}
	return s
}

// recordingTitle picks a display name for plot titles.
func recordingTitle(rec *eeg.Recording) string {
	if rec.Path == "" {
		return "recording"
	}
	return filepath.Base(rec.Path)
}

// FormatTimestamp generates a timestamp string for directory naming.
func FormatTimestamp(t time.Time) string {
	return t.Format("20060102_150405")
}

// MakeOutputDir builds a timestamped output directory path for rendered
// images: <base>/<session_basename>/<timestamp>, or <base>/render_<timestamp>
// when no session file is given. The session basename is sanitized before
// it becomes a path component.
func MakeOutputDir(baseDir, sessionFile string) string {
	ts := FormatTimestamp(time.Now())
	if sessionFile != "" {
		base := filepath.Base(sessionFile)
		name := security.SanitizeFilename(strings.TrimSuffix(base, filepath.Ext(base)))
		return filepath.Join(baseDir, name, ts)
	}
	return filepath.Join(baseDir, "render_"+ts)
}

// generateColors creates a palette of distinct colors for channel traces
func generateColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}

	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		hue := float64(i) / float64(n)
		r, g, b := hslToRGB(hue, 0.65, 0.42)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// hslToRGB converts HSL to RGB (0-255 range)
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var rf, gf, bf float64

	if s == 0 {
		rf, gf, bf = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q
		rf = hueToRGB(p, q, h+1.0/3.0)
		gf = hueToRGB(p, q, h)
		bf = hueToRGB(p, q, h-1.0/3.0)
	}

	return uint8(rf * 255), uint8(gf * 255), uint8(bf * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	if t < 1.0/6.0 {
		return p + (q-p)*6*t
	}
	if t < 1.0/2.0 {
		return q
	}
	if t < 2.0/3.0 {
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}
