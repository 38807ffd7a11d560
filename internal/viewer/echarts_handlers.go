package viewer

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/cortical-data/eegview/internal/httputil"
)

const badChannelColor = "#9e9e9e"

// handleWindowChart renders a stacked multi-channel trace snapshot for one
// window using the same prepared data the JSON endpoint serves.
func (ws *WebServer) handleWindowChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	rec, source, err := ws.selectRecording(r)
	if err != nil {
		httputil.NotFound(w, err.Error())
		return
	}

	start := 0.0
	if s := r.URL.Query().Get("start"); s != "" {
		if parsed, err := strconv.ParseFloat(s, 64); err == nil && parsed >= 0 {
			start = parsed
		}
	}
	dur := ws.config.GetWindowSeconds()
	if d := r.URL.Query().Get("dur"); d != "" {
		if parsed, err := strconv.ParseFloat(d, 64); err == nil && parsed > 0 && parsed <= 3600 {
			dur = parsed
		}
	}
	page := 0
	if p := r.URL.Query().Get("page"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil && parsed >= 0 {
			page = parsed
		}
	}

	data, err := PrepareWindowData(rec, source, start, dur,
		page, ws.config.GetChannelsPerPage(), ws.config.GetDecimationTarget())
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to extract window: %v", err))
		return
	}

	// Stack traces top to bottom with a fixed vertical spacing in display
	// units so every channel stays in its own lane.
	spacing := 2 * ws.config.GetAmplitudeScaleUV()
	top := float64(len(data.Traces)) * spacing

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: ws.config.GetPageTitle(), Theme: "dark", Width: "1400px", Height: "900px", AssetsHost: ws.config.GetAssetsHost()}),
		charts.WithTitleOpts(opts.Title{Title: "EEG Traces", Subtitle: fmt.Sprintf("source=%s start=%.1fs dur=%.1fs page=%d/%d scale=%.0fuV", data.Source, data.StartSeconds, data.DurationSeconds, data.Page+1, data.NumPages, ws.config.GetAmplitudeScaleUV())}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Min: data.StartSeconds, Max: data.StartSeconds + data.DurationSeconds, Name: "Time (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Min: -spacing, Max: top, Name: "Channel lanes", NameLocation: "middle", NameGap: 30}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Type: "scroll"}),
	)

	for i, trace := range data.Traces {
		offset := float64(len(data.Traces)-1-i) * spacing
		series := make([]opts.LineData, len(trace.Times))
		for j := range trace.Times {
			series[j] = opts.LineData{Value: []interface{}{trace.Times[j], offset + trace.Values[j]}}
		}

		seriesOpts := []charts.SeriesOpts{
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
		}
		if trace.Bad {
			seriesOpts = append(seriesOpts, charts.WithItemStyleOpts(opts.ItemStyle{Color: badChannelColor}))
		}
		line.AddSeries(trace.Name, series, seriesOpts...)
	}

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleLayoutChart renders the 2-D sensor layout as a square scatter chart
// with bad channels in a separate muted series.
func (ws *WebServer) handleLayoutChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	data, ok := ws.resolveLayout(w, r)
	if !ok {
		return
	}

	good := make([]opts.ScatterData, 0, len(data.Points))
	bad := make([]opts.ScatterData, 0)
	for _, p := range data.Points {
		sd := opts.ScatterData{Name: p.Name, Value: []interface{}{p.X, p.Y}}
		if p.Bad {
			bad = append(bad, sd)
		} else {
			good = append(good, sd)
		}
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: ws.config.GetPageTitle(), Theme: "dark", Width: "900px", Height: "900px", AssetsHost: ws.config.GetAssetsHost()}),
		charts.WithTitleOpts(opts.Title{Title: "Sensor Layout", Subtitle: fmt.Sprintf("source=%s points=%d bads=%d", data.Source, data.NumPoints, len(bad))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -data.MaxAbs, Max: data.MaxAbs, Name: "X (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -data.MaxAbs, Max: data.MaxAbs, Name: "Y (m)", NameLocation: "middle", NameGap: 30}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	scatter.AddSeries("sensors", good,
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 10}),
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top", Formatter: "{b}"}),
	)
	if len(bad) > 0 {
		scatter.AddSeries("bad", bad,
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 10}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: badChannelColor}),
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top", Formatter: "{b}"}),
		)
	}

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
