package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ViewerConfig represents the display tuning for the session viewer. All
// fields are optional; the Get* methods provide fallback defaults for any
// fields not specified in the JSON, so partial configs are safe.
type ViewerConfig struct {
	// Time-series window params
	WindowSeconds    *float64 `json:"window_seconds,omitempty"`
	ChannelsPerPage  *int     `json:"channels_per_page,omitempty"`
	AmplitudeScaleUV *float64 `json:"amplitude_scale_uv,omitempty"`
	DecimationTarget *int     `json:"decimation_target,omitempty"`

	// Page params
	AssetsHost *string `json:"assets_host,omitempty"`
	PageTitle  *string `json:"page_title,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyViewerConfig returns a ViewerConfig with all fields set to nil.
// Use LoadViewerConfig to load actual values from a file.
func EmptyViewerConfig() *ViewerConfig {
	return &ViewerConfig{}
}

// LoadViewerConfig loads a ViewerConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
func LoadViewerConfig(path string) (*ViewerConfig, error) {
	// Validate the config file path.
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyViewerConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *ViewerConfig) Validate() error {
	if c.WindowSeconds != nil {
		if *c.WindowSeconds <= 0 || *c.WindowSeconds > 3600 {
			return fmt.Errorf("window_seconds must be between 0 and 3600, got %f", *c.WindowSeconds)
		}
	}

	if c.ChannelsPerPage != nil {
		if *c.ChannelsPerPage < 1 {
			return fmt.Errorf("channels_per_page must be at least 1, got %d", *c.ChannelsPerPage)
		}
	}

	if c.AmplitudeScaleUV != nil {
		if *c.AmplitudeScaleUV <= 0 {
			return fmt.Errorf("amplitude_scale_uv must be positive, got %f", *c.AmplitudeScaleUV)
		}
	}

	if c.DecimationTarget != nil {
		if *c.DecimationTarget < 16 {
			return fmt.Errorf("decimation_target must be at least 16, got %d", *c.DecimationTarget)
		}
	}

	return nil
}

// GetWindowSeconds returns the window_seconds value or the default.
func (c *ViewerConfig) GetWindowSeconds() float64 {
	if c.WindowSeconds == nil {
		return 10.0 // default
	}
	return *c.WindowSeconds
}

// GetChannelsPerPage returns the channels_per_page value or the default.
func (c *ViewerConfig) GetChannelsPerPage() int {
	if c.ChannelsPerPage == nil {
		return 20 // default
	}
	return *c.ChannelsPerPage
}

// GetAmplitudeScaleUV returns the amplitude_scale_uv value or the default.
func (c *ViewerConfig) GetAmplitudeScaleUV() float64 {
	if c.AmplitudeScaleUV == nil {
		return 100.0 // default: full trace slot spans +-100 microvolts
	}
	return *c.AmplitudeScaleUV
}

// GetDecimationTarget returns the decimation_target value or the default.
func (c *ViewerConfig) GetDecimationTarget() int {
	if c.DecimationTarget == nil {
		return 2000 // default: points per trace after min/max decimation
	}
	return *c.DecimationTarget
}

// GetAssetsHost returns the assets_host value or the default.
func (c *ViewerConfig) GetAssetsHost() string {
	if c.AssetsHost == nil || *c.AssetsHost == "" {
		return "https://go-echarts.github.io/go-echarts-assets/assets/" // default
	}
	return *c.AssetsHost
}

// GetPageTitle returns the page_title value or the default.
func (c *ViewerConfig) GetPageTitle() string {
	if c.PageTitle == nil || *c.PageTitle == "" {
		return "EEG Session Viewer" // default
	}
	return *c.PageTitle
}
