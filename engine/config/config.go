// Package config holds the engine's tunables and loads them from TOML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// MaxCascades is the largest cascade count the forward shader can index.
const MaxCascades = 8

// Config is the root of the engine configuration file.
type Config struct {
	Window   WindowConfig   `toml:"window"`
	Shadow   ShadowConfig   `toml:"shadow"`
	Forward  ForwardConfig  `toml:"forward"`
	Skybox   SkyboxConfig   `toml:"skybox"`
	Bloom    BloomConfig    `toml:"bloom"`
	HDR      HDRConfig      `toml:"hdr"`
	Shaders  ShaderConfig   `toml:"shaders"`
	Renderer RendererConfig `toml:"renderer"`
	LogLevel string         `toml:"log_level"`
}

// WindowConfig describes the application window.
type WindowConfig struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	VSync  bool   `toml:"vsync"`
}

// ShadowConfig tunes the directional cascades and point light cube maps.
type ShadowConfig struct {
	Cascades            int     `toml:"cascades"`
	Resolution          uint32  `toml:"resolution"`
	SplitLambda         float32 `toml:"split_lambda"`
	ZMultiplier         float32 `toml:"z_multiplier"`
	PointLightShadowRes uint32  `toml:"point_light_shadow_resolution"`
}

// ForwardConfig tunes the lighting pass.
type ForwardConfig struct {
	ShowShadowCascades bool    `toml:"show_shadow_cascades"`
	SmoothShadows      bool    `toml:"smooth_shadows"`
	ShadowBiasMin      float32 `toml:"shadow_bias_min"`
	LightSize          float32 `toml:"light_size"`
	DepthPrepass       bool    `toml:"depth_prepass"`
	// MSAASamples is 1 (off) or 4, the sample counts every WebGPU adapter supports.
	MSAASamples int `toml:"msaa_samples"`
}

// SkyboxConfig tunes the skybox pass.
type SkyboxConfig struct {
	ShowIrradiance bool `toml:"show_irradiance"`
}

// BloomConfig tunes the bloom compute chain.
type BloomConfig struct {
	Enabled   bool    `toml:"enabled"`
	Threshold float32 `toml:"threshold"`
	Knee      float32 `toml:"knee"`
}

// HDRConfig tunes the tonemap pass.
type HDRConfig struct {
	Exposure       float32 `toml:"exposure"`
	BloomIntensity float32 `toml:"bloom_intensity"`
}

// ShaderConfig points the shader loader at an on-disk directory. An empty Dir uses the embedded shaders.
type ShaderConfig struct {
	Dir       string `toml:"dir"`
	HotReload bool   `toml:"hot_reload"`
}

// RendererConfig holds scene renderer options.
type RendererConfig struct {
	// Workers enables parallel shadow matrix preparation when greater than one.
	Workers int `toml:"workers"`
}

// Default returns the configuration used when no file is supplied.
//
// Returns:
//   - Config: the default configuration
func Default() Config {
	return Config{
		Window: WindowConfig{
			Title:  "oxy-cascade",
			Width:  1280,
			Height: 720,
			VSync:  true,
		},
		Shadow: ShadowConfig{
			Cascades:            4,
			Resolution:          2048,
			SplitLambda:         0.75,
			ZMultiplier:         10,
			PointLightShadowRes: 512,
		},
		Forward: ForwardConfig{
			SmoothShadows: true,
			ShadowBiasMin: 0.0005,
			LightSize:     0.2,
			DepthPrepass:  true,
			MSAASamples:   4,
		},
		Skybox: SkyboxConfig{
			ShowIrradiance: true,
		},
		Bloom: BloomConfig{
			Enabled:   true,
			Threshold: 1.0,
			Knee:      0.1,
		},
		HDR: HDRConfig{
			Exposure:       0.01,
			BloomIntensity: 1.0,
		},
		LogLevel: "info",
	}
}

// Decode reads TOML from r on top of the defaults, so missing fields keep their default values.
//
// Parameters:
//   - r: reader holding the TOML document
//
// Returns:
//   - Config: the decoded configuration
//   - error: a decode error or a validation error
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("config: %s", strict.String())
		}
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and decodes the TOML file at path.
//
// Parameters:
//   - path: the configuration file path
//
// Returns:
//   - Config: the decoded configuration
//   - error: a file, decode or validation error
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return Decode(bytes.NewReader(data))
}

// Encode writes cfg as TOML to w.
func Encode(w io.Writer, cfg Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}

// Validate checks the ranges the renderer relies on.
func (c Config) Validate() error {
	switch {
	case c.Shadow.Cascades < 1 || c.Shadow.Cascades > MaxCascades:
		return fmt.Errorf("config: shadow.cascades must be in [1, %d], got %d", MaxCascades, c.Shadow.Cascades)
	case c.Shadow.Resolution == 0:
		return fmt.Errorf("config: shadow.resolution must be positive")
	case c.Shadow.PointLightShadowRes == 0:
		return fmt.Errorf("config: shadow.point_light_shadow_resolution must be positive")
	case c.Shadow.SplitLambda < 0 || c.Shadow.SplitLambda > 1:
		return fmt.Errorf("config: shadow.split_lambda must be in [0, 1], got %v", c.Shadow.SplitLambda)
	case c.Shadow.ZMultiplier < 1:
		return fmt.Errorf("config: shadow.z_multiplier must be at least 1, got %v", c.Shadow.ZMultiplier)
	case c.Forward.MSAASamples != 1 && c.Forward.MSAASamples != 4:
		return fmt.Errorf("config: forward.msaa_samples must be 1 or 4, got %d", c.Forward.MSAASamples)
	case c.Bloom.Knee <= 0:
		return fmt.Errorf("config: bloom.knee must be positive")
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return fmt.Errorf("config: window size must be positive")
	}
	return nil
}
