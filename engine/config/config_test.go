package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeKeepsDefaultsForMissingFields(t *testing.T) {
	cfg, err := Decode(strings.NewReader(`
[shadow]
cascades = 3

[bloom]
enabled = false
`))
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, 3, cfg.Shadow.Cascades)
	assert.False(t, cfg.Bloom.Enabled)
	assert.Equal(t, def.Shadow.Resolution, cfg.Shadow.Resolution)
	assert.Equal(t, def.HDR.Exposure, cfg.HDR.Exposure)
	assert.True(t, cfg.Skybox.ShowIrradiance)
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	_, err := Decode(strings.NewReader("[shadow]\ncascade_count = 2\n"))
	assert.Error(t, err)
}

func TestDecodeRejectsZeroCascades(t *testing.T) {
	_, err := Decode(strings.NewReader("[shadow]\ncascades = 0\n"))
	assert.ErrorContains(t, err, "shadow.cascades")
}

func TestValidateMSAASamples(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 4, cfg.Forward.MSAASamples)

	cfg.Forward.MSAASamples = 1
	assert.NoError(t, cfg.Validate())

	cfg.Forward.MSAASamples = 8
	assert.ErrorContains(t, cfg.Validate(), "forward.msaa_samples")
}

func TestLoadRoundTripsEncodedConfig(t *testing.T) {
	cfg := Default()
	cfg.Forward.ShowShadowCascades = true
	cfg.Renderer.Workers = 4

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, cfg))

	path := filepath.Join(t.TempDir(), "oxy.toml")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
