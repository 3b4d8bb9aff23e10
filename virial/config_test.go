package virial

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	pathname := filepath.Join(t.TempDir(), "run.yaml")
	doc := `
system:
  points: 5
  potential: lennard-jones
  temperature: 1.3
  polarization:
    charge: -1
    alpha: 0.4
    max_order: 3
sampling:
  seed: 42
  production_steps: 2000
bias:
  center: 0.25
`
	require.NoError(t, os.WriteFile(pathname, []byte(doc), 0644))

	cfg, err := LoadConfig(pathname)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.System.Points)
	assert.Equal(t, PotentialLennardJones, cfg.System.Potential)
	assert.Equal(t, 1.3, cfg.System.Temperature)
	require.NotNil(t, cfg.System.Polarization)
	assert.Equal(t, PolarizationConfig{Charge: -1, Alpha: 0.4, MaxOrder: 3}, *cfg.System.Polarization)
	assert.Equal(t, int64(42), cfg.Sampling.Seed)
	assert.Equal(t, int64(2000), cfg.Sampling.ProductionSteps)
	assert.Equal(t, 0.25, cfg.Bias.Center)

	// untouched fields keep their defaults
	def := DefaultConfig()
	assert.Equal(t, def.Sampling.BlockSize, cfg.Sampling.BlockSize)
	assert.Equal(t, def.Bias.Windows, cfg.Bias.Windows)

	buf, err := cfg.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(buf), "lennard-jones")
	assert.Contains(t, string(buf), "max_order: 3")

	// no polarization section leaves the target pairwise additive
	def = DefaultConfig()
	buf, err = def.Marshal()
	require.NoError(t, err)
	assert.NotContains(t, string(buf), "polarization")
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name  string
		edit  func(cfg *Config)
		cause error
	}{
		{"too few points", func(cfg *Config) { cfg.System.Points = 1 }, ErrBadPointCount},
		{"too many points", func(cfg *Config) { cfg.System.Points = MaxPoints + 1 }, ErrBadPointCount},
		{"ree-hoover order", func(cfg *Config) { cfg.System.Points = 8 }, ErrBadReeHooverOrder},
		{"zero temperature", func(cfg *Config) { cfg.System.Temperature = 0 }, ErrBadConfig},
		{"unknown potential", func(cfg *Config) { cfg.System.Potential = "yukawa" }, ErrBadConfig},
		{"narrow well", func(cfg *Config) { cfg.System.Potential = PotentialSquareWell; cfg.System.Lambda = 1 }, ErrBadConfig},
		{"zero block", func(cfg *Config) { cfg.Sampling.BlockSize = 0 }, ErrBadConfig},
		{"bad bias", func(cfg *Config) { cfg.Bias.Center = 0 }, ErrBadBias},
		{"no windows", func(cfg *Config) { cfg.Bias.Windows = 0 }, ErrBadConfig},
		{"unpolarizable", func(cfg *Config) { cfg.System.Polarization = &PolarizationConfig{Charge: 1} }, ErrBadConfig},
		{"uncharged", func(cfg *Config) { cfg.System.Polarization = &PolarizationConfig{Alpha: 1} }, ErrBadConfig},
		{"pair order", func(cfg *Config) {
			cfg.System.Polarization = &PolarizationConfig{Charge: 1, Alpha: 1, MaxOrder: 2}
		}, ErrBadConfig},
		{"polarizable", func(cfg *Config) {
			cfg.System.Polarization = &PolarizationConfig{Charge: 1, Alpha: 1, MaxOrder: 3}
		}, nil},
	}
	for _, tc := range cases {
		cfg := DefaultConfig()
		tc.edit(&cfg)
		err := cfg.Validate()
		if errors.Cause(err) != tc.cause {
			t.Fatalf("%s: got %v, want %v", tc.name, err, tc.cause)
		}
	}
}

func TestCatalogContextClose(t *testing.T) {
	ctx := NewCatalogContext()
	kept := &testCloser{ctx: ctx}
	gone := &testCloser{ctx: ctx}
	failing := &testCloser{ctx: ctx, err: errors.New("flush failed")}
	require.NoError(t, ctx.AttachCatalog(kept))
	require.NoError(t, ctx.AttachCatalog(gone))
	require.NoError(t, ctx.AttachCatalog(failing))
	require.NoError(t, gone.Close())

	ctx.Close()
	<-ctx.Done()
	assert.Equal(t, 1, kept.closes)
	assert.Equal(t, 1, gone.closes)
	assert.Equal(t, 1, failing.closes)

	late := &testCloser{ctx: ctx}
	assert.Equal(t, ErrCatalogClosed, errors.Cause(ctx.AttachCatalog(late)))
	ctx.Close()
	assert.Equal(t, 0, late.closes)
}

type testCloser struct {
	ctx    CatalogContext
	err    error
	closes int
}

func (c *testCloser) Close() error {
	c.closes++
	c.ctx.DetachCatalog(c)
	return c.err
}
