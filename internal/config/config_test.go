package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sphconv-ml/sphconv/internal/config"
)

func validConfig() *config.Config {
	return &config.Config{
		NTI:            1,
		NTE:            1,
		Degrees:        []int{2, 2},
		Shells:         []int{3, 5},
		HeadInputSize:  10,
		HeadOutputSize: 7,
		LearningRate:   1e-3,
	}
}

func TestValidate_AcceptsValid(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"zero n_ti", func(c *config.Config) { c.NTI = 0 }},
		{"length mismatch", func(c *config.Config) { c.Shells = []int{3} }},
		{"too few stages", func(c *config.Config) { c.Degrees = []int{2}; c.Shells = []int{3} }},
		{"odd degree", func(c *config.Config) { c.Degrees = []int{2, 3} }},
		{"negative degree", func(c *config.Config) { c.Degrees = []int{2, -2} }},
		{"zero shell", func(c *config.Config) { c.Shells = []int{3, 0} }},
		{"zero head input", func(c *config.Config) { c.HeadInputSize = 0 }},
		{"negative learning rate", func(c *config.Config) { c.LearningRate = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestStages(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, 1, cfg.Stages())

	cfg.Degrees = []int{2, 2, 2}
	cfg.Shells = []int{3, 4, 5}
	assert.Equal(t, 2, cfg.Stages())
}

func TestLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sphconv.yaml")
	yaml := `
n_ti: 2
n_te: 3
degrees: [2, 2]
shells: [3, 5]
head_input_size: 120
head_output_size: 45
learning_rate: 0.0005
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.NTI)
	assert.Equal(t, 3, cfg.NTE)
	assert.Equal(t, []int{2, 2}, cfg.Degrees)
	assert.Equal(t, []int{3, 5}, cfg.Shells)
	assert.Equal(t, 120, cfg.HeadInputSize)
	assert.Equal(t, 45, cfg.HeadOutputSize)
	assert.Equal(t, 0.0005, cfg.LearningRate)
}

func TestLoad_DefaultsApplied(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sphconv.yaml")
	yaml := `
degrees: [2, 2]
shells: [3, 5]
head_input_size: 10
head_output_size: 7
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.NTI)
	assert.Equal(t, 1e-3, cfg.LearningRate)
}

func TestLoad_InvalidFileFails(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("degrees: {not: a list}"), 0o644))
	_, err = config.Load(path)
	assert.Error(t, err)
}
