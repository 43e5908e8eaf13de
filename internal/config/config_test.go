package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/kernels/internal/compute"
	"github.com/born-ml/kernels/internal/tensor"
)

// fakeBinder wraps a pflag.FlagSet to satisfy the flagBinder interface.
type fakeBinder struct {
	fs *pflag.FlagSet
}

func (f *fakeBinder) Flags() *pflag.FlagSet { return f.fs }

func newFlagBinder(t *testing.T, defaults Config, args ...string) *fakeBinder {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, defaults)
	require.NoError(t, fs.Parse(args))
	return &fakeBinder{fs: fs}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "f32", cfg.Kernel.Precision)
	assert.True(t, cfg.Kernel.BatchSupport)
	assert.Equal(t, "buffer", cfg.Kernel.Storage)
	assert.Equal(t, "float32", cfg.Kernel.DataType)
	assert.Equal(t, BackendCPU, cfg.Device.Backend)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestNormalizeBackend(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", BackendCPU, false},
		{"CPU", BackendCPU, false},
		{" host ", BackendCPU, false},
		{"webgpu", BackendWebGPU, false},
		{"gpu", BackendWebGPU, false},
		{"cuda", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeBackend(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestRegisterFlags(t *testing.T) {
	defaults := DefaultConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, defaults)

	for key, name := range flagKeys {
		assert.NotNil(t, fs.Lookup(name), "flag for %s", key)
	}
	assert.Equal(t, "f32", fs.Lookup("kernel-precision").DefValue)
	assert.Equal(t, "true", fs.Lookup("kernel-batch-support").DefValue)
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	defaults := DefaultConfig()
	cfg, err := Load(LoadOptions{Cmd: newFlagBinder(t, defaults), Defaults: defaults})
	require.NoError(t, err)
	assert.Equal(t, defaults, cfg)
}

func TestLoad_FlagOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	defaults := DefaultConfig()
	binder := newFlagBinder(t, defaults,
		"--kernel-precision=f16",
		"--kernel-batch-support=false",
		"--kernel-data-type=float16",
		"--device-workers=3",
		"--device-max-batch=4",
		"--log-level=debug",
	)
	cfg, err := Load(LoadOptions{Cmd: binder, Defaults: defaults})
	require.NoError(t, err)
	assert.Equal(t, "f16", cfg.Kernel.Precision)
	assert.False(t, cfg.Kernel.BatchSupport)
	assert.Equal(t, "float16", cfg.Kernel.DataType)
	assert.Equal(t, 3, cfg.Device.Workers)
	assert.Equal(t, 4, cfg.Device.MaxBatch)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SOFTMAX1X1_LOG_LEVEL", "warn")
	t.Setenv("SOFTMAX1X1_KERNEL_STORAGE", "texture_array")
	t.Setenv("SOFTMAX1X1_DEVICE_BACKEND", "gpu")

	defaults := DefaultConfig()
	cfg, err := Load(LoadOptions{Cmd: newFlagBinder(t, defaults), Defaults: defaults})
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "texture_array", cfg.Kernel.Storage)
	assert.Equal(t, BackendWebGPU, cfg.Device.Backend)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "softmax1x1.yaml")
	content := `
log_level: error
kernel:
  precision: f32_f16
  data_type: float16
device:
  workers: 2
`
	require.NoError(t, os.WriteFile(cfgFile, []byte(content), 0o644))

	defaults := DefaultConfig()
	cfg, err := Load(LoadOptions{Cmd: newFlagBinder(t, defaults), ConfigFile: cfgFile, Defaults: defaults})
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, "f32_f16", cfg.Kernel.Precision)
	assert.Equal(t, "float16", cfg.Kernel.DataType)
	assert.Equal(t, 2, cfg.Device.Workers)
	assert.True(t, cfg.Kernel.BatchSupport)
}

func TestLoad_FlagBeatsConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "softmax1x1.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("log_level: error\n"), 0o644))

	defaults := DefaultConfig()
	cfg, err := Load(LoadOptions{
		Cmd:        newFlagBinder(t, defaults, "--log-level=debug"),
		ConfigFile: cfgFile,
		Defaults:   defaults,
	})
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_InvalidConfigFile(t *testing.T) {
	cfgFile := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(":\t:bad yaml:::"), 0o644))

	_, err := Load(LoadOptions{ConfigFile: cfgFile, Defaults: DefaultConfig()})
	assert.Error(t, err)
}

func TestLoad_MissingExplicitConfigFile(t *testing.T) {
	_, err := Load(LoadOptions{ConfigFile: "/nonexistent/path/softmax1x1.yaml", Defaults: DefaultConfig()})
	assert.Error(t, err)
}

func TestLoad_InvalidBackend(t *testing.T) {
	t.Chdir(t.TempDir())
	defaults := DefaultConfig()
	_, err := Load(LoadOptions{Cmd: newFlagBinder(t, defaults, "--device-backend=cuda"), Defaults: defaults})
	assert.ErrorContains(t, err, "invalid backend")
}

func TestLoad_NilCmd(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load(LoadOptions{Defaults: DefaultConfig()})
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestConfig_OperationDef(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Kernel.Precision = "f32_f16"
	cfg.Kernel.Storage = "texture_2d"
	cfg.Kernel.DataType = "float16"
	cfg.Kernel.BatchSupport = false

	def, err := cfg.OperationDef()
	require.NoError(t, err)
	want := tensor.Descriptor{DataType: tensor.Float16, Storage: tensor.Texture2D}
	assert.Equal(t, want, def.Src)
	assert.Equal(t, want, def.Dst)
	assert.Equal(t, compute.F32F16, def.Precision)
	assert.False(t, def.BatchSupport)

	for _, bad := range []func(c *Config){
		func(c *Config) { c.Kernel.Precision = "f64" },
		func(c *Config) { c.Kernel.Storage = "image" },
		func(c *Config) { c.Kernel.DataType = "int8" },
	} {
		c := DefaultConfig()
		bad(&c)
		_, err := c.OperationDef()
		assert.Error(t, err)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.in)
	}

	lvl, err := ParseLogLevel("loud")
	assert.Error(t, err)
	assert.Equal(t, slog.LevelInfo, lvl)
}
