// Package config loads kernel, device and logging settings from flags,
// SOFTMAX1X1_* environment variables and an optional config file.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/born-ml/kernels/internal/compute"
	"github.com/born-ml/kernels/internal/ops/softmax"
	"github.com/born-ml/kernels/internal/tensor"
)

type Config struct {
	Kernel   KernelConfig `mapstructure:"kernel"`
	Device   DeviceConfig `mapstructure:"device"`
	LogLevel string       `mapstructure:"log_level"`
}

type KernelConfig struct {
	Precision    string `mapstructure:"precision"`
	BatchSupport bool   `mapstructure:"batch_support"`
	Storage      string `mapstructure:"storage"`
	DataType     string `mapstructure:"data_type"`
}

type DeviceConfig struct {
	Backend  string `mapstructure:"backend"`
	Workers  int    `mapstructure:"workers"`
	MaxBatch int    `mapstructure:"max_batch"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		Kernel: KernelConfig{
			Precision:    "f32",
			BatchSupport: true,
			Storage:      "buffer",
			DataType:     "float32",
		},
		Device: DeviceConfig{
			Backend:  BackendCPU,
			Workers:  0,
			MaxBatch: 0,
		},
		LogLevel: "info",
	}
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("kernel-precision", defaults.Kernel.Precision, "Kernel arithmetic precision (f32|f16|f32_f16)")
	fs.Bool("kernel-batch-support", defaults.Kernel.BatchSupport, "Generate the batched kernel variant")
	fs.String("kernel-storage", defaults.Kernel.Storage, "Tensor storage (buffer|texture_2d|texture_array)")
	fs.String("kernel-data-type", defaults.Kernel.DataType, "Tensor element type (float32|float16)")
	fs.String("device-backend", defaults.Device.Backend, "Device to run on (cpu|webgpu)")
	fs.Int("device-workers", defaults.Device.Workers, "Max concurrent work-groups on the cpu device (0 = NumCPU)")
	fs.Int("device-max-batch", defaults.Device.MaxBatch, "Dispatches batched before submitting on the webgpu device (0 = submit on read)")
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	v.SetEnvPrefix("SOFTMAX1X1")
	replacer := strings.NewReplacer("-", "_", ".", "_", "__", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("softmax1x1")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	backend, err := NormalizeBackend(cfg.Device.Backend)
	if err != nil {
		return Config{}, err
	}
	cfg.Device.Backend = backend

	return cfg, nil
}

// OperationDef converts the kernel section into an operation definition.
// Source and destination share one descriptor.
func (c Config) OperationDef() (softmax.OperationDef, error) {
	precision, err := compute.ParsePrecision(c.Kernel.Precision)
	if err != nil {
		return softmax.OperationDef{}, err
	}
	storage, err := tensor.ParseStorageType(c.Kernel.Storage)
	if err != nil {
		return softmax.OperationDef{}, err
	}
	dt, err := tensor.ParseDataType(c.Kernel.DataType)
	if err != nil {
		return softmax.OperationDef{}, err
	}
	desc := tensor.Descriptor{DataType: dt, Storage: storage}
	return softmax.OperationDef{
		Src:          desc,
		Dst:          desc,
		Precision:    precision,
		BatchSupport: c.Kernel.BatchSupport,
	}, nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("kernel.precision", c.Kernel.Precision)
	v.SetDefault("kernel.batch_support", c.Kernel.BatchSupport)
	v.SetDefault("kernel.storage", c.Kernel.Storage)
	v.SetDefault("kernel.data_type", c.Kernel.DataType)
	v.SetDefault("device.backend", c.Device.Backend)
	v.SetDefault("device.workers", c.Device.Workers)
	v.SetDefault("device.max_batch", c.Device.MaxBatch)
	v.SetDefault("log_level", c.LogLevel)
}

// flagKeys maps config keys to the flags registered by RegisterFlags.
var flagKeys = map[string]string{
	"kernel.precision":     "kernel-precision",
	"kernel.batch_support": "kernel-batch-support",
	"kernel.storage":       "kernel-storage",
	"kernel.data_type":     "kernel-data-type",
	"device.backend":       "device-backend",
	"device.workers":       "device-workers",
	"device.max_batch":     "device-max-batch",
	"log_level":            "log-level",
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for key, name := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}
