package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Index   IndexConfig   `yaml:"index"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Addr    string `yaml:"addr"`     // HTTP Listen Address (e.g. :8080)
	TCPAddr string `yaml:"tcp_addr"` // TCP Listen Address (e.g. :9090)
}

type StorageConfig struct {
	Path            string `yaml:"path"`
	WriteBufferSize int    `yaml:"write_buffer_size"`
	BatchSize       int    `yaml:"batch_size"`
}

type IndexConfig struct {
	// PrecisionStep is the bit distance between trie levels of new fields.
	PrecisionStep uint `yaml:"precision_step"`
	BTreeDegree   int  `yaml:"btree_degree"`
}

type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	JSON  bool   `yaml:"json"`
}

const DefaultPrecisionStep = 4

func Load(configPath string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Addr:    ":8080",
			TCPAddr: ":9090",
		},
		Storage: StorageConfig{
			Path:            "triedb_data",
			WriteBufferSize: 5000,
			BatchSize:       500,
		},
		Index: IndexConfig{
			PrecisionStep: DefaultPrecisionStep,
			BTreeDegree:   32,
		},
		Log: LogConfig{
			Level: "info",
		},
	}

	if configPath == "" {
		for _, p := range []string{"configs/triedb.yaml", "triedb.yaml"} {
			data, err := os.ReadFile(p)
			if err == nil {
				if err := yaml.Unmarshal(data, cfg); err != nil {
					return cfg, err
				}
				ApplyDefaults(cfg)
				return cfg, nil
			}
		}
		ApplyDefaults(cfg)
		return cfg, nil // no file found: use defaults
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, err
	}

	ApplyDefaults(cfg)
	return cfg, nil
}

// ApplyDefaults replaces zero or out of range settings with their defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "triedb_data"
	}
	if cfg.Storage.WriteBufferSize <= 0 {
		cfg.Storage.WriteBufferSize = 5000
	}
	if cfg.Storage.BatchSize <= 0 {
		cfg.Storage.BatchSize = 500
	}
	if cfg.Index.PrecisionStep == 0 || cfg.Index.PrecisionStep > 64 {
		cfg.Index.PrecisionStep = DefaultPrecisionStep
	}
	if cfg.Index.BTreeDegree < 2 {
		cfg.Index.BTreeDegree = 32
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}
