package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config 是服务与训练任务共享的配置结构（YAML）。
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Training TrainingConfig `yaml:"training"`
	Serving  ServingConfig  `yaml:"serving"`
}

// ServerConfig HTTP 服务配置。
type ServerConfig struct {
	Addr string `yaml:"addr"` // 默认 ":8080"
}

// StoreConfig 产物存储配置。
type StoreConfig struct {
	Backend string `yaml:"backend"` // memory / redis，默认 memory
	Addr    string `yaml:"addr"`    // redis 地址，默认 "127.0.0.1:6379"
	DB      int    `yaml:"db"`
	Prefix  string `yaml:"prefix"` // 产物 key 前缀，默认 "crossell"
}

// TrainingConfig 训练超参数。
type TrainingConfig struct {
	MaxComponents int     `yaml:"max_components"` // 默认 500
	DecayLambda   float64 `yaml:"decay_lambda"`   // 默认 0.001
	RandomFill    bool    `yaml:"random_fill"`    // 缺失单元格随机 0/1 填充（复刻开关）
	Seed          int64   `yaml:"seed"`
}

// ServingConfig 在线服务参数。
type ServingConfig struct {
	DefaultN              int     `yaml:"default_n"`                // 默认 5
	DefaultMaxPerCategory int     `yaml:"default_max_per_category"` // 默认 2
	BaseWeight            float64 `yaml:"base_weight"`              // 默认 0.7
	PopularityWeight      float64 `yaml:"popularity_weight"`        // 默认 0.3
	Rule                  string  `yaml:"rule"`                     // 可选 CEL 橱窗规则
}

// Default 返回带默认值的配置。
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load 从 YAML 文件加载配置，缺省字段回填默认值。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "memory"
	}
	if c.Store.Addr == "" {
		c.Store.Addr = "127.0.0.1:6379"
	}
	if c.Store.Prefix == "" {
		c.Store.Prefix = "crossell"
	}
	if c.Training.MaxComponents == 0 {
		c.Training.MaxComponents = 500
	}
	if c.Training.DecayLambda == 0 {
		c.Training.DecayLambda = 0.001
	}
	if c.Serving.DefaultN == 0 {
		c.Serving.DefaultN = 5
	}
	if c.Serving.DefaultMaxPerCategory == 0 {
		c.Serving.DefaultMaxPerCategory = 2
	}
	if c.Serving.BaseWeight == 0 && c.Serving.PopularityWeight == 0 {
		c.Serving.BaseWeight = 0.7
		c.Serving.PopularityWeight = 0.3
	}
}
