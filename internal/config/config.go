package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Services ServicesConfig `yaml:"services"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Log      LogConfig      `yaml:"log"`

	// KeywordsFile 意图识别词表文件路径
	KeywordsFile string `yaml:"keywordsFile"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port int    `yaml:"port"`
	Name string `yaml:"name"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ServicesConfig 四诊远程服务地址配置
type ServicesConfig struct {
	Inquiry   string `yaml:"inquiry"`   // 问诊服务
	Look      string `yaml:"look"`      // 望诊服务
	Listen    string `yaml:"listen"`    // 闻诊服务
	Palpation string `yaml:"palpation"` // 切诊服务
}

// DispatchConfig 调度配置
type DispatchConfig struct {
	// SessionStore 会话存储后端: memory 或 redis
	SessionStore string `yaml:"sessionStore"`
	// RequestTimeoutSeconds 单次调度的总超时（秒）
	RequestTimeoutSeconds int `yaml:"requestTimeoutSeconds"`
	// ModalityTimeoutSeconds 单个诊法远程调用超时（秒）
	ModalityTimeoutSeconds int `yaml:"modalityTimeoutSeconds"`
	// SessionTTLHours Redis 会话过期时间（小时），0 表示不过期
	SessionTTLHours int `yaml:"sessionTTLHours"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// RequestTimeout 调度总超时
func (c DispatchConfig) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// ModalityTimeout 单诊法调用超时
func (c DispatchConfig) ModalityTimeout() time.Duration {
	if c.ModalityTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.ModalityTimeoutSeconds) * time.Second
}

// SessionTTL 会话过期时间
func (c DispatchConfig) SessionTTL() time.Duration {
	if c.SessionTTLHours <= 0 {
		return 0
	}
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// LoadConfig 加载配置文件
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	return &cfg, nil
}
