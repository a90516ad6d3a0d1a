package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Kling    KlingConfig    `mapstructure:"kling"`
	Database DatabaseConfig `mapstructure:"database"`
	History  HistoryConfig  `mapstructure:"history"`
}

type ServerConfig struct {
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`      // json 或 text
	Output     string `mapstructure:"output"`      // stdout 或 file
	MaxSize    int    `mapstructure:"max_size"`    // 兆字节
	MaxBackups int    `mapstructure:"max_backups"` // 备份数量
	MaxAge     int    `mapstructure:"max_age"`     // 天数
	Compress   bool   `mapstructure:"compress"`    // 是否压缩旧文件
}

type JWTConfig struct {
	Secret     string `mapstructure:"secret"`      // JWT 密钥
	ExpireTime int    `mapstructure:"expire_time"` // 过期时间（小时）
	Issuer     string `mapstructure:"issuer"`      // 签发者
}

// KlingConfig 可灵 API 配置，api_key 只在启动时读取一次
type KlingConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	Model          string        `mapstructure:"model"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`   // 轮询间隔
	WaitTimeout    time.Duration `mapstructure:"wait_timeout"`    // 0 表示一直等待
	RequestTimeout time.Duration `mapstructure:"request_timeout"` // 单次请求超时
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// HistoryConfig 生成记录配置
type HistoryConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	RetentionDays int    `mapstructure:"retention_days"` // 保留天数
	CleanupSpec   string `mapstructure:"cleanup_spec"`   // cron 表达式
}

func Load() *Config {
	SetDefaults(viper.GetViper())

	// 读取配置
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("未找到配置文件，使用默认配置")
		} else {
			log.Fatalf("读取配置文件出错: %v", err)
		}
	}

	config, err := Unmarshal(viper.GetViper())
	if err != nil {
		log.Fatalf("%v", err)
	}

	return config
}

// Unmarshal 从 viper 实例解码并校验配置
func Unmarshal(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("无法解码配置: %w", err)
	}

	config.Kling.APIKey = strings.TrimSpace(config.Kling.APIKey)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}

	return &config, nil
}

// SetDefaults 设置默认配置，同时让这些键可以被环境变量覆盖
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.username", "admin")
	v.SetDefault("server.password", "")

	// 日志默认配置
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
	v.SetDefault("log.compress", true)

	// JWT默认配置
	v.SetDefault("jwt.secret", "your-secret-key-change-in-production")
	v.SetDefault("jwt.expire_time", 24) // 24小时
	v.SetDefault("jwt.issuer", "kling-studio")

	// 可灵默认配置
	v.SetDefault("kling.api_key", "")
	v.SetDefault("kling.base_url", "https://api.klingai.com")
	v.SetDefault("kling.model", "kling-v1")
	v.SetDefault("kling.poll_interval", "8s")
	v.SetDefault("kling.wait_timeout", "0s")
	v.SetDefault("kling.request_timeout", "30s")

	v.SetDefault("database.path", "data/kling-studio.db")

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.retention_days", 30)
	v.SetDefault("history.cleanup_spec", "@daily")
}

// validateConfig 验证配置的有效性，API 密钥缺失不在这里报错，由每次生成请求报告
func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("服务器端口未设置")
	}
	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT密钥未设置")
	}
	if config.Kling.PollInterval <= 0 {
		return fmt.Errorf("轮询间隔必须大于0")
	}
	if config.Kling.WaitTimeout < 0 {
		return fmt.Errorf("等待超时不能为负数")
	}
	if config.History.Enabled && config.History.RetentionDays <= 0 {
		return fmt.Errorf("记录保留天数必须大于0")
	}
	return nil
}
