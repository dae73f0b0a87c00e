package config

import (
	"errors"
	"time"
)

// Config 应用配置根结构
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Mongo   MongoConfig   `mapstructure:"mongo"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Storage StorageConfig `mapstructure:"storage"`
	TTS     TTSConfig     `mapstructure:"tts"`
	Studio  StudioConfig  `mapstructure:"studio"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// LogConfig 日志配置 (Zerolog)
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	TimeFormat string `mapstructure:"time_format"`
}

// MongoConfig MongoDB 配置
type MongoConfig struct {
	URI         string `mapstructure:"uri"`
	Database    string `mapstructure:"database"`
	MaxPoolSize uint64 `mapstructure:"max_pool_size"`
	MinPoolSize uint64 `mapstructure:"min_pool_size"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// StorageConfig 存储配置
type StorageConfig struct {
	Type  string       `mapstructure:"type"` // local, oss
	Local *LocalConfig `mapstructure:"local,omitempty"`
	OSS   *OSSConfig   `mapstructure:"oss,omitempty"`
}

// LocalConfig 本地文件系统配置
type LocalConfig struct {
	BasePath      string `mapstructure:"base_path"`      // 基础路径
	BaseURL       string `mapstructure:"base_url"`       // 基础URL（用于生成访问URL）
	PresignExpiry int    `mapstructure:"presign_expiry"` // 预签名URL过期时间（秒）
}

// OSSConfig 阿里云OSS配置
type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	PresignExpiry   int    `mapstructure:"presign_expiry"` // 预签名URL过期时间（秒）
}

// TTSConfig 外部语音合成服务配置
type TTSConfig struct {
	APIURL      string `mapstructure:"api_url"`      // API 地址
	AccessToken string `mapstructure:"access_token"` // 访问令牌（必需）
	AppID       string `mapstructure:"app_id"`       // 应用ID（可选）
	Cluster     string `mapstructure:"cluster"`      // 集群名称
	Encoding    string `mapstructure:"encoding"`     // 返回编码：mp3 / pcm
	SampleRate  int    `mapstructure:"sample_rate"`  // 采样率
}

// StudioConfig 配音工作台配置
type StudioConfig struct {
	Engine     string        `mapstructure:"engine"`      // 音色池引擎：bytedance / openai
	BatchSize  int           `mapstructure:"batch_size"`  // 合成批大小（2-4）
	Speed      float64       `mapstructure:"speed"`       // 默认语速比例
	ToneHints  bool          `mapstructure:"tone_hints"`  // 引擎是否支持行内语气提示
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`   // 合成结果缓存过期时间
	SFXPrefix  string        `mapstructure:"sfx_prefix"`  // 音效资产在存储中的前缀
	OutputPath string        `mapstructure:"output_path"` // 混音产物在存储中的前缀
}

// Validate 验证配置有效性
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("invalid server port")
	}

	validModes := map[string]bool{"debug": true, "release": true, "test": true}
	if !validModes[c.Server.Mode] {
		return errors.New("invalid server mode, must be debug/release/test")
	}

	if c.Studio.BatchSize != 0 && (c.Studio.BatchSize < 2 || c.Studio.BatchSize > 4) {
		return errors.New("studio batch_size must be between 2 and 4")
	}

	return nil
}
