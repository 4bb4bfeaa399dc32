package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
}

type App struct {
	Name string
	Env  string // development / production
	HTTP HTTP
}

type Log struct {
	Level      string
	JSON       bool
	File       string // 非空时同时写入文件并按大小切割
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int // 默认 15
	RefreshTokenTTLHr int // 默认 168（7 天）
	VerifyTokenTTLHr  int // 默认 24
	ResetTokenTTLMin  int // 默认 60（密码重置为随机令牌，非 JWT）
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DB struct {
	Driver             string
	DSN                string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	ConnectRetries     int // 初连指数退避重试次数
	AutoMigrate        bool
	LogLevel           string
}

type Email struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type Storage struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

type Frontend struct {
	URL string // 验证/重置链接的落地页
}

type Config struct {
	App      App
	Log      Log
	JWT      JWT
	DB       DB
	Redis    Redis `mapstructure:"redis"`
	Email    Email
	Storage  Storage
	Frontend Frontend
}

func Load(path string) *Config {
	v := viper.New()
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("jwt.accesstokenttlmin", 15)
	v.SetDefault("jwt.refreshtokenttlhr", 168)
	v.SetDefault("jwt.verifytokenttlhr", 24)
	v.SetDefault("jwt.resettokenttlmin", 60)
	v.SetDefault("db.connectretries", 5)

	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("read config: %v", err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		log.Fatalf("unmarshal config: %v", err)
	}
	return &c
}

func (c *Config) IsProduction() bool { return c.App.Env == "production" }
