package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env      string        `yaml:"env" env-default:"local"`
	DSN      string        `yaml:"dsn" env:"DSN" env-required:"true"`
	TokenTTL time.Duration `yaml:"token_ttl" env-default:"15m"`
	HTTP     HTTPConfig    `yaml:"http"`
	S3       S3Config      `yaml:"s3"`
	Redis    RedisConf     `yaml:"redis"`
	Admin    AdminConfig   `yaml:"admin"`
	Upload   UploadConfig  `yaml:"upload"`
}

type HTTPConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port" env-default:"8080"`
}

type S3Config struct {
	Endpoint        string `yaml:"endpoint" env:"S3_ENDPOINT"`
	Region          string `yaml:"region" env-default:"auto"`
	Bucket          string `yaml:"bucket" env:"S3_BUCKET"`
	AccessKeyID     string `yaml:"access_key_id" env:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" env:"S3_SECRET_ACCESS_KEY"`
	// PublicHost is prepended to object keys to build retrieval URLs,
	// e.g. "https://img.example.com/".
	PublicHost string `yaml:"public_host" env:"S3_PUBLIC_HOST"`
}

type RedisConf struct {
	RedisAddr     string `yaml:"redis_addr" env-default:"localhost:6379"`
	RedisPassword string `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db"`
}

type AdminConfig struct {
	Username      string `yaml:"username" env:"ADMIN_USERNAME" env-default:"admin"`
	PasswordHash  string `yaml:"password_hash" env:"ADMIN_PASSWORD_HASH" env-required:"true"`
	JWTSecret     string `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	SessionSecret string `yaml:"session_secret" env:"SESSION_SECRET" env-required:"true"`
}

type UploadConfig struct {
	MaxSize int64 `yaml:"max_size" env-default:"10485760"`
}

func MustLoad() *Config {
	path := fetchConfigPath()
	if path == "" {
		panic("config path is empty")
	}

	return MustLoadPath(path)
}

func MustLoadPath(configPath string) *Config {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("cannot read config: " + err.Error())
	}

	return &cfg
}

func fetchConfigPath() string {
	var res string

	// --config="path/to/config.yaml"
	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
