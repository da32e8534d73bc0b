package config

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DatabaseURL   string
	RedisAddress  string
	RedisPassword string
	RedisDB       int

	// JWTSecret is the decoded HMAC key, shared by access and refresh
	// tokens. The raw configuration value is base64.
	JWTSecret       []byte
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	HTTPAddress      string
	CookieDomain     string
	AllowedOrigins   []string
	AllowCredentials bool

	PasswordPepper string
	LogLevel       string
}

const minSecretLen = 32

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	for _, key := range []string{
		"DATABASE_URL", "REDIS_ADDRESS", "REDIS_PASSWORD", "REDIS_DB",
		"JWT_SECRET", "ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL",
		"HTTP_ADDRESS", "COOKIE_DOMAIN", "ALLOWED_ORIGINS", "ALLOW_CREDENTIALS",
		"PASSWORD_PEPPER", "LOG_LEVEL",
	} {
		if err := viper.BindEnv(key); err != nil {
			return nil, err
		}
	}

	viper.SetDefault("ACCESS_TOKEN_TTL", "1h")
	viper.SetDefault("REFRESH_TOKEN_TTL", "720h")
	viper.SetDefault("HTTP_ADDRESS", ":8080")
	viper.SetDefault("ALLOW_CREDENTIALS", true)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	for _, key := range []string{"DATABASE_URL", "REDIS_ADDRESS", "JWT_SECRET", "PASSWORD_PEPPER"} {
		if viper.GetString(key) == "" {
			return nil, fmt.Errorf("%s is required", key)
		}
	}

	secret, err := base64.StdEncoding.DecodeString(viper.GetString("JWT_SECRET"))
	if err != nil {
		return nil, fmt.Errorf("JWT_SECRET is not valid base64: %w", err)
	}
	if len(secret) < minSecretLen {
		return nil, fmt.Errorf("JWT_SECRET must decode to at least %d bytes, got %d", minSecretLen, len(secret))
	}

	accessTTL := viper.GetDuration("ACCESS_TOKEN_TTL")
	refreshTTL := viper.GetDuration("REFRESH_TOKEN_TTL")
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, fmt.Errorf("token TTLs must be positive, got access=%v refresh=%v", accessTTL, refreshTTL)
	}

	return &Config{
		DatabaseURL:      viper.GetString("DATABASE_URL"),
		RedisAddress:     viper.GetString("REDIS_ADDRESS"),
		RedisPassword:    viper.GetString("REDIS_PASSWORD"),
		RedisDB:          viper.GetInt("REDIS_DB"),
		JWTSecret:        secret,
		AccessTokenTTL:   accessTTL,
		RefreshTokenTTL:  refreshTTL,
		HTTPAddress:      viper.GetString("HTTP_ADDRESS"),
		CookieDomain:     viper.GetString("COOKIE_DOMAIN"),
		AllowedOrigins:   viper.GetStringSlice("ALLOWED_ORIGINS"),
		AllowCredentials: viper.GetBool("ALLOW_CREDENTIALS"),
		PasswordPepper:   viper.GetString("PASSWORD_PEPPER"),
		LogLevel:         viper.GetString("LOG_LEVEL"),
	}, nil
}
