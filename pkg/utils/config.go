package utils

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Payment  PaymentConfig
	Notify   NotifyConfig
	Sweep    SweepConfig
	Redis    RedisConfig
}

type AppConfig struct {
	Name           string
	Port           string
	Debug          bool
	LogPath        string
	ServiceRoleKey string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host        string
	Port        string
	Name        string
	User        string
	Password    string
	MaxConns    int32
	AutoMigrate bool
}

type PaymentConfig struct {
	KeySecret string
	AllowSkip bool
}

type NotifyConfig struct {
	Driver             string
	ServiceAccountJSON string
	FCMBaseURL         string
	Timeout            time.Duration
	RabbitURL          string
	Exchange           string
}

type SweepConfig struct {
	Interval time.Duration
	MaxAge   time.Duration
	LockTTL  time.Duration
}

type RedisConfig struct {
	URL string
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("APP_NAME", "hall-booking")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("DB_AUTO_MIGRATE", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("PAYMENT_ALLOW_SKIP", false)
	viper.SetDefault("NOTIFY_DRIVER", "fcm")
	viper.SetDefault("FCM_BASE_URL", "https://fcm.googleapis.com")
	viper.SetDefault("NOTIFY_TIMEOUT", "10s")
	viper.SetDefault("NOTIFY_EXCHANGE", "notification.exchange")
	viper.SetDefault("SWEEP_INTERVAL", "5m")
	viper.SetDefault("SWEEP_MAX_AGE", "10m")
	viper.SetDefault("SWEEP_LOCK_TTL", "2m")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	// .env is optional, deployments inject the environment directly
	if _, err := os.Stat(".env"); err == nil {
		if err := viper.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:           viper.GetString("APP_NAME"),
			Port:           viper.GetString("PORT"),
			Debug:          viper.GetBool("DEBUG"),
			LogPath:        viper.GetString("LOG_PATH"),
			ServiceRoleKey: viper.GetString("SERVICE_ROLE_KEY"),
			AllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:        viper.GetString("DB_HOST"),
			Port:        viper.GetString("DB_PORT"),
			Name:        viper.GetString("DB_NAME"),
			User:        viper.GetString("DB_USER"),
			Password:    viper.GetString("DB_PASS"),
			MaxConns:    viper.GetInt32("DB_MAX_CONNS"),
			AutoMigrate: viper.GetBool("DB_AUTO_MIGRATE"),
		},
		Payment: PaymentConfig{
			KeySecret: viper.GetString("RAZORPAY_KEY_SECRET"),
			AllowSkip: viper.GetBool("PAYMENT_ALLOW_SKIP"),
		},
		Notify: NotifyConfig{
			Driver:             viper.GetString("NOTIFY_DRIVER"),
			ServiceAccountJSON: viper.GetString("FIREBASE_SERVICE_ACCOUNT_KEY"),
			FCMBaseURL:         viper.GetString("FCM_BASE_URL"),
			Timeout:            viper.GetDuration("NOTIFY_TIMEOUT"),
			RabbitURL:          viper.GetString("RABBIT_URL"),
			Exchange:           viper.GetString("NOTIFY_EXCHANGE"),
		},
		Sweep: SweepConfig{
			Interval: viper.GetDuration("SWEEP_INTERVAL"),
			MaxAge:   viper.GetDuration("SWEEP_MAX_AGE"),
			LockTTL:  viper.GetDuration("SWEEP_LOCK_TTL"),
		},
		Redis: RedisConfig{
			URL: viper.GetString("REDIS_URL"),
		},
	}

	return config, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
