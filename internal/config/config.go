package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	DB       DBConfig
	Auth     AuthConfig
	Realtime RealtimeConfig
}

type ServerConfig struct {
	Address string
}

type DBConfig struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     int
}

// AuthConfig 控制 JWT 簽章
type AuthConfig struct {
	Secret   string
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

// RealtimeConfig 對應即時層的調校參數，零值沿用即時層預設
type RealtimeConfig struct {
	MaxTurns       int           `mapstructure:"max_turns"`
	SendQueueSize  int           `mapstructure:"send_queue_size"`
	ReadLimit      int64         `mapstructure:"read_limit"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	PongTimeout    time.Duration `mapstructure:"pong_timeout"`
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	IdleRoomTTL    time.Duration `mapstructure:"idle_room_ttl"`
	ReaperInterval time.Duration `mapstructure:"reaper_interval"`
}

// Load 讀取設定檔並套用預設值
// 找不到設定檔不算錯誤，此時整份設定就是預設值
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./configs")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.address", ":8080")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.user", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.name", "debate_live")
	viper.SetDefault("db.port", 5432)

	viper.SetDefault("auth.secret", "change_me_in_production")
	viper.SetDefault("auth.token_ttl", "240h")

	viper.SetDefault("realtime.max_turns", 3)
	viper.SetDefault("realtime.send_queue_size", 256)
	viper.SetDefault("realtime.read_limit", 4096)
	viper.SetDefault("realtime.write_timeout", "10s")
	viper.SetDefault("realtime.pong_timeout", "60s")
	viper.SetDefault("realtime.ping_interval", "54s")
	viper.SetDefault("realtime.idle_room_ttl", "30m")
	viper.SetDefault("realtime.reaper_interval", "1m")
}
