package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "SANTA"

type Config struct {
	Server ServerConfig
	Store  StoreConfig
	DB     DBConfig
	Log    LogConfig
}

type ServerConfig struct {
	Address   string
	PublicURL string `mapstructure:"public_url"` // 產生分享連結時加在前面的網址，空字串表示相對路徑
	StaticDir string `mapstructure:"static_dir"`
	Mode      string // gin 模式: debug / release / test
}

type StoreConfig struct {
	Driver string // postgres 或 memory
}

type DBConfig struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     int
	SSLMode  string `mapstructure:"sslmode"`
	TimeZone string `mapstructure:"timezone"`
}

type LogConfig struct {
	Verbose bool
}

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// New 建立帶有預設值的 viper 實例，並開啟 SANTA_ 前綴的環境變數覆寫
func New() *viper.Viper {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./pkg/config")
	v.AddConfigPath(".")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.address", ":3000")
	v.SetDefault("server.public_url", "")
	v.SetDefault("server.static_dir", "")
	v.SetDefault("server.mode", "release")
	v.SetDefault("store.driver", StoreDriverPostgres)
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "postgres")
	v.SetDefault("db.name", "santa")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("log.verbose", false)

	return v
}

// Load 讀取設定檔 (若存在)、環境變數與已綁定的旗標
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return fmt.Errorf("invalid store driver %q (must be %s or %s)", c.Store.Driver, StoreDriverPostgres, StoreDriverMemory)
	}
	if c.Store.Driver == StoreDriverPostgres && (c.DB.Port < 1 || c.DB.Port > 65535) {
		return fmt.Errorf("invalid db port (must be between 1-65535 inclusive): %d", c.DB.Port)
	}
	if c.Server.Address == "" {
		return errors.New("server address is required")
	}
	c.Server.PublicURL = strings.TrimSuffix(c.Server.PublicURL, "/")
	return nil
}
