package config

import (
	"fmt"
	"os"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Host string `mapstructure:"host" json:"host,omitempty"`
		Port int64  `mapstructure:"port" json:"port,omitempty"`
	} `mapstructure:"server" json:"server"`

	Database struct {
		DSN string `mapstructure:"dsn" json:"dsn,omitempty"`
	} `mapstructure:"database" json:"database,omitempty"`

	Redis struct {
		Host     string `mapstructure:"host" json:"host,omitempty"`
		Port     string `mapstructure:"port" json:"port,omitempty"`
		User     string `mapstructure:"user" json:"user,omitempty"`
		Password string `mapstructure:"password" json:"password,omitempty"`
		DB       int    `mapstructure:"db" json:"db,omitempty"`
	} `mapstructure:"redis" json:"redis,omitempty"`

	Sui struct {
		RpcURL string `mapstructure:"rpc_url" json:"rpc_url,omitempty"`
	} `mapstructure:"sui" json:"sui,omitempty"`

	Aftermath struct {
		BaseURL string        `mapstructure:"base_url" json:"base_url,omitempty"`
		Timeout time.Duration `mapstructure:"timeout" json:"timeout,omitempty"`
	} `mapstructure:"aftermath" json:"aftermath,omitempty"`

	MarketData struct {
		BaseURL  string        `mapstructure:"base_url" json:"base_url,omitempty"`
		APIKey   string        `mapstructure:"api_key" json:"api_key,omitempty"`
		Timeout  time.Duration `mapstructure:"timeout" json:"timeout,omitempty"`
		CacheTTL time.Duration `mapstructure:"cache_ttl" json:"cache_ttl,omitempty"`
	} `mapstructure:"market_data" json:"market_data,omitempty"`

	Engine struct {
		FeePercent      float64       `mapstructure:"fee_percent" json:"fee_percent,omitempty"`
		FeeRecipient    string        `mapstructure:"fee_recipient" json:"fee_recipient,omitempty"`
		SettlementDelay time.Duration `mapstructure:"settlement_delay" json:"settlement_delay,omitempty"`
		MaxAttempts     int           `mapstructure:"max_attempts" json:"max_attempts,omitempty"`
	} `mapstructure:"engine" json:"engine,omitempty"`

	Scheduler struct {
		LimitInterval time.Duration `mapstructure:"limit_interval" json:"limit_interval,omitempty"`
		DCAInterval   time.Duration `mapstructure:"dca_interval" json:"dca_interval,omitempty"`
	} `mapstructure:"scheduler" json:"scheduler,omitempty"`

	Telegram struct {
		BotToken string `mapstructure:"bot_token" json:"bot_token,omitempty"`
	} `mapstructure:"telegram" json:"telegram,omitempty"`

	Datadog struct {
		Host string `mapstructure:"host" json:"host,omitempty"`
		Port string `mapstructure:"port" json:"port,omitempty"`
	} `mapstructure:"datadog" json:"datadog"`

	EncryptionSecret string `mapstructure:"encryption_secret" json:"encryption_secret,omitempty"`
	JWTSecret        string `mapstructure:"jwt_secret" json:"jwt_secret,omitempty"`
}

func GetConfigure() (*Config, error) {
	configName := os.Getenv("CB_CONFIG_NAME")
	if configName == "" {
		configName = "config"
	}

	return ReadConfig(configName)
}

func ReadConfig(configName string) (*Config, error) {
	viper.SetConfigName(configName)
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	viper.SetDefault("sui.rpc_url", "https://fullnode.mainnet.sui.io:443")
	viper.SetDefault("aftermath.base_url", "https://aftermath.finance/api/router")
	viper.SetDefault("scheduler.limit_interval", 20*time.Second)
	viper.SetDefault("scheduler.dca_interval", 60*time.Second)

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("fail to reading config file, %w", err)
	}
	var cfg Config
	err := viper.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
	)))
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	return &cfg, nil
}
