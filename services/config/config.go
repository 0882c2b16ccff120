package config

import (
	"vesting-indexer/config"
)

type Config struct {
	DB            config.DBConfig           `yaml:"db"`
	Logger        config.LoggerConfig       `yaml:"logger"`
	Services      ServicesConfig            `yaml:"services"`
	Chain         config.ChainConfig        `yaml:"chain"`
	PriceOracle   config.PriceOracleConfig  `yaml:"price_oracle"`
	Notifications config.NotificationConfig `yaml:"notifications"`
}

type ServicesConfig struct {
	Address string `yaml:"address" envconfig:"SERVICES_ADDRESS"`
}

func newConfig() *Config {
	return &Config{
		Services: ServicesConfig{
			Address: "localhost:8000",
		},
		Notifications: config.NotificationConfig{
			LargeClaimThresholdUSD: 10000,
		},
	}
}

func BuildConfig() (*Config, error) {
	cfg := newConfig()
	err := config.ParseConfigFile(cfg, config.CONFIG_FILE, false)
	if err != nil {
		return nil, err
	}
	err = config.ParseConfigFile(cfg, config.LOCAL_CONFIG_FILE, true)
	if err != nil {
		return nil, err
	}
	err = config.ReadEnv(cfg)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
