package config

import (
	"vesting-indexer/config"
)

type Config struct {
	DB            config.DBConfig           `yaml:"db"`
	Logger        config.LoggerConfig       `yaml:"logger"`
	Metrics       MetricsConfig             `yaml:"metrics"`
	Chain         config.ChainConfig        `yaml:"chain"`
	PriceOracle   config.PriceOracleConfig  `yaml:"price_oracle"`
	Notifications config.NotificationConfig `yaml:"notifications"`
	VaultIndexer  IndexerConfig             `yaml:"vault_indexer"`
	Reconcile     config.CronjobConfig      `yaml:"reconcile_cronjob"`
	PriceBackfill config.CronjobConfig      `yaml:"price_backfill_cronjob"`
	CliffScan     CliffScanConfig           `yaml:"cliff_cronjob"`
}

type MetricsConfig struct {
	PrometheusAddress string `yaml:"prometheus_address" envconfig:"METRICS_PROMETHEUS_ADDRESS"`
}

type IndexerConfig struct {
	Enabled       bool   `yaml:"enabled"`
	TimeoutMillis int    `yaml:"timeout_millis"`
	BatchSize     int    `yaml:"batch_size"`
	StartBlock    uint64 `yaml:"start_block"`
}

type CliffScanConfig struct {
	config.CronjobConfig `yaml:",inline"`
	LookaheadHours       int `yaml:"lookahead_hours"`
}

func newConfig() *Config {
	return &Config{
		VaultIndexer: IndexerConfig{
			Enabled:       true,
			TimeoutMillis: 3000,
			BatchSize:     100,
			StartBlock:    0,
		},
		Reconcile: config.CronjobConfig{
			Enabled:        true,
			TimeoutSeconds: 6 * 60 * 60,
		},
		PriceBackfill: config.CronjobConfig{
			Enabled:        true,
			TimeoutSeconds: 15 * 60,
		},
		CliffScan: CliffScanConfig{
			CronjobConfig: config.CronjobConfig{
				Enabled:        false,
				TimeoutSeconds: 60 * 60,
			},
			LookaheadHours: 24,
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
