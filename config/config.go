package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	CONFIG_FILE       = "config.yml"
	LOCAL_CONFIG_FILE = "config.local.yml"
)

type DBConfig struct {
	Host       string `yaml:"host" envconfig:"DB_HOST"`
	Port       int    `yaml:"port" envconfig:"DB_PORT"`
	Database   string `yaml:"database" envconfig:"DB_DATABASE"`
	Username   string `yaml:"username" envconfig:"DB_USERNAME"`
	Password   string `yaml:"password" envconfig:"DB_PASSWORD"`
	LogQueries bool   `yaml:"log_queries"`
}

type LoggerConfig struct {
	Level   string `yaml:"level" envconfig:"LOGGER_LEVEL"`
	File    string `yaml:"file"`
	Console bool   `yaml:"console"`
}

type ChainConfig struct {
	RPCURL          string `yaml:"rpc_url" envconfig:"CHAIN_RPC_URL"`
	APIKey          string `yaml:"api_key" envconfig:"CHAIN_API_KEY"`
	RegistryAddress string `yaml:"registry_address" envconfig:"CHAIN_REGISTRY_ADDRESS"`
	TimeoutMillis   int    `yaml:"timeout_millis"`
}

type PriceOracleConfig struct {
	URL             string `yaml:"url" envconfig:"PRICE_ORACLE_URL"`
	APIKey          string `yaml:"api_key" envconfig:"PRICE_ORACLE_API_KEY"`
	TimeoutMillis   int    `yaml:"timeout_millis"`
	CacheSize       int    `yaml:"cache_size"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
}

type CronjobConfig struct {
	Enabled        bool `yaml:"enabled"`
	TimeoutSeconds int  `yaml:"timeout_seconds"`
}

func (c CronjobConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type NotificationConfig struct {
	WebhookURL             string  `yaml:"webhook_url" envconfig:"NOTIFICATION_WEBHOOK_URL"`
	OrgWebhookURL          string  `yaml:"org_webhook_url" envconfig:"NOTIFICATION_ORG_WEBHOOK_URL"`
	TimeoutMillis          int     `yaml:"timeout_millis"`
	LargeClaimThresholdUSD float64 `yaml:"large_claim_threshold_usd"`
}

// Parse config file into cfg. When allowMissing is true a missing file is
// not an error (used for the local config overlay).
func ParseConfigFile(cfg interface{}, fileName string, allowMissing bool) error {
	f, err := os.Open(fileName)
	if err != nil {
		if allowMissing && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("error opening config file: %w", err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	err = decoder.Decode(cfg)
	if err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}
	return nil
}

func ReadEnv(cfg interface{}) error {
	err := envconfig.Process("", cfg)
	if err != nil {
		return fmt.Errorf("error reading env config: %w", err)
	}
	return nil
}
