package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the gateway.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	ERP       ERPConfig       `mapstructure:"erp"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Retention RetentionConfig `mapstructure:"retention"`
}

// GeneralConfig contains general application settings.
type GeneralConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// LLMConfig contains the OpenAI provider settings and the turn knobs.
type LLMConfig struct {
	APIKey        string        `mapstructure:"api_key"`
	Model         string        `mapstructure:"model"`
	Temperature   float64       `mapstructure:"temperature"`
	MaxTokens     int           `mapstructure:"max_tokens"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxToolRounds int           `mapstructure:"max_tool_rounds"`
	HistoryWindow int           `mapstructure:"history_window"`
	DigestCap     int           `mapstructure:"digest_cap"`
}

// ERPConfig contains the remote backend settings and the pipeline knobs.
type ERPConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	FunctionKey    string        `mapstructure:"function_key"`
	Timeout        time.Duration `mapstructure:"timeout"`
	ResponseBudget int           `mapstructure:"response_budget"`
	PageSize       int           `mapstructure:"page_size"`
	PageCeiling    int           `mapstructure:"page_ceiling"`
	CatalogTTL     time.Duration `mapstructure:"catalog_ttl"`
}

// StorageConfig contains Postgres and optional Redis settings.
type StorageConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN assembles the Postgres connection string.
func (p PostgresConfig) DSN() (string, error) {
	if p.URL != "" {
		return p.URL, nil
	}
	if p.Host == "" || p.DBName == "" {
		return "", fmt.Errorf("postgres not configured (storage.postgres.host/dbname or url)")
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl), nil
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Enabled reports whether the optional catalog cache is configured.
func (r RedisConfig) Enabled() bool { return r.Host != "" && r.Port != "" }

func (r RedisConfig) Addr() string { return r.Host + ":" + r.Port }

// RetentionConfig drives the idle-conversation sweeper.
type RetentionConfig struct {
	Cron    string        `mapstructure:"cron"`
	IdleTTL time.Duration `mapstructure:"idle_ttl"`
}

func setDefaults() {
	viper.SetDefault("general.debug", false)
	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.temperature", 0.2)
	viper.SetDefault("llm.timeout", "120s")
	viper.SetDefault("llm.max_tool_rounds", 8)
	viper.SetDefault("llm.history_window", 20)
	viper.SetDefault("llm.digest_cap", 500)
	viper.SetDefault("erp.timeout", "30s")
	viper.SetDefault("erp.response_budget", 15000)
	viper.SetDefault("erp.page_size", 25)
	viper.SetDefault("erp.page_ceiling", 20)
	viper.SetDefault("erp.catalog_ttl", "10m")
	viper.SetDefault("retention.cron", "0 3 * * *")
	viper.SetDefault("retention.idle_ttl", "720h")
}

// LoadConfig loads config from file (json, optional) plus MAF_* environment
// variables. The file may be absent; env-only deployments are common.
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	setDefaults()

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("MAF")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	return &config
}
