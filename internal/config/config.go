package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type ServerConfig struct {
	StorePath   string `envconfig:"STORE_PATH" default:"submissions.json"`
	Port        string `envconfig:"PORT" default:"8080"`
	MetricsPort string `envconfig:"METRICS_PORT" default:"9090"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"json"`

	// page routing
	PagesFile      string `envconfig:"PAGES_FILE" required:"true"`
	DefaultPageKey string `envconfig:"DEFAULT_PAGE_KEY" required:"true"`

	// outbound posting API
	GraphBaseURL   string        `envconfig:"GRAPH_BASE_URL" default:"https://graph.facebook.com"`
	PublishTimeout time.Duration `envconfig:"PUBLISH_TIMEOUT" default:"15s"`
	PublishRPS     float64       `envconfig:"PUBLISH_RPS" default:"5"`
	PublishBurst   int           `envconfig:"PUBLISH_BURST" default:"10"`

	StoreLockTimeout time.Duration `envconfig:"STORE_LOCK_TIMEOUT" default:"5s"`
}

func LoadServer() ServerConfig {
	var cfg ServerConfig
	if err := envconfig.Process("", &cfg); err != nil {
		panic(err)
	}
	return cfg
}
