package config

import "time"

type configDefinition struct {
	Port       int        `koanf:"port"`
	ApiSecret  string     `koanf:"api_secret"`
	Files      files      `koanf:"files"`
	Sheet      sheet      `koanf:"sheet"`
	Cache      cache      `koanf:"cache"`
	RateLimit  rateLimit  `koanf:"rate_limit"`
	Drive      drive      `koanf:"drive"`
	Database   database   `koanf:"database"`
	Consumers  consumers  `koanf:"consumers"`
	Logging    logging    `koanf:"logging"`
	Prometheus Prometheus `koanf:"prometheus"`
	Sentry     sentry     `koanf:"sentry"`
	Pyroscope  pyroscope  `koanf:"pyroscope"`
}

type files struct {
	BaseDir      string `koanf:"base_dir"`
	UploadsDir   string `koanf:"uploads_dir"`
	MaxUploadMiB int64  `koanf:"max_upload_mib"`
}

type sheet struct {
	SpreadsheetId   string `koanf:"spreadsheet_id"`
	SheetName       string `koanf:"sheet_name"`
	CredentialsFile string `koanf:"credentials_file"`
	InMemory        bool   `koanf:"in_memory"`
	SnapshotFile    string `koanf:"snapshot_file"`
	Timezone        string `koanf:"timezone"`
}

type cache struct {
	TtlSeconds int `koanf:"ttl_seconds"`
}

type rateLimit struct {
	MaxCalls      int `koanf:"max_calls"`
	WindowSeconds int `koanf:"window_seconds"`
}

type drive struct {
	FolderId        string `koanf:"folder_id"`
	CredentialsFile string `koanf:"credentials_file"`
}

type database struct {
	Addr     string `koanf:"address"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Db       string `koanf:"db"`
	MaxPool  int    `koanf:"max_pool"`
}

type consumers struct {
	TtlMinutes int `koanf:"ttl_minutes"`
}

type logging struct {
	Debug      bool `koanf:"debug"`
	SaveLogs   bool `koanf:"save_logs"`
	MaxSize    int  `koanf:"max_size"`
	MaxBackups int  `koanf:"max_backups"`
	MaxAge     int  `koanf:"max_age"`
	Compress   bool `koanf:"compress"`
}

type Prometheus struct {
	Enabled    bool      `koanf:"enabled"`
	Token      string    `koanf:"token"`
	BucketSize []float64 `koanf:"bucket_size"`
}

type sentry struct {
	DSN              string  `koanf:"dsn"`
	SampleRate       float64 `koanf:"sample_rate"`
	EnableTracing    bool    `koanf:"enable_tracing"`
	TracesSampleRate float64 `koanf:"traces_sample_rate"`
}

type pyroscope struct {
	ApplicationName      string `koanf:"application_name"`
	ServerAddress        string `koanf:"server_address"`
	ApiKey               string `koanf:"api_key"`
	BasicAuthUser        string `koanf:"basic_auth_user"`
	BasicAuthPassword    string `koanf:"basic_auth_password"`
	Logger               bool   `koanf:"logger"`
	MutexProfileFraction int    `koanf:"mutex_profile_fraction"`
	BlockProfileRate     int    `koanf:"block_profile_rate"`
}

func (c configDefinition) GetPrometheus() Prometheus {
	return c.Prometheus
}

func (c configDefinition) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TtlSeconds) * time.Second
}

func (c configDefinition) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimit.WindowSeconds) * time.Second
}

func (c configDefinition) ConsumerTTL() time.Duration {
	return time.Duration(c.Consumers.TtlMinutes) * time.Minute
}

func (c configDefinition) JournalEnabled() bool {
	return c.Database.Addr != ""
}

// Definition is the loaded configuration.
type Definition = configDefinition

var Config = defaultConfig()

func defaultConfig() configDefinition {
	return configDefinition{
		Port: 3000,
		Files: files{
			BaseDir:      ".",
			UploadsDir:   "uploads",
			MaxUploadMiB: 200,
		},
		Sheet: sheet{
			SheetName: "Prompts",
			Timezone:  "Asia/Bangkok",
		},
		Cache: cache{
			TtlSeconds: 300,
		},
		RateLimit: rateLimit{
			MaxCalls:      80,
			WindowSeconds: 100,
		},
		Database: database{
			MaxPool: 10,
		},
		Consumers: consumers{
			TtlMinutes: 60,
		},
		Logging: logging{
			SaveLogs:   true,
			MaxSize:    50,
			MaxBackups: 10,
			MaxAge:     30,
		},
		Prometheus: Prometheus{
			BucketSize: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		Sentry: sentry{
			SampleRate:       1.0,
			TracesSampleRate: 1.0,
		},
		Pyroscope: pyroscope{
			ApplicationName:      "promptq",
			MutexProfileFraction: 5,
			BlockProfileRate:     5,
		},
	}
}
