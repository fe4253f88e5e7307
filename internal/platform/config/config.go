package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port  string
	DBDSN string

	LogLevel  string
	LogFormat string
	AppName   string

	// Zona horaria canónica para los límites de día calendario.
	Timezone string
	Location *time.Location

	Scan   ScanConfig
	Stats  StatsConfig
	Export ExportConfig
	IAM    IAMConfig
}

type ScanConfig struct {
	Schedule       string
	Lookahead      time.Duration
	UserTimeout    time.Duration
	MaxMedications int
}

type StatsConfig struct {
	AdherenceWindowDays int
}

type ExportConfig struct {
	Days int
}

type IAMConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Load lee un .env opcional y después variables de entorno.
// Las claves se buscan con prefijo MEDTRACK_ (p.ej. MEDTRACK_SCAN_LOOKAHEAD);
// PORT, DB_DSN, LOG_LEVEL, LOG_FORMAT y APP_NAME también se aceptan sin prefijo.
func Load() (*Config, error) {
	// Sin .env seguimos con el entorno del sistema.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("MEDTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, k := range []string{"port", "db_dsn", "log_level", "log_format", "app_name"} {
		_ = v.BindEnv(k, "MEDTRACK_"+strings.ToUpper(k), strings.ToUpper(k))
	}

	v.SetDefault("port", "8080")
	v.SetDefault("db_dsn", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("app_name", "medication-tracker")
	v.SetDefault("timezone", "Local")
	v.SetDefault("scan.schedule", "*/5 * * * *")
	v.SetDefault("scan.lookahead", "15m")
	v.SetDefault("scan.user_timeout", "2s")
	v.SetDefault("scan.max_medications", 500)
	v.SetDefault("adherence.window_days", 7)
	v.SetDefault("export.days", 30)
	v.SetDefault("iam.base_url", "")
	v.SetDefault("iam.api_key", "")
	v.SetDefault("iam.timeout", "5s")

	cfg := &Config{
		Port:      strings.TrimSpace(v.GetString("port")),
		DBDSN:     strings.TrimSpace(v.GetString("db_dsn")),
		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
		AppName:   v.GetString("app_name"),
		Timezone:  strings.TrimSpace(v.GetString("timezone")),
		Scan: ScanConfig{
			Schedule:       strings.TrimSpace(v.GetString("scan.schedule")),
			Lookahead:      v.GetDuration("scan.lookahead"),
			UserTimeout:    v.GetDuration("scan.user_timeout"),
			MaxMedications: v.GetInt("scan.max_medications"),
		},
		Stats: StatsConfig{
			AdherenceWindowDays: v.GetInt("adherence.window_days"),
		},
		Export: ExportConfig{
			Days: v.GetInt("export.days"),
		},
		IAM: IAMConfig{
			BaseURL: strings.TrimSpace(v.GetString("iam.base_url")),
			APIKey:  strings.TrimSpace(v.GetString("iam.api_key")),
			Timeout: v.GetDuration("iam.timeout"),
		},
	}

	loc, err := loadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}
	cfg.Location = loc

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}

func (c *Config) validate() error {
	if c.Port == "" {
		return fmt.Errorf("config: port required")
	}
	if c.Scan.Schedule == "" {
		return fmt.Errorf("config: scan schedule required")
	}
	if c.Scan.Lookahead <= 0 {
		return fmt.Errorf("config: scan lookahead must be positive")
	}
	if c.Scan.UserTimeout <= 0 {
		return fmt.Errorf("config: scan user timeout must be positive")
	}
	if c.Stats.AdherenceWindowDays <= 0 {
		c.Stats.AdherenceWindowDays = 7
	}
	if c.Export.Days <= 0 {
		c.Export.Days = 30
	}
	return nil
}

func loadLocation(name string) (*time.Location, error) {
	switch strings.ToLower(name) {
	case "", "local":
		return time.Local, nil
	case "utc":
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("config: invalid timezone %q: %w", name, err)
	}
	return loc, nil
}
