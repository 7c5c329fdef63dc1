package app

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/yungbote/disaforms-backend/internal/data/db"
	"github.com/yungbote/disaforms-backend/internal/http/middleware"
	"github.com/yungbote/disaforms-backend/internal/platform/envutil"
	"github.com/yungbote/disaforms-backend/internal/platform/logger"
)

type Config struct {
	Port    string `mapstructure:"port"`
	LogMode string `mapstructure:"log_mode"`

	DBDriver         string `mapstructure:"db_driver"`
	PostgresHost     string `mapstructure:"postgres_host"`
	PostgresPort     string `mapstructure:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password"`
	PostgresName     string `mapstructure:"postgres_name"`
	SQLitePath       string `mapstructure:"sqlite_path"`

	FormSchemasYAML   string `mapstructure:"form_schemas_yaml"`
	ReportCompanyName string `mapstructure:"report_company_name"`
	ReportWorkers     int    `mapstructure:"report_decode_workers"`

	MetricsEnabled   bool    `mapstructure:"metrics_enabled"`
	OtelEnabled      bool    `mapstructure:"otel_enabled"`
	OtelExporter     string  `mapstructure:"otel_exporter"`
	OtelEndpoint     string  `mapstructure:"otel_exporter_otlp_endpoint"`
	OtelSamplerRatio float64 `mapstructure:"otel_sampler_ratio"`

	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
}

func (c Config) DB() db.Config {
	return db.Config{
		Driver:           c.DBDriver,
		PostgresHost:     c.PostgresHost,
		PostgresPort:     c.PostgresPort,
		PostgresUser:     c.PostgresUser,
		PostgresPassword: c.PostgresPassword,
		PostgresName:     c.PostgresName,
		SQLitePath:       c.SQLitePath,
	}
}

// LoadConfig reads the environment, then overlays the file named by
// CONFIG_FILE when set. File values win over env defaults.
func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Port:    envutil.String("PORT", "8080"),
		LogMode: envutil.String("LOG_MODE", "development"),

		DBDriver:         envutil.String("DB_DRIVER", db.DriverPostgres),
		PostgresHost:     envutil.String("POSTGRES_HOST", "localhost"),
		PostgresPort:     envutil.String("POSTGRES_PORT", "5432"),
		PostgresUser:     envutil.String("POSTGRES_USER", "postgres"),
		PostgresPassword: envutil.String("POSTGRES_PASSWORD", ""),
		PostgresName:     envutil.String("POSTGRES_NAME", "disaforms"),
		SQLitePath:       envutil.String("SQLITE_PATH", "file:disaforms.db"),

		FormSchemasYAML:   envutil.String("FORM_SCHEMAS_YAML", ""),
		ReportCompanyName: envutil.String("REPORT_COMPANY_NAME", "SAKTHI AUTO COMPONENT LIMITED"),
		ReportWorkers:     envutil.Int("REPORT_DECODE_WORKERS", 4),

		MetricsEnabled:   envutil.Bool("METRICS_ENABLED", true),
		OtelEnabled:      envutil.Bool("OTEL_ENABLED", false),
		OtelExporter:     envutil.String("OTEL_EXPORTER", "stdout"),
		OtelEndpoint:     envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OtelSamplerRatio: envutil.Float("OTEL_SAMPLER_RATIO", 0.1),

		CORSAllowedOrigins: envutil.List("CORS_ALLOWED_ORIGINS", middleware.DefaultOrigins),
	}

	path := envutil.String("CONFIG_FILE", "")
	if path == "" {
		return cfg
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		if log != nil {
			log.Warn("config file ignored", "path", path, "error", err)
		}
		return cfg
	}
	if err := v.Unmarshal(&cfg); err != nil {
		if log != nil {
			log.Warn("config file could not be decoded", "path", path, "error", err)
		}
		return cfg
	}
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	if log != nil {
		log.Info("config file loaded", "path", path)
	}
	return cfg
}
