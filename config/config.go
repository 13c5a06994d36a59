package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`

	HTTPPort     string `envconfig:"HTTP_PORT" default:"4242"`
	APISecretKey string `envconfig:"API_SECRET_KEY"`

	// Optionaler Redis für die prozessübergreifende Spalten-Memoisierung.
	RedisAddr string `envconfig:"REDIS_ADDR"`

	// Zeitplan, nach dem memoisierte Spaltenmengen verworfen werden, damit
	// extern eingespielte Migrationen sichtbar werden.
	SchemaRefreshSchedule string `envconfig:"SCHEMA_REFRESH_SCHEDULE" default:"@hourly"`

	// S3-Ziel für Ergebnis-Exporte und Backups; optional.
	S3Key    string `envconfig:"S3_KEY"`
	S3Secret string `envconfig:"S3_SECRET"`
	S3URL    string `envconfig:"S3_URL"`
	S3Region string `envconfig:"S3_REGION"`
	S3Bucket string `envconfig:"S3_BUCKET"`
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// S3Configured meldet, ob ein vollständiges S3-Ziel hinterlegt ist.
func (c *Config) S3Configured() bool {
	return c.S3Key != "" && c.S3Secret != "" && c.S3URL != "" && c.S3Region != "" && c.S3Bucket != ""
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
