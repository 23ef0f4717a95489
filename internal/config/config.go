package config

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	AI        AIConfig        `yaml:"ai"`
	Push      PushConfig      `yaml:"push"`
	Storage   StorageConfig   `yaml:"storage"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	Console    bool   `yaml:"console"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type ServerConfig struct {
	Port      int    `yaml:"port"`
	JWTSecret string `yaml:"jwt_secret"`
	// InternalKey guards the AI callback route (X-Internal-Auth).
	InternalKey string `yaml:"internal_key"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type AIConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	// DefaultPersona is the fallback when neither the request nor the
	// user profile carries one.
	DefaultPersona int `yaml:"default_persona"`
}

type PushConfig struct {
	Endpoint       string `yaml:"endpoint"`
	ServerKey      string `yaml:"server_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type StorageConfig struct {
	Endpoint string `yaml:"endpoint"`
	Bucket   string `yaml:"bucket"`
	APIKey   string `yaml:"api_key"`
}

type SchedulerConfig struct {
	Enabled bool `yaml:"enabled"`
	// Timezone fixes the civil day boundary for streaks, sweeps and alarms.
	Timezone string `yaml:"timezone"`
	// FeedbackCadenceDays is the signup-age multiple for the feedback sweep.
	FeedbackCadenceDays int `yaml:"feedback_cadence_days"`
	QueueSize           int `yaml:"queue_size"`
}

func Load(configFile string) *Config {
	c := &Config{
		Server:    ServerConfig{Port: 9872, JWTSecret: "todaylog-secret-2026"},
		Log:       LogConfig{Level: "info", Console: true, MaxSizeMB: 100, MaxBackups: 3, MaxAgeDays: 30},
		Database:  DatabaseConfig{Host: "127.0.0.1", Port: 3306, Name: "todaylog"},
		AI:        AIConfig{TimeoutSeconds: 5, DefaultPersona: 1},
		Push:      PushConfig{TimeoutSeconds: 5},
		Scheduler: SchedulerConfig{Enabled: true, Timezone: "Asia/Seoul", FeedbackCadenceDays: 14, QueueSize: 256},
	}

	paths := []string{"etc/config-dev.yaml", "/etc/todaylog/config.yaml"}
	if configFile != "" {
		paths = []string{configFile}
	}
	for _, path := range paths {
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, c)
			break
		}
	}

	envOverride(&c.AI.BaseURL, "AI_BASE_URL")
	envOverride(&c.Push.Endpoint, "PUSH_ENDPOINT")
	envOverride(&c.Push.ServerKey, "PUSH_SERVER_KEY")
	envOverride(&c.Storage.Endpoint, "STORAGE_ENDPOINT")
	envOverride(&c.Storage.Bucket, "STORAGE_BUCKET")
	envOverride(&c.Storage.APIKey, "STORAGE_API_KEY")
	envOverride(&c.Server.JWTSecret, "JWT_SECRET")
	envOverride(&c.Server.InternalKey, "INTERNAL_AUTH_KEY")
	envOverride(&c.Database.Host, "DB_HOST")
	envOverride(&c.Database.User, "DB_USER")
	envOverride(&c.Database.Password, "DB_PASS")
	envOverride(&c.Database.Name, "DB_NAME")
	envOverride(&c.Log.Level, "LOG_LEVEL")
	envOverride(&c.Log.File, "LOG_FILE")
	envOverride(&c.Scheduler.Timezone, "APP_TIMEZONE")
	envOverrideInt(&c.Server.Port, "PORT")
	envOverrideInt(&c.Database.Port, "DB_PORT")

	return c
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// Location resolves the fixed civil timezone. Falls back to UTC so a bad
// config never silently shifts day boundaries to server-local time.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) OpenGormDB() (*gorm.DB, error) {
	cfg := gomysql.NewConfig()
	cfg.User = c.Database.User
	cfg.Passwd = c.Database.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port)
	cfg.DBName = c.Database.Name
	cfg.ParseTime = true

	connector, err := gomysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("create connector: %w", err)
	}
	sqlDB := sql.OpenDB(connector)
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return gorm.Open(mysql.New(mysql.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

func envOverride(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envOverrideInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
