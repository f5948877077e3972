package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Minio      MinioConfig      `yaml:"minio"`
	Metadata   MetadataConfig   `yaml:"metadata"`
	Compliance ComplianceConfig `yaml:"compliance"`
	Auth       AuthConfig       `yaml:"auth"`
	Store      StoreConfig      `yaml:"store"`
	Users      []User           `yaml:"users"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type MinioConfig struct {
	Endpoint   string `yaml:"endpoint"`
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
	Bucket     string `yaml:"bucket"`
	UseSSL     bool   `yaml:"use_ssl"`
	ExpireDays int    `yaml:"expire_days"`
}

// MetadataConfig controls the shared project workbook
type MetadataConfig struct {
	WorkbookPath string `yaml:"workbook_path"`
	SheetName    string `yaml:"sheet_name"`
	// UpdateWeekday is the weekday the workbook is refreshed on,
	// 0=Sunday .. 6=Saturday. A workbook modified before the most
	// recent update day is considered stale.
	UpdateWeekday   int `yaml:"update_weekday"`
	CacheTTLMinutes int `yaml:"cache_ttl_minutes"`
}

// ComplianceConfig controls scoring and check execution
type ComplianceConfig struct {
	// ThresholdPercent is the minimum score for a compliant verdict
	ThresholdPercent float64 `yaml:"threshold_percent"`
	// PartialWeight is the pass credit a partial result earns, 0..1
	PartialWeight      *float64 `yaml:"partial_weight"`
	RequiredWorksheets []string `yaml:"required_worksheets"`
	// ParallelWorkers > 1 runs independent checks concurrently
	ParallelWorkers    int `yaml:"parallel_workers"`
	ReportCacheTTLMins int `yaml:"report_cache_ttl_minutes"`
	MinSlideCount      int `yaml:"min_slide_count"`
}

type AuthConfig struct {
	JWTSecret        string `yaml:"jwt_secret"`
	TokenExpireHours int    `yaml:"token_expire_hours"`
}

type StoreConfig struct {
	MaxEvaluations int `yaml:"max_evaluations"`
}

type User struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Tenant   string `yaml:"tenant"`
}

// DefaultRequiredWorksheets are the worksheets an embedded test-plan
// workbook must carry.
var DefaultRequiredWorksheets = []string{
	"Cover Page",
	"General Details",
	"Business Scenario(s)",
	"Data Requirement",
	"Architecture",
	"Logs&Contacts",
}

var GlobalConfig *Config

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Minio.ExpireDays == 0 {
		cfg.Minio.ExpireDays = 7
	}
	if cfg.Auth.TokenExpireHours == 0 {
		cfg.Auth.TokenExpireHours = 24
	}
	if cfg.Metadata.SheetName == "" {
		cfg.Metadata.SheetName = "Sheet1"
	}
	if cfg.Metadata.UpdateWeekday == 0 {
		cfg.Metadata.UpdateWeekday = 3 // Wednesday
	}
	if cfg.Metadata.CacheTTLMinutes == 0 {
		cfg.Metadata.CacheTTLMinutes = 60
	}
	if cfg.Compliance.ThresholdPercent == 0 {
		cfg.Compliance.ThresholdPercent = 60
	}
	if cfg.Compliance.PartialWeight == nil {
		w := 1.0
		cfg.Compliance.PartialWeight = &w
	}
	if len(cfg.Compliance.RequiredWorksheets) == 0 {
		cfg.Compliance.RequiredWorksheets = DefaultRequiredWorksheets
	}
	if cfg.Compliance.ReportCacheTTLMins == 0 {
		cfg.Compliance.ReportCacheTTLMins = 60
	}
	if cfg.Compliance.MinSlideCount == 0 {
		cfg.Compliance.MinSlideCount = 5
	}
	if cfg.Store.MaxEvaluations == 0 {
		cfg.Store.MaxEvaluations = 100
	}

	GlobalConfig = &cfg
	return &cfg, nil
}

// FindUser finds a user by username
func (c *Config) FindUser(username string) *User {
	for i := range c.Users {
		if c.Users[i].Username == username {
			return &c.Users[i]
		}
	}
	return nil
}
