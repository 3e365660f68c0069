package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all settings for the reconciliation engine. Values come from
// environment variables, with an optional YAML file providing the base layer.
type Config struct {
	MailboxPath     string
	RosterPath      string
	DBPath          string
	ReportDir       string
	LegacyLedgers   []string
	HTTPPort        string
	OfficeStart     string
	GraceDeadline   string
	LatesToLeave    int
	StalenessSec    int
	PollIntervalSec int
	EnableWatcher   bool
	ModelPath       string
}

type fileConfig struct {
	MailboxPath     string   `yaml:"mailbox_path"`
	RosterPath      string   `yaml:"roster_path"`
	DBPath          string   `yaml:"db_path"`
	ReportDir       string   `yaml:"report_dir"`
	LegacyLedgers   []string `yaml:"legacy_ledgers"`
	HTTPPort        string   `yaml:"http_port"`
	OfficeStart     string   `yaml:"office_start"`
	GraceDeadline   string   `yaml:"grace_deadline"`
	LatesToLeave    *int     `yaml:"lates_to_leave"`
	StalenessSec    *int     `yaml:"staleness_sec"`
	PollIntervalSec *int     `yaml:"poll_interval_sec"`
	ModelPath       string   `yaml:"model_path"`
}

// Load reads configuration from the optional YAML file, then the environment
// and an optional .env file. Environment values win.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		MailboxPath:     "shared/recognized_id.json",
		RosterPath:      "shared/employees_data.csv",
		DBPath:          "attendance.db",
		ReportDir:       "reports",
		OfficeStart:     "09:00",
		GraceDeadline:   "09:15",
		LatesToLeave:    2,
		StalenessSec:    0,
		PollIntervalSec: 3,
		EnableWatcher:   true,
	}
	applyFile(&cfg, getenv("CONFIG_PATH", "config.yaml"))

	cfg.MailboxPath = getenv("MAILBOX_PATH", cfg.MailboxPath)
	cfg.RosterPath = getenv("ROSTER_PATH", cfg.RosterPath)
	cfg.DBPath = getenv("DB_PATH", cfg.DBPath)
	cfg.ReportDir = getenv("REPORT_DIR", cfg.ReportDir)
	if v := os.Getenv("LEGACY_LEDGERS"); v != "" {
		cfg.LegacyLedgers = splitList(v)
	}
	cfg.HTTPPort = getenv("HTTP_PORT", cfg.HTTPPort)
	cfg.OfficeStart = getenv("OFFICE_START", cfg.OfficeStart)
	cfg.GraceDeadline = getenv("GRACE_DEADLINE", cfg.GraceDeadline)
	cfg.LatesToLeave = clampInt(getenvInt("LATES_TO_LEAVE", cfg.LatesToLeave), 1, 100)
	cfg.StalenessSec = clampInt(getenvInt("STALENESS_SEC", cfg.StalenessSec), 0, 86400)
	cfg.PollIntervalSec = clampInt(getenvInt("POLL_INTERVAL_SEC", cfg.PollIntervalSec), 1, 3600)
	cfg.EnableWatcher = getenvBool("ENABLE_WATCHER", cfg.EnableWatcher)
	cfg.ModelPath = getenv("MODEL_PATH", cfg.ModelPath)

	log.Printf("config: mailbox=%s roster=%s db=%s reports=%s poll=%ds", cfg.MailboxPath, cfg.RosterPath, cfg.DBPath, cfg.ReportDir, cfg.PollIntervalSec)
	return cfg
}

// PollInterval returns the consumer poll cadence.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSec) * time.Second
}

// StalenessWindow returns the stale-event cutoff; zero disables the filter.
func (c Config) StalenessWindow() time.Duration {
	return time.Duration(c.StalenessSec) * time.Second
}

func applyFile(cfg *Config, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		log.Printf("config: ignoring malformed %s: %v", path, err)
		return
	}
	if fc.MailboxPath != "" {
		cfg.MailboxPath = fc.MailboxPath
	}
	if fc.RosterPath != "" {
		cfg.RosterPath = fc.RosterPath
	}
	if fc.DBPath != "" {
		cfg.DBPath = fc.DBPath
	}
	if fc.ReportDir != "" {
		cfg.ReportDir = fc.ReportDir
	}
	if len(fc.LegacyLedgers) > 0 {
		cfg.LegacyLedgers = fc.LegacyLedgers
	}
	if fc.HTTPPort != "" {
		cfg.HTTPPort = fc.HTTPPort
	}
	if fc.OfficeStart != "" {
		cfg.OfficeStart = fc.OfficeStart
	}
	if fc.GraceDeadline != "" {
		cfg.GraceDeadline = fc.GraceDeadline
	}
	if fc.LatesToLeave != nil {
		cfg.LatesToLeave = *fc.LatesToLeave
	}
	if fc.StalenessSec != nil {
		cfg.StalenessSec = *fc.StalenessSec
	}
	if fc.PollIntervalSec != nil {
		cfg.PollIntervalSec = *fc.PollIntervalSec
	}
	if fc.ModelPath != "" {
		cfg.ModelPath = fc.ModelPath
	}
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getenvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Now returns local wall time truncated to the minute, the granularity of
// ledger entry times.
func Now() time.Time {
	return time.Now().Truncate(time.Minute)
}
