package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "COVIDLAG"

// Published CHHS open-data resources. Overridable so tests and air-gapped
// deployments can point at local copies.
const (
	defaultCasesURL     = "https://data.chhs.ca.gov/dataset/f333528b-4d38-4814-bebb-12db1f10f535/resource/046cdd2b-31e5-4d34-9ed3-b48cdbc4be7a/download/covid19cases_test.csv"
	defaultHospitalsURL = "https://data.chhs.ca.gov/dataset/2df3e19e-9ee4-42a6-a087-9761f82033f6/resource/47af979d-8685-4981-bced-96a6b79d3ed5/download/covid19hospitalbycounty.csv"
)

// Config holds all service settings, populated from COVIDLAG_* environment
// variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	CasesURL     string
	HospitalsURL string
	FetchTimeout time.Duration

	AnalysisStart       time.Time
	SmoothingWindow     int
	TrimDays            int
	DefaultCounty       string
	ProjectionCacheSize int

	SnapshotDir     string
	RefreshInterval time.Duration

	KafkaBrokers []string
	KafkaTopic   string
	FeedCounty   string
}

// FeedEnabled reports whether the projection feed publishes to Kafka.
// Setting COVIDLAG_KAFKA_BROKERS turns the feed on.
func (c *Config) FeedEnabled() bool { return len(c.KafkaBrokers) > 0 }

// SnapshotEnabled reports whether fetched datasets are persisted locally.
// An empty COVIDLAG_SNAPSHOT_DIR turns persistence off.
func (c *Config) SnapshotEnabled() bool { return c.SnapshotDir != "" }

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AllowEmptyEnv(true)

	v.SetDefault("http_addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("shutdown_timeout", "10s")
	v.SetDefault("cases_url", defaultCasesURL)
	v.SetDefault("hospitals_url", defaultHospitalsURL)
	v.SetDefault("fetch_timeout", "30s")
	v.SetDefault("analysis_start", "2020-03-01")
	v.SetDefault("smoothing_window", "7")
	v.SetDefault("trim_days", "3")
	v.SetDefault("default_county", "Santa Clara")
	v.SetDefault("projection_cache_size", "512")
	v.SetDefault("snapshot_dir", "data/snapshots")
	v.SetDefault("refresh_interval", "6h")
	v.SetDefault("kafka_brokers", "")
	v.SetDefault("kafka_topic", "county-projections")
	v.SetDefault("feed_county", "")

	shutdownTimeout, err := parseDuration(v, "shutdown_timeout")
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := parseDuration(v, "fetch_timeout")
	if err != nil {
		return nil, err
	}
	refreshInterval, err := parseDuration(v, "refresh_interval")
	if err != nil {
		return nil, err
	}

	analysisStart, err := time.Parse("2006-01-02", v.GetString("analysis_start"))
	if err != nil {
		return nil, fmt.Errorf("invalid %s_ANALYSIS_START: %w", envPrefix, err)
	}

	smoothingWindow, err := parsePositiveInt(v, "smoothing_window")
	if err != nil {
		return nil, err
	}
	trimDays, err := parseNonNegativeInt(v, "trim_days")
	if err != nil {
		return nil, err
	}
	cacheSize, err := parseNonNegativeInt(v, "projection_cache_size")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        v.GetString("http_addr"),
		LogLevel:        v.GetString("log_level"),
		LogFormat:       v.GetString("log_format"),
		ShutdownTimeout: shutdownTimeout,

		CasesURL:     v.GetString("cases_url"),
		HospitalsURL: v.GetString("hospitals_url"),
		FetchTimeout: fetchTimeout,

		AnalysisStart:       analysisStart.UTC(),
		SmoothingWindow:     smoothingWindow,
		TrimDays:            trimDays,
		DefaultCounty:       v.GetString("default_county"),
		ProjectionCacheSize: cacheSize,

		SnapshotDir:     v.GetString("snapshot_dir"),
		RefreshInterval: refreshInterval,

		KafkaBrokers: parseBrokers(v.GetString("kafka_brokers")),
		KafkaTopic:   v.GetString("kafka_topic"),
		FeedCounty:   v.GetString("feed_county"),
	}

	if cfg.CasesURL == "" {
		return nil, fmt.Errorf("%s_CASES_URL is required", envPrefix)
	}
	if cfg.HospitalsURL == "" {
		return nil, fmt.Errorf("%s_HOSPITALS_URL is required", envPrefix)
	}
	if cfg.DefaultCounty == "" {
		return nil, fmt.Errorf("%s_DEFAULT_COUNTY is required", envPrefix)
	}
	if cfg.FeedEnabled() && cfg.KafkaTopic == "" {
		return nil, fmt.Errorf("%s_KAFKA_TOPIC is required when the feed is enabled", envPrefix)
	}

	if cfg.FeedCounty == "" {
		cfg.FeedCounty = cfg.DefaultCounty
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s_%s", envPrefix, strings.ToUpper(key))
	}
	return d, nil
}

func parsePositiveInt(v *viper.Viper, key string) (int, error) {
	n, err := strconv.Atoi(v.GetString(key))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid %s_%s", envPrefix, strings.ToUpper(key))
	}
	return n, nil
}

func parseNonNegativeInt(v *viper.Viper, key string) (int, error) {
	n, err := strconv.Atoi(v.GetString(key))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s_%s", envPrefix, strings.ToUpper(key))
	}
	return n, nil
}

func parseBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
