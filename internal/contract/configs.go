package contract

import (
	"bufio"
	"fmt"
	"maps"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/huangsam/trustscore/schema"
)

// Default values for configuration.
const (
	DefaultPrecision     = 2
	DefaultMaxPages      = 3
	DefaultCacheTTL      = 24 * time.Hour
	DefaultMetricTimeout = 0 // no per-metric deadline
	DefaultRegistryURL   = "https://registry.npmjs.org"
	DefaultListenAddr    = ":8080"
	DefaultLogLevel      = "warn"
	MaxWorkers           = 256
)

// DefaultWorkers is the default number of packages scored concurrently.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// WeightsRawInput holds custom net score weights from the YAML config file.
// Use float64 pointers so that omitted weights keep their defaults.
type WeightsRawInput struct {
	Maintainer  *float64 `mapstructure:"maintainer"`
	Correctness *float64 `mapstructure:"correctness"`
	BusFactor   *float64 `mapstructure:"bus_factor"`
	RampUp      *float64 `mapstructure:"ramp_up"`
	PRReview    *float64 `mapstructure:"pr_review"`
}

// Config holds the runtime configuration for scoring.
// This struct remains the "final, validated" config.
type Config struct {
	URLs []string // Package URLs to score, in input order

	Workers    int
	Output     schema.OutputMode
	OutputFile string
	Precision  int
	Detail     bool
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool

	CloneRepos    bool   // Clone GitHub repositories for README, license and commit history
	CheckoutDir   string // Parent directory for temporary checkouts (empty = OS temp dir)
	MaxPages      int    // Page cap per GitHub listing
	MetricTimeout time.Duration
	FailFast      bool

	GitHubToken  string // Please use env var as this is plaintext
	GitHubAPIURL string // Empty means api.github.com
	RegistryURL  string

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext
	CacheTTL       time.Duration

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext

	Weights         schema.NetWeights
	LicensePatterns []string

	Logger LoggerConfig
	Listen string
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	Targets []string

	// --- Fields from rootCmd.PersistentFlags() ---
	Workers          int    `mapstructure:"workers"`
	Output           string `mapstructure:"output"`
	OutputFile       string `mapstructure:"output-file"`
	Precision        int    `mapstructure:"precision"`
	Detail           bool   `mapstructure:"detail"`
	Width            int    `mapstructure:"width"`
	Color            string `mapstructure:"color"`
	CacheBackend     string `mapstructure:"cache-backend"`
	CacheDBConnect   string `mapstructure:"cache-db-connect"`
	CacheTTL         string `mapstructure:"cache-ttl"`
	HistoryBackend   string `mapstructure:"history-backend"`
	HistoryDBConnect string `mapstructure:"history-db-connect"`
	LogLevel         string `mapstructure:"log-level"`
	LogFormat        string `mapstructure:"log-format"`
	LogFile          string `mapstructure:"log-file"`
	GitHubToken      string `mapstructure:"github-token"`
	GitHubAPIURL     string `mapstructure:"github-api-url"`
	RegistryURL      string `mapstructure:"registry-url"`

	// --- Fields from rateCmd.Flags() ---
	Clone         bool   `mapstructure:"clone"`
	CheckoutDir   string `mapstructure:"checkout-dir"`
	MaxPages      int    `mapstructure:"max-pages"`
	MetricTimeout string `mapstructure:"metric-timeout"`
	FailFast      bool   `mapstructure:"fail-fast"`

	// --- Fields from serveCmd.Flags() ---
	Listen string `mapstructure:"listen"`

	// --- Scoring definitions from config file ---
	Weights         WeightsRawInput `mapstructure:"weights"`
	LicensePatterns []string        `mapstructure:"license-patterns"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.URLs != nil {
		clone.URLs = make([]string, len(c.URLs))
		copy(clone.URLs, c.URLs)
	}
	if c.LicensePatterns != nil {
		clone.LicensePatterns = make([]string, len(c.LicensePatterns))
		copy(clone.LicensePatterns, c.LicensePatterns)
	}
	if c.Weights != nil {
		clone.Weights = make(schema.NetWeights, len(c.Weights))
		maps.Copy(clone.Weights, c.Weights)
	}
	return &clone
}

// ConfigParams summarizes the settings that influence scores, for run history.
func (c *Config) ConfigParams() map[string]any {
	weights := make(map[string]float64, len(c.Weights))
	for k, v := range c.Weights {
		weights[string(k)] = v
	}
	return map[string]any{
		"weights":          weights,
		"license_patterns": c.LicensePatterns,
		"clone":            c.CloneRepos,
		"max_pages":        c.MaxPages,
		"fail_fast":        c.FailFast,
	}
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := processWeights(cfg, input); err != nil {
		return err
	}
	return resolveTargets(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateSimpleInputs processes and validates all scalar fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Detail = input.Detail
	cfg.Width = input.Width
	cfg.CloneRepos = input.Clone
	cfg.CheckoutDir = input.CheckoutDir
	cfg.FailFast = input.FailFast
	cfg.GitHubToken = strings.TrimSpace(input.GitHubToken)
	cfg.GitHubAPIURL = strings.TrimSpace(input.GitHubAPIURL)
	cfg.Listen = input.Listen
	cfg.LicensePatterns = input.LicensePatterns
	cfg.Logger = LoggerConfig{Level: input.LogLevel, Format: input.LogFormat, File: input.LogFile}

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Workers <= 0 || input.Workers > MaxWorkers {
		return fmt.Errorf("workers must be between 1 and %d (received %d)", MaxWorkers, input.Workers)
	}
	cfg.Workers = input.Workers

	if input.Precision < 1 || input.Precision > 4 {
		return fmt.Errorf("precision must be between 1 and 4 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, json, csv, yaml", input.Output)
	}

	if input.MaxPages < 1 {
		return fmt.Errorf("max-pages must be at least 1 (received %d)", input.MaxPages)
	}
	cfg.MaxPages = input.MaxPages

	cfg.MetricTimeout = DefaultMetricTimeout
	if input.MetricTimeout != "" {
		d, err := time.ParseDuration(input.MetricTimeout)
		if err != nil || d < 0 {
			return fmt.Errorf("invalid metric-timeout '%s'. expected a duration like 30s", input.MetricTimeout)
		}
		cfg.MetricTimeout = d
	}

	cfg.RegistryURL = strings.TrimSuffix(strings.TrimSpace(input.RegistryURL), "/")
	if cfg.RegistryURL == "" {
		cfg.RegistryURL = DefaultRegistryURL
	}

	return nil
}

// validateBackendConfigs validates cache and history backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	cfg.CacheTTL = DefaultCacheTTL
	if input.CacheTTL != "" {
		ttl, err := time.ParseDuration(input.CacheTTL)
		if err != nil || ttl <= 0 {
			return fmt.Errorf("invalid cache-ttl '%s'. expected a positive duration like 24h", input.CacheTTL)
		}
		cfg.CacheTTL = ttl
	}

	// --- History Backend Validation ---
	cfg.HistoryBackend = schema.DatabaseBackend(strings.ToLower(input.HistoryBackend))
	if cfg.HistoryBackend == "" {
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.HistoryBackend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", input.HistoryBackend)
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	if err := ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return err
	}

	// Cache and history must not share a SQLite file
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.HistoryBackend == schema.SQLiteBackend {
		cachePath := cfg.CacheDBConnect
		if cachePath == "" {
			cachePath = GetCacheDBFilePath()
		}
		historyPath := cfg.HistoryDBConnect
		if historyPath == "" {
			historyPath = GetHistoryDBFilePath()
		}
		if cachePath == historyPath {
			return fmt.Errorf("cache and history storage must use different SQLite database files. Both resolve to %q", cachePath)
		}
	}

	return nil
}

// ProcessWeightsRawInput merges custom weights into the defaults.
// If validateSum is true, it validates that the final weights sum to 1.0.
func ProcessWeightsRawInput(raw WeightsRawInput, validateSum bool) (schema.NetWeights, error) {
	weights := schema.DefaultNetWeights()
	overrides := map[schema.MetricKind]*float64{
		schema.ResponsiveMetric:  raw.Maintainer,
		schema.CorrectnessMetric: raw.Correctness,
		schema.BusFactorMetric:   raw.BusFactor,
		schema.RampUpMetric:      raw.RampUp,
		schema.PullRequestMetric: raw.PRReview,
	}

	sum := 0.0
	for kind, w := range overrides {
		if w != nil {
			if *w < 0 {
				return nil, fmt.Errorf("weight for %s cannot be negative (received %.3f)", kind, *w)
			}
			weights[kind] = *w
		}
		sum += weights[kind]
	}

	if validateSum && (sum < 0.999 || sum > 1.001) {
		return nil, fmt.Errorf("net score weights must sum to 1.0, got %.3f", sum)
	}
	return weights, nil
}

// processWeights converts the raw input into the final cfg.Weights map.
func processWeights(cfg *Config, input *ConfigRawInput) error {
	weights, err := ProcessWeightsRawInput(input.Weights, true)
	if err != nil {
		return err
	}
	cfg.Weights = weights
	return nil
}

// resolveTargets expands positional arguments into package URLs. An argument
// naming an existing file is read as a newline-delimited URL list.
func resolveTargets(cfg *Config, input *ConfigRawInput) error {
	cfg.URLs = nil
	for _, target := range input.Targets {
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if info, err := os.Stat(target); err == nil && !info.IsDir() {
			urls, err := ReadURLFile(target)
			if err != nil {
				return err
			}
			cfg.URLs = append(cfg.URLs, urls...)
			continue
		}
		cfg.URLs = append(cfg.URLs, target)
	}
	return nil
}

// ReadURLFile reads one URL per line, skipping blank lines and # comments.
func ReadURLFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open URL file %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read URL file %s: %w", path, err)
	}
	return urls, nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
}
