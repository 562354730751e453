package contract

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/trustscore/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validInput mirrors the viper defaults set by the CLI.
func validInput() *ConfigRawInput {
	return &ConfigRawInput{
		Workers:      4,
		Output:       "text",
		Precision:    2,
		Color:        "yes",
		MaxPages:     DefaultMaxPages,
		CacheBackend: "sqlite",
		RegistryURL:  DefaultRegistryURL,
	}
}

func ptr(v float64) *float64 { return &v }

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError string
	}{
		{name: "valid minimal config"},
		{name: "workers too low", mutate: func(in *ConfigRawInput) { in.Workers = 0 }, expectError: "workers must be between"},
		{name: "workers too high", mutate: func(in *ConfigRawInput) { in.Workers = MaxWorkers + 1 }, expectError: "workers must be between"},
		{name: "precision too low", mutate: func(in *ConfigRawInput) { in.Precision = 0 }, expectError: "precision"},
		{name: "unknown output", mutate: func(in *ConfigRawInput) { in.Output = "xml" }, expectError: "invalid output format"},
		{name: "bad color", mutate: func(in *ConfigRawInput) { in.Color = "maybe" }, expectError: "--color"},
		{name: "zero max pages", mutate: func(in *ConfigRawInput) { in.MaxPages = 0 }, expectError: "max-pages"},
		{name: "bad metric timeout", mutate: func(in *ConfigRawInput) { in.MetricTimeout = "soon" }, expectError: "metric-timeout"},
		{name: "negative metric timeout", mutate: func(in *ConfigRawInput) { in.MetricTimeout = "-1s" }, expectError: "metric-timeout"},
		{name: "unknown cache backend", mutate: func(in *ConfigRawInput) { in.CacheBackend = "redis" }, expectError: "invalid cache backend"},
		{name: "mysql without connection", mutate: func(in *ConfigRawInput) { in.CacheBackend = "mysql" }, expectError: "connection string is required"},
		{name: "bad cache ttl", mutate: func(in *ConfigRawInput) { in.CacheTTL = "0s" }, expectError: "cache-ttl"},
		{name: "unknown history backend", mutate: func(in *ConfigRawInput) { in.HistoryBackend = "mongo" }, expectError: "invalid history backend"},
		{
			name: "cache and history share a sqlite file",
			mutate: func(in *ConfigRawInput) {
				in.CacheDBConnect = "/tmp/shared.db"
				in.HistoryBackend = "sqlite"
				in.HistoryDBConnect = "/tmp/shared.db"
			},
			expectError: "different SQLite database files",
		},
		{name: "weights do not sum to one", mutate: func(in *ConfigRawInput) { in.Weights.Correctness = ptr(0.9) }, expectError: "sum to 1.0"},
		{name: "negative weight", mutate: func(in *ConfigRawInput) { in.Weights.PRReview = ptr(-0.1) }, expectError: "cannot be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			if tt.mutate != nil {
				tt.mutate(in)
			}
			err := ProcessAndValidate(&Config{}, in)
			if tt.expectError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectError)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestProcessAndValidateDefaults(t *testing.T) {
	in := validInput()
	in.Output = "JSON"
	in.RegistryURL = "https://registry.example.com/ "
	in.GitHubToken = "  ghp_abc  "
	in.Color = "no"
	in.LogLevel = "2"

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, in))

	assert.Equal(t, schema.JSONOut, cfg.Output)
	assert.Equal(t, "https://registry.example.com", cfg.RegistryURL)
	assert.Equal(t, "ghp_abc", cfg.GitHubToken)
	assert.False(t, cfg.UseColors)
	assert.Equal(t, DefaultCacheTTL, cfg.CacheTTL)
	assert.Equal(t, time.Duration(0), cfg.MetricTimeout)
	assert.Empty(t, cfg.HistoryBackend)
	assert.Equal(t, "2", cfg.Logger.Level)
	assert.Equal(t, schema.DefaultNetWeights(), cfg.Weights)
}

func TestProcessAndValidateEmptyRegistryURL(t *testing.T) {
	in := validInput()
	in.RegistryURL = ""
	in.MetricTimeout = "250ms"

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, in))
	assert.Equal(t, DefaultRegistryURL, cfg.RegistryURL)
	assert.Equal(t, 250*time.Millisecond, cfg.MetricTimeout)
}

func TestResolveTargets(t *testing.T) {
	dir := t.TempDir()
	urlFile := filepath.Join(dir, "urls.txt")
	content := "# popular packages\nhttps://github.com/expressjs/express\n\n  https://www.npmjs.com/package/lodash  \n"
	require.NoError(t, os.WriteFile(urlFile, []byte(content), 0o644))

	in := validInput()
	in.Targets = []string{"https://github.com/acme/widget", urlFile, "  "}

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, in))
	assert.Equal(t, []string{
		"https://github.com/acme/widget",
		"https://github.com/expressjs/express",
		"https://www.npmjs.com/package/lodash",
	}, cfg.URLs)
}

func TestReadURLFileMissing(t *testing.T) {
	_, err := ReadURLFile(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open URL file")
}

func TestProcessWeightsRawInput(t *testing.T) {
	t.Run("partial override keeps defaults", func(t *testing.T) {
		weights, err := ProcessWeightsRawInput(WeightsRawInput{Maintainer: ptr(0.3), PRReview: ptr(0.2)}, true)
		require.NoError(t, err)
		assert.InDelta(t, 0.3, weights[schema.ResponsiveMetric], 1e-9)
		assert.InDelta(t, 0.2, weights[schema.PullRequestMetric], 1e-9)
		assert.InDelta(t, 0.3, weights[schema.CorrectnessMetric], 1e-9)
	})

	t.Run("sum not validated", func(t *testing.T) {
		weights, err := ProcessWeightsRawInput(WeightsRawInput{BusFactor: ptr(2)}, false)
		require.NoError(t, err)
		assert.InDelta(t, 2.0, weights[schema.BusFactorMetric], 1e-9)
	})
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		name    string
		backend schema.DatabaseBackend
		connStr string
		wantErr bool
	}{
		{"sqlite needs nothing", schema.SQLiteBackend, "", false},
		{"none needs nothing", schema.NoneBackend, "", false},
		{"mysql valid", schema.MySQLBackend, "root:pw@tcp(localhost:3306)/trust", false},
		{"mysql missing tcp", schema.MySQLBackend, "root:pw@localhost/trust", true},
		{"mysql missing db", schema.MySQLBackend, "root:pw@tcp(localhost:3306)", true},
		{"postgres valid", schema.PostgreSQLBackend, "host=localhost dbname=trust", false},
		{"postgres missing host", schema.PostgreSQLBackend, "dbname=trust", true},
		{"postgres missing db", schema.PostgreSQLBackend, "host=localhost", true},
		{"postgres empty", schema.PostgreSQLBackend, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tt.backend, tt.connStr)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigClone(t *testing.T) {
	orig := &Config{
		URLs:            []string{"https://github.com/a/b"},
		LicensePatterns: []string{"MIT"},
		Weights:         schema.DefaultNetWeights(),
		Workers:         3,
	}
	clone := orig.Clone()

	clone.URLs[0] = "changed"
	clone.LicensePatterns[0] = "GPL"
	clone.Weights[schema.RampUpMetric] = 0.9

	assert.Equal(t, "https://github.com/a/b", orig.URLs[0])
	assert.Equal(t, "MIT", orig.LicensePatterns[0])
	assert.InDelta(t, 0.1, orig.Weights[schema.RampUpMetric], 1e-9)
	assert.Equal(t, 3, clone.Workers)
}

func TestConfigParams(t *testing.T) {
	cfg := &Config{Weights: schema.NetWeights{schema.BusFactorMetric: 0.5}, MaxPages: 2, CloneRepos: true}
	params := cfg.ConfigParams()

	assert.Equal(t, map[string]float64{"bus_factor": 0.5}, params["weights"])
	assert.Equal(t, 2, params["max_pages"])
	assert.Equal(t, true, params["clone"])
}

func TestProcessProfilingConfig(t *testing.T) {
	profile := &ProfileConfig{}
	ProcessProfilingConfig(profile, "")
	assert.False(t, profile.Enabled)

	ProcessProfilingConfig(profile, "trust")
	assert.True(t, profile.Enabled)
	assert.Equal(t, "trust", profile.Prefix)
}
