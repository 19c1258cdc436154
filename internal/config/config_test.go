package config

import (
	"bytes"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RequiredVariables(t *testing.T) {
	// Clear all environment variables
	clearEnv := func() {
		os.Unsetenv("PORT")
		os.Unsetenv("DATASET_PATH")
		os.Unsetenv("PARAMETER")
		os.Unsetenv("PLAYBACK_RATES")
		os.Unsetenv("TRANSPORT_URL")
		os.Unsetenv("EXPORT_DIR")
		os.Unsetenv("S3_BUCKET")
		os.Unsetenv("S3_REGION")
		os.Unsetenv("AWS_ACCESS_KEY_ID")
		os.Unsetenv("AWS_SECRET_ACCESS_KEY")
		os.Unsetenv("LOG_FORMAT")
		os.Unsetenv("LOG_LEVEL")
	}

	t.Run("missing DATASET_PATH returns error", func(t *testing.T) {
		clearEnv()

		_, err := Load()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDatasetPathRequired)
	})

	t.Run("all required variables present succeeds", func(t *testing.T) {
		clearEnv()
		t.Setenv("DATASET_PATH", "/data/positions.json")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "/data/positions.json", cfg.DatasetPath)
	})
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATASET_PATH", "/data/positions.json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "LAeq", cfg.Parameter)
	assert.Equal(t, []float64{0.5, 1.0, 1.5, 2.0}, cfg.PlaybackRates)
	assert.Equal(t, "/tmp/noisedesk-exports", cfg.ExportDir)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_CustomValues(t *testing.T) {
	t.Setenv("DATASET_PATH", "/custom/data.json")
	t.Setenv("PORT", "3000")
	t.Setenv("PARAMETER", "LZeq")
	t.Setenv("PLAYBACK_RATES", "1.0,2.0,4.0")
	t.Setenv("TRANSPORT_URL", "http://player:9000/commands")
	t.Setenv("EXPORT_DIR", "/custom/exports")
	t.Setenv("S3_BUCKET", "my-bucket")
	t.Setenv("S3_REGION", "us-east-1")
	t.Setenv("AWS_ACCESS_KEY_ID", "access-key")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret-key")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "LZeq", cfg.Parameter)
	assert.Equal(t, []float64{1.0, 2.0, 4.0}, cfg.PlaybackRates)
	assert.Equal(t, "http://player:9000/commands", cfg.TransportURL)
	assert.Equal(t, "/custom/exports", cfg.ExportDir)
	assert.Equal(t, "my-bucket", cfg.S3Bucket)
	assert.Equal(t, "us-east-1", cfg.S3Region)
	assert.Equal(t, "access-key", cfg.AWSAccessKeyID)
	assert.Equal(t, "secret-key", cfg.AWSSecretAccessKey)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("DATASET_PATH", "/data/positions.json")
	t.Setenv("PORT", "not-a-number")

	// go-envconfig returns an error when parsing fails
	_, err := Load()
	require.Error(t, err)
}

func TestConfig_S3Enabled(t *testing.T) {
	tests := []struct {
		name     string
		bucket   string
		region   string
		expected bool
	}{
		{"both set", "bucket", "region", true},
		{"only bucket", "bucket", "", false},
		{"only region", "", "region", false},
		{"neither set", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				S3Bucket: tt.bucket,
				S3Region: tt.region,
			}
			assert.Equal(t, tt.expected, cfg.S3Enabled())
		})
	}
}

func TestConfig_String(t *testing.T) {
	cfg := &Config{
		Port:               8080,
		DatasetPath:        "/data/positions.json",
		Parameter:          "LAeq",
		ExportDir:          "/tmp/test",
		AWSAccessKeyID:     "access-key",
		AWSSecretAccessKey: "secret-key",
		S3Bucket:           "bucket",
		S3Region:           "region",
		LogFormat:          "json",
		LogLevel:           "info",
	}

	str := cfg.String()

	// Should contain non-sensitive values
	assert.Contains(t, str, "8080")
	assert.Contains(t, str, "/data/positions.json")
	assert.Contains(t, str, "/tmp/test")

	// Should NOT contain sensitive values
	assert.NotContains(t, str, "secret-key")
	assert.NotContains(t, str, "access-key")
}

func TestConfig_NewLogger_JSON(t *testing.T) {
	cfg := &Config{
		LogFormat: "json",
		LogLevel:  "info",
	}

	logger := cfg.NewLogger()
	require.NotNil(t, logger)

	// Capture output to verify it's JSON
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, nil)
	testLogger := slog.New(handler)
	testLogger.Info("test message")

	// Should have JSON structure
	assert.Contains(t, buf.String(), `"msg"`)
	assert.Contains(t, buf.String(), "test message")
}

func TestConfig_NewLogger_Text(t *testing.T) {
	cfg := &Config{
		LogFormat: "text",
		LogLevel:  "debug",
	}

	logger := cfg.NewLogger()
	require.NotNil(t, logger)
	// Just verify it returns a valid logger
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"unknown", slog.LevelInfo}, // defaults to info
		{"", slog.LevelInfo},        // defaults to info
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLogLevel(tt.input))
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		cfg := &Config{
			DatasetPath: "/data/positions.json",
		}
		err := cfg.Validate()
		assert.NoError(t, err)
	})

	t.Run("missing dataset path", func(t *testing.T) {
		cfg := &Config{}
		err := cfg.Validate()
		assert.ErrorIs(t, err, ErrDatasetPathRequired)
	})
}
