package sovdev

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearTelemetryEnv isolates a test from ambient configuration.
func clearTelemetryEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"LOG_TO_CONSOLE", "LOG_TO_FILE", "LOG_FILE_PATH",
		"LOG_FILE_MAX_BYTES", "LOG_FILE_BACKUP_COUNT",
		"SERVICE_VERSION", "DEPLOYMENT_ENVIRONMENT",
		"OTEL_EXPORTER_OTLP_ENDPOINT",
		"OTEL_EXPORTER_OTLP_LOGS_ENDPOINT",
		"OTEL_EXPORTER_OTLP_METRICS_ENDPOINT",
		"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT",
		"OTEL_EXPORTER_OTLP_HEADERS",
	} {
		t.Setenv(name, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearTelemetryEnv(t)
	logs := captureDiag(t)

	cfg := loadConfig()

	assert.True(t, cfg.consoleEnabled, "console defaults on without OTLP")
	assert.False(t, cfg.fileEnabled)
	assert.Equal(t, defaultFileDir, cfg.fileDir)
	assert.Equal(t, int64(defaultFileMaxBytes), cfg.fileMaxBytes)
	assert.Equal(t, defaultFileBackups, cfg.fileBackups)
	assert.False(t, cfg.hasOTLP())
	assert.Equal(t, "development", cfg.environment)
	assert.False(t, diagContains(logs, "All log transports disabled"))
}

func TestLoadConfigConsoleAutoWithOTLP(t *testing.T) {
	clearTelemetryEnv(t)
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://otel-collector:4318")

	cfg := loadConfig()

	assert.False(t, cfg.consoleEnabled, "console defaults off once OTLP is configured")
	assert.Equal(t, "http://otel-collector:4318/v1/logs", cfg.logsEndpoint)
	assert.Equal(t, "http://otel-collector:4318/v1/metrics", cfg.metricsEndpoint)
	assert.Equal(t, "http://otel-collector:4318/v1/traces", cfg.tracesEndpoint)
}

func TestLoadConfigConsoleExplicitOverridesAuto(t *testing.T) {
	clearTelemetryEnv(t)
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://otel-collector:4318")
	t.Setenv("LOG_TO_CONSOLE", "true")

	cfg := loadConfig()
	assert.True(t, cfg.consoleEnabled)
}

func TestLoadConfigWarnsWhenAllTransportsOff(t *testing.T) {
	clearTelemetryEnv(t)
	t.Setenv("LOG_TO_CONSOLE", "false")
	logs := captureDiag(t)

	cfg := loadConfig()

	assert.False(t, cfg.consoleEnabled)
	assert.True(t, diagContains(logs, "All log transports disabled"))
}

func TestSignalEndpointSpecificWins(t *testing.T) {
	clearTelemetryEnv(t)
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://generic:4318/")
	t.Setenv("OTEL_EXPORTER_OTLP_LOGS_ENDPOINT", "https://logs.example.com/v1/logs")

	cfg := loadConfig()
	assert.Equal(t, "https://logs.example.com/v1/logs", cfg.logsEndpoint)
	assert.Equal(t, "http://generic:4318/v1/metrics", cfg.metricsEndpoint)
}

func TestParseBoolEnv(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"", false},
		{"true", true},
		{"1", true},
		{"yes", true},
		{"false", false},
		{"no", false},
		{"banana", false},
	}
	for _, tt := range tests {
		t.Run("value="+tt.value, func(t *testing.T) {
			captureDiag(t)
			t.Setenv("LOG_TO_FILE", tt.value)
			assert.Equal(t, tt.want, parseBoolEnv("LOG_TO_FILE", false))
		})
	}
}

func TestParseIntEnvInvalidFallsBack(t *testing.T) {
	logs := captureDiag(t)
	t.Setenv("LOG_FILE_MAX_BYTES", "not-a-number")

	got := parseIntEnv("LOG_FILE_MAX_BYTES", defaultFileMaxBytes)

	assert.Equal(t, int64(defaultFileMaxBytes), got)
	assert.True(t, diagContains(logs, "Warning: invalid value"))
}

func TestParseOTLPHeaders(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		want     map[string]string
		wantHost string
	}{
		{name: "empty", raw: "", want: nil},
		{
			name: "json object",
			raw:  `{"Authorization":"Bearer abc","X-Scope-OrgID":"tenant"}`,
			want: map[string]string{"Authorization": "Bearer abc", "X-Scope-OrgID": "tenant"},
		},
		{
			name:     "json with host override",
			raw:      `{"Host":"otlp.internal","Authorization":"Basic xyz"}`,
			want:     map[string]string{"Authorization": "Basic xyz"},
			wantHost: "otlp.internal",
		},
		{
			name: "comma list",
			raw:  "Authorization=Bearer abc,X-Scope-OrgID=tenant",
			want: map[string]string{"Authorization": "Bearer abc", "X-Scope-OrgID": "tenant"},
		},
		{
			name:     "host only",
			raw:      `{"Host":"otlp.internal"}`,
			want:     nil,
			wantHost: "otlp.internal",
		},
		{name: "garbage json", raw: `{"Authorization":`, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			captureDiag(t)
			headers, host := parseOTLPHeaders(tt.raw)
			assert.Equal(t, tt.want, headers)
			assert.Equal(t, tt.wantHost, host)
		})
	}
}

func TestExporterClientHostOverride(t *testing.T) {
	cfg := &config{hostOverride: "otlp.internal"}
	client := cfg.exporterClient()
	require.NotNil(t, client)

	transport, ok := client.Transport.(*hostOverrideTransport)
	require.True(t, ok)
	assert.Equal(t, "otlp.internal", transport.host)

	assert.Nil(t, (&config{}).exporterClient())
}
