package sovdev

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	defaultFileDir      = "./logs/"
	defaultFileMaxBytes = 52428800 // 50 MiB
	defaultFileBackups  = 5
)

// config is the immutable run configuration, resolved once per Initialize.
type config struct {
	consoleEnabled bool
	fileEnabled    bool
	fileDir        string
	fileMaxBytes   int64
	fileBackups    int

	logsEndpoint    string
	metricsEndpoint string
	tracesEndpoint  string
	headers         map[string]string
	hostOverride    string
	environment     string
}

func (c *config) hasOTLP() bool {
	return c.logsEndpoint != "" || c.metricsEndpoint != "" || c.tracesEndpoint != ""
}

// loadConfig reads the recognized environment variables and applies the smart
// defaults. It only ever warns; initialization never aborts on bad values.
func loadConfig() *config {
	cfg := &config{
		logsEndpoint:    signalEndpoint("OTEL_EXPORTER_OTLP_LOGS_ENDPOINT", "/v1/logs"),
		metricsEndpoint: signalEndpoint("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", "/v1/metrics"),
		tracesEndpoint:  signalEndpoint("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "/v1/traces"),
		environment:     envOrDefault("DEPLOYMENT_ENVIRONMENT", "development"),
	}

	cfg.consoleEnabled = parseConsoleEnv(cfg.hasOTLP())
	cfg.fileEnabled = parseBoolEnv("LOG_TO_FILE", false)
	cfg.fileDir = strings.TrimSpace(envOrDefault("LOG_FILE_PATH", defaultFileDir))
	cfg.fileMaxBytes = parseIntEnv("LOG_FILE_MAX_BYTES", defaultFileMaxBytes)
	cfg.fileBackups = int(parseIntEnv("LOG_FILE_BACKUP_COUNT", defaultFileBackups))
	cfg.headers, cfg.hostOverride = parseOTLPHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))

	if !cfg.consoleEnabled && !cfg.fileEnabled && !cfg.hasOTLP() {
		diag.Warn("All log transports disabled (console, file, and OTLP)")
	}

	return cfg
}

// signalEndpoint resolves the endpoint for one OTLP signal: the signal-specific
// variable wins; otherwise the generic endpoint gets the standard path suffix.
func signalEndpoint(name, path string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	if g := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")); g != "" {
		return strings.TrimSuffix(g, "/") + path
	}
	return ""
}

// parseConsoleEnv handles LOG_TO_CONSOLE with its "auto" smart default:
// console is on exactly when no OTLP endpoint is configured.
func parseConsoleEnv(hasOTLP bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_TO_CONSOLE")))
	switch value {
	case "", "auto":
		return !hasOTLP
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		diag.Warn(fmt.Sprintf("Warning: invalid LOG_TO_CONSOLE value %q, using auto", value))
		return !hasOTLP
	}
}

func parseBoolEnv(name string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(name)))
	switch value {
	case "":
		return fallback
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		diag.Warn(fmt.Sprintf("Warning: invalid value %q for %s, using default: %v", value, name, fallback))
		return fallback
	}
}

func parseIntEnv(name string, fallback int64) int64 {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		diag.Warn(fmt.Sprintf("Warning: invalid value %q for %s, using default: %d", value, name, fallback))
		return fallback
	}
	return n
}

func envOrDefault(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

// parseOTLPHeaders accepts either a JSON object or the OTel-standard
// "key=value,key=value" list. A "Host" entry is split out: Go's HTTP client
// ignores Host in the header map, so it has to be forced on the request.
func parseOTLPHeaders(raw string) (map[string]string, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ""
	}

	headers := make(map[string]string)
	if strings.HasPrefix(raw, "{") {
		if err := json.Unmarshal([]byte(raw), &headers); err != nil {
			diag.Warn(fmt.Sprintf("Warning: invalid OTEL_EXPORTER_OTLP_HEADERS JSON: %v", err))
			return nil, ""
		}
	} else {
		for _, pair := range strings.Split(raw, ",") {
			parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
			if len(parts) == 2 {
				headers[parts[0]] = parts[1]
			}
		}
		if len(headers) == 0 {
			diag.Warn(fmt.Sprintf("Warning: unparseable OTEL_EXPORTER_OTLP_HEADERS value %q", raw))
			return nil, ""
		}
	}

	host := headers["Host"]
	delete(headers, "Host")
	if len(headers) == 0 {
		headers = nil
	}
	return headers, host
}
