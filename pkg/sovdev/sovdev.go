// Package sovdev is a structured telemetry client: every call through its
// façade produces one canonical log record fanned out to the configured
// sinks (console, rotating files, OTLP), one span, and the standard metric
// measurements, all correlated by trace id.
//
// Initialize once at startup, log through Log / LogJobStatus / LogJobProgress,
// and Flush before exit.
package sovdev

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidConfiguration reports an empty or whitespace-only service name.
	ErrInvalidConfiguration = errors.New("invalid configuration: service name is required")

	// ErrUninitialized reports a logging call before Initialize.
	ErrUninitialized = errors.New("logger not initialized: call Initialize at application startup")
)

const defaultFlushTimeout = 30 * time.Second

// state is everything one Initialize produced. It is swapped atomically under
// stateMu; logging calls take a read lock and work on a consistent snapshot.
type state struct {
	serviceName    string
	serviceVersion string
	sessionID      string

	cfg     *config
	peers   *registry
	console *consoleSink
	files   *fileSink
	tel     *telemetry
}

var (
	stateMu sync.RWMutex
	current *state
)

// Initialize resolves configuration, builds the enabled pipelines, and
// installs the process-wide logger state. Calling it again replaces the
// previous state after a best-effort shutdown of its pipelines. The only
// error it returns is an invalid service name; transport problems are
// reported to diagnostics and degrade the fan-out instead of failing it.
func Initialize(serviceName, serviceVersion string, peerServices map[string]string) error {
	name := strings.TrimSpace(serviceName)
	if name == "" {
		return ErrInvalidConfiguration
	}

	version := strings.TrimSpace(serviceVersion)
	if version == "" {
		version = envOrDefault("SERVICE_VERSION", "1.0.0")
	}

	cfg := loadConfig()
	sessionID := uuid.NewString()

	ctx := context.Background()
	res := newResource(ctx, name, version, cfg.environment, sessionID)

	s := &state{
		serviceName:    name,
		serviceVersion: version,
		sessionID:      sessionID,
		cfg:            cfg,
		peers:          newRegistry(name, peerServices),
		console:        newConsoleSink(os.Stderr),
		tel:            newTelemetry(ctx, cfg, res, name),
	}
	if cfg.fileEnabled {
		s.files = newFileSink(cfg.fileDir, cfg.fileMaxBytes, cfg.fileBackups)
	}

	stateMu.Lock()
	prev := current
	current = s
	stateMu.Unlock()

	if prev != nil {
		prev.teardown()
	}

	diag.Info(fmt.Sprintf(
		"Sovdev Logger initialized: service=%s version=%s environment=%s session=%s console=%t file=%t otlp=%t",
		name, version, cfg.environment, sessionID,
		cfg.consoleEnabled, cfg.fileEnabled, cfg.hasOTLP()))

	return nil
}

// Log records one operation. peerService is a friendly name from the
// registered mapping (or INTERNAL / empty for the service itself); input and
// response are arbitrary JSON-marshalable payloads; exception attaches a
// sanitized error triple; traceID correlates the record with an id from
// GenerateTraceID when no span is active.
func Log(level Level, functionName, message, peerService string,
	input, response any, exception error, traceID string) error {
	return logInternal(level, functionName, message, peerService,
		input, response, exception, traceID, logTypeTransaction)
}

// LogJobStatus records a job lifecycle transition. The record's input carries
// job_name and job_status merged over the caller's extras.
func LogJobStatus(level Level, functionName, jobName, status, peerService string,
	input map[string]any, traceID string) error {
	enriched := make(map[string]any, len(input)+2)
	for k, v := range input {
		enriched[k] = v
	}
	enriched["job_name"] = jobName
	enriched["job_status"] = status

	message := fmt.Sprintf("Job %s: %s", status, jobName)
	return logInternal(level, functionName, message, peerService,
		enriched, nil, nil, traceID, logTypeJobStatus)
}

// LogJobProgress records one processed item of a batch. progress_percentage
// is rounded to the nearest integer; a zero total yields zero.
func LogJobProgress(level Level, functionName, itemID string, current, total int,
	peerService string, input map[string]any, traceID string) error {
	progress := 0
	if total != 0 {
		progress = int(math.Round(float64(current) / float64(total) * 100))
	}

	enriched := make(map[string]any, len(input)+4)
	for k, v := range input {
		enriched[k] = v
	}
	enriched["item_id"] = itemID
	enriched["current_item"] = current
	enriched["total_items"] = total
	enriched["progress_percentage"] = progress

	message := fmt.Sprintf("Processing %s (%d/%d)", itemID, current, total)
	return logInternal(level, functionName, message, peerService,
		enriched, nil, nil, traceID, logTypeJobProgress)
}

// logInternal is the single fan-out path every façade operation goes through:
// resolve the peer, open the call span, build the record, count the operation,
// serialize once, then write to each enabled sink.
func logInternal(level Level, functionName, message, peerService string,
	input, response any, exception error, traceID, logType string) error {
	stateMu.RLock()
	s := current
	stateMu.RUnlock()
	if s == nil {
		return ErrUninitialized
	}

	resolvedPeer := s.peers.resolve(peerService)

	ctx, span := s.tel.startCallSpan(context.Background(), functionName,
		level, logType, resolvedPeer, s.serviceName, s.serviceVersion)
	defer endCallSpan(span, level, message, exception, input, response)

	rec := s.buildRecord(ctx, level, functionName, message, resolvedPeer,
		input, response, exception, traceID, logType)

	op := s.tel.beginOperation(ctx, rec, level, exception)
	defer op.end(ctx)

	line, err := json.Marshal(rec)
	if err != nil {
		diag.Warn(fmt.Sprintf("Sovdev Logger failed: record serialization: %v", err))
		return nil
	}

	if s.cfg.consoleEnabled {
		s.console.write(line)
	}
	if s.files != nil {
		s.files.write(level, line)
	}
	s.tel.emitLog(ctx, rec, level)

	return nil
}

// Flush drains and shuts down the OTLP pipelines with the default 30 second
// deadline. Console and file sinks are unbuffered and keep working afterwards.
func Flush() error {
	return FlushWithTimeout(defaultFlushTimeout)
}

// FlushWithTimeout is Flush with an explicit deadline. It is idempotent, and
// a no-op with a diagnostic when called before Initialize.
func FlushWithTimeout(timeout time.Duration) error {
	stateMu.RLock()
	s := current
	stateMu.RUnlock()
	if s == nil {
		diag.Warn("Warning: Flush called before Initialize; nothing to flush")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.tel.flushAndShutdown(ctx)
}

// GenerateTraceID returns a fresh trace id for correlating related records
// made outside any span.
func GenerateTraceID() string {
	return newTraceID()
}

// teardown releases a replaced state's resources. Best effort with a short
// deadline; failures are already reported inside flushAndShutdown.
func (s *state) teardown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.tel.flushAndShutdown(ctx)
	if s.files != nil {
		s.files.close()
	}
}

// reset tears down the process-global state entirely. Tests only.
func reset() {
	stateMu.Lock()
	s := current
	current = nil
	stateMu.Unlock()
	if s != nil {
		s.teardown()
	}
}
