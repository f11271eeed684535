package logger

import (
	"fmt"
	"sync"
	"time"
)

// ProgressTracker counts documents through a batch and logs periodically.
// It is safe for concurrent use by worker goroutines.
type ProgressTracker struct {
	logger      Logger
	operation   string
	total       int64
	succeeded   int64
	failed      int64
	startTime   time.Time
	lastLogTime time.Time
	logInterval time.Duration
	mutex       sync.Mutex
}

// ProgressConfig configures progress tracking behavior
type ProgressConfig struct {
	Operation   string        `json:"operation"`
	Total       int64         `json:"total"`
	LogInterval time.Duration `json:"log_interval"`
	Logger      Logger        `json:"-"`
}

// NewProgressTracker creates a new progress tracker
func NewProgressTracker(config ProgressConfig) *ProgressTracker {
	if config.Logger == nil {
		config.Logger = GetGlobalLogger()
	}
	if config.LogInterval == 0 {
		config.LogInterval = 5 * time.Second
	}

	now := time.Now()
	tracker := &ProgressTracker{
		logger:      config.Logger.WithComponent("progress"),
		operation:   config.Operation,
		total:       config.Total,
		startTime:   now,
		lastLogTime: now,
		logInterval: config.LogInterval,
	}

	tracker.logger.WithFields(Fields{
		"operation": config.Operation,
		"total":     config.Total,
	}).Info("Starting operation")

	return tracker
}

// Succeeded records one successfully processed item.
func (p *ProgressTracker) Succeeded() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.succeeded++
	p.maybeLog()
}

// Failed records one item that was skipped after an error.
func (p *ProgressTracker) Failed() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.failed++
	p.maybeLog()
}

// Complete logs final statistics and returns them.
func (p *ProgressTracker) Complete() ProgressStats {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	stats := p.statsLocked(time.Now())
	p.logger.WithFields(Fields{
		"operation": p.operation,
		"total":     stats.Total,
		"succeeded": stats.Succeeded,
		"failed":    stats.Failed,
		"duration":  stats.Duration.String(),
		"rate":      fmt.Sprintf("%.2f/sec", stats.Rate),
	}).Info("Operation completed")

	return stats
}

// GetStats returns current progress statistics
func (p *ProgressTracker) GetStats() ProgressStats {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.statsLocked(time.Now())
}

func (p *ProgressTracker) maybeLog() {
	now := time.Now()
	if now.Sub(p.lastLogTime) < p.logInterval {
		return
	}
	p.lastLogTime = now

	stats := p.statsLocked(now)
	p.logger.WithFields(Fields{
		"operation":  p.operation,
		"processed":  stats.Processed(),
		"total":      stats.Total,
		"percentage": fmt.Sprintf("%.1f%%", stats.Percentage),
	}).Info("Progress update")
}

func (p *ProgressTracker) statsLocked(now time.Time) ProgressStats {
	duration := now.Sub(p.startTime)
	processed := p.succeeded + p.failed

	var rate float64
	if duration.Seconds() > 0 {
		rate = float64(processed) / duration.Seconds()
	}

	var percentage float64
	if p.total > 0 {
		percentage = float64(processed) / float64(p.total) * 100
	}

	return ProgressStats{
		Operation:  p.operation,
		Total:      p.total,
		Succeeded:  p.succeeded,
		Failed:     p.failed,
		Percentage: percentage,
		Duration:   duration,
		Rate:       rate,
	}
}

// ProgressStats contains progress statistics
type ProgressStats struct {
	Operation  string        `json:"operation"`
	Total      int64         `json:"total"`
	Succeeded  int64         `json:"succeeded"`
	Failed     int64         `json:"failed"`
	Percentage float64       `json:"percentage"`
	Duration   time.Duration `json:"duration"`
	Rate       float64       `json:"rate"`
}

// Processed is the number of items finished either way.
func (ps ProgressStats) Processed() int64 {
	return ps.Succeeded + ps.Failed
}

// String returns a human-readable representation of the progress
func (ps ProgressStats) String() string {
	return fmt.Sprintf("%s: %d/%d processed (%d failed) in %v",
		ps.Operation, ps.Processed(), ps.Total, ps.Failed, ps.Duration.Round(time.Millisecond))
}

// OperationLogger provides structured logging for operations with timing
type OperationLogger struct {
	logger    Logger
	operation string
	fields    Fields
	startTime time.Time
}

// NewOperationLogger creates a new operation logger
func NewOperationLogger(operation string, logger Logger) *OperationLogger {
	if logger == nil {
		logger = GetGlobalLogger()
	}

	ol := &OperationLogger{
		logger:    logger.WithComponent("operation"),
		operation: operation,
		fields:    make(Fields),
		startTime: time.Now(),
	}

	ol.logger.WithField("operation", operation).Info("Starting operation")
	return ol
}

// WithField adds a field to the operation context
func (ol *OperationLogger) WithField(key string, value interface{}) *OperationLogger {
	ol.fields[key] = value
	return ol
}

func (ol *OperationLogger) baseFields() Fields {
	fields := Fields{"operation": ol.operation}
	for k, v := range ol.fields {
		fields[k] = v
	}
	return fields
}

// Step logs a step within the operation
func (ol *OperationLogger) Step(step string) {
	fields := ol.baseFields()
	fields["step"] = step
	ol.logger.WithFields(fields).Info("Operation step")
}

// Success completes the operation successfully
func (ol *OperationLogger) Success(message string) {
	fields := ol.baseFields()
	fields["duration"] = time.Since(ol.startTime).String()
	fields["status"] = "success"
	ol.logger.WithFields(fields).Info(message)
}

// Error completes the operation with an error
func (ol *OperationLogger) Error(err error, message string) {
	fields := ol.baseFields()
	fields["duration"] = time.Since(ol.startTime).String()
	fields["status"] = "error"
	ol.logger.WithError(err).WithFields(fields).Error(message)
}

// Warning logs a warning during the operation
func (ol *OperationLogger) Warning(message string) {
	ol.logger.WithFields(ol.baseFields()).Warn(message)
}

// TimedOperation executes a function and logs timing information
func TimedOperation(operation string, logger Logger, fn func() error) error {
	ol := NewOperationLogger(operation, logger)

	err := fn()
	if err != nil {
		ol.Error(err, "Operation failed")
	} else {
		ol.Success("Operation completed successfully")
	}

	return err
}
