// Package batch runs the extraction engine over a folder of receipts and
// appends the results to the extraction log.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"rto-receipt-reconciler/internal/extraction"
	"rto-receipt-reconciler/internal/models"
	"rto-receipt-reconciler/pkg/errors"
	"rto-receipt-reconciler/pkg/logger"
)

// Config controls which files are picked up and how many are read at once.
type Config struct {
	Workers    int      `json:"workers"`
	Extensions []string `json:"extensions"`
}

// DefaultConfig returns the default batch configuration
func DefaultConfig() *Config {
	return &Config{
		Workers:    4,
		Extensions: []string{".pdf"},
	}
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if len(c.Extensions) == 0 {
		return fmt.Errorf("at least one document extension is required")
	}
	for _, ext := range c.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("extension %q must start with a dot", ext)
		}
	}
	return nil
}

func (c *Config) accepts(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range c.Extensions {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

// Result is the outcome of one batch run. Records keep input order;
// documents that failed appear only in Failures.
type Result struct {
	RunID    string
	Records  []*models.Record
	Failures []*errors.ReconcilerError
	Stats    logger.ProgressStats
}

// BySchema counts records per schema.
func (r *Result) BySchema() map[models.Schema]int {
	counts := make(map[models.Schema]int)
	for _, rec := range r.Records {
		counts[rec.Schema]++
	}
	return counts
}

// Processor extracts records from many documents concurrently.
type Processor struct {
	config     *Config
	extractor  TextExtractor
	dispatcher *extraction.Dispatcher
	logger     logger.Logger
}

// NewProcessor creates a processor. A nil logger uses the global one.
func NewProcessor(config *Config, extractor TextExtractor, log logger.Logger) (*Processor, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "batch", config, err)
	}
	if extractor == nil {
		return nil, fmt.Errorf("text extractor is required")
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	return &Processor{
		config:     config,
		extractor:  extractor,
		dispatcher: extraction.NewDispatcher(),
		logger:     log.WithComponent("batch"),
	}, nil
}

// ListDocuments returns the accepted files directly inside dir, sorted by name.
func (p *Processor) ListDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.FileError(errors.CodeDirectoryError, dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !p.config.accepts(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// ProcessDirectory processes every accepted document in dir.
func (p *Processor) ProcessDirectory(ctx context.Context, dir string) (*Result, error) {
	paths, err := p.ListDocuments(dir)
	if err != nil {
		return nil, err
	}
	return p.ProcessFiles(ctx, paths)
}

type outcome struct {
	record *models.Record
	err    *errors.ReconcilerError
}

// ProcessFiles reads and parses each path. A document that cannot be read
// is logged and skipped; it never aborts the batch. The only error
// returned is context cancellation, together with the partial result.
func (p *Processor) ProcessFiles(ctx context.Context, paths []string) (*Result, error) {
	runID := uuid.NewString()
	log := p.logger.WithField("run_id", runID)

	tracker := logger.NewProgressTracker(logger.ProgressConfig{
		Operation: "extract receipts",
		Total:     int64(len(paths)),
		Logger:    log,
	})

	outcomes := make([]*outcome, len(paths))
	semaphore := make(chan struct{}, p.config.Workers)
	var wg sync.WaitGroup

schedule:
	for i, path := range paths {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break schedule
		case semaphore <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			defer func() { <-semaphore }()

			out := p.processOne(ctx, path, log)
			if out.err != nil {
				tracker.Failed()
			} else {
				tracker.Succeeded()
			}
			outcomes[i] = out
		}(i, path)
	}
	wg.Wait()

	result := &Result{RunID: runID}
	for _, out := range outcomes {
		switch {
		case out == nil:
		case out.err != nil:
			result.Failures = append(result.Failures, out.err)
		default:
			result.Records = append(result.Records, out.record)
		}
	}
	result.Stats = tracker.Complete()

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

func (p *Processor) processOne(ctx context.Context, path string, log logger.Logger) *outcome {
	name := filepath.Base(path)
	fileLog := log.WithField("file", name)

	text, err := p.extractor.ExtractText(ctx, path)
	if err == nil && strings.TrimSpace(text) == "" {
		return p.fail(fileLog, errors.DocumentReadError(path, nil))
	}
	if err != nil {
		return p.fail(fileLog, errors.DocumentReadError(path, err))
	}

	record := p.dispatcher.Dispatch(text, name)
	fileLog.WithFields(logger.Fields{
		"schema":  record.Schema,
		"missing": len(record.MissingFields()),
	}).Infof("Parsed %s as %s", name, record.Schema)

	return &outcome{record: record}
}

func (p *Processor) fail(log logger.Logger, err *errors.ReconcilerError) *outcome {
	log.WithError(err).Errorf("Failed %s", err.Context["file_path"])
	return &outcome{err: err}
}
