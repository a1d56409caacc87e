// Package ingest validates and submits document batches to the backend and
// aggregates per-file outcomes in input order.
package ingest

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/fentz26/cortexdesk/internal/models"
	"github.com/fentz26/cortexdesk/internal/transport"
)

// DefaultMaxFileSize is the per-file upload limit.
const DefaultMaxFileSize = 50 * 1024 * 1024

// Uploader is the backend surface the coordinator submits to.
type Uploader interface {
	IngestFiles(ctx context.Context, parts []transport.Part, credential string) (*models.IngestionOutcome, error)
	UploadFile(ctx context.Context, part transport.Part, credential string) (models.UploadResult, error)
	IngestText(ctx context.Context, text, source, credential string) (*models.TextIngestion, error)
}

// Recorder journals state-mutating actions.
type Recorder interface {
	Record(action string, inputs any, outcome, subject, details string) (*models.JournalEntry, error)
}

// Coordinator submits file batches in batch or sequential mode.
type Coordinator struct {
	uploader    Uploader
	batch       bool
	maxFileSize int64
	recorder    Recorder
	logger      *log.Logger
}

// New creates a coordinator. batch selects one multipart call for all
// files; otherwise files are sent one call at a time, in order. A
// non-positive maxFileSize selects DefaultMaxFileSize.
func New(up Uploader, batch bool, maxFileSize int64) *Coordinator {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	return &Coordinator{
		uploader:    up,
		batch:       batch,
		maxFileSize: maxFileSize,
		logger:      log.Default(),
	}
}

// WithRecorder journals every batch through r.
func (c *Coordinator) WithRecorder(r Recorder) *Coordinator {
	c.recorder = r
	return c
}

// WithLogger sets the logger.
func (c *Coordinator) WithLogger(l *log.Logger) *Coordinator {
	c.logger = l
	return c
}

// Validate checks a batch without touching the network.
func (c *Coordinator) Validate(files []FileHandle) error {
	if len(files) == 0 {
		return ErrEmptyBatch
	}
	for _, f := range files {
		if f.Size() > c.maxFileSize {
			return &FileTooLargeError{Name: f.Name(), Size: f.Size(), Limit: c.maxFileSize}
		}
	}
	return nil
}

// Ingest validates and submits files. Per-file failures are reported in
// the outcome, never as an error. In batch mode a failure of the single
// call marks every file as failed with the same message; the outcome is
// returned together with that error.
func (c *Coordinator) Ingest(ctx context.Context, files []FileHandle, credential string) (*models.IngestionOutcome, error) {
	if err := c.Validate(files); err != nil {
		return nil, err
	}

	var (
		out *models.IngestionOutcome
		err error
	)
	if c.batch {
		out, err = c.ingestBatch(ctx, files, credential)
	} else {
		out = c.ingestSequential(ctx, files, credential)
	}
	c.record(files, out, err)
	return out, err
}

func (c *Coordinator) ingestBatch(ctx context.Context, files []FileHandle, credential string) (*models.IngestionOutcome, error) {
	results := make([]models.UploadResult, len(files))
	var (
		parts   []transport.Part
		indexes []int
		closers []io.Closer
	)
	defer func() {
		for _, cl := range closers {
			cl.Close()
		}
	}()

	for i, f := range files {
		rc, err := f.Open()
		if err != nil {
			results[i] = failed(f.Name(), fmt.Sprintf("cannot read file: %v", err))
			continue
		}
		closers = append(closers, rc)
		parts = append(parts, transport.Part{Filename: f.Name(), Content: rc})
		indexes = append(indexes, i)
	}

	out := &models.IngestionOutcome{Results: results, DetectedTasks: []models.Task{}}
	if len(parts) == 0 {
		return out, nil
	}

	resp, err := c.uploader.IngestFiles(ctx, parts, credential)
	if err != nil {
		for _, i := range indexes {
			results[i] = failed(files[i].Name(), err.Error())
		}
		return out, fmt.Errorf("upload batch: %w", err)
	}

	matched := matchResults(files, indexes, resp.Results)
	for _, i := range indexes {
		results[i] = matched[i]
	}
	if resp.DetectedTasks != nil {
		out.DetectedTasks = resp.DetectedTasks
	}
	return out, nil
}

// matchResults lines server results up with the submitted files: first by
// filename, then positionally for whatever is left. Files with no result
// are synthesized as errors.
func matchResults(files []FileHandle, indexes []int, server []models.UploadResult) map[int]models.UploadResult {
	out := make(map[int]models.UploadResult, len(indexes))
	used := make([]bool, len(server))

	for _, i := range indexes {
		for j, r := range server {
			if !used[j] && r.Filename == files[i].Name() {
				out[i] = r
				used[j] = true
				break
			}
		}
	}

	next := 0
	for _, i := range indexes {
		if _, ok := out[i]; ok {
			continue
		}
		for next < len(server) && used[next] {
			next++
		}
		if next < len(server) {
			r := server[next]
			r.Filename = files[i].Name()
			out[i] = r
			used[next] = true
			continue
		}
		out[i] = failed(files[i].Name(), "no result returned for file")
	}
	return out
}

func (c *Coordinator) ingestSequential(ctx context.Context, files []FileHandle, credential string) *models.IngestionOutcome {
	out := &models.IngestionOutcome{
		Results:       make([]models.UploadResult, len(files)),
		DetectedTasks: []models.Task{},
	}
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			out.Results[i] = failed(f.Name(), err.Error())
			continue
		}
		out.Results[i] = c.uploadOne(ctx, f, credential)
	}
	return out
}

func (c *Coordinator) uploadOne(ctx context.Context, f FileHandle, credential string) models.UploadResult {
	rc, err := f.Open()
	if err != nil {
		return failed(f.Name(), fmt.Sprintf("cannot read file: %v", err))
	}
	defer rc.Close()

	res, err := c.uploader.UploadFile(ctx, transport.Part{Filename: f.Name(), Content: rc}, credential)
	if err != nil {
		return failed(f.Name(), err.Error())
	}
	res.Filename = f.Name()
	return res
}

// IngestText submits raw text; source defaults to "manual".
func (c *Coordinator) IngestText(ctx context.Context, text, source, credential string) (*models.TextIngestion, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text cannot be empty", ErrValidation)
	}
	res, err := c.uploader.IngestText(ctx, text, source, credential)
	if c.recorder != nil {
		outcome, details := "success", ""
		if err != nil {
			outcome, details = "failed", err.Error()
		}
		if _, rerr := c.recorder.Record("ingest.text", map[string]string{"source": source, "text": text}, outcome, source, details); rerr != nil {
			c.logger.Printf("Error journaling text ingestion: %v", rerr)
		}
	}
	return res, err
}

func (c *Coordinator) record(files []FileHandle, out *models.IngestionOutcome, err error) {
	if c.recorder == nil || out == nil {
		return
	}
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name()
	}

	failedCount := out.Failed()
	outcome := "success"
	switch {
	case err != nil || failedCount == len(out.Results):
		outcome = "failed"
	case failedCount > 0:
		outcome = "partial"
	}
	details := fmt.Sprintf("%d files, %d failed, %d tasks detected", len(files), failedCount, len(out.DetectedTasks))
	if _, rerr := c.recorder.Record("ingest.batch", names, outcome, "", details); rerr != nil {
		c.logger.Printf("Error journaling ingestion batch: %v", rerr)
	}
}

func failed(name, msg string) models.UploadResult {
	return models.UploadResult{Filename: name, Status: models.UploadStatusError, Error: msg}
}
