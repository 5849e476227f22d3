// Package fetch downloads a recorded match from a web host into a local
// replay directory that the serve command can load.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"iter"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/matchcast/internal/replay"
	"github.com/dgnsrekt/matchcast/internal/staging"
)

type Options struct {
	Workers   int
	ShardSize int
	// Verify loads the committed directory to prove it is servable.
	Verify bool
}

type Manager struct {
	client  Client
	staging *staging.Manager
	opts    Options
	logger  *zap.Logger
}

type BatchResult struct {
	Match    string
	Steps    int
	Total    int
	Success  int
	Skipped  int
	NotFound int
	Failed   int
	Bytes    int64
	Errors   []string
}

func NewManager(client Client, stg *staging.Manager, opts Options, logger *zap.Logger) *Manager {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.ShardSize < 1 {
		opts.ShardSize = replay.DefaultShardSize
	}
	return &Manager{
		client:  client,
		staging: stg,
		opts:    opts,
		logger:  logger,
	}
}

// MatchName derives a directory name from a replay URL: its last path
// element, or "replay" when the URL has none.
func MatchName(sourceURL string) string {
	u, err := url.Parse(sourceURL)
	if err != nil {
		return "replay"
	}
	name := path.Base(strings.TrimSuffix(u.Path, "/"))
	if name == "" || name == "." || name == "/" {
		return "replay"
	}
	return name
}

// Fetch downloads the replay directory at sourceURL into <base>/<match>.
// Files already present are kept. Nothing reaches the final directory
// unless every shard the metadata calls for was found.
func (m *Manager) Fetch(ctx context.Context, sourceURL, match string) (*BatchResult, error) {
	baseURL := strings.TrimSuffix(sourceURL, "/")
	if match == "" {
		match = MatchName(baseURL)
	}
	start := time.Now()
	result := &BatchResult{Match: match}

	if err := m.staging.PrepareStaging(match); err != nil {
		return result, fmt.Errorf("preparing staging: %w", err)
	}
	defer func() {
		if err := m.staging.CleanupStaging(match); err != nil {
			m.logger.Warn("failed to clean up staging", zap.String("match", match), zap.Error(err))
		}
	}()

	// The metadata decides which shards exist, so it comes first.
	metaTask := Task{Match: match, Name: replay.MetadataFile, Step: -1}
	metaResult := m.processTask(ctx, baseURL, metaTask)
	m.record(result, metaResult)
	if !metaResult.Success {
		err := metaResult.Error
		if metaResult.NotFound {
			err = ErrNotFound
		}
		return result, fmt.Errorf("fetching %s: %w", replay.MetadataFile, err)
	}

	meta, err := m.readMetadata(match, metaResult)
	if err != nil {
		return result, err
	}
	result.Steps = meta.Steps

	tasks := func(yield func(Task) bool) {
		for s := range replay.Shards(meta.Steps, m.opts.ShardSize) {
			if !yield(Task{Match: match, Name: replay.ShardName(s), Step: s}) {
				return
			}
		}
	}

	m.logger.Info("fetching replay",
		zap.String("match", match),
		zap.String("url", baseURL),
		zap.Int("steps", meta.Steps),
		zap.Int("shards", replay.ShardCount(meta.Steps, m.opts.ShardSize)),
	)

	if err := m.Execute(ctx, baseURL, tasks, result); err != nil {
		return result, err
	}

	if result.NotFound > 0 || result.Failed > 0 {
		return result, fmt.Errorf("%w: %d shards missing, %d failed", ErrIncomplete, result.NotFound, result.Failed)
	}

	moved, err := m.staging.CommitStaging(match)
	if err != nil {
		return result, fmt.Errorf("committing staging: %w", err)
	}

	if m.opts.Verify {
		if _, err := replay.Load(m.staging.FinalDir(match), m.opts.ShardSize, m.logger); err != nil {
			return result, fmt.Errorf("verifying replay: %w", err)
		}
	}

	m.logger.Info("replay fetched",
		zap.String("match", match),
		zap.String("dir", m.staging.FinalDir(match)),
		zap.Int("downloaded", result.Success-result.Skipped),
		zap.Int("skipped", result.Skipped),
		zap.Int("committed", moved),
		zap.Int64("bytes", result.Bytes),
		zap.Duration("duration", time.Since(start)),
	)
	return result, nil
}

// Execute downloads tasks with a pool of workers and adds the outcome to
// result. A replay with a gap cannot be served, so no new task is started
// once one is missing or failed; downloads already running still finish.
func (m *Manager) Execute(ctx context.Context, baseURL string, tasks iter.Seq[Task], result *BatchResult) error {
	var incomplete atomic.Bool

	jobs := make(chan Task)
	results := make(chan TaskResult, m.opts.Workers)

	// Start workers
	var wg sync.WaitGroup
	for i := 0; i < m.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.worker(ctx, baseURL, jobs, results)
		}()
	}

	// Send jobs
	go func() {
		defer close(jobs)
		for task := range tasks {
			if incomplete.Load() {
				return
			}
			select {
			case <-ctx.Done():
				return
			case jobs <- task:
			}
		}
	}()

	// Wait for workers and close results
	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		m.record(result, r)
		if !r.Success {
			incomplete.Store(true)
		}
	}

	return ctx.Err()
}

func (m *Manager) worker(ctx context.Context, baseURL string, jobs <-chan Task, results chan<- TaskResult) {
	for task := range jobs {
		if ctx.Err() != nil {
			return
		}
		results <- m.processTask(ctx, baseURL, task)
	}
}

func (m *Manager) record(result *BatchResult, r TaskResult) {
	result.Total++
	switch {
	case r.Skipped:
		result.Skipped++
		result.Success++
	case r.NotFound:
		result.NotFound++
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", r.Task, ErrNotFound))
	case r.Success:
		result.Success++
		result.Bytes += r.BytesSize
	default:
		result.Failed++
		if r.Error != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", r.Task, r.Error))
		}
	}
}

func (m *Manager) processTask(ctx context.Context, baseURL string, task Task) TaskResult {
	result := TaskResult{Task: task}

	// Check if file exists (resume)
	if existing, ok := m.staging.Existing(task.Match, task.Name, replay.CompressedExt); ok {
		m.logger.Debug("skipping existing file", zap.String("task", task.String()))
		result.Skipped = true
		result.Success = true
		result.Stored = filepath.Base(existing)
		return result
	}

	stagingDir := m.staging.StagingDir(task.Match)

	// Plain first, then the compressed variant.
	for _, name := range []string{task.Name, task.Name + replay.CompressedExt} {
		size, err := m.staging.DownloadToStaging(ctx, m.client, baseURL+"/"+name, filepath.Join(stagingDir, name))
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			result.Error = err
			return result
		}

		result.Success = true
		result.Stored = name
		result.BytesSize = size
		m.logger.Debug("downloaded", zap.String("task", task.String()), zap.String("file", name), zap.Int64("bytes", size))
		return result
	}

	m.logger.Debug("not found", zap.String("task", task.String()))
	result.NotFound = true
	return result
}

func (m *Manager) readMetadata(match string, r TaskResult) (replay.Metadata, error) {
	dir := m.staging.StagingDir(match)
	if r.Skipped {
		dir = m.staging.FinalDir(match)
	}

	raw, err := replay.ReadDocument(filepath.Join(dir, replay.MetadataFile))
	if err != nil {
		return replay.Metadata{}, fmt.Errorf("reading %s: %w", replay.MetadataFile, err)
	}
	meta, err := replay.ReadMetadata(bytes.NewReader(raw))
	if err != nil {
		return replay.Metadata{}, fmt.Errorf("parsing %s: %w", replay.MetadataFile, err)
	}
	return meta, nil
}
