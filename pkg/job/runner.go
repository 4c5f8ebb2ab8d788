// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package job

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/kraklabs/translittr/pkg/archive"
	"github.com/kraklabs/translittr/pkg/validate"
)

// MaxConcurrentJobs bounds how many jobs the runner will run at once.
const MaxConcurrentJobs = 3

// MaxParallelFiles bounds how many files within one job translate
// concurrently.
const MaxParallelFiles = 4

var msgArrLine = regexp.MustCompile(`^\s*\$msg_arr\[`)

// ProgressCallback reports coarse progress during a run, the same
// shape the teacher's local ingestion pipeline uses.
type ProgressCallback func(current, total int64, phase string)

// Runner enumerates a job's input tree, dispatches file workers up to
// MaxParallelFiles at a time, aggregates their results into the job
// record, then validates and packages the output.
type Runner struct {
	Translator Translator
	Registry   *Registry
	Metrics    *Metrics
	Logger     *slog.Logger
	BatchSize  int

	mu      sync.Mutex
	running int
}

// NewRunner constructs a Runner.
func NewRunner(translator Translator, registry *Registry, metrics *Metrics, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{Translator: translator, Registry: registry, Metrics: metrics, Logger: logger, BatchSize: DefaultBatchSize}
}

// Run executes j synchronously against its InputDir/OutputDir,
// updating j's progress as it goes, and has the registry write its
// durable mirror when it returns. Run recovers from panics in its
// own bookkeeping and records them as job failures rather than
// crashing the caller, since this is typically invoked from its own
// goroutine per job.
func (r *Runner) Run(ctx context.Context, j *Job, progress ProgressCallback) (err error) {
	defer func() {
		if r.Registry != nil {
			r.Registry.persist()
		}
	}()
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("job: panic: %v", rec)
			j.RecordError("", err.Error())
			j.Finish(StatusFailed)
		}
	}()

	r.mu.Lock()
	if r.running >= MaxConcurrentJobs {
		r.mu.Unlock()
		return fmt.Errorf("job: %d jobs already running, at capacity", r.running)
	}
	r.running++
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.running--
		r.mu.Unlock()
	}()

	r.incJobsInFlight(1)
	defer r.incJobsInFlight(-1)

	files, totalStrings, err := r.enumerate(j.InputDir)
	if err != nil {
		j.Finish(StatusFailed)
		return fmt.Errorf("job: enumerate %s: %w", j.InputDir, err)
	}
	j.Start(len(files), totalStrings)
	r.Logger.Info("job.enumerate.complete", "job_id", j.ID, "files", len(files), "total_strings", totalStrings)

	if progress != nil {
		progress(0, int64(len(files)), "translate")
	}

	if err := r.dispatch(ctx, j, files, progress); err != nil {
		j.Finish(StatusFailed)
		return err
	}

	select {
	case <-j.Cancelled():
		j.Finish(StatusCancelled)
		return nil
	default:
	}

	report := validate.Validate(j.InputDir, j.OutputDir, files)
	j.SetValidationReport(report)

	archivePath, err := archive.Package(j.OutputDir, filepath.Dir(j.OutputDir))
	if err != nil {
		j.RecordError("", fmt.Sprintf("packaging failed: %v", err))
	} else {
		j.SetArchivePath(archivePath)
	}

	j.Finish(StatusCompleted)
	if progress != nil {
		progress(int64(len(files)), int64(len(files)), "done")
	}
	return nil
}

// dispatch runs file workers over files, up to MaxParallelFiles at a
// time, aggregating results into j as each completes. Cancellation is
// checked before each file is started, so work in flight finishes its
// current batch (see translateInBatches) and no new files are started.
func (r *Runner) dispatch(ctx context.Context, j *Job, files []string, progress ProgressCallback) error {
	sem := make(chan struct{}, MaxParallelFiles)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error
	var done int64

	for _, srcPath := range files {
		select {
		case <-j.Cancelled():
			wg.Wait()
			return nil
		default:
		}

		rel, relErr := filepath.Rel(j.InputDir, srcPath)
		if relErr != nil {
			rel = filepath.Base(srcPath)
		}
		dstPath := filepath.Join(j.OutputDir, rel)

		wg.Add(1)
		sem <- struct{}{}
		go func(src, dst string) {
			defer wg.Done()
			defer func() { <-sem }()

			result, err := TranslateFile(ctx, r.Translator, src, dst, r.BatchSize, j.Cancelled())
			if err != nil {
				j.RecordError(src, err.Error())
				r.Logger.Warn("job.file.parse_error", "job_id", j.ID, "file", src, "error", err)
			}
			j.AdvanceFile(result.TranslatedStrings)
			r.incStringsTranslated(result.TranslatedStrings)

			mu.Lock()
			done++
			if progress != nil {
				progress(done, int64(len(files)), "translate")
			}
			if err != nil && firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
		}(srcPath, dstPath)
	}

	wg.Wait()
	return nil
}

// enumerate walks root in sorted pre-order, collecting every .php file
// and a cheap estimate of total translatable strings (a line count
// against the same anchor the classifier matches, without doing the
// full regex capture or escape handling).
func (r *Runner) enumerate(root string) ([]string, int, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".php") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.Strings(files)

	total := 0
	for _, f := range files {
		n, err := countMatchingLines(f)
		if err != nil {
			return nil, 0, fmt.Errorf("count strings in %s: %w", f, err)
		}
		total += n
	}
	return files, total, nil
}

func countMatchingLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		if msgArrLine.MatchString(scanner.Text()) {
			n++
		}
	}
	return n, scanner.Err()
}
