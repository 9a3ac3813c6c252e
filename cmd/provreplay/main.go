// Command provreplay replays a recorded operation trace against the verified
// collections, checks that repeated passes converge on the same interned
// state, and optionally exports run artifacts and archives the run record.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"seqprov/internal/archive"
	"seqprov/internal/artifacts"
	"seqprov/internal/blob"
	"seqprov/internal/journal"
	"seqprov/internal/replay"
	"seqprov/internal/session"
	"seqprov/pkg/provenance"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

var exitFunc = os.Exit

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	exitFunc(cli(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	tracePath   string
	collection  string
	runs        int
	artifactFmt string
	archiveRun  bool
	watch       bool
	verbose     bool
}

func cli(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("provreplay", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var opts options
	fs.StringVar(&opts.tracePath, "trace", "", "path to the trace JSON file (required)")
	fs.StringVar(&opts.collection, "collection", string(replay.TierRandomAccess), "collection tier: forward, bidirectional or random-access")
	fs.IntVar(&opts.runs, "runs", 1, "replay passes; passes beyond the first must converge on the same state")
	fs.StringVar(&opts.artifactFmt, "artifacts", "", "comma-separated artifact formats to export (json, dot, summary)")
	fs.BoolVar(&opts.archiveRun, "archive", false, "archive the run record after replay")
	fs.BoolVar(&opts.watch, "watch", false, "re-run the replay whenever the trace file changes")
	fs.BoolVar(&opts.verbose, "v", false, "print each applied operation")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if opts.tracePath == "" {
		fmt.Fprintln(stderr, "provreplay: -trace is required")
		fs.Usage()
		return exitUsage
	}
	if _, err := replay.ParseTier(opts.collection); err != nil {
		fmt.Fprintf(stderr, "provreplay: %v\n", err)
		return exitUsage
	}
	if _, err := parseFormats(opts.artifactFmt); err != nil {
		fmt.Fprintf(stderr, "provreplay: %v\n", err)
		return exitUsage
	}

	if opts.watch {
		return watchLoop(ctx, opts, stdout, stderr)
	}
	return runOnce(ctx, opts, stdout, stderr)
}

func runOnce(ctx context.Context, opts options, stdout, stderr io.Writer) int {
	trace, err := replay.LoadTrace(opts.tracePath)
	if err != nil {
		fmt.Fprintf(stderr, "provreplay: %v\n", err)
		return exitUsage
	}
	tier, _ := replay.ParseTier(opts.collection)

	if opts.verbose {
		for i, op := range trace.Ops {
			fmt.Fprintf(stdout, "  op %d: %s at=%d count=%d\n", i, op.Op, op.At, op.Count)
		}
	}

	sess := session.New(session.WithReporter(continueReporter{}))
	result, err := replay.VerifyDeterminism(sess, trace, tier, opts.runs)
	if err != nil {
		fmt.Fprintf(stderr, "provreplay: %v\n", err)
		return exitError
	}

	record := sess.Snapshot()
	stats := sess.Registry().Stats()
	fmt.Fprintf(stdout, "run %s: %d ops over %q (%s), final state s%d, %d elements\n",
		record.ID, result.Applied, trace.Name, tier, result.Final.ID(), len(result.Elements))
	fmt.Fprintf(stdout, "states %d, memo hits %d, incidents %d\n",
		stats.States, stats.MemoHits, record.Counters.Incidents)

	if opts.archiveRun {
		store, err := archive.Open(ctx)
		if err != nil {
			fmt.Fprintf(stderr, "provreplay: open archive: %v\n", err)
			return exitError
		}
		defer func() { _ = store.Close() }()
		if err := store.SaveRun(ctx, record); err != nil {
			fmt.Fprintf(stderr, "provreplay: archive run: %v\n", err)
			return exitError
		}
		fmt.Fprintf(stdout, "archived run %s (%s)\n", record.ID, store.Driver())
	}

	if opts.artifactFmt != "" {
		formats, _ := parseFormats(opts.artifactFmt)
		if err := exportArtifacts(ctx, record, formats, stdout); err != nil {
			fmt.Fprintf(stderr, "provreplay: %v\n", err)
			return exitError
		}
	}
	return verdict(record, stderr)
}

// continueReporter declines to abort on an incident so a replay runs to
// completion; the session journal ahead of it in the chain records each one
// and the exit code reflects the count.
type continueReporter struct{}

func (continueReporter) Report(provenance.Incident) {}

// verdict maps a finished run record to the process exit code. Any recorded
// incident marks the replay as failed verification.
func verdict(record journal.RunRecord, stderr io.Writer) int {
	if n := record.Counters.Incidents; n > 0 {
		fmt.Fprintf(stderr, "provreplay: verification failed: %d incidents recorded\n", n)
		return exitError
	}
	return exitOK
}

func parseFormats(raw string) ([]artifacts.Format, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var formats []artifacts.Format
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		switch format := artifacts.Format(part); format {
		case artifacts.FormatJSON, artifacts.FormatDOT, artifacts.FormatSummary:
			formats = append(formats, format)
		default:
			return nil, fmt.Errorf("unknown artifact format %q", part)
		}
	}
	return formats, nil
}

func exportArtifacts(ctx context.Context, record journal.RunRecord, formats []artifacts.Format, stdout io.Writer) error {
	store, err := blob.Open(ctx)
	if err != nil {
		return fmt.Errorf("open blob store: %w", err)
	}
	worker := artifacts.NewWorker(store, nil)
	worker.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = worker.Stop(stopCtx)
	}()

	queued, err := worker.Enqueue(ctx, artifacts.ExportInput{Run: record, Formats: formats})
	if err != nil {
		return fmt.Errorf("enqueue export: %w", err)
	}
	export, err := awaitExport(ctx, worker, queued.ID)
	if err != nil {
		return err
	}
	for _, artifact := range export.Artifacts {
		fmt.Fprintf(stdout, "artifact %s (%s, %d bytes)\n", artifact.Key, artifact.Format, artifact.SizeBytes)
	}
	return nil
}

func awaitExport(ctx context.Context, worker *artifacts.Worker, id string) (artifacts.ExportRecord, error) {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		record, ok := worker.Get(id)
		if !ok {
			return artifacts.ExportRecord{}, fmt.Errorf("export %s vanished", id)
		}
		switch record.Status {
		case artifacts.ExportStatusSucceeded:
			return record, nil
		case artifacts.ExportStatusFailed:
			return artifacts.ExportRecord{}, fmt.Errorf("export failed: %s", record.Error)
		}
		select {
		case <-ctx.Done():
			return artifacts.ExportRecord{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// watchLoop re-runs the replay whenever the trace file is rewritten. Editors
// often replace files via rename, so the watch is on the directory and
// filtered down to the trace path.
func watchLoop(ctx context.Context, opts options, stdout, stderr io.Writer) int {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		fmt.Fprintf(stderr, "provreplay: watch: %v\n", err)
		return exitError
	}
	defer func() { _ = watcher.Close() }()

	dir := filepath.Dir(opts.tracePath)
	if err := watcher.Add(dir); err != nil {
		fmt.Fprintf(stderr, "provreplay: watch %s: %v\n", dir, err)
		return exitError
	}

	if code := runOnce(ctx, opts, stdout, stderr); code == exitUsage {
		return code
	}
	fmt.Fprintf(stdout, "watching %s\n", opts.tracePath)
	for {
		select {
		case <-ctx.Done():
			return exitOK
		case event, ok := <-watcher.Events:
			if !ok {
				return exitOK
			}
			if !sameFile(event.Name, opts.tracePath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			fmt.Fprintf(stdout, "trace changed, replaying\n")
			if code := runOnce(ctx, opts, stdout, stderr); code == exitUsage {
				return code
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return exitOK
			}
			fmt.Fprintf(stderr, "provreplay: watch: %v\n", err)
		}
	}
}

func sameFile(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}
