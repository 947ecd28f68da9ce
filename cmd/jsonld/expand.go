package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	ld "github.com/gofhir/jsonld"
	"github.com/gofhir/jsonld/engine"
	"github.com/gofhir/jsonld/iri"
	"github.com/gofhir/jsonld/loader"
	"github.com/gofhir/jsonld/pkg/location"
	"github.com/gofhir/jsonld/stream"
	"github.com/gofhir/jsonld/tracing"
	"github.com/gofhir/jsonld/value"
	"github.com/gofhir/jsonld/watcher"
	"github.com/gofhir/jsonld/worker"
)

// stdinName is the argument that reads standard input.
const stdinName = "-"

// input is one document source named on the command line.
type input struct {
	name string
	// path is the absolute file path, or "" for standard input.
	path string
}

func newExpandCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expand [file|-]...",
		Short: "Expand JSON-LD documents",
		Long: `Expand each document and print the expanded form.

Arguments are file paths or glob patterns; "-" reads standard input.
With --ndjson every input is a stream of documents, one per line, or a
JSON array of documents.`,
		Args: cobra.MinimumNArgs(1),
		RunE: a.runExpand,
	}

	f := cmd.Flags()
	f.StringP("context", "x", "", "context applied before each document's own (file path or URL)")
	f.StringP("base", "b", "", "base IRI for relative identifiers")
	f.StringP("loader", "l", "", "remote context loader: none, embedded, http, dir")
	f.String("context-dir", "", "directory served by the dir loader")
	f.String("context-prefix", "", "URL prefix mapped onto --context-dir")
	f.StringP("format", "o", "", "output format: json, text")
	f.Bool("ndjson", false, "treat inputs as document streams and print one document per line")
	f.BoolP("watch", "w", false, "re-expand when inputs or local contexts change")
	f.IntP("workers", "j", 0, "parallel expansions (default: one per CPU)")
	f.Bool("trace", false, "enable tracing with the configured exporter")
	f.Bool("strict", false, "fail on property terms that do not resolve")

	for key, flag := range map[string]string{
		"context":         "context",
		"base":            "base",
		"loader":          "loader",
		"context_dir":     "context-dir",
		"context_prefix":  "context-prefix",
		"format":          "format",
		"ndjson":          "ndjson",
		"watch.enabled":   "watch",
		"workers":         "workers",
		"tracing.enabled": "trace",
		"strict":          "strict",
	} {
		_ = a.v.BindPFlag(key, f.Lookup(flag))
	}
	return cmd
}

func (a *app) runExpand(cmd *cobra.Command, args []string) error {
	cfg := a.cfg
	if err := cfg.Validate(); err != nil {
		return err
	}
	ctx := cmd.Context()

	prov, err := tracing.NewProvider(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		if err := prov.Shutdown(context.Background()); err != nil {
			a.log.Warn("tracing shutdown failed", "error", err)
		}
	}()

	ldr, dir, err := buildLoader(cfg)
	if err != nil {
		return err
	}

	opts := []ld.Option{
		ld.WithLoader(ldr),
		ld.WithBase(cfg.Base),
		ld.WithStrict(cfg.Strict),
		ld.WithLogger(a.log),
		ld.WithWorkerCount(cfg.Workers),
	}
	if prov.Enabled() {
		opts = append(opts, ld.WithTracer(prov.Tracer()))
	}
	if cfg.Context != "" {
		ec, err := loadExpandContext(cfg.Context)
		if err != nil {
			return err
		}
		opts = append(opts, ld.WithExpandContext(ec))
	}

	exp := engine.New(opts...)
	defer exp.Close()

	inputs, err := resolveInputs(args)
	if err != nil {
		return err
	}

	failed := a.expandInputs(ctx, exp, inputs)

	if cfg.Watch.Enabled {
		return a.watch(ctx, exp, inputs, dir)
	}
	if failed {
		return errFailures
	}
	return nil
}

// buildLoader returns the configured loader and, for the dir loader, the
// directory loader itself so that --watch can invalidate its contexts.
func buildLoader(cfg Config) (loader.Loader, *loader.Dir, error) {
	switch cfg.Loader {
	case LoaderNone:
		return loader.NoLoader{}, nil, nil
	case LoaderHTTP:
		h := loader.NewHTTP(
			loader.WithTimeout(cfg.HTTP.Timeout),
			loader.WithMaxBytes(cfg.HTTP.MaxBytes),
			loader.WithUserAgent("jsonld/"+version),
		)
		return loader.NewChain(loader.NewEmbedded(), loader.NewCaching(h, cfg.HTTP.CacheTTL)), nil, nil
	case LoaderDir:
		info, err := os.Stat(cfg.ContextDir)
		if err != nil {
			return nil, nil, fmt.Errorf("context dir: %w", err)
		}
		if !info.IsDir() {
			return nil, nil, fmt.Errorf("context dir %s is not a directory", cfg.ContextDir)
		}
		d := loader.NewOSDir(cfg.ContextDir, cfg.ContextPrefix)
		return loader.NewChain(d, loader.NewEmbedded()), d, nil
	default:
		return loader.NewEmbedded(), nil, nil
	}
}

// loadExpandContext reads --context: an absolute IRI is passed through as a
// remote reference, anything else is read as a local file.
func loadExpandContext(ref string) (value.Value, error) {
	if iri.IsAbsolute(ref) && !fileExists(ref) {
		return value.String(ref), nil
	}
	data, err := os.ReadFile(ref)
	if err != nil {
		return value.Null(), fmt.Errorf("reading context: %w", err)
	}
	v, err := value.Decode(data)
	if err != nil {
		return value.Null(), fmt.Errorf("parsing context %s: %w", ref, err)
	}
	return v, nil
}

func fileExists(name string) bool {
	_, err := os.Stat(name)
	return err == nil
}

// resolveInputs expands glob patterns. A pattern without matches is an
// error, as is reading standard input twice.
func resolveInputs(args []string) ([]input, error) {
	var out []input
	stdin := false
	for _, arg := range args {
		if arg == stdinName {
			if stdin {
				return nil, fmt.Errorf("standard input named more than once")
			}
			stdin = true
			out = append(out, input{name: "stdin"})
			continue
		}

		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match pattern: %s", arg)
		}
		for _, m := range matches {
			abs, err := filepath.Abs(m)
			if err != nil {
				return nil, err
			}
			out = append(out, input{name: m, path: abs})
		}
	}
	return out, nil
}

func (a *app) open(in input) (io.ReadCloser, error) {
	if in.path == "" {
		return io.NopCloser(a.stdin), nil
	}
	return os.Open(in.path)
}

// expandInputs expands and prints every input and reports whether any
// document failed.
func (a *app) expandInputs(ctx context.Context, exp *engine.Expander, inputs []input) bool {
	if a.cfg.NDJSON {
		return a.expandStreams(ctx, exp, inputs)
	}

	failed := false
	jobs := make([]worker.Job, 0, len(inputs))
	for _, in := range inputs {
		rc, err := a.open(in)
		if err == nil {
			var data []byte
			data, err = io.ReadAll(rc)
			_ = rc.Close()
			if err == nil {
				jobs = append(jobs, worker.Job{Index: len(jobs), Source: in.name, Data: data})
				continue
			}
		}
		a.log.Error("failed to read input", "source", in.name, "error", err)
		fmt.Fprintf(a.stderr, "Error reading %s: %v\n", in.name, err)
		failed = true
	}

	batch := worker.NewBatch(exp, a.cfg.Workers).Run(ctx, jobs)
	for _, r := range batch.Results {
		if r == nil {
			failed = true
			continue
		}
		if !a.emit(r, jobs[r.Index].Data) {
			failed = true
		}
	}
	a.log.Debug("batch complete",
		"documents", batch.TotalJobs,
		"failed", batch.FailedJobs,
		"duration", batch.TotalDuration,
	)
	return failed
}

func (a *app) expandStreams(ctx context.Context, exp *engine.Expander, inputs []input) bool {
	se := stream.NewExpander(exp).WithLogger(a.log)
	if a.cfg.Workers > 0 {
		se = se.WithWorkerCount(a.cfg.Workers)
	}

	failed := false
	for _, in := range inputs {
		rc, err := a.open(in)
		if err != nil {
			fmt.Fprintf(a.stderr, "Error reading %s: %v\n", in.name, err)
			failed = true
			continue
		}

		var results <-chan *ld.Result
		if a.cfg.Workers == 1 {
			results = se.Stream(ctx, in.name, rc)
		} else {
			results = se.StreamParallel(ctx, in.name, rc)
		}
		for r := range results {
			if !a.emit(r, nil) {
				failed = true
			}
		}
		_ = rc.Close()
	}
	return failed
}

// emit prints one result and reports whether it succeeded. src is the
// document source, used to point failures at a line; it may be nil.
func (a *app) emit(r *ld.Result, src []byte) bool {
	if !r.OK() {
		name := r.Source
		if a.cfg.NDJSON && r.Index >= 0 {
			name = fmt.Sprintf("%s#%d", r.Source, r.Index)
		}
		if loc := location.Of(src, r.Err); loc != nil {
			name = fmt.Sprintf("%s (%s)", name, loc)
		}
		fmt.Fprintf(a.stderr, "Error expanding %s: %v\n", name, r.Err)
		return false
	}

	var err error
	switch a.cfg.Format {
	case FormatText:
		err = writeText(a.stdout, r)
	default:
		err = a.writeJSON(r)
	}
	if err != nil {
		fmt.Fprintf(a.stderr, "Error writing %s: %v\n", r.Source, err)
		return false
	}
	return true
}

func (a *app) writeJSON(r *ld.Result) error {
	data, err := json.Marshal(r.Graph)
	if err != nil {
		return err
	}
	if !a.cfg.NDJSON {
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", "  "); err != nil {
			return err
		}
		data = buf.Bytes()
	}
	data = append(data, '\n')
	_, err = a.stdout.Write(data)
	return err
}

// watch re-expands inputs whenever they or the local context directory
// change, until ctx is cancelled.
func (a *app) watch(ctx context.Context, exp *engine.Expander, inputs []input, dir *loader.Dir) error {
	paths := make([]string, 0, len(inputs)+1)
	byPath := make(map[string]input, len(inputs))
	for _, in := range inputs {
		if in.path == "" {
			continue
		}
		paths = append(paths, in.path)
		byPath[in.path] = in
	}
	ctxDir := ""
	if dir != nil {
		abs, err := filepath.Abs(a.cfg.ContextDir)
		if err != nil {
			return err
		}
		ctxDir = abs
		paths = append(paths, abs)
	}
	if len(paths) == 0 {
		return fmt.Errorf("--watch needs at least one file input")
	}

	wcfg := watcher.DefaultConfig(paths...)
	wcfg.DebounceDur = a.cfg.Watch.Debounce
	wcfg.Logger = a.log
	w, err := watcher.New(wcfg)
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	changes, err := w.Start()
	if err != nil {
		return err
	}
	a.log.Info("watching for changes", "paths", len(paths))

	for {
		select {
		case <-ctx.Done():
			return nil
		case changed := <-changes:
			var redo []input
			contextsChanged := false
			for _, p := range changed {
				if in, ok := byPath[p]; ok {
					redo = append(redo, in)
					continue
				}
				if ctxDir != "" && strings.HasPrefix(p, ctxDir+string(filepath.Separator)) {
					rel, err := filepath.Rel(ctxDir, p)
					if err != nil {
						continue
					}
					n := forgetContext(exp, dir, rel)
					a.log.Info("context changed", "file", rel, "forgotten", n)
					contextsChanged = true
				}
			}
			if contextsChanged {
				redo = redo[:0]
				for _, in := range inputs {
					if in.path != "" {
						redo = append(redo, in)
					}
				}
			}
			if len(redo) == 0 {
				continue
			}
			a.log.Info("re-expanding", "documents", len(redo))
			a.expandInputs(ctx, exp, redo)
		}
	}
}

// forgetContext drops memoised contexts for a changed file in the context
// directory, under both the URL with its extension and without.
func forgetContext(exp *engine.Expander, dir *loader.Dir, rel string) int {
	rel = filepath.ToSlash(rel)
	n := exp.Forget(dir.URL(rel))
	if ext := filepath.Ext(rel); ext != "" {
		n += exp.Forget(dir.URL(strings.TrimSuffix(rel, ext)))
	}
	return n
}
