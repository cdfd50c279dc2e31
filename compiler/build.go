package compiler

import (
	"context"
	"path"
	"runtime"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wippyai/tlb-abi/abi"
	"github.com/wippyai/tlb-abi/corpus"
	"github.com/wippyai/tlb-abi/errors"
)

// Options configures Build.
type Options struct {
	// ModulePath is the import path of the generated output root. The
	// globals package lives at ModulePath/globals.
	ModulePath string

	// Package is the package clause of the top-level dispatch file. It
	// defaults to the last element of ModulePath.
	Package string

	// Exclude lists groups that are skipped without error.
	Exclude []string

	// Parallelism bounds concurrent entry compilations. Zero means
	// GOMAXPROCS.
	Parallelism int
}

func (o Options) excluded(group string) bool {
	for _, g := range o.Exclude {
		if g == group {
			return true
		}
	}
	return false
}

// Result is the outcome of Build.
type Result struct {
	Options Options
	Globals *GlobalRegistry

	// Units holds the compiled entries in processing order: groups sorted
	// by name, messages before payloads, entries in document order.
	Units []*Unit

	// Failures holds the entry-level errors that skipped an entry.
	Failures []error

	Indexes []*Index
	Tables  *abi.Tables

	registry *RegistryBuilder
}

type job struct {
	types string
	entry Entry
	err   error
}

// Build compiles docs over g. Entry failures are recorded in the result;
// name collisions and invalid options abort the build.
func Build(ctx context.Context, g *GlobalRegistry, docs []*corpus.Document, opts Options) (*Result, error) {
	if g == nil {
		return nil, errors.InvalidInput(errors.PhaseCompile, "global registry is required")
	}
	if opts.ModulePath == "" {
		return nil, errors.InvalidInput(errors.PhaseCompile, "module path is required")
	}
	if opts.Package == "" {
		opts.Package = packageName(path.Base(opts.ModulePath))
	}

	r := &Result{
		Options:  opts,
		Globals:  g,
		registry: NewRegistryBuilder(opts.ModulePath),
	}
	if err := r.Extend(ctx, docs); err != nil {
		return nil, err
	}
	return r, nil
}

// Extend compiles further groups and appends them to the tables without
// recompiling the groups already built. r.Tables is replaced by a new
// snapshot; tables handed out earlier stay unchanged.
func (r *Result) Extend(ctx context.Context, docs []*corpus.Document) error {
	docs = append([]*corpus.Document(nil), docs...)
	sort.SliceStable(docs, func(i, j int) bool { return docs[i].Group < docs[j].Group })

	var (
		jobs   []job
		groups []string
	)
	for _, doc := range docs {
		if r.Options.excluded(doc.Group) {
			Logger().Info("group excluded", zap.String("group", doc.Group))
			continue
		}
		groups = append(groups, doc.Group)
		for _, kind := range []EntryKind{EntryMessage, EntryPayload} {
			entries := doc.Messages
			if kind == EntryPayload {
				entries = doc.Payloads
			}
			for _, ce := range entries {
				e, err := ParseHead(doc.Group, kind, ce)
				jobs = append(jobs, job{types: doc.Types, entry: e, err: err})
			}
		}
	}

	units, failures, err := r.compile(ctx, jobs)
	if err != nil {
		return err
	}

	byGroup := make(map[string][]*Unit)
	for _, u := range units {
		byGroup[u.Entry.Group] = append(byGroup[u.Entry.Group], u)
	}

	// Every group is namespaced and checked before r is touched, so a
	// failed Extend leaves the result as it was.
	var indexes []*Index
	seen := make(map[string]bool)
	for _, group := range groups {
		members := byGroup[group]
		if len(members) == 0 {
			continue
		}
		if seen[group] || r.registry.groups[group] {
			return duplicateGroup(group)
		}
		seen[group] = true
		idx, err := Namespace(group, members)
		if err != nil {
			return err
		}
		indexes = append(indexes, idx)
	}

	for _, idx := range indexes {
		if err := r.registry.Add(idx); err != nil {
			return err
		}
		r.Units = append(r.Units, byGroup[idx.Group]...)
		r.Indexes = append(r.Indexes, idx)
	}
	r.Failures = append(r.Failures, failures...)

	r.Tables = r.registry.Build()
	Logger().Info("build finished",
		zap.Int("groups", len(r.Indexes)),
		zap.Int("messages", r.Tables.Messages.Len()),
		zap.Int("payloads", r.Tables.Payloads.Len()),
		zap.Int("failures", len(r.Failures)))
	return nil
}

// compile runs the jobs concurrently. Results are collected by job index so
// the output order does not depend on scheduling.
func (r *Result) compile(ctx context.Context, jobs []job) ([]*Unit, []error, error) {
	units := make([]*Unit, len(jobs))
	errs := make([]error, len(jobs))

	limit := r.Options.Parallelism
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)
	for i, j := range jobs {
		if j.err != nil {
			errs[i] = j.err
			continue
		}
		i, j := i, j
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			units[i], errs[i] = compileEntry(r.Globals, j.types, j.entry, r.Options.ModulePath)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}

	var (
		out      []*Unit
		failures []error
	)
	for i, j := range jobs {
		if errs[i] != nil {
			Logger().Warn("entry skipped",
				zap.String("group", j.entry.Group),
				zap.String("entry", j.entry.Name),
				zap.Stringer("kind", j.entry.Kind),
				zap.Error(errs[i]))
			failures = append(failures, errs[i])
			continue
		}
		out = append(out, units[i])
	}
	return out, failures, nil
}
