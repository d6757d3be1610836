package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	lox "github.com/brauliobz/crafting-interpreters"
)

const sourceExt = ".lox"

type checkResult struct {
	path string
	src  string
	err  error // compile error, if any
}

// cmdCheck compiles every file named (directories are walked for *.lox)
// without executing anything. Files are checked concurrently; each one gets
// its own interpreter so no state is shared.
func (a *app) cmdCheck(args []string) int {
	flags, common := a.newFlagSet("check")
	jobs := flags.Int("j", runtime.NumCPU(), "number of files checked in parallel")
	if err := flags.Parse(args); err != nil {
		return exitUsage
	}
	_, opts, err := a.setup(common)
	if err != nil {
		fmt.Fprintf(a.stderr, "%s: %v\n", appName, err)
		return exitUsage
	}
	roots := flags.Args()
	if len(roots) == 0 {
		roots = []string{"."}
	}

	files, err := collectSources(roots)
	if err != nil {
		fmt.Fprintf(a.stderr, "%s: %v\n", appName, err)
		return exitIO
	}

	results, err := checkFiles(context.Background(), files, *jobs, opts)
	if err != nil {
		fmt.Fprintf(a.stderr, "%s: %v\n", appName, err)
		return exitIO
	}

	failed := 0
	for _, r := range results {
		if r.err == nil {
			continue
		}
		failed++
		fmt.Fprint(a.stderr, lox.WrapErrorWithName(r.err, r.path, r.src).Error())
	}
	fmt.Fprintf(a.stdout, "%d file(s) checked, %d with errors\n", len(results), failed)
	if failed > 0 {
		return exitCompile
	}
	return exitOK
}

// collectSources expands roots into a sorted, de-duplicated list of files.
// Directories contribute every *.lox file beneath them; plain files are
// taken as given.
func collectSources(roots []string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("check: %w", err)
		}
		if !info.IsDir() {
			add(root)
			continue
		}
		err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(p, sourceExt) {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("check: walk %s: %w", root, err)
		}
	}
	sort.Strings(out)
	return out, nil
}

// checkFiles compiles files with at most jobs in flight. Compile errors are
// recorded per file; an I/O error cancels the remaining work.
func checkFiles(ctx context.Context, files []string, jobs int, opts []lox.Option) ([]checkResult, error) {
	results := make([]checkResult, len(files))
	g, ctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("cannot read %s: %w", path, err)
			}
			src := string(b)
			ip := lox.NewInterpreter(io.Discard, opts...)
			_, cerr := ip.Compile(src)
			results[i] = checkResult{path: path, src: src, err: cerr}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
