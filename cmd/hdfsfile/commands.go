package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/marmos91/hdfsfile/internal/logger"
	"github.com/marmos91/hdfsfile/pkg/hdfsfile"
	"github.com/marmos91/hdfsfile/pkg/native"
	"golang.org/x/sync/errgroup"
)

var errUsage = errors.New("usage")

// maxParallel bounds the concurrent coordinator round trips of multi-path commands.
const maxParallel = 8

type command func(a *app, ctx context.Context, args []string) error

var commands = map[string]command{
	"ls":    (*app).ls,
	"stat":  (*app).stat,
	"cat":   (*app).cat,
	"put":   (*app).put,
	"mkdir": (*app).mkdir,
	"rm":    (*app).rm,
	"rmdir": (*app).rmdir,
	"hosts": (*app).hosts,
}

type app struct {
	client *hdfsfile.Client
	stdout io.Writer
	stderr io.Writer
	stdin  io.Reader
}

func (a *app) flagSet(name, args string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(a.stderr, "Usage: hdfsfile %s %s\n", name, args)
		fs.PrintDefaults()
	}
	return fs
}

func usageError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

func (a *app) ls(ctx context.Context, args []string) error {
	fs := a.flagSet("ls", "<path>...")
	if err := fs.Parse(args); err != nil {
		return err
	}
	paths := fs.Args()
	if len(paths) == 0 {
		paths = []string{"/"}
	}

	w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	for _, p := range paths {
		entries, err := a.client.ListDirectory(ctx, p)
		if err != nil {
			return err
		}
		if len(paths) > 1 {
			_, _ = fmt.Fprintf(w, "%s:\n", p)
		}
		for _, e := range entries {
			_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", e.Kind(), e.Size(), e.BlockSize(), e.Path())
		}
	}
	return w.Flush()
}

// stat fans the lookups out and prints them in argument order.
func (a *app) stat(ctx context.Context, args []string) error {
	fs := a.flagSet("stat", "<path>...")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return usageError("stat needs at least one path")
	}

	infos := make([]*native.PathInfo, fs.NArg())
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)
	for i, p := range fs.Args() {
		g.Go(func() error {
			info, err := a.client.Stat(gctx, p)
			if err != nil {
				return err
			}
			infos[i] = info
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	for _, info := range infos {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\t%s\t%s\n",
			info.Name, info.Kind, info.Size, info.BlockSize, info.Replication,
			info.Permissions, info.Owner, info.ModTime.UTC().Format(time.RFC3339))
	}
	return w.Flush()
}

func (a *app) cat(ctx context.Context, args []string) error {
	fs := a.flagSet("cat", "[-offset N] [-length N] <path>")
	offset := fs.Int64("offset", 0, "First byte to read")
	length := fs.Int64("length", -1, "Number of bytes to read (default: to end of file)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usageError("cat needs exactly one path")
	}
	path := fs.Arg(0)

	var (
		fh  *hdfsfile.FileHandle
		err error
	)
	switch {
	case *offset == 0 && *length < 0:
		fh, err = a.client.Open(ctx, path)
	default:
		info, statErr := a.client.Stat(ctx, path)
		if statErr != nil {
			return statErr
		}
		// The range stops at end of file; an offset past it prints nothing.
		end := info.Size
		if *length >= 0 && *offset+*length < end {
			end = *offset + *length
		}
		fh, err = a.client.FromSplit(ctx, path, *offset, max(end, *offset))
	}
	if err != nil {
		return err
	}
	defer fh.Close()

	n, err := io.Copy(a.stdout, readerFunc(func(p []byte) (int, error) {
		return fh.ReadContext(ctx, p)
	}))
	logger.Debug("cat %s: %d bytes", path, n)
	return err
}

func (a *app) put(ctx context.Context, args []string) error {
	fs := a.flagSet("put", "[-append] <local|-> <remote>")
	appendMode := fs.Bool("append", false, "Append to the remote file instead of replacing it")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return usageError("put needs a local source and a remote path")
	}
	local, remote := fs.Arg(0), fs.Arg(1)

	var src io.Reader
	if local == "-" {
		src = a.stdin
	} else {
		f, err := os.Open(local)
		if err != nil {
			return err
		}
		defer f.Close()
		src = f
	}

	var (
		fh  *hdfsfile.FileHandle
		err error
	)
	if *appendMode {
		fh, err = a.client.CreateAppend(ctx, remote)
	} else {
		fh, err = a.client.Create(ctx, remote)
	}
	if err != nil {
		return err
	}
	defer fh.Close()

	n, err := io.Copy(writerFunc(func(p []byte) (int, error) {
		return fh.WriteContext(ctx, p)
	}), src)
	if err != nil {
		return err
	}
	if err := fh.FlushContext(ctx); err != nil {
		return err
	}

	logger.Info("put %s -> %s: %d bytes", local, remote, n)
	return nil
}

func (a *app) mkdir(ctx context.Context, args []string) error {
	fs := a.flagSet("mkdir", "<path>...")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return usageError("mkdir needs at least one path")
	}
	return a.each(ctx, fs.Args(), a.client.MakeDirectory)
}

func (a *app) rm(ctx context.Context, args []string) error {
	fs := a.flagSet("rm", "[-r] <path>...")
	recursive := fs.Bool("r", false, "Remove directories and their contents")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return usageError("rm needs at least one path")
	}
	if *recursive {
		return a.each(ctx, fs.Args(), a.client.RemoveAll)
	}
	return a.each(ctx, fs.Args(), a.client.DeleteDir)
}

func (a *app) rmdir(ctx context.Context, args []string) error {
	fs := a.flagSet("rmdir", "<path>...")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return usageError("rmdir needs at least one path")
	}

	return a.each(ctx, fs.Args(), func(ctx context.Context, p string) error {
		info, err := a.client.Stat(ctx, p)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("rmdir %s: not a directory", p)
		}
		return a.client.DeleteDir(ctx, p)
	})
}

func (a *app) hosts(ctx context.Context, args []string) error {
	fs := a.flagSet("hosts", "[-start N] [-end N] <path>")
	start := fs.Int64("start", 0, "First byte of the range")
	end := fs.Int64("end", -1, "End of the range, exclusive (default: file size)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usageError("hosts needs exactly one path")
	}
	path := fs.Arg(0)

	if *end < 0 {
		info, err := a.client.Stat(ctx, path)
		if err != nil {
			return err
		}
		*end = info.Size
	}

	hosts, err := a.client.HostsForRange(ctx, "", path, *start, *end)
	if err != nil {
		return err
	}
	for _, h := range hosts {
		_, _ = fmt.Fprintln(a.stdout, h)
	}
	return nil
}

// each runs fn for every path concurrently and returns the first failure.
func (a *app) each(ctx context.Context, paths []string, fn func(context.Context, string) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)
	for _, p := range paths {
		g.Go(func() error {
			if err := fn(gctx, p); err != nil {
				return err
			}
			logger.Debug("%s: done", p)
			return nil
		})
	}
	return g.Wait()
}

type readerFunc func(p []byte) (int, error)

func (f readerFunc) Read(p []byte) (int, error) { return f(p) }

type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }
