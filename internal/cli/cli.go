// Package cli implements the one-shot voucher command.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/activofijo/vales-resguardo/internal/assets"
	"github.com/activofijo/vales-resguardo/internal/document"
	"github.com/activofijo/vales-resguardo/internal/logger"
	"github.com/activofijo/vales-resguardo/internal/upload"
)

var ErrUsage = errors.New("usage")

func usageError() error {
	return fmt.Errorf("%w: vales -in <file> [-employee NAME] [-out DIR] [-assets DIR] [-layout FILE] [-list]", ErrUsage)
}

// PrintUsage writes the flag summary.
func PrintUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: vales -in inventario.xlsx [-employee NAME] [-out DIR]")
	fmt.Fprintln(w, "       vales -in inventario.xlsx -list")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Without -employee every voucher is written into "+document.ArchiveName+".")
}

type options struct {
	in       string
	employee string
	out      string
	assetDir string
	layout   string
	logLevel string
	list     bool
}

// Execute parses args and runs the command, writing its report to stdout.
func Execute(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("vales", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var opts options
	fs.StringVar(&opts.in, "in", "", "inventory spreadsheet (.xlsx, .xls, .csv, optionally .gz or .xz)")
	fs.StringVar(&opts.employee, "employee", "", "render only this employee")
	fs.StringVar(&opts.out, "out", ".", "output directory")
	fs.StringVar(&opts.assetDir, "assets", "", "directory with header and footer images")
	fs.StringVar(&opts.layout, "layout", "", "YAML layout file")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "log level")
	fs.BoolVar(&opts.list, "list", false, "list employees and exit")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if opts.in == "" || fs.NArg() != 0 {
		return usageError()
	}

	log, err := logger.New(opts.logLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	return run(opts, stdout, log)
}

func run(opts options, stdout io.Writer, log *zap.Logger) error {
	data, err := os.ReadFile(opts.in)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	result, err := upload.NewProcessor(nil, 0, logger.Named(log, "upload")).Process(filepath.Base(opts.in), data)
	if err != nil {
		return err
	}
	ds := result.Dataset
	for _, w := range ds.Warnings {
		fmt.Fprintf(stdout, "warning: row %d %s: %s\n", w.Row, w.Column, w.Message)
	}

	if opts.list {
		for _, name := range ds.SortedEmployeeNames() {
			fmt.Fprintf(stdout, "%s\t%d\n", name, len(ds.RecordsFor(name)))
		}
		return nil
	}

	layout, err := document.LoadLayout(opts.layout)
	if err != nil {
		return fmt.Errorf("load layout: %w", err)
	}
	var loader document.AssetLoader = assets.Nop{}
	if opts.assetDir != "" {
		loader = assets.NewDirLoader(opts.assetDir, assets.DefaultMaxWidth, 0, logger.Named(log, "assets"))
	}
	gen := document.NewGenerator(document.Options{
		Layout: layout,
		Assets: loader,
		Logger: logger.Named(log, "document"),
	})

	if err := os.MkdirAll(opts.out, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	if opts.employee != "" {
		doc, err := gen.RenderEmployee(ds, opts.employee)
		if err != nil {
			return err
		}
		path := filepath.Join(opts.out, doc.FileName)
		if err := os.WriteFile(path, doc.Data, 0o644); err != nil {
			return fmt.Errorf("write voucher: %w", err)
		}
		fmt.Fprintf(stdout, "%s: %d items, %d pages, total %s\n", path, doc.Items, doc.Pages, doc.Total.StringFixed(2))
		return nil
	}

	archive, err := document.NewBatch(gen, logger.Named(log, "batch")).RenderAll(ds)
	if err != nil {
		return err
	}
	path := filepath.Join(opts.out, document.ArchiveName)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	if err := archive.WriteZip(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write archive: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}

	fmt.Fprintf(stdout, "%s: %d vouchers\n", path, len(archive.Entries))
	for name, reason := range archive.Failed {
		fmt.Fprintf(stdout, "failed: %s: %s\n", name, reason)
	}
	return nil
}
