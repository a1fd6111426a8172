// Package cli implements the ehcp-report command: three files in, reports out.
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ehcp-review/backend/internal/config"
	"github.com/ehcp-review/backend/internal/ingest"
	"github.com/ehcp-review/backend/internal/logging"
	"github.com/ehcp-review/backend/internal/report"
	"github.com/ehcp-review/backend/internal/review"
)

// Version is reported by -version.
var Version = "dev"

// Exit codes.
const (
	ExitOK     = 0
	ExitFailed = 1
	ExitUsage  = 2
)

type options struct {
	students string
	feedback string
	grades   string
	format   string
	logLevel string
	version  bool
}

func newFlagSet(opts *options) *flag.FlagSet {
	fs := flag.NewFlagSet("ehcp-report", flag.ContinueOnError)
	fs.StringVar(&opts.students, "students", "", "student roster file (csv, xlsx, pdf, docx)")
	fs.StringVar(&opts.feedback, "feedback", "", "teacher feedback file")
	fs.StringVar(&opts.grades, "grades", "", "grade comparison file")
	fs.StringVar(&opts.format, "format", "text", "output format: text or json")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "log level written to stderr")
	fs.BoolVar(&opts.version, "version", false, "print version and exit")
	return fs
}

// Run parses argv, generates the reports and writes them to stdout.
func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}

// RunContext is Run with cancellation.
func RunContext(ctx context.Context, argv []string, stdout, stderr io.Writer) int {
	outw := bufio.NewWriter(stdout)
	defer outw.Flush()

	var opts options
	fs := newFlagSet(&opts)
	fs.SetOutput(stderr)

	if err := fs.Parse(argv); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitOK
		}
		return ExitUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "unexpected arguments: %v\n", fs.Args())
		fs.Usage()
		return ExitUsage
	}

	if opts.version {
		fmt.Fprintf(outw, "ehcp-report version %s\n", Version)
		return ExitOK
	}

	if opts.format != "text" && opts.format != "json" {
		fmt.Fprintf(stderr, "invalid -format %q (want text or json)\n", opts.format)
		return ExitUsage
	}

	logger := logging.New(config.LoggingConfig{Level: opts.logLevel, Format: "text"}, stderr)

	uploads := review.Uploads{
		Students: placeholder(opts.students),
		Feedback: placeholder(opts.feedback),
		Grades:   placeholder(opts.grades),
	}
	if err := uploads.Validate(); err != nil {
		fmt.Fprintln(stderr, err)
		return ExitUsage
	}

	for _, f := range []*ingest.UploadedFile{uploads.Students, uploads.Feedback, uploads.Grades} {
		fh, err := os.Open(f.Name)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return ExitFailed
		}
		defer fh.Close()
		f.Content = fh
	}

	gen := review.NewGenerator(ingest.GetGlobalRegistry(), report.NewAssembler(), logger)
	batch, err := gen.Generate(ctx, uploads)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return ExitFailed
	}

	if opts.format == "json" {
		enc := json.NewEncoder(outw)
		enc.SetIndent("", "  ")
		err = enc.Encode(batch)
	} else {
		err = review.WriteText(outw, batch)
	}
	if err == nil {
		err = outw.Flush()
	}
	if err != nil {
		logger.Error("writing reports", slog.String("error", err.Error()))
		return ExitFailed
	}
	return ExitOK
}

func placeholder(path string) *ingest.UploadedFile {
	if path == "" {
		return nil
	}
	return &ingest.UploadedFile{Name: path}
}
