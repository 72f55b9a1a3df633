// Command csvdml converts a CSV file to SQL INSERT statements on the command
// line, using the same conversion core as the HTTP server.
//
//	csvdml -table people -case uppercase people.csv > people.sql
//	gzip -dc people.csv.gz | csvdml -table people -
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/JonMunkholm/csvdml/internal/core"
	"github.com/JonMunkholm/csvdml/internal/logging"
	"github.com/JonMunkholm/csvdml/internal/verify"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "csvdml:", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("csvdml", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		table    = fs.String("table", "sua_tabela", "target table name")
		caseMode = fs.String("case", string(core.CaseNone), "value case transform: none, uppercase, lowercase")
		dialect  = fs.String("dialect", string(core.DialectPostgreSQL), "SQL dialect label")
		name     = fs.String("name", "stdin.csv", "file name used for format detection when reading stdin")
		check    = fs.Bool("verify", false, "execute the statements against an in-memory SQLite database")
		logLevel = fs.String("log-level", "warn", "log level: debug, info, warn, error")
	)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: csvdml [flags] <file.csv | ->")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("expected exactly one input file")
	}

	// Logs go to stderr so stdout carries only SQL.
	logging.SetupWriter(stderr, *logLevel, "text")

	in, fileName, err := openInput(fs.Arg(0), *name, stdin)
	if err != nil {
		return err
	}
	defer in.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := core.NewService(core.ServiceConfig{MaxConcurrent: 1}, core.Deps{Verifier: verify.New()})
	res, err := svc.Convert(ctx, core.Request{
		FileName: fileName,
		Options: core.Options{
			TableName:     *table,
			CaseTransform: core.ParseCaseTransform(*caseMode),
			Dialect:       core.ParseDialect(*dialect),
		},
		Verify: *check,
	}, in)
	if err != nil {
		return err
	}

	if res.SQL != "" {
		if _, err := fmt.Fprintln(stdout, res.SQL); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
	if res.Verified {
		fmt.Fprintf(stderr, "verified %d rows\n", res.VerifiedRows)
	}
	return nil
}

// openInput opens path, or stdin when path is "-".
func openInput(path, stdinName string, stdin io.Reader) (io.ReadCloser, string, error) {
	if path == "-" {
		return io.NopCloser(stdin), stdinName, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open input: %w", err)
	}
	return f, filepath.Base(path), nil
}
