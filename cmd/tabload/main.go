// tabload validates a tabular file against a declared schema and bulk-loads
// the validated rows into a relational store.
//
// It loads the job config, lints it, parses the input into a columnar frame,
// runs the serializer, and either persists the coerced frame or prints the
// error report as JSON and exits non-zero.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"
	"unicode/utf8"

	"github.com/joho/godotenv"

	"tabular/internal/config"
	"tabular/internal/frame"
	"tabular/internal/metrics"
	"tabular/internal/metrics/datadog"
	"tabular/internal/metrics/prompush"
	"tabular/internal/parser/csv"
	jsonparser "tabular/internal/parser/json"
	"tabular/internal/serializer"
	"tabular/internal/storage"
	"tabular/internal/validators"

	// register all backends with the storage factory.
	_ "tabular/internal/storage/all"
)

func main() {
	var (
		cfgPath    string
		policyFlag string
		lintOnly   bool
	)
	flag.StringVar(&cfgPath, "config", "configs/jobs/sample.json", "job config JSON path")
	flag.StringVar(&policyFlag, "policy", "", "override conflict policy (insert|upsert)")
	flag.BoolVar(&lintOnly, "validate", false, "validate the configuration and exit")
	flag.Parse()

	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	f, err := os.Open(cfgPath)
	if err != nil {
		fatalf("open config: %v", err)
	}
	var job config.Job
	err = json.NewDecoder(f).Decode(&job)
	f.Close()
	if err != nil {
		fatalf("decode config: %v", err)
	}

	envOverrides, err := config.LoadEnv()
	if err != nil {
		fatalf("%v", err)
	}
	envOverrides.Apply(&job)
	if policyFlag != "" {
		job.Storage.Policy = policyFlag
	}

	issues := config.ValidateJob(job)
	hasError := false
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		if iss.Severity == config.SeverityError {
			hasError = true
		}
	}
	if hasError {
		fatalf("configuration is invalid: %v", cfgPath)
	}
	if lintOnly {
		log.Printf("configuration is valid: %v", cfgPath)
		return
	}

	setupMetrics(job)

	if err := run(context.Background(), job); err != nil {
		_ = metrics.Flush()
		fatalf("%v", err)
	}
	if err := metrics.Flush(); err != nil {
		log.Printf("metrics flush: %v", err)
	}
}

func setupMetrics(job config.Job) {
	switch job.Metrics.Backend {
	case "pushgateway":
		b, err := prompush.NewBackend(job.Name, job.Metrics.PushgatewayURL)
		if err != nil {
			fatalf("%v", err)
		}
		metrics.SetBackend(b)
	case "datadog":
		b, err := datadog.NewBackend(datadog.Config{Addr: job.Metrics.StatsdAddr})
		if err != nil {
			fatalf("%v", err)
		}
		metrics.SetBackend(b)
	case "", "none":
		// metrics stay no-op
	default:
		fatalf("unknown metrics backend %q", job.Metrics.Backend)
	}
}

func run(ctx context.Context, job config.Job) error {
	start := time.Now()
	table, err := parseSource(job)
	metrics.RecordStep(job.Name, "parse", err, time.Since(start))
	if err != nil {
		return err
	}
	metrics.RecordRows(job.Name, "parsed", int64(table.Len()))
	log.Printf("parsed %s: rows=%d columns=%d", job.Source.Path, table.Len(), table.Width())

	sch, err := job.Schema()
	if err != nil {
		return err
	}
	var opts []serializer.Option
	for _, set := range job.Unique {
		opts = append(opts, serializer.WithValidators(validators.Unique(set...)))
	}
	ser := serializer.New(sch, opts...)
	ser.SetData(table)

	start = time.Now()
	ok, err := ser.Valid(ctx)
	metrics.RecordStep(job.Name, "validate", err, time.Since(start))
	if err != nil {
		return err
	}
	if !ok {
		report, _ := ser.Errors()
		metrics.RecordRows(job.Name, "invalid", int64(len(report.Rows())))
		out, merr := json.MarshalIndent(report, "", "  ")
		if merr != nil {
			return merr
		}
		fmt.Fprintln(os.Stdout, string(out))
		return fmt.Errorf("validation failed: %d row(s), %d table error(s)",
			len(report.Rows()), len(report.Table()))
	}

	policy, err := storage.ParsePolicy(job.Storage.Policy)
	if err != nil {
		return err
	}
	repo, err := storage.New(ctx, storageConfig(job))
	if err != nil {
		return err
	}
	defer repo.Close()

	if job.Storage.DB.AutoCreateTable {
		if err := storage.EnsureTable(ctx, repo, sch, storageConfig(job)); err != nil {
			return err
		}
	}

	start = time.Now()
	n, err := ser.Save(ctx, repo, policy)
	metrics.RecordStep(job.Name, "persist", err, time.Since(start))
	if err != nil {
		return err
	}
	metrics.RecordRows(job.Name, "persisted", n)
	log.Printf("done: job=%s rows=%d table=%s policy=%s", job.Name, n, job.Storage.DB.Table, policy)
	return nil
}

func parseSource(job config.Job) (*frame.Frame, error) {
	if job.Source.Kind != "file" {
		return nil, fmt.Errorf("unsupported source kind %q", job.Source.Kind)
	}
	in, err := os.Open(job.Source.Path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	switch job.Source.Format {
	case "csv":
		opt := csv.Options{
			TrimSpace:  job.Source.CSV.TrimSpace,
			LazyQuotes: job.Source.CSV.LazyQuotes,
			HeaderMap:  job.Source.CSV.HeaderMap,
		}
		if job.Source.CSV.Comma != "" {
			// The delimiter may be any single rune, not just ASCII.
			opt.Comma, _ = utf8.DecodeRuneInString(job.Source.CSV.Comma)
		}
		return csv.NewParser(opt).Parse(in)
	case "json":
		return jsonparser.Parse(in)
	default:
		return nil, fmt.Errorf("unsupported source format %q", job.Source.Format)
	}
}

func storageConfig(job config.Job) storage.Config {
	keyColumns := job.Storage.DB.KeyColumns
	return storage.Config{
		Kind:       job.Storage.Kind,
		DSN:        job.Storage.DB.DSN,
		Table:      job.Storage.DB.Table,
		KeyColumns: keyColumns,
	}
}

func fatalf(format string, args ...any) {
	log.Printf(format, args...)
	os.Exit(1)
}
