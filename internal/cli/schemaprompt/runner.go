package schemaprompt

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/duckmesh/schemaprompt/internal/compiler"
	"github.com/duckmesh/schemaprompt/internal/config"
	"github.com/duckmesh/schemaprompt/internal/nl2sql"
	"github.com/duckmesh/schemaprompt/internal/schema"
)

const translateSeparator = "======"

type Options struct {
	Config     config.Config
	Translator nl2sql.Translator
	Archive    compiler.Archiver
	Logger     *slog.Logger
	Stdout     io.Writer
	Stderr     io.Writer
}

func Run(ctx context.Context, args []string, defaults Options) int {
	stdout := defaults.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := defaults.Stderr
	if stderr == nil {
		stderr = io.Discard
	}
	cfg := defaults.Config

	fs := flag.NewFlagSet("schemaprompt", flag.ContinueOnError)
	fs.SetOutput(stderr)

	source := fs.String("source", firstNonEmpty(string(cfg.Source.Kind), string(config.SourceSQLite)), "schema source: postgres, sqlite or duckdb")
	ddl := fs.String("ddl", cfg.Source.BootstrapDDL, "DDL script for sqlite/duckdb sources (default: embedded sample)")
	dialect := fs.String("dialect", "", "dialect label used in the prompt (default: reported by the source)")
	timeout := fs.Duration("timeout", durationOr(cfg.Source.IntrospectTimeout, 30*time.Second), "introspection timeout (e.g. 30s)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		writeUsage(stderr)
		return 2
	}

	kind, err := config.ParseSourceKind(*source)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "%v\n\n", err)
		writeUsage(stderr)
		return 2
	}
	cfg.Source.Kind = kind
	cfg.Source.BootstrapDDL = *ddl

	command := strings.TrimSpace(fs.Arg(0))
	request := strings.TrimSpace(strings.Join(fs.Args()[1:], " "))
	switch command {
	case "prompt", "describe", "ddl":
	case "translate":
		if request == "" {
			_, _ = fmt.Fprintln(stderr, "translate needs a request, e.g. schemaprompt translate how many orders shipped today")
			return 2
		}
	default:
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n\n", command)
		writeUsage(stderr)
		return 2
	}

	connect, err := compiler.NewConnector(cfg)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "configure source: %v\n", err)
		return 1
	}
	svc := &compiler.Service{
		Connect: connect,
		Archive: defaults.Archive,
		Logger:  defaults.Logger,
		Source:  string(kind),
		Dialect: strings.TrimSpace(*dialect),
		Timeout: *timeout,
	}

	switch command {
	case "prompt":
		err = runPrompt(ctx, svc, stdout)
	case "describe":
		err = runDescribe(ctx, svc, stdout)
	case "ddl":
		err = runDDL(ctx, svc, stdout)
	case "translate":
		svc.Translator = defaults.Translator
		if svc.Translator == nil {
			svc.Translator, err = nl2sql.NewOpenAITranslator(nl2sql.OpenAIConfig{
				BaseURL:     cfg.AI.BaseURL,
				APIKey:      cfg.AI.APIKey,
				Model:       cfg.AI.Model,
				Temperature: cfg.AI.Temperature,
				Timeout:     cfg.AI.Timeout,
			})
			if err != nil {
				_, _ = fmt.Fprintf(stderr, "configure translator: %v\n", err)
				return 1
			}
		}
		err = runTranslate(ctx, svc, request, stdout)
	}
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "%s failed: %v\n", command, err)
		return 1
	}
	return 0
}

func runPrompt(ctx context.Context, svc *compiler.Service, w io.Writer) error {
	compiled, err := svc.Prompt(ctx)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, compiled.Prompt)
	return err
}

func runDescribe(ctx context.Context, svc *compiler.Service, w io.Writer) error {
	snapshot, err := svc.Snapshot(ctx)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, snapshot.ColumnCount())
	for _, table := range snapshot.Tables {
		primaryKey := make(map[string]struct{}, len(table.PrimaryKey))
		for _, name := range table.PrimaryKey {
			primaryKey[name] = struct{}{}
		}
		for _, column := range table.Columns {
			pk := ""
			if _, ok := primaryKey[column.Name]; ok {
				pk = "yes"
			}
			rows = append(rows, []string{
				table.Name,
				column.Name,
				column.DataType,
				pk,
				schema.NullableText(column.ForeignKeyRef),
				schema.NullableText(column.Comment),
			})
		}
	}

	table := tablewriter.NewWriter(w)
	table.Header("Table", "Column", "Type", "PK", "References", "Comment")
	if err := table.Bulk(rows); err != nil {
		return fmt.Errorf("render columns: %w", err)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("render columns: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s: %d tables, %d columns\n", snapshot.Dialect, len(snapshot.Tables), snapshot.ColumnCount())
	return err
}

func runDDL(ctx context.Context, svc *compiler.Service, w io.Writer) error {
	statements, err := svc.DDL(ctx)
	if err != nil {
		return err
	}
	for index, statement := range statements {
		if index > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		text := strings.TrimRight(strings.TrimSpace(statement.DDL), ";")
		if _, err := fmt.Fprintf(w, "%s;\n", text); err != nil {
			return err
		}
	}
	return nil
}

func runTranslate(ctx context.Context, svc *compiler.Service, request string, w io.Writer) error {
	translation, err := svc.Translate(ctx, request)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n%s\n%s\n", translation.Raw, translateSeparator, translation.SQL)
	return err
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func durationOr(value, fallback time.Duration) time.Duration {
	if value > 0 {
		return value
	}
	return fallback
}

func writeUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "usage: schemaprompt [flags] <command>")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "commands:")
	_, _ = fmt.Fprintln(w, "  prompt               print the compiled schema prompt")
	_, _ = fmt.Fprintln(w, "  describe             print the introspected columns as a table")
	_, _ = fmt.Fprintln(w, "  ddl                  print CREATE statements (sqlite, duckdb)")
	_, _ = fmt.Fprintln(w, "  translate <request>  generate SQL for a natural language request")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "flags:")
	_, _ = fmt.Fprintln(w, "  -source   postgres | sqlite | duckdb")
	_, _ = fmt.Fprintln(w, "  -ddl      DDL script for in-memory sources")
	_, _ = fmt.Fprintln(w, "  -dialect  dialect label override")
	_, _ = fmt.Fprintln(w, "  -timeout  introspection timeout")
}
