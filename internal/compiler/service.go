package compiler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/duckmesh/schemaprompt/internal/archive"
	"github.com/duckmesh/schemaprompt/internal/nl2sql"
	"github.com/duckmesh/schemaprompt/internal/observability"
	"github.com/duckmesh/schemaprompt/internal/prompt"
	"github.com/duckmesh/schemaprompt/internal/schema"
)

var (
	ErrEmptyRequest   = errors.New("request text is required")
	ErrTranslate      = errors.New("translate request")
	ErrDDLUnsupported = errors.New("ddl listing is not supported by this source")
)

type Archiver interface {
	Archive(ctx context.Context, snapshot schema.Snapshot, prompt string) (archive.Record, error)
}

// Service runs the compile pipeline against one source: connect, introspect,
// render, and optionally translate a request into SQL.
type Service struct {
	Connect    Connector
	Translator nl2sql.Translator
	Archive    Archiver
	Logger     *slog.Logger

	// Source labels metrics and logs. Dialect, when set, replaces the label the
	// introspector reports in the rendered prompt.
	Source  string
	Dialect string
	Timeout time.Duration
}

type Compiled struct {
	Snapshot schema.Snapshot
	Prompt   string
}

type Translation struct {
	Prompt   string `json:"-"`
	Raw      string `json:"raw"`
	SQL      string `json:"sql"`
	Model    string `json:"model"`
	Provider string `json:"provider"`
}

type TableDDL struct {
	Table string
	DDL   string
}

// Snapshot opens a connection, takes one snapshot and closes the connection.
func (s *Service) Snapshot(ctx context.Context) (schema.Snapshot, error) {
	var snapshot schema.Snapshot
	err := s.withIntrospector(ctx, func(ctx context.Context, in schema.Introspector) error {
		var err error
		snapshot, err = s.load(ctx, in)
		return err
	})
	return snapshot, err
}

func (s *Service) Prompt(ctx context.Context) (Compiled, error) {
	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return Compiled{}, err
	}

	text := prompt.Build(snapshot)
	observability.SetPromptSize(len(snapshot.Tables), len(text))
	s.archive(ctx, snapshot, text)
	return Compiled{Snapshot: snapshot, Prompt: text}, nil
}

// Translate compiles a fresh prompt and sends it with request to the model.
func (s *Service) Translate(ctx context.Context, request string) (Translation, error) {
	if s.Translator == nil {
		return Translation{}, fmt.Errorf("%w: no translator configured", ErrTranslate)
	}
	if strings.TrimSpace(request) == "" {
		return Translation{}, ErrEmptyRequest
	}

	compiled, err := s.Prompt(ctx)
	if err != nil {
		return Translation{}, err
	}

	result, err := s.Translator.Translate(ctx, nl2sql.Request{
		SystemPrompt: compiled.Prompt,
		UserMessage:  request,
	})
	observability.ObserveTranslation(err)
	if err != nil {
		return Translation{}, fmt.Errorf("%w: %w", ErrTranslate, err)
	}
	s.logger(ctx).DebugContext(ctx, "request translated",
		slog.String("model", result.Model),
		slog.Int("sql_bytes", len(result.SQL)),
	)

	return Translation{
		Prompt:   compiled.Prompt,
		Raw:      result.Raw,
		SQL:      result.SQL,
		Model:    result.Model,
		Provider: result.Provider,
	}, nil
}

// DDL returns each table's CREATE statement in snapshot order.
func (s *Service) DDL(ctx context.Context) ([]TableDDL, error) {
	var out []TableDDL
	err := s.withIntrospector(ctx, func(ctx context.Context, in schema.Introspector) error {
		ddler, ok := in.(schema.DDLer)
		if !ok {
			return fmt.Errorf("%w: %s", ErrDDLUnsupported, in.Dialect())
		}
		snapshot, err := s.load(ctx, in)
		if err != nil {
			return err
		}
		out = make([]TableDDL, 0, len(snapshot.Tables))
		for _, table := range snapshot.Tables {
			ddl, err := ddler.TableDDL(ctx, table.Name)
			if err != nil {
				return fmt.Errorf("table ddl %q: %w", table.Name, err)
			}
			out = append(out, TableDDL{Table: table.Name, DDL: ddl})
		}
		return nil
	})
	return out, err
}

// Ping checks that the source can be reached.
func (s *Service) Ping(ctx context.Context) error {
	return s.withIntrospector(ctx, func(context.Context, schema.Introspector) error { return nil })
}

func (s *Service) withIntrospector(ctx context.Context, fn func(context.Context, schema.Introspector) error) error {
	if s.Connect == nil {
		return fmt.Errorf("%w: no connector configured", schema.ErrConnection)
	}
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	in, closer, err := s.Connect(ctx)
	if err != nil {
		s.logger(ctx).ErrorContext(ctx, "connect to source failed", slog.String("source", s.Source), slog.Any("error", err))
		return err
	}
	defer func() {
		if closer == nil {
			return
		}
		if err := closer.Close(); err != nil {
			s.logger(ctx).WarnContext(ctx, "close source connection", slog.Any("error", err))
		}
	}()
	return fn(ctx, in)
}

func (s *Service) load(ctx context.Context, in schema.Introspector) (schema.Snapshot, error) {
	source := s.Source
	if source == "" {
		source = in.Dialect()
	}
	logger := s.logger(ctx).With(slog.String("source", source))
	logger.DebugContext(ctx, "introspection started")

	started := time.Now()
	snapshot, err := schema.Load(ctx, in)
	elapsed := time.Since(started)
	observability.ObserveIntrospection(source, err, elapsed)
	if err != nil {
		logger.ErrorContext(ctx, "introspection failed", slog.Any("error", err))
		return schema.Snapshot{}, err
	}
	if s.Dialect != "" {
		snapshot.Dialect = s.Dialect
	}

	logger.InfoContext(ctx, "introspection finished",
		slog.Int("tables", len(snapshot.Tables)),
		slog.Int("columns", snapshot.ColumnCount()),
		slog.Duration("duration", elapsed),
	)
	return snapshot, nil
}

func (s *Service) archive(ctx context.Context, snapshot schema.Snapshot, text string) {
	if s.Archive == nil {
		return
	}
	record, err := s.Archive.Archive(ctx, snapshot, text)
	if err != nil {
		s.logger(ctx).WarnContext(ctx, "archive prompt failed", slog.Any("error", err))
		return
	}
	s.logger(ctx).DebugContext(ctx, "prompt archived",
		slog.String("run_id", record.RunID),
		slog.String("prompt_key", record.PromptKey),
	)
}

func (s *Service) logger(ctx context.Context) *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return observability.WithTrace(ctx, s.Logger)
}
