package archive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/duckmesh/schemaprompt/internal/observability"
	"github.com/duckmesh/schemaprompt/internal/schema"
	"github.com/duckmesh/schemaprompt/internal/storage"
)

const (
	PromptObjectName  = "prompt.txt"
	ColumnsObjectName = "columns.parquet"
)

// Archiver writes each compiled prompt and the column facts behind it to an
// object store as an audit trail.
type Archiver struct {
	store storage.ObjectStore
	now   func() time.Time
	runID func() string
}

type Record struct {
	RunID      string `json:"run_id"`
	PromptKey  string `json:"prompt_key"`
	ColumnsKey string `json:"columns_key"`
	Columns    int64  `json:"columns"`
}

func New(store storage.ObjectStore) (*Archiver, error) {
	if store == nil {
		return nil, fmt.Errorf("object store is required")
	}
	return &Archiver{
		store: store,
		now:   time.Now,
		runID: func() string { return uuid.NewString() },
	}, nil
}

func (a *Archiver) Ping(ctx context.Context) error {
	return a.store.Ping(ctx)
}

func (a *Archiver) Archive(ctx context.Context, snapshot schema.Snapshot, prompt string) (record Record, err error) {
	defer func() { observability.ObserveArchiveUpload(err) }()

	runID := a.runID()
	at := a.now()
	promptKey, err := storage.BuildArchivePath(snapshot.Dialect, runID, at, PromptObjectName)
	if err != nil {
		return Record{}, fmt.Errorf("build prompt key: %w", err)
	}
	columnsKey, err := storage.BuildArchivePath(snapshot.Dialect, runID, at, ColumnsObjectName)
	if err != nil {
		return Record{}, fmt.Errorf("build columns key: %w", err)
	}

	encoded, err := EncodeColumnsToParquet(snapshot)
	if err != nil {
		return Record{}, fmt.Errorf("encode columns: %w", err)
	}

	body := []byte(prompt)
	if _, err := a.store.Put(ctx, promptKey, bytes.NewReader(body), int64(len(body)), storage.PutOptions{ContentType: "text/plain; charset=utf-8"}); err != nil {
		return Record{}, fmt.Errorf("upload prompt: %w", err)
	}
	if _, err := a.store.Put(ctx, columnsKey, bytes.NewReader(encoded.Data), int64(len(encoded.Data)), storage.PutOptions{ContentType: "application/vnd.apache.parquet"}); err != nil {
		return Record{}, fmt.Errorf("upload columns: %w", err)
	}

	return Record{
		RunID:      runID,
		PromptKey:  promptKey,
		ColumnsKey: columnsKey,
		Columns:    encoded.RecordCount,
	}, nil
}
