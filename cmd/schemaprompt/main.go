package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/duckmesh/schemaprompt/internal/archive"
	"github.com/duckmesh/schemaprompt/internal/cli/schemaprompt"
	"github.com/duckmesh/schemaprompt/internal/config"
	"github.com/duckmesh/schemaprompt/internal/observability"
	s3store "github.com/duckmesh/schemaprompt/internal/storage/s3"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		_, _ = fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.LoadFromEnv("schemaprompt")
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	options := schemaprompt.Options{
		Config: cfg,
		Logger: observability.NewLogger(cfg, os.Stderr),
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
	if cfg.Archive.Enabled {
		objectStore, err := s3store.New(ctx, s3store.Config{
			Endpoint:         cfg.ObjectStore.Endpoint,
			Region:           cfg.ObjectStore.Region,
			Bucket:           cfg.ObjectStore.Bucket,
			AccessKeyID:      cfg.ObjectStore.AccessKeyID,
			SecretAccessKey:  cfg.ObjectStore.SecretAccessKey,
			UseSSL:           cfg.ObjectStore.UseSSL,
			Prefix:           cfg.ObjectStore.Prefix,
			AutoCreateBucket: cfg.ObjectStore.AutoCreateBucket,
		})
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "initialize object store: %v\n", err)
			os.Exit(1)
		}
		archiver, err := archive.New(objectStore)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "initialize prompt archive: %v\n", err)
			os.Exit(1)
		}
		options.Archive = archiver
	}

	code := schemaprompt.Run(ctx, os.Args[1:], options)
	stop()
	os.Exit(code)
}
