package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ragmcp/ragmcp/internal/ingest"
)

// Loop drains a Watcher's debounced events and drives the ingestion
// pipeline sequentially, one file at a time, so there is no concurrent
// writer contention on storage.
type Loop struct {
	Root     string
	Pipeline *ingest.Pipeline
	Logger   *slog.Logger
}

// Run consumes events until ch is closed or ctx is cancelled. For each
// event it: resolves and confirms the path lies under Root, skips
// unsupported extensions, then either backfills embeddings for an
// unchanged file or re-runs ingestion for a new/modified/renamed one.
// A deleted file removes the document outright.
func (l *Loop) Run(ctx context.Context, events <-chan FileEvent) {
	logger := l.logger()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := l.handle(ctx, event); err != nil {
				logger.Warn("watch handler failed", slog.String("path", event.Path), slog.Any("error", err))
			}
		}
	}
}

func (l *Loop) handle(ctx context.Context, event FileEvent) error {
	absPath := filepath.Join(l.Root, event.Path)

	resolved, err := filepath.Abs(absPath)
	if err != nil {
		return err
	}
	rootAbs, err := filepath.Abs(l.Root)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(resolved, rootAbs) {
		return nil
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(resolved), "."))
	if !ingest.AllowedExtensions[ext] {
		return nil
	}

	if event.Operation == OpDelete {
		_, err := l.Pipeline.DB.DeleteDocumentByPath(ctx, event.Path)
		return err
	}

	info, err := os.Stat(resolved)
	if os.IsNotExist(err) {
		_, err := l.Pipeline.DB.DeleteDocumentByPath(ctx, event.Path)
		return err
	}
	if err != nil {
		return err
	}

	content, err := os.ReadFile(resolved)
	if err != nil {
		return err
	}

	docID := ingest.DocID(event.Path)
	existing, err := l.Pipeline.DB.GetDocumentByPath(ctx, event.Path)
	if err != nil {
		return err
	}

	if existing != nil && existing.FileHash == ingest.FileHash(content) {
		return l.Pipeline.BackfillEmbeddings(ctx, docID)
	}

	file := ingest.DiscoveredFile{
		AbsolutePath: resolved,
		RelativePath: event.Path,
		Extension:    ext,
		Size:         info.Size(),
		ModTime:      info.ModTime(),
	}
	return l.Pipeline.IngestFile(ctx, file)
}

func (l *Loop) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}
