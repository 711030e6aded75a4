package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
)

// FileStore resolves a public URL to its asset record and removes it.
// *repository.FileRepo satisfies it.
type FileStore interface {
	DeleteByURL(ctx context.Context, url string) (storageKey string, found bool, err error)
}

// Remover deletes the underlying object from the storage provider.  The
// provider integration itself lives outside this repository; the consumer
// only needs the narrow delete capability.
type Remover interface {
	Remove(ctx context.Context, storageKey string) error
}

// FileCleanupConsumer subscribes to the files.delete queue and removes
// orphaned attachments after the event service replaces them.  A URL with
// no remaining record is treated as already cleaned, which makes
// redelivery harmless.
type FileCleanupConsumer struct {
	url     string
	files   FileStore
	remover Remover
	dedup   Deduper
}

// NewFileCleanupConsumer constructs a FileCleanupConsumer.  dedup may be
// nil; remover may be nil when no provider is configured, in which case
// only the records are removed.
func NewFileCleanupConsumer(url string, files FileStore, remover Remover, dedup Deduper) *FileCleanupConsumer {
	return &FileCleanupConsumer{url: url, files: files, remover: remover, dedup: dedup}
}

// Start connects to the broker and consumes cleanup messages until the
// process exits, reconnecting with backoff on broker failures.
func (c *FileCleanupConsumer) Start() error {
	return runConsumer("file-consumer", c.url, FilesDeleteQueue, FilesDeleteDLQ, c.handle)
}

func (c *FileCleanupConsumer) handle(ctx context.Context, body []byte) error {
	var msg FilesDeleteMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	urls := msg.URLs
	if msg.VideoURL != nil && *msg.VideoURL != "" {
		urls = append(urls, *msg.VideoURL)
	}
	if len(urls) == 0 {
		return errors.New("no urls in message")
	}
	if c.dedup != nil && msg.MessageID != "" {
		seen, err := c.dedup.Seen(ctx, "file-cleanup", msg.MessageID)
		if err != nil {
			log.Printf("file-consumer: dedup lookup failed: %v", err)
		} else if seen {
			log.Printf("file-consumer: duplicate delivery of %s; skipping", msg.MessageID)
			return nil
		}
	}
	for _, u := range urls {
		key, found, err := c.files.DeleteByURL(ctx, u)
		if err != nil {
			return fmt.Errorf("delete record for %s: %w", u, err)
		}
		if !found {
			log.Printf("file-consumer: no record for %s; already cleaned", u)
			continue
		}
		if c.remover != nil {
			if err := c.remover.Remove(ctx, key); err != nil {
				return fmt.Errorf("remove object %s: %w", key, err)
			}
		}
		log.Printf("file-consumer: removed %s (key=%s)", u, key)
	}
	if c.dedup != nil && msg.MessageID != "" {
		if err := c.dedup.Mark(ctx, "file-cleanup", msg.MessageID); err != nil {
			log.Printf("file-consumer: dedup mark failed: %v", err)
		}
	}
	return nil
}
