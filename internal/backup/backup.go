// Package backup stores export snapshots in a local directory or a GCS bucket.
package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"cloud.google.com/go/storage"
)

// Sink persists a named snapshot.
type Sink interface {
	Write(ctx context.Context, name string, data []byte) error
	String() string
}

// ObjectName returns the snapshot file name for t, e.g. budget-20250115T083000Z.json.
func ObjectName(t time.Time) string {
	return "budget-" + t.UTC().Format("20060102T150405Z") + ".json"
}

// DirSink writes snapshots into a local directory.
type DirSink struct {
	Dir string
}

func (s DirSink) String() string { return "dir:" + s.Dir }

// Write creates the file atomically: readers never see a partial snapshot.
func (s DirSink) Write(_ context.Context, name string, data []byte) error {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}
	tmp, err := os.CreateTemp(s.Dir, ".tmp-"+name+"-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.Dir, name)); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

// GCSSink uploads snapshots to a bucket under Prefix. It uses Application
// Default Credentials.
type GCSSink struct {
	client *storage.Client
	bucket string
	prefix string
}

func NewGCSSink(ctx context.Context, bucket, prefix string) (*GCSSink, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSSink{client: client, bucket: bucket, prefix: prefix}, nil
}

func (s *GCSSink) String() string { return "gs://" + s.bucket + "/" + s.prefix }

func (s *GCSSink) objectPath(name string) string {
	return path.Join(s.prefix, name)
}

func (s *GCSSink) Write(ctx context.Context, name string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(s.objectPath(name)).NewWriter(ctx)
	w.ContentType = "application/json"

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		w.Close()
		return fmt.Errorf("copy snapshot to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload: %w", err)
	}
	return nil
}

func (s *GCSSink) Close() error {
	return s.client.Close()
}

// Multi writes to every sink and joins the failures.
type Multi []Sink

func (m Multi) String() string { return fmt.Sprintf("%d sinks", len(m)) }

func (m Multi) Write(ctx context.Context, name string, data []byte) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, name, data); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s, err))
		}
	}
	return errors.Join(errs...)
}
