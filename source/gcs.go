package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"cloud.google.com/go/storage"
)

// GCSOpener reads objects from Google Cloud Storage. The client is created on
// first use so runs that only read local files need no credentials.
type GCSOpener struct {
	mu     sync.Mutex
	client *storage.Client
}

// NewGCSOpener returns an opener that uses Application Default Credentials.
func NewGCSOpener() *GCSOpener {
	return &GCSOpener{}
}

func (g *GCSOpener) Open(ctx context.Context, uri string) (io.ReadCloser, bool, error) {
	bucket, object, err := SplitGCSURI(uri)
	if err != nil {
		return nil, false, err
	}

	client, err := g.getClient(ctx)
	if err != nil {
		return nil, false, err
	}

	r, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("source: open GCS object reader: %w", err)
	}
	return r, true, nil
}

func (g *GCSOpener) getClient(ctx context.Context) (*storage.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client != nil {
		return g.client, nil
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("source: create storage client: %w", err)
	}
	g.client = client
	return client, nil
}

// Close releases the storage client if one was created.
func (g *GCSOpener) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client == nil {
		return nil
	}
	err := g.client.Close()
	g.client = nil
	return err
}
