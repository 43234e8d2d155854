// Package source opens POS export files for the extract stage. Local paths
// and gs://bucket/object URIs are supported.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const gcsScheme = "gs://"

// Opener opens an input for reading. found is false when the input does not
// exist; err is reserved for real I/O or configuration failures.
type Opener interface {
	Open(ctx context.Context, uri string) (rc io.ReadCloser, found bool, err error)
}

// LocalOpener opens files on the local filesystem.
type LocalOpener struct{}

func (LocalOpener) Open(_ context.Context, uri string) (io.ReadCloser, bool, error) {
	f, err := os.Open(uri)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("source: open %q: %w", uri, err)
	}
	return f, true, nil
}

// Resolver dispatches on the URI scheme.
type Resolver struct {
	Local  Opener
	Remote Opener
}

// NewResolver returns a Resolver using the filesystem for plain paths and gcs
// for gs:// URIs. gcs may be nil, in which case gs:// URIs are rejected.
func NewResolver(gcs Opener) *Resolver {
	return &Resolver{Local: LocalOpener{}, Remote: gcs}
}

func (r *Resolver) Open(ctx context.Context, uri string) (io.ReadCloser, bool, error) {
	if IsGCSURI(uri) {
		if r.Remote == nil {
			return nil, false, fmt.Errorf("source: no object storage configured for %q", uri)
		}
		return r.Remote.Open(ctx, uri)
	}
	return r.Local.Open(ctx, uri)
}

// IsGCSURI reports whether uri points at Google Cloud Storage.
func IsGCSURI(uri string) bool {
	return strings.HasPrefix(uri, gcsScheme)
}

// SplitGCSURI splits "gs://bucket/path/to/file.csv" into bucket and object.
func SplitGCSURI(uri string) (bucket, object string, err error) {
	trimmed := strings.TrimPrefix(uri, gcsScheme)
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("source: malformed GCS URI %q", uri)
	}
	return parts[0], parts[1], nil
}
