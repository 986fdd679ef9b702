// Package outsink opens render inputs and outputs that may live either on
// local disk or in a GCS bucket (gs://bucket/object).
package outsink

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	googleopt "google.golang.org/api/option"
)

const gcsScheme = "gs://"

// ParseGCSPath splits a gs:// path into bucket and object.  ok is false for
// paths that do not use the gs:// scheme.
func ParseGCSPath(p string) (bucket, object string, ok bool, err error) {
	if !strings.HasPrefix(p, gcsScheme) {
		return "", "", false, nil
	}

	rest := strings.TrimPrefix(p, gcsScheme)
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", true, fmt.Errorf("GCS path %q must look like gs://bucket/object", p)
	}
	return parts[0], parts[1], true, nil
}

type gcsWriter struct {
	*storage.Writer
	client *storage.Client
}

func (w *gcsWriter) Close() error {
	defer w.client.Close()
	if err := w.Writer.Close(); err != nil {
		return fmt.Errorf("while closing object writer: %w", err)
	}
	return nil
}

type gcsReader struct {
	*storage.Reader
	client *storage.Client
}

func (r *gcsReader) Close() error {
	defer r.client.Close()
	return r.Reader.Close()
}

// Create opens path for writing.  Unless overwrite is set, it is an error for
// path to exist already; for GCS objects this is enforced when the writer is
// closed.
func Create(ctx context.Context, path string, overwrite bool) (io.WriteCloser, error) {
	tracer := otel.Tracer("row-major/lantern/outsink")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "outsink.Create")
	defer span.End()

	bucket, object, isGCS, err := ParseGCSPath(path)
	if err != nil {
		return nil, err
	}

	if !isGCS {
		flags := os.O_WRONLY | os.O_CREATE
		if overwrite {
			flags |= os.O_TRUNC
		} else {
			flags |= os.O_EXCL
		}
		f, err := os.OpenFile(path, flags, 0644)
		if err != nil {
			return nil, fmt.Errorf("while creating output file: %w", err)
		}
		return f, nil
	}

	gcs, err := storage.NewClient(ctx, googleopt.WithGRPCConnectionPool(1))
	if err != nil {
		return nil, fmt.Errorf("while creating GCS client: %w", err)
	}

	obj := gcs.Bucket(bucket).Object(object)
	if !overwrite {
		obj = obj.If(storage.Conditions{DoesNotExist: true})
	}

	w := obj.NewWriter(ctx)
	return &gcsWriter{Writer: w, client: gcs}, nil
}

// Open opens path for reading.
func Open(ctx context.Context, path string) (io.ReadCloser, error) {
	bucket, object, isGCS, err := ParseGCSPath(path)
	if err != nil {
		return nil, err
	}

	if !isGCS {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("while opening input file: %w", err)
		}
		return f, nil
	}

	gcs, err := storage.NewClient(ctx, googleopt.WithGRPCConnectionPool(1))
	if err != nil {
		return nil, fmt.Errorf("while creating GCS client: %w", err)
	}

	r, err := gcs.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		gcs.Close()
		return nil, fmt.Errorf("while opening object reader: %w", err)
	}
	return &gcsReader{Reader: r, client: gcs}, nil
}
