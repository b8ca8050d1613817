package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"lock-sync/core/storage"

	"github.com/minio/minio-go/v7"
)

// ArchiveReporter stores run summaries as JSON objects in the storage
// bucket, keyed reports/<date>/<run-id>/<property>.json. The archive is
// the audit trail for runs triggered over HTTP, where nobody watches the
// console output.
type ArchiveReporter struct {
	client storage.Client
	bucket string
}

// NewArchiveReporter builds a reporter writing into the given bucket.
func NewArchiveReporter(client storage.Client, bucket string) *ArchiveReporter {
	return &ArchiveReporter{client: client, bucket: bucket}
}

// EnsureBucket creates the archive bucket when it does not exist yet.
// Called once at wiring time so the first run cannot lose its summary
// to a missing bucket.
func (r *ArchiveReporter) EnsureBucket(ctx context.Context) error {
	exists, err := r.client.BucketExists(ctx, r.bucket)
	if err != nil {
		return fmt.Errorf("checking bucket %q: %w", r.bucket, err)
	}
	if exists {
		return nil
	}
	if err := r.client.MakeBucket(ctx, r.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("creating bucket %q: %w", r.bucket, err)
	}
	return nil
}

func (r *ArchiveReporter) Summary(ctx context.Context, s Summary) error {
	body, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}

	objectName := fmt.Sprintf("reports/%s/%s/%s.json",
		s.CompletedAt.Format("2006-01-02"), s.RunID, slugify(s.PropertyName))

	_, err = r.client.PutObject(ctx, r.bucket, objectName,
		bytes.NewReader(body), int64(len(body)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("archiving summary %s: %w", objectName, err)
	}
	return nil
}

// Message is a no-op: free-form notices are not worth archiving.
func (r *ArchiveReporter) Message(ctx context.Context, text string) error {
	return nil
}

// slugify makes a property name safe for an object key.
func slugify(name string) string {
	out := make([]rune, 0, len(name))
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			out = append(out, c)
		default:
			out = append(out, '-')
		}
	}
	return string(out)
}
