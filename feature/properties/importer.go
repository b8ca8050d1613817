package properties

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"

	"lock-sync/core/storage"
)

// Importer seeds the registry from a JSON document in object storage.
// The document is an array of property records.
type Importer struct {
	store   *Store
	objects storage.Client
	bucket  string
	log     *zap.Logger
}

// NewImporter builds an Importer reading from the given bucket.
func NewImporter(store *Store, objects storage.Client, bucket string, log *zap.Logger) *Importer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Importer{store: store, objects: objects, bucket: bucket, log: log}
}

// Import loads objectName from the bucket and upserts every record it
// holds. It returns the number of records written; the first failing
// upsert aborts the run so a partial import is visible in the error.
func (i *Importer) Import(ctx context.Context, objectName string) (int, error) {
	rc, err := i.objects.GetObject(ctx, i.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return 0, fmt.Errorf("fetch %s/%s: %w", i.bucket, objectName, err)
	}
	defer rc.Close()

	var records []Property
	if err := json.NewDecoder(rc).Decode(&records); err != nil {
		return 0, fmt.Errorf("decode %s/%s: %w", i.bucket, objectName, err)
	}

	for n := range records {
		rec := records[n]
		rec.ID = 0
		if rec.Name == "" {
			return n, fmt.Errorf("record %d has no name", n)
		}
		if err := i.store.Upsert(ctx, &rec); err != nil {
			return n, err
		}
		i.log.Info("imported property",
			zap.String("name", rec.Name),
			zap.String("brand", rec.Brand),
			zap.Bool("active", rec.Active))
	}
	return len(records), nil
}
