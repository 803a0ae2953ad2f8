// Package storage adapts Google Cloud Storage for raw provider payload
// snapshots kept as audit artifacts alongside the scoring ledger.
package storage

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"

	"github.com/dbop14/FitApp-sub000/pkg/domain/daykey"
)

// StorageAdapter provides blob operations on Google Cloud Storage.
type StorageAdapter struct {
	Client *storage.Client
}

func (a *StorageAdapter) Write(ctx context.Context, bucketName, objectName string, data []byte) error {
	wc := a.Client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	wc.ContentType = "application/json"
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return fmt.Errorf("write object %s: %w", objectName, err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("finalize object %s: %w", objectName, err)
	}
	return nil
}

func (a *StorageAdapter) Read(ctx context.Context, bucketName, objectName string) ([]byte, error) {
	rc, err := a.Client.Bucket(bucketName).Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open object %s: %w", objectName, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// SnapshotObject is the canonical artifact path for a provider payload
// fetched for one user on one run day. Keeping the layout in one place
// means the inspection tooling can reconstruct it.
func SnapshotObject(kind, userID string, day daykey.Key) string {
	return fmt.Sprintf("%s/%s/%s.json", kind, userID, day)
}
