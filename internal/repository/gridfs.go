package repository

import (
	"bytes"
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
)

// GridFSFileStore guarda los PDFs (exportado y firmado) en el mismo
// Mongo que el resto del servicio. Las referencias que devuelve son
// ObjectIDs en hexadecimal: opacas para el workflow.
type GridFSFileStore struct {
	bucket *gridfs.Bucket
}

func NewGridFSFileStore(db *mongo.Database) (*GridFSFileStore, error) {
	bucket, err := gridfs.NewBucket(db)
	if err != nil {
		return nil, err
	}
	return &GridFSFileStore{bucket: bucket}, nil
}

func (s *GridFSFileStore) Store(ctx context.Context, name string, data []byte) (string, error) {
	if dl, ok := ctx.Deadline(); ok {
		_ = s.bucket.SetWriteDeadline(dl)
	}
	id, err := s.bucket.UploadFromStream(name, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	return id.Hex(), nil
}

func (s *GridFSFileStore) Fetch(ctx context.Context, ref string) ([]byte, error) {
	oid, err := primitive.ObjectIDFromHex(ref)
	if err != nil {
		return nil, ErrNotFound
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = s.bucket.SetReadDeadline(dl)
	}
	var buf bytes.Buffer
	if _, err := s.bucket.DownloadToStream(oid, &buf); err != nil {
		if err == gridfs.ErrFileNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return buf.Bytes(), nil
}
