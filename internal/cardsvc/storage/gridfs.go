package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrObjectExists = errors.New("object already exists")
	ErrNotFound     = errors.New("object not found")
)

// Bucket stores objects by path in GridFS. Uploads never overwrite.
type Bucket struct {
	bucket  *gridfs.Bucket
	baseURL string
}

func NewBucket(db *mongo.Database, name, baseURL string) (*Bucket, error) {
	b, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(name))
	if err != nil {
		return nil, fmt.Errorf("open gridfs bucket %s: %w", name, err)
	}
	return &Bucket{bucket: b, baseURL: baseURL}, nil
}

type fileDoc struct {
	ID       primitive.ObjectID `bson:"_id"`
	Filename string             `bson:"filename"`
	Metadata struct {
		ContentType string `bson:"contentType"`
	} `bson:"metadata"`
}

func (s *Bucket) Upload(ctx context.Context, objectPath, contentType string, r io.Reader) error {
	exists, err := s.exists(ctx, objectPath)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%s: %w", objectPath, ErrObjectExists)
	}

	opts := options.GridFSUpload().SetMetadata(bson.M{"contentType": contentType})
	if _, err := s.bucket.UploadFromStream(objectPath, r, opts); err != nil {
		return fmt.Errorf("upload %s: %w", objectPath, err)
	}
	return nil
}

// Remove deletes every stored revision of the given paths. Missing paths are
// skipped.
func (s *Bucket) Remove(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	docs, err := s.find(ctx, bson.M{"filename": bson.M{"$in": paths}})
	if err != nil {
		return err
	}

	var errs []error
	for _, d := range docs {
		if err := s.bucket.DeleteContext(ctx, d.ID); err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
			errs = append(errs, fmt.Errorf("delete %s: %w", d.Filename, err))
		}
	}
	if len(docs) < len(paths) {
		log.Debugf("storage remove: %d of %d paths were present", len(docs), len(paths))
	}
	return errors.Join(errs...)
}

// Open streams an object. The caller closes the reader.
func (s *Bucket) Open(ctx context.Context, objectPath string) (io.ReadCloser, string, error) {
	docs, err := s.find(ctx, bson.M{"filename": objectPath})
	if err != nil {
		return nil, "", err
	}
	if len(docs) == 0 {
		return nil, "", ErrNotFound
	}

	stream, err := s.bucket.OpenDownloadStream(docs[0].ID)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("open %s: %w", objectPath, err)
	}

	contentType := docs[0].Metadata.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return stream, contentType, nil
}

func (s *Bucket) PublicURL(objectPath string) string {
	return PublicURL(s.baseURL, objectPath)
}

func (s *Bucket) exists(ctx context.Context, objectPath string) (bool, error) {
	docs, err := s.find(ctx, bson.M{"filename": objectPath})
	if err != nil {
		return false, err
	}
	return len(docs) > 0, nil
}

func (s *Bucket) find(ctx context.Context, filter bson.M) ([]fileDoc, error) {
	cur, err := s.bucket.FindContext(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find objects: %w", err)
	}
	defer cur.Close(ctx)

	var docs []fileDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode objects: %w", err)
	}
	return docs, nil
}
