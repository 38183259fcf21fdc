package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/pkg/errors"
)

const publicURLPrefix = "https://storage.googleapis.com/"

// BlobStore is the object-storage surface used by the file routes.
type BlobStore interface {
	// Upload writes r to the object at path, makes it publicly readable and
	// returns its public URL.
	Upload(ctx context.Context, path, contentType string, r io.Reader) (string, error)
	// Remove deletes the object at path.
	Remove(ctx context.Context, path string) error
}

// Upload implements BlobStore on the Firebase Storage bucket.
func (c *Client) Upload(ctx context.Context, path, contentType string, r io.Reader) (string, error) {
	if c.bucket == nil {
		return "", errors.New("no storage bucket configured")
	}
	obj := c.bucket.Object(path)
	w := obj.NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", errors.Wrap(err, "write blob")
	}
	if err := w.Close(); err != nil {
		return "", errors.Wrap(err, "finish blob write")
	}
	if err := obj.ACL().Set(ctx, gcs.AllUsers, gcs.RoleReader); err != nil {
		return "", errors.Wrap(err, "make blob public")
	}
	return fmt.Sprintf("%s%s/%s", publicURLPrefix, c.bucketName, path), nil
}

// Remove implements BlobStore.
func (c *Client) Remove(ctx context.Context, path string) error {
	if c.bucket == nil {
		return errors.New("no storage bucket configured")
	}
	return c.bucket.Object(path).Delete(ctx)
}

// ObjectPath extracts the bucket-relative object path from a public URL
// produced by Upload. Returns "" when the URL has a different shape.
func ObjectPath(publicURL string) string {
	if !strings.HasPrefix(publicURL, publicURLPrefix) {
		return ""
	}
	rest := strings.TrimPrefix(publicURL, publicURLPrefix)
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 {
		return ""
	}
	path, err := url.PathUnescape(parts[1])
	if err != nil {
		return ""
	}
	return path
}
