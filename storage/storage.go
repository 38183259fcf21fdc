// Package storage wraps the Firebase services (Firestore, Auth, Storage) behind
// narrow interfaces so route handlers stay decoupled from the concrete clients.
package storage

import (
	"context"

	"cloud.google.com/go/firestore"
	gcs "cloud.google.com/go/storage"
	firebase "firebase.google.com/go"
	"firebase.google.com/go/auth"
	"github.com/pkg/errors"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Client holds the Firebase app and its Firestore/Auth/Storage handles. It
// implements Store, Accounts and BlobStore.
type Client struct {
	app        *firebase.App
	fs         *firestore.Client
	auth       *auth.Client
	bucket     *gcs.BucketHandle
	bucketName string
}

// New connects to Firebase for the given project. bucketName may be empty when
// file uploads are not needed (e.g. local smoke runs without a bucket).
func New(ctx context.Context, projectID, bucketName string) (*Client, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID:     projectID,
		StorageBucket: bucketName,
	})
	if err != nil {
		return nil, errors.Wrap(err, "initiate Firebase App")
	}
	fs, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, errors.Wrap(err, "initiate Firestore client")
	}
	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "initiate Firebase Auth")
	}

	c := &Client{
		app:        app,
		fs:         fs,
		auth:       authClient,
		bucketName: bucketName,
	}
	if bucketName != "" {
		stg, err := app.Storage(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "initiate Firebase Storage")
		}
		c.bucket, err = stg.Bucket(bucketName)
		if err != nil {
			return nil, errors.Wrap(err, "open storage bucket")
		}
	}
	return c, nil
}

// Close performs cleanup for closing storage connections.
func (c *Client) Close() {
	c.fs.Close()
}

// VerifyIDToken checks the Firebase ID token and returns the caller's uid and email.
func (c *Client) VerifyIDToken(ctx context.Context, idToken string) (string, string, error) {
	token, err := c.auth.VerifyIDToken(ctx, idToken)
	if err != nil {
		return "", "", err
	}
	email, _ := token.Claims["email"].(string)
	return token.UID, email, nil
}

// Get implements Store.
func (c *Client) Get(ctx context.Context, collection, id string, dst interface{}) error {
	snap, err := c.fs.Collection(collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return snap.DataTo(dst)
}

// Query implements Store.
func (c *Client) Query(ctx context.Context, collection string, filters []Filter, orderBy *Order, limit int) ([]Doc, error) {
	q := c.fs.Collection(collection).Query
	for _, f := range filters {
		q = q.Where(f.Path, f.Op, f.Value)
	}
	if orderBy != nil {
		dir := firestore.Asc
		if orderBy.Desc {
			dir = firestore.Desc
		}
		q = q.OrderBy(orderBy.Path, dir)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()
	docs := []Doc{}
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, NewDoc(snap.Ref.ID, snap.DataTo))
	}
	return docs, nil
}

// Add implements Store. The document gets a random id; we access entries by
// Where queries so there is no need for a predictable one (and reads are
// faster when ids are random).
func (c *Client) Add(ctx context.Context, collection string, data interface{}) (string, error) {
	ref := c.fs.Collection(collection).NewDoc()
	if _, err := ref.Create(ctx, data); err != nil {
		return "", err
	}
	return ref.ID, nil
}

// Set implements Store.
func (c *Client) Set(ctx context.Context, collection, id string, data interface{}) error {
	_, err := c.fs.Collection(collection).Doc(id).Set(ctx, data)
	return err
}

// Update implements Store.
func (c *Client) Update(ctx context.Context, collection, id string, updates []Update) error {
	_, err := c.fs.Collection(collection).Doc(id).Update(ctx, toFirestoreUpdates(updates))
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	return err
}

// Delete implements Store.
func (c *Client) Delete(ctx context.Context, collection, id string) error {
	_, err := c.fs.Collection(collection).Doc(id).Delete(ctx)
	return err
}

// Batch implements Store. Firestore rejects committing a batch with zero
// writes, so an empty slice short-circuits instead.
func (c *Client) Batch(ctx context.Context, writes []BatchWrite) error {
	if len(writes) == 0 {
		return nil
	}
	batch := c.fs.Batch()
	for _, w := range writes {
		ref := c.fs.Collection(w.Collection).Doc(w.ID)
		switch w.Kind {
		case BatchDelete:
			batch.Delete(ref)
		default:
			batch.Update(ref, toFirestoreUpdates(w.Updates))
		}
	}
	_, err := batch.Commit(ctx)
	return err
}

func toFirestoreUpdates(updates []Update) []firestore.Update {
	out := make([]firestore.Update, 0, len(updates))
	for _, u := range updates {
		value := u.Value
		switch v := value.(type) {
		case ArrayUnionValue:
			value = firestore.ArrayUnion(v.Elems...)
		case ArrayRemoveValue:
			value = firestore.ArrayRemove(v.Elems...)
		}
		out = append(out, firestore.Update{Path: u.Path, Value: value})
	}
	return out
}
