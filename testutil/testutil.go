// Package testutil provides in-memory implementations of the storage
// interfaces so handler tests run hermetically, without a Firestore emulator
// or real Firebase credentials.
package testutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"reflect"
	"sort"
	"sync"

	"groupifyserver/groupauth"
	"groupifyserver/storage"
)

// MemStore is a storage.Store backed by nested maps. Documents are held as
// JSON-shaped maps, which keeps its filter and decode semantics aligned with
// the entity structs' tags.
type MemStore struct {
	mu   sync.Mutex
	data map[string]map[string]map[string]interface{}
	seq  int
}

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{data: map[string]map[string]map[string]interface{}{}}
}

func toDocMap(v interface{}) (map[string]interface{}, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	m := map[string]interface{}{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeMap(m map[string]interface{}, dst interface{}) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}

// jsonValue normalizes v to its JSON shape (e.g. time.Time to an RFC 3339
// string) so comparisons against stored documents line up.
func jsonValue(v interface{}) interface{} {
	b, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out interface{}
	if err := json.Unmarshal(b, &out); err != nil {
		return v
	}
	return out
}

func containsValue(arr []interface{}, v interface{}) bool {
	for _, e := range arr {
		if reflect.DeepEqual(e, v) {
			return true
		}
	}
	return false
}

// Get implements storage.Store.
func (m *MemStore) Get(_ context.Context, collection, id string, dst interface{}) error {
	m.mu.Lock()
	doc, ok := m.data[collection][id]
	m.mu.Unlock()
	if !ok {
		return storage.ErrNotFound
	}
	return decodeMap(doc, dst)
}

func matches(doc map[string]interface{}, f storage.Filter) bool {
	want := jsonValue(f.Value)
	switch f.Op {
	case "==":
		return reflect.DeepEqual(doc[f.Path], want)
	case "array-contains":
		arr, ok := doc[f.Path].([]interface{})
		return ok && containsValue(arr, want)
	case "in":
		list, ok := want.([]interface{})
		if !ok {
			return false
		}
		return containsValue(list, doc[f.Path])
	}
	return false
}

func lessValue(a, b interface{}) bool {
	if a == nil {
		return b != nil
	}
	if b == nil {
		return false
	}
	switch av := a.(type) {
	case string:
		bv, _ := b.(string)
		return av < bv
	case float64:
		bv, _ := b.(float64)
		return av < bv
	case bool:
		bv, _ := b.(bool)
		return !av && bv
	}
	return false
}

// Query implements storage.Store.
func (m *MemStore) Query(_ context.Context, collection string, filters []storage.Filter, orderBy *storage.Order, limit int) ([]storage.Doc, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	type entry struct {
		id  string
		doc map[string]interface{}
	}
	entries := []entry{}
	for id, doc := range m.data[collection] {
		keep := true
		for _, f := range filters {
			if !matches(doc, f) {
				keep = false
				break
			}
		}
		if keep {
			entries = append(entries, entry{id: id, doc: doc})
		}
	}

	// Deterministic base order, then the requested one on top.
	sort.Slice(entries, func(i, j int) bool { return entries[i].id < entries[j].id })
	if orderBy != nil {
		sort.SliceStable(entries, func(i, j int) bool {
			a, b := entries[i].doc[orderBy.Path], entries[j].doc[orderBy.Path]
			if orderBy.Desc {
				return lessValue(b, a)
			}
			return lessValue(a, b)
		})
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	docs := make([]storage.Doc, 0, len(entries))
	for _, e := range entries {
		snapshot, err := toDocMap(e.doc)
		if err != nil {
			return nil, err
		}
		docs = append(docs, storage.NewDoc(e.id, func(dst interface{}) error {
			return decodeMap(snapshot, dst)
		}))
	}
	return docs, nil
}

// Add implements storage.Store.
func (m *MemStore) Add(_ context.Context, collection string, data interface{}) (string, error) {
	doc, err := toDocMap(data)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	id := fmt.Sprintf("mem%04d", m.seq)
	m.put(collection, id, doc)
	return id, nil
}

// Set implements storage.Store.
func (m *MemStore) Set(_ context.Context, collection, id string, data interface{}) error {
	doc, err := toDocMap(data)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(collection, id, doc)
	return nil
}

func (m *MemStore) put(collection, id string, doc map[string]interface{}) {
	if m.data[collection] == nil {
		m.data[collection] = map[string]map[string]interface{}{}
	}
	m.data[collection][id] = doc
}

func applyUpdates(doc map[string]interface{}, updates []storage.Update) {
	for _, u := range updates {
		switch v := u.Value.(type) {
		case storage.ArrayUnionValue:
			arr, _ := doc[u.Path].([]interface{})
			for _, e := range v.Elems {
				ev := jsonValue(e)
				if !containsValue(arr, ev) {
					arr = append(arr, ev)
				}
			}
			doc[u.Path] = arr
		case storage.ArrayRemoveValue:
			arr, _ := doc[u.Path].([]interface{})
			remove := jsonSlice(v.Elems)
			kept := []interface{}{}
			for _, e := range arr {
				if !containsValue(remove, e) {
					kept = append(kept, e)
				}
			}
			doc[u.Path] = kept
		default:
			doc[u.Path] = jsonValue(u.Value)
		}
	}
}

func jsonSlice(elems []interface{}) []interface{} {
	out := make([]interface{}, 0, len(elems))
	for _, e := range elems {
		out = append(out, jsonValue(e))
	}
	return out
}

// Update implements storage.Store.
func (m *MemStore) Update(_ context.Context, collection, id string, updates []storage.Update) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.data[collection][id]
	if !ok {
		return storage.ErrNotFound
	}
	applyUpdates(doc, updates)
	return nil
}

// Delete implements storage.Store.
func (m *MemStore) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data[collection], id)
	return nil
}

// Batch implements storage.Store: all writes or none, matching the Firestore
// batch contract where an update against a missing document fails the batch.
// Empty batches are a no-op, like the real client.
func (m *MemStore) Batch(_ context.Context, writes []storage.BatchWrite) error {
	if len(writes) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range writes {
		if w.Kind != storage.BatchDelete {
			if _, ok := m.data[w.Collection][w.ID]; !ok {
				return storage.ErrNotFound
			}
		}
	}
	for _, w := range writes {
		if w.Kind == storage.BatchDelete {
			delete(m.data[w.Collection], w.ID)
			continue
		}
		applyUpdates(m.data[w.Collection][w.ID], w.Updates)
	}
	return nil
}

// Account is one identity known to FakeAccounts.
type Account struct {
	UID         string
	Email       string
	Password    string
	DisplayName string
}

// FakeAccounts is an in-memory storage.Accounts.
type FakeAccounts struct {
	mu      sync.Mutex
	byUID   map[string]*Account
	byEmail map[string]string
	seq     int

	// Deleted records uids passed to DeleteUser, in order.
	Deleted []string
}

// NewFakeAccounts returns an empty identity provider.
func NewFakeAccounts() *FakeAccounts {
	return &FakeAccounts{
		byUID:   map[string]*Account{},
		byEmail: map[string]string{},
	}
}

// CreateUser implements storage.Accounts.
func (f *FakeAccounts) CreateUser(_ context.Context, email, password, displayName string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, taken := f.byEmail[email]; taken {
		return "", storage.ErrEmailExists
	}
	f.seq++
	uid := fmt.Sprintf("user%02d", f.seq)
	f.byUID[uid] = &Account{UID: uid, Email: email, Password: password, DisplayName: displayName}
	f.byEmail[email] = uid
	return uid, nil
}

// CustomToken implements storage.Accounts.
func (f *FakeAccounts) CustomToken(_ context.Context, uid string) (string, error) {
	return "custom-token-" + uid, nil
}

// UpdateEmail implements storage.Accounts.
func (f *FakeAccounts) UpdateEmail(_ context.Context, uid, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if other, taken := f.byEmail[email]; taken && other != uid {
		return storage.ErrEmailExists
	}
	acct, ok := f.byUID[uid]
	if !ok {
		acct = &Account{UID: uid}
		f.byUID[uid] = acct
	}
	delete(f.byEmail, acct.Email)
	acct.Email = email
	f.byEmail[email] = uid
	return nil
}

// DeleteUser implements storage.Accounts.
func (f *FakeAccounts) DeleteUser(_ context.Context, uid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if acct, ok := f.byUID[uid]; ok {
		delete(f.byEmail, acct.Email)
		delete(f.byUID, uid)
	}
	f.Deleted = append(f.Deleted, uid)
	return nil
}

// FakeBlobStore is an in-memory storage.BlobStore using the real public URL
// scheme so ObjectPath round-trips.
type FakeBlobStore struct {
	mu      sync.Mutex
	Bucket  string
	Objects map[string][]byte
}

// NewFakeBlobStore returns an empty bucket named "test-bucket".
func NewFakeBlobStore() *FakeBlobStore {
	return &FakeBlobStore{Bucket: "test-bucket", Objects: map[string][]byte{}}
}

// Upload implements storage.BlobStore.
func (f *FakeBlobStore) Upload(_ context.Context, path, _ string, r io.Reader) (string, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	f.Objects[path] = data
	f.mu.Unlock()
	return "https://storage.googleapis.com/" + f.Bucket + "/" + path, nil
}

// Remove implements storage.BlobStore.
func (f *FakeBlobStore) Remove(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.Objects[path]; !ok {
		return fmt.Errorf("object %s does not exist", path)
	}
	delete(f.Objects, path)
	return nil
}

// Len reports how many objects the bucket holds.
func (f *FakeBlobStore) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Objects)
}

// FakeVerifier is a groupauth.Verifier resolving tokens from a fixed map.
type FakeVerifier struct {
	Tokens map[string]groupauth.Caller
}

// VerifyIDToken implements groupauth.Verifier.
func (f *FakeVerifier) VerifyIDToken(_ context.Context, idToken string) (string, string, error) {
	c, ok := f.Tokens[idToken]
	if !ok {
		return "", "", errors.New("invalid token")
	}
	return c.UID, c.Email, nil
}
