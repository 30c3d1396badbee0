package objectmodel

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"userapi/internal/orm"
	"userapi/internal/storage"
	storeMocks "userapi/internal/storage/mocks"
)

type note struct {
	ID       string
	Body     string
	Pinned   *time.Time
	Modified time.Time
}

func noteSchema() orm.Schema[note, string] {
	return orm.Schema[note, string]{
		Name:          "notes",
		PrimaryKey:    "id",
		Columns:       []string{"body", "pinned", "modified"},
		Fillable:      []string{"body"},
		UpdatedColumn: "modified",
		NewID:         func() string { return "n-1" },
		GetID:         func(n *note) string { return n.ID },
		SetID:         func(n *note, id string) { n.ID = id },
		Fill: func(n *note, f orm.Fields) error {
			if v, ok := f["body"]; ok {
				s, ok := v.(string)
				if !ok {
					return &orm.ValidationError{Field: "body", Reason: "must be a string"}
				}
				n.Body = s
			}
			return nil
		},
		Values: func(n *note) []any { return []any{n.Body, n.Pinned, n.Modified} },
		Scan: func(s orm.Scanner) (*note, error) {
			var n note
			if err := s.Scan(&n.ID, &n.Body, &n.Pinned, &n.Modified); err != nil {
				return nil, err
			}
			return &n, nil
		},
		Touch: func(n *note, now time.Time, _ bool) { n.Modified = now },
	}
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newBucket(t *testing.T) (*Bucket[note, string], *storeMocks.MockStorage) {
	t.Helper()
	store := new(storeMocks.MockStorage)
	b, err := New(store, noteSchema())
	require.NoError(t, err)
	b.now = func() time.Time { return fixedNow }
	return b, store
}

func body(s string) io.ReadCloser { return io.NopCloser(strings.NewReader(s)) }

func TestNew_RequiresIDGenerator(t *testing.T) {
	schema := noteSchema()
	schema.NewID = nil

	b, err := New(new(storeMocks.MockStorage), schema)

	assert.Nil(t, b)
	assert.ErrorContains(t, err, `schema "notes" has no id generator`)
}

func TestBucket_Insert(t *testing.T) {
	ctx := context.Background()
	b, store := newBucket(t)

	var written map[string]any
	store.On("Put", ctx, "notes/n-1.json", mock.Anything, mock.MatchedBy(func(o storage.PutObjectOptions) bool {
		return o.ContentType == "application/json" && o.Size > 0
	})).Run(func(args mock.Arguments) {
		raw, err := io.ReadAll(args.Get(2).(io.Reader))
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &written))
	}).Return(storage.ObjectInfo{Key: "notes/n-1.json"}, nil).Once()

	n, err := b.Insert(ctx, orm.Fields{"body": "hello"})

	require.NoError(t, err)
	assert.Equal(t, "n-1", n.ID)
	assert.Equal(t, "hello", n.Body)
	assert.Equal(t, fixedNow, n.Modified)
	assert.Equal(t, "n-1", written["id"])
	assert.Equal(t, "hello", written["body"])
	assert.Nil(t, written["pinned"])
	store.AssertExpectations(t)
}

func TestBucket_InsertRejectsGuardedFields(t *testing.T) {
	b, store := newBucket(t)

	n, err := b.Insert(context.Background(), orm.Fields{"id": "forged"})

	assert.Nil(t, n)
	assert.ErrorIs(t, err, orm.ErrValidation)
	store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBucket_InsertStoreError(t *testing.T) {
	ctx := context.Background()
	b, store := newBucket(t)
	store.On("Put", ctx, "notes/n-1.json", mock.Anything, mock.Anything).
		Return(storage.ObjectInfo{}, errors.New("bucket full")).Once()

	n, err := b.Insert(ctx, orm.Fields{"body": "hello"})

	assert.Nil(t, n)
	assert.ErrorIs(t, err, orm.ErrPersistence)
	assert.ErrorContains(t, err, "put notes/n-1.json: bucket full")
}

func TestBucket_Find(t *testing.T) {
	ctx := context.Background()
	b, store := newBucket(t)

	store.On("Get", ctx, "notes/n-1.json").
		Return(body(`{"id":"n-1","body":"hi","pinned":"2024-05-01T12:00:00Z","modified":"2024-05-01T12:00:00Z"}`), storage.ObjectInfo{}, nil).Once()
	store.On("Get", ctx, "notes/missing.json").
		Return(nil, storage.ObjectInfo{}, storage.ErrObjectNotFound).Once()
	store.On("Get", ctx, "notes/broken.json").
		Return(body(`{"id":`), storage.ObjectInfo{}, nil).Once()

	n, err := b.Find(ctx, "n-1")
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, "hi", n.Body)
	require.NotNil(t, n.Pinned)
	assert.True(t, n.Pinned.Equal(fixedNow))

	n, err = b.Find(ctx, "missing")
	assert.NoError(t, err)
	assert.Nil(t, n)

	n, err = b.Find(ctx, "broken")
	assert.Nil(t, n)
	assert.ErrorIs(t, err, orm.ErrPersistence)

	store.AssertExpectations(t)
}

func TestBucket_All(t *testing.T) {
	ctx := context.Background()
	b, store := newBucket(t)

	store.On("List", ctx, "notes/").Return([]storage.ObjectInfo{
		{Key: "notes/a.json"},
		{Key: "notes/readme.txt"},
		{Key: "notes/gone.json"},
	}, nil).Once()
	store.On("Get", ctx, "notes/a.json").
		Return(body(`{"id":"a","body":"first","pinned":null}`), storage.ObjectInfo{}, nil).Once()
	store.On("Get", ctx, "notes/gone.json").
		Return(nil, storage.ObjectInfo{}, storage.ErrObjectNotFound).Once()

	notes, err := b.All(ctx)

	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "first", notes[0].Body)
	assert.Nil(t, notes[0].Pinned)
	store.AssertExpectations(t)
}

func TestBucket_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("existing record is rewritten", func(t *testing.T) {
		b, store := newBucket(t)
		store.On("Stat", ctx, "notes/n-1.json").Return(storage.ObjectInfo{}, nil).Once()
		store.On("Put", ctx, "notes/n-1.json", mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{}, nil).Once()

		n := &note{ID: "n-1", Body: "old"}
		ok, err := b.Update(ctx, n, orm.Fields{"body": "new"})

		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "new", n.Body)
		assert.Equal(t, fixedNow, n.Modified)
		store.AssertExpectations(t)
	})

	t.Run("vanished record is not resurrected", func(t *testing.T) {
		b, store := newBucket(t)
		store.On("Stat", ctx, "notes/n-1.json").Return(storage.ObjectInfo{}, storage.ErrObjectNotFound).Once()

		ok, err := b.Update(ctx, &note{ID: "n-1"}, orm.Fields{"body": "new"})

		require.NoError(t, err)
		assert.False(t, ok)
		store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("bad value", func(t *testing.T) {
		b, store := newBucket(t)
		store.On("Stat", ctx, "notes/n-1.json").Return(storage.ObjectInfo{}, nil).Once()

		ok, err := b.Update(ctx, &note{ID: "n-1"}, orm.Fields{"body": 3})

		assert.False(t, ok)
		assert.ErrorIs(t, err, orm.ErrValidation)
	})
}

func TestBucket_Destroy(t *testing.T) {
	ctx := context.Background()
	b, store := newBucket(t)

	store.On("Stat", ctx, "notes/n-1.json").Return(storage.ObjectInfo{}, nil).Once()
	store.On("Delete", ctx, "notes/n-1.json").Return(nil).Once()
	store.On("Stat", ctx, "notes/n-1.json").Return(storage.ObjectInfo{}, storage.ErrObjectNotFound).Once()
	store.On("Stat", ctx, "notes/n-2.json").Return(storage.ObjectInfo{}, errors.New("timeout")).Once()

	ok, err := b.Destroy(ctx, "n-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.Destroy(ctx, "n-1")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = b.Destroy(ctx, "n-2")
	assert.False(t, ok)
	assert.ErrorIs(t, err, orm.ErrPersistence)

	store.AssertExpectations(t)
}

func TestRecord_Scan(t *testing.T) {
	r := record{
		raw:  map[string]json.RawMessage{"a": json.RawMessage(`"x"`)},
		cols: []string{"a", "b"},
	}
	var a, b string
	b = "untouched"

	require.NoError(t, r.Scan(&a, &b))
	assert.Equal(t, "x", a)
	assert.Equal(t, "untouched", b)
	assert.Error(t, r.Scan(&a))
}
