package objectmodel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"userapi/internal/orm"
	"userapi/internal/storage"
)

const recordExt = ".json"

// Bucket is a model handle that keeps each record as a JSON object under <schema.Name>/<id>.json.
// The store has no constraints; uniqueness rules of the entity are not enforced here.
type Bucket[T any, ID comparable] struct {
	store  storage.Storage
	schema orm.Schema[T, ID]
	now    func() time.Time
}

var _ orm.Model[struct{}, string] = (*Bucket[struct{}, string])(nil)

// New creates a Bucket. The schema must generate its own identifiers.
func New[T any, ID comparable](store storage.Storage, schema orm.Schema[T, ID]) (*Bucket[T, ID], error) {
	if schema.NewID == nil {
		return nil, fmt.Errorf("objectmodel: schema %q has no id generator", schema.Name)
	}
	return &Bucket[T, ID]{
		store:  store,
		schema: schema,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// All lists the prefix and reads each record. Records removed while listing are skipped.
func (b *Bucket[T, ID]) All(ctx context.Context) ([]T, error) {
	infos, err := b.store.List(ctx, b.schema.Name+"/")
	if err != nil {
		return nil, orm.Persistence("list "+b.schema.Name, err)
	}
	items := make([]T, 0, len(infos))
	for _, info := range infos {
		if !strings.HasSuffix(info.Key, recordExt) {
			continue
		}
		entity, err := b.read(ctx, info.Key)
		if err != nil {
			return nil, err
		}
		if entity != nil {
			items = append(items, *entity)
		}
	}
	return items, nil
}

func (b *Bucket[T, ID]) Insert(ctx context.Context, fields orm.Fields) (*T, error) {
	entity := new(T)
	if err := b.schema.Apply(entity, fields, b.now(), true); err != nil {
		return nil, err
	}
	b.schema.SetID(entity, b.schema.NewID())
	if err := b.write(ctx, entity); err != nil {
		return nil, err
	}
	return entity, nil
}

func (b *Bucket[T, ID]) Find(ctx context.Context, id ID) (*T, error) {
	return b.read(ctx, b.key(id))
}

func (b *Bucket[T, ID]) Update(ctx context.Context, entity *T, fields orm.Fields) (bool, error) {
	if len(fields) == 0 {
		return true, nil
	}
	ok, err := b.exists(ctx, b.key(b.schema.GetID(entity)))
	if err != nil || !ok {
		return false, err
	}
	if err := b.schema.Apply(entity, fields, b.now(), false); err != nil {
		return false, err
	}
	if err := b.write(ctx, entity); err != nil {
		return false, err
	}
	return true, nil
}

func (b *Bucket[T, ID]) Destroy(ctx context.Context, id ID) (bool, error) {
	key := b.key(id)
	ok, err := b.exists(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := b.store.Delete(ctx, key); err != nil {
		return false, orm.Persistence("delete "+key, err)
	}
	return true, nil
}

func (b *Bucket[T, ID]) key(id ID) string {
	return path.Join(b.schema.Name, fmt.Sprint(id)) + recordExt
}

func (b *Bucket[T, ID]) exists(ctx context.Context, key string) (bool, error) {
	if _, err := b.store.Stat(ctx, key); err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return false, nil
		}
		return false, orm.Persistence("stat "+key, err)
	}
	return true, nil
}

func (b *Bucket[T, ID]) read(ctx context.Context, key string) (*T, error) {
	rc, _, err := b.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, nil
		}
		return nil, orm.Persistence("get "+key, err)
	}
	defer rc.Close()

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(rc).Decode(&raw); err != nil {
		return nil, orm.Persistence("decode "+key, err)
	}
	cols := append([]string{b.schema.PrimaryKey}, b.schema.Columns...)
	entity, err := b.schema.Scan(record{raw: raw, cols: cols})
	if err != nil {
		return nil, orm.Persistence("decode "+key, err)
	}
	return entity, nil
}

func (b *Bucket[T, ID]) write(ctx context.Context, entity *T) error {
	key := b.key(b.schema.GetID(entity))
	body, err := json.Marshal(b.schema.Row(entity))
	if err != nil {
		return orm.Persistence("encode "+key, err)
	}
	_, err = b.store.Put(ctx, key, bytes.NewReader(body), storage.PutObjectOptions{
		Size:        int64(len(body)),
		ContentType: "application/json",
	})
	if err != nil {
		return orm.Persistence("put "+key, err)
	}
	return nil
}

// record adapts a decoded JSON object to orm.Scanner. Absent columns leave dest untouched.
type record struct {
	raw  map[string]json.RawMessage
	cols []string
}

func (r record) Scan(dest ...any) error {
	if len(dest) != len(r.cols) {
		return fmt.Errorf("expected %d destination arguments, got %d", len(r.cols), len(dest))
	}
	for i, col := range r.cols {
		v, ok := r.raw[col]
		if !ok {
			continue
		}
		if err := json.Unmarshal(v, dest[i]); err != nil {
			return fmt.Errorf("column %s: %w", col, err)
		}
	}
	return nil
}
