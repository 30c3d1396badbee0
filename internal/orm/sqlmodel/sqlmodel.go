package sqlmodel

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"userapi/internal/orm"
)

// DB is the subset of *sql.DB (and *sql.Tx) a Table needs.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Classifier turns a driver error into an orm error. It returns nil when it does not recognize err.
type Classifier func(op string, err error) error

// Option configures a Table.
type Option func(*options)

type options struct {
	classify Classifier
	now      func() time.Time
}

// WithClassifier sets the driver-specific error classifier.
func WithClassifier(c Classifier) Option {
	return func(o *options) { o.classify = c }
}

// WithClock overrides the clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Table is a model handle over one SQL table. Queries use $n placeholders and double-quoted
// identifiers, which both PostgreSQL and SQLite accept.
type Table[T any, ID comparable] struct {
	db     DB
	schema orm.Schema[T, ID]
	opts   options
}

var _ orm.Model[struct{}, int64] = (*Table[struct{}, int64])(nil)

// New creates a Table for the given schema.
func New[T any, ID comparable](db DB, schema orm.Schema[T, ID], opts ...Option) *Table[T, ID] {
	o := options{now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(&o)
	}
	return &Table[T, ID]{db: db, schema: schema, opts: o}
}

// All selects every row of the table.
func (t *Table[T, ID]) All(ctx context.Context) ([]T, error) {
	q := fmt.Sprintf(`SELECT %s FROM %s`, t.selectList(), quote(t.schema.Name))
	rows, err := t.db.QueryContext(ctx, q)
	if err != nil {
		return nil, t.fail("select "+t.schema.Name, err)
	}
	defer rows.Close()

	items := make([]T, 0)
	for rows.Next() {
		entity, err := t.schema.Scan(rows)
		if err != nil {
			return nil, t.fail("scan "+t.schema.Name, err)
		}
		items = append(items, *entity)
	}
	if err := rows.Err(); err != nil {
		return nil, t.fail("select "+t.schema.Name, err)
	}
	return items, nil
}

// Insert fills a new entity from fields and inserts it, returning the row as stored.
func (t *Table[T, ID]) Insert(ctx context.Context, fields orm.Fields) (*T, error) {
	entity := new(T)
	if err := t.schema.Apply(entity, fields, t.opts.now(), true); err != nil {
		return nil, err
	}

	cols := t.schema.Columns
	args := t.schema.Values(entity)
	if t.schema.NewID != nil {
		t.schema.SetID(entity, t.schema.NewID())
		cols = append([]string{t.schema.PrimaryKey}, cols...)
		args = append([]any{t.schema.GetID(entity)}, args...)
	}

	q := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING %s`,
		quote(t.schema.Name), quoteList(cols), placeholders(1, len(cols)), t.selectList())
	stored, err := t.schema.Scan(t.db.QueryRowContext(ctx, q, args...))
	if err != nil {
		return nil, t.fail("insert "+t.schema.Name, err)
	}
	return stored, nil
}

// Find selects one row by primary key. A missing row yields nil, nil.
func (t *Table[T, ID]) Find(ctx context.Context, id ID) (*T, error) {
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		t.selectList(), quote(t.schema.Name), quote(t.schema.PrimaryKey))
	entity, err := t.schema.Scan(t.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, t.fail("find "+t.schema.Name, err)
	}
	return entity, nil
}

// Update applies fields to entity and writes the assigned columns back.
// Only the columns named in fields, plus the updated timestamp, are written.
func (t *Table[T, ID]) Update(ctx context.Context, entity *T, fields orm.Fields) (bool, error) {
	if len(fields) == 0 {
		return true, nil
	}
	if err := t.schema.Apply(entity, fields, t.opts.now(), false); err != nil {
		return false, err
	}

	values := t.schema.Values(entity)
	sets := make([]string, 0, len(fields)+1)
	args := make([]any, 0, len(fields)+2)
	for i, col := range t.schema.Columns {
		_, dirty := fields[col]
		if !dirty && !(t.schema.Touch != nil && col == t.schema.UpdatedColumn) {
			continue
		}
		args = append(args, values[i])
		sets = append(sets, fmt.Sprintf("%s = $%d", quote(col), len(args)))
	}
	args = append(args, t.schema.GetID(entity))

	q := fmt.Sprintf(`UPDATE %s SET %s WHERE %s = $%d`,
		quote(t.schema.Name), strings.Join(sets, ", "), quote(t.schema.PrimaryKey), len(args))
	res, err := t.db.ExecContext(ctx, q, args...)
	if err != nil {
		return false, t.fail("update "+t.schema.Name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, t.fail("update "+t.schema.Name, err)
	}
	return n > 0, nil
}

// Destroy deletes the row with the given primary key.
func (t *Table[T, ID]) Destroy(ctx context.Context, id ID) (bool, error) {
	q := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, quote(t.schema.Name), quote(t.schema.PrimaryKey))
	res, err := t.db.ExecContext(ctx, q, id)
	if err != nil {
		return false, t.fail("delete "+t.schema.Name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, t.fail("delete "+t.schema.Name, err)
	}
	return n > 0, nil
}

func (t *Table[T, ID]) fail(op string, err error) error {
	if t.opts.classify != nil {
		if classified := t.opts.classify(op, err); classified != nil {
			return classified
		}
	}
	return orm.Persistence(op, err)
}

func (t *Table[T, ID]) selectList() string {
	return quoteList(append([]string{t.schema.PrimaryKey}, t.schema.Columns...))
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func quoteList(idents []string) string {
	out := make([]string, len(idents))
	for i, id := range idents {
		out[i] = quote(id)
	}
	return strings.Join(out, ", ")
}

func placeholders(from, n int) string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("$%d", from+i)
	}
	return strings.Join(out, ", ")
}
