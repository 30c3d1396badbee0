package sqlmodel

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userapi/internal/orm"
)

type person struct {
	ID        int64
	Name      string
	Age       int
	CreatedAt time.Time
	UpdatedAt time.Time
}

func personSchema() orm.Schema[person, int64] {
	return orm.Schema[person, int64]{
		Name:          "people",
		PrimaryKey:    "id",
		Columns:       []string{"name", "age", "created_at", "updated_at"},
		Fillable:      []string{"name", "age"},
		UpdatedColumn: "updated_at",
		GetID:         func(p *person) int64 { return p.ID },
		SetID:         func(p *person, id int64) { p.ID = id },
		Fill: func(p *person, f orm.Fields) error {
			if v, ok := f["name"]; ok {
				s, ok := v.(string)
				if !ok {
					return &orm.ValidationError{Field: "name", Reason: "must be a string"}
				}
				p.Name = s
			}
			if v, ok := f["age"]; ok {
				n, ok := v.(int)
				if !ok {
					return &orm.ValidationError{Field: "age", Reason: "must be an integer"}
				}
				p.Age = n
			}
			return nil
		},
		Values: func(p *person) []any {
			return []any{p.Name, p.Age, p.CreatedAt, p.UpdatedAt}
		},
		Scan: func(s orm.Scanner) (*person, error) {
			var p person
			if err := s.Scan(&p.ID, &p.Name, &p.Age, &p.CreatedAt, &p.UpdatedAt); err != nil {
				return nil, err
			}
			return &p, nil
		},
		Touch: func(p *person, now time.Time, creating bool) {
			if creating {
				p.CreatedAt = now
			}
			p.UpdatedAt = now
		},
	}
}

var (
	fixedNow   = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	personCols = []string{"id", "name", "age", "created_at", "updated_at"}
)

func newMockTable(t *testing.T, opts ...Option) (*Table[person, int64], sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return New(db, personSchema(), opts...), mock
}

func TestTable_All(t *testing.T) {
	table, mock := newMockTable(t)
	ctx := context.Background()

	t.Run("rows", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id", "name", "age", "created_at", "updated_at" FROM "people"`)).
			WillReturnRows(sqlmock.NewRows(personCols).
				AddRow(1, "Alice", 30, fixedNow, fixedNow).
				AddRow(2, "Bob", 40, fixedNow, fixedNow))

		people, err := table.All(ctx)

		require.NoError(t, err)
		require.Len(t, people, 2)
		assert.Equal(t, "Alice", people[0].Name)
		assert.Equal(t, int64(2), people[1].ID)
	})

	t.Run("empty is not nil", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM "people"`).WillReturnRows(sqlmock.NewRows(personCols))

		people, err := table.All(ctx)

		require.NoError(t, err)
		assert.NotNil(t, people)
		assert.Empty(t, people)
	})

	t.Run("query error", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM "people"`).WillReturnError(errors.New("conn reset"))

		people, err := table.All(ctx)

		assert.Nil(t, people)
		assert.ErrorIs(t, err, orm.ErrPersistence)
		assert.ErrorContains(t, err, "select people: conn reset")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTable_Insert(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the stored row", func(t *testing.T) {
		table, mock := newMockTable(t)
		mock.ExpectQuery(regexp.QuoteMeta(
			`INSERT INTO "people" ("name", "age", "created_at", "updated_at") VALUES ($1, $2, $3, $4) RETURNING "id", "name", "age", "created_at", "updated_at"`)).
			WithArgs("Alice", 30, fixedNow, fixedNow).
			WillReturnRows(sqlmock.NewRows(personCols).AddRow(7, "Alice", 30, fixedNow, fixedNow))

		p, err := table.Insert(ctx, orm.Fields{"name": "Alice", "age": 30})

		require.NoError(t, err)
		assert.Equal(t, int64(7), p.ID)
		assert.Equal(t, "Alice", p.Name)
		assert.Equal(t, fixedNow, p.CreatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("generated id is sent with the row", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		schema := personSchema()
		schema.NewID = func() int64 { return 42 }
		table := New(db, schema, WithClock(func() time.Time { return fixedNow }))

		mock.ExpectQuery(regexp.QuoteMeta(
			`INSERT INTO "people" ("id", "name", "age", "created_at", "updated_at") VALUES ($1, $2, $3, $4, $5)`)).
			WithArgs(int64(42), "Alice", 0, fixedNow, fixedNow).
			WillReturnRows(sqlmock.NewRows(personCols).AddRow(42, "Alice", 0, fixedNow, fixedNow))

		p, err := table.Insert(ctx, orm.Fields{"name": "Alice"})

		require.NoError(t, err)
		assert.Equal(t, int64(42), p.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("guarded field never reaches the store", func(t *testing.T) {
		table, mock := newMockTable(t)

		p, err := table.Insert(ctx, orm.Fields{"name": "Alice", "id": 99})

		assert.Nil(t, p)
		var vErr *orm.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "id", vErr.Field)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("classifier decides constraint errors", func(t *testing.T) {
		dup := errors.New("duplicate key")
		classify := func(op string, err error) error {
			if errors.Is(err, dup) {
				return &orm.ConstraintError{Op: op, Err: err}
			}
			return nil
		}
		table, mock := newMockTable(t, WithClassifier(classify))
		mock.ExpectQuery("INSERT INTO").WillReturnError(dup)

		p, err := table.Insert(ctx, orm.Fields{"name": "Alice"})

		assert.Nil(t, p)
		assert.ErrorIs(t, err, orm.ErrConstraint)
		assert.ErrorIs(t, err, dup)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTable_Find(t *testing.T) {
	table, mock := newMockTable(t)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id", "name", "age", "created_at", "updated_at" FROM "people" WHERE "id" = $1`)).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows(personCols).AddRow(1, "Alice", 30, fixedNow, fixedNow))

		p, err := table.Find(ctx, 1)

		require.NoError(t, err)
		assert.Equal(t, "Alice", p.Name)
	})

	t.Run("missing is nil without error", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM "people" WHERE "id" = \$1`).
			WithArgs(int64(404)).
			WillReturnError(sql.ErrNoRows)

		p, err := table.Find(ctx, 404)

		assert.NoError(t, err)
		assert.Nil(t, p)
	})

	t.Run("other errors propagate", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM "people"`).
			WithArgs(int64(1)).
			WillReturnError(errors.New("timeout"))

		p, err := table.Find(ctx, 1)

		assert.Nil(t, p)
		assert.ErrorIs(t, err, orm.ErrPersistence)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTable_Update(t *testing.T) {
	ctx := context.Background()
	earlier := fixedNow.Add(-time.Hour)

	t.Run("writes assigned columns and the timestamp", func(t *testing.T) {
		table, mock := newMockTable(t)
		p := &person{ID: 1, Name: "Alice", Age: 30, CreatedAt: earlier, UpdatedAt: earlier}

		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "people" SET "name" = $1, "updated_at" = $2 WHERE "id" = $3`)).
			WithArgs("Bob", fixedNow, int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := table.Update(ctx, p, orm.Fields{"name": "Bob"})

		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "Bob", p.Name)
		assert.Equal(t, fixedNow, p.UpdatedAt)
		assert.Equal(t, earlier, p.CreatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no affected rows is false", func(t *testing.T) {
		table, mock := newMockTable(t)
		mock.ExpectExec("UPDATE").WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := table.Update(ctx, &person{ID: 9}, orm.Fields{"age": 1})

		require.NoError(t, err)
		assert.False(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty fields skip the store", func(t *testing.T) {
		table, mock := newMockTable(t)

		ok, err := table.Update(ctx, &person{ID: 1}, orm.Fields{})

		require.NoError(t, err)
		assert.True(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("bad value", func(t *testing.T) {
		table, mock := newMockTable(t)

		ok, err := table.Update(ctx, &person{ID: 1}, orm.Fields{"age": "old"})

		assert.False(t, ok)
		assert.ErrorIs(t, err, orm.ErrValidation)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTable_Destroy(t *testing.T) {
	table, mock := newMockTable(t)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "people" WHERE "id" = $1`)).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "people" WHERE "id" = $1`)).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM").
		WithArgs(int64(2)).
		WillReturnError(errors.New("read only"))

	ok, err := table.Destroy(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = table.Destroy(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = table.Destroy(ctx, 2)
	assert.False(t, ok)
	assert.ErrorIs(t, err, orm.ErrPersistence)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `"users"`, quote("users"))
	assert.Equal(t, `"we""ird"`, quote(`we"ird`))
	assert.Equal(t, `"a", "b"`, quoteList([]string{"a", "b"}))
	assert.Equal(t, "$3, $4, $5", placeholders(3, 3))
}
