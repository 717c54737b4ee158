package database

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/tuanhandsomes/web-upload-image/models"
	"github.com/tuanhandsomes/web-upload-image/store"
)

// tableDef describes how one collection maps onto a table. columns[0] is
// always the primary key.
type tableDef struct {
	name        string
	columns     []string
	filters     map[string]string
	constraints map[string]string
	orderBy     string
}

type table[T models.Record] struct {
	*tableDef
	scan   func(rowScanner) (T, error)
	values func(T) []interface{}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

type collection[T models.Record] struct {
	db *DB
	t  table[T]
}

func (c *collection[T]) selectList() string {
	return strings.Join(c.t.columns, ", ")
}

func (c *collection[T]) List(ctx context.Context, filter store.Filter) ([]T, error) {
	start := time.Now()
	defer func() {
		log.Printf("List %s: duration=%v filters=%v", c.t.name, time.Since(start), filter)
	}()

	qb := NewQueryBuilder()
	if err := qb.AddFilter(filter, c.t.filters); err != nil {
		return nil, err
	}

	// SAFETY: column names come from the table definition, values are
	// parameterized.
	query := fmt.Sprintf(`SELECT %s FROM %s %s ORDER BY %s`,
		c.selectList(), c.t.name, qb.WhereClause(), c.t.orderBy)

	rows, err := c.db.Pool.Query(ctx, query, qb.Args()...)
	if err != nil {
		return nil, translate(err, c.t.tableDef)
	}
	defer rows.Close()

	records := []T{}
	for rows.Next() {
		record, err := c.t.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", c.t.name, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, c.t.tableDef)
	}
	return records, nil
}

func (c *collection[T]) Get(ctx context.Context, id string) (T, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, c.selectList(), c.t.name, c.t.columns[0])

	record, err := c.t.scan(c.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		var zero T
		return zero, translate(err, c.t.tableDef)
	}
	return record, nil
}

func (c *collection[T]) Create(ctx context.Context, record T) (T, error) {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING %s`,
		c.t.name, c.selectList(), placeholders(1, len(c.t.columns)), c.selectList())

	stored, err := c.t.scan(c.db.Pool.QueryRow(ctx, query, c.t.values(record)...))
	if err != nil {
		var zero T
		return zero, translate(err, c.t.tableDef)
	}
	return stored, nil
}

// Replace overwrites every column except the primary key.
func (c *collection[T]) Replace(ctx context.Context, id string, record T) (T, error) {
	args := c.t.values(record)
	args[0] = id

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE %s = $1 RETURNING %s`,
		c.t.name, assignments(c.t.columns[1:], 2), c.t.columns[0], c.selectList())

	stored, err := c.t.scan(c.db.Pool.QueryRow(ctx, query, args...))
	if err != nil {
		var zero T
		return zero, translate(err, c.t.tableDef)
	}
	return stored, nil
}

func (c *collection[T]) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, c.t.name, c.t.columns[0])

	result, err := c.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return translate(err, c.t.tableDef)
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
