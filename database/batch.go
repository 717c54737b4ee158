package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
)

// BatchDeleteError indicates which delete failed during a batch.
type BatchDeleteError struct {
	FailedIndex int
	Total       int
	Err         error
}

func (e *BatchDeleteError) Error() string {
	return fmt.Sprintf("failed to delete record at index %d/%d: %v", e.FailedIndex, e.Total, e.Err)
}

func (e *BatchDeleteError) Unwrap() error { return e.Err }

// DeleteMany removes ids in a single round trip. Ids that no longer exist are
// skipped; the returned count covers rows actually removed.
func (c *collection[T]) DeleteMany(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	start := time.Now()
	defer func() {
		log.Printf("DeleteMany %s: duration=%v count=%d", c.t.name, time.Since(start), len(ids))
	}()

	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, c.t.name, c.t.columns[0])

	batch := &pgx.Batch{}
	for _, id := range ids {
		batch.Queue(query, id)
	}

	results := c.db.Pool.SendBatch(ctx, batch)
	defer results.Close()

	deleted := 0
	for i := range ids {
		tag, err := results.Exec()
		if err != nil {
			return deleted, &BatchDeleteError{
				FailedIndex: i,
				Total:       len(ids),
				Err:         translate(err, c.t.tableDef),
			}
		}
		deleted += int(tag.RowsAffected())
	}

	return deleted, nil
}
