package pg_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/tariffledger/pkg/pg"
)

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	unique := &pgconn.PgError{Code: "23505", ConstraintName: "subscriptions_one_live_per_subject"}
	wrapped := fmt.Errorf("save subscription: %w", unique)

	assert.True(t, pg.IsDuplicateKeyError(wrapped))
	assert.Equal(t, "subscriptions_one_live_per_subject", pg.ConstraintName(wrapped))
	assert.False(t, pg.IsForeignKeyViolationError(wrapped))

	assert.True(t, pg.IsForeignKeyViolationError(&pgconn.PgError{Code: "23503"}))
	assert.True(t, pg.IsSerializationError(errors.Join(errors.New("tx"), &pgconn.PgError{Code: "40001"})))

	assert.True(t, pg.IsNotFoundError(fmt.Errorf("get: %w", pgx.ErrNoRows)))
	assert.False(t, pg.IsNotFoundError(nil))
	assert.False(t, pg.IsDuplicateKeyError(errors.New("plain")))
	assert.Empty(t, pg.ConstraintName(errors.New("plain")))
}
