package tx

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithTxAndFrom(t *testing.T) {
	t.Run("round trips a transaction", func(t *testing.T) {
		ctx := WithTx(context.Background(), &sql.Tx{})
		got, ok := From(ctx)
		assert.True(t, ok)
		assert.NotNil(t, got)
	})

	t.Run("nil transaction leaves context unchanged", func(t *testing.T) {
		ctx := WithTx(context.Background(), nil)
		_, ok := From(ctx)
		assert.False(t, ok)
	})

	t.Run("empty context has no transaction", func(t *testing.T) {
		_, ok := From(context.Background())
		assert.False(t, ok)
	})
}

func TestQuerierFromFallsBackToDB(t *testing.T) {
	db := &sql.DB{}
	assert.Equal(t, Querier(db), QuerierFrom(context.Background(), db))

	tx := &sql.Tx{}
	assert.Equal(t, Querier(tx), QuerierFrom(WithTx(context.Background(), tx), db))
}
