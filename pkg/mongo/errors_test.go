package mongo_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	drv "go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/dmitrymomot/tariffledger/pkg/mongo"
)

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	assert.True(t, mongo.IsNotFound(fmt.Errorf("find invoice: %w", drv.ErrNoDocuments)))
	assert.False(t, mongo.IsNotFound(drv.ErrClientDisconnected))
}

func TestConnect_EmptyURL(t *testing.T) {
	t.Parallel()

	_, err := mongo.Connect(context.Background(), mongo.Config{})
	assert.ErrorIs(t, err, mongo.ErrEmptyConnectionURL)
}
