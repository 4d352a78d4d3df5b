package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewMongoClientTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	start := time.Now()
	cli, err := NewMongoClient(ctx, "mongodb://127.0.0.1:1/?directConnection=true", 100*time.Millisecond, zerolog.Nop())

	assert.Error(t, err)
	assert.Nil(t, cli)
	assert.Less(t, time.Since(start), 3*time.Second)
}
