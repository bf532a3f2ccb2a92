package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTotalNodes(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, 0, TotalNodes(nil))
	})

	t.Run("sums node counts", func(t *testing.T) {
		layers := []Layer{
			{Name: "frontend", NodeCount: 3},
			{Name: "backend", NodeCount: 7},
			{Name: "data", NodeCount: 2},
		}
		assert.Equal(t, 12, TotalNodes(layers))
	})
}

func TestNoopProvider(t *testing.T) {
	ctx := context.Background()
	p := NoopProvider{}

	layers, err := p.Layers(ctx)
	assert.NoError(t, err)
	assert.Empty(t, layers)
	assert.False(t, p.IsConnected(ctx))
	assert.NoError(t, p.Close(ctx))
}
