package publisher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/googol/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/proto"
)

type captured struct {
	events []kafka.Event
}

func (c *captured) Publish(_ context.Context, events ...kafka.Event) error {
	c.events = append(c.events, events...)
	return nil
}

func TestPublishStats(t *testing.T) {
	c := &captured{}
	p := New(c)
	stats := proto.SystemStats{TopQueries: []proto.QueryCount{{Query: "go", Count: 3}}}

	require.NoError(t, p.Publish(context.Background(), stats))
	require.Len(t, c.events, 1)
	assert.Equal(t, "system-stats", c.events[0].Key)
	assert.Equal(t, stats, c.events[0].Value)
	assert.Equal(t, "kafka", p.Name())
}
