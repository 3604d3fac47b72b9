package database

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestPoolStatsCollector_Describe(t *testing.T) {
	c := NewPoolStatsCollector(nil, "store-service")

	ch := make(chan *prometheus.Desc, 16)
	c.Describe(ch)
	close(ch)

	var n int
	for range ch {
		n++
	}
	assert.Equal(t, 7, n)

	var _ prometheus.Collector = c
}
