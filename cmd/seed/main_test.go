package main

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitRange(t *testing.T) {
	tests := []struct {
		name    string
		total   int
		workers int
		want    [][2]int
	}{
		{"even", 8, 4, [][2]int{{1, 2}, {3, 4}, {5, 6}, {7, 8}}},
		{"remainder goes to last", 10, 4, [][2]int{{1, 2}, {3, 4}, {5, 6}, {7, 10}}},
		{"fewer rows than workers", 2, 4, [][2]int{{1, 1}, {2, 2}}},
		{"empty", 0, 4, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitRange(tt.total, tt.workers))
		})
	}
}

func TestNewBatch(t *testing.T) {
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	s := &Seeder{domain: "localhost:8080", expiredEvery: 3, now: now}

	batch := s.newBatch(1, 6)

	require.Equal(t, 6, batch.Len())

	first := batch.QueuedQueries[0].Arguments
	assert.Equal(t, "seed-0000001", first[1])
	assert.Equal(t, "http://localhost:8080/seed-0000001", first[2])
	assert.Nil(t, first[3])

	third := batch.QueuedQueries[2].Arguments
	expiresAt, ok := third[3].(*time.Time)
	require.True(t, ok)
	assert.True(t, expiresAt.Before(now))
}

func TestExpired_Disabled(t *testing.T) {
	s := &Seeder{}

	for i := 1; i <= 10; i++ {
		assert.False(t, s.expired(i))
	}
}

func TestCollectErrors(t *testing.T) {
	errChan := make(chan error, 2)
	first := errors.New("worker 0 failed")
	second := errors.New("worker 3 failed")
	errChan <- first
	errChan <- second
	close(errChan)

	err := collectErrors(errChan)

	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, second)
}

func TestCollectErrors_None(t *testing.T) {
	errChan := make(chan error)
	close(errChan)

	assert.NoError(t, collectErrors(errChan))
}
