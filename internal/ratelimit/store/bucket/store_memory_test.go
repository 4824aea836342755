package bucket

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"idlink/internal/ratelimit/models"
)

const (
	testLimit  = 5
	testWindow = time.Minute
)

type InMemoryBucketStoreSuite struct {
	suite.Suite
	store *InMemoryBucketStore
	ctx   context.Context
}

func TestInMemoryBucketStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryBucketStoreSuite))
}

func (s *InMemoryBucketStoreSuite) SetupTest() {
	s.store = NewInMemoryBucketStore()
	s.ctx = context.Background()
}

func (s *InMemoryBucketStoreSuite) TestAllow() {
	s.Run("first request allowed with full headroom", func() {
		result, err := s.store.Allow(s.ctx, "rl:ip:first", testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(testLimit, result.Limit)
		s.Equal(testLimit-1, result.Remaining)
		s.False(result.ResetAt.IsZero())
	})

	s.Run("requests up to the limit are allowed", func() {
		var result *models.Result
		var err error
		for range testLimit {
			result, err = s.store.Allow(s.ctx, "rl:ip:exact", testLimit, testWindow)
			s.Require().NoError(err)
		}
		s.True(result.Allowed)
		s.Equal(0, result.Remaining)
	})

	s.Run("request over the limit is denied with retry hint", func() {
		for range testLimit {
			_, err := s.store.Allow(s.ctx, "rl:ip:over", testLimit, testWindow)
			s.Require().NoError(err)
		}
		result, err := s.store.Allow(s.ctx, "rl:ip:over", testLimit, testWindow)
		s.Require().NoError(err)
		s.False(result.Allowed)
		s.Equal(0, result.Remaining)
		s.GreaterOrEqual(result.RetryAfter, 1)
	})

	s.Run("keys do not share buckets", func() {
		for range testLimit {
			_, err := s.store.Allow(s.ctx, "rl:ip:busy", testLimit, testWindow)
			s.Require().NoError(err)
		}
		result, err := s.store.Allow(s.ctx, "rl:ip:quiet", testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
	})
}

func (s *InMemoryBucketStoreSuite) TestWindowExpiry() {
	window := 30 * time.Millisecond
	for range testLimit {
		_, err := s.store.Allow(s.ctx, "rl:ip:expiry", testLimit, window)
		s.Require().NoError(err)
	}
	denied, err := s.store.Allow(s.ctx, "rl:ip:expiry", testLimit, window)
	s.Require().NoError(err)
	s.False(denied.Allowed)

	time.Sleep(window + 10*time.Millisecond)

	allowed, err := s.store.Allow(s.ctx, "rl:ip:expiry", testLimit, window)
	s.Require().NoError(err)
	s.True(allowed.Allowed, "window passed, requests should flow again")
}

func (s *InMemoryBucketStoreSuite) TestReset() {
	for range testLimit {
		_, err := s.store.Allow(s.ctx, "rl:ip:reset", testLimit, testWindow)
		s.Require().NoError(err)
	}

	s.Require().NoError(s.store.Reset(s.ctx, "rl:ip:reset"))

	result, err := s.store.Allow(s.ctx, "rl:ip:reset", testLimit, testWindow)
	s.Require().NoError(err)
	s.True(result.Allowed)
	s.Equal(testLimit-1, result.Remaining)
}

// TestConcurrentAllow hammers one key from many goroutines and verifies the
// store never admits more than the limit.
func (s *InMemoryBucketStoreSuite) TestConcurrentAllow() {
	const goroutines = 50

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := s.store.Allow(s.ctx, "rl:ip:concurrent", testLimit, testWindow)
			s.Require().NoError(err)
			if result.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.Equal(testLimit, allowed, "exactly limit requests should be admitted")
}
