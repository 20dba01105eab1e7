package passwords

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_DelegatesToHasher(t *testing.T) {
	h := &fakeHasher{}
	p := NewPool(h, 2)
	ctx := context.Background()

	digest, err := p.Hash(ctx, "Secret1!")
	require.NoError(t, err)
	assert.Equal(t, "fake$Secret1!", digest)

	ok, err := p.Verify(ctx, "Secret1!", digest)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Verify(ctx, "Secret2!", digest)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, p.VerifyAbsent(ctx))
	assert.Equal(t, int32(1), h.absent.Load())
}

func TestPool_BoundsConcurrency(t *testing.T) {
	h := &fakeHasher{delay: 20 * time.Millisecond}
	p := NewPool(h, 2)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = p.Hash(context.Background(), "x")
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(8), h.hashes.Load())
	assert.LessOrEqual(t, h.peak.Load(), int32(2))
}

func TestPool_HonoursContextWhileWaiting(t *testing.T) {
	h := &fakeHasher{delay: 200 * time.Millisecond}
	p := NewPool(h, 1)

	started := make(chan struct{})
	go func() {
		close(started)
		_, _ = p.Hash(context.Background(), "slow")
	}()
	<-started
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := p.Verify(ctx, "x", "fake$x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	err = p.VerifyAbsent(ctx)
	assert.Error(t, err)
}

func TestNewPool_DefaultsToCPUCount(t *testing.T) {
	p := NewPool(&fakeHasher{}, 0)
	_, err := p.Hash(context.Background(), "x")
	require.NoError(t, err)
}
