package passwords

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// Hasher is the hashing engine contract. cryptox.Argon2 implements it.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
	VerifyAbsent() bool
}

// Pool runs hashing work with bounded concurrency so bursts of logins cannot
// occupy every CPU. Waiting for a slot honours ctx.
type Pool struct {
	hasher Hasher
	sem    *semaphore.Weighted
}

// NewPool allows at most workers concurrent derivations; workers <= 0 means
// one per CPU.
func NewPool(h Hasher, workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{hasher: h, sem: semaphore.NewWeighted(int64(workers))}
}

func (p *Pool) Hash(ctx context.Context, password string) (string, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer p.sem.Release(1)
	return p.hasher.Hash(password)
}

func (p *Pool) Verify(ctx context.Context, password, digest string) (bool, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer p.sem.Release(1)
	return p.hasher.Verify(password, digest), nil
}

// VerifyAbsent spends one dummy verification. It only fails when ctx ends
// before a slot frees up.
func (p *Pool) VerifyAbsent(ctx context.Context) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)
	p.hasher.VerifyAbsent()
	return nil
}
