package passwords

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// fakeHasher stores passwords behind a marker prefix and counts calls.
type fakeHasher struct {
	mu       sync.Mutex
	verifies []string
	absent   atomic.Int32
	hashes   atomic.Int32
	delay    time.Duration
	inflight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeHasher) enter() func() {
	n := f.inflight.Add(1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return func() { f.inflight.Add(-1) }
}

func (f *fakeHasher) Hash(password string) (string, error) {
	defer f.enter()()
	f.hashes.Add(1)
	return "fake$" + password, nil
}

func (f *fakeHasher) Verify(password, digest string) bool {
	defer f.enter()()
	f.mu.Lock()
	f.verifies = append(f.verifies, digest)
	f.mu.Unlock()
	return strings.HasPrefix(digest, "fake$") && digest == "fake$"+password
}

func (f *fakeHasher) VerifyAbsent() bool {
	defer f.enter()()
	f.absent.Add(1)
	return false
}

func (f *fakeHasher) verified() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.verifies...)
}
