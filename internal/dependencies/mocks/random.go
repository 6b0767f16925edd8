package mocks

import (
	"fmt"
	"sync"

	"github.com/Yuqi1124/TownRecord/internal/dependencies/random"
)

// MockRandom hands out queued values. Once a queue runs dry it falls back
// to unique placeholders ("string-N", "uuid-N") so that towns and sessions
// created without setup never collide. Safe for concurrent use.
type MockRandom struct {
	mu      sync.Mutex
	ints    []int
	strings []string
	uuids   []string

	// generated counts fallback values so they stay unique
	generated int
}

var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Intn returns the next queued int, or 0 if none remain
func (r *MockRandom) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	return v
}

// String returns the next queued string, ignoring length and alphabet
func (r *MockRandom) String(length int, alphabet string) string {
	return r.next(&r.strings, "string")
}

// UUID returns the next queued id
func (r *MockRandom) UUID() string {
	return r.next(&r.uuids, "uuid")
}

func (r *MockRandom) next(queue *[]string, fallback string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(*queue) == 0 {
		r.generated++
		return fmt.Sprintf("%s-%d", fallback, r.generated)
	}
	v := (*queue)[0]
	*queue = (*queue)[1:]
	return v
}

// QueueIntn adds values to the Intn queue
func (r *MockRandom) QueueIntn(values ...int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ints = append(r.ints, values...)
}

// QueueString adds values to the String queue. Town creation takes two
// (id, update password) and every join takes one (session token).
func (r *MockRandom) QueueString(values ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strings = append(r.strings, values...)
}

// QueueUUID adds values to the UUID queue. Registry joins take one for
// the player id and every join request takes one.
func (r *MockRandom) QueueUUID(values ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.uuids = append(r.uuids, values...)
}

// Reset drops everything still queued
func (r *MockRandom) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ints, r.strings, r.uuids = nil, nil, nil
}
