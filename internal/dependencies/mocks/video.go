package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/Yuqi1124/TownRecord/internal/services/video"
)

// IssuedToken records one call to MockVideoIssuer
type IssuedToken struct {
	TownID   string
	PlayerID string
}

// MockVideoIssuer returns "video-<town>-<player>" tokens, or a configured
// error. Safe for concurrent use.
type MockVideoIssuer struct {
	mu    sync.Mutex
	err   error
	calls []IssuedToken
}

var _ video.Issuer = (*MockVideoIssuer)(nil)

// NewMockVideoIssuer creates a MockVideoIssuer that always succeeds
func NewMockVideoIssuer() *MockVideoIssuer {
	return &MockVideoIssuer{}
}

// IssueToken records the call and returns a predictable token or the configured error
func (m *MockVideoIssuer) IssueToken(ctx context.Context, townID, playerID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, IssuedToken{TownID: townID, PlayerID: playerID})
	if m.err != nil {
		return "", m.err
	}
	return fmt.Sprintf("video-%s-%s", townID, playerID), nil
}

// Fail makes subsequent calls return err; Fail(nil) restores success
func (m *MockVideoIssuer) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns every IssueToken call so far, in order
func (m *MockVideoIssuer) Calls() []IssuedToken {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]IssuedToken(nil), m.calls...)
}
