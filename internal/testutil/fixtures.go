// Package testutil provides test helper utilities for qudud tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/qudud-dev/qudud/internal/backend"
	"github.com/qudud-dev/qudud/internal/profile"
)

// TempProject creates a temporary directory with the given files and returns its path.
// Files is a map of relative path -> content. Directories are created as needed.
// The directory is automatically cleaned up when the test finishes.
func TempProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()

	for relPath, content := range files {
		absPath := filepath.Join(dir, relPath)
		if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
			t.Fatalf("creating directory for %s: %v", relPath, err)
		}
		if err := os.WriteFile(absPath, []byte(content), 0644); err != nil {
			t.Fatalf("writing %s: %v", relPath, err)
		}
	}

	return dir
}

// ConfigFile returns file contents for a .qudud/config.yaml pointing at apiURL.
func ConfigFile(apiURL string) map[string]string {
	return map[string]string{
		".qudud/config.yaml": "version: 1\nbackend:\n  api_url: \"" + apiURL + "\"\n  timeout_seconds: 5\nlog:\n  enabled: false\n  level: info\nui:\n  markdown: false\n",
	}
}

// StubBackend is a backend.Backend answering from a reply table. Calls are
// recorded; InitErr and SendErr force failures.
type StubBackend struct {
	mu       sync.Mutex
	Replies  map[string]string
	InitErr  error
	SendErr  error
	Profiles []profile.Profile
	Sent     []string
}

var _ backend.Backend = (*StubBackend)(nil)

// NewStubBackend returns a StubBackend with the given replies.
func NewStubBackend(replies map[string]string) *StubBackend {
	if replies == nil {
		replies = map[string]string{}
	}
	return &StubBackend{Replies: replies}
}

// InitializeSession records p and returns InitErr if set.
func (s *StubBackend) InitializeSession(_ context.Context, p profile.Profile) (backend.Ack, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Profiles = append(s.Profiles, p)
	if s.InitErr != nil {
		return backend.Ack{}, s.InitErr
	}
	return backend.Ack{Message: "Session initialized"}, nil
}

// SendMessage records text and returns the table reply, SendErr, or an echo.
func (s *StubBackend) SendMessage(_ context.Context, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Sent = append(s.Sent, text)
	if s.SendErr != nil {
		return "", s.SendErr
	}
	if r, ok := s.Replies[text]; ok {
		return r, nil
	}
	return "echo: " + text, nil
}

// SentMessages returns a copy of the messages sent so far.
func (s *StubBackend) SentMessages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.Sent))
	copy(out, s.Sent)
	return out
}
