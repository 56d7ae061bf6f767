package cloudstore

import (
	"context"
	"sync"

	"github.com/jornadaii/certify/internal/dataset"
	"github.com/jornadaii/certify/internal/models"
)

// MockStore is an in-memory Store for testing
type MockStore struct {
	mu          sync.Mutex
	responses   map[string][]models.SurveyResponse // email -> answers
	completed   map[string]bool
	pushed      *dataset.Bundle
	bundle      *dataset.Bundle
	replaceErr  error
	markErr     error
	pushErr     error
	fetchErr    error
	pingErr     error
	replaceCall int
	closed      bool
}

// MockOption configures the mock store
type MockOption func(*MockStore)

// WithReplaceError makes ReplaceResponses and PushResponses fail
func WithReplaceError(err error) MockOption {
	return func(m *MockStore) {
		m.replaceErr = err
	}
}

// WithMarkError makes MarkSurveyCompleted fail
func WithMarkError(err error) MockOption {
	return func(m *MockStore) {
		m.markErr = err
	}
}

// WithPushError makes PushDatasets fail
func WithPushError(err error) MockOption {
	return func(m *MockStore) {
		m.pushErr = err
	}
}

// WithBundle sets the datasets returned by FetchDatasets
func WithBundle(b *dataset.Bundle) MockOption {
	return func(m *MockStore) {
		m.bundle = b
	}
}

// WithFetchError makes FetchDatasets fail
func WithFetchError(err error) MockOption {
	return func(m *MockStore) {
		m.fetchErr = err
	}
}

// WithPingError makes Ping fail
func WithPingError(err error) MockOption {
	return func(m *MockStore) {
		m.pingErr = err
	}
}

// NewMockStore creates a new mock store
func NewMockStore(opts ...MockOption) *MockStore {
	m := &MockStore{
		responses: make(map[string][]models.SurveyResponse),
		completed: make(map[string]bool),
		bundle:    &dataset.Bundle{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ReplaceResponses stores the answers under the participant's email
func (m *MockStore) ReplaceResponses(ctx context.Context, email string, responses []models.SurveyResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replaceCall++
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.responses[dataset.NormalizeEmail(email)] = append([]models.SurveyResponse(nil), responses...)
	return nil
}

// MarkSurveyCompleted records the flag
func (m *MockStore) MarkSurveyCompleted(ctx context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.markErr != nil {
		return m.markErr
	}
	m.completed[dataset.NormalizeEmail(email)] = true
	return nil
}

// PushDatasets keeps the bundle for inspection
func (m *MockStore) PushDatasets(ctx context.Context, b *dataset.Bundle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pushErr != nil {
		return m.pushErr
	}
	m.pushed = b
	return nil
}

// PushResponses groups answers by participant, replacing earlier ones
func (m *MockStore) PushResponses(ctx context.Context, responses []models.SurveyResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.replaceErr != nil {
		return m.replaceErr
	}
	grouped := make(map[string][]models.SurveyResponse)
	for _, r := range responses {
		e := dataset.NormalizeEmail(r.ParticipantEmail)
		grouped[e] = append(grouped[e], r)
	}
	for e, rs := range grouped {
		m.responses[e] = rs
	}
	return nil
}

// FetchDatasets returns the configured bundle or error
func (m *MockStore) FetchDatasets(ctx context.Context) (*dataset.Bundle, error) {
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return m.bundle, nil
}

// Ping returns the configured error
func (m *MockStore) Ping(ctx context.Context) error {
	return m.pingErr
}

// Close marks the store closed
func (m *MockStore) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
}

// Responses returns the stored answers for email
func (m *MockStore) Responses(email string) []models.SurveyResponse {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.responses[dataset.NormalizeEmail(email)]
}

// Completed reports whether MarkSurveyCompleted was called for email
func (m *MockStore) Completed(email string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.completed[dataset.NormalizeEmail(email)]
}

// Pushed returns the last bundle passed to PushDatasets
func (m *MockStore) Pushed() *dataset.Bundle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pushed
}

// ReplaceCalls counts ReplaceResponses calls, failed ones included
func (m *MockStore) ReplaceCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.replaceCall
}

// Closed reports whether Close was called
func (m *MockStore) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
