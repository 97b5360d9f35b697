package mqtt

import (
	"sync"

	"github.com/inasolar/microgrid/core/model"
)

// Publisher pushes run progress and results to interested consumers.
type Publisher interface {
	PublishProgress(runID string, pct int) error
	PublishSummary(runID string, pair model.SummaryPair) error
	Disconnect()
}

// NopPublisher discards everything, used when MQTT is not configured.
type NopPublisher struct{}

func (NopPublisher) PublishProgress(string, int) error              { return nil }
func (NopPublisher) PublishSummary(string, model.SummaryPair) error { return nil }
func (NopPublisher) Disconnect()                                    {}

// MockPublisher records published values, used in tests.
type MockPublisher struct {
	mu        sync.Mutex
	Progress  map[string][]int
	Summaries map[string][]model.SummaryPair
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		Progress:  make(map[string][]int),
		Summaries: make(map[string][]model.SummaryPair),
	}
}

func (m *MockPublisher) PublishProgress(runID string, pct int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Progress[runID] = append(m.Progress[runID], pct)
	return nil
}

func (m *MockPublisher) PublishSummary(runID string, pair model.SummaryPair) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Summaries[runID] = append(m.Summaries[runID], pair)
	return nil
}

func (m *MockPublisher) Disconnect() {}
