package testutil

import (
	"context"
	"sync"
	"time"

	"ndxcli/internal/operations"
	"ndxcli/pkg/contracts/domain"
)

// MockStage is a configurable Step for manager tests
type MockStage struct {
	IDValue           string
	NameValue         string
	DependenciesValue []string

	// Configurable functions
	ExecuteFunc  func(ctx context.Context, state *operations.OperationState) error
	ValidateFunc func(state *operations.OperationState) error

	// Call tracking
	mu            sync.Mutex
	ExecuteCalls  int
	ExecuteTimes  []time.Time
	ValidateCalls int
}

// NewMockStage creates a mock Step with the given dependencies
func NewMockStage(id string, deps ...string) *MockStage {
	return &MockStage{
		IDValue:           id,
		NameValue:         "Mock " + id,
		DependenciesValue: deps,
	}
}

// ID returns the step ID
func (m *MockStage) ID() string {
	return m.IDValue
}

// Name returns the step name
func (m *MockStage) Name() string {
	return m.NameValue
}

// GetDependencies returns the step dependencies
func (m *MockStage) GetDependencies() []string {
	if m.DependenciesValue == nil {
		return []string{}
	}
	return m.DependenciesValue
}

// Execute runs the mock execute function
func (m *MockStage) Execute(ctx context.Context, state *operations.OperationState) error {
	m.mu.Lock()
	m.ExecuteCalls++
	m.ExecuteTimes = append(m.ExecuteTimes, time.Now())
	m.mu.Unlock()

	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, state)
	}
	return nil
}

// Validate runs the mock validate function
func (m *MockStage) Validate(state *operations.OperationState) error {
	m.mu.Lock()
	m.ValidateCalls++
	m.mu.Unlock()

	if m.ValidateFunc != nil {
		return m.ValidateFunc(state)
	}
	return nil
}

// GetExecuteCalls returns the number of Execute calls
func (m *MockStage) GetExecuteCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ExecuteCalls
}

// GetValidateCalls returns the number of Validate calls
func (m *MockStage) GetValidateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ValidateCalls
}

// StubLoader returns a fixed table or error
type StubLoader struct {
	Table *domain.MergedTable
	Err   error

	Calls []string
}

// LoadAndMerge records the paths and returns the configured result
func (s *StubLoader) LoadAndMerge(ctx context.Context, a, b string) (*domain.MergedTable, error) {
	s.Calls = append(s.Calls, a, b)
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Table, nil
}

// StubEnricher labels every record with Sector unless Err is set
type StubEnricher struct {
	Sector string
	Err    error

	Calls int
}

// Enrich returns a labelled copy of table
func (s *StubEnricher) Enrich(ctx context.Context, table *domain.MergedTable) (*domain.MergedTable, error) {
	s.Calls++
	if s.Err != nil {
		return nil, s.Err
	}
	out := table.Clone()
	for i := range out.Records {
		out.Records[i].Sector = s.Sector
	}
	out.Enriched = true
	return out, nil
}

// StubSummarizer returns a fixed recommendation
type StubSummarizer struct {
	Text string
	Err  error

	Tables []*domain.MergedTable
}

// Summarize records the table and returns the configured result
func (s *StubSummarizer) Summarize(ctx context.Context, table *domain.MergedTable) (string, error) {
	s.Tables = append(s.Tables, table)
	if s.Err != nil {
		return "", s.Err
	}
	return s.Text, nil
}

// SampleTable builds a merged table with one record per symbol
func SampleTable(symbols ...string) *domain.MergedTable {
	table := &domain.MergedTable{
		Columns:   []string{"symbol", "name", "ytd"},
		JoinKey:   "symbol",
		ChangeKey: "ytd",
	}
	for i, sym := range symbols {
		ytd := float64(i+1) * 1.5
		table.Records = append(table.Records, domain.CompanyRecord{
			Symbol: sym,
			Name:   sym + " Inc",
			YTD:    ytd,
			Values: []string{sym, sym + " Inc", domain.FormatChange(ytd)},
		})
	}
	return table
}
