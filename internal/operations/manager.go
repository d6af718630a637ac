package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"ndxcli/internal/infrastructure"
)

// MetadataKeyRecords is the Step metadata key holding the number of
// records the Step produced.
const MetadataKeyRecords = "records"

// Manager orchestrates operation execution
type Manager struct {
	registry *Registry
	config   *Config
	tracer   *OperationTracer
	logger   *slog.Logger

	// Active operations
	mu         sync.RWMutex
	operations map[string]*OperationState
}

// NewManager creates a new operation manager. Nil arguments get defaults.
func NewManager(registry *Registry, config *Config, tracer *OperationTracer, logger *slog.Logger) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	if config == nil {
		config = NewConfig()
	}
	if tracer == nil {
		tracer = NewOperationTracer(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		registry:   registry,
		config:     config,
		tracer:     tracer,
		logger:     infrastructure.WithComponent(logger, "operations"),
		operations: make(map[string]*OperationState),
	}
}

// RegisterStage registers a Step with the operation
func (m *Manager) RegisterStage(step Step) error {
	return m.registry.Register(step)
}

// GetRegistry returns the registry for accessing registered stages
func (m *Manager) GetRegistry() *Registry {
	return m.registry
}

// GetConfig returns the current configuration
func (m *Manager) GetConfig() *Config {
	return m.config
}

// Execute runs every registered Step in dependency order. The first failing
// Step fails the operation and the remaining steps are skipped.
func (m *Manager) Execute(ctx context.Context, req OperationRequest) (*OperationResponse, error) {
	if req.ID == "" {
		req.ID = fmt.Sprintf("operation-%s", uuid.NewString())
	}
	ctx = infrastructure.EnsureTraceID(ctx)

	state := NewOperationState(req.ID)
	if req.ConstituentsFile != "" {
		state.SetConfig(ConfigKeyConstituentsFile, req.ConstituentsFile)
	}
	if req.PriceChangeFile != "" {
		state.SetConfig(ConfigKeyPriceChangeFile, req.PriceChangeFile)
	}
	for k, v := range req.Parameters {
		state.SetConfig(k, v)
	}

	m.storeOperation(state)
	defer m.removeOperation(req.ID)

	steps, err := m.registry.GetDependencyOrder()
	if err != nil {
		err = NewFatalError("failed to get dependency order", err)
		m.logOperationError(ctx, req.ID, err)
		state.Fail(err)
		return m.createResponse(state), err
	}

	for _, step := range steps {
		state.SetStage(step.ID(), NewStepState(step.ID(), step.Name()))
	}

	ctx, span := m.tracer.TraceOperationExecution(ctx, req.ID, req)
	state.Start()
	m.logOperationStart(ctx, req.ID, req, len(steps))

	err = m.executeSequential(ctx, state, steps)

	switch {
	case err != nil && GetErrorType(err) == ErrorTypeCancellation:
		state.Cancel(err)
		m.logOperationError(ctx, req.ID, err)
	case err != nil:
		state.Fail(err)
		m.logOperationError(ctx, req.ID, err)
	default:
		state.Complete()
	}

	m.tracer.RecordOperationCompletion(span, state.GetStatus(), state.Duration(), err)
	m.logOperationComplete(ctx, req.ID, state.Duration(), state.GetStatus())

	return m.createResponse(state), err
}

// executeSequential executes steps one by one
func (m *Manager) executeSequential(ctx context.Context, state *OperationState, steps []Step) error {
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			cancelErr := NewCancellationError(step.ID(), err)
			m.skipRemaining(ctx, state, steps[i:], "operation cancelled")
			return cancelErr
		}

		m.logStageStart(ctx, state.ID, step.ID(), i+1, len(steps))
		if err := m.executeStage(ctx, state, step); err != nil {
			m.logStageError(ctx, state.ID, step.ID(), err)
			m.skipRemaining(ctx, state, steps[i+1:], fmt.Sprintf("Previous Step %s failed", step.ID()))
			return err
		}
	}
	return nil
}

// executeStage executes a single Step. There is no retry.
func (m *Manager) executeStage(ctx context.Context, state *OperationState, step Step) error {
	stepState := state.GetStage(step.ID())
	if stepState == nil {
		return NewFatalError(fmt.Sprintf("state for Step %s not found", step.ID()), nil)
	}

	if err := m.checkDependencies(state, step); err != nil {
		stepState.Fail(err)
		return err
	}

	if err := step.Validate(state); err != nil {
		vErr := NewValidationError(step.ID(), err)
		stepState.Fail(vErr)
		return vErr
	}

	timeout := m.config.GetStageTimeout(step.ID())
	stageCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stageCtx, span := m.tracer.TraceStageExecution(stageCtx, state.ID, step.ID())

	stepState.Start()
	start := time.Now()
	err := step.Execute(stageCtx, state)
	duration := time.Since(start)

	records, _ := stepState.Metadata[MetadataKeyRecords].(int)

	if err != nil {
		switch {
		case ctx.Err() != nil:
			err = NewCancellationError(step.ID(), err)
		case errors.Is(stageCtx.Err(), context.DeadlineExceeded):
			err = NewTimeoutError(step.ID(), timeout.String(), err)
		default:
			err = WrapError(err, step.ID())
		}
		stepState.Fail(err)
		m.tracer.RecordStageCompletion(stageCtx, span, step.ID(), duration, records, err)
		return err
	}

	stepState.Complete()
	m.tracer.RecordStageCompletion(stageCtx, span, step.ID(), duration, records, nil)
	m.logStageComplete(ctx, state.ID, step.ID(), duration)
	return nil
}

// skipRemaining marks every pending Step in steps as skipped
func (m *Manager) skipRemaining(ctx context.Context, state *OperationState, steps []Step, reason string) {
	for _, step := range steps {
		stepState := state.GetStage(step.ID())
		if stepState != nil && stepState.GetStatus() == StepStatusPending {
			stepState.Skip(reason)
			m.logStageSkipped(ctx, state.ID, step.ID(), reason)
		}
	}
}

// checkDependencies verifies that all dependencies are satisfied
func (m *Manager) checkDependencies(state *OperationState, step Step) error {
	for _, dep := range step.GetDependencies() {
		depState := state.GetStage(dep)
		if depState == nil {
			return NewDependencyError(step.ID(), dep, fmt.Sprintf("dependency %s not found", dep))
		}
		if status := depState.GetStatus(); status != StepStatusCompleted {
			return NewDependencyError(step.ID(), dep, fmt.Sprintf("dependency %s not completed (status: %s)", dep, status))
		}
	}
	return nil
}

// createResponse creates an operation response from state
func (m *Manager) createResponse(state *OperationState) *OperationResponse {
	resp := &OperationResponse{
		ID:       state.ID,
		Status:   state.GetStatus(),
		Duration: state.Duration(),
		Steps:    state.Steps,
		State:    state,
	}
	if state.Error != nil {
		resp.Error = state.Error.Error()
	}
	return resp
}

// GetOperation retrieves the state of a running operation
func (m *Manager) GetOperation(id string) (*OperationState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, exists := m.operations[id]
	if !exists {
		return nil, fmt.Errorf("operation %s not found", id)
	}
	return state, nil
}

func (m *Manager) storeOperation(state *OperationState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operations[state.ID] = state
}

func (m *Manager) removeOperation(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.operations, id)
}
