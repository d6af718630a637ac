package operations

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ndxcli/pkg/contracts/domain"
)

func TestStepStateTransitions(t *testing.T) {
	s := NewStepState("load", StageNameLoad)
	assert.Equal(t, StepStatusPending, s.GetStatus())
	assert.Equal(t, time.Duration(0), s.Duration())

	s.Start()
	assert.Equal(t, StepStatusActive, s.GetStatus())
	require.NotNil(t, s.StartTime)

	s.UpdateProgress(40, "halfway")
	assert.Equal(t, 40.0, s.Progress)
	assert.Equal(t, "halfway", s.Message)

	s.SetMetadata("records", 3)
	assert.Equal(t, 3, s.Metadata["records"])

	s.Complete()
	assert.Equal(t, StepStatusCompleted, s.GetStatus())
	assert.Equal(t, 100.0, s.Progress)
	assert.GreaterOrEqual(t, s.Duration(), time.Duration(0))
}

func TestStepStateFailAndSkip(t *testing.T) {
	failed := NewStepState("enrich", StageNameEnrich)
	failed.Start()
	failed.Fail(errors.New("boom"))
	assert.Equal(t, StepStatusFailed, failed.GetStatus())
	assert.EqualError(t, failed.Error, "boom")

	skipped := NewStepState("recommend", StageNameRecommend)
	skipped.Skip("previous step failed")
	assert.Equal(t, StepStatusSkipped, skipped.GetStatus())
	assert.Equal(t, "previous step failed", skipped.Message)
}

func TestBaseStage(t *testing.T) {
	b := NewBaseStage("x", "X", nil)
	assert.Equal(t, "x", b.ID())
	assert.Equal(t, "X", b.Name())
	assert.NotNil(t, b.GetDependencies())
	assert.NoError(t, b.Validate(nil))

	var nilStage *BaseStage
	assert.Empty(t, nilStage.ID())
	assert.Error(t, nilStage.Validate(nil))
}

func TestOperationStateLifecycle(t *testing.T) {
	state := NewOperationState("op-1")
	assert.Equal(t, OperationStatusPending, state.GetStatus())

	state.Start()
	assert.Equal(t, OperationStatusRunning, state.GetStatus())

	state.Complete()
	assert.Equal(t, OperationStatusCompleted, state.GetStatus())
	require.NotNil(t, state.EndTime)

	failed := NewOperationState("op-2")
	failed.Fail(errors.New("nope"))
	assert.Equal(t, OperationStatusFailed, failed.GetStatus())
	assert.EqualError(t, failed.Error, "nope")

	cancelled := NewOperationState("op-3")
	cancelled.Cancel(errors.New("stop"))
	assert.Equal(t, OperationStatusCancelled, cancelled.GetStatus())
}

func TestOperationStateContext(t *testing.T) {
	state := NewOperationState("op")

	state.SetConfig(ConfigKeyConstituentsFile, "a.csv")
	state.SetConfig("count", 3)
	assert.Equal(t, "a.csv", state.GetConfigString(ConfigKeyConstituentsFile))
	assert.Empty(t, state.GetConfigString("count"))
	assert.Empty(t, state.GetConfigString("missing"))

	_, err := state.GetTable(ContextKeyMergedTable)
	assert.Error(t, err)

	state.SetContext(ContextKeyMergedTable, "not a table")
	_, err = state.GetTable(ContextKeyMergedTable)
	assert.Error(t, err)

	table := &domain.MergedTable{Columns: []string{"symbol"}}
	state.SetContext(ContextKeyMergedTable, table)
	got, err := state.GetTable(ContextKeyMergedTable)
	require.NoError(t, err)
	assert.Same(t, table, got)

	_, ok := state.Recommendation()
	assert.False(t, ok)
	state.SetContext(ContextKeyRecommendation, "Buy AAPL")
	rec, ok := state.Recommendation()
	assert.True(t, ok)
	assert.Equal(t, "Buy AAPL", rec)
}

func TestOperationStateCompletion(t *testing.T) {
	state := NewOperationState("op")
	load := NewStepState(StageIDLoad, StageNameLoad)
	enrich := NewStepState(StageIDEnrich, StageNameEnrich)
	state.SetStage(StageIDLoad, load)
	state.SetStage(StageIDEnrich, enrich)

	assert.False(t, state.IsComplete())
	assert.False(t, state.HasFailures())

	load.Complete()
	enrich.Fail(errors.New("x"))
	assert.True(t, state.IsComplete())
	assert.True(t, state.HasFailures())
}

func TestConfigStageTimeouts(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, DefaultLoadTimeout, cfg.GetStageTimeout(StageIDLoad))
	assert.Equal(t, DefaultEnrichTimeout, cfg.GetStageTimeout(StageIDEnrich))
	assert.Equal(t, DefaultStageTimeout, cfg.GetStageTimeout("other"))

	cfg.SetStageTimeout(StageIDLoad, 0)
	assert.Equal(t, DefaultStageTimeout, cfg.GetStageTimeout(StageIDLoad))

	empty := &Config{}
	empty.SetStageTimeout("x", time.Second)
	assert.Equal(t, time.Second, empty.GetStageTimeout("x"))
}
