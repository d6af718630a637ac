package classifier

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "ndxcli/internal/errors"
	"ndxcli/internal/infrastructure"
	"ndxcli/internal/openai"
)

type stubClient struct {
	mu       sync.Mutex
	answer   string
	err      error
	requests []openai.Request
}

func (s *stubClient) ChatCompletion(ctx context.Context, req openai.Request) (openai.CompletionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if s.err != nil {
		return openai.CompletionResponse{}, s.err
	}
	return openai.CompletionResponse{Content: s.answer}, nil
}

func TestPrompt(t *testing.T) {
	want := "Classify company AAPL into one of the following sectors. Answer only with the sector name: " +
		"Technology, Consumer Cyclical, Industrials, Utilities, Healthcare, Communication, Energy, " +
		"Consumer Defensive, Real Estate, Financial."
	assert.Equal(t, want, Prompt("AAPL"))
}

func TestClassify_SendsDeterministicRequest(t *testing.T) {
	client := &stubClient{answer: " Technology \n"}
	c := New(client, Options{Model: "gpt-3.5-turbo"})

	label, err := c.Classify(context.Background(), "MSFT")
	require.NoError(t, err)
	assert.Equal(t, "Technology", label)

	require.Len(t, client.requests, 1)
	req := client.requests[0]
	assert.Equal(t, "gpt-3.5-turbo", req.Model)
	assert.Equal(t, float64(0), req.Temperature)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, "user", req.Messages[0].Role)
	assert.Equal(t, Prompt("MSFT"), req.Messages[0].Content)
}

func TestClassify_NoCache(t *testing.T) {
	client := &stubClient{answer: "Technology"}
	c := New(client, Options{})

	_, err := c.Classify(context.Background(), "AAPL")
	require.NoError(t, err)
	_, err = c.Classify(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Len(t, client.requests, 2)
}

func TestClassify_ServiceError(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "typed service error", err: apperrors.NewServiceError("completion service returned status 500", nil)},
		{name: "untyped error", err: errors.New("connection reset")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(&stubClient{err: tt.err}, Options{})

			label, err := c.Classify(context.Background(), "TSLA")
			require.Error(t, err)
			assert.Empty(t, label)
			assert.True(t, apperrors.IsService(err))

			appErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, "TSLA", appErr.Context["symbol"])
		})
	}
}

func TestClassify_LabelDrift(t *testing.T) {
	tests := []struct {
		name     string
		answer   string
		validate bool
		want     string
	}{
		{name: "drift kept raw", answer: "technology.", validate: false, want: "technology."},
		{name: "drift normalized", answer: "technology.", validate: true, want: "Technology"},
		{name: "alias normalized", answer: "Health Care", validate: true, want: "Healthcare"},
		{name: "unknown when validating", answer: "Materials", validate: true, want: "Unknown"},
		{name: "sentence kept raw", answer: "Apple is a Technology company", validate: false, want: "Apple is a Technology company"},
		{name: "exact label untouched", answer: "Real Estate", validate: true, want: "Real Estate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics, err := infrastructure.CreatePipelineMetrics(infrastructure.NoopProviders().Meter)
			require.NoError(t, err)

			c := New(&stubClient{answer: tt.answer}, Options{ValidateLabels: tt.validate, Metrics: metrics})
			label, err := c.Classify(context.Background(), "XYZ")
			require.NoError(t, err)
			assert.Equal(t, tt.want, label)
		})
	}
}
