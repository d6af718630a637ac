package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "ndxcli/internal/errors"
	"ndxcli/internal/infrastructure"
)

const (
	constituentsCSV = "symbol,name\nAAPL,Apple Inc.\nMSFT,Microsoft Corp.\nTSLA,Tesla Inc.\n"
	priceChangeCSV  = "symbol,ytd\nAAPL,10.5\nMSFT,-2\nTSLA,30\n"
)

var sectors = map[string]string{
	"AAPL": "Technology",
	"MSFT": "Technology",
	"TSLA": "Consumer Cyclical",
}

// fakeCompletions answers classification prompts from sectors and any other
// prompt with a fixed recommendation. failSymbol gets a 500.
func fakeCompletions(t *testing.T, failSymbol string, calls *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) == 0 {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		prompt := req.Messages[0].Content

		answer := "Technology leads. Buy AAPL and MSFT."
		if strings.HasPrefix(prompt, "Classify company ") {
			symbol := strings.Fields(strings.TrimPrefix(prompt, "Classify company "))[0]
			if symbol == failSymbol {
				http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusInternalServerError)
				return
			}
			answer = sectors[symbol]
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"model": "gpt-3.5-turbo",
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": answer}},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func setupEnv(t *testing.T, baseURL string) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("NDX_OPENAI_API_KEY", "")
	t.Setenv("NDX_OPENAI_BASE_URL", baseURL)
	t.Setenv("NDX_CONFIG", "")
	t.Setenv("NDX_LOGGING_LEVEL", "error")
	t.Cleanup(infrastructure.ResetLoggerForTesting)
}

func writeInputs(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	a := filepath.Join(dir, "nasdaq100.csv")
	b := filepath.Join(dir, "nasdaq100_price_change.csv")
	require.NoError(t, os.WriteFile(a, []byte(constituentsCSV), 0644))
	require.NoError(t, os.WriteFile(b, []byte(priceChangeCSV), 0644))
	return a, b
}

func TestRun(t *testing.T) {
	var calls int32
	srv := fakeCompletions(t, "", &calls)
	setupEnv(t, srv.URL)
	a, b := writeInputs(t)
	countsOut := filepath.Join(t.TempDir(), "counts.csv")
	tableOut := filepath.Join(t.TempDir(), "enriched.csv")

	var stdout strings.Builder
	err := run(context.Background(), []string{
		"-constituents", a,
		"-changes", b,
		"-counts-out", countsOut,
		"-out", tableOut,
	}, &stdout)
	require.NoError(t, err)

	out := stdout.String()
	assert.True(t, strings.HasPrefix(out, "Sector counts:\n"))
	assert.Contains(t, out, "Technology")
	assert.Contains(t, out, "Consumer Cyclical")
	assert.Contains(t, out, "\n\nStock Recommendations:\n")
	assert.Contains(t, out, "Buy AAPL and MSFT.")

	assert.Equal(t, int32(4), atomic.LoadInt32(&calls), "one call per row plus one summary")

	counts, err := os.ReadFile(countsOut)
	require.NoError(t, err)
	assert.Contains(t, string(counts), "Technology,2")
	assert.Contains(t, string(counts), "Consumer Cyclical,1")

	table, err := os.ReadFile(tableOut)
	require.NoError(t, err)
	assert.Contains(t, string(table), "symbol,name,ytd,Sector")
	assert.Contains(t, string(table), "TSLA,Tesla Inc.,30,Consumer Cyclical")
}

func TestRunConcurrent(t *testing.T) {
	var calls int32
	srv := fakeCompletions(t, "", &calls)
	setupEnv(t, srv.URL)
	a, b := writeInputs(t)

	var stdout strings.Builder
	err := run(context.Background(), []string{"-constituents", a, "-changes", b, "-concurrency", "3"}, &stdout)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "Stock Recommendations:")
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
}

func TestRunMissingCredential(t *testing.T) {
	var calls int32
	srv := fakeCompletions(t, "", &calls)
	setupEnv(t, srv.URL)
	t.Setenv("OPENAI_API_KEY", "")

	var stdout strings.Builder
	err := run(context.Background(), []string{
		"-constituents", filepath.Join(t.TempDir(), "absent.csv"),
		"-changes", filepath.Join(t.TempDir(), "absent.csv"),
	}, &stdout)
	require.Error(t, err)
	assert.True(t, apperrors.IsConfig(err), "credential is checked before any file is read: %v", err)
	assert.Empty(t, stdout.String())
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestRunMissingInput(t *testing.T) {
	var calls int32
	srv := fakeCompletions(t, "", &calls)
	setupEnv(t, srv.URL)
	_, b := writeInputs(t)

	var stdout strings.Builder
	err := run(context.Background(), []string{
		"-constituents", filepath.Join(t.TempDir(), "absent.csv"),
		"-changes", b,
	}, &stdout)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err), "got %v", err)
	assert.Empty(t, stdout.String())
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestRunClassificationFailure(t *testing.T) {
	var calls int32
	srv := fakeCompletions(t, "MSFT", &calls)
	setupEnv(t, srv.URL)
	a, b := writeInputs(t)

	var stdout strings.Builder
	err := run(context.Background(), []string{"-constituents", a, "-changes", b}, &stdout)
	require.Error(t, err)
	assert.True(t, apperrors.IsService(err), "got %v", err)
	assert.Contains(t, err.Error(), "MSFT")
	assert.Empty(t, stdout.String(), "no partial report")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "stops at the first failing row")
}

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-concurrency", "4", "-validate-labels", "-markdown", "-style", "notty"})
	require.NoError(t, err)
	assert.Equal(t, 4, opts.concurrency)
	assert.True(t, opts.validateLabels)
	assert.True(t, opts.markdown)
	assert.Equal(t, "notty", opts.style)

	_, err = parseFlags([]string{"stray"})
	assert.Error(t, err)

	_, err = parseFlags([]string{"-unknown"})
	assert.Error(t, err)
}
