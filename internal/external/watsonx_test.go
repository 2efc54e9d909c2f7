package external

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"bluewaters/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWatsonx serves both the IAM token endpoint and the chat endpoint.
type fakeWatsonx struct {
	t *testing.T

	tokenStatus int
	chatStatus  int
	chatBody    string
	chatDelay   time.Duration

	mu          sync.Mutex
	tokenForms  []map[string]string
	chatReqs    []chatRequest
	chatAuth    []string
	chatVersion []string
}

func (f *fakeWatsonx) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/identity/token":
		require.NoError(f.t, r.ParseForm())
		f.mu.Lock()
		f.tokenForms = append(f.tokenForms, map[string]string{
			"grant_type":   r.PostForm.Get("grant_type"),
			"apikey":       r.PostForm.Get("apikey"),
			"content_type": r.Header.Get("Content-Type"),
		})
		f.mu.Unlock()
		if f.tokenStatus != 0 && f.tokenStatus != http.StatusOK {
			w.WriteHeader(f.tokenStatus)
			_, _ = w.Write([]byte(`{"errorMessage":"Provided API key could not be found"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"tok-abc","expires_in":3600}`))
	case "/ml/v1/text/chat":
		var req chatRequest
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))
		f.mu.Lock()
		f.chatReqs = append(f.chatReqs, req)
		f.chatAuth = append(f.chatAuth, r.Header.Get("Authorization"))
		f.chatVersion = append(f.chatVersion, r.URL.Query().Get("version"))
		f.mu.Unlock()
		if f.chatDelay > 0 {
			time.Sleep(f.chatDelay)
		}
		if f.chatStatus != 0 {
			w.WriteHeader(f.chatStatus)
		}
		body := f.chatBody
		if body == "" {
			body = `{"choices":[{"message":{"role":"assistant","content":"Boil water before use."}}]}`
		}
		_, _ = w.Write([]byte(body))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type recordedCall struct {
	step, result string
}

type mockAdvisoryMetrics struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (m *mockAdvisoryMetrics) RecordAdvisoryCall(_ context.Context, step, result string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, recordedCall{step, result})
}

func newTestWatsonx(t *testing.T, fake *fakeWatsonx, mutate ...func(*WatsonxConfig)) (*WatsonxClient, *mockAdvisoryMetrics) {
	t.Helper()
	fake.t = t
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	metrics := &mockAdvisoryMetrics{}
	cfg := WatsonxConfig{
		APIKey:      types.SecretString("key-123"),
		ProjectID:   "proj-1",
		BaseURL:     server.URL + "/",
		IAMURL:      server.URL + "/identity/token",
		ModelID:     "ibm/granite-3-8b-instruct",
		APIVersion:  "2023-10-25",
		MaxTokens:   300,
		Temperature: 0.2,
		TimeLimit:   30 * time.Second,
		Metrics:     metrics,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	return NewWatsonxClient(cfg), metrics
}

func TestWatsonx_FetchAdviceSuccess(t *testing.T) {
	fake := &fakeWatsonx{}
	client, metrics := newTestWatsonx(t, fake)

	got, err := client.FetchAdvice(context.Background(), "pH is 9.1, what should I do?")
	require.NoError(t, err)
	assert.Equal(t, "Boil water before use.", got)

	require.Len(t, fake.tokenForms, 1)
	assert.Equal(t, "urn:ibm:params:oauth:grant-type:apikey", fake.tokenForms[0]["grant_type"])
	assert.Equal(t, "key-123", fake.tokenForms[0]["apikey"])
	assert.Equal(t, "application/x-www-form-urlencoded", fake.tokenForms[0]["content_type"])

	require.Len(t, fake.chatReqs, 1)
	req := fake.chatReqs[0]
	assert.Equal(t, "Bearer tok-abc", fake.chatAuth[0])
	assert.Equal(t, "2023-10-25", fake.chatVersion[0])
	assert.Equal(t, "ibm/granite-3-8b-instruct", req.ModelID)
	assert.Equal(t, "proj-1", req.ProjectID)
	assert.Equal(t, 300, req.MaxTokens)
	assert.InDelta(t, 0.2, req.Temperature, 1e-9)
	assert.Equal(t, int64(30000), req.TimeLimit)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, "water quality monitoring assistant")
	assert.Equal(t, chatMessage{Role: "user", Content: "pH is 9.1, what should I do?"}, req.Messages[1])

	assert.Equal(t, []recordedCall{
		{types.AdvisoryStepToken, types.ResultSuccess},
		{types.AdvisoryStepCompletion, types.ResultSuccess},
	}, metrics.calls)
}

func TestWatsonx_EmptyChoicesFallsBack(t *testing.T) {
	fake := &fakeWatsonx{chatBody: `{"choices":[]}`}
	client, metrics := newTestWatsonx(t, fake)

	got, err := client.FetchAdvice(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, "No response from AI.", got)
	assert.Equal(t, types.ResultFallback, metrics.calls[1].result)
}

func TestWatsonx_TokenRejected(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusInternalServerError} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			fake := &fakeWatsonx{tokenStatus: status}
			client, metrics := newTestWatsonx(t, fake)

			_, err := client.FetchAdvice(context.Background(), "anything")
			require.Error(t, err)
			assert.True(t, types.IsCode(err, types.ErrCodeAdvisoryAuthFailed), "got %v", err)

			appErr, _ := types.AsAppError(err)
			assert.Equal(t, http.StatusInternalServerError, appErr.HTTPStatus())
			assert.Empty(t, fake.chatReqs, "completion must not be attempted")
			assert.Len(t, fake.tokenForms, 1, "token exchange is not retried")
			assert.Equal(t, []recordedCall{{types.AdvisoryStepToken, types.ResultFailure}}, metrics.calls)
		})
	}
}

func TestWatsonx_CompletionNon2xx(t *testing.T) {
	fake := &fakeWatsonx{chatStatus: http.StatusBadRequest, chatBody: `{"errors":[{"code":"invalid_input"}]}`}
	client, _ := newTestWatsonx(t, fake)

	_, err := client.FetchAdvice(context.Background(), "anything")
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrCodeAdvisoryUpstreamFailed))
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "invalid_input")
	assert.Len(t, fake.chatReqs, 1)
}

func TestWatsonx_CompletionServerErrorNotRetried(t *testing.T) {
	fake := &fakeWatsonx{chatStatus: http.StatusServiceUnavailable}
	client, _ := newTestWatsonx(t, fake)

	_, err := client.FetchAdvice(context.Background(), "anything")
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrCodeAdvisoryUpstreamFailed))
	assert.Contains(t, err.Error(), "503")
	assert.Len(t, fake.chatReqs, 1)
}

func TestWatsonx_CompletionTimeout(t *testing.T) {
	fake := &fakeWatsonx{chatDelay: 200 * time.Millisecond}
	client, _ := newTestWatsonx(t, fake, func(c *WatsonxConfig) {
		c.CompletionTimeout = 50 * time.Millisecond
	})

	_, err := client.FetchAdvice(context.Background(), "anything")
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrCodeAdvisoryUpstreamFailed))
	assert.Contains(t, err.Error(), "chat completion request failed:")
	assert.Contains(t, err.Error(), "Timeout")
}

func TestWatsonx_MalformedChatBody(t *testing.T) {
	fake := &fakeWatsonx{chatBody: `not json`}
	client, _ := newTestWatsonx(t, fake)

	_, err := client.FetchAdvice(context.Background(), "anything")
	assert.True(t, types.IsCode(err, types.ErrCodeAdvisoryUpstreamFailed))
}

func TestWatsonx_EachCallExchangesToken(t *testing.T) {
	fake := &fakeWatsonx{}
	client, _ := newTestWatsonx(t, fake)

	for i := 0; i < 3; i++ {
		_, err := client.FetchAdvice(context.Background(), "same prompt")
		require.NoError(t, err)
	}
	assert.Len(t, fake.tokenForms, 3)
	assert.Len(t, fake.chatReqs, 3)
}

func TestWatsonx_DefaultIAMURL(t *testing.T) {
	c := NewWatsonxClient(WatsonxConfig{BaseURL: "https://example.test"})
	assert.Equal(t, "https://iam.cloud.ibm.com/identity/token", c.iamURL)
}

func TestStubAdvisor(t *testing.T) {
	got, err := NewStubAdvisor(nil).FetchAdvice(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, StubAdvice, got)
}

func TestWatsonx_OpenTokenBreakerKeepsCode(t *testing.T) {
	var tokenCalls atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer upstream.Close()

	client := NewWatsonxClient(WatsonxConfig{
		BaseURL: upstream.URL,
		IAMURL:  upstream.URL + "/identity/token",
		Logger:  testLogger(),
	})

	for i := 0; i < 6; i++ {
		_, err := client.FetchAdvice(context.Background(), "prompt")
		require.True(t, types.IsCode(err, types.ErrCodeAdvisoryAuthFailed), "call %d: %v", i, err)
	}

	_, err := client.FetchAdvice(context.Background(), "prompt")
	appErr, ok := types.AsAppError(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, types.ErrCodeUpstreamRateLimited, appErr.Code)
	assert.Equal(t, http.StatusServiceUnavailable, appErr.HTTPStatus())
	assert.Contains(t, appErr.Message, "circuit breaker is open")
	assert.Equal(t, int32(6), tokenCalls.Load(), "identity provider must not be contacted")
}
