package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bluewaters/internal/types"

	"github.com/sony/gobreaker/v2"
)

const (
	defaultIAMURL    = "https://iam.cloud.ibm.com/identity/token"
	iamGrantType     = "urn:ibm:params:oauth:grant-type:apikey"
	chatPath         = "/ml/v1/text/chat"
	watsonxUserAgent = "BlueWaters/1.0"
	tokenBreakerName = "watsonx-iam"
	chatBreakerName  = "watsonx-chat"

	// NoResponseFallback is returned when the model produces no choices.
	NoResponseFallback = "No response from AI."

	systemInstruction = "You are a water quality monitoring assistant. " +
		"Give short, practical recommendations about water safety, contamination " +
		"sources and treatment steps for the reading or risk described by the user."
)

// WatsonxConfig configures the watsonx.ai chat client. Zero timeouts fall
// back to 20s connect / 60s read for the token exchange and 120s for the
// completion.
type WatsonxConfig struct {
	APIKey     types.SecretString
	ProjectID  string
	BaseURL    string
	IAMURL     string
	ModelID    string
	APIVersion string

	MaxTokens   int
	Temperature float64
	TimeLimit   time.Duration

	TokenConnectTimeout time.Duration
	TokenReadTimeout    time.Duration
	CompletionTimeout   time.Duration

	Logger  *slog.Logger
	Metrics AdvisoryMetrics
}

// WatsonxClient implements Advisor against the watsonx.ai text chat API.
// Each FetchAdvice call performs a fresh IAM token exchange followed by one
// completion request. Neither step is retried.
type WatsonxClient struct {
	token *BaseClient
	chat  *BaseClient

	apiKey      types.SecretString
	projectID   string
	baseURL     string
	iamURL      string
	modelID     string
	apiVersion  string
	maxTokens   int
	temperature float64
	timeLimit   time.Duration

	logger  *slog.Logger
	metrics AdvisoryMetrics
}

var _ Advisor = (*WatsonxClient)(nil)

// NewWatsonxClient builds the client with one BaseClient per step, each with
// its own timeouts and its own circuit breaker.
func NewWatsonxClient(cfg WatsonxConfig) *WatsonxClient {
	token := NewBaseClient(
		tokenHTTPClient(
			durationOr(cfg.TokenConnectTimeout, 20*time.Second),
			durationOr(cfg.TokenReadTimeout, 60*time.Second),
		),
		tokenBreakerName, watsonxUserAgent,
	)
	chat := NewBaseClient(
		&http.Client{Timeout: durationOr(cfg.CompletionTimeout, 120*time.Second)},
		chatBreakerName, watsonxUserAgent,
	)
	return NewWatsonxClientWithBase(token, chat, cfg)
}

// NewWatsonxClientWithBase wires pre-built BaseClients, mostly for tests.
func NewWatsonxClientWithBase(token, chat *BaseClient, cfg WatsonxConfig) *WatsonxClient {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var metrics AdvisoryMetrics = nopAdvisoryMetrics{}
	if cfg.Metrics != nil {
		metrics = cfg.Metrics
	}
	iamURL := cfg.IAMURL
	if iamURL == "" {
		iamURL = defaultIAMURL
	}

	return &WatsonxClient{
		token:       token,
		chat:        chat,
		apiKey:      cfg.APIKey,
		projectID:   cfg.ProjectID,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		iamURL:      iamURL,
		modelID:     cfg.ModelID,
		apiVersion:  cfg.APIVersion,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		timeLimit:   cfg.TimeLimit,
		logger:      logger,
		metrics:     metrics,
	}
}

// BreakerState summarises both breakers for health probes: open if either
// step's breaker is open, half-open if either is probing, closed otherwise.
func (c *WatsonxClient) BreakerState() gobreaker.State {
	tokenState, chatState := c.token.BreakerState(), c.chat.BreakerState()
	switch {
	case tokenState == gobreaker.StateOpen || chatState == gobreaker.StateOpen:
		return gobreaker.StateOpen
	case tokenState == gobreaker.StateHalfOpen || chatState == gobreaker.StateHalfOpen:
		return gobreaker.StateHalfOpen
	default:
		return gobreaker.StateClosed
	}
}

// FetchAdvice sends prompt as the user turn and returns the first choice.
//
// Errors are *types.AppError: advisory_auth_failed when the token exchange
// does not succeed, advisory_upstream_failed (with the cause in the message)
// when the completion call fails. While a step's breaker is open the call is
// not attempted and upstream_rate_limited is returned. An empty choices list
// is not an error and yields NoResponseFallback.
func (c *WatsonxClient) FetchAdvice(ctx context.Context, prompt string) (string, error) {
	token, err := c.fetchToken(ctx)
	if err != nil {
		return "", err
	}
	return c.complete(ctx, token, prompt)
}

type iamTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func (c *WatsonxClient) fetchToken(ctx context.Context) (token string, err error) {
	start := time.Now()
	defer func() {
		c.metrics.RecordAdvisoryCall(ctx, types.AdvisoryStepToken, resultOf(err), time.Since(start))
	}()

	form := url.Values{}
	form.Set("grant_type", iamGrantType)
	form.Set("apikey", c.apiKey.Unmask())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.iamURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", types.NewAuthenticationError("failed to build token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.token.Do(req)
	if err != nil {
		if BreakerRejected(err) {
			return "", err
		}
		return "", types.NewAuthenticationError("token exchange failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", types.NewAuthenticationError(
			fmt.Sprintf("token exchange returned %d: %s", resp.StatusCode, truncateBody(body)),
			nil,
		)
	}

	var tr iamTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", types.NewAuthenticationError("failed to decode token response", err)
	}
	if tr.AccessToken == "" {
		return "", types.NewAuthenticationError("token response carried no access_token", nil)
	}

	c.logger.DebugContext(ctx, "advisory token acquired",
		"expires_in", tr.ExpiresIn,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return tr.AccessToken, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	ModelID     string        `json:"model_id"`
	ProjectID   string        `json:"project_id"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	TimeLimit   int64         `json:"time_limit"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *WatsonxClient) complete(ctx context.Context, token, prompt string) (text string, err error) {
	start := time.Now()
	result := types.ResultSuccess
	defer func() {
		if err != nil {
			result = types.ResultFailure
		}
		c.metrics.RecordAdvisoryCall(ctx, types.AdvisoryStepCompletion, result, time.Since(start))
	}()

	payload, err := json.Marshal(chatRequest{
		ModelID:   c.modelID,
		ProjectID: c.projectID,
		Messages: []chatMessage{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TimeLimit:   c.timeLimit.Milliseconds(),
	})
	if err != nil {
		return "", types.NewUpstreamRequestError("failed to encode chat request", err)
	}

	endpoint := c.baseURL + chatPath + "?version=" + url.QueryEscape(c.apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", types.NewUpstreamRequestError("failed to build chat request", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.chat.Do(req)
	if err != nil {
		if BreakerRejected(err) {
			return "", err
		}
		return "", types.NewUpstreamRequestError("chat completion request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", types.NewUpstreamRequestError(
			"chat completion request failed",
			fmt.Errorf("status %d: %s", resp.StatusCode, truncateBody(body)),
		)
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", types.NewUpstreamRequestError("failed to decode chat response", err)
	}

	if len(cr.Choices) == 0 {
		result = types.ResultFallback
		c.logger.WarnContext(ctx, "chat completion returned no choices", "model_id", c.modelID)
		return NoResponseFallback, nil
	}

	c.logger.InfoContext(ctx, "advisory completion received",
		"model_id", c.modelID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return cr.Choices[0].Message.Content, nil
}

// tokenHTTPClient bounds dialing and TLS by connect, and waiting for response
// headers by read.
func tokenHTTPClient(connect, read time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: connect, KeepAlive: 30 * time.Second}).DialContext
	transport.TLSHandshakeTimeout = connect
	transport.ResponseHeaderTimeout = read
	return &http.Client{Transport: transport, Timeout: connect + read}
}

func durationOr(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}

func resultOf(err error) string {
	if err != nil {
		return types.ResultFailure
	}
	return types.ResultSuccess
}

func truncateBody(body []byte) string {
	const maxLen = 200
	s := string(body)
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
