package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
)

// runLambda serves API Gateway proxy events until the runtime stops the
// process. lambda.Start does not return.
func runLambda(app *application, logger *slog.Logger) error {
	logger.Info("starting in Lambda mode")
	var flush func(context.Context) error
	if app.cloudwatch != nil {
		flush = app.cloudwatch.Flush
	}
	lambda.Start(newLambdaHandler(app.srv.Handler(), flush, logger))
	return nil
}

type proxyHandler func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// newLambdaHandler replays each proxy event through h. flush runs after every
// invocation so buffered metrics are published before the sandbox freezes.
func newLambdaHandler(h http.Handler, flush func(context.Context) error, logger *slog.Logger) proxyHandler {
	return func(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		req, err := toHTTPRequest(ctx, event)
		if err != nil {
			logger.ErrorContext(ctx, "invalid proxy event", "error", err, "path", event.Path)
			return events.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest}, nil
		}

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if flush != nil {
			if err := flush(ctx); err != nil {
				logger.WarnContext(ctx, "metrics flush failed", "error", err)
			}
		}
		return toProxyResponse(rec), nil
	}
}

func toHTTPRequest(ctx context.Context, event events.APIGatewayProxyRequest) (*http.Request, error) {
	path := event.Path
	if path == "" {
		path = "/"
	}

	query := url.Values{}
	if len(event.MultiValueQueryStringParameters) > 0 {
		for k, vs := range event.MultiValueQueryStringParameters {
			for _, v := range vs {
				query.Add(k, v)
			}
		}
	} else {
		for k, v := range event.QueryStringParameters {
			query.Set(k, v)
		}
	}

	body := event.Body
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			return nil, fmt.Errorf("decoding body: %w", err)
		}
		body = string(decoded)
	}

	u := url.URL{Path: path, RawQuery: query.Encode()}
	req, err := http.NewRequestWithContext(ctx, event.HTTPMethod, u.RequestURI(), strings.NewReader(body))
	if err != nil {
		return nil, err
	}

	if len(event.MultiValueHeaders) > 0 {
		for k, vs := range event.MultiValueHeaders {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
	} else {
		for k, v := range event.Headers {
			req.Header.Set(k, v)
		}
	}
	if id := event.RequestContext.RequestID; id != "" && req.Header.Get("X-Request-Id") == "" {
		req.Header.Set("X-Request-Id", id)
	}
	req.RemoteAddr = event.RequestContext.Identity.SourceIP
	req.Host = req.Header.Get("Host")
	return req, nil
}

func toProxyResponse(rec *httptest.ResponseRecorder) events.APIGatewayProxyResponse {
	res := rec.Result()
	body := rec.Body.Bytes()

	resp := events.APIGatewayProxyResponse{
		StatusCode:        res.StatusCode,
		MultiValueHeaders: map[string][]string(res.Header),
	}
	if res.Header.Get("Content-Encoding") != "" || !utf8.Valid(body) {
		resp.Body = base64.StdEncoding.EncodeToString(body)
		resp.IsBase64Encoded = true
	} else {
		resp.Body = string(body)
	}
	return resp
}
