package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
)

// HTTPPushSender speaks to a push relay over HTTP. Used in development
// against cmd/providersim and in deployments that bridge web-push through a
// self-hosted relay instead of FCM.
type HTTPPushSender struct {
	baseURL string
	timeout time.Duration
	client  *fasthttp.Client
}

type httpPushRequest struct {
	Token  string            `json:"token"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data,omitempty"`
	DryRun bool              `json:"dry_run,omitempty"`
}

type httpPushResponse struct {
	MessageID string `json:"message_id"`
	ErrorCode string `json:"error_code,omitempty"`
	ErrorMsg  string `json:"error_message,omitempty"`
}

func NewHTTPPushSender(baseURL string, timeout time.Duration) *HTTPPushSender {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPPushSender{
		baseURL: baseURL,
		timeout: timeout,
		client: &fasthttp.Client{
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: 60 * time.Second,
		},
	}
}

func (s *HTTPPushSender) Send(ctx context.Context, msg *PushMessage) (string, error) {
	resp, err := s.post(ctx, &httpPushRequest{
		Token: msg.Token,
		Title: msg.Title,
		Body:  msg.Body,
		Data:  msg.Data,
	})
	if err != nil {
		return "", err
	}
	return resp.MessageID, nil
}

func (s *HTTPPushSender) SendDryRun(ctx context.Context, token string) error {
	_, err := s.post(ctx, &httpPushRequest{Token: token, DryRun: true})
	return err
}

func (s *HTTPPushSender) post(ctx context.Context, payload *httpPushRequest) (*httpPushResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(s.baseURL + "/api/v1/push/send")
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(s.timeout)
	}

	if err := s.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	var out httpPushResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	statusCode := resp.StatusCode()
	if statusCode != fasthttp.StatusOK && statusCode != fasthttp.StatusAccepted {
		if out.ErrorMsg != "" {
			return nil, fmt.Errorf("push relay error %s: %s", out.ErrorCode, out.ErrorMsg)
		}
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", statusCode, resp.Body())
	}

	return &out, nil
}
