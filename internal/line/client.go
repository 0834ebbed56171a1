package line

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

var (
	// ErrFetch marks a failed content retrieval (network or non-2xx status).
	ErrFetch = errors.New("content fetch failed")
	// ErrReply marks a failed reply delivery.
	ErrReply = errors.New("reply delivery failed")
)

// Client talks to the LINE Messaging API: reply delivery and message
// content retrieval. Endpoints are injectable so tests can point at a
// local server.
type Client struct {
	accessToken     string
	apiEndpoint     string
	contentEndpoint string
	httpClient      *http.Client
	logger          *zap.Logger
}

// NewClient builds a Messaging API client authenticated with accessToken.
// The http.Client carries no timeout: a hung call parks only the goroutine
// of the event that issued it.
func NewClient(accessToken, apiEndpoint, contentEndpoint string, logger *zap.Logger) *Client {
	return &Client{
		accessToken:     accessToken,
		apiEndpoint:     apiEndpoint,
		contentEndpoint: contentEndpoint,
		httpClient:      &http.Client{},
		logger:          logger.Named("line_client"),
	}
}

// GetMessageContent retrieves the raw bytes of a message attachment. The
// response is read as binary; no text decoding is applied.
func (c *Client) GetMessageContent(ctx context.Context, messageID string) ([]byte, error) {
	url := fmt.Sprintf("%s/v2/bot/message/%s/content", c.contentEndpoint, messageID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: status %d", ErrFetch, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	return data, nil
}

// ReplyMessage sends one text reply addressed by replyToken.
func (c *Client) ReplyMessage(ctx context.Context, replyToken, text string) error {
	url := c.apiEndpoint + "/v2/bot/message/reply"

	body, err := json.Marshal(replyRequest{
		ReplyToken: replyToken,
		Messages:   []TextMessage{{Type: "text", Text: text}},
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReply, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReply, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReply, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("reply rejected",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", payload))
		return fmt.Errorf("%w: status %d", ErrReply, resp.StatusCode)
	}
	return nil
}
