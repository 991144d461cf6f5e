package fcm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const androidChannelID = "hall_booking_notifications"

// SendError is returned when FCM answers with a non-2xx status.
type SendError struct {
	StatusCode int
	Body       string
}

func (e *SendError) Error() string {
	return fmt.Sprintf("fcm send failed: status %d: %s", e.StatusCode, e.Body)
}

type Message struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

type Client struct {
	projectID string
	baseURL   string
	tokens    *TokenSource
	http      *http.Client
}

type ClientConfig struct {
	// BaseURL overrides https://fcm.googleapis.com, mainly for tests.
	BaseURL string
	Timeout time.Duration
}

func NewClient(sa *ServiceAccount, cfg ClientConfig) (*Client, error) {
	signer, err := NewSigner(sa)
	if err != nil {
		return nil, err
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}

	return &Client{
		projectID: sa.ProjectID,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		tokens:    NewTokenSource(signer, sa.TokenURI, httpClient),
		http:      httpClient,
	}, nil
}

type wireMessage struct {
	Message wirePayload `json:"message"`
}

type wirePayload struct {
	Token        string            `json:"token"`
	Notification wireNotification  `json:"notification"`
	Android      wireAndroid       `json:"android"`
	APNS         wireAPNS          `json:"apns"`
	Data         map[string]string `json:"data,omitempty"`
}

type wireNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type wireAndroid struct {
	Priority     string `json:"priority"`
	Notification struct {
		ChannelID string `json:"channel_id"`
	} `json:"notification"`
}

type wireAPNS struct {
	Payload struct {
		APS struct {
			Sound string `json:"sound"`
			Badge int    `json:"badge"`
		} `json:"aps"`
	} `json:"payload"`
}

func buildMessage(m Message) wireMessage {
	p := wirePayload{
		Token:        m.Token,
		Notification: wireNotification{Title: m.Title, Body: m.Body},
		Data:         m.Data,
	}
	p.Android.Priority = "high"
	p.Android.Notification.ChannelID = androidChannelID
	p.APNS.Payload.APS.Sound = "default"
	p.APNS.Payload.APS.Badge = 1

	return wireMessage{Message: p}
}

// Send pushes one message to a device token through the FCM HTTP v1 API.
func (c *Client) Send(ctx context.Context, m Message) error {
	accessToken, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("get access token: %w", err)
	}

	payload, err := json.Marshal(buildMessage(m))
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/projects/%s/messages:send", c.baseURL, c.projectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build send request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return &SendError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
