package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// fcmScope is the OAuth scope required by the FCM HTTP v1 API
const fcmScope = "https://www.googleapis.com/auth/firebase.messaging"

// PushSender delivers a push notification to one device token
type PushSender interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) error
}

// FCMClient sends push notifications through the Firebase Cloud Messaging
// HTTP v1 API, authenticating with a service-account token source
type FCMClient struct {
	projectID   string
	tokenSource oauth2.TokenSource
	httpClient  *http.Client
}

// NewFCMClient builds an FCM client from a service-account credentials file
func NewFCMClient(projectID, credentialsFile string) (*FCMClient, error) {
	creds, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("fcm: read credentials: %w", err)
	}

	jwtConfig, err := google.JWTConfigFromJSON(creds, fcmScope)
	if err != nil {
		return nil, fmt.Errorf("fcm: parse credentials: %w", err)
	}

	return &FCMClient{
		projectID:   projectID,
		tokenSource: jwtConfig.TokenSource(context.Background()),
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}, nil
}

type fcmMessage struct {
	Message struct {
		Token        string            `json:"token"`
		Notification fcmNotification   `json:"notification"`
		Data         map[string]string `json:"data,omitempty"`
	} `json:"message"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Send delivers one notification to one device token
func (c *FCMClient) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	var msg fcmMessage
	msg.Message.Token = token
	msg.Message.Notification = fcmNotification{Title: title, Body: body}
	msg.Message.Data = data

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("fcm: marshal message: %w", err)
	}

	oauthToken, err := c.tokenSource.Token()
	if err != nil {
		return fmt.Errorf("fcm: obtain access token: %w", err)
	}

	url := fmt.Sprintf("https://fcm.googleapis.com/v1/projects/%s/messages:send", c.projectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("fcm: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	oauthToken.SetAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fcm: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("fcm: send failed with status %d: %s", resp.StatusCode, respBody)
	}
	return nil
}
