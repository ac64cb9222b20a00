package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// authorize fetches the private-channel signature from the
// application: POST socket_id + channel_name with our bearer token,
// receiving the signed auth string the broadcaster expects.
func (c *Conn) authorize(ctx context.Context, channel string) (string, error) {
	form := url.Values{}
	form.Set("socket_id", c.socketID)
	form.Set("channel_name", channel)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.AuthEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+c.cred.Token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("channel auth request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("channel auth rejected: status %d", resp.StatusCode)
	}

	var body struct {
		Auth string `json:"auth"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("parse auth response: %w", err)
	}
	if body.Auth == "" {
		return "", fmt.Errorf("auth response carried no signature")
	}
	return body.Auth, nil
}
