package whoami

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
)

// Client calls the whoami API over a UNIX domain socket.
type Client struct {
	http *http.Client
}

// NewClient returns a client for the API served on socketPath.
func NewClient(socketPath string) *Client {
	return &Client{
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					var d net.Dialer
					return d.DialContext(ctx, "unix", socketPath)
				},
			},
		},
	}
}

// Fetch asks the agent who the calling process is.
func (c *Client) Fetch(ctx context.Context) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://peercred-agent"+Path, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to reach whoami API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("unable to read whoami response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Err: DecodeError(resp.StatusCode, body)}
	}

	out := new(Response)
	if err := json.Unmarshal(body, out); err != nil {
		return nil, fmt.Errorf("malformed whoami response: %w", err)
	}
	return out, nil
}

// CloseIdleConnections releases the connections kept by the client.
func (c *Client) CloseIdleConnections() {
	c.http.CloseIdleConnections()
}

// StatusError is returned by Fetch for non-200 responses.
type StatusError struct {
	Code int
	Err  error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("whoami API returned %d: %v", e.Code, e.Err)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}
