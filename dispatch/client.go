package dispatch

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
)

const (
	DefaultEndpoint = "http://localhost:8000/api/path/render/image"
	DefaultTimeout  = 30 * time.Second

	maxErrorBody = 200
)

var ErrNotImage = errors.New("dispatch: response is not an image")

// StatusError is a non-2xx reply from the service.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("render failed: %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("render failed: %d %s", e.Code, e.Message)
}

// Result is a rendered image as returned by the service.
type Result struct {
	Data        []byte
	ContentType string
	Image       image.Image
	RequestID   string
}

// DataURL encodes the payload as a data: URL.
func (r *Result) DataURL() string {
	return "data:" + r.ContentType + ";base64," + base64.StdEncoding.EncodeToString(r.Data)
}

// Client sends render requests. One request is one attempt; failures are
// returned to the caller and never retried.
type Client struct {
	Endpoint string
	HTTP     *http.Client
}

func NewClient(endpoint string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{Endpoint: endpoint, HTTP: &http.Client{Timeout: timeout}}
}

func (c *Client) Send(ctx context.Context, req Request) (*Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("dispatch: encode request: %w", err)
	}

	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("dispatch: new request: %w", err)
	}
	id := uuid.NewString()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "image/png, image/*")
	httpReq.Header.Set("X-Request-ID", id)

	start := time.Now()
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("dispatch: post %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("dispatch: read response: %w", err)
	}
	log.Printf("dispatch: %s %d points -> %d (%d bytes, %s)", id, len(req.Points), resp.StatusCode, len(data), time.Since(start).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Message: errorMessage(data)}
	}

	if !filetype.IsImage(data) {
		return nil, fmt.Errorf("%w: %s", ErrNotImage, sniffName(data))
	}
	kind, _ := filetype.Match(data)
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrNotImage, kind.MIME.Value, err)
	}

	return &Result{
		Data:        data,
		ContentType: kind.MIME.Value,
		Image:       img,
		RequestID:   id,
	}, nil
}

// errorMessage extracts the service's {"detail": ...} message, falling back
// to the start of the body.
func errorMessage(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Detail) > 0 {
		var s string
		if err := json.Unmarshal(payload.Detail, &s); err == nil {
			return s
		}
		return string(payload.Detail)
	}

	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody] + "..."
	}
	return msg
}

func sniffName(data []byte) string {
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return "unknown content"
	}
	return kind.MIME.Value
}
