// Package persist is the HTTP client for the downloads persist service.
package persist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dgallion1/lessondeck/internal/downloads"
)

// ErrRejected means the service answered but reported success:false.
var ErrRejected = errors.New("persist rejected")

// Client talks to POST /api/save-download and GET /api/downloads.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient returns a client. A zero timeout means 60 seconds.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SaveRequest is the body for POST /api/save-download.
type SaveRequest struct {
	PDFData     string `json:"pdfData"`
	FileName    string `json:"fileName"`
	LessonID    string `json:"lessonId"`
	LessonTitle string `json:"lessonTitle"`
}

// SaveResponse is the service's reply.
type SaveResponse struct {
	Success  bool   `json:"success"`
	FilePath string `json:"filePath,omitempty"`
	FileSize *int64 `json:"fileSize,omitempty"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// SaveDownload uploads pdf as a data URI and returns the stored size.
func (c *Client) SaveDownload(ctx context.Context, fileName, lessonID, lessonTitle string, pdf []byte) (*SaveResponse, error) {
	body, err := json.Marshal(SaveRequest{
		PDFData:     downloads.EncodeDataURI(fileName, pdf),
		FileName:    fileName,
		LessonID:    lessonID,
		LessonTitle: lessonTitle,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal save request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/save-download", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.authorize(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("save download: %w", err)
	}
	defer resp.Body.Close()

	var out SaveResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("save download %s: status %d: %s", fileName, resp.StatusCode, truncate(raw))
	}
	if resp.StatusCode != http.StatusOK || !out.Success {
		msg := out.Error
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return &out, fmt.Errorf("%w: %s: %s", ErrRejected, fileName, msg)
	}
	return &out, nil
}

// ListDownloads returns the files held by the service.
func (c *Client) ListDownloads(ctx context.Context) ([]downloads.File, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/downloads", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.authorize(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("list downloads: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("list downloads: status %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Files []downloads.File `json:"files"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode downloads: %w", err)
	}
	return result.Files, nil
}

func (c *Client) authorize(r *http.Request) {
	if c.apiKey != "" {
		r.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func truncate(b []byte) string {
	if len(b) > 1024 {
		b = b[:1024]
	}
	return string(b)
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
