package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrRendererUnavailable is returned when no Gotenberg URL is configured.
var ErrRendererUnavailable = errors.New("report: pdf renderer not configured")

// maxErrorBody bounds how much of a failed response is quoted in the error.
const maxErrorBody = 512

// Page describes the printed layout of a document. Sizes are in inches,
// as Gotenberg's chromium route expects.
type Page struct {
	Width     float64
	Height    float64
	Margin    float64
	Landscape bool
	// Filename is sent as Gotenberg-Output-Filename, without extension.
	Filename string
}

// A4 is the layout used for filed reconciliation reports.
var A4 = Page{Width: 8.27, Height: 11.7, Margin: 0.4}

func (p Page) fields() map[string]string {
	fields := map[string]string{"printBackground": "true"}
	if p.Width > 0 && p.Height > 0 {
		fields["paperWidth"] = formatInches(p.Width)
		fields["paperHeight"] = formatInches(p.Height)
	}
	if p.Margin > 0 {
		m := formatInches(p.Margin)
		for _, side := range []string{"marginTop", "marginBottom", "marginLeft", "marginRight"} {
			fields[side] = m
		}
	}
	if p.Landscape {
		fields["landscape"] = "true"
	}
	return fields
}

func formatInches(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Client talks to a Gotenberg instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a client. An empty baseURL yields a client whose calls
// fail with ErrRendererUnavailable.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

// Ping checks if the remote Gotenberg service is available.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.baseURL == "" {
		return ErrRendererUnavailable
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("report: gotenberg health: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return upstreamError("health", resp)
	}
	return nil
}

// RenderHTML converts an HTML document into a PDF laid out as page.
func (c *Client) RenderHTML(ctx context.Context, html string, page Page) ([]byte, error) {
	if c == nil || c.baseURL == "" {
		return nil, ErrRendererUnavailable
	}
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(part, html); err != nil {
		return nil, err
	}
	for name, value := range page.fields() {
		if err := writer.WriteField(name, value); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/forms/chromium/convert/html", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if page.Filename != "" {
		req.Header.Set("Gotenberg-Output-Filename", page.Filename)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("report: gotenberg convert: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return nil, upstreamError("convert", resp)
	}
	return io.ReadAll(resp.Body)
}

func upstreamError(op string, resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(snippet))
	if msg == "" {
		return fmt.Errorf("report: gotenberg %s returned status %d", op, resp.StatusCode)
	}
	return fmt.Errorf("report: gotenberg %s returned status %d: %s", op, resp.StatusCode, msg)
}
