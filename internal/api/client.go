package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"cloudclass/internal/log"
)

const errBodyLimit = 64 << 10

// Client is the HTTP provider for the classification service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient injects a custom *http.Client (useful for tests).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient builds a Client for the given base URL, e.g. "http://localhost:5000".
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log.WithComponent("api"),
	}
	for _, o := range opts {
		o(c)
	}
	if c.httpClient == nil {
		// Uploads can be huge and classification queries are cheap; only the
		// cheap calls get a client-side timeout. Uploads rely on ctx.
		c.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return c
}

// Upload streams the file as a multipart request and returns the job id
// assigned by the service. The file must already have passed local checks
// (extension, size); Upload re-checks only what is cheap.
func (c *Client) Upload(ctx context.Context, path string) (UploadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return UploadResult{}, fmt.Errorf("open upload file: %w", err)
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(path))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, f); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", pr)
	if err != nil {
		return UploadResult{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	// No timeout on the shared client would cut a large upload short; use a
	// bare transport-backed client for this one call.
	resp, err := (&http.Client{Transport: c.httpClient.Transport}).Do(req)
	if err != nil {
		return UploadResult{}, fmt.Errorf("upload request: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return UploadResult{}, c.serviceError(resp, "upload rejected")
	}

	var out UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return UploadResult{}, fmt.Errorf("%w: decode upload result: %v", ErrMalformedResponse, err)
	}
	if err := out.validate(); err != nil {
		return UploadResult{}, err
	}
	c.log.Info().Str("file_id", out.FileID).Str("file", filepath.Base(path)).Msg("upload accepted")
	return out, nil
}

// Status queries the job status. Any network or decode failure is returned
// as an error; the caller decides whether it is transient.
func (c *Client) Status(ctx context.Context, fileID string) (JobStatus, error) {
	var st JobStatus
	if err := c.getJSON(ctx, "/api/status/"+fileID, &st); err != nil {
		return JobStatus{}, err
	}
	if err := st.validate(); err != nil {
		return JobStatus{}, err
	}
	return st, nil
}

// Stats fetches the final classification statistics for a completed job.
func (c *Client) Stats(ctx context.Context, fileID string) (Stats, error) {
	var s Stats
	if err := c.getJSON(ctx, "/api/stats/"+fileID, &s); err != nil {
		return Stats{}, err
	}
	if err := s.validate(); err != nil {
		return Stats{}, err
	}
	return s, nil
}

// DownloadURL returns the navigation URL for the classified output file.
func (c *Client) DownloadURL(fileID string) string {
	return c.baseURL + "/api/download/" + fileID
}

// Download saves the classified output file to destPath.
func (c *Client) Download(ctx context.Context, fileID, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.DownloadURL(fileID), nil)
	if err != nil {
		return err
	}
	resp, err := (&http.Client{Transport: c.httpClient.Transport}).Do(req)
	if err != nil {
		return fmt.Errorf("download request: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.serviceError(resp, "download rejected")
	}

	tmp := destPath + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("download %s: %w", fileID, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, destPath)
}

// Ping checks that the service answers with a well-formed status payload.
// The backend reports unknown ids as still processing, which is fine here.
func (c *Client) Ping(ctx context.Context) error {
	var st JobStatus
	if err := c.getJSON(ctx, "/api/status/cloudclass-probe", &st); err != nil {
		return err
	}
	return st.validate()
}

func (c *Client) getJSON(ctx context.Context, path string, into any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.serviceError(resp, "request failed")
	}
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrMalformedResponse, path, err)
	}
	return nil
}

// serviceError extracts the {"error": "..."} message the backend attaches to
// non-2xx responses, falling back to the HTTP status line.
func (c *Client) serviceError(resp *http.Response, fallback string) error {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, errBodyLimit)).Decode(&body); err == nil && body.Error != "" {
		return errors.New(body.Error)
	}
	return fmt.Errorf("%s: %s", fallback, resp.Status)
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, errBodyLimit))
	body.Close()
}
