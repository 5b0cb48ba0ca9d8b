package clowder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the Clowder v1 REST API of the host data-management service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

// File is one entry of a dataset file listing.
type File struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType,omitempty"`
	DateCreated string `json:"date-created,omitempty"`
}

// Metadata is a JSON-LD metadata document attached to a dataset.
type Metadata struct {
	Context []string        `json:"@context"`
	Agent   Agent           `json:"agent"`
	Content MetadataContent `json:"content"`
}

type Agent struct {
	Type   string `json:"@type"`
	UserID string `json:"user_id"`
}

type MetadataContent struct {
	Extractor      string          `json:"extractor"`
	ExtractedFiles []ExtractedFile `json:"extracted_files"`
}

type ExtractedFile struct {
	FileID      string `json:"file_id"`
	Filename    string `json:"filename"`
	Description string `json:"description"`
}

// RetryableError is returned for responses worth retrying (429 and 5xx).
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, e.Message)
}

// ListDatasetFiles returns every file in a dataset.
func (c *Client) ListDatasetFiles(ctx context.Context, datasetID string) ([]File, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/datasets/"+url.PathEscape(datasetID)+"/files", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req, "list dataset files", http.StatusOK)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var files []File
	if err := json.NewDecoder(resp.Body).Decode(&files); err != nil {
		return nil, fmt.Errorf("decode dataset files: %w", err)
	}
	return files, nil
}

// DeleteFile removes a file from the host.
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/api/files/"+url.PathEscape(fileID), nil)
	if err != nil {
		return err
	}
	resp, err := c.do(req, "delete file "+fileID, http.StatusOK, http.StatusNoContent)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// UploadToDataset uploads r as a new file called name and returns the new file ID.
// Extraction on the host is disabled for the uploaded file.
func (c *Client) UploadToDataset(ctx context.Context, datasetID, name string, r io.Reader) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("File", name)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("copy %s: %w", name, err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/uploadToDataset/"+url.PathEscape(datasetID)+"?extract=false", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.do(req, "upload "+name, http.StatusOK, http.StatusCreated)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if result.ID == "" {
		return "", fmt.Errorf("upload %s: response carried no file id", name)
	}
	return result.ID, nil
}

// UploadDatasetMetadata attaches a JSON-LD metadata document to a dataset.
func (c *Client) UploadDatasetMetadata(ctx context.Context, datasetID string, md Metadata) error {
	payload, err := json.Marshal(md)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/api/datasets/"+url.PathEscape(datasetID)+"/metadata.jsonld", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req, "upload metadata", http.StatusOK, http.StatusCreated)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// DownloadFile streams the content of a file into w.
func (c *Client) DownloadFile(ctx context.Context, fileID string, w io.Writer) (int64, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/files/"+url.PathEscape(fileID)+"/blob", nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.do(req, "download file "+fileID, http.StatusOK)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("download file %s: %w", fileID, err)
	}
	return n, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	return req, nil
}

// do sends req and returns the response when its status is one of ok. Any
// other status closes the body and becomes an error.
func (c *Client) do(req *http.Request, op string, ok ...int) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, code := range ok {
		if resp.StatusCode == code {
			return resp, nil
		}
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, &RetryableError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("%s: %s", op, respBody)}
	}
	return nil, fmt.Errorf("%s: status %d: %s", op, resp.StatusCode, string(respBody))
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
