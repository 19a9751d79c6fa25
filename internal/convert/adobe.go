// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/pdiddy/pdfcoder/internal/httputil"
	"github.com/pdiddy/pdfcoder/pkg/types"
)

const (
	defaultBaseURL      = "https://pdf-services.adobe.io"
	defaultPollInterval = 2 * time.Second
	defaultTimeout      = 2 * time.Minute
	defaultUserAgent    = "pdfcoder/0.1"

	// maxPolls bounds how long one job is awaited: maxPolls * PollInterval.
	maxPolls = 300

	mediaTypePDF = "application/pdf"

	jobInProgress = "in progress"
	jobDone       = "done"
	jobFailed     = "failed"
)

// ServiceAPIError reports that the extraction service rejected a request or
// failed the job.
type ServiceAPIError struct {
	Op         string
	StatusCode int
	Code       string
	Message    string
}

func (e *ServiceAPIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: service error %d (%s): %s", e.Op, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: service error %d: %s", e.Op, e.StatusCode, e.Message)
}

// ServiceUsageError reports that the account's rate or quota was exhausted.
type ServiceUsageError struct {
	Op      string
	Message string
}

func (e *ServiceUsageError) Error() string {
	return fmt.Sprintf("%s: usage limit: %s", e.Op, e.Message)
}

// SDKError reports a client-side failure: transport, encoding, or a payload
// the client could not interpret.
type SDKError struct {
	Op  string
	Err error
}

func (e *SDKError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *SDKError) Unwrap() error { return e.Err }

// classifyError maps a raw failure from step op onto the service error types.
func classifyError(op string, err error) error {
	var se *httputil.StatusError
	if !errors.As(err, &se) {
		return &SDKError{Op: op, Err: err}
	}

	code, msg := parseErrorBody(se.Body)
	if se.StatusCode == http.StatusTooManyRequests || strings.Contains(strings.ToUpper(code), "QUOTA") {
		return &ServiceUsageError{Op: op, Message: msg}
	}
	return &ServiceAPIError{Op: op, StatusCode: se.StatusCode, Code: code, Message: msg}
}

// serviceError is the error object embedded in service responses.
type serviceError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func parseErrorBody(body string) (code, message string) {
	var wrapped struct {
		Error serviceError `json:"error"`
	}
	if err := json.Unmarshal([]byte(body), &wrapped); err == nil && wrapped.Error.Message != "" {
		return wrapped.Error.Code, wrapped.Error.Message
	}
	var flat serviceError
	if err := json.Unmarshal([]byte(body), &flat); err == nil && flat.Message != "" {
		return flat.Code, flat.Message
	}
	return "", strings.TrimSpace(body)
}

// AdobeExtractor extracts structured text from PDFs through the Adobe PDF
// Services REST API. One Extract call uploads the document, runs an
// extractpdf job for text elements, waits for it, and downloads the
// resulting zip archive.
type AdobeExtractor struct {
	cfg    types.PDFServicesConfig
	client *http.Client

	token       string
	tokenExpiry time.Time
}

// NewAdobeExtractor validates the credential pair and applies defaults.
func NewAdobeExtractor(cfg types.PDFServicesConfig, client *http.Client) (*AdobeExtractor, error) {
	if strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, fmt.Errorf("PDF Services client ID and client secret are required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	switch {
	case client == nil:
		client = &http.Client{Timeout: cfg.Timeout}
	case client.Timeout == 0:
		c := *client
		c.Timeout = cfg.Timeout
		client = &c
	}
	return &AdobeExtractor{cfg: cfg, client: client}, nil
}

// Extract runs the extraction job for the PDF at pdfPath and returns the
// archive bytes.
func (a *AdobeExtractor) Extract(ctx context.Context, pdfPath string) ([]byte, error) {
	pdf, err := os.ReadFile(pdfPath)
	if err != nil {
		return nil, &SDKError{Op: "read document", Err: err}
	}

	if err := a.authenticate(ctx); err != nil {
		return nil, err
	}

	uploadURI, assetID, err := a.createAsset(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.upload(ctx, uploadURI, pdf); err != nil {
		return nil, err
	}

	location, err := a.submit(ctx, assetID)
	if err != nil {
		return nil, err
	}

	downloadURI, err := a.await(ctx, location)
	if err != nil {
		return nil, err
	}
	return a.download(ctx, downloadURI)
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// authenticate fetches an access token unless the cached one is still valid.
func (a *AdobeExtractor) authenticate(ctx context.Context) error {
	if a.token != "" && time.Now().Before(a.tokenExpiry) {
		return nil
	}

	form := url.Values{}
	form.Set("client_id", a.cfg.ClientID)
	form.Set("client_secret", a.cfg.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"/token", strings.NewReader(form.Encode()))
	if err != nil {
		return &SDKError{Op: "authenticate", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var tr tokenResponse
	if _, err := a.doJSON(req, &tr); err != nil {
		return classifyError("authenticate", err)
	}
	if tr.AccessToken == "" {
		return &SDKError{Op: "authenticate", Err: errors.New("empty access token")}
	}

	a.token = tr.AccessToken
	// refresh a minute early
	a.tokenExpiry = time.Now().Add(time.Duration(tr.ExpiresIn)*time.Second - time.Minute)
	return nil
}

type assetResponse struct {
	UploadURI string `json:"uploadUri"`
	AssetID   string `json:"assetID"`
}

func (a *AdobeExtractor) createAsset(ctx context.Context) (uploadURI, assetID string, err error) {
	req, err := a.newAPIRequest(ctx, http.MethodPost, "/assets", map[string]string{"mediaType": mediaTypePDF})
	if err != nil {
		return "", "", &SDKError{Op: "create asset", Err: err}
	}

	var ar assetResponse
	if _, err := a.doJSON(req, &ar); err != nil {
		return "", "", classifyError("create asset", err)
	}
	if ar.UploadURI == "" || ar.AssetID == "" {
		return "", "", &SDKError{Op: "create asset", Err: errors.New("response missing uploadUri or assetID")}
	}
	return ar.UploadURI, ar.AssetID, nil
}

func (a *AdobeExtractor) upload(ctx context.Context, uploadURI string, pdf []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURI, bytes.NewReader(pdf))
	if err != nil {
		return &SDKError{Op: "upload", Err: err}
	}
	req.Header.Set("Content-Type", mediaTypePDF)

	if _, err := a.do(req); err != nil {
		return classifyError("upload", err)
	}
	return nil
}

type extractRequest struct {
	AssetID           string   `json:"assetID"`
	ElementsToExtract []string `json:"elementsToExtract"`
}

// submit starts the extraction job and returns its status URL.
func (a *AdobeExtractor) submit(ctx context.Context, assetID string) (string, error) {
	body := extractRequest{AssetID: assetID, ElementsToExtract: []string{"text"}}
	req, err := a.newAPIRequest(ctx, http.MethodPost, "/operation/extractpdf", body)
	if err != nil {
		return "", &SDKError{Op: "submit job", Err: err}
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return "", &SDKError{Op: "submit job", Err: err}
	}
	defer resp.Body.Close()
	if err := httputil.CheckStatus(resp); err != nil {
		return "", classifyError("submit job", err)
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return "", &SDKError{Op: "submit job", Err: errors.New("response missing Location header")}
	}
	return location, nil
}

type assetRef struct {
	DownloadURI string `json:"downloadUri"`
}

type jobStatus struct {
	Status   string        `json:"status"`
	Resource *assetRef     `json:"resource,omitempty"`
	Content  *assetRef     `json:"content,omitempty"`
	Error    *serviceError `json:"error,omitempty"`
}

// await polls the job until it finishes and returns the archive download URI.
func (a *AdobeExtractor) await(ctx context.Context, location string) (string, error) {
	var downloadURI string

	err := httputil.Poll(ctx, a.cfg.PollInterval, maxPolls, func(ctx context.Context) (bool, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
		if err != nil {
			return false, &SDKError{Op: "poll job", Err: err}
		}
		a.setAuth(req)

		var js jobStatus
		if _, err := a.doJSON(req, &js); err != nil {
			return false, classifyError("poll job", err)
		}

		switch js.Status {
		case jobInProgress:
			return false, nil
		case jobDone:
			if js.Resource == nil || js.Resource.DownloadURI == "" {
				return false, &SDKError{Op: "poll job", Err: errors.New("finished job has no resource download URI")}
			}
			downloadURI = js.Resource.DownloadURI
			return true, nil
		case jobFailed:
			jobErr := &ServiceAPIError{Op: "extract", Message: "job failed"}
			if js.Error != nil {
				jobErr.StatusCode = js.Error.Status
				jobErr.Code = js.Error.Code
				jobErr.Message = js.Error.Message
			}
			return false, jobErr
		default:
			return false, &SDKError{Op: "poll job", Err: fmt.Errorf("unexpected job status %q", js.Status)}
		}
	})
	if errors.Is(err, httputil.ErrPollLimit) || errors.Is(err, context.DeadlineExceeded) {
		return "", &SDKError{Op: "poll job", Err: err}
	}
	return downloadURI, err
}

func (a *AdobeExtractor) download(ctx context.Context, downloadURI string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURI, nil)
	if err != nil {
		return nil, &SDKError{Op: "download", Err: err}
	}

	data, err := a.do(req)
	if err != nil {
		return nil, classifyError("download", err)
	}
	if len(data) == 0 {
		return nil, &SDKError{Op: "download", Err: errors.New("empty archive")}
	}
	return data, nil
}

// newAPIRequest builds an authenticated JSON request against the service base URL.
func (a *AdobeExtractor) newAPIRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.cfg.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", a.cfg.UserAgent)
	a.setAuth(req)
	return req, nil
}

func (a *AdobeExtractor) setAuth(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+a.token)
	req.Header.Set("X-API-Key", a.cfg.ClientID)
}

// do sends req and returns the body of a 2xx response.
func (a *AdobeExtractor) do(req *http.Request) ([]byte, error) {
	req.Header.Set("User-Agent", a.cfg.UserAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus(resp); err != nil {
		return nil, err
	}
	return io.ReadAll(resp.Body)
}

// doJSON sends req and decodes a 2xx JSON response into v.
func (a *AdobeExtractor) doJSON(req *http.Request, v any) ([]byte, error) {
	data, err := a.do(req)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return data, fmt.Errorf("decoding response: %w", err)
	}
	return data, nil
}
