package network

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/retryhttp"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/klauspost/compress/gzip"
	"github.com/pixelpost-io/go-mediapost/uploadid"
)

// floodWaitDelay is how long the client waits before reissuing a request
// the server throttled with HTTP 429. One reissue only.
const floodWaitDelay = 2 * time.Second

type apiClient struct {
	httpClient *retryablehttp.Client
	session    SessionConfig
	idGen      uploadid.Generator
	logger     log.Logger
}

// NewClient creates a Client bound to one session.
func NewClient(session SessionConfig, idGen uploadid.Generator, logger log.Logger) Client {
	httpClient := retryhttp.NewClient(logger)
	// Throttling is handled by Send with one delayed reissue, so the
	// transport must hand 429 responses back instead of retrying them.
	httpClient.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
			return false, nil
		}
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	return &apiClient{
		httpClient: httpClient,
		session:    session,
		idGen:      idGen,
		logger:     logger,
	}
}

// Identity ...
func (c *apiClient) Identity() Identity {
	return Identity{
		DeviceUUID: c.session.DeviceUUID,
		CSRFToken:  c.session.CSRFToken,
		AccountID:  c.session.AccountID,
	}
}

// Send performs one API request, reissuing it a single time after a fixed
// delay when the server answers HTTP 429.
func (c *apiClient) Send(ctx context.Context, req Request) (*Response, error) {
	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		c.logger.Warnf("Too many requests, waiting %s before reissuing %s", floodWaitDelay, req.Endpoint)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(floodWaitDelay):
		}
		return c.do(ctx, req)
	}

	return resp, nil
}

func (c *apiClient) do(ctx context.Context, req Request) (*Response, error) {
	endpointURL, err := c.buildURL(req)
	if err != nil {
		return nil, err
	}

	fields := req.Fields
	if req.SignBody {
		fields, err = c.signFields(fields)
		if err != nil {
			return nil, fmt.Errorf("sign request body: %w", err)
		}
	}

	var body []byte
	var contentType string
	if len(req.Files) > 0 {
		body, contentType, err = c.buildMultipartBody(fields, req.Files)
		if err != nil {
			return nil, fmt.Errorf("build multipart body: %w", err)
		}
	} else {
		values := url.Values{}
		for name, value := range fields {
			values.Set(name, value)
		}
		body = []byte(values.Encode())
		contentType = "application/x-www-form-urlencoded; charset=UTF-8"
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, endpointURL, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("User-Agent", c.session.UserAgent)
	httpReq.Header.Set("Accept", "*/*")
	httpReq.Header.Set("Accept-Language", "en-US")
	httpReq.Header.Set("Accept-Encoding", "gzip")
	httpReq.Header.Set("Connection", "close")
	httpReq.Header.Set("Content-Type", contentType)

	c.logger.Debugf("POST %s (%d fields, %d files)", req.Endpoint, len(fields), len(req.Files))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.logger.Printf(err.Error())
		}
	}(resp.Body)

	respBody, err := c.readBody(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusTooManyRequests &&
		(resp.StatusCode < 200 || resp.StatusCode >= 300) {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, respBody)
	}

	return decodeResponse(resp.StatusCode, respBody)
}

func (c *apiClient) buildURL(req Request) (string, error) {
	endpointURL := strings.TrimSuffix(c.session.APIBaseURL, "/") + "/" + strings.TrimPrefix(req.Endpoint, "/")
	if len(req.Query) == 0 {
		return endpointURL, nil
	}

	parsed, err := url.Parse(endpointURL)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", req.Endpoint, err)
	}
	query := parsed.Query()
	for name, value := range req.Query {
		query.Set(name, value)
	}
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

// signFields folds all fields into the server's signed-body format: the
// hex HMAC-SHA256 of the JSON payload, directly followed by the payload.
func (c *apiClient) signFields(fields map[string]string) (map[string]string, error) {
	payload, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}

	mac := hmac.New(sha256.New, []byte(c.session.SignatureKey))
	mac.Write(payload)

	return map[string]string{
		"signed_body":        hex.EncodeToString(mac.Sum(nil)) + string(payload),
		"ig_sig_key_version": c.session.SigKeyVersion,
	}, nil
}

func (c *apiClient) buildMultipartBody(fields map[string]string, files []FileField) ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.SetBoundary(c.session.DeviceUUID); err != nil {
		return nil, "", fmt.Errorf("set boundary: %w", err)
	}

	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, "", err
		}
	}

	for _, file := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.Name, file.FileName))
		header.Set("Content-Type", file.MIMEType)
		header.Set("Content-Transfer-Encoding", "binary")
		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(file.Data); err != nil {
			return nil, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return buf.Bytes(), writer.FormDataContentType(), nil
}

func (c *apiClient) readBody(resp *http.Response) ([]byte, error) {
	reader := io.Reader(resp.Body)
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gzReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("open gzip response: %w", err)
		}
		defer func() {
			if err := gzReader.Close(); err != nil {
				c.logger.Printf(err.Error())
			}
		}()
		reader = gzReader
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return body, nil
}

type responseEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func decodeResponse(statusCode int, body []byte) (*Response, error) {
	var envelope responseEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode response body: %w", err)
	}

	return &Response{
		StatusCode: statusCode,
		Status:     envelope.Status,
		Message:    envelope.Message,
		Raw:        json.RawMessage(body),
	}, nil
}
