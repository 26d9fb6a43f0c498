package functions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxResponseBytes = 2 * 1024 * 1024

// Client calls the hosted serverless functions. Every call is authenticated
// with the caller's own bearer token, taken from the request context.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type RequestError struct {
	Op         string
	StatusCode int
	Err        error
}

type bearerTokenContextKeyType struct{}

var bearerTokenContextKey bearerTokenContextKeyType

func (e *RequestError) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Err != nil && e.StatusCode > 0:
		return fmt.Sprintf("%s: status=%d: %v", e.Op, e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.StatusCode > 0:
		return fmt.Sprintf("%s: status=%d", e.Op, e.StatusCode)
	default:
		return e.Op
	}
}

func (e *RequestError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, &RequestError{Op: "create functions client", Err: errors.New("functions base url is empty")}
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, &RequestError{Op: "parse functions base url", Err: err}
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, &RequestError{Op: "validate functions base url", Err: fmt.Errorf("invalid functions base url: %s", trimmed)}
	}

	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func WithBearerToken(ctx context.Context, token string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, bearerTokenContextKey, token)
}

func BearerTokenFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	token, _ := ctx.Value(bearerTokenContextKey).(string)
	return token
}

// DoJSON posts requestBody as JSON and decodes the response into responseBody.
func (c *Client) DoJSON(ctx context.Context, method, path string, requestBody, responseBody any) error {
	if c == nil || c.httpClient == nil {
		return &RequestError{Op: "do json request", Err: errors.New("functions client is not initialized")}
	}

	var payload []byte
	if requestBody != nil {
		raw, err := json.Marshal(requestBody)
		if err != nil {
			return &RequestError{Op: "marshal request body", Err: err}
		}
		payload = raw
	}

	var body io.Reader
	if len(payload) > 0 {
		body = bytes.NewReader(payload)
	}

	statusCode, responseBytes, err := c.do(ctx, method, path, "application/json", body)
	if err != nil {
		return err
	}
	return decodeResponse(statusCode, responseBytes, responseBody)
}

// Part is one file of a multipart upload.
type Part struct {
	FieldName   string
	FileName    string
	ContentType string
	Body        io.Reader
}

// DoMultipart sends form fields and a single file part as multipart/form-data.
func (c *Client) DoMultipart(ctx context.Context, path string, fields map[string]string, part Part, responseBody any) error {
	if c == nil || c.httpClient == nil {
		return &RequestError{Op: "do multipart request", Err: errors.New("functions client is not initialized")}
	}
	if part.Body == nil {
		return &RequestError{Op: "build multipart body", Err: errors.New("file part is empty")}
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return &RequestError{Op: "write multipart field", Err: err}
		}
	}

	fieldName := part.FieldName
	if fieldName == "" {
		fieldName = "file"
	}
	fileWriter, err := writer.CreateFormFile(fieldName, part.FileName)
	if err != nil {
		return &RequestError{Op: "create multipart file", Err: err}
	}
	if _, err := io.Copy(fileWriter, part.Body); err != nil {
		return &RequestError{Op: "copy multipart file", Err: err}
	}
	if err := writer.Close(); err != nil {
		return &RequestError{Op: "close multipart body", Err: err}
	}

	statusCode, responseBytes, err := c.do(ctx, http.MethodPost, path, writer.FormDataContentType(), &buf)
	if err != nil {
		return err
	}
	return decodeResponse(statusCode, responseBytes, responseBody)
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) (int, []byte, error) {
	if strings.TrimSpace(method) == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+ensureLeadingSlash(path), body)
	if err != nil {
		return 0, nil, &RequestError{Op: "create http request", Err: err}
	}
	if token := BearerTokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, &RequestError{Op: "execute http request", Err: err}
	}
	defer resp.Body.Close()

	responseBytes, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if readErr != nil {
		return resp.StatusCode, nil, &RequestError{Op: "read http response", StatusCode: resp.StatusCode, Err: readErr}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, responseBytes, &RequestError{
			Op:         "unexpected http status",
			StatusCode: resp.StatusCode,
			Err:        errors.New(errorMessage(resp.StatusCode, responseBytes)),
		}
	}

	return resp.StatusCode, responseBytes, nil
}

func decodeResponse(statusCode int, responseBytes []byte, responseBody any) error {
	if responseBody == nil || len(bytes.TrimSpace(responseBytes)) == 0 {
		return nil
	}
	if err := json.Unmarshal(responseBytes, responseBody); err != nil {
		return &RequestError{Op: "decode http response", StatusCode: statusCode, Err: err}
	}
	return nil
}

// errorMessage prefers the {"error": "..."} body the functions return.
func errorMessage(statusCode int, body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && strings.TrimSpace(payload.Error) != "" {
		return strings.TrimSpace(payload.Error)
	}
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return msg
	}
	return http.StatusText(statusCode)
}

func ensureLeadingSlash(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "/"
	}
	if strings.HasPrefix(trimmed, "/") {
		return trimmed
	}
	return "/" + trimmed
}
