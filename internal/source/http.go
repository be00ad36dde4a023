package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/patrickspencer/runboard/internal/record"
)

const defaultMaxBodyBytes = 32 * 1024 * 1024

// HTTPOptions tunes an HTTPSource.
type HTTPOptions struct {
	Method       string // GET or POST; defaults to GET
	Timeout      time.Duration
	MaxBodyBytes int64
	Client       *http.Client
}

// HTTPSource fetches runs with one request per Fetch.
type HTTPSource struct {
	endpoint string
	method   string
	maxBody  int64
	client   *http.Client
}

// NewHTTPSource returns a source reading the JSON array served at endpoint.
func NewHTTPSource(endpoint string, opts HTTPOptions) *HTTPSource {
	method := strings.ToUpper(strings.TrimSpace(opts.Method))
	if method == "" {
		method = http.MethodGet
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &HTTPSource{
		endpoint: endpoint,
		method:   method,
		maxBody:  opts.MaxBodyBytes,
		client:   client,
	}
}

// Endpoint returns the configured URL.
func (s *HTTPSource) Endpoint() string {
	return s.endpoint
}

// Fetch performs the request and decodes the body.
func (s *HTTPSource) Fetch(ctx context.Context) ([]record.Run, error) {
	var body io.Reader
	if s.method == http.MethodPost {
		body = strings.NewReader("[]")
	}

	req, err := http.NewRequestWithContext(ctx, s.method, s.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", s.endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", s.endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{Endpoint: s.endpoint, Code: resp.StatusCode, Status: resp.Status}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.endpoint, err)
	}
	if int64(len(data)) > s.maxBody {
		return nil, fmt.Errorf("fetch %s: response exceeds %d bytes", s.endpoint, s.maxBody)
	}

	runs, err := DecodeRuns(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.endpoint, err)
	}
	return runs, nil
}

// DecodeRuns decodes a JSON array of run records. Malformed fields inside a
// record decode as missing; anything other than an array is ErrNotArray.
func DecodeRuns(data []byte) ([]record.Run, error) {
	if !startsArray(data) {
		return nil, ErrNotArray
	}
	var runs []record.Run
	if err := json.Unmarshal(data, &runs); err != nil {
		return nil, err
	}
	if runs == nil {
		runs = []record.Run{}
	}
	return runs, nil
}

func startsArray(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '['
}
