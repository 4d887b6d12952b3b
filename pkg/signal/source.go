package signal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"k8s.io/utils/clock"

	"github.com/matzehuels/scorealign/pkg/cache"
	"github.com/matzehuels/scorealign/pkg/errors"
	"github.com/matzehuels/scorealign/pkg/observability"
)

// Placeholder is replaced by the level id in a path template.
const Placeholder = "{level}"

// Source fetches the raw bytes of a level table.
type Source interface {
	// Fetch returns the table of level. A level that does not exist yields
	// an error with code LEVEL_NOT_FOUND.
	Fetch(ctx context.Context, level int) ([]byte, error)

	// Name identifies the source in cache keys and logs.
	Name() string
}

// Expand substitutes level into a path template.
func Expand(template string, level int) string {
	return strings.ReplaceAll(template, Placeholder, strconv.Itoa(level))
}

// NewSource returns an [HTTPSource] for http(s) templates and a
// [FileSource] otherwise.
func NewSource(template string) (Source, error) {
	if err := errors.ValidatePathTemplate(template); err != nil {
		return nil, err
	}
	if strings.HasPrefix(template, "http://") || strings.HasPrefix(template, "https://") {
		return NewHTTPSource(template), nil
	}
	return FileSource{Template: template}, nil
}

// FileSource reads level tables from the local filesystem.
type FileSource struct {
	Template string
}

// Name returns the path template.
func (s FileSource) Name() string { return s.Template }

// Fetch reads the file for level.
func (s FileSource) Fetch(ctx context.Context, level int) ([]byte, error) {
	path := Expand(s.Template, level)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeLevelNotFound, err, "level %d", level)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSignalLoad, err, "read %s", path)
	}
	return data, nil
}

const httpTimeout = 10 * time.Second

// HTTPSource downloads level tables. Network failures and 5xx responses are
// retried with exponential backoff.
type HTTPSource struct {
	Template string
	Client   *http.Client
	Clock    clock.Clock
	Attempts int
	Delay    time.Duration
}

// NewHTTPSource creates a source with a 10 second client timeout and three
// attempts per fetch.
func NewHTTPSource(template string) *HTTPSource {
	return &HTTPSource{
		Template: template,
		Client:   &http.Client{Timeout: httpTimeout},
		Clock:    clock.RealClock{},
		Attempts: 3,
		Delay:    time.Second,
	}
}

// Name returns the URL template.
func (s *HTTPSource) Name() string { return s.Template }

// Fetch downloads the table for level.
func (s *HTTPSource) Fetch(ctx context.Context, level int) ([]byte, error) {
	url := Expand(s.Template, level)
	var data []byte
	err := cache.Retry(ctx, s.Clock, s.Attempts, s.Delay, func() error {
		var err error
		data, err = s.get(ctx, url)
		return err
	})
	if errors.Is(err, errors.ErrCodeLevelNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSignalLoad, err, "fetch %s", url)
	}
	return data, nil
}

func (s *HTTPSource) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/csv")

	hooks := observability.HTTP()
	host, path := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := s.Client.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		return nil, cache.Retryable(fmt.Errorf("%w: %v", cache.ErrNetwork, err))
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode == http.StatusOK:
		return io.ReadAll(resp.Body)
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.Wrap(errors.ErrCodeLevelNotFound, cache.ErrNotFound, "%s", url)
	case resp.StatusCode >= 500:
		return nil, cache.Retryable(fmt.Errorf("%w: status %d", cache.ErrNetwork, resp.StatusCode))
	default:
		return nil, fmt.Errorf("%w: status %d", cache.ErrNetwork, resp.StatusCode)
	}
}
