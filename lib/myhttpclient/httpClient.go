package myhttpclient

import (
	"fmt"
	"net/http"
	"time"

	"github.com/MarcGrol/statueshop/lib/mylog"
)

// New returns a client for calls to external providers. Every call is bounded by timeout
// and logged with its method, host, path, status and duration. Bodies are not logged.
func New(name string, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &loggingTransport{
			logger: mylog.New(name),
			next:   http.DefaultTransport,
		},
	}
}

type loggingTransport struct {
	logger mylog.Logger
	next   http.RoundTripper
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c := req.Context()
	start := time.Now()

	resp, err := t.next.RoundTrip(req)
	took := time.Since(start)
	if err != nil {
		t.logger.Log(c, "", mylog.SeverityWarn, "HTTP %s %s%s failed after %s: %s", req.Method, req.URL.Host, req.URL.Path, took, err)
		return nil, fmt.Errorf("error sending %s %s: %w", req.Method, req.URL.Path, err)
	}

	t.logger.Log(c, "", mylog.SeverityDebug, "HTTP %s %s%s -> %d (%s)", req.Method, req.URL.Host, req.URL.Path, resp.StatusCode, took)

	return resp, nil
}
