package httpclient

import (
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// New returns a standard *http.Client backed by go-retryablehttp. retryMax
// of zero disables retries; the client then behaves like a plain one with a
// timeout.
func New(timeout time.Duration, retryMax int) *http.Client {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	if retryMax < 0 {
		retryMax = 0
	}
	client := retryablehttp.NewClient()
	client.Logger = nil
	client.RetryMax = retryMax
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 5 * time.Second
	client.HTTPClient.Timeout = timeout
	// Surface the last response rather than a generic give-up error.
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return client.StandardClient()
}
