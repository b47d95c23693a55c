package clients

import (
	"context"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/vitwit/zizza/logger"
	"github.com/vitwit/zizza/types"
)

// Options are shared by the remote clients of this package.
type Options struct {
	// HTTPClient overrides the transport. Timeout is ignored when set.
	HTTPClient *http.Client
	Timeout    time.Duration
	// Retry applies to idempotent reads only. Nil disables retries.
	Retry  *RetryConfig
	Logger logger.Logger
}

func (o Options) httpClient() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = types.DefaultHTTPTimeout
	}
	return &http.Client{Timeout: timeout}
}

func (o Options) logger() logger.Logger {
	if o.Logger == nil {
		return logger.NoopLogger{}
	}
	return o.Logger
}

// dialJSONRPC opens a JSON-RPC client over HTTP. No request is made.
func dialJSONRPC(ctx context.Context, url string, opts Options) (*rpc.Client, error) {
	c, err := rpc.DialOptions(ctx, url, rpc.WithHTTPClient(opts.httpClient()))
	if err != nil {
		return nil, types.NewError(types.ErrConfigError, "failed to dial %s: %v", url, err)
	}
	return c, nil
}
