package clients

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/vitwit/zizza/types"
)

// rpcErrorData flattens a JSON-RPC failure into diagnostic data. The venue's
// own error detail is kept as-is and may not be parseable.
func rpcErrorData(err error) map[string]any {
	data := map[string]any{"error": err.Error()}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		data["code"] = rpcErr.ErrorCode()
	}
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) && dataErr.ErrorData() != nil {
		data["data"] = dataErr.ErrorData()
	}
	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		data["httpStatus"] = httpErr.StatusCode
		data["body"] = string(httpErr.Body)
	}
	return data
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// transportError wraps a failed call as NETWORK_ERROR. Context errors pass
// through so callers can tell cancellation apart.
func transportError(op string, err error) error {
	if isContextErr(err) {
		return err
	}
	return types.NewError(types.ErrNetworkError, "%s failed: %v", op, err).WithData(rpcErrorData(err))
}
