package clients

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/vitwit/zizza/logger"
	"github.com/vitwit/zizza/types"
	"github.com/vitwit/zizza/utils"
)

// NearClient reads NEAR state and submits transactions signed by one
// full-access key.
type NearClient struct {
	endpoint string
	http     *http.Client
	retry    *RetryConfig
	log      logger.Logger
	nextID   atomic.Uint64

	accountID string
	key       ed25519.PrivateKey

	// serializes access-key nonce use
	txMu sync.Mutex
}

// AccountView is the result of a view_account query.
type AccountView struct {
	Amount        string `json:"amount"`
	Locked        string `json:"locked"`
	StorageUsage  uint64 `json:"storage_usage"`
	BlockHeight   uint64 `json:"block_height"`
	BlockHash     string `json:"block_hash"`
	CodeHash      string `json:"code_hash"`
	StoragePaidAt uint64 `json:"storage_paid_at,omitempty"`
}

// AccessKeyView is the result of a view_access_key query.
type AccessKeyView struct {
	Nonce       uint64          `json:"nonce"`
	Permission  json.RawMessage `json:"permission"`
	BlockHeight uint64          `json:"block_height"`
	BlockHash   string          `json:"block_hash"`
}

type callFunctionResult struct {
	Result []int    `json:"result"`
	Logs   []string `json:"logs"`
	Error  string   `json:"error,omitempty"`
}

type nearRPCRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      uint64      `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

type nearRPCError struct {
	Name    string          `json:"name"`
	Cause   json.RawMessage `json:"cause,omitempty"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type nearRPCResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *nearRPCError   `json:"error"`
}

type txResult struct {
	Status      map[string]json.RawMessage `json:"status"`
	Transaction struct {
		Hash string `json:"hash"`
	} `json:"transaction"`
}

func NewNearClient(endpoint, accountID string, key ed25519.PrivateKey, opts Options) *NearClient {
	return &NearClient{
		endpoint:  endpoint,
		http:      opts.httpClient(),
		retry:     opts.Retry,
		log:       opts.logger(),
		accountID: accountID,
		key:       key,
	}
}

func (c *NearClient) AccountID() string {
	return c.accountID
}

func (c *NearClient) PublicKey() ed25519.PublicKey {
	return c.key.Public().(ed25519.PublicKey)
}

// call performs one JSON-RPC request. Reads are retried, writes are not.
func (c *NearClient) call(ctx context.Context, method string, params interface{}, idempotent bool, result interface{}) error {
	body, err := json.Marshal(nearRPCRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return types.NewError(types.ErrEncoding, "marshal %s request: %v", method, err)
	}

	var respBody []byte
	send := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if isRetryableHTTPStatus(resp.StatusCode) {
			return errRetryableStatus{code: resp.StatusCode}
		}
		respBody, err = io.ReadAll(resp.Body)
		return err
	}

	retry := c.retry
	if !idempotent {
		retry = nil
	}
	if err := withRetry(ctx, retry, send); err != nil {
		return transportError(method, err)
	}

	var resp nearRPCResponse
	dec := json.NewDecoder(bytes.NewReader(respBody))
	dec.UseNumber()
	if err := dec.Decode(&resp); err != nil {
		return types.NewError(types.ErrNetworkError, "decode %s response: %v", method, err)
	}
	if resp.Error != nil {
		return classifyNearError(method, resp.Error)
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Result, result); err != nil {
		return types.NewError(types.ErrNetworkError, "decode %s result: %v", method, err)
	}
	return nil
}

// classifyNearError turns a NotEnoughBalance failure into
// INSUFFICIENT_BALANCE and everything else into CHAIN_ERROR with the raw
// detail preserved.
func classifyNearError(method string, e *nearRPCError) error {
	raw := map[string]any{
		"name":    e.Name,
		"code":    e.Code,
		"message": e.Message,
	}
	if len(e.Cause) > 0 {
		raw["cause"] = json.RawMessage(e.Cause)
	}
	if len(e.Data) > 0 {
		raw["data"] = json.RawMessage(e.Data)
		if s := findNotEnoughBalance(e.Data); s != nil {
			return insufficientBalance(s)
		}
	}
	return types.NewError(types.ErrChainError, "%s: %s", method, e.Message).WithData(raw)
}

func insufficientBalance(s *types.BalanceShortfall) error {
	return types.NewError(types.ErrInsufficientBalance,
		"%s has %s yoctoNEAR, not enough to cover the tx cost of %s yoctoNEAR",
		s.AccountID, s.Balance, s.Cost).WithData(s)
}

// findNotEnoughBalance looks for
// TxExecutionError.InvalidTxError.NotEnoughBalance, with or without the
// outer TxExecutionError wrapper.
func findNotEnoughBalance(data json.RawMessage) *types.BalanceShortfall {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		return nil
	}
	if inner, ok := root["TxExecutionError"]; ok {
		if err := json.Unmarshal(inner, &root); err != nil {
			return nil
		}
	}
	invalid, ok := root["InvalidTxError"]
	if !ok {
		return nil
	}
	var tx map[string]json.RawMessage
	if err := json.Unmarshal(invalid, &tx); err != nil {
		return nil
	}
	neb, ok := tx["NotEnoughBalance"]
	if !ok {
		return nil
	}

	var v struct {
		SignerID string      `json:"signer_id"`
		Balance  json.Number `json:"balance"`
		Cost     json.Number `json:"cost"`
	}
	dec := json.NewDecoder(bytes.NewReader(neb))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	return &types.BalanceShortfall{AccountID: v.SignerID, Balance: v.Balance.String(), Cost: v.Cost.String()}
}

func (c *NearClient) query(ctx context.Context, params map[string]any, result interface{}) error {
	params["finality"] = "final"
	return c.call(ctx, "query", params, true, result)
}

// ViewAccount returns the account state, including its yoctoNEAR balance.
func (c *NearClient) ViewAccount(ctx context.Context, accountID string) (*AccountView, error) {
	var v AccountView
	if err := c.query(ctx, map[string]any{
		"request_type": "view_account",
		"account_id":   accountID,
	}, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// AccessKey returns the nonce and a recent block hash for a key.
func (c *NearClient) AccessKey(ctx context.Context, accountID string, pub ed25519.PublicKey) (*AccessKeyView, error) {
	var v AccessKeyView
	if err := c.query(ctx, map[string]any{
		"request_type": "view_access_key",
		"account_id":   accountID,
		"public_key":   utils.EncodePublicKey(pub),
	}, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// ViewFunction runs a read-only contract method and decodes its JSON
// result into result.
func (c *NearClient) ViewFunction(ctx context.Context, contract, method string, args any, result any) error {
	argBytes, err := json.Marshal(args)
	if err != nil {
		return types.NewError(types.ErrEncoding, "marshal %s args: %v", method, err)
	}

	var res callFunctionResult
	if err := c.query(ctx, map[string]any{
		"request_type": "call_function",
		"account_id":   contract,
		"method_name":  method,
		"args_base64":  base64.StdEncoding.EncodeToString(argBytes),
	}, &res); err != nil {
		return err
	}
	if res.Error != "" {
		return types.NewError(types.ErrChainError, "%s.%s: %s", contract, method, res.Error)
	}

	out := make([]byte, len(res.Result))
	for i, b := range res.Result {
		out[i] = byte(b)
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(out, result); err != nil {
		return types.NewError(types.ErrChainError, "%s.%s returned non-JSON result: %v", contract, method, err)
	}
	return nil
}

// FunctionCall submits a single function call signed by the client key.
func (c *NearClient) FunctionCall(ctx context.Context, contract, method string, args any, gas uint64, deposit *big.Int) (*types.TxOutcome, error) {
	argBytes, err := json.Marshal(args)
	if err != nil {
		return nil, types.NewError(types.ErrEncoding, "marshal %s args: %v", method, err)
	}
	action, err := NewFunctionCall(method, argBytes, gas, deposit)
	if err != nil {
		return nil, types.NewError(types.ErrEncoding, "%s: %v", method, err)
	}
	return c.SignAndSubmit(ctx, contract, action)
}

// SendMoney transfers yoctoNEAR to receiver.
func (c *NearClient) SendMoney(ctx context.Context, receiver string, amount *big.Int) (*types.TxOutcome, error) {
	action, err := NewTransfer(amount)
	if err != nil {
		return nil, types.NewError(types.ErrEncoding, "transfer: %v", err)
	}
	return c.SignAndSubmit(ctx, receiver, action)
}

// SignAndSubmit builds, signs and commits a transaction with the given
// actions. Submissions are serialized so that nonces never collide.
func (c *NearClient) SignAndSubmit(ctx context.Context, receiver string, actions ...Action) (*types.TxOutcome, error) {
	c.txMu.Lock()
	defer c.txMu.Unlock()

	key, err := c.AccessKey(ctx, c.accountID, c.PublicKey())
	if err != nil {
		return nil, err
	}
	blockHash, err := utils.DecodeBase58Hash(key.BlockHash)
	if err != nil {
		return nil, types.NewError(types.ErrChainError, "access key block hash: %v", err)
	}

	tx := &Transaction{
		SignerID:   c.accountID,
		PublicKey:  c.PublicKey(),
		Nonce:      key.Nonce + 1,
		ReceiverID: receiver,
		BlockHash:  blockHash,
		Actions:    actions,
	}
	signed, hash, err := tx.Sign(c.key)
	if err != nil {
		return nil, types.NewError(types.ErrEncoding, "sign transaction: %v", err)
	}

	c.log.Debug("submitting transaction", map[string]any{
		"receiver": receiver,
		"nonce":    tx.Nonce,
		"txHash":   utils.EncodeBase58(hash[:]),
		"actions":  len(actions),
	})

	var res txResult
	if err := c.call(ctx, "broadcast_tx_commit", []string{base64.StdEncoding.EncodeToString(signed)}, false, &res); err != nil {
		return nil, err
	}

	if failure, ok := res.Status["Failure"]; ok {
		if s := findNotEnoughBalance(failure); s != nil {
			return nil, insufficientBalance(s)
		}
		return nil, types.NewError(types.ErrChainError, "transaction %s failed", res.Transaction.Hash).
			WithData(map[string]any{"failure": failure, "txHash": res.Transaction.Hash})
	}

	out := &types.TxOutcome{TxHash: res.Transaction.Hash}
	if out.TxHash == "" {
		out.TxHash = utils.EncodeBase58(hash[:])
	}
	if v, ok := res.Status["SuccessValue"]; ok {
		var b64 string
		if err := json.Unmarshal(v, &b64); err == nil {
			out.SuccessValue, _ = base64.StdEncoding.DecodeString(b64)
		}
	}
	return out, nil
}
