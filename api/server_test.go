package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitwit/zizza/metrics"
	"github.com/vitwit/zizza/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeEngine struct {
	mu       sync.Mutex
	swaps    []types.SwapRequest
	balances []types.BalanceRequest
	release  chan struct{}
}

func (f *fakeEngine) WalletSummary(context.Context) (*types.WalletSummary, error) {
	return &types.WalletSummary{Near: types.AddressBalance{Address: "alice.near", Balance: decimal.NewFromInt(1)}}, nil
}

func (f *fakeEngine) DepositedTokens(context.Context) (map[string]decimal.Decimal, error) {
	return map[string]decimal.Decimal{"nep141:usdc.near": decimal.NewFromInt(3)}, nil
}

func (f *fakeEngine) TokenPrice(context.Context, types.PriceRequest) (*types.TokenPrice, error) {
	return &types.TokenPrice{USDPrice: decimal.NewFromInt(1)}, nil
}

func (f *fakeEngine) Chains() []string                   { return []string{"near", "zec"} }
func (f *fakeEngine) TokensByChain(types.Chain) []string { return []string{"USDC"} }
func (f *fakeEngine) ChainsByToken(string) []string      { return []string{"near"} }

func (f *fakeEngine) Balance(_ context.Context, req types.BalanceRequest) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances = append(f.balances, req)
	return decimal.RequireFromString("12.5"), nil
}

func (f *fakeEngine) BestQuote(context.Context, types.SwapRequest) (*types.BestQuote, error) {
	return &types.BestQuote{QuoteHash: "q"}, nil
}

func (f *fakeEngine) Swap(_ context.Context, req types.SwapRequest) (*types.SwapOutcome, error) {
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.swaps = append(f.swaps, req)
	if req.AmountIn.GreaterThan(decimal.NewFromInt(100)) {
		return nil, types.NewError(types.ErrInsufficientBalance, "insufficient USDC balance")
	}
	return &types.SwapOutcome{Outcome: types.Outcome{Status: types.StatusSettled, IntentHash: "i", TxHash: "tx"}}, nil
}

func (f *fakeEngine) Withdraw(context.Context, types.WithdrawRequest) (*types.WithdrawOutcome, error) {
	return &types.WithdrawOutcome{}, nil
}

func (f *fakeEngine) Deposit(context.Context, types.DepositRequest) (*types.DepositOutcome, error) {
	return &types.DepositOutcome{}, nil
}

func (f *fakeEngine) Send(context.Context, types.SendRequest) (*types.SendOutcome, error) {
	return &types.SendOutcome{}, nil
}

func (f *fakeEngine) ResumeSettlement(context.Context, string) (*types.Outcome, error) {
	return &types.Outcome{}, nil
}

func postExecute(t *testing.T, s *Server, body string) string {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/execute", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	var res struct {
		TaskID string `json:"task_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.NotEmpty(t, res.TaskID)
	return res.TaskID
}

func getStatus(t *testing.T, s *Server, id string) (int, Task) {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status/"+id, nil))
	var task Task
	if w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))
	}
	return w.Code, task
}

func waitStatus(t *testing.T, s *Server, id string, want string) Task {
	var task Task
	require.Eventually(t, func() bool {
		_, task = getStatus(t, s, id)
		return task.Status == want
	}, 2*time.Second, 5*time.Millisecond)
	return task
}

func TestExecuteLifecycle(t *testing.T) {
	engine := &fakeEngine{release: make(chan struct{})}
	s := NewServer(engine)

	id := postExecute(t, s, `[
		{"command": "get_balance", "params": {"asset_symbol": "USDC", "asset_chain": "NEAR"}},
		{"command": "swap", "params": {"asset_in_symbol": "USDC", "asset_in_chain": "Near",
			"asset_out_symbol": "wNEAR", "asset_out_chain": "near", "amount_in": "10.5"}}
	]`)

	waitStatus(t, s, id, "Processing 2/2")
	close(engine.release)
	task := waitStatus(t, s, id, StatusCompleted)

	require.Len(t, task.Results, 2)
	assert.Equal(t, "get_balance", task.Results[0].Command)
	assert.Equal(t, map[string]interface{}{"balance": "12.5"}, task.Results[0].Result)
	assert.Empty(t, task.Results[1].Error)

	engine.mu.Lock()
	defer engine.mu.Unlock()
	assert.Equal(t, types.ChainNear, engine.balances[0].Chain)
	require.Len(t, engine.swaps, 1)
	assert.Equal(t, types.ChainNear, engine.swaps[0].InChain)
	assert.Equal(t, "10.5", engine.swaps[0].AmountIn.String())
}

func TestExecuteStopsAtFirstFailure(t *testing.T) {
	engine := &fakeEngine{}
	s := NewServer(engine)

	id := postExecute(t, s, `[
		{"command": "swap", "params": {"asset_in_symbol": "USDC", "asset_in_chain": "near",
			"asset_out_symbol": "wNEAR", "asset_out_chain": "near", "amount_in": 500}},
		{"command": "get_chains"}
	]`)

	task := waitStatus(t, s, id, "Failed at 1/2")
	require.Len(t, task.Results, 1)
	assert.Equal(t, types.ErrInsufficientBalance, task.Results[0].Code)
	assert.Contains(t, task.Results[0].Error, "insufficient USDC balance")
}

func TestExecuteUnknownCommand(t *testing.T) {
	s := NewServer(&fakeEngine{})

	id := postExecute(t, s, `[{"command": "get_chains"}, {"command": "launch_rocket", "params": {}}]`)
	task := waitStatus(t, s, id, "Failed at 2/2")
	require.Len(t, task.Results, 2)
	assert.Equal(t, map[string]interface{}{"chains": []interface{}{"near", "zec"}}, task.Results[0].Result)
	assert.Equal(t, "Unknown command: launch_rocket", task.Results[1].Error)
}

func TestExecuteRejectsBadParams(t *testing.T) {
	engine := &fakeEngine{}
	s := NewServer(engine)

	id := postExecute(t, s, `[{"command": "send", "params": {"asset_symbol": "NEAR", "asset_chain": "near", "amount": "1"}}]`)
	task := waitStatus(t, s, id, "Failed at 1/1")
	assert.Equal(t, types.ErrInvalidRequest, task.Results[0].Code)

	id = postExecute(t, s, `[{"command": "deposit", "params": {"asset_symbol": "NEAR", "asset_chain": "near", "amount": "-1"}}]`)
	task = waitStatus(t, s, id, "Failed at 1/1")
	assert.Contains(t, task.Results[0].Error, "greater than zero")

	id = postExecute(t, s, `[{"command": "get_balance", "params": {"asset_symbol": "NEAR", "asset_chain": "near", "extra": 1}}]`)
	task = waitStatus(t, s, id, "Failed at 1/1")
	assert.Contains(t, task.Results[0].Error, "unknown field")
}

func TestExecuteMalformedBody(t *testing.T) {
	s := NewServer(&fakeEngine{})
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/execute", bytes.NewBufferString(`{"command": "swap"}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatusNotFound(t *testing.T) {
	s := NewServer(&fakeEngine{})
	code, _ := getStatus(t, s, "missing")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := metrics.NewPrometheusRecorder(reg)
	require.NoError(t, err)
	rec.IncCounter(metrics.OperationStarted, metrics.Labels("swap", "near"))

	s := NewServer(&fakeEngine{}, WithGatherer(reg))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `zizza_events_total{chain="near",operation="swap",type="operation_started"} 1`)
}

func TestCommandsListed(t *testing.T) {
	assert.Contains(t, Commands(), "withdraw")
	assert.Contains(t, Commands(), "resume_settlement")
	assert.Len(t, Commands(), 13)
}
