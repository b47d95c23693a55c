package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tyler-smith/go-bip39"
	"github.com/vitwit/zizza/logger"
	"github.com/vitwit/zizza/types"
	"github.com/vitwit/zizza/utils"
)

// ZcashDecimals is the precision of ZEC (zatoshi).
const ZcashDecimals int32 = 8

const (
	walletFileName = "zecwallet-light-wallet.dat"

	defaultConfirmInterval = 2 * time.Second
)

var zatoshi = types.Token{Symbol: types.SymbolZEC, Decimals: ZcashDecimals, Blockchain: types.ChainZcash}

// commandRunner executes the wallet binary and returns its stdout.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return out, errors.New(err.Error() + ": " + msg)
		}
	}
	return out, err
}

// ZcashWallet drives a zecwallet-cli style light wallet binary. Every
// command runs one process and parses the JSON it prints.
type ZcashWallet struct {
	bin             string
	server          string
	dataDir         string
	confirmInterval time.Duration
	run             commandRunner
	log             logger.Logger
}

type zcashBalance struct {
	ZBalance    int64 `json:"zbalance"`
	TBalance    int64 `json:"tbalance"`
	UABalance   int64 `json:"uabalance"`
	UAAddresses []struct {
		Address string `json:"address"`
		Balance int64  `json:"balance"`
	} `json:"ua_addresses"`
	ZAddresses []struct {
		Address  string `json:"address"`
		ZBalance int64  `json:"zbalance"`
	} `json:"z_addresses"`
	TAddresses []struct {
		Address string `json:"address"`
		Balance int64  `json:"balance"`
	} `json:"t_addresses"`
}

type zcashAddresses struct {
	UAAddresses []string `json:"ua_addresses"`
	ZAddresses  []string `json:"z_addresses"`
	TAddresses  []string `json:"t_addresses"`
}

type zcashTxResult struct {
	TxID  string `json:"txid"`
	Error string `json:"error,omitempty"`
}

type zcashListEntry struct {
	TxID        string `json:"txid"`
	Unconfirmed bool   `json:"unconfirmed"`
}

// NewZcashWallet checks the binary and, when a mnemonic is configured,
// recovers the wallet from it into a fresh data file.
func NewZcashWallet(ctx context.Context, cfg types.ZcashConfig, opts Options) (*ZcashWallet, error) {
	if _, err := os.Stat(cfg.CLIPath); err != nil {
		return nil, types.NewError(types.ErrConfigError, "zcash wallet binary %s: %v", cfg.CLIPath, err)
	}

	w := newZcashWallet(cfg, execRunner, opts)
	if cfg.Mnemonic == "" {
		return w, nil
	}

	if err := os.Remove(filepath.Join(w.dataDir, walletFileName)); err != nil && !os.IsNotExist(err) {
		return nil, types.NewError(types.ErrConfigError, "remove stale wallet file: %v", err)
	}
	if err := w.Recover(ctx, cfg.Mnemonic, cfg.Birthday); err != nil {
		return nil, err
	}
	return w, nil
}

func newZcashWallet(cfg types.ZcashConfig, run commandRunner, opts Options) *ZcashWallet {
	server := cfg.Server
	if server == "" {
		server = types.DefaultZcashServer
	}
	return &ZcashWallet{
		bin:             cfg.CLIPath,
		server:          server,
		dataDir:         cfg.DataDir,
		confirmInterval: defaultConfirmInterval,
		run:             run,
		log:             opts.logger(),
	}
}

// Recover restores the wallet from a BIP-39 mnemonic.
func (w *ZcashWallet) Recover(ctx context.Context, mnemonic string, birthday uint64) error {
	if !bip39.IsMnemonicValid(mnemonic) {
		return types.NewError(types.ErrConfigError, "invalid mnemonic phrase")
	}
	if birthday == 0 {
		birthday = 1
	}
	argv := append(w.baseArgs(), "--seed", mnemonic, "--birthday", strconv.FormatUint(birthday, 10), "balance")
	return w.exec(ctx, nil, "recover", argv)
}

func (w *ZcashWallet) baseArgs() []string {
	args := []string{"--server", w.server}
	if w.dataDir != "" {
		args = append(args, "--data-dir", w.dataDir)
	}
	return args
}

// command runs one wallet command and decodes the last JSON value printed
// on stdout into v.
func (w *ZcashWallet) command(ctx context.Context, v interface{}, cmd string, args ...string) error {
	argv := append(w.baseArgs(), cmd)
	return w.exec(ctx, v, cmd, append(argv, args...))
}

func (w *ZcashWallet) exec(ctx context.Context, v interface{}, name string, argv []string) error {
	out, err := w.run(ctx, w.bin, argv...)
	if err != nil {
		if isContextErr(ctx.Err()) {
			return ctx.Err()
		}
		return types.NewError(types.ErrChainError, "zcash wallet %s failed: %v", name, err)
	}

	values := extractJSON(out)
	if len(values) == 0 {
		return types.NewError(types.ErrChainError, "zcash wallet %s printed no JSON", name).
			WithData(map[string]any{"stdout": string(out)})
	}
	if v == nil {
		return nil
	}
	if err := json.Unmarshal(values[len(values)-1], v); err != nil {
		return types.NewError(types.ErrChainError, "parse zcash wallet %s output: %v", name, err).
			WithData(map[string]any{"stdout": string(out)})
	}
	return nil
}

// extractJSON returns every top-level JSON object or array embedded in
// out, skipping any surrounding log noise.
func extractJSON(out []byte) []json.RawMessage {
	var found []json.RawMessage
	for i := 0; i < len(out); {
		if out[i] != '{' && out[i] != '[' {
			i++
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(out[i:]))
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			i++
			continue
		}
		found = append(found, raw)
		i += int(dec.InputOffset())
	}
	return found
}

func zatoshiToZec(v int64) decimal.Decimal {
	return decimal.New(v, -ZcashDecimals)
}

func (w *ZcashWallet) balance(ctx context.Context) (*zcashBalance, error) {
	var b zcashBalance
	if err := w.command(ctx, &b, "balance"); err != nil {
		return nil, err
	}
	return &b, nil
}

// Balance returns the total of the unified, transparent and shielded pools.
func (w *ZcashWallet) Balance(ctx context.Context) (decimal.Decimal, error) {
	b, err := w.balance(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return zatoshiToZec(b.UABalance + b.TBalance + b.ZBalance), nil
}

// Summary lists wallet addresses with their balances.
func (w *ZcashWallet) Summary(ctx context.Context) (*types.ZcashSummary, error) {
	b, err := w.balance(ctx)
	if err != nil {
		return nil, err
	}

	s := &types.ZcashSummary{
		ShieldedAddresses:  []types.AddressBalance{},
		TransparentAddress: []types.AddressBalance{},
	}
	if len(b.UAAddresses) > 0 {
		s.UnifiedAddress = types.AddressBalance{
			Address: b.UAAddresses[0].Address,
			Balance: zatoshiToZec(b.UAAddresses[0].Balance),
		}
	}
	for _, z := range b.ZAddresses {
		s.ShieldedAddresses = append(s.ShieldedAddresses, types.AddressBalance{Address: z.Address, Balance: zatoshiToZec(z.ZBalance)})
	}
	for _, t := range b.TAddresses {
		s.TransparentAddress = append(s.TransparentAddress, types.AddressBalance{Address: t.Address, Balance: zatoshiToZec(t.Balance)})
	}
	return s, nil
}

func (w *ZcashWallet) addresses(ctx context.Context) (*zcashAddresses, error) {
	var a zcashAddresses
	if err := w.command(ctx, &a, "addresses"); err != nil {
		return nil, err
	}
	return &a, nil
}

// Address returns the newest unified address, or the newest transparent
// address when shielded is false.
func (w *ZcashWallet) Address(ctx context.Context, shielded bool) (string, error) {
	a, err := w.addresses(ctx)
	if err != nil {
		return "", err
	}
	list := a.TAddresses
	if shielded {
		list = a.UAAddresses
	}
	if len(list) == 0 {
		return "", types.NewError(types.ErrChainError, "zcash wallet has no %s address", poolName(shielded))
	}
	return list[len(list)-1], nil
}

func poolName(shielded bool) string {
	if shielded {
		return "unified"
	}
	return "transparent"
}

// TransparentAddresses returns every t-address the wallet owns.
func (w *ZcashWallet) TransparentAddresses(ctx context.Context) ([]string, error) {
	a, err := w.addresses(ctx)
	if err != nil {
		return nil, err
	}
	return a.TAddresses, nil
}

// Send pays amount ZEC to an address.
func (w *ZcashWallet) Send(ctx context.Context, to string, amount decimal.Decimal) (string, error) {
	if err := utils.ValidateZcashAddress(to); err != nil {
		return "", types.NewError(types.ErrInvalidRequest, "%v", err)
	}
	if err := utils.ValidatePositive(amount); err != nil {
		return "", types.NewError(types.ErrInvalidRequest, "%v", err)
	}
	return w.txCommand(ctx, "send", to, zatoshi.ToSmallestUnit(amount))
}

// Shield moves transparent funds into a shielded address.
func (w *ZcashWallet) Shield(ctx context.Context, to string) (string, error) {
	if err := utils.ValidateZcashAddress(to); err != nil {
		return "", types.NewError(types.ErrInvalidRequest, "%v", err)
	}
	if utils.IsTransparentZcashAddress(to) {
		return "", types.NewError(types.ErrInvalidRequest, "cannot shield into transparent address %s", to)
	}
	return w.txCommand(ctx, "shield", to)
}

func (w *ZcashWallet) txCommand(ctx context.Context, cmd string, args ...string) (string, error) {
	var res zcashTxResult
	if err := w.command(ctx, &res, cmd, args...); err != nil {
		return "", err
	}
	if res.Error != "" || res.TxID == "" {
		return "", types.NewError(types.ErrChainError, "zcash wallet %s failed: %s", cmd, res.Error)
	}
	return res.TxID, nil
}

// DefaultFee returns the wallet's default transaction fee in ZEC.
func (w *ZcashWallet) DefaultFee(ctx context.Context) (decimal.Decimal, error) {
	var res struct {
		DefaultFee int64 `json:"defaultfee"`
	}
	if err := w.command(ctx, &res, "defaultfee"); err != nil {
		return decimal.Zero, err
	}
	return zatoshiToZec(res.DefaultFee), nil
}

func (w *ZcashWallet) sync(ctx context.Context) error {
	var res struct {
		Result string `json:"result"`
	}
	if err := w.command(ctx, &res, "sync"); err != nil {
		return err
	}
	if res.Result != "success" {
		return types.NewError(types.ErrChainError, "zcash wallet sync returned %q", res.Result)
	}
	return nil
}

func (w *ZcashWallet) isTxConfirmed(ctx context.Context, txid string) (bool, error) {
	if err := w.sync(ctx); err != nil {
		return false, err
	}
	var list []zcashListEntry
	if err := w.command(ctx, &list, "list"); err != nil {
		return false, err
	}
	for _, tx := range list {
		if tx.TxID == txid {
			return !tx.Unconfirmed, nil
		}
	}
	return false, nil
}

// WaitTxConfirmed blocks until txid is mined or ctx is done.
func (w *ZcashWallet) WaitTxConfirmed(ctx context.Context, txid string) error {
	ticker := time.NewTicker(w.confirmInterval)
	defer ticker.Stop()

	for {
		ok, err := w.isTxConfirmed(ctx, txid)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		w.log.Info("waiting for zcash transaction", map[string]any{"txid": txid})

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
