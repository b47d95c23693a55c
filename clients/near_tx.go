package clients

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/near/borsh-go"
)

// Gas and deposit constants used by the engine's contract calls.
const (
	MaxGas uint64 = 300_000_000_000_000

	NearDepositGas uint64 = 30_000_000_000_000
	FtTransferGas  uint64 = 50_000_000_000_000
)

var (
	// OneYocto is attached to ft_transfer style calls.
	OneYocto = big.NewInt(1)

	// StorageDepositAmount registers an account on a NEP-141 contract.
	StorageDepositAmount, _ = new(big.Int).SetString("1250000000000000000000", 10)
)

// Borsh enum tags of the supported actions.
const (
	actionFunctionCall uint8 = 2
	actionTransfer     uint8 = 3
)

// Action is one step of a NEAR transaction.
type Action interface {
	tag() uint8
}

// FunctionCallAction calls a contract method with JSON args.
type FunctionCallAction struct {
	MethodName string
	Args       []byte
	Gas        uint64
	Deposit    [16]byte
}

func (FunctionCallAction) tag() uint8 { return actionFunctionCall }

// TransferAction moves yoctoNEAR to the receiver.
type TransferAction struct {
	Deposit [16]byte
}

func (TransferAction) tag() uint8 { return actionTransfer }

// NewFunctionCall builds a FunctionCallAction. deposit may be nil.
func NewFunctionCall(method string, args []byte, gas uint64, deposit *big.Int) (FunctionCallAction, error) {
	d, err := U128(deposit)
	if err != nil {
		return FunctionCallAction{}, err
	}
	if args == nil {
		args = []byte("{}")
	}
	return FunctionCallAction{MethodName: method, Args: args, Gas: gas, Deposit: d}, nil
}

// NewTransfer builds a TransferAction.
func NewTransfer(amount *big.Int) (TransferAction, error) {
	d, err := U128(amount)
	if err != nil {
		return TransferAction{}, err
	}
	return TransferAction{Deposit: d}, nil
}

// U128 encodes v as a little-endian 128-bit integer.
func U128(v *big.Int) ([16]byte, error) {
	var out [16]byte
	if v == nil {
		return out, nil
	}
	if v.Sign() < 0 {
		return out, fmt.Errorf("negative u128 %s", v)
	}
	be := v.Bytes()
	if len(be) > len(out) {
		return out, fmt.Errorf("value %s overflows u128", v)
	}
	for i, b := range be {
		out[len(be)-1-i] = b
	}
	return out, nil
}

type nearPublicKey struct {
	KeyType uint8
	Data    [ed25519.PublicKeySize]byte
}

type txHeader struct {
	SignerID   string
	PublicKey  nearPublicKey
	Nonce      uint64
	ReceiverID string
	BlockHash  [32]byte
}

// Transaction is an unsigned NEAR transaction.
type Transaction struct {
	SignerID   string
	PublicKey  ed25519.PublicKey
	Nonce      uint64
	ReceiverID string
	BlockHash  [32]byte
	Actions    []Action
}

// Serialize returns the borsh encoding of the transaction.
func (t *Transaction) Serialize() ([]byte, error) {
	if len(t.PublicKey) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("invalid public key length %d", len(t.PublicKey))
	}

	h := txHeader{
		SignerID:   t.SignerID,
		Nonce:      t.Nonce,
		ReceiverID: t.ReceiverID,
		BlockHash:  t.BlockHash,
	}
	copy(h.PublicKey.Data[:], t.PublicKey)

	head, err := borsh.Serialize(h)
	if err != nil {
		return nil, fmt.Errorf("encode transaction: %w", err)
	}

	var buf bytes.Buffer
	buf.Write(head)

	var n [4]byte
	binary.LittleEndian.PutUint32(n[:], uint32(len(t.Actions)))
	buf.Write(n[:])

	for _, a := range t.Actions {
		body, err := borsh.Serialize(a)
		if err != nil {
			return nil, fmt.Errorf("encode action: %w", err)
		}
		buf.WriteByte(a.tag())
		buf.Write(body)
	}
	return buf.Bytes(), nil
}

// Sign hashes and signs the transaction, returning the signed borsh bytes
// and the transaction hash.
func (t *Transaction) Sign(key ed25519.PrivateKey) ([]byte, [32]byte, error) {
	raw, err := t.Serialize()
	if err != nil {
		return nil, [32]byte{}, err
	}
	hash := sha256.Sum256(raw)
	sig := ed25519.Sign(key, hash[:])

	signed := make([]byte, 0, len(raw)+1+ed25519.SignatureSize)
	signed = append(signed, raw...)
	signed = append(signed, 0) // ed25519 key type
	signed = append(signed, sig...)
	return signed, hash, nil
}
