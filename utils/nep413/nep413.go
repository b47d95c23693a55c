// Package nep413 implements the NEP-413 off-chain message envelope: the
// borsh payload layout, its tag prefix and the SHA-256 digest that gets
// signed by the account key.
package nep413

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"github.com/near/borsh-go"
	"github.com/vitwit/zizza/types"
)

const (
	// NonceSize is the length of the raw nonce in bytes.
	NonceSize = 32

	// MaxMessageSize bounds the signed message.
	MaxMessageSize = 64 * 1024

	// tagBase is 2^31; the tag is tagBase + standard number.
	tagBase uint32 = 1 << 31
)

// Payload mirrors the borsh schema:
//
//	message: string, nonce: [u8; 32], recipient: string, callback_url: Option<string>
type Payload struct {
	Message     string
	Nonce       [NonceSize]byte
	Recipient   string
	CallbackURL *string
}

// Tag returns the little-endian uint32 prefix for a standard.
func Tag(standard types.Standard) ([4]byte, error) {
	var out [4]byte
	n, ok := standard.Number()
	if !ok {
		return out, types.NewError(types.ErrEncoding, "unsupported signing standard %q", standard)
	}
	binary.LittleEndian.PutUint32(out[:], tagBase+n)
	return out, nil
}

// Serialize returns tag || borsh(payload), the exact bytes that are hashed.
func Serialize(message, recipient string, nonce [NonceSize]byte, standard types.Standard) ([]byte, error) {
	if err := checkMessage(message); err != nil {
		return nil, err
	}
	if !utf8.ValidString(recipient) {
		return nil, types.NewError(types.ErrEncoding, "recipient is not valid UTF-8")
	}

	tag, err := Tag(standard)
	if err != nil {
		return nil, err
	}

	body, err := borsh.Serialize(Payload{
		Message:   message,
		Nonce:     nonce,
		Recipient: recipient,
	})
	if err != nil {
		return nil, types.NewError(types.ErrEncoding, "borsh encode payload: %v", err)
	}

	out := make([]byte, 0, len(tag)+len(body))
	out = append(out, tag[:]...)
	return append(out, body...), nil
}

// EnvelopeDigest computes sha256(tag || borsh(payload)).
func EnvelopeDigest(message, recipient string, nonce [NonceSize]byte, standard types.Standard) ([32]byte, error) {
	data, err := Serialize(message, recipient, nonce, standard)
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(data), nil
}

// DigestOf recomputes the digest of an already built envelope.
func DigestOf(env *types.SignedEnvelope) ([32]byte, error) {
	nonce, err := DecodeNonce(env.Payload.Nonce)
	if err != nil {
		return [32]byte{}, err
	}
	return EnvelopeDigest(env.Payload.Message, env.Payload.Recipient, nonce, env.Standard)
}

// GenerateNonce returns 32 random bytes, base64 encoded for transport.
func GenerateNonce() (string, error) {
	var raw [NonceSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", fmt.Errorf("failed to read random nonce: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw[:]), nil
}

// DecodeNonce reverses GenerateNonce.
func DecodeNonce(s string) ([NonceSize]byte, error) {
	var out [NonceSize]byte
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return out, types.NewError(types.ErrEncoding, "nonce is not valid base64: %v", err)
	}
	if len(raw) != NonceSize {
		return out, types.NewError(types.ErrEncoding, "nonce must be %d bytes, got %d", NonceSize, len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

// payloadHead is the fixed part of Payload. The callback_url option is
// decoded by hand: borsh-go turns None into a pointer to "" instead of nil.
type payloadHead struct {
	Message   string
	Nonce     [NonceSize]byte
	Recipient string
}

// DecodePayload parses the borsh body (without the tag). Trailing bytes are
// rejected.
func DecodePayload(body []byte) (*Payload, error) {
	var head payloadHead
	if err := borsh.Deserialize(&head, body); err != nil {
		return nil, types.NewError(types.ErrEncoding, "borsh decode payload: %v", err)
	}
	p := &Payload{Message: head.Message, Nonce: head.Nonce, Recipient: head.Recipient}

	rest := body[4+len(head.Message)+NonceSize+4+len(head.Recipient):]
	if len(rest) == 0 {
		return nil, types.NewError(types.ErrEncoding, "borsh decode payload: missing callback_url option")
	}
	switch rest[0] {
	case 0:
		rest = rest[1:]
	case 1:
		var url string
		if err := borsh.Deserialize(&url, rest[1:]); err != nil {
			return nil, types.NewError(types.ErrEncoding, "borsh decode callback_url: %v", err)
		}
		p.CallbackURL = &url
		rest = rest[1+4+len(url):]
	default:
		return nil, types.NewError(types.ErrEncoding, "borsh decode payload: invalid option flag %d", rest[0])
	}
	if len(rest) != 0 {
		return nil, types.NewError(types.ErrEncoding, "borsh decode payload: %d trailing bytes", len(rest))
	}
	return p, nil
}

func checkMessage(message string) error {
	if len(message) > MaxMessageSize {
		return types.NewError(types.ErrEncoding, "message is %d bytes, limit is %d", len(message), MaxMessageSize)
	}
	if !utf8.ValidString(message) {
		return types.NewError(types.ErrEncoding, "message is not valid UTF-8")
	}
	return nil
}
