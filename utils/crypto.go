package utils

import (
	"crypto/ed25519"
	"fmt"
	"strings"

	"github.com/btcsuite/btcutil/base58"
)

const ed25519Prefix = "ed25519:"

// ParseEd25519PrivateKey decodes a NEAR style "ed25519:<base58>" secret key.
// Both the 64-byte expanded form and a bare 32-byte seed are accepted.
func ParseEd25519PrivateKey(key string) (ed25519.PrivateKey, error) {
	raw, err := decodeBase58(strings.TrimPrefix(strings.TrimSpace(key), ed25519Prefix))
	if err != nil {
		return nil, err
	}

	switch len(raw) {
	case ed25519.PrivateKeySize:
		priv := ed25519.PrivateKey(raw)
		// Reject keys whose public half does not match the seed.
		derived := ed25519.NewKeyFromSeed(raw[:ed25519.SeedSize])
		if !derived.Equal(priv) {
			return nil, fmt.Errorf("private key public half does not match its seed")
		}
		return priv, nil
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(raw), nil
	default:
		return nil, fmt.Errorf("invalid ed25519 private key length %d", len(raw))
	}
}

// EncodePublicKey renders a public key as "ed25519:<base58>".
func EncodePublicKey(pub ed25519.PublicKey) string {
	return ed25519Prefix + base58.Encode(pub)
}

// ParsePublicKey decodes an "ed25519:<base58>" public key.
func ParsePublicKey(s string) (ed25519.PublicKey, error) {
	if !strings.HasPrefix(s, ed25519Prefix) {
		return nil, fmt.Errorf("public key must start with %q", ed25519Prefix)
	}
	raw, err := decodeBase58(strings.TrimPrefix(s, ed25519Prefix))
	if err != nil {
		return nil, err
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("invalid ed25519 public key length %d", len(raw))
	}
	return ed25519.PublicKey(raw), nil
}

// SignDigest signs a digest and renders the signature as "ed25519:<base58>".
func SignDigest(digest []byte, priv ed25519.PrivateKey) string {
	return ed25519Prefix + base58.Encode(ed25519.Sign(priv, digest))
}

// VerifyDigest checks an "ed25519:<base58>" signature over digest.
func VerifyDigest(digest []byte, signature string, pub ed25519.PublicKey) (bool, error) {
	if !strings.HasPrefix(signature, ed25519Prefix) {
		return false, fmt.Errorf("signature must start with %q", ed25519Prefix)
	}
	sig, err := decodeBase58(strings.TrimPrefix(signature, ed25519Prefix))
	if err != nil {
		return false, err
	}
	if len(sig) != ed25519.SignatureSize {
		return false, fmt.Errorf("signature must be %d bytes, got %d", ed25519.SignatureSize, len(sig))
	}
	return ed25519.Verify(pub, digest, sig), nil
}

// DecodeBase58Hash decodes a 32-byte base58 hash such as a NEAR block hash.
func DecodeBase58Hash(s string) ([32]byte, error) {
	var out [32]byte
	raw, err := decodeBase58(s)
	if err != nil {
		return out, err
	}
	if len(raw) != len(out) {
		return out, fmt.Errorf("hash %q must decode to 32 bytes, got %d", s, len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

// decodeBase58 rejects characters outside the alphabet; base58.Decode
// silently returns an empty slice for them.
func decodeBase58(s string) ([]byte, error) {
	if !IsBase58String(s) {
		return nil, fmt.Errorf("%q is not valid base58", s)
	}
	return base58.Decode(s), nil
}

// EncodeBase58 is a thin wrapper used for transaction hashes.
func EncodeBase58(b []byte) string {
	return base58.Encode(b)
}
