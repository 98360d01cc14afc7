// Package signer holds the server's single signing key (spec §6 "Server
// signing key path", §9 "Global-state lifecycle": the signing key is a
// process-wide singleton initialized at startup). Grounded on
// pkg/crypto/encrypt.go (AES-256-GCM, kept from the teacher) for
// at-rest protection of the key file.
package signer

import (
	"os"
	"strings"

	"github.com/gagliardetto/solana-go"

	"solexec/internal/xerr"
	"solexec/pkg/crypto"
)

// Signer wraps the server's one Solana keypair.
type Signer struct {
	key solana.PrivateKey
}

// Load reads the key file at path. If encryptionKey is non-empty the
// file contents are treated as an AES-256-GCM ciphertext (as produced
// by pkg/crypto.Encrypt) and decrypted first; otherwise the file is
// read as a bare base58 private key, for local/dev use.
func Load(path string, encryptionKey []byte) (*Signer, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, xerr.New(xerr.FatalConfig, "signer", "reading key file", err)
	}

	encoded := strings.TrimSpace(string(raw))
	if len(encryptionKey) > 0 {
		encoded, err = crypto.Decrypt(encoded, encryptionKey)
		if err != nil {
			return nil, xerr.New(xerr.FatalConfig, "signer", "decrypting key file", err)
		}
	}

	key, err := solana.PrivateKeyFromBase58(encoded)
	if err != nil {
		return nil, xerr.New(xerr.FatalConfig, "signer", "parsing private key", err)
	}
	return &Signer{key: key}, nil
}

// FromPrivateKey wraps an already-parsed key, used by tests and by any
// caller that sources the key from somewhere other than a file.
func FromPrivateKey(key solana.PrivateKey) *Signer {
	return &Signer{key: key}
}

// PublicKey returns the server's public key, the fee payer every leg
// the router builds must name.
func (s *Signer) PublicKey() solana.PublicKey {
	return s.key.PublicKey()
}

// SignTransaction signs tx in place for every signer slot the message
// names that matches this key, leaving the message itself untouched
// (spec §4.8 "its message is extracted verbatim... paired with the
// server key's signature"). tx is expected to have exactly one real
// signer: the server's own key, set as fee payer by the router.
func (s *Signer) SignTransaction(tx *solana.Transaction) error {
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(s.key.PublicKey()) {
			return &s.key
		}
		return nil
	})
	if err != nil {
		return xerr.New(xerr.FatalConfig, "signer", "signing transaction", err)
	}
	return nil
}

// SignBase64 decodes an unsigned, base64-encoded transaction, signs it,
// and re-encodes it. This is the per-leg step of the bundle executor
// (spec §4.8): "deserialized from base64... new versioned transaction
// is constructed pairing that message with the server key's signature,
// then re-encoded."
func (s *Signer) SignBase64(txBase64 string) (string, error) {
	tx, err := solana.TransactionFromBase64(txBase64)
	if err != nil {
		return "", xerr.New(xerr.ParseMismatch, "signer", "decoding unsigned transaction", err)
	}

	if err := s.SignTransaction(tx); err != nil {
		return "", err
	}

	signed, err := tx.ToBase64()
	if err != nil {
		return "", xerr.New(xerr.ParseMismatch, "signer", "encoding signed transaction", err)
	}
	return signed, nil
}
