package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"io"
	"unicode/utf8"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/trudransh/tunnelcrypt/internal/nonceguard"
)

const (
	// KeySize is the length of the symmetric key in bytes.
	KeySize = chacha20poly1305.KeySize
	// NonceSize is the length of the per-record random nonce in bytes.
	NonceSize = chacha20poly1305.NonceSizeX
	// TagSize is the length of the authentication tag in bytes.
	TagSize = chacha20poly1305.Overhead
	// MinRecordSize is the smallest sealed record Decrypt accepts. Encrypt
	// refuses empty plaintext, so every record a conforming peer produces
	// carries at least one ciphertext byte between nonce and tag.
	MinRecordSize = NonceSize + TagSize + 1
)

var (
	ErrInvalidKeyLength     = errors.New("crypto: key must be exactly 32 bytes")
	ErrEmptyMessage         = errors.New("crypto: empty message")
	ErrEncryptionFailed     = errors.New("crypto: encryption failed")
	ErrRecordTooShort       = errors.New("crypto: sealed record too short")
	ErrAuthenticationFailed = errors.New("crypto: authentication failed")
	ErrMalformedPayload     = errors.New("crypto: payload is not valid UTF-8")
	ErrNonceRepeated        = errors.New("crypto: repeated nonce (possible replay)")
)

// Options configures optional Engine behavior. The zero value selects
// production defaults.
type Options struct {
	// Rand supplies nonce bytes and defaults to crypto/rand.Reader.
	// Anything other than a cryptographically secure source is unsafe
	// outside of tests: a repeated nonce under one key breaks both
	// confidentiality and tamper detection.
	Rand io.Reader

	// ReplayGuard makes Decrypt refuse records whose nonce this engine has
	// already accepted. Detection is probabilistic (rotating bloom filters)
	// and memory stays bounded over a long-lived tunnel.
	ReplayGuard bool
}

// Engine seals and opens tunnel records with XChaCha20-Poly1305 under a
// single 256-bit key fixed at construction.
//
// Record layout: nonce (24 bytes) || ciphertext || tag (16 bytes), with no
// length prefix or version byte; record boundaries come from the transport.
// AAD is bound into the tag but never transmitted, so both peers must derive
// it independently from protocol context.
//
// The engine keeps no per-call state and is safe for concurrent use.
type Engine struct {
	aead  cipher.AEAD
	rand  io.Reader
	guard *nonceguard.Ring
}

// New creates an Engine from a 32-byte key with default options.
func New(key []byte) (*Engine, error) {
	return NewWithOptions(key, Options{})
}

// NewWithOptions creates an Engine from a 32-byte key. Construction performs
// no I/O.
func NewWithOptions(key []byte, opts Options) (*Engine, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeyLength
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	e := &Engine{aead: aead, rand: opts.Rand}
	if e.rand == nil {
		e.rand = rand.Reader
	}
	if opts.ReplayGuard {
		e.guard = nonceguard.New(nonceguard.DefaultSlots, nonceguard.DefaultCapacity, nonceguard.DefaultFPR)
	}
	return e, nil
}

// Encrypt seals plaintext under a fresh random nonce and returns the sealed
// record nonce || ciphertext || tag. aad is authenticated but not encrypted
// and may be empty; plaintext must not be. Output length is always
// len(plaintext) + Overhead bytes, and sealing the same input twice yields
// different records.
func (e *Engine) Encrypt(plaintext, aad []byte) ([]byte, error) {
	if len(plaintext) == 0 {
		return nil, ErrEmptyMessage
	}
	record := make([]byte, NonceSize, NonceSize+len(plaintext)+TagSize)
	if _, err := io.ReadFull(e.rand, record); err != nil {
		return nil, ErrEncryptionFailed
	}
	// Seal appends ciphertext and tag directly after the nonce.
	return e.aead.Seal(record, record[:NonceSize], plaintext, aad), nil
}

// Decrypt opens a sealed record and returns the plaintext. The tag is
// verified before any plaintext byte is exposed; a record that fails
// verification yields no partial output.
//
// Wrong key, wrong AAD, and corrupted bytes all surface as
// ErrAuthenticationFailed. Distinguishing them would hand an attacker an
// oracle, so the engine deliberately does not.
func (e *Engine) Decrypt(record, aad []byte) ([]byte, error) {
	if len(record) < MinRecordSize {
		return nil, ErrRecordTooShort
	}
	nonce := record[:NonceSize]
	if e.guard != nil && e.guard.Seen(nonce) {
		return nil, ErrNonceRepeated
	}
	plaintext, err := e.aead.Open(nil, nonce, record[NonceSize:], aad)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	// Only authenticated records enter the guard, so a flood of garbage
	// cannot poison it against future valid nonces.
	if e.guard != nil {
		e.guard.Add(nonce)
	}
	return plaintext, nil
}

// DecryptText opens a sealed record whose payload the caller requires to be
// UTF-8 text. A record that authenticates but carries non-text bytes fails
// with ErrMalformedPayload, which is a payload-format error, not a tamper
// signal.
func (e *Engine) DecryptText(record, aad []byte) (string, error) {
	plaintext, err := e.Decrypt(record, aad)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(plaintext) {
		return "", ErrMalformedPayload
	}
	return string(plaintext), nil
}

// Overhead returns the number of bytes a sealed record adds over its
// plaintext: the nonce plus the authentication tag.
func (e *Engine) Overhead() int { return NonceSize + TagSize }
