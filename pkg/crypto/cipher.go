// Package crypto provides the chat message transform and credential hashing.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidCiphertext = errors.New("crypto: invalid ciphertext")
	ErrInvalidPadding    = errors.New("crypto: invalid padding")
)

// LineCipher transforms a rendered chat line to and from its wire form.
// The seam exists so key material can later be rotated or the transform
// replaced without touching the session code.
type LineCipher interface {
	Encrypt(plaintext string) string
	Decrypt(encoded string) (string, error)
}

// MessageCipher is a reversible AES-ECB/PKCS#7 transform over rendered chat
// text, base64-armored so ciphertext stays line-safe.
//
// ECB with a static pre-shared key is deterministic and not semantically
// secure: equal lines produce equal ciphertext. It is an obfuscation layer
// kept for wire compatibility, not a confidentiality boundary.
type MessageCipher struct {
	block cipher.Block
}

var _ LineCipher = (*MessageCipher)(nil)

// NewMessageCipher creates a cipher from a 16, 24, or 32 byte AES key.
func NewMessageCipher(key []byte) (*MessageCipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: new cipher: %w", err)
	}
	return &MessageCipher{block: block}, nil
}

// ParseKey decodes key material from configuration. A "hex:" or "raw:"
// prefix forces the encoding. Unprefixed keys are ambiguous: hex wins if the
// string decodes to a valid AES key length, raw bytes otherwise.
func ParseKey(s string) ([]byte, error) {
	if rest, ok := strings.CutPrefix(s, "hex:"); ok {
		decoded, err := hex.DecodeString(rest)
		if err != nil {
			return nil, fmt.Errorf("crypto: decode hex key: %w", err)
		}
		switch len(decoded) {
		case 16, 24, 32:
			return decoded, nil
		}
		return nil, fmt.Errorf("crypto: hex key must decode to 16, 24, or 32 bytes, got %d", len(decoded))
	}
	if rest, ok := strings.CutPrefix(s, "raw:"); ok {
		switch len(rest) {
		case 16, 24, 32:
			return []byte(rest), nil
		}
		return nil, fmt.Errorf("crypto: raw key must be 16, 24, or 32 bytes, got %d", len(rest))
	}

	if decoded, err := hex.DecodeString(s); err == nil {
		switch len(decoded) {
		case 16, 24, 32:
			return decoded, nil
		}
	}
	switch len(s) {
	case 16, 24, 32:
		return []byte(s), nil
	}
	return nil, fmt.Errorf("crypto: key must be 16, 24, or 32 bytes (raw or hex), got %d", len(s))
}

// Encrypt returns the base64 wire form of a plaintext line.
func (c *MessageCipher) Encrypt(plaintext string) string {
	padded := pad([]byte(plaintext), c.block.BlockSize())
	out := make([]byte, len(padded))
	for i := 0; i < len(padded); i += c.block.BlockSize() {
		c.block.Encrypt(out[i:], padded[i:])
	}
	return base64.StdEncoding.EncodeToString(out)
}

// Decrypt reverses Encrypt. It fails on malformed base64, ciphertext that is
// not a whole number of blocks, or bad padding.
func (c *MessageCipher) Decrypt(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("crypto: decode: %w", err)
	}
	bs := c.block.BlockSize()
	if len(data) == 0 || len(data)%bs != 0 {
		return "", ErrInvalidCiphertext
	}

	out := make([]byte, len(data))
	for i := 0; i < len(data); i += bs {
		c.block.Decrypt(out[i:], data[i:])
	}
	return unpad(out)
}

// pad applies PKCS#7 padding up to blockSize.
func pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+n)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(n)
	}
	return padded
}

// unpad removes PKCS#7 padding.
func unpad(data []byte) (string, error) {
	n := int(data[len(data)-1])
	if n == 0 || n > len(data) || n > aes.BlockSize {
		return "", ErrInvalidPadding
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return "", ErrInvalidPadding
		}
	}
	return string(data[:len(data)-n]), nil
}
