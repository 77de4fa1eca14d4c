// Package keycustody implements the key-encryption path for at-rest signing
// keys: an Argon2id-derived XChaCha20-Poly1305 stream cipher, a
// process-external secret store client, and the contract identity hash used
// to key the passphrase within it.
package keycustody

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// chunkSize is the plaintext chunk size the STREAM framing seals at a time.
const chunkSize = 500

// saltSize and nonceSize give the on-disk layout: a fresh 32-byte salt and a
// fresh 19-byte nonce prepended to the ciphertext.
const (
	saltSize  = 32
	nonceSize = 19
)

// argon2 tuning: Argon2id, 32-byte output, 8 lanes, 16 MiB memory, 8 passes.
const (
	argon2Time    = 8
	argon2Memory  = 16 * 1024 // KiB
	argon2Threads = 8
	argon2KeyLen  = 32
)

func deriveKey(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
}

// streamNonce builds the full 24-byte XChaCha20-Poly1305 nonce for a chunk:
// the 19-byte stream nonce, a big-endian 32-bit chunk counter, and a single
// "last chunk" flag byte — a BE32 STREAM construction.
func streamNonce(base []byte, counter uint32, last bool) []byte {
	full := make([]byte, chacha20poly1305.NonceSizeX)
	copy(full, base)
	binary.BigEndian.PutUint32(full[nonceSize:nonceSize+4], counter)
	if last {
		full[nonceSize+4] = 0x01
	}
	return full
}

// Encrypt seals plaintext under password, returning the hex-encoded
// ciphertext: salt(32) || nonce(19) || aead_stream(plaintext, 500-byte
// chunks).
func Encrypt(plaintext []byte, password string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("keycustody: generating salt: %w", err)
	}
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("keycustody: generating nonce: %w", err)
	}

	key := deriveKey(password, salt)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return "", fmt.Errorf("keycustody: initializing AEAD: %w", err)
	}

	var out bytes.Buffer
	out.Write(salt)
	out.Write(nonce)

	var counter uint32
	for offset := 0; offset < len(plaintext); offset += chunkSize {
		end := offset + chunkSize
		last := end >= len(plaintext)
		if last {
			end = len(plaintext)
		}
		chunk := plaintext[offset:end]
		sealed := aead.Seal(nil, streamNonce(nonce, counter, last), chunk, nil)
		out.Write(sealed)
		counter++
		if last {
			break
		}
	}
	// An empty plaintext still emits one (empty) sealed chunk so decrypt's
	// loop always sees a final, tagged chunk.
	if len(plaintext) == 0 {
		sealed := aead.Seal(nil, streamNonce(nonce, 0, true), nil, nil)
		out.Write(sealed)
	}

	return hex.EncodeToString(out.Bytes()), nil
}

// Decrypt reverses Encrypt given the same password.
func Decrypt(ciphertextHex string, password string) ([]byte, error) {
	raw, err := hex.DecodeString(ciphertextHex)
	if err != nil {
		return nil, fmt.Errorf("keycustody: invalid hex ciphertext: %w", err)
	}
	if len(raw) < saltSize+nonceSize {
		return nil, fmt.Errorf("keycustody: ciphertext too short")
	}
	salt := raw[:saltSize]
	nonce := raw[saltSize : saltSize+nonceSize]
	body := raw[saltSize+nonceSize:]

	key := deriveKey(password, salt)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("keycustody: initializing AEAD: %w", err)
	}

	const sealedChunk = chunkSize + chacha20poly1305.Overhead
	var out bytes.Buffer
	var counter uint32
	for offset := 0; offset < len(body); {
		end := offset + sealedChunk
		last := end >= len(body)
		if last {
			end = len(body)
		}
		chunk := body[offset:end]
		plain, err := aead.Open(nil, streamNonce(nonce, counter, last), chunk, nil)
		if err != nil {
			return nil, fmt.Errorf("keycustody: decrypting chunk %d: %w", counter, err)
		}
		out.Write(plain)
		counter++
		offset = end
		if last {
			break
		}
	}

	return out.Bytes(), nil
}
