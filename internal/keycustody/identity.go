package keycustody

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"math"
)

// ContractIdentityHash computes H = SHA-224(tenant_id_le || contract_id_le ||
// version_le || address_utf8), the key under which a contract's passphrase
// is stored in the secret store.
func ContractIdentityHash(tenantID, contractID int64, version float32, address string) string {
	h := sha256.New224()

	var tenantBuf [8]byte
	binary.LittleEndian.PutUint64(tenantBuf[:], uint64(tenantID))
	h.Write(tenantBuf[:])

	var contractBuf [8]byte
	binary.LittleEndian.PutUint64(contractBuf[:], uint64(contractID))
	h.Write(contractBuf[:])

	var versionBuf [4]byte
	binary.LittleEndian.PutUint32(versionBuf[:], math.Float32bits(version))
	h.Write(versionBuf[:])

	h.Write([]byte(address))

	return hex.EncodeToString(h.Sum(nil))
}

// GeneratePassphrase produces a fresh passphrase: 512 bytes of OS entropy
// hashed down to a 64-hex-char string with SHA-256, the digest size that
// matches the target hex length.
func GeneratePassphrase() (string, error) {
	entropy := make([]byte, 512)
	if _, err := io.ReadFull(rand.Reader, entropy); err != nil {
		return "", fmt.Errorf("keycustody: generating passphrase entropy: %w", err)
	}
	sum := sha256.Sum256(entropy)
	return hex.EncodeToString(sum[:]), nil
}
