// Token vault: keeps the backend API token AES-encrypted in the KV
// store rather than in plaintext config on disk.
package crypto

import "github.com/kimhsiao/merchsync/internal/db"

// KV is the persistent key-value capability the vault writes through.
type KV interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// TokenVault stores the backend token encrypted under a device-derived key.
type TokenVault struct {
	kv       KV
	deviceID string
}

// NewTokenVault creates a vault over kv. deviceID may be empty; a
// default key is derived in that case.
func NewTokenVault(kv KV, deviceID string) *TokenVault {
	return &TokenVault{kv: kv, deviceID: deviceID}
}

// Store encrypts and persists the token. An empty token clears the vault.
func (v *TokenVault) Store(token string) error {
	if token == "" {
		return v.kv.Delete(db.KeyBackendToken)
	}
	encrypted, err := EncryptToken(token, v.deviceID)
	if err != nil {
		return err
	}
	return v.kv.Set(db.KeyBackendToken, []byte(encrypted))
}

// Load decrypts and returns the stored token. A missing record yields
// an empty token and no error.
func (v *TokenVault) Load() (string, error) {
	data, ok, err := v.kv.Get(db.KeyBackendToken)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return DecryptToken(string(data), v.deviceID)
}
