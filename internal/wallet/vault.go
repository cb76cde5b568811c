package wallet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/blocto/solana-go-sdk/types"
	"golang.org/x/crypto/pbkdf2"

	"sniper-suite-go/internal/config"
)

// KeyVault yields a signing account for a wallet. Implementations must not
// retain the decrypted key beyond the call.
type KeyVault interface {
	DecryptSigner(walletID int64, password string) (types.Account, error)
}

// EncryptedVault decrypts base58 private keys stored encrypted in a
// SecretStore. Keys are sealed with AES-256-GCM under a PBKDF2-SHA256
// derived key; the ciphertext layout is salt || nonce || sealed.
type EncryptedVault struct {
	secrets SecretStore
}

// NewEncryptedVault creates a vault over the given secret store
func NewEncryptedVault(secrets SecretStore) *EncryptedVault {
	return &EncryptedVault{secrets: secrets}
}

// DecryptSigner loads and decrypts the wallet's private key and returns a
// one-shot signing account. A wrong password yields ErrAuthentication.
func (v *EncryptedVault) DecryptSigner(walletID int64, password string) (types.Account, error) {
	encrypted, err := v.secrets.EncryptedKey(walletID)
	if err != nil {
		return types.Account{}, err
	}

	privateKey, err := DecryptKey(encrypted, password)
	if err != nil {
		return types.Account{}, err
	}

	account, err := types.AccountFromBase58(privateKey)
	if err != nil {
		return types.Account{}, fmt.Errorf("stored key is not a valid private key: %w", err)
	}

	return account, nil
}

var _ KeyVault = (*EncryptedVault)(nil)

// EncryptKey seals a base58 private key under the password
func EncryptKey(privateKey, password string) (string, error) {
	salt := make([]byte, config.VaultSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	gcm, err := newGCM(password, salt)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, []byte(privateKey), nil)

	blob := make([]byte, 0, len(salt)+len(nonce)+len(sealed))
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = append(blob, sealed...)

	return base64.URLEncoding.EncodeToString(blob), nil
}

// DecryptKey opens a ciphertext produced by EncryptKey. Returns
// ErrAuthentication when the password does not match.
func DecryptKey(encrypted, password string) (string, error) {
	blob, err := base64.URLEncoding.DecodeString(encrypted)
	if err != nil {
		return "", fmt.Errorf("malformed encrypted key: %w", err)
	}

	if len(blob) < config.VaultSaltLen {
		return "", fmt.Errorf("malformed encrypted key: too short")
	}
	salt := blob[:config.VaultSaltLen]

	gcm, err := newGCM(password, salt)
	if err != nil {
		return "", err
	}

	rest := blob[config.VaultSaltLen:]
	if len(rest) < gcm.NonceSize() {
		return "", fmt.Errorf("malformed encrypted key: missing nonce")
	}
	nonce, sealed := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrAuthentication
	}

	return string(plaintext), nil
}

func newGCM(password string, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(password), salt, config.VaultKDFIterations, 32, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to init cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to init GCM: %w", err)
	}

	return gcm, nil
}
