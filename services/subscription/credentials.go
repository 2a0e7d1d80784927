package subscription

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/DL444/cqu-schedule/lib/schedule"
)

var (
	ErrAlreadyEncrypted = errors.New("user credential is already encrypted")
	ErrUnknownKeyId     = errors.New("no credential key matches the record's key id")
)

// CredentialCipher seals stored passwords with AES-256-GCM under a
// keyring of named keys. New records are sealed with the current key,
// existing ones are opened with whatever key their KeyId names so
// rotation never breaks old rows.
type CredentialCipher struct {
	currentKeyId string
	keys         map[string]cipher.AEAD
}

// NewCredentialCipher builds the keyring from base64-encoded 32-byte
// keys indexed by key id.
func NewCredentialCipher(currentKeyId string, keys map[string]string) (CredentialCipher, error) {
	if _, ok := keys[currentKeyId]; !ok {
		return CredentialCipher{}, fmt.Errorf("current key id %q is not in the keyring", currentKeyId)
	}

	ring := make(map[string]cipher.AEAD, len(keys))
	for id, encoded := range keys {
		key, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return CredentialCipher{}, fmt.Errorf("credential key %q is not valid base64: %w", id, err)
		}
		block, err := aes.NewCipher(key)
		if err != nil {
			return CredentialCipher{}, fmt.Errorf("credential key %q: %w", id, err)
		}
		aead, err := cipher.NewGCM(block)
		if err != nil {
			return CredentialCipher{}, err
		}
		ring[id] = aead
	}
	return CredentialCipher{currentKeyId: currentKeyId, keys: ring}, nil
}

func (c CredentialCipher) CurrentKeyId() string {
	return c.currentKeyId
}

// Encrypt seals the user's password under the current key. A record
// that already carries a key id is refused rather than double-sealed.
func (c CredentialCipher) Encrypt(user schedule.User) (schedule.User, error) {
	if user.KeyId != "" {
		return schedule.User{}, ErrAlreadyEncrypted
	}
	aead := c.keys[c.currentKeyId]

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return schedule.User{}, err
	}
	sealed := aead.Seal(nonce, nonce, []byte(user.Password), []byte(user.Username))

	user.Password = base64.StdEncoding.EncodeToString(sealed)
	user.KeyId = c.currentKeyId
	return user, nil
}

// Decrypt opens the user's password with the key the record was sealed
// under.
func (c CredentialCipher) Decrypt(user schedule.User) (schedule.User, error) {
	aead, ok := c.keys[user.KeyId]
	if !ok {
		return schedule.User{}, fmt.Errorf("key id %q: %w", user.KeyId, ErrUnknownKeyId)
	}

	sealed, err := base64.StdEncoding.DecodeString(user.Password)
	if err != nil {
		return schedule.User{}, fmt.Errorf("stored credential is not valid base64: %w", err)
	}
	if len(sealed) < aead.NonceSize() {
		return schedule.User{}, errors.New("stored credential is truncated")
	}
	plaintext, err := aead.Open(nil, sealed[:aead.NonceSize()], sealed[aead.NonceSize():], []byte(user.Username))
	if err != nil {
		return schedule.User{}, fmt.Errorf("failed to open stored credential: %w", err)
	}

	user.Password = string(plaintext)
	user.KeyId = ""
	return user, nil
}
