// Package cipher implements the password scrambling each portal's login
// form performs client-side before putting credentials on the wire.
// These match the portals' own JS implementations, except that random
// material comes from a cryptographically strong source.
package cipher

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

const charCandidates = "ABCDEFGHJKMNPQRSTWXYZabcdefhijkmnprstwxyz2345678"

func randomString(n int) (string, error) {
	out := make([]byte, n)
	max := big.NewInt(int64(len(charCandidates)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = charCandidates[idx.Int64()]
	}
	return string(out), nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(padding)}, padding)...)
}

// EncryptAES scrambles the password the way the SSO login form does: a
// 64-character random prefix is prepended to defeat known-plaintext
// attacks, then the whole string is AES-CBC encrypted under the
// whitespace-trimmed server-supplied key with a random 16-character IV,
// PKCS7 padded and base64 encoded.
func EncryptAES(password, serverKey string) (string, error) {
	key := []byte(strings.TrimSpace(serverKey))
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("failed to derive aes key: %w", err)
	}

	prefix, err := randomString(64)
	if err != nil {
		return "", err
	}
	ivStr, err := randomString(16)
	if err != nil {
		return "", err
	}
	iv := []byte(ivStr)

	plaintext := pkcs7Pad([]byte(prefix+password), aes.BlockSize)
	ciphertext := make([]byte, len(plaintext))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, plaintext)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// EncryptDES scrambles the password for the legacy portal: DES-ECB with
// PKCS7 padding, keyed by the base64-decoded server-supplied salt.
func EncryptDES(password, salt string) (string, error) {
	key, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		return "", fmt.Errorf("failed to decode des salt: %w", err)
	}
	block, err := des.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("failed to derive des key: %w", err)
	}

	plaintext := pkcs7Pad([]byte(password), des.BlockSize)
	ciphertext := make([]byte, len(plaintext))
	for i := 0; i < len(plaintext); i += des.BlockSize {
		block.Encrypt(ciphertext[i:i+des.BlockSize], plaintext[i:i+des.BlockSize])
	}
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

var examStudentIdKey = []byte("cquisse123456789")

// ExamStudentId derives the opaque student id the exam feed is queried
// by: the username AES-ECB encrypted under a fixed key, uppercase hex.
func ExamStudentId(username string) (string, error) {
	block, err := aes.NewCipher(examStudentIdKey)
	if err != nil {
		return "", err
	}

	plaintext := pkcs7Pad([]byte(username), aes.BlockSize)
	ciphertext := make([]byte, len(plaintext))
	for i := 0; i < len(plaintext); i += aes.BlockSize {
		block.Encrypt(ciphertext[i:i+aes.BlockSize], plaintext[i:i+aes.BlockSize])
	}
	return strings.ToUpper(hex.EncodeToString(ciphertext)), nil
}
