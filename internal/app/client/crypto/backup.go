// Package crypto запечатывает резервные копии снимка паролем.
package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
	"unicode"

	"golang.org/x/crypto/argon2"
)

const (
	envelopeVersion = 1
	kdfArgon2id     = "argon2id"

	argon2Time    = 1
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4
	argon2KeyLen  = 32 // AES-256
	saltLength    = 16

	// MinPassphraseLength - минимальная длина пароля резервной копии
	MinPassphraseLength = 8
)

var (
	// ErrInvalidEnvelope - данные не являются запечатанной копией или пароль неверный
	ErrInvalidEnvelope = errors.New("invalid backup envelope")
	ErrWeakPassphrase  = errors.New("passphrase is too weak")
)

// KDFParams - параметры получения ключа, сохраняются в конверте
type KDFParams struct {
	Name    string `json:"name"`
	Time    uint32 `json:"time"`
	Memory  uint32 `json:"memory"`
	Threads uint8  `json:"threads"`
	Salt    string `json:"salt"`
}

// Envelope - зашифрованная резервная копия
type Envelope struct {
	Version   int       `json:"version"`
	KDF       KDFParams `json:"kdf"`
	Nonce     string    `json:"nonce"`
	Data      string    `json:"data"`
	CreatedAt time.Time `json:"createdAt"`
}

// Seal шифрует plaintext ключом, полученным из пароля через argon2id, и возвращает JSON конверта.
func Seal(plaintext []byte, passphrase string) ([]byte, error) {
	if err := ValidatePassphrase(passphrase); err != nil {
		return nil, err
	}

	salt, err := randomBytes(saltLength)
	if err != nil {
		return nil, err
	}
	params := KDFParams{
		Name:    kdfArgon2id,
		Time:    argon2Time,
		Memory:  argon2Memory,
		Threads: argon2Threads,
		Salt:    base64.StdEncoding.EncodeToString(salt),
	}

	key := deriveKey(passphrase, salt, params)
	defer clearMemory(key)

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce, err := randomBytes(gcm.NonceSize())
	if err != nil {
		return nil, err
	}

	env := Envelope{
		Version:   envelopeVersion,
		KDF:       params,
		Nonce:     base64.StdEncoding.EncodeToString(nonce),
		CreatedAt: time.Now().UTC(),
	}
	// заголовок аутентифицируется вместе с данными
	env.Data = base64.StdEncoding.EncodeToString(gcm.Seal(nil, nonce, plaintext, additionalData(env)))

	return json.MarshalIndent(env, "", "  ")
}

// Open расшифровывает конверт. Неверный пароль и поврежденные данные
// одинаково дают ErrInvalidEnvelope.
func Open(sealed []byte, passphrase string) ([]byte, error) {
	var env Envelope
	if err := json.Unmarshal(sealed, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	if env.Version != envelopeVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidEnvelope, env.Version)
	}
	if env.KDF.Name != kdfArgon2id {
		return nil, fmt.Errorf("%w: unsupported kdf %q", ErrInvalidEnvelope, env.KDF.Name)
	}

	salt, err := base64.StdEncoding.DecodeString(env.KDF.Salt)
	if err != nil {
		return nil, fmt.Errorf("%w: salt: %v", ErrInvalidEnvelope, err)
	}
	nonce, err := base64.StdEncoding.DecodeString(env.Nonce)
	if err != nil {
		return nil, fmt.Errorf("%w: nonce: %v", ErrInvalidEnvelope, err)
	}
	data, err := base64.StdEncoding.DecodeString(env.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: data: %v", ErrInvalidEnvelope, err)
	}

	key := deriveKey(passphrase, salt, env.KDF)
	defer clearMemory(key)

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != gcm.NonceSize() {
		return nil, fmt.Errorf("%w: bad nonce size", ErrInvalidEnvelope)
	}

	plaintext, err := gcm.Open(nil, nonce, data, additionalData(env))
	if err != nil {
		return nil, fmt.Errorf("%w: wrong passphrase or corrupted data", ErrInvalidEnvelope)
	}
	return plaintext, nil
}

// IsSealed проверяет, похожи ли данные на конверт, а не на открытую копию
func IsSealed(data []byte) bool {
	var probe struct {
		Version int        `json:"version"`
		KDF     *KDFParams `json:"kdf"`
		Nonce   string     `json:"nonce"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(data), &probe); err != nil {
		return false
	}
	return probe.KDF != nil && probe.Nonce != ""
}

// ValidatePassphrase требует минимальную длину и хотя бы одну букву и одну цифру
func ValidatePassphrase(passphrase string) error {
	if len([]rune(passphrase)) < MinPassphraseLength {
		return fmt.Errorf("%w: at least %d characters required", ErrWeakPassphrase, MinPassphraseLength)
	}

	var hasLetter, hasDigit bool
	for _, r := range passphrase {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return fmt.Errorf("%w: letters and digits required", ErrWeakPassphrase)
	}
	return nil
}

func deriveKey(passphrase string, salt []byte, p KDFParams) []byte {
	return argon2.IDKey([]byte(passphrase), salt, p.Time, p.Memory, p.Threads, argon2KeyLen)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания GCM: %w", err)
	}
	return gcm, nil
}

func additionalData(env Envelope) []byte {
	return []byte(fmt.Sprintf("v%d|%s|%s|%d", env.Version, env.KDF.Name, env.KDF.Salt, env.CreatedAt.UnixNano()))
}

func randomBytes(size int) ([]byte, error) {
	b := make([]byte, size)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return b, nil
}

// clearMemory затирает ключ после использования
func clearMemory(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
