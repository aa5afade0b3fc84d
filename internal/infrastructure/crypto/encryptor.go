package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"sync"

	"prompt-manager/internal/infrastructure/config"
	"prompt-manager/internal/infrastructure/logger"

	"golang.org/x/crypto/pbkdf2"
)

const (
	keyLength        = 32
	pbkdf2Iterations = 100000
	pbkdf2Salt       = "prompt_manager_salt"
	devKeyMaterial   = "dev_key_for_prompt_manager_encryption_12345678"
)

// KeySource 密钥来源
type KeySource string

const (
	KeySourceEnvBase64   KeySource = "env_base64"
	KeySourceEnvPBKDF2   KeySource = "env_pbkdf2"
	KeySourceDevelopment KeySource = "development"
)

var (
	// ErrDecryption 解密失败，凭证需要重新配置
	ErrDecryption = errors.New("failed to decrypt credential")
	// ErrMissingKey 未配置加密密钥且不允许开发密钥
	ErrMissingKey = errors.New("AI_ENCRYPTION_KEY is not set")
)

// Encryptor 凭证加密器，密钥在首次使用时解析并在进程生命周期内缓存
type Encryptor struct {
	material    string
	allowDevKey bool
	logger      logger.Logger

	once   sync.Once
	key    []byte
	source KeySource
	err    error
}

// NewEncryptor 创建凭证加密器
func NewEncryptor(cfg config.EncryptionConfig, log logger.Logger) *Encryptor {
	return &Encryptor{
		material:    cfg.Key,
		allowDevKey: cfg.AllowDevKey,
		logger:      log,
	}
}

// getKey 获取（并缓存）AES-256密钥
func (e *Encryptor) getKey() ([]byte, error) {
	e.once.Do(func() {
		e.key, e.source, e.err = resolveKey(e.material, e.allowDevKey)
		if e.err != nil {
			return
		}
		fields := map[string]interface{}{"source": string(e.source)}
		if e.source == KeySourceDevelopment {
			e.logger.WithFields(fields).Warn("AI_ENCRYPTION_KEY not set, using development encryption key")
		} else {
			e.logger.WithFields(fields).Debug("Credential encryption key resolved")
		}
	})
	return e.key, e.err
}

// Source 返回密钥来源，触发密钥解析
func (e *Encryptor) Source() (KeySource, error) {
	if _, err := e.getKey(); err != nil {
		return "", err
	}
	return e.source, nil
}

// resolveKey 按 base64 → PBKDF2 → 开发密钥 的顺序解析密钥
func resolveKey(material string, allowDevKey bool) ([]byte, KeySource, error) {
	if material != "" {
		if key, ok := decodeRawKey(material); ok {
			return key, KeySourceEnvBase64, nil
		}
		return deriveKey(material), KeySourceEnvPBKDF2, nil
	}

	if !allowDevKey {
		return nil, "", ErrMissingKey
	}
	return []byte(devKeyMaterial[:keyLength]), KeySourceDevelopment, nil
}

// decodeRawKey 尝试将配置值作为base64编码的32字节密钥解码
func decodeRawKey(material string) ([]byte, bool) {
	encodings := []*base64.Encoding{
		base64.URLEncoding,
		base64.StdEncoding,
		base64.RawURLEncoding,
		base64.RawStdEncoding,
	}
	for _, enc := range encodings {
		key, err := enc.DecodeString(material)
		if err == nil && len(key) == keyLength {
			return key, true
		}
	}
	return nil, false
}

// deriveKey 使用PBKDF2-SHA256从口令派生密钥
func deriveKey(passphrase string) []byte {
	return pbkdf2.Key([]byte(passphrase), []byte(pbkdf2Salt), pbkdf2Iterations, keyLength, sha256.New)
}

// Encrypt 加密明文，输出URL安全的base64
func (e *Encryptor) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	key, err := e.getKey()
	if err != nil {
		return "", err
	}

	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

// Decrypt 解密密文，任何失败都返回 ErrDecryption
func (e *Encryptor) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}

	key, err := e.getKey()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryption, err)
	}

	data, err := base64.URLEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: invalid encoding", ErrDecryption)
	}

	gcm, err := newGCM(key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryption, err)
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize+gcm.Overhead() {
		return "", fmt.Errorf("%w: ciphertext too short", ErrDecryption)
	}

	plaintext, err := gcm.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("%w: authentication failed", ErrDecryption)
	}

	return string(plaintext), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create gcm: %w", err)
	}
	return gcm, nil
}

// GenerateKey 生成随机的base64编码密钥，用于配置 AI_ENCRYPTION_KEY
func GenerateKey() (string, error) {
	key := make([]byte, keyLength)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return base64.URLEncoding.EncodeToString(key), nil
}
