package services

// CredentialCipher 凭证加解密接口
type CredentialCipher interface {
	// Encrypt 加密明文，空字符串返回空字符串
	Encrypt(plaintext string) (string, error)

	// Decrypt 解密密文，空字符串返回空字符串，失败返回解密错误
	Decrypt(ciphertext string) (string, error)
}
