package secrets

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// 密钥派生用途标识：同一主密钥按用途派生互不相关的子密钥，
// 避免不同类别的标识哈希之间可以互相比对。
const (
	PurposeBSSID  = "presence/bssid"
	PurposeNFCUID = "binding/nfc-uid"
)

// GenerateToken 生成 n 字节加密随机令牌，返回十六进制原文。
// 原文只在签发时返回一次，落库一律存 HashHex 结果。
func GenerateToken(n int) (string, error) {
	if n <= 0 {
		n = 32
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// HashHex 计算 SHA-256 摘要的十六进制表示
func HashHex(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// DeriveKey 从主密钥按用途派生 32 字节子密钥（HKDF-SHA256）
func DeriveKey(masterKey, purpose string) ([]byte, error) {
	if masterKey == "" {
		return nil, fmt.Errorf("derive key: empty master key")
	}
	r := hkdf.New(sha256.New, []byte(masterKey), nil, []byte(purpose))
	key := make([]byte, 32)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return key, nil
}

// HMACHex 以派生子密钥计算标识值的 HMAC-SHA256，十六进制表示。
// 用于 BSSID、NFC UID 等不可逆存储的设备标识。
func HMACHex(key []byte, value string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(value))
	return hex.EncodeToString(mac.Sum(nil))
}

// ConstantTimeEqual 常数时间比较两个十六进制摘要
func ConstantTimeEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
