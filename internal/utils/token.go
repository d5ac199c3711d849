package utils

import (
	"crypto/rand"
	"encoding/hex"
)

const (
	IDBytes     = 12 // 參與者 ID
	SecretBytes = 16 // 管理員金鑰與參與者金鑰
	CodeBytes   = 3  // 自動產生的房間代碼
)

// Token 產生 n 個位元組的密碼學安全隨機值並以十六進位字串回傳。
// 熵來源失敗屬於基礎設施錯誤，直接 panic。
func Token(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic("crypto/rand failure: " + err.Error())
	}
	return hex.EncodeToString(buf)
}
