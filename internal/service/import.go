package service

import (
	"strings"
)

// ImportLine 是批次匯入的一行：名稱與願望描述
type ImportLine struct {
	Name string `json:"name"`
	Desc string `json:"desc"`
}

// 匯入時略過某一行的原因
const (
	SkipReasonMissingFields = "missing name or desc"
	SkipReasonDuplicateName = "duplicate name"
)

// SkippedLine 記錄匯入時被略過的一行
type SkippedLine struct {
	Line   int    `json:"line"` // 從 0 起算的索引
	Name   string `json:"name,omitempty"`
	Reason string `json:"reason"`
}

// ParseImportLine 解析 "名稱 - 描述" 格式。
// 只在第一個 " - " 切開，描述中可以再出現分隔符號。
func ParseImportLine(raw string) (ImportLine, bool) {
	name, desc, ok := strings.Cut(strings.TrimSpace(raw), " - ")
	if !ok {
		return ImportLine{}, false
	}
	return ImportLine{Name: strings.TrimSpace(name), Desc: strings.TrimSpace(desc)}, true
}

func normalize(s string) string {
	return strings.TrimSpace(s)
}

func nameKey(name string) string {
	return strings.ToLower(normalize(name))
}

// CanonicalCode 將房間代碼正規化為大寫
func CanonicalCode(code string) string {
	return strings.ToUpper(normalize(code))
}
