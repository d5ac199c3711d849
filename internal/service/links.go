package service

import (
	"net/url"
)

// Links 產生給前端的管理員與參與者連結
type Links struct {
	baseURL string
}

func NewLinks(baseURL string) *Links {
	return &Links{baseURL: baseURL}
}

// Admin 回傳管理頁面連結
func (l *Links) Admin(code, adminKey string) string {
	return l.baseURL + "/admin.html?room=" + url.QueryEscape(code) + "&admin=" + url.QueryEscape(adminKey)
}

// Participant 回傳參與者查看自己抽籤結果的連結
func (l *Links) Participant(code, participantKey string) string {
	return l.baseURL + "/me.html?room=" + url.QueryEscape(code) + "&key=" + url.QueryEscape(participantKey)
}
