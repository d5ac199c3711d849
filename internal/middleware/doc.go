// Package middleware 提供了 HTTP 請求處理的中間件。
//
// 房間相關路由的身份驗證全部集中在 AdminAuth 與 ParticipantAuth，
// 它們把 bearer 金鑰交給 service.AuthService 判斷，並把錯誤轉成 JSON 回應。
package middleware
