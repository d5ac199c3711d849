// Package api 處理 HTTP 請求路由和處理。
//
// 路由分成三類：公開的建立房間與健康檢查、需要管理員金鑰的房間管理，
// 以及需要參與者金鑰的個人抽籤結果。handlers 只負責把 JSON 轉成服務調用，
// 錯誤一律交給 middleware.RespondError 轉成狀態碼。
package api
