// Package middleware 提供了 HTTP 請求處理的中間件。
//
// 這個包包含了各種中間件函數，用於在 HTTP 請求處理過程中執行額外的操作。
// 目前提供 JWT 身份驗證：一般請求走 Authorization 標頭，
// WebSocket 握手則走 token 查詢參數。
package middleware
