// Package api 處理 HTTP 請求路由和處理。
//
// 這個包包含了所有的 HTTP 處理器（handlers）。
// 它負責將 HTTP 請求轉換為適當的服務調用，並將結果轉換回 HTTP 響應；
// WebSocket 升級端點也在這裡，升級後的連線交給 realtime 套件接管。
package api
