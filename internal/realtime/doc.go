// Package realtime 實作即時會話層：
// 連線管理、房間註冊表、訊息路由與辯論、直播兩種場次的狀態機。
//
// 併發模型採每房間單一工作迴圈：所有會改動房間狀態的操作都包成
// 指令送進房間的 inbox，由工作迴圈依序處理，場次狀態因此不需要
// 細粒度鎖。房間對外的遞送一律非阻塞，慢速消費者會被斷開而不是
// 拖住整個房間。
package realtime
