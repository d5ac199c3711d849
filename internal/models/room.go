package models

import (
	"time"
)

// Room 表示一個交換禮物房間
type Room struct {
	Code         string        `gorm:"primaryKey;size:64" json:"code"`
	AdminKeyHash string        `gorm:"not null" json:"-"` // 管理員金鑰的 bcrypt 雜湊，明文只在建立時回傳一次
	Status       RoomStatus    `gorm:"size:10;not null;default:'OPEN'" json:"status"`
	CreatedAt    time.Time     `json:"createdAt"`
	Participants []Participant `gorm:"foreignKey:RoomCode;references:Code" json:"-"`
	Assignments  []Assignment  `gorm:"foreignKey:RoomCode;references:Code" json:"-"`
}

// RoomStatus 定義房間狀態的類型
type RoomStatus string

const (
	RoomStatusOpen  RoomStatus = "OPEN"  // 可新增參與者
	RoomStatusDrawn RoomStatus = "DRAWN" // 已抽籤，不可再變動
)

// IsOpen 回報房間是否仍可加入參與者
func (r *Room) IsOpen() bool {
	return r.Status == RoomStatusOpen
}
