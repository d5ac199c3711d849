package models

import (
	"time"
)

// Participant 表示房間中的一位參與者
type Participant struct {
	ID             string    `gorm:"primaryKey;size:32" json:"id"`
	RoomCode       string    `gorm:"size:64;not null;index;uniqueIndex:idx_participants_room_name" json:"-"`
	Name           string    `gorm:"not null" json:"name"`
	NameKey        string    `gorm:"not null;uniqueIndex:idx_participants_room_name" json:"-"` // 小寫名稱，讓同房間內名稱不分大小寫唯一
	Desc           string    `gorm:"not null" json:"desc"`                                     // 願望清單提示
	ParticipantKey string    `gorm:"size:64;not null;uniqueIndex" json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
}
