package models

import (
	"time"
)

// Assignment 表示抽籤結果中的一條邊：送禮者 -> 收禮者
type Assignment struct {
	RoomCode   string    `gorm:"size:64;not null;index"`
	GiverID    string    `gorm:"primaryKey;size:32"`
	ReceiverID string    `gorm:"size:32;not null;uniqueIndex"`
	CreatedAt  time.Time
}
