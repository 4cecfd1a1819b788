package db

import (
	"time"
)

// Gender and sexual preference enums stored on Profile.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"

	PrefHeterosexual = "heterosexual"
	PrefHomosexual   = "homosexual"
	PrefBisexual     = "bisexual"
)

// Notification types emitted by the interaction and chat paths.
const (
	NotifLike        = "like"
	NotifProfileView = "profile_view"
	NotifMatch       = "match"
	NotifMessage     = "message"
	NotifUnmatch     = "unmatch"
)

// User table
type User struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"uniqueIndex;size:64;not null"`
	Email        string `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Verified     bool   `gorm:"default:false"`
	Online       bool   `gorm:"default:false"`
	LastLoginAt  time.Time
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// Profile holds the dating-facing data for one user.
//
// Invariants:
//   - FameRating stays within [0,100].
//   - ViewsCount/LikesCount/MatchesCount never go below 0; decrements
//     are floored at the storage layer.
//   - Latitude/Longitude are either both set or both nil.
type Profile struct {
	UserID           uint64 `gorm:"primaryKey"`
	Gender           string `gorm:"size:16"`
	SexualPreference string `gorm:"size:16;default:bisexual"`
	Bio              string `gorm:"type:text"`
	BirthDate        *time.Time
	Latitude         *float64
	Longitude        *float64
	LastLocation     string    `gorm:"size:128"`
	FameRating       float64   `gorm:"not null;default:0"`
	ViewsCount       int64     `gorm:"not null;default:0"`
	LikesCount       int64     `gorm:"not null;default:0"`
	MatchesCount     int64     `gorm:"not null;default:0"`
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

// Tag is a normalized interest tag of the form #word.
type Tag struct {
	ID   uint64 `gorm:"primaryKey;autoIncrement"`
	Name string `gorm:"uniqueIndex;size:64;not null"`
}

// UserTag is the user <-> tag junction. Composite PK keeps the pair unique.
type UserTag struct {
	UserID uint64 `gorm:"primaryKey"`
	TagID  uint64 `gorm:"primaryKey"`
}

// Photo belongs to one user. At most 5 live rows per user; among a
// user's photos at most one carries IsProfile=true.
type Photo struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	UserID    uint64 `gorm:"index;not null"`
	Path      string `gorm:"size:255;not null"`
	IsProfile bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
}

// Like is a directed edge liker -> liked.
//
// Composite PK: (LikerID, LikedID) — the storage layer rejects a
// duplicate like, which the engine surfaces as a conflict.
type Like struct {
	LikerID   uint64 `gorm:"primaryKey"`
	LikedID   uint64 `gorm:"primaryKey;index:idx_likes_liked"`
	CreatedAt time.Time
}

// Match is the undirected mutual-like relationship, stored with
// canonical ordering: User1ID = min(pair), User2ID = max(pair). The
// unique pair index prevents duplicate rows for the same couple.
type Match struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	User1ID   uint64 `gorm:"index:idx_match_pair,unique;not null"`
	User2ID   uint64 `gorm:"index:idx_match_pair,unique;not null"`
	CreatedAt time.Time
}

// BlockedUser is a directed block edge. Existence hides both users
// from each other's candidate pools.
type BlockedUser struct {
	BlockerID uint64 `gorm:"primaryKey"`
	BlockedID uint64 `gorm:"primaryKey;index:idx_blocked_blocked"`
	CreatedAt time.Time
}

// Report records a fake-account report. One report per ordered pair.
type Report struct {
	ReporterID uint64 `gorm:"primaryKey"`
	ReportedID uint64 `gorm:"primaryKey"`
	Reason     string `gorm:"size:255"`
	CreatedAt  time.Time
}

// Notification is append-only; only the read flag is ever mutated,
// and rows are deleted only by explicit user action.
type Notification struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement"`
	RecipientID uint64 `gorm:"index:idx_notif_recipient_created;not null"`
	Type        string `gorm:"size:16;not null"`
	ActorID     uint64 `gorm:"not null"`
	EntityID    *uint64
	Read        bool      `gorm:"not null;default:false"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index:idx_notif_recipient_created,sort:desc"`
}

// Message is one chat message between two matched users.
type Message struct {
	ID          string `gorm:"primaryKey;type:varchar(36)"`
	SenderID    uint64 `gorm:"index;not null"`
	RecipientID uint64 `gorm:"index;not null"`
	Body        string `gorm:"type:text;not null"`
	Read        bool   `gorm:"not null;default:false"`
	CreatedAt   time.Time
}
