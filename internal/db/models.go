package db

import (
	"time"

	"gorm.io/datatypes"
)

type Game struct {
	ID          uint      `gorm:"primaryKey"`
	GameID      string    `gorm:"size:64;uniqueIndex;not null"`
	CaseName    string    `gorm:"size:128;not null"`
	CaseFile    string    `gorm:"size:256"`
	Phase       string    `gorm:"size:32;not null"`
	MaxPlayers  int       `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
	CompletedAt *time.Time
	Players     []Player
	Events      []Event
}

type Player struct {
	ID          uint      `gorm:"primaryKey"`
	GameID      uint      `gorm:"index;not null;uniqueIndex:idx_players_game_player"`
	PlayerID    string    `gorm:"size:64;not null;uniqueIndex:idx_players_game_player"`
	Name        string    `gorm:"size:64;not null"`
	Tolerance   int       `gorm:"not null"`
	ThresholdDB float64   `gorm:"not null"`
	FinalDB     float64
	JoinedAt    time.Time `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
	Responses   []Response
}

type Response struct {
	ID            uint      `gorm:"primaryKey"`
	GameID        uint      `gorm:"index;not null"`
	PlayerID      uint      `gorm:"index;not null;uniqueIndex:idx_responses_player_evidence"`
	EvidenceIndex int       `gorm:"not null;uniqueIndex:idx_responses_player_evidence"`
	EvidenceName  string    `gorm:"size:128;not null"`
	ProbGuilty    float64   `gorm:"not null"`
	ProbInnocent  float64   `gorm:"not null"`
	DeltaDB       float64   `gorm:"not null"`
	UsedRating    bool      `gorm:"not null;default:false"`
	CreatedAt     time.Time `gorm:"not null"`
}

type Event struct {
	ID        uint           `gorm:"primaryKey"`
	GameID    uint           `gorm:"index;not null"`
	PlayerID  *uint          `gorm:"index"`
	Type      string         `gorm:"size:64;not null"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"not null"`
}

type Verdict struct {
	ID        uint           `gorm:"primaryKey"`
	GameID    uint           `gorm:"index;not null;uniqueIndex:idx_verdicts_game"`
	Verdict   string         `gorm:"size:16;not null"`
	Report    datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"not null"`
}
