package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PlateReadingStatus string

const (
	PlateReadingStatusMatched      PlateReadingStatus = "MATCHED"
	PlateReadingStatusUnregistered PlateReadingStatus = "UNREGISTERED"
	PlateReadingStatusNoMatch      PlateReadingStatus = "NO_MATCH"
)

func (s PlateReadingStatus) Valid() bool {
	switch s {
	case PlateReadingStatusMatched, PlateReadingStatusUnregistered, PlateReadingStatusNoMatch:
		return true
	}
	return false
}

// PlateReading records one multi-source extraction and its outcome.
type PlateReading struct {
	ID              uuid.UUID               `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	CreatedByUserID uuid.UUID               `gorm:"type:uuid;not null;index" json:"created_by_user_id"`
	Status          PlateReadingStatus      `gorm:"type:plate_reading_status;not null" json:"status"`
	BestPlate       *string                 `gorm:"type:varchar(32)" json:"best_plate"`
	NormalizedPlate *string                 `gorm:"type:varchar(32);index" json:"normalized_plate"`
	BestScore       *float64                `json:"best_score"`
	PatternLabel    *string                 `gorm:"type:varchar(50)" json:"pattern_label"`
	SourceLabel     *string                 `gorm:"type:varchar(100)" json:"source_label"`
	VehicleID       *uuid.UUID              `gorm:"type:uuid" json:"vehicle_id"`
	Vehicle         *Vehicle                `gorm:"-" json:"vehicle,omitempty"`
	SourceCount     int                     `gorm:"not null;default:0" json:"source_count"`
	CandidateCount  int                     `gorm:"not null;default:0" json:"candidate_count"`
	Candidates      []PlateReadingCandidate `gorm:"foreignKey:ReadingID" json:"candidates,omitempty"`
	CreatedAt       time.Time               `gorm:"autoCreateTime" json:"created_at"`
}

func (PlateReading) TableName() string {
	return "plate_readings"
}

func (r *PlateReading) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// PlateReadingCandidate is one ranked entry of a reading, rank 1 being the
// best candidate.
type PlateReadingCandidate struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	ReadingID        uuid.UUID `gorm:"type:uuid;not null;index" json:"reading_id"`
	Rank             int       `gorm:"not null" json:"rank"`
	Text             string    `gorm:"type:varchar(32);not null" json:"text"`
	PatternLabel     string    `gorm:"type:varchar(50);not null" json:"pattern_label"`
	Confidence       int       `gorm:"not null" json:"confidence"`
	Position         int       `gorm:"not null" json:"position"`
	Variant          string    `gorm:"type:varchar(20);not null" json:"variant"`
	SourceLabel      string    `gorm:"type:varchar(100);not null" json:"source_label"`
	SourceConfidence float64   `gorm:"not null" json:"source_confidence"`
	FinalScore       float64   `gorm:"not null" json:"final_score"`
}

func (PlateReadingCandidate) TableName() string {
	return "plate_reading_candidates"
}

func (c *PlateReadingCandidate) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
