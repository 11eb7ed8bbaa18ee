package ledger

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrDuplicateVoter is returned when the CPF already has a ledger row.
var ErrDuplicateVoter = errors.New("cpf already recorded in voter log")

// VoterLog records that a CPF voted and where its photo evidence lives.
// It never references the chosen candidate.
type VoterLog struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	CPF       string    `json:"cpf" gorm:"size:14;uniqueIndex;not null"`
	PhotoPath string    `json:"photo_path" gorm:"size:200;not null"`
	Timestamp time.Time `json:"timestamp" gorm:"not null"`
}

// TableName overrides the table name
func (VoterLog) TableName() string {
	return "voter_logs"
}

// BeforeCreate will set a UUID rather than numeric ID.
func (v *VoterLog) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

func NewVoterLog(cpf, photoPath string, at time.Time) *VoterLog {
	return &VoterLog{
		ID:        uuid.New(),
		CPF:       cpf,
		PhotoPath: photoPath,
		Timestamp: at.UTC(),
	}
}
