package candidate

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// BlankVoteNumber is the reserved ballot number for the blank vote.
	BlankVoteNumber = 0
	// BlankVoteName is the display name seeded for the blank vote.
	BlankVoteName = "VOTO EM BRANCO"
	// BlankVoteDepartment keeps the blank vote discreet on the admin listing.
	BlankVoteDepartment = "-"

	// MinNumber and MaxNumber bound the two-digit numbers handed to real candidates.
	MinNumber = 10
	MaxNumber = 99
)

var (
	ErrNotFound    = errors.New("candidate not found")
	ErrNumberTaken = errors.New("candidate number already in use")
)

// Candidate is a ballot choice. VotesCount only ever grows.
type Candidate struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Number     int       `json:"number" gorm:"uniqueIndex;not null"`
	Name       string    `json:"name" gorm:"size:100;not null"`
	Department string    `json:"department" gorm:"size:100"`
	VotesCount int64     `json:"votes_count" gorm:"not null;default:0"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName overrides the table name
func (Candidate) TableName() string {
	return "candidates"
}

// BeforeCreate will set a UUID rather than numeric ID.
func (c *Candidate) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func NewCandidate(name, department string, number int) *Candidate {
	return &Candidate{
		ID:         uuid.New(),
		Number:     number,
		Name:       name,
		Department: department,
		VotesCount: 0,
		CreatedAt:  time.Now().UTC(),
	}
}

// NewBlankVote builds the blank-vote pseudo-candidate.
func NewBlankVote() *Candidate {
	return NewCandidate(BlankVoteName, BlankVoteDepartment, BlankVoteNumber)
}

// IsBlankVote reports whether c is the blank-vote entry.
func (c *Candidate) IsBlankVote() bool {
	return c.Number == BlankVoteNumber
}

// ValidRegistrationNumber reports whether n may be assigned to a real candidate.
func ValidRegistrationNumber(n int) bool {
	return n >= MinNumber && n <= MaxNumber
}
