package audits

import (
	"errors"
	"time"
)

const Collection = "audits"

const (
	MinResumeChars = 200
	MaxResumeChars = 30000
)

var (
	ErrResumeTooShort = errors.New("resume text too short")
	ErrResumeTooLong  = errors.New("resume text too long")
)

// Audit is a scored resume review.
type Audit struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"ownerId"`
	OwnerKind  string    `json:"ownerKind"`
	TargetRole string    `json:"targetRole,omitempty"`
	Source     string    `json:"source"`
	FileName   string    `json:"fileName,omitempty"`
	FileKey    string    `json:"fileKey,omitempty"`
	ResumeText string    `json:"resumeText"`
	Result     Result    `json:"result"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Result is the normalized ResumeMind Score and feedback.
type Result struct {
	Score         int            `json:"score"`
	Summary       string         `json:"summary"`
	Strengths     []string       `json:"strengths"`
	Improvements  []string       `json:"improvements"`
	SectionScores map[string]int `json:"sectionScores"`
	Keywords      []string       `json:"keywords"`
}

// Summary is the list view of an audit.
type Summary struct {
	ID         string    `json:"id"`
	TargetRole string    `json:"targetRole,omitempty"`
	FileName   string    `json:"fileName,omitempty"`
	Score      int       `json:"score"`
	CreatedAt  time.Time `json:"createdAt"`
}

const (
	SourceText   = "text"
	SourceUpload = "upload"
)

// Sections scored in every audit.
var Sections = []string{"summary", "experience", "skills", "education", "formatting"}
