package builders

import (
	"errors"
	"time"
)

const Collection = "builders"

// Resume templates.
const (
	TemplateClassic = "classic"
	TemplateModern  = "modern"
	TemplateCompact = "compact"
)

var Templates = []string{TemplateClassic, TemplateModern, TemplateCompact}

var (
	ErrInvalidTemplate = errors.New("invalid template")
	ErrInvalidResume   = errors.New("invalid resume")
	ErrNothingToUpdate = errors.New("nothing to update")
	ErrAuditNotFound   = errors.New("audit not found")
)

// Builder is an AI-generated resume variant tied to an audit.
type Builder struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"ownerId"`
	OwnerKind       string    `json:"ownerKind"`
	AuditID         string    `json:"auditId"`
	TargetRole      string    `json:"targetRole"`
	ExperienceLevel string    `json:"experienceLevel,omitempty"`
	JobDescription  string    `json:"jobDescription,omitempty"`
	Template        string    `json:"template"`
	Resume          Resume    `json:"resume"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Resume is the structured resume rendered by the print templates.
type Resume struct {
	Basics     Basics       `json:"basics"`
	Experience []Experience `json:"experience"`
	Education  []Education  `json:"education"`
	Skills     []string     `json:"skills"`
	Projects   []Project    `json:"projects"`
}

type Basics struct {
	Name     string   `json:"name"`
	Title    string   `json:"title"`
	Email    string   `json:"email"`
	Phone    string   `json:"phone"`
	Location string   `json:"location"`
	Summary  string   `json:"summary"`
	Links    []string `json:"links"`
}

type Experience struct {
	Company   string   `json:"company"`
	Role      string   `json:"role"`
	Location  string   `json:"location"`
	StartDate string   `json:"startDate"`
	EndDate   string   `json:"endDate"`
	Bullets   []string `json:"bullets"`
}

type Education struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	Field       string `json:"field"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
}

type Project struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Link        string   `json:"link"`
	Highlights  []string `json:"highlights"`
}

// Summary is the list view of a builder.
type Summary struct {
	ID         string    `json:"id"`
	AuditID    string    `json:"auditId"`
	TargetRole string    `json:"targetRole"`
	Template   string    `json:"template"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ValidTemplate reports whether t is a known template.
func ValidTemplate(t string) bool {
	for _, known := range Templates {
		if t == known {
			return true
		}
	}
	return false
}
