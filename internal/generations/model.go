package generations

import (
	"errors"
	"time"

	"resumemind-api/internal/builders"
)

var (
	ErrSourceRequired = errors.New("auditId or resumeText is required")
	ErrBuilderMissing = errors.New("builder not found")
	ErrAuditMissing   = errors.New("audit not found")
)

// Generation is one stored derivative document.
type Generation struct {
	ID        string         `json:"id"`
	OwnerID   string         `json:"ownerId"`
	OwnerKind string         `json:"ownerKind"`
	Kind      string         `json:"kind"`
	BuilderID string         `json:"builderId,omitempty"`
	AuditID   string         `json:"auditId,omitempty"`
	Input     map[string]any `json:"input"`
	Content   any            `json:"content"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Input carries the request fields of every kind. Unused fields stay empty.
type Input struct {
	CompanyName     string
	JobDescription  string
	Tone            string
	Topic           string
	Count           int
	Language        string
	Goal            string
	AuditID         string
	ResumeText      string
	Role            string
	Location        string
	YearsExperience float64
}

type CoverLetter struct {
	Subject    string   `json:"subject"`
	Greeting   string   `json:"greeting"`
	Paragraphs []string `json:"paragraphs"`
	Closing    string   `json:"closing"`
}

type InterviewQuestion struct {
	Question     string `json:"question"`
	Category     string `json:"category"`
	WhyAsked     string `json:"whyAsked"`
	AnswerTips   string `json:"answerTips"`
	SampleAnswer string `json:"sampleAnswer"`
}

type InterviewGuide struct {
	Questions []InterviewQuestion `json:"questions"`
	Tips      []string            `json:"tips"`
}

type CheatSheet struct {
	ElevatorPitch     string   `json:"elevatorPitch"`
	KeyAchievements   []string `json:"keyAchievements"`
	SkillsToHighlight []string `json:"skillsToHighlight"`
	TalkingPoints     []string `json:"talkingPoints"`
	QuestionsToAsk    []string `json:"questionsToAsk"`
}

type LinkedInPost struct {
	Hook     string   `json:"hook"`
	Body     string   `json:"body"`
	Hashtags []string `json:"hashtags"`
}

type LinkedInPostSet struct {
	Posts []LinkedInPost `json:"posts"`
}

type Translation struct {
	Language string          `json:"language"`
	Resume   builders.Resume `json:"resume"`
}

type CareerStep struct {
	Title     string   `json:"title"`
	Timeframe string   `json:"timeframe"`
	Skills    []string `json:"skills"`
	Actions   []string `json:"actions"`
}

type CareerPath struct {
	CurrentLevel string       `json:"currentLevel"`
	Goal         string       `json:"goal"`
	Summary      string       `json:"summary"`
	Steps        []CareerStep `json:"steps"`
}

type SalaryEstimate struct {
	Currency string   `json:"currency"`
	Min      float64  `json:"min"`
	Median   float64  `json:"median"`
	Max      float64  `json:"max"`
	Factors  []string `json:"factors"`
	Notes    string   `json:"notes"`
}
