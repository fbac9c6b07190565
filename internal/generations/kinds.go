package generations

import "resumemind-api/internal/entitlements"

// Kind describes one derivative document type.
type Kind struct {
	// Feature is the entitlement and prompt name.
	Feature    string
	Collection string
	// Path is the URL segment, e.g. "cover-letters".
	Path         string
	BuilderKeyed bool
	normalize    func(raw []byte, in Input) any
}

var (
	CoverLetters = Kind{
		Feature:      entitlements.FeatureCoverLetter,
		Collection:   "coverLetters",
		Path:         "cover-letters",
		BuilderKeyed: true,
		normalize:    normalizeCoverLetter,
	}
	InterviewGuides = Kind{
		Feature:      entitlements.FeatureInterviewGuide,
		Collection:   "interviewGuides",
		Path:         "interview-guides",
		BuilderKeyed: true,
		normalize:    normalizeInterviewGuide,
	}
	CheatSheets = Kind{
		Feature:      entitlements.FeatureCheatSheet,
		Collection:   "cheatSheets",
		Path:         "cheat-sheets",
		BuilderKeyed: true,
		normalize:    normalizeCheatSheet,
	}
	LinkedInPosts = Kind{
		Feature:      entitlements.FeatureLinkedInPosts,
		Collection:   "linkedinPosts",
		Path:         "linkedin-posts",
		BuilderKeyed: true,
		normalize:    normalizeLinkedInPosts,
	}
	Translations = Kind{
		Feature:      entitlements.FeatureTranslation,
		Collection:   "translations",
		Path:         "translations",
		BuilderKeyed: true,
		normalize:    normalizeTranslation,
	}
	CareerPaths = Kind{
		Feature:    entitlements.FeatureCareerPath,
		Collection: "careerPaths",
		Path:       "career-paths",
		normalize:  normalizeCareerPath,
	}
	SalaryEstimates = Kind{
		Feature:    entitlements.FeatureSalaryAnalyzer,
		Collection: "salaryEstimates",
		Path:       "salary-estimates",
		normalize:  normalizeSalaryEstimate,
	}
)

// Kinds lists every derivative document type.
var Kinds = []Kind{CoverLetters, InterviewGuides, CheatSheets, LinkedInPosts, Translations, CareerPaths, SalaryEstimates}

// Collections returns the collection names of all kinds.
func Collections() []string {
	out := make([]string, 0, len(Kinds))
	for _, k := range Kinds {
		out = append(out, k.Collection)
	}
	return out
}
