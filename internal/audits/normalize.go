package audits

import (
	"resumemind-api/internal/llm"
)

const defaultSummary = "Your resume was reviewed. See the suggested improvements below."

// NormalizeResult reads model output and fills defaults for missing fields.
func NormalizeResult(raw []byte) Result {
	res := Result{
		Score:         llm.Score(raw, "score"),
		Summary:       llm.String(raw, "summary", defaultSummary),
		Strengths:     llm.Strings(raw, "strengths"),
		Improvements:  llm.Strings(raw, "improvements"),
		SectionScores: make(map[string]int, len(Sections)),
		Keywords:      llm.Strings(raw, "keywords"),
	}
	for _, s := range Sections {
		res.SectionScores[s] = llm.Score(raw, "sectionScores."+s)
	}
	return res
}
