package generations

import (
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"resumemind-api/internal/builders"
	"resumemind-api/internal/llm"
)

const (
	defaultLinkedInPosts = 3
	maxLinkedInPosts     = 5
)

var knownCategories = map[string]bool{"behavioral": true, "technical": true, "role": true}

func normalizeCoverLetter(raw []byte, in Input) any {
	greeting := "Dear Hiring Manager,"
	if in.CompanyName != "" {
		greeting = "Dear " + in.CompanyName + " Hiring Team,"
	}
	return CoverLetter{
		Subject:    llm.String(raw, "subject", "Application"),
		Greeting:   llm.String(raw, "greeting", greeting),
		Paragraphs: llm.Strings(raw, "paragraphs"),
		Closing:    llm.String(raw, "closing", "Sincerely,"),
	}
}

func normalizeInterviewGuide(raw []byte, _ Input) any {
	g := InterviewGuide{Questions: []InterviewQuestion{}, Tips: llm.Strings(raw, "tips")}
	llm.Each(raw, "questions", func(item []byte) {
		q := InterviewQuestion{
			Question:     llm.String(item, "question", ""),
			Category:     strings.ToLower(llm.String(item, "category", "role")),
			WhyAsked:     llm.String(item, "whyAsked", ""),
			AnswerTips:   llm.String(item, "answerTips", ""),
			SampleAnswer: llm.String(item, "sampleAnswer", ""),
		}
		if q.Question == "" {
			return
		}
		if !knownCategories[q.Category] {
			q.Category = "role"
		}
		g.Questions = append(g.Questions, q)
	})
	return g
}

func normalizeCheatSheet(raw []byte, _ Input) any {
	return CheatSheet{
		ElevatorPitch:     llm.String(raw, "elevatorPitch", ""),
		KeyAchievements:   llm.Strings(raw, "keyAchievements"),
		SkillsToHighlight: llm.Strings(raw, "skillsToHighlight"),
		TalkingPoints:     llm.Strings(raw, "talkingPoints"),
		QuestionsToAsk:    llm.Strings(raw, "questionsToAsk"),
	}
}

func normalizeLinkedInPosts(raw []byte, in Input) any {
	limit := postCount(in.Count)
	set := LinkedInPostSet{Posts: []LinkedInPost{}}
	llm.Each(raw, "posts", func(item []byte) {
		if len(set.Posts) >= limit {
			return
		}
		p := LinkedInPost{
			Hook:     llm.String(item, "hook", ""),
			Body:     llm.String(item, "body", ""),
			Hashtags: []string{},
		}
		for _, tag := range llm.Strings(item, "hashtags") {
			tag = strings.ReplaceAll(tag, " ", "")
			if !strings.HasPrefix(tag, "#") {
				tag = "#" + tag
			}
			p.Hashtags = append(p.Hashtags, tag)
		}
		if p.Body != "" {
			set.Posts = append(set.Posts, p)
		}
	})
	return set
}

func normalizeTranslation(raw []byte, in Input) any {
	resume := gjson.GetBytes(raw, "resume")
	return Translation{
		Language: llm.String(raw, "language", in.Language),
		Resume:   builders.NormalizeResume([]byte(resume.Raw)),
	}
}

func normalizeCareerPath(raw []byte, in Input) any {
	cp := CareerPath{
		CurrentLevel: llm.String(raw, "currentLevel", ""),
		Goal:         llm.String(raw, "goal", in.Goal),
		Summary:      llm.String(raw, "summary", ""),
		Steps:        []CareerStep{},
	}
	llm.Each(raw, "steps", func(item []byte) {
		step := CareerStep{
			Title:     llm.String(item, "title", ""),
			Timeframe: llm.String(item, "timeframe", ""),
			Skills:    llm.Strings(item, "skills"),
			Actions:   llm.Strings(item, "actions"),
		}
		if step.Title != "" {
			cp.Steps = append(cp.Steps, step)
		}
	})
	return cp
}

func normalizeSalaryEstimate(raw []byte, _ Input) any {
	vals := []float64{llm.Number(raw, "min"), llm.Number(raw, "median"), llm.Number(raw, "max")}
	if vals[1] == 0 {
		vals[1] = (vals[0] + vals[2]) / 2
	}
	sort.Float64s(vals)
	return SalaryEstimate{
		Currency: strings.ToUpper(llm.String(raw, "currency", "USD")),
		Min:      vals[0],
		Median:   vals[1],
		Max:      vals[2],
		Factors:  llm.Strings(raw, "factors"),
		Notes:    llm.String(raw, "notes", ""),
	}
}

func postCount(n int) int {
	if n <= 0 {
		return defaultLinkedInPosts
	}
	if n > maxLinkedInPosts {
		return maxLinkedInPosts
	}
	return n
}
