package builders

import (
	"resumemind-api/internal/llm"
)

// NormalizeResume reads a resume object from model output. Arrays default to
// empty and entries without their key field are dropped.
func NormalizeResume(raw []byte) Resume {
	r := Resume{
		Basics: Basics{
			Name:     llm.String(raw, "basics.name", ""),
			Title:    llm.String(raw, "basics.title", ""),
			Email:    llm.String(raw, "basics.email", ""),
			Phone:    llm.String(raw, "basics.phone", ""),
			Location: llm.String(raw, "basics.location", ""),
			Summary:  llm.String(raw, "basics.summary", ""),
			Links:    llm.Strings(raw, "basics.links"),
		},
		Experience: []Experience{},
		Education:  []Education{},
		Skills:     llm.Strings(raw, "skills"),
		Projects:   []Project{},
	}
	llm.Each(raw, "experience", func(item []byte) {
		e := Experience{
			Company:   llm.String(item, "company", ""),
			Role:      llm.String(item, "role", ""),
			Location:  llm.String(item, "location", ""),
			StartDate: llm.String(item, "startDate", ""),
			EndDate:   llm.String(item, "endDate", ""),
			Bullets:   llm.Strings(item, "bullets"),
		}
		if e.Company != "" || e.Role != "" {
			r.Experience = append(r.Experience, e)
		}
	})
	llm.Each(raw, "education", func(item []byte) {
		e := Education{
			Institution: llm.String(item, "institution", ""),
			Degree:      llm.String(item, "degree", ""),
			Field:       llm.String(item, "field", ""),
			StartDate:   llm.String(item, "startDate", ""),
			EndDate:     llm.String(item, "endDate", ""),
		}
		if e.Institution != "" {
			r.Education = append(r.Education, e)
		}
	})
	llm.Each(raw, "projects", func(item []byte) {
		p := Project{
			Name:        llm.String(item, "name", ""),
			Description: llm.String(item, "description", ""),
			Link:        llm.String(item, "link", ""),
			Highlights:  llm.Strings(item, "highlights"),
		}
		if p.Name != "" {
			r.Projects = append(r.Projects, p)
		}
	})
	return r
}
