package llm

import (
	"embed"
	"fmt"
	"regexp"
	"strings"
)

//go:embed prompts/*.txt
var promptFS embed.FS

var placeholderPattern = regexp.MustCompile(`\{\{[A-Z_]+\}\}`)

// Render fills the feature's prompt template. Vars are keyed by placeholder name
// without braces; placeholders with no value are blanked.
func Render(feature string, vars map[string]string) (Prompt, error) {
	system, err := promptFS.ReadFile("prompts/system.txt")
	if err != nil {
		return Prompt{}, fmt.Errorf("read system prompt: %w", err)
	}
	tmpl, err := promptFS.ReadFile("prompts/" + feature + ".txt")
	if err != nil {
		return Prompt{}, fmt.Errorf("unknown prompt %q: %w", feature, err)
	}

	pairs := make([]string, 0, len(vars)*2)
	for key, val := range vars {
		pairs = append(pairs, "{{"+key+"}}", strings.TrimSpace(val))
	}
	user := strings.NewReplacer(pairs...).Replace(string(tmpl))
	user = placeholderPattern.ReplaceAllString(user, "")

	return Prompt{
		Feature: feature,
		System:  strings.TrimSpace(string(system)),
		User:    strings.TrimSpace(user),
	}, nil
}

func fixJSONPrompt(original Prompt, raw []byte, problems []string) (Prompt, error) {
	p, err := Render(featureFixJSON, map[string]string{
		"FEATURE":  original.Feature,
		"PROBLEMS": strings.Join(problems, "\n"),
		"RAW":      string(raw),
	})
	if err != nil {
		return Prompt{}, err
	}
	p.Feature = original.Feature
	return p, nil
}
