package generator

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"autoblog/keywords"
	"autoblog/profile"
	"autoblog/research"
)

// Prompt 表示发送给 LLM 的一次请求。
type Prompt struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

const (
	maxPromptKeywords  = 15
	maxPromptCitations = 10
	maxAbstractChars   = 600
)

// BuildPrompt 根据站点 profile、关键词、文献和尝试次数生成提示词。
func BuildPrompt(req Request, attempt int, temperatureStep float64) Prompt {
	p := req.Profile
	return Prompt{
		System:      buildSystem(p, req.Subject, req.RelatedPosts, attempt),
		User:        buildUser(req),
		Temperature: AttemptTemperature(p.Content.Temperature, temperatureStep, attempt),
		MaxTokens:   p.Content.MaxTokens,
	}
}

// AttemptTemperature raises base by step for every attempt after the first,
// capped at 2.
func AttemptTemperature(base, step float64, attempt int) float64 {
	if attempt < 1 {
		attempt = 1
	}
	t := base + step*float64(attempt-1)
	if t > 2 {
		t = 2
	}
	return t
}

func buildSystem(p profile.Profile, subject string, related []RelatedPost, attempt int) string {
	var sb strings.Builder
	persona := p.Persona
	fmt.Fprintf(&sb, "You are %s. You write for %s (%s).\n", persona.Who, p.Name, p.URL)
	if persona.Audience != "" {
		fmt.Fprintf(&sb, "Audience: %s.\n", persona.Audience)
	}
	if persona.Tone != "" {
		fmt.Fprintf(&sb, "Voice: %s. Write about %s like you're telling a friend.\n", persona.Tone, subject)
	}
	if persona.Backstory != "" {
		sb.WriteString("\nPERSONA (NEVER CONTRADICT):\n")
		sb.WriteString(strings.TrimSpace(persona.Backstory))
		sb.WriteString("\n")
	}
	if story := p.Anecdote(subject); story != "" {
		fmt.Fprintf(&sb, "\nYour own story with %s: %s\n", subject, strings.TrimSpace(story))
	}
	writeList(&sb, "Phrases you use naturally", persona.Phrases)
	writeList(&sb, "Disclaimers (include them)", persona.Disclaimers)
	writeList(&sb, "Never say", persona.NeverSay)

	if len(p.TitleFormulas) > 0 {
		formulas := make([]string, len(p.TitleFormulas))
		for i, f := range p.TitleFormulas {
			formulas[i] = strings.ReplaceAll(f, "{topic}", subject)
		}
		writeList(&sb, "Title ideas", formulas)
	}
	writeList(&sb, "Structure", p.Structure)

	sb.WriteString("\n")
	sb.WriteString(internalLinks(p, related))

	if v := strings.TrimSpace(p.Variation(attempt)); v != "" {
		fmt.Fprintf(&sb, "\nTHIS TIME: %s\n", v)
	}

	sb.WriteString("\nOUTPUT: Markdown only, no commentary. Start with:\n")
	sb.WriteString("<!-- Meta Description: [155-160 chars] -->\n# [Title]\n")
	if p.Content.WordMin > 0 && p.Content.WordMax > 0 {
		fmt.Fprintf(&sb, "TARGET: %d-%d words, short paragraphs, bold key points.\n", p.Content.WordMin, p.Content.WordMax)
	}
	return sb.String()
}

func internalLinks(p profile.Profile, related []RelatedPost) string {
	var sb strings.Builder
	sb.WriteString("INTERNAL LINKS (work 2-3 in naturally):\n")
	base := strings.TrimRight(p.URL, "/")
	for _, l := range p.InternalLinks {
		fmt.Fprintf(&sb, "- [%s](%s%s)\n", l.Label, base, l.Path)
	}
	if len(related) == 0 {
		sb.WriteString("- No related posts yet; these are among the first posts on the site, so skip cross-links to other articles.\n")
		return sb.String()
	}
	for _, r := range related {
		fmt.Fprintf(&sb, "- [%s](%s)\n", r.Subject, r.URL)
	}
	return sb.String()
}

func writeList(sb *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n%s:\n", heading)
	for _, it := range items {
		fmt.Fprintf(sb, "- %s\n", it)
	}
}

type promptCitation struct {
	ID       string   `json:"pmid"`
	Title    string   `json:"title"`
	Authors  []string `json:"authors"`
	Venue    string   `json:"journal"`
	Year     string   `json:"year"`
	Abstract string   `json:"abstract"`
}

type promptData struct {
	Subject   string                  `json:"subject"`
	Keywords  []keywords.KeywordScore `json:"keyword_data"`
	Citations []promptCitation        `json:"research_papers"`
}

func buildUser(req Request) string {
	data := promptData{Subject: req.Subject, Keywords: req.Keywords}
	if len(data.Keywords) > maxPromptKeywords {
		data.Keywords = data.Keywords[:maxPromptKeywords]
	}
	data.Citations = citationsForPrompt(req.Citations)
	blob, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		blob = []byte(req.Subject)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Write about %s. Include a named protocol, 3-5 specific metrics and 2-3 internal links.", req.Subject)
	if len(req.Keywords) > 0 {
		fmt.Fprintf(&sb, " Target the keyword %q.", req.Keywords[0].Keyword)
	}
	sb.WriteString(" Reference this research:\n\n")
	sb.Write(blob)
	sb.WriteString("\n\nWrite like you're talking to a friend. Natural, conversational, human.")
	return sb.String()
}

func citationsForPrompt(in []research.Citation) []promptCitation {
	if len(in) > maxPromptCitations {
		in = in[:maxPromptCitations]
	}
	out := make([]promptCitation, 0, len(in))
	for _, c := range in {
		abstract := truncate(c.Abstract, maxAbstractChars)
		out = append(out, promptCitation{
			ID:       c.ID,
			Title:    c.Title,
			Authors:  c.Authors,
			Venue:    c.Venue,
			Year:     c.Year,
			Abstract: abstract,
		})
	}
	return out
}

// truncate cuts s to at most n bytes on a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return strings.TrimSpace(s[:n]) + "..."
}
