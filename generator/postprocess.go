package generator

import (
	"bytes"
	"html"
	"regexp"
	"strings"

	"autoblog/apperr"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var (
	metaPattern    = regexp.MustCompile(`(?s)<!--\s*Meta Description:\s*(.*?)\s*-->`)
	mdTitlePattern = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	h1Pattern      = regexp.MustCompile(`(?is)<h1[^>]*>(.*?)</h1>`)
	tagPattern     = regexp.MustCompile(`<[^>]*>`)
)

// 允许原始 HTML（模型有时直接输出 <h1> 或链接）。
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
)

// Transformer rewrites Markdown before it is rendered.
type Transformer interface {
	Humanize(text string) string
}

// PostProcess turns raw model output into a Draft: the meta comment is pulled
// out, the Markdown is humanized and then rendered to HTML.
func PostProcess(raw, subject string, t Transformer) (Draft, error) {
	md := strings.TrimSpace(raw)
	if md == "" {
		return Draft{}, apperr.EmptyOutput(llmService, "model returned empty markdown")
	}

	meta := extractMeta(md)
	md = strings.TrimSpace(metaPattern.ReplaceAllString(md, ""))
	if t != nil {
		md = t.Humanize(md)
	}

	body, err := RenderHTML(md)
	if err != nil {
		return Draft{}, err
	}
	title := extractTitle(body, md)
	if title == "" {
		title = subject
	}
	plain := PlainText(body)
	return Draft{
		Title:           title,
		MetaDescription: meta,
		Markdown:        md,
		HTML:            body,
		PlainText:       plain,
		WordCount:       len(strings.Fields(plain)),
	}, nil
}

// RenderHTML converts Markdown to HTML, keeping raw HTML blocks.
func RenderHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// PlainText strips tags, unescapes entities and collapses whitespace.
func PlainText(htmlBody string) string {
	text := tagPattern.ReplaceAllString(htmlBody, " ")
	text = html.UnescapeString(text)
	return strings.Join(strings.Fields(text), " ")
}

func extractMeta(md string) string {
	m := metaPattern.FindStringSubmatch(md)
	if len(m) < 2 {
		return ""
	}
	return strings.Join(strings.Fields(m[1]), " ")
}

// 标题优先取渲染后的 <h1>，否则回退到 Markdown 一级标题。
func extractTitle(htmlBody, md string) string {
	if m := h1Pattern.FindStringSubmatch(htmlBody); len(m) >= 2 {
		if t := PlainText(m[1]); t != "" {
			return t
		}
	}
	if m := mdTitlePattern.FindStringSubmatch(md); len(m) >= 2 {
		return strings.TrimSpace(m[1])
	}
	return ""
}
