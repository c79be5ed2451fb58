package research

import (
	"html"
	"strings"
)

type articleSet struct {
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	Citation struct {
		PMID          string    `xml:"PMID"`
		DateCompleted *yearOnly `xml:"DateCompleted"`
		DateCreated   *yearOnly `xml:"DateCreated"`
		Article       struct {
			Title    innerText `xml:"ArticleTitle"`
			Abstract struct {
				Texts []innerText `xml:"AbstractText"`
			} `xml:"Abstract"`
			Authors []struct {
				ForeName string `xml:"ForeName"`
				LastName string `xml:"LastName"`
			} `xml:"AuthorList>Author"`
			Journal struct {
				Title   string `xml:"Title"`
				PubYear string `xml:"JournalIssue>PubDate>Year"`
			} `xml:"Journal"`
		} `xml:"Article"`
	} `xml:"MedlineCitation"`
}

type yearOnly struct {
	Year string `xml:"Year"`
}

// innerText keeps character data of elements with inline markup (<i>, <sup>).
type innerText struct {
	Inner string `xml:",innerxml"`
}

func (t innerText) String() string {
	return strings.Join(strings.Fields(html.UnescapeString(stripTags(t.Inner))), " ")
}

func stripTags(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '<':
			depth++
		case r == '>' && depth > 0:
			depth--
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

const maxAuthors = 3

func (a pubmedArticle) citation() Citation {
	mc := a.Citation
	pmid := strings.TrimSpace(mc.PMID)
	if pmid == "" {
		pmid = "Unknown"
	}

	title := mc.Article.Title.String()
	if title == "" {
		title = "No title"
	}

	var parts []string
	for _, t := range mc.Article.Abstract.Texts {
		if s := t.String(); s != "" {
			parts = append(parts, s)
		}
	}
	abstract := strings.Join(parts, " ")
	if abstract == "" {
		abstract = "No abstract"
	}

	var authors []string
	for _, au := range mc.Article.Authors {
		if len(authors) == maxAuthors {
			break
		}
		if name := strings.TrimSpace(strings.TrimSpace(au.ForeName) + " " + strings.TrimSpace(au.LastName)); name != "" {
			authors = append(authors, name)
		}
	}
	if len(authors) == 0 {
		authors = []string{"Unknown"}
	}

	journal := strings.TrimSpace(mc.Article.Journal.Title)
	if journal == "" {
		journal = "Unknown journal"
	}

	year := "Unknown"
	switch {
	case mc.DateCompleted != nil && mc.DateCompleted.Year != "":
		year = mc.DateCompleted.Year
	case mc.DateCreated != nil && mc.DateCreated.Year != "":
		year = mc.DateCreated.Year
	case mc.Article.Journal.PubYear != "":
		year = mc.Article.Journal.PubYear
	}

	return Citation{
		ID:       pmid,
		Title:    title,
		Abstract: abstract,
		Authors:  authors,
		Venue:    journal,
		Year:     strings.TrimSpace(year),
		URL:      "https://pubmed.ncbi.nlm.nih.gov/" + pmid + "/",
	}
}
