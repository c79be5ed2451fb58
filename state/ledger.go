package state

import (
	"context"
	"net/url"
	"path"
	"strings"
	"time"
)

// Post is one published article in the ledger.
type Post struct {
	Subject     string    `json:"subject"`
	URL         string    `json:"url"`
	PostID      int64     `json:"postId"`
	PublishedAt time.Time `json:"publishedAt"`
	Slug        string    `json:"slug,omitempty"`
}

// Posts returns the ledger in publication order.
func (s *Store) Posts() ([]Post, error) {
	s.postsMu.Lock()
	defer s.postsMu.Unlock()
	posts := []Post{}
	if err := readJSON(s.path(postsFile), &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// AppendPost adds a published article to the ledger.
func (s *Store) AppendPost(ctx context.Context, subject, postURL string, postID int64) (Post, error) {
	s.postsMu.Lock()
	defer s.postsMu.Unlock()
	post := Post{
		Subject:     subject,
		URL:         postURL,
		PostID:      postID,
		PublishedAt: s.now().UTC(),
		Slug:        slugFromURL(postURL),
	}
	err := s.update(ctx, postsFile, func(p string) error {
		posts := []Post{}
		if err := readJSON(p, &posts); err != nil {
			return err
		}
		posts = append(posts, post)
		return writeJSON(p, posts)
	})
	if err != nil {
		return Post{}, err
	}
	return post, nil
}

// Related returns up to limit ledger entries whose subject is in subjects,
// in ledger order.
func (s *Store) Related(subjects []string, limit int) ([]Post, error) {
	if len(subjects) == 0 || limit <= 0 {
		return nil, nil
	}
	posts, err := s.Posts()
	if err != nil {
		return nil, err
	}
	want := make(map[string]struct{}, len(subjects))
	for _, sub := range subjects {
		want[strings.ToLower(sub)] = struct{}{}
	}
	var out []Post
	for _, p := range posts {
		if _, ok := want[strings.ToLower(p.Subject)]; !ok {
			continue
		}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func slugFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return path.Base(strings.TrimRight(u.Path, "/"))
}
