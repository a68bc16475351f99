package models

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// MaxBlogImages is the number of image slots a post has.
const MaxBlogImages = 3

// BlogPost is the canonical post shape.
//
// Two shapes exist in the backend's history: the current one keyed by Mongo
// "_id" plus a "slug", with an HTML "content" body, and a legacy one keyed by
// "id" with a "readTime" string instead of content. BlogPost is the current
// shape; UnmarshalJSON accepts the legacy fields so old records still load,
// but they are never sent back.
type BlogPost struct {
	ID        string   `json:"_id,omitempty"`
	Slug      string   `json:"slug,omitempty"`
	Title     string   `json:"title"`
	Summary   string   `json:"summary"`
	Author    string   `json:"author"`
	Date      string   `json:"date"`
	Category  string   `json:"category"`
	Content   string   `json:"content"`
	Images    []string `json:"images"`
	CreatedAt string   `json:"createdAt,omitempty"`

	// LegacyReadTime carries "readTime" of legacy records. Display only.
	LegacyReadTime string `json:"-"`
}

// Ref returns the identifier used in backend URLs: the slug when known, the
// id otherwise. The backend resolves both on /api/blogs/{ref}.
func (p BlogPost) Ref() string {
	if p.Slug != "" {
		return p.Slug
	}
	return p.ID
}

func (p *BlogPost) UnmarshalJSON(data []byte) error {
	// alias drops the method set, so json.Unmarshal below does not recurse.
	type alias BlogPost
	aux := struct {
		*alias
		LegacyID       string `json:"id"`
		LegacyReadTime string `json:"readTime"`
	}{alias: (*alias)(p)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = aux.LegacyID
	}
	p.LegacyReadTime = aux.LegacyReadTime

	// The backend stores empty slots as null; keep only real images.
	images := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		if img != "" {
			images = append(images, img)
		}
	}
	p.Images = images
	return nil
}

// ImageUpload is one image file attached to a create/update form.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// BlogDraft is the create/edit form of a post.
// Images holds new files only; on update, omitted slots keep their current image.
type BlogDraft struct {
	Title    string
	Summary  string
	Author   string
	Date     string
	Category string
	Content  string
	Images   []ImageUpload
}

// Validate checks the fields the editor marks as required.
func (d *BlogDraft) Validate() error {
	d.Title = strings.TrimSpace(d.Title)
	d.Summary = strings.TrimSpace(d.Summary)
	d.Author = strings.TrimSpace(d.Author)

	if d.Title == "" || d.Summary == "" || d.Author == "" {
		return fmt.Errorf("please fill in all required fields (title, summary, author)")
	}
	if utf8.RuneCountInString(d.Title) > 200 {
		return fmt.Errorf("title must be at most 200 characters")
	}
	if len(d.Images) > MaxBlogImages {
		return fmt.Errorf("a post can have at most %d images", MaxBlogImages)
	}
	return nil
}

// BlogStats is the dashboard summary returned by /api/blogs/dashboard.
type BlogStats struct {
	TotalPosts      int `json:"totalPosts"`
	TotalAuthors    int `json:"totalAuthors"`
	TotalCategories int `json:"totalCategories"`
}
