// Package content is the typed facade over the site's content resources:
// blog posts, case studies, categories, tags, and comments. It shapes
// requests and responses only; validation stays with the backend.
package content

import "time"

// Paginated is the backend's page-number pagination envelope.
type Paginated[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

type Category struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
}

type Tag struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Author struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

type Comment struct {
	ID            int       `json:"id"`
	Content       string    `json:"content"`
	Author        *Author   `json:"author,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	IsApproved    bool      `json:"is_approved"`
	ParentComment *int      `json:"parent_comment,omitempty"`
	Replies       []Comment `json:"replies,omitempty"`
}

type BlogPost struct {
	ID              int        `json:"id"`
	Title           string     `json:"title"`
	Slug            string     `json:"slug"`
	Content         string     `json:"content"`
	Excerpt         string     `json:"excerpt"`
	CoverImage      string     `json:"cover_image,omitempty"`
	Author          *Author    `json:"author,omitempty"`
	Categories      []Category `json:"categories,omitempty"`
	Tags            []Tag      `json:"tags,omitempty"`
	ReadTime        int        `json:"read_time"`
	Views           int        `json:"views"`
	Featured        bool       `json:"featured"`
	AllowComments   bool       `json:"allow_comments"`
	MetaTitle       string     `json:"meta_title,omitempty"`
	MetaDescription string     `json:"meta_description,omitempty"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	PublishedAt     *time.Time `json:"published_at,omitempty"`
	Comments        []Comment  `json:"comments,omitempty"`
	CommentCount    int        `json:"comment_count"`
}

type CaseStudy struct {
	ID              int            `json:"id"`
	Title           string         `json:"title"`
	Slug            string         `json:"slug"`
	Content         string         `json:"content"`
	Excerpt         string         `json:"excerpt"`
	CoverImage      string         `json:"cover_image,omitempty"`
	Client          *ClientProfile `json:"client,omitempty"`
	Industry        *Category      `json:"industry,omitempty"`
	Categories      []Category     `json:"categories,omitempty"`
	Tags            []Tag          `json:"tags,omitempty"`
	KeyResults      map[string]any `json:"key_results,omitempty"`
	Technologies    []string       `json:"technologies,omitempty"`
	Testimonial     string         `json:"testimonial,omitempty"`
	ReadTime        int            `json:"read_time"`
	Views           int            `json:"views"`
	Featured        bool           `json:"featured"`
	MetaTitle       string         `json:"meta_title,omitempty"`
	MetaDescription string         `json:"meta_description,omitempty"`
	Status          string         `json:"status"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	PublishedAt     *time.Time     `json:"published_at,omitempty"`
	Comments        []Comment      `json:"comments,omitempty"`
	CommentCount    int            `json:"comment_count"`
}

// ClientProfile is the customer a case study was written about.
type ClientProfile struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Logo string `json:"logo,omitempty"`
}

// ListParams filters a blog post listing.
type ListParams struct {
	Category string
	Tag      string
	Page     int
	PageSize int
}

// CaseStudyParams filters a case study listing.
type CaseStudyParams struct {
	Industry string
	Page     int
	PageSize int
}

// CommentParams selects the comments of exactly one resource.
type CommentParams struct {
	BlogPost  string
	CaseStudy string
	Page      int
}

// NewComment is the payload for posting a comment. Exactly one of BlogPost
// and CaseStudy must be set; the backend enforces it.
type NewComment struct {
	Content       string `json:"content"`
	BlogPost      *int   `json:"blog_post,omitempty"`
	CaseStudy     *int   `json:"case_study,omitempty"`
	ParentComment *int   `json:"parent_comment,omitempty"`
}
