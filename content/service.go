package content

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/victoai/go-site-client/cache"
	"github.com/victoai/go-site-client/client"
)

// Cache key prefixes. Mutations invalidate by prefix, so related reads
// refetch on their next call.
const (
	blogPostsPrefix   = "blog-posts"
	caseStudiesPrefix = "case-studies"
	categoriesPrefix  = "categories"
	tagsPrefix        = "tags"
	commentsPrefix    = "comments"
)

// defaultTTL keeps listings fresh enough for a render pass without hitting
// the backend on every identical call.
const defaultTTL = 60 * time.Second

// Service exposes the content resources. Reads go through the cache;
// a miss costs one round trip and nothing more.
type Service struct {
	client *client.Client
	cache  cache.Cache
	ttl    time.Duration
}

// NewService creates the content facade. A nil c cache disables memoization.
func NewService(apiClient *client.Client, c cache.Cache) *Service {
	if c == nil {
		c = cache.NewNoopCache()
	}
	return &Service{client: apiClient, cache: c, ttl: defaultTTL}
}

// cachedList fetches a paginated listing through the cache.
func cachedList[T any](ctx context.Context, s *Service, key string, req client.Request) (Paginated[T], error) {
	value, err := s.cache.GetOrFetch(ctx, key, s.ttl, func(ctx context.Context) (any, error) {
		return client.DoJSON[Paginated[T]](ctx, s.client, req)
	})
	if err != nil {
		return Paginated[T]{}, err
	}
	return value.(Paginated[T]), nil
}

func cachedOne[T any](ctx context.Context, s *Service, key string, req client.Request) (T, error) {
	value, err := s.cache.GetOrFetch(ctx, key, s.ttl, func(ctx context.Context) (any, error) {
		return client.DoJSON[T](ctx, s.client, req)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return value.(T), nil
}

func (p ListParams) values() url.Values {
	q := url.Values{}
	if p.Category != "" {
		q.Set("category", p.Category)
	}
	if p.Tag != "" {
		q.Set("tag", p.Tag)
	}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(p.PageSize))
	}
	return q
}

// BlogPosts lists published blog posts, optionally filtered by category,
// tag, and page.
func (s *Service) BlogPosts(ctx context.Context, params ListParams) (Paginated[BlogPost], error) {
	q := params.values()
	return cachedList[BlogPost](ctx, s, cache.Key(blogPostsPrefix, q.Encode()), client.Request{
		Method: http.MethodGet,
		Path:   "blog-posts/",
		Query:  q,
	})
}

// BlogPost fetches one post by slug.
func (s *Service) BlogPost(ctx context.Context, slug string) (BlogPost, error) {
	return cachedOne[BlogPost](ctx, s, cache.Key(blogPostsPrefix+":"+slug, nil), client.Request{
		Method: http.MethodGet,
		Path:   "blog-posts/" + slug + "/",
	})
}

// IncrementBlogPostViews bumps a post's view counter. Fire-and-forget for
// the caller, but a transport failure still reaches onError when provided
// rather than being dropped.
func (s *Service) IncrementBlogPostViews(ctx context.Context, slug string, onError func(error)) {
	// Detached from the caller's cancellation: the page render finishing
	// must not abort the counter bump.
	ctx = context.WithoutCancel(ctx)
	go func() {
		_, err := s.client.Do(ctx, client.Request{
			Method: http.MethodPost,
			Path:   "blog-posts/" + slug + "/increment_views/",
			Silent: true,
		})
		if err != nil && onError != nil {
			onError(err)
		}
	}()
}

func (p CaseStudyParams) values() url.Values {
	q := url.Values{}
	if p.Industry != "" {
		q.Set("industry", p.Industry)
	}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(p.PageSize))
	}
	return q
}

// CaseStudies lists published case studies.
func (s *Service) CaseStudies(ctx context.Context, params CaseStudyParams) (Paginated[CaseStudy], error) {
	q := params.values()
	return cachedList[CaseStudy](ctx, s, cache.Key(caseStudiesPrefix, q.Encode()), client.Request{
		Method: http.MethodGet,
		Path:   "case-studies/",
		Query:  q,
	})
}

// CaseStudy fetches one case study by slug.
func (s *Service) CaseStudy(ctx context.Context, slug string) (CaseStudy, error) {
	return cachedOne[CaseStudy](ctx, s, cache.Key(caseStudiesPrefix+":"+slug, nil), client.Request{
		Method: http.MethodGet,
		Path:   "case-studies/" + slug + "/",
	})
}

// IncrementCaseStudyViews bumps a case study's view counter, same contract
// as IncrementBlogPostViews.
func (s *Service) IncrementCaseStudyViews(ctx context.Context, slug string, onError func(error)) {
	ctx = context.WithoutCancel(ctx)
	go func() {
		_, err := s.client.Do(ctx, client.Request{
			Method: http.MethodPost,
			Path:   "case-studies/" + slug + "/increment_views/",
			Silent: true,
		})
		if err != nil && onError != nil {
			onError(err)
		}
	}()
}

// Categories lists all categories.
func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	return cachedOne[[]Category](ctx, s, cache.Key(categoriesPrefix, nil), client.Request{
		Method: http.MethodGet,
		Path:   "categories/",
	})
}

// Tags lists all tags.
func (s *Service) Tags(ctx context.Context) ([]Tag, error) {
	return cachedOne[[]Tag](ctx, s, cache.Key(tagsPrefix, nil), client.Request{
		Method: http.MethodGet,
		Path:   "tags/",
	})
}

// Comments lists the approved comments of one blog post or case study.
func (s *Service) Comments(ctx context.Context, params CommentParams) (Paginated[Comment], error) {
	q := url.Values{}
	if params.BlogPost != "" {
		q.Set("blog_post", params.BlogPost)
	}
	if params.CaseStudy != "" {
		q.Set("case_study", params.CaseStudy)
	}
	if params.Page > 0 {
		q.Set("page", strconv.Itoa(params.Page))
	}
	return cachedList[Comment](ctx, s, cache.Key(commentsPrefix, q.Encode()), client.Request{
		Method: http.MethodGet,
		Path:   "comments/",
		Query:  q,
	})
}

// CreateComment posts a comment and invalidates the cached comment lists so
// the next read refetches.
func (s *Service) CreateComment(ctx context.Context, comment NewComment) (Comment, error) {
	created, err := client.DoJSON[Comment](ctx, s.client, client.Request{
		Method: http.MethodPost,
		Path:   "comments/",
		Body:   comment,
	})
	if err != nil {
		return Comment{}, err
	}
	s.cache.Invalidate(commentsPrefix)
	return created, nil
}

// UpdateComment replaces a comment's text. Only the author may edit; the
// backend enforces it.
func (s *Service) UpdateComment(ctx context.Context, id int, text string) (Comment, error) {
	updated, err := client.DoJSON[Comment](ctx, s.client, client.Request{
		Method: http.MethodPatch,
		Path:   "comments/" + strconv.Itoa(id) + "/",
		Body:   map[string]string{"content": text},
	})
	if err != nil {
		return Comment{}, err
	}
	s.cache.Invalidate(commentsPrefix)
	return updated, nil
}

// DeleteComment removes a comment.
func (s *Service) DeleteComment(ctx context.Context, id int) error {
	_, err := s.client.Do(ctx, client.Request{
		Method: http.MethodDelete,
		Path:   "comments/" + strconv.Itoa(id) + "/",
	})
	if err != nil {
		return err
	}
	s.cache.Invalidate(commentsPrefix)
	return nil
}
