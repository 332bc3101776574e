package views

import (
	"context"
	"strings"

	"inkwell/assist"
	"inkwell/common"
	"inkwell/models"
	"inkwell/posts"
)

// ValidateDraft checks a new post before it is written.
func ValidateDraft(in posts.PostInput) error {
	switch {
	case strings.TrimSpace(in.Title) == "":
		return common.Invalid("title", "please fill in all required fields: title")
	case strings.TrimSpace(in.Subtitle) == "":
		return common.Invalid("subTitle", "please fill in all required fields: subtitle")
	case strings.TrimSpace(in.ImageURL) == "":
		return common.Invalid("imageURL", "please fill in all required fields: image URL")
	case in.Category == "":
		return common.Invalid("category", "please fill in all required fields: category")
	case !in.Category.Valid():
		return common.Invalid("category", "unknown category %q", in.Category)
	case assist.IsEmptyBody(in.Body):
		return common.Invalid("description", "please add blog content")
	}
	return nil
}

// Editor backs the admin create form.
type Editor struct {
	posts     *posts.Service
	generator assist.Generator
}

func NewEditor(p *posts.Service, g assist.Generator) *Editor {
	return &Editor{posts: p, generator: g}
}

// Create validates the draft and stores it for owner.
func (e *Editor) Create(ctx context.Context, in posts.PostInput, owner *models.Identity) (*models.Post, error) {
	if !owner.Authenticated() {
		return nil, common.ErrUnauthenticated
	}
	if err := ValidateDraft(in); err != nil {
		return nil, err
	}
	return e.posts.Create(ctx, in, *owner)
}

// Assist drafts a body from the title and subtitle.
func (e *Editor) Assist(ctx context.Context, title, subtitle string) (string, error) {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(subtitle) == "" {
		return "", common.Invalid("title", "please add a blog title and subtitle to generate content")
	}
	if e.generator == nil {
		return "", assist.ErrNotConfigured
	}
	return e.generator.Generate(ctx, title, subtitle)
}

// Dashboard aggregates the owner's posts.
func Dashboard(ctx context.Context, svc *posts.Service, owner *models.Identity) (posts.Stats, error) {
	if !owner.Authenticated() {
		return posts.Stats{}, common.ErrUnauthenticated
	}
	return svc.Stats(ctx, owner.ID)
}
