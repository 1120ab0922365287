package domain

import (
	pkgError "github.com/inkwell-cms/inkwell/pkg/error"
)

// TargetKind discriminates what a schedule publishes.
type TargetKind string

const (
	TargetBlog   TargetKind = "blog"
	TargetSocial TargetKind = "social"
)

// Target identifies the single publishable a schedule points at. The
// kind+ref pair replaces the two mutually exclusive foreign keys the
// storage layer keeps, so an item can never reference both posts at once.
type Target struct {
	Kind  TargetKind `json:"kind"`
	RefID string     `json:"ref_id"`
}

func BlogTarget(id string) Target {
	return Target{Kind: TargetBlog, RefID: id}
}

func SocialTarget(id string) Target {
	return Target{Kind: TargetSocial, RefID: id}
}

// NewTarget builds a Target from the two optional reference fields the
// external API exposes. Exactly one must be set.
func NewTarget(blogPostID, socialPostID string) (Target, error) {
	switch {
	case blogPostID != "" && socialPostID != "":
		return Target{}, pkgError.ValidationError("cannot schedule both a blog post and a social post with the same schedule")
	case blogPostID != "":
		return BlogTarget(blogPostID), nil
	case socialPostID != "":
		return SocialTarget(socialPostID), nil
	default:
		return Target{}, pkgError.ValidationError("either blog_post_id or social_post_id must be provided")
	}
}

func (t Target) Validate() error {
	if t.RefID == "" {
		return pkgError.ValidationError("either blog_post_id or social_post_id must be provided")
	}
	if t.Kind != TargetBlog && t.Kind != TargetSocial {
		return pkgError.ValidationError("unknown schedule target kind: " + string(t.Kind))
	}
	return nil
}
