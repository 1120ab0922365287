package validations

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	domainBlog "github.com/inkwell-cms/inkwell/domains/blog"
	pkgError "github.com/inkwell-cms/inkwell/pkg/error"
)

func ValidateCreateBlogPost(ctx context.Context, request domainBlog.CreateBlogPostRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Title, validation.Required, validation.Length(1, 500)),
		validation.Field(&request.Status, validation.In("", "draft", "review", "approved", "published", "archived")),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

func ValidateGenerateBlogPost(ctx context.Context, request domainBlog.GenerateBlogPostRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Topic, validation.Required),
		validation.Field(&request.Length, validation.In("", "short", "medium", "long")),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}
