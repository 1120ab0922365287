package validations

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	domainSocial "github.com/inkwell-cms/inkwell/domains/social"
	pkgError "github.com/inkwell-cms/inkwell/pkg/error"
)

func ValidateCreateSocialPost(ctx context.Context, request domainSocial.CreateSocialPostRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Platform, validation.Required,
			validation.In("twitter", "facebook", "instagram", "linkedin")),
		validation.Field(&request.Content, validation.Required),
		validation.Field(&request.Status, validation.In("", "draft", "scheduled", "published", "failed")),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

func ValidateGenerateSocialPost(ctx context.Context, request domainSocial.GenerateSocialPostRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Platform, validation.Required,
			validation.In("twitter", "facebook", "instagram", "linkedin")),
		validation.Field(&request.Topic, validation.Required),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}
