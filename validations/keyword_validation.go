package validations

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	domainKeyword "github.com/inkwell-cms/inkwell/domains/keyword"
	pkgError "github.com/inkwell-cms/inkwell/pkg/error"
)

func ValidateCreateKeyword(ctx context.Context, request domainKeyword.CreateKeywordRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Text, validation.Required, validation.Length(1, 200)),
		validation.Field(&request.Status, validation.In("", "active", "paused", "archived")),
		validation.Field(&request.SearchVolume, validation.Min(0)),
		validation.Field(&request.Difficulty, validation.Min(0.0), validation.Max(100.0)),
		validation.Field(&request.CPC, validation.Min(0.0)),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

func ValidateBatchStatus(ctx context.Context, request domainKeyword.BatchStatusRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.IDs, validation.Required),
		validation.Field(&request.Status, validation.Required,
			validation.In("active", "paused", "archived")),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}
