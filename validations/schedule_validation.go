package validations

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	domainSchedule "github.com/inkwell-cms/inkwell/domains/schedule"
	pkgError "github.com/inkwell-cms/inkwell/pkg/error"
)

func ValidateCreateSchedule(ctx context.Context, request domainSchedule.CreateScheduleRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.ScheduledTime, validation.Required),
		validation.Field(&request.Frequency, validation.In("", "once", "daily", "weekly", "monthly")),
		validation.Field(&request.MaxRetries, validation.Min(0)),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}
