package usecase

import (
	"context"
	"errors"

	domainBlog "github.com/inkwell-cms/inkwell/domains/blog"
	domainSocial "github.com/inkwell-cms/inkwell/domains/social"
	pkgError "github.com/inkwell-cms/inkwell/pkg/error"
	scheduleDomain "github.com/inkwell-cms/inkwell/schedule/domain"
)

// publishResolver maps schedule targets onto the content services so
// the runner can publish without knowing about blogs or social posts.
type publishResolver struct {
	blog   domainBlog.IBlogUsecase
	social domainSocial.ISocialUsecase
}

func NewPublishResolver(blog domainBlog.IBlogUsecase, social domainSocial.ISocialUsecase) scheduleDomain.Resolver {
	return &publishResolver{blog: blog, social: social}
}

func (r *publishResolver) Resolve(ctx context.Context, target scheduleDomain.Target) (scheduleDomain.Publishable, error) {
	switch target.Kind {
	case scheduleDomain.TargetBlog:
		if _, err := r.blog.Get(ctx, target.RefID); err != nil {
			return nil, mapResolveError(err)
		}
		return publishFunc(func(ctx context.Context) error {
			_, err := r.blog.Publish(ctx, target.RefID)
			return mapResolveError(err)
		}), nil
	case scheduleDomain.TargetSocial:
		if _, err := r.social.Get(ctx, target.RefID); err != nil {
			return nil, mapResolveError(err)
		}
		return publishFunc(func(ctx context.Context) error {
			_, err := r.social.Publish(ctx, target.RefID)
			return mapResolveError(err)
		}), nil
	default:
		return nil, scheduleDomain.ErrTargetNotFound
	}
}

type publishFunc func(ctx context.Context) error

func (f publishFunc) Publish(ctx context.Context) error {
	return f(ctx)
}

// mapResolveError translates a service 404 into the sentinel the
// schedule domain treats as a permanently missing target.
func mapResolveError(err error) error {
	if err == nil {
		return nil
	}
	var notFound pkgError.NotFoundError
	if errors.As(err, &notFound) {
		return scheduleDomain.ErrTargetNotFound
	}
	return err
}
