package resource

import (
	"context"

	"RestyAPI/internal/apierr"
)

// ReadOnly rejects every mutating operation. Embed it in resources that
// only list and get.
type ReadOnly struct{}

func (ReadOnly) ReplaceAll(context.Context, Args) (Result, error) {
	return Result{}, apierr.NotAllowed()
}

func (ReadOnly) Create(context.Context, Args) (Result, error) {
	return Result{}, apierr.NotAllowed()
}

func (ReadOnly) DeleteAll(context.Context, Args) (Result, error) {
	return Result{}, apierr.NotAllowed()
}

func (ReadOnly) CreateOrReplace(context.Context, Args) (Result, error) {
	return Result{}, apierr.NotAllowed()
}

func (ReadOnly) Update(context.Context, Args) (Result, error) {
	return Result{}, apierr.NotAllowed()
}

func (ReadOnly) Delete(context.Context, Args) (Result, error) {
	return Result{}, apierr.NotAllowed()
}
