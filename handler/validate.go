package handler

import (
	"context"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/mangohow/gorest/errors"
	"github.com/mangohow/gorest/invocation"
)

// Validate checks the request body and query object arguments against
// their `validate` struct tags before the call goes out. A failure is an
// errors.InvalidArgument wrapping validator.ValidationErrors.
func Validate() invocation.Handler {
	validate := validator.New()

	return invocation.HandlerFunc(func(ctx context.Context, inv *invocation.Invocation) (any, error) {
		md := inv.Metadata()
		for _, idx := range []func() (int, bool){md.RequestBodyIndex, md.QueryObjectIndex} {
			pos, ok := idx()
			if !ok || !isStruct(inv.Argument(pos)) {
				continue
			}
			if err := validate.StructCtx(ctx, inv.Argument(pos)); err != nil {
				return nil, errors.InvalidArgument(inv.Method(), pos, err)
			}
		}
		return inv.Proceed(ctx)
	})
}

func isStruct(v any) bool {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	return rv.Kind() == reflect.Struct
}
