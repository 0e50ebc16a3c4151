package binding

import (
	"fmt"
	"net/url"

	"github.com/gorilla/schema"
	"github.com/mangohow/gorest/errors"
)

// SchemaBinding flattens query objects with gorilla/schema's encoder, so
// the same struct tags used to decode form data on a server can build the
// query on the client. Optional fields need ",omitempty" to be left out
// when nil.
type SchemaBinding struct {
	Tag string
}

func (s SchemaBinding) Name() string {
	return "schema"
}

func (s SchemaBinding) Extract(obj any) (values url.Values, err error) {
	values = url.Values{}
	if isNil(obj) {
		return values, nil
	}
	if enc, ok := obj.(QueryEncoder); ok {
		return encodeQuery(enc)
	}

	defer func() {
		if r := recover(); r != nil {
			err = errors.Introspection(fmt.Sprintf("%T", obj), fmt.Errorf("%v", r))
		}
	}()

	encoder := schema.NewEncoder()
	if s.Tag != "" {
		encoder.SetAliasTag(s.Tag)
	}
	if err := encoder.Encode(obj, values); err != nil {
		return nil, errors.Introspection(fmt.Sprintf("%T", obj), err)
	}

	return values, nil
}
