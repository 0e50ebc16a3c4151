// Package metadata describes the static shape of one declarative REST call.
//
// A MethodMetadata is built once when a method is registered and is shared,
// read-only, by every invocation of that method.
package metadata

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/mangohow/gorest/errors"
)

type BindingKind int

const (
	PathVariableBinding BindingKind = iota + 1
	QueryParamBinding
	QueryObjectBinding
	RequestBodyBinding
)

func (k BindingKind) String() string {
	switch k {
	case PathVariableBinding:
		return "PathVariable"
	case QueryParamBinding:
		return "QueryParam"
	case QueryObjectBinding:
		return "QueryObject"
	case RequestBodyBinding:
		return "RequestBody"
	default:
		return fmt.Sprintf("BindingKind(%d)", int(k))
	}
}

// ParameterBinding ties an argument position to the part of the request it fills.
type ParameterBinding struct {
	Position int
	Kind     BindingKind
	Name     string
}

func (b ParameterBinding) String() string {
	if b.Name == "" {
		return fmt.Sprintf("%s@%d", b.Kind, b.Position)
	}
	return fmt.Sprintf("%s(%s)@%d", b.Kind, b.Name, b.Position)
}

type MethodMetadata struct {
	httpMethod  string
	template    *Template
	bindings    []ParameterBinding
	pathVars    map[int]string
	queryParams map[int]string
	queryObject int
	requestBody int
	headers     http.Header
	returns     ReturnType
}

type Option func(md *MethodMetadata)

func PathVariable(position int, name string) Option {
	return bind(ParameterBinding{Position: position, Kind: PathVariableBinding, Name: name})
}

func QueryParam(position int, name string) Option {
	return bind(ParameterBinding{Position: position, Kind: QueryParamBinding, Name: name})
}

func QueryObject(position int) Option {
	return bind(ParameterBinding{Position: position, Kind: QueryObjectBinding})
}

func RequestBody(position int) Option {
	return bind(ParameterBinding{Position: position, Kind: RequestBodyBinding})
}

func Bindings(bs ...ParameterBinding) Option {
	return func(md *MethodMetadata) {
		md.bindings = append(md.bindings, bs...)
	}
}

func bind(b ParameterBinding) Option {
	return func(md *MethodMetadata) {
		md.bindings = append(md.bindings, b)
	}
}

// Header adds static header values sent with every call of the method.
func Header(name string, values ...string) Option {
	return func(md *MethodMetadata) {
		for _, v := range values {
			md.headers.Add(name, v)
		}
	}
}

func Returning(rt ReturnType) Option {
	return func(md *MethodMetadata) {
		md.returns = rt
	}
}

// New validates and freezes a method description. Every rejected
// declaration is an errors.Binding error naming the offending binding.
func New(httpMethod, urlTemplate string, opts ...Option) (*MethodMetadata, error) {
	md := &MethodMetadata{
		httpMethod:  strings.ToUpper(httpMethod),
		pathVars:    map[int]string{},
		queryParams: map[int]string{},
		queryObject: -1,
		requestBody: -1,
		headers:     http.Header{},
	}
	for _, opt := range opts {
		opt(md)
	}

	if md.httpMethod == "" {
		return nil, errors.Binding("", "metadata: empty http method")
	}

	tpl, err := CompileTemplate(urlTemplate)
	if err != nil {
		return nil, errors.Binding("", "metadata: %v", err)
	}
	md.template = tpl

	seen := make(map[int]ParameterBinding, len(md.bindings))
	for _, b := range md.bindings {
		if b.Position < 0 {
			return nil, errors.Binding("", "metadata: %s: negative position", b)
		}
		if prev, ok := seen[b.Position]; ok {
			return nil, errors.Binding("", "metadata: %s: position already bound by %s", b, prev)
		}
		seen[b.Position] = b

		switch b.Kind {
		case PathVariableBinding:
			if b.Name == "" {
				return nil, errors.Binding("", "metadata: %s: empty name", b)
			}
			md.pathVars[b.Position] = b.Name
		case QueryParamBinding:
			if b.Name == "" {
				return nil, errors.Binding("", "metadata: %s: empty name", b)
			}
			md.queryParams[b.Position] = b.Name
		case QueryObjectBinding:
			if md.queryObject >= 0 {
				return nil, errors.Binding("", "metadata: %s: query object already bound at %d", b, md.queryObject)
			}
			md.queryObject = b.Position
		case RequestBodyBinding:
			if md.requestBody >= 0 {
				return nil, errors.Binding("", "metadata: %s: request body already bound at %d", b, md.requestBody)
			}
			md.requestBody = b.Position
		default:
			return nil, errors.Binding("", "metadata: %s: unknown binding kind", b)
		}
	}
	sort.Slice(md.bindings, func(i, j int) bool {
		return md.bindings[i].Position < md.bindings[j].Position
	})

	return md, nil
}

// MustNew is like New but panics on an invalid description.
func MustNew(httpMethod, urlTemplate string, opts ...Option) *MethodMetadata {
	md, err := New(httpMethod, urlTemplate, opts...)
	if err != nil {
		panic(err)
	}
	return md
}

func (md *MethodMetadata) HTTPMethod() string { return md.httpMethod }

func (md *MethodMetadata) URLTemplate() string { return md.template.String() }

func (md *MethodMetadata) Template() *Template { return md.template }

// Bindings returns all bindings ordered by position.
func (md *MethodMetadata) Bindings() []ParameterBinding {
	return append([]ParameterBinding(nil), md.bindings...)
}

func (md *MethodMetadata) PathVariables() map[int]string { return copyIndex(md.pathVars) }

func (md *MethodMetadata) QueryParams() map[int]string { return copyIndex(md.queryParams) }

func (md *MethodMetadata) QueryObjectIndex() (int, bool) {
	return md.queryObject, md.queryObject >= 0
}

func (md *MethodMetadata) RequestBodyIndex() (int, bool) {
	return md.requestBody, md.requestBody >= 0
}

// Headers returns a copy of the static headers.
func (md *MethodMetadata) Headers() http.Header { return md.headers.Clone() }

func (md *MethodMetadata) Returns() ReturnType { return md.returns }

// Arity is the smallest argument count that covers every binding.
func (md *MethodMetadata) Arity() int {
	if len(md.bindings) == 0 {
		return 0
	}
	return md.bindings[len(md.bindings)-1].Position + 1
}

func (md *MethodMetadata) String() string {
	return fmt.Sprintf("%s %s", md.httpMethod, md.template)
}

func copyIndex(m map[int]string) map[int]string {
	c := make(map[int]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

