package binding

import (
	"net/http"
	"net/url"
	"reflect"
	"sort"
	"strings"

	"github.com/mangohow/gorest/errors"
	"github.com/mangohow/gorest/metadata"
)

// Request is a fully resolved call, ready for a transport.
type Request struct {
	Method   string
	URL      string
	Header   http.Header
	Body     any
	HasBody  bool
	PathVars map[string]string
	Response ResponseType
}

// ResponseType tells the transport what to decode the body into and
// whether the caller wants the envelope around it.
type ResponseType struct {
	Declared reflect.Type
	Target   reflect.Type
	Envelope bool
}

type buildConfig struct {
	identity string
	query    QueryExtractor
}

type BuildOption func(cfg *buildConfig)

// WithIdentity names the call in binding errors.
func WithIdentity(method string) BuildOption {
	return func(cfg *buildConfig) {
		cfg.identity = method
	}
}

// WithQueryExtractor replaces the default QueryBinding{Tag: "json"}.
func WithQueryExtractor(e QueryExtractor) BuildOption {
	return func(cfg *buildConfig) {
		if e != nil {
			cfg.query = e
		}
	}
}

// Build resolves md against args. endpoint is prefixed to the expanded URL
// template as is.
func Build(endpoint string, md *metadata.MethodMetadata, args []any, dynamic http.Header, opts ...BuildOption) (*Request, error) {
	cfg := buildConfig{query: QueryBinding{Tag: "json"}}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.identity == "" {
		cfg.identity = md.String()
	}

	vars, err := PathVars(cfg.identity, md, args)
	if err != nil {
		return nil, err
	}
	path, err := ExpandURL(cfg.identity, md, vars)
	if err != nil {
		return nil, err
	}

	explicit, err := ExplicitQuery(cfg.identity, md, args)
	if err != nil {
		return nil, err
	}
	derived, err := ObjectQuery(cfg.identity, md, args, cfg.query)
	if err != nil {
		return nil, err
	}

	body, hasBody := SelectBody(md, args)

	return &Request{
		Method:   md.HTTPMethod(),
		URL:      AppendQuery(endpoint+path, MergeQuery(explicit, derived)),
		Header:   MergeHeaders(md.Headers(), dynamic),
		Body:     body,
		HasBody:  hasBody,
		PathVars: vars,
		Response: ResolveResponse(md.Returns()),
	}, nil
}

// PathVars maps every path-variable name to its stringified argument.
func PathVars(method string, md *metadata.MethodMetadata, args []any) (map[string]string, error) {
	bound := md.PathVariables()
	vars := make(map[string]string, len(bound))
	for pos, name := range bound {
		if pos >= len(args) {
			return nil, errors.Binding(method, "path variable %q bound to argument %d, only %d given", name, pos, len(args))
		}
		s, ok, err := stringify(reflect.ValueOf(args[pos]))
		if err != nil {
			return nil, errors.Binding(method, "path variable %q: %v", name, err)
		}
		if !ok {
			return nil, errors.Binding(method, "path variable %q is nil", name)
		}
		vars[name] = s
	}
	return vars, nil
}

// ExpandURL substitutes vars into the template of md.
func ExpandURL(method string, md *metadata.MethodMetadata, vars map[string]string) (string, error) {
	path, err := md.Template().Expand(vars)
	if err != nil {
		return "", errors.Binding(method, "expand %q: %v", md.URLTemplate(), err)
	}
	return path, nil
}

// ExplicitQuery collects query-param bindings. Nil arguments are left out.
func ExplicitQuery(method string, md *metadata.MethodMetadata, args []any) (url.Values, error) {
	values := url.Values{}
	for pos, name := range md.QueryParams() {
		if pos >= len(args) {
			return nil, errors.Binding(method, "query param %q bound to argument %d, only %d given", name, pos, len(args))
		}
		s, ok, err := stringify(reflect.ValueOf(args[pos]))
		if err != nil {
			return nil, errors.Binding(method, "query param %q: %v", name, err)
		}
		if ok {
			values.Set(name, s)
		}
	}
	return values, nil
}

// ObjectQuery flattens the query-object argument, if md declares one.
func ObjectQuery(method string, md *metadata.MethodMetadata, args []any, extractor QueryExtractor) (url.Values, error) {
	pos, ok := md.QueryObjectIndex()
	if !ok {
		return url.Values{}, nil
	}
	if pos >= len(args) {
		return nil, errors.Binding(method, "query object bound to argument %d, only %d given", pos, len(args))
	}
	return extractor.Extract(args[pos])
}

// MergeQuery combines both parameter sets; explicit bindings win on a name
// clash.
func MergeQuery(explicit, derived url.Values) url.Values {
	merged := make(url.Values, len(explicit)+len(derived))
	for name, vs := range derived {
		merged[name] = append([]string(nil), vs...)
	}
	for name, vs := range explicit {
		merged[name] = append([]string(nil), vs...)
	}
	return merged
}

// AppendQuery appends q to rawURL with names in ascending order. Names and
// values are percent-encoded.
func AppendQuery(rawURL string, q url.Values) string {
	if len(q) == 0 {
		return rawURL
	}

	names := make([]string, 0, len(q))
	for name := range q {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(rawURL)
	switch {
	case !strings.Contains(rawURL, "?"):
		b.WriteByte('?')
	case !strings.HasSuffix(rawURL, "?") && !strings.HasSuffix(rawURL, "&"):
		b.WriteByte('&')
	}

	first := true
	for _, name := range names {
		key := url.QueryEscape(name)
		for _, v := range q[name] {
			if !first {
				b.WriteByte('&')
			}
			first = false
			b.WriteString(key)
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}

	return b.String()
}

// MergeHeaders overlays dynamic on static. A dynamic header replaces every
// static value of the same name; other static headers are kept.
func MergeHeaders(static, dynamic http.Header) http.Header {
	merged := static.Clone()
	if merged == nil {
		merged = http.Header{}
	}
	for name, vs := range dynamic {
		merged[http.CanonicalHeaderKey(name)] = append([]string(nil), vs...)
	}
	return merged
}

// SelectBody returns the request-body argument when md binds one and args
// reaches it.
func SelectBody(md *metadata.MethodMetadata, args []any) (any, bool) {
	pos, ok := md.RequestBodyIndex()
	if !ok || pos >= len(args) {
		return nil, false
	}
	return args[pos], true
}

// ResolveResponse unwraps envelope return types to their payload.
func ResolveResponse(rt metadata.ReturnType) ResponseType {
	return ResponseType{
		Declared: rt.Declared(),
		Target:   rt.Payload(),
		Envelope: rt.Envelope(),
	}
}
