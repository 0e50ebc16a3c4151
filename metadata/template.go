package metadata

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/gorilla/mux"
)

// Template is a compiled URL template. The path part supports "{name}" and
// "{name:pattern}" placeholders; anything after the first '?' is kept as is.
type Template struct {
	raw   string
	path  string
	query string
	route *mux.Route
	vars  []string
}

// CompileTemplate parses tpl. An empty template expands to "".
func CompileTemplate(tpl string) (*Template, error) {
	t := &Template{raw: tpl, path: tpl}
	if i := strings.IndexByte(tpl, '?'); i >= 0 {
		t.path, t.query = tpl[:i], tpl[i:]
	}

	if !strings.Contains(t.path, "{") && !strings.Contains(t.path, "}") {
		return t, nil
	}
	if !strings.HasPrefix(t.path, "/") {
		return nil, fmt.Errorf("url template %q: templated path must start with a slash", tpl)
	}

	route := mux.NewRouter().NewRoute().Path(t.path)
	if err := route.GetError(); err != nil {
		return nil, fmt.Errorf("url template %q: %w", tpl, err)
	}
	vars, err := route.GetVarNames()
	if err != nil {
		return nil, fmt.Errorf("url template %q: %w", tpl, err)
	}
	t.route = route
	t.vars = vars

	return t, nil
}

func (t *Template) String() string { return t.raw }

// Vars returns the placeholder names in template order.
func (t *Template) Vars() []string {
	return append([]string(nil), t.vars...)
}

// Expand substitutes vars into the template. Every placeholder must have a
// value; extra values are ignored. Values are path-escaped before they are
// matched against their placeholder pattern, so reserved characters such as
// '/', '?' or '#' stay inside their segment.
func (t *Template) Expand(vars map[string]string) (string, error) {
	if t.route == nil {
		return t.raw, nil
	}

	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	pairs := make([]string, 0, len(vars)*2)
	for _, name := range names {
		pairs = append(pairs, name, url.PathEscape(vars[name]))
	}

	u, err := t.route.URLPath(pairs...)
	if err != nil {
		return "", err
	}

	return u.Path + t.query, nil
}
