package callcmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/mangohow/gorest/client"
	"github.com/mangohow/gorest/endpoint"
	"github.com/mangohow/gorest/handler"
	"github.com/mangohow/gorest/invocation"
	"github.com/mangohow/gorest/llog"
	"github.com/mangohow/gorest/metadata"
	"github.com/mangohow/gorest/serialize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const callName = "cli.Call"

var CmdCall = &cobra.Command{
	Use:   "call <url-template>",
	Short: "Call one REST endpoint",
	Long: `Call one REST endpoint. The URL template may contain {name} variables
bound with --var, e.g.

  gorest call -e https://api.example.com /users/{id} --var id=42 -q verbose=true`,
	Args: cobra.ExactArgs(1),
	RunE: run,
}

var (
	endpoints []string
	method    string
	vars      []string
	queries   []string
	headers   []string
	data      string
	bearer    string
	timeout   time.Duration
	retries   int
	include   bool
	logLevel  string
)

func init() {
	CmdCall.Flags().StringSliceVarP(&endpoints, "endpoint", "e", nil, "base url, repeat for round robin")
	CmdCall.Flags().StringVarP(&method, "method", "X", http.MethodGet, "http method")
	CmdCall.Flags().StringArrayVar(&vars, "var", nil, "path variable name=value")
	CmdCall.Flags().StringArrayVarP(&queries, "query", "q", nil, "query parameter name=value")
	CmdCall.Flags().StringArrayVarP(&headers, "header", "H", nil, "header 'Name: value'")
	CmdCall.Flags().StringVarP(&data, "data", "d", "", "request body, @file reads a file")
	CmdCall.Flags().StringVar(&bearer, "bearer", "", "bearer token")
	CmdCall.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "call timeout, 0 disables it")
	CmdCall.Flags().IntVar(&retries, "retries", 0, "retries on network errors, 5xx and 429")
	CmdCall.Flags().BoolVarP(&include, "include", "i", false, "print status and response headers")
	CmdCall.Flags().StringVar(&logLevel, "log-level", "warn", "log level")
	_ = CmdCall.MarkFlagRequired("endpoint")
}

func run(cmd *cobra.Command, args []string) error {
	_, sync := llog.InitLogger(llog.WithLevel(logLevel), llog.WithOutput(cmd.ErrOrStderr()))
	defer sync()

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	logger := logrus.New()
	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetLevel(level)

	req, err := parse(args[0])
	if err != nil {
		return err
	}

	var body []byte
	if data != "" {
		if body, err = readData(data); err != nil {
			return err
		}
	}
	md, callArgs, err := req.metadata(method, body)
	if err != nil {
		return err
	}

	c, err := client.New(
		client.WithEndpoint(provider(endpoints)),
		client.WithLogger(logger),
		client.WithHandlers(handlers()...),
	)
	if err != nil {
		return err
	}
	defer c.Close()
	if err := c.Register(callName, md); err != nil {
		return err
	}

	env, err := client.CallWithHeader[serialize.Envelope[[]byte]](context.Background(), c, callName, req.header, callArgs...)
	if err != nil {
		return err
	}

	return printResponse(cmd.OutOrStdout(), env, include)
}

func handlers() []invocation.Handler {
	hs := []invocation.Handler{
		llog.RequestIDHandler(""),
		llog.RequestLoggingHandler(),
	}
	if bearer != "" {
		hs = append(hs, handler.BearerAuth(handler.StaticToken(bearer)))
	}
	if retries > 0 {
		hs = append(hs, handler.Retry(handler.WithMaxAttempts(retries+1)))
	}
	if timeout > 0 {
		hs = append(hs, handler.Timeout(timeout))
	}
	return hs
}

func provider(urls []string) endpoint.Provider {
	if len(urls) == 1 {
		return endpoint.Static(urls[0])
	}
	return endpoint.RoundRobin(urls...)
}

type request struct {
	template string
	vars     map[string]string
	query    map[string]string
	header   http.Header
}

func parse(template string) (*request, error) {
	r := &request{
		template: template,
		vars:     map[string]string{},
		query:    map[string]string{},
		header:   http.Header{},
	}
	for _, kv := range vars {
		k, v, err := pair(kv, "=")
		if err != nil {
			return nil, fmt.Errorf("--var: %w", err)
		}
		r.vars[k] = v
	}
	for _, kv := range queries {
		k, v, err := pair(kv, "=")
		if err != nil {
			return nil, fmt.Errorf("--query: %w", err)
		}
		r.query[k] = v
	}
	for _, kv := range headers {
		k, v, err := pair(kv, ":")
		if err != nil {
			return nil, fmt.Errorf("--header: %w", err)
		}
		r.header.Add(k, v)
	}
	return r, nil
}

// metadata turns the flags into a method description plus the argument
// list it binds: path variables first, then query parameters, then the
// body.
func (r *request) metadata(httpMethod string, body []byte) (*metadata.MethodMetadata, []any, error) {
	var (
		opts []metadata.Option
		args []any
	)
	for _, name := range sortedKeys(r.vars) {
		opts = append(opts, metadata.PathVariable(len(args), name))
		args = append(args, r.vars[name])
	}
	for _, name := range sortedKeys(r.query) {
		opts = append(opts, metadata.QueryParam(len(args), name))
		args = append(args, r.query[name])
	}
	if body != nil {
		opts = append(opts, metadata.RequestBody(len(args)))
		args = append(args, body)
		if r.header.Get("Content-Type") == "" {
			opts = append(opts, metadata.Header("Content-Type", "application/json"))
		}
	}
	opts = append(opts, metadata.Returning(metadata.Returns[serialize.Envelope[[]byte]]()))

	md, err := metadata.New(strings.ToUpper(httpMethod), r.template, opts...)
	if err != nil {
		return nil, nil, err
	}
	return md, args, nil
}

func pair(s, sep string) (string, string, error) {
	k, v, ok := strings.Cut(s, sep)
	k = strings.TrimSpace(k)
	if !ok || k == "" {
		return "", "", fmt.Errorf("%q is not in name%svalue form", s, sep)
	}
	return k, strings.TrimSpace(v), nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func readData(d string) ([]byte, error) {
	if name, ok := strings.CutPrefix(d, "@"); ok {
		return os.ReadFile(name)
	}
	return []byte(d), nil
}

func printResponse(w io.Writer, env serialize.Envelope[[]byte], include bool) error {
	if include {
		fmt.Fprintf(w, "%d %s\n", env.StatusCode, http.StatusText(env.StatusCode))
		for _, name := range sortedHeaderNames(env.Header) {
			for _, v := range env.Header[name] {
				fmt.Fprintf(w, "%s: %s\n", name, v)
			}
		}
		fmt.Fprintln(w)
	}
	_, err := w.Write(env.Body)
	return err
}

func sortedHeaderNames(h http.Header) []string {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
