package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/mangohow/gorest/errors"
	"github.com/mangohow/gorest/serialize"
	"github.com/mangohow/gorest/transport/binding"
	"github.com/sirupsen/logrus"
)

// Transport is the net/http Exchanger. Any response outside 2xx becomes an
// errors.Error carrying the status; the body is decoded otherwise.
type Transport struct {
	client *http.Client
	codec  binding.Codec
	log    *logrus.Logger
}

type Option func(t *Transport)

func WithClient(client *http.Client) Option {
	return func(t *Transport) {
		t.client = client
	}
}

// WithCodec sets the codec used when neither the request nor the response
// names a registered content type.
func WithCodec(codec binding.Codec) Option {
	return func(t *Transport) {
		t.codec = codec
	}
}

func WithLogger(log *logrus.Logger) Option {
	return func(t *Transport) {
		t.log = log
	}
}

func New(opts ...Option) *Transport {
	t := &Transport{}
	for _, opt := range opts {
		opt(t)
	}

	if t.client == nil {
		t.client = http.DefaultClient
	}

	if t.codec == nil {
		t.codec = binding.JsonCodec{}
	}

	if t.log == nil {
		t.log = logrus.StandardLogger()
	}

	return t
}

func (t *Transport) Exchange(ctx context.Context, req *binding.Request) (*serialize.Response, error) {
	body, contentType, err := t.encodeBody(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header = req.Header.Clone()
	if httpReq.Header == nil {
		httpReq.Header = http.Header{}
	}
	if contentType != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if req.Response.Target != nil && httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", t.codec.ContentType())
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response from %s: %w", req.URL, err)
	}
	t.log.Debugf("%s %s -> %d (%d bytes)", req.Method, req.URL, resp.StatusCode, len(data))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, errors.FromResponse(resp.StatusCode, req.URL, data)
	}

	out := &serialize.Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
	}
	if req.Response.Target != nil {
		out.Body, err = t.decode(req.Response.Target, resp.Header.Get("Content-Type"), data)
		if err != nil {
			return nil, fmt.Errorf("decode response from %s: %w", req.URL, err)
		}
	}

	return out, nil
}

func (t *Transport) encodeBody(req *binding.Request) (io.Reader, string, error) {
	if !req.HasBody || req.Body == nil {
		return nil, "", nil
	}

	switch b := req.Body.(type) {
	case []byte:
		return bytes.NewReader(b), "application/octet-stream", nil
	case string:
		return strings.NewReader(b), "text/plain; charset=utf-8", nil
	case io.Reader:
		return b, "application/octet-stream", nil
	}

	codec := t.codec
	if c := binding.CodecForContentType(req.Header.Get("Content-Type")); c != nil {
		codec = c
	}
	data, err := codec.Marshal(req.Body)
	if err != nil {
		return nil, "", err
	}
	return bytes.NewReader(data), codec.ContentType(), nil
}

var (
	bytesType  = reflect.TypeOf([]byte(nil))
	stringType = reflect.TypeOf("")
)

func (t *Transport) decode(target reflect.Type, contentType string, data []byte) (any, error) {
	switch target {
	case bytesType:
		return data, nil
	case stringType:
		return string(data), nil
	}

	if len(data) == 0 {
		return reflect.Zero(target).Interface(), nil
	}

	codec := t.codec
	if c := binding.CodecForContentType(contentType); c != nil {
		codec = c
	}
	ptr := reflect.New(target)
	if err := codec.Unmarshal(data, ptr.Interface()); err != nil {
		return nil, err
	}
	return ptr.Elem().Interface(), nil
}
