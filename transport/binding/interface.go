package binding

import (
	"mime"
	"net/url"
	"strings"
	"sync"
)

// Codec turns request bodies into bytes and response bytes into values.
type Codec interface {
	Name() string
	ContentType() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// QueryExtractor flattens a query object into query parameters.
type QueryExtractor interface {
	Name() string
	Extract(obj any) (url.Values, error)
}

// QueryEncoder can be implemented by a query object to supply its own
// parameter mapping instead of being introspected.
type QueryEncoder interface {
	EncodeQuery() (url.Values, error)
}

var (
	mu               sync.RWMutex
	registeredCodecs = map[string]Codec{}
	byContentType    = map[string]Codec{}
)

func init() {
	RegisterCodec(JsonCodec{})
	RegisterCodec(ProtoCodec{})
	RegisterCodec(ProtoJSONCodec{})
}

// RegisterCodec makes c available by name and by content type. A later
// registration for the same content type replaces the earlier one.
func RegisterCodec(c Codec) {
	if c == nil {
		panic("codec is nil")
	}

	mu.Lock()
	defer mu.Unlock()
	registeredCodecs[c.Name()] = c
	byContentType[mediaType(c.ContentType())] = c
}

func GetCodec(name string) Codec {
	mu.RLock()
	defer mu.RUnlock()
	return registeredCodecs[name]
}

// CodecForContentType looks a codec up by a Content-Type header value,
// ignoring parameters such as charset.
func CodecForContentType(contentType string) Codec {
	mu.RLock()
	defer mu.RUnlock()
	return byContentType[mediaType(contentType)]
}

func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt, _, _ = strings.Cut(contentType, ";")
	}
	return strings.ToLower(strings.TrimSpace(mt))
}
