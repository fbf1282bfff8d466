package model

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"mime/multipart"
	"net/url"
	"strings"
)

// PayloadKind tags the active body variant
type PayloadKind int

const (
	KindNone PayloadKind = iota
	KindURLEncoded
	KindMultipart
	KindRaw
)

func (k PayloadKind) String() string {
	switch k {
	case KindURLEncoded:
		return "urlencoded"
	case KindMultipart:
		return "multipart"
	case KindRaw:
		return "raw"
	default:
		return "none"
	}
}

// RawEncoding describes the content of a raw body
type RawEncoding int

const (
	EncodingJSON RawEncoding = iota
	EncodingXML
	EncodingOctetStream
)

func (e RawEncoding) String() string {
	switch e {
	case EncodingXML:
		return "xml"
	case EncodingOctetStream:
		return "octet-stream"
	default:
		return "json"
	}
}

// ContentType returns the MIME type implied by the encoding
func (e RawEncoding) ContentType() string {
	switch e {
	case EncodingXML:
		return "application/xml"
	case EncodingOctetStream:
		return "application/octet-stream"
	default:
		return "application/json"
	}
}

const (
	contentTypeURLEncoded = "application/x-www-form-urlencoded"
	contentTypeMultipart  = "multipart/form-data"
)

// Payload is the request body variant. Params is used by the form kinds,
// Encoding and Content by KindRaw.
type Payload struct {
	Kind     PayloadKind
	Params   KeyValueTable
	Encoding RawEncoding
	Content  []byte
}

func NoBody() Payload {
	return Payload{Kind: KindNone}
}

func URLEncodedBody(params KeyValueTable) Payload {
	return Payload{Kind: KindURLEncoded, Params: params}
}

func MultipartBody(params KeyValueTable) Payload {
	return Payload{Kind: KindMultipart, Params: params}
}

func RawBody(encoding RawEncoding, content []byte) Payload {
	return Payload{Kind: KindRaw, Encoding: encoding, Content: content}
}

// IsEmpty reports whether the payload produces no body
func (p Payload) IsEmpty() bool {
	switch p.Kind {
	case KindRaw:
		return len(p.Content) == 0
	case KindURLEncoded, KindMultipart:
		return p.Params.Len() == 0
	default:
		return true
	}
}

// ContentType returns the implied Content-Type without a multipart boundary.
// Use Encode for the exact header value.
func (p Payload) ContentType() string {
	switch p.Kind {
	case KindURLEncoded:
		return contentTypeURLEncoded
	case KindMultipart:
		return contentTypeMultipart
	case KindRaw:
		return p.Encoding.ContentType()
	default:
		return ""
	}
}

// Equal compares the active variant
func (p Payload) Equal(other Payload) bool {
	if p.Kind != other.Kind {
		return false
	}
	switch p.Kind {
	case KindURLEncoded, KindMultipart:
		return p.Params.Equal(other.Params)
	case KindRaw:
		return p.Encoding == other.Encoding && bytes.Equal(p.Content, other.Content)
	default:
		return true
	}
}

// Encode renders the body through render and returns the bytes and the implied content type.
// Form params are rendered before encoding so placeholders survive escaping.
// Inactive form params are skipped.
func (p Payload) Encode(render func(string) (string, error)) ([]byte, string, error) {
	if render == nil {
		render = func(s string) (string, error) { return s, nil }
	}

	switch p.Kind {
	case KindRaw:
		if len(p.Content) == 0 {
			return []byte{}, p.Encoding.ContentType(), nil
		}
		text, err := render(DecodeLossy(p.Content))
		if err != nil {
			return nil, "", err
		}
		return []byte(text), p.Encoding.ContentType(), nil

	case KindURLEncoded:
		fields, err := renderParams(p.Params, render)
		if err != nil {
			return nil, "", err
		}
		parts := make([]string, 0, len(fields))
		for _, f := range fields {
			parts = append(parts, url.QueryEscape(f.Name)+"="+url.QueryEscape(f.Value))
		}
		return []byte(strings.Join(parts, "&")), contentTypeURLEncoded, nil

	case KindMultipart:
		fields, err := renderParams(p.Params, render)
		if err != nil {
			return nil, "", err
		}
		if len(fields) == 0 {
			return []byte{}, "", nil
		}
		return encodeMultipart(fields)

	default:
		return []byte{}, "", nil
	}
}

func renderParams(params KeyValueTable, render func(string) (string, error)) ([]KeyValue, error) {
	var fields []KeyValue
	for _, kv := range params.entries {
		if !kv.Active {
			continue
		}
		name, err := render(kv.Name)
		if err != nil {
			return nil, err
		}
		value, err := render(kv.Value)
		if err != nil {
			return nil, err
		}
		fields = append(fields, KeyValue{Name: name, Value: value, Active: true, Secret: kv.Secret})
	}
	return fields, nil
}

// encodeMultipart writes form fields with a boundary derived from the field contents,
// so the same fields always produce the same bytes.
func encodeMultipart(fields []KeyValue) ([]byte, string, error) {
	h := fnv.New64a()
	for _, f := range fields {
		h.Write([]byte(f.Name))
		h.Write([]byte{0})
		h.Write([]byte(f.Value))
		h.Write([]byte{0})
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.SetBoundary(fmt.Sprintf("reqkit-%016x", h.Sum64())); err != nil {
		return nil, "", err
	}
	for _, f := range fields {
		if err := w.WriteField(f.Name, f.Value); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
