// Package endpointfile reads and writes versioned endpoint definition files.
//
// A file holds one record. The record's version field gates everything else:
// only SchemaVersion is understood and any other value is rejected before the
// rest of the record is interpreted. Headers are stored as plain name/value
// pairs, so their active/secret flags are not kept; variables and form params
// keep their flags by using an object instead of a plain string when the flags
// differ from the defaults. Raw json and xml bodies that are not valid UTF-8
// are stored base64 encoded with body_encoding set.
package endpointfile

import (
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"unicode/utf8"

	"github.com/vedsharma/reqkit/internal/model"
)

// SchemaVersion is the only record version this package reads or writes
const SchemaVersion = 1

var (
	ErrOutdatedSchema  = errors.New("outdated schema")
	ErrMalformedRecord = errors.New("malformed record")
	ErrIO              = errors.New("endpoint file i/o")
)

const (
	bodyTypeJSON        = "json"
	bodyTypeXML         = "xml"
	bodyTypeOctetStream = "octet-stream"
	bodyTypeURLEncoded  = "urlencoded"
	bodyTypeMultipart   = "multipart"

	bodyEncodingBase64 = "base64"
)

type versionProbe struct {
	Version int `toml:"version" yaml:"version" json:"version"`
}

type record struct {
	Version   int               `toml:"version" yaml:"version" json:"version"`
	URL       string            `toml:"url" yaml:"url" json:"url"`
	Method    string            `toml:"method" yaml:"method" json:"method"`
	Body      *string           `toml:"body,omitempty" yaml:"body,omitempty" json:"body,omitempty"`
	BodyType  string            `toml:"body_type,omitempty" yaml:"body_type,omitempty" json:"body_type,omitempty"`
	BodyEnc   string            `toml:"body_encoding,omitempty" yaml:"body_encoding,omitempty" json:"body_encoding,omitempty"`
	Headers   map[string]string `toml:"headers" yaml:"headers" json:"headers"`
	Variables map[string]any    `toml:"variables" yaml:"variables" json:"variables"`
	Form      map[string]any    `toml:"form,omitempty" yaml:"form,omitempty" json:"form,omitempty"`
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedRecord, fmt.Sprintf(format, args...))
}

func toEndpoint(rec record) (model.Endpoint, error) {
	method, err := model.ParseMethod(rec.Method)
	if err != nil {
		return model.Endpoint{}, err
	}

	e := model.NewEndpoint(method, rec.URL)
	e.Headers = model.TableFromMap(rec.Headers)

	if e.Variables, err = entriesToTable("variables", rec.Variables); err != nil {
		return model.Endpoint{}, err
	}
	if e.Body, err = toPayload(rec); err != nil {
		return model.Endpoint{}, err
	}
	return e, nil
}

func toPayload(rec record) (model.Payload, error) {
	switch rec.BodyType {
	case bodyTypeURLEncoded, bodyTypeMultipart:
		params, err := entriesToTable("form", rec.Form)
		if err != nil {
			return model.Payload{}, err
		}
		if rec.BodyType == bodyTypeURLEncoded {
			return model.URLEncodedBody(params), nil
		}
		return model.MultipartBody(params), nil
	}

	if rec.Body == nil || *rec.Body == "" {
		return model.NoBody(), nil
	}

	var encoding model.RawEncoding
	switch rec.BodyType {
	case "", bodyTypeJSON:
		encoding = model.EncodingJSON
	case bodyTypeXML:
		encoding = model.EncodingXML
	case bodyTypeOctetStream:
		encoding = model.EncodingOctetStream
	default:
		return model.Payload{}, malformed("unknown body_type %q", rec.BodyType)
	}

	// octet-stream bodies are always base64
	base64Body := encoding == model.EncodingOctetStream
	switch rec.BodyEnc {
	case "":
	case bodyEncodingBase64:
		base64Body = true
	default:
		return model.Payload{}, malformed("unknown body_encoding %q", rec.BodyEnc)
	}

	if !base64Body {
		return model.RawBody(encoding, []byte(*rec.Body)), nil
	}
	content, err := base64.StdEncoding.DecodeString(*rec.Body)
	if err != nil {
		return model.Payload{}, malformed("%s body: %v", rec.BodyType, err)
	}
	return model.RawBody(encoding, content), nil
}

// entriesToTable decodes a mapping whose values are either a string or an
// object {value, active, secret}. The result is sorted by name.
func entriesToTable(field string, entries map[string]any) (model.KeyValueTable, error) {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	var table model.KeyValueTable
	for _, name := range names {
		kv, err := decodeEntry(name, entries[name])
		if err != nil {
			return model.KeyValueTable{}, malformed("%s.%s: %v", field, name, err)
		}
		table.Append(kv)
	}
	return table, nil
}

// scalarString formats a plain scalar value. Numbers and bools are accepted
// so that e.g. PORT = 8080 reads the same as PORT = "8080".
func scalarString(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	default:
		return "", false
	}
}

func decodeEntry(name string, raw any) (model.KeyValue, error) {
	if value, ok := scalarString(raw); ok {
		return model.NewKeyValue(name, value), nil
	}

	switch v := raw.(type) {
	case map[string]any:
		kv := model.NewKeyValue(name, "")
		for key, field := range v {
			var ok bool
			switch key {
			case "value":
				kv.Value, ok = scalarString(field)
			case "active":
				kv.Active, ok = field.(bool)
			case "secret":
				kv.Secret, ok = field.(bool)
			default:
				return model.KeyValue{}, fmt.Errorf("unknown field %q", key)
			}
			if !ok {
				return model.KeyValue{}, fmt.Errorf("field %q has type %T", key, field)
			}
		}
		return kv, nil
	default:
		return model.KeyValue{}, fmt.Errorf("expected scalar or table, got %T", raw)
	}
}

func fromEndpoint(e model.Endpoint) (record, error) {
	method, err := e.Method.MarshalText()
	if err != nil {
		return record{}, err
	}

	rec := record{
		Version:   SchemaVersion,
		URL:       e.URL,
		Method:    string(method),
		Headers:   make(map[string]string, e.Headers.Len()),
		Variables: tableToEntries(e.Variables),
	}
	for _, kv := range e.Headers.Entries() {
		rec.Headers[kv.Name] = kv.Value
	}

	if e.Body.IsEmpty() {
		return rec, nil
	}
	switch e.Body.Kind {
	case model.KindURLEncoded:
		rec.BodyType = bodyTypeURLEncoded
		rec.Form = tableToEntries(e.Body.Params)
	case model.KindMultipart:
		rec.BodyType = bodyTypeMultipart
		rec.Form = tableToEntries(e.Body.Params)
	case model.KindRaw:
		body := string(e.Body.Content)
		rec.BodyType = e.Body.Encoding.String()
		switch {
		case e.Body.Encoding == model.EncodingOctetStream:
			body = base64.StdEncoding.EncodeToString(e.Body.Content)
		case !utf8.Valid(e.Body.Content):
			body = base64.StdEncoding.EncodeToString(e.Body.Content)
			rec.BodyEnc = bodyEncodingBase64
		}
		rec.Body = &body
	}
	return rec, nil
}

func tableToEntries(table model.KeyValueTable) map[string]any {
	entries := make(map[string]any, table.Len())
	for _, kv := range table.Entries() {
		if kv.Active && !kv.Secret {
			entries[kv.Name] = kv.Value
			continue
		}
		entries[kv.Name] = map[string]any{
			"value":  kv.Value,
			"active": kv.Active,
			"secret": kv.Secret,
		}
	}
	return entries
}
