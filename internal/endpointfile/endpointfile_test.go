package endpointfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedsharma/reqkit/internal/model"
)

func sampleEndpoint() model.Endpoint {
	e := model.NewEndpoint(model.MethodPost, "https://{{HOST}}/v1/users")
	e.Headers = model.NewKeyValueTable(
		model.NewKeyValue("Accept", "application/json"),
		model.NewKeyValue("Authorization", "Bearer {{TOKEN}}"),
	)
	e.Variables = model.NewKeyValueTable(
		model.NewKeyValue("HOST", "api.example.com"),
		model.KeyValue{Name: "TOKEN", Value: "s3cr3t", Active: true, Secret: true},
		model.KeyValue{Name: "UNUSED", Value: "x", Active: false},
	)
	e.Body = model.RawBody(model.EncodingJSON, []byte(`{"name": "{{NAME}}"}`))
	return e
}

func TestRoundTrip(t *testing.T) {
	formats := []Format{FormatTOML, FormatYAML, FormatJSON}

	endpoints := map[string]model.Endpoint{
		"raw json": sampleEndpoint(),
		"no body":  model.NewEndpoint(model.MethodGet, "https://example.com"),
		"xml body": func() model.Endpoint {
			e := model.NewEndpoint(model.MethodPut, "https://example.com/feed")
			e.Body = model.RawBody(model.EncodingXML, []byte("<feed>\n  <id>{{ID}}</id>\n</feed>"))
			return e
		}(),
		"binary body": func() model.Endpoint {
			e := model.NewEndpoint(model.MethodPost, "https://example.com/upload")
			e.Body = model.RawBody(model.EncodingOctetStream, []byte{0x00, 0xff, 0x10})
			return e
		}(),
		"urlencoded": func() model.Endpoint {
			e := model.NewEndpoint(model.MethodPost, "https://example.com/login")
			e.Body = model.URLEncodedBody(model.NewKeyValueTable(
				model.KeyValue{Name: "password", Value: "{{PASS}}", Active: true, Secret: true},
				model.NewKeyValue("user", "bob"),
			))
			return e
		}(),
		"json body with invalid utf-8": func() model.Endpoint {
			e := model.NewEndpoint(model.MethodPost, "https://example.com/blob")
			e.Body = model.RawBody(model.EncodingJSON, []byte("a\xffb"))
			return e
		}(),
		"xml body with invalid utf-8": func() model.Endpoint {
			e := model.NewEndpoint(model.MethodPost, "https://example.com/blob")
			e.Body = model.RawBody(model.EncodingXML, []byte{'<', 'a', '>', 0xc3, 0x28, '<', '/', 'a', '>'})
			return e
		}(),
		"multipart": func() model.Endpoint {
			e := model.NewEndpoint(model.MethodPatch, "https://example.com/profile")
			e.Body = model.MultipartBody(model.NewKeyValueTable(model.NewKeyValue("bio", "hello")))
			return e
		}(),
	}

	for _, format := range formats {
		for name, e := range endpoints {
			t.Run(string(format)+"/"+name, func(t *testing.T) {
				data, err := Store(e, format)
				require.NoError(t, err)

				parsed, err := Parse(data, format)
				require.NoError(t, err)
				assert.True(t, e.Equal(parsed), "round trip mismatch:\n%s", data)
			})
		}
	}
}

func TestStoreNormalizesMethodAndOmitsEmptyBody(t *testing.T) {
	e := model.NewEndpoint(model.MethodDelete, "https://example.com")

	data, err := Store(e, FormatJSON)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"method": "DELETE"`)
	assert.NotContains(t, string(data), `"body"`)
	assert.Contains(t, string(data), `"headers": {}`)
	assert.Contains(t, string(data), `"variables": {}`)
	assert.Contains(t, string(data), `"version": 1`)
}

func TestStoreInvalidUTF8BodyAsBase64(t *testing.T) {
	e := model.NewEndpoint(model.MethodPost, "https://example.com")
	e.Body = model.RawBody(model.EncodingJSON, []byte("a\xffb"))

	data, err := Store(e, FormatJSON)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"body_type": "json"`)
	assert.Contains(t, string(data), `"body_encoding": "base64"`)

	valid := model.NewEndpoint(model.MethodPost, "https://example.com")
	valid.Body = model.RawBody(model.EncodingJSON, []byte(`{"a":1}`))
	data, err = Store(valid, FormatJSON)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "body_encoding")
}

func TestParseScalarVariables(t *testing.T) {
	data := []byte("version: 1\nurl: x\nmethod: GET\nvariables:\n  PORT: 8080\n  DEBUG: true\n  RATIO: 0.5\n  NAME: {value: 42, secret: true}\n")
	e, err := Parse(data, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, []model.KeyValue{
		{Name: "DEBUG", Value: "true", Active: true},
		{Name: "NAME", Value: "42", Active: true, Secret: true},
		{Name: "PORT", Value: "8080", Active: true},
		{Name: "RATIO", Value: "0.5", Active: true},
	}, e.Variables.Entries())

	e, err = Parse([]byte("version = 1\nurl = \"x\"\nmethod = \"GET\"\n[variables]\nPORT = 8080\n"), FormatTOML)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"PORT": "8080"}, e.Variables.Map())

	e, err = Parse([]byte(`{"version": 1, "url": "x", "method": "GET", "variables": {"PORT": 8080}}`), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"PORT": "8080"}, e.Variables.Map())
}

func TestParseAcceptsAnyMethodCase(t *testing.T) {
	for _, method := range []string{"get", "Get", "GET"} {
		data := []byte("version = 1\nurl = \"https://example.com\"\nmethod = \"" + method + "\"\n")
		e, err := Parse(data, FormatTOML)
		require.NoError(t, err, method)
		assert.Equal(t, model.MethodGet, e.Method)
	}
}

func TestParseDefaults(t *testing.T) {
	data := []byte(`
version = 1
url = "https://example.com"
method = "post"
`)
	e, err := Parse(data, FormatTOML)
	require.NoError(t, err)
	assert.Equal(t, model.MethodPost, e.Method)
	assert.Equal(t, 0, e.Headers.Len())
	assert.Equal(t, 0, e.Variables.Len())
	assert.Equal(t, model.KindNone, e.Body.Kind)
}

func TestParseHeadersDefaultFlags(t *testing.T) {
	data := []byte(`
version = 1
url = "https://example.com"
method = "GET"

[headers]
X-B = "2"
X-A = "1"

[variables]
TOKEN = { value = "abc", secret = true }
DEBUG = { value = "1", active = false }
`)
	e, err := Parse(data, FormatTOML)
	require.NoError(t, err)

	assert.Equal(t, []model.KeyValue{
		model.NewKeyValue("X-A", "1"),
		model.NewKeyValue("X-B", "2"),
	}, e.Headers.Entries())
	assert.Equal(t, []model.KeyValue{
		{Name: "DEBUG", Value: "1", Active: false, Secret: false},
		{Name: "TOKEN", Value: "abc", Active: true, Secret: true},
	}, e.Variables.Entries())
}

func TestParseOutdatedSchema(t *testing.T) {
	cases := map[string]struct {
		format Format
		data   string
	}{
		"version 0":        {FormatTOML, "version = 0\nurl = \"https://example.com\"\nmethod = \"GET\"\n"},
		"missing version":  {FormatTOML, "url = \"https://example.com\"\nmethod = \"GET\"\n"},
		"future version":   {FormatJSON, `{"version": 2, "url": "x", "method": "GET"}`},
		"bad verb ignored": {FormatYAML, "version: 0\nurl: x\nmethod: FETCH\n"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(tc.data), tc.format)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrOutdatedSchema), "got %v", err)
		})
	}
}

func TestParseInvalidVerb(t *testing.T) {
	_, err := Parse([]byte(`{"version": 1, "url": "x", "method": "FETCH"}`), FormatJSON)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidVerb))
}

func TestParseMalformed(t *testing.T) {
	cases := map[string]struct {
		format Format
		data   string
	}{
		"not toml":          {FormatTOML, "version = = 1"},
		"not json":          {FormatJSON, "{"},
		"version as string": {FormatJSON, `{"version": "1"}`},
		"bad variable":      {FormatJSON, `{"version": 1, "url": "x", "method": "GET", "variables": {"A": [3]}}`},
		"bad variable flag": {FormatJSON, `{"version": 1, "url": "x", "method": "GET", "variables": {"A": {"value": "a", "secret": "yes"}}}`},
		"unknown body type": {FormatJSON, `{"version": 1, "url": "x", "method": "GET", "body": "a", "body_type": "csv"}`},
		"bad base64":        {FormatJSON, `{"version": 1, "url": "x", "method": "GET", "body": "%%%", "body_type": "octet-stream"}`},
		"bad body encoding": {FormatJSON, `{"version": 1, "url": "x", "method": "GET", "body": "a", "body_encoding": "hex"}`},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(tc.data), tc.format)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedRecord), "got %v", err)
		})
	}
}

func TestStoreDropsHeaderFlags(t *testing.T) {
	e := model.NewEndpoint(model.MethodGet, "https://example.com")
	e.Headers = model.NewKeyValueTable(model.KeyValue{Name: "X-Debug", Value: "1", Active: false, Secret: true})

	data, err := Store(e, FormatTOML)
	require.NoError(t, err)
	parsed, err := Parse(data, FormatTOML)
	require.NoError(t, err)

	assert.Equal(t, []model.KeyValue{model.NewKeyValue("X-Debug", "1")}, parsed.Headers.Entries())
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatTOML, FormatFromPath("users.toml"))
	assert.Equal(t, FormatTOML, FormatFromPath("users"))
	assert.Equal(t, FormatYAML, FormatFromPath("users.YML"))
	assert.Equal(t, FormatYAML, FormatFromPath("users.yaml"))
	assert.Equal(t, FormatJSON, FormatFromPath("dir/users.json"))

	f, err := ParseFormat("YAML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)
	_, err = ParseFormat("ini")
	assert.Error(t, err)
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "users.toml")
	e := sampleEndpoint()

	require.NoError(t, Save(path, e))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(secureFileMode), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.True(t, e.Equal(loaded))

	leftovers, err := filepath.Glob(filepath.Join(dir, "nested", ".reqkit-endpoint-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIO))
}

func TestLoadOutdatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 0\nurl: x\nmethod: GET\n"), 0o600))

	_, err := Load(path)
	assert.True(t, errors.Is(err, ErrOutdatedSchema))
}
