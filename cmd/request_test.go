package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedsharma/reqkit/internal/binder"
	"github.com/vedsharma/reqkit/internal/model"
)

func TestParseHeaders(t *testing.T) {
	table, err := parseHeaders([]string{"Accept: application/json", "X-Trace:  a:b "})
	require.NoError(t, err)
	assert.Equal(t, []model.KeyValue{
		model.NewKeyValue("Accept", "application/json"),
		model.NewKeyValue("X-Trace", "a:b"),
	}, table.Entries())

	_, err = parseHeaders([]string{"no-colon"})
	assert.Error(t, err)
	_, err = parseHeaders([]string{": value"})
	assert.Error(t, err)
}

func TestParseVars(t *testing.T) {
	table, err := parseVars([]string{"HOST=example.com", "QUERY=a=b", "EMPTY="}, true)
	require.NoError(t, err)
	assert.Equal(t, []model.KeyValue{
		{Name: "HOST", Value: "example.com", Active: true, Secret: true},
		{Name: "QUERY", Value: "a=b", Active: true, Secret: true},
		{Name: "EMPTY", Value: "", Active: true, Secret: true},
	}, table.Entries())

	_, err = parseVars([]string{"novalue"}, false)
	assert.Error(t, err)
	_, err = parseVars([]string{"=x"}, false)
	assert.Error(t, err)
}

func TestLayerVariables(t *testing.T) {
	globals := model.NewKeyValueTable(model.NewKeyValue("HOST", "global"), model.NewKeyValue("TOKEN", "g"))
	local := model.NewKeyValueTable(model.NewKeyValue("HOST", "local"))
	overrides := model.NewKeyValueTable(model.NewKeyValue("TOKEN", "cli"))

	layered := layerVariables(globals, local, overrides)
	assert.Equal(t, 4, layered.Len())
	assert.Equal(t, map[string]string{"HOST": "local", "TOKEN": "cli"}, layered.Map())
}

func TestBuildPayload(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		p, err := buildPayload("", "", nil)
		require.NoError(t, err)
		assert.Equal(t, model.KindNone, p.Kind)
	})

	t.Run("raw json by default", func(t *testing.T) {
		p, err := buildPayload(`{"a":1}`, "", nil)
		require.NoError(t, err)
		assert.True(t, model.RawBody(model.EncodingJSON, []byte(`{"a":1}`)).Equal(p))
	})

	t.Run("raw xml", func(t *testing.T) {
		p, err := buildPayload("<a/>", "XML", nil)
		require.NoError(t, err)
		assert.Equal(t, model.EncodingXML, p.Encoding)
	})

	t.Run("urlencoded form", func(t *testing.T) {
		p, err := buildPayload("", "", []string{"user=bob", "pass={{PASS}}"})
		require.NoError(t, err)
		assert.Equal(t, model.KindURLEncoded, p.Kind)
		assert.Equal(t, 2, p.Params.Len())
	})

	t.Run("multipart form", func(t *testing.T) {
		p, err := buildPayload("", "multipart", []string{"bio=hi"})
		require.NoError(t, err)
		assert.Equal(t, model.KindMultipart, p.Kind)
	})

	t.Run("invalid combinations", func(t *testing.T) {
		_, err := buildPayload("x", "", []string{"a=b"})
		assert.Error(t, err)
		_, err = buildPayload("x", "multipart", nil)
		assert.Error(t, err)
		_, err = buildPayload("", "json", []string{"a=b"})
		assert.Error(t, err)
		_, err = buildPayload("x", "csv", nil)
		assert.Error(t, err)
	})
}

func TestFilterSensitiveHeaders(t *testing.T) {
	filtered := filterSensitiveHeaders(map[string]string{
		"Authorization": "Bearer abc",
		"X-API-Key":     "k",
		"Accept":        "application/json",
	})
	assert.Equal(t, map[string]string{
		"Authorization": redacted,
		"X-API-Key":     redacted,
		"Accept":        "application/json",
	}, filtered)
	assert.Nil(t, filterSensitiveHeaders(nil))
}

func TestRedactSecrets(t *testing.T) {
	vars := model.NewKeyValueTable(
		model.KeyValue{Name: "TOKEN", Value: "s3cr3t", Active: true, Secret: true},
		model.KeyValue{Name: "EMPTY", Value: "", Active: true, Secret: true},
		model.NewKeyValue("HOST", "example.com"),
	)
	secrets := secretValues(vars)
	assert.Equal(t, []string{"s3cr3t"}, secrets)

	assert.Equal(t, "https://example.com/?key="+redacted, redactSecrets("https://example.com/?key=s3cr3t", secrets))
	assert.Equal(t, map[string]string{"X-Token": redacted}, redactHeaderSecrets(map[string]string{"X-Token": "s3cr3t"}, secrets))
}

func TestContainsSensitiveData(t *testing.T) {
	assert.True(t, containsSensitiveData(`{"Password": "x"}`))
	assert.False(t, containsSensitiveData(`{"name": "bob"}`))
}

func TestReadBodyFromFile(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)

	dir, err := os.MkdirTemp(wd, "body-")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	path := filepath.Join(dir, "body.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"a":1}`), 0o600))

	content, err := readBodyFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(content))

	_, err = readBodyFromFile(filepath.Join(wd, "..", "outside.json"))
	assert.ErrorContains(t, err, "access denied")
}

func TestFindHistoryEntry(t *testing.T) {
	entries := []model.HistoryEntry{{ID: "aaaa1111"}, {ID: "bbbb2222"}}

	assert.Equal(t, "bbbb2222", findHistoryEntry(entries, "2").ID)
	assert.Equal(t, "aaaa1111", findHistoryEntry(entries, "aaaa1111").ID)
	assert.Nil(t, findHistoryEntry(entries, "3"))
	assert.Nil(t, findHistoryEntry(entries, "missing"))
}

func TestEndpointHelpers(t *testing.T) {
	assert.Equal(t, "users", endpointName("dir/users.toml"))

	e := model.NewEndpoint(model.MethodPost, "https://{{HOST}}/{{PATH}}")
	e.Headers = model.NewKeyValueTable(model.NewKeyValue("Authorization", "Bearer {{TOKEN}}"))
	e.Variables = model.NewKeyValueTable(model.KeyValue{Name: "HOST", Value: "x", Active: false})
	e.Body = model.RawBody(model.EncodingJSON, []byte(`{"p": "{{PATH}}"}`))

	assert.Equal(t, []string{"PATH", "TOKEN"}, undefinedVariables(e))
}

func TestDescribeBindError(t *testing.T) {
	_, err := binder.Bind(model.NewEndpoint(model.MethodGet, "https://{{HOST}}/"))
	require.Error(t, err)

	described := describeBindError(err)
	assert.ErrorIs(t, described, binder.ErrTemplate)
	assert.ErrorContains(t, described, "--var HOST=...")
	assert.ErrorContains(t, described, "'reqkit var set HOST ...'")

	other := errors.New("connection refused")
	assert.Equal(t, other, describeBindError(other))
}
