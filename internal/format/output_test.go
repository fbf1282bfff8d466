package format

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vedsharma/reqkit/internal/model"
)

func TestSanitizeOutput(t *testing.T) {
	assert.Equal(t, "plain\ttext\n", sanitizeOutput("plain\ttext\n"))
	assert.Equal(t, `\x1b[31mred`, sanitizeOutput("\x1b[31mred"))
	assert.Equal(t, `a\x00b\x7f`, sanitizeOutput("a\x00b\x7f"))
}

func TestFormatBody(t *testing.T) {
	assert.Equal(t, "{\n  \"a\": 1\n}", formatBody(`{"a":1}`, true))
	assert.Equal(t, "{\n  \"a\": 1\n}", formatBody(`{"a":1}`, false))
	assert.Equal(t, "<a>1</a>", formatBody("<a>1</a>", false))
	assert.Equal(t, "not json", formatBody("not json", true))
}

func TestDisplayValue(t *testing.T) {
	secret := model.KeyValue{Name: "TOKEN", Value: "abc", Active: true, Secret: true}
	assert.Equal(t, secretMask, displayValue(secret, false))
	assert.Equal(t, "abc", displayValue(secret, true))
	assert.Equal(t, "x", displayValue(model.NewKeyValue("A", "x"), false))
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512 B", formatSize(512))
	assert.Equal(t, "1.5 KB", formatSize(1536))
	assert.Equal(t, "2.0 MB", formatSize(2*1024*1024))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}

func TestGetStatusColor(t *testing.T) {
	assert.Equal(t, successColor, getStatusColor(statusClassOf(204)))
	assert.Equal(t, redirectColor, getStatusColor(statusClassOf(301)))
	assert.Equal(t, clientErrColor, getStatusColor(statusClassOf(404)))
	assert.Equal(t, serverErrColor, getStatusColor(statusClassOf(503)))
	assert.Equal(t, infoColor, getStatusColor(statusClassOf(101)))
}
