package template

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	engine := New(map[string]string{
		"HOST":  "api.example.com",
		"TOKEN": "abc123",
	})

	t.Run("substitutes variables", func(t *testing.T) {
		out, err := engine.Render("https://{{HOST}}/v1?token={{TOKEN}}")
		require.NoError(t, err)
		assert.Equal(t, "https://api.example.com/v1?token=abc123", out)
	})

	t.Run("tolerates whitespace around names", func(t *testing.T) {
		out, err := engine.Render("{{ HOST }}|{{\tTOKEN\t}}")
		require.NoError(t, err)
		assert.Equal(t, "api.example.com|abc123", out)
	})

	t.Run("text without placeholders is unchanged", func(t *testing.T) {
		out, err := engine.Render(`{"a": {"b": 1}}`)
		require.NoError(t, err)
		assert.Equal(t, `{"a": {"b": 1}}`, out)
	})

	t.Run("names are case-sensitive", func(t *testing.T) {
		_, err := engine.Render("{{host}}")
		var missing *MissingVariableError
		require.True(t, errors.As(err, &missing))
		assert.Equal(t, "host", missing.Name)
	})
}

func TestRenderMissingVariable(t *testing.T) {
	engine := New(nil)

	out, err := engine.Render("{{MISSING}}")
	require.Error(t, err)
	assert.Empty(t, out)

	var missing *MissingVariableError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "MISSING", missing.Name)
	assert.Equal(t, "undefined variable: MISSING", err.Error())
}

func TestRenderReportsFirstMissing(t *testing.T) {
	engine := New(map[string]string{"B": "b"})

	_, err := engine.Render("{{A}}{{B}}{{C}}")
	var missing *MissingVariableError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "A", missing.Name)
}

func TestRenderIsSinglePass(t *testing.T) {
	engine := New(map[string]string{
		"OUTER": "{{INNER}}",
		"INNER": "nope",
	})

	out, err := engine.Render("{{OUTER}}")
	require.NoError(t, err)
	assert.Equal(t, "{{INNER}}", out)
}

func TestRenderEngineReuse(t *testing.T) {
	engine := New(map[string]string{"X": "1"})

	for _, input := range []string{"{{X}}", "a{{X}}", "{{X}}b"} {
		_, err := engine.Render(input)
		require.NoError(t, err)
	}
	value, ok := engine.Lookup("X")
	assert.True(t, ok)
	assert.Equal(t, "1", value)
}

func TestNewCopiesContext(t *testing.T) {
	vars := map[string]string{"X": "1"}
	engine := New(vars)
	vars["X"] = "2"

	out, err := engine.Render("{{X}}")
	require.NoError(t, err)
	assert.Equal(t, "1", out)
}

func TestVariables(t *testing.T) {
	names := Variables("{{ A }}/{{B}}/{{A}}/{{ }}")
	assert.Equal(t, []string{"A", "B"}, names)
	assert.Empty(t, Variables("plain"))
}
