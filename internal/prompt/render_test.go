package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_SubstitutesPlaceholders(t *testing.T) {
	got, err := Render("Hello {name}, your task is {task}.", Context{"name": "Ada", "task": "refactor"})
	require.NoError(t, err)
	assert.Equal(t, "Hello Ada, your task is refactor.", got)
}

func TestRender_MissingKeyIsHardError(t *testing.T) {
	_, err := Render("Hello {name}", Context{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "name")
}

func TestRender_NoPlaceholders(t *testing.T) {
	got, err := Render("plain text", Context{})
	require.NoError(t, err)
	assert.Equal(t, "plain text", got)
}

func TestRender_UnterminatedBraceIsLiteral(t *testing.T) {
	got, err := Render("plain { text", Context{})
	require.NoError(t, err)
	assert.Equal(t, "plain { text", got)
}
