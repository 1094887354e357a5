package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsReference(t *testing.T) {
	cases := []struct {
		name  string
		value any
		want  bool
	}{
		{"valid reference", "${node:n1.output}", true},
		{"plain string", "hello", false},
		{"missing colon", "${nodeoutput}", false},
		{"missing closing brace", "${node:n1", false},
		{"not a string", 42, false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsReference(tc.value))
		})
	}
}

func TestParseReferenceStatic(t *testing.T) {
	ref, err := ParseReference("${static:hello world}")
	require.NoError(t, err)
	assert.Equal(t, ReferenceStatic, ref.Kind)
	assert.Equal(t, "hello world", ref.Path)
	assert.Empty(t, ref.ID)
}

func TestParseReferenceTrigger(t *testing.T) {
	ref, err := ParseReference("${trigger:payload.email}")
	require.NoError(t, err)
	assert.Equal(t, ReferenceTrigger, ref.Kind)
	assert.Equal(t, "payload.email", ref.Path)
	assert.Empty(t, ref.ID)
}

func TestParseReferenceNodeWithPath(t *testing.T) {
	ref, err := ParseReference("${node:n1.output.items[0].name}")
	require.NoError(t, err)
	assert.Equal(t, ReferenceNode, ref.Kind)
	assert.Equal(t, "n1", ref.ID)
	assert.Equal(t, "output.items[0].name", ref.Path)
}

func TestParseReferenceNodeWithoutPath(t *testing.T) {
	ref, err := ParseReference("${credential:cred-123}")
	require.NoError(t, err)
	assert.Equal(t, ReferenceCredential, ref.Kind)
	assert.Equal(t, "cred-123", ref.ID)
	assert.Empty(t, ref.Path)
}

func TestParseReferenceRejectsUnknownKind(t *testing.T) {
	_, err := ParseReference("${bogus:x}")
	assert.Error(t, err)
}

func TestParseReferenceRejectsMalformedBody(t *testing.T) {
	_, err := ParseReference("${nocolonhere}")
	assert.Error(t, err)
}

func TestReferenceRenderRoundTrips(t *testing.T) {
	cases := []string{
		"${static:literal value}",
		"${trigger:payload.email}",
		"${node:n1.output.items[0].name}",
		"${credential:cred-123}",
		"${value:var-1}",
		"${database:db-1}",
		"${file:file-1.content}",
	}
	for _, token := range cases {
		ref, err := ParseReference(token)
		require.NoError(t, err)
		assert.Equal(t, token, ref.Render())
	}
}

func TestSplitPath(t *testing.T) {
	cases := []struct {
		path string
		want []string
	}{
		{"", nil},
		{"data", []string{"data"}},
		{"data.items", []string{"data", "items"}},
		{"data.items[0].name", []string{"data", "items", "[0]", "name"}},
		{"items[0][1]", []string{"items", "[0]", "[1]"}},
		{"[0].name", []string{"[0]", "name"}},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.want, SplitPath(tc.path))
		})
	}
}
