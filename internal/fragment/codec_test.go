package fragment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	f := &Fragment{
		Name:         "active_users",
		Kind:         KindCTE,
		Text:         "SELECT * FROM users WHERE active",
		Dependencies: []string{"users"},
		Description:  "Users with recent activity",
		Columns:      []string{"id", "name"},
	}

	content, err := Encode(f)
	require.NoError(t, err)
	assert.Contains(t, content, "/*---")
	assert.Contains(t, content, "dependencies: [users]")

	got, err := Decode(content)
	require.NoError(t, err)
	assert.Equal(t, f.Name, got.Name)
	assert.Equal(t, f.Kind, got.Kind)
	assert.Equal(t, f.Text, got.Text)
	assert.Equal(t, f.Dependencies, got.Dependencies)
	assert.Equal(t, f.Description, got.Description)
	assert.Equal(t, f.Columns, got.Columns)
}

func TestDecode_NoHeader(t *testing.T) {
	got, err := Decode("SELECT 1\n")
	require.NoError(t, err)

	assert.Empty(t, got.Name)
	assert.Equal(t, KindCTE, got.Kind)
	assert.Equal(t, "SELECT 1", got.Text)
	assert.Empty(t, got.Dependencies)
}

func TestDecode_MainKind(t *testing.T) {
	got, err := Decode("/*---\nname: main\nkind: main\ndependencies: [a]\n---*/\nSELECT * FROM a")
	require.NoError(t, err)

	assert.Equal(t, KindMain, got.Kind)
	assert.Equal(t, []string{"a"}, got.Dependencies)
}

func TestDecode_MalformedDependenciesDegrade(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"scalar instead of list", "dependencies: users"},
		{"nested lists", "dependencies: [[a], [b]]"},
		{"non-identifier entry", `dependencies: ["not a name!"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode("/*---\nname: f\n" + tt.header + "\n---*/\nSELECT 1")
			require.NoError(t, err)

			assert.Equal(t, "f", got.Name)
			assert.Equal(t, []string{}, got.Dependencies)
			assert.Equal(t, "SELECT 1", got.Text)
		})
	}
}

func TestDecode_InvalidHeaderYAML(t *testing.T) {
	_, err := Decode("/*---\nname: [unclosed\n---*/\nSELECT 1")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		f       *Fragment
		wantErr bool
	}{
		{"valid cte", &Fragment{Name: "a", Kind: KindCTE, Text: "SELECT 1"}, false},
		{"valid main", &Fragment{Name: "q", Kind: KindMain, Text: "SELECT 1", Dependencies: []string{"a"}}, false},
		{"bad name", &Fragment{Name: "1abc", Kind: KindCTE, Text: "SELECT 1"}, true},
		{"empty body", &Fragment{Name: "a", Kind: KindCTE}, true},
		{"self dependency", &Fragment{Name: "a", Kind: KindCTE, Text: "SELECT 1", Dependencies: []string{"a"}}, true},
		{"unknown kind", &Fragment{Name: "a", Kind: "view", Text: "SELECT 1"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.f.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
