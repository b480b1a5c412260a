package fragment

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Fragments serialize as a /*--- ... ---*/ header block followed by
// the raw SQL body:
//
//	/*---
//	name: active_users
//	kind: cte
//	description: Users with recent activity
//	dependencies: [users, sessions]
//	---*/
//	SELECT ...
//
// The header is YAML; dependencies use flow style so the list reads as
// a JSON array.

// headerPattern matches /*--- ... ---*/ blocks at the start of a file.
var headerPattern = regexp.MustCompile(`(?s)^\s*/\*---\s*\n(.*?)\s*---\*/`)

type header struct {
	Name         string   `yaml:"name"`
	Kind         string   `yaml:"kind,omitempty"`
	Description  string   `yaml:"description,omitempty"`
	Dependencies []string `yaml:"dependencies,flow"`
	Columns      []string `yaml:"columns,flow,omitempty"`
}

// Encode renders a fragment to its file form.
func Encode(f *Fragment) (string, error) {
	h := header{
		Name:         f.Name,
		Kind:         string(f.Kind),
		Description:  f.Description,
		Dependencies: f.Dependencies,
		Columns:      f.Columns,
	}
	if h.Dependencies == nil {
		h.Dependencies = []string{}
	}

	meta, err := yaml.Marshal(&h)
	if err != nil {
		return "", fmt.Errorf("encode fragment %s: %w", f.Name, err)
	}

	var b strings.Builder
	b.WriteString("/*---\n")
	b.Write(meta)
	b.WriteString("---*/\n")
	b.WriteString(f.Text)
	if !strings.HasSuffix(f.Text, "\n") {
		b.WriteString("\n")
	}
	return b.String(), nil
}

// Decode parses the file form back into a fragment. A missing header
// yields a fragment with only the body set; the caller fills in the
// name (typically from the filename). Malformed dependency lists
// degrade to an empty list rather than failing the read, so a
// hand-edited file never becomes unreadable.
func Decode(content string) (*Fragment, error) {
	f := &Fragment{
		Kind: KindCTE,
		Text: strings.TrimSpace(content),
	}

	matches := headerPattern.FindStringSubmatch(content)
	if len(matches) < 2 {
		return f, nil
	}
	f.Text = strings.TrimSpace(headerPattern.ReplaceAllString(content, ""))

	// The scalar fields and the dependency list are decoded
	// separately: a bad dependencies value must not take the rest of
	// the header down with it.
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal([]byte(matches[1]), &raw); err != nil {
		return nil, fmt.Errorf("invalid fragment header: %w", err)
	}

	decodeString(raw, "name", &f.Name)
	decodeString(raw, "description", &f.Description)

	var kind string
	decodeString(raw, "kind", &kind)
	if kind == string(KindMain) {
		f.Kind = KindMain
	}

	f.Dependencies = decodeNameList(raw, "dependencies")
	if cols := decodeNameList(raw, "columns"); len(cols) > 0 {
		f.Columns = cols
	}
	return f, nil
}

func decodeString(raw map[string]yaml.Node, key string, dst *string) {
	node, ok := raw[key]
	if !ok {
		return
	}
	_ = node.Decode(dst)
}

// decodeNameList decodes a list of identifiers. Anything malformed, a
// scalar where a list belongs or a non-identifier entry, degrades to
// an empty list.
func decodeNameList(raw map[string]yaml.Node, key string) []string {
	node, ok := raw[key]
	if !ok {
		return []string{}
	}
	var names []string
	if err := node.Decode(&names); err != nil {
		return []string{}
	}
	for _, name := range names {
		if !ValidName.MatchString(name) {
			return []string{}
		}
	}
	if names == nil {
		names = []string{}
	}
	return names
}
