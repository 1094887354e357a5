package model

import (
	"fmt"
	"regexp"
	"strings"
)

// ReferenceKind is the closed set of reference variants a parameter value
// may point at. This is the Go-native replacement for the source's
// stringly-typed ref_type dispatch (Design Notes §9): the string body
// parser below is the only place that still touches the textual form.
type ReferenceKind string

const (
	ReferenceStatic     ReferenceKind = "static"
	ReferenceTrigger    ReferenceKind = "trigger"
	ReferenceNode       ReferenceKind = "node"
	ReferenceValue      ReferenceKind = "value"
	ReferenceCredential ReferenceKind = "credential"
	ReferenceDatabase   ReferenceKind = "database"
	ReferenceFile       ReferenceKind = "file"
)

var validReferenceKinds = map[ReferenceKind]bool{
	ReferenceStatic:     true,
	ReferenceTrigger:    true,
	ReferenceNode:       true,
	ReferenceValue:      true,
	ReferenceCredential: true,
	ReferenceDatabase:   true,
	ReferenceFile:       true,
}

// Reference is a parsed `${kind:body}` token. ID is empty for static (whole
// body is the literal, carried in Path) and for trigger (whole body is the
// dotted path, carried in Path with ID empty); every other kind splits the
// body on the first '.' into an identifier and an optional path.
type Reference struct {
	Kind ReferenceKind
	ID   string
	Path string // dotted path + [i] segments, empty if none
}

var bracketSplit = regexp.MustCompile(`(\[.*?\])`)

// IsReference reports whether a raw parameter value is a reference token:
// a string starting with "${", ending with "}", containing a ':'.
func IsReference(value any) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}
	return strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") && strings.Contains(s, ":")
}

// ParseReference parses the exact `${kind:body}` shape described in §4.3.
func ParseReference(token string) (Reference, error) {
	inner := strings.TrimSuffix(strings.TrimPrefix(token, "${"), "}")
	parts := strings.SplitN(inner, ":", 2)
	if len(parts) != 2 {
		return Reference{}, InvalidInput("reference", fmt.Sprintf("malformed reference token %q", token))
	}
	kind := ReferenceKind(parts[0])
	identifierPath := parts[1]

	if !validReferenceKinds[kind] {
		return Reference{}, InvalidInput("reference", fmt.Sprintf("unknown reference kind %q", parts[0]))
	}

	switch kind {
	case ReferenceStatic:
		return Reference{Kind: kind, Path: identifierPath}, nil
	case ReferenceTrigger:
		return Reference{Kind: kind, Path: identifierPath}, nil
	default:
		if idx := strings.Index(identifierPath, "."); idx >= 0 {
			return Reference{Kind: kind, ID: identifierPath[:idx], Path: identifierPath[idx+1:]}, nil
		}
		return Reference{Kind: kind, ID: identifierPath}, nil
	}
}

// Render reconstructs the textual `${kind:body}` form of a Reference. For
// static/trigger the whole Path is the body; otherwise ID and Path are
// joined with '.' when both are present.
func (r Reference) Render() string {
	switch r.Kind {
	case ReferenceStatic, ReferenceTrigger:
		return fmt.Sprintf("${%s:%s}", r.Kind, r.Path)
	default:
		if r.Path == "" {
			return fmt.Sprintf("${%s:%s}", r.Kind, r.ID)
		}
		return fmt.Sprintf("${%s:%s.%s}", r.Kind, r.ID, r.Path)
	}
}

// SplitPath tokenizes a dotted path with [i] array-index segments, e.g.
// "data.items[0].name" -> ["data", "items", "[0]", "name"]. It mirrors the
// source's `re.split(r'(\[.*?\])', path)` followed by a '.'-split of every
// non-bracket remainder.
func SplitPath(path string) []string {
	if path == "" {
		return nil
	}

	matches := bracketSplit.FindAllStringIndex(path, -1)
	var parts []string
	pos := 0
	for _, m := range matches {
		for _, p := range strings.Split(path[pos:m[0]], ".") {
			if p != "" {
				parts = append(parts, p)
			}
		}
		parts = append(parts, path[m[0]:m[1]])
		pos = m[1]
	}
	for _, p := range strings.Split(path[pos:], ".") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
