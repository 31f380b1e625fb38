package veo

import (
	"fmt"
	"regexp"
	"strings"
)

// IDKind classifies the remote operation identifier. The provider assigns IDs
// in two incompatible formats and each format polls a structurally different
// endpoint, so the shape is re-derived from the ID itself on every poll.
type IDKind int

const (
	// IDNumeric is a short integer-like ID polled via the flat operations path.
	IDNumeric IDKind = iota
	// IDUUID is a UUID-shaped ID polled via the publisher/model-scoped path.
	IDUUID
)

var uuidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// OperationRef is the parsed form of the slash-delimited operation name
// returned by the start call.
type OperationRef struct {
	Name  string
	ID    string
	Kind  IDKind
	Model string
}

// ParseOperationRef extracts the trailing operation ID from the remote
// operation name, classifies its shape, and recovers the model identifier
// from the path when present, falling back to defaultModel.
func ParseOperationRef(name, defaultModel string) (OperationRef, error) {
	trimmed := strings.Trim(strings.TrimSpace(name), "/")
	if trimmed == "" {
		return OperationRef{}, fmt.Errorf("veo: empty operation name")
	}
	segments := strings.Split(trimmed, "/")
	id := segments[len(segments)-1]
	if id == "" {
		return OperationRef{}, fmt.Errorf("veo: operation name %q has no id segment", name)
	}

	ref := OperationRef{Name: trimmed, ID: id, Kind: IDNumeric, Model: defaultModel}
	if uuidPattern.MatchString(id) {
		ref.Kind = IDUUID
	}
	for i, segment := range segments {
		if segment == "models" && i+1 < len(segments) {
			ref.Model = segments[i+1]
			break
		}
	}
	return ref, nil
}
