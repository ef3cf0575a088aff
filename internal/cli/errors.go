package cli

import (
	"fmt"
	"strconv"
	"strings"
)

type invalidArgError struct {
	name  string
	value string
	why   string
}

func (e invalidArgError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.name, e.value, e.why)
}

func errInvalidArg(name, value, why string) error {
	return invalidArgError{name: name, value: value, why: why}
}

type notFoundError struct {
	kind string
	id   string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.kind, e.id)
}

func errNotFound(kind, id string) error {
	return notFoundError{kind: kind, id: id}
}

func parseNodeID(name, s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id < 0 {
		return 0, errInvalidArg(name, s, "want a non-negative integer")
	}
	return id, nil
}

// splitPair parses key=value.
func splitPair(name, s string) (string, string, error) {
	k, v, ok := strings.Cut(s, "=")
	k = strings.TrimSpace(k)
	if !ok || k == "" {
		return "", "", errInvalidArg(name, s, "want key=value")
	}
	return k, v, nil
}
