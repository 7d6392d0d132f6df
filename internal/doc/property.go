package doc

import (
	"errors"
	"fmt"
	"strings"
)

// ErrPropertyArgs is returned for property topic arguments that do not have
// the form "type [Module::][Type::]name".
var ErrPropertyArgs = errors.New("malformed property arguments")

// PropertyArgs is the parsed argument of a \qmlproperty or
// \qmlattachedproperty topic.
type PropertyArgs struct {
	Type     string
	Module   string
	TypeName string
	Name     string
	List     bool
}

// ParsePropertyArgs parses arguments such as "list<Item> QtQuick::Item::children".
// A list<T> type is reported with List set and Type holding T.
func ParsePropertyArgs(args string) (PropertyArgs, error) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return PropertyArgs{}, fmt.Errorf("%w: %q", ErrPropertyArgs, args)
	}

	pa := PropertyArgs{Type: fields[0]}
	if inner, ok := strings.CutPrefix(pa.Type, "list<"); ok && strings.HasSuffix(inner, ">") {
		pa.Type = strings.TrimSuffix(inner, ">")
		pa.List = true
	}
	if pa.Type == "" {
		return PropertyArgs{}, fmt.Errorf("%w: empty type in %q", ErrPropertyArgs, args)
	}

	parts := strings.Split(fields[1], "::")
	for _, p := range parts {
		if p == "" {
			return PropertyArgs{}, fmt.Errorf("%w: %q", ErrPropertyArgs, args)
		}
	}
	switch len(parts) {
	case 1:
		pa.Name = parts[0]
	case 2:
		pa.TypeName, pa.Name = parts[0], parts[1]
	case 3:
		pa.Module, pa.TypeName, pa.Name = parts[0], parts[1], parts[2]
	default:
		return PropertyArgs{}, fmt.Errorf("%w: too many qualifiers in %q", ErrPropertyArgs, args)
	}
	return pa, nil
}
