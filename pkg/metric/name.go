package metric

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/go-logfmt/logfmt"
)

// Name identifies a metric.  Labels are appended to the base name in a modified logfmt, e.g.
// etu_stage[mode=truncate neuron=7 @simulated].  Labels with an empty value are rendered as
// annotations prefixed with @.  A Name is immutable; With and Annotate return copies.
type Name struct {
	name   string
	labels map[string]string
}

// NewName returns a name with a copy of labels
func NewName(name string, labels map[string]string) Name {
	n := Name{name: name, labels: make(map[string]string, len(labels))}
	for k, v := range labels {
		n.labels[k] = v
	}
	return n
}

// Base returns the name without labels
func (n Name) Base() string {
	return n.name
}

// With returns a copy of the name with key set to value
func (n Name) With(key, value string) Name {
	c := NewName(n.name, n.labels)
	c.labels[key] = value
	return c
}

// Annotate returns a copy of the name with each annotation added
func (n Name) Annotate(ann ...string) Name {
	c := NewName(n.name, n.labels)
	for _, a := range ann {
		c.labels[a] = ""
	}
	return c
}

// String renders the name with its labels
func (n Name) String() string {
	md, err := MarshalText(n.labels)
	if err != nil {
		return n.name
	}
	return n.name + string(md)
}

// MarshalText encodes labels as [k=v ... @ann ...] with keys and annotations each in sorted
// order.  Empty label sets encode to nothing.
func MarshalText(labels map[string]string) ([]byte, error) {
	if len(labels) == 0 {
		return []byte{}, nil
	}
	keys := make([]string, 0, len(labels))
	ann := make([]string, 0, len(labels))
	for k, v := range labels {
		switch v {
		case "":
			ann = append(ann, "@"+k)
		default:
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	sort.Strings(ann)

	var b bytes.Buffer
	b.WriteString("[")
	e := logfmt.NewEncoder(&b)
	for _, k := range keys {
		if err := e.EncodeKeyval(k, labels[k]); err != nil {
			return nil, fmt.Errorf("failed to encode %s=%s: %w", k, labels[k], err)
		}
	}
	if len(keys) > 0 && len(ann) > 0 {
		b.WriteString(" ")
	}
	b.WriteString(strings.Join(ann, " "))
	b.WriteString("]")
	return b.Bytes(), nil
}
