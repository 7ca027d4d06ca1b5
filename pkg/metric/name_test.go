package metric

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameMarshal(t *testing.T) {
	tt := []struct {
		name   string
		n      string
		labels map[string]string
		exp    string
	}{
		{name: "no labels", n: "etu_stage", exp: "etu_stage"},
		{name: "labels", n: "etu_stage", labels: map[string]string{"neuron": "7", "mode": "truncate"}, exp: "etu_stage[mode=truncate neuron=7]"},
		{name: "label with spaces", n: "etu_stage", labels: map[string]string{"layer": "conv 1"}, exp: "etu_stage[layer=\"conv 1\"]"},
		{name: "labels with annotations", n: "etu_stage", labels: map[string]string{"neuron": "7", "simulated": ""}, exp: "etu_stage[neuron=7 @simulated]"},
		{name: "annotations only", n: "etu_stage", labels: map[string]string{"simulated": "", "debug": ""}, exp: "etu_stage[@debug @simulated]"},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.exp, NewName(tc.n, tc.labels).String())
		})
	}
}

func TestNameIsImmutable(t *testing.T) {
	labels := map[string]string{"neuron": "1"}
	n := NewName("etu_stage", labels)
	labels["neuron"] = "2"
	assert.Equal(t, "etu_stage[neuron=1]", n.String())

	m := n.With("neuron", "3").Annotate("simulated")
	assert.Equal(t, "etu_stage[neuron=1]", n.String())
	assert.Equal(t, "etu_stage[neuron=3 @simulated]", m.String())
	assert.Equal(t, "etu_stage", m.Base())
}
