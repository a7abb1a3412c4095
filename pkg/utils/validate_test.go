package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name string `json:"name" validate:"required"`
	Kind string `json:"kind" validate:"omitempty,oneof=sale rent"`
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(sample{Name: "래미안"}))

	err := Validate(sample{Kind: "lease"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'Name' failed rule 'required'")
	assert.Contains(t, err.Error(), "field 'Kind' failed rule 'oneof' (sale rent)")
}
