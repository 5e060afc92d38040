package console

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPromptText(t *testing.T) {
	assert.Equal(t, "reboot sensor? [N/y]: ", promptText("reboot sensor?", []string{No, Yes}))
}

func TestMatch(t *testing.T) {
	constraints := []string{No, Yes}
	assert.Equal(t, Yes, match("Y", constraints))
	assert.Equal(t, Yes, match(" y\n", constraints))
	assert.Equal(t, No, match("", constraints))
	assert.Equal(t, No, match("maybe", constraints))
}
