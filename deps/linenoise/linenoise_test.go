package linenoise

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFirstWord(t *testing.T) {
	complete := firstWord([]string{"help", "HELLO", "decode", ":output"})

	assert.Equal(t, []string{"help", "HELLO"}, complete("he"))
	assert.Equal(t, []string{"help", "HELLO"}, complete("HE"))
	assert.Equal(t, []string{":output"}, complete(":"))
	assert.Len(t, complete(""), 4)
	assert.Nil(t, complete("decode x"))
	assert.Nil(t, complete("zz"))
}
