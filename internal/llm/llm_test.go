package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNewAnthropic_DisabledWithoutKey(t *testing.T) {
	assert.Nil(t, NewAnthropic("", "", zap.NewNop()))
	assert.NotNil(t, NewAnthropic("sk-test", "", nil))
}

func TestExtractJSON(t *testing.T) {
	cases := map[string]string{
		`{"a":1}`:                             `{"a":1}`,
		"Sure!\n```json\n{\"a\":{\"b\":2}}\n```": `{"a":{"b":2}}`,
		"prefix {\"x\": [1,2]} suffix":          `{"x": [1,2]}`,
	}

	for in, want := range cases {
		got, ok := ExtractJSON(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got)
	}

	_, ok := ExtractJSON("no json here")
	assert.False(t, ok)
}

func TestUser(t *testing.T) {
	assert.Equal(t, []Message{{Role: "user", Text: "hi"}}, User("hi"))
}
