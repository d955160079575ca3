package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubstitute(t *testing.T) {
	values := map[string]string{"name": "Anna", "day": "tuesday"}

	out, err := substitute("Hi {name}, see you on {day}!", values)
	require.NoError(t, err)
	assert.Equal(t, "Hi Anna, see you on tuesday!", out)

	out, err = substitute("no placeholders", values)
	require.NoError(t, err)
	assert.Equal(t, "no placeholders", out)

	_, err = substitute("missing {field}", values)
	require.Error(t, err)

	_, err = substitute("unterminated {name", values)
	require.Error(t, err)
}

func TestStringify(t *testing.T) {
	values := stringify(map[string]any{
		"name":  "mouse",
		"qty":   float64(3),
		"price": 9.5,
		"ok":    true,
	})

	assert.Equal(t, "mouse", values["name"])
	assert.Equal(t, "3", values["qty"])
	assert.Equal(t, "9.5", values["price"])
	assert.Equal(t, "true", values["ok"])
}
