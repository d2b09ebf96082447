package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manifestLike struct {
	Version int     `json:"version"`
	Modes   []int   `json:"modes"`
	Shapes  [][]int `json:"shapes"`
	Method  string  `json:"center_method"`
}

func TestCodecs(t *testing.T) {
	in := manifestLike{Version: 1, Modes: []int{3, 3}, Shapes: [][]int{{4, 2}, {5, 2}}, Method: "mean"}

	for _, name := range []string{"json", "go-json"} {
		t.Run(name, func(t *testing.T) {
			c, err := ByName(name)
			require.NoError(t, err)
			assert.Equal(t, name, c.Name())

			b, err := c.Marshal(in)
			require.NoError(t, err)

			var out manifestLike
			require.NoError(t, c.Unmarshal(b, &out))
			assert.Equal(t, in, out)
		})
	}
}

func TestByName(t *testing.T) {
	c, err := ByName("")
	require.NoError(t, err)
	assert.Equal(t, Default.Name(), c.Name())

	_, err = ByName("msgpack")
	require.Error(t, err)
}

func TestCodecs_SameBytes(t *testing.T) {
	in := manifestLike{Version: 2, Modes: []int{1}, Method: "zero"}
	a, err := JSON{}.Marshal(in)
	require.NoError(t, err)
	b, err := GoJSON{}.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}
