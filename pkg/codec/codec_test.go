package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type movie struct {
	Title string `json:"title"`
	Year  int    `json:"year"`
}

func TestJSONStrict(t *testing.T) {
	var m movie
	require.NoError(t, JSONStrict.Unmarshal([]byte(`{"title":"Heat","year":1995}`), &m))
	assert.Equal(t, movie{Title: "Heat", Year: 1995}, m)

	assert.Error(t, JSONStrict.Unmarshal([]byte(`{"title":"Heat","rating":9}`), &m))
	assert.Error(t, JSONStrict.Unmarshal([]byte(`{"title":"Heat"} {}`), &m))
}

func TestJSON_Deterministic(t *testing.T) {
	v := map[string]any{"zeta": 1, "alpha": "<b>", "mid": []int{3, 1}}
	first, err := JSON.Marshal(v)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := JSON.Marshal(v)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, `{"alpha":"<b>","mid":[3,1],"zeta":1}`, string(first))
}

func TestTOML_WrapsScalars(t *testing.T) {
	out, err := TOML.Marshal([]string{"a", "b"})
	require.NoError(t, err)

	var back map[string][]string
	require.NoError(t, TOML.Unmarshal(out, &back))
	assert.Equal(t, []string{"a", "b"}, back["value"])
}

func TestYAML_RoundTripMap(t *testing.T) {
	out, err := YAML.Marshal(map[string]int{"b": 2, "a": 1})
	require.NoError(t, err)

	var back map[string]int
	require.NoError(t, YAML.Unmarshal(out, &back))
	assert.Equal(t, map[string]int{"a": 1, "b": 2}, back)
}

func TestRegistry(t *testing.T) {
	r := Default()
	assert.Equal(t, []string{"json", "toml", "yaml"}, r.Names())

	c, ok := r.ForAccept("text/html, application/yaml;q=0.9, */*")
	require.True(t, ok)
	assert.Equal(t, "application/yaml", c.ContentType())

	_, ok = r.ForAccept("text/html")
	assert.False(t, ok)

	assert.Equal(t, "application/json", r.DefaultCodec().ContentType())
	assert.Error(t, r.Register("json", JSON))
	assert.Error(t, r.Register("", JSON))
}
