package transform

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type movie struct {
	Title string
	Year  int
}

func TestApply_InOrder(t *testing.T) {
	r := New()
	require.NoError(t, Register[movie](r, "movie", "upper", func(m movie) (movie, error) {
		m.Title = strings.ToUpper(m.Title)
		return m, nil
	}))
	require.NoError(t, Register[movie](r, "movie", "suffix", func(m movie) (movie, error) {
		m.Title += "!"
		return m, nil
	}))

	out, err := r.Apply("movie", movie{Title: "heat"}, []string{"upper", "suffix"})
	require.NoError(t, err)
	assert.Equal(t, movie{Title: "HEAT!"}, out)

	out, err = r.Apply("movie", movie{Title: "heat"}, []string{"suffix", "upper"})
	require.NoError(t, err)
	assert.Equal(t, movie{Title: "HEAT!"}, out)

	assert.True(t, r.Has("movie", "upper"))
	assert.Equal(t, []string{"suffix", "upper"}, r.Names("movie"))
}

func TestApply_Errors(t *testing.T) {
	r := New()
	MustRegister[movie](r, "movie", "reject", func(m movie) (movie, error) {
		if m.Year < 1900 {
			return m, errors.New("year too early")
		}
		return m, nil
	})

	_, err := r.Apply("movie", movie{Year: 1800}, []string{"reject"})
	assert.ErrorContains(t, err, "year too early")

	_, err = r.Apply("movie", movie{}, []string{"missing"})
	assert.Error(t, err)

	_, err = r.Apply("film", movie{}, []string{"reject"})
	assert.Error(t, err)

	_, err = r.Apply("movie", &movie{}, []string{"reject"})
	assert.Error(t, err)

	assert.Error(t, Register[movie](r, "movie", "reject", func(m movie) (movie, error) { return m, nil }))
}

func TestApply_EmptyChainIsIdentity(t *testing.T) {
	out, err := New().Apply("anything", 42, nil)
	require.NoError(t, err)
	assert.Equal(t, 42, out)
}
