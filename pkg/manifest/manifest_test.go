package manifest

import (
	"testing"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeydtaylor/steeze-desk/pkg/route"
)

const sample = `
[host]
title = "Movies"
width = 800

[[scheme]]
name = "APP"
domain = "Local"

[[scheme]]
name = "https"
domain = "cdn.example.com"
external = true

[[module]]
name = "movies"

  [[module.route]]
  path = "api/movies/{id}"
  handler = { name = "movies.get" }
  policy = { timeout_ms = 250 }

    [[module.route.param]]
    name = "id"
    type = "int"
    source = "path"
    required = true

  [[module.route]]
  method = "post"
  path = "/api/movies"
  codec = "YAML"
  handler = { type = "inproc", name = "movies.create" }
`

func decode(t *testing.T, s string) Config {
	t.Helper()
	var cfg Config
	require.NoError(t, toml.Unmarshal([]byte(s), &cfg))
	return cfg
}

func TestValidate_Normalizes(t *testing.T) {
	cfg := decode(t, sample)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultStartURL, cfg.Host.StartURL)
	assert.Equal(t, 800, cfg.Host.Width)
	assert.Equal(t, DefaultHeight, cfg.Host.Height)
	assert.Equal(t, "info", cfg.Host.LogSeverity)

	assert.Equal(t, "app", cfg.Schemes[0].Name)
	assert.Equal(t, "local", cfg.Schemes[0].Domain)
	assert.True(t, cfg.Schemes[1].External)

	m := cfg.Modules[0]
	assert.Equal(t, "movies", m.Service)
	get := m.Routes[0]
	assert.Equal(t, "/api/movies/{id}", get.Path)
	assert.Equal(t, "GET", get.Method)
	assert.Equal(t, HandlerFunc, get.Handler.Type)
	assert.Equal(t, "movies.get", get.Name)
	assert.Equal(t, []route.Param{{Name: "id", Type: route.TypeInt, Source: route.FromPath, Required: true}}, get.RouteParams())

	create := m.Routes[1]
	assert.Equal(t, "POST", create.Method)
	assert.Equal(t, "yaml", create.Codec)
	assert.Equal(t, HandlerInproc, create.Handler.Type)
}

func TestValidate_Errors(t *testing.T) {
	cases := map[string]string{
		"duplicate scheme": `
[[scheme]]
name = "app"
domain = "local"
[[scheme]]
name = "APP"
domain = "LOCAL"`,
		"unnamed module": `
[[module]]
[[module.route]]
path = "/x"
handler = { name = "x" }`,
		"bad verb": `
[[module]]
name = "m"
[[module.route]]
path = "/x"
method = "PATCH"
handler = { name = "x" }`,
		"missing handler": `
[[module]]
name = "m"
[[module.route]]
path = "/x"`,
		"bad source": `
[[module]]
name = "m"
[[module.route]]
path = "/x"
handler = { name = "x" }
[[module.route.param]]
name = "a"
source = "cookie"`,
		"bad severity": `
[host]
log_severity = "loud"`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := decode(t, body)
			assert.Error(t, cfg.Validate())
		})
	}
}
