package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONSchema(t *testing.T) {
	data, err := JSONSchema()
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, `"Agent"`)
	assert.Contains(t, s, `"Channel"`)
	assert.Contains(t, s, `"feishu"`)
	assert.Contains(t, s, `"api_key"`)
}

func TestValidateSchema(t *testing.T) {
	require.NoError(t, ValidateSchema(Default()))

	doc := Default()
	doc.Providers["blank"] = NewProvider()
	assert.NoError(t, ValidateSchema(doc), "providers start without a type")

	doc = Default()
	doc.Providers["bad"] = Provider{Type: "llama"}
	assert.Error(t, ValidateSchema(doc))

	doc = Default()
	doc.Agents["cold"] = Agent{Temperature: -0.5}
	assert.Error(t, ValidateSchema(doc))

	doc = Default()
	doc.Channels["irc"] = Channel{Type: "irc"}
	assert.Error(t, ValidateSchema(doc))
}
