package config

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_DefaultDocument(t *testing.T) {
	errs := Validate(Default())
	assert.False(t, errs.HasErrors(), errs.Error())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(doc *Document)
		wantErr string
	}{
		{
			name:    "no agents",
			mutate:  func(doc *Document) { doc.Agents = map[string]Agent{}; doc.Channels = map[string]Channel{} },
			wantErr: "at least one agent is required",
		},
		{
			name:    "no providers",
			mutate:  func(doc *Document) { doc.Providers = map[string]Provider{}; doc.Agents["default"] = NewAgent() },
			wantErr: "at least one provider is required",
		},
		{
			name: "dangling provider reference",
			mutate: func(doc *Document) {
				a := doc.Agents["default"]
				a.Provider = "missing"
				doc.Agents["default"] = a
			},
			wantErr: `references unknown provider "missing"`,
		},
		{
			name: "dangling agent reference",
			mutate: func(doc *Document) {
				c := doc.Channels["webTest"]
				c.Agent = "ghost"
				doc.Channels["webTest"] = c
			},
			wantErr: `references unknown agent "ghost"`,
		},
		{
			name: "negative temperature",
			mutate: func(doc *Document) {
				a := doc.Agents["default"]
				a.Temperature = -1
				doc.Agents["default"] = a
			},
			wantErr: "must be a non-negative number",
		},
		{
			name: "NaN temperature",
			mutate: func(doc *Document) {
				a := doc.Agents["default"]
				a.Temperature = math.NaN()
				doc.Agents["default"] = a
			},
			wantErr: "must be a non-negative number",
		},
		{
			name: "unknown provider type",
			mutate: func(doc *Document) {
				doc.Providers["myProvider"] = Provider{Type: "llama"}
			},
			wantErr: "must be one of",
		},
		{
			name: "unknown channel type",
			mutate: func(doc *Document) {
				doc.Channels["slack"] = Channel{Type: "slack", Agent: "default"}
			},
			wantErr: "must be one of",
		},
		{
			name: "overlong name",
			mutate: func(doc *Document) {
				doc.Agents[strings.Repeat("a", 101)] = NewAgent()
			},
			wantErr: "must not exceed 100 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := Default()
			tt.mutate(doc)
			errs := Validate(doc)
			require.True(t, errs.HasErrors())
			assert.Contains(t, errs.Error(), tt.wantErr)
		})
	}
}

func TestValidate_EmptyReferencesAllowed(t *testing.T) {
	doc := Default()
	doc.Agents["spare"] = NewAgent()
	doc.Providers["blank"] = NewProvider()
	doc.Channels["unbound"] = Channel{Type: ChannelFeishu}

	errs := Validate(doc)
	assert.False(t, errs.HasErrors(), errs.Error())
}

func TestValidate_Nil(t *testing.T) {
	assert.True(t, Validate(nil).HasErrors())
}

func TestValidationErrors_Error(t *testing.T) {
	var errs ValidationErrors
	assert.Equal(t, "no validation errors", errs.Error())

	errs.Add("agents.a", "bad")
	assert.Equal(t, "field 'agents.a': bad", errs.Error())

	errs.Add("", "worse")
	assert.Equal(t, "validation failed: field 'agents.a': bad; worse", errs.Error())
}

func TestValidateEntityName(t *testing.T) {
	assert.NoError(t, ValidateEntityName("writer", "agent"))
	assert.Error(t, ValidateEntityName("", "agent"))
	assert.NoError(t, ValidateEntityName("two words", "agent"))
	assert.Error(t, ValidateEntityName(strings.Repeat("x", 101), "agent"))
}

func TestValidateOneOf(t *testing.T) {
	assert.NoError(t, ValidateOneOf("type", "web", []string{"web", "feishu"}))
	err := ValidateOneOf("type", "irc", []string{"web", "feishu"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "web, feishu")
}
