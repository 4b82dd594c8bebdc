package config

import (
	"fmt"
	"math"
	"strings"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// ValidateOneOf checks if a value is in a list of allowed values
func ValidateOneOf(field, value string, allowed []string) error {
	for _, allowedValue := range allowed {
		if value == allowedValue {
			return nil
		}
	}
	return ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
	}
}

// ValidateEntityName checks the key used for an agent, provider or channel.
func ValidateEntityName(name, entityType string) error {
	if strings.TrimSpace(name) == "" {
		return ValidationError{
			Field:   "name",
			Value:   name,
			Message: fmt.Sprintf("is required for %s", entityType),
		}
	}
	if len(name) > 100 {
		return ValidationError{
			Field:   "name",
			Value:   name,
			Message: "must not exceed 100 characters",
		}
	}
	return nil
}

func providerTypeNames() []string {
	names := make([]string, 0, len(ProviderTypes))
	for _, t := range ProviderTypes {
		names = append(names, string(t))
	}
	return names
}

func channelTypeNames() []string {
	names := make([]string, 0, len(ChannelTypes))
	for _, t := range ChannelTypes {
		names = append(names, string(t))
	}
	return names
}

// Validate checks a document before it is written to the server. Besides
// field-level rules it enforces that agent.provider and channel.agent are
// either empty or name an existing entry.
func Validate(doc *Document) ValidationErrors {
	var errs ValidationErrors
	if doc == nil {
		errs.Add("", "document is empty")
		return errs
	}

	if len(doc.Agents) == 0 {
		errs.Add("agents", "at least one agent is required")
	}
	if len(doc.Providers) == 0 {
		errs.Add("providers", "at least one provider is required")
	}

	for _, name := range doc.ProviderNames() {
		p := doc.Providers[name]
		field := "providers." + name
		if err := ValidateEntityName(name, "provider"); err != nil {
			errs.Add(field, err.(ValidationError).Message, name)
		}
		if p.Type != "" {
			if err := ValidateOneOf(field+".type", string(p.Type), providerTypeNames()); err != nil {
				errs = append(errs, err.(ValidationError))
			}
		}
	}

	for _, name := range doc.AgentNames() {
		a := doc.Agents[name]
		field := "agents." + name
		if err := ValidateEntityName(name, "agent"); err != nil {
			errs.Add(field, err.(ValidationError).Message, name)
		}
		if a.Provider != "" && !doc.HasProvider(a.Provider) {
			errs.Add(field+".provider", fmt.Sprintf("references unknown provider %q", a.Provider), a.Provider)
		}
		if math.IsNaN(a.Temperature) || a.Temperature < 0 {
			errs.Add(field+".temperature", "must be a non-negative number", a.Temperature)
		}
	}

	for _, name := range doc.ChannelNames() {
		c := doc.Channels[name]
		field := "channels." + name
		if err := ValidateEntityName(name, "channel"); err != nil {
			errs.Add(field, err.(ValidationError).Message, name)
		}
		if err := ValidateOneOf(field+".type", string(c.Type), channelTypeNames()); err != nil {
			errs = append(errs, err.(ValidationError))
		}
		if c.Agent != "" && !doc.HasAgent(c.Agent) {
			errs.Add(field+".agent", fmt.Sprintf("references unknown agent %q", c.Agent), c.Agent)
		}
	}

	return errs
}
