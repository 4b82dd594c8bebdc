package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// Environment variables that seed flag defaults.
const (
	EndpointEnvVar = "YOCTL_ENDPOINT"
	TokenEnvVar    = "YOCTL_TOKEN"
)

// CommandFlags holds the persistent flag values shared by every command.
type CommandFlags struct {
	// OutputFormat specifies the desired output format (table, wide, json, yaml, template)
	OutputFormat string
	// Template is the Go template used with -o template
	Template string
	// NoHeaders suppresses the header row in table output
	NoHeaders bool
	// Quiet suppresses progress indicators and non-essential output
	Quiet bool
	// Debug enables debug logging
	Debug bool
	// Endpoint overrides the manager endpoint URL
	Endpoint string
	// Token overrides the access token
	Token string
	// Context specifies a named context to use for endpoint resolution
	Context string
}

// RegisterCommonFlags registers the shared flags as persistent flags of cmd.
//
// The registered flags are:
//   - --output/-o: Output format (table, wide, json, yaml, template), default: "table"
//   - --template: Go template for -o template
//   - --no-headers: Suppress header row in table output
//   - --quiet/-q: Suppress non-essential output
//   - --debug: Enable debug logging
//   - --endpoint: Manager endpoint URL (env: YOCTL_ENDPOINT)
//   - --token: Access token (env: YOCTL_TOKEN)
//   - --context: Use a specific context (env: YOCTL_CONTEXT)
func RegisterCommonFlags(cmd *cobra.Command, flags *CommandFlags) {
	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.OutputFormat, "output", "o", "", "Output format (table, wide, json, yaml, template)")
	pf.StringVar(&flags.Template, "template", "", "Go template for -o template (sprig functions available)")
	pf.BoolVar(&flags.NoHeaders, "no-headers", false, "Suppress header row in table output")
	pf.BoolVarP(&flags.Quiet, "quiet", "q", false, "Suppress non-essential output")
	pf.BoolVar(&flags.Debug, "debug", false, "Enable debug logging")
	pf.StringVar(&flags.Endpoint, "endpoint", "", "Manager endpoint URL (env: YOCTL_ENDPOINT)")
	pf.StringVar(&flags.Token, "token", "", "Access token (env: YOCTL_TOKEN)")
	pf.StringVar(&flags.Context, "context", "", "Use a specific context (env: YOCTL_CONTEXT)")
}

// ApplyEnvDefaults fills empty endpoint and token values from the
// environment. It runs after flag parsing so a .env file loaded at startup is
// honored.
func (f *CommandFlags) ApplyEnvDefaults() {
	if f.Endpoint == "" {
		f.Endpoint = os.Getenv(EndpointEnvVar)
	}
	if f.Token == "" {
		f.Token = os.Getenv(TokenEnvVar)
	}
}

// PrinterOptions builds printer options from the flags. When no output
// format was given, the context default applies, then table.
func (f *CommandFlags) PrinterOptions(contextDefault string) (PrinterOptions, error) {
	format := f.OutputFormat
	if format == "" {
		format = contextDefault
	}
	if format == "" {
		format = string(OutputFormatTable)
	}
	if err := ValidateOutputFormat(format); err != nil {
		return PrinterOptions{}, err
	}
	if OutputFormat(format) == OutputFormatTemplate && f.Template == "" {
		return PrinterOptions{}, errMissingTemplate
	}

	return PrinterOptions{
		Format:    OutputFormat(format),
		Template:  f.Template,
		NoHeaders: f.NoHeaders,
		Quiet:     f.Quiet,
	}, nil
}
