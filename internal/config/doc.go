// Package config holds the yoClaw runtime configuration document and the
// store that synchronizes it with the manager's /api/config endpoint.
//
// # Document
//
// A Document has four parts: agents, providers and channels (maps keyed by a
// unique name) and a singleton skill section. Agents reference providers by
// key and channels reference agents by key:
//
//	{
//	  "agents":    {"default": {"workspace": "~/.yoClaw/workspace", "provider": "myProvider", ...}},
//	  "providers": {"myProvider": {"type": "openai", "api_key": "sk-...", "base_url": ""}},
//	  "channels":  {"webTest": {"type": "web", "enabled": false, "agent": "default", "host_address": "localhost:8080"}},
//	  "skill":     {"global_path": "~/.yoClaw/skills", "builtin_path": "./skills"}
//	}
//
// # Store
//
// Store is the single owner of the in-memory Document. Load replaces it
// wholesale from the remote endpoint and notifies subscribers; a failed Load
// leaves the previous document untouched. Save writes the full document and
// reloads on success; a failed Save keeps the rejected document as pending so
// it can be retried without re-entering edits.
//
// # Validation
//
// Validate checks enum fields and cross-entity references. Reference checks
// run on the write path only; documents loaded from the server are accepted
// as-is so dangling references can be displayed and repaired by the operator.
//
// # Formats
//
// Documents can be exported and imported as JSON, YAML or TOML, and a JSON
// Schema of the document is available through JSONSchema.
package config
