// Package context stores named manager endpoints so yoctl can switch between
// YoClaw managers without repeating --endpoint and --token.
//
// # Configuration File
//
// Contexts live in ~/.config/yoctl/contexts.yaml:
//
//	current-context: home
//	contexts:
//	  - name: home
//	    endpoint: http://localhost:8080
//	    token: s3cret
//	  - name: lab
//	    endpoint: https://claw.lab.example.com
//	    token: other
//	    settings:
//	      output: json
//
// The file holds access tokens and is written with mode 0600.
//
// # Precedence
//
// The endpoint is resolved in this order:
//  1. --endpoint flag
//  2. --context flag
//  3. YOCTL_CONTEXT environment variable
//  4. current-context from contexts.yaml
//  5. http://localhost:8080
//
// The token follows the same order, with YOCTL_TOKEN checked after the
// --token flag.
//
// # Watching
//
// Watcher reports edits to the file made by other yoctl processes, so a
// long-running console can notice when the current context is switched
// elsewhere.
package context
