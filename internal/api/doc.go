// Package api is the HTTP client for the YoClaw manager.
//
// Every request carries the access token as the token query parameter. The
// manager exposes the runtime configuration, per-agent telemetry (cron jobs,
// tasks and chat sessions) and control of the runtime process:
//
//	GET  /api/config                 -> {"config": {...}}
//	PUT  /api/config                 <- full document
//	GET  /api/cron?agent=NAME        -> {"cronJobs": [...]}
//	GET  /api/tasks?agent=NAME       -> {"tasks": [...]}
//	GET  /api/sessions?agent=NAME    -> {"sessions": [...]}
//	GET  /api/instance               -> {"status": {...}}
//	POST /api/instance?action=ACTION -> {"message": "..."}
//
// Non-2xx responses are returned as *HTTPError.
package api
