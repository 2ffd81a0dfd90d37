// Package api serves the Echo-Check HTTP interface: account registration and
// login, authenticated media uploads, analysis history, artifact downloads,
// and daemon status. Uploads are queued for the background workflow rather
// than analyzed inline, so clients poll the analysis resource for progress.
package api
