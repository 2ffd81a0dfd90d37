// Package preflight provides readiness checks for the filesystem paths and
// external services the analysis pipeline depends on.
//
// These checks run in two contexts:
//   - The daemon runs RunAll at startup and refuses to start processing when
//     a required check fails.
//   - The CLI "echocheck status" command uses individual check functions
//     (CheckDirectoryAccess, CheckInferenceService) to display health.
//
// Checks gated by a config toggle are skipped when the feature is disabled.
package preflight
