// Package deps checks the external binaries the analysis pipeline shells
// out to. Status output and stage health checks both report through it.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"echocheck/internal/config"
)

// Requirement defines an external dependency Echo-Check relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Required returns the external binaries the pipeline needs, resolved from
// configuration.
func Required(cfg *config.Config) []Requirement {
	return []Requirement{
		{Name: "FFprobe", Command: cfg.Analysis.FFprobeBinary, Description: "Media container inspection"},
		{Name: "FFmpeg", Command: cfg.Analysis.FFmpegBinary, Description: "Audio and frame extraction"},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// CheckBinary is a convenience wrapper for a single command lookup.
func CheckBinary(name, command, description string) Status {
	results := CheckBinaries([]Requirement{{Name: name, Command: command, Description: description}})
	return results[0]
}

// MissingRequired returns the names of unavailable non-optional dependencies.
func MissingRequired(statuses []Status) []string {
	var missing []string
	for _, status := range statuses {
		if !status.Optional && !status.Available {
			missing = append(missing, status.Name)
		}
	}
	return missing
}
