package api

import (
	"net/http"
	"sort"
	"time"

	"echocheck/internal/deps"
	"echocheck/internal/queue"
)

type stageHealthResponse struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

type dependencyResponse struct {
	Name      string `json:"name"`
	Command   string `json:"command"`
	Available bool   `json:"available"`
	Optional  bool   `json:"optional"`
	Detail    string `json:"detail,omitempty"`
}

type statusResponse struct {
	Service       string                `json:"service"`
	Version       string                `json:"version"`
	UptimeSeconds float64               `json:"uptime_seconds"`
	Workflow      workflowResponse      `json:"workflow"`
	Queue         map[queue.Status]int  `json:"queue"`
	Stages        []stageHealthResponse `json:"stages"`
	Dependencies  []dependencyResponse  `json:"dependencies"`
}

type workflowResponse struct {
	Running   bool   `json:"running"`
	LastError string `json:"last_error,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Service:       "echocheck",
		Version:       ServiceVersion,
		UptimeSeconds: time.Since(s.started).Seconds(),
		Queue:         map[queue.Status]int{},
	}

	if s.manager != nil {
		summary := s.manager.Status(r.Context())
		resp.Workflow = workflowResponse{Running: summary.Running, LastError: summary.LastError}
		if summary.QueueStats != nil {
			resp.Queue = summary.QueueStats
		}
		for _, health := range summary.StageHealth {
			resp.Stages = append(resp.Stages, stageHealthResponse{
				Name:   health.Name,
				Ready:  health.Ready,
				Detail: health.Detail,
			})
		}
		sort.Slice(resp.Stages, func(i, j int) bool { return resp.Stages[i].Name < resp.Stages[j].Name })
	} else if stats, err := s.store.Stats(r.Context()); err == nil {
		resp.Queue = stats
	}

	for _, status := range deps.CheckBinaries(deps.Required(s.cfg)) {
		resp.Dependencies = append(resp.Dependencies, dependencyResponse{
			Name:      status.Name,
			Command:   status.Command,
			Available: status.Available,
			Optional:  status.Optional,
			Detail:    status.Detail,
		})
	}

	s.writeJSON(w, http.StatusOK, resp)
}
