package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/pastq-dev/pastq/internal/api"
	"github.com/pastq-dev/pastq/internal/extractor"
	"github.com/pastq-dev/pastq/internal/svcctx"
)

// StartRequest is the body for POST /api/extract/start.
type StartRequest struct {
	Document  string `json:"document"`
	StartPage int    `json:"start_page,omitempty"`
	MaxPages  int    `json:"max_pages,omitempty"`
	Overwrite bool   `json:"overwrite,omitempty"`
}

// JobResponse carries a job identifier back to the caller.
type JobResponse struct {
	JobID string `json:"job_id"`
}

// MessageResponse carries an informational message.
type MessageResponse struct {
	Message string `json:"message"`
}

// statusForError maps orchestrator configuration errors onto HTTP codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, extractor.ErrAlreadyRunning):
		return http.StatusConflict
	case errors.Is(err, extractor.ErrNoStoppedJob),
		errors.Is(err, extractor.ErrAllPagesProcessed):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// StartEndpoint handles POST /api/extract/start.
type StartEndpoint struct{}

func (e *StartEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/extract/start", e.handler
}

func (e *StartEndpoint) RequiresInit() bool { return true }

func (e *StartEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Document == "" {
		writeError(w, http.StatusBadRequest, "document is required")
		return
	}

	orch := svcctx.OrchestratorFrom(r.Context())
	jobID, err := orch.Start(req.Document, extractor.Options{
		StartPage: req.StartPage,
		MaxPages:  req.MaxPages,
		Overwrite: req.Overwrite,
	})
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, JobResponse{JobID: jobID})
}

func (e *StartEndpoint) Command(getServerURL func() string) *cobra.Command {
	var (
		document  string
		startPage int
		maxPages  int
		overwrite bool
	)
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start an extraction job over a document",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			req := StartRequest{
				Document:  document,
				StartPage: startPage,
				MaxPages:  maxPages,
				Overwrite: overwrite,
			}
			var resp JobResponse
			if err := client.Post(cmd.Context(), "/api/extract/start", req, &resp); err != nil {
				return err
			}
			fmt.Printf("Job started: %s\n", resp.JobID)
			return nil
		},
	}
	cmd.Flags().StringVar(&document, "document", "", "document name or path (required)")
	cmd.Flags().IntVar(&startPage, "start-page", 0, "first page to process (default 1)")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "maximum pages to process (default all)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "overwrite similar records, even verified ones")
	_ = cmd.MarkFlagRequired("document")
	return cmd
}

// StopEndpoint handles POST /api/extract/stop.
type StopEndpoint struct{}

func (e *StopEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/extract/stop", e.handler
}

func (e *StopEndpoint) RequiresInit() bool { return true }

func (e *StopEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	msg, err := svcctx.OrchestratorFrom(r.Context()).Stop()
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: msg})
}

func (e *StopEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running extraction job",
		Long:  "Requests cancellation. The in-flight page completes before the job stops.",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp MessageResponse
			if err := client.Post(cmd.Context(), "/api/extract/stop", nil, &resp); err != nil {
				return err
			}
			fmt.Println(resp.Message)
			return nil
		},
	}
}

// ContinueEndpoint handles POST /api/extract/continue.
type ContinueEndpoint struct{}

func (e *ContinueEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/extract/continue", e.handler
}

func (e *ContinueEndpoint) RequiresInit() bool { return true }

func (e *ContinueEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	jobID, err := svcctx.OrchestratorFrom(r.Context()).Continue()
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, JobResponse{JobID: jobID})
}

func (e *ContinueEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "continue",
		Short: "Continue a stopped extraction job from its last page",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp JobResponse
			if err := client.Post(cmd.Context(), "/api/extract/continue", nil, &resp); err != nil {
				return err
			}
			fmt.Printf("Job continued: %s\n", resp.JobID)
			return nil
		},
	}
}

// StatusEndpoint handles GET /api/extract/status.
type StatusEndpoint struct{}

func (e *StatusEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/extract/status", e.handler
}

func (e *StatusEndpoint) RequiresInit() bool { return true }

func (e *StatusEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	state, err := svcctx.OrchestratorFrom(r.Context()).Status()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (e *StatusEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show extraction job status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp map[string]any
			if err := client.Get(cmd.Context(), "/api/extract/status", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// LogsResponse is the response for the logs endpoint.
type LogsResponse struct {
	Logs []string `json:"logs"`
}

// LogsEndpoint handles GET /api/extract/logs.
type LogsEndpoint struct{}

func (e *LogsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/extract/logs", e.handler
}

func (e *LogsEndpoint) RequiresInit() bool { return true }

func (e *LogsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	logs, err := svcctx.OrchestratorFrom(r.Context()).Logs()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, LogsResponse{Logs: logs})
}

func (e *LogsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "logs",
		Short: "Show extraction job logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp LogsResponse
			if err := client.Get(cmd.Context(), "/api/extract/logs", &resp); err != nil {
				return err
			}
			for _, line := range resp.Logs {
				fmt.Println(line)
			}
			return nil
		},
	}
}

// StatisticsEndpoint handles GET /api/extract/statistics.
type StatisticsEndpoint struct{}

func (e *StatisticsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/extract/statistics", e.handler
}

func (e *StatisticsEndpoint) RequiresInit() bool { return true }

func (e *StatisticsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	stats, err := svcctx.OrchestratorFrom(r.Context()).Statistics(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (e *StatisticsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "statistics",
		Short: "Show corpus statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp map[string]any
			if err := client.Get(cmd.Context(), "/api/extract/statistics", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
