package api

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"echocheck/internal/analysis"
	"echocheck/internal/logging"
	"echocheck/internal/queue"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type analysisResponse struct {
	ID              int64              `json:"id"`
	FileName        string             `json:"file_name"`
	DisplayTitle    string             `json:"display_title"`
	FileType        string             `json:"file_type"`
	FileSize        int64              `json:"file_size"`
	Status          queue.Status       `json:"status"`
	TruthScore      *float64           `json:"truth_score"`
	AudioScore      *float64           `json:"audio_score"`
	VideoScore      *float64           `json:"video_score"`
	Verdict         string             `json:"verdict,omitempty"`
	Anomalies       []analysis.Anomaly `json:"anomalies"`
	SpectrogramURL  string             `json:"spectrogram_url,omitempty"`
	ReportURL       string             `json:"report_url,omitempty"`
	AnalysisSeconds float64            `json:"analysis_seconds"`
	ProgressStage   string             `json:"progress_stage,omitempty"`
	ProgressPercent float64            `json:"progress_percent"`
	ProgressMessage string             `json:"progress_message,omitempty"`
	ErrorMessage    string             `json:"error_message,omitempty"`
	NeedsReview     bool               `json:"needs_review"`
	ReviewReason    string             `json:"review_reason,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

type analysisListResponse struct {
	Items []analysisResponse `json:"items"`
	Total int                `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

func (s *Server) itemResponse(item *queue.Item) analysisResponse {
	resp := analysisResponse{
		ID:              item.ID,
		FileName:        item.FileName,
		DisplayTitle:    item.DisplayTitle,
		FileType:        item.FileType,
		FileSize:        item.FileSize,
		Status:          item.Status,
		TruthScore:      item.TruthScore,
		AudioScore:      item.AudioScore,
		VideoScore:      item.VideoScore,
		Verdict:         item.Verdict,
		Anomalies:       []analysis.Anomaly{},
		AnalysisSeconds: item.AnalysisSeconds,
		ProgressStage:   item.ProgressStage,
		ProgressPercent: item.ProgressPercent,
		ProgressMessage: item.ProgressMessage,
		ErrorMessage:    item.ErrorMessage,
		NeedsReview:     item.NeedsReview,
		ReviewReason:    item.ReviewReason,
		CreatedAt:       item.CreatedAt,
		UpdatedAt:       item.UpdatedAt,
	}
	if anomalies, err := item.Anomalies(); err == nil && anomalies != nil {
		resp.Anomalies = anomalies
	}
	if item.SpectrogramPath != "" {
		resp.SpectrogramURL = fmt.Sprintf("/api/analyses/%d/spectrogram", item.ID)
	}
	if item.ReportPath != "" {
		resp.ReportURL = fmt.Sprintf("/api/analyses/%d/report", item.ID)
	}
	return resp
}

func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	claims := requestClaims(r)
	if claims == nil {
		s.writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	limit := queryInt(r, "limit", defaultPageSize)
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	items, err := s.store.ListForUser(r.Context(), claims.UserID, limit, (page-1)*limit)
	if err != nil {
		s.logger.Error("history listing failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to list analyses")
		return
	}
	total, err := s.store.CountForUser(r.Context(), claims.UserID)
	if err != nil {
		s.logger.Error("history count failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to list analyses")
		return
	}

	resp := analysisListResponse{
		Items: make([]analysisResponse, 0, len(items)),
		Total: total,
		Page:  page,
		Limit: limit,
	}
	for _, item := range items {
		resp.Items = append(resp.Items, s.itemResponse(item))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	item, ok := s.ownedItem(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, s.itemResponse(item))
}

func (s *Server) handleDeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	item, ok := s.ownedItem(w, r)
	if !ok {
		return
	}
	if item.IsProcessing() {
		s.writeError(w, http.StatusConflict, "analysis is currently processing")
		return
	}

	s.removeArtifacts(item)
	if _, err := s.store.Remove(r.Context(), item.ID); err != nil {
		s.logger.Error("failed to delete analysis",
			logging.Int64("item_id", item.ID),
			logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to delete analysis")
		return
	}

	s.logger.Info("analysis deleted",
		logging.Int64("item_id", item.ID),
		logging.Int64("user_id", item.UserID))
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "analysis deleted"})
}

func (s *Server) handleSpectrogram(w http.ResponseWriter, r *http.Request) {
	item, ok := s.ownedItem(w, r)
	if !ok {
		return
	}
	if item.SpectrogramPath == "" || !fileExists(item.SpectrogramPath) {
		s.writeError(w, http.StatusNotFound, "spectrogram not available")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	http.ServeFile(w, r, item.SpectrogramPath)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	item, ok := s.ownedItem(w, r)
	if !ok {
		return
	}
	if item.ReportPath == "" || !fileExists(item.ReportPath) {
		s.writeError(w, http.StatusNotFound, "report not available")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("echo_check_report_%d.pdf", item.ID)))
	http.ServeFile(w, r, item.ReportPath)
}

// ownedItem resolves the {id} path parameter to an item owned by the caller.
// It writes the error response itself when resolution fails.
func (s *Server) ownedItem(w http.ResponseWriter, r *http.Request) (*queue.Item, bool) {
	claims := requestClaims(r)
	if claims == nil {
		s.writeError(w, http.StatusUnauthorized, "missing bearer token")
		return nil, false
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		s.writeError(w, http.StatusBadRequest, "invalid analysis id")
		return nil, false
	}
	item, err := s.store.GetForUser(r.Context(), id, claims.UserID)
	if err != nil {
		s.logger.Error("analysis lookup failed",
			logging.Int64("item_id", id),
			logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to load analysis")
		return nil, false
	}
	if item == nil {
		s.writeError(w, http.StatusNotFound, "analysis not found")
		return nil, false
	}
	return item, true
}

// removeArtifacts deletes the files an item produced. Missing files are not
// an error since failed items may never have created them.
func (s *Server) removeArtifacts(item *queue.Item) {
	for _, path := range []string{item.SourcePath, item.AudioPath, item.SpectrogramPath, item.ReportPath} {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to remove artifact",
				logging.Int64("item_id", item.ID),
				logging.String("path", path),
				logging.Error(err))
		}
	}
	if item.FramesDir != "" {
		if err := os.RemoveAll(item.FramesDir); err != nil {
			s.logger.Warn("failed to remove frames directory",
				logging.Int64("item_id", item.ID),
				logging.String("path", item.FramesDir),
				logging.Error(err))
		}
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
