package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"echocheck/internal/logging"
	"echocheck/internal/notifications"
)

// multipartMemoryLimit caps how much of a multipart body is buffered in
// memory before spilling to a temp file.
const multipartMemoryLimit = 32 << 20

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	claims := requestClaims(r)
	if claims == nil {
		s.writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	// Leave headroom for the multipart framing around the file part.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes()+multipartMemoryLimit)
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds the %d MiB limit", s.cfg.Analysis.MaxUploadMiB))
			return
		}
		s.writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	fileName := sanitizeFileName(header.Filename)
	ext := strings.ToLower(filepath.Ext(fileName))
	if !s.cfg.ExtensionAllowed(ext) {
		s.writeError(w, http.StatusBadRequest,
			fmt.Sprintf("file type not supported, allowed: %s", strings.Join(s.cfg.Analysis.AllowedExtensions, ", ")))
		return
	}
	if header.Size > s.cfg.MaxUploadBytes() {
		s.writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("upload exceeds the %d MiB limit", s.cfg.Analysis.MaxUploadMiB))
		return
	}

	stagedPath := filepath.Join(s.cfg.Paths.StagingDir, fmt.Sprintf("%d_%s", time.Now().Unix(), fileName))
	size, err := s.saveUpload(file, stagedPath)
	if err != nil {
		s.logger.Error("failed to stage upload",
			logging.String("file_name", fileName),
			logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}

	fileType := strings.ToUpper(strings.TrimPrefix(ext, "."))
	item, err := s.store.NewUpload(r.Context(), claims.UserID, fileName, fileType, stagedPath, size)
	if err != nil {
		_ = os.Remove(stagedPath)
		s.logger.Error("failed to enqueue upload",
			logging.String("file_name", fileName),
			logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to enqueue upload")
		return
	}

	s.logger.Info("upload queued",
		logging.Int64("item_id", item.ID),
		logging.Int64("user_id", claims.UserID),
		logging.String("file_name", item.FileName),
		logging.Int64("file_size", item.FileSize))

	if err := s.notifier.Publish(r.Context(), notifications.EventUploadQueued, notifications.Payload{
		"title": item.DisplayTitle,
	}); err != nil {
		s.logger.Warn("upload notification failed", logging.Error(err))
	}

	s.writeJSON(w, http.StatusAccepted, s.itemResponse(item))
}

// saveUpload streams the multipart part onto the staging directory and
// returns the number of bytes written.
func (s *Server) saveUpload(src io.Reader, dest string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, err
	}
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, err
	}
	size, err := io.Copy(out, src)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(dest)
		return 0, err
	}
	return size, nil
}

// sanitizeFileName strips any path components and characters that would be
// unsafe in a staged file name.
func sanitizeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', 0:
			return '_'
		}
		return r
	}, name)
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" || cleaned == "." || cleaned == ".." {
		return "upload"
	}
	return cleaned
}
