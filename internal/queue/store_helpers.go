package queue

import (
	"database/sql"
	"errors"
	"time"
)

const itemColumns = "id, user_id, file_name, display_title, file_type, file_size, source_path, status, media_info_json, audio_path, frames_dir, frame_count, audio_result_json, video_result_json, audio_score, video_score, truth_score, verdict, anomalies_json, spectrogram_path, report_path, analysis_seconds, error_message, created_at, updated_at, progress_stage, progress_percent, progress_message, last_heartbeat, needs_review, review_reason"

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id               int64
		userID           sql.NullInt64
		fileName         sql.NullString
		displayTitle     sql.NullString
		fileType         sql.NullString
		fileSize         sql.NullInt64
		sourcePath       sql.NullString
		statusStr        string
		mediaInfo        sql.NullString
		audioPath        sql.NullString
		framesDir        sql.NullString
		frameCount       sql.NullInt64
		audioResult      sql.NullString
		videoResult      sql.NullString
		audioScore       sql.NullFloat64
		videoScore       sql.NullFloat64
		truthScore       sql.NullFloat64
		verdict          sql.NullString
		anomalies        sql.NullString
		spectrogramPath  sql.NullString
		reportPath       sql.NullString
		analysisSeconds  sql.NullFloat64
		errorMessage     sql.NullString
		createdRaw       sql.NullString
		updatedRaw       sql.NullString
		progressStage    sql.NullString
		progressPercent  sql.NullFloat64
		progressMessage  sql.NullString
		lastHeartbeatRaw sql.NullString
		needsReview      sql.NullInt64
		reviewReason     sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&userID,
		&fileName,
		&displayTitle,
		&fileType,
		&fileSize,
		&sourcePath,
		&statusStr,
		&mediaInfo,
		&audioPath,
		&framesDir,
		&frameCount,
		&audioResult,
		&videoResult,
		&audioScore,
		&videoScore,
		&truthScore,
		&verdict,
		&anomalies,
		&spectrogramPath,
		&reportPath,
		&analysisSeconds,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
		&progressStage,
		&progressPercent,
		&progressMessage,
		&lastHeartbeatRaw,
		&needsReview,
		&reviewReason,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:              id,
		UserID:          userID.Int64,
		FileName:        fileName.String,
		DisplayTitle:    displayTitle.String,
		FileType:        fileType.String,
		FileSize:        fileSize.Int64,
		SourcePath:      sourcePath.String,
		Status:          Status(statusStr),
		MediaInfoJSON:   mediaInfo.String,
		AudioPath:       audioPath.String,
		FramesDir:       framesDir.String,
		FrameCount:      int(frameCount.Int64),
		AudioResultJSON: audioResult.String,
		VideoResultJSON: videoResult.String,
		Verdict:         verdict.String,
		AnomaliesJSON:   anomalies.String,
		SpectrogramPath: spectrogramPath.String,
		ReportPath:      reportPath.String,
		AnalysisSeconds: analysisSeconds.Float64,
		ErrorMessage:    errorMessage.String,
		ProgressStage:   progressStage.String,
		ProgressPercent: progressPercent.Float64,
		ProgressMessage: progressMessage.String,
		ReviewReason:    reviewReason.String,
	}
	if audioScore.Valid {
		v := audioScore.Float64
		item.AudioScore = &v
	}
	if videoScore.Valid {
		v := videoScore.Float64
		item.VideoScore = &v
	}
	if truthScore.Valid {
		v := truthScore.Float64
		item.TruthScore = &v
	}
	if needsReview.Valid {
		item.NeedsReview = needsReview.Int64 != 0
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	if lastHeartbeatRaw.Valid {
		if heartbeat, err := parseTimeString(lastHeartbeatRaw.String); err == nil {
			item.LastHeartbeat = &heartbeat
		}
	}
	return item, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableFloat(value *float64) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	v := value.UTC().Format(time.RFC3339Nano)
	return v
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
