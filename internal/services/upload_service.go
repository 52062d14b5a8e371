package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/philm28/always/internal/models"
	"github.com/philm28/always/internal/supabase"
)

// MaxUploadBytes is the fixed per-file size ceiling.
const MaxUploadBytes = 50 << 20 // 50 MiB

// Per-file failure stages reported back to the client.
const (
	StageValidation = "validation"
	StageFileRead   = "file_read"
	StageStorage    = "storage"
	StageDatabase   = "database"
)

// ErrStorageNotWritable blocks a whole batch when the probe fails; it
// carries the typed cause for the client.
type ErrStorageNotWritable struct {
	Probe supabase.ProbeResult
}

func (e *ErrStorageNotWritable) Error() string {
	return fmt.Sprintf("storage not writable: %s", e.Probe.Cause)
}

// ContentStore persists upload metadata records.
type ContentStore interface {
	CreateContentRecord(ctx context.Context, rec *models.ContentRecord) error
	UpdateContentStatus(ctx context.Context, contentID uuid.UUID, status string) error
}

// BlobStore is the slice of the object store the coordinator needs.
type BlobStore interface {
	Probe(force bool) supabase.ProbeResult
	UploadFile(personaID uuid.UUID, filename, contentType string, data []byte) (string, string, error)
}

// UploadService is the upload coordinator: it validates each file, persists
// bytes to the object store, writes the content record, and reports a
// per-file outcome. Files in one batch upload concurrently; a batch settles
// only when every file has.
type UploadService struct {
	db       ContentStore
	storage  BlobStore
	realtime *supabase.RealtimeClient
	logger   *zap.SugaredLogger
}

func NewUploadService(db ContentStore, storage BlobStore, realtime *supabase.RealtimeClient, logger *zap.SugaredLogger) *UploadService {
	return &UploadService{
		db:       db,
		storage:  storage,
		realtime: realtime,
		logger:   logger,
	}
}

// UploadBatch stores a batch of files for one persona. The storage probe
// gates the whole batch; individual failures never abort sibling files.
func (s *UploadService) UploadBatch(ctx context.Context, personaID, userID uuid.UUID, files []*multipart.FileHeader) ([]models.UploadFileResult, error) {
	if probe := s.storage.Probe(false); !probe.Writable {
		return nil, &ErrStorageNotWritable{Probe: probe}
	}

	if s.realtime != nil {
		s.realtime.PublishPersonaEvent(personaID, "upload_started",
			supabase.UploadStartedPayload(personaID, len(files)))
	}

	results := make([]models.UploadFileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, file := range files {
		g.Go(func() error {
			results[i] = s.storeOne(gctx, personaID, userID, file)
			return nil
		})
	}
	// Workers report through results, never through errors, so the wait is
	// purely the batch join.
	_ = g.Wait()

	uploaded, failed := 0, 0
	for _, r := range results {
		if r.Status == models.ContentStatusCompleted {
			uploaded++
		} else {
			failed++
		}
	}

	if s.realtime != nil {
		s.realtime.PublishPersonaEvent(personaID, "upload_completed",
			supabase.UploadCompletedPayload(personaID, uploaded, failed))
	}

	return results, nil
}

func (s *UploadService) storeOne(ctx context.Context, personaID, userID uuid.UUID, file *multipart.FileHeader) models.UploadFileResult {
	result := models.UploadFileResult{
		Filename: file.Filename,
		Size:     file.Size,
	}

	// Oversized files are rejected before any network call.
	if file.Size > MaxUploadBytes {
		result.Status = models.ContentStatusError
		result.Stage = StageValidation
		result.Error = fmt.Sprintf("file exceeds the %d MiB limit", MaxUploadBytes>>20)
		return result
	}

	src, err := file.Open()
	if err != nil {
		result.Status = models.ContentStatusError
		result.Stage = StageFileRead
		result.Error = fmt.Sprintf("failed to open file: %v", err)
		return result
	}
	data, err := io.ReadAll(src)
	src.Close()
	if err != nil {
		result.Status = models.ContentStatusError
		result.Stage = StageFileRead
		result.Error = fmt.Sprintf("failed to read file: %v", err)
		return result
	}

	contentType := file.Header.Get("Content-Type")
	category := CategorizeMedia(contentType)

	storagePath, publicURL, err := s.storage.UploadFile(personaID, file.Filename, contentType, data)
	if err != nil {
		s.logger.Errorw("storage upload failed",
			"persona_id", personaID.String(), "file", file.Filename, "error", err)
		result.Status = models.ContentStatusError
		result.Stage = StageStorage
		result.Error = err.Error()
		return result
	}

	rec := &models.ContentRecord{
		ID:               uuid.New(),
		PersonaID:        personaID,
		UserID:           userID,
		ContentType:      category,
		FileURL:          publicURL,
		StoragePath:      storagePath,
		FileName:         file.Filename,
		ProcessingStatus: models.ContentStatusProcessing,
	}
	rec.FileSize.Int64 = file.Size
	rec.FileSize.Valid = true

	if err := s.db.CreateContentRecord(ctx, rec); err != nil {
		s.logger.Errorw("content record insert failed",
			"persona_id", personaID.String(), "file", file.Filename, "error", err)
		result.Status = models.ContentStatusError
		result.Stage = StageDatabase
		result.Error = recordFailureMessage(err)
		return result
	}

	// The metadata write settling is the completion signal; there is no
	// cosmetic delay.
	if err := s.db.UpdateContentStatus(ctx, rec.ID, models.ContentStatusCompleted); err != nil {
		s.logger.Errorw("content status update failed",
			"persona_id", personaID.String(), "file", file.Filename, "error", err)
		result.Status = models.ContentStatusError
		result.Stage = StageDatabase
		result.Error = recordFailureMessage(err)
		return result
	}

	result.Status = models.ContentStatusCompleted
	result.URL = publicURL
	return result
}

// recordFailureMessage prefers the typed remediation hint over the raw
// driver message.
func recordFailureMessage(err error) string {
	if hint := supabase.ErrorHint(err); hint != "" {
		return hint
	}
	return err.Error()
}

// CategorizeMedia derives the content category from a declared media type.
// Anything that is not clearly video, audio, or image is treated as text.
func CategorizeMedia(mimeType string) string {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))

	switch {
	case strings.HasPrefix(mimeType, "video/"):
		return models.ContentTypeVideo
	case strings.HasPrefix(mimeType, "audio/"):
		return models.ContentTypeAudio
	case strings.HasPrefix(mimeType, "image/"):
		return models.ContentTypeImage
	default:
		return models.ContentTypeText
	}
}
