package supabase

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	storage "github.com/supabase-community/storage-go"
)

// ProbeCause classifies why the storage destination is not writable.
type ProbeCause string

const (
	ProbeCausePermission  ProbeCause = "permission_denied"
	ProbeCauseMissing     ProbeCause = "bucket_missing"
	ProbeCauseUnavailable ProbeCause = "unavailable"
)

// ProbeResult is the cached outcome of one write-then-delete probe.
type ProbeResult struct {
	Writable bool
	Cause    ProbeCause
	Hint     string
	Detail   string
}

type StorageClient struct {
	client  *storage.Client
	bucket  string
	baseURL string

	probeMu sync.Mutex
	probe   *ProbeResult
}

func NewStorageClient(supabaseURL, serviceRoleKey, bucket string) (*StorageClient, error) {
	baseURL := strings.TrimSuffix(supabaseURL, "/")
	client := storage.NewClient(baseURL+"/storage/v1", serviceRoleKey, nil)

	return &StorageClient{
		client:  client,
		bucket:  bucket,
		baseURL: baseURL,
	}, nil
}

// UploadFile stores data under a collision-resistant path derived from the
// upload time and the sanitized filename, overwriting any same-named object.
// It returns the storage path and the public retrieval URL.
func (s *StorageClient) UploadFile(personaID uuid.UUID, filename, contentType string, data []byte) (string, string, error) {
	storagePath := ObjectPath(personaID, time.Now(), filename)

	upsert := true
	_, err := s.client.UploadFile(s.bucket, storagePath, bytes.NewReader(data), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to upload file: %w", err)
	}

	return storagePath, s.GetPublicURL(storagePath), nil
}

func (s *StorageClient) GetPublicURL(storagePath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s",
		s.baseURL, s.bucket, storagePath)
}

func (s *StorageClient) DownloadFile(storagePath string) ([]byte, error) {
	data, err := s.client.DownloadFile(s.bucket, storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}

	return data, nil
}

func (s *StorageClient) DeleteFile(storagePath string) error {
	_, err := s.client.RemoveFile(s.bucket, []string{storagePath})
	return err
}

// DeletePersonaFiles removes every object stored for a persona.
func (s *StorageClient) DeletePersonaFiles(personaID uuid.UUID) error {
	prefix := fmt.Sprintf("personas/%s/", personaID.String())

	files, err := s.client.ListFiles(s.bucket, prefix, storage.FileSearchOptions{
		Limit: 1000,
	})
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}

	if len(files) > 0 {
		filePaths := make([]string, len(files))
		for i, file := range files {
			filePaths[i] = file.Name
		}
		_, err = s.client.RemoveFile(s.bucket, filePaths)
		if err != nil {
			return fmt.Errorf("failed to delete files: %w", err)
		}
	}

	return nil
}

// Probe verifies the bucket is writable with a small write-then-delete.
// The result is cached for the life of the process; pass force to re-probe
// after fixing bucket policies.
func (s *StorageClient) Probe(force bool) ProbeResult {
	s.probeMu.Lock()
	defer s.probeMu.Unlock()

	if s.probe != nil && !force {
		return *s.probe
	}

	result := s.runProbe()
	s.probe = &result
	return result
}

// ProbeCached reports whether the current probe result came from the cache.
func (s *StorageClient) ProbeCached() bool {
	s.probeMu.Lock()
	defer s.probeMu.Unlock()
	return s.probe != nil
}

func (s *StorageClient) runProbe() ProbeResult {
	probePath := fmt.Sprintf(".probe/%s", uuid.New().String())
	contentType := "text/plain"
	upsert := true

	_, err := s.client.UploadFile(s.bucket, probePath, bytes.NewReader([]byte("probe")), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		cause, hint := ClassifyStorageError(err)
		return ProbeResult{Writable: false, Cause: cause, Hint: hint, Detail: err.Error()}
	}

	// Best-effort cleanup; a leftover probe object does not affect the verdict.
	_, _ = s.client.RemoveFile(s.bucket, []string{probePath})

	return ProbeResult{Writable: true}
}

// ClassifyStorageError maps a storage error onto one of the three reported
// probe causes. The classification happens once, here at the collaborator
// boundary; callers only ever see the typed cause.
func ClassifyStorageError(err error) (ProbeCause, string) {
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "bucket not found"),
		strings.Contains(msg, "not_found"),
		strings.Contains(msg, "404"):
		return ProbeCauseMissing, "create the storage bucket before uploading"
	case strings.Contains(msg, "unauthorized"),
		strings.Contains(msg, "access denied"),
		strings.Contains(msg, "security policy"),
		strings.Contains(msg, "403"),
		strings.Contains(msg, "401"):
		return ProbeCausePermission, "check the bucket's access policies and API key"
	default:
		return ProbeCauseUnavailable, "storage is unreachable; retry once connectivity is restored"
	}
}

// ObjectPath builds the storage path for one uploaded file:
// personas/{persona_id}/{timestamp}_{sanitized filename}.
func ObjectPath(personaID uuid.UUID, uploadedAt time.Time, filename string) string {
	return fmt.Sprintf("personas/%s/%s_%s",
		personaID.String(), uploadedAt.UTC().Format("20060102_150405.000000000"), SanitizeFilename(filename))
}

// SanitizeFilename keeps letters, digits, dot, dash and underscore; every
// other byte becomes an underscore. An empty name becomes "file".
func SanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}
