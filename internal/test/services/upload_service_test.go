package services_test

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/philm28/always/internal/models"
	"github.com/philm28/always/internal/services"
	"github.com/philm28/always/internal/supabase"
)

type fakeContentStore struct {
	mu        sync.Mutex
	records   []*models.ContentRecord
	completed []uuid.UUID
	insertErr error
}

func (f *fakeContentStore) CreateContentRecord(_ context.Context, rec *models.ContentRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeContentStore) UpdateContentStatus(_ context.Context, contentID uuid.UUID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if status == models.ContentStatusCompleted {
		f.completed = append(f.completed, contentID)
	}
	return nil
}

func (f *fakeContentStore) recordCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

type fakeBlobStore struct {
	mu       sync.Mutex
	probe    supabase.ProbeResult
	uploaded []string
	failFor  map[string]error
}

func newWritableBlobStore() *fakeBlobStore {
	return &fakeBlobStore{probe: supabase.ProbeResult{Writable: true}}
}

func (f *fakeBlobStore) Probe(bool) supabase.ProbeResult {
	return f.probe
}

func (f *fakeBlobStore) UploadFile(personaID uuid.UUID, filename, contentType string, data []byte) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failFor[filename]; err != nil {
		return "", "", err
	}
	f.uploaded = append(f.uploaded, filename)
	path := "personas/" + personaID.String() + "/" + filename
	return path, "https://cdn.example.com/" + path, nil
}

func (f *fakeBlobStore) uploadedFiles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.uploaded...)
}

// fileHeaders builds real multipart file headers carrying the given bytes.
func fileHeaders(t *testing.T, files map[string][]byte) []*multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, data := range files {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	reader := multipart.NewReader(&buf, w.Boundary())
	form, err := reader.ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })

	return form.File["files"]
}

func resultFor(t *testing.T, results []models.UploadFileResult, filename string) models.UploadFileResult {
	t.Helper()
	for _, r := range results {
		if r.Filename == filename {
			return r
		}
	}
	t.Fatalf("no result for %s", filename)
	return models.UploadFileResult{}
}

func TestUploadBatch_OversizedRejectedSiblingsProceed(t *testing.T) {
	db := &fakeContentStore{}
	blobs := newWritableBlobStore()
	svc := services.NewUploadService(db, blobs, nil, zap.NewNop().Sugar())

	files := fileHeaders(t, map[string][]byte{"letter.txt": []byte("dear sam")})
	// The size check reads the declared header, so the oversized file needs
	// no backing content.
	oversized := &multipart.FileHeader{Filename: "reunion.mov", Size: services.MaxUploadBytes + 1}
	files = append(files, oversized)

	results, err := svc.UploadBatch(context.Background(), uuid.New(), uuid.New(), files)
	require.NoError(t, err)
	require.Len(t, results, 2)

	rejected := resultFor(t, results, "reunion.mov")
	assert.Equal(t, models.ContentStatusError, rejected.Status)
	assert.Equal(t, services.StageValidation, rejected.Stage)
	assert.Contains(t, rejected.Error, "50 MiB")

	accepted := resultFor(t, results, "letter.txt")
	assert.Equal(t, models.ContentStatusCompleted, accepted.Status)
	assert.NotEmpty(t, accepted.URL)

	// The oversized file never reached the network or the table.
	assert.Equal(t, []string{"letter.txt"}, blobs.uploadedFiles())
	assert.Equal(t, 1, db.recordCount())
}

func TestUploadBatch_EveryFileSettles(t *testing.T) {
	db := &fakeContentStore{}
	blobs := newWritableBlobStore()
	blobs.failFor = map[string]error{"voicemail.mp3": fmt.Errorf("connection reset")}
	svc := services.NewUploadService(db, blobs, nil, zap.NewNop().Sugar())

	files := fileHeaders(t, map[string][]byte{
		"letter.txt":    []byte("dear sam"),
		"voicemail.mp3": []byte("audio"),
		"garden.jpg":    []byte("pixels"),
	})

	results, err := svc.UploadBatch(context.Background(), uuid.New(), uuid.New(), files)
	require.NoError(t, err)

	// The batch joins only after all three outcomes are terminal.
	require.Len(t, results, 3)
	for _, r := range results {
		assert.Contains(t, []string{models.ContentStatusCompleted, models.ContentStatusError}, r.Status)
	}

	failed := resultFor(t, results, "voicemail.mp3")
	assert.Equal(t, services.StageStorage, failed.Stage)
	assert.Contains(t, failed.Error, "connection reset")

	assert.Equal(t, models.ContentStatusCompleted, resultFor(t, results, "letter.txt").Status)
	assert.Equal(t, models.ContentStatusCompleted, resultFor(t, results, "garden.jpg").Status)
}

func TestUploadBatch_ProbeFailureRefusesBatch(t *testing.T) {
	db := &fakeContentStore{}
	blobs := &fakeBlobStore{probe: supabase.ProbeResult{
		Writable: false,
		Cause:    supabase.ProbeCauseMissing,
		Hint:     "create the storage bucket before uploading",
	}}
	svc := services.NewUploadService(db, blobs, nil, zap.NewNop().Sugar())

	files := fileHeaders(t, map[string][]byte{"letter.txt": []byte("dear sam")})

	_, err := svc.UploadBatch(context.Background(), uuid.New(), uuid.New(), files)

	var notWritable *services.ErrStorageNotWritable
	require.ErrorAs(t, err, &notWritable)
	assert.Equal(t, supabase.ProbeCauseMissing, notWritable.Probe.Cause)

	// A refused batch performs no transfers and writes no records.
	assert.Empty(t, blobs.uploadedFiles())
	assert.Equal(t, 0, db.recordCount())
}

func TestUploadBatch_InsertFailureIsPerFileTerminal(t *testing.T) {
	db := &fakeContentStore{insertErr: supabase.TranslateError(fmt.Errorf("insert refused"))}
	blobs := newWritableBlobStore()
	svc := services.NewUploadService(db, blobs, nil, zap.NewNop().Sugar())

	files := fileHeaders(t, map[string][]byte{"letter.txt": []byte("dear sam")})

	results, err := svc.UploadBatch(context.Background(), uuid.New(), uuid.New(), files)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, models.ContentStatusError, results[0].Status)
	assert.Equal(t, services.StageDatabase, results[0].Stage)
}
