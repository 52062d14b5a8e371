package supabase_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/philm28/always/internal/supabase"
)

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "voicemail.mp3", supabase.SanitizeFilename("voicemail.mp3"))
	assert.Equal(t, "family_photo_2019_.jpg", supabase.SanitizeFilename("family photo 2019!.jpg"))
	assert.Equal(t, "___.m4a", supabase.SanitizeFilename("паж.m4a"))
	assert.Equal(t, "file", supabase.SanitizeFilename(""))
}

func TestObjectPath(t *testing.T) {
	personaID := uuid.New()
	uploadedAt := time.Date(2025, 3, 14, 9, 26, 53, 589793238, time.UTC)

	path := supabase.ObjectPath(personaID, uploadedAt, "dad's letter.txt")

	assert.Equal(t,
		"personas/"+personaID.String()+"/20250314_092653.589793238_dad_s_letter.txt",
		path)
}

func TestObjectPath_DistinctForSameFilename(t *testing.T) {
	personaID := uuid.New()

	a := supabase.ObjectPath(personaID, time.Now(), "memory.jpg")
	b := supabase.ObjectPath(personaID, time.Now().Add(time.Nanosecond), "memory.jpg")

	assert.NotEqual(t, a, b)
}

func TestClassifyStorageError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want supabase.ProbeCause
	}{
		{"missing bucket", errors.New("Bucket not found"), supabase.ProbeCauseMissing},
		{"http 404", errors.New("status 404: resource does not exist"), supabase.ProbeCauseMissing},
		{"row level security", errors.New("new row violates row-level security policy"), supabase.ProbeCausePermission},
		{"unauthorized", errors.New("401 Unauthorized"), supabase.ProbeCausePermission},
		{"access denied", errors.New("access denied for key"), supabase.ProbeCausePermission},
		{"network", errors.New("dial tcp: connection refused"), supabase.ProbeCauseUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cause, hint := supabase.ClassifyStorageError(tt.err)
			assert.Equal(t, tt.want, cause)
			assert.NotEmpty(t, hint)
		})
	}
}
