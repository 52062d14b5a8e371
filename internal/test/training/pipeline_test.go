package training_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/philm28/always/internal/ai"
	"github.com/philm28/always/internal/models"
	"github.com/philm28/always/internal/training"
)

const validProfileJSON = `{
	"personality": "sharp-witted, fiercely loyal",
	"speech_patterns": ["answers questions with questions"],
	"common_phrases": ["listen here"],
	"emotional_tone": "playful",
	"memories": ["sunday pancakes"],
	"voice_characteristics": {"pitch": "low", "speed": "fast", "tone": "raspy"}
}`

type fakeContentSource struct {
	records []models.ContentRecord
	err     error
}

func (f *fakeContentSource) ListCompletedContent(context.Context, uuid.UUID) ([]models.ContentRecord, error) {
	return f.records, f.err
}

type fakeMediaStore struct {
	files map[string][]byte
}

func (f *fakeMediaStore) DownloadFile(storagePath string) ([]byte, error) {
	data, ok := f.files[storagePath]
	if !ok {
		return nil, fmt.Errorf("object not found: %s", storagePath)
	}
	return data, nil
}

// fakeCompleter returns canned completions in call order and counts
// transcriptions.
type fakeCompleter struct {
	mu          sync.Mutex
	completions []string
	completeErr error
	calls       int
	transcribed int
}

func (f *fakeCompleter) Complete(_ context.Context, _ string, _ []ai.Message, _ int, _ float64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completeErr != nil {
		return "", f.completeErr
	}
	if f.calls >= len(f.completions) {
		return "", fmt.Errorf("unexpected completion call %d", f.calls)
	}
	reply := f.completions[f.calls]
	f.calls++
	return reply, nil
}

func (f *fakeCompleter) Transcribe(_ context.Context, _ string, _ []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transcribed++
	return "well, you know how your father was about boats", nil
}

func (f *fakeCompleter) ChatModel() string   { return "test-chat" }
func (f *fakeCompleter) VisionModel() string { return "test-vision" }

type fakeProfileSink struct {
	profile *models.PersonaProfile
	prompt  string
	voice   *models.VoiceCharacteristics
}

func (f *fakeProfileSink) SavePersonaProfile(_ context.Context, _ uuid.UUID, profile *models.PersonaProfile) error {
	f.profile = profile
	return nil
}

func (f *fakeProfileSink) SavePersonaPrompt(_ context.Context, _ uuid.UUID, systemPrompt string, voice *models.VoiceCharacteristics) error {
	f.prompt = systemPrompt
	f.voice = voice
	return nil
}

func textRecord(path string) models.ContentRecord {
	return models.ContentRecord{
		ID: uuid.New(), ContentType: models.ContentTypeText,
		StoragePath: path, FileName: path,
	}
}

func audioRecord(path string) models.ContentRecord {
	return models.ContentRecord{
		ID: uuid.New(), ContentType: models.ContentTypeAudio,
		StoragePath: path, FileName: path,
	}
}

type progressLog struct {
	mu      sync.Mutex
	reports map[string]int
}

func newProgressLog() *progressLog {
	return &progressLog{reports: make(map[string]int)}
}

func (l *progressLog) report(stepID string, progress int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if progress > l.reports[stepID] {
		l.reports[stepID] = progress
	}
}

func (l *progressLog) max(stepID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reports[stepID]
}

func TestPipeline_TextOnly(t *testing.T) {
	contents := &fakeContentSource{records: []models.ContentRecord{textRecord("letters.txt")}}
	media := &fakeMediaStore{files: map[string][]byte{"letters.txt": []byte("Dear Sam, the garden is finally blooming...")}}
	completer := &fakeCompleter{completions: []string{
		`{"personality": "tender", "common_phrases": ["dear"]}`,
		validProfileJSON,
	}}
	sink := &fakeProfileSink{}

	p := training.NewPipeline(contents, media, completer, sink, zap.NewNop().Sugar())
	log := newProgressLog()

	err := p.Run(context.Background(), testPersona(), log.report)
	require.NoError(t, err)

	require.NotNil(t, sink.profile)
	assert.Equal(t, "sharp-witted, fiercely loyal", sink.profile.Personality)
	assert.Contains(t, sink.prompt, "Margaret")
	require.NotNil(t, sink.voice)
	assert.Equal(t, "raspy", sink.voice.Tone)

	// Absent media steps still complete.
	assert.Equal(t, 100, log.max(training.StepContentAnalysis))
	assert.Equal(t, 100, log.max(training.StepVoiceModeling))
	assert.Equal(t, 100, log.max(training.StepPersonalityExtraction))
	assert.Equal(t, 100, log.max(training.StepConversationTraining))
	assert.Equal(t, 100, log.max(training.StepFinalOptimization))
}

func TestPipeline_NoContentFails(t *testing.T) {
	p := training.NewPipeline(&fakeContentSource{}, &fakeMediaStore{}, &fakeCompleter{}, &fakeProfileSink{}, zap.NewNop().Sugar())

	err := p.Run(context.Background(), testPersona(), func(string, int) {})

	assert.ErrorContains(t, err, "no completed content")
}

func TestPipeline_AudioCapped(t *testing.T) {
	var records []models.ContentRecord
	files := map[string][]byte{}
	for i := 0; i < 8; i++ {
		path := fmt.Sprintf("voicemail-%d.mp3", i)
		records = append(records, audioRecord(path))
		files[path] = []byte("audio")
	}

	completer := &fakeCompleter{completions: []string{
		`{"speech_patterns": ["long pauses"]}`,
		validProfileJSON,
	}}
	sink := &fakeProfileSink{}

	p := training.NewPipeline(&fakeContentSource{records: records}, &fakeMediaStore{files: files}, completer, sink, zap.NewNop().Sugar())

	err := p.Run(context.Background(), testPersona(), func(string, int) {})
	require.NoError(t, err)

	assert.Equal(t, 5, completer.transcribed)
}

func TestPipeline_MalformedProfileIsFatal(t *testing.T) {
	contents := &fakeContentSource{records: []models.ContentRecord{textRecord("notes.txt")}}
	media := &fakeMediaStore{files: map[string][]byte{"notes.txt": []byte("some notes")}}
	completer := &fakeCompleter{completions: []string{
		`{"personality": "kind"}`,
		`I could not generate a profile, sorry.`,
	}}
	sink := &fakeProfileSink{}

	p := training.NewPipeline(contents, media, completer, sink, zap.NewNop().Sugar())

	err := p.Run(context.Background(), testPersona(), func(string, int) {})

	assert.ErrorContains(t, err, "profile synthesis")
	assert.Nil(t, sink.profile)
}

func TestPipeline_UnreadableTextSkipped(t *testing.T) {
	contents := &fakeContentSource{records: []models.ContentRecord{
		textRecord("missing.txt"),
		textRecord("present.txt"),
	}}
	media := &fakeMediaStore{files: map[string][]byte{"present.txt": []byte("hello from the road")}}
	completer := &fakeCompleter{completions: []string{
		`{"personality": "adventurous"}`,
		validProfileJSON,
	}}
	sink := &fakeProfileSink{}

	p := training.NewPipeline(contents, media, completer, sink, zap.NewNop().Sugar())

	err := p.Run(context.Background(), testPersona(), func(string, int) {})

	require.NoError(t, err)
	require.NotNil(t, sink.profile)
}
