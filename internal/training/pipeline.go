// Package training turns a persona's stored content into a conversational
// profile: a six-stage pipeline of completion/transcription calls driven by
// a five-step orchestrator that reports progress to the UI.
package training

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/philm28/always/internal/ai"
	"github.com/philm28/always/internal/models"
)

// Step identifiers, fixed for the life of a persona.
const (
	StepContentAnalysis       = "content_analysis"
	StepVoiceModeling         = "voice_modeling"
	StepPersonalityExtraction = "personality_extraction"
	StepConversationTraining  = "conversation_training"
	StepFinalOptimization     = "final_optimization"
)

// Per-run ceilings on media submitted to the AI API.
const (
	maxAudioFiles = 5
	maxImageFiles = 10
)

// ProgressFunc receives step-level progress keyed by step identifier.
type ProgressFunc func(stepID string, progress int)

// ContentSource lists the content records visible to training.
type ContentSource interface {
	ListCompletedContent(ctx context.Context, personaID uuid.UUID) ([]models.ContentRecord, error)
}

// MediaStore fetches stored object bytes by storage path.
type MediaStore interface {
	DownloadFile(storagePath string) ([]byte, error)
}

// Completer is the AI collaborator: chat completions and transcription.
type Completer interface {
	Complete(ctx context.Context, model string, messages []ai.Message, maxTokens int, temperature float64) (string, error)
	Transcribe(ctx context.Context, filename string, audio []byte) (string, error)
	ChatModel() string
	VisionModel() string
}

// ProfileSink persists the synthesis results onto the persona record.
type ProfileSink interface {
	SavePersonaProfile(ctx context.Context, personaID uuid.UUID, profile *models.PersonaProfile) error
	SavePersonaPrompt(ctx context.Context, personaID uuid.UUID, systemPrompt string, voice *models.VoiceCharacteristics) error
}

type Pipeline struct {
	contents ContentSource
	media    MediaStore
	ai       Completer
	profiles ProfileSink
	logger   *zap.SugaredLogger
}

func NewPipeline(contents ContentSource, media MediaStore, completer Completer, profiles ProfileSink, logger *zap.SugaredLogger) *Pipeline {
	return &Pipeline{
		contents: contents,
		media:    media,
		ai:       completer,
		profiles: profiles,
		logger:   logger,
	}
}

type contentBuckets struct {
	text   []models.ContentRecord
	audio  []models.ContentRecord
	video  []models.ContentRecord
	images []models.ContentRecord
}

// Run executes the six stages in order, each gated on the previous. Partial
// analyses tolerate per-item failures; profile synthesis and prompt
// persistence are fatal on failure.
func (p *Pipeline) Run(ctx context.Context, persona *models.Persona, report ProgressFunc) error {
	// Stage 1: gather completed content, bucketed by category.
	report(StepContentAnalysis, 10)
	buckets, err := p.gatherContent(ctx, persona.ID)
	if err != nil {
		return fmt.Errorf("content analysis: %w", err)
	}
	if len(buckets.text) == 0 && len(buckets.audio) == 0 && len(buckets.video) == 0 && len(buckets.images) == 0 {
		return fmt.Errorf("content analysis: no completed content to train on")
	}
	if len(buckets.video) > 0 {
		// Videos are counted but not analyzed yet.
		p.logger.Warnw("video analysis not implemented, skipping",
			"persona_id", persona.ID.String(), "videos", len(buckets.video))
	}
	report(StepContentAnalysis, 100)

	// Stage 2: personality extraction from text.
	textAnalysis, err := p.analyzeText(ctx, buckets.text, report)
	if err != nil {
		return fmt.Errorf("personality extraction: %w", err)
	}

	// Stage 3: speech-pattern extraction from audio.
	audioAnalysis, err := p.analyzeAudio(ctx, persona, buckets.audio, report)
	if err != nil {
		return fmt.Errorf("voice modeling: %w", err)
	}

	// Stage 4: per-image description via the vision model.
	imageDescriptions := p.analyzeImages(ctx, persona, buckets.images, report)

	// Stage 5: unified profile synthesis. Fatal on malformed output.
	report(StepFinalOptimization, 10)
	profile, err := p.synthesizeProfile(ctx, textAnalysis, audioAnalysis, imageDescriptions)
	if err != nil {
		return fmt.Errorf("profile synthesis: %w", err)
	}
	if err := p.profiles.SavePersonaProfile(ctx, persona.ID, profile); err != nil {
		return fmt.Errorf("profile synthesis: %w", err)
	}
	report(StepFinalOptimization, 50)

	// Stage 6: derive and persist the reusable system prompt.
	relationship := ""
	if persona.Relationship.Valid {
		relationship = persona.Relationship.String
	}
	systemPrompt := BuildSystemPrompt(persona.Name, relationship, profile)
	if err := p.profiles.SavePersonaPrompt(ctx, persona.ID, systemPrompt, profile.VoiceCharacteristics); err != nil {
		return fmt.Errorf("prompt derivation: %w", err)
	}
	report(StepFinalOptimization, 100)

	return nil
}

func (p *Pipeline) gatherContent(ctx context.Context, personaID uuid.UUID) (*contentBuckets, error) {
	records, err := p.contents.ListCompletedContent(ctx, personaID)
	if err != nil {
		return nil, err
	}

	buckets := &contentBuckets{}
	for _, rec := range records {
		switch rec.ContentType {
		case models.ContentTypeAudio:
			buckets.audio = append(buckets.audio, rec)
		case models.ContentTypeVideo:
			buckets.video = append(buckets.video, rec)
		case models.ContentTypeImage:
			buckets.images = append(buckets.images, rec)
		default:
			buckets.text = append(buckets.text, rec)
		}
	}

	return buckets, nil
}

func (p *Pipeline) analyzeText(ctx context.Context, texts []models.ContentRecord, report ProgressFunc) (string, error) {
	if len(texts) == 0 {
		report(StepPersonalityExtraction, 100)
		return "", nil
	}

	report(StepPersonalityExtraction, 20)

	var parts []string
	for _, rec := range texts {
		data, err := p.media.DownloadFile(rec.StoragePath)
		if err != nil {
			p.logger.Warnw("skipping unreadable text file",
				"file", rec.FileName, "error", err)
			continue
		}
		parts = append(parts, string(data))
	}
	if len(parts) == 0 {
		report(StepPersonalityExtraction, 100)
		return "", nil
	}

	report(StepPersonalityExtraction, 60)

	raw, err := p.ai.Complete(ctx, p.ai.ChatModel(), []ai.Message{
		ai.Text("system", personalityExtractionSystem),
		ai.Text("user", personalityExtractionPrompt(strings.Join(parts, "\n\n"))),
	}, 1000, 0.7)
	if err != nil {
		return "", err
	}

	report(StepPersonalityExtraction, 100)
	return ParsePartialAnalysis(raw), nil
}

func (p *Pipeline) analyzeAudio(ctx context.Context, persona *models.Persona, audio []models.ContentRecord, report ProgressFunc) (string, error) {
	if len(audio) == 0 {
		report(StepVoiceModeling, 100)
		return "", nil
	}

	if len(audio) > maxAudioFiles {
		audio = audio[:maxAudioFiles]
	}

	var transcripts []string
	for i, rec := range audio {
		report(StepVoiceModeling, (i*80)/len(audio)+10)

		data, err := p.media.DownloadFile(rec.StoragePath)
		if err != nil {
			p.logger.Warnw("skipping undownloadable audio file",
				"persona_id", persona.ID.String(), "file", rec.FileName, "error", err)
			continue
		}

		transcript, err := p.ai.Transcribe(ctx, rec.FileName, data)
		if err != nil {
			p.logger.Warnw("skipping untranscribable audio file",
				"persona_id", persona.ID.String(), "file", rec.FileName, "error", err)
			continue
		}
		transcripts = append(transcripts, transcript)
	}

	if len(transcripts) == 0 {
		report(StepVoiceModeling, 100)
		return "", nil
	}

	raw, err := p.ai.Complete(ctx, p.ai.ChatModel(), []ai.Message{
		ai.Text("system", speechPatternSystem),
		ai.Text("user", speechPatternPrompt(strings.Join(transcripts, "\n\n"))),
	}, 1000, 0.7)
	if err != nil {
		return "", err
	}

	report(StepVoiceModeling, 100)
	return ParsePartialAnalysis(raw), nil
}

// analyzeImages never fails the pipeline; individual vision errors skip the
// image and move on.
func (p *Pipeline) analyzeImages(ctx context.Context, persona *models.Persona, images []models.ContentRecord, report ProgressFunc) []string {
	if len(images) == 0 {
		report(StepConversationTraining, 100)
		return nil
	}

	if len(images) > maxImageFiles {
		images = images[:maxImageFiles]
	}

	var descriptions []string
	for i, rec := range images {
		report(StepConversationTraining, (i*90)/len(images)+10)

		desc, err := p.ai.Complete(ctx, p.ai.VisionModel(), []ai.Message{
			ai.ImagePrompt(imageDescriptionPrompt, rec.FileURL),
		}, 300, 0.5)
		if err != nil {
			p.logger.Warnw("skipping unanalyzable image",
				"persona_id", persona.ID.String(), "file", rec.FileName, "error", err)
			continue
		}
		descriptions = append(descriptions, desc)
	}

	report(StepConversationTraining, 100)
	return descriptions
}

func (p *Pipeline) synthesizeProfile(ctx context.Context, textAnalysis, audioAnalysis string, imageDescriptions []string) (*models.PersonaProfile, error) {
	raw, err := p.ai.Complete(ctx, p.ai.ChatModel(), []ai.Message{
		ai.Text("system", profileSynthesisSystem),
		ai.Text("user", profileSynthesisPrompt(textAnalysis, audioAnalysis, imageDescriptions)),
	}, 1500, 0.7)
	if err != nil {
		return nil, err
	}

	return ParseProfile(raw)
}
