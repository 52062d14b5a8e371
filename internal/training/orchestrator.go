package training

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/philm28/always/internal/models"
	"github.com/philm28/always/internal/supabase"
)

// Training step statuses.
const (
	StepStatusPending    = "pending"
	StepStatusProcessing = "processing"
	StepStatusCompleted  = "completed"
	StepStatusError      = "error"
)

// Step is one named stage of persona synthesis as shown to the user.
type Step struct {
	ID       string
	Label    string
	Status   string
	Progress int
}

func newSteps() []*Step {
	return []*Step{
		{ID: StepContentAnalysis, Label: "Content Analysis", Status: StepStatusPending},
		{ID: StepVoiceModeling, Label: "Voice Modeling", Status: StepStatusPending},
		{ID: StepPersonalityExtraction, Label: "Personality Extraction", Status: StepStatusPending},
		{ID: StepConversationTraining, Label: "Conversation Training", Status: StepStatusPending},
		{ID: StepFinalOptimization, Label: "Final Optimization", Status: StepStatusPending},
	}
}

// PersonaStatusStore persists persona-level training state.
type PersonaStatusStore interface {
	UpdatePersonaTraining(ctx context.Context, personaID uuid.UUID, status string, progress int) error
	UpdatePersonaError(ctx context.Context, personaID uuid.UUID, errorMsg string) error
}

// RunPipelineFunc drives one training run, reporting step-level progress.
type RunPipelineFunc func(ctx context.Context, persona *models.Persona, report ProgressFunc) error

// RunStatus is a point-in-time snapshot of one persona's training run.
type RunStatus struct {
	Steps     []Step
	Overall   int
	Err       string
	Completed bool
	Running   bool
}

// Orchestrator owns the five-step state machine for each persona in
// training. Overall progress is always the arithmetic mean of the five step
// percentages; a run is complete exactly when every step is completed.
type Orchestrator struct {
	pipeline RunPipelineFunc
	personas PersonaStatusStore
	realtime *supabase.RealtimeClient
	logger   *zap.SugaredLogger

	mu   sync.Mutex
	runs map[uuid.UUID]*run
}

type run struct {
	steps   []*Step
	cancel  context.CancelFunc
	err     string
	running bool
}

func NewOrchestrator(pipeline RunPipelineFunc, personas PersonaStatusStore, realtime *supabase.RealtimeClient, logger *zap.SugaredLogger) *Orchestrator {
	return &Orchestrator{
		pipeline: pipeline,
		personas: personas,
		realtime: realtime,
		logger:   logger,
		runs:     make(map[uuid.UUID]*run),
	}
}

// Start resets all step state unconditionally and launches a new training
// run. A run already in flight for the persona is cancelled first; its
// late progress reports land in the dead run and are discarded.
func (o *Orchestrator) Start(persona *models.Persona) error {
	ctx, cancel := context.WithCancel(context.Background())

	o.mu.Lock()
	if existing, ok := o.runs[persona.ID]; ok && existing.cancel != nil {
		existing.cancel()
	}
	r := &run{steps: newSteps(), cancel: cancel, running: true}
	o.runs[persona.ID] = r
	o.mu.Unlock()

	if err := o.personas.UpdatePersonaTraining(ctx, persona.ID, models.PersonaStatusTraining, 0); err != nil {
		cancel()
		o.mu.Lock()
		// The run never started; leaving it in the map would make Status
		// report a phantom all-pending run.
		if o.runs[persona.ID] == r {
			delete(o.runs, persona.ID)
		}
		o.mu.Unlock()
		return err
	}

	if o.realtime != nil {
		o.realtime.PublishPersonaEvent(persona.ID, "training_started",
			supabase.TrainingStartedPayload(persona.ID))
	}

	go o.execute(ctx, persona, r)

	return nil
}

func (o *Orchestrator) execute(ctx context.Context, persona *models.Persona, r *run) {
	defer r.cancel()

	report := func(stepID string, progress int) {
		o.reportProgress(ctx, persona.ID, r, stepID, progress)
	}

	err := o.pipeline(ctx, persona, report)

	o.mu.Lock()
	if err != nil {
		// Whichever step was mid-processing carries the failure.
		for _, step := range r.steps {
			if step.Status == StepStatusProcessing {
				step.Status = StepStatusError
			}
		}
		r.err = err.Error()
		r.running = false
		o.mu.Unlock()

		o.logger.Errorw("training failed",
			"persona_id", persona.ID.String(), "error", err)
		if uerr := o.personas.UpdatePersonaError(context.Background(), persona.ID, err.Error()); uerr != nil {
			o.logger.Errorw("failed to record training error",
				"persona_id", persona.ID.String(), "error", uerr)
		}
		if o.realtime != nil {
			o.realtime.PublishPersonaEvent(persona.ID, "training_failed",
				supabase.TrainingFailedPayload(persona.ID, err.Error()))
		}
		return
	}

	for _, step := range r.steps {
		step.Status = StepStatusCompleted
		step.Progress = 100
	}
	r.running = false
	o.mu.Unlock()

	if uerr := o.personas.UpdatePersonaTraining(context.Background(), persona.ID, models.PersonaStatusActive, 100); uerr != nil {
		o.logger.Errorw("failed to persist training completion",
			"persona_id", persona.ID.String(), "error", uerr)
	}

	o.logger.Infow("training completed", "persona_id", persona.ID.String())
	if o.realtime != nil {
		o.realtime.PublishPersonaEvent(persona.ID, "training_completed",
			supabase.TrainingCompletedPayload(persona.ID))
	}
}

// reportProgress applies one callback to the named step only. Progress is
// clamped non-decreasing while processing and forced to 100 on completion.
func (o *Orchestrator) reportProgress(ctx context.Context, personaID uuid.UUID, r *run, stepID string, progress int) {
	o.mu.Lock()

	current, ok := o.runs[personaID]
	if !ok || current != r {
		// A retry replaced this run; drop the stale report.
		o.mu.Unlock()
		return
	}

	var overall int
	for _, step := range r.steps {
		if step.ID == stepID {
			if progress >= 100 {
				step.Status = StepStatusCompleted
				step.Progress = 100
			} else {
				step.Status = StepStatusProcessing
				if progress > step.Progress {
					step.Progress = progress
				}
			}
		}
		overall += step.Progress
	}
	overall /= len(r.steps)
	o.mu.Unlock()

	if err := o.personas.UpdatePersonaTraining(ctx, personaID, models.PersonaStatusTraining, overall); err != nil {
		o.logger.Warnw("failed to persist training progress",
			"persona_id", personaID.String(), "error", err)
	}
	if o.realtime != nil {
		o.realtime.PublishPersonaEvent(personaID, "training_progress",
			supabase.TrainingProgressPayload(personaID, stepID, overall))
	}
}

// Status returns a snapshot of the persona's current (or last) run.
func (o *Orchestrator) Status(personaID uuid.UUID) (RunStatus, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	r, ok := o.runs[personaID]
	if !ok {
		return RunStatus{}, false
	}

	status := RunStatus{
		Err:       r.err,
		Running:   r.running,
		Completed: true,
	}
	for _, step := range r.steps {
		status.Steps = append(status.Steps, *step)
		status.Overall += step.Progress
		if step.Status != StepStatusCompleted {
			status.Completed = false
		}
	}
	status.Overall /= len(r.steps)

	return status, true
}
