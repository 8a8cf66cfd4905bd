// Package wizard implements the client-side screening flow: a small
// state machine that walks a participant through capturing three
// artifacts and submitting them, strictly in order, to the API.
package wizard

import (
	"context"
	"fmt"
	"io"
)

// Step is the screen the wizard currently shows.
type Step int

const (
	StepIntro Step = iota
	StepCaptureVideo
	StepCaptureImage
	StepCaptureEEG
	StepSubmitting
)

func (s Step) String() string {
	switch s {
	case StepIntro:
		return "intro"
	case StepCaptureVideo:
		return "capture_video"
	case StepCaptureImage:
		return "capture_image"
	case StepCaptureEEG:
		return "capture_eeg"
	case StepSubmitting:
		return "submitting"
	}
	return "unknown"
}

// Stage is one unit of the submission sequence.
type Stage int

const (
	StageGetCount Stage = iota
	StageVideo
	StageImage
	StageEEG
)

var stageOrder = []Stage{StageGetCount, StageVideo, StageImage, StageEEG}

func (s Stage) String() string {
	switch s {
	case StageGetCount:
		return "get_count"
	case StageVideo:
		return "video"
	case StageImage:
		return "image"
	case StageEEG:
		return "eeg"
	}
	return "unknown"
}

// Status is the submission state of a single stage.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// Artifact is a captured file waiting to be submitted. Data must be
// seekable so a retried submission resends the full content.
type Artifact struct {
	Filename string
	Data     io.ReadSeeker
}

// State is the whole wizard state. Transitions go through the Wizard
// methods; callers read but never mutate it directly.
type State struct {
	Step        Step
	Video       *Artifact
	Image       *Artifact
	EEG         *Artifact
	Stages      map[Stage]Status
	FailedStage *Stage
	RecordCount int
}

func newState() State {
	return State{
		Step:   StepIntro,
		Stages: freshStages(),
	}
}

func freshStages() map[Stage]Status {
	return map[Stage]Status{
		StageGetCount: StatusIdle,
		StageVideo:    StatusIdle,
		StageImage:    StatusIdle,
		StageEEG:      StatusIdle,
	}
}

// Submitter performs the server calls for each stage.
type Submitter interface {
	GetCount(ctx context.Context, userID string) (int, error)
	Upload(ctx context.Context, kind string, a *Artifact) (string, error)
}

// Wizard drives the screening flow for one participant.
type Wizard struct {
	state  State
	client Submitter
	userID string
}

func New(client Submitter, userID string) *Wizard {
	return &Wizard{
		state:  newState(),
		client: client,
		userID: userID,
	}
}

// State returns a snapshot of the current wizard state. The stage map
// is copied so callers cannot mutate internal state.
func (w *Wizard) State() State {
	s := w.state
	stages := make(map[Stage]Status, len(s.Stages))
	for k, v := range s.Stages {
		stages[k] = v
	}
	s.Stages = stages
	return s
}

// Start moves from the intro screen to the first capture step.
func (w *Wizard) Start() error {
	if w.state.Step != StepIntro {
		return fmt.Errorf("cannot start from step %s", w.state.Step)
	}
	w.state.Step = StepCaptureVideo
	return nil
}

// CaptureVideo records the selfie video and advances to image capture.
func (w *Wizard) CaptureVideo(a *Artifact) error {
	if w.state.Step != StepCaptureVideo {
		return fmt.Errorf("cannot capture video at step %s", w.state.Step)
	}
	if a == nil || a.Data == nil {
		return fmt.Errorf("video artifact is required")
	}
	w.state.Video = a
	w.state.Step = StepCaptureImage
	return nil
}

// CaptureImage records the selfie image and advances to EEG capture.
func (w *Wizard) CaptureImage(a *Artifact) error {
	if w.state.Step != StepCaptureImage {
		return fmt.Errorf("cannot capture image at step %s", w.state.Step)
	}
	if a == nil || a.Data == nil {
		return fmt.Errorf("image artifact is required")
	}
	w.state.Image = a
	w.state.Step = StepCaptureEEG
	return nil
}

// CaptureEEG records the EEG CSV and advances to the submission screen.
func (w *Wizard) CaptureEEG(a *Artifact) error {
	if w.state.Step != StepCaptureEEG {
		return fmt.Errorf("cannot capture eeg at step %s", w.state.Step)
	}
	if a == nil || a.Data == nil {
		return fmt.Errorf("eeg artifact is required")
	}
	w.state.EEG = a
	w.state.Step = StepSubmitting
	return nil
}

// Submit runs the submission sequence: record count first, then the
// three uploads in fixed order. The first failure marks its stage,
// aborts the rest and leaves later stages idle. All three artifacts
// must be present; a rejected call leaves the state unchanged.
func (w *Wizard) Submit(ctx context.Context) error {
	if w.state.Step != StepSubmitting {
		return fmt.Errorf("cannot submit at step %s", w.state.Step)
	}
	if w.state.Video == nil || w.state.Image == nil || w.state.EEG == nil {
		return fmt.Errorf("all three artifacts must be captured before submitting")
	}
	if w.submissionActive() {
		return fmt.Errorf("submission already in progress")
	}

	w.state.Stages = freshStages()
	w.state.FailedStage = nil

	for _, stage := range stageOrder {
		w.state.Stages[stage] = StatusLoading
		if err := w.runStage(ctx, stage); err != nil {
			w.state.Stages[stage] = StatusError
			failed := stage
			w.state.FailedStage = &failed
			return fmt.Errorf("stage %s: %w", stage, err)
		}
		w.state.Stages[stage] = StatusSuccess
	}
	return nil
}

// Retry restarts the whole submission sequence from the first stage.
// Partial progress from the failed attempt is discarded.
func (w *Wizard) Retry(ctx context.Context) error {
	if w.state.FailedStage == nil {
		return fmt.Errorf("nothing to retry")
	}
	return w.Submit(ctx)
}

// Reset returns to the intro screen and drops all captured artifacts.
func (w *Wizard) Reset() {
	w.state = newState()
}

func (w *Wizard) submissionActive() bool {
	for _, status := range w.state.Stages {
		if status == StatusLoading {
			return true
		}
	}
	return false
}

func (w *Wizard) runStage(ctx context.Context, stage Stage) error {
	switch stage {
	case StageGetCount:
		count, err := w.client.GetCount(ctx, w.userID)
		if err != nil {
			return err
		}
		w.state.RecordCount = count
		return nil
	case StageVideo:
		return w.uploadStage(ctx, "video", w.state.Video)
	case StageImage:
		return w.uploadStage(ctx, "image", w.state.Image)
	case StageEEG:
		return w.uploadStage(ctx, "eeg", w.state.EEG)
	}
	return fmt.Errorf("unknown stage %d", stage)
}

func (w *Wizard) uploadStage(ctx context.Context, kind string, a *Artifact) error {
	// Rewind so a retry resends the whole file
	if _, err := a.Data.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind %s: %w", a.Filename, err)
	}
	_, err := w.client.Upload(ctx, kind, a)
	return err
}
