package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"shorts_backend/config"
	"shorts_backend/models"
	"shorts_backend/pkg/logging"
	"shorts_backend/platform/events"
	"shorts_backend/platform/storage"
	"shorts_backend/repository"
	"shorts_backend/utils"
)

const defaultMaxShorts = 3

// GeneratorService runs the generation pipeline for one session:
// transcribe, analyze, render each segment, then finish. Each job is an
// independent background unit of work; the session repository's claim
// is the only admission gate.
type GeneratorService struct {
	repo        repository.SessionRepository
	storage     *storage.Service
	publisher   events.Publisher
	transcriber Transcriber
	analyzer    Analyzer
	renderer    Renderer
	mirror      *storage.ObjectMirror
	maxShorts   int
}

func NewGeneratorService(
	repo repository.SessionRepository,
	storageService *storage.Service,
	publisher events.Publisher,
	transcriber Transcriber,
	analyzer Analyzer,
	renderer Renderer,
	mirror *storage.ObjectMirror,
	cfg *config.Config) *GeneratorService {
	return &GeneratorService{
		repo:        repo,
		storage:     storageService,
		publisher:   publisher,
		transcriber: transcriber,
		analyzer:    analyzer,
		renderer:    renderer,
		mirror:      mirror,
		maxShorts:   cfg.MaxShorts,
	}
}

// Start claims the session and launches the job. It returns once the
// job is accepted; progress is reported over the event publisher only.
func (s *GeneratorService) Start(ctx context.Context, sessionID string, settings models.GenerationSettings) error {
	if settings.MaxShorts <= 0 {
		settings.MaxShorts = defaultMaxShorts
	}
	if settings.MaxShorts > s.maxShorts {
		settings.MaxShorts = s.maxShorts
	}

	sess, err := s.repo.ClaimRun(ctx, sessionID, settings)
	if err != nil {
		return err
	}

	logging.Logger.Info("generation started",
		"sessionID", sess.ID,
		"maxShorts", settings.MaxShorts,
		"useGPT", settings.UseGPT,
	)
	go s.run(sess)
	return nil
}

// run is the background unit of work. Whatever happens inside, the
// session ends in a terminal state and exactly one terminal event is
// published.
func (s *GeneratorService) run(sess *models.Session) {
	ctx := context.Background()

	var outputs []string
	var failures []string
	var runErr error

	func() {
		defer func() {
			if r := recover(); r != nil {
				runErr = fmt.Errorf("pipeline panic: %v", r)
			}
		}()
		outputs, failures, runErr = s.generate(ctx, sess)
	}()

	if runErr != nil {
		s.fail(ctx, sess.ID, append(failures, runErr.Error()))
		return
	}
	if len(outputs) == 0 {
		if len(failures) == 0 {
			failures = []string{"no shorts were produced"}
		}
		s.fail(ctx, sess.ID, failures)
		return
	}

	// partial render failures do not taint a completed session; they are
	// logged and dropped so the terminal state stays unambiguous
	for _, f := range failures {
		logging.Logger.Warn("segment failed during completed run", "sessionID", sess.ID, "error", f)
	}

	if err := s.repo.Finish(ctx, sess.ID, models.StatusCompleted, outputs, nil); err != nil {
		logging.Logger.Error("fail to finish session", "sessionID", sess.ID, "error", err)
	}
	s.progress(sess.ID, models.StageCompletion, 100, "Generation complete!")
	s.publish(&models.ProgressEvent{
		Type:      models.EventGenerationComplete,
		SessionID: sess.ID,
		Outputs:   outputs,
	})
	logging.Logger.Info("generation complete", "sessionID", sess.ID, "shorts", len(outputs))

	if s.mirror != nil {
		outDir, err := s.storage.EnsureSessionOutputDir(sess.ID)
		if err == nil {
			err = s.mirror.MirrorOutputs(ctx, sess.ID, outDir, outputs)
		}
		if err != nil {
			logging.Logger.Warn("fail to mirror outputs", "sessionID", sess.ID, "error", err)
		}
	}
}

func (s *GeneratorService) fail(ctx context.Context, sessionID string, errs []string) {
	if err := s.repo.Finish(ctx, sessionID, models.StatusFailed, nil, errs); err != nil {
		logging.Logger.Error("fail to finish session", "sessionID", sessionID, "error", err)
	}
	s.publish(&models.ProgressEvent{
		Type:      models.EventGenerationError,
		SessionID: sessionID,
		Errors:    errs,
	})
	logging.Logger.Error("generation failed", "sessionID", sessionID, "errors", errs)
}

// generate walks the pipeline stages in order. Render failures are
// accumulated in failures and do not abort the remaining segments; any
// returned error aborts the job.
func (s *GeneratorService) generate(ctx context.Context, sess *models.Session) (outputs []string, failures []string, err error) {
	// initialization: 0-10
	s.progress(sess.ID, models.StageInitialization, 5, "Preparing workspace...")
	if !s.storage.SourceExists(sess.SourcePath) {
		return nil, nil, fmt.Errorf("source file missing: %s", sess.Filename)
	}
	outDir, err := s.storage.EnsureSessionOutputDir(sess.ID)
	if err != nil {
		return nil, nil, err
	}
	duration, err := s.renderer.ProbeDuration(ctx, sess.SourcePath)
	if err != nil {
		return nil, nil, fmt.Errorf("probe video duration: %w", err)
	}
	s.progress(sess.ID, models.StageInitialization, 10, "Initializing AI Short-Form Generator...")

	// transcription: 10-35
	s.progress(sess.ID, models.StageTranscription, 20, "Transcribing audio with Whisper...")
	transcript, err := s.transcriber.Transcribe(ctx, sess.SourcePath)
	if err != nil {
		return nil, nil, fmt.Errorf("transcription: %w", err)
	}
	if transcript == nil || transcript.Text == "" {
		return nil, nil, errors.New("transcription returned an empty transcript")
	}
	// keep the full transcript next to the clips; losing it is not fatal
	if werr := os.WriteFile(filepath.Join(outDir, "full_transcript.txt"), []byte(transcript.Text), 0o644); werr != nil {
		logging.Logger.Warn("fail to write transcript", "sessionID", sess.ID, "error", werr)
	}
	s.progress(sess.ID, models.StageTranscription, 35, "Transcription complete!")

	// analysis: 35-55
	s.progress(sess.ID, models.StageAnalysis, 40, "Analyzing content for best segments...")
	segments := s.selectSegments(ctx, sess, transcript, duration)
	if len(segments) == 0 {
		return nil, nil, errors.New("no suitable segments found for shorts")
	}
	s.progress(sess.ID, models.StageAnalysis, 55, fmt.Sprintf("Found %d potential segments!", len(segments)))

	// processing: 55-95, sub-progress per segment
	for i, segment := range segments {
		pct := 55 + (i*40)/len(segments)
		s.progress(sess.ID, models.StageProcessing, pct,
			fmt.Sprintf("Rendering short %d/%d...", i+1, len(segments)))

		filename := utils.OutputName(i+1, segment.Title)
		outPath, perr := s.storage.OutputPath(sess.ID, filename)
		if perr != nil {
			failures = append(failures, fmt.Sprintf("short %d: %v", i+1, perr))
			continue
		}
		if rerr := s.renderer.RenderClip(ctx, sess.SourcePath, segment, outPath); rerr != nil {
			logging.Logger.Warn("render failed", "sessionID", sess.ID, "segment", i+1, "error", rerr)
			failures = append(failures, fmt.Sprintf("short %d: %v", i+1, rerr))
			continue
		}
		outputs = append(outputs, filename)
	}
	s.progress(sess.ID, models.StageProcessing, 95, "Video processing complete")

	return outputs, failures, nil
}

// selectSegments prefers the GPT analyzer when requested, falling back
// to fixed-duration windows when it is unavailable or errors, the same
// degraded behavior the fallback exists for. Both sources are capped to
// the session's MaxShorts.
func (s *GeneratorService) selectSegments(ctx context.Context, sess *models.Session, transcript *models.Transcript, duration float64) []models.ClipSegment {
	var segments []models.ClipSegment
	if sess.UseGPT && s.analyzer != nil {
		var err error
		segments, err = s.analyzer.Analyze(ctx, transcript, duration, sess.MaxShorts)
		if err != nil {
			logging.Logger.Warn("analysis failed, using fallback segments",
				"sessionID", sess.ID, "error", err)
			segments = nil
		}
	}
	if len(segments) == 0 {
		segments = FallbackSegments(duration, sess.MaxShorts)
	}
	if len(segments) > sess.MaxShorts {
		segments = segments[:sess.MaxShorts]
	}
	return segments
}

func (s *GeneratorService) progress(sessionID, stage string, percent int, message string) {
	s.publish(&models.ProgressEvent{
		Type:      models.EventProgressUpdate,
		SessionID: sessionID,
		Stage:     stage,
		Percent:   percent,
		Message:   message,
	})
	logging.Logger.Info("progress", "sessionID", sessionID, "stage", stage, "percent", percent)
}

func (s *GeneratorService) publish(event *models.ProgressEvent) {
	if err := s.publisher.Publish(event); err != nil {
		logging.Logger.Error("fail to publish event", "sessionID", event.SessionID, "error", err)
	}
}
