package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"shorts_backend/config"
	"shorts_backend/models"
	"shorts_backend/platform/events"
	"shorts_backend/platform/storage"
	"shorts_backend/repository"
)

type fakeTranscriber struct {
	transcript *models.Transcript
	err        error
	block      chan struct{}
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ string) (*models.Transcript, error) {
	if f.block != nil {
		<-f.block
	}
	return f.transcript, f.err
}

type fakeAnalyzer struct {
	mu       sync.Mutex
	segments []models.ClipSegment
	err      error
	calls    int
}

func (f *fakeAnalyzer) Analyze(_ context.Context, _ *models.Transcript, _ float64, _ int) ([]models.ClipSegment, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.segments, f.err
}

func (f *fakeAnalyzer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeRenderer struct {
	mu       sync.Mutex
	duration float64
	failOn   map[int]bool
	calls    int
}

func (f *fakeRenderer) RenderClip(_ context.Context, _ string, _ models.ClipSegment, outputPath string) error {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()
	if f.failOn[n] {
		return errors.New("render exploded")
	}
	return os.WriteFile(outputPath, []byte("clip"), 0o644)
}

func (f *fakeRenderer) ProbeDuration(_ context.Context, _ string) (float64, error) {
	if f.duration == 0 {
		return 0, errors.New("probe failed")
	}
	return f.duration, nil
}

type generatorFixture struct {
	gen     *GeneratorService
	repo    repository.SessionRepository
	broker  *events.LocalBroker
	storage *storage.Service
	cfg     *config.Config
}

func newGeneratorFixture(t *testing.T, tr Transcriber, an Analyzer, rend Renderer) *generatorFixture {
	t.Helper()
	cfg := &config.Config{
		UploadDir:     t.TempDir(),
		OutputDir:     t.TempDir(),
		MaxUploadSize: 1 << 20,
		MaxShorts:     10,
	}
	storageService, err := storage.InitStorageService(cfg)
	if err != nil {
		t.Fatalf("init storage: %v", err)
	}
	repo := repository.NewMemorySessionRepository(time.Hour)
	broker := events.NewLocalBroker()
	gen := NewGeneratorService(repo, storageService, broker, tr, an, rend, nil, cfg)
	return &generatorFixture{gen: gen, repo: repo, broker: broker, storage: storageService, cfg: cfg}
}

// seedSession registers an uploaded session backed by a real file.
func (fx *generatorFixture) seedSession(t *testing.T, id string) *models.Session {
	t.Helper()
	path := filepath.Join(fx.cfg.UploadDir, id+"_source.mp4")
	if err := os.WriteFile(path, []byte("not really a video"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	sess := &models.Session{
		ID:         id,
		Filename:   filepath.Base(path),
		SourcePath: path,
		FileSize:   18,
		Status:     models.StatusUploaded,
		UploadedAt: time.Now(),
	}
	if err := fx.repo.Create(context.Background(), sess); err != nil {
		t.Fatalf("create session: %v", err)
	}
	return sess
}

// collectUntilTerminal drains events until a terminal one arrives.
func collectUntilTerminal(t *testing.T, ch <-chan *models.ProgressEvent) (progress []*models.ProgressEvent, terminal *models.ProgressEvent) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case event := <-ch:
			if event == nil {
				t.Fatal("event channel closed before terminal event")
			}
			switch event.Type {
			case models.EventGenerationComplete, models.EventGenerationError:
				return progress, event
			default:
				progress = append(progress, event)
			}
		case <-deadline:
			t.Fatal("timed out waiting for terminal event")
		}
	}
}

func defaultTranscript() *models.Transcript {
	return &models.Transcript{
		Text:     "hello world, this is a long talk about many things",
		Language: "en",
	}
}

func TestGenerateCompletes(t *testing.T) {
	analyzer := &fakeAnalyzer{segments: []models.ClipSegment{
		{StartTime: 10, EndTime: 55, Duration: 45, Title: "First Hook"},
		{StartTime: 70, EndTime: 130, Duration: 60, Title: "Second Hook"},
	}}
	fx := newGeneratorFixture(t,
		&fakeTranscriber{transcript: defaultTranscript()},
		analyzer,
		&fakeRenderer{duration: 300},
	)
	fx.seedSession(t, "sess-ok")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eventChan, _ := fx.broker.Subscribe(ctx)

	err := fx.gen.Start(ctx, "sess-ok", models.GenerationSettings{MaxShorts: 5, UseGPT: true})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	progress, terminal := collectUntilTerminal(t, eventChan)
	if terminal.Type != models.EventGenerationComplete {
		t.Fatalf("terminal type = %s, want %s", terminal.Type, models.EventGenerationComplete)
	}
	wantOutputs := []string{"short_01_First_Hook.mp4", "short_02_Second_Hook.mp4"}
	if len(terminal.Outputs) != len(wantOutputs) {
		t.Fatalf("outputs = %v, want %v", terminal.Outputs, wantOutputs)
	}
	for i, want := range wantOutputs {
		if terminal.Outputs[i] != want {
			t.Fatalf("output %d = %q, want %q", i, terminal.Outputs[i], want)
		}
	}

	// percent never goes backwards and the last update hits 100
	last := -1
	for _, event := range progress {
		if event.Percent < last {
			t.Fatalf("progress went backwards: %d after %d (%s)", event.Percent, last, event.Message)
		}
		last = event.Percent
	}
	if last != 100 {
		t.Fatalf("final progress = %d, want 100", last)
	}

	sess, err := fx.repo.GetByID(context.Background(), "sess-ok")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if sess.Status != models.StatusCompleted {
		t.Fatalf("status = %s, want completed", sess.Status)
	}
	if sess.CompletedAt == nil {
		t.Fatal("expected completion time")
	}
	for _, out := range sess.Outputs {
		path, _ := fx.storage.OutputPath(sess.ID, out)
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("output %s not on disk: %v", out, err)
		}
	}
	if _, err := os.Stat(filepath.Join(fx.cfg.OutputDir, sess.ID, "full_transcript.txt")); err != nil {
		t.Fatalf("transcript not on disk: %v", err)
	}
}

func TestGenerateTranscriptionFailure(t *testing.T) {
	fx := newGeneratorFixture(t,
		&fakeTranscriber{err: errors.New("whisper is down")},
		&fakeAnalyzer{},
		&fakeRenderer{duration: 300},
	)
	fx.seedSession(t, "sess-fail")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eventChan, _ := fx.broker.Subscribe(ctx)

	if err := fx.gen.Start(ctx, "sess-fail", models.GenerationSettings{UseGPT: true}); err != nil {
		t.Fatalf("start: %v", err)
	}
	_, terminal := collectUntilTerminal(t, eventChan)
	if terminal.Type != models.EventGenerationError {
		t.Fatalf("terminal type = %s, want %s", terminal.Type, models.EventGenerationError)
	}
	if len(terminal.Errors) == 0 || !strings.Contains(terminal.Errors[len(terminal.Errors)-1], "transcription") {
		t.Fatalf("errors = %v, want transcription failure", terminal.Errors)
	}

	sess, _ := fx.repo.GetByID(context.Background(), "sess-fail")
	if sess.Status != models.StatusFailed {
		t.Fatalf("status = %s, want failed", sess.Status)
	}
	if len(sess.Outputs) != 0 {
		t.Fatalf("outputs = %v, want none", sess.Outputs)
	}
}

func TestGeneratePartialRenderFailure(t *testing.T) {
	analyzer := &fakeAnalyzer{segments: []models.ClipSegment{
		{StartTime: 0, EndTime: 45, Duration: 45, Title: "One"},
		{StartTime: 50, EndTime: 95, Duration: 45, Title: "Two"},
		{StartTime: 100, EndTime: 145, Duration: 45, Title: "Three"},
	}}
	fx := newGeneratorFixture(t,
		&fakeTranscriber{transcript: defaultTranscript()},
		analyzer,
		&fakeRenderer{duration: 300, failOn: map[int]bool{2: true}},
	)
	fx.seedSession(t, "sess-partial")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eventChan, _ := fx.broker.Subscribe(ctx)

	if err := fx.gen.Start(ctx, "sess-partial", models.GenerationSettings{MaxShorts: 5, UseGPT: true}); err != nil {
		t.Fatalf("start: %v", err)
	}
	_, terminal := collectUntilTerminal(t, eventChan)
	if terminal.Type != models.EventGenerationComplete {
		t.Fatalf("terminal type = %s, want complete", terminal.Type)
	}

	sess, _ := fx.repo.GetByID(context.Background(), "sess-partial")
	if sess.Status != models.StatusCompleted {
		t.Fatalf("status = %s, want completed", sess.Status)
	}
	if len(sess.Outputs) != 2 {
		t.Fatalf("outputs = %v, want 2 survivors", sess.Outputs)
	}
	for _, out := range sess.Outputs {
		if strings.Contains(out, "short_02") {
			t.Fatalf("failed segment recorded as output: %v", sess.Outputs)
		}
	}
}

func TestGenerateAllRendersFail(t *testing.T) {
	analyzer := &fakeAnalyzer{segments: []models.ClipSegment{
		{StartTime: 0, EndTime: 45, Duration: 45, Title: "One"},
		{StartTime: 50, EndTime: 95, Duration: 45, Title: "Two"},
	}}
	fx := newGeneratorFixture(t,
		&fakeTranscriber{transcript: defaultTranscript()},
		analyzer,
		&fakeRenderer{duration: 300, failOn: map[int]bool{1: true, 2: true}},
	)
	fx.seedSession(t, "sess-allfail")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eventChan, _ := fx.broker.Subscribe(ctx)

	if err := fx.gen.Start(ctx, "sess-allfail", models.GenerationSettings{UseGPT: true}); err != nil {
		t.Fatalf("start: %v", err)
	}
	_, terminal := collectUntilTerminal(t, eventChan)
	if terminal.Type != models.EventGenerationError {
		t.Fatalf("terminal type = %s, want error", terminal.Type)
	}
	if len(terminal.Errors) != 2 {
		t.Fatalf("errors = %v, want one per segment", terminal.Errors)
	}

	sess, _ := fx.repo.GetByID(context.Background(), "sess-allfail")
	if sess.Status != models.StatusFailed {
		t.Fatalf("status = %s, want failed", sess.Status)
	}
}

func TestGenerateFallsBackWhenAnalyzerFails(t *testing.T) {
	analyzer := &fakeAnalyzer{err: errors.New("openai quota exceeded")}
	fx := newGeneratorFixture(t,
		&fakeTranscriber{transcript: defaultTranscript()},
		analyzer,
		&fakeRenderer{duration: 200},
	)
	fx.seedSession(t, "sess-fallback")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eventChan, _ := fx.broker.Subscribe(ctx)

	if err := fx.gen.Start(ctx, "sess-fallback", models.GenerationSettings{MaxShorts: 3, UseGPT: true}); err != nil {
		t.Fatalf("start: %v", err)
	}
	_, terminal := collectUntilTerminal(t, eventChan)
	if terminal.Type != models.EventGenerationComplete {
		t.Fatalf("terminal type = %s, want complete", terminal.Type)
	}
	// 200s of video gives four 45s windows, capped to MaxShorts
	if len(terminal.Outputs) != 3 {
		t.Fatalf("outputs = %v, want 3 fallback clips", terminal.Outputs)
	}
	if analyzer.callCount() != 1 {
		t.Fatalf("analyzer calls = %d, want 1", analyzer.callCount())
	}
}

func TestGenerateSkipsAnalyzerWithoutGPT(t *testing.T) {
	analyzer := &fakeAnalyzer{segments: []models.ClipSegment{
		{StartTime: 0, EndTime: 60, Duration: 60, Title: "Never used"},
	}}
	fx := newGeneratorFixture(t,
		&fakeTranscriber{transcript: defaultTranscript()},
		analyzer,
		&fakeRenderer{duration: 100},
	)
	fx.seedSession(t, "sess-nogpt")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eventChan, _ := fx.broker.Subscribe(ctx)

	if err := fx.gen.Start(ctx, "sess-nogpt", models.GenerationSettings{MaxShorts: 5, UseGPT: false}); err != nil {
		t.Fatalf("start: %v", err)
	}
	_, terminal := collectUntilTerminal(t, eventChan)
	if terminal.Type != models.EventGenerationComplete {
		t.Fatalf("terminal type = %s, want complete", terminal.Type)
	}
	if analyzer.callCount() != 0 {
		t.Fatalf("analyzer calls = %d, want 0", analyzer.callCount())
	}
	// 100s of video gives two 45s windows
	if len(terminal.Outputs) != 2 {
		t.Fatalf("outputs = %v, want 2", terminal.Outputs)
	}
}

func TestStartRejectsConcurrentRun(t *testing.T) {
	release := make(chan struct{})
	fx := newGeneratorFixture(t,
		&fakeTranscriber{transcript: defaultTranscript(), block: release},
		&fakeAnalyzer{},
		&fakeRenderer{duration: 100},
	)
	fx.seedSession(t, "sess-busy")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eventChan, _ := fx.broker.Subscribe(ctx)

	if err := fx.gen.Start(ctx, "sess-busy", models.GenerationSettings{UseGPT: false}); err != nil {
		t.Fatalf("first start: %v", err)
	}
	if err := fx.gen.Start(ctx, "sess-busy", models.GenerationSettings{UseGPT: false}); !errors.Is(err, repository.ErrInvalidState) {
		t.Fatalf("second start error = %v, want %v", err, repository.ErrInvalidState)
	}

	close(release)
	_, terminal := collectUntilTerminal(t, eventChan)
	if terminal.Type != models.EventGenerationComplete {
		t.Fatalf("terminal type = %s, want complete", terminal.Type)
	}

	// terminal sessions may be claimed again
	if err := fx.gen.Start(ctx, "sess-busy", models.GenerationSettings{UseGPT: false}); err != nil {
		t.Fatalf("restart after completion: %v", err)
	}
	_, terminal = collectUntilTerminal(t, eventChan)
	if terminal.Type != models.EventGenerationComplete {
		t.Fatalf("rerun terminal type = %s, want complete", terminal.Type)
	}
}

func TestStartUnknownSession(t *testing.T) {
	fx := newGeneratorFixture(t,
		&fakeTranscriber{transcript: defaultTranscript()},
		&fakeAnalyzer{},
		&fakeRenderer{duration: 100},
	)
	err := fx.gen.Start(context.Background(), "nope", models.GenerationSettings{})
	if !errors.Is(err, repository.ErrSessionNotFound) {
		t.Fatalf("error = %v, want %v", err, repository.ErrSessionNotFound)
	}
}

func TestStartClampsMaxShorts(t *testing.T) {
	fx := newGeneratorFixture(t,
		&fakeTranscriber{transcript: defaultTranscript()},
		&fakeAnalyzer{},
		&fakeRenderer{duration: 10000},
	)
	fx.seedSession(t, "sess-clamp")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eventChan, _ := fx.broker.Subscribe(ctx)

	if err := fx.gen.Start(ctx, "sess-clamp", models.GenerationSettings{MaxShorts: 500, UseGPT: false}); err != nil {
		t.Fatalf("start: %v", err)
	}
	_, terminal := collectUntilTerminal(t, eventChan)
	if terminal.Type != models.EventGenerationComplete {
		t.Fatalf("terminal type = %s, want complete", terminal.Type)
	}
	if len(terminal.Outputs) != fx.cfg.MaxShorts {
		t.Fatalf("outputs = %d, want clamped to %d", len(terminal.Outputs), fx.cfg.MaxShorts)
	}

	sess, _ := fx.repo.GetByID(context.Background(), "sess-clamp")
	if sess.MaxShorts != fx.cfg.MaxShorts {
		t.Fatalf("recorded maxShorts = %d, want %d", sess.MaxShorts, fx.cfg.MaxShorts)
	}
}

func TestGenerateProbeFailure(t *testing.T) {
	fx := newGeneratorFixture(t,
		&fakeTranscriber{transcript: defaultTranscript()},
		&fakeAnalyzer{},
		&fakeRenderer{duration: 0},
	)
	fx.seedSession(t, "sess-probe")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eventChan, _ := fx.broker.Subscribe(ctx)

	if err := fx.gen.Start(ctx, "sess-probe", models.GenerationSettings{UseGPT: false}); err != nil {
		t.Fatalf("start: %v", err)
	}
	_, terminal := collectUntilTerminal(t, eventChan)
	if terminal.Type != models.EventGenerationError {
		t.Fatalf("terminal type = %s, want error", terminal.Type)
	}
	if len(terminal.Errors) == 0 || !strings.Contains(terminal.Errors[0], "duration") {
		t.Fatalf("errors = %v, want probe failure", terminal.Errors)
	}
}

func TestGenerateMissingSource(t *testing.T) {
	fx := newGeneratorFixture(t,
		&fakeTranscriber{transcript: defaultTranscript()},
		&fakeAnalyzer{},
		&fakeRenderer{duration: 100},
	)
	sess := fx.seedSession(t, "sess-gone")
	if err := os.Remove(sess.SourcePath); err != nil {
		t.Fatalf("remove source: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eventChan, _ := fx.broker.Subscribe(ctx)

	if err := fx.gen.Start(ctx, "sess-gone", models.GenerationSettings{UseGPT: false}); err != nil {
		t.Fatalf("start: %v", err)
	}
	_, terminal := collectUntilTerminal(t, eventChan)
	if terminal.Type != models.EventGenerationError {
		t.Fatalf("terminal type = %s, want error", terminal.Type)
	}
	if len(terminal.Errors) == 0 || !strings.Contains(terminal.Errors[0], "missing") {
		t.Fatalf("errors = %v, want missing source", terminal.Errors)
	}
}
