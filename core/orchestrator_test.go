package orchestration

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/halolabs/halo-core/core/events"
	"github.com/halolabs/halo-core/core/providers"
	"github.com/halolabs/halo-core/core/reconcile"
)

type fakeSession struct {
	mu      sync.Mutex
	sent    []string
	audio   [][]byte
	images  [][]byte
	closes  int
	sendErr error
}

func (s *fakeSession) SendText(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, text)
	return nil
}

func (s *fakeSession) SendAudio(audio []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audio = append(s.audio, audio)
	return nil
}

func (s *fakeSession) SendImage(_ context.Context, data []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images = append(s.images, data)
	return nil
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

func (s *fakeSession) sentTexts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	texts := make([]string, len(s.sent))
	copy(texts, s.sent)
	return texts
}

// fakeProvider scripts Open outcomes per attempt and records the callbacks
// of the most recent open so tests can drive session output.
type fakeProvider struct {
	mu        sync.Mutex
	kind      providers.Kind
	openErrs  []error
	opens     int
	config    providers.Config
	callbacks providers.Callbacks
	sessions  []*fakeSession
}

func newFakeProvider(kind providers.Kind) *fakeProvider {
	return &fakeProvider{kind: kind}
}

func (p *fakeProvider) Kind() providers.Kind { return p.kind }

func (p *fakeProvider) Open(_ context.Context, config providers.Config, callbacks providers.Callbacks) (providers.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.opens++
	if len(p.openErrs) > 0 {
		err := p.openErrs[0]
		p.openErrs = p.openErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	p.config = config
	p.callbacks = callbacks
	session := &fakeSession{}
	p.sessions = append(p.sessions, session)
	return session, nil
}

func (p *fakeProvider) openCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opens
}

func (p *fakeProvider) latestSession() *fakeSession {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.sessions) == 0 {
		return nil
	}
	return p.sessions[len(p.sessions)-1]
}

func (p *fakeProvider) latestCallbacks() providers.Callbacks {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.callbacks
}

func (p *fakeProvider) latestConfig() providers.Config {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.config
}

type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *eventRecorder) Emit(event events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) snapshot() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot := make([]events.Event, len(r.events))
	copy(snapshot, r.events)
	return snapshot
}

func (r *eventRecorder) failureCount() int {
	count := 0
	for _, event := range r.snapshot() {
		if _, ok := event.(events.Failure); ok {
			count++
		}
	}
	return count
}

func (r *eventRecorder) statusCount(status events.Status) int {
	count := 0
	for _, event := range r.snapshot() {
		if change, ok := event.(events.StatusChanged); ok && change.Status == status {
			count++
		}
	}
	return count
}

func TestStartConnectsAndEmitsLifecycleStatuses(t *testing.T) {
	provider := newFakeProvider(providers.KindGemini)
	recorder := &eventRecorder{}
	o := NewOrchestrator(WithProvider(provider), WithEventSink(recorder))

	err := o.Start(context.Background(), NewSessionConfig(providers.KindGemini, "key"))
	if err != nil {
		t.Fatalf("expected start to succeed, got %v", err)
	}
	if got := o.State(); got != StateConnected {
		t.Fatalf("expected connected state, got %v", got)
	}
	if recorder.statusCount(events.StatusConnecting) != 1 || recorder.statusCount(events.StatusConnected) != 1 {
		t.Fatalf("expected connecting then connected, got %+v", recorder.snapshot())
	}
	if o.SessionID() == "" {
		t.Fatalf("expected a session identifier after start")
	}
}

func TestStartFoldsLocaleIntoInstructions(t *testing.T) {
	provider := newFakeProvider(providers.KindGemini)
	o := NewOrchestrator(WithProvider(provider))

	config := NewSessionConfig(providers.KindGemini, "key")
	config.Locale = "de-DE"
	if err := o.Start(context.Background(), config); err != nil {
		t.Fatalf("expected start to succeed, got %v", err)
	}

	instructions := provider.latestConfig().Instructions
	if !strings.Contains(instructions, `"de-DE"`) {
		t.Fatalf("expected the locale directive in the instructions, got %q", instructions)
	}
}

func TestStartWithUnknownProviderFails(t *testing.T) {
	o := NewOrchestrator()

	err := o.Start(context.Background(), NewSessionConfig(providers.KindOpenAI, "key"))
	if !errors.Is(err, ErrUnsupportedProvider) {
		t.Fatalf("expected ErrUnsupportedProvider, got %v", err)
	}
}

func TestCompletedExchangeIsArchivedAndEmitted(t *testing.T) {
	provider := newFakeProvider(providers.KindGemini)
	recorder := &eventRecorder{}
	o := NewOrchestrator(WithProvider(provider), WithEventSink(recorder))

	if err := o.Start(context.Background(), NewSessionConfig(providers.KindGemini, "key")); err != nil {
		t.Fatalf("expected start to succeed, got %v", err)
	}

	callbacks := provider.latestCallbacks()
	callbacks.OnTranscript("explain recursion")
	callbacks.OnAnswerPart("Recur")
	callbacks.OnAnswerPart("sion is...")
	callbacks.OnTurnComplete()

	turns := o.History().Turns()
	if len(turns) != 1 {
		t.Fatalf("expected one archived turn, got %d", len(turns))
	}
	if turns[0].Question != "explain recursion" || turns[0].Answer != "Recursion is..." {
		t.Fatalf("unexpected archived turn %+v", turns[0])
	}

	var started, fragments, snapshots, appended, completed int
	var lastSnapshot string
	for _, event := range recorder.snapshot() {
		switch typedEvent := event.(type) {
		case events.TranscriptStarted:
			started++
		case events.AnswerFragment:
			fragments++
		case events.AnswerSnapshot:
			snapshots++
			lastSnapshot = typedEvent.Text
		case events.HistoryAppended:
			appended++
		case events.TurnCompleted:
			completed++
		}
	}
	if started != 1 || fragments != 2 || snapshots != 2 || appended != 1 || completed != 1 {
		t.Fatalf("unexpected event mix: started=%d fragments=%d snapshots=%d appended=%d completed=%d",
			started, fragments, snapshots, appended, completed)
	}
	if lastSnapshot != "Recursion is..." {
		t.Fatalf("expected the snapshot to carry the full answer, got %q", lastSnapshot)
	}
}

func TestStreamingSessionFillsHistoryAndReconciler(t *testing.T) {
	provider := newFakeProvider(providers.KindGemini)
	reconciler := reconcile.NewReconciler()
	o := NewOrchestrator(WithProvider(provider), WithEventSink(reconciler))

	if err := o.Start(context.Background(), NewSessionConfig(providers.KindGemini, "key")); err != nil {
		t.Fatalf("expected start to succeed, got %v", err)
	}

	callbacks := provider.latestCallbacks()
	callbacks.OnTranscript("explain recursion")
	callbacks.OnAnswerPart("Recur")
	callbacks.OnAnswerPart("sion is...")
	callbacks.OnTurnComplete()

	turns := o.History().Turns()
	if len(turns) != 1 || turns[0].Answer != "Recursion is..." {
		t.Fatalf("expected the exchange archived, got %+v", turns)
	}

	conversations := reconciler.Conversations()
	if len(conversations) != 1 {
		t.Fatalf("expected one assembled conversation, got %d", len(conversations))
	}
	if conversations[0].UserMessage != "explain recursion" || conversations[0].AIResponse != "Recursion is..." {
		t.Fatalf("unexpected conversation %+v", conversations[0])
	}
}

func TestTurnWithoutAnswerIsNotArchived(t *testing.T) {
	provider := newFakeProvider(providers.KindGemini)
	recorder := &eventRecorder{}
	o := NewOrchestrator(WithProvider(provider), WithEventSink(recorder))

	if err := o.Start(context.Background(), NewSessionConfig(providers.KindGemini, "key")); err != nil {
		t.Fatalf("expected start to succeed, got %v", err)
	}

	callbacks := provider.latestCallbacks()
	callbacks.OnTranscript("unanswered question")
	callbacks.OnTurnComplete()

	if got := len(o.History().Turns()); got != 0 {
		t.Fatalf("expected no archived turn without an answer, got %d", got)
	}
	completed := 0
	for _, event := range recorder.snapshot() {
		if _, ok := event.(events.TurnCompleted); ok {
			completed++
		}
	}
	if completed != 1 {
		t.Fatalf("expected the completion event regardless, got %d", completed)
	}
}

type blockingProvider struct {
	kind    providers.Kind
	entered chan struct{}
	release chan struct{}
}

func (p *blockingProvider) Kind() providers.Kind { return p.kind }

func (p *blockingProvider) Open(_ context.Context, _ providers.Config, _ providers.Callbacks) (providers.Session, error) {
	p.entered <- struct{}{}
	<-p.release
	return &fakeSession{}, nil
}

func TestStartWhileConnectingIsRejected(t *testing.T) {
	provider := &blockingProvider{
		kind:    providers.KindGemini,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	o := NewOrchestrator(WithProvider(provider))

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- o.Start(context.Background(), NewSessionConfig(providers.KindGemini, "key"))
	}()
	<-provider.entered

	err := o.Start(context.Background(), NewSessionConfig(providers.KindGemini, "key"))
	if !errors.Is(err, ErrAlreadyInitializing) {
		t.Fatalf("expected ErrAlreadyInitializing, got %v", err)
	}

	close(provider.release)
	if err := <-firstDone; err != nil {
		t.Fatalf("expected the in-flight start to finish cleanly, got %v", err)
	}
	if got := o.State(); got != StateConnected {
		t.Fatalf("expected the first attempt untouched, got %v", got)
	}
}

func TestStartWhileConnectedReplacesSessionAndClearsHistory(t *testing.T) {
	provider := newFakeProvider(providers.KindGemini)
	o := NewOrchestrator(WithProvider(provider))

	if err := o.Start(context.Background(), NewSessionConfig(providers.KindGemini, "key")); err != nil {
		t.Fatalf("expected start to succeed, got %v", err)
	}
	first := provider.latestSession()
	firstSessionID := o.SessionID()
	o.History().Append(providers.Turn{Question: "q", Answer: "a"})

	if err := o.Start(context.Background(), NewSessionConfig(providers.KindGemini, "key")); err != nil {
		t.Fatalf("expected restart to succeed, got %v", err)
	}

	if first.closes == 0 {
		t.Fatalf("expected the replaced session to be closed")
	}
	if got := len(o.History().Turns()); got != 0 {
		t.Fatalf("expected history cleared on a manual start, got %d turns", got)
	}
	if o.SessionID() == firstSessionID {
		t.Fatalf("expected a fresh session identifier")
	}
}

func TestStopIsIdempotentAndEmitsClosedOnce(t *testing.T) {
	provider := newFakeProvider(providers.KindGemini)
	recorder := &eventRecorder{}
	o := NewOrchestrator(WithProvider(provider), WithEventSink(recorder))

	if err := o.Start(context.Background(), NewSessionConfig(providers.KindGemini, "key")); err != nil {
		t.Fatalf("expected start to succeed, got %v", err)
	}

	o.Stop()
	o.Stop()

	if got := o.State(); got != StateClosed {
		t.Fatalf("expected closed state, got %v", got)
	}
	if got := recorder.statusCount(events.StatusClosed); got != 1 {
		t.Fatalf("expected exactly one closed status, got %d", got)
	}
	if provider.latestSession().closes != 1 {
		t.Fatalf("expected the session closed once")
	}
}

func TestSendTextEmitsTranscriptAndForwards(t *testing.T) {
	provider := newFakeProvider(providers.KindOpenAI)
	recorder := &eventRecorder{}
	o := NewOrchestrator(WithProvider(provider), WithEventSink(recorder))

	if err := o.Start(context.Background(), NewSessionConfig(providers.KindOpenAI, "key")); err != nil {
		t.Fatalf("expected start to succeed, got %v", err)
	}
	if err := o.SendText(context.Background(), "typed question"); err != nil {
		t.Fatalf("expected send to succeed, got %v", err)
	}

	sent := provider.latestSession().sentTexts()
	if len(sent) != 1 || sent[0] != "typed question" {
		t.Fatalf("expected the text forwarded, got %v", sent)
	}
	started := 0
	for _, event := range recorder.snapshot() {
		if typedEvent, ok := event.(events.TranscriptStarted); ok {
			started++
			if typedEvent.Transcript != "typed question" {
				t.Fatalf("expected the typed text as transcript, got %q", typedEvent.Transcript)
			}
		}
	}
	if started != 1 {
		t.Fatalf("expected one transcript started event, got %d", started)
	}
}

func TestSendOperationsFailWithoutSession(t *testing.T) {
	o := NewOrchestrator()

	if err := o.SendText(context.Background(), "text"); !errors.Is(err, ErrSessionInactive) {
		t.Fatalf("expected ErrSessionInactive from SendText, got %v", err)
	}
	if err := o.SendAudioChunk([]byte{1}); !errors.Is(err, ErrSessionInactive) {
		t.Fatalf("expected ErrSessionInactive from SendAudioChunk, got %v", err)
	}
	if err := o.SendImage(context.Background(), []byte{1}, "image/png"); !errors.Is(err, ErrSessionInactive) {
		t.Fatalf("expected ErrSessionInactive from SendImage, got %v", err)
	}
}

func TestSendImageEmitsAttachmentEvent(t *testing.T) {
	provider := newFakeProvider(providers.KindGemini)
	recorder := &eventRecorder{}
	o := NewOrchestrator(WithProvider(provider), WithEventSink(recorder))

	if err := o.Start(context.Background(), NewSessionConfig(providers.KindGemini, "key")); err != nil {
		t.Fatalf("expected start to succeed, got %v", err)
	}
	if err := o.SendImage(context.Background(), []byte("image"), "image/png"); err != nil {
		t.Fatalf("expected send to succeed, got %v", err)
	}

	attached := 0
	for _, event := range recorder.snapshot() {
		if typedEvent, ok := event.(events.ImageAttached); ok {
			attached++
			if typedEvent.Data != "aW1hZ2U=" {
				t.Fatalf("expected base64 image data, got %q", typedEvent.Data)
			}
		}
	}
	if attached != 1 {
		t.Fatalf("expected one attachment event, got %d", attached)
	}
}

func TestCredentialRejectionOnCloseIsFatal(t *testing.T) {
	provider := newFakeProvider(providers.KindGemini)
	recorder := &eventRecorder{}
	o := NewOrchestrator(WithProvider(provider), WithEventSink(recorder))

	if err := o.Start(context.Background(), NewSessionConfig(providers.KindGemini, "key")); err != nil {
		t.Fatalf("expected start to succeed, got %v", err)
	}

	provider.latestCallbacks().OnClose(providers.ErrCredentialRejected)

	if got := o.State(); got != StateError {
		t.Fatalf("expected error state, got %v", got)
	}
	if got := recorder.statusCount(events.StatusError); got != 1 {
		t.Fatalf("expected one error status, got %d", got)
	}
	failures := 0
	for _, event := range recorder.snapshot() {
		if _, ok := event.(events.Failure); ok {
			failures++
		}
	}
	if failures != 1 {
		t.Fatalf("expected one failure event, got %d", failures)
	}
	if got := provider.openCount(); got != 1 {
		t.Fatalf("expected no reconnection attempt on credential rejection, got %d opens", got)
	}
}

func TestDeliberateCloseDoesNotReconnect(t *testing.T) {
	provider := newFakeProvider(providers.KindGemini)
	recorder := &eventRecorder{}
	o := NewOrchestrator(WithProvider(provider), WithEventSink(recorder))

	if err := o.Start(context.Background(), NewSessionConfig(providers.KindGemini, "key")); err != nil {
		t.Fatalf("expected start to succeed, got %v", err)
	}
	callbacks := provider.latestCallbacks()
	o.Stop()
	callbacks.OnClose(errors.New("read loop finished"))

	if got := provider.openCount(); got != 1 {
		t.Fatalf("expected no reconnection after a deliberate stop, got %d opens", got)
	}
	if got := recorder.statusCount(events.StatusClosed); got != 1 {
		t.Fatalf("expected exactly one closed status, got %d", got)
	}
}
