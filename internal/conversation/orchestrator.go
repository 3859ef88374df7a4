package conversation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrAlreadyRunning is returned by Start when a conversation is active.
	ErrAlreadyRunning = errors.New("conversation already running")
	// ErrNotHumanTurn is returned by the Submit methods when no human turn
	// is awaiting input.
	ErrNotHumanTurn = errors.New("no human turn awaiting input")
)

const (
	defaultMaxTurns     = 12
	defaultContextTurns = 4
	defaultHumanTimeout = 30 * time.Second
	defaultErrorDelay   = time.Second
	defaultDrainTimeout = 5 * time.Second
	statusHistorySize   = 5

	// humanTimeoutText substitutes for a human who never answered.
	humanTimeoutText = "I think this is really interesting, please continue."
	// humanAudioText is the history placeholder when the human spoke rather
	// than typed; the raw audio itself goes to the next persona.
	humanAudioText = "[Human spoke via microphone]"

	defaultTopic = "Welcome to our AI podcast! Let's have an engaging discussion about technology and society."
)

// Options tune the orchestrator. Zero values select the defaults above.
type Options struct {
	MaxTurns      int
	ContextTurns  int
	HumanTimeout  time.Duration
	FrameDuration time.Duration
	ErrorDelay    time.Duration
	DrainTimeout  time.Duration
	SampleRate    int
	// Rand seeds speaker selection; defaults to a time-seeded source.
	Rand *rand.Rand
}

func (o *Options) applyDefaults() {
	if o.MaxTurns <= 0 {
		o.MaxTurns = defaultMaxTurns
	}
	if o.ContextTurns <= 0 {
		o.ContextTurns = defaultContextTurns
	}
	if o.HumanTimeout <= 0 {
		o.HumanTimeout = defaultHumanTimeout
	}
	if o.FrameDuration <= 0 {
		o.FrameDuration = DefaultFrameDuration
	}
	if o.ErrorDelay <= 0 {
		o.ErrorDelay = defaultErrorDelay
	}
	if o.DrainTimeout <= 0 {
		o.DrainTimeout = defaultDrainTimeout
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
}

// Status is a point-in-time snapshot of the conversation, safe to request
// while a turn is in progress.
type Status struct {
	ConversationID string      `json:"conversation_id"`
	Active         bool        `json:"active"`
	CurrentTurn    int         `json:"current_turn"`
	MaxTurns       int         `json:"max_turns"`
	TotalTurns     int         `json:"total_turns"`
	CurrentSpeaker string      `json:"current_speaker,omitempty"`
	HumanTurn      bool        `json:"human_turn"`
	Personas       []string    `json:"personas"`
	History        []TurnEntry `json:"history"`
}

// Orchestrator cycles speaking turns among the persona roster plus one human,
// driving the backend through the Collector and pacing transitions with the
// ChunkTimer. One conversation is active per Orchestrator at a time.
type Orchestrator struct {
	personas  []PersonaConfig
	bus       *Bus
	collector *Collector
	timer     *ChunkTimer
	opts      Options

	humanText  Mailbox[string]
	humanAudio Mailbox[[]byte]
	nomination Mailbox[SpeakerChoice]
	humanReady chan struct{}

	generating *gate

	mu             sync.Mutex
	id             string
	running        bool
	turn           int
	currentSpeaker string
	speaking       bool
	humanTurn      bool
	history        *History
	cancel         context.CancelFunc
	done           chan struct{}
}

// New constructs an orchestrator over the given roster and backend. The bus
// receives all lifecycle events; callers subscribe to it for delivery.
func New(personas []PersonaConfig, backend Backend, bus *Bus, opts Options) *Orchestrator {
	opts.applyDefaults()
	timer := NewChunkTimer(opts.FrameDuration)
	o := &Orchestrator{
		personas:   personas,
		bus:        bus,
		timer:      timer,
		opts:       opts,
		humanReady: make(chan struct{}, 1),
		generating: newGate(),
		history:    NewHistory(),
	}
	o.collector = NewCollector(backend, timer, bus, opts.SampleRate)
	log.Printf("orchestrator: initialized with %d personas + %s", len(personas), HumanSpeaker)
	return o
}

// Events returns the bus lifecycle events are published on.
func (o *Orchestrator) Events() *Bus { return o.bus }

// Start begins a new conversation seeded with topic and returns immediately;
// the turn loop runs on its own goroutine until max turns, Stop, or ctx
// cancellation. Starting while running is a logged no-op.
func (o *Orchestrator) Start(ctx context.Context, topic string) error {
	if len(o.personas) == 0 {
		return fmt.Errorf("orchestrator: no personas configured")
	}
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		log.Printf("orchestrator: start ignored, conversation already running")
		return ErrAlreadyRunning
	}
	prior := o.done
	o.mu.Unlock()

	// A stopped conversation's loop may still be finishing an in-flight
	// backend exchange. Wait for it to unwind completely so it cannot write
	// into the new conversation's history or flip its flags.
	if prior != nil {
		select {
		case <-prior:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		log.Printf("orchestrator: start ignored, conversation already running")
		return ErrAlreadyRunning
	}
	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	o.running = true
	o.turn = 0
	o.id = uuid.NewString()
	o.history = NewHistory()
	o.cancel = cancel
	o.done = done
	id := o.id
	o.mu.Unlock()

	o.timer.ClearAll()
	o.humanText.Take()
	o.humanAudio.Take()
	o.nomination.Take()

	if strings.TrimSpace(topic) == "" {
		topic = defaultTopic
	}
	log.Printf("orchestrator: starting conversation %s, topic: %s", id, topic)

	go func() {
		defer close(done)
		o.run(ctx, loopCtx, topic)
	}()
	return nil
}

// Stop ends the conversation. In-flight work observes the flag at its next
// wait point and unwinds without emitting further turns; a live backend
// exchange is allowed to finish naturally.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return
	}
	o.running = false
	cancel := o.cancel
	o.mu.Unlock()
	log.Printf("orchestrator: stopping conversation")
	if cancel != nil {
		cancel()
	}
}

// Done returns a channel closed when the current turn loop exits. It is nil
// before the first Start.
func (o *Orchestrator) Done() <-chan struct{} {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.done
}

// SubmitHumanText records the human's typed response. Only effective while a
// human turn is awaiting input; a second call before consumption overwrites
// the first (last write wins).
func (o *Orchestrator) SubmitHumanText(text string) error {
	if !o.isHumanTurn() {
		log.Printf("orchestrator: human text ignored, not a human turn")
		return ErrNotHumanTurn
	}
	log.Printf("orchestrator: received human text (%d chars)", len(text))
	o.humanText.Put(text)
	o.signalHuman()
	return nil
}

// SubmitHumanAudio records raw PCM16 from the human. The audio is handed to
// the next persona as its input; history records a placeholder.
func (o *Orchestrator) SubmitHumanAudio(pcm []byte) error {
	if !o.isHumanTurn() {
		log.Printf("orchestrator: human audio ignored, not a human turn")
		return ErrNotHumanTurn
	}
	log.Printf("orchestrator: received human audio (%d bytes)", len(pcm))
	o.humanAudio.Put(pcm)
	o.humanText.Put(humanAudioText)
	o.signalHuman()
	return nil
}

// Status snapshots the conversation without blocking the turn loop.
func (o *Orchestrator) Status() Status {
	names := make([]string, len(o.personas))
	for i, p := range o.personas {
		names[i] = p.Name
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return Status{
		ConversationID: o.id,
		Active:         o.running,
		CurrentTurn:    o.turn,
		MaxTurns:       o.opts.MaxTurns,
		TotalTurns:     o.history.Len(),
		CurrentSpeaker: o.currentSpeaker,
		HumanTurn:      o.humanTurn,
		Personas:       names,
		History:        o.history.Last(statusHistorySize),
	}
}

// run is the turn loop. It is the only goroutine that mutates turn state;
// external calls merely set flags and mailboxes it consumes.
func (o *Orchestrator) run(ctx, loopCtx context.Context, topic string) {
	next := o.personas[0].Name
	seed := topic
	previous := ""
	afterHuman := false

	for {
		if !o.isRunning() || loopCtx.Err() != nil {
			o.stopUnwind()
			return
		}
		if o.turnCount() >= o.opts.MaxTurns {
			o.complete()
			return
		}

		if next == HumanSpeaker {
			if !o.humanTurnStep(loopCtx) {
				o.stopUnwind()
				return
			}
			previous, afterHuman = HumanSpeaker, true
		} else {
			persona, ok := o.personaByName(next)
			if !ok {
				persona = o.personas[0]
			}
			o.personaTurnStep(ctx, loopCtx, persona, seed)
			seed = ""
			previous, afterHuman = persona.Name, false
		}

		var choice *SpeakerChoice
		if c, ok := o.nomination.Take(); ok {
			choice = &c
		}
		sel := SelectNext(choice, o.rosterNames(), previous, afterHuman, o.opts.Rand)
		log.Printf("orchestrator: next speaker %s (%s)", sel.Speaker, sel.Reason)
		next = sel.Speaker
	}
}

// personaTurnStep runs one persona turn end to end. A backend failure is
// recorded as an error-marked turn and never halts the conversation.
func (o *Orchestrator) personaTurnStep(ctx, loopCtx context.Context, persona PersonaConfig, seed string) {
	turn := o.beginTurn(persona.Name, false)
	log.Printf("orchestrator: turn %d: %s speaking", turn, persona.Name)
	o.bus.Publish(Event{Kind: EventPersonaStarted, Turn: turn, Speaker: persona.Name})

	prompt := o.buildPrompt(persona, seed)
	inputAudio, _ := o.humanAudio.Take()

	o.generating.Set(true)
	res, err := o.collector.Collect(ctx, turn, persona, prompt, inputAudio, o.speakerValues())
	o.generating.Set(false)

	if err != nil {
		log.Printf("orchestrator: turn %d failed: %v", turn, err)
		o.appendEntry(TurnEntry{
			Speaker:   persona.Name,
			Text:      fmt.Sprintf("[ERROR: %s encountered an issue]", persona.Name),
			Timestamp: time.Now(),
		})
		o.bus.Publish(Event{Kind: EventTurnError, Turn: turn, Speaker: persona.Name})
		o.endTurn()
		o.sleep(loopCtx, o.opts.ErrorDelay)
		return
	}

	if res.Choice != nil {
		o.nomination.Put(*res.Choice)
	}
	o.appendEntry(TurnEntry{
		Speaker:    persona.Name,
		Text:       res.Text,
		Timestamp:  time.Now(),
		AudioBytes: len(res.WAV),
	})
	preview := res.Text
	if len(preview) > 100 {
		preview = preview[:100] + "..."
	}
	log.Printf("orchestrator: turn %d: %s: %s", turn, persona.Name, preview)
	o.bus.Publish(Event{
		Kind:    EventPersonaFinished,
		Turn:    turn,
		Speaker: persona.Name,
		Text:    res.Text,
		Audio:   res.WAV,
	})
	o.endTurn()
	o.waitForAudio(loopCtx, persona.Name)
}

// humanTurnStep waits for human input with a hard timeout, substituting a
// canned response when none arrives. Returns false when the loop should stop.
func (o *Orchestrator) humanTurnStep(loopCtx context.Context) bool {
	// Drop anything left over from a previous turn.
	o.humanText.Take()
	o.drainHumanSignal()

	turn := o.beginTurn(HumanSpeaker, true)
	log.Printf("orchestrator: turn %d: waiting for human input", turn)
	o.bus.Publish(Event{Kind: EventHumanStarted, Turn: turn})

	timer := time.NewTimer(o.opts.HumanTimeout)
	defer timer.Stop()

	var text string
	for text == "" {
		select {
		case <-o.humanReady:
			if t, ok := o.humanText.Take(); ok && t != "" {
				text = t
			}
		case <-timer.C:
			log.Printf("orchestrator: human response timeout, using default response")
			text = humanTimeoutText
		case <-loopCtx.Done():
			o.endTurn()
			return false
		}
	}

	o.appendEntry(TurnEntry{Speaker: HumanSpeaker, Text: text, Timestamp: time.Now()})
	log.Printf("orchestrator: turn %d: %s: %s", turn, HumanSpeaker, text)
	o.bus.Publish(Event{Kind: EventHumanEnded, Turn: turn})
	o.endTurn()
	return true
}

// waitForAudio approximates playback time from the recorded frame count, then
// gives audio generation a bounded window to settle before the next turn.
func (o *Orchestrator) waitForAudio(loopCtx context.Context, name string) {
	wait := o.timer.EstimatedWait(name)
	log.Printf("orchestrator: pacing %s after %s (%d frames)", wait, name, o.timer.FrameCount(name))
	if wait > 0 {
		o.sleep(loopCtx, wait)
	}
	if !o.generating.WaitClear(loopCtx, o.opts.DrainTimeout) {
		log.Printf("orchestrator: audio generation still flagged for %s, forcing clear", name)
		o.generating.Set(false)
	}
}

func (o *Orchestrator) buildPrompt(persona PersonaConfig, seed string) string {
	convo := o.history.Context(o.speakerValues(), o.opts.ContextTurns)
	subject := "what was just said"
	if seed != "" {
		subject = seed
	}
	return fmt.Sprintf(`You are %s in a lively panel discussion.

%s

1. First, give your response in one or two sentences to: %s
2. Then you MUST call the select_next_speaker function to choose who speaks next.

Pick whoever you most want to respond to your point.`, persona.Name, convo, subject)
}

func (o *Orchestrator) complete() {
	o.mu.Lock()
	o.running = false
	o.currentSpeaker = ""
	o.speaking = false
	o.humanTurn = false
	total := o.history.Len()
	o.mu.Unlock()
	log.Printf("orchestrator: conversation complete after %d turns", total)
	o.bus.Publish(Event{Kind: EventComplete, Turn: total})
}

// stopUnwind finalizes a conversation ended by Stop or context cancellation.
// The terminal event lets observers (the live feed, the metrics gauge) see
// the conversation end even though no completion is reached.
func (o *Orchestrator) stopUnwind() {
	total := o.turnCount()
	log.Printf("orchestrator: conversation stopped after %d turns", total)
	o.reset(false)
	o.bus.Publish(Event{Kind: EventStopped, Turn: total})
}

func (o *Orchestrator) reset(running bool) {
	o.mu.Lock()
	o.running = running
	o.currentSpeaker = ""
	o.speaking = false
	o.humanTurn = false
	o.mu.Unlock()
}

func (o *Orchestrator) beginTurn(speaker string, human bool) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.turn++
	o.currentSpeaker = speaker
	o.speaking = !human
	o.humanTurn = human
	return o.turn
}

func (o *Orchestrator) endTurn() {
	o.mu.Lock()
	o.currentSpeaker = ""
	o.speaking = false
	o.humanTurn = false
	o.mu.Unlock()
}

func (o *Orchestrator) appendEntry(e TurnEntry) {
	o.mu.Lock()
	h := o.history
	o.mu.Unlock()
	h.Append(e)
}

func (o *Orchestrator) isRunning() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running
}

func (o *Orchestrator) isHumanTurn() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running && o.humanTurn
}

func (o *Orchestrator) turnCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.turn
}

func (o *Orchestrator) personaByName(name string) (PersonaConfig, bool) {
	for _, p := range o.personas {
		if p.Name == name {
			return p, true
		}
	}
	return PersonaConfig{}, false
}

func (o *Orchestrator) rosterNames() []string {
	names := make([]string, len(o.personas))
	for i, p := range o.personas {
		names[i] = p.Name
	}
	return names
}

// speakerValues is the roster plus the human, the allowed values of the
// next-speaker choice.
func (o *Orchestrator) speakerValues() []string {
	return append(o.rosterNames(), HumanSpeaker)
}

func (o *Orchestrator) signalHuman() {
	select {
	case o.humanReady <- struct{}{}:
	default:
	}
}

func (o *Orchestrator) drainHumanSignal() {
	select {
	case <-o.humanReady:
	default:
	}
}

func (o *Orchestrator) sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
