package session

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/nqu-vtuber/backend/internal/model/chat"
	"github.com/nqu-vtuber/backend/internal/service/llm"
)

// State 会话状态机的状态。
type State string

const (
	StateConnected  State = "connected"
	StateProcessing State = "processing"
	StateClosed     State = "closed"
)

// pipelineQueueSize bounds how many inputs may wait behind the in-flight
// pipeline run for one session.
const pipelineQueueSize = 16

type jobKind int

const (
	jobText jobKind = iota
	jobEmotion
)

type job struct {
	kind    jobKind
	payload string // user text, or the emotion label
}

// Session 每个连接一个。独占持有会话历史与情绪状态，并驱动
// 生成→合成 流水线。同一会话内流水线严格串行（FIFO），
// 并发只存在于会话之间。
type Session struct {
	ID string

	generator    Generator
	synthesizer  Synthesizer
	trigger      *Trigger
	sink         EventSink
	historyLimit int

	ctx    context.Context
	cancel context.CancelFunc
	jobs   chan job
	done   chan struct{}

	mu      sync.Mutex
	state   State
	history []chat.Turn
	emotion string
}

// New starts the session's pipeline worker. The caller owns the lifecycle and
// must call Close when the connection goes away.
func New(id string, generator Generator, synthesizer Synthesizer, trigger *Trigger, sink EventSink, historyLimit int) *Session {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Session{
		ID:           id,
		generator:    generator,
		synthesizer:  synthesizer,
		trigger:      trigger,
		sink:         sink,
		historyLimit: historyLimit,
		ctx:          ctx,
		cancel:       cancel,
		jobs:         make(chan job, pipelineQueueSize),
		done:         make(chan struct{}),
		state:        StateConnected,
	}

	go s.run()
	return s
}

// State returns the current pipeline state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Emotion returns the last-known emotion label, empty if none was reported.
func (s *Session) Emotion() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.emotion
}

// History returns a copy of the conversation history.
func (s *Session) History() []chat.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]chat.Turn, len(s.history))
	copy(copied, s.history)
	return copied
}

// HandleTextInput queues a user message for the pipeline. Inputs arriving
// while a run is in flight are processed strictly after it, in arrival order.
func (s *Session) HandleTextInput(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyInput
	}
	return s.enqueue(job{kind: jobText, payload: text})
}

// HandleEmotionUpdate records the emotion unconditionally, then asks the
// trigger whether a spontaneous interaction should fire.
func (s *Session) HandleEmotionUpdate(label string) error {
	label = strings.TrimSpace(label)
	if label == "" {
		return ErrEmptyInput
	}

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.emotion = label
	s.mu.Unlock()

	if !s.trigger.ShouldTrigger(label) {
		return nil
	}

	if err := s.enqueue(job{kind: jobEmotion, payload: label}); err != nil {
		s.trigger.Release(label)
		log.Printf("[session] dropping emotion interaction session=%s emotion=%s: %v", s.ID, label, err)
		return err
	}
	return nil
}

// Close transitions to the terminal state and drops queued work. In-flight
// external calls are cancelled through the session context; whatever they
// return is discarded.
func (s *Session) Close() {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateClosed
	s.mu.Unlock()

	s.cancel()
	<-s.done
	log.Printf("[session] closed session=%s", s.ID)
}

func (s *Session) enqueue(j job) error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.mu.Unlock()

	select {
	case s.jobs <- j:
		return nil
	default:
		return ErrQueueFull
	}
}

func (s *Session) run() {
	defer close(s.done)

	for {
		select {
		case <-s.ctx.Done():
			return
		case j := <-s.jobs:
			s.setProcessing(true)
			s.process(j)
			s.setProcessing(false)
		}
	}
}

func (s *Session) setProcessing(processing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return
	}
	if processing {
		s.state = StateProcessing
	} else {
		s.state = StateConnected
	}
}

func (s *Session) process(j job) {
	switch j.kind {
	case jobText:
		s.processText(j.payload)
	case jobEmotion:
		s.processEmotion(j.payload)
	}
}

func (s *Session) processText(text string) {
	s.mu.Lock()
	prior := make([]chat.Turn, len(s.history))
	copy(prior, s.history)
	s.history = append(s.history, chat.NewTurn(chat.RoleUser, text))
	s.trimHistoryLocked()
	s.mu.Unlock()

	reply, err := s.generator.Generate(s.ctx, prior, text)
	if err != nil {
		log.Printf("[session] generation failed session=%s: %v", s.ID, err)
		if !s.closed() {
			s.sink.SendError("failed to generate a response")
		}
		return
	}

	s.mu.Lock()
	s.history = append(s.history, chat.NewTurn(chat.RoleAssistant, reply))
	s.trimHistoryLocked()
	s.mu.Unlock()

	audio := s.synthesize(reply)
	if s.closed() {
		return
	}
	s.sink.SendResponse(reply, audio)
}

func (s *Session) processEmotion(label string) {
	// Spontaneous interactions run against a synthetic prompt and leave the
	// conversation history untouched.
	reply, err := s.generator.Generate(s.ctx, nil, llm.EmotionPrompt(label))
	if err != nil {
		log.Printf("[session] emotion interaction generation failed session=%s: %v", s.ID, err)
		if !s.closed() {
			s.sink.SendError("failed to generate a response")
		}
		return
	}

	audio := s.synthesize(reply)
	if s.closed() {
		return
	}
	s.sink.SendEmotionInteraction(label, reply, audio)
}

// synthesize returns nil audio on failure; text-only delivery is the
// fallback, with the failure reported out of band.
func (s *Session) synthesize(reply string) []byte {
	audio, err := s.synthesizer.Synthesize(s.ctx, s.ID, reply)
	if err != nil {
		log.Printf("[session] synthesis failed session=%s: %v", s.ID, err)
		if !s.closed() {
			s.sink.SendError("speech synthesis failed")
		}
		return nil
	}
	return audio
}

func (s *Session) closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateClosed
}

// trimHistoryLocked 丢弃最旧的轮次，保持历史在配置的上限内。
func (s *Session) trimHistoryLocked() {
	if s.historyLimit > 0 && len(s.history) > s.historyLimit {
		s.history = s.history[len(s.history)-s.historyLimit:]
	}
}
