package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
)

// DefaultSpeechRate is slightly faster than a normal speaking voice.
const DefaultSpeechRate = 1.1

// SpeakerConfig configures a Speaker.
type SpeakerConfig struct {
	Plugin string
	// Action defaults to ActionSpeak.
	Action string
	// Rate defaults to DefaultSpeechRate.
	Rate     float64
	Exercise string
	// OnError receives plugin failures. Defaults to logging them.
	OnError func(error)
}

// Speaker hands feedback text to an announcer plugin. Each call starts the
// plugin in the background and cancels the utterance still in flight, so only
// the newest feedback is voiced.
type Speaker struct {
	mgr  *Manager
	exec *Executor
	cfg  SpeakerConfig

	mu     sync.Mutex
	cancel context.CancelFunc
	closed bool
	wg     sync.WaitGroup
}

// NewSpeaker creates a Speaker that runs cfg.Plugin through exec.
func NewSpeaker(mgr *Manager, exec *Executor, cfg SpeakerConfig) *Speaker {
	if cfg.Action == "" {
		cfg.Action = ActionSpeak
	}
	if cfg.Rate == 0 {
		cfg.Rate = DefaultSpeechRate
	}
	if cfg.OnError == nil {
		cfg.OnError = func(err error) {
			log.Printf("speech plugin %s failed: %v", cfg.Plugin, err)
		}
	}
	return &Speaker{mgr: mgr, exec: exec, cfg: cfg}
}

// Speak starts voicing text and returns without waiting for the plugin.
// It fails only when the plugin cannot be used at all.
func (s *Speaker) Speak(text string) error {
	p, err := s.mgr.Find(s.cfg.Plugin, s.cfg.Action)
	if err != nil {
		return err
	}

	req, err := s.request(text)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New("speaker closed")
	}
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()

		resp, err := s.exec.Execute(ctx, p, req)
		switch {
		case errors.Is(err, context.Canceled):
			// Superseded by newer feedback.
		case err != nil:
			s.cfg.OnError(err)
		case !resp.Success:
			s.cfg.OnError(fmt.Errorf("%s: %s", req.Action, resp.Error))
		}
	}()

	return nil
}

func (s *Speaker) request(text string) (*Request, error) {
	var params any
	switch s.cfg.Action {
	case ActionNotify:
		params = NotifyParams{Title: "Form coach", Message: text}
	default:
		params = SpeakParams{Text: text, Rate: s.cfg.Rate}
	}

	data, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params: %w", err)
	}
	return &Request{Action: s.cfg.Action, Exercise: s.cfg.Exercise, Params: data}, nil
}

// Wait blocks until every started utterance has finished or been cancelled.
func (s *Speaker) Wait() {
	s.wg.Wait()
}

// Close cancels the utterance in flight and waits for it to stop.
func (s *Speaker) Close() error {
	s.mu.Lock()
	s.closed = true
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}
