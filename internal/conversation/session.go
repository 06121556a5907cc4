// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jeranaias/sentinel-syx/internal/deepseek"
	"github.com/jeranaias/sentinel-syx/internal/document"
	"github.com/jeranaias/sentinel-syx/internal/export"
	"github.com/jeranaias/sentinel-syx/internal/model"
	"github.com/jeranaias/sentinel-syx/internal/search"
	"github.com/jeranaias/sentinel-syx/internal/util"
)

// =============================================================================
// FIXED TEXT
// =============================================================================

const (
	// ConfigurePrompt is the reply when no completion key is configured.
	ConfigurePrompt = "Please set your DeepSeek API key to enable AI responses."

	// ApologyMessage is the reply when the completion call fails.
	ApologyMessage = "Sorry, there was an error processing your request. Please try again later."

	// SearchFollowUp is the synthetic user turn that follows search results.
	SearchFollowUp = "Please use the search results you just provided to answer my original question in a comprehensive way."

	searchIntro = "I searched the internet for you and found these results:\n\n"
	searchOutro = "\n\nNow I'll answer your question based on this information."

	// DefaultAssistantName labels assistant messages in exports.
	DefaultAssistantName = "S.E.N.T.I.N.E.L S.Y.X"

	// DefaultTemperature is the sampling temperature of a new session.
	DefaultTemperature = 0.7

	// NeutralTone needs no extra instruction.
	NeutralTone = "professional"
)

// SearchContext renders formatted results as the synthetic assistant turn.
func SearchContext(formatted string) string {
	return searchIntro + formatted + searchOutro
}

// ToneInstruction renders the synthetic user turn for tone.
func ToneInstruction(tone string) string {
	return fmt.Sprintf("Please respond in a %s tone.", tone)
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrEmptyInput is returned for blank input; nothing is appended.
	ErrEmptyInput = errors.New("input is empty")

	// ErrNoUserTurn is returned by RegenerateLast when there is nothing to redo.
	ErrNoUserTurn = errors.New("no user message to regenerate")

	// ErrSessionCleared is returned by a turn invalidated by Clear.
	ErrSessionCleared = errors.New("session was cleared")
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Completer produces a reply for a turn list.
type Completer interface {
	Complete(ctx context.Context, turns []model.Turn, temperature float64, key string) (string, error)
}

// Searcher runs a web search.
type Searcher interface {
	Search(ctx context.Context, query, key string) ([]search.Result, error)
}

// CredentialSource supplies the current API keys.
type CredentialSource interface {
	Credentials() model.Credentials
}

// TurnOptions are the per-turn mode flags.
type TurnOptions struct {
	UseInternet bool
	UseDocument bool
}

func (o TurnOptions) flags() model.Flags {
	return model.Flags{UseInternet: o.UseInternet, UseDocument: o.UseDocument}
}

// =============================================================================
// SESSION
// =============================================================================

// Session is one chat conversation. It is safe for concurrent use.
type Session struct {
	completer Completer
	searcher  Searcher
	creds     CredentialSource

	logger        zerolog.Logger
	assistantName string
	temperature   float64
	tone          string
	onChange      func()

	// turnMu serializes turns; mu guards the fields below it.
	turnMu sync.Mutex
	mu     sync.Mutex
	log    model.Log
	busy   bool
	gen    uint64
	cancel context.CancelFunc
	doc    *document.Document
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = logger.With().Str("component", "session").Logger()
	}
}

// WithAssistantName sets the label used for assistant messages in exports.
func WithAssistantName(name string) Option {
	return func(s *Session) {
		if !util.IsBlank(name) {
			s.assistantName = name
		}
	}
}

// WithTemperature sets the sampling temperature sent with every request.
func WithTemperature(t float64) Option {
	return func(s *Session) { s.temperature = t }
}

// WithTone sets the reply tone. "professional" or empty adds no instruction.
func WithTone(tone string) Option {
	return func(s *Session) { s.tone = tone }
}

// WithOnChange registers fn to be called after every log or busy change.
// fn runs on the goroutine that made the change, with no locks held.
func WithOnChange(fn func()) Option {
	return func(s *Session) { s.onChange = fn }
}

// NewSession creates an empty session.
func NewSession(completer Completer, searcher Searcher, creds CredentialSource, opts ...Option) *Session {
	s := &Session{
		completer:     completer,
		searcher:      searcher,
		creds:         creds,
		logger:        zerolog.Nop(),
		assistantName: DefaultAssistantName,
		temperature:   DefaultTemperature,
		tone:          NeutralTone,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// =============================================================================
// TURNS
// =============================================================================

// SubmitTurn runs one turn for text and returns the appended assistant
// message. Blank text returns ErrEmptyInput and changes nothing. Service
// failures are absorbed into the reply text; the only other error is
// ErrSessionCleared.
func (s *Session) SubmitTurn(ctx context.Context, text string, opts TurnOptions) (model.Message, error) {
	if util.IsBlank(text) {
		return model.Message{}, ErrEmptyInput
	}

	gen := s.generation()
	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	return s.runTurn(ctx, gen, text, opts)
}

// RegenerateLast removes the most recent user message and everything after
// it, then submits that message again with its original flags.
func (s *Session) RegenerateLast(ctx context.Context) (model.Message, error) {
	gen := s.generation()
	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return model.Message{}, ErrSessionCleared
	}
	idx := s.log.LastIndexOf(model.RoleUser)
	if idx < 0 {
		s.mu.Unlock()
		return model.Message{}, ErrNoUserTurn
	}
	last := s.log.At(idx)
	s.log.Truncate(idx)
	s.mu.Unlock()

	s.logger.Debug().Int("index", idx).Msg("regenerating last reply")

	opts := TurnOptions{UseInternet: last.UseInternet, UseDocument: last.UseDocument}
	return s.runTurn(ctx, gen, last.Content, opts)
}

// runTurn is the turn pipeline. The caller holds turnMu.
func (s *Session) runTurn(ctx context.Context, gen uint64, text string, opts TurnOptions) (model.Message, error) {
	turnCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	flags := opts.flags()
	userMsg := model.NewUserMessage(text, flags)

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return model.Message{}, ErrSessionCleared
	}
	outgoing := append(s.log.Turns(), userMsg.Turn())
	s.log.Append(userMsg)
	s.busy = true
	s.cancel = cancel
	doc := s.doc
	s.mu.Unlock()
	s.notify()

	creds := s.creds.Credentials()

	if opts.UseDocument && doc != nil {
		outgoing = append(outgoing, model.UserTurn(doc.PromptText()))
	}
	if opts.UseInternet {
		outgoing = s.withSearch(turnCtx, outgoing, text, creds)
	}
	if s.tone != "" && s.tone != NeutralTone {
		outgoing = append(outgoing, model.UserTurn(ToneInstruction(s.tone)))
	}

	reply := s.complete(turnCtx, outgoing, creds)
	assistantMsg := model.NewAssistantMessage(reply, flags)

	s.mu.Lock()
	s.busy = false
	s.cancel = nil
	stale := s.gen != gen
	if !stale {
		s.log.Append(assistantMsg)
	}
	s.mu.Unlock()
	s.notify()

	if stale {
		s.logger.Debug().Msg("dropping reply for cleared session")
		return model.Message{}, ErrSessionCleared
	}
	return assistantMsg, nil
}

// withSearch appends the search-result turns to outgoing. Search problems
// are logged and leave outgoing unchanged.
func (s *Session) withSearch(ctx context.Context, outgoing []model.Turn, query string, creds model.Credentials) []model.Turn {
	if !creds.HasSearchKey() || s.searcher == nil {
		s.logger.Debug().Msg("internet mode on but no search key configured")
		return outgoing
	}

	results, err := s.searcher.Search(ctx, query, creds.SearchKey)
	if err != nil {
		s.logger.Warn().Err(err).Msg("web search failed, continuing without results")
		return outgoing
	}

	s.logger.Debug().Int("results", len(results)).Msg("web search complete")
	return append(outgoing,
		model.AssistantTurn(SearchContext(search.FormatResults(results))),
		model.UserTurn(SearchFollowUp),
	)
}

// complete returns the reply text for outgoing; it never fails.
func (s *Session) complete(ctx context.Context, outgoing []model.Turn, creds model.Credentials) string {
	if !creds.HasCompletionKey() {
		s.logger.Info().Msg("no completion key configured")
		return ConfigurePrompt
	}

	reply, err := s.completer.Complete(ctx, outgoing, s.temperature, creds.CompletionKey)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("class", deepseek.Classify(err)).
			Str("key_fp", deepseek.Fingerprint(creds.CompletionKey)).
			Int("turns", len(outgoing)).
			Msg("completion failed")
		return ApologyMessage
	}
	return reply
}

// =============================================================================
// SESSION STATE
// =============================================================================

// Clear empties the log. A turn in flight is cancelled and its reply
// dropped; queued turns are dropped before they start.
func (s *Session) Clear() {
	s.mu.Lock()
	s.log.Clear()
	s.gen++
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	s.logger.Debug().Msg("session cleared")
	s.notify()
}

// AttachDocument sets the document sent with document-mode turns,
// replacing any previous one.
func (s *Session) AttachDocument(doc document.Document) {
	s.mu.Lock()
	s.doc = &doc
	s.mu.Unlock()
	s.notify()
}

// DetachDocument removes the attached document.
func (s *Session) DetachDocument() {
	s.mu.Lock()
	s.doc = nil
	s.mu.Unlock()
	s.notify()
}

// Document returns the attached document.
func (s *Session) Document() (document.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return document.Document{}, false
	}
	return *s.doc, true
}

// Messages returns a copy of the log.
func (s *Session) Messages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.Messages()
}

// Len returns the number of messages in the log.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.Len()
}

// Busy reports whether a turn is waiting on the network.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// AssistantName returns the assistant label.
func (s *Session) AssistantName() string {
	return s.assistantName
}

// Temperature returns the sampling temperature.
func (s *Session) Temperature() float64 {
	return s.temperature
}

// Tone returns the configured reply tone.
func (s *Session) Tone() string {
	return s.tone
}

// ExportAsText renders the log as "You: ..." / "<assistant>: ..."
// paragraphs.
func (s *Session) ExportAsText() string {
	return export.FormatText(s.Messages(), s.assistantName)
}

// Transcript snapshots the log for file export.
func (s *Session) Transcript() *export.Transcript {
	return export.NewTranscript(s.assistantName, s.Messages())
}

func (s *Session) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

func (s *Session) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}
