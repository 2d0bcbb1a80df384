// Package assistant routes a typed question to the session or the backend
// and hands exactly one Reply back to the presentation layer.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/deskmate/internal/answer"
	"github.com/kalambet/deskmate/internal/engine"
	"github.com/kalambet/deskmate/internal/session"
	"github.com/kalambet/deskmate/internal/storage"
)

// Context replay strategies.
const (
	// ReplayQuestions lists remembered questions in the prompt.
	ReplayQuestions = "questions"
	// ReplayLastExchange sends the last exchange as two chat turns.
	ReplayLastExchange = "last_exchange"
)

// ThinkingText is shown while a question is outstanding.
const ThinkingText = "Thinking…"

// backendLocal marks replies produced without calling a backend.
const backendLocal = "local"

// Reply is the single result of one submitted question. Success and
// failure travel the same way; Text is always what should be shown.
type Reply struct {
	Question      string      `json:"question"`
	Text          string      `json:"text"`
	Full          string      `json:"full,omitempty"`
	Truncated     bool        `json:"truncated"`
	Kind          answer.Kind `json:"kind"`
	InteractionID string      `json:"interaction_id,omitempty"`
}

// InteractionLog receives every reply. Implemented by storage.SQLiteStore.
type InteractionLog interface {
	SaveInteraction(storage.Interaction) error
}

// Options configures an Assistant.
type Options struct {
	Replay string
	Log    InteractionLog
}

// Assistant owns no state of its own beyond the reply channel: the
// session is shared with the presentation layer by reference.
type Assistant struct {
	session *session.Session
	fetcher *answer.Fetcher
	replay  string
	log     InteractionLog

	replies chan Reply
	wg      sync.WaitGroup
}

func New(s *session.Session, f *answer.Fetcher, opts Options) *Assistant {
	if opts.Replay == "" {
		opts.Replay = ReplayQuestions
	}
	return &Assistant{
		session: s,
		fetcher: f,
		replay:  opts.Replay,
		log:     opts.Log,
		replies: make(chan Reply, 8),
	}
}

// Session returns the session the assistant mutates.
func (a *Assistant) Session() *session.Session { return a.session }

// Replies delivers one Reply per accepted Submit.
func (a *Assistant) Replies() <-chan Reply { return a.replies }

// Submit starts one worker for text and returns immediately. Blank input
// is rejected. Nothing stops a caller from submitting again while a
// worker is outstanding.
func (a *Assistant) Submit(ctx context.Context, text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		r := a.Handle(ctx, text)
		select {
		case a.replies <- r:
		case <-ctx.Done():
			slog.Debug("reply dropped, presentation gone", "question", text)
		}
	}()
	return true
}

// Wait blocks until every submitted worker has finished.
func (a *Assistant) Wait() { a.wg.Wait() }

// Handle answers text synchronously on the caller's goroutine.
func (a *Assistant) Handle(ctx context.Context, text string) Reply {
	text = strings.TrimSpace(text)

	var r Reply
	switch session.DetectIntent(text) {
	case session.IntentRecallName:
		r = a.record(Reply{Question: text, Text: a.session.RecallUserName(), Kind: answer.KindOK}, backendLocal)
	case session.IntentRecordName:
		r = a.record(a.recordName(text), backendLocal)
	default:
		r = a.ask(ctx, text)
	}
	return r
}

func (a *Assistant) recordName(text string) Reply {
	msg, err := a.session.RecordUserName(text)
	if err != nil {
		slog.Error("saving profile failed", "error", err)
		return Reply{Question: text, Text: fmt.Sprintf("Error: %s", err), Kind: answer.KindStorage}
	}
	return Reply{Question: text, Text: msg, Kind: answer.KindOK}
}

func (a *Assistant) ask(ctx context.Context, text string) Reply {
	req := answer.Request{Question: text}
	if a.replay == ReplayLastExchange {
		req.Bare = true
		if last, ok := a.session.LastExchange(); ok {
			req.History = []engine.Turn{
				{Role: engine.RoleUser, Content: last.User},
				{Role: engine.RoleAssistant, Content: last.Assistant},
			}
		}
	} else {
		req.Context = a.session.BuildContext()
	}

	ans, err := a.fetcher.Ask(ctx, req)
	if err != nil {
		var fail *answer.Error
		if !errors.As(err, &fail) {
			fail = answer.Failure(err)
		}
		return a.record(Reply{Question: text, Text: fail.Message(), Kind: fail.Kind}, ans.Backend)
	}

	r := Reply{
		Question:  text,
		Text:      ans.Text,
		Full:      ans.Full,
		Truncated: ans.Truncated,
		Kind:      answer.KindOK,
	}
	if err := a.session.RecordExchange(text, ans.Text); err != nil {
		slog.Error("saving short memory failed", "error", err)
		r = Reply{Question: text, Text: fmt.Sprintf("Error: %s", err), Kind: answer.KindStorage}
	}
	return a.record(r, ans.Backend)
}

// record appends r to the interaction log, if any, and stamps its ID.
func (a *Assistant) record(r Reply, backend string) Reply {
	if a.log == nil {
		return r
	}
	i := storage.Interaction{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		Question:   r.Question,
		Answer:     r.Text,
		FullAnswer: r.Full,
		Backend:    backend,
		Truncated:  r.Truncated,
	}
	if r.Kind != answer.KindOK {
		i.ErrorKind = string(r.Kind)
	}
	if err := a.log.SaveInteraction(i); err != nil {
		slog.Warn("saving interaction failed", "error", err)
		return r
	}
	r.InteractionID = i.ID
	return r
}
