package session

import (
	"errors"
	"sync"
	"time"

	"keywordpulse/pkg/chat"
	"keywordpulse/pkg/imageedit"
	"keywordpulse/pkg/keyword"
	"keywordpulse/pkg/validation"
)

var (
	ErrNotFound      = errors.New("session not found")
	ErrEntryNotFound = errors.New("history entry not found")
)

// Session holds the volatile state of one dashboard: the keyword workspace, the image studio
// and the strategy chat. Every exported method is safe for concurrent use.
//
// Long-running work is split into Begin and Finish steps so that the lock is never held across
// a provider call. Begin issues a token; Finish applies its outcome only while that token is
// still the latest one issued for the same workspace.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	keywords keywordState
	images   imageState
	chat     *chat.Conversation
}

type keywordState struct {
	token   uint64
	query   keyword.Query
	result  *keyword.Result
	tips    string
	err     string
	loading bool
}

type imageState struct {
	token   uint64
	studio  imageedit.Studio
	editing bool
	err     string
}

func New(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		CreatedAt: now,
		chat:      chat.NewConversation(),
	}
}

// BeginAnalysis records q as the active query, clears the previous outcome and returns the
// token its completion must present.
func (s *Session) BeginAnalysis(q keyword.Query) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := &s.keywords
	k.token++
	k.query = q
	k.result = nil
	k.tips = ""
	k.err = ""
	k.loading = true
	return k.token
}

// FinishAnalysis applies the outcome of the analysis started with token. It reports false and
// changes nothing when a newer analysis or a reset happened in between.
func (s *Session) FinishAnalysis(token uint64, result *keyword.Result, errMessage string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := &s.keywords
	if token != k.token {
		return false
	}
	k.result = result
	k.err = errMessage
	k.loading = false
	return true
}

// ApplyTips stores tips for the analysis started with token. Tips may arrive before or after
// the main result.
func (s *Session) ApplyTips(token uint64, tips string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token != s.keywords.token {
		return false
	}
	s.keywords.tips = tips
	return true
}

// ResetKeywords clears the workspace and invalidates anything in flight.
func (s *Session) ResetKeywords() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.keywords = keywordState{token: s.keywords.token + 1}
}

func (s *Session) Keywords() KeywordSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keywordSnapshot()
}

// Upload replaces the current image. History is left untouched.
func (s *Session) Upload(a imageedit.Asset) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.images.token++
	s.images.studio.Upload(a)
	s.images.editing = false
	s.images.err = ""
}

// BeginEdit returns the data URI of the current image and a token for the edit. It fails with
// a ValidationError when nothing has been uploaded yet.
func (s *Session) BeginEdit() (string, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.images.studio.Current()
	if current.IsZero() {
		return "", 0, &validation.ValidationError{Field: "image", Reason: "no image uploaded"}
	}
	s.images.token++
	s.images.editing = true
	s.images.err = ""
	return current.DataURI(), s.images.token, nil
}

// FinishEdit records a successful edit in the history in every case. The entry only becomes
// the current image, and errMessage only becomes visible, while token is the latest.
func (s *Session) FinishEdit(token uint64, entry *imageedit.HistoryEntry, errMessage string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	img := &s.images
	if entry != nil {
		img.studio.Record(*entry)
	}
	if token != img.token {
		return false
	}
	img.editing = false
	img.err = errMessage
	if entry != nil {
		if err := img.studio.Show(*entry); err != nil {
			img.err = err.Error()
		}
	}
	return true
}

// SelectHistory makes the entry with id the current image. No history entry is created.
func (s *Session) SelectHistory(id string) (imageedit.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.images.studio.Entry(id)
	if !ok {
		return imageedit.HistoryEntry{}, ErrEntryNotFound
	}
	if err := s.images.studio.Show(entry); err != nil {
		return imageedit.HistoryEntry{}, err
	}
	s.images.token++
	s.images.editing = false
	s.images.err = ""
	return entry, nil
}

func (s *Session) HistoryEntry(id string) (imageedit.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.images.studio.Entry(id)
	if !ok {
		return imageedit.HistoryEntry{}, ErrEntryNotFound
	}
	return entry, nil
}

func (s *Session) Images() ImageSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.imageSnapshot()
}

// SubmitChat appends the user message and returns the log to send with it. It fails with
// chat.ErrBusy while a reply is pending.
func (s *Session) SubmitChat(text string) ([]chat.Message, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chat.Submit(text)
}

// CompleteChat appends the reply, or the fallback when err is set.
func (s *Session) CompleteChat(reply string, err error) chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chat.Complete(reply, err)
}

func (s *Session) Chat() ChatSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chatSnapshot()
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		Keywords:  s.keywordSnapshot(),
		Images:    s.imageSnapshot(),
		Chat:      s.chatSnapshot(),
	}
}
