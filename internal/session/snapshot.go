package session

import (
	"time"

	"keywordpulse/pkg/chat"
	"keywordpulse/pkg/imageedit"
	"keywordpulse/pkg/keyword"
)

type KeywordSnapshot struct {
	Query   *keyword.Query  `json:"query,omitempty"`
	Result  *keyword.Result `json:"result,omitempty"`
	Tips    string          `json:"tips,omitempty"`
	Error   string          `json:"error,omitempty"`
	Loading bool            `json:"loading"`
}

type ImageSnapshot struct {
	Current string                   `json:"current,omitempty"`
	Editing bool                     `json:"editing"`
	Error   string                   `json:"error,omitempty"`
	History []imageedit.HistoryEntry `json:"history"`
}

type ChatSnapshot struct {
	State    chat.State     `json:"state"`
	Messages []chat.Message `json:"messages"`
}

type Snapshot struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"createdAt"`
	Keywords  KeywordSnapshot `json:"keywords"`
	Images    ImageSnapshot   `json:"images"`
	Chat      ChatSnapshot    `json:"chat"`
}

func (s *Session) keywordSnapshot() KeywordSnapshot {
	k := s.keywords
	snap := KeywordSnapshot{
		Result:  k.result,
		Tips:    k.tips,
		Error:   k.err,
		Loading: k.loading,
	}
	if k.query != (keyword.Query{}) {
		q := k.query
		snap.Query = &q
	}
	return snap
}

func (s *Session) imageSnapshot() ImageSnapshot {
	snap := ImageSnapshot{
		Editing: s.images.editing,
		Error:   s.images.err,
		History: s.images.studio.History(),
	}
	if current := s.images.studio.Current(); !current.IsZero() {
		snap.Current = current.DataURI()
	}
	return snap
}

func (s *Session) chatSnapshot() ChatSnapshot {
	return ChatSnapshot{
		State:    s.chat.State(),
		Messages: s.chat.Messages(),
	}
}
