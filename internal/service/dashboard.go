// Package service drives the three dashboard workspaces of a session. It runs the orchestrators
// outside the session lock and applies their outcomes through the session's request tokens.
package service

import (
	"context"
	"errors"

	"keywordpulse/internal/session"
	"keywordpulse/pkg/chat"
	"keywordpulse/pkg/imageedit"
	"keywordpulse/pkg/keyword"
	"keywordpulse/pkg/logger"
	"keywordpulse/pkg/validation"
)

type Dashboard struct {
	sessions SessionStore
	analyzer KeywordAnalyzer
	editor   ImageEditor
	chat     ChatResponder
	log      *logger.Logger
}

func NewDashboard(sessions SessionStore, analyzer KeywordAnalyzer, editor ImageEditor, responder ChatResponder) *Dashboard {
	return &Dashboard{
		sessions: sessions,
		analyzer: analyzer,
		editor:   editor,
		chat:     responder,
		log:      logger.GetLogger().Component("dashboard"),
	}
}

func (d *Dashboard) CreateSession() session.Snapshot {
	return d.sessions.Create().Snapshot()
}

func (d *Dashboard) Snapshot(sid string) (session.Snapshot, error) {
	s, err := d.sessions.Get(sid)
	if err != nil {
		return session.Snapshot{}, err
	}
	return s.Snapshot(), nil
}

func (d *Dashboard) Keywords(sid string) (session.KeywordSnapshot, error) {
	s, err := d.sessions.Get(sid)
	if err != nil {
		return session.KeywordSnapshot{}, err
	}
	return s.Keywords(), nil
}

// Analyze validates the query, runs the analysis and stores the outcome in the workspace. Tips
// are stored whenever they arrive, possibly after Analyze returned. Invalid input leaves the
// workspace untouched.
func (d *Dashboard) Analyze(ctx context.Context, sid, kw, location, timeframe string) (session.KeywordSnapshot, error) {
	s, err := d.sessions.Get(sid)
	if err != nil {
		return session.KeywordSnapshot{}, err
	}
	q, err := keyword.NewQuery(kw, location, timeframe)
	if err != nil {
		return session.KeywordSnapshot{}, err
	}

	token := s.BeginAnalysis(q)
	log := d.log.WithFields(map[string]interface{}{
		"session_id": sid,
		"token":      token,
	})

	result, err := d.analyzer.AnalyzeWithTips(ctx, q, func(tips string) {
		if !s.ApplyTips(token, tips) {
			log.Debug("Discarded stale tips")
		}
	})
	if err != nil {
		s.FinishAnalysis(token, nil, analysisMessage(err))
		return s.Keywords(), err
	}
	if !s.FinishAnalysis(token, result, "") {
		log.Debug("Discarded stale analysis result")
	}
	return s.Keywords(), nil
}

func (d *Dashboard) ResetKeywords(sid string) (session.KeywordSnapshot, error) {
	s, err := d.sessions.Get(sid)
	if err != nil {
		return session.KeywordSnapshot{}, err
	}
	s.ResetKeywords()
	return s.Keywords(), nil
}

func (d *Dashboard) Images(sid string) (session.ImageSnapshot, error) {
	s, err := d.sessions.Get(sid)
	if err != nil {
		return session.ImageSnapshot{}, err
	}
	return s.Images(), nil
}

func (d *Dashboard) Upload(sid string, asset imageedit.Asset) (session.ImageSnapshot, error) {
	s, err := d.sessions.Get(sid)
	if err != nil {
		return session.ImageSnapshot{}, err
	}
	s.Upload(asset)
	return s.Images(), nil
}

// Edit applies instruction to the current image. A successful edit is always recorded in the
// history, it only replaces the current image when no newer edit, upload or selection happened.
func (d *Dashboard) Edit(ctx context.Context, sid, instruction string) (imageedit.HistoryEntry, error) {
	s, err := d.sessions.Get(sid)
	if err != nil {
		return imageedit.HistoryEntry{}, err
	}
	if _, err := validation.Required("instruction", instruction); err != nil {
		return imageedit.HistoryEntry{}, err
	}
	current, token, err := s.BeginEdit()
	if err != nil {
		return imageedit.HistoryEntry{}, err
	}

	entry, err := d.editor.Edit(ctx, current, instruction)
	if err != nil {
		s.FinishEdit(token, nil, err.Error())
		return imageedit.HistoryEntry{}, err
	}
	if !s.FinishEdit(token, &entry, "") {
		d.log.WithField("session_id", sid).WithField("entry_id", entry.ID).Debug("Edit recorded without replacing a newer image")
	}
	return entry, nil
}

func (d *Dashboard) SelectHistory(sid, entryID string) (session.ImageSnapshot, error) {
	s, err := d.sessions.Get(sid)
	if err != nil {
		return session.ImageSnapshot{}, err
	}
	if _, err := s.SelectHistory(entryID); err != nil {
		return session.ImageSnapshot{}, err
	}
	return s.Images(), nil
}

func (d *Dashboard) HistoryEntry(sid, entryID string) (imageedit.HistoryEntry, error) {
	s, err := d.sessions.Get(sid)
	if err != nil {
		return imageedit.HistoryEntry{}, err
	}
	return s.HistoryEntry(entryID)
}

func (d *Dashboard) Chat(sid string) (session.ChatSnapshot, error) {
	s, err := d.sessions.Get(sid)
	if err != nil {
		return session.ChatSnapshot{}, err
	}
	return s.Chat(), nil
}

// SendChat appends message and the reply to the session's chat. Provider failures become the
// fallback reply; only invalid input, a pending reply or a missing session return an error.
func (d *Dashboard) SendChat(ctx context.Context, sid, message string) (chat.Message, error) {
	s, err := d.sessions.Get(sid)
	if err != nil {
		return chat.Message{}, err
	}
	log, msg, err := s.SubmitChat(message)
	if err != nil {
		return chat.Message{}, err
	}

	reply, err := d.chat.Send(ctx, log, msg)
	if err != nil {
		d.log.WithError(err).WithField("session_id", sid).Warn("Chat reply failed")
	}
	return s.CompleteChat(reply, err), nil
}

func analysisMessage(err error) string {
	var ae *keyword.AnalysisError
	if errors.As(err, &ae) {
		return ae.Message
	}
	return keyword.MsgProviderFailed
}
