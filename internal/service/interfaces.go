package service

import (
	"context"

	"keywordpulse/internal/session"
	"keywordpulse/pkg/chat"
	"keywordpulse/pkg/imageedit"
	"keywordpulse/pkg/keyword"
)

type KeywordAnalyzer interface {
	AnalyzeWithTips(ctx context.Context, q keyword.Query, onTips keyword.TipsFunc) (*keyword.Result, error)
}

type ImageEditor interface {
	Edit(ctx context.Context, currentImage, instruction string) (imageedit.HistoryEntry, error)
}

type ChatResponder interface {
	Send(ctx context.Context, log []chat.Message, newMessage string) (string, error)
}

type SessionStore interface {
	Create() *session.Session
	Get(id string) (*session.Session, error)
}
