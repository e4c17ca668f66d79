// Package imageedit sends an image and an edit instruction to the provider and turns the inline
// image it answers with into a history entry.
package imageedit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"keywordpulse/pkg/logger"
	"keywordpulse/pkg/provider"
	"keywordpulse/pkg/validation"
)

var ErrEditFailed = errors.New("image edit failed")

// EditError wraps the provider failure, or provider.ErrNoImage when the answer had no image.
type EditError struct {
	Err error
}

func (e *EditError) Error() string {
	if errors.Is(e.Err, provider.ErrNoImage) {
		return "image edit failed: the model returned no image"
	}
	return "image edit failed: " + e.Err.Error()
}

func (e *EditError) Unwrap() error {
	return e.Err
}

func (e *EditError) Is(target error) bool {
	return target == ErrEditFailed
}

// Editor is the provider capability used for edits.
type Editor interface {
	EditImage(ctx context.Context, data, mimeType, instruction string) (*provider.Blob, error)
}

type Orchestrator struct {
	editor Editor
	now    func() time.Time
	newID  func() string
	log    *logger.Logger
}

func NewOrchestrator(editor Editor) *Orchestrator {
	return &Orchestrator{
		editor: editor,
		now:    time.Now,
		newID:  newEntryID,
		log:    logger.GetLogger().Component("image_edit"),
	}
}

// newEntryID returns a time-ordered UUIDv7, unique even for edits within the same millisecond.
func newEntryID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Edit applies instruction to currentImage (a data URI or bare base64) and returns the new
// history entry. Missing input is a ValidationError and makes no call.
func (o *Orchestrator) Edit(ctx context.Context, currentImage, instruction string) (HistoryEntry, error) {
	prompt, err := validation.Required("instruction", instruction)
	if err != nil {
		return HistoryEntry{}, err
	}
	src, err := ParseDataURI(currentImage)
	if err != nil {
		return HistoryEntry{}, err
	}

	log := o.log.WithFields(map[string]interface{}{
		"mime_type":    src.MIMEType,
		"source_bytes": len(src.Data),
	})
	log.Debug("Sending image edit")

	blob, err := o.editor.EditImage(ctx, src.Data, src.MIMEType, prompt)
	if err != nil {
		log.WithError(err).Warn("Image edit failed")
		return HistoryEntry{}, &EditError{Err: err}
	}
	if blob == nil || blob.Data == "" {
		log.Warn("Image edit returned an empty payload")
		return HistoryEntry{}, &EditError{Err: provider.ErrNoImage}
	}

	mimeType := blob.MIMEType
	if mimeType == "" {
		mimeType = DefaultMIMEType
	}
	entry := HistoryEntry{
		ID:        o.newID(),
		URL:       FormatDataURI(mimeType, blob.Data),
		Prompt:    prompt,
		Timestamp: o.now(),
	}
	log.WithField("entry_id", entry.ID).Info("Image edit completed")
	return entry, nil
}
