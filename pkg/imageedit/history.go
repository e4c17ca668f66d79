package imageedit

import "time"

// HistoryEntry records one successful edit. Entries are never changed after creation.
type HistoryEntry struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Prompt    string    `json:"prompt"`
	Timestamp time.Time `json:"timestamp"`
}

// Asset decodes the entry's data URI.
func (e HistoryEntry) Asset() (Asset, error) {
	return ParseDataURI(e.URL)
}

// Filename is the download name of the entry.
func (e HistoryEntry) Filename() string {
	ext := ".png"
	if a, err := e.Asset(); err == nil {
		ext = a.Extension()
	}
	return "edit-" + e.ID + ext
}

// Studio is the image workspace: the current asset and the edit history, most recent first.
// It is not safe for concurrent use; callers serialize access.
type Studio struct {
	current Asset
	history []HistoryEntry
}

func (s *Studio) Current() Asset {
	return s.current
}

// Upload replaces the current asset. It never records history.
func (s *Studio) Upload(a Asset) {
	s.current = a
}

// Record prepends entry to the history.
func (s *Studio) Record(entry HistoryEntry) {
	s.history = append([]HistoryEntry{entry}, s.history...)
}

// Show makes entry the current asset.
func (s *Studio) Show(entry HistoryEntry) error {
	a, err := entry.Asset()
	if err != nil {
		return err
	}
	s.current = a
	return nil
}

// History returns a copy of the entries, most recent first.
func (s *Studio) History() []HistoryEntry {
	out := make([]HistoryEntry, len(s.history))
	copy(out, s.history)
	return out
}

func (s *Studio) Entry(id string) (HistoryEntry, bool) {
	for _, e := range s.history {
		if e.ID == id {
			return e, true
		}
	}
	return HistoryEntry{}, false
}
