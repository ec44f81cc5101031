package update

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/sandeepkv93/daytrack/internal/model"
)

// sessionState is what survives a restart of the TUI. Domain data always
// comes from the store; only the navigation position is kept locally.
type sessionState struct {
	View View   `json:"view"`
	Date string `json:"date,omitempty"`
}

func (m *Model) persistSessionState() error {
	if m.statePath == "" {
		return nil
	}
	dir := filepath.Dir(m.statePath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	payload, err := json.MarshalIndent(sessionState{View: m.CurrentView, Date: m.Date.String()}, "", "  ")
	if err != nil {
		return err
	}
	return atomic.WriteFile(m.statePath, bytes.NewReader(append(payload, '\n')))
}

func loadSessionState(path string) (sessionState, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return sessionState{}, nil
	}
	raw, err := os.ReadFile(trimmed)
	if err != nil {
		if os.IsNotExist(err) {
			return sessionState{}, nil
		}
		return sessionState{}, err
	}
	if strings.TrimSpace(string(raw)) == "" {
		return sessionState{}, nil
	}
	var st sessionState
	if err := json.Unmarshal(raw, &st); err != nil {
		return sessionState{}, err
	}
	return st, nil
}

// applySessionState restores the view. A saved date in the past is not
// restored so that a new day opens on today.
func (m *Model) applySessionState(st sessionState) {
	if st.View.IsValid() {
		m.CurrentView = st.View
	}
	d, err := model.ParseDate(st.Date)
	if err == nil && !d.Before(m.today()) {
		m.Date = d
	}
}
