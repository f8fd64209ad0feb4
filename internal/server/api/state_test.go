package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/wenxinhu03/christmas-tree2/internal/interaction"
	"github.com/wenxinhu03/christmas-tree2/internal/state"
)

// stubSwitcher records requested modes and writes them to the state.
type stubSwitcher struct {
	st    *state.State
	calls []state.Mode
	err   error
}

func (s *stubSwitcher) SetMode(m state.Mode) (bool, error) {
	s.calls = append(s.calls, m)
	if s.err != nil {
		return false, s.err
	}
	changed := s.st.Mode() != m
	s.st.SetMode(m)
	return changed, nil
}

func TestStateHandler_State(t *testing.T) {
	st := state.New()
	st.SetTreeState(state.TreeChaos)
	st.AdjustCarouselRotation(1.5)
	handler := NewStateHandler(st, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	rec := httptest.NewRecorder()
	handler.State(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var snap state.Snapshot
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if snap.TreeState != state.TreeChaos || snap.CarouselRotation != 1.5 || snap.Mode != state.ModePointer {
		t.Errorf("unexpected snapshot: %+v", snap)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/state", nil)
	rec = httptest.NewRecorder()
	handler.State(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}

func TestStateHandler_SetMode(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		err         error
		wantStatus  int
		wantMode    state.Mode
		wantChanged bool
	}{
		{name: "gesture", body: `{"mode":"GESTURE"}`, wantStatus: http.StatusOK, wantMode: state.ModeGesture, wantChanged: true},
		{name: "legacy alias", body: `{"mode":"webcam"}`, wantStatus: http.StatusOK, wantMode: state.ModeGesture, wantChanged: true},
		{name: "same mode", body: `{"mode":"pointer"}`, wantStatus: http.StatusOK, wantMode: state.ModePointer},
		{name: "unknown mode", body: `{"mode":"joystick"}`, wantStatus: http.StatusBadRequest, wantMode: state.ModePointer},
		{name: "invalid json", body: `{`, wantStatus: http.StatusBadRequest, wantMode: state.ModePointer},
		{name: "camera missing", body: `{"mode":"GESTURE"}`, err: fmt.Errorf("open camera: %w", interaction.ErrModeUnavailable), wantStatus: http.StatusConflict, wantMode: state.ModePointer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := state.New()
			sw := &stubSwitcher{st: st, err: tt.err}
			handler := NewStateHandler(st, sw)

			req := httptest.NewRequest(http.MethodPut, "/api/mode", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			handler.Mode(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if st.Mode() != tt.wantMode {
				t.Errorf("mode = %s, want %s", st.Mode(), tt.wantMode)
			}
			if rec.Code != http.StatusOK {
				return
			}

			var resp modeResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatal(err)
			}
			if resp.Mode != tt.wantMode || resp.Changed != tt.wantChanged {
				t.Errorf("response = %+v", resp)
			}
		})
	}
}

func TestStateHandler_ModeReadOnly(t *testing.T) {
	handler := NewStateHandler(state.New(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/mode", nil)
	rec := httptest.NewRecorder()
	handler.Mode(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("GET: expected status %d, got %d", http.StatusOK, rec.Code)
	}

	req = httptest.NewRequest(http.MethodPut, "/api/mode", strings.NewReader(`{"mode":"GESTURE"}`))
	rec = httptest.NewRecorder()
	handler.Mode(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("PUT without switcher: expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}
}
