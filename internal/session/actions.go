package session

import (
	"SharedBoard/internal/edit"
	"SharedBoard/internal/state"
)

// The methods below serialize input onto the session lock so pointer handling,
// undo and inbound events never interleave.

func (s *Session) SetTool(t edit.Tool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pipeline.SetTool(t)
}

func (s *Session) Tool() edit.Tool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pipeline.Tool()
}

func (s *Session) SetColor(c string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pipeline.SetColor(c)
}

func (s *Session) SetStroke(w float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pipeline.SetStroke(w)
}

func (s *Session) PointerDown(screen state.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pipeline.PointerDown(screen)
}

func (s *Session) PointerMove(screen state.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pipeline.PointerMove(screen)
}

func (s *Session) PointerUp(screen state.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pipeline.PointerUp(screen)
}

func (s *Session) BeginTextEdit(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pipeline.BeginTextEdit(id)
}

func (s *Session) SubmitText(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pipeline.SubmitText(text)
}

func (s *Session) Blur(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pipeline.Blur(text)
}

func (s *Session) CancelText() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pipeline.CancelText()
}

func (s *Session) AddImage(r state.Rect, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pipeline.AddImage(r, content)
}

func (s *Session) DeleteSelection() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pipeline.DeleteSelection()
}

func (s *Session) Draft() edit.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pipeline.Draft()
}

func (s *Session) Undo() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Undo()
}

func (s *Session) Redo() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Redo()
}

func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanUndo()
}

func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanRedo()
}

// ClearBoard empties the shared document for everyone and drops this
// session's history.
func (s *Session) ClearBoard() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pipeline.Abort()
	if err := s.emit(state.ClearBoardEvent(s.cfg.DocumentID)); err != nil {
		return err
	}
	s.history.Clear()
	return nil
}

// Pan moves the local view only.
func (s *Session) Pan(dx, dy float64) state.Point {
	return s.view.Pan(dx, dy)
}

func (s *Session) Offset() state.Point {
	return s.view.Offset()
}

func (s *Session) VisibleRect() state.Rect {
	return s.view.VisibleRect()
}

// JumpTo recenters the local view on a minimap click.
func (s *Session) JumpTo(click state.Point) state.Point {
	return s.view.JumpTo(s.cfg.Minimap, click)
}

// MinimapView returns the viewport rectangle in minimap coordinates.
func (s *Session) MinimapView() state.Rect {
	return s.cfg.Minimap.ViewRect(s.view.Offset(), s.cfg.Viewport.Visible, s.doc.Size())
}
