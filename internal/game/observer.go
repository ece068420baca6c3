package game

import "github.com/park285/kingcapture/internal/board"

// TurnEvent is emitted after every accepted move with the side now to move.
type TurnEvent struct {
	SessionID   string
	WhiteToMove bool
}

// ScoreEvent is emitted when a king is captured, before the board resets.
type ScoreEvent struct {
	SessionID string
	White     uint
	Black     uint
}

// Observer receives notifications synchronously, inside PlayTurn. Implementations
// must not call back into the session.
type Observer interface {
	TurnChanged(ev TurnEvent)
	ScoreUpdated(ev ScoreEvent)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	OnTurn  func(TurnEvent)
	OnScore func(ScoreEvent)
}

func (f ObserverFuncs) TurnChanged(ev TurnEvent) {
	if f.OnTurn != nil {
		f.OnTurn(ev)
	}
}

func (f ObserverFuncs) ScoreUpdated(ev ScoreEvent) {
	if f.OnScore != nil {
		f.OnScore(ev)
	}
}

type observerEntry struct {
	id       int
	observer Observer
}

// Subscribe registers o and returns an id for Unsubscribe.
func (s *Session) Subscribe(o Observer) int {
	s.nextObserverID++
	s.observers = append(s.observers, observerEntry{id: s.nextObserverID, observer: o})
	return s.nextObserverID
}

func (s *Session) Unsubscribe(id int) {
	for i, e := range s.observers {
		if e.id == id {
			s.observers = append(s.observers[:i], s.observers[i+1:]...)
			return
		}
	}
}

func (s *Session) notifyTurn() {
	ev := TurnEvent{SessionID: s.id, WhiteToMove: s.turn == board.White}
	for _, e := range append([]observerEntry(nil), s.observers...) {
		e.observer.TurnChanged(ev)
	}
}

func (s *Session) notifyScore() {
	white, black := s.Scores()
	ev := ScoreEvent{SessionID: s.id, White: white, Black: black}
	for _, e := range append([]observerEntry(nil), s.observers...) {
		e.observer.ScoreUpdated(ev)
	}
}
