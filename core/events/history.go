package events

import "github.com/halolabs/halo-core/core/providers"

// KindHistoryAppended identifies a history store mirror update.
const KindHistoryAppended Kind = "history.appended"

// HistoryAppended mirrors the bounded history store after each archived
// turn, for observers that display or persist conversation history.
type HistoryAppended struct {
	Base
	SessionID string
	Turn      providers.Turn
	History   []providers.Turn
}

// NewHistoryAppended creates a history appended event.
func NewHistoryAppended(sessionID string, turn providers.Turn, history []providers.Turn) HistoryAppended {
	return HistoryAppended{
		Base:      NewBase(KindHistoryAppended),
		SessionID: sessionID,
		Turn:      turn,
		History:   history,
	}
}
