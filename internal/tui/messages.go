package tui

import "github.com/PabloGalante/idefend/internal/domain"

// SnapshotMsg carries a snapshot published by the session.
type SnapshotMsg struct {
	Snapshot domain.Snapshot
}

// SubmitDoneMsg is sent when a Submit call returns.
type SubmitDoneMsg struct {
	Text     string
	Snapshot domain.Snapshot
	Accepted bool
}

// subscriptionClosedMsg is sent once the session stops publishing.
type subscriptionClosedMsg struct{}
