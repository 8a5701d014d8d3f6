package game

// Snapshot is a visibility-filtered view of the game state handed to a
// decision provider. It never exposes another participant's role unless the
// viewer is entitled to it: everyone sees their own role, and mafia-team
// members see each other's.
type Snapshot struct {
	GameID  string       `json:"game_id"`
	Round   int          `json:"round"`
	Phase   Phase        `json:"phase"`
	Self    Participant  `json:"self"`
	Players []PlayerView `json:"players"`
	Allies  []string     `json:"allies,omitempty"` // living mafia teammates, ids only
}

// PlayerView is one roster entry as seen by the snapshot's viewer.
// Role is empty unless revealed to the viewer.
type PlayerView struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status Status `json:"status"`
	Role   Role   `json:"role,omitempty"`
}

// SnapshotFor builds the snapshot visible to the given participant.
func (s *State) SnapshotFor(viewer *Participant) Snapshot {
	snap := Snapshot{
		GameID: s.ID,
		Round:  s.Round,
		Phase:  s.Phase,
		Self:   *viewer,
	}

	mafiaViewer := viewer.Team() == TeamMafia
	for _, p := range s.Roster {
		view := PlayerView{ID: p.ID, Name: p.Name, Status: p.Status}
		switch {
		case p.ID == viewer.ID:
			view.Role = p.Role
		case mafiaViewer && p.Team() == TeamMafia:
			view.Role = p.Role
			if p.Alive() {
				snap.Allies = append(snap.Allies, p.ID)
			}
		}
		snap.Players = append(snap.Players, view)
	}
	return snap
}

// AliveIDs returns the ids of living players in the snapshot, in order.
func (s Snapshot) AliveIDs() []string {
	var ids []string
	for _, p := range s.Players {
		if p.Status == StatusAlive {
			ids = append(ids, p.ID)
		}
	}
	return ids
}
