package resolve

import (
	"fmt"
	"testing"

	"github.com/nightfall-sim/nightfall/internal/game"
)

func winState(t *testing.T, mafiaAlive, villageAlive int) *game.State {
	t.Helper()
	var roster []*game.Participant
	id := 0
	add := func(role game.Role, alive bool, n int) {
		for range n {
			id++
			status := game.StatusAlive
			if !alive {
				status = game.StatusEliminated
			}
			roster = append(roster, &game.Participant{
				ID:     fmt.Sprintf("player-%d", id),
				Name:   fmt.Sprintf("Player %d", id),
				Role:   role,
				Status: status,
			})
		}
	}
	add(game.RoleMafia, true, mafiaAlive)
	add(game.RoleVillager, true, villageAlive)
	add(game.RoleMafia, false, 1)
	add(game.RoleVillager, false, 1)

	state, err := game.NewState("game-1", roster)
	if err != nil {
		t.Fatalf("NewState failed: %v", err)
	}
	return state
}

func TestWin_VillageWinsWhenNoMafiaAlive(t *testing.T) {
	v := Win(winState(t, 0, 3))
	if !v.Over || v.Winner != game.TeamVillage {
		t.Errorf("Zero living mafia must be a village win, got %+v", v)
	}
}

func TestWin_MafiaWinsAtParity(t *testing.T) {
	v := Win(winState(t, 2, 2))
	if !v.Over || v.Winner != game.TeamMafia {
		t.Errorf("Parity must be a mafia win, got %+v", v)
	}
}

func TestWin_MafiaWinsAtMajority(t *testing.T) {
	v := Win(winState(t, 3, 2))
	if !v.Over || v.Winner != game.TeamMafia {
		t.Errorf("Mafia majority must be a mafia win, got %+v", v)
	}
}

func TestWin_GameContinuesWhileVillageLeads(t *testing.T) {
	v := Win(winState(t, 1, 4))
	if v.Over {
		t.Errorf("Game must continue while mafia is a living minority, got %+v", v)
	}
	if v.Winner != "" {
		t.Errorf("No winner may be declared on a non-terminal verdict, got %q", v.Winner)
	}
}

func TestWin_VillageCheckRunsFirst(t *testing.T) {
	// With everyone dead both conditions would hold; the village check runs
	// first so exactly one team is declared.
	v := Win(winState(t, 0, 0))
	if !v.Over || v.Winner != game.TeamVillage {
		t.Errorf("Village check must take precedence, got %+v", v)
	}
}

func TestWin_Idempotent(t *testing.T) {
	state := winState(t, 1, 4)
	first := Win(state)
	second := Win(state)
	if first != second {
		t.Errorf("Repeated evaluation on unchanged state must agree: %+v vs %+v", first, second)
	}
}
