package bot

import (
	"errors"
	"strconv"
	"strings"

	"croupier/internal/games"
)

const (
	actionHit     = "hit"
	actionStand   = "stand"
	actionDouble  = "double"
	actionReveal  = "reveal"
	actionCashOut = "cashout"
)

var errBadCustomID = errors.New("malformed component id")

// componentID is the parsed form of "<game>:<action>:<session>[:args...]".
type componentID struct {
	Game      games.Game
	Action    string
	SessionID string
	Args      []string
}

func buildCustomID(game games.Game, action, sessionID string, args ...string) string {
	parts := append([]string{string(game), action, sessionID}, args...)
	return strings.Join(parts, ":")
}

func parseCustomID(value string) (componentID, error) {
	parts := strings.Split(value, ":")
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return componentID{}, errBadCustomID
	}
	return componentID{
		Game:      games.Game(parts[0]),
		Action:    parts[1],
		SessionID: parts[2],
		Args:      parts[3:],
	}, nil
}

// cell reads the row/col pair carried by minesweeper reveal buttons.
func (c componentID) cell() (int, int, error) {
	if len(c.Args) != 2 {
		return 0, 0, errBadCustomID
	}
	row, err := strconv.Atoi(c.Args[0])
	if err != nil {
		return 0, 0, errBadCustomID
	}
	col, err := strconv.Atoi(c.Args[1])
	if err != nil {
		return 0, 0, errBadCustomID
	}
	return row, col, nil
}
