package bot

import (
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
)

// boardTokenTTL is how long Discord accepts edits through an interaction token.
const boardTokenTTL = 15 * time.Minute

// crashFrame serialises the redraws of one crash message. Once the round is final no
// tick frame may land on top of it.
type crashFrame struct {
	mu    sync.Mutex
	final bool
}

// draw runs fn unless the round already has its final frame.
func (f *crashFrame) draw(fn func()) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.final {
		return false
	}
	fn()
	return true
}

// finish marks the round final and draws the last frame.
func (f *crashFrame) finish(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.final = true
	fn()
}

// minesBoard remembers where a hard board and its separate cash-out message live.
type minesBoard struct {
	original   *discordgo.Interaction
	followupID string
	createdAt  time.Time
}

// isFollowup reports whether message is the separate cash-out message of this board.
func (m *minesBoard) isFollowup(message *discordgo.Message) bool {
	return message != nil && m.followupID != "" && message.ID == m.followupID
}

// rounds tracks the Discord messages behind live crash rounds and split minesweeper boards.
type rounds struct {
	mu     sync.Mutex
	now    func() time.Time
	crash  map[string]*crashFrame
	boards map[string]*minesBoard
}

func newRounds() *rounds {
	return &rounds{
		now:    time.Now,
		crash:  make(map[string]*crashFrame),
		boards: make(map[string]*minesBoard),
	}
}

func (r *rounds) trackCrash(sessionID string, frame *crashFrame) {
	r.mu.Lock()
	r.crash[sessionID] = frame
	r.mu.Unlock()
}

func (r *rounds) takeCrash(sessionID string) *crashFrame {
	r.mu.Lock()
	defer r.mu.Unlock()
	frame := r.crash[sessionID]
	delete(r.crash, sessionID)
	return frame
}

func (r *rounds) dropCrash(sessionID string) {
	r.mu.Lock()
	delete(r.crash, sessionID)
	r.mu.Unlock()
}

// trackBoard records a split board. Entries whose token has expired are dropped on the way.
func (r *rounds) trackBoard(sessionID string, board *minesBoard) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	board.createdAt = now
	for id, existing := range r.boards {
		if now.Sub(existing.createdAt) > boardTokenTTL {
			delete(r.boards, id)
		}
	}
	r.boards[sessionID] = board
}

func (r *rounds) takeBoard(sessionID string) *minesBoard {
	r.mu.Lock()
	defer r.mu.Unlock()
	board := r.boards[sessionID]
	delete(r.boards, sessionID)
	return board
}
