// Package protocol defines the JSON messages exchanged with clients. Every
// message is a single object with a "type" discriminator; stream transports
// terminate each one with a newline.
package protocol

import "classroom-levels-service/internal/domain"

const (
	TypeJoin = "join"
	TypeMove = "move"
	TypeVote = "vote"

	TypeLobbySync  = "lobby_sync"
	TypeStartLevel = "start_level"
	TypeSync       = "sync"
	TypeVictory    = "victory"
	TypeGameOver   = "game_over"
)

type LobbySync struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

type StartLevel struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	Desc  string `json:"desc"`
}

// Notice carries the terminal victory and game_over events.
type Notice struct {
	Type string `json:"type"`
	Msg  string `json:"msg"`
}

type PlayerView struct {
	Name  string       `json:"name"`
	X     int          `json:"x"`
	Y     int          `json:"y"`
	Color domain.Color `json:"color"`
}

// QuestionView is a question without its answer.
type QuestionView struct {
	Prompt  string   `json:"q"`
	Options []string `json:"o"`
}

// Sync is the periodic full state snapshot. Which optional fields are set
// depends on LevelType.
type Sync struct {
	Type      string                `json:"type"`
	LevelType domain.LevelType      `json:"lvl_type"`
	TimeLeft  int                   `json:"time_left"`
	Players   map[string]PlayerView `json:"players"`

	StaticPoints []domain.Point `json:"static_points,omitempty"`
	Targets      []domain.Point `json:"targets,omitempty"`

	Question *QuestionView `json:"question,omitempty"`
	Score    *int          `json:"score,omitempty"`
	Votes    *int          `json:"votes,omitempty"`
}

func NewLobbySync(count int) LobbySync {
	return LobbySync{Type: TypeLobbySync, Count: count}
}

func NewStartLevel(title, desc string) StartLevel {
	return StartLevel{Type: TypeStartLevel, Title: title, Desc: desc}
}

func NewVictory(msg string) Notice {
	return Notice{Type: TypeVictory, Msg: msg}
}

func NewGameOver(msg string) Notice {
	return Notice{Type: TypeGameOver, Msg: msg}
}

// Players converts registry entries to their wire form, keyed by participant id.
func Players(participants map[string]domain.Participant) map[string]PlayerView {
	out := make(map[string]PlayerView, len(participants))
	for id, p := range participants {
		out[id] = PlayerView{Name: p.Name, X: p.Position.X(), Y: p.Position.Y(), Color: p.Color}
	}
	return out
}
