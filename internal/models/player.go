package models

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// ErrInvalidPool is returned when malformed player records reach the optimizer
var ErrInvalidPool = errors.New("invalid player pool")

// Position is a roster position drawn from the classic NFL enumeration
type Position string

const (
	PositionQB  Position = "QB"
	PositionRB  Position = "RB"
	PositionWR  Position = "WR"
	PositionTE  Position = "TE"
	PositionDST Position = "DST"
)

// Positions lists every known position in display order
var Positions = []Position{PositionQB, PositionRB, PositionWR, PositionTE, PositionDST}

// ParsePosition normalizes a raw position label. D/ST and DEF are accepted for DST.
func ParsePosition(raw string) (Position, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "QB":
		return PositionQB, nil
	case "RB":
		return PositionRB, nil
	case "WR":
		return PositionWR, nil
	case "TE":
		return PositionTE, nil
	case "DST", "D/ST", "DEF":
		return PositionDST, nil
	}
	return "", fmt.Errorf("unknown position %q", raw)
}

// Valid reports whether p belongs to the known enumeration
func (p Position) Valid() bool {
	for _, known := range Positions {
		if p == known {
			return true
		}
	}
	return false
}

// Player is a scored candidate. Values are copied, never shared for mutation.
type Player struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Team       string   `json:"team"`
	Position   Position `json:"position"`
	Salary     int      `json:"salary"`
	Projection float64  `json:"projection"`
}

// Validate checks the fields the optimizer depends on
func (p Player) Validate() error {
	switch {
	case strings.TrimSpace(p.ID) == "":
		return fmt.Errorf("%w: player %q has no id", ErrInvalidPool, p.Name)
	case strings.TrimSpace(p.Name) == "":
		return fmt.Errorf("%w: player %s has no name", ErrInvalidPool, p.ID)
	case strings.TrimSpace(p.Team) == "":
		return fmt.Errorf("%w: player %s has no team", ErrInvalidPool, p.ID)
	case !p.Position.Valid():
		return fmt.Errorf("%w: player %s has unknown position %q", ErrInvalidPool, p.ID, p.Position)
	case p.Salary < 0:
		return fmt.Errorf("%w: player %s has negative salary %d", ErrInvalidPool, p.ID, p.Salary)
	case math.IsNaN(p.Projection) || math.IsInf(p.Projection, 0):
		return fmt.Errorf("%w: player %s has non-finite projection", ErrInvalidPool, p.ID)
	}
	return nil
}

// Pool is an immutable, deduplicated player collection in stable input order
type Pool struct {
	players []Player
	index   map[string]int
}

// NewPool validates players and returns a pool snapshot. Duplicate ids are rejected.
func NewPool(players []Player) (*Pool, error) {
	pool := &Pool{
		players: make([]Player, 0, len(players)),
		index:   make(map[string]int, len(players)),
	}
	for _, p := range players {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := pool.index[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate player id %s", ErrInvalidPool, p.ID)
		}
		pool.index[p.ID] = len(pool.players)
		pool.players = append(pool.players, p)
	}
	return pool, nil
}

// Len returns the number of players in the pool
func (p *Pool) Len() int {
	return len(p.players)
}

// Players returns a copy of the pool contents in stable order
func (p *Pool) Players() []Player {
	out := make([]Player, len(p.players))
	copy(out, p.players)
	return out
}

// Get looks a player up by id
func (p *Pool) Get(id string) (Player, bool) {
	i, ok := p.index[id]
	if !ok {
		return Player{}, false
	}
	return p.players[i], true
}

// Contains reports whether id is in the pool
func (p *Pool) Contains(id string) bool {
	_, ok := p.index[id]
	return ok
}

// Without returns a new pool with the given ids removed. The receiver is untouched.
func (p *Pool) Without(ids map[string]bool) *Pool {
	out := &Pool{
		players: make([]Player, 0, len(p.players)),
		index:   make(map[string]int, len(p.players)),
	}
	for _, player := range p.players {
		if ids[player.ID] {
			continue
		}
		out.index[player.ID] = len(out.players)
		out.players = append(out.players, player)
	}
	return out
}

// ByPosition groups players by position keeping pool order
func (p *Pool) ByPosition() map[Position][]Player {
	groups := make(map[Position][]Player)
	for _, player := range p.players {
		groups[player.Position] = append(groups[player.Position], player)
	}
	return groups
}

// Teams returns the sorted distinct team codes in the pool
func (p *Pool) Teams() []string {
	seen := make(map[string]bool)
	teams := make([]string, 0)
	for _, player := range p.players {
		if !seen[player.Team] {
			seen[player.Team] = true
			teams = append(teams, player.Team)
		}
	}
	sort.Strings(teams)
	return teams
}

// SortByProjection orders players by projection descending, then id ascending
func SortByProjection(players []Player) {
	sort.SliceStable(players, func(i, j int) bool {
		if players[i].Projection != players[j].Projection {
			return players[i].Projection > players[j].Projection
		}
		return players[i].ID < players[j].ID
	})
}
