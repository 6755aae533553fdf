package game

import (
	"slices"
	"strings"
	"sync"
)

// Registry owns the lifecycle of every live room: creation under a unique join
// code, lookup, and eviction once a room is emptied or finished.
type Registry struct {
	mu      sync.Mutex
	deps    Deps
	sched   *Scheduler
	codes   CodeFunc
	rooms   map[string]*Room
	members map[string]map[string]struct{}
}

// NewRegistry builds a registry. codes may be nil to use RandomCode.
func NewRegistry(deps Deps, codes CodeFunc) *Registry {
	deps = deps.withDefaults()
	if codes == nil {
		codes = RandomCode
	}
	return &Registry{
		deps:    deps,
		sched:   NewScheduler(deps.Timers),
		codes:   codes,
		rooms:   make(map[string]*Room),
		members: make(map[string]map[string]struct{}),
	}
}

// Create allocates a room with conn as host and sole player.
func (g *Registry) Create(conn, name string) (*Room, error) {
	g.mu.Lock()
	code := ""
	for range codeAttempts {
		candidate := g.codes()
		if _, taken := g.rooms[candidate]; !taken {
			code = candidate
			break
		}
	}
	if code == "" {
		g.mu.Unlock()
		return nil, ErrCodeSpaceExhausted
	}
	room := newRoom(g, code, conn, name)
	g.rooms[code] = room
	g.trackLocked(conn, code)
	g.mu.Unlock()

	room.announce()
	return room, nil
}

// Join enrolls conn in the room with the given code.
func (g *Registry) Join(code, conn, name string) (*Room, error) {
	room, ok := g.Lookup(code)
	if !ok {
		return nil, ErrRoomNotFound
	}
	if err := room.join(conn, name); err != nil {
		return nil, err
	}
	return room, nil
}

func (g *Registry) Lookup(code string) (*Room, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	room, ok := g.rooms[code]
	return room, ok
}

// Remove destroys the room under code, if any.
func (g *Registry) Remove(code string) {
	if room, ok := g.Lookup(code); ok {
		room.Close()
	}
}

// Leave removes conn from one room.
func (g *Registry) Leave(code, conn string) {
	if room, ok := g.Lookup(code); ok {
		room.Leave(conn)
	}
}

// Disconnect removes conn from every room it joined.
func (g *Registry) Disconnect(conn string) {
	for _, code := range g.Rooms(conn) {
		g.Leave(code, conn)
	}
}

// Rooms returns the codes conn is a member of.
func (g *Registry) Rooms(conn string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	codes := make([]string, 0, len(g.members[conn]))
	for code := range g.members[conn] {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes
}

// Summaries lists every live room ordered by code.
func (g *Registry) Summaries() []Summary {
	g.mu.Lock()
	rooms := make([]*Room, 0, len(g.rooms))
	for _, room := range g.rooms {
		rooms = append(rooms, room)
	}
	g.mu.Unlock()
	slices.SortFunc(rooms, func(a, b *Room) int {
		return strings.Compare(a.code, b.code)
	})
	out := make([]Summary, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, room.Summary())
	}
	return out
}

func (g *Registry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.rooms)
}

// Shutdown destroys every live room.
func (g *Registry) Shutdown() {
	g.mu.Lock()
	rooms := make([]*Room, 0, len(g.rooms))
	for _, room := range g.rooms {
		rooms = append(rooms, room)
	}
	g.mu.Unlock()
	for _, room := range rooms {
		room.Close()
	}
}

// current reports whether room is still the live room for its code.
func (g *Registry) current(room *Room) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rooms[room.code] == room
}

func (g *Registry) evict(room *Room, conns []string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.rooms[room.code] == room {
		delete(g.rooms, room.code)
	}
	for _, conn := range conns {
		g.untrackLocked(conn, room.code)
	}
}

func (g *Registry) track(conn, code string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.trackLocked(conn, code)
}

func (g *Registry) trackLocked(conn, code string) {
	set, ok := g.members[conn]
	if !ok {
		set = make(map[string]struct{})
		g.members[conn] = set
	}
	set[code] = struct{}{}
}

func (g *Registry) untrack(conn, code string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.untrackLocked(conn, code)
}

func (g *Registry) untrackLocked(conn, code string) {
	set, ok := g.members[conn]
	if !ok {
		return
	}
	delete(set, code)
	if len(set) == 0 {
		delete(g.members, conn)
	}
}
