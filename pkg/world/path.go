package world

import (
	"container/heap"
	"fmt"
	"math"
	"sort"
	"strings"
)

// RoadBiasFactor inflates the planning weight of hops into non-road terrain
// when a route is planned with prefer_roads. It shapes route choice only;
// reported minutes are always the true cost.
const RoadBiasFactor = 1.5

// PathOptions tune a single route query.
type PathOptions struct {
	// PreferRoads biases planning toward road and trail terrain even when
	// a wilder route would be faster.
	PreferRoads bool

	// Discovered lists zone keys the traveler knows. Hidden connections
	// are only usable when their destination is in this set.
	Discovered map[string]bool
}

// RouteGate annotates a skill check somewhere along a route. Gates never
// remove a route from consideration; executing travel rolls them.
type RouteGate struct {
	FromKey     string             `json:"from_key"`
	ToKey       string             `json:"to_key"`
	Source      string             `json:"source"` // "zone" or "connection"
	Skill       string             `json:"skill"`
	Difficulty  int                `json:"difficulty"`
	Consequence FailureConsequence `json:"consequence"`
}

// Leg is one hop of a planned route with its true cost.
type Leg struct {
	FromKey        string         `json:"from_key"`
	ToKey          string         `json:"to_key"`
	ConnectionType ConnectionType `json:"connection_type"`
	Minutes        float64        `json:"minutes"`
	Gates          []RouteGate    `json:"gates,omitempty"`
}

// Route is the result of a path query. A missing route is a normal outcome
// (Found=false with a reason), never an error.
type Route struct {
	Found        bool        `json:"found"`
	Reason       string      `json:"reason,omitempty"`
	Path         []string    `json:"path,omitempty"`
	Legs         []Leg       `json:"legs,omitempty"`
	TotalMinutes int         `json:"total_minutes"`
	Gates        []RouteGate `json:"gates,omitempty"`
}

// Graph is a session's world graph, built once per query set from the
// stored zones and connections.
type Graph struct {
	zones map[string]Zone
	edges map[string][]graphEdge
}

type graphEdge struct {
	to   string
	conn Connection
}

// NewGraph indexes zones and expands bidirectional connections. Connection
// endpoints must refer to known zones.
func NewGraph(zones []Zone, conns []Connection) (*Graph, error) {
	g := &Graph{
		zones: make(map[string]Zone, len(zones)),
		edges: make(map[string][]graphEdge),
	}
	for _, z := range zones {
		if _, dup := g.zones[z.Key]; dup {
			return nil, fmt.Errorf("duplicate zone key %q", z.Key)
		}
		g.zones[z.Key] = z
	}
	for _, c := range conns {
		if _, ok := g.zones[c.FromKey]; !ok {
			return nil, fmt.Errorf("connection references %w: %q", ErrZoneNotFound, c.FromKey)
		}
		if _, ok := g.zones[c.ToKey]; !ok {
			return nil, fmt.Errorf("connection references %w: %q", ErrZoneNotFound, c.ToKey)
		}
		g.edges[c.FromKey] = append(g.edges[c.FromKey], graphEdge{to: c.ToKey, conn: c})
		if c.Bidirectional {
			back := c
			back.FromKey, back.ToKey = c.ToKey, c.FromKey
			g.edges[c.ToKey] = append(g.edges[c.ToKey], graphEdge{to: c.FromKey, conn: back})
		}
	}
	// Deterministic neighbor order regardless of input order.
	for key := range g.edges {
		es := g.edges[key]
		sort.SliceStable(es, func(i, j int) bool {
			if es[i].to != es[j].to {
				return es[i].to < es[j].to
			}
			return es[i].conn.Type < es[j].conn.Type
		})
	}
	return g, nil
}

// Zone looks up a zone by key.
func (g *Graph) Zone(key string) (Zone, error) {
	z, ok := g.zones[key]
	if !ok {
		return Zone{}, fmt.Errorf("%w: %q", ErrZoneNotFound, key)
	}
	return z, nil
}

// Zones returns all zones sorted by key.
func (g *Graph) Zones() []Zone {
	out := make([]Zone, 0, len(g.zones))
	for _, z := range g.zones {
		out = append(out, z)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Connections returns the outgoing edges of a zone, including the reverse
// sides of bidirectional connections.
func (g *Graph) Connections(key string) []Connection {
	edges := g.edges[key]
	out := make([]Connection, 0, len(edges))
	for _, e := range edges {
		out = append(out, e.conn)
	}
	return out
}

// stepMinutes prices one hop in true minutes. The connection's crossing
// minutes dominate; a zero falls back to the destination zone's base cost
// (mounted override for mounted modes). The second return is false when the
// hop is impassable for the transport.
func stepMinutes(conn Connection, to Zone, t TransportMode) (float64, bool) {
	mult, ok := t.Multiplier(to.Terrain)
	if !ok {
		return 0, false
	}
	base := float64(conn.CrossingMinutes)
	if t.Mounted {
		if to.MountedCostMinutes == nil {
			return 0, false
		}
		if conn.CrossingMinutes == 0 {
			base = float64(*to.MountedCostMinutes)
		}
	} else if conn.CrossingMinutes == 0 {
		base = float64(to.BaseCostMinutes)
	}
	return base * mult, true
}

// usable reports whether an edge participates in planning for the given
// transport and discovery state.
func (g *Graph) usable(e graphEdge, t TransportMode, opts PathOptions) bool {
	if !e.conn.Passable {
		return false
	}
	if e.conn.Type == ConnectionHidden && !opts.Discovered[e.to] {
		return false
	}
	to, ok := g.zones[e.to]
	if !ok || !to.Accessible {
		return false
	}
	_, passable := stepMinutes(e.conn, to, t)
	return passable
}

func hopGates(conn Connection, to Zone) []RouteGate {
	var gates []RouteGate
	if conn.SkillGate != nil {
		gates = append(gates, RouteGate{
			FromKey: conn.FromKey, ToKey: conn.ToKey, Source: "connection",
			Skill: conn.SkillGate.Skill, Difficulty: conn.SkillGate.Difficulty,
			Consequence: conn.SkillGate.Consequence,
		})
	}
	if to.SkillGate != nil {
		gates = append(gates, RouteGate{
			FromKey: conn.FromKey, ToKey: conn.ToKey, Source: "zone",
			Skill: to.SkillGate.Skill, Difficulty: to.SkillGate.Difficulty,
			Consequence: to.SkillGate.Consequence,
		})
	}
	return gates
}

// pathNode is a frontier entry. Ordering is total: planning cost, then
// gated-hop count, then the lexically smallest key sequence, so equal-cost
// routes resolve the same way on every run.
type pathNode struct {
	key     string
	cost    float64
	gated   int
	route   string // "|"-joined key sequence from the origin
	minutes float64
}

type pathHeap []pathNode

func (h pathHeap) Len() int { return len(h) }
func (h pathHeap) Less(i, j int) bool {
	if h[i].cost != h[j].cost {
		return h[i].cost < h[j].cost
	}
	if h[i].gated != h[j].gated {
		return h[i].gated < h[j].gated
	}
	return h[i].route < h[j].route
}
func (h pathHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *pathHeap) Push(x any)   { *h = append(*h, x.(pathNode)) }

func (h *pathHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

func betterNode(a, b pathNode) bool {
	if a.cost != b.cost {
		return a.cost < b.cost
	}
	if a.gated != b.gated {
		return a.gated < b.gated
	}
	return a.route < b.route
}

// FindPath plans a route between two known zones. Unknown endpoints are
// errors; an unreachable destination is a Found=false result.
func (g *Graph) FindPath(from, to string, t TransportMode, opts PathOptions) (Route, error) {
	if _, err := g.Zone(from); err != nil {
		return Route{}, err
	}
	if _, err := g.Zone(to); err != nil {
		return Route{}, err
	}

	if from == to {
		return Route{Found: true, Path: []string{from}}, nil
	}

	best := map[string]pathNode{
		from: {key: from, route: from},
	}
	settled := map[string]bool{}

	frontier := &pathHeap{{key: from, route: from}}
	heap.Init(frontier)

	for frontier.Len() > 0 {
		cur := heap.Pop(frontier).(pathNode)
		if settled[cur.key] {
			continue
		}
		settled[cur.key] = true
		if cur.key == to {
			return g.buildRoute(cur, t), nil
		}

		for _, e := range g.edges[cur.key] {
			if settled[e.to] || !g.usable(e, t, opts) {
				continue
			}
			toZone := g.zones[e.to]
			minutes, _ := stepMinutes(e.conn, toZone, t)

			weight := minutes
			if opts.PreferRoads && toZone.Terrain != TerrainRoad && toZone.Terrain != TerrainTrail {
				weight *= RoadBiasFactor
			}

			cand := pathNode{
				key:     e.to,
				cost:    cur.cost + weight,
				gated:   cur.gated + len(hopGates(e.conn, toZone)),
				route:   cur.route + "|" + e.to,
				minutes: cur.minutes + minutes,
			}
			if prev, seen := best[e.to]; !seen || betterNode(cand, prev) {
				best[e.to] = cand
				heap.Push(frontier, cand)
			}
		}
	}

	return Route{
		Found:  false,
		Reason: fmt.Sprintf("no route from %s to %s by %s", from, to, t.Key),
	}, nil
}

// buildRoute reconstructs legs and gate annotations from a settled node.
func (g *Graph) buildRoute(node pathNode, t TransportMode) Route {
	keys := strings.Split(node.route, "|")
	route := Route{
		Found:        true,
		Path:         keys,
		TotalMinutes: int(math.Round(node.minutes)),
	}
	for i := 0; i+1 < len(keys); i++ {
		conn, ok := g.edgeBetween(keys[i], keys[i+1], t)
		if !ok {
			continue
		}
		toZone := g.zones[keys[i+1]]
		minutes, _ := stepMinutes(conn, toZone, t)
		gates := hopGates(conn, toZone)
		route.Legs = append(route.Legs, Leg{
			FromKey:        keys[i],
			ToKey:          keys[i+1],
			ConnectionType: conn.Type,
			Minutes:        minutes,
			Gates:          gates,
		})
		route.Gates = append(route.Gates, gates...)
	}
	return route
}

// edgeBetween picks the cheapest usable parallel edge between two zones,
// preferring fewer gates then connection type order on ties. It mirrors the
// planner's choice for the same pair.
func (g *Graph) edgeBetween(from, to string, t TransportMode) (Connection, bool) {
	var (
		found bool
		pick  Connection
		pickM float64
		pickG int
	)
	for _, e := range g.edges[from] {
		if e.to != to || !e.conn.Passable {
			continue
		}
		toZone := g.zones[e.to]
		minutes, ok := stepMinutes(e.conn, toZone, t)
		if !ok {
			continue
		}
		gates := len(hopGates(e.conn, toZone))
		if !found || minutes < pickM || (minutes == pickM && gates < pickG) {
			found, pick, pickM, pickG = true, e.conn, minutes, gates
		}
	}
	return pick, found
}

// Step resolves one hop between adjacent zones under the same usability
// rules as planning: edge choice, true minutes, and the gates to roll.
// Journey advancement calls it against live zone state so mid-trip world
// changes are honored.
func (g *Graph) Step(from, to string, t TransportMode, opts PathOptions) (Leg, error) {
	if _, err := g.Zone(from); err != nil {
		return Leg{}, err
	}
	toZone, err := g.Zone(to)
	if err != nil {
		return Leg{}, err
	}

	var (
		found bool
		leg   Leg
	)
	for _, e := range g.edges[from] {
		if e.to != to || !g.usable(e, t, opts) {
			continue
		}
		minutes, _ := stepMinutes(e.conn, toZone, t)
		gates := hopGates(e.conn, toZone)
		if !found || minutes < leg.Minutes || (minutes == leg.Minutes && len(gates) < len(leg.Gates)) {
			found = true
			leg = Leg{
				FromKey:        from,
				ToKey:          to,
				ConnectionType: e.conn.Type,
				Minutes:        minutes,
				Gates:          gates,
			}
		}
	}
	if !found {
		return Leg{}, fmt.Errorf("no usable connection from %q to %q for %s", from, to, t.Key)
	}
	return leg, nil
}

// AccessReport is the single-hop accessibility verdict for a zone.
type AccessReport struct {
	CanEnter     bool               `json:"can_enter"`
	Reason       string             `json:"reason,omitempty"`
	Skill        string             `json:"skill,omitempty"`
	Difficulty   int                `json:"difficulty,omitempty"`
	Consequence  FailureConsequence `json:"consequence,omitempty"`
	EntryMinutes int                `json:"entry_minutes,omitempty"`
}

// CheckAccessibility answers "can this transport enter this zone at all",
// independent of where the traveler stands.
func (g *Graph) CheckAccessibility(zoneKey string, t TransportMode) (AccessReport, error) {
	z, err := g.Zone(zoneKey)
	if err != nil {
		return AccessReport{}, err
	}
	if !z.Accessible {
		reason := z.BlockedReason
		if reason == "" {
			reason = fmt.Sprintf("%s is not accessible", z.Name)
		}
		return AccessReport{CanEnter: false, Reason: reason}, nil
	}
	mult, ok := t.Multiplier(z.Terrain)
	if !ok {
		return AccessReport{
			CanEnter: false,
			Reason:   fmt.Sprintf("%s terrain is impassable by %s", z.Terrain, t.Key),
		}, nil
	}
	base := float64(z.BaseCostMinutes)
	if t.Mounted {
		if z.MountedCostMinutes == nil {
			return AccessReport{
				CanEnter: false,
				Reason:   fmt.Sprintf("%s cannot be entered on a mount", z.Name),
			}, nil
		}
		base = float64(*z.MountedCostMinutes)
	}
	report := AccessReport{
		CanEnter:     true,
		EntryMinutes: int(math.Round(base * mult)),
	}
	if z.SkillGate != nil {
		report.Skill = z.SkillGate.Skill
		report.Difficulty = z.SkillGate.Difficulty
		report.Consequence = z.SkillGate.Consequence
	}
	return report, nil
}

// VisibleFrom lists zones observable from a vantage zone: non-hidden
// passable neighbors with at least adjacent visibility, plus far-visibility
// zones two hops out. Keys come back sorted.
func (g *Graph) VisibleFrom(vantage string) ([]string, error) {
	if _, err := g.Zone(vantage); err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	for _, e := range g.edges[vantage] {
		if !e.conn.Passable || e.conn.Type == ConnectionHidden {
			continue
		}
		z, ok := g.zones[e.to]
		if !ok {
			continue
		}
		if z.Visibility == VisibilityAdjacent || z.Visibility == VisibilityFar {
			seen[e.to] = true
		}
		// Far-visibility zones show over one intervening zone.
		for _, e2 := range g.edges[e.to] {
			if e2.to == vantage || !e2.conn.Passable || e2.conn.Type == ConnectionHidden {
				continue
			}
			if z2, ok := g.zones[e2.to]; ok && z2.Visibility == VisibilityFar {
				seen[e2.to] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}
