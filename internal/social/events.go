// Epoch event log: a replayable timeline derived from hashed noise and the
// run's aggregates.
package social

import (
	"fmt"

	"github.com/talgya/worldforge/internal/world"
)

// EventCategory is the dominant tendency of an epoch.
type EventCategory string

const (
	EventWar      EventCategory = "war"
	EventAlliance EventCategory = "alliance"
	EventTrade    EventCategory = "trade"
)

// EventLookback is how many epochs the log covers, the current one included.
const EventLookback = 6

const saltEvents = 800

// EpochEvent is one entry in the timeline.
type EpochEvent struct {
	Epoch    int           `json:"epoch"`
	Category EventCategory `json:"category"`
	Summary  string        `json:"summary"`
	Impact   int           `json:"impact"` // 1–5
}

var eventTemplates = map[EventCategory][]string{
	EventWar: {
		"%s and %s clash over the border marches",
		"%s raids the frontier holdings of %s",
		"a long siege pits %s against %s",
		"%s breaks its truce with %s",
	},
	EventAlliance: {
		"%s and %s swear a mutual defense pact",
		"a royal marriage binds %s to %s",
		"%s shelters refugees fleeing %s",
		"%s and %s share a council of elders",
	},
	EventTrade: {
		"caravans from %s reach the markets of %s",
		"%s opens a toll-free road to %s",
		"%s and %s strike a salt and grain accord",
		"a new harbor links %s with %s",
	},
}

// epochEvents scores war, alliance, and trade for each epoch in the
// lookback window and emits the dominant one.
func epochEvents(seed int64, k Knobs, res *CivResult) []EpochEvent {
	var live []PolitySeed
	for _, p := range res.Polities {
		if p.Territory > 0 {
			live = append(live, p)
		}
	}
	if len(live) == 0 {
		return nil
	}

	agg, div := k.agg(), k.div()
	heat := res.Stats.ConflictHeatPct / 100
	cohesion := res.Stats.AllianceCohesionPct / 100
	connected := res.Stats.ConnectedHubsPct / 100
	s := seed + saltEvents

	first := max(0, k.Epoch-EventLookback+1)
	events := make([]EpochEvent, 0, k.Epoch-first+1)
	for e := first; e <= k.Epoch; e++ {
		scores := [...]struct {
			cat   EventCategory
			score float64
		}{
			{EventWar, agg*0.6 + heat*0.25 + world.Hash01(s, e, 0, 0)*0.35},
			{EventAlliance, (1-agg)*0.4 + cohesion*0.3 + world.Hash01(s, e, 1, 0)*0.35},
			{EventTrade, connected*0.4 + div*0.2 + world.Hash01(s, e, 2, 0)*0.35},
		}
		top := scores[0]
		for _, c := range scores[1:] {
			if c.score > top.score {
				top = c
			}
		}

		tmpl := eventTemplates[top.cat]
		t := tmpl[int(world.Hash01(s, e, 3, 0)*float64(len(tmpl)))]
		a := live[int(world.Hash01(s, e, 4, 0)*float64(len(live)))]
		other := "the wilderness clans"
		if len(live) > 1 {
			// Offset by at least one so a polity never meets itself.
			off := 1 + int(world.Hash01(s, e, 5, 0)*float64(len(live)-1))
			other = live[(indexOf(live, a.ID)+off)%len(live)].Name
		}

		impact := 1 + int(clamp01(top.score/1.2)*4.999)
		events = append(events, EpochEvent{
			Epoch:    e,
			Category: top.cat,
			Summary:  fmt.Sprintf(t, a.Name, other),
			Impact:   min(5, max(1, impact)),
		})
	}
	return events
}

func indexOf(ps []PolitySeed, id int) int {
	for i, p := range ps {
		if p.ID == id {
			return i
		}
	}
	return 0
}
