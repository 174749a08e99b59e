// Settlement tiering: cities become trade hubs once a polity holds them.
package social

import (
	"github.com/talgya/worldforge/internal/world"
)

// HubTier is the political weight of a settlement.
type HubTier uint8

const (
	TierHamlet HubTier = iota
	TierTown
	TierCityState
)

func (t HubTier) String() string {
	switch t {
	case TierCityState:
		return "CityState"
	case TierTown:
		return "Town"
	default:
		return "Hamlet"
	}
}

const (
	cityStateFloor = 0.62
	townFloor      = 0.38
)

// Settlement is a tiered city acting as a trade hub.
type Settlement struct {
	City     int     `json:"city"` // Index into World.Cities
	Name     string  `json:"name"`
	X        int     `json:"x"`
	Y        int     `json:"y"`
	Polity   int     `json:"polity"` // −1 when the cell is unclaimed
	Strength float64 `json:"strength"`
	Tier     HubTier `json:"tier"`
	Links    int     `json:"links"`
}

// tierSettlements scores every city against the final territory.
func tierSettlements(w *world.World, influence *world.Field, owner []int, sat float64, k Knobs) []Settlement {
	d := w.Dims()
	out := make([]Settlement, 0, len(w.Cities))
	for ci, c := range w.Cities {
		i := c.Y*d.W + c.X
		pop := float64(c.Tier) / float64(world.TierLarge)
		score := influence.Data[i]*0.45 +
			sat*0.2 +
			k.div()*0.1 +
			pop*0.25 -
			k.agg()*0.1

		tier := TierHamlet
		switch {
		case score > cityStateFloor:
			tier = TierCityState
		case score > townFloor:
			tier = TierTown
		}
		out = append(out, Settlement{
			City:     ci,
			Name:     c.Name,
			X:        c.X,
			Y:        c.Y,
			Polity:   owner[i],
			Strength: clamp01(score),
			Tier:     tier,
		})
	}
	return out
}
