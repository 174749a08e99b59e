// Trade-route synthesis between settlement hubs.
package social

import (
	"math"
	"sort"

	"github.com/talgya/worldforge/internal/world"
)

const (
	maxLinksPerHub  = 3
	lowAggression   = 0.35 // Below this, any two hubs may trade
	tradeRangeShare = 0.18
	maxTradeFlow    = 5.0
)

// TradeLink joins two settlements by index into CivResult.Settlements.
type TradeLink struct {
	A    int     `json:"a"`
	B    int     `json:"b"`
	Flow float64 `json:"flow"`
}

// synthesizeTrade links hubs strongest first and rasterizes each link onto
// the trade grids. Settlement link counts are updated in place.
func synthesizeTrade(w *world.World, hubs []Settlement, agg float64, res *CivResult) []TradeLink {
	if len(hubs) < 2 {
		return nil
	}
	d := w.Dims()
	order := make([]int, len(hubs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return hubs[order[a]].Strength > hubs[order[b]].Strength
	})

	linked := make(map[[2]int]bool)
	var links []TradeLink
	for _, a := range order {
		ha := &hubs[a]
		reach := tradeRangeShare * float64(max(d.W, d.H)) * (1 + 0.5*float64(ha.Tier))
		for ha.Links < maxLinksPerHub {
			best, bestDist := -1, math.Inf(1)
			for b := range hubs {
				if b == a || linked[pairKey(a, b)] {
					continue
				}
				hb := &hubs[b]
				if !tradeEligible(ha, hb, agg) {
					continue
				}
				dist := d.Dist(float64(ha.X), float64(ha.Y), float64(hb.X), float64(hb.Y))
				if dist <= reach && dist < bestDist {
					best, bestDist = b, dist
				}
			}
			if best < 0 {
				break
			}
			hb := &hubs[best]
			linked[pairKey(a, best)] = true
			ha.Links++
			hb.Links++
			flow := (ha.Strength + hb.Strength) / 2
			links = append(links, TradeLink{A: a, B: best, Flow: flow})
			rasterizeRoute(w, ha.X, ha.Y, hb.X, hb.Y, flow, res)
		}
	}
	return links
}

func tradeEligible(a, b *Settlement, agg float64) bool {
	if a.Polity >= 0 && a.Polity == b.Polity {
		return true
	}
	if a.Tier == TierCityState || b.Tier == TierCityState {
		return true
	}
	return agg < lowAggression
}

func pairKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// rasterizeRoute walks the shortest toroidal line between two hubs,
// marking land cells only.
func rasterizeRoute(w *world.World, ax, ay, bx, by int, flow float64, res *CivResult) {
	d := w.Dims()
	dx := d.DeltaX(float64(ax), float64(bx))
	dy := float64(by - ay)
	steps := int(math.Max(math.Abs(dx), math.Abs(dy)))
	if steps == 0 {
		steps = 1
	}
	for s := 0; s <= steps; s++ {
		t := float64(s) / float64(steps)
		x := d.WrapX(int(math.Round(float64(ax) + dx*t)))
		y := d.ClampY(int(math.Round(float64(ay) + dy*t)))
		i := y*d.W + x
		if w.Elevation.Data[i] <= w.Params.SeaLevel {
			continue
		}
		res.TradeRoute[i] = true
		res.TradeFlow.Data[i] = math.Min(maxTradeFlow, res.TradeFlow.Data[i]+flow)
	}
}
