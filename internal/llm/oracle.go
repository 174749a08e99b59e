// Chronicle oracle: turns a world's aggregates and recent epochs into a
// short illuminated history.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/talgya/worldforge/internal/social"
	"github.com/talgya/worldforge/internal/world"
)

// ChronicleContext is everything the chronicler is told about a world.
type ChronicleContext struct {
	Seed       int64
	Width      int
	Height     int
	Morphology string
	LandPct    float64
	TopBiomes  []string // Most common land biomes, largest first
	Cities     []string
	Epoch      int
	Age        string
	Polities   []string
	Stats      social.CivStats
	MeanHealth float64
	Saturation float64
	Events     []social.EpochEvent
	Aggression float64
	Diversity  float64
	Magic      float64
}

// Chronicle is the oracle's reply.
type Chronicle struct {
	Title   string   `json:"title"`
	Entries []string `json:"entries"` // One per reported epoch, oldest first
	Omen    string   `json:"omen"`    // A closing foreshadowing line
}

// NewChronicleContext gathers the prompt inputs from simulation results.
func NewChronicleContext(w *world.World, k social.Knobs, eco *social.EcologyResult, civ *social.CivResult, age string) *ChronicleContext {
	k = k.Clamp()
	c := &ChronicleContext{
		Seed:       w.Params.Seed,
		Width:      w.Params.Width,
		Height:     w.Params.Height,
		Morphology: w.Params.Morphology.String(),
		LandPct:    100 * float64(w.LandCells()) / float64(w.Dims().Cells()),
		Epoch:      k.Epoch,
		Age:        age,
		Stats:      civ.Stats,
		MeanHealth: eco.MeanHealth,
		Saturation: eco.Saturation,
		Events:     civ.Events,
		Aggression: k.Aggression,
		Diversity:  k.Diversity,
		Magic:      k.Magic,
	}
	c.TopBiomes = topLandBiomes(w.Biomes, 3)
	for _, city := range w.Cities {
		c.Cities = append(c.Cities, city.Name)
	}
	for _, p := range civ.Polities {
		if p.Territory > 0 {
			c.Polities = append(c.Polities, fmt.Sprintf("%s (%s)", p.Name, p.Archetype))
		}
	}
	return c
}

func topLandBiomes(bm *world.BiomeMap, n int) []string {
	counts := bm.Counts()
	type entry struct {
		b     world.Biome
		count int
	}
	var es []entry
	for b, c := range counts {
		if b.IsWater() || b == world.BiomeIce {
			continue
		}
		es = append(es, entry{b, c})
	}
	sort.Slice(es, func(i, j int) bool {
		if es[i].count != es[j].count {
			return es[i].count > es[j].count
		}
		return es[i].b < es[j].b
	})
	var out []string
	for i := 0; i < len(es) && i < n; i++ {
		out = append(out, es[i].b.String())
	}
	return out
}

// GenerateChronicle asks the model for a chronicle of the recent epochs.
func GenerateChronicle(ctx context.Context, client *Client, cc *ChronicleContext, maxTokens int) (*Chronicle, error) {
	if !client.Enabled() {
		return nil, ErrDisabled
	}
	system := buildChronicleSystemPrompt(cc)
	user := BuildChroniclePrompt(cc)

	resp, err := client.Complete(ctx, system, user, maxTokens)
	if err != nil {
		return nil, fmt.Errorf("chronicle: %w", err)
	}
	return parseChronicle(resp)
}

func buildChronicleSystemPrompt(cc *ChronicleContext) string {
	return fmt.Sprintf(
		`You are the royal chronicler of a newly mapped world, writing in the %s. You record the rise and fall of its peoples in terse, vivid annals.

Respond ONLY with a single JSON object:
- "title": a short title for this chronicle
- "entries": one sentence per epoch you are given, oldest first, in the order given
- "omen": one sentence foreshadowing what comes next

Do not break character, invent numbers, or mention maps, grids, or simulations.`,
		cc.Age,
	)
}

// BuildChroniclePrompt renders the user prompt for a chronicle.
func BuildChroniclePrompt(cc *ChronicleContext) string {
	var b strings.Builder

	fmt.Fprintf(&b, "The world (seed %d) is %s in shape; %.0f%% of it is dry land.\n", cc.Seed, cc.Morphology, cc.LandPct)
	if len(cc.TopBiomes) > 0 {
		fmt.Fprintf(&b, "Its lands are mostly %s.\n", strings.Join(cc.TopBiomes, ", "))
	}
	fmt.Fprintf(&b, "Temper of its peoples: aggression %.0f, diversity %.0f, arcane density %.0f (of 100).\n",
		cc.Aggression, cc.Diversity, cc.Magic)
	fmt.Fprintf(&b, "Ecological vigor %.2f, maturity %.2f.\n\n", cc.MeanHealth, cc.Saturation)

	if len(cc.Cities) > 0 {
		fmt.Fprintf(&b, "Great cities: %s.\n", strings.Join(cc.Cities, ", "))
	}
	if len(cc.Polities) == 0 {
		b.WriteString("No realm has yet risen.\n")
	} else {
		fmt.Fprintf(&b, "Realms: %s.\n", strings.Join(cc.Polities, ", "))
		s := cc.Stats
		fmt.Fprintf(&b, "They hold %.0f%% of the land. Conflict heat %.0f%%, alliance cohesion %.0f%%, border volatility %.0f%%.\n",
			s.TerritoryPct, s.ConflictHeatPct, s.AllianceCohesionPct, s.BorderVolatilityPct)
		fmt.Fprintf(&b, "Settlements: %d city-states, %d towns, %d hamlets; %.0f%% are joined by trade.\n",
			s.CityStates, s.Towns, s.Hamlets, s.ConnectedHubsPct)
	}
	b.WriteString("\n")

	if len(cc.Events) > 0 {
		b.WriteString("Recorded epochs:\n")
		for _, e := range cc.Events {
			fmt.Fprintf(&b, "- Epoch %d [%s, impact %d]: %s\n", e.Epoch, e.Category, e.Impact, e.Summary)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Write the chronicle up to epoch %d. Respond with a single JSON object.", cc.Epoch)
	return b.String()
}

func parseChronicle(resp string) (*Chronicle, error) {
	start := strings.Index(resp, "{")
	end := strings.LastIndex(resp, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	var c Chronicle
	if err := json.Unmarshal([]byte(resp[start:end+1]), &c); err != nil {
		return nil, fmt.Errorf("parse chronicle: %w", err)
	}
	if c.Title == "" || len(c.Entries) == 0 {
		return nil, fmt.Errorf("chronicle missing title or entries")
	}
	return &c, nil
}
