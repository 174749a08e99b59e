// Single-event narration.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/talgya/worldforge/internal/social"
)

// NarrateEvent expands one epoch event into two or three sentences.
func NarrateEvent(ctx context.Context, client *Client, e social.EpochEvent, worldContext string) (string, error) {
	if !client.Enabled() {
		return "", ErrDisabled
	}

	system := `You are the chronicler of a young world. Narrate this event in 2-3 sentences of vivid, period-appropriate prose. Scale the drama to the impact level (1 is a footnote, 5 reshapes the age). Do not break character or mention simulations.`

	prompt := fmt.Sprintf("World context: %s\n\nEpoch %d, %s (impact %d): %s",
		worldContext, e.Epoch, e.Category, e.Impact, e.Summary)

	return client.Complete(ctx, system, prompt, 200)
}

// Headline returns the event most worth a narration: the highest impact,
// the latest epoch among ties.
func (cc *ChronicleContext) Headline() (social.EpochEvent, bool) {
	var best social.EpochEvent
	found := false
	for _, e := range cc.Events {
		if !found || e.Impact > best.Impact || (e.Impact == best.Impact && e.Epoch > best.Epoch) {
			best, found = e, true
		}
	}
	return best, found
}

// Setting is the one-line world context given with a single event.
func (cc *ChronicleContext) Setting() string {
	s := fmt.Sprintf("%s; a %s world, %.0f%% dry land", cc.Age, strings.ToLower(cc.Morphology), cc.LandPct)
	if len(cc.TopBiomes) > 0 {
		s += ", mostly " + strings.ToLower(strings.Join(cc.TopBiomes, ", "))
	}
	if n := len(cc.Polities); n > 0 {
		s += fmt.Sprintf("; %d realms", n)
	}
	return s
}
