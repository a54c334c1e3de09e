package costmodel

import (
	"fmt"
	"strings"

	"github.com/penshort/costboard/internal/model"
)

// Channel identifies a content pipeline.
type Channel string

const (
	ChannelBadge Channel = "badge"
	ChannelMeme  Channel = "meme"
	ChannelBlog  Channel = "blog"
)

// Channels lists the pipelines in display order.
func Channels() []Channel {
	return []Channel{ChannelBadge, ChannelMeme, ChannelBlog}
}

// ParseChannel accepts a channel name in any letter case.
func ParseChannel(name string) (Channel, error) {
	c := Channel(strings.ToLower(strings.TrimSpace(name)))
	switch c {
	case ChannelBadge, ChannelMeme, ChannelBlog:
		return c, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidChannel, name)
	}
}

// RetryScenario selects which badge caption cost applies.
type RetryScenario string

const (
	ScenarioBestCase  RetryScenario = "best"  // single caption attempt
	ScenarioWorstCase RetryScenario = "worst" // caption regenerated with retries
)

// ParseRetryScenario accepts "best"/"worst" or any label containing them,
// such as "Best Case (1 attempt)".
func ParseRetryScenario(label string) (RetryScenario, error) {
	l := strings.ToLower(label)
	switch {
	case strings.Contains(l, "best"):
		return ScenarioBestCase, nil
	case strings.Contains(l, "worst"):
		return ScenarioWorstCase, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidScenario, label)
	}
}

// BadgeCaptionComponent is the badge component swapped by RetryScenario.
const BadgeCaptionComponent = "Caption Generation"

// RealtimeRefresh labels infrastructure that is billed continuously.
const RealtimeRefresh = "Real-time"

// ChannelSpec is the static cost configuration of one pipeline.
type ChannelSpec struct {
	Channel   Channel
	MaxVolume int

	// Components are per-item costs, in display order.
	Components []model.CostComponent

	// Infra are one-time run costs amortized by the refresh cadence.
	Infra []model.CostComponent

	// StaticInfra are already-daily costs that are never prorated.
	StaticInfra []model.CostComponent

	// ScalingVolumes are the default what-if volume points.
	ScalingVolumes []int
}

func (s ChannelSpec) clone() ChannelSpec {
	out := s
	out.Components = append([]model.CostComponent(nil), s.Components...)
	out.Infra = append([]model.CostComponent(nil), s.Infra...)
	out.StaticInfra = append([]model.CostComponent(nil), s.StaticInfra...)
	out.ScalingVolumes = append([]int(nil), s.ScalingVolumes...)
	return out
}

// Catalog holds the cost configuration of every pipeline.
// It is built once at startup and passed by value.
type Catalog struct {
	Badge ChannelSpec
	Meme  ChannelSpec
	Blog  ChannelSpec

	// BadgeCaptions holds the caption cost for each retry scenario.
	BadgeCaptions map[RetryScenario]model.CostComponent
}

// DefaultCatalog returns the published per-unit costs in USD.
func DefaultCatalog() Catalog {
	captionSingle := model.NewCostComponent(BadgeCaptionComponent, "0.00189")
	captionRetry := model.NewCostComponent(BadgeCaptionComponent, "0.00945")

	return Catalog{
		Badge: ChannelSpec{
			Channel:   ChannelBadge,
			MaxVolume: 1000,
			Components: []model.CostComponent{
				model.NewCostComponent("Hashtag Scraping", "0.00605"),
				model.NewCostComponent("Viral Hashtag Search", "0.00001"),
				captionSingle,
				model.NewCostComponent("Social Media Posting", "0.00"),
			},
			ScalingVolumes: []int{10, 50, 100, 500, 1000},
		},
		Meme: ChannelSpec{
			Channel:   ChannelMeme,
			MaxVolume: 500,
			Components: []model.CostComponent{
				model.NewCostComponent("Query Embedding", "0.000004"),
				model.NewCostComponent("AI Idea & Caption", "0.012"),
				model.NewCostComponent("Image Generation", "0.039"),
			},
			Infra: []model.CostComponent{
				model.NewCostComponent("Instagram Scraping", "0.69"),
				model.NewCostComponent("Instagram Embeddings", "0.00648"),
			},
			StaticInfra: []model.CostComponent{
				model.NewCostComponent("Pinecone Storage", "0.00"),
			},
			ScalingVolumes: []int{10, 25, 50, 100, 250},
		},
		Blog: ChannelSpec{
			Channel:   ChannelBlog,
			MaxVolume: 100,
			Components: []model.CostComponent{
				model.NewCostComponent("Book Embedding", "0.0012"),
				model.NewCostComponent("YouTube Transcript Embedding", "0.00096"),
				model.NewCostComponent("AI Writing - Input", "0.005"),
				model.NewCostComponent("AI Writing - Output", "0.012"),
				model.NewCostComponent("Publishing", "0.00"),
			},
			Infra: []model.CostComponent{
				model.NewCostComponent("Google News Scraping", "1.60"),
				model.NewCostComponent("News Embeddings", "0.00115"),
			},
			StaticInfra: []model.CostComponent{
				model.NewCostComponent("Pinecone Storage", "0.00"),
			},
			ScalingVolumes: []int{5, 10, 25, 50, 100},
		},
		BadgeCaptions: map[RetryScenario]model.CostComponent{
			ScenarioBestCase:  captionSingle,
			ScenarioWorstCase: captionRetry,
		},
	}
}

// BadgeSpec returns the badge configuration with the caption cost of the
// given scenario.
func (c Catalog) BadgeSpec(scenario RetryScenario) (ChannelSpec, error) {
	caption, ok := c.BadgeCaptions[scenario]
	if !ok {
		return ChannelSpec{}, fmt.Errorf("%w: %q", ErrInvalidScenario, scenario)
	}

	spec := c.Badge.clone()
	for i := range spec.Components {
		if spec.Components[i].Name == BadgeCaptionComponent {
			spec.Components[i] = caption
		}
	}
	return spec, nil
}

// Spec returns the configuration of a channel. Badge uses the best case.
func (c Catalog) Spec(channel Channel) (ChannelSpec, error) {
	switch channel {
	case ChannelBadge:
		return c.BadgeSpec(ScenarioBestCase)
	case ChannelMeme:
		return c.Meme.clone(), nil
	case ChannelBlog:
		return c.Blog.clone(), nil
	default:
		return ChannelSpec{}, fmt.Errorf("%w: %q", ErrInvalidChannel, channel)
	}
}
