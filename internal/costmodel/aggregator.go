package costmodel

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	monthsPerYear = decimal.NewFromInt(12)
	thousand      = decimal.NewFromInt(1000)
)

// Inputs are the user-controlled parameters of a cost projection.
type Inputs struct {
	BadgeVolume      int           `json:"badge_volume"`
	BadgeScenario    RetryScenario `json:"badge_scenario"`
	MemeVolume       int           `json:"meme_volume"`
	InstagramRefresh Cadence       `json:"instagram_refresh"`
	BlogVolume       int           `json:"blog_volume"`
	NewsRefresh      Cadence       `json:"news_refresh"`
}

// ChannelShare is one pipeline's share of the total daily cost.
type ChannelShare struct {
	Channel   Channel         `json:"channel"`
	DailyCost decimal.Decimal `json:"daily_cost"`
	Percent   decimal.Decimal `json:"percent"`
}

// CadenceSaving is the monthly saving of moving a channel to another cadence.
// A negative value means the switch costs more.
type CadenceSaving struct {
	Channel        Channel         `json:"channel"`
	From           Cadence         `json:"from"`
	To             Cadence         `json:"to"`
	MonthlySavings decimal.Decimal `json:"monthly_savings"`
}

// CostSnapshot is the derived, read-only result of one projection.
type CostSnapshot struct {
	Inputs   Inputs          `json:"inputs"`
	Channels []ChannelResult `json:"channels"`

	TotalDaily        decimal.Decimal `json:"total_daily"`
	TotalMonthly      decimal.Decimal `json:"total_monthly"`
	TotalPostsDaily   int             `json:"total_posts_daily"`
	TotalPostsMonthly int             `json:"total_posts_monthly"`
	AvgCostPerPost    decimal.Decimal `json:"avg_cost_per_post"`

	Distribution []ChannelShare `json:"distribution"`

	DailyInfrastructure decimal.Decimal `json:"daily_infrastructure"`
	DailyGeneration     decimal.Decimal `json:"daily_generation"`
	YearlyProjection    decimal.Decimal `json:"yearly_projection"`
	CostPer1KPosts      decimal.Decimal `json:"cost_per_1k_posts"`

	Savings                  []CadenceSaving `json:"savings"`
	RetryCostIncreasePercent decimal.Decimal `json:"retry_cost_increase_percent"`
}

// Channel returns the result for one pipeline.
func (s *CostSnapshot) Channel(c Channel) (ChannelResult, bool) {
	for _, r := range s.Channels {
		if r.Channel == c {
			return r, true
		}
	}
	return ChannelResult{}, false
}

// Aggregator combines the three channel models into a CostSnapshot.
type Aggregator struct {
	catalog Catalog
	policy  ProrationPolicy
}

// NewAggregator creates an Aggregator over static configuration.
func NewAggregator(catalog Catalog, policy ProrationPolicy) *Aggregator {
	return &Aggregator{
		catalog: catalog,
		policy:  policy,
	}
}

// Catalog returns the configuration the aggregator was built with.
func (a *Aggregator) Catalog() Catalog {
	return a.catalog
}

// Policy returns the proration policy the aggregator was built with.
func (a *Aggregator) Policy() ProrationPolicy {
	return a.policy
}

// ChannelModel builds the model of a single channel. Badge ignores cadence
// since it has no infrastructure; the scenario only applies to badge.
func (a *Aggregator) ChannelModel(channel Channel, scenario RetryScenario, cadence Cadence, volume int) (*ChannelModel, error) {
	switch channel {
	case ChannelBadge:
		spec, err := a.catalog.BadgeSpec(scenario)
		if err != nil {
			return nil, err
		}
		return NewChannelModel(spec, a.policy, CadenceDaily, volume)
	case ChannelMeme, ChannelBlog:
		spec, err := a.catalog.Spec(channel)
		if err != nil {
			return nil, err
		}
		return NewChannelModel(spec, a.policy, cadence, volume)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidChannel, channel)
	}
}

// Compute runs the full projection for the given inputs.
func (a *Aggregator) Compute(in Inputs) (*CostSnapshot, error) {
	badge, err := a.ChannelModel(ChannelBadge, in.BadgeScenario, CadenceDaily, in.BadgeVolume)
	if err != nil {
		return nil, fmt.Errorf("badge: %w", err)
	}
	meme, err := a.ChannelModel(ChannelMeme, "", in.InstagramRefresh, in.MemeVolume)
	if err != nil {
		return nil, fmt.Errorf("meme: %w", err)
	}
	blog, err := a.ChannelModel(ChannelBlog, "", in.NewsRefresh, in.BlogVolume)
	if err != nil {
		return nil, fmt.Errorf("blog: %w", err)
	}

	snap := &CostSnapshot{
		Inputs: in,
		Channels: []ChannelResult{
			badge.Breakdown(),
			meme.Breakdown(),
			blog.Breakdown(),
		},
		TotalDaily:          decimal.Zero,
		DailyInfrastructure: decimal.Zero,
		DailyGeneration:     decimal.Zero,
	}

	for _, r := range snap.Channels {
		snap.TotalDaily = snap.TotalDaily.Add(r.DailyCost)
		snap.DailyInfrastructure = snap.DailyInfrastructure.Add(r.DailyInfrastructure)
		snap.DailyGeneration = snap.DailyGeneration.Add(r.DailyGeneration)
		snap.TotalPostsDaily += r.Volume
	}
	snap.TotalMonthly = snap.TotalDaily.Mul(daysPerMonth)
	snap.TotalPostsMonthly = snap.TotalPostsDaily * DaysPerMonth
	snap.YearlyProjection = snap.TotalMonthly.Mul(monthsPerYear)

	avg, err := AverageCostPerPost(snap.TotalDaily, snap.TotalPostsDaily)
	if err != nil {
		return nil, err
	}
	snap.AvgCostPerPost = avg
	snap.CostPer1KPosts = avg.Mul(thousand)
	snap.Distribution = distribution(snap.Channels, snap.TotalDaily)

	for _, current := range []struct {
		channel Channel
		cadence Cadence
	}{
		{ChannelMeme, in.InstagramRefresh},
		{ChannelBlog, in.NewsRefresh},
	} {
		saving, err := a.CadenceSavings(current.channel, current.cadence, CadenceWeekly)
		if err != nil {
			return nil, err
		}
		snap.Savings = append(snap.Savings, saving)
	}

	snap.RetryCostIncreasePercent = a.RetryCostIncreasePercent()

	return snap, nil
}

// AverageCostPerPost divides the daily total by the daily post count.
func AverageCostPerPost(totalDaily decimal.Decimal, totalPosts int) (decimal.Decimal, error) {
	if totalPosts == 0 {
		return decimal.Zero, fmt.Errorf("%w: no posts per day", ErrDivisionByZero)
	}
	return totalDaily.Div(decimal.NewFromInt(int64(totalPosts))), nil
}

func distribution(results []ChannelResult, total decimal.Decimal) []ChannelShare {
	shares := make([]ChannelShare, 0, len(results))
	for _, r := range results {
		pct := decimal.Zero
		if !total.IsZero() {
			pct = r.DailyCost.Div(total).Mul(hundred)
		}
		shares = append(shares, ChannelShare{
			Channel:   r.Channel,
			DailyCost: r.DailyCost,
			Percent:   pct,
		})
	}
	return shares
}

// CadenceSavings recomputes a channel's daily infrastructure under both
// cadences and scales the difference to a month.
func (a *Aggregator) CadenceSavings(channel Channel, from, to Cadence) (CadenceSaving, error) {
	spec, err := a.catalog.Spec(channel)
	if err != nil {
		return CadenceSaving{}, err
	}

	// Volume does not affect infrastructure, so the minimum is used.
	oldModel, err := NewChannelModel(spec, a.policy, from, 1)
	if err != nil {
		return CadenceSaving{}, err
	}
	newModel, err := NewChannelModel(spec, a.policy, to, 1)
	if err != nil {
		return CadenceSaving{}, err
	}

	delta := oldModel.DailyInfrastructureCost().Sub(newModel.DailyInfrastructureCost())
	return CadenceSaving{
		Channel:        channel,
		From:           from,
		To:             to,
		MonthlySavings: delta.Mul(daysPerMonth),
	}, nil
}

// RetryCostIncreasePercent is how much more the retry caption costs than a
// single attempt, as a percentage.
func (a *Aggregator) RetryCostIncreasePercent() decimal.Decimal {
	single, ok := a.catalog.BadgeCaptions[ScenarioBestCase]
	if !ok || single.UnitCost.IsZero() {
		return decimal.Zero
	}
	retry, ok := a.catalog.BadgeCaptions[ScenarioWorstCase]
	if !ok {
		return decimal.Zero
	}
	return retry.UnitCost.Sub(single.UnitCost).Div(single.UnitCost).Mul(hundred)
}
