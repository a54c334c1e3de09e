package costmodel

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/penshort/costboard/internal/model"
)

// DaysPerMonth is the month length used by every monthly projection.
const DaysPerMonth = 30

var (
	hundred      = decimal.NewFromInt(100)
	daysPerMonth = decimal.NewFromInt(DaysPerMonth)
)

// ComponentShare is one per-item component and its share of the item cost.
type ComponentShare struct {
	Name     string          `json:"name"`
	UnitCost decimal.Decimal `json:"unit_cost"`
	Percent  decimal.Decimal `json:"percent"`
}

// InfraLine is one infrastructure component amortized to a daily cost.
type InfraLine struct {
	Name    string          `json:"name"`
	RunCost decimal.Decimal `json:"run_cost"`
	PerDay  decimal.Decimal `json:"per_day"`
	Refresh string          `json:"refresh"`
}

// ScalingRow is the projected cost at one volume point.
type ScalingRow struct {
	Volume         int             `json:"volume"`
	GenerationCost decimal.Decimal `json:"generation_cost"`
	DailyCost      decimal.Decimal `json:"daily_cost"`
	MonthlyCost    decimal.Decimal `json:"monthly_cost"`
}

// ChannelResult is the full cost breakdown of one pipeline.
type ChannelResult struct {
	Channel             Channel          `json:"channel"`
	Volume              int              `json:"volume"`
	Cadence             Cadence          `json:"cadence,omitempty"`
	PerItemCost         decimal.Decimal  `json:"per_item_cost"`
	DailyGeneration     decimal.Decimal  `json:"daily_generation"`
	DailyInfrastructure decimal.Decimal  `json:"daily_infrastructure"`
	DailyCost           decimal.Decimal  `json:"daily_cost"`
	MonthlyCost         decimal.Decimal  `json:"monthly_cost"`
	Components          []ComponentShare `json:"components"`
	Infrastructure      []InfraLine      `json:"infrastructure"`
}

// ChannelModel computes the costs of one pipeline at a fixed volume and
// cadence. It is immutable once built.
type ChannelModel struct {
	spec    ChannelSpec
	cadence Cadence
	divisor decimal.Decimal
	volume  int
}

// NewChannelModel validates the volume against the channel bounds and
// resolves the cadence divisor. Out-of-range volumes are rejected, never
// clamped.
func NewChannelModel(spec ChannelSpec, policy ProrationPolicy, cadence Cadence, volume int) (*ChannelModel, error) {
	if volume < 1 || volume > spec.MaxVolume {
		return nil, fmt.Errorf("%w: %s volume %d outside [1, %d]", ErrInvalidVolume, spec.Channel, volume, spec.MaxVolume)
	}

	divisor, err := policy.DivisorFor(string(cadence))
	if err != nil {
		return nil, err
	}

	return &ChannelModel{
		spec:    spec,
		cadence: cadence,
		divisor: decimal.NewFromInt(divisor),
		volume:  volume,
	}, nil
}

// Channel returns the pipeline this model covers.
func (m *ChannelModel) Channel() Channel {
	return m.spec.Channel
}

// Volume returns the configured daily volume.
func (m *ChannelModel) Volume() int {
	return m.volume
}

// MaxVolume is the highest daily volume the channel accepts.
func (m *ChannelModel) MaxVolume() int {
	return m.spec.MaxVolume
}

// PerItemCost is the sum of every per-item component.
func (m *ChannelModel) PerItemCost() decimal.Decimal {
	return model.SumUnitCosts(m.spec.Components)
}

// DailyInfrastructureCost amortizes each infrastructure run over the cadence
// divisor. Static infrastructure is added as is.
func (m *ChannelModel) DailyInfrastructureCost() decimal.Decimal {
	total := decimal.Zero
	for _, c := range m.spec.Infra {
		total = total.Add(c.UnitCost.Div(m.divisor))
	}
	return total.Add(model.SumUnitCosts(m.spec.StaticInfra))
}

// DailyCost is PerItemCost*volume plus the daily infrastructure cost.
// Infrastructure does not depend on volume.
func (m *ChannelModel) DailyCost(volume int) (decimal.Decimal, error) {
	if volume < 1 {
		return decimal.Zero, fmt.Errorf("%w: %s volume %d below 1", ErrInvalidVolume, m.spec.Channel, volume)
	}
	return m.generationCost(volume).Add(m.DailyInfrastructureCost()), nil
}

func (m *ChannelModel) generationCost(volume int) decimal.Decimal {
	return m.PerItemCost().Mul(decimal.NewFromInt(int64(volume)))
}

// ComponentShares returns each per-item component as a percentage of the
// per-item cost, in catalog order. All shares are zero when the item is free.
func (m *ChannelModel) ComponentShares() []ComponentShare {
	perItem := m.PerItemCost()

	shares := make([]ComponentShare, 0, len(m.spec.Components))
	for _, c := range m.spec.Components {
		pct := decimal.Zero
		if !perItem.IsZero() {
			pct = c.UnitCost.Div(perItem).Mul(hundred)
		}
		shares = append(shares, ComponentShare{
			Name:     c.Name,
			UnitCost: c.UnitCost,
			Percent:  pct,
		})
	}
	return shares
}

// ScalingTable projects daily and monthly cost at each volume point, in the
// order given. Volumes above the channel maximum are accepted.
func (m *ChannelModel) ScalingTable(volumes []int) ([]ScalingRow, error) {
	rows := make([]ScalingRow, 0, len(volumes))
	for _, v := range volumes {
		daily, err := m.DailyCost(v)
		if err != nil {
			return nil, err
		}
		rows = append(rows, ScalingRow{
			Volume:         v,
			GenerationCost: m.generationCost(v),
			DailyCost:      daily,
			MonthlyCost:    daily.Mul(daysPerMonth),
		})
	}
	return rows, nil
}

// DefaultScalingTable uses the catalog volume points.
func (m *ChannelModel) DefaultScalingTable() ([]ScalingRow, error) {
	return m.ScalingTable(m.spec.ScalingVolumes)
}

// Breakdown assembles the full result at the configured volume.
func (m *ChannelModel) Breakdown() ChannelResult {
	generation := m.generationCost(m.volume)
	infra := m.DailyInfrastructureCost()
	daily := generation.Add(infra)

	result := ChannelResult{
		Channel:             m.spec.Channel,
		Volume:              m.volume,
		PerItemCost:         m.PerItemCost(),
		DailyGeneration:     generation,
		DailyInfrastructure: infra,
		DailyCost:           daily,
		MonthlyCost:         daily.Mul(daysPerMonth),
		Components:          m.ComponentShares(),
		Infrastructure:      make([]InfraLine, 0, len(m.spec.Infra)+len(m.spec.StaticInfra)),
	}

	if len(m.spec.Infra) > 0 {
		result.Cadence = m.cadence
	}
	for _, c := range m.spec.Infra {
		result.Infrastructure = append(result.Infrastructure, InfraLine{
			Name:    c.Name,
			RunCost: c.UnitCost,
			PerDay:  c.UnitCost.Div(m.divisor),
			Refresh: string(m.cadence),
		})
	}
	for _, c := range m.spec.StaticInfra {
		result.Infrastructure = append(result.Infrastructure, InfraLine{
			Name:    c.Name,
			RunCost: c.UnitCost,
			PerDay:  c.UnitCost,
			Refresh: RealtimeRefresh,
		})
	}

	return result
}
