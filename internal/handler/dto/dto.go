// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"github.com/shopspring/decimal"

	"github.com/penshort/costboard/internal/costmodel"
)

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ScalingResponse is the projection of one channel across volume points.
type ScalingResponse struct {
	Channel             costmodel.Channel          `json:"channel"`
	Cadence             costmodel.Cadence          `json:"cadence,omitempty"`
	Scenario            costmodel.RetryScenario    `json:"scenario,omitempty"`
	MaxVolume           int                        `json:"max_volume"`
	PerItemCost         decimal.Decimal            `json:"per_item_cost"`
	DailyInfrastructure decimal.Decimal            `json:"daily_infrastructure"`
	Components          []costmodel.ComponentShare `json:"components"`
	Rows                []costmodel.ScalingRow     `json:"rows"`
}

// ScalingParams are the resolved request parameters of a scaling query.
type ScalingParams struct {
	Scenario  costmodel.RetryScenario
	Cadence   costmodel.Cadence
	MaxVolume int
}

// ToScalingResponse converts a channel model and its scaling rows.
// Badge reports its retry scenario; the other channels their cadence.
func ToScalingResponse(m *costmodel.ChannelModel, params ScalingParams, rows []costmodel.ScalingRow) *ScalingResponse {
	resp := &ScalingResponse{
		Channel:             m.Channel(),
		MaxVolume:           params.MaxVolume,
		PerItemCost:         m.PerItemCost(),
		DailyInfrastructure: m.DailyInfrastructureCost(),
		Components:          m.ComponentShares(),
		Rows:                rows,
	}
	if m.Channel() == costmodel.ChannelBadge {
		resp.Scenario = params.Scenario
	} else {
		resp.Cadence = params.Cadence
	}
	return resp
}
