package model

import "time"

// Summary aggregates a dispatch table for one regulation mode.
type Summary struct {
	Simulation           string  `json:"simulation,omitempty"`
	SurplusSummary       float64 `json:"surplusSummary"`
	GridSummary          float64 `json:"gridSummary"`
	Balance              float64 `json:"balance"`
	AbsoluteSum          float64 `json:"absoluteSum"`
	InterchangeCount     int     `json:"interchangeCount"`
	NumberFailures       int     `json:"numberFailures"`
	SOSWaterTank         float64 `json:"sosWaterTank"`
	SOSBiogas            float64 `json:"sosBiogas"`
	LOLESin              int     `json:"loleSin"`
	LOLECon              int     `json:"loleCon"`
	LOLETotal            int     `json:"loleTotal"`
	LOLPSin              float64 `json:"lolpSin"`
	LOLPCon              float64 `json:"lolpCon"`
	LOLPTotal            float64 `json:"lolpTotal"`
	LossLoad             float64 `json:"lossLoad"`
	EnergyNotUsed        float64 `json:"energyNotUsed"`
	EnergyCostRenewables float64 `json:"energyCostRenewables"`
	EnergyInterchange    float64 `json:"energyInterchange"`
	NumberInterruptions  int     `json:"numberInterruptions,omitempty"`
}

// SummaryPair holds the unregulated and regulated summaries of one run.
type SummaryPair struct {
	Base      Summary `json:"base"`
	Regulated Summary `json:"regulated"`
}

// ScenarioResult is the outcome of one optimizer scenario: its summary
// pair plus the resource-parameter values the scenario ran with.
// Index 0 is always the all-zero-delta (baseline) scenario.
type ScenarioResult struct {
	Index      int                `json:"index"`
	Group      string             `json:"group"`
	Deltas     map[string]float64 `json:"deltas"`
	Parameters map[string]float64 `json:"parameters"`
	Summaries  SummaryPair        `json:"summaries"`
}

// CandidateDay is a ranked historical date produced by the ponder
// matcher. Score is on the raw 0-100 scale.
type CandidateDay struct {
	Date  time.Time `json:"date"`
	Score float64   `json:"score"`
}

// SimilarDayRow is a matched hourly row tagged with the forecast day it
// was selected for.
type SimilarDayRow struct {
	HourlyObservation
	PredictedDay time.Time
}
