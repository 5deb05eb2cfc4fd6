package domain

// TallyReport is the externally visible outcome of one tally invocation.
type TallyReport struct {
	RequestID              string          `json:"request_id"`
	Symbol                 string          `json:"symbol,omitempty"`
	Price                  uint64          `json:"price"`
	PriceUSD               string          `json:"price_usd"`
	Method                 string          `json:"method"`
	Confidence             ConfidenceView  `json:"confidence"`
	DataPointsUsed         int             `json:"data_points_used"`
	DataPointsTotal        int             `json:"data_points_total"`
	ConsensusValid         bool            `json:"consensus_valid"`
	ConsensusThresholdUsed float64         `json:"consensus_threshold_used"`
	OutputHex              string          `json:"output_hex"`
	HostExcluded           int             `json:"host_excluded"`
	ParseFailures          int             `json:"parse_failures"`
	ValidationFailures     int             `json:"validation_failures"`
	OutliersRemoved        int             `json:"outliers_removed"`
	ExclusionQuorum        int             `json:"exclusion_quorum"`
	VolatilityScore        float64         `json:"volatility_score"`
	Candidates             []CandidateView `json:"candidates"`
	Diagnostics            []string        `json:"diagnostics,omitempty"`
	Fallback               bool            `json:"fallback"`
}

// ConfidenceView mirrors the engine's confidence score. Bounds are micro-dollars.
type ConfidenceView struct {
	Percentage           int     `json:"percentage"`
	IntervalLow          uint64  `json:"interval_low"`
	IntervalHigh         uint64  `json:"interval_high"`
	BootstrapVariance    float64 `json:"bootstrap_variance"`
	TemporalConsistency  float64 `json:"temporal_consistency"`
	CrossValidationScore float64 `json:"cross_validation_score"`
}

// CandidateView is one aggregation candidate as shown in reports and audit exports.
type CandidateView struct {
	Method           string  `json:"method"`
	Price            uint64  `json:"price"`
	BaseConfidence   int     `json:"base_confidence"`
	SampleBonus      int     `json:"sample_bonus"`
	ConsensusPercent float64 `json:"consensus_percent"`
	CombinedScore    float64 `json:"combined_score"`
	Selected         bool    `json:"selected"`
}

// Selected returns the chosen candidate, if any.
func (r TallyReport) Selected() (CandidateView, bool) {
	for _, c := range r.Candidates {
		if c.Selected {
			return c, true
		}
	}
	return CandidateView{}, false
}
