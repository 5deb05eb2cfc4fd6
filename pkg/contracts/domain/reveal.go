package domain

// RevealRecord is one executor's reveal as handed over by the oracle host.
// Only records with ExitCode == 0 and InConsensus == true carry a price.
type RevealRecord struct {
	ExitCode    int    `json:"exit_code" yaml:"exit_code"`
	GasUsed     uint64 `json:"gas_used" yaml:"gas_used"`
	InConsensus bool   `json:"in_consensus" yaml:"in_consensus"`
	Result      []byte `json:"result" yaml:"result"`
}

// Decodable reports whether the host marked this reveal as eligible for decoding.
func (r RevealRecord) Decodable() bool {
	return r.ExitCode == 0 && r.InConsensus
}

// RevealBatch is the ordered set of reveals for one data request.
// Order is submission order and is significant to the tally.
type RevealBatch struct {
	RequestID string         `json:"request_id,omitempty" yaml:"request_id" validate:"omitempty,uuid"`
	Symbol    string         `json:"symbol,omitempty" yaml:"symbol" validate:"omitempty,max=32"`
	Reveals   []RevealRecord `json:"reveals" yaml:"reveals" validate:"max=256"`
}

// Len returns the number of raw reveals in the batch
func (b RevealBatch) Len() int {
	return len(b.Reveals)
}
