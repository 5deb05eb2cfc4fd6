package testutil

import (
	"oracletally/internal/tally"
	"oracletally/pkg/contracts/domain"
)

// BinaryReveal returns an eligible reveal carrying price in the 16-byte wire format
func BinaryReveal(price uint64) domain.RevealRecord {
	buf := tally.EncodePrice(price)
	return domain.RevealRecord{InConsensus: true, Result: buf[:]}
}

// TextReveal returns an eligible reveal carrying a decimal dollar payload
func TextReveal(dollars string) domain.RevealRecord {
	return domain.RevealRecord{InConsensus: true, Result: []byte(dollars)}
}

// ExcludedReveal returns a reveal the host marked as failed
func ExcludedReveal() domain.RevealRecord {
	return domain.RevealRecord{ExitCode: 1, InConsensus: true, Result: []byte("0")}
}

// Batch builds a batch of binary reveals for symbol
func Batch(symbol string, prices ...uint64) domain.RevealBatch {
	batch := domain.RevealBatch{Symbol: symbol, Reveals: make([]domain.RevealRecord, len(prices))}
	for i, p := range prices {
		batch.Reveals[i] = BinaryReveal(p)
	}
	return batch
}

// OutlierPrices are six reveals near $28.55 and one reporting ten times the price.
// The tally settles on 28.551500 (HodgesLehmann) using six points.
var OutlierPrices = []uint64{28_550_000, 28_545_000, 28_560_000, 28_552_000, 28_548_000, 28_555_000, 285_500_000}

// SpreadPrices agree too little for a valid consensus.
var SpreadPrices = []uint64{10_000_000, 20_000_000, 30_000_000, 40_000_000}
