package service

import (
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// PrizeProfile configures the winner draw. OddsDenominator n means a
// 1-in-n chance of winning; n <= 1 makes every ticket a winner, which test
// profiles rely on to get a non-zero winner count from a bounded sample.
type PrizeProfile struct {
	OddsDenominator int64
	Tiers           []decimal.Decimal
}

// PrizeOracle decides, per generated ticket, whether it wins and for how
// much. The profile is read per decision so deployments can retune odds at
// runtime.
type PrizeOracle struct {
	profile func() PrizeProfile

	mu  sync.Mutex
	rng *rand.Rand
}

// NewPrizeOracle builds an oracle over the given profile provider. A nil rng
// falls back to a time-seeded source; tests pass a fixed seed instead.
func NewPrizeOracle(profile func() PrizeProfile, rng *rand.Rand) *PrizeOracle {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &PrizeOracle{
		profile: profile,
		rng:     rng,
	}
}

// Decide performs one Bernoulli winner draw. Winners get a prize drawn
// uniformly from the configured tiers, losers get zero.
func (o *PrizeOracle) Decide() (bool, decimal.Decimal) {
	p := o.profile()

	o.mu.Lock()
	defer o.mu.Unlock()

	if p.OddsDenominator > 1 && o.rng.Int63n(p.OddsDenominator) != 0 {
		return false, decimal.Zero
	}
	if len(p.Tiers) == 0 {
		return false, decimal.Zero
	}

	return true, p.Tiers[o.rng.Intn(len(p.Tiers))]
}
