package checkout

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
)

// Banks are the names a simulated transfer reference is drawn from.
var Banks = []string{"BCA", "BNI", "BRI", "Mandiri", "CIMB"}

// BankReferenceGenerator fabricates the transfer reference returned to the buyer.
type BankReferenceGenerator interface {
	NewReference() string
}

// RandomBankReference draws a bank uniformly and a 10-digit account number.
type RandomBankReference struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewRandomBankReference() *RandomBankReference {
	now := uint64(time.Now().UnixNano())
	return NewSeededBankReference(now, now>>17)
}

// NewSeededBankReference gives a reproducible sequence.
func NewSeededBankReference(seed1, seed2 uint64) *RandomBankReference {
	return &RandomBankReference{rnd: rand.New(rand.NewPCG(seed1, seed2))}
}

func (g *RandomBankReference) NewReference() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	bank := Banks[g.rnd.IntN(len(Banks))]
	number := 1_000_000_000 + g.rnd.Int64N(9_000_000_000)
	return fmt.Sprintf("%s - %d", bank, number)
}
