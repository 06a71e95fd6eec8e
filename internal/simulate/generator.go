package simulate

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

var (
	merchants = []string{"Amazon", "Flipkart", "Swiggy", "Zomato", "Uber", "BigBasket", "Myntra", "Crypto Exchange"}
	methods   = []string{"UPI", "Credit Card", "Debit Card", "Net Banking", "Wallet"}
)

// Identifier returns the i-th number of the test range.
func Identifier(i int) string {
	return fmt.Sprintf("%s%03d", NumberPrefix, FirstNumber+i)
}

// Generate builds cfg.Count transactions spread over cfg.Identifiers
// numbers. Most probabilities are low; a tail is high so every decision
// band is exercised.
func Generate(cfg Config) []Transaction {
	cfg.defaults()
	r := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed>>1|1))
	now := time.Now().UTC()

	out := make([]Transaction, cfg.Count)
	for i := range out {
		var p float64
		switch r.IntN(10) {
		case 0, 1:
			p = 0.6 + r.Float64()*0.4
		case 2, 3, 4:
			p = 0.2 + r.Float64()*0.4
		default:
			p = r.Float64() * 0.2
		}
		out[i] = Transaction{
			RequestID:        uuid.NewString(),
			TransactionID:    fmt.Sprintf("SIM-%06d-%s", i, uuid.NewString()[:8]),
			Identifier:       Identifier(i % cfg.Identifiers),
			Amount:           float64(int((50+r.ExpFloat64()*2000)*100)) / 100,
			ModelProbability: float64(int(p*1e4)) / 1e4,
			Merchant:         merchants[r.IntN(len(merchants))],
			PaymentMethod:    methods[r.IntN(len(methods))],
			Timestamp:        now.Add(-time.Duration(r.IntN(3600)) * time.Second).Format(time.RFC3339),
		}
	}
	return out
}
