package orders

import (
	"fmt"
	"math/rand/v2"
	"time"
)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewID returns an order id of the form HRD-<unix ms>-<9 base36 chars>.
func NewID(now time.Time) string {
	suffix := make([]byte, 9)
	for i := range suffix {
		suffix[i] = base36[rand.IntN(len(base36))]
	}
	return fmt.Sprintf("HRD-%d-%s", now.UnixMilli(), suffix)
}
