package payment

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// StatusSource rolls a number in [0, 100) per authorization.
type StatusSource interface {
	Roll() int
}

type RandomStatus struct{}

func (RandomStatus) Roll() int {
	return rand.IntN(100)
}

var refusalReasons = []string{
	"Insufficient funds",
	"Card reported lost",
	"Suspected fraud",
	"Limit exceeded",
	"Issuer unavailable",
}

// calcStatus accepts rolls below successThreshold and maps the rest onto a
// refusal reason.
func calcStatus(roll, successThreshold int) (bool, string) {
	if roll < successThreshold {
		return true, ""
	}
	return false, refusalReasons[(roll-successThreshold)%len(refusalReasons)]
}

type SimulatedConfig struct {
	MinDelay time.Duration
	MaxDelay time.Duration
	// FailureRate is the share of otherwise valid cards refused at random.
	FailureRate float64
}

type SimulatedGateway struct {
	cfg       SimulatedConfig
	threshold int
	status    StatusSource
	now       func() time.Time
}

func NewSimulatedGateway(cfg SimulatedConfig, status StatusSource) *SimulatedGateway {
	if status == nil {
		status = RandomStatus{}
	}
	if cfg.MaxDelay < cfg.MinDelay {
		cfg.MaxDelay = cfg.MinDelay
	}
	rate := min(max(cfg.FailureRate, 0), 1)
	return &SimulatedGateway{
		cfg:       cfg,
		threshold: 100 - int(rate*100),
		status:    status,
		now:       time.Now,
	}
}

func (g *SimulatedGateway) Authorize(ctx context.Context, auth Authorization) (*Receipt, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}

	card := digitsOnly(auth.CardNumber)
	if len(card) != 16 {
		return nil, &DeclineError{Reason: ReasonInvalidCardFormat}
	}
	if syntheticDecline(card) {
		return nil, &DeclineError{Reason: ReasonIssuerDeclined}
	}
	if ok, reason := calcStatus(g.status.Roll(), g.threshold); !ok {
		return nil, &DeclineError{Reason: reason}
	}

	return &Receipt{
		TransactionID: g.transactionID(),
		Last4:         card[12:],
	}, nil
}

// syntheticDecline refuses cards whose digits 5 to 8 contain "000" or are
// exactly "1234". Real card numbers trip this too; it is kept on purpose for
// demos of the failure path.
func syntheticDecline(card string) bool {
	if len(card) < 8 {
		return false
	}
	middle := card[4:8]
	return strings.Contains(middle, "000") || middle == "1234"
}

func (g *SimulatedGateway) wait(ctx context.Context) error {
	d := g.cfg.MinDelay
	if spread := g.cfg.MaxDelay - g.cfg.MinDelay; spread > 0 {
		d += rand.N(spread)
	}
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (g *SimulatedGateway) transactionID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("txn_%d_%s", g.now().UnixMilli(), suffix)
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
