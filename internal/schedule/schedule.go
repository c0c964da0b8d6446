// Package schedule builds the monthly installment plan of a contract.
package schedule

import (
	"fmt"
	"time"

	"github.com/pravodoc/pravodoc-backend/internal/dates"
	"github.com/pravodoc/pravodoc-backend/pkg/errors"
)

// Nominal installment sizes in rubles.
const (
	BaseAmount  int64 = 10000
	SecondExtra int64 = 17000
	ThirdExtra  int64 = 25000
)

// MaxPayments caps the schedule length at fifty years of installments.
const MaxPayments = 600

// MaxTotal is the largest total that fits in MaxPayments installments.
const MaxTotal = 3*BaseAmount + SecondExtra + ThirdExtra + (MaxPayments-3)*BaseAmount

// Payment is one installment. Month starts at 1.
type Payment struct {
	Month  int       `json:"month"`
	DueAt  time.Time `json:"due_at"`
	Amount int64     `json:"amount"`
}

// Nominal returns the target amount for a 1-based month index before it is
// capped to the remaining balance.
func Nominal(month int) int64 {
	switch month {
	case 2:
		return BaseAmount + SecondExtra
	case 3:
		return BaseAmount + ThirdExtra
	default:
		return BaseAmount
	}
}

// Build splits total into monthly payments starting at start. Each due date
// is start shifted by whole calendar months, with the day clamped to the
// month's length. The last payment takes whatever balance remains, so the
// amounts always sum to total and none is zero. Totals above MaxTotal are
// rejected.
func Build(start time.Time, total int64) ([]Payment, error) {
	if total <= 0 {
		return nil, errors.BadRequest("total amount must be positive")
	}
	if total > MaxTotal {
		return nil, errors.BadRequest(fmt.Sprintf("total amount must not exceed %d", MaxTotal))
	}
	if start.IsZero() {
		return nil, errors.BadRequest("start date is required")
	}

	payments := make([]Payment, 0, Months(total))
	remaining := total
	for month := 1; remaining > 0; month++ {
		amount := min(remaining, Nominal(month))
		payments = append(payments, Payment{
			Month:  month,
			DueAt:  dates.AddMonths(start, month-1),
			Amount: amount,
		})
		remaining -= amount
	}
	return payments, nil
}

// Months returns the number of installments needed to pay total.
func Months(total int64) int {
	n := 0
	for month := 1; total > 0; month++ {
		if month > 3 {
			return n + int((total+BaseAmount-1)/BaseAmount)
		}
		total -= Nominal(month)
		n++
	}
	return n
}

// Total sums the payment amounts.
func Total(payments []Payment) int64 {
	var sum int64
	for _, p := range payments {
		sum += p.Amount
	}
	return sum
}
