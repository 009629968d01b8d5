package order

import (
	"fmt"
	"time"
)

// FormatOrderNumber renders ORD-YYYYMMDD-NNNN. The sequence is global, not
// per day, and grows past four digits when it needs to.
func FormatOrderNumber(at time.Time, seq int64) string {
	return fmt.Sprintf("ORD-%s-%04d", at.Format("20060102"), seq)
}
