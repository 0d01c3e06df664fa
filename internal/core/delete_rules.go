package core

import "time"

// deleteWindow is how long after its order date an unsent order may still
// be deleted without force.
const deleteWindow = 3 * 24 * time.Hour

// deletionRefusal returns a non-empty reason when an unforced delete must
// be refused: the order has been sent, or its order date is older than the
// deletion window. orderDate is the order's YYYY-MM-DD date.
func deletionRefusal(orderDate string, sent bool, now time.Time) string {
	if sent {
		return "order has been sent"
	}
	d, err := time.Parse("2006-01-02", orderDate)
	if err != nil {
		return "order date " + orderDate + " is not parseable"
	}
	if now.Sub(d) > deleteWindow {
		return "order is older than 3 days"
	}
	return ""
}
