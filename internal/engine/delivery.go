package engine

import "time"

// DeliveryDateLayout renders dates as short month and day, e.g. "Nov 2".
const DeliveryDateLayout = "Jan 2"

// EstimatedDeliveryDate returns the date etaDays from now in local time,
// formatted with DeliveryDateLayout.
func (e *Engine) EstimatedDeliveryDate(etaDays int) string {
	return DeliveryDate(e.now(), etaDays)
}

// DeliveryDate adds etaDays calendar days to from and formats the result.
func DeliveryDate(from time.Time, etaDays int) string {
	return from.AddDate(0, 0, etaDays).Format(DeliveryDateLayout)
}
