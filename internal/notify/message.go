package notify

import (
	"fmt"
	"strings"

	"github.com/lumastore/storefront/internal/domain"
)

// FormatMessage renders the human-readable customer message for a status,
// addressing the customer by first name and quoting the short order id and
// the total in the merchant's currency. Cancelled omits the total.
func FormatMessage(o *domain.Order, status domain.Status, merchant *domain.Merchant) string {
	name := firstName(o.CustomerName)
	shortID := o.ShortID()
	total := merchant.FormatAmount(o.Total)

	switch status {
	case domain.StatusAccepted:
		return fmt.Sprintf("Hi %s! %s has accepted your order #%s (%s). We'll let you know as soon as it's being prepared.",
			name, merchant.Name, shortID, total)
	case domain.StatusPreparing:
		return fmt.Sprintf("Hi %s! Your order #%s (%s) is now being prepared by %s.",
			name, shortID, total, merchant.Name)
	case domain.StatusDelivering:
		return fmt.Sprintf("Hi %s! Your order #%s (%s) is out for delivery. It should reach you soon!",
			name, shortID, total)
	case domain.StatusDelivered:
		return fmt.Sprintf("Hi %s! Your order #%s (%s) has been delivered. Thank you for shopping with %s!",
			name, shortID, total, merchant.Name)
	case domain.StatusCancelled:
		return fmt.Sprintf("Hi %s, unfortunately your order #%s has been cancelled. Get in touch with %s if you have any questions.",
			name, shortID, merchant.Name)
	case domain.StatusCompletedWhatsApp:
		return fmt.Sprintf("Hi %s! Your order #%s (%s) was completed over WhatsApp. Thank you for shopping with %s!",
			name, shortID, total, merchant.Name)
	case domain.StatusNotCompletedWhatsApp:
		return fmt.Sprintf("Hi %s, your order #%s (%s) could not be completed over WhatsApp. Feel free to reach out to %s to try again.",
			name, shortID, total, merchant.Name)
	default:
		return fmt.Sprintf("Hi %s! Your order #%s (%s) was received and is awaiting confirmation.",
			name, shortID, total)
	}
}

func firstName(full string) string {
	full = strings.TrimSpace(full)
	if i := strings.IndexByte(full, ' '); i > 0 {
		return full[:i]
	}
	return full
}
