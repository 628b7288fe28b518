package ifthenpay

import (
	"fmt"
	"strings"
)

const (
	// TransactionIDPlaceholder is replaced by the aggregator with its own transaction id
	TransactionIDPlaceholder = "[TRANSACTIONID]"

	ReturnPath   = "/payment/ifthenpay/iframe_redirect"
	CallbackPath = "/payment/ifthenpay/s2s_callback"

	callbackQuery = "?amount=[AMOUNT]&reference=[ORDER_ID]&apk=[ANTI_PHISHING_KEY]"
)

// Return statuses carried on the browser return URLs
const (
	ReturnStatusSuccess = "success"
	ReturnStatusError   = "error"
	ReturnStatusCancel  = "cancel"
)

// ReturnURL builds the percent-encoded browser return URL for a status tag.
// Only the success URL carries the transaction id placeholder.
func ReturnURL(storeURL, reference, amount, status string) string {
	raw := fmt.Sprintf("%s%s?reference=%s&amount=%s&status=%s",
		strings.TrimRight(storeURL, "/"), ReturnPath, reference, amount, status)
	if status == ReturnStatusSuccess {
		raw += "&txid=" + TransactionIDPlaceholder
	}
	return QuoteURL(raw)
}

// CallbackURL builds the webhook URL registered with the aggregator
func CallbackURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + CallbackPath + callbackQuery
}

// QuoteURL percent-encodes every byte except unreserved characters and '/'
func QuoteURL(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s) * 3 / 2)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) || c == '/' {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0F])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') ||
		c == '-' || c == '.' || c == '_' || c == '~'
}
