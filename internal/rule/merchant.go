package rule

import "strings"

// Prefixes banks prepend to the merchant portion of a description.
var merchantPrefixes = []string{
	"POS ", "DEBIT ", "CREDIT ", "PURCHASE ", "PAYMENT ",
	"TRANSFER ", "WITHDRAWAL ", "DEPOSIT ", "ATM ",
}

// Markers after which the description carries reference noise, not the
// merchant name.
var merchantSuffixes = []string{
	" #", " REF:", " AUTH:", " ID:", " TID:",
	" TERM:", " SEQ:", " BATCH:",
}

// ExtractMerchantName heuristically extracts the merchant name from a raw
// transaction description: the first known prefix is stripped and the tail is
// truncated at the first known suffix marker.
func ExtractMerchantName(description string) string {
	merchant := strings.TrimSpace(description)

	upper := strings.ToUpper(merchant)
	for _, prefix := range merchantPrefixes {
		if strings.HasPrefix(upper, prefix) {
			merchant = strings.TrimSpace(merchant[len(prefix):])
			break
		}
	}

	upper = strings.ToUpper(merchant)
	for _, suffix := range merchantSuffixes {
		if idx := strings.Index(upper, suffix); idx >= 0 {
			merchant = strings.TrimSpace(merchant[:idx])
			break
		}
	}

	return merchant
}
