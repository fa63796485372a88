package billing

import (
	"fmt"
	"sort"
	"time"
)

// checkoutURLPaths is the ordered list of places a checkout URL may
// appear in a gateway response. Gateways move this field around between
// API versions, so we probe known locations in priority order.
var checkoutURLPaths = [][]string{
	{"data", "authorization_url"},
	{"data", "link"},
	{"authorization_url"},
	{"link"},
	{"url"},
	{"payment_url"},
}

// ExtractCheckoutURL walks the decoded gateway response looking for a
// non-empty checkout URL. On failure it returns the top-level keys that
// were present so the caller can log what the gateway actually sent.
func ExtractCheckoutURL(resp map[string]any) (string, []string, bool) {
	for _, path := range checkoutURLPaths {
		if url := lookupString(resp, path); url != "" {
			return url, nil, true
		}
	}
	keys := make([]string, 0, len(resp))
	for k := range resp {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "", keys, false
}

// gatewayRefPaths is where gateways put the reference they minted for a
// checkout session, probed like checkoutURLPaths.
var gatewayRefPaths = [][]string{
	{"data", "reference"},
	{"data", "id"},
	{"reference"},
	{"id"},
}

// ExtractGatewayRef returns the gateway's own reference for the session
// when the response carries one.
func ExtractGatewayRef(resp map[string]any) (string, bool) {
	for _, path := range gatewayRefPaths {
		if ref := lookupString(resp, path); ref != "" {
			return ref, true
		}
	}
	return "", false
}

func lookupString(m map[string]any, path []string) string {
	cur := any(m)
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur, ok = obj[key]
		if !ok {
			return ""
		}
	}
	s, _ := cur.(string)
	return s
}

// NewTxRef builds the transaction reference tying a gateway payment back
// to a subscription row. The webhook reconciler looks the pending billing
// row up by this value, so it must be unique per checkout attempt.
func NewTxRef(subscriptionID string, now time.Time) string {
	return fmt.Sprintf("sub_%s_%d", subscriptionID, now.UnixMilli())
}

// SideEffect reports the outcome of a best-effort write (billing row,
// audit row, notification). Failures are recorded, never propagated.
type SideEffect struct {
	OK     bool
	Reason string
}

func SideEffectOK() SideEffect {
	return SideEffect{OK: true}
}

func SideEffectFailed(err error) SideEffect {
	if err == nil {
		return SideEffect{OK: true}
	}
	return SideEffect{OK: false, Reason: err.Error()}
}
