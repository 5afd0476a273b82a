// Package payment encodes the single active payment record of an order into
// its annotation field, as a "[PAYMENT] provider:externalID:status" line. The
// codec manages only its own line; lifecycle tags in the same annotation are
// owned by the status codec and never touched here.
package payment

import (
	"strings"

	"github.com/NHadi/PawSmartMobile-sub001/internal/entity"
)

const linePrefix = "[PAYMENT] "

// settledStatuses is the closed allow-list of terminal success statuses.
// Anything else, including statuses we have never seen, counts as pending so
// reminder and retry logic stays on the safe side.
var settledStatuses = map[string]struct{}{
	"completed": {},
	"succeeded": {},
	"paid":      {},
}

// Encode writes rec as the order's payment line, replacing any previous one.
// The new line is prepended ahead of the remaining annotation text.
func Encode(rec entity.PaymentRecord, annotation string) string {
	rest := strip(annotation)
	line := linePrefix + rec.Provider + ":" + rec.ExternalID + ":" + rec.Status
	if rest == "" {
		return line
	}
	return line + "\n" + rest
}

// Decode parses the first payment line of an annotation. Malformed lines
// (wrong field count) decode to absent rather than erroring.
func Decode(annotation string) (entity.PaymentRecord, bool) {
	for _, line := range strings.Split(annotation, "\n") {
		if !strings.HasPrefix(line, linePrefix) {
			continue
		}
		fields := strings.Split(line[len(linePrefix):], ":")
		if len(fields) != 3 {
			return entity.PaymentRecord{}, false
		}
		return entity.PaymentRecord{
			Provider:   fields[0],
			ExternalID: fields[1],
			Status:     fields[2],
		}, true
	}
	return entity.PaymentRecord{}, false
}

// Settled reports whether the record reached a terminal success status.
func Settled(rec entity.PaymentRecord) bool {
	_, ok := settledStatuses[strings.ToLower(rec.Status)]
	return ok
}

func strip(annotation string) string {
	if annotation == "" {
		return ""
	}
	lines := strings.Split(annotation, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(line, linePrefix) || line == strings.TrimSuffix(linePrefix, " ") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
