// Package status encodes the extended order lifecycle into the backend's
// free-text annotation field. The backend order enum is fixed at five states;
// everything richer is carried as a bracketed uppercase tag at the start of an
// annotation line, e.g. "[WAITING_PAYMENT] customer notes". The codec is the
// only place that reads or writes lifecycle tags.
package status

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/NHadi/PawSmartMobile-sub001/internal/entity"
)

// tagPattern matches a bracketed uppercase tag at the start of a line. The
// match is case-sensitive: lowercase or mixed-case brackets are plain text.
var tagPattern = regexp.MustCompile(`^\[([A-Z][A-Z0-9_]*)\] ?`)

// paymentTag is owned by the payment codec and never treated as lifecycle.
const paymentTag = "PAYMENT"

var titler = cases.Title(language.English)

var tagByStatus = map[entity.EffectiveStatus]string{
	entity.StatusWaitingPayment:    "WAITING_PAYMENT",
	entity.StatusPaymentConfirmed:  "PAYMENT_CONFIRMED",
	entity.StatusPendingReview:     "PENDING_REVIEW",
	entity.StatusApproved:          "APPROVED",
	entity.StatusProcessing:        "PROCESSING",
	entity.StatusShipped:           "SHIPPED",
	entity.StatusDelivered:         "DELIVERED",
	entity.StatusReturnCancelled:   "RETURN_CANCELLED",
	entity.StatusInspectionPending: "INSPECTION_PENDING",
}

var statusByTag = func() map[string]entity.EffectiveStatus {
	m := make(map[string]entity.EffectiveStatus, len(tagByStatus))
	for s, tag := range tagByStatus {
		m[tag] = s
	}
	return m
}()

var labelByStatus = map[entity.EffectiveStatus]string{
	entity.StatusWaitingPayment:    "Awaiting Payment",
	entity.StatusPaymentConfirmed:  "Payment Confirmed",
	entity.StatusPendingReview:     "Pending Review",
	entity.StatusApproved:          "Approved",
	entity.StatusProcessing:        "Processing",
	entity.StatusShipped:           "Shipped",
	entity.StatusDelivered:         "Delivered",
	entity.StatusReturnCancelled:   "Cancelled by Return",
	entity.StatusInspectionPending: "Inspection Pending",
}

// nativeByStatus maps the statuses the backend enum represents faithfully;
// encoding one of these needs no tag, only a native state write.
var nativeByStatus = map[entity.EffectiveStatus]entity.NativeState{
	entity.StatusDraft:     entity.StateDraft,
	entity.StatusSent:      entity.StateSent,
	entity.StatusConfirmed: entity.StateConfirmed,
	entity.StatusDone:      entity.StateDone,
	entity.StatusCancelled: entity.StateCancelled,
}

var nativeText = map[entity.NativeState]struct {
	status entity.EffectiveStatus
	label  string
}{
	entity.StateDraft:     {entity.StatusDraft, "Draft Order"},
	entity.StateSent:      {entity.StatusSent, "Quotation Sent"},
	entity.StateConfirmed: {entity.StatusConfirmed, "Order Confirmed"},
	entity.StateDone:      {entity.StatusDone, "Completed"},
	entity.StateCancelled: {entity.StatusCancelled, "Cancelled"},
}

// Decoded is the result of reading an order's lifecycle.
type Decoded struct {
	Status entity.EffectiveStatus
	Label  string
	// Tagged reports whether the status came from an annotation tag rather
	// than the native state table.
	Tagged bool
}

// Encoded is the result of writing a lifecycle status. Annotation is the new
// annotation value; when StateChanged is true the caller must also write
// State to the backend, since the status is carried by the native enum
// instead of a tag.
type Encoded struct {
	Annotation   string
	State        entity.NativeState
	StateChanged bool
}

// Decode resolves the effective status of an order. It is total: every
// annotation, including empty or corrupt ones, maps to exactly one status.
// When the annotation holds more than one lifecycle tag the topmost wins and
// no repair is attempted.
func Decode(state entity.NativeState, annotation string) Decoded {
	if tag, ok := firstLifecycleTag(annotation); ok {
		if s, known := statusByTag[tag]; known {
			return Decoded{Status: s, Label: labelByStatus[s], Tagged: true}
		}
		// Forward compatible: reuse an unrecognized tag verbatim.
		return Decoded{
			Status: entity.EffectiveStatus(strings.ToLower(tag)),
			Label:  humanize(tag),
			Tagged: true,
		}
	}

	if text, ok := nativeText[state]; ok {
		return Decoded{Status: text.status, Label: text.label}
	}
	// Unknown native state; degrade to the state string itself.
	return Decoded{
		Status: entity.EffectiveStatus(strings.ToLower(string(state))),
		Label:  humanize(string(state)),
	}
}

// Encode writes status s into annotation. Any existing lifecycle tag is
// stripped first; payment tag lines are left untouched. Natively
// representable statuses produce no tag and instead request a native state
// write via Encoded.State.
func Encode(s entity.EffectiveStatus, annotation string) Encoded {
	rest := stripLifecycleTags(annotation)

	if state, ok := nativeByStatus[s]; ok {
		return Encoded{Annotation: rest, State: state, StateChanged: true}
	}

	tag, ok := tagByStatus[s]
	if !ok {
		tag = strings.ToUpper(string(s))
	}

	return Encoded{Annotation: prependTag(tag, rest)}
}

// Label returns the display label for a status without an annotation round
// trip. Unknown statuses are humanized from their own value.
func Label(s entity.EffectiveStatus) string {
	if label, ok := labelByStatus[s]; ok {
		return label
	}
	if text, ok := nativeText[entity.NativeState(s)]; ok {
		return text.label
	}
	return humanize(string(s))
}

func firstLifecycleTag(annotation string) (string, bool) {
	for _, line := range strings.Split(annotation, "\n") {
		m := tagPattern.FindStringSubmatch(line)
		if m == nil || m[1] == paymentTag {
			continue
		}
		return m[1], true
	}
	return "", false
}

// stripLifecycleTags removes lifecycle tag prefixes while keeping any free
// text that shares the line, so customer notes survive re-encoding. Lines
// that were pure tags are dropped entirely.
func stripLifecycleTags(annotation string) string {
	if annotation == "" {
		return ""
	}
	lines := strings.Split(annotation, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		m := tagPattern.FindStringSubmatch(line)
		if m == nil || m[1] == paymentTag {
			kept = append(kept, line)
			continue
		}
		if remainder := line[len(m[0]):]; remainder != "" {
			kept = append(kept, remainder)
		}
	}
	return strings.Join(kept, "\n")
}

// prependTag places the tag ahead of the remaining annotation. The tag joins
// the first text line unless that line is itself tagged (the payment line),
// in which case the tag gets its own line so both stay machine-readable.
func prependTag(tag, rest string) string {
	if rest == "" {
		return "[" + tag + "]"
	}
	if tagPattern.MatchString(rest) {
		return "[" + tag + "]\n" + rest
	}
	return "[" + tag + "] " + rest
}

func humanize(tag string) string {
	return titler.String(strings.ToLower(strings.ReplaceAll(tag, "_", " ")))
}
