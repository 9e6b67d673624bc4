package notify

import (
	"fmt"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message is a rendered notification ready for a Sender.
type Message struct {
	Subject string
	Body    string
}

var printer = message.NewPrinter(language.AmericanEnglish)

// FormatMoney renders an amount in the migration's currency, e.g. "$ 550.00".
// Unknown currency codes fall back to a plain grouped number with the code appended.
func FormatMoney(amount float64, code string) string {
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return printer.Sprintf("%.2f %s", amount, code)
	}
	return printer.Sprint(currency.Symbol(unit.Amount(amount)))
}

var subjects = map[Kind]string{
	KindEstimateAccepted:       "Estimate accepted",
	KindCarrierSubmitted:       "Carrier order submitted",
	KindCarrierCompleted:       "Carrier setup complete",
	KindLOASubmitted:           "LOA submitted",
	KindFOCReceived:            "FOC received, port scheduled",
	KindPortingCompleted:       "Number porting complete",
	KindMigrationCompleted:     "Migration completed",
	KindCustomerDataSubmitted:  "Customer submitted user data",
	KindQuestionnaireSubmitted: "Customer submitted site questionnaire",
}

// Render builds the subject and body for an event.
func Render(ev Event) Message {
	subject, ok := subjects[ev.Kind]
	if !ok {
		subject = string(ev.Kind)
	}
	site := ev.SiteName
	if ev.CustomerName != "" {
		site = fmt.Sprintf("%s (%s)", ev.SiteName, ev.CustomerName)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Migration: %s\n", site)
	fmt.Fprintf(&b, "Stage: %s\n", ev.Stage)
	if ev.Actor != "" {
		fmt.Fprintf(&b, "By: %s\n", ev.Actor)
	}
	if ev.Kind == KindEstimateAccepted {
		fmt.Fprintf(&b, "Monthly: %s\n", FormatMoney(ev.TotalMonthly, ev.Currency))
		fmt.Fprintf(&b, "One-time: %s\n", FormatMoney(ev.TotalOnetime, ev.Currency))
	}
	if ev.Detail != "" {
		fmt.Fprintf(&b, "%s\n", ev.Detail)
	}
	fmt.Fprintf(&b, "When: %s\n", ev.OccurredAt.UTC().Format("2006-01-02 15:04 MST"))

	return Message{Subject: fmt.Sprintf("[EV] %s: %s", subject, ev.SiteName), Body: b.String()}
}
