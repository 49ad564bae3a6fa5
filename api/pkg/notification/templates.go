package notification

import "text/template"

// templateData carries every variable the template contract promises; the
// copy is the template author's, the engine only fills the slots.
type templateData struct {
	CustomerName string
	ServiceName  string
	StaffName    string
	Date         string
	Time         string
	Duration     string
	Price        string
	ConfirmLink  string
	DeclineLink  string
	HoldExpires  string
}

var holdOfferSMSTmpl = template.Must(template.New("holdOfferSMS").Parse(
	`Hi {{ .CustomerName }}! A spot opened up: {{ .ServiceName }} with {{ .StaffName }} on {{ .Date }} at {{ .Time }} ({{ .Duration }}, {{ .Price }}).

Book it: {{ .ConfirmLink }}
Pass: {{ .DeclineLink }}

This offer expires at {{ .HoldExpires }}.`))

var holdOfferEmailTmpl = template.Must(template.New("holdOfferEmail").Parse(
	`Hi {{ .CustomerName }},

Good news - a spot just opened up that matches your waitlist request:

  Service:  {{ .ServiceName }}
  With:     {{ .StaffName }}
  When:     {{ .Date }} at {{ .Time }}
  Duration: {{ .Duration }}
  Price:    {{ .Price }}

Confirm your booking: {{ .ConfirmLink }}

Can't make it? Let the next person have it: {{ .DeclineLink }}

This offer is held for you until {{ .HoldExpires }}. After that it goes to
the next person on the list.`))
