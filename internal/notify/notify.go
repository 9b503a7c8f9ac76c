// Package notify delivers transactional mail through an HTTP mail gateway.
package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/centrobenavente/booking-server/internal/booking"
)

// LogNotifier records deliveries without sending anything. It stands in for
// the mail gateway in development and tests.
type LogNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) BookingCreated(_ context.Context, appt booking.AppointmentDetail, cancelURL string) error {
	n.logger.Info().
		Str("to", appt.PatientEmail).
		Str("date", appt.Date.Format("2006-01-02")).
		Str("start_time", appt.StartTime).
		Str("cancel_url", cancelURL).
		Msg("booking confirmation (mail disabled)")
	return nil
}

func (n *LogNotifier) BookingCancelled(_ context.Context, appt booking.AppointmentDetail) error {
	n.logger.Info().
		Str("to", appt.PatientEmail).
		Str("date", appt.Date.Format("2006-01-02")).
		Msg("booking cancellation (mail disabled)")
	return nil
}

func (n *LogNotifier) AppointmentReminder(_ context.Context, appt booking.AppointmentDetail) error {
	n.logger.Info().
		Str("to", appt.PatientEmail).
		Str("date", appt.Date.Format("2006-01-02")).
		Str("start_time", appt.StartTime).
		Msg("appointment reminder (mail disabled)")
	return nil
}
