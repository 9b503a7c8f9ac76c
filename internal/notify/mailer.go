package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/centrobenavente/booking-server/internal/booking"
)

// Mailer sends transactional mail through the configured HTTP gateway.
type Mailer struct {
	gatewayURL string
	apiKey     string
	from       string
	client     *http.Client
	logger     zerolog.Logger
}

func NewMailer(gatewayURL, apiKey, from string, logger zerolog.Logger) *Mailer {
	return &Mailer{
		gatewayURL: gatewayURL,
		apiKey:     apiKey,
		from:       from,
		client:     &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

type mailRequest struct {
	From     string            `json:"from"`
	To       string            `json:"to"`
	Subject  string            `json:"subject"`
	Template string            `json:"template"`
	Vars     map[string]string `json:"vars"`
}

func (m *Mailer) send(ctx context.Context, req mailRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode mail request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.gatewayURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("call mail gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("mail gateway returned %d: %s", resp.StatusCode, snippet)
	}

	m.logger.Debug().
		Str("to", req.To).
		Str("template", req.Template).
		Msg("mail accepted by gateway")
	return nil
}

func apptVars(appt booking.AppointmentDetail) map[string]string {
	return map[string]string{
		"patientName":  appt.PatientName,
		"serviceTitle": appt.ServiceTitle,
		"date":         appt.Date.Format("2006-01-02"),
		"startTime":    appt.StartTime,
		"endTime":      appt.EndTime,
	}
}

func (m *Mailer) BookingCreated(ctx context.Context, appt booking.AppointmentDetail, cancelURL string) error {
	vars := apptVars(appt)
	vars["cancelUrl"] = cancelURL
	return m.send(ctx, mailRequest{
		From:     m.from,
		To:       appt.PatientEmail,
		Subject:  "Confirmación de tu cita - Centro Benavente",
		Template: "booking_created",
		Vars:     vars,
	})
}

func (m *Mailer) BookingCancelled(ctx context.Context, appt booking.AppointmentDetail) error {
	vars := apptVars(appt)
	if appt.CancelReason != nil {
		vars["reason"] = *appt.CancelReason
	}
	return m.send(ctx, mailRequest{
		From:     m.from,
		To:       appt.PatientEmail,
		Subject:  "Tu cita ha sido cancelada - Centro Benavente",
		Template: "booking_cancelled",
		Vars:     vars,
	})
}

func (m *Mailer) AppointmentReminder(ctx context.Context, appt booking.AppointmentDetail) error {
	return m.send(ctx, mailRequest{
		From:     m.from,
		To:       appt.PatientEmail,
		Subject:  "Recordatorio de tu cita de mañana - Centro Benavente",
		Template: "appointment_reminder",
		Vars:     apptVars(appt),
	})
}
