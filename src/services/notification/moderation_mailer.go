package notification

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"strings"

	"curationsapi/src/domain/entities"
	"curationsapi/src/infra/catalog"
	"curationsapi/src/infra/mailgun"
)

const (
	SubjectApproved = "Your curation request has been approved."
	SubjectDenied   = "Your curation request has been denied."

	DefaultSender = "OurResearch Team <team@ourresearch.org>"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// CatalogClient fetches the display name and builds the link shown in the e-mail.
type CatalogClient interface {
	GetEntity(ctx context.Context, entity string, id string) (catalog.Record, error)
	EntityURL(entity string, id string) string
}

type Sender interface {
	Send(ctx context.Context, message mailgun.Message) error
}

type templateData struct {
	Entity        string
	EntityID      string
	DisplayName   string
	URL           string
	Property      string
	PropertyValue string
}

// ModerationMailer manda o e-mail de aprovação ou recusa para quem submeteu a curation.
type ModerationMailer struct {
	logger  *slog.Logger
	catalog CatalogClient
	sender  Sender
	from    string
}

func NewModerationMailer(logger *slog.Logger, catalogClient CatalogClient, sender Sender, from string) *ModerationMailer {
	if from == "" {
		from = DefaultSender
	}

	return &ModerationMailer{
		logger:  logger,
		catalog: catalogClient,
		sender:  sender,
		from:    from,
	}
}

// SendModerationEmail renders and sends the outcome e-mail. Curations without a submitter are skipped.
func (m *ModerationMailer) SendModerationEmail(ctx context.Context, curation entities.Curation) error {
	if curation.SubmitterEmail == nil || strings.TrimSpace(*curation.SubmitterEmail) == "" {
		m.logger.Info("Skipping moderation email, curation has no submitter", "curation_id", curation.ID)
		return nil
	}

	subject, templateName, err := outcomeFor(curation.Status)
	if err != nil {
		return err
	}

	html, err := m.render(ctx, templateName, curation)
	if err != nil {
		return fmt.Errorf("ModerationMailer.SendModerationEmail - failed to render %s: %w", templateName, err)
	}

	m.logger.Info("Sending moderation email",
		"curation_id", curation.ID,
		"subject", subject,
		"to", *curation.SubmitterEmail)

	err = m.sender.Send(ctx, mailgun.Message{
		From:    m.from,
		To:      []string{*curation.SubmitterEmail},
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return fmt.Errorf("ModerationMailer.SendModerationEmail - failed to send email for curation %d: %w", curation.ID, err)
	}

	return nil
}

func (m *ModerationMailer) render(ctx context.Context, templateName string, curation entities.Curation) (string, error) {
	data := templateData{
		Entity:        strings.TrimSuffix(curation.Entity, "s"),
		EntityID:      curation.EntityID,
		URL:           m.catalog.EntityURL(curation.Entity, curation.EntityID),
		Property:      curation.PropertyName(),
		PropertyValue: curation.Value(),
	}

	// O nome de exibição é opcional: sem ele o e-mail usa o id.
	record, err := m.catalog.GetEntity(ctx, curation.Entity, curation.EntityID)
	if err != nil {
		m.logger.Warn("Could not fetch display name for email",
			"curation_id", curation.ID,
			"entity_id", curation.EntityID,
			"error", err)
	} else if name, ok := record["display_name"].(string); ok {
		data.DisplayName = name
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, templateName, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func outcomeFor(status entities.CurationStatus) (string, string, error) {
	switch status {
	case entities.StatusApproved:
		return SubjectApproved, "curation_approved.html", nil
	case entities.StatusDenied:
		return SubjectDenied, "curation_denied.html", nil
	}
	return "", "", fmt.Errorf("ModerationMailer - curation status %q has no email", status)
}
