package notification_test

import (
	"context"
	"errors"
	"io"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"curationsapi/src/domain/entities"
	"curationsapi/src/infra/catalog"
	"curationsapi/src/infra/mailgun"
	"curationsapi/src/services/notification"
	"curationsapi/src/test_artefacts/stubs"
)

type stubCatalog struct {
	record catalog.Record
	err    error
}

func (s stubCatalog) GetEntity(ctx context.Context, entity string, id string) (catalog.Record, error) {
	return s.record, s.err
}

func (s stubCatalog) EntityURL(entity string, id string) string {
	return "https://api.openalex.org/" + entity + "/" + id + "?data-version=2"
}

type outbox struct {
	sent []mailgun.Message
	err  error
}

func (o *outbox) Send(ctx context.Context, message mailgun.Message) error {
	o.sent = append(o.sent, message)
	return o.err
}

var _ = Describe("ModerationMailer", func() {
	var (
		ctx    context.Context
		logger *slog.Logger
		box    *outbox
	)

	BeforeEach(func() {
		ctx = context.Background()
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		box = &outbox{}
	})

	Context("when the curation was approved", func() {
		It("sends the approval email with the catalog display name", func() {
			mailer := notification.NewModerationMailer(logger, stubCatalog{record: catalog.Record{"display_name": "Deep Learning"}}, box, "")
			curation := stubs.NewCurationStub().
				WithEntity(entities.EntityWorks, "W99").
				WithProperty("publication_year", stubs.Ptr("2015")).
				WithSubmitterEmail(stubs.Ptr("author@example.org")).
				Approved().
				Get()

			err := mailer.SendModerationEmail(ctx, curation)

			Expect(err).NotTo(HaveOccurred())
			Expect(box.sent).To(HaveLen(1))
			Expect(box.sent[0].Subject).To(Equal(notification.SubjectApproved))
			Expect(box.sent[0].To).To(Equal([]string{"author@example.org"}))
			Expect(box.sent[0].From).To(Equal(notification.DefaultSender))
			Expect(box.sent[0].HTML).To(ContainSubstring("work"))
			Expect(box.sent[0].HTML).To(ContainSubstring("Deep Learning"))
			Expect(box.sent[0].HTML).To(ContainSubstring("publication_year"))
			Expect(box.sent[0].HTML).To(ContainSubstring("2015"))
		})
	})

	Context("when the curation was denied", func() {
		It("falls back to the entity id when the catalog is unavailable", func() {
			mailer := notification.NewModerationMailer(logger, stubCatalog{err: catalog.ErrExternalFetch}, box, "")
			curation := stubs.NewCurationStub().WithEntity(entities.EntitySources, "S5").Denied().Get()

			err := mailer.SendModerationEmail(ctx, curation)

			Expect(err).NotTo(HaveOccurred())
			Expect(box.sent[0].Subject).To(Equal(notification.SubjectDenied))
			Expect(box.sent[0].HTML).To(ContainSubstring("S5"))
			Expect(box.sent[0].HTML).To(ContainSubstring("source"))
		})
	})

	It("skips curations without a submitter", func() {
		mailer := notification.NewModerationMailer(logger, stubCatalog{}, box, "")
		curation := stubs.NewCurationStub().WithSubmitterEmail(nil).Approved().Get()

		Expect(mailer.SendModerationEmail(ctx, curation)).To(Succeed())
		Expect(box.sent).To(BeEmpty())
	})

	It("returns send failures", func() {
		box.err = errors.New("401 forbidden")
		mailer := notification.NewModerationMailer(logger, stubCatalog{}, box, "")

		err := mailer.SendModerationEmail(ctx, stubs.NewCurationStub().Approved().Get())

		Expect(err).To(MatchError(ContainSubstring("401 forbidden")))
	})
})
