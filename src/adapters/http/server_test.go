package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	httpadapter "curationsapi/src/adapters/http"
	"curationsapi/src/domain"
	"curationsapi/src/domain/entities"
	"curationsapi/src/services/ledger"
	"curationsapi/src/test_artefacts/stubs"
)

type fakeCurationService struct {
	created     []domain.CreateCurationRequest
	createErr   error
	updated     map[int64]domain.UpdateStatusRequest
	updateErr   error
	curation    *entities.Curation
	getErr      error
	listQueries []domain.ListQuery
	page        *domain.CurationPage
	pending     []string
}

func (f *fakeCurationService) CreateCuration(ctx context.Context, request domain.CreateCurationRequest) (int64, error) {
	f.created = append(f.created, request)
	return 77, f.createErr
}

func (f *fakeCurationService) UpdateStatus(ctx context.Context, id int64, request domain.UpdateStatusRequest) (*entities.Curation, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.updated[id] = request
	curation := *f.curation
	curation.Status = request.Status
	return &curation, nil
}

func (f *fakeCurationService) GetCuration(ctx context.Context, id int64) (*entities.Curation, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.curation, nil
}

func (f *fakeCurationService) ListCurations(ctx context.Context, query domain.ListQuery) (*domain.CurationPage, error) {
	f.listQueries = append(f.listQueries, query)
	return f.page, nil
}

func (f *fakeCurationService) PendingSummary(ctx context.Context) ([]string, error) {
	return f.pending, nil
}

type fakeLedgerService struct {
	appended []ledger.LegacyCorrection
	pending  []string
}

func (f *fakeLedgerService) AppendCorrection(ctx context.Context, correction ledger.LegacyCorrection) error {
	if correction.EntityID == "" {
		return domain.NewValidationError("entity_id", "is required")
	}
	f.appended = append(f.appended, correction)
	return nil
}

func (f *fakeLedgerService) Pending(ctx context.Context) ([]string, error) {
	return f.pending, nil
}

var _ = Describe("HTTP Server", func() {
	var (
		curations *fakeCurationService
		legacy    *fakeLedgerService
		handler   http.Handler
	)

	do := func(method string, path string, body string) *httptest.ResponseRecorder {
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		req := httptest.NewRequest(method, path, reader)
		req.Header.Set("Content-Type", "application/json")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)
		return recorder
	}

	decode := func(recorder *httptest.ResponseRecorder) map[string]any {
		var body map[string]any
		Expect(json.Unmarshal(recorder.Body.Bytes(), &body)).To(Succeed())
		return body
	}

	BeforeEach(func() {
		curations = &fakeCurationService{updated: map[int64]domain.UpdateStatusRequest{}}
		legacy = &fakeLedgerService{}
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		handler = httpadapter.NewServer(logger, 0, nil, curations, legacy).Handler()
	})

	It("answers the health check", func() {
		recorder := do(http.MethodGet, "/", "")

		Expect(recorder.Code).To(Equal(http.StatusOK))
		Expect(decode(recorder)).To(HaveKeyWithValue("msg", "Don't panic"))
	})

	It("reports the dependencies that fail the health check", func() {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		handler = httpadapter.NewServer(logger, 0, nil, curations, legacy).
			WithHealthCheck("postgres", func(ctx context.Context) error { return nil }).
			WithHealthCheck("redis", func(ctx context.Context) error { return errors.New("connection refused") }).
			Handler()

		recorder := do(http.MethodGet, "/", "")

		Expect(recorder.Code).To(Equal(http.StatusServiceUnavailable))
		Expect(decode(recorder)).To(HaveKeyWithValue("failing", ConsistOf("redis")))
	})

	Context("POST /v1/curations", func() {
		It("creates a curation and returns its id", func() {
			recorder := do(http.MethodPost, "/v1/curations",
				`{"entity":"works","entity_id":"W1","property":"title","property_value":"New","submitter_email":"a@b.org"}`)

			Expect(recorder.Code).To(Equal(http.StatusCreated))
			Expect(decode(recorder)).To(HaveKeyWithValue("id", BeNumerically("==", 77)))
			Expect(curations.created[0].PropertyValueSet).To(BeTrue())
			Expect(*curations.created[0].PropertyValue).To(Equal("New"))
		})

		It("distinguishes a null value from an absent one", func() {
			do(http.MethodPost, "/v1/curations", `{"entity":"works","entity_id":"W1","property":"abstract","property_value":null,"submitter_email":"a@b.org"}`)
			do(http.MethodPost, "/v1/curations", `{"entity":"works","entity_id":"W1","property":"abstract","submitter_email":"a@b.org"}`)

			Expect(curations.created[0].PropertyValueSet).To(BeTrue())
			Expect(curations.created[0].PropertyValue).To(BeNil())
			Expect(curations.created[1].PropertyValueSet).To(BeFalse())
		})

		It("stores non-string values in their JSON form", func() {
			do(http.MethodPost, "/v1/curations", `{"entity":"sources","entity_id":"S1","property":"is_oa","property_value":true,"submitter_email":"a@b.org"}`)
			do(http.MethodPost, "/v1/curations", `{"entity":"sources","entity_id":"S1","create_new":true,"property_value":{"display_name": "X"},"submitter_email":"a@b.org"}`)

			Expect(*curations.created[0].PropertyValue).To(Equal("true"))
			Expect(*curations.created[1].PropertyValue).To(Equal(`{"display_name":"X"}`))
		})

		It("maps validation errors to 400", func() {
			curations.createErr = domain.NewValidationError("entity", "is required")

			recorder := do(http.MethodPost, "/v1/curations", `{}`)

			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
			Expect(decode(recorder)).To(HaveKeyWithValue("field", "entity"))
		})

		It("rejects malformed JSON", func() {
			recorder := do(http.MethodPost, "/v1/curations", `{"entity":`)

			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
			Expect(curations.created).To(BeEmpty())
		})

		It("hides unexpected errors", func() {
			curations.createErr = errors.New("connection refused")

			recorder := do(http.MethodPost, "/v1/curations", `{}`)

			Expect(recorder.Code).To(Equal(http.StatusInternalServerError))
			Expect(recorder.Body.String()).NotTo(ContainSubstring("connection refused"))
		})
	})

	Context("PATCH /v1/curations/{id}/status", func() {
		It("applies the decision", func() {
			curation := stubs.NewCurationStub().WithID(5).Get()
			curations.curation = &curation

			recorder := do(http.MethodPatch, "/v1/curations/5/status", `{"status":"denied","moderator_email":"m@b.org"}`)

			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(decode(recorder)).To(HaveKeyWithValue("status", "denied"))
			Expect(curations.updated[5].Status).To(Equal(entities.StatusDenied))
			Expect(*curations.updated[5].ModeratorEmail).To(Equal("m@b.org"))
		})

		It("returns 404 for an unknown curation", func() {
			curations.updateErr = &domain.NotFoundError{ID: 9}

			recorder := do(http.MethodPatch, "/v1/curations/9/status", `{"status":"approved"}`)

			Expect(recorder.Code).To(Equal(http.StatusNotFound))
		})

		It("rejects a non numeric id", func() {
			recorder := do(http.MethodPatch, "/v1/curations/abc/status", `{"status":"approved"}`)

			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Context("GET /v1/curations", func() {
		It("parses filters, sorting and pagination", func() {
			curation := stubs.NewCurationStub().WithID(1).Approved().Get()
			curations.page = &domain.CurationPage{
				Results: []domain.CurationView{{Curation: curation, CurrentValue: "Old", HasCurrent: true}},
				Total:   1,
				Page:    2,
				PerPage: 5,
				Offset:  5,
			}

			recorder := do(http.MethodGet, "/v1/curations?filter=status:approved,is_live:false&sort_by=moderated_date&sort_order=ASC&page=2&per_page=5", "")

			Expect(recorder.Code).To(Equal(http.StatusOK))
			query := curations.listQueries[0]
			Expect(query.Filters).To(Equal([]domain.Filter{{Field: "status", Value: "approved"}, {Field: "is_live", Value: "false"}}))
			Expect(query.SortBy).To(Equal("moderated_date"))
			Expect(query.SortOrder).To(Equal(domain.SortAsc))
			Expect(query.Page).To(Equal(2))
			Expect(query.PerPage).To(Equal(5))

			body := decode(recorder)
			Expect(body["meta"]).To(HaveKeyWithValue("count", BeNumerically("==", 1)))
			Expect(body["results"]).To(ConsistOf(HaveKeyWithValue("current_value", "Old")))
		})

		It("reads plain field parameters as filters too", func() {
			curations.page = &domain.CurationPage{Results: []domain.CurationView{}, PerPage: 2}

			recorder := do(http.MethodGet, "/v1/curations?status=approved&is_live=false&sort_by=submitted_date&sort_order=desc&per_page=2&offset=2", "")

			Expect(recorder.Code).To(Equal(http.StatusOK))
			query := curations.listQueries[0]
			Expect(query.Filters).To(Equal([]domain.Filter{{Field: "is_live", Value: "false"}, {Field: "status", Value: "approved"}}))
			Expect(query.Offset).To(Equal(2))
			Expect(query.PerPage).To(Equal(2))
			Expect(query.SortOrder).To(Equal(domain.SortDesc))
		})

		It("rejects a malformed filter", func() {
			recorder := do(http.MethodGet, "/v1/curations?filter=status", "")

			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
			Expect(curations.listQueries).To(BeEmpty())
		})

		It("rejects a non numeric page", func() {
			recorder := do(http.MethodGet, "/v1/curations?page=two", "")

			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Context("GET /v1/curations/{id}", func() {
		It("returns the curation", func() {
			curation := stubs.NewCurationStub().WithID(12).WithEntity(entities.EntityWorks, "W12").Live().Get()
			curations.curation = &curation

			recorder := do(http.MethodGet, "/v1/curations/12", "")

			Expect(recorder.Code).To(Equal(http.StatusOK))
			body := decode(recorder)
			Expect(body).To(HaveKeyWithValue("id", BeNumerically("==", 12)))
			Expect(body).To(HaveKeyWithValue("entity_id", "W12"))
			Expect(body).To(HaveKeyWithValue("is_live", true))
		})

		It("returns 404 for an unknown curation", func() {
			curations.getErr = &domain.NotFoundError{ID: 12}

			recorder := do(http.MethodGet, "/v1/curations/12", "")

			Expect(recorder.Code).To(Equal(http.StatusNotFound))
		})
	})

	It("serves the pending summary before the id route", func() {
		curations.pending = []string{"W1|title"}

		recorder := do(http.MethodGet, "/v1/curations/pending", "")

		Expect(recorder.Code).To(Equal(http.StatusOK))
		Expect(decode(recorder)).To(HaveKeyWithValue("results", ConsistOf("W1|title")))
	})

	Context("legacy corrections", func() {
		It("appends and reports success", func() {
			recorder := do(http.MethodPost, "/v1/corrections", `{"entity":"works","entity_id":"W1","property":"title","value":"x","email":"a@b.org"}`)

			Expect(recorder.Code).To(Equal(http.StatusCreated))
			Expect(decode(recorder)).To(HaveKeyWithValue("status", "success"))
			Expect(legacy.appended).To(HaveLen(1))
		})

		It("rejects an empty body", func() {
			recorder := do(http.MethodPost, "/v1/corrections", "")

			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
		})

		It("lists pending rows", func() {
			legacy.pending = []string{"title"}

			recorder := do(http.MethodGet, "/v1/corrections/pending", "")

			Expect(decode(recorder)).To(HaveKeyWithValue("count", BeNumerically("==", 1)))
		})
	})
})
