package probe_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/formmatch/internal/adapters/http/api"
	"github.com/okian/formmatch/internal/adapters/storage"
	service "github.com/okian/formmatch/internal/app"
	"github.com/okian/formmatch/internal/config"
	"github.com/okian/formmatch/internal/domain/field"
	"github.com/okian/formmatch/internal/domain/template"
	"github.com/okian/formmatch/internal/probe"
	"github.com/okian/formmatch/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.InitWithWriter(&strings.Builder{})
}

const scenarios = `
cases:
  - name: contact
    fields: {user_email: a@b.co, user_phone: "+7 999 123 45 67"}
    expect_template: Contact Form
  - fields: {comment: hello}
    expect_types: {comment: text}
`

func newTarget(t *testing.T) *httptest.Server {
	store := storage.NewMemoryStore(template.MustNew("Contact Form", field.Types{
		"user_email": field.Email,
		"user_phone": field.Phone,
	}))
	svc := service.New(service.WithStore(store), service.WithLogger(logger.Nop()))
	if err := svc.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(svc.Stop)

	r := api.NewRouter(api.RouterConfig{RequestTimeout: 5 * time.Second, Logger: logger.Nop()})
	api.NewServer(svc, logger.Nop()).Register(context.Background(), r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestParseCases(t *testing.T) {
	Convey("Given scenario documents", t, func() {
		Convey("When the document is valid", func() {
			cases, err := probe.ParseCases([]byte(scenarios))
			So(err, ShouldBeNil)

			Convey("Then every case is decoded and unnamed cases are numbered", func() {
				So(cases, ShouldHaveLength, 2)
				So(cases[0].Name, ShouldEqual, "contact")
				So(cases[0].ExpectTemplate, ShouldEqual, "Contact Form")
				So(cases[1].Name, ShouldEqual, "case-2")
				So(cases[1].ExpectTypes, ShouldResemble, map[string]string{"comment": "text"})
			})
		})

		Convey("When the document is malformed", func() {
			for _, tc := range []struct{ name, doc string }{
				{"not yaml", "cases: ["},
				{"no cases", "cases: []"},
				{"no fields", "cases: [{name: a, expect_template: X}]"},
				{"no expectation", "cases: [{name: a, fields: {x: y}}]"},
				{"both expectations", "cases: [{name: a, fields: {x: y}, expect_template: X, expect_types: {x: text}}]"},
			} {
				name, doc := tc.name, tc.doc
				Convey("Then it is rejected: "+name, func() {
					_, err := probe.ParseCases([]byte(doc))
					So(errors.Is(err, probe.ErrInvalidCases), ShouldBeTrue)
				})
			}
		})

		Convey("When the file does not exist", func() {
			_, err := probe.LoadCases(filepath.Join(t.TempDir(), "missing.yaml"))
			So(err, ShouldNotBeNil)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a running form service", t, func() {
		srv := newTarget(t)
		cfg := &probe.Config{BaseURL: srv.URL, Workers: 2, Timeout: 5 * time.Second}
		ctx := context.Background()

		Convey("When every expectation holds", func() {
			cases, err := probe.ParseCases([]byte(scenarios))
			So(err, ShouldBeNil)
			results, stats, err := probe.Run(ctx, cfg, cases)

			Convey("Then the run passes and each request is tagged", func() {
				So(err, ShouldBeNil)
				So(stats.Passed, ShouldEqual, 2)
				So(stats.Failed, ShouldEqual, 0)
				So(stats.Submitted, ShouldEqual, 2)
				for _, r := range results {
					So(r.Passed(), ShouldBeTrue)
					So(r.RequestID, ShouldNotBeEmpty)
				}
			})
		})

		Convey("When an expectation is wrong", func() {
			cases := []probe.Case{
				{Name: "wrong template", Fields: map[string]string{"user_email": "a@b.co"}, ExpectTemplate: "Contact Form"},
				{Name: "wrong types", Fields: map[string]string{"when": "01.02.2024"}, ExpectTypes: map[string]string{"when": "text"}},
				{Name: "right", Fields: map[string]string{"when": "01.02.2024"}, ExpectTypes: map[string]string{"when": "date"}},
			}
			results, stats, err := probe.Run(ctx, cfg, cases)

			Convey("Then the run reports a mismatch per failing case", func() {
				So(errors.Is(err, probe.ErrMismatch), ShouldBeTrue)
				So(stats.Failed, ShouldEqual, 2)
				So(stats.Passed, ShouldEqual, 1)
				So(results[0].Passed(), ShouldBeFalse)
				So(results[1].Err.Error(), ShouldContainSubstring, "field types mismatch")
				So(results[2].Passed(), ShouldBeTrue)
			})
		})
	})

	Convey("Given an unhealthy service", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		Convey("Then nothing is submitted", func() {
			cfg := &probe.Config{BaseURL: srv.URL, Timeout: time.Second}
			results, _, err := probe.Run(context.Background(), cfg, []probe.Case{{Name: "x"}})
			So(errors.Is(err, probe.ErrUnhealthy), ShouldBeTrue)
			So(results, ShouldBeEmpty)
		})
	})
}

func TestSeed(t *testing.T) {
	Convey("Given a template document", t, func() {
		doc := `
templates:
  - name: Contact Form
    user_email: email
  - name: Feedback
    comment: text
`
		records, err := probe.ParseRecords([]byte(doc))
		So(err, ShouldBeNil)
		So(records, ShouldHaveLength, 2)

		Convey("When it is seeded into a tinydb file", func() {
			path := filepath.Join(t.TempDir(), "forms.json")
			cfg := config.New()
			cfg.StorageName = path
			So(probe.Seed(context.Background(), cfg, records), ShouldBeNil)

			Convey("Then the store lists the templates in order", func() {
				store, err := storage.NewFileStore(context.Background(), path, storage.DefaultTable, false)
				So(err, ShouldBeNil)
				tpls, err := store.ListTemplates(context.Background())
				So(err, ShouldBeNil)
				So(tpls, ShouldHaveLength, 2)
				So(tpls[0].Name(), ShouldEqual, "Contact Form")
				So(tpls[1].Name(), ShouldEqual, "Feedback")
				_, statErr := os.Stat(path)
				So(statErr, ShouldBeNil)
			})
		})

		Convey("When a record has an unknown field type", func() {
			_, err := probe.ParseRecords([]byte("templates: [{name: X, f: colour}]"))
			So(errors.Is(err, probe.ErrInvalidCases), ShouldBeTrue)
		})

		Convey("When the document has no templates", func() {
			_, err := probe.ParseRecords([]byte("templates: []"))
			So(errors.Is(err, probe.ErrInvalidCases), ShouldBeTrue)
		})

		Convey("When the store kind is unknown", func() {
			cfg := config.New()
			cfg.StorageType = "redis"
			err := probe.Seed(context.Background(), cfg, records)
			So(errors.Is(err, storage.ErrUnknownKind), ShouldBeTrue)
		})
	})
}
