package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/formmatch/internal/adapters/storage"
	"github.com/okian/formmatch/internal/config"
	"github.com/okian/formmatch/internal/domain/field"
	"github.com/okian/formmatch/internal/domain/template"
	. "github.com/smartystreets/goconvey/convey"
)

func names(tpls []template.Template) []string {
	out := make([]string, len(tpls))
	for i, t := range tpls {
		out[i] = t.Name()
	}
	return out
}

func TestParseKind(t *testing.T) {
	Convey("Given storage_type values", t, func() {
		cases := map[string]storage.Kind{
			"TinyDB":     storage.KindTinyDB,
			"file":       storage.KindTinyDB,
			" yaml ":     storage.KindTinyDB,
			"MongoDB":    storage.KindMongoDB,
			"mongo":      storage.KindMongoDB,
			"sqlite3":    storage.KindSQLite,
			"PostgreSQL": storage.KindPostgres,
			"memory":     storage.KindMemory,
		}
		for in, want := range cases {
			got, err := storage.ParseKind(in)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, want)
		}

		Convey("When the kind is unsupported", func() {
			_, err := storage.ParseKind("Redis")
			So(errors.Is(err, storage.ErrUnknownKind), ShouldBeTrue)
		})
	})
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	Convey("Given a storage config", t, func() {
		Convey("When the kind is unknown", func() {
			s, err := storage.Open(ctx, storage.Config{Kind: "Redis"})

			Convey("Then Open should fail with ErrUnknownKind", func() {
				So(s, ShouldBeNil)
				So(errors.Is(err, storage.ErrUnknownKind), ShouldBeTrue)
			})
		})

		Convey("When the memory backend is selected", func() {
			s, err := storage.Open(ctx, storage.Config{Kind: "memory"})
			So(err, ShouldBeNil)
			defer func() { _ = s.Close() }()

			Convey("Then it should be instrumented and seedable", func() {
				So(s.Backend(), ShouldEqual, "memory")
				So(s.Seed(ctx, []template.Record{{"name": "A", "email": "email"}}), ShouldBeNil)
				tpls, err := s.ListTemplates(ctx)
				So(err, ShouldBeNil)
				So(names(tpls), ShouldResemble, []string{"A"})
				So(s.Ping(ctx), ShouldBeNil)
			})
		})

		Convey("When built from the service config defaults", func() {
			cfg := config.New()
			cfg.StorageName = t.TempDir() + "/forms.json"
			s, err := storage.Open(ctx, storage.ConfigFrom(cfg))
			So(err, ShouldBeNil)
			defer func() { _ = s.Close() }()

			Convey("Then a tinydb store over a missing file should be empty", func() {
				So(s.Backend(), ShouldEqual, "tinydb")
				tpls, err := s.ListTemplates(ctx)
				So(err, ShouldBeNil)
				So(tpls, ShouldBeEmpty)
			})
		})
	})
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given a memory store with templates", t, func() {
		s := storage.NewMemoryStore(
			template.MustNew("First", field.Types{"a": field.Text}),
			template.MustNew("Second", nil),
		)

		Convey("Then templates should be listed in insertion order", func() {
			tpls, err := s.ListTemplates(ctx)
			So(err, ShouldBeNil)
			So(names(tpls), ShouldResemble, []string{"First", "Second"})
		})

		Convey("When seeding an invalid record", func() {
			err := s.Seed(ctx, []template.Record{{"name": "Ok"}, {"email": "email"}})

			Convey("Then nothing should be added", func() {
				So(errors.Is(err, storage.ErrStoreCorrupt), ShouldBeTrue)
				So(errors.Is(err, template.ErrInvalidRecord), ShouldBeTrue)
				tpls, _ := s.ListTemplates(ctx)
				So(tpls, ShouldHaveLength, 2)
			})
		})

		Convey("When the caller modifies a listing", func() {
			tpls, _ := s.ListTemplates(ctx)
			tpls[0] = template.MustNew("Changed", nil)

			Convey("Then the store should be unaffected", func() {
				again, _ := s.ListTemplates(ctx)
				So(again[0].Name(), ShouldEqual, "First")
			})
		})

		Convey("When the store is closed", func() {
			So(s.Close(), ShouldBeNil)
			_, err := s.ListTemplates(ctx)

			Convey("Then it should be unavailable", func() {
				So(errors.Is(err, storage.ErrStoreUnavailable), ShouldBeTrue)
				So(errors.Is(err, storage.ErrClosed), ShouldBeTrue)
				So(errors.Is(s.Ping(ctx), storage.ErrStoreUnavailable), ShouldBeTrue)
			})
		})
	})
}

func TestError(t *testing.T) {
	Convey("Given a storage error", t, func() {
		cause := errors.New("connection refused")
		err := error(&storage.Error{Op: "list templates", Kind: storage.ErrStoreUnavailable, Err: cause})

		Convey("Then it should match both its kind and its cause", func() {
			So(errors.Is(err, storage.ErrStoreUnavailable), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(errors.Is(err, storage.ErrStoreCorrupt), ShouldBeFalse)
			So(err.Error(), ShouldEqual, "storage list templates: template store unavailable: connection refused")

			var se *storage.Error
			So(errors.As(err, &se), ShouldBeTrue)
			So(se.Op, ShouldEqual, "list templates")
		})

		Convey("Then Reason should label it", func() {
			So(storage.Reason(err), ShouldEqual, "unavailable")
			So(storage.Reason(&storage.Error{Op: "x", Kind: storage.ErrStoreCorrupt}), ShouldEqual, "corrupt")
			So(storage.Reason(nil), ShouldEqual, "none")
			So(storage.Reason(errors.New("other")), ShouldEqual, "unknown")
		})
	})
}

type listOnly struct{ tpls []template.Template }

func (l listOnly) ListTemplates(context.Context) ([]template.Template, error) { return l.tpls, nil }
func (listOnly) Close() error { return nil }

func TestInstrumented(t *testing.T) {
	ctx := context.Background()

	Convey("Given a store without optional capabilities", t, func() {
		s := storage.Instrument(listOnly{tpls: []template.Template{template.MustNew("A", nil)}}, "custom")

		Convey("Then listing should pass through", func() {
			tpls, err := s.ListTemplates(ctx)
			So(err, ShouldBeNil)
			So(names(tpls), ShouldResemble, []string{"A"})
		})

		Convey("Then Seed should be unsupported and Ping should succeed", func() {
			So(errors.Is(s.Seed(ctx, nil), storage.ErrNotSupported), ShouldBeTrue)
			So(s.Ping(ctx), ShouldBeNil)
			So(s.Unwrap(), ShouldHaveSameTypeAs, listOnly{})
		})
	})
}
