package swagger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/smartystreets/goconvey/convey"
)

func TestSwaggerHandler(t *testing.T) {
	convey.Convey("Given a swagger handler", t, func() {
		ctx := context.Background()
		r := chi.NewRouter()

		convey.Convey("When registering the swagger handler", func() {
			Register(ctx, r)

			convey.Convey("Then it should handle /openapi.yaml route", func() {
				req := httptest.NewRequest("GET", "/openapi.yaml", http.NoBody)
				w := httptest.NewRecorder()
				r.ServeHTTP(w, req)

				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Header().Get("Content-Type"), convey.ShouldEqual, "application/yaml; charset=utf-8")
				convey.So(w.Body.Len(), convey.ShouldBeGreaterThan, 0)
			})

			convey.Convey("And it should handle /api-docs route", func() {
				req := httptest.NewRequest("GET", "/api-docs", http.NoBody)
				w := httptest.NewRecorder()
				r.ServeHTTP(w, req)

				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Header().Get("Content-Type"), convey.ShouldEqual, "text/html; charset=utf-8")
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "formmatch API Docs")
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "redoc-container")
			})

			convey.Convey("And it should reject other methods", func() {
				req := httptest.NewRequest("POST", "/openapi.yaml", http.NoBody)
				w := httptest.NewRecorder()
				r.ServeHTTP(w, req)

				convey.So(w.Code, convey.ShouldEqual, http.StatusMethodNotAllowed)
			})
		})

		convey.Convey("When registering on a nil router", func() {
			convey.So(func() { Register(ctx, nil) }, convey.ShouldPanic)
		})
	})
}

func TestOpenAPIDocument(t *testing.T) {
	convey.Convey("Given the embedded OpenAPI document", t, func() {
		loader := openapi3.NewLoader()
		doc, err := loader.LoadFromData(OpenAPI)

		convey.Convey("Then it should load and validate", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(doc.Validate(loader.Context), convey.ShouldBeNil)
		})

		convey.Convey("Then it should describe every served route", func() {
			convey.So(err, convey.ShouldBeNil)
			for _, path := range []string{"/get_form", "/templates", "/stats", "/healthz", "/metrics"} {
				convey.So(doc.Paths.Find(path), convey.ShouldNotBeNil)
			}
			convey.So(doc.Paths.Find("/get_form").Post, convey.ShouldNotBeNil)
		})

		convey.Convey("Then the field type enum should list every type", func() {
			convey.So(err, convey.ShouldBeNil)
			schema := doc.Components.Schemas["FieldType"].Value
			convey.So(schema.Enum, convey.ShouldResemble, []any{"date", "phone", "email", "text"})
		})
	})
}
