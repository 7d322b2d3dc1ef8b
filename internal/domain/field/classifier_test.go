package field_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/okian/formmatch/internal/domain/field"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClassify(t *testing.T) {
	Convey("Given the field classifier", t, func() {
		c := field.Classifier{}

		Convey("When classifying dates", func() {
			Convey("Then both accepted layouts should be dates", func() {
				So(c.Classify("2023-12-06"), ShouldEqual, field.Date)
				So(c.Classify("06.12.2023"), ShouldEqual, field.Date)
			})

			Convey("And single-digit days and months should be dates", func() {
				So(c.Classify("6.12.2023"), ShouldEqual, field.Date)
				So(c.Classify("06.1.2023"), ShouldEqual, field.Date)
				So(c.Classify("2023-1-6"), ShouldEqual, field.Date)
			})

			Convey("And years must have four digits", func() {
				So(field.IsDate("06.12.23"), ShouldBeFalse)
				So(field.IsDate("23-12-06"), ShouldBeFalse)
			})

			Convey("And other separators should fall through to text", func() {
				So(c.Classify("2024/11/09"), ShouldEqual, field.Text)
			})

			Convey("And impossible calendar dates should not be dates", func() {
				So(field.IsDate("31.02.2024"), ShouldBeFalse)
				So(field.IsDate("2024-13-01"), ShouldBeFalse)
			})

			Convey("And trailing characters should reject", func() {
				So(field.IsDate("2023-12-06T10:00"), ShouldBeFalse)
				So(field.IsDate("06.12.2023 "), ShouldBeFalse)
			})
		})

		Convey("When classifying phones", func() {
			Convey("Then grouped international numbers should be phones", func() {
				So(c.Classify("+7 999 123 45 67"), ShouldEqual, field.Phone)
				So(c.Classify("+44 123 456 78 90"), ShouldEqual, field.Phone)
			})

			Convey("And a number that is also valid text should still be a phone", func() {
				So(field.IsText("7 999 123 45 67"), ShouldBeTrue)
				So(c.Classify("7 999 123 45 67"), ShouldEqual, field.Phone)
			})

			Convey("And ungrouped numbers should not be phones", func() {
				So(field.IsPhone("+79991234567"), ShouldBeFalse)
				So(field.IsPhone("+0 999 123 45 67"), ShouldBeFalse)
			})

			Convey("And one trailing newline should be tolerated", func() {
				So(c.Classify("+1 123 456 78 90\n"), ShouldEqual, field.Phone)
				So(field.IsPhone("+1 123 456 78 90\n\n"), ShouldBeFalse)
			})
		})

		Convey("When classifying emails", func() {
			Convey("Then valid addresses should be emails", func() {
				So(c.Classify("user@example.com"), ShouldEqual, field.Email)
				So(c.Classify("first.last+tag@mail.example.org"), ShouldEqual, field.Email)
			})

			Convey("And addresses without a top-level domain should not be emails", func() {
				So(field.IsEmail("user@localhost"), ShouldBeFalse)
				So(c.Classify("user@localhost"), ShouldEqual, field.Text)
			})

			Convey("And one trailing newline should be tolerated", func() {
				So(c.Classify("a@b.io\n"), ShouldEqual, field.Email)
				So(field.IsEmail("a@b.io\n "), ShouldBeFalse)
			})
		})

		Convey("When classifying free text", func() {
			Convey("Then ordinary words should be text by their own validator", func() {
				v := c.Explain("Hello, world!")
				So(v.Type, ShouldEqual, field.Text)
				So(v.Fallback, ShouldBeFalse)
			})

			Convey("And non-latin letters should be accepted", func() {
				So(field.IsText("Привет мир"), ShouldBeTrue)
			})

			Convey("And values no validator accepts should default to text", func() {
				for _, value := range []string{"", "2024/11/09", "<script>", strings.Repeat("a", 257)} {
					v := c.Explain(value)
					So(v.Type, ShouldEqual, field.Text)
					So(v.Fallback, ShouldBeTrue)
				}
			})

			Convey("And 256 characters should still be text", func() {
				So(field.IsText(strings.Repeat("a", 256)), ShouldBeTrue)
			})
		})

		Convey("When classifying a whole submission", func() {
			got := c.ClassifyAll(map[string]string{
				"user_email": "user@example.com",
				"user_phone": "+7 999 123 45 67",
				"birthday":   "06.12.2023",
				"comment":    "see you",
			})

			Convey("Then each field should carry its inferred type", func() {
				want := field.Types{
					"user_email": field.Email,
					"user_phone": field.Phone,
					"birthday":   field.Date,
					"comment":    field.Text,
				}
				So(cmp.Diff(want, got), ShouldBeEmpty)
			})
		})

		Convey("When using the package-level shortcut", func() {
			So(field.Classify("user@example.com"), ShouldEqual, c.Classify("user@example.com"))
		})
	})
}

func TestMatches(t *testing.T) {
	Convey("Given single validators", t, func() {
		So(field.Matches(field.Date, "2023-12-06"), ShouldBeTrue)
		So(field.Matches(field.Phone, "2023-12-06"), ShouldBeFalse)
		So(field.Matches(field.Email, "a@b.io"), ShouldBeTrue)
		So(field.Matches(field.Text, "a@b.io"), ShouldBeFalse)
		So(field.Matches(field.Type("url"), "https://example.com"), ShouldBeFalse)
	})
}

func TestParse(t *testing.T) {
	Convey("Given type tags", t, func() {
		Convey("When the tag is known", func() {
			for _, ft := range field.All() {
				got, err := field.Parse(" " + strings.ToUpper(ft.String()) + " ")
				So(err, ShouldBeNil)
				So(got, ShouldEqual, ft)
			}
		})

		Convey("When the tag is unknown", func() {
			_, err := field.Parse("url")

			Convey("Then it should fail with ErrUnknownType", func() {
				So(errors.Is(err, field.ErrUnknownType), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, `"url"`)
			})
		})
	})
}

func TestTypes(t *testing.T) {
	Convey("Given a type mapping", t, func() {
		ts := field.Types{"email": field.Email}

		Convey("Then Clone should be independent", func() {
			cp := ts.Clone()
			cp["email"] = field.Text
			So(ts["email"], ShouldEqual, field.Email)
		})

		Convey("Then a nil mapping should clone to an empty one", func() {
			var nilTypes field.Types
			So(nilTypes.Clone(), ShouldNotBeNil)
			So(nilTypes.Clone(), ShouldBeEmpty)
		})

		Convey("Then Tags should render wire tags", func() {
			So(cmp.Diff(map[string]string{"email": "email"}, ts.Tags()), ShouldBeEmpty)
		})
	})
}

func TestClassify_PropertyTotalAndDeterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("classify always yields a known type and the same one twice", prop.ForAll(
		func(value string) bool {
			first := field.Classify(value)
			return first.Valid() && field.Classify(value) == first
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

func TestClassify_PropertyTextFallback(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("values failing date, phone and email are text", prop.ForAll(
		func(value string) bool {
			if field.IsDate(value) || field.IsPhone(value) || field.IsEmail(value) {
				return true
			}
			return field.Classify(value) == field.Text
		},
		gen.AnyString(),
	))

	properties.Property("letter-only words are text by their own validator", prop.ForAll(
		func(value string) bool {
			v := field.Classifier{}.Explain(value)
			return v.Type == field.Text && !v.Fallback
		},
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) > 0 && len(s) <= 256 }),
	))

	properties.TestingRun(t)
}
