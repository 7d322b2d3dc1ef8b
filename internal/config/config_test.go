package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/formmatch/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.RequestTimeout(), convey.ShouldEqual, 5*time.Second)
			convey.So(cfg.MaxBodyBytes, convey.ShouldEqual, 1<<20)
			convey.So(cfg.StorageType, convey.ShouldEqual, config.StorageTinyDB)
			convey.So(cfg.StorageName, convey.ShouldEqual, "forms.json")
			convey.So(cfg.StorageCollection, convey.ShouldEqual, "forms")
			convey.So(cfg.StorageWatch, convey.ShouldBeFalse)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New()

		convey.Convey("When mongodb is selected without a host", func() {
			cfg.StorageType = "MongoDB"
			err := cfg.Validate()

			convey.Convey("Then validation should fail as incomplete", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "incomplete mongodb configuration")
			})
		})

		convey.Convey("When mongodb is fully configured", func() {
			cfg.StorageType = "mongodb"
			cfg.StorageHost = "mongodb://mongo:27017"
			cfg.StorageName = "form_storage"

			convey.Convey("Then validation should pass", func() {
				convey.So(cfg.Validate(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When postgres is selected without a DSN", func() {
			cfg.StorageType = "postgres"

			convey.Convey("Then validation should fail", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When sqlite is selected without a file name", func() {
			cfg.StorageType = "sqlite"
			cfg.StorageName = ""

			convey.Convey("Then validation should fail", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a backend is selected by an alias", func() {
			noHost := func(c *config.Config) { c.StorageHost = "" }
			noName := func(c *config.Config) { c.StorageName = "" }
			for _, tc := range []struct {
				alias   string
				missing func(*config.Config)
			}{
				{"mongo", noHost},
				{"Mongo", noHost},
				{"pg", noHost},
				{"postgresql", noHost},
				{"sqlite3", noName},
				{"file", noName},
				{"json", noName},
				{"yaml", noName},
			} {
				alias, missing := tc.alias, tc.missing
				convey.Convey("Then "+alias+" should get the backend's checks", func() {
					cfg.StorageType = alias
					missing(cfg)
					convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
				})
			}
		})

		convey.Convey("When aliases are resolved", func() {
			convey.Convey("Then they should map to the backend names", func() {
				for alias, want := range map[string]string{
					" PostgreSQL ": config.StoragePostgres,
					"inmemory":     config.StorageMemory,
					"sqlite3":      config.StorageSQLite,
					"yaml":         config.StorageTinyDB,
					"mongo":        config.StorageMongoDB,
				} {
					got, ok := config.CanonicalStorageType(alias)
					convey.So(ok, convey.ShouldBeTrue)
					convey.So(got, convey.ShouldEqual, want)
				}
				_, ok := config.CanonicalStorageType("redis")
				convey.So(ok, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When an unknown backend is selected", func() {
			cfg.StorageType = "Redis"

			convey.Convey("Then validation should leave it to the storage factory", func() {
				convey.So(cfg.Validate(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the request timeout is not positive", func() {
			cfg.RequestTimeoutMS = 0

			convey.Convey("Then validation should fail", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}
