package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/udrf/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"UDRF_CONFIG", "UDRF_ADDR", "UDRF_JWT_SECRET", "UDRF_QUEUE_SIZE", "UDRF_WORKER_COUNT",
	"UDRF_DEDUPE_SIZE", "UDRF_DB_DRIVER", "UDRF_DB_DSN", "UDRF_LOCK_POLICY",
	"UDRF_MAX_RANKING_ROWS", "UDRF_CORS_ORIGINS", "UDRF_LOG_FORMAT",
	"UDRF_RUBRIC_SECTION_MAX_V", "UDRF_RUBRIC_ITEM_MAX_V_6", "UDRF_RUBRIC_POINTS_PER_ENTRY_I_3",
}

func clearConfigEnvVars() {
	for _, k := range configEnvVars {
		_ = os.Unsetenv(k)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "udrf.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		_ = os.Setenv("UDRF_JWT_SECRET", "s3cret")
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.DBDriver, convey.ShouldEqual, "memory")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
				convey.So(cfg.JWTSecret, convey.ShouldEqual, "s3cret")
			})
		})

		convey.Convey("When the jwt secret is missing", func() {
			_ = os.Unsetenv("UDRF_JWT_SECRET")
			cfg, err := config.Load(ctx)

			convey.Convey("Then loading should fail validation", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("UDRF_ADDR", ":8080")
			_ = os.Setenv("UDRF_QUEUE_SIZE", "500")
			_ = os.Setenv("UDRF_WORKER_COUNT", "16")
			_ = os.Setenv("UDRF_LOCK_POLICY", "admin_override")
			_ = os.Setenv("UDRF_CORS_ORIGINS", "http://a.example,http://b.example")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 500)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 16)
				convey.So(cfg.LockPolicy, convey.ShouldEqual, "admin_override")
				convey.So(len(cfg.Origins()), convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			path := createTempConfigFile(t, `
addr: ":9090"
queue_size: 300
db_driver: sqlite
db_dsn: "file:udrf.db"
raw_data_file: fixtures.yaml
rubric:
  section_max:
    V: 80
  item_max:
    V_6: 15
`)
			_ = os.Setenv("UDRF_CONFIG", path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 300)
				convey.So(cfg.DBDriver, convey.ShouldEqual, "sqlite")
				convey.So(cfg.RawDataFile, convey.ShouldEqual, "fixtures.yaml")
				convey.So(cfg.Rubric.SectionMax["V"], convey.ShouldEqual, 80)

				r, err := cfg.BuildRubric()
				convey.So(err, convey.ShouldBeNil)
				convey.So(r.TotalMax(), convey.ShouldEqual, 730)
			})

			convey.Convey("And environment variables should override file values", func() {
				_ = os.Setenv("UDRF_ADDR", ":8081")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8081")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 300)
			})

			convey.Convey("And rubric overrides should be settable from the environment", func() {
				_ = os.Setenv("UDRF_RUBRIC_SECTION_MAX_V", "90")
				_ = os.Setenv("UDRF_RUBRIC_ITEM_MAX_V_6", "20")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Rubric.SectionMax["V"], convey.ShouldEqual, 90)
				convey.So(cfg.Rubric.ItemMax["V_6"], convey.ShouldEqual, 20)

				r, err := cfg.BuildRubric()
				convey.So(err, convey.ShouldBeNil)
				convey.So(r.TotalMax(), convey.ShouldEqual, 740)
			})
		})

		convey.Convey("When a rubric override comes only from the environment", func() {
			_ = os.Setenv("UDRF_RUBRIC_SECTION_MAX_V", "80")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should land in the rubric overrides", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Rubric.SectionMax, convey.ShouldResemble, map[string]float64{"V": 80})
				r, err := cfg.BuildRubric()
				convey.So(err, convey.ShouldBeNil)
				convey.So(r.TotalMax(), convey.ShouldEqual, 730)
			})
		})

		convey.Convey("When loading config with an invalid YAML file", func() {
			_ = os.Setenv("UDRF_CONFIG", createTempConfigFile(t, `invalid: yaml: content: [`))

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with a non-existent file", func() {
			_ = os.Setenv("UDRF_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("UDRF_ADDR", "")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("UDRF_QUEUE_SIZE", "invalid")

			cfg, err := config.Load(ctx)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})

		convey.Convey("When loading config with a negative worker count", func() {
			_ = os.Setenv("UDRF_WORKER_COUNT", "-10")

			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}
