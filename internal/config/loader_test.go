package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/roster/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.ExpiringThresholdDays, convey.ShouldEqual, 30)
				convey.So(cfg.MaxExtensionDays, convey.ShouldEqual, 365)
				convey.So(cfg.DatePolicy, convey.ShouldEqual, "coerce")
				convey.So(len(cfg.DateLayouts), convey.ShouldEqual, 5)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("ROSTER_ADDR", ":8080")
			_ = os.Setenv("ROSTER_EXPIRING_THRESHOLD_DAYS", "45")
			_ = os.Setenv("ROSTER_MAX_EXTENSION_DAYS", "180")
			_ = os.Setenv("ROSTER_DATE_POLICY", "reject")
			_ = os.Setenv("ROSTER_DATE_LAYOUTS", "02/01/2006, 2006-01-02")
			_ = os.Setenv("ROSTER_MAX_UPLOAD_BYTES", "2048")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.ExpiringThresholdDays, convey.ShouldEqual, 45)
				convey.So(cfg.MaxExtensionDays, convey.ShouldEqual, 180)
				convey.So(cfg.DatePolicy, convey.ShouldEqual, "reject")
				convey.So(cfg.DateLayouts, convey.ShouldResemble, []string{"02/01/2006", "2006-01-02"})
				convey.So(cfg.MaxUploadBytes, convey.ShouldEqual, 2048)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
log_format: json
expiring_threshold_days: 15
min_extension_days: 7
max_extension_days: 90
date_layouts:
  - "02/01/2006"
export_date_layout: "02/01/2006"
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("ROSTER_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.ExpiringThresholdDays, convey.ShouldEqual, 15)
				convey.So(cfg.MinExtensionDays, convey.ShouldEqual, 7)
				convey.So(cfg.MaxExtensionDays, convey.ShouldEqual, 90)
				convey.So(cfg.DateLayouts, convey.ShouldResemble, []string{"02/01/2006"})
				convey.So(cfg.ExportDateLayout, convey.ShouldEqual, "02/01/2006")
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
expiring_threshold_days: 15
max_extension_days: 90
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("ROSTER_CONFIG", tmpFile)
			_ = os.Setenv("ROSTER_ADDR", ":8080")
			_ = os.Setenv("ROSTER_EXPIRING_THRESHOLD_DAYS", "20")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")             // Overridden by env
				convey.So(cfg.ExpiringThresholdDays, convey.ShouldEqual, 20) // Overridden by env
				convey.So(cfg.MaxExtensionDays, convey.ShouldEqual, 90)      // From file
				convey.So(cfg.MinExtensionDays, convey.ShouldEqual, 1)       // From defaults
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("ROSTER_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("ROSTER_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("ROSTER_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an unknown date policy", func() {
			_ = os.Setenv("ROSTER_DATE_POLICY", "strict")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with inverted extension bounds", func() {
			_ = os.Setenv("ROSTER_MIN_EXTENSION_DAYS", "30")
			_ = os.Setenv("ROSTER_MAX_EXTENSION_DAYS", "10")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("ROSTER_MAX_EXTENSION_DAYS", "not_a_number")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			_, err := config.Load(cctx)

			convey.Convey("Then loading stops", func() {
				convey.So(errors.Is(err, context.Canceled), convey.ShouldBeTrue)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"ROSTER_CONFIG",
		"ROSTER_ADDR",
		"ROSTER_EXPIRING_THRESHOLD_DAYS",
		"ROSTER_MIN_EXTENSION_DAYS",
		"ROSTER_MAX_EXTENSION_DAYS",
		"ROSTER_DATE_POLICY",
		"ROSTER_DATE_LAYOUTS",
		"ROSTER_MAX_UPLOAD_BYTES",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "roster-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
