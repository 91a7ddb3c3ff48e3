package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/matchodds/internal/config"
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
				convey.So(cfg.Simulations, convey.ShouldEqual, 10_000)
				convey.So(cfg.MaxGoals, convey.ShouldEqual, 7)
				convey.So(cfg.DBPath, convey.ShouldEqual, "data/matchodds.db")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("MATCHODDS_ADDR", ":8080")
			_ = os.Setenv("MATCHODDS_SIMULATIONS", "50000")
			_ = os.Setenv("MATCHODDS_SIMULATION_SEED", "42")
			_ = os.Setenv("MATCHODDS_MAX_GOALS", "10")
			_ = os.Setenv("MATCHODDS_RIDGE", "0.001")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.Simulations, convey.ShouldEqual, 50000)
				convey.So(cfg.SimulationSeed, convey.ShouldEqual, uint64(42))
				convey.So(cfg.MaxGoals, convey.ShouldEqual, 10)
				convey.So(cfg.Ridge, convey.ShouldAlmostEqual, 0.001)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
simulations: 200000
simulation_workers: 4
max_goals: 8
db_path: "/tmp/matchodds-test.db"
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("MATCHODDS_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.Simulations, convey.ShouldEqual, 200000)
				convey.So(cfg.SimulationWorkers, convey.ShouldEqual, 4)
				convey.So(cfg.MaxGoals, convey.ShouldEqual, 8)
				convey.So(cfg.DBPath, convey.ShouldEqual, "/tmp/matchodds-test.db")
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
simulations: 200000
max_goals: 8
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("MATCHODDS_CONFIG", tmpFile)
			_ = os.Setenv("MATCHODDS_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")        // env
				convey.So(cfg.Simulations, convey.ShouldEqual, 200000)  // file
				convey.So(cfg.MaxGoals, convey.ShouldEqual, 8)          // file
				convey.So(cfg.MatchesPerSeason, convey.ShouldEqual, 38) // default
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("MATCHODDS_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("MATCHODDS_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("MATCHODDS_SIMULATIONS", "lots")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestConfigValidation(t *testing.T) {
	convey.Convey("Given values that break the engine", t, func() {
		ctx := context.Background()

		cases := []struct {
			env, value, message string
		}{
			{"MATCHODDS_ADDR", "", "addr must not be empty"},
			{"MATCHODDS_SIMULATIONS", "0", "simulations must be positive"},
			{"MATCHODDS_MAX_GOALS", "0", "max_goals must be at least 1"},
			{"MATCHODDS_RIDGE", "-1", "ridge must not be negative"},
			{"MATCHODDS_TRAINING_QUEUE_SIZE", "0", "training_queue_size must be positive"},
		}

		for _, tc := range cases {
			convey.Convey("When "+tc.env+" is "+tc.value, func() {
				_ = os.Setenv(tc.env, tc.value)
				defer clearConfigEnvVars()

				cfg, err := config.Load(ctx)

				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, tc.message)
			})
		}
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"MATCHODDS_CONFIG",
		"MATCHODDS_ADDR",
		"MATCHODDS_SIMULATIONS",
		"MATCHODDS_SIMULATION_SEED",
		"MATCHODDS_MAX_GOALS",
		"MATCHODDS_RIDGE",
		"MATCHODDS_TRAINING_QUEUE_SIZE",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "matchodds-config-*.yaml")
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
