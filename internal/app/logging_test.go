package app

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/RyanBlaney/hls2mp4/configs"
	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevels(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*configs.Config)
		console logging.Level
		file    logging.Level
	}{
		{"defaults", func(c *configs.Config) {}, logging.InfoLevel, logging.InfoLevel},
		{"debug level", func(c *configs.Config) { c.LogLevel = "debug" }, logging.DebugLevel, logging.DebugLevel},
		{"verbose wins", func(c *configs.Config) {
			c.Verbose = true
			c.LogLevel = "error"
		}, logging.DebugLevel, logging.DebugLevel},
		{"warn level", func(c *configs.Config) { c.LogLevel = "warn" }, logging.WarnLevel, logging.WarnLevel},
		{"json keeps stdout clean", func(c *configs.Config) {
			c.Verbose = true
			c.OutputFormat = "json"
		}, logging.WarnLevel, logging.DebugLevel},
		{"yaml keeps errors only", func(c *configs.Config) {
			c.LogLevel = "error"
			c.OutputFormat = "yaml"
		}, logging.ErrorLevel, logging.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := configs.GetDefaultConfig()
			tt.mutate(config)
			assert.Equal(t, tt.console, consoleLevel(config))
			assert.Equal(t, tt.file, fileLevel(config))
		})
	}
}

func TestWriterLogger(t *testing.T) {
	var buf bytes.Buffer
	log := newWriterLogger(&buf, logging.InfoLevel).WithFields(logging.Fields{"job": "show"})

	log.Debug("hidden")
	log.Info("visible", logging.Fields{"segments": 2})
	log.Error(errors.New("boom"), "failed")

	text := buf.String()
	assert.NotContains(t, text, "hidden")
	assert.Contains(t, text, "[INFO] visible map[job:show segments:2]")
	assert.Contains(t, text, "[ERROR] failed: boom map[job:show]")

	buf.Reset()
	log.SetLevel(logging.DebugLevel)
	log.Debug("now shown")
	assert.Contains(t, buf.String(), "[DEBUG] now shown")
}

func TestLogFile(t *testing.T) {
	newFileApp := func(t *testing.T, verbose bool) (*App, string) {
		path := filepath.Join(t.TempDir(), "hls2mp4.log")
		config := configs.GetDefaultConfig()
		config.Output.Dir = t.TempDir()
		config.LogFile = path
		config.Verbose = verbose
		config.OutputFormat = "json"

		app, err := NewApp(&Context{Config: config})
		require.NoError(t, err)
		t.Cleanup(func() { app.Close() })
		return app, path
	}

	t.Run("verbose writes debug lines", func(t *testing.T) {
		app, path := newFileApp(t, true)
		app.logger.Debug("debug line")
		app.logger.Info("info line")
		require.NoError(t, app.Close())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		text := string(data)
		assert.Contains(t, text, "[DEBUG] debug line")
		assert.Contains(t, text, "[INFO] info line")
		assert.Contains(t, text, "run_id:"+app.RunID())
	})

	t.Run("info level drops debug lines", func(t *testing.T) {
		app, path := newFileApp(t, false)
		app.logger.Debug("debug line")
		app.logger.Info("info line")
		require.NoError(t, app.Close())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "debug line")
		assert.Contains(t, string(data), "info line")
	})

	t.Run("reopen follows rotation", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rotate.log")
		file, err := openLogFile(path)
		require.NoError(t, err)
		defer file.Close()

		_, err = file.Write([]byte("before\n"))
		require.NoError(t, err)
		require.NoError(t, os.Rename(path, path+".1"))
		require.NoError(t, file.Reopen())
		_, err = file.Write([]byte("after\n"))
		require.NoError(t, err)

		rotated, err := os.ReadFile(path + ".1")
		require.NoError(t, err)
		current, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "before\n", string(rotated))
		assert.Equal(t, "after\n", string(current))
	})

	t.Run("unwritable path", func(t *testing.T) {
		config := configs.GetDefaultConfig()
		config.LogFile = filepath.Join(t.TempDir(), "missing", "dir", "x.log")
		_, err := NewApp(&Context{Config: config})
		assert.Error(t, err)
	})
}
