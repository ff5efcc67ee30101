package camcast

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// InitLogger sets the default slog logger from the logging config
func InitLogger(config *Config) {
	slog.SetDefault(slog.New(newLogHandler(config.GetSlogLevel())))
}

func newLogHandler(level slog.Level) slog.Handler {
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := getProjectRoot(filename)

	// Source paths are logged relative to the module root
	replaceAttr := func(groups []string, a slog.Attr) slog.Attr {
		if a.Key != slog.SourceKey {
			return a
		}
		source, ok := a.Value.Any().(*slog.Source)
		if !ok {
			return a
		}
		if projectRoot != "" && strings.HasPrefix(source.File, projectRoot+string(os.PathSeparator)) {
			source.File = source.File[len(projectRoot)+1:]
		}
		return slog.Any(a.Key, source)
	}

	return tint.NewHandler(os.Stdout, &tint.Options{
		Level:       level,
		AddSource:   true,
		NoColor:     false,
		TimeFormat:  time.RFC3339,
		ReplaceAttr: replaceAttr,
	})
}

// getProjectRoot walks up from path to the directory holding go.mod.
// Without one (e.g. a stripped binary) it falls back to two levels above path.
func getProjectRoot(path string) string {
	dir := filepath.Dir(path)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return filepath.Dir(filepath.Dir(filepath.Dir(path)))
}
