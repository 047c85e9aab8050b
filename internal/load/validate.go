package load

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/COLLLINS-001/WallMart-ETL-pipeline/internal/etlerr"
	"github.com/COLLLINS-001/WallMart-ETL-pipeline/internal/logger"

	"github.com/zeebo/xxh3"
)

// Validate reports whether a file exists at path and logs the outcome on the
// package logger. It does not look at the content.
func Validate(path string) bool {
	return ValidateWith(logger.Logger, path)
}

// ValidateWith is Validate logging through l, so the outcome carries l's
// attributes (run id, job). A nil l uses the package logger.
func ValidateWith(l *slog.Logger, path string) bool {
	if l == nil {
		l = logger.Logger
	}
	_, err := os.Stat(path)
	if err == nil {
		l.Info("File Exists", "path", path)
		return true
	}
	l.Warn("File DOES NOT Exist", "path", path, "error", err)
	return false
}

// Report describes an output file on disk.
type Report struct {
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
	Size   int64  `json:"size"`
	// Rows counts data lines, excluding the header.
	Rows   int      `json:"rows"`
	Header []string `json:"header,omitempty"`
	// Fingerprint is the hex xxh3-64 of the file content. Identical outputs
	// have identical fingerprints.
	Fingerprint string `json:"fingerprint,omitempty"`
}

// Inspect stats, hashes and counts the lines of the file at path. A missing
// file is not an error: the report has Exists false.
func Inspect(path string) (Report, error) {
	rep := Report{Path: path}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return rep, nil
		}
		return rep, etlerr.IO("load: inspect "+path, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return rep, etlerr.IO("load: inspect "+path, err)
	}
	if fi.IsDir() {
		return rep, etlerr.IO("load: inspect "+path, fmt.Errorf("is a directory"))
	}
	rep.Exists = true
	rep.Size = fi.Size()

	h := xxh3.New()
	br := bufio.NewReader(io.TeeReader(f, h))
	lines := 0
	for {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			if lines == 0 {
				rep.Header = strings.Split(string(bytes.TrimRight(line, "\r\n")), ",")
			}
			lines++
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return rep, etlerr.IO("load: inspect "+path, err)
		}
	}
	if lines > 0 {
		rep.Rows = lines - 1
	}
	rep.Fingerprint = fmt.Sprintf("%016x", h.Sum64())
	return rep, nil
}
