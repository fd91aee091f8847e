package git

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/xvierd/gitlanes/internal/domain"
)

const (
	fieldSep  = "\x1f"
	recordSep = "\x1e"

	// LogFormat asks git log for hash, parents, author, date and subject.
	LogFormat = "%H%x1f%P%x1f%an%x1f%ad%x1f%s%x1e"
	// LogDate makes %ad print "<unix seconds> <zone>".
	LogDate = "raw"
)

// ParseLog turns the output of git log with LogFormat into commit records,
// in the order git printed them. A record without a hash fails the whole
// batch. An unreadable date becomes timestamp 0.
func ParseLog(output string, logger zerolog.Logger) ([]domain.CommitRecord, error) {
	var records []domain.CommitRecord

	for i, raw := range strings.Split(output, recordSep) {
		raw = strings.Trim(raw, "\r\n")
		if raw == "" {
			continue
		}

		fields := strings.SplitN(raw, fieldSep, 5)
		if len(fields) != 5 {
			return nil, fmt.Errorf("%w: record %d has %d fields", domain.ErrMalformedRecord, i, len(fields))
		}

		rec := domain.CommitRecord{
			Hash:    strings.TrimSpace(fields[0]),
			Parents: strings.Fields(fields[1]),
			Author:  fields[2],
			Subject: fields[4],
		}
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}

		ts, err := parseRawDate(fields[3])
		if err != nil {
			logger.Warn().Str("hash", rec.Hash).Str("date", fields[3]).Msg("unreadable commit date, using 0")
		}
		rec.Timestamp = ts

		records = append(records, rec)
	}

	return records, nil
}

func parseRawDate(s string) (int64, error) {
	parts := strings.Fields(s)
	if len(parts) == 0 {
		return 0, fmt.Errorf("empty date")
	}
	return strconv.ParseInt(parts[0], 10, 64)
}

// ParseStatus splits git status --porcelain=v1 output into staged, unstaged
// and untracked entries, each sorted by path. Ignored entries are dropped.
func ParseStatus(output string) *domain.StatusReport {
	report := &domain.StatusReport{}

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if len(line) < 4 {
			continue
		}

		x, y := line[0], line[1]
		code := line[:2]
		entry := domain.FileEntry{Code: code}
		entry.Path, entry.OrigPath = splitRename(line[3:])

		switch {
		case code == "??":
			report.Untracked = append(report.Untracked, entry)
			continue
		case code == "!!":
			continue
		case isConflict(x, y):
			report.Unstaged = append(report.Unstaged, entry)
			continue
		}

		if x != ' ' {
			report.Staged = append(report.Staged, entry)
		}
		if y != ' ' {
			report.Unstaged = append(report.Unstaged, entry)
		}
	}

	for _, list := range [][]domain.FileEntry{report.Staged, report.Unstaged, report.Untracked} {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Path < list[j].Path })
	}

	return report
}

func isConflict(x, y byte) bool {
	return x == 'U' || y == 'U' || (x == 'A' && y == 'A') || (x == 'D' && y == 'D')
}

func splitRename(s string) (path, orig string) {
	if from, to, ok := strings.Cut(s, " -> "); ok {
		return unquote(to), unquote(from)
	}
	return unquote(s), ""
}

// unquote reverses the C-style quoting git applies to unusual paths.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		if u, err := strconv.Unquote(s); err == nil {
			return u
		}
	}
	return s
}

var statusPrefix = regexp.MustCompile(`^[ MADRC?]{1,2}\s+(.*)`)

// ExtractFilePath strips the status code from a status list line and keeps
// the destination of a rename. Text without a code is returned trimmed.
func ExtractFilePath(text string) string {
	m := statusPrefix.FindStringSubmatch(text)
	if m == nil {
		return strings.TrimSpace(text)
	}
	path := strings.TrimSpace(m[1])
	if i := strings.LastIndex(path, " -> "); i >= 0 {
		return path[i+len(" -> "):]
	}
	return path
}
