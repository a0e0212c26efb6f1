package capnslog

import (
	"strings"

	"github.com/coreos/go-systemd/v22/journal"
)

// JournalFormatter writes log entries to the systemd journal instead of an
// io.Writer, tagging each with the journal priority matching its LogLevel
// and a SYSLOG_IDENTIFIER field set to the logging package's name.
type JournalFormatter struct{}

// NewJournalFormatter returns a Formatter that submits entries to the local
// systemd journal. Callers should check journal.Enabled() first; sending to
// a journal that isn't listening is silently dropped by go-systemd.
func NewJournalFormatter() *JournalFormatter {
	return &JournalFormatter{}
}

func (j *JournalFormatter) Format(pkg string, level LogLevel, _ int, entries ...LogEntry) {
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(e.LogString())
	}
	journal.Send(b.String(), journalPriority(level), map[string]string{
		"SYSLOG_IDENTIFIER": pkg,
	})
}

func journalPriority(l LogLevel) journal.Priority {
	switch l {
	case CRITICAL:
		return journal.PriCrit
	case ERROR:
		return journal.PriErr
	case WARNING:
		return journal.PriWarning
	case NOTICE:
		return journal.PriNotice
	case INFO:
		return journal.PriInfo
	default: // DEBUG, TRACE
		return journal.PriDebug
	}
}
