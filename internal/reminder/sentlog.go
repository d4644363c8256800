package reminder

import (
	"strconv"
	"strings"
	"time"
)

// DedupeKey identifies one reminder delivered to one subscription.
func DedupeKey(eventID, endpoint string, reminderAt time.Time) string {
	return eventID + ":" + endpoint + ":" + strconv.FormatInt(reminderAt.UnixMilli(), 10)
}

// EventKeyPrefix is the prefix shared by every dedupe key of an event.
func EventKeyPrefix(eventID string) string {
	return eventID + ":"
}

// PurgeEvent returns keys without the entries that belong to eventID.
func PurgeEvent(keys []string, eventID string) []string {
	prefix := EventKeyPrefix(eventID)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if !strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out
}

// SentLog is an insertion-ordered set of dedupe keys.
type SentLog struct {
	keys  []string
	index map[string]struct{}
}

// NewSentLog builds a log from stored keys, dropping repeats.
func NewSentLog(keys []string) *SentLog {
	l := &SentLog{
		keys:  make([]string, 0, len(keys)),
		index: make(map[string]struct{}, len(keys)),
	}
	for _, k := range keys {
		l.Add(k)
	}
	return l
}

// Has reports whether key has been recorded.
func (l *SentLog) Has(key string) bool {
	_, ok := l.index[key]
	return ok
}

// Add records key and reports whether it was new.
func (l *SentLog) Add(key string) bool {
	if l.Has(key) {
		return false
	}
	l.index[key] = struct{}{}
	l.keys = append(l.keys, key)
	return true
}

// Len returns the number of recorded keys.
func (l *SentLog) Len() int {
	return len(l.keys)
}

// Newest returns up to n of the most recently added keys, oldest first.
func (l *SentLog) Newest(n int) []string {
	start := 0
	if n >= 0 && len(l.keys) > n {
		start = len(l.keys) - n
	}
	out := make([]string, len(l.keys)-start)
	copy(out, l.keys[start:])
	return out
}
