package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// maxNotesRunes bounds free-text notes; some catalogs publish multi-kilobyte
// work descriptions.
const maxNotesRunes = 500

// MalformedRecordError reports a single native record that could not be
// mapped to a canonical record. It is never fatal to a batch: the caller
// skips the record and continues with its siblings.
type MalformedRecordError struct {
	Origin string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record from %s: %s", e.Origin, e.Reason)
}

// Normalize maps one native record into a CanonicalRecord using the source's
// field mapping. Records with no usable location are rejected with a
// *MalformedRecordError; a record with no native identifier gets a
// deterministic content hash ID so that re-fetching the same underlying row
// upserts in place instead of accumulating duplicates.
func Normalize(origin string, fields FieldMap, rec NativeRecord, observedAt time.Time) (CanonicalRecord, error) {
	location := strings.TrimSpace(stringField(rec, fields.Location))
	if location == "" {
		return CanonicalRecord{}, &MalformedRecordError{Origin: origin, Reason: "missing location"}
	}

	category := strings.TrimSpace(stringField(rec, fields.Category))
	eventDate := parseEventDate(rec, fields)

	status := strings.TrimSpace(stringField(rec, fields.Status))
	if status == "" {
		status = fields.StatusFallback
	}

	return CanonicalRecord{
		ID:               recordID(origin, stringField(rec, fields.ID), location, eventDate, category),
		Origin:           origin,
		LocationText:     location,
		Category:         category,
		ValueEstimate:    parseValueEstimate(stringField(rec, fields.Value)),
		ResponsibleParty: strings.TrimSpace(stringField(rec, fields.Party)),
		EventDate:        eventDate,
		LifecycleStatus:  status,
		AreaKey:          normalizeAreaKey(stringField(rec, fields.AreaKey)),
		Notes:            truncateRunes(strings.TrimSpace(stringField(rec, fields.Notes)), maxNotesRunes),
		ObservedAt:       observedAt,
	}, nil
}

// stringField extracts a native field as a string. Open-data APIs are loose
// about types: the same column may arrive as a JSON string or number
// depending on the portal, so both are accepted.
func stringField(rec NativeRecord, key string) string {
	if key == "" {
		return ""
	}
	switch v := rec[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// parseValueEstimate parses a declared valuation, returning 0 for unknown,
// unparseable, or negative values.
func parseValueEstimate(s string) float64 {
	s = strings.TrimSpace(strings.TrimPrefix(s, "$"))
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// parseEventDate extracts the permit date as an ISO calendar date, or ""
// when absent or unparseable. ArcGIS catalogs encode dates as epoch
// milliseconds; the rest use ISO timestamp strings.
func parseEventDate(rec NativeRecord, fields FieldMap) string {
	if fields.Date == "" {
		return ""
	}

	if fields.EpochMillisDates {
		ms, ok := rec[fields.Date].(float64)
		if !ok || ms <= 0 {
			return ""
		}
		return time.UnixMilli(int64(ms)).UTC().Format(time.DateOnly)
	}

	raw := strings.TrimSpace(stringField(rec, fields.Date))
	if raw == "" {
		return ""
	}
	for _, layout := range []string{
		"2006-01-02T15:04:05.000",
		"2006-01-02T15:04:05",
		time.RFC3339,
		time.DateOnly,
	} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(time.DateOnly)
		}
	}
	return ""
}

// normalizeAreaKey trims a postal code to its 5-digit base, dropping ZIP+4
// suffixes. Non-numeric or short values pass through unchanged; the store
// filters to fixed-length keys when selecting the enrichment working set.
func normalizeAreaKey(s string) string {
	s = strings.TrimSpace(s)
	if base, _, found := strings.Cut(s, "-"); found {
		s = base
	}
	if len(s) > 5 && isDigits(s[:5]) {
		s = s[:5]
	}
	return s
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// recordID produces a stable identifier for a record. Catalogs that publish a
// native permit number get "<origin>-<number>"; for the rest the ID is a
// deterministic SHA-256 content hash over the fields that identify the
// underlying permit, so re-fetches upsert in place rather than inserting
// fresh rows under random IDs.
func recordID(origin, nativeID, location, eventDate, category string) string {
	nativeID = strings.TrimSpace(nativeID)
	if nativeID != "" {
		return origin + "-" + nativeID
	}
	input := fmt.Sprintf("%s|%s|%s|%s", origin, location, eventDate, category)
	hash := sha256.Sum256([]byte(input))
	return origin + "-" + hex.EncodeToString(hash[:8])
}
