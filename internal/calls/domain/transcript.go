package domain

import (
	"sort"
	"strconv"
	"strings"
)

// MergeIncremental merges a mid-call transcript fragment into the existing
// transcript. The platform re-sends overlapping partial transcripts, so each
// candidate is keyed by (role, normalized text, time offset) and skipped when
// already present. The result is re-sorted by time offset.
func MergeIncremental(existing, incoming []TranscriptEntry) []TranscriptEntry {
	seen := make(map[string]bool, len(existing))
	for _, entry := range existing {
		seen[dedupeKey(entry)] = true
	}

	merged := append([]TranscriptEntry(nil), existing...)
	for _, entry := range filterEntries(incoming) {
		key := dedupeKey(entry)
		if seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, entry)
	}

	sortByOffset(merged)
	return merged
}

// ReplaceFinal discards any previously accumulated transcript and rebuilds it
// from the platform's authoritative end-of-call message list. The final
// payload wins outright; no deduplication against prior state.
func ReplaceFinal(incoming []TranscriptEntry) []TranscriptEntry {
	final := filterEntries(incoming)
	sortByOffset(final)
	return final
}

// filterEntries drops fragments with empty text or an unrecognized role.
func filterEntries(entries []TranscriptEntry) []TranscriptEntry {
	kept := make([]TranscriptEntry, 0, len(entries))
	for _, entry := range entries {
		if strings.TrimSpace(entry.Text) == "" {
			continue
		}
		if !RecognizedRole(entry.Role) {
			continue
		}
		kept = append(kept, entry)
	}
	return kept
}

// sortByOffset orders entries by time offset. The sort is stable so entries
// without an offset (zero) keep their arrival order.
func sortByOffset(entries []TranscriptEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TimeOffset < entries[j].TimeOffset
	})
}

func dedupeKey(entry TranscriptEntry) string {
	var b strings.Builder
	b.WriteString(string(entry.Role))
	b.WriteByte('|')
	b.WriteString(normalizeText(entry.Text))
	b.WriteByte('|')
	b.WriteString(offsetKey(entry.TimeOffset))
	return b.String()
}

func normalizeText(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

func offsetKey(offset float64) string {
	// Offsets are compared exactly; the platform re-sends identical values
	// for re-transmitted fragments.
	return strconv.FormatFloat(offset, 'f', -1, 64)
}
