package core

import (
	"sort"
	"strings"
	"time"
)

type listKey struct {
	entryType ListEntryType
	value     string
}

// Snapshot is one immutable, consistent view of both sender lists and the
// policy set. Evaluations share snapshots concurrently without locking; a
// reload swaps in a whole new snapshot, never mutates one in place.
type Snapshot struct {
	whitelist map[listKey]*ListEntry
	blacklist map[listKey]*ListEntry
	policies  []*Policy
	loadedAt  time.Time
}

// NewSnapshot indexes the given lists by (type, value) and orders the
// policies by ascending (priority, rule_id) so evaluation is
// deterministic.
func NewSnapshot(whitelist, blacklist []*ListEntry, policies []*Policy) *Snapshot {
	s := &Snapshot{
		whitelist: make(map[listKey]*ListEntry, len(whitelist)),
		blacklist: make(map[listKey]*ListEntry, len(blacklist)),
		policies:  make([]*Policy, len(policies)),
		loadedAt:  time.Now(),
	}
	for _, e := range whitelist {
		s.whitelist[normalizeKey(e.Type, e.Value)] = e
	}
	for _, e := range blacklist {
		s.blacklist[normalizeKey(e.Type, e.Value)] = e
	}
	copy(s.policies, policies)
	sort.SliceStable(s.policies, func(i, j int) bool {
		if s.policies[i].Priority != s.policies[j].Priority {
			return s.policies[i].Priority < s.policies[j].Priority
		}
		return s.policies[i].RuleID < s.policies[j].RuleID
	})
	return s
}

func normalizeKey(t ListEntryType, value string) listKey {
	return listKey{entryType: t, value: strings.ToLower(strings.TrimSpace(value))}
}

// LoadedAt reports when the snapshot was taken.
func (s *Snapshot) LoadedAt() time.Time {
	return s.loadedAt
}

// Policies returns the rules in evaluation order.
func (s *Snapshot) Policies() []*Policy {
	return s.policies
}

// Len reports the list entry and policy counts, for logging.
func (s *Snapshot) Len() (whitelist, blacklist, policies int) {
	return len(s.whitelist), len(s.blacklist), len(s.policies)
}

// Resolve checks a sender against both lists. The blacklist is consulted
// first across all three attributes and short-circuits, so deny takes
// precedence even when another attribute of the same sender is
// whitelisted. Lookups are O(1) per attribute.
func (s *Snapshot) Resolve(senderEmail, senderDomain, senderIP string) (ListVerdict, *ListEntry) {
	probes := []listKey{
		normalizeKey(EntryEmail, senderEmail),
		normalizeKey(EntryDomain, senderDomain),
		normalizeKey(EntryIP, senderIP),
	}
	for _, key := range probes {
		if key.value == "" {
			continue
		}
		if entry, ok := s.blacklist[key]; ok {
			return VerdictDeny, entry
		}
	}
	for _, key := range probes {
		if key.value == "" {
			continue
		}
		if entry, ok := s.whitelist[key]; ok {
			return VerdictAllow, entry
		}
	}
	return VerdictNone, nil
}
