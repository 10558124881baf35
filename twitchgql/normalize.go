package twitchgql

import (
	"strings"
	"time"

	"github.com/WorldObservationLog/NeuroTools/chat"
)

// RawEdge is one entry of the comment feed as it arrives on the wire.
type RawEdge struct {
	Cursor string  `json:"cursor"`
	Node   RawNode `json:"node"`
}

// RawNode is the comment payload of a RawEdge.
type RawNode struct {
	ID                   string        `json:"id"`
	Commenter            *RawCommenter `json:"commenter"`
	Message              *RawMessage   `json:"message"`
	CreatedAt            string        `json:"createdAt"`
	ContentOffsetSeconds float64       `json:"contentOffsetSeconds"`
}

// RawCommenter is null for deleted or banned accounts.
type RawCommenter struct {
	ID          string `json:"id"`
	Login       string `json:"login"`
	DisplayName string `json:"displayName"`
}

// RawMessage holds the message body split into fragments (text, emotes, mentions).
type RawMessage struct {
	Fragments []struct {
		Text string `json:"text"`
	} `json:"fragments"`
}

// OffsetSeconds is the elapsed time from anchor to at, in seconds.
func OffsetSeconds(anchor, at time.Time) float64 {
	return at.Sub(anchor).Seconds()
}

// JoinFragments concatenates the fragment texts of a message.
func JoinFragments(m *RawMessage) string {
	if m == nil {
		return ""
	}
	var b strings.Builder
	for _, f := range m.Fragments {
		b.WriteString(f.Text)
	}
	return b.String()
}

// NormalizeEdge converts e into a record. ok is false when the commenter is
// null; such entries are dropped, not treated as errors.
func NormalizeEdge(e RawEdge, anchor time.Time) (rec chat.CommentRecord, ok bool, err error) {
	if e.Node.Commenter == nil {
		return chat.CommentRecord{}, false, nil
	}
	if e.Node.Message == nil {
		return chat.CommentRecord{}, false, malformed(OpVideoComments, "comment %s has no message", e.Node.ID)
	}
	created, err := time.Parse(time.RFC3339Nano, e.Node.CreatedAt)
	if err != nil {
		return chat.CommentRecord{}, false, malformed(OpVideoComments, "comment %s createdAt %q: %v", e.Node.ID, e.Node.CreatedAt, err)
	}
	return chat.CommentRecord{
		ID:                e.Node.ID,
		Cursor:            e.Cursor,
		AuthorLogin:       e.Node.Commenter.Login,
		AuthorDisplayName: e.Node.Commenter.DisplayName,
		AuthorID:          e.Node.Commenter.ID,
		Text:              JoinFragments(e.Node.Message),
		OffsetSeconds:     OffsetSeconds(anchor, created),
	}, true, nil
}

// NormalizeEdges converts a page of edges, preserving order. skipped counts
// the null-commenter entries that were dropped.
func NormalizeEdges(edges []RawEdge, anchor time.Time) (records []chat.CommentRecord, skipped int, err error) {
	records = make([]chat.CommentRecord, 0, len(edges))
	for _, e := range edges {
		rec, ok, err := NormalizeEdge(e, anchor)
		if err != nil {
			return nil, 0, err
		}
		if !ok {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	return records, skipped, nil
}
