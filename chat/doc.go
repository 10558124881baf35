// Package chat holds the VOD chat domain: comment records normalized
// relative to a video's anchor timestamp, the time window a search is
// restricted to, and the keyword matcher applied to retrieved records.
//
// Records are produced by the twitchgql page fetcher, accumulated by the
// vod retriever and finally handed to the export package:
//
//	twitchgql (anchor, pages) -> vod (window) -> chat.Match -> export
//
// Offsets are elapsed seconds since the anchor (the VOD's creation time).
// They are computed once, when a raw feed entry is normalized, and never
// recomputed afterwards.
package chat
