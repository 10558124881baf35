package twitchgql

// Operation names of the persisted queries used by the scanner.
const (
	OpVideoComments    = "VideoCommentsByOffsetOrCursor"
	OpChannelVideoCore = "ChannelVideoCore"
	OpVideoMetadata    = "VideoMetadata"
)

// PersistedQuery identifies a server-side registered query. The hash is
// passed through unexamined.
type PersistedQuery struct {
	OperationName string
	SHA256Hash    string
	Version       int
}

// Queries is the set of persisted queries a Client issues.
type Queries struct {
	Comments         PersistedQuery
	ChannelVideoCore PersistedQuery
	VideoMetadata    PersistedQuery
}

// DefaultQueries returns the hashes registered by the Twitch web player.
func DefaultQueries() Queries {
	return Queries{
		Comments:         PersistedQuery{OperationName: OpVideoComments, Version: 1, SHA256Hash: "b70a3591ff0f4e0313d126c6a1502d79a1c02baebb288227c582044aa76adf6a"},
		ChannelVideoCore: PersistedQuery{OperationName: OpChannelVideoCore, Version: 1, SHA256Hash: "cf1ccf6f5b94c94d662efec5223dfb260c9f8bf053239a76125a58118769e8e2"},
		VideoMetadata:    PersistedQuery{OperationName: OpVideoMetadata, Version: 1, SHA256Hash: "c25707c1e5176320ceac6b447d052480887e23bc794ca1d02becd0bcc91844fe"},
	}
}

// withDefaults fills empty hashes from DefaultQueries.
func (q Queries) withDefaults() Queries {
	d := DefaultQueries()
	fill := func(p *PersistedQuery, def PersistedQuery) {
		if p.OperationName == "" {
			p.OperationName = def.OperationName
		}
		if p.SHA256Hash == "" {
			p.SHA256Hash = def.SHA256Hash
		}
		if p.Version == 0 {
			p.Version = def.Version
		}
	}
	fill(&q.Comments, d.Comments)
	fill(&q.ChannelVideoCore, d.ChannelVideoCore)
	fill(&q.VideoMetadata, d.VideoMetadata)
	return q
}

// Request is one element of the batch body POSTed to the endpoint.
type Request struct {
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
	Extensions    Extensions     `json:"extensions"`
}

// Extensions carries the persisted query reference.
type Extensions struct {
	PersistedQuery PersistedQueryRef `json:"persistedQuery"`
}

// PersistedQueryRef is the wire form of a PersistedQuery.
type PersistedQueryRef struct {
	Version    int    `json:"version"`
	SHA256Hash string `json:"sha256Hash"`
}

func (q PersistedQuery) request(vars map[string]any) Request {
	return Request{
		OperationName: q.OperationName,
		Variables:     vars,
		Extensions:    Extensions{PersistedQuery: PersistedQueryRef{Version: q.Version, SHA256Hash: q.SHA256Hash}},
	}
}

// CommentsByOffsetRequest starts the comment feed at an elapsed-time offset.
func (q Queries) CommentsByOffsetRequest(videoID string, offsetSeconds int) Request {
	return q.Comments.request(map[string]any{"videoID": videoID, "contentOffsetSeconds": offsetSeconds})
}

// CommentsByCursorRequest continues the comment feed after cursor.
func (q Queries) CommentsByCursorRequest(videoID, cursor string) Request {
	return q.Comments.request(map[string]any{"videoID": videoID, "cursor": cursor})
}

// ChannelVideoCoreRequest resolves the owner of a video.
func (q Queries) ChannelVideoCoreRequest(videoID string) Request {
	return q.ChannelVideoCore.request(map[string]any{"videoID": videoID})
}

// VideoMetadataRequest resolves creation time and length of a video.
func (q Queries) VideoMetadataRequest(channelLogin, videoID string) Request {
	return q.VideoMetadata.request(map[string]any{"channelLogin": channelLogin, "videoID": videoID})
}
