// Package proto defines the message types exchanged over the JSON-over-TCP
// RPC layer (see pkg/rpc) between the directory, frontier, barrels, crawlers
// and gateway. Field tags are the wire format; changing one is a protocol
// change for every process.
package proto

// ---------- Directory ----------

type RegisterRequest struct {
	Name     string `json:"name"`
	Endpoint string `json:"endpoint"`
}

type NameRequest struct {
	Name string `json:"name"`
}

type ResolveResponse struct {
	Endpoint string `json:"endpoint"`
	Found    bool   `json:"found"`
}

type ListRequest struct {
	Prefix string `json:"prefix"`
}

type ListResponse struct {
	Names []string `json:"names"`
}

// ---------- Frontier ----------

type SubmitRequest struct {
	URL string `json:"url"`
}

type SubmitManyRequest struct {
	URLs []string `json:"urls"`
}

type SubmitResponse struct {
	Admitted int `json:"admitted"`
}

type TakeNextResponse struct {
	URL string `json:"url,omitempty"`
	OK  bool   `json:"ok"`
}

type CountResponse struct {
	Count int `json:"count"`
}

type HasWorkResponse struct {
	HasWork bool `json:"has_work"`
}

// ---------- Barrel ----------

// IndexPageRequest is one document write as multicast by a crawler.
type IndexPageRequest struct {
	URL      string   `json:"url"`
	Title    string   `json:"title"`
	Citation string   `json:"citation"`
	Tokens   []string `json:"tokens"`
	Links    []string `json:"links"`
}

type IndexPageResponse struct {
	Ack bool `json:"ack"`
}

type SearchRequest struct {
	Terms []string `json:"terms"`
}

// SearchResult is a single ranked hit. IncomingLinks is computed at query
// time and never stored.
type SearchResult struct {
	URL           string `json:"url"`
	Title         string `json:"title"`
	Citation      string `json:"citation"`
	IncomingLinks int    `json:"incoming_links"`
}

type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

type LinksRequest struct {
	URL string `json:"url"`
}

type LinksResponse struct {
	URLs []string `json:"urls"`
}

type IDResponse struct {
	ID string `json:"id"`
}

type SizeResponse struct {
	Size int `json:"size"`
}

type LatencyResponse struct {
	AvgLatency float64 `json:"avg_latency"`
}

type PingResponse struct {
	OK bool `json:"ok"`
}

// ShardStats describes one live barrel. AvgSearchLatency is in tenths of a
// second.
type ShardStats struct {
	ID               string  `json:"id"`
	DocumentCount    int     `json:"document_count"`
	AvgSearchLatency float64 `json:"avg_search_latency"`
}

// ---------- Gateway ----------

type EnqueueRequest struct {
	URL string `json:"url"`
}

type QueryRequest struct {
	Query    string `json:"query"`
	Page     int    `json:"page,omitempty"`
	PageSize int    `json:"page_size,omitempty"`
}

type QueryResponse struct {
	Results []SearchResult `json:"results"`
	Page    int            `json:"page"`
	HasMore bool           `json:"has_more"`
}

type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// SystemStats is what Gateway.Statistics returns and what the statistics push
// publishes.
type SystemStats struct {
	TopQueries []QueryCount `json:"top_queries"`
	Shards     []ShardStats `json:"shards"`
}
