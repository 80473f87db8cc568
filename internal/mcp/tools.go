package mcp

// SearchInput defines the input schema for the ragmcp_search tool.
type SearchInput struct {
	Query       string   `json:"query" jsonschema:"the search query text"`
	K           int      `json:"k,omitempty" jsonschema:"number of results to return, default from config"`
	Overfetch   int      `json:"overfetch,omitempty" jsonschema:"advanced: retrieve up to this many raw fused results with score filtering disabled"`
	Namespace   string   `json:"namespace,omitempty" jsonschema:"filter by namespace (top-level directory name); 'all' searches every namespace"`
	AgentFilter string   `json:"agent_filter,omitempty" jsonschema:"filter by entity name (second-level directory)"`
	MinScore    *float64 `json:"min_score,omitempty" jsonschema:"minimum relevance score in [0,1], default from config"`
}

// GetInput defines the input schema for the ragmcp_get tool.
type GetInput struct {
	DocPath       string   `json:"doc_path" jsonschema:"document path relative to the indexed root, as shown in search results"`
	ReturnFullDoc bool     `json:"return_full_doc,omitempty" jsonschema:"return the full document content instead of just metadata"`
	Sections      []string `json:"sections,omitempty" jsonschema:"return only sections whose header matches one of these"`
}

// ListInput defines the input schema for the ragmcp_list tool.
type ListInput struct {
	ListType  string `json:"list_type" jsonschema:"one of: entities, system_docs, namespaces, doc_types"`
	AgentName string `json:"agent_name,omitempty" jsonschema:"filter system_docs by entity name"`
}

// RelatedInput defines the input schema for the ragmcp_related tool.
type RelatedInput struct {
	Entity        string   `json:"entity" jsonschema:"entity identifier to start the traversal from, e.g. entity:router"`
	RelationTypes []string `json:"relation_types,omitempty" jsonschema:"relation types to traverse; empty traverses all"`
	MaxDepth      int      `json:"max_depth,omitempty" jsonschema:"maximum traversal depth, 1 to 3, default 1"`
}

// ExplainInput defines the input schema for the ragmcp_explain tool.
type ExplainInput struct {
	ExplainWhat string `json:"explain_what" jsonschema:"one of: index_stats, doc_info, freshness"`
	DocPath     string `json:"doc_path,omitempty" jsonschema:"document path, required for doc_info"`
}

// CreateDocInput defines the input schema for the ragmcp_create_doc tool.
type CreateDocInput struct {
	DocPath string `json:"doc_path" jsonschema:"relative path from the indexed root, e.g. Guides/api/endpoints.md"`
	Content string `json:"content" jsonschema:"full document content to write"`
	DocType string `json:"doc_type,omitempty" jsonschema:"document type override; auto-detected if omitted"`
}

// UpdateDocInput defines the input schema for the ragmcp_update_doc tool.
type UpdateDocInput struct {
	DocPath string `json:"doc_path" jsonschema:"relative path of the document to update"`
	Content string `json:"content" jsonschema:"new content, full replacement"`
}
