package db

import (
	"github.com/markdave123-py/policyrag/internal/core"
)

// ChunksTable is where ingested chunks live.
const ChunksTable = "rag_chunks"

var _ core.ChunkStore = (*DatabaseClient)(nil)
