package core

// Stage is a state of the ingestion driver.
type Stage string

const (
	StageIdle            Stage = "idle"
	StageConnectingStore Stage = "connecting-store"
	StageSchemaReady     Stage = "schema-ready"
	StageListing         Stage = "listing"
	StageExtracting      Stage = "extracting"
	StageSplitting       Stage = "splitting"
	StageChunking        Stage = "chunking"
	StageEmbedding       Stage = "embedding"
	StagePersisting      Stage = "persisting"
	StageDone            Stage = "done"
)
