package document

import "stockkeeper/internal/domain/sync"

type listInput struct {
	Collection string `path:"collection" doc:"Collection name" example:"products"`
	Limit      int    `query:"limit" minimum:"0" maximum:"500" doc:"Page size, 0 means the default of 50"`
	Offset     int    `query:"offset" minimum:"0" doc:"Number of documents to skip"`
}

type listOutput struct {
	Body sync.DocumentsResponse
}

type findInput struct {
	Collection string `path:"collection" doc:"Collection name" example:"products"`
	Key        string `path:"key" doc:"Deduplication key of the document" example:"SKU-1"`
}

type findOutput struct {
	Body sync.DocumentResponse
}
