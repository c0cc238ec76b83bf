package sync

import "stockkeeper/internal/domain/sync"

type pushInput struct {
	Collection string `path:"collection" doc:"Collection name" example:"products"`
	Body       sync.PushRequest
}

type pushOutput struct {
	Body sync.PushResponse
}

type statusInput struct{}

type statusOutput struct {
	Body sync.StatusResponse
}
