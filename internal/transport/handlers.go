package transport

import (
	"github.com/ds124wfegd/genrelay/internal/service"
)

type RelayHandler struct {
	service service.RelayService
}

func NewRelayHandler(service service.RelayService) *RelayHandler {
	return &RelayHandler{service: service}
}
