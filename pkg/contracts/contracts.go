package contracts

import "github.com/julienschmidt/httprouter"

// Handler registers a set of routes on the application router.
type Handler interface {
	RegisterRoutes(router *httprouter.Router)
}

// Worker is a background component with an explicit lifecycle, started
// before the HTTP server and stopped during graceful shutdown. The admission
// controllers are registered as workers.
type Worker interface {
	Start() error
	Stop()
}
