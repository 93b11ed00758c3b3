package server

import (
	"context"
	"log"

	"github.com/ededdyj/Baby-Data/internal/config"
	"github.com/ededdyj/Baby-Data/internal/store"
	"github.com/gofiber/fiber/v2"
)

// Server owns the Fiber app serving the UI page and the JSON API the page
// talks to.
type Server struct {
	cfg    *config.Config
	store  *store.Store
	logger *log.Logger
	app    *fiber.App
}

// New builds the app and registers all routes. indexHTML is the embedded
// single-page UI served at /.
func New(cfg *config.Config, st *store.Store, logger *log.Logger, indexHTML []byte) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "babydata",
		DisableStartupMessage: true,
	})

	s := &Server{
		cfg:    cfg,
		store:  st,
		logger: logger,
		app:    app,
	}
	s.setupRoutes(indexHTML)
	return s
}

func (s *Server) setupRoutes(indexHTML []byte) {
	s.app.Get("/", func(c *fiber.Ctx) error {
		c.Type("html")
		return c.Send(indexHTML)
	})

	api := s.app.Group("/api")

	api.Get("/babies", s.listBabies)
	api.Post("/babies", s.addBaby)
	api.Put("/babies/:name/birthdate", s.setBirthDate)

	api.Post("/events", s.createEvent)
	api.Get("/events", s.listEvents)
	api.Delete("/events/:id", s.deleteEvent)
	api.Delete("/events", s.clearBabyEvents)

	api.Get("/aggregate", s.aggregate)
	api.Get("/summary", s.summary)

	api.Post("/weights", s.saveWeight)
	api.Get("/weights", s.listWeights)
}

// App exposes the underlying Fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen blocks serving HTTP on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown stops the server, honouring the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
