package server

import (
	"errors"
	"net/url"
	"strconv"
	"time"

	"github.com/ededdyj/Baby-Data/internal/model"
	"github.com/ededdyj/Baby-Data/internal/store"
	"github.com/gofiber/fiber/v2"
)

// CreateEventInput is the body for POST /api/events. An empty occurred_at
// logs the event "now".
type CreateEventInput struct {
	BabyName   string `json:"baby_name"`
	Kind       string `json:"kind"`
	OccurredAt string `json:"occurred_at"`
	Note       string `json:"note"`
}

// AddBabyInput is the body for POST /api/babies.
type AddBabyInput struct {
	Name      string `json:"name"`
	BirthDate string `json:"birth_date"`
}

// SetBirthDateInput is the body for PUT /api/babies/:name/birthdate.
type SetBirthDateInput struct {
	BirthDate string `json:"birth_date"`
}

// SaveWeightInput is the body for POST /api/weights. Ounces are folded
// into the stored pounds value.
type SaveWeightInput struct {
	BabyName string  `json:"baby_name"`
	Date     string  `json:"date"`
	Pounds   float64 `json:"pounds"`
	Ounces   float64 `json:"ounces"`
}

func (s *Server) createEvent(c *fiber.Ctx) error {
	var input CreateEventInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed JSON body"})
	}

	kind, err := model.ParseKind(input.Kind)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var occurredAt time.Time
	if input.OccurredAt != "" {
		occurredAt, err = parseTimestamp(input.OccurredAt, s.cfg.LocalTimezone)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
	}

	event, err := s.store.Insert(input.BabyName, kind, occurredAt, input.Note)
	if err != nil {
		if errors.Is(err, store.ErrEmptyBabyName) || errors.Is(err, store.ErrInvalidKind) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		s.logger.Printf("create event: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not save event"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"event": event})
}

func (s *Server) listEvents(c *fiber.Ctx) error {
	filter, err := s.filterFromQuery(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	events, err := s.store.List(filter)
	if err != nil {
		s.logger.Printf("list events: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load events"})
	}
	return c.JSON(fiber.Map{"events": events})
}

func (s *Server) deleteEvent(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid event id"})
	}

	if err := s.store.Delete(uint(id)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "event not found"})
		}
		s.logger.Printf("delete event %d: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not delete event"})
	}
	return c.JSON(fiber.Map{"deleted": id})
}

func (s *Server) clearBabyEvents(c *fiber.Ctx) error {
	baby := c.Query("baby")
	if baby == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "baby query parameter is required"})
	}

	removed, err := s.store.DeleteEventsForBaby(baby)
	if err != nil {
		if errors.Is(err, store.ErrEmptyBabyName) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		s.logger.Printf("clear events for %q: %v", baby, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not clear events"})
	}
	return c.JSON(fiber.Map{"deleted": removed})
}

func (s *Server) listBabies(c *fiber.Ctx) error {
	babies, err := s.store.Babies()
	if err != nil {
		s.logger.Printf("list babies: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load babies"})
	}
	names, err := s.store.BabyNames()
	if err != nil {
		s.logger.Printf("baby names: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load babies"})
	}
	return c.JSON(fiber.Map{"babies": babies, "names": names})
}

func (s *Server) addBaby(c *fiber.Ctx) error {
	var input AddBabyInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed JSON body"})
	}

	baby, err := s.store.AddBaby(input.Name)
	if err != nil {
		if errors.Is(err, store.ErrEmptyBabyName) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		s.logger.Printf("add baby: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not add baby"})
	}

	if input.BirthDate != "" {
		birthDate, err := parseTimestamp(input.BirthDate, s.cfg.LocalTimezone)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		if err := s.store.SetBirthDate(baby.Name, birthDate); err != nil {
			s.logger.Printf("set birth date: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not save birth date"})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"baby": baby})
}

func (s *Server) setBirthDate(c *fiber.Ctx) error {
	name, err := urlParamName(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid baby name"})
	}

	var input SetBirthDateInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed JSON body"})
	}

	birthDate, err := parseTimestamp(input.BirthDate, s.cfg.LocalTimezone)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := s.store.SetBirthDate(name, birthDate); err != nil {
		if errors.Is(err, store.ErrEmptyBabyName) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		s.logger.Printf("set birth date for %q: %v", name, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not save birth date"})
	}
	return c.JSON(fiber.Map{"name": name, "birth_date": input.BirthDate})
}

func (s *Server) aggregate(c *fiber.Ctx) error {
	period, err := store.ParsePeriod(c.Query("period", string(store.PeriodDay)))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	filter, err := s.filterFromQuery(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	buckets, err := s.store.AggregateByPeriod(period, filter)
	if err != nil {
		s.logger.Printf("aggregate: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not aggregate events"})
	}
	return c.JSON(fiber.Map{"period": period, "buckets": buckets})
}

// SummaryResponse extends the store summary with the day-of-life metric
// when the filtered baby has a birth date on file.
type SummaryResponse struct {
	store.Summary
	DayOfLife *int `json:"day_of_life,omitempty"`
}

func (s *Server) summary(c *fiber.Ctx) error {
	filter, err := s.filterFromQuery(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	sum, err := s.store.Summarize(filter)
	if err != nil {
		s.logger.Printf("summary: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not summarize events"})
	}

	resp := SummaryResponse{Summary: sum}
	if filter.BabyName != "" {
		if dayOfLife := s.dayOfLife(filter.BabyName); dayOfLife > 0 {
			resp.DayOfLife = &dayOfLife
		}
	}
	return c.JSON(resp)
}

// dayOfLife counts local days since the baby's birth date, day one being
// the birth date itself. Zero when no birth date is on file.
func (s *Server) dayOfLife(babyName string) int {
	babies, err := s.store.Babies()
	if err != nil {
		s.logger.Printf("day of life for %q: %v", babyName, err)
		return 0
	}
	for _, b := range babies {
		if b.Name != babyName || b.BirthDate == nil {
			continue
		}
		now := time.Now().In(s.cfg.LocalTimezone)
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		days := int(today.Sub(*b.BirthDate).Hours()/24) + 1
		if days > 0 {
			return days
		}
	}
	return 0
}

func (s *Server) saveWeight(c *fiber.Ctx) error {
	var input SaveWeightInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed JSON body"})
	}
	if input.Pounds < 0 || input.Ounces < 0 || input.Ounces >= 16 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "weight must be non-negative with ounces below 16"})
	}

	date := time.Now().In(s.cfg.LocalTimezone)
	if input.Date != "" {
		var err error
		date, err = parseTimestamp(input.Date, s.cfg.LocalTimezone)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
	}

	pounds := input.Pounds + input.Ounces/16
	if err := s.store.SaveWeight(input.BabyName, date, pounds); err != nil {
		if errors.Is(err, store.ErrEmptyBabyName) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		s.logger.Printf("save weight: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not save weight"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"baby_name": input.BabyName, "pounds": pounds})
}

func (s *Server) listWeights(c *fiber.Ctx) error {
	baby := c.Query("baby")
	if baby == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "baby query parameter is required"})
	}

	entries, err := s.store.Weights(baby)
	if err != nil {
		s.logger.Printf("list weights for %q: %v", baby, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load weights"})
	}
	return c.JSON(fiber.Map{"weights": entries})
}

// filterFromQuery builds a store filter from the shared query parameters:
// baby, kind, range (preset) and from/to (custom bounds).
func (s *Server) filterFromQuery(c *fiber.Ctx) (store.Filter, error) {
	filter := store.Filter{BabyName: c.Query("baby")}

	if kindStr := c.Query("kind"); kindStr != "" {
		kind, err := model.ParseKind(kindStr)
		if err != nil {
			return store.Filter{}, err
		}
		filter.Kind = kind
	}

	from, to, err := resolveRange(c.Query("range"), c.Query("from"), c.Query("to"), s.cfg.LocalTimezone, time.Now())
	if err != nil {
		return store.Filter{}, err
	}
	filter.From = from
	filter.To = to
	return filter, nil
}

// urlParamName decodes the :name path segment; baby names may contain
// spaces or non-ASCII characters.
func urlParamName(c *fiber.Ctx) (string, error) {
	return url.PathUnescape(c.Params("name"))
}
