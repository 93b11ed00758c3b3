package store

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ededdyj/Baby-Data/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrNotFound is returned when a delete targets an id that does not exist.
	ErrNotFound = errors.New("event not found")
	// ErrInvalidKind is returned when an event kind is outside the fixed set.
	ErrInvalidKind = errors.New("invalid event kind")
	// ErrEmptyBabyName is returned when an operation requires a baby name.
	ErrEmptyBabyName = errors.New("baby name cannot be empty")
)

// Store is the event log: an append-only table of care events plus the
// per-baby details and weight measurements that hang off it.
type Store struct {
	db  *gorm.DB
	loc *time.Location
}

// New wraps an open GORM connection.
func New(db *gorm.DB, loc *time.Location) *Store {
	if loc == nil {
		loc = time.Local
	}
	return &Store{db: db, loc: loc}
}

// Filter narrows event queries. Zero-value fields are ignored; From/To are
// inclusive bounds on occurred_at.
type Filter struct {
	BabyName string
	Kind     model.Kind
	From     *time.Time
	To       *time.Time
}

func (f Filter) apply(tx *gorm.DB) *gorm.DB {
	if f.BabyName != "" {
		tx = tx.Where("baby_name = ?", f.BabyName)
	}
	if f.Kind != "" {
		tx = tx.Where("kind = ?", f.Kind)
	}
	if f.From != nil {
		tx = tx.Where("occurred_at >= ?", *f.From)
	}
	if f.To != nil {
		tx = tx.Where("occurred_at <= ?", *f.To)
	}
	return tx
}

// Insert appends one event. A zero occurredAt means "now" in the store's
// local timezone. The baby row is created lazily on first sight of a name.
func (s *Store) Insert(babyName string, kind model.Kind, occurredAt time.Time, note string) (model.Event, error) {
	babyName = strings.TrimSpace(babyName)
	if babyName == "" {
		return model.Event{}, ErrEmptyBabyName
	}
	parsed, err := model.ParseKind(string(kind))
	if err != nil {
		return model.Event{}, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	kind = parsed
	if occurredAt.IsZero() {
		occurredAt = time.Now().In(s.loc)
	}

	if _, err := s.AddBaby(babyName); err != nil {
		return model.Event{}, err
	}

	event := model.Event{
		BabyName:   babyName,
		Kind:       kind,
		OccurredAt: occurredAt,
		Note:       strings.TrimSpace(note),
	}
	if err := s.db.Create(&event).Error; err != nil {
		return model.Event{}, fmt.Errorf("insert event: %w", err)
	}
	return event, nil
}

// List returns events matching the filter, newest first.
func (s *Store) List(f Filter) ([]model.Event, error) {
	var events []model.Event
	err := f.apply(s.db.Model(&model.Event{})).
		Order("occurred_at DESC, id DESC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// Delete removes one event permanently. ErrNotFound when the id is absent.
func (s *Store) Delete(id uint) error {
	res := s.db.Delete(&model.Event{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete event %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteEventsForBaby clears every event logged for one baby and reports
// how many rows were removed.
func (s *Store) DeleteEventsForBaby(babyName string) (int64, error) {
	babyName = strings.TrimSpace(babyName)
	if babyName == "" {
		return 0, ErrEmptyBabyName
	}
	res := s.db.Where("baby_name = ?", babyName).Delete(&model.Event{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete events for %q: %w", babyName, res.Error)
	}
	return res.RowsAffected, nil
}

// AddBaby registers a baby name, returning the existing row when the name
// is already known.
func (s *Store) AddBaby(name string) (model.Baby, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Baby{}, ErrEmptyBabyName
	}
	var baby model.Baby
	err := s.db.Where(model.Baby{Name: name}).FirstOrCreate(&baby).Error
	if err != nil {
		return model.Baby{}, fmt.Errorf("add baby %q: %w", name, err)
	}
	return baby, nil
}

// SetBirthDate stores a baby's date of birth, creating the row if needed.
func (s *Store) SetBirthDate(name string, birthDate time.Time) error {
	baby, err := s.AddBaby(name)
	if err != nil {
		return err
	}
	day := truncateToDay(birthDate)
	if err := s.db.Model(&baby).Update("birth_date", day).Error; err != nil {
		return fmt.Errorf("set birth date for %q: %w", name, err)
	}
	return nil
}

// Babies returns every registered baby ordered by name.
func (s *Store) Babies() ([]model.Baby, error) {
	var babies []model.Baby
	if err := s.db.Order("name ASC").Find(&babies).Error; err != nil {
		return nil, fmt.Errorf("list babies: %w", err)
	}
	return babies, nil
}

// BabyNames returns the union of registered babies and names seen on
// events, sorted. This feeds the selector in the UI.
func (s *Store) BabyNames() ([]string, error) {
	var fromBabies []string
	if err := s.db.Model(&model.Baby{}).Pluck("name", &fromBabies).Error; err != nil {
		return nil, fmt.Errorf("baby names: %w", err)
	}
	var fromEvents []string
	if err := s.db.Model(&model.Event{}).Distinct().Pluck("baby_name", &fromEvents).Error; err != nil {
		return nil, fmt.Errorf("baby names from events: %w", err)
	}

	seen := make(map[string]bool, len(fromBabies)+len(fromEvents))
	names := make([]string, 0, len(fromBabies)+len(fromEvents))
	for _, n := range append(fromBabies, fromEvents...) {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

// SaveWeight records a weight measurement, overwriting any measurement
// already saved for that baby on that day.
func (s *Store) SaveWeight(babyName string, date time.Time, pounds float64) error {
	babyName = strings.TrimSpace(babyName)
	if babyName == "" {
		return ErrEmptyBabyName
	}
	entry := model.WeightEntry{
		BabyName: babyName,
		Date:     truncateToDay(date),
		Pounds:   pounds,
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "baby_name"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"pounds"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("save weight for %q: %w", babyName, err)
	}
	return nil
}

// Weights returns a baby's weight history in chronological order.
func (s *Store) Weights(babyName string) ([]model.WeightEntry, error) {
	var entries []model.WeightEntry
	err := s.db.Where("baby_name = ?", babyName).
		Order("date ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("weights for %q: %w", babyName, err)
	}
	return entries, nil
}

// truncateToDay normalises a timestamp to midnight UTC so day-keyed rows
// compare equal regardless of the wall clock they were entered with.
func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
