package booking

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m04kA/SMC-BookingSync/internal/domain"
)

// Результаты upsert для метрик
const (
	mergeInserted = "inserted"
	mergeUpdated  = "updated"
	mergeRejected = "rejected"
	mergeStale    = "stale"
)

// Repository in-memory хранилище согласованного списка бронирований
//
// Все изменения (ReplaceAll, Upsert, RefreshSearchElapsed) проходят через один мьютекс,
// поэтому полная загрузка и события канала никогда не перемешиваются.
// Чтение не берет мьютекс: каждое изменение публикует новый неизменяемый срез
// через atomic.Pointer, и List/GetByID читают последний опубликованный снимок.
type Repository struct {
	mu       sync.Mutex
	snapshot atomic.Pointer[[]domain.UnifiedBooking]

	timeProvider    TimeProvider
	logger          Logger
	metrics         Metrics
	gateOnUpdatedAt bool
}

// Option настройка хранилища
type Option func(*Repository)

// WithTimeProvider подменяет источник времени
func WithTimeProvider(tp TimeProvider) Option {
	return func(r *Repository) {
		r.timeProvider = tp
	}
}

// WithMetrics подключает метрики
func WithMetrics(m Metrics) Option {
	return func(r *Repository) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithUpdatedAtGate включает отбрасывание обновлений, у которых updatedAt старше сохраненного
// По умолчанию выключено: побеждает последнее примененное обновление
func WithUpdatedAtGate(enabled bool) Option {
	return func(r *Repository) {
		r.gateOnUpdatedAt = enabled
	}
}

// NewRepository создает пустое хранилище
func NewRepository(logger Logger, opts ...Option) *Repository {
	r := &Repository{
		timeProvider: &RealTimeProvider{},
		logger:       logger,
		metrics:      noopMetrics{},
	}
	for _, opt := range opts {
		opt(r)
	}

	empty := make([]domain.UnifiedBooking, 0)
	r.snapshot.Store(&empty)

	return r
}

// ReplaceAll заменяет содержимое хранилища списком из полной загрузки
// Порядок списка сохраняется как есть, записи копируются.
// Повторные id отбрасываются: остается первое вхождение (список идет от новых к старым).
// Возвращает количество установленных записей.
func (r *Repository) ReplaceAll(list []domain.UnifiedBooking) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{}, len(list))
	next := make([]domain.UnifiedBooking, 0, len(list))
	for i := range list {
		if _, dup := seen[list[i].ID]; dup {
			r.logger.Warn("ReplaceAll: duplicate id=%s at position %d dropped", list[i].ID, i)
			continue
		}
		seen[list[i].ID] = struct{}{}
		next = append(next, list[i].Clone())
	}

	r.publish(next)
	r.logger.Info("ReplaceAll: installed %d bookings", len(next))
	return len(next)
}

// Upsert применяет частичное обновление
//
// Для существующего id выполняется поверхностное слияние: nil поля обновления
// не трогают сохраненные значения, а type никогда не меняется.
// Для нового id требуются id, type и title, иначе возвращается ErrMergeRejected
// и хранилище не меняется. Новая запись получает явные значения по умолчанию,
// после вставки список пересортировывается по createdAt (сначала новые).
func (r *Repository) Upsert(update domain.BookingUpdate) (domain.UnifiedBooking, error) {
	if update.ID == "" {
		r.metrics.StoreMerge(mergeRejected)
		r.logger.Warn("Upsert: update without id rejected")
		return domain.UnifiedBooking{}, fmt.Errorf("%w: Upsert - empty id", ErrInvalidUpdate)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.timeProvider.Now()
	current := *r.snapshot.Load()

	idx := indexOf(current, update.ID)
	if idx < 0 {
		return r.insertLocked(current, update, now)
	}

	existing := current[idx]
	if r.gateOnUpdatedAt && update.UpdatedAt != nil && update.UpdatedAt.Before(existing.UpdatedAt) {
		r.metrics.StoreMerge(mergeStale)
		r.logger.Warn("Upsert: stale update for id=%s dropped (update=%s, stored=%s)",
			update.ID, update.UpdatedAt.Format(time.RFC3339), existing.UpdatedAt.Format(time.RFC3339))
		return existing.Clone(), fmt.Errorf("%w: id=%s", ErrStaleUpdate, update.ID)
	}

	merged := existing.Clone()
	if conflict := applyUpdate(&merged, update); conflict {
		r.logger.Warn("Upsert: type change %s -> %s ignored for id=%s", existing.Type, *update.Type, update.ID)
	}
	fillSearchElapsed(&merged, update, now)

	next := make([]domain.UnifiedBooking, len(current))
	copy(next, current)
	next[idx] = merged
	if !merged.CreatedAt.Equal(existing.CreatedAt) {
		sortNewestFirst(next)
	}

	r.publish(next)
	r.metrics.StoreMerge(mergeUpdated)
	r.logger.Info("Upsert: merged update into id=%s, status=%s", merged.ID, merged.DisplayStatus)

	return merged.Clone(), nil
}

// insertLocked вставляет новую запись; вызывается под мьютексом
func (r *Repository) insertLocked(current []domain.UnifiedBooking, update domain.BookingUpdate, now time.Time) (domain.UnifiedBooking, error) {
	if !update.CanCreate() {
		r.metrics.StoreMerge(mergeRejected)
		r.logger.Warn("Upsert: MergeRejected for unseen id=%s: id, type and title are required", update.ID)
		return domain.UnifiedBooking{}, fmt.Errorf("%w: id=%s", ErrMergeRejected, update.ID)
	}

	created := newWithDefaults(update, now)
	applyUpdate(&created, update)
	fillSearchElapsed(&created, update, now)

	next := make([]domain.UnifiedBooking, 0, len(current)+1)
	next = append(next, current...)
	next = append(next, created)
	sortNewestFirst(next)

	r.publish(next)
	r.metrics.StoreMerge(mergeInserted)
	r.logger.Info("Upsert: inserted id=%s type=%s status=%s", created.ID, created.Type, created.DisplayStatus)

	return created.Clone(), nil
}

// List возвращает снимок текущего упорядоченного списка
// Не блокируется на идущем слиянии
func (r *Repository) List() []domain.UnifiedBooking {
	current := *r.snapshot.Load()

	out := make([]domain.UnifiedBooking, len(current))
	for i := range current {
		out[i] = current[i].Clone()
	}
	return out
}

// GetByID возвращает запись по id
func (r *Repository) GetByID(id string) (domain.UnifiedBooking, error) {
	current := *r.snapshot.Load()

	idx := indexOf(current, id)
	if idx < 0 {
		return domain.UnifiedBooking{}, ErrBookingNotFound
	}
	return current[idx].Clone(), nil
}

// Len возвращает количество записей
func (r *Repository) Len() int {
	return len(*r.snapshot.Load())
}

// RefreshSearchElapsed пересчитывает searchElapsedMinutes у заявок в статусе searching
// Остальные поля записей не меняются. Возвращает количество измененных записей.
func (r *Repository) RefreshSearchElapsed(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := *r.snapshot.Load()

	var next []domain.UnifiedBooking
	changed := 0
	for i := range current {
		if !current[i].IsSearching() {
			continue
		}

		minutes := domain.ElapsedMinutes(current[i].CreatedAt, now)
		if current[i].SearchElapsedMinutes != nil && *current[i].SearchElapsedMinutes == minutes {
			continue
		}

		if next == nil {
			next = make([]domain.UnifiedBooking, len(current))
			copy(next, current)
		}
		updated := current[i].Clone()
		updated.SearchElapsedMinutes = &minutes
		next[i] = updated
		changed++
	}

	if changed > 0 {
		r.publish(next)
	}
	return changed
}

func (r *Repository) publish(next []domain.UnifiedBooking) {
	r.snapshot.Store(&next)
	r.metrics.StoreSize(len(next))
}

func sortNewestFirst(list []domain.UnifiedBooking) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}

func indexOf(list []domain.UnifiedBooking, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

type noopMetrics struct{}

func (noopMetrics) StoreMerge(string) {}
func (noopMetrics) StoreSize(int)     {}
