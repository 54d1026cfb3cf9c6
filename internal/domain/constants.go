package domain

// Tab вкладка списка бронирований
type Tab string

const (
	TabUpcoming Tab = "upcoming"
	TabPast     Tab = "past"
)

// ParseTab конвертирует строку во вкладку
func ParseTab(raw string) (Tab, bool) {
	switch Tab(raw) {
	case TabUpcoming:
		return TabUpcoming, true
	case TabPast:
		return TabPast, true
	default:
		return "", false
	}
}

// AllDisplayStatuses закрытый набор статусов отображения
var AllDisplayStatuses = []DisplayStatus{
	StatusPending,
	StatusSearching,
	StatusMatched,
	StatusInProgress,
	StatusCompleted,
	StatusCancelled,
	StatusNoAccept,
}

// ActiveStatuses статусы вкладки "предстоящие"
var ActiveStatuses = []DisplayStatus{
	StatusSearching,
	StatusMatched,
	StatusInProgress,
	StatusPending,
}

// SettledStatuses завершенные статусы (вкладка "прошедшие")
var SettledStatuses = []DisplayStatus{
	StatusCompleted,
	StatusCancelled,
	StatusNoAccept,
}

// Defaults for records inserted by a push event
const (
	DefaultDisplayStatus         = StatusPending
	DefaultMatchedProvidersCount = 0
)

// Time format constants
const (
	DateFormat = "2006-01-02" // YYYY-MM-DD
)
