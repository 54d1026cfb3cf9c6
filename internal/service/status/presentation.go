package status

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/m04kA/SMC-BookingSync/internal/domain"
)

// Presentation данные для отображения статуса
type Presentation struct {
	Label    string  `json:"label"`
	Icon     string  `json:"icon"`
	Color    string  `json:"color"`
	Sublabel *string `json:"sublabel,omitempty"`
}

const (
	// MatchedETAText фиксированный текст ожидаемого прибытия исполнителя
	MatchedETAText = "arriving in about 30 min"

	// CurrencySymbol символ валюты для сумм и бюджета
	CurrencySymbol = "$"

	fallbackIcon  = "info"
	fallbackColor = "neutral"
)

type badge struct {
	label string
	icon  string
	color string
}

var badges = map[domain.DisplayStatus]badge{
	domain.StatusPending:    {label: "Pending", icon: "clock", color: "warning"},
	domain.StatusSearching:  {label: "Finding providers", icon: "search", color: "info"},
	domain.StatusMatched:    {label: "Matched", icon: "user-check", color: "primary"},
	domain.StatusInProgress: {label: "In progress", icon: "progress", color: "primary"},
	domain.StatusCompleted:  {label: "Completed", icon: "check-circle", color: "success"},
	domain.StatusCancelled:  {label: "Cancelled", icon: "x-circle", color: "muted"},
	domain.StatusNoAccept:   {label: "No providers accepted", icon: "alert-circle", color: "danger"},
}

// Present строит метаданные отображения для бронирования
func Present(b domain.UnifiedBooking) Presentation {
	return PresentRaw(string(b.DisplayStatus), b)
}

// PresentRaw строит метаданные отображения для произвольного статуса
// Функция тотальна: для неизвестного статуса метка равна самой строке статуса
func PresentRaw(raw string, b domain.UnifiedBooking) Presentation {
	s, ok := domain.ParseDisplayStatus(raw)
	if !ok {
		return Presentation{Label: raw, Icon: fallbackIcon, Color: fallbackColor}
	}

	bd := badges[s]
	return Presentation{
		Label:    bd.label,
		Icon:     bd.icon,
		Color:    bd.color,
		Sublabel: sublabel(s, b),
	}
}

// sublabel собирает подпись из других полей бронирования
func sublabel(s domain.DisplayStatus, b domain.UnifiedBooking) *string {
	var text string

	switch s {
	case domain.StatusPending:
		switch {
		case b.Budget != nil:
			text = FormatBudget(*b.Budget)
		case b.TotalAmount != nil:
			text = FormatCurrency(*b.TotalAmount)
		}
	case domain.StatusSearching:
		switch {
		case b.SearchElapsedMinutes != nil:
			text = fmt.Sprintf("Searching for %d min", *b.SearchElapsedMinutes)
		case b.Budget != nil:
			text = FormatBudget(*b.Budget)
		}
	case domain.StatusMatched:
		if b.ProviderName != nil && *b.ProviderName != "" {
			text = *b.ProviderName + " · " + MatchedETAText
		}
	case domain.StatusInProgress, domain.StatusCompleted:
		if b.TotalAmount != nil {
			text = FormatCurrency(*b.TotalAmount)
		}
	}

	if text == "" {
		return nil
	}
	return &text
}

// FormatCurrency форматирует сумму с разделителями разрядов: 12500 -> "$12,500"
func FormatCurrency(amount float64) string {
	return CurrencySymbol + humanize.CommafWithDigits(amount, 2)
}

// FormatBudget форматирует диапазон бюджета: "$100 – $250"
func FormatBudget(b domain.Budget) string {
	if b.Min == b.Max {
		return FormatCurrency(b.Min)
	}
	return FormatCurrency(b.Min) + " – " + FormatCurrency(b.Max)
}
