package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type PriceType string

const (
	PriceFixed        PriceType = "fixed"
	PriceHourly       PriceType = "hourly"
	PriceConsultation PriceType = "consultation"
)

func (p PriceType) Valid() bool {
	return p == PriceFixed || p == PriceHourly || p == PriceConsultation
}

type ResourceType string

const (
	ResourceNurse  ResourceType = "nurse"
	ResourceDriver ResourceType = "driver"
)

func (r ResourceType) Valid() bool {
	return r == ResourceNurse || r == ResourceDriver
}

// Service is a bookable offering. Services referenced by appointments are
// soft-disabled via IsActive rather than deleted.
type Service struct {
	ID               uuid.UUID    `json:"id"`
	Title            string       `json:"title"`
	Slug             string       `json:"slug"`
	Description      string       `json:"description"`
	ShortDescription string       `json:"shortDescription"`
	Icon             string       `json:"icon"`
	Price            int          `json:"price"`
	PriceType        PriceType    `json:"priceType"`
	DurationMinutes  int          `json:"duration"`
	ResourceType     ResourceType `json:"resourceType"`
	IsActive         bool         `json:"isActive"`
	DisplayOrder     int          `json:"order"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
}

var slugReplacer = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u",
	"ü", "u", "ñ", "n",
)

// Slugify converts a title into a URL-safe slug, folding the Spanish
// accented characters that show up in service names.
func Slugify(title string) string {
	s := slugReplacer.Replace(strings.ToLower(title))

	var b strings.Builder
	lastDash := true // trim leading dashes
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
