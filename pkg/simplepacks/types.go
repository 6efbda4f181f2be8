package simplepacks

import (
	"fmt"

	"github.com/google/uuid"
)

// DefaultRarity is applied when a request does not name a rarity
const DefaultRarity = "common"

// Asset is one binary part of a pack submission
type Asset struct {
	Data     []byte `form:"data" validate:"min=1"`
	Filename string `form:"filename" validate:"required,filename"`
}

// PackCreateRequest is the request-scoped input of CreatePack
type PackCreateRequest struct {
	Name          string   `form:"name" validate:"required"`
	Description   *string  `form:"description"`
	CategoryID    *string  `form:"category_id"`
	CoinPrice     *int     `form:"coin_price" validate:"omitempty,min=0"`
	PremiumPrice  *int     `form:"premium_price" validate:"omitempty,min=0"`
	IsFree        *bool    `form:"is_free"`
	IsStarterPack *bool    `form:"is_starter_pack"`
	IsPremium     *bool    `form:"is_premium"`
	Rarity        string   `form:"rarity"`
	Tags          []string `form:"tags"`
	SortOrder     *int     `form:"sort_order"`

	PreviewImage Asset `form:"preview_image"`
	WaitingImage Asset `form:"waiting_image"`
	ActionImage  Asset `form:"action_image"`

	SoundIdle   Asset `form:"sound_idle"`
	SoundAction Asset `form:"sound_action"`
	SoundBonus  Asset `form:"sound_bonus"`
}

// Images returns the image assets in preview, waiting, action order
func (r *PackCreateRequest) Images() []Asset {
	return []Asset{r.PreviewImage, r.WaitingImage, r.ActionImage}
}

// Sounds returns the sound assets in idle, action, bonus order
func (r *PackCreateRequest) Sounds() []Asset {
	return []Asset{r.SoundIdle, r.SoundAction, r.SoundBonus}
}

// UploadedAsset describes an object placed in the bucket
type UploadedAsset struct {
	Key         string
	URL         string
	ContentType string
}

// PackCreateResult is returned to the client after a successful submission
type PackCreateResult struct {
	ID              string   `json:"id"`
	PreviewImageURL string   `json:"preview_image_url"`
	WaitingImageURL string   `json:"waiting_image_url"`
	ActionImageURL  string   `json:"action_image_url"`
	SoundURLs       []string `json:"sound_urls"`
}

// Row maps column names to values
type Row map[string]any

// Table describes a table and the columns this package is allowed to insert into
type Table struct {
	Name        string
	ColumnNames []string
}

// HasColumn reports whether column is one of the table's insertable columns
func (t Table) HasColumn(column string) bool {
	for _, c := range t.ColumnNames {
		if c == column {
			return true
		}
	}
	return false
}

// PacksTable holds one row per pack
var PacksTable = Table{
	Name: "packs",
	ColumnNames: []string{
		"name", "description", "category_id", "coin_price", "premium_price",
		"is_free", "is_starter_pack", "is_premium", "rarity", "tags", "sort_order",
		"preview_image_url", "waiting_image_url", "action_image_url",
	},
}

// PackSoundsTable holds the three sound rows of each pack
var PackSoundsTable = Table{
	Name:        "pack_sounds",
	ColumnNames: []string{"pack_id", "file_url", "sort_order"},
}

// PackRecord is a persisted pack row
type PackRecord struct {
	ID              string
	Name            string
	Description     *string
	CategoryID      *string
	CoinPrice       *int
	PremiumPrice    *int
	IsFree          *bool
	IsStarterPack   *bool
	IsPremium       *bool
	Rarity          string
	Tags            []string
	SortOrder       *int
	PreviewImageURL string
	WaitingImageURL string
	ActionImageURL  string
}

// Row converts the record into insertable columns. Unset optional fields are
// omitted so that column defaults apply.
func (p PackRecord) Row() Row {
	row := Row{
		"name":              p.Name,
		"rarity":            p.Rarity,
		"preview_image_url": p.PreviewImageURL,
		"waiting_image_url": p.WaitingImageURL,
		"action_image_url":  p.ActionImageURL,
	}
	if p.Description != nil {
		row["description"] = *p.Description
	}
	if p.CategoryID != nil {
		row["category_id"] = *p.CategoryID
	}
	if p.CoinPrice != nil {
		row["coin_price"] = *p.CoinPrice
	}
	if p.PremiumPrice != nil {
		row["premium_price"] = *p.PremiumPrice
	}
	if p.IsFree != nil {
		row["is_free"] = *p.IsFree
	}
	if p.IsStarterPack != nil {
		row["is_starter_pack"] = *p.IsStarterPack
	}
	if p.IsPremium != nil {
		row["is_premium"] = *p.IsPremium
	}
	if p.Tags != nil {
		row["tags"] = p.Tags
	}
	if p.SortOrder != nil {
		row["sort_order"] = *p.SortOrder
	}
	return row
}

// PackRecordFromRow reads a row returned by the database
func PackRecordFromRow(row Row) (PackRecord, error) {
	id, err := formatID(row["id"])
	if err != nil {
		return PackRecord{}, err
	}
	rec := PackRecord{
		ID:              id,
		Name:            stringValue(row["name"]),
		Description:     stringPtr(row["description"]),
		CategoryID:      stringPtr(row["category_id"]),
		CoinPrice:       intPtr(row["coin_price"]),
		PremiumPrice:    intPtr(row["premium_price"]),
		IsFree:          boolPtr(row["is_free"]),
		IsStarterPack:   boolPtr(row["is_starter_pack"]),
		IsPremium:       boolPtr(row["is_premium"]),
		Rarity:          stringValue(row["rarity"]),
		Tags:            stringSlice(row["tags"]),
		SortOrder:       intPtr(row["sort_order"]),
		PreviewImageURL: stringValue(row["preview_image_url"]),
		WaitingImageURL: stringValue(row["waiting_image_url"]),
		ActionImageURL:  stringValue(row["action_image_url"]),
	}
	return rec, nil
}

// SoundRecord is a persisted sound row referencing its pack
type SoundRecord struct {
	PackID    string
	FileURL   string
	SortOrder int
}

// Row converts the record into insertable columns
func (s SoundRecord) Row() Row {
	return Row{
		"pack_id":    s.PackID,
		"file_url":   s.FileURL,
		"sort_order": s.SortOrder,
	}
}

func formatID(v any) (string, error) {
	switch id := v.(type) {
	case string:
		if id != "" {
			return id, nil
		}
	case uuid.UUID:
		return id.String(), nil
	case [16]byte:
		return uuid.UUID(id).String(), nil
	case int64:
		return fmt.Sprintf("%d", id), nil
	case int32:
		return fmt.Sprintf("%d", id), nil
	case int:
		return fmt.Sprintf("%d", id), nil
	case fmt.Stringer:
		return id.String(), nil
	}
	return "", fmt.Errorf("returned row has no usable id (got %T)", v)
}

func stringValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func stringPtr(v any) *string {
	if s, ok := v.(string); ok {
		return &s
	}
	return nil
}

func intPtr(v any) *int {
	var i int
	switch n := v.(type) {
	case int:
		i = n
	case int16:
		i = int(n)
	case int32:
		i = int(n)
	case int64:
		i = int(n)
	default:
		return nil
	}
	return &i
}

func boolPtr(v any) *bool {
	if b, ok := v.(bool); ok {
		return &b
	}
	return nil
}

func stringSlice(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}
