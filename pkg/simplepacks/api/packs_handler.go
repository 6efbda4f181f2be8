package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/simple-packs/pkg/simplepacks"
)

// DefaultMaxUploadBytes limits the size of a whole submission
const DefaultMaxUploadBytes int64 = 64 << 20

// multipart parts held in memory before spilling to temp files
const maxMemory = 32 << 20

// File part names, in the order they are uploaded
var (
	imageParts = []string{"preview_image", "waiting_image", "action_image"}
	soundParts = []string{"sound_idle", "sound_action", "sound_bonus"}
)

// PacksHandler handles sound pack submissions
type PacksHandler struct {
	service        simplepacks.Service
	maxUploadBytes int64
	logger         *slog.Logger
}

// HandlerOption configures a PacksHandler
type HandlerOption func(*PacksHandler)

// WithMaxUploadBytes limits the request body size
func WithMaxUploadBytes(n int64) HandlerOption {
	return func(h *PacksHandler) {
		if n > 0 {
			h.maxUploadBytes = n
		}
	}
}

// WithLogger sets the handler logger
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(h *PacksHandler) {
		h.logger = logger
	}
}

func NewPacksHandler(service simplepacks.Service, opts ...HandlerOption) *PacksHandler {
	h := &PacksHandler{
		service:        service,
		maxUploadBytes: DefaultMaxUploadBytes,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the router for pack endpoints
func (h *PacksHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.CreatePack)
	return r
}

// CreatePack accepts a multipart submission and registers the pack
func (h *PacksHandler) CreatePack(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.Warn("Submission too large", "limit", tooLarge.Limit)
			writeError(w, r, http.StatusRequestEntityTooLarge,
				&simplepacks.ValidationError{Msg: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit)})
			return
		}
		h.logger.Error("Failed to parse multipart form", "err", err)
		WriteError(w, r, &simplepacks.ValidationError{Msg: "expected multipart/form-data: " + err.Error()})
		return
	}
	defer r.MultipartForm.RemoveAll()

	req, err := parsePackForm(r.MultipartForm)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	result, err := h.service.CreatePack(r.Context(), req)
	if err != nil {
		h.logger.Error("Failed to create pack", "name", req.Name, "kind", simplepacks.Kind(err), "err", err)
		WriteError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, result)
}

// parsePackForm converts the multipart form into a request. Malformed scalar
// fields are reported together as one *simplepacks.ValidationError.
func parsePackForm(form *multipart.Form) (simplepacks.PackCreateRequest, error) {
	f := formReader{values: form.Value}

	req := simplepacks.PackCreateRequest{
		Name:          f.str("name"),
		Description:   f.optStr("description"),
		CategoryID:    f.optStr("category_id"),
		CoinPrice:     f.optInt("coin_price"),
		PremiumPrice:  f.optInt("premium_price"),
		IsFree:        f.optBool("is_free"),
		IsStarterPack: f.optBool("is_starter_pack"),
		IsPremium:     f.optBool("is_premium"),
		Rarity:        f.str("rarity"),
		Tags:          f.tags("tags"),
		SortOrder:     f.optInt("sort_order"),
	}

	assets := make(map[string]simplepacks.Asset, len(imageParts)+len(soundParts))
	for _, part := range append(append([]string{}, imageParts...), soundParts...) {
		asset, err := readAsset(form, part)
		if err != nil {
			return req, err
		}
		if name := f.str(part + "_name"); name != "" {
			asset.Filename = name
		}
		assets[part] = asset
	}
	req.PreviewImage = assets["preview_image"]
	req.WaitingImage = assets["waiting_image"]
	req.ActionImage = assets["action_image"]
	req.SoundIdle = assets["sound_idle"]
	req.SoundAction = assets["sound_action"]
	req.SoundBonus = assets["sound_bonus"]

	if len(f.invalid) > 0 {
		return req, &simplepacks.ValidationError{Fields: f.invalid}
	}
	return req, nil
}

func readAsset(form *multipart.Form, part string) (simplepacks.Asset, error) {
	headers := form.File[part]
	if len(headers) == 0 {
		return simplepacks.Asset{}, nil
	}

	fh := headers[0]
	file, err := fh.Open()
	if err != nil {
		return simplepacks.Asset{}, fmt.Errorf("failed to open part %s: %w", part, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return simplepacks.Asset{}, fmt.Errorf("failed to read part %s: %w", part, err)
	}
	return simplepacks.Asset{Data: data, Filename: fh.Filename}, nil
}

type formReader struct {
	values  map[string][]string
	invalid []string
}

func (f *formReader) str(key string) string {
	if v := f.values[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func (f *formReader) optStr(key string) *string {
	v := strings.TrimSpace(f.str(key))
	if v == "" {
		return nil
	}
	return &v
}

func (f *formReader) optInt(key string) *int {
	v := strings.TrimSpace(f.str(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		f.invalid = append(f.invalid, key)
		return nil
	}
	return &n
}

func (f *formReader) optBool(key string) *bool {
	v := strings.TrimSpace(f.str(key))
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		f.invalid = append(f.invalid, key)
		return nil
	}
	return &b
}

// tags accepts repeated fields and comma separated lists
func (f *formReader) tags(key string) []string {
	var out []string
	for _, v := range f.values[key] {
		for _, tag := range strings.Split(v, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				out = append(out, tag)
			}
		}
	}
	return out
}
