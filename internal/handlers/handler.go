// Package handlers is the JSON/HTTP surface. Handlers bind a typed request,
// call one service operation with the caller's principal and render the
// result; every rule lives in the services.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go-pos-gst/internal/ai"
	"go-pos-gst/internal/apperr"
	"go-pos-gst/internal/auth"
	"go-pos-gst/internal/config"
	"go-pos-gst/internal/customers"
	"go-pos-gst/internal/finance"
	"go-pos-gst/internal/identity"
	"go-pos-gst/internal/inventory"
	"go-pos-gst/internal/license"
	"go-pos-gst/internal/middleware"
	"go-pos-gst/internal/reports"
	"go-pos-gst/internal/sales"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Handler holds every service the routes call into.
type Handler struct {
	cfg       *config.Config
	identity  *identity.Service
	gate      *license.Gate
	inventory *inventory.Service
	sales     *sales.Engine
	customers *customers.Service
	finance   *finance.Service
	reports   *reports.Service
	assistant *ai.Assistant
}

// New wires the services over db.
func New(cfg *config.Config, db *gorm.DB) (*Handler, error) {
	if err := registerValidators(); err != nil {
		return nil, err
	}

	codec := auth.NewLicenseCodec(cfg.LicenseEncryptionKey)
	gate := license.NewGate(db, codec)
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	inv := inventory.NewService(db)

	return &Handler{
		cfg:       cfg,
		identity:  identity.NewService(db, tokens, gate),
		gate:      gate,
		inventory: inv,
		sales:     sales.NewEngine(db),
		customers: customers.NewService(db),
		finance:   finance.NewService(db),
		reports:   reports.NewService(db, cfg.LowStockThreshold),
		assistant: ai.NewAssistant(cfg.GeminiAPIKey, cfg.GeminiModel, ai.NewToolbox(db, inv, cfg.LowStockThreshold)),
	}, nil
}

var (
	validatorsOnce sync.Once
	validatorsErr  error
)

// registerValidators adds the custom binding tags once per process. Request
// structs use them, so a failure here must stop startup.
func registerValidators() error {
	validatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			validatorsErr = fmt.Errorf("binding validator is %T, not *validator.Validate", binding.Validator.Engine())
			return
		}
		if err := v.RegisterValidation("paymentmethod", validPaymentMethod); err != nil {
			validatorsErr = fmt.Errorf("register paymentmethod validator: %w", err)
		}
	})
	return validatorsErr
}

func validPaymentMethod(fl validator.FieldLevel) bool {
	m := strings.ToLower(strings.TrimSpace(fl.Field().String()))
	return m == "" || sales.ValidPaymentMethod(m)
}

func respond(c *gin.Context, status int, body gin.H) {
	body["success"] = true
	c.JSON(status, body)
}

func principal(c *gin.Context) auth.Principal {
	p, _ := middleware.PrincipalFrom(c)
	return p
}

// bind decodes the JSON body into req and reports binding failures as
// InvalidInput naming the first offending field.
func bind(c *gin.Context, req any) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		middleware.Fail(c, apperr.New(apperr.InvalidInput, "Invalid input: %s failed on %s", fieldName(fe), fe.Tag()))
		return false
	}
	middleware.Fail(c, apperr.Wrap(apperr.InvalidInput, err, "Invalid input"))
	return false
}

func fieldName(fe validator.FieldError) string {
	name := fe.Field()
	if name == "" {
		return fe.StructField()
	}
	return strings.ToLower(name[:1]) + name[1:]
}

func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		middleware.Fail(c, apperr.New(apperr.InvalidInput, "Invalid %s", name))
		return 0, false
	}
	return uint(id), true
}

func parseDate(c *gin.Context, key string) (time.Time, bool, error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return time.Time{}, false, nil
	}
	d, err := time.ParseInLocation(time.DateOnly, v, time.UTC)
	if err != nil {
		return time.Time{}, false, apperr.New(apperr.InvalidInput, "%s must be YYYY-MM-DD", key)
	}
	return d, true, nil
}

// dateRange reads startDate/endDate as [start, end+1day). Missing bounds
// stay zero.
func dateRange(c *gin.Context) (from, to time.Time, ok bool) {
	from, _, err := parseDate(c, "startDate")
	if err != nil {
		middleware.Fail(c, err)
		return from, to, false
	}
	end, set, err := parseDate(c, "endDate")
	if err != nil {
		middleware.Fail(c, err)
		return from, to, false
	}
	if set {
		to = end.AddDate(0, 0, 1)
	}
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		middleware.Fail(c, apperr.New(apperr.InvalidInput, "startDate must not be after endDate"))
		return from, to, false
	}
	return from, to, true
}

// reportRange is dateRange defaulting to the current month up to today.
func reportRange(c *gin.Context) (from, to time.Time, ok bool) {
	from, to, ok = dateRange(c)
	if !ok {
		return from, to, false
	}
	now := time.Now().UTC()
	if from.IsZero() {
		from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	if to.IsZero() {
		to = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	}
	if !from.Before(to) {
		middleware.Fail(c, apperr.New(apperr.InvalidInput, "startDate must not be after endDate"))
		return from, to, false
	}
	return from, to, true
}

func attachment(name string, from, to time.Time) string {
	return fmt.Sprintf(`attachment; filename="%s_%s_%s.xlsx"`, name,
		from.Format(time.DateOnly), to.AddDate(0, 0, -1).Format(time.DateOnly))
}

// Health is the unauthenticated liveness probe.
func (h *Handler) Health(c *gin.Context) {
	respond(c, http.StatusOK, gin.H{"status": "ok"})
}
