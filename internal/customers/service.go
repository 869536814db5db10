package customers

import (
	"context"
	"strings"

	"go-pos-gst/internal/apperr"
	"go-pos-gst/internal/auth"
	"go-pos-gst/internal/database"
	"go-pos-gst/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type Input struct {
	Phone   string
	Name    string
	Address string
	GSTIN   string
}

// Upsert adds a customer, or overwrites name, address and GSTIN of the
// shop's existing customer with the same phone.
func (s *Service) Upsert(ctx context.Context, p auth.Principal, in Input) (*models.Customer, error) {
	if err := p.Require(auth.AnyMember); err != nil {
		return nil, err
	}
	phone := normalizePhone(in.Phone)
	if phone == "" {
		return nil, apperr.New(apperr.InvalidInput, "phone is required")
	}
	gstin := strings.ToUpper(strings.TrimSpace(in.GSTIN))
	if gstin != "" && len(gstin) != 15 {
		return nil, apperr.New(apperr.InvalidInput, "gstin must be 15 characters")
	}

	c := models.Customer{
		ShopID:  p.ShopID,
		Phone:   phone,
		Name:    strings.TrimSpace(in.Name),
		Address: strings.TrimSpace(in.Address),
		GSTIN:   gstin,
	}
	db := s.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "shop_id"}, {Name: "phone"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "address", "gstin", "updated_at"}),
	}).Create(&c).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "Failed to save customer")
	}

	// The insert id is not reliable after an update on every driver; reload.
	var saved models.Customer
	if err := db.Where("shop_id = ? AND phone = ?", p.ShopID, phone).First(&saved).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "Failed to load customer")
	}
	return &saved, nil
}

// List returns the shop's customers, optionally filtered by a name or phone prefix.
func (s *Service) List(ctx context.Context, p auth.Principal, search string) ([]models.Customer, error) {
	if err := p.Require(auth.AnyMember); err != nil {
		return nil, err
	}
	q := s.db.WithContext(ctx).Where("shop_id = ?", p.ShopID)
	if search = strings.TrimSpace(search); search != "" {
		like := search + "%"
		q = q.Where("name LIKE ? OR phone LIKE ?", like, like)
	}

	var list []models.Customer
	if err := q.Order("name").Find(&list).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "Failed to fetch customers")
	}
	return list, nil
}

// Get returns one customer of the caller's shop.
func (s *Service) Get(ctx context.Context, p auth.Principal, id uint) (*models.Customer, error) {
	if err := p.Require(auth.AnyMember); err != nil {
		return nil, err
	}
	var c models.Customer
	err := s.db.WithContext(ctx).Where("id = ? AND shop_id = ?", id, p.ShopID).First(&c).Error
	if database.IsNotFound(err) {
		return nil, apperr.New(apperr.NotFound, "customer %d not found", id)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "Failed to fetch customer")
	}
	return &c, nil
}

func normalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' || r == '(' || r == ')' {
			return -1
		}
		return r
	}, strings.TrimSpace(phone))
}
