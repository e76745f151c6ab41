package brokers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/tradelog/tradelog-api/internal/types"
	"github.com/tradelog/tradelog-api/pkg/response"
	"gorm.io/gorm"
)

// Service manages per-broker connection status and credentials. The core
// reconciliation flow only reads broker identity and last-sync timestamps;
// credential handling lives entirely here.
type Service struct {
	db *Database
}

// NewService creates a new broker service with the given database connection
func NewService(gormDB *gorm.DB) *Service {
	return &Service{
		db: NewDatabase(gormDB),
	}
}

// List returns the status of every supported broker.
func (s *Service) List() ([]types.BrokerStatus, error) {
	return s.db.GetAll()
}

// Connect stores a credential bundle and marks the broker connected.
func (s *Service) Connect(name, apiKey, apiSecret string) (*types.BrokerStatus, error) {
	if !types.IsSupportedBroker(name) {
		return nil, types.NewValidationError("broker", "unknown broker: "+name)
	}
	if apiKey == "" || apiSecret == "" {
		return nil, types.NewValidationError("credentials", "api_key and api_secret are required")
	}

	status, err := s.db.Get(name)
	if err != nil {
		return nil, err
	}

	status.Connected = true
	status.APIKey = apiKey
	status.APISecret = apiSecret
	status.UpdatedAt = time.Now()
	if err := s.db.Save(status); err != nil {
		return nil, err
	}

	log.Info().
		Str("service", "brokers").
		Str("broker", name).
		Msg("broker connected")
	return status, nil
}

// Disconnect clears credentials and marks the broker disconnected.
func (s *Service) Disconnect(name string) (*types.BrokerStatus, error) {
	if !types.IsSupportedBroker(name) {
		return nil, types.NewValidationError("broker", "unknown broker: "+name)
	}

	status, err := s.db.Get(name)
	if err != nil {
		return nil, err
	}

	status.Connected = false
	status.APIKey = ""
	status.APISecret = ""
	status.UpdatedAt = time.Now()
	if err := s.db.Save(status); err != nil {
		return nil, err
	}

	log.Info().
		Str("service", "brokers").
		Str("broker", name).
		Msg("broker disconnected")
	return status, nil
}

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

// Seed inserts a row for every supported broker that is missing one.
func (d *Database) Seed() error {
	for _, name := range types.SupportedBrokers {
		var existing types.BrokerStatus
		err := d.db.Where("name = ?", name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := d.db.Create(&types.BrokerStatus{Name: name}).Error; err != nil {
			return err
		}
	}
	return nil
}

func (d *Database) GetAll() ([]types.BrokerStatus, error) {
	var statuses []types.BrokerStatus
	if err := d.db.Order("name ASC").Find(&statuses).Error; err != nil {
		return nil, err
	}
	return statuses, nil
}

func (d *Database) Get(name string) (*types.BrokerStatus, error) {
	var status types.BrokerStatus
	if err := d.db.Where("name = ?", name).First(&status).Error; err != nil {
		return nil, err
	}
	return &status, nil
}

func (d *Database) Save(status *types.BrokerStatus) error {
	return d.db.Save(status).Error
}

// GinHandlers contains HTTP handlers for broker management endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for broker endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// ListBrokersHandler handles GET requests for broker statuses
func (h *GinHandlers) ListBrokersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		statuses, err := h.service.List()
		response.Handle(c, statuses, err)
	}
}

// ConnectBrokerHandler handles POST requests storing broker credentials
// URL parameter: broker
func (h *GinHandlers) ConnectBrokerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var creds struct {
			APIKey    string `json:"api_key" binding:"required"`
			APISecret string `json:"api_secret" binding:"required"`
		}
		if err := c.ShouldBindJSON(&creds); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		status, err := h.service.Connect(c.Param("broker"), creds.APIKey, creds.APISecret)
		response.Handle(c, status, err)
	}
}

// DisconnectBrokerHandler handles POST requests clearing broker credentials
// URL parameter: broker
func (h *GinHandlers) DisconnectBrokerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		status, err := h.service.Disconnect(c.Param("broker"))
		response.Handle(c, status, err)
	}
}
