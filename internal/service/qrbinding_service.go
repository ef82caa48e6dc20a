package service

import (
	"strings"
	"time"

	"github.com/hexiao-next/internal/authz"
	"github.com/hexiao-next/internal/config"
	"github.com/hexiao-next/internal/constants"
	"github.com/hexiao-next/internal/logger"
	"github.com/hexiao-next/internal/models"
	"github.com/hexiao-next/internal/repository"
	"github.com/hexiao-next/internal/secrets"
)

const bindingCodeBytes = 12

// ScanResolution 扫码解析结果（作为发起核销时的扫码证据返回给客户端）
type ScanResolution struct {
	VenueID    uint      `json:"venue_id"`
	VenueName  string    `json:"venue_name"`
	Zone       string    `json:"zone,omitempty"`
	InstanceNo int       `json:"instance_no,omitempty"`
	Type       string    `json:"type"`
	ScannedAt  time.Time `json:"scanned_at"`
}

// QRBindingService 实体码绑定服务
// 管理印刷二维码/NFC 标签与门店、桌位的持久绑定。
type QRBindingService struct {
	bindingRepo repository.QRBindingRepository
	venueRepo   repository.VenueRepository
	rosterRepo  repository.RosterRepository
	authzSvc    *authz.Service
	nfcKey      []byte
}

// NewQRBindingService 创建实体码绑定服务
func NewQRBindingService(
	bindingRepo repository.QRBindingRepository,
	venueRepo repository.VenueRepository,
	rosterRepo repository.RosterRepository,
	authzSvc *authz.Service,
	securityCfg config.SecurityConfig,
) (*QRBindingService, error) {
	nfcKey, err := secrets.DeriveKey(securityCfg.MasterKey, secrets.PurposeNFCUID)
	if err != nil {
		return nil, err
	}
	return &QRBindingService{
		bindingRepo: bindingRepo,
		venueRepo:   venueRepo,
		rosterRepo:  rosterRepo,
		authzSvc:    authzSvc,
		nfcKey:      nfcKey,
	}, nil
}

// BindMain 绑定门店主码（旧主码在同一事务内吊销）
func (s *QRBindingService) BindMain(venueID, staffID uint, nfcUID string) (*models.QRBinding, error) {
	if err := s.requireBindPermission(venueID, staffID); err != nil {
		return nil, err
	}
	code, err := secrets.GenerateToken(bindingCodeBytes)
	if err != nil {
		return nil, err
	}
	binding := &models.QRBinding{
		Code:       code,
		VenueID:    venueID,
		Type:       constants.QRBindingTypeMain,
		NFCUIDHash: s.hashNFCUID(nfcUID),
		State:      constants.QRBindingStateActive,
	}
	if err := s.bindingRepo.BindMain(binding); err != nil {
		return nil, err
	}
	logger.Infow("qr_binding_main_bound", "venue_id", venueID, "operator_id", staffID)
	return binding, nil
}

// BindTable 绑定桌位码（同一区域可挂多个序号）
func (s *QRBindingService) BindTable(venueID, staffID uint, zone string, instanceNo int, nfcUID string) (*models.QRBinding, error) {
	zone = strings.TrimSpace(zone)
	if zone == "" || instanceNo <= 0 {
		return nil, ErrBindingInvalid
	}
	if err := s.requireBindPermission(venueID, staffID); err != nil {
		return nil, err
	}
	code, err := secrets.GenerateToken(bindingCodeBytes)
	if err != nil {
		return nil, err
	}
	binding := &models.QRBinding{
		Code:       code,
		VenueID:    venueID,
		Zone:       zone,
		InstanceNo: instanceNo,
		Type:       constants.QRBindingTypeTable,
		NFCUIDHash: s.hashNFCUID(nfcUID),
		State:      constants.QRBindingStateActive,
	}
	if err := s.bindingRepo.Create(binding); err != nil {
		return nil, err
	}
	logger.Infow("qr_binding_table_bound",
		"venue_id", venueID,
		"zone", zone,
		"instance_no", instanceNo,
		"operator_id", staffID,
	)
	return binding, nil
}

// Resolve 解析实体码：返回绑定的门店与区域信息
// 扫码时间由服务端给出，作为发起核销时的近时扫码证据。
func (s *QRBindingService) Resolve(code string, nfcUID string) (*ScanResolution, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrBindingNotFound
	}
	binding, err := s.bindingRepo.GetActiveByCode(code)
	if err != nil {
		return nil, err
	}
	if binding == nil {
		return nil, ErrBindingNotFound
	}
	// 绑定登记过 NFC UID 的，扫码必须带 UID 且匹配
	if binding.NFCUIDHash != "" {
		supplied := s.hashNFCUID(nfcUID)
		if supplied == "" || !secrets.ConstantTimeEqual(supplied, binding.NFCUIDHash) {
			return nil, ErrBindingInvalid
		}
	}
	venue, err := s.venueRepo.GetByID(binding.VenueID)
	if err != nil {
		return nil, err
	}
	if venue == nil || !venue.IsActive {
		return nil, ErrVenueNotFound
	}
	return &ScanResolution{
		VenueID:    venue.ID,
		VenueName:  venue.Name,
		Zone:       binding.Zone,
		InstanceNo: binding.InstanceNo,
		Type:       binding.Type,
		ScannedAt:  time.Now(),
	}, nil
}

// Revoke 吊销绑定
func (s *QRBindingService) Revoke(venueID, staffID, bindingID uint) error {
	if err := s.requireBindPermission(venueID, staffID); err != nil {
		return err
	}
	bindings, err := s.bindingRepo.ListByVenue(venueID)
	if err != nil {
		return err
	}
	// 只允许吊销本门店的绑定
	var target *models.QRBinding
	for i := range bindings {
		if bindings[i].ID == bindingID {
			target = &bindings[i]
			break
		}
	}
	if target == nil {
		return ErrBindingNotFound
	}
	revoked, err := s.bindingRepo.Revoke(bindingID)
	if err != nil {
		return err
	}
	if !revoked {
		return ErrBindingNotFound
	}
	logger.Infow("qr_binding_revoked", "venue_id", venueID, "binding_id", bindingID, "operator_id", staffID)
	return nil
}

// ListByVenue 门店绑定列表
func (s *QRBindingService) ListByVenue(venueID, staffID uint) ([]models.QRBinding, error) {
	if err := s.requireBindPermission(venueID, staffID); err != nil {
		return nil, err
	}
	return s.bindingRepo.ListByVenue(venueID)
}

func (s *QRBindingService) requireBindPermission(venueID, staffID uint) error {
	venue, err := s.venueRepo.GetByID(venueID)
	if err != nil {
		return err
	}
	if venue == nil {
		return ErrVenueNotFound
	}
	member, err := s.rosterRepo.GetActive(venueID, staffID)
	if err != nil {
		return err
	}
	if member == nil {
		return ErrRosterNotFound
	}
	allowed, err := s.authzSvc.EnforceStaff(staffID, venueID, authz.ResourceBinding, constants.ActionBind)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrInsufficientPermissions
	}
	return nil
}

func (s *QRBindingService) hashNFCUID(nfcUID string) string {
	normalized := strings.ToLower(strings.TrimSpace(nfcUID))
	if normalized == "" {
		return ""
	}
	return secrets.HMACHex(s.nfcKey, normalized)
}
