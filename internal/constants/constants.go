package constants

// 核销单状态常量
const (
	RedemptionStatusPending      = "pending"
	RedemptionStatusVerified     = "verified"
	RedemptionStatusApproved     = "approved"
	RedemptionStatusRedeemed     = "redeemed"
	RedemptionStatusRejected     = "rejected"
	RedemptionStatusExpired      = "expired"
	RedemptionStatusFraudFlagged = "fraud_flagged"
)

// 核销方式常量
const (
	RedemptionModeOTC     = "otc"
	RedemptionModeStaffQR = "staff_qr"
)

// 审计动作常量
const (
	AuditActionInitiated    = "INITIATED"
	AuditActionApproved     = "APPROVED"
	AuditActionRedeemed     = "REDEEMED"
	AuditActionRejected     = "REJECTED"
	AuditActionExpired      = "EXPIRED"
	AuditActionFraudFlagged = "FRAUD_FLAGGED"
	AuditActionQRIssued     = "STAFF_QR_ISSUED"
	AuditActionQRRevoked    = "STAFF_QR_REVOKED"
	AuditActionOnboardUsed  = "ONBOARD_ACTIVATED"
)

// 风控标记常量
const (
	FraudFlagHighRisk     = "HIGH_RISK"
	FraudFlagDeviceReuse  = "DEVICE_REUSE"
	FraudFlagVelocity     = "VELOCITY"
	FraudFlagLowAccuracy  = "LOW_GPS_ACCURACY"
	FraudFlagStationary   = "STATIONARY_DEVICE"
	FraudFlagBadHistory   = "BAD_HISTORY"
	FraudFlagManualReject = "MANUAL_REJECT"
)

// 员工轮换码状态常量
const (
	StaffQRStateActive  = "active"
	StaffQRStateExpired = "expired"
	StaffQRStateRevoked = "revoked"
)

// 入职令牌状态常量
const (
	OnboardStateActive  = "active"
	OnboardStateUsed    = "used"
	OnboardStateExpired = "expired"
	OnboardStateRevoked = "revoked"
)

// 实体码绑定类型常量
const (
	QRBindingTypeMain  = "main"
	QRBindingTypeTable = "table"
)

// 实体码绑定状态常量
const (
	QRBindingStateActive  = "active"
	QRBindingStateRevoked = "revoked"
)

// 门店花名册角色常量
const (
	RosterRoleManager = "manager"
	RosterRoleCashier = "cashier"
)

// 花名册成员状态常量
const (
	RosterStateActive   = "active"
	RosterStateDisabled = "disabled"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 授权动作常量（casbin action）
const (
	ActionApprove = "approve"
	ActionIssue   = "issue"
	ActionEnroll  = "enroll"
	ActionBind    = "bind"
)

// 验证码提供方常量
const (
	CaptchaProviderNone  = "none"
	CaptchaProviderImage = "image"
)

// 验证码场景常量
const (
	CaptchaSceneInitiate = "initiate"
)

// 队列常量
const (
	QueueDefault        = "default"
	QueueCritical       = "critical"
	TaskRedemptionAudit = "redemption:audit_append"
	TaskHighRiskReview  = "redemption:high_risk_review"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "hx"
)

// 站点语言常量
const (
	LocaleZhCN = "zh-CN"
	LocaleEnUS = "en-US"
)

// 支持的站点语言顺序（含回退顺序）
var SupportedLocales = []string{LocaleZhCN, LocaleEnUS}
