package authz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hexiao-next/internal/constants"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/util"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

const (
	casbinTableName = "casbin_rule"
	staffSubjectFmt = "staff:%d"
	rolePrefix      = "role:"
)

// 资源名常量（对象按 /venue/<id>/<resource> 组织，便于 keyMatch2 做门店级通配）
const (
	ResourceRedemption = "redemption"
	ResourceStaffQR    = "staff_qr"
	ResourceRoster     = "roster"
	ResourceBinding    = "binding"
)

const defaultRBACModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = (g(r.sub, p.sub) || r.sub == p.sub) && keyMatch2(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

// Policy 权限策略
type Policy struct {
	Subject string `json:"subject"`
	Object  string `json:"object"`
	Action  string `json:"action"`
}

// Service Casbin 授权服务
// 名册（roster_members）是授权事实来源，本服务把名册关系同步为
// 门店级角色策略并执行判定。
type Service struct {
	enforcer *casbin.SyncedEnforcer
}

// NewService 创建授权服务
func NewService(db *gorm.DB) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("authz db is nil")
	}

	adapter, err := gormadapter.NewAdapterByDBUseTableName(db, "", casbinTableName)
	if err != nil {
		return nil, fmt.Errorf("create authz adapter failed: %w", err)
	}

	m, err := model.NewModelFromString(defaultRBACModel)
	if err != nil {
		return nil, fmt.Errorf("load authz model failed: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("init authz enforcer failed: %w", err)
	}
	enforcer.AddFunction("keyMatch2", util.KeyMatch2Func)
	enforcer.EnableAutoSave(true)

	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("load authz policy failed: %w", err)
	}

	return &Service{enforcer: enforcer}, nil
}

// Enforcer 返回底层 enforcer
func (s *Service) Enforcer() *casbin.SyncedEnforcer {
	if s == nil {
		return nil
	}
	return s.enforcer
}

// Enforce 执行授权判断
func (s *Service) Enforce(sub, obj, act string) (bool, error) {
	if s == nil || s.enforcer == nil {
		return false, fmt.Errorf("authz service unavailable")
	}
	return s.enforcer.Enforce(strings.TrimSpace(sub), NormalizeObject(obj), NormalizeAction(act))
}

// EnforceStaff 按员工ID判定其在门店上对资源的授权
func (s *Service) EnforceStaff(staffID, venueID uint, resource, action string) (bool, error) {
	return s.Enforce(SubjectForStaff(staffID), ObjectForVenue(venueID, resource), action)
}

// ReloadPolicy 重新加载策略
func (s *Service) ReloadPolicy() error {
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}
	return s.enforcer.LoadPolicy()
}

// EnrollStaff 员工入册：绑定门店角色并确保角色策略存在
func (s *Service) EnrollStaff(venueID, staffID uint, role string) error {
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}
	roleSubject, err := s.ensureVenueRole(venueID, role)
	if err != nil {
		return err
	}
	if _, err := s.enforcer.AddNamedGroupingPolicy("g", SubjectForStaff(staffID), roleSubject); err != nil {
		return fmt.Errorf("assign staff role failed: %w", err)
	}
	return nil
}

// DisableStaff 员工离册：解除其在门店的全部角色绑定
func (s *Service) DisableStaff(venueID, staffID uint) error {
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}
	subject := SubjectForStaff(staffID)
	roles, err := s.enforcer.GetRolesForUser(subject)
	if err != nil {
		return fmt.Errorf("get staff roles failed: %w", err)
	}
	venueRolePrefix := fmt.Sprintf("%svenue:%d:", rolePrefix, venueID)
	for _, role := range roles {
		if !strings.HasPrefix(role, venueRolePrefix) {
			continue
		}
		if _, err := s.enforcer.RemoveNamedGroupingPolicy("g", subject, role); err != nil {
			return fmt.Errorf("remove staff role failed: %w", err)
		}
	}
	return nil
}

// StaffRoles 查询员工全部门店角色
func (s *Service) StaffRoles(staffID uint) ([]string, error) {
	if s == nil || s.enforcer == nil {
		return nil, fmt.Errorf("authz service unavailable")
	}
	roles, err := s.enforcer.GetRolesForUser(SubjectForStaff(staffID))
	if err != nil {
		return nil, fmt.Errorf("get staff roles failed: %w", err)
	}
	filtered := make([]string, 0, len(roles))
	for _, role := range roles {
		if strings.HasPrefix(role, rolePrefix) {
			filtered = append(filtered, role)
		}
	}
	sort.Strings(filtered)
	return filtered, nil
}

// GetRolePolicies 查询角色策略
func (s *Service) GetRolePolicies(role string) ([]Policy, error) {
	if s == nil || s.enforcer == nil {
		return nil, fmt.Errorf("authz service unavailable")
	}
	rules, err := s.enforcer.GetFilteredPolicy(0, strings.TrimSpace(role))
	if err != nil {
		return nil, fmt.Errorf("get role policies failed: %w", err)
	}
	return convertPolicies(rules), nil
}

// ensureVenueRole 确保门店角色及其策略存在（幂等）
// manager 拥有门店下全部资源；cashier 仅限核销审批与本人轮换码签发。
func (s *Service) ensureVenueRole(venueID uint, role string) (string, error) {
	roleSubject, err := RoleForVenue(venueID, role)
	if err != nil {
		return "", err
	}
	var policies [][3]string
	switch role {
	case constants.RosterRoleManager:
		policies = [][3]string{
			{roleSubject, ObjectForVenue(venueID, "*"), "*"},
		}
	case constants.RosterRoleCashier:
		policies = [][3]string{
			{roleSubject, ObjectForVenue(venueID, ResourceRedemption), constants.ActionApprove},
			{roleSubject, ObjectForVenue(venueID, ResourceStaffQR), constants.ActionIssue},
		}
	default:
		return "", fmt.Errorf("unsupported roster role: %s", role)
	}
	for _, p := range policies {
		if _, err := s.enforcer.AddPolicy(p[0], p[1], p[2]); err != nil {
			return "", fmt.Errorf("grant role policy failed: %w", err)
		}
	}
	return roleSubject, nil
}

func convertPolicies(rules [][]string) []Policy {
	policies := make([]Policy, 0, len(rules))
	for _, rule := range rules {
		if len(rule) < 3 {
			continue
		}
		policies = append(policies, Policy{
			Subject: strings.TrimSpace(rule[0]),
			Object:  NormalizeObject(rule[1]),
			Action:  NormalizeAction(rule[2]),
		})
	}
	return policies
}

// SubjectForStaff 生成员工主体标识
func SubjectForStaff(staffID uint) string {
	return fmt.Sprintf(staffSubjectFmt, staffID)
}

// RoleForVenue 生成门店级角色标识
func RoleForVenue(venueID uint, role string) (string, error) {
	normalized := strings.TrimSpace(role)
	if normalized == "" {
		return "", fmt.Errorf("role is required")
	}
	return fmt.Sprintf("%svenue:%d:%s", rolePrefix, venueID, normalized), nil
}

// ObjectForVenue 生成门店资源路径
func ObjectForVenue(venueID uint, resource string) string {
	resource = strings.TrimSpace(resource)
	if resource == "" {
		resource = "*"
	}
	return fmt.Sprintf("/venue/%d/%s", venueID, resource)
}

// NormalizeObject 统一授权资源路径
func NormalizeObject(object string) string {
	normalized := strings.TrimSpace(object)
	if normalized == "" {
		return "/"
	}
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}
	return normalized
}

// NormalizeAction 统一授权动作
func NormalizeAction(action string) string {
	return strings.ToLower(strings.TrimSpace(action))
}
