package service

import "github.com/golang-jwt/jwt/v5"

// UserJWTClaims 用户令牌声明
// 令牌由上游身份服务签发，本服务只做校验与主体提取。
type UserJWTClaims struct {
	UserID uint `json:"user_id"`
	jwt.RegisteredClaims
}

// StaffJWTClaims 员工令牌声明
type StaffJWTClaims struct {
	StaffID uint `json:"staff_id"`
	jwt.RegisteredClaims
}
