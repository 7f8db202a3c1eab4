package authapi

import (
	"context"
	"log/slog"
	"net"
	"strings"
)

// Auditor records security-relevant auth events.
type Auditor interface {
	Record(ctx context.Context, action string, attrs ...slog.Attr)
}

// LogAuditor writes audit events onto a logger under the "audit" group.
type LogAuditor struct {
	Log *slog.Logger
}

// Record implements Auditor.
func (a LogAuditor) Record(ctx context.Context, action string, attrs ...slog.Attr) {
	log := a.Log
	if log == nil {
		log = slog.Default()
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return
	}
	log.LogAttrs(ctx, slog.LevelInfo, action, slog.Attr{Key: "audit", Value: slog.GroupValue(attrs...)})
}

func (a *Authenticator) auditSignup(ctx context.Context, userID int64, ip net.IP) {
	a.insertAudit(ctx, "auth.signup", ip, slog.Int64("user_id", userID))
}

func (a *Authenticator) auditSignupFailed(ctx context.Context, email string, ip net.IP, reason string) {
	a.insertAudit(ctx, "auth.signup.failed", ip, slog.String("identifier", email), slog.String("reason", reason))
}

func (a *Authenticator) auditLoginFailed(ctx context.Context, email string, ip net.IP, reason string) {
	a.insertAudit(ctx, "auth.login.failed", ip, slog.String("identifier", email), slog.String("reason", reason))
}

func (a *Authenticator) auditLoginSuccess(ctx context.Context, userID int64, ip net.IP, email string) {
	a.insertAudit(ctx, "auth.login.success", ip, slog.Int64("user_id", userID), slog.String("identifier", email))
}

func (a *Authenticator) auditTokenRejected(ctx context.Context, ip net.IP, fingerprint string) {
	a.insertAudit(ctx, "auth.token.rejected", ip, slog.String("token_fp", fingerprint))
}

func (a *Authenticator) insertAudit(ctx context.Context, action string, ip net.IP, attrs ...slog.Attr) {
	if a == nil || a.audit == nil {
		return
	}
	if ip != nil {
		attrs = append(attrs, slog.String("ip", ip.String()))
	}
	a.audit.Record(ctx, action, attrs...)
}
