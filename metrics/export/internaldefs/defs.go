package internaldefs

import (
	"github.com/MrEthical07/chatauth"
)

// CounterDef maps a chatauth counter onto its exported name.
type CounterDef struct {
	ID   chatauth.MetricID
	Name string
	Help string
}

// HistogramDef maps a chatauth histogram onto its exported name.
type HistogramDef struct {
	ID   chatauth.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: chatauth.MetricLoginSuccess, Name: "chatauth_login_success_total", Help: "Successful logins."},
	{ID: chatauth.MetricLoginFailure, Name: "chatauth_login_failure_total", Help: "Logins rejected for a wrong password."},
	{ID: chatauth.MetricLoginUnknownUser, Name: "chatauth_login_unknown_user_total", Help: "Logins for an unregistered email."},
	{ID: chatauth.MetricLoginRateLimited, Name: "chatauth_login_rate_limited_total", Help: "Logins rejected by the per-IP window."},
	{ID: chatauth.MetricLoginLocked, Name: "chatauth_login_locked_total", Help: "Logins rejected because the account is locked."},
	{ID: chatauth.MetricAccountLocked, Name: "chatauth_account_locked_total", Help: "Accounts locked after repeated wrong passwords."},
	{ID: chatauth.MetricSessionValidated, Name: "chatauth_session_validated_total", Help: "Valid session cookies."},
	{ID: chatauth.MetricSessionRejected, Name: "chatauth_session_rejected_total", Help: "Missing or invalid session cookies."},
	{ID: chatauth.MetricSessionRenewed, Name: "chatauth_session_renewed_total", Help: "Session cookies re-issued on a protected path."},
	{ID: chatauth.MetricSessionRevoked, Name: "chatauth_session_revoked_total", Help: "Session token rotations."},
	{ID: chatauth.MetricLogout, Name: "chatauth_logout_total", Help: "Logout requests."},
	{ID: chatauth.MetricCodeIssued, Name: "chatauth_code_issued_total", Help: "Verification codes delivered."},
	{ID: chatauth.MetricCodeTooFrequent, Name: "chatauth_code_too_frequent_total", Help: "Code requests inside the resend cooldown."},
	{ID: chatauth.MetricCodeDeliveryFailed, Name: "chatauth_code_delivery_failed_total", Help: "Codes the sender failed to deliver."},
	{ID: chatauth.MetricCodeConsumed, Name: "chatauth_code_consumed_total", Help: "Codes consumed successfully."},
	{ID: chatauth.MetricCodeMismatch, Name: "chatauth_code_mismatch_total", Help: "Wrong code submissions."},
	{ID: chatauth.MetricCodeExpired, Name: "chatauth_code_expired_total", Help: "Codes submitted after expiry."},
	{ID: chatauth.MetricCodeExhausted, Name: "chatauth_code_exhausted_total", Help: "Codes discarded after too many wrong submissions."},
	{ID: chatauth.MetricInvitationRejected, Name: "chatauth_invitation_rejected_total", Help: "Wrong invitation codes."},
	{ID: chatauth.MetricInvitationBlocked, Name: "chatauth_invitation_blocked_total", Help: "Invitation checks rejected for a blocked IP."},
	{ID: chatauth.MetricAccountCreated, Name: "chatauth_account_created_total", Help: "Accounts registered."},
	{ID: chatauth.MetricPasswordReset, Name: "chatauth_password_reset_total", Help: "Passwords reset."},
	{ID: chatauth.MetricStoreFailure, Name: "chatauth_store_failure_total", Help: "Failed account store writes."},
	{ID: chatauth.MetricSweepRemoved, Name: "chatauth_sweep_removed_total", Help: "Expired records removed by the sweeper."},
}

var HistogramDefs = []HistogramDef{
	{ID: chatauth.MetricValidateLatency, Name: "chatauth_validate_latency_seconds", Help: "Session validation latency."},
}

// HistogramBounds are the upper bounds in seconds, matching the engine's
// microsecond buckets. The last bucket is +Inf.
var HistogramBounds = []float64{
	0.00005,
	0.0001,
	0.00025,
	0.0005,
	0.001,
	0.005,
	0.025,
}

// HistogramBoundSuffix names each bucket, +Inf included, for exporters
// that publish one gauge per bucket.
var HistogramBoundSuffix = []string{
	"0_00005",
	"0_0001",
	"0_00025",
	"0_0005",
	"0_001",
	"0_005",
	"0_025",
	"inf",
}

// NormalizeBuckets copies raw into a fixed-size array, zero-filling missing
// buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
